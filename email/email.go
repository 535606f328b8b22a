package email

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"
)

var ErrNotConfigured = errors.New("smtp not configured")

type Settings struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
	Domain   string
}

type EmailService struct {
	settings Settings
	send     func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmailService(settings Settings) *EmailService {
	return &EmailService{settings: settings, send: smtp.SendMail}
}

// Enabled reports whether an SMTP host is configured.
func (e *EmailService) Enabled() bool {
	return e != nil && e.settings.Host != ""
}

func (e *EmailService) SendConfirmationEmail(to, token string) error {
	link := fmt.Sprintf("%s/confirm/%s", e.settings.Domain, token)

	body := fmt.Sprintf(`Hello!

Thanks for signing up for Homeschool Hub.

Confirm your email address to activate your account:

%s

If you did not sign up, you can ignore this message.
`, link)

	return e.sendMessage(to, "", "Confirm your email - Homeschool Hub", body)
}

// SendContactMessage relays a contact form submission. Replies go to the visitor.
func (e *EmailService) SendContactMessage(to, name, from, message string) error {
	name = stripHeader(name)
	body := fmt.Sprintf("Message from %s <%s>:\n\n%s\n", name, from, message)
	return e.sendMessage(to, from, "Contact form: "+name, body)
}

func (e *EmailService) sendMessage(to, replyTo, subject, body string) error {
	if !e.Enabled() {
		return ErrNotConfigured
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", e.settings.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	if replyTo != "" {
		fmt.Fprintf(&msg, "Reply-To: %s\r\n", stripHeader(replyTo))
	}
	fmt.Fprintf(&msg, "Subject: %s\r\n\r\n%s\r\n", stripHeader(subject), body)

	auth := smtp.PlainAuth("", e.settings.User, e.settings.Password, e.settings.Host)
	addr := fmt.Sprintf("%s:%s", e.settings.Host, e.settings.Port)

	if err := e.send(addr, auth, e.settings.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func stripHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}
