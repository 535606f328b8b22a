// Package auth owns accounts and the per-request session context: who is
// signed in, and notifications when that changes.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"homeschoolhub/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

type EventKind string

const (
	SignedUp  EventKind = "signed_up"
	SignedIn  EventKind = "signed_in"
	SignedOut EventKind = "signed_out"
	Confirmed EventKind = "confirmed"
)

type Event struct {
	Kind EventKind
	User models.User
}

// Mailer sends the sign-up confirmation link.
type Mailer interface {
	Enabled() bool
	SendConfirmationEmail(to, token string) error
}

// Provider is created once per process and shared by every module.
type Provider struct {
	db          *gorm.DB
	mailer      Mailer
	adminEmails map[string]bool

	mu     sync.Mutex
	subs   map[int]func(Event)
	nextID int
	closed bool
}

func NewProvider(db *gorm.DB, mailer Mailer, adminEmails []string) *Provider {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		admins[normalizeEmail(e)] = true
	}
	return &Provider{
		db:          db,
		mailer:      mailer,
		adminEmails: admins,
		subs:        make(map[int]func(Event)),
	}
}

// Subscribe registers fn for auth state changes. The returned func removes
// the subscription and may be called more than once.
func (p *Provider) Subscribe(fn func(Event)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return func() {}
	}

	id := p.nextID
	p.nextID++
	p.subs[id] = fn

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// Close drops every subscription. Later events are not delivered.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.subs = make(map[int]func(Event))
}

func (p *Provider) publish(kind EventKind, user *models.User) {
	p.mu.Lock()
	fns := make([]func(Event), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(Event{Kind: kind, User: *user})
	}
}

// SignUp creates an account. Without a configured mailer there is no way to
// deliver a confirmation link, so the account starts out verified.
func (p *Provider) SignUp(ctx context.Context, email, password, fullName string) (*models.User, error) {
	email = normalizeEmail(email)
	db := p.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(fullName),
		IsAdmin:      p.adminEmails[email],
	}

	if p.mailer != nil && p.mailer.Enabled() {
		token, err := generateToken()
		if err != nil {
			return nil, fmt.Errorf("generate token: %w", err)
		}
		user.EmailVerificationToken = token
	} else {
		user.EmailVerified = true
	}

	if err := db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	p.publish(SignedUp, user)
	return user, nil
}

// SendConfirmation mails the verification link for an unverified user.
func (p *Provider) SendConfirmation(user *models.User) error {
	if user.EmailVerified || p.mailer == nil {
		return nil
	}
	return p.mailer.SendConfirmationEmail(user.Email, user.EmailVerificationToken)
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := p.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !checkPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	p.publish(SignedIn, &user)
	return &user, nil
}

// Confirm marks the account holding token as verified. A token is single use.
func (p *Provider) Confirm(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	var user models.User
	db := p.db.WithContext(ctx)
	err := db.Where("email_verification_token = ?", token).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("find token: %w", err)
	}

	err = db.Model(&user).Updates(map[string]any{
		"email_verified":           true,
		"email_verification_token": "",
	}).Error
	if err != nil {
		return nil, fmt.Errorf("confirm user: %w", err)
	}
	user.EmailVerified = true
	user.EmailVerificationToken = ""

	p.publish(Confirmed, &user)
	return &user, nil
}

func (p *Provider) userByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := p.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
