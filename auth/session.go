package auth

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"homeschoolhub/models"
)

const (
	sessionUserKey = "user_id"
	contextUserKey = "current_user"
	flashKey       = "flash"
)

// Middleware resolves the signed-in user once per request. A session that
// points at a missing user is cleared; any other lookup failure leaves the
// session alone and serves the request anonymously.
func (p *Provider) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		id, ok := session.Get(sessionUserKey).(string)
		if !ok || id == "" {
			c.Next()
			return
		}

		user, err := p.userByID(c.Request.Context(), id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn().Str("user_id", id).Msg("dropping session for unknown user")
			session.Clear()
			if err := session.Save(); err != nil {
				log.Error().Err(err).Msg("could not clear session")
			}
			c.Next()
			return
		}
		if err != nil {
			log.Error().Err(err).Str("user_id", id).Msg("could not load session user")
			c.Next()
			return
		}

		c.Set(contextUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the signed-in user or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(contextUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

func (p *Provider) startSession(c *gin.Context, user *models.User) error {
	session := sessions.Default(c)
	session.Clear()
	session.Set(sessionUserKey, user.ID.String())
	return session.Save()
}

// SignOut ends the session of the current request.
func (p *Provider) SignOut(c *gin.Context) {
	user := CurrentUser(c)

	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		log.Error().Err(err).Msg("could not clear session")
	}

	if user != nil {
		p.publish(SignedOut, user)
	}
}

// LoginURL sends the visitor to the log-in page and back to path afterwards.
func LoginURL(path string) string {
	return "/login?next=" + url.QueryEscape(path)
}

// SetFlash stores a one-time message shown on the next page render.
func SetFlash(c *gin.Context, message string) {
	session := sessions.Default(c)
	session.AddFlash(message, flashKey)
	if err := session.Save(); err != nil {
		log.Error().Err(err).Msg("could not save flash")
	}
}

// Flash pops the pending one-time message, if any.
func Flash(c *gin.Context) string {
	session := sessions.Default(c)
	flashes := session.Flashes(flashKey)
	if len(flashes) == 0 {
		return ""
	}
	if err := session.Save(); err != nil {
		log.Error().Err(err).Msg("could not save flash")
	}
	msg, _ := flashes[0].(string)
	return msg
}

// safeNext only allows local absolute paths. Backslashes and control
// characters are refused since browsers read "/\" like "//".
func safeNext(next string) string {
	const fallback = "/account"
	if !strings.HasPrefix(next, "/") || strings.ContainsRune(next, '\\') {
		return fallback
	}
	if strings.IndexFunc(next, unicode.IsControl) >= 0 {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" || strings.HasPrefix(next, "//") {
		return fallback
	}
	return next
}

func redirectIfSignedIn(c *gin.Context) bool {
	if CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, "/account")
		return true
	}
	return false
}
