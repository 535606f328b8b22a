package auth

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeschoolhub/models"
	"homeschoolhub/testutil"
)

type fakeMailer struct {
	enabled bool
	sent    map[string]string
}

func (m *fakeMailer) Enabled() bool { return m.enabled }

func (m *fakeMailer) SendConfirmationEmail(to, token string) error {
	if m.sent == nil {
		m.sent = make(map[string]string)
	}
	m.sent[to] = token
	return nil
}

func setupRouter(t *testing.T, p *Provider) *gin.Engine {
	router := testutil.NewRouter(t)
	router.Use(p.Middleware())
	p.RegisterRoutes(router)
	router.GET("/whoami", func(c *gin.Context) {
		if user := CurrentUser(c); user != nil {
			c.String(http.StatusOK, user.Email)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})
	return router
}

func TestSignUp_WithoutMailerIsVerified(t *testing.T) {
	db := testutil.NewDB(t)
	p := NewProvider(db, &fakeMailer{}, []string{"Admin@Example.com"})
	ctx := context.Background()

	user, err := p.SignUp(ctx, " admin@example.com ", "password123", "Ada")
	require.NoError(t, err)
	assert.True(t, user.EmailVerified)
	assert.True(t, user.IsAdmin)
	assert.Equal(t, "admin@example.com", user.Email)

	_, err = p.SignUp(ctx, "ADMIN@example.com", "password123", "")
	assert.ErrorIs(t, err, ErrEmailTaken)

	reader, err := p.SignUp(ctx, "reader@example.com", "password123", "")
	require.NoError(t, err)
	assert.False(t, reader.IsAdmin)
}

func TestSignUp_ConfirmationFlow(t *testing.T) {
	db := testutil.NewDB(t)
	mailer := &fakeMailer{enabled: true}
	p := NewProvider(db, mailer, nil)
	ctx := context.Background()

	user, err := p.SignUp(ctx, "reader@example.com", "password123", "")
	require.NoError(t, err)
	assert.False(t, user.EmailVerified)
	require.NoError(t, p.SendConfirmation(user))
	token := mailer.sent["reader@example.com"]
	require.NotEmpty(t, token)

	_, err = p.SignIn(ctx, "reader@example.com", "password123")
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	confirmed, err := p.Confirm(ctx, token)
	require.NoError(t, err)
	assert.True(t, confirmed.EmailVerified)

	_, err = p.Confirm(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	signedIn, err := p.SignIn(ctx, "reader@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, signedIn.ID)
}

func TestSignIn_WrongPassword(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "reader@example.com", false)
	p := NewProvider(db, nil, nil)

	_, err := p.SignIn(context.Background(), "reader@example.com", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = p.SignIn(context.Background(), "nobody@example.com", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSubscribe_UnsubscribeAndClose(t *testing.T) {
	db := testutil.NewDB(t)
	p := NewProvider(db, nil, nil)
	ctx := context.Background()

	var first, second []EventKind
	unsubscribe := p.Subscribe(func(e Event) { first = append(first, e.Kind) })
	p.Subscribe(func(e Event) { second = append(second, e.Kind) })

	_, err := p.SignUp(ctx, "a@example.com", "password123", "")
	require.NoError(t, err)
	unsubscribe()
	unsubscribe()
	_, err = p.SignIn(ctx, "a@example.com", "password123")
	require.NoError(t, err)

	assert.Equal(t, []EventKind{SignedUp}, first)
	assert.Equal(t, []EventKind{SignedUp, SignedIn}, second)

	p.Close()
	_, err = p.SignIn(ctx, "a@example.com", "password123")
	require.NoError(t, err)
	assert.Len(t, second, 2)

	p.Subscribe(func(e Event) { t.Fatal("subscription after Close must not fire") })
	_, err = p.SignIn(ctx, "a@example.com", "password123")
	require.NoError(t, err)
}

func TestLoginPost_StartsSession(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "reader@example.com", false)
	p := NewProvider(db, nil, nil)
	router := setupRouter(t, p)

	w := testutil.Do(router, "POST", "/login", url.Values{
		"email":    {"reader@example.com"},
		"password": {testutil.Password},
		"next":     {"/books"},
	}, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/books", w.Header().Get("Location"))

	w = testutil.Do(router, "GET", "/whoami", nil, w.Result().Cookies())
	assert.Equal(t, "reader@example.com", w.Body.String())
}

func TestLoginPost_RejectsBadPassword(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "reader@example.com", false)
	router := setupRouter(t, NewProvider(db, nil, nil))

	w := testutil.Do(router, "POST", "/login", url.Values{
		"email":    {"reader@example.com"},
		"password": {"wrong"},
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Incorrect email or password.")
	assert.Contains(t, w.Body.String(), `value="reader@example.com"`)
}

func TestLoginPost_OffsiteNextIgnored(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "reader@example.com", false)
	router := setupRouter(t, NewProvider(db, nil, nil))

	for _, next := range []string{
		"//evil.example.com",
		"/\\evil.example.com",
		"/\t/evil.example.com",
		"https://evil.example.com",
		"evil.example.com",
	} {
		t.Run(next, func(t *testing.T) {
			w := testutil.Do(router, "POST", "/login", url.Values{
				"email":    {"reader@example.com"},
				"password": {testutil.Password},
				"next":     {next},
			}, nil)
			assert.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, "/account", w.Header().Get("Location"))
		})
	}
}

func TestSafeNext(t *testing.T) {
	tests := []struct {
		next     string
		expected string
	}{
		{"/books/42?tab=reviews", "/books/42?tab=reviews"},
		{"/admin/reviews", "/admin/reviews"},
		{"", "/account"},
		{"//evil.example", "/account"},
		{"/\\evil.example", "/account"},
		{"/\t/evil.example", "/account"},
		{"/\n/evil.example", "/account"},
		{"http://evil.example/", "/account"},
	}

	for _, tt := range tests {
		t.Run(tt.next, func(t *testing.T) {
			assert.Equal(t, tt.expected, safeNext(tt.next))
		})
	}
}

func TestSignUpPost_PasswordMismatch(t *testing.T) {
	db := testutil.NewDB(t)
	router := setupRouter(t, NewProvider(db, nil, nil))

	w := testutil.Do(router, "POST", "/signup", url.Values{
		"email":            {"reader@example.com"},
		"password":         {"password123"},
		"confirm_password": {"password124"},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "does not match")

	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.Zero(t, count)
}

func TestSignUpPost_Success(t *testing.T) {
	db := testutil.NewDB(t)
	router := setupRouter(t, NewProvider(db, nil, nil))

	w := testutil.Do(router, "POST", "/signup", url.Values{
		"full_name":        {"Ann Reader"},
		"email":            {"ann@example.com"},
		"password":         {"password123"},
		"confirm_password": {"password123"},
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ann@example.com")

	var user models.User
	require.NoError(t, db.Where("email = ?", "ann@example.com").First(&user).Error)
	assert.Equal(t, "Ann Reader", user.FullName)
}

func TestConfirmEmail_InvalidToken(t *testing.T) {
	db := testutil.NewDB(t)
	router := setupRouter(t, NewProvider(db, nil, nil))

	w := testutil.Do(router, "GET", "/confirm/bogus", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLogout_ClearsSessionAndNotifies(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "reader@example.com", false)
	p := NewProvider(db, nil, nil)
	router := setupRouter(t, p)

	var events []Event
	p.Subscribe(func(e Event) { events = append(events, e) })

	cookies := testutil.Login(t, router, user)
	w := testutil.Do(router, "GET", "/logout", nil, cookies)
	require.Equal(t, http.StatusFound, w.Code)

	w = testutil.Do(router, "GET", "/whoami", nil, w.Result().Cookies())
	assert.Equal(t, "anonymous", w.Body.String())

	require.Len(t, events, 1)
	assert.Equal(t, SignedOut, events[0].Kind)
	assert.Equal(t, user.ID, events[0].User.ID)
}

func TestMiddleware_UnknownUserIsAnonymous(t *testing.T) {
	db := testutil.NewDB(t)
	router := setupRouter(t, NewProvider(db, nil, nil))

	cookies := testutil.Login(t, router, &models.User{ID: uuid.New()})
	w := testutil.Do(router, "GET", "/whoami", nil, cookies)
	assert.Equal(t, "anonymous", w.Body.String())
}

func TestMiddleware_StoreFailureKeepsSession(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "reader@example.com", false)
	router := setupRouter(t, NewProvider(db, nil, nil))
	cookies := testutil.Login(t, router, user)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	w := testutil.Do(router, "GET", "/whoami", nil, cookies)
	assert.Equal(t, "anonymous", w.Body.String())
	assert.Empty(t, w.Header().Values("Set-Cookie"))
}

func TestMiddleware_UnknownUserClearsSession(t *testing.T) {
	db := testutil.NewDB(t)
	router := setupRouter(t, NewProvider(db, nil, nil))

	cookies := testutil.Login(t, router, &models.User{ID: uuid.New()})
	w := testutil.Do(router, "GET", "/whoami", nil, cookies)
	assert.NotEmpty(t, w.Header().Values("Set-Cookie"))
}

func TestLoginPage_SignedInRedirects(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "reader@example.com", false)
	router := setupRouter(t, NewProvider(db, nil, nil))

	w := testutil.Do(router, "GET", "/login", nil, testutil.Login(t, router, user))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/account", w.Header().Get("Location"))
}

func TestFlash_ShownOnce(t *testing.T) {
	router := testutil.NewRouter(t)
	router.GET("/flash/set", func(c *gin.Context) {
		SetFlash(c, "Saved.")
		c.Status(http.StatusNoContent)
	})
	router.GET("/flash/get", func(c *gin.Context) {
		c.String(http.StatusOK, Flash(c))
	})

	w := testutil.Do(router, "GET", "/flash/set", nil, nil)
	cookies := w.Result().Cookies()

	w = testutil.Do(router, "GET", "/flash/get", nil, cookies)
	assert.Equal(t, "Saved.", w.Body.String())
	require.NotEmpty(t, w.Result().Cookies())

	w = testutil.Do(router, "GET", "/flash/get", nil, w.Result().Cookies())
	assert.Equal(t, "", w.Body.String())
}
