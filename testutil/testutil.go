// Package testutil holds the database, router and session helpers shared by
// the handler tests.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"homeschoolhub/common"
	"homeschoolhub/database"
	"homeschoolhub/models"
)

const Password = "password123"

// NewDB opens a private in-memory database with every table migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	return openMemory(t, "app")
}

// NewAnalyticsDB opens a second, empty in-memory database for view events.
func NewAnalyticsDB(t *testing.T) *gorm.DB {
	t.Helper()
	return openMemory(t, "analytics")
}

func openMemory(t *testing.T, suffix string) *gorm.DB {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()) + "_" + suffix
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	if suffix == "app" {
		require.NoError(t, database.RunMigrations(db))
	}
	return db
}

// NewRouter returns a test engine with cookie sessions and the package's
// views loaded. GET /__login/:id starts a session for that user id.
func NewRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()

	store := cookie.NewStore([]byte("secret"))
	router.Use(sessions.Sessions("test-session", store))
	router.SetFuncMap(common.TemplateFuncs("http://localhost:8080"))
	router.LoadHTMLGlob("views/*.html")

	router.GET("/__login/:id", func(c *gin.Context) {
		session := sessions.Default(c)
		session.Set("user_id", c.Param("id"))
		_ = session.Save()
		c.Status(http.StatusNoContent)
	})
	return router
}

// CreateUser inserts a verified user whose password is Password.
func CreateUser(t *testing.T, db *gorm.DB, email string, admin bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{Email: email, PasswordHash: string(hash), IsAdmin: admin, EmailVerified: true}
	require.NoError(t, db.Create(user).Error)
	return user
}

// Login returns the session cookies of a signed-in user.
func Login(t *testing.T, router *gin.Engine, user *models.User) []*http.Cookie {
	t.Helper()
	w := Do(router, "GET", "/__login/"+user.ID.String(), nil, nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	return w.Result().Cookies()
}

// Do performs a request. A non-nil form is sent url-encoded.
func Do(router *gin.Engine, method, path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req, _ = http.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req, _ = http.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
