package backoffice

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"homeschoolhub/analytics"
	"homeschoolhub/auth"
	"homeschoolhub/cache"
	"homeschoolhub/models"
)

const visitDays = 14

// BackofficeModule is the operator console: user management, traffic and
// the page cache. Access is limited to the BACKOFFICE_EMAILS accounts.
type BackofficeModule struct {
	db        *gorm.DB
	analytics *analytics.AnalyticsModule
	cache     *cache.PageCache
	emails    map[string]bool
}

func NewBackofficeModule(db *gorm.DB, analyticsModule *analytics.AnalyticsModule, pageCache *cache.PageCache, emails []string) *BackofficeModule {
	allowed := make(map[string]bool, len(emails))
	for _, e := range emails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			allowed[e] = true
		}
	}
	return &BackofficeModule{db: db, analytics: analyticsModule, cache: pageCache, emails: allowed}
}

func (b *BackofficeModule) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/backoffice", b.requireBackoffice)
	{
		group.GET("", b.index)
		group.POST("/users/:id/admin", b.toggleAdmin)
		group.POST("/users/:id/confirm", b.confirmUser)
		group.POST("/cache/clear", b.clearCache)
	}
}

func (b *BackofficeModule) requireBackoffice(c *gin.Context) {
	user := auth.CurrentUser(c)
	if user == nil {
		c.Redirect(http.StatusFound, auth.LoginURL(c.Request.URL.Path))
		c.Abort()
		return
	}

	if !b.emails[strings.ToLower(user.Email)] {
		log.Warn().Str("email", user.Email).Msg("backoffice access denied")
		if c.Request.Method == http.MethodGet {
			c.HTML(http.StatusForbidden, "backoffice_error.html", gin.H{
				"error": "You do not have access to the backoffice.",
			})
		} else {
			c.JSON(http.StatusForbidden, gin.H{"error": "You do not have access to the backoffice."})
		}
		c.Abort()
		return
	}

	c.Next()
}

type userRow struct {
	User        models.User
	ReviewCount int64
}

func (b *BackofficeModule) index(c *gin.Context) {
	ctx := c.Request.Context()

	var users []models.User
	if err := b.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		log.Error().Err(err).Msg("backoffice: could not list users")
		c.HTML(http.StatusInternalServerError, "backoffice_error.html", gin.H{
			"error": "Unable to load users.",
		})
		return
	}

	type count struct {
		ReviewerID uuid.UUID
		Total      int64
	}
	var counts []count
	b.db.WithContext(ctx).Model(&models.Review{}).
		Select("reviewer_id, COUNT(*) as total").
		Group("reviewer_id").
		Scan(&counts)
	byUser := make(map[uuid.UUID]int64, len(counts))
	for _, ct := range counts {
		byUser[ct.ReviewerID] = ct.Total
	}

	rows := make([]userRow, len(users))
	for i, u := range users {
		rows[i] = userRow{User: u, ReviewCount: byUser[u.ID]}
	}

	c.HTML(http.StatusOK, "backoffice_index.html", gin.H{
		"user":   auth.CurrentUser(c),
		"users":  rows,
		"visits": b.analytics.VisitsByDay(visitDays),
	})
}

func (b *BackofficeModule) loadUser(c *gin.Context) (*models.User, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found."})
		return nil, false
	}

	var user models.User
	if err := b.db.WithContext(c.Request.Context()).First(&user, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found."})
		return nil, false
	}
	return &user, true
}

func (b *BackofficeModule) toggleAdmin(c *gin.Context) {
	user, ok := b.loadUser(c)
	if !ok {
		return
	}

	isAdmin := !user.IsAdmin
	if err := b.db.WithContext(c.Request.Context()).Model(user).Update("is_admin", isAdmin).Error; err != nil {
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("backoffice: could not toggle admin")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to update user."})
		return
	}

	log.Info().Str("user_id", user.ID.String()).Bool("is_admin", isAdmin).Msg("backoffice: admin flag changed")
	c.JSON(http.StatusOK, gin.H{"success": true, "isAdmin": isAdmin})
}

func (b *BackofficeModule) confirmUser(c *gin.Context) {
	user, ok := b.loadUser(c)
	if !ok {
		return
	}

	err := b.db.WithContext(c.Request.Context()).Model(user).Updates(map[string]any{
		"email_verified":           true,
		"email_verification_token": "",
	}).Error
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("backoffice: could not confirm user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to update user."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "emailVerified": true})
}

func (b *BackofficeModule) clearCache(c *gin.Context) {
	if b.cache != nil {
		if err := b.cache.ClearAll(); err != nil {
			log.Error().Err(err).Msg("backoffice: could not clear page cache")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to clear the cache."})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Cache cleared."})
}
