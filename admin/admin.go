package admin

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"homeschoolhub/analytics"
	"homeschoolhub/auth"
	"homeschoolhub/blog"
	"homeschoolhub/cache"
	"homeschoolhub/models"
	"homeschoolhub/reviews"
)

type AdminModule struct {
	reviews   *reviews.Store
	posts     *blog.Store
	analytics *analytics.AnalyticsModule
	cache     *cache.PageCache
	now       func() time.Time
}

// NewAdminModule wires the admin area. analytics and pageCache may be nil.
func NewAdminModule(reviewStore *reviews.Store, postStore *blog.Store, analyticsModule *analytics.AnalyticsModule, pageCache *cache.PageCache) *AdminModule {
	return &AdminModule{
		reviews:   reviewStore,
		posts:     postStore,
		analytics: analyticsModule,
		cache:     pageCache,
		now:       time.Now,
	}
}

func (a *AdminModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/admin", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/admin/reviews")
	})

	adminGroup := router.Group("/admin")
	adminGroup.Use(a.requireAdmin)
	{
		adminGroup.GET("/reviews", a.reviewQueue)
		adminGroup.POST("/reviews/:id/decision", a.decideReview)
		adminGroup.GET("/blog", a.listPosts)
		adminGroup.GET("/blog/new", a.newPost)
		adminGroup.POST("/blog/new", a.savePost)
		adminGroup.GET("/blog/:id", a.editPost)
		adminGroup.POST("/blog/:id", a.savePost)
	}
}

// requireAdmin renders the access-restricted page for visitors and for
// signed-in users without the admin flag. Nothing is loaded for them.
func (a *AdminModule) requireAdmin(c *gin.Context) {
	user := auth.CurrentUser(c)
	if reviews.CanModerate(user) {
		c.Next()
		return
	}

	if c.Request.Method != http.MethodGet {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You must be an admin to do this."})
		return
	}

	c.HTML(http.StatusForbidden, "admin_restricted.html", gin.H{
		"user":     user,
		"loginURL": auth.LoginURL(c.Request.URL.Path),
	})
	c.Abort()
}

func currentAdmin(c *gin.Context) *models.User {
	return auth.CurrentUser(c)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	return id, err == nil
}
