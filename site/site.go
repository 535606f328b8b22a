package site

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"homeschoolhub/auth"
	"homeschoolhub/blog"
	"homeschoolhub/common"
	"homeschoolhub/models"
	"homeschoolhub/reviews"
)

// ContactMailer relays contact form messages.
type ContactMailer interface {
	Enabled() bool
	SendContactMessage(to, name, from, message string) error
}

type SiteModule struct {
	db        *gorm.DB
	posts     *blog.Store
	reviews   *reviews.Store
	mailer    ContactMailer
	contactTo string
	domain    string
	now       func() time.Time
}

type Options struct {
	Mailer    ContactMailer
	ContactTo string
	Domain    string
}

func NewSiteModule(db *gorm.DB, posts *blog.Store, reviewStore *reviews.Store, opts Options) *SiteModule {
	return &SiteModule{
		db:        db,
		posts:     posts,
		reviews:   reviewStore,
		mailer:    opts.Mailer,
		contactTo: opts.ContactTo,
		domain:    strings.TrimSuffix(opts.Domain, "/"),
		now:       time.Now,
	}
}

// RegisterRoutes mounts the static pages. guards run before the contact post.
func (s *SiteModule) RegisterRoutes(router *gin.Engine, guards ...gin.HandlerFunc) {
	router.GET("/", s.page("site_index.html"))
	router.GET("/about", s.page("site_about.html"))
	router.GET("/resources", s.resources)
	router.GET("/community", s.community)
	router.GET("/contact", s.contactPage)
	router.POST("/contact", common.Chain(guards, s.contactPost)...)
	router.GET("/sitemap.xml", s.sitemap)
	router.GET("/health", s.health)
}

func (s *SiteModule) page(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, name, gin.H{
			"user": auth.CurrentUser(c),
		})
	}
}

func (s *SiteModule) community(c *gin.Context) {
	var topics []models.ForumPost
	var meetups []models.Meetup
	db := s.db.WithContext(c.Request.Context())

	err := db.Preload("Author").Order("created_at DESC").Limit(5).Find(&topics).Error
	if err == nil {
		err = db.Where("date >= ?", s.now()).Order("date ASC").Limit(3).Find(&meetups).Error
	}
	if err != nil {
		log.Error().Err(err).Msg("could not load community data")
		c.HTML(http.StatusInternalServerError, "site_community.html", gin.H{
			"error": "Unable to load community activity.",
		})
		return
	}

	c.HTML(http.StatusOK, "site_community.html", gin.H{
		"topics":  topics,
		"meetups": meetups,
		"user":    auth.CurrentUser(c),
	})
}

func (s *SiteModule) health(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		log.Error().Err(err).Msg("health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
