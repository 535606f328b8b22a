package blog

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"

	"homeschoolhub/analytics"
	"homeschoolhub/cache"
)

type BlogModule struct {
	store     *Store
	analytics *analytics.AnalyticsModule
	cache     *cache.PageCache
	now       func() time.Time
}

// markdown renderer configured with Goldmark and useful extensions
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,     // tables, strikethrough, task lists, autolinks (GFM set)
		extension.Linkify, // linkify raw URLs
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithUnsafe(), // posts are written by admins and may embed HTML
	),
)

// ListItem is a post as shown on the blog index.
type ListItem struct {
	Title       string
	Slug        string
	Excerpt     string
	PublishedAt time.Time
}

// NewBlogModule wires the public blog. analytics and pageCache may be nil.
func NewBlogModule(store *Store, analyticsModule *analytics.AnalyticsModule, pageCache *cache.PageCache) *BlogModule {
	return &BlogModule{
		store:     store,
		analytics: analyticsModule,
		cache:     pageCache,
		now:       time.Now,
	}
}

func (b *BlogModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/blog", b.index)

	handlers := []gin.HandlerFunc{b.trackView}
	if b.cache != nil {
		handlers = append(handlers, b.cache.Middleware())
	}
	router.GET("/blog/:slug", append(handlers, b.post)...)
}

func (b *BlogModule) index(c *gin.Context) {
	posts, err := b.store.Visible(c.Request.Context(), b.now())
	if err != nil {
		log.Error().Err(err).Msg("could not load blog posts")
		c.HTML(http.StatusInternalServerError, "blog_index.html", gin.H{
			"error": "Unable to load blog posts.",
		})
		return
	}

	items := make([]ListItem, 0, len(posts))
	for _, p := range posts {
		items = append(items, ListItem{
			Title:       p.Title,
			Slug:        p.Slug,
			Excerpt:     Excerpt(p.Content),
			PublishedAt: *p.PublishedAt,
		})
	}

	c.HTML(http.StatusOK, "blog_index.html", gin.H{
		"posts": items,
	})
}

// trackView runs ahead of the page cache so cached hits are counted too.
func (b *BlogModule) trackView(c *gin.Context) {
	if b.analytics == nil {
		c.Next()
		return
	}

	post, err := b.store.VisibleBySlug(c.Request.Context(), c.Param("slug"), b.now())
	if err == nil {
		b.analytics.TrackVisit(c, analytics.KindBlogPost, post.ID.String())
	}
	c.Next()
}

func (b *BlogModule) post(c *gin.Context) {
	post, err := b.store.VisibleBySlug(c.Request.Context(), c.Param("slug"), b.now())
	if errors.Is(err, ErrNotFound) {
		c.HTML(http.StatusNotFound, "blog_error.html", gin.H{
			"error": "Post not found.",
		})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("slug", c.Param("slug")).Msg("could not load blog post")
		c.HTML(http.StatusInternalServerError, "blog_error.html", gin.H{
			"error": "Unable to load this post.",
		})
		return
	}

	c.HTML(http.StatusOK, "blog_post.html", gin.H{
		"post": gin.H{
			"ID":          post.ID,
			"Title":       post.Title,
			"Slug":        post.Slug,
			"Content":     template.HTML(renderMarkdown(post.Content)),
			"PublishedAt": *post.PublishedAt,
			"UpdatedAt":   post.UpdatedAt,
		},
	})
}

func renderMarkdown(content string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		// fall back to the raw text rather than failing the page
		return template.HTMLEscapeString(content)
	}
	return buf.String()
}

// RenderMarkdown converts post content for the admin preview.
func RenderMarkdown(content string) template.HTML {
	return template.HTML(renderMarkdown(content))
}
