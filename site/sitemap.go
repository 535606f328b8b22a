package site

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type sitemapBuilder struct {
	strings.Builder
	domain string
}

func (b *sitemapBuilder) url(path, changefreq, priority string, lastmod *time.Time) {
	b.WriteString("  <url>\n")
	b.WriteString("    <loc>" + b.domain + path + "</loc>\n")
	if lastmod != nil {
		b.WriteString("    <lastmod>" + lastmod.Format(time.RFC3339) + "</lastmod>\n")
	}
	b.WriteString("    <changefreq>" + changefreq + "</changefreq>\n")
	b.WriteString("    <priority>" + priority + "</priority>\n")
	b.WriteString("  </url>\n")
}

func (s *SiteModule) sitemap(c *gin.Context) {
	ctx := c.Request.Context()
	b := &sitemapBuilder{domain: s.domain}

	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString("\n")
	b.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	b.WriteString("\n")

	b.url("/", "weekly", "1.0", nil)
	for _, path := range []string{"/about", "/resources", "/community", "/contact"} {
		b.url(path, "monthly", "0.5", nil)
	}
	b.url("/books", "daily", "0.8", nil)
	b.url("/blog", "daily", "0.8", nil)

	posts, err := s.posts.Visible(ctx, s.now())
	if err != nil {
		log.Error().Err(err).Msg("sitemap: could not list posts")
	}
	for _, p := range posts {
		updated := p.UpdatedAt
		b.url("/blog/"+p.Slug, "monthly", "0.6", &updated)
	}

	books, err := s.reviews.Books(ctx)
	if err != nil {
		log.Error().Err(err).Msg("sitemap: could not list books")
	}
	for _, book := range books {
		b.url("/books/"+book.ID.String(), "weekly", "0.6", nil)
	}

	b.WriteString("</urlset>\n")

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.String(http.StatusOK, b.String())
}
