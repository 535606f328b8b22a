package cache

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Middleware serves and fills the page cache for routes with a :slug param.
func (p *PageCache) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Param("slug")
		if c.Request.Method != http.MethodGet || slug == "" {
			c.Next()
			return
		}

		if cached, found := p.Read(slug); found {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(cached))
			c.Abort()
			return
		}

		c.Header("X-Cache", "MISS")

		writer := &responseWriter{
			ResponseWriter: c.Writer,
			body:           bytes.NewBuffer(nil),
		}
		c.Writer = writer

		c.Next()

		// only successful html pages are cached
		if c.Writer.Status() == http.StatusOK &&
			c.Writer.Header().Get("Content-Type") == "text/html; charset=utf-8" {
			if err := p.Write(slug, writer.body.String()); err != nil {
				log.Warn().Err(err).Str("slug", slug).Msg("could not write page cache")
			}
		}
	}
}
