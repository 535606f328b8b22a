package site

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"homeschoolhub/common"
)

type contactForm struct {
	Name    string `form:"name" binding:"required,max=120"`
	Email   string `form:"email" binding:"required,email"`
	Message string `form:"message" binding:"required,max=5000"`
}

func (s *SiteModule) contactPage(c *gin.Context) {
	c.HTML(http.StatusOK, "site_contact.html", gin.H{})
}

func (s *SiteModule) contactPost(c *gin.Context) {
	var form contactForm
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusBadRequest, "site_contact.html", gin.H{
			"form":        form,
			"error":       "Please check the highlighted fields.",
			"fieldErrors": common.ValidationMessages(err),
		})
		return
	}

	if s.mailer == nil || !s.mailer.Enabled() || s.contactTo == "" {
		log.Warn().Str("from", form.Email).Msg("contact form used but mail is not configured")
		c.HTML(http.StatusServiceUnavailable, "site_contact.html", gin.H{
			"form":  form,
			"error": "Unable to send your message right now.",
		})
		return
	}

	if err := s.mailer.SendContactMessage(s.contactTo, form.Name, form.Email, form.Message); err != nil {
		log.Error().Err(err).Msg("could not relay contact message")
		c.HTML(http.StatusInternalServerError, "site_contact.html", gin.H{
			"form":  form,
			"error": "Unable to send your message right now.",
		})
		return
	}

	c.HTML(http.StatusOK, "site_contact.html", gin.H{
		"success": "Thanks for reaching out. We will get back to you soon.",
	})
}
