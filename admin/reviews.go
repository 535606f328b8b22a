package admin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"homeschoolhub/models"
	"homeschoolhub/reviews"
)

type decisionForm struct {
	Decision string `form:"decision" json:"decision" binding:"required"`
}

func (a *AdminModule) reviewQueue(c *gin.Context) {
	filter := c.DefaultQuery("status", "all")

	queue, err := a.reviews.Queue(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("could not load moderation queue")
		c.HTML(http.StatusInternalServerError, "admin_reviews.html", gin.H{
			"error":  "Unable to load reviews for moderation.",
			"filter": filter,
		})
		return
	}

	shown := queue
	if filter == string(models.ReviewPending) || filter == string(models.ReviewRejected) {
		shown = make([]models.Review, 0, len(queue))
		for _, r := range queue {
			if string(r.Status) == filter {
				shown = append(shown, r)
			}
		}
	} else {
		filter = "all"
	}

	c.HTML(http.StatusOK, "admin_reviews.html", gin.H{
		"reviews": shown,
		"filter":  filter,
	})
}

// decideReview answers JSON; the queue page drops the row once it gets a 200.
func (a *AdminModule) decideReview(c *gin.Context) {
	const failed = "Unable to update review status."

	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": failed})
		return
	}

	var form decisionForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": failed})
		return
	}

	decision, err := reviews.ParseDecision(form.Decision)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": failed})
		return
	}

	err = a.reviews.Decide(c.Request.Context(), id, decision)
	switch {
	case errors.Is(err, reviews.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": failed})
		return
	case err != nil:
		log.Error().Err(err).Str("review_id", id.String()).Msg("could not update review status")
		c.JSON(http.StatusInternalServerError, gin.H{"error": failed})
		return
	}

	log.Info().
		Str("review_id", id.String()).
		Str("decision", string(decision)).
		Str("admin", currentAdmin(c).Email).
		Msg("review moderated")

	c.JSON(http.StatusOK, gin.H{"id": id, "status": decision})
}
