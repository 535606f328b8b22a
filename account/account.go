package account

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"homeschoolhub/auth"
	"homeschoolhub/reviews"
)

type AccountModule struct {
	reviews *reviews.Store
}

func NewAccountModule(store *reviews.Store) *AccountModule {
	return &AccountModule{reviews: store}
}

func (a *AccountModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/account", a.index)
}

func (a *AccountModule) index(c *gin.Context) {
	user := auth.CurrentUser(c)
	if user == nil {
		c.HTML(http.StatusUnauthorized, "account_restricted.html", gin.H{
			"loginURL": auth.LoginURL("/account"),
		})
		return
	}

	list, err := a.reviews.ForReviewer(c.Request.Context(), user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("could not load account reviews")
		c.HTML(http.StatusInternalServerError, "account_index.html", gin.H{
			"user":  user,
			"error": "Unable to load your account data.",
		})
		return
	}

	c.HTML(http.StatusOK, "account_index.html", gin.H{
		"user":    user,
		"reviews": list,
	})
}
