package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"homeschoolhub/common"
)

type loginForm struct {
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required"`
	Next     string `form:"next"`
}

type signUpForm struct {
	FullName        string `form:"full_name" binding:"max=120"`
	Email           string `form:"email" binding:"required,email"`
	Password        string `form:"password" binding:"required,min=8,max=72"`
	ConfirmPassword string `form:"confirm_password" binding:"required,eqfield=Password"`
}

// RegisterRoutes mounts the account pages. guards run before the form posts.
func (p *Provider) RegisterRoutes(router *gin.Engine, guards ...gin.HandlerFunc) {
	router.GET("/login", p.loginPage)
	router.POST("/login", common.Chain(guards, p.loginPost)...)
	router.GET("/signup", p.signUpPage)
	router.POST("/signup", common.Chain(guards, p.signUpPost)...)
	router.GET("/confirm/:token", p.confirmEmail)
	router.GET("/logout", p.logout)
	router.POST("/logout", p.logout)
}

func (p *Provider) loginPage(c *gin.Context) {
	if redirectIfSignedIn(c) {
		return
	}
	c.HTML(http.StatusOK, "auth_login.html", gin.H{
		"next":  c.Query("next"),
		"flash": Flash(c),
	})
}

func (p *Provider) loginPost(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusBadRequest, "auth_login.html", gin.H{
			"error": "Enter your email and password.",
			"email": form.Email,
			"next":  form.Next,
		})
		return
	}

	user, err := p.SignIn(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		status := http.StatusUnauthorized
		msg := "Incorrect email or password."
		switch {
		case errors.Is(err, ErrEmailNotVerified):
			msg = "Your email is not confirmed yet. Check your inbox for the confirmation link."
		case !errors.Is(err, ErrInvalidCredentials):
			log.Error().Err(err).Msg("sign in failed")
			status = http.StatusInternalServerError
			msg = "Unable to sign in right now."
		}
		c.HTML(status, "auth_login.html", gin.H{
			"error": msg,
			"email": form.Email,
			"next":  form.Next,
		})
		return
	}

	if err := p.startSession(c, user); err != nil {
		log.Error().Err(err).Msg("could not save session")
		c.HTML(http.StatusInternalServerError, "auth_login.html", gin.H{
			"error": "Unable to sign in right now.",
			"email": form.Email,
		})
		return
	}

	c.Redirect(http.StatusFound, safeNext(form.Next))
}

func (p *Provider) signUpPage(c *gin.Context) {
	if redirectIfSignedIn(c) {
		return
	}
	c.HTML(http.StatusOK, "auth_signup.html", gin.H{})
}

func (p *Provider) signUpPost(c *gin.Context) {
	var form signUpForm
	err := c.ShouldBind(&form)

	// never echo the password back
	formData := gin.H{
		"email":     form.Email,
		"full_name": form.FullName,
	}

	if err != nil {
		formData["error"] = "Please check the highlighted fields."
		formData["fieldErrors"] = common.ValidationMessages(err)
		c.HTML(http.StatusBadRequest, "auth_signup.html", formData)
		return
	}

	user, err := p.SignUp(c.Request.Context(), form.Email, form.Password, form.FullName)
	if errors.Is(err, ErrEmailTaken) {
		formData["error"] = "This email is already registered."
		c.HTML(http.StatusBadRequest, "auth_signup.html", formData)
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("sign up failed")
		formData["error"] = "Unable to create your account."
		c.HTML(http.StatusInternalServerError, "auth_signup.html", formData)
		return
	}

	data := gin.H{"email": user.Email, "verified": user.EmailVerified}
	if err := p.SendConfirmation(user); err != nil {
		log.Error().Err(err).Str("email", user.Email).Msg("could not send confirmation email")
		data["emailError"] = "We could not send the confirmation email. Please contact us."
	}

	c.HTML(http.StatusOK, "auth_signup_success.html", data)
}

func (p *Provider) confirmEmail(c *gin.Context) {
	_, err := p.Confirm(c.Request.Context(), c.Param("token"))
	if errors.Is(err, ErrInvalidToken) {
		c.HTML(http.StatusNotFound, "auth_confirm_email.html", gin.H{
			"success": false,
			"message": "This confirmation link is invalid or has already been used.",
		})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("confirm email failed")
		c.HTML(http.StatusInternalServerError, "auth_confirm_email.html", gin.H{
			"success": false,
			"message": "Unable to confirm your email.",
		})
		return
	}

	c.HTML(http.StatusOK, "auth_confirm_email.html", gin.H{
		"success": true,
		"message": "Your email is confirmed. You can log in now.",
	})
}

func (p *Provider) logout(c *gin.Context) {
	p.SignOut(c)
	c.Redirect(http.StatusFound, "/")
}
