package common

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// RegisterValidators adds the site's custom rules to gin's binding validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
}

// ValidationMessages flattens binding errors into field → message, keyed
// by the form field name.
func ValidationMessages(err error) map[string]string {
	out := make(map[string]string)
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return out
	}
	for _, e := range verrs {
		out[e.Field()] = friendlyMessage(e)
	}
	return out
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "slug":
		return "may only contain lowercase letters, digits and hyphens"
	case "eqfield":
		return "does not match"
	default:
		return "is invalid"
	}
}
