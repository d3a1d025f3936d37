package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Patient phone numbers are exactly ten digits, no prefix or separators.
var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// RegisterValidators installs the custom binding rules on gin's validator
// engine. Call once at startup, before the first request is bound.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
}
