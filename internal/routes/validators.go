package routes

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Session names come from clients and end up in provider room ids and log
// lines, so the accepted alphabet is kept narrow.
var sessionNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,99}$`)

// RegisterValidations installs custom binding rules on gin's validator
// engine. Must run before the router starts serving.
func RegisterValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("sessionname", func(fl validator.FieldLevel) bool {
		return sessionNamePattern.MatchString(fl.Field().String())
	})
}
