package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// RequestValidator adapts validator.Validate to echo.Validator
type RequestValidator struct {
	validate *validator.Validate
}

var _ echo.Validator = (*RequestValidator)(nil)

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

func (v *RequestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// fieldFailed reports whether err is a validation failure on the named struct field
func fieldFailed(err error, field string) bool {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return false
	}
	for _, fe := range errs {
		if fe.StructField() == field {
			return true
		}
	}
	return false
}
