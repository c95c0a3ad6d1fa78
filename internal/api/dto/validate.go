package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// GetValidator returns the shared validator, keyed by JSON field names.
func GetValidator() *validator.Validate {
	once.Do(initValidator)
	return validate
}

func initValidator() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
}

// Validate checks struct tags and converts failures into a validation error
// whose details map each JSON field to a readable message.
func Validate(payload any) error {
	err := GetValidator().Struct(payload)
	if err == nil {
		return nil
	}
	return apperrors.NewValidationError("invalid payload", ParseErrors(err))
}

// ParseErrors maps validator failures to field messages.
func ParseErrors(err error) map[string]any {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return map[string]any{"payload": "unknown error"}
	}

	details := make(map[string]any, len(validationErrors))
	for _, e := range validationErrors {
		details[e.Field()] = prettyError(e)
	}
	return details
}

func prettyError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("length must be at least %s", e.Param())
		}
		return fmt.Sprintf("must be greater than or equal to %s", e.Param())
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("length must be at most %s", e.Param())
		}
		return fmt.Sprintf("must be less than or equal to %s", e.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", e.Param())
	case "oneof":
		return "must be one of " + strings.Join(strings.Fields(e.Param()), ", ")
	default:
		return e.Error()
	}
}
