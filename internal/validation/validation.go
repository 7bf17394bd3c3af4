// Package validation checks request payloads before anything is written to the
// store. Failures come back as *apperr.ValidationError with one entry per field,
// named after the field's JSON key.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/atinyakov/cerevyn/internal/apperr"
	"github.com/atinyakov/cerevyn/internal/models"
)

// Validator wraps a configured go-playground validator. It is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator that reports JSON field names and understands models.Date.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(dateValue, models.Date{})
	return &Validator{v: v}
}

// dateValue exposes a models.Date to the validator as a plain time.Time; a zero
// date is reported as absent.
func dateValue(field reflect.Value) any {
	d, ok := field.Interface().(models.Date)
	if !ok || d.IsZero() {
		return nil
	}
	return d.Time
}

// Struct validates s against its `validate` tags.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}

	fields := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperr.FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return apperr.NewValidationError("validation failed", fields...)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s cannot be less than %s", fe.Field(), fe.Param())
	case "min":
		if fe.Param() == "1" {
			return fmt.Sprintf("%s cannot be blank", fe.Field())
		}
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
