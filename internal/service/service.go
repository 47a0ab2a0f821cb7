// Package service contains the application logic sitting between the HTTP
// handlers and the store. Services validate input, enforce ownership rules,
// and translate store failures into domain errors.
package service

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/edubase4teachers/edubase-server/internal/errors"
)

// validate is the shared validator instance used by all services.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report field names as they appear on the wire, not as Go identifiers.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// formatValidationError converts validator errors into domain validation
// errors with messages a client can show directly.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !domainerrors.As(err, &verrs) || len(verrs) == 0 {
		return domainerrors.Validation(err.Error())
	}

	e := verrs[0]
	switch e.Tag() {
	case "required":
		return domainerrors.Validationf("%s is required", e.Field())
	case "email":
		return domainerrors.Validationf("%s must be a valid email address", e.Field())
	case "url":
		return domainerrors.Validationf("%s must be a valid URL", e.Field())
	case "min":
		return domainerrors.Validationf("%s must be at least %s characters", e.Field(), e.Param())
	case "max":
		return domainerrors.Validationf("%s must be at most %s characters", e.Field(), e.Param())
	default:
		return domainerrors.Validationf("%s is invalid", e.Field())
	}
}
