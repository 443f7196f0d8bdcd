package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator reports field errors under their JSON names.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// validateRequest checks req against its struct tags and returns a message
// fit for the client, or "" when the request is valid.
func validateRequest(req any) string {
	err := getValidator().Struct(req)
	if err == nil {
		return ""
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err.Error()
	}
	return formatFieldError(fieldErrs[0])
}

func formatFieldError(fe validator.FieldError) string {
	switch {
	case fe.Field() == "token" && fe.Tag() == "required":
		return "token required"
	case fe.Field() == "tokens":
		return "tokens must be a non-empty array"
	case strings.HasPrefix(fe.Field(), "tokens["):
		return fmt.Sprintf("%s must be a non-empty string", fe.Field())
	case fe.Tag() == "required":
		return fmt.Sprintf("%s required", fe.Field())
	default:
		return fmt.Sprintf("%s failed validation: %s", fe.Field(), fe.Tag())
	}
}
