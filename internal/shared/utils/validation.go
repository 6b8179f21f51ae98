package utils

import (
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/quickrollcall/rollcall/internal/shared/errors"
)

var (
	userIDPattern     = regexp.MustCompile(`^[0-9]+$`)
	personNamePattern = regexp.MustCompile(`^[\p{L}][\p{L} .'\-]*$`)
	sectionPattern    = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N} .'\-]*$`)
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	if err := RegisterValidations(validate); err != nil {
		panic(err)
	}
}

// RegisterValidations installs the attendance field tags and JSON field
// naming on v. The HTTP layer calls it on gin's binding engine as well.
func RegisterValidations(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form", "uri"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	rules := map[string]*regexp.Regexp{
		"userid":     userIDPattern,
		"personname": personNamePattern,
		"section":    sectionPattern,
	}
	for tag, pattern := range rules {
		if err := v.RegisterValidation(tag, matchTrimmed(pattern)); err != nil {
			return fmt.Errorf("failed to register %s validation: %w", tag, err)
		}
	}
	return nil
}

func matchTrimmed(pattern *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return pattern.MatchString(strings.TrimSpace(fl.Field().String()))
	}
}

// ValidateStruct validates a struct and returns a user-friendly error
func ValidateStruct(s interface{}) error {
	return ValidationError(validate.Struct(s))
}

// ValidationError converts a binding or validator error into a validation
// AppError. Nil stays nil.
func ValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if stdErrors.As(err, &validationErrors) {
		messages := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			messages = append(messages, getFieldErrorMessage(fieldError))
		}
		return errors.NewValidationError("Validation failed", strings.Join(messages, "; "))
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case stdErrors.As(err, &syntaxErr):
		return errors.NewValidationError("Validation failed", "request body is not valid JSON")
	case stdErrors.As(err, &typeErr):
		return errors.NewValidationError("Validation failed", fmt.Sprintf("%s has the wrong type", typeErr.Field))
	}

	return errors.NewValidationError("Validation failed", err.Error())
}

// getFieldErrorMessage returns a user-friendly error message for a field validation error
func getFieldErrorMessage(fe validator.FieldError) string {
	field := fe.Field()
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters long", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters long", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, param)
	case "userid":
		return fmt.Sprintf("%s must contain digits only", field)
	case "personname":
		return fmt.Sprintf("%s may contain letters, spaces and . ' - only", field)
	case "section":
		return fmt.Sprintf("%s may contain letters, digits, spaces and . ' - only", field)
	default:
		return fmt.Sprintf("%s failed validation for '%s'", field, fe.Tag())
	}
}
