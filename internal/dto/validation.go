package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator that reports JSON field names.
func NewValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return validate
}

// IsValidationError reports whether err came from a failed struct validation.
func IsValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

// ValidationMessage renders the first failed rule as a sentence for the user.
func ValidationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		if err == nil {
			return ""
		}
		return err.Error()
	}

	fe := validationErrors[0]
	field := fieldLabel(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min", "max":
		if fe.Field() == "rating" {
			return "Rating must be between 1 and 10"
		}
		return fmt.Sprintf("%s is out of range", field)
	case "unique":
		return fmt.Sprintf("%s must not contain duplicates", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func fieldLabel(name string) string {
	base := name
	if idx := strings.IndexByte(base, '['); idx >= 0 {
		base = base[:idx]
	}
	switch base {
	case "submissionId":
		return "Submission"
	case "githubLink":
		return "GitHub link"
	case "courseId":
		return "Course"
	}
	if base == "" {
		return "Value"
	}
	return strings.ToUpper(base[:1]) + base[1:]
}
