// Package validation checks configuration structs with validator/v10 tags
// and collects cross-field rule violations.
package validation

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// ErrNilStruct is returned when ValidateStruct is handed a nil pointer.
	ErrNilStruct = errors.New("cannot validate nil struct")
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(yamlName)

	// probability: finite float in [0, 1]
	if err := validate.RegisterValidation("probability", func(fl validator.FieldLevel) bool {
		v := fl.Field().Float()
		return !math.IsNaN(v) && v >= 0 && v <= 1
	}); err != nil {
		panic(err)
	}
}

// ValidateStruct validates v using its struct tags and returns the first
// violation in a readable form.
func ValidateStruct(v any) error {
	if v == nil {
		return ErrNilStruct
	}
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return ErrNilStruct
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	for _, e := range validationErrs {
		field := e.Namespace()
		param := e.Param()

		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min", "gte":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max", "lte":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "gt":
			return fmt.Errorf("%s: must be greater than %s", field, param)
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s]", field, param)
		case "probability":
			return fmt.Errorf("%s: must be a probability in [0, 1], got %v", field, e.Value())
		case "url":
			return fmt.Errorf("%s: must be a valid URL", field)
		case "required_with":
			return fmt.Errorf("%s: required when %s is set", field, param)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}

	return err
}
