package utils

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct runs validator tags on a request struct and converts
// failures into a ValidationError, so callers never see raw validator types.
func ValidateStruct(s any) error {
	if err := validate.Struct(s); err != nil {
		ve := &ValidationError{
			Message: "request validation failed",
			Fields:  ProcessValidationErrors(err),
		}
		return ve
	}
	return nil
}

func ProcessValidationErrors(err error) map[string]string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"request": err.Error()}
	}

	errorResponse := make(map[string]string)
	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}
	return errorResponse
}
