package dispatch

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/Daskott/dispatch/server/models"
	"github.com/go-playground/validator"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Report fields by the name callers send them with
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// validateStruct runs the struct's validate tags and converts any failure
// into a *models.ValidationError.
func validateStruct(payload interface{}) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return models.NewValidationError(err.Error())
	}

	problems := []string{}
	for _, fieldErr := range fieldErrs {
		problems = append(problems, problemMessage(fieldErr))
	}

	return models.NewValidationError(problems...)
}

func problemMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return fmt.Sprintf("missing required field: %v", fieldErr.Field())
	case "oneof":
		return fmt.Sprintf("%v must be one of [%v]", fieldErr.Field(), fieldErr.Param())
	case "min", "max":
		return fmt.Sprintf("%v is out of range", fieldErr.Field())
	default:
		return fmt.Sprintf("invalid value for field: %v", fieldErr.Field())
	}
}
