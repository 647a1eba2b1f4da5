package api

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ValidationError is one field-level violation.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validator exposes the shared instance so gin binding and tool inputs agree on rules.
func Validator() *validator.Validate {
	return validate
}

// ValidateStruct validates s and returns one entry per failing field.
// Field paths use json names relative to s, e.g. "days[0].exercises[1].sets".
func ValidateStruct(s interface{}) []ValidationError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	return FromError(err)
}

// FromError converts a validator error into ValidationErrors. Errors that are not
// validator.ValidationErrors become a single entry with code "invalid".
func FromError(err error) []ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []ValidationError{{Field: "", Code: "invalid", Message: err.Error()}}
	}

	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ValidationError{
			Field:   fieldPath(fe),
			Code:    fe.Tag(),
			Message: errorMessage(fe),
		})
	}
	return out
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func errorMessage(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return field + " must be at least " + fe.Param() + " characters"
		}
		if fe.Kind() == reflect.Slice {
			return field + " must contain at least " + fe.Param() + " items"
		}
		return field + " must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return field + " must be at most " + fe.Param() + " characters"
		}
		if fe.Kind() == reflect.Slice {
			return field + " must contain at most " + fe.Param() + " items"
		}
		return field + " must be at most " + fe.Param()
	case "gte":
		return field + " must be greater than or equal to " + fe.Param()
	case "lte":
		return field + " must be less than or equal to " + fe.Param()
	case "oneof":
		return field + " must be one of: " + fe.Param()
	case "uuid", "uuid4":
		return field + " must be a valid UUID"
	default:
		return field + " is invalid"
	}
}

// RespondWithValidationErrors writes a 400 with the violation list.
func RespondWithValidationErrors(c *gin.Context, details []ValidationError) {
	c.JSON(http.StatusBadRequest, ValidationErrorResponse{
		Error:   "validation failed",
		Details: details,
	})
}
