package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"bookcatalog/internal/apperror"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = validate.RegisterValidation("notblank", validateNotBlank)
}

func validateNotBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return !field.IsZero()
	}
	return strings.TrimSpace(field.String()) != ""
}

// ValidateStruct returns one FieldError per violated rule, in field order.
func ValidateStruct(s any) []apperror.FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []apperror.FieldError{{Field: "body", Message: err.Error()}}
	}

	out := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		label := strings.ToUpper(field[:1]) + field[1:]

		var message string
		switch fe.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", label)
		case "notblank":
			message = fmt.Sprintf("%s must not be blank", label)
		case "max":
			message = fmt.Sprintf("%s must be less than %s characters", label, fe.Param())
		case "min":
			message = fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
		default:
			message = fmt.Sprintf("%s is invalid", label)
		}
		out = append(out, apperror.FieldError{Field: field, Message: message})
	}
	return out
}

// Validate wraps ValidateStruct violations in a Validation error.
func Validate(s any) error {
	if fields := ValidateStruct(s); len(fields) > 0 {
		return apperror.NewValidation(fields...)
	}
	return nil
}

// DecodeJSON decodes the request body into dst and validates it.
func DecodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperror.Wrap(apperror.Validation, err, "Request body too large")
		}
		return apperror.Wrap(apperror.Validation, err, "Invalid request body")
	}
	return Validate(dst)
}
