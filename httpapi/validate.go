package httpapi

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/authcore/authcore"
	"github.com/go-playground/validator/v10"
)

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// ValidationError carries every field failure at once. It classifies as
// authcore.KindInvalidRequest.
type ValidationError struct {
	Errors []FieldError
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s)", len(ve.Errors))
}

func (ve ValidationError) Unwrap() error {
	return authcore.ErrInvalidRequest
}

type requestValidator struct {
	validate *validator.Validate
}

func newRequestValidator() *requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	return &requestValidator{validate: v}
}

func (v *requestValidator) Struct(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", authcore.ErrInvalidRequest, err)
	}

	out := ValidationError{Errors: make([]FieldError, len(fieldErrs))}
	for i, fe := range fieldErrs {
		out.Errors[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: msgForTag(fe.Tag(), fe.Param()),
		}
	}
	return out
}

func msgForTag(tag, param string) string {
	switch tag {
	case "max":
		return fmt.Sprintf("This field must not exceed %s characters", param)
	default:
		return fmt.Sprintf("Failed validation on rule: %s", tag)
	}
}

// jsonFieldName reports fields by their wire name.
func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}
