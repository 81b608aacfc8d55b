// Package validation checks decoded request bodies with go-playground
// validator and turns failures into field-level API errors.
//
// Messages come from the msg struct tag, a ';'-separated list of
// rule=message pairs:
//
//	Name string `json:"name" validate:"required,max=100" msg:"required=Name is required;max=Name must be less than 100 characters"`
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dmitrijs2005/notesnap/internal/httpx"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate returns nil for a valid req and an *httpx.HTTPError (400
// "Validation failed" with details) otherwise.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return httpx.ErrInternalServerWrap("validation", err)
	}

	t := reflect.TypeOf(req)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	details := make([]httpx.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, httpx.FieldError{
			Field:   fe.Field(),
			Message: message(t, fe),
		})
	}
	return httpx.ErrValidation(details)
}

func message(t reflect.Type, fe validator.FieldError) string {
	if f, ok := t.FieldByName(fe.StructField()); ok {
		for _, pair := range strings.Split(f.Tag.Get("msg"), ";") {
			rule, msg, found := strings.Cut(pair, "=")
			if found && rule == fe.Tag() {
				return msg
			}
		}
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}
