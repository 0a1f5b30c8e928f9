// Package validator runs struct tag validation with the shop's custom tags.
package validator

import (
	"errors"
	"fmt"
	"strings"

	"storefront/internal/domain"

	"github.com/go-playground/validator/v10"
)

// FieldError is one failed rule on one field.
type FieldError struct {
	Field string
	Tag   string
	Param string
}

func (f FieldError) String() string {
	if f.Param != "" {
		return fmt.Sprintf("%s failed on %s=%s", f.Field, f.Tag, f.Param)
	}
	return fmt.Sprintf("%s failed on %s", f.Field, f.Tag)
}

// Errors lists every failed field of a struct.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, f := range e {
		msgs = append(msgs, f.String())
	}
	return strings.Join(msgs, "; ")
}

var validate = validator.New()

func init() {
	validate.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		if c, ok := fl.Field().Interface().(domain.Category); ok {
			return c.Valid()
		}
		return false
	})
}

// Struct validates data. Rule failures come back as Errors; anything else,
// such as passing a non-struct, is returned as is.
func Struct(data any) error {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := make(Errors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, FieldError{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()})
	}
	return out
}
