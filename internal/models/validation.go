package models

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names so messages match the wire format.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// MissingFieldError reports a required field that is absent or empty
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "Missing " + e.Field
}

// Validate checks the fields required to store a record. Fields are checked in
// declaration order and the first failure is returned.
func (r *ActivationRecord) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		return &MissingFieldError{Field: validationErrors[0].Field()}
	}
	return err
}

// IsMissingField returns true if the error reports a missing required field
func IsMissingField(err error) bool {
	var missing *MissingFieldError
	return errors.As(err, &missing)
}
