// Package validation checks input records field by field and reports every
// violation at once as an *errors.ValidationError keyed by JSON field name.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"time"

	e "github.com/aymens/orgadmin/internal/orgadmin/errors"
	"github.com/go-playground/validator/v10"
)

// Validator wraps a configured validator.Validate.
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

// Option customizes a Validator.
type Option func(*Validator)

// WithClock overrides the time source used by the notfuture rule.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		v.now = now
	}
}

// New returns a Validator with the notblank, taxid and notfuture rules registered.
func New(opts ...Option) *Validator {
	v := &Validator{
		validate: validator.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	// Registration only fails for empty tags or nil funcs.
	_ = v.validate.RegisterValidation("notblank", notBlank)
	_ = v.validate.RegisterValidation("taxid", taxID)
	_ = v.validate.RegisterValidation("notfuture", v.notFuture)
	return v
}

// Struct validates s and returns nil or an *errors.ValidationError.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	fields := make(map[string]string, len(validationErrors))
	for _, fieldError := range validationErrors {
		fields[fieldError.Field()] = message(fieldError)
	}
	return &e.ValidationError{Fields: fields}
}

func message(fieldError validator.FieldError) string {
	switch fieldError.Tag() {
	case "required":
		return "must not be null"
	case "notblank":
		return "must not be blank"
	case "max":
		return "size must be between 1 and " + fieldError.Param()
	case "email":
		return "must be a well-formed email address"
	case "taxid":
		return "must be exactly 10 digits"
	case "notfuture":
		return "must be a date in the past or in the present"
	default:
		return "is invalid"
	}
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func taxID(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != 10 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (v *Validator) notFuture(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	return !t.After(v.now())
}
