// Package validation checks request payloads and renders failures as a field-keyed map:
//
//	{"end_date": ["end_date must be on or after start_date"], "name": ["this field is required"]}
//
// Struct rules come from `validate:"..."` tags (go-playground/validator); cross-field and
// database-backed rules are added by the caller through FieldErrors.Add.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a JSON field name to its error messages. It implements error so it can
// travel through ordinary error returns and be recovered with errors.As.
type FieldErrors map[string][]string

// Add appends a message for field.
func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

// Merge copies every message from other.
func (fe FieldErrors) Merge(other FieldErrors) {
	for field, msgs := range other {
		fe[field] = append(fe[field], msgs...)
	}
}

// Err returns fe as an error, or nil when there is nothing to report.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(fe[f], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report fields by their JSON names so the error keys match the payload keys
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
	})
	return validate
}

// Struct validates s against its tags. It returns nil or a FieldErrors.
func Struct(s interface{}) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fe := FieldErrors{}
	for _, v := range verrs {
		fe.Add(v.Field(), message(v))
	}
	return fe
}

func message(v validator.FieldError) string {
	switch v.Tag() {
	case "required":
		return "this field is required"
	case "min", "gte":
		if v.Kind() == reflect.String && v.Param() == "1" {
			return "this field may not be blank"
		}
		if v.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", v.Param())
		}
		return fmt.Sprintf("must be greater than or equal to %s", v.Param())
	case "max", "lte":
		if v.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", v.Param())
		}
		return fmt.Sprintf("must be less than or equal to %s", v.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(v.Param(), " ", ", "))
	case "email":
		return "enter a valid email address"
	case "datetime":
		return fmt.Sprintf("enter a valid date in %s format", dateLayoutHint(v.Param()))
	case "gt":
		return fmt.Sprintf("must be greater than %s", v.Param())
	default:
		return fmt.Sprintf("failed %q validation", v.Tag())
	}
}

// dateLayoutHint renders a Go time layout the way users write it.
func dateLayoutHint(layout string) string {
	return strings.NewReplacer("2006", "YYYY", "01", "MM", "02", "DD").Replace(layout)
}
