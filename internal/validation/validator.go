// Package validation checks chapter records before they reach the timeline
// math, using the validator/v10 library.
//
// This is the gate that keeps garbage probe data (negative durations, absurd
// indices, zero timestamps) out of reconstruction, where it would silently
// corrupt every later chapter's start time instead of failing.
package validation

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"

	"github.com/reelstitch/reelstitch/internal/chapters"
	domainerrors "github.com/reelstitch/reelstitch/internal/errors"
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator configured for our domain.
func New() *Validator {
	v := validator.New()

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		// Remove options like omitempty, -
		for i := range len(name) {
			if name[i] == ',' {
				return name[:i]
			}
		}
		return name
	})

	return &Validator{v: v}
}

// Validate validates a struct and returns a domain error.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// ValidateRecord validates one chapter record and returns a data-integrity
// error naming the file, the shape skip reports expect. Callers drop the
// record's whole session on failure: removing just one chapter would shift
// every later chapter's chained start time.
func (v *Validator) ValidateRecord(rec chapters.Record) error {
	if err := v.v.Struct(rec); err != nil {
		fields := v.fieldMessages(err)
		if fields == nil {
			return err
		}
		return domainerrors.Integrityf("invalid record %s", rec.Filename).WithDetails(fields)
	}
	return nil
}

// formatError converts validator errors to domain errors.
func (v *Validator) formatError(err error) error {
	fields := v.fieldMessages(err)
	if fields == nil {
		return err
	}
	return domainerrors.ValidationWithDetails("validation failed", fields)
}

// fieldMessages flattens validator output into field -> friendly message,
// or nil if err is not from the validator.
func (v *Validator) fieldMessages(err error) map[string]string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return nil
	}

	fields := make(map[string]string)
	for _, e := range validationErrs {
		fields[e.Field()] = v.friendlyMessage(e)
	}
	return fields
}

func (v *Validator) friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s", e.Param())
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "lt":
		return "must be less than " + e.Param()
	default:
		return "is invalid"
	}
}
