package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	domain "github.com/example/jarvis-task-api/domain/task"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// validationError carries the per-field failures of a request body.
type validationError struct {
	fields []FieldError
}

func (e *validationError) Error() string {
	parts := make([]string, 0, len(e.fields))
	for _, f := range e.fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validator checks request bodies before they reach the task service.
type Validator struct {
	v *validator.Validate
}

// NewValidator creates a validator that reports JSON field names.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("register notblank: %v", err))
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// Struct validates a request struct.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &validationError{}
	for _, fe := range verrs {
		out.fields = append(out.fields, fieldError(jsonPath(fe.Namespace()), fe))
	}
	return out
}

// Patch validates the fields present in a merge-patch.
func (val *Validator) Patch(p domain.Patch) error {
	out := &validationError{}

	if p.Title.Set {
		if err := out.add(val.v.Var(p.Title.Value, "required,notblank,max=255"), "title"); err != nil {
			return err
		}
	}
	if p.Category.Set {
		if err := out.add(val.v.Var(string(p.Category.Value), "required,oneof=IU INU U NU waiting long-term"), "category"); err != nil {
			return err
		}
	}
	if p.SubTasks.Set {
		for i, st := range p.SubTasks.Value {
			if err := out.add(val.v.Var(st.Title, "required,notblank,max=255"), fmt.Sprintf("subtasks[%d].title", i)); err != nil {
				return err
			}
		}
	}
	if p.Tags.Set {
		for i, tag := range p.Tags.Value {
			if err := out.add(val.v.Var(tag, "max=64"), fmt.Sprintf("tags[%d]", i)); err != nil {
				return err
			}
		}
	}

	if len(out.fields) == 0 {
		return nil
	}
	return out
}

// add records field failures from err. Errors that are not field failures
// are returned as is.
func (e *validationError) add(err error, field string) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating %s: %w", field, err)
	}
	for _, fe := range verrs {
		e.fields = append(e.fields, fieldError(field, fe))
	}
	return nil
}

// jsonPath drops the root struct name from a validator namespace.
func jsonPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldError(field string, fe validator.FieldError) FieldError {
	var msg string
	switch fe.Tag() {
	case "required":
		msg = "is required"
	case "notblank":
		msg = "must not be blank"
	case "max":
		msg = fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		msg = fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		msg = fmt.Sprintf("failed %s validation", fe.Tag())
	}
	return FieldError{Field: field, Rule: fe.Tag(), Message: msg}
}
