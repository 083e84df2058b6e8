// Package forms validates user input before it reaches a backend.
//
// Each Schema binds the raw form values into a struct tagged for
// go-playground/validator. Every field is checked in one pass and failures
// come back as Errors: translation keys with parameters, scoped to the form
// field they concern, so the TUI can render them in the active locale.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/robby/pmdash/internal/domain"
)

// Values is the raw text entered into a form, keyed by field name.
type Values map[string]string

// Get returns the trimmed value of field.
func (v Values) Get(field string) string {
	return strings.TrimSpace(v[field])
}

// FieldError is a single validation failure.
type FieldError struct {
	Field  string
	Key    string         // translation key of the message
	Params map[string]any // message parameters
}

func (e FieldError) Error() string {
	if len(e.Params) == 0 {
		return fmt.Sprintf("%s: %s", e.Field, e.Key)
	}
	return fmt.Sprintf("%s: %s %v", e.Field, e.Key, e.Params)
}

// Errors collects every failure of one validation pass.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Error()
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// Field returns the failures for field.
func (e Errors) Field(field string) []FieldError {
	var out []FieldError
	for _, fe := range e {
		if fe.Field == field {
			out = append(out, fe)
		}
	}
	return out
}

// Schema binds form values to a tagged input struct and names the
// translation key of each failure.
type Schema struct {
	Name string

	bind func(Values) any
	// keys maps "field.tag" or plain "field" to a translation key
	keys map[string]string
}

// Validate checks values. It returns Errors when at least one field fails.
func (s Schema) Validate(values Values) error {
	err := validate.Struct(s.bind(values))
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate %s: %w", s.Name, err)
	}

	errs := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, FieldError{
			Field:  fe.Field(),
			Key:    s.key(fe.Field(), fe.Tag()),
			Params: params(fe),
		})
	}
	return errs
}

func (s Schema) key(field, tag string) string {
	if k, ok := s.keys[field+"."+tag]; ok {
		return k
	}
	if k, ok := s.keys[field]; ok {
		return k
	}
	return "Validation." + tag
}

func params(fe validator.FieldError) map[string]any {
	switch fe.Tag() {
	case "min":
		n, _ := strconv.Atoi(fe.Param())
		return map[string]any{"min": n}
	case "oneof":
		return map[string]any{"options": strings.Join(strings.Fields(fe.Param()), ", ")}
	case tagPassword:
		return map[string]any{"specials": passwordSpecials[fe.Param()]}
	case tagNotBefore:
		return map[string]any{"other": fe.Param()}
	}
	return nil
}

const (
	tagDate        = "isodate"
	tagNotBefore   = "notbefore"
	tagEmailDomain = "emaildomain"
	tagPassword    = "password"
)

// passwordSpecials holds the special characters each password policy accepts.
var passwordSpecials = map[string]string{
	"signup": `!@#$%^&*+=-_/`,
	"reset":  `!@#$%^&*`,
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report failures under the form field name, not the Go field name
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	mustRegister(v, tagDate, isISODate)
	mustRegister(v, tagNotBefore, isNotBefore)
	mustRegister(v, tagEmailDomain, hasDottedDomain)
	mustRegister(v, tagPassword, isComplexPassword)
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("forms: register %s: %v", tag, err))
	}
}

func isISODate(fl validator.FieldLevel) bool {
	_, err := domain.ParseDate(fl.Field().String())
	return err == nil
}

// isNotBefore passes unless both dates parse and the field is earlier than
// the sibling named by the param (a form field name).
func isNotBefore(fl validator.FieldLevel) bool {
	end, err := domain.ParseDate(fl.Field().String())
	if err != nil {
		return true
	}
	other, ok := formField(fl.Parent(), fl.Param())
	if !ok {
		return true
	}
	start, err := domain.ParseDate(other.String())
	if err != nil {
		return true
	}
	return !end.Before(start)
}

func formField(parent reflect.Value, name string) (reflect.Value, bool) {
	if parent.Kind() == reflect.Pointer {
		parent = parent.Elem()
	}
	t := parent.Type()
	for i := range t.NumField() {
		if tag, _, _ := strings.Cut(t.Field(i).Tag.Get("form"), ","); tag == name {
			return parent.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func hasDottedDomain(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	at := strings.LastIndex(s, "@")
	return at >= 0 && strings.Contains(s[at+1:], ".")
}

// isComplexPassword requires eight characters with an upper case letter, a
// lower case letter, a digit and one of the policy's specials.
func isComplexPassword(fl validator.FieldLevel) bool {
	specials, ok := passwordSpecials[fl.Param()]
	if !ok {
		return false
	}
	pw := fl.Field().String()
	var upper, lower, digit, special bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(specials, r):
			special = true
		}
	}
	return utf8.RuneCountInString(pw) >= 8 && upper && lower && digit && special
}
