package validator

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	playground "github.com/go-playground/validator/v10"
)

var (
	rules     *playground.Validate
	rulesOnce sync.Once
)

// engine returns the shared go-playground validator. It caches parsed tag strings, so a
// single instance is reused by every Validator.
func engine() *playground.Validate {
	rulesOnce.Do(func() {
		rules = playground.New(playground.WithRequiredStructEnabled())
	})
	return rules
}

// Validator holds a map of validation errors. Each key is a field name and each value is
// the ordered list of reasons that field failed.
type Validator struct {
	Errors map[string][]string
}

// New is a helper which creates a new Validator instance with an empty errors map.
func New() *Validator {
	return &Validator{Errors: make(map[string][]string)}
}

// Valid returns true if the errors map doesn't contain any entries.
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// Has reports whether at least one error has been recorded for key.
func (v *Validator) Has(key string) bool {
	_, exists := v.Errors[key]
	return exists
}

// AddError appends an error message for the given key. Messages for one key keep the
// order they were added in.
func (v *Validator) AddError(key, message string) {
	v.Errors[key] = append(v.Errors[key], message)
}

// Check adds an error message to the map only if a validation check is not 'ok'.
func (v *Validator) Check(ok bool, key, message string) {
	if !ok {
		v.AddError(key, message)
	}
}

// CheckRules evaluates value against a go-playground rule string such as
// "gte=1900,lte=2100" or "min=1,dive,oneof=Action Drama" and records one message per
// failed rule under key.
func (v *Validator) CheckRules(key string, value any, tag string) {
	err := engine().Var(value, tag)
	if err == nil {
		return
	}

	var fieldErrors playground.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		v.AddError(key, err.Error())
		return
	}

	for _, fe := range fieldErrors {
		v.AddError(key, describe(fe))
	}
}

// describe turns a failed rule into a human-readable reason.
func describe(fe playground.FieldError) string {
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "min":
		switch fe.Kind() {
		case reflect.Slice, reflect.Array, reflect.Map:
			return fmt.Sprintf("must contain at least %s item(s)", param)
		case reflect.String:
			return fmt.Sprintf("must be at least %s characters long", param)
		}
		return fmt.Sprintf("must be at least %s", param)
	case "max":
		switch fe.Kind() {
		case reflect.Slice, reflect.Array, reflect.Map:
			return fmt.Sprintf("must not contain more than %s item(s)", param)
		case reflect.String:
			return fmt.Sprintf("must not be more than %s characters long", param)
		}
		return fmt.Sprintf("must not be more than %s", param)
	case "gt":
		return fmt.Sprintf("must be greater than %s", param)
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", param)
	case "lt":
		return fmt.Sprintf("must be less than %s", param)
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", param)
	case "url":
		return "must be a valid URL"
	case "oneof":
		return fmt.Sprintf("%q is not one of: %s", fmt.Sprint(fe.Value()), strings.Join(strings.Fields(param), ", "))
	}

	return fmt.Sprintf("failed the %q rule", fe.Tag())
}

// PermittedValue returns true if a specific value is in a list of permitted values.
func PermittedValue[T comparable](value T, permittedValues ...T) bool {
	return slices.Contains(permittedValues, value)
}

// Unique returns true if all values in a slice are unique.
func Unique[T comparable](values []T) bool {
	uniqueValues := make(map[T]bool)

	for _, value := range values {
		uniqueValues[value] = true
	}

	return len(values) == len(uniqueValues)
}
