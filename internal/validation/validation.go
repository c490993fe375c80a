// Package validation checks request structs with go-playground/validator and
// reports failures as apperr field lists.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"thekua-api/internal/apperr"

	"github.com/go-playground/validator/v10"
)

var (
	phoneRe  = regexp.MustCompile(`^(\+91)?[6-9]\d{9}$`)
	postalRe = regexp.MustCompile(`^\d{6}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	must(v.RegisterValidation("in_phone", func(fl validator.FieldLevel) bool {
		return phoneRe.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("postal", func(fl validator.FieldLevel) bool {
		return postalRe.MatchString(fl.Field().String())
	}))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Struct validates s and returns an *apperr.ValidationError listing every
// failing field, or nil.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	ve := &apperr.ValidationError{}
	for _, fe := range fieldErrs {
		ve.Add(fieldPath(fe), message(fe))
	}
	return ve
}

// IsPhone reports whether s is an Indian mobile number.
func IsPhone(s string) bool {
	return phoneRe.MatchString(s)
}

// fieldPath drops the root struct name: "req.shippingAddress.phone" -> "shippingAddress.phone".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_with":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "in_phone":
		return "must be a valid 10 digit mobile number"
	case "postal":
		return "must be a 6 digit postal code"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "url":
		return "must be a valid URL"
	default:
		return "is invalid"
	}
}
