// Package validate checks request payloads and query parameters before they
// reach storage or aggregation.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/outbreak-atlas/atlas-server/internal/aggregate"
	"github.com/outbreak-atlas/atlas-server/internal/apperr"
	"github.com/outbreak-atlas/atlas-server/internal/models"
)

var (
	zipRx   = regexp.MustCompile(`^\d{5}$`)
	stateRx = regexp.MustCompile(`^[A-Z]{2}$`)
)

const passwordSpecials = "@$!%*?&#"

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())

	// Report field names the way clients send them.
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	must(val.RegisterValidation("symptom", func(fl validator.FieldLevel) bool {
		return aggregate.IsSymptom(fl.Field().String())
	}))
	must(val.RegisterValidation("zipcode", func(fl validator.FieldLevel) bool {
		return zipRx.MatchString(fl.Field().String())
	}))
	must(val.RegisterValidation("statecode", func(fl validator.FieldLevel) bool {
		return stateRx.MatchString(fl.Field().String())
	}))
	must(val.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	}))

	val.RegisterStructValidation(coordinatePair, models.ReportSubmission{})
	val.RegisterStructValidation(func(sl validator.StructLevel) {
		notEmpty(sl)
		coordinatePair(sl)
	}, models.ReportPatch{})
	val.RegisterStructValidation(notEmpty, models.UserPatch{})
	return val
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// StrongPassword reports whether pw has an upper-case letter, a lower-case
// letter, a digit and one of @$!%*?&#.
func StrongPassword(pw string) bool {
	var upper, lower, digit, special bool
	for _, r := range pw {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	return upper && lower && digit && special
}

// coordinatePair rejects a latitude without a longitude and vice versa.
func coordinatePair(sl validator.StructLevel) {
	var lat, lng *float64
	switch r := sl.Current().Interface().(type) {
	case models.ReportSubmission:
		lat, lng = r.Latitude, r.Longitude
	case models.ReportPatch:
		lat, lng = r.Latitude, r.Longitude
	}
	if (lat == nil) != (lng == nil) {
		sl.ReportError(lat, "latitude", "Latitude", "pair", "")
	}
}

// notEmpty rejects a patch with no fields set.
func notEmpty(sl validator.StructLevel) {
	cur := sl.Current()
	for i := 0; i < cur.NumField(); i++ {
		if !cur.Field(i).IsNil() {
			return
		}
	}
	sl.ReportError(cur.Interface(), "body", "Body", "nonempty", "")
}

// Struct validates a payload and returns an apperr bad request describing the
// first failing field.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperr.BadRequest("invalid request body")
	}
	return apperr.BadRequest("%s", describe(fieldErrs[0]))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s item(s)", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "symptom":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(aggregate.Symptoms(), ", "))
	case "zipcode":
		return fmt.Sprintf("%s must be a 5-digit zip code", field)
	case "statecode":
		return fmt.Sprintf("%s must be a 2-letter upper-case state code", field)
	case "password":
		return fmt.Sprintf("%s must contain upper and lower case letters, a digit and one of %s", field, passwordSpecials)
	case "pair":
		return "latitude and longitude must be provided together"
	case "nonempty":
		return "at least one field must be provided"
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
