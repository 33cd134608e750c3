package form

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "mikrodesk/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their form key so errors line up with the UI inputs.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("form"); name != "" && name != "-" {
			return name
		}
		return f.Name
	})

	if err := v.RegisterValidation("amount", isAmount); err != nil {
		panic(err)
	}
	return v
}

// isAmount accepts a decimal string strictly greater than zero.
func isAmount(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" {
		return false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	return f > 0
}

// check validates s and converts failures into a field keyed
// ValidationError using labels for the human readable names.
func check(s interface{}, labels map[string]string) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = message(fe, labels)
	}
	return pkgerrors.NewValidationError(fields)
}

func message(fe validator.FieldError, labels map[string]string) string {
	label := labels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "amount":
		return label + " must be a number greater than 0"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(fe.Param(), "'", ""))
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}
