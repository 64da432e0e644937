package booking

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var rePlate = regexp.MustCompile(`^[A-Za-z0-9-]{5,8}$`)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var layoutNames = map[string]string{
	DateLayout: "YYYY-MM-DD",
	TimeLayout: "HH:MM",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterValidation("plate", func(fl validator.FieldLevel) bool {
		return rePlate.MatchString(fl.Field().String())
	})
	return v
}

func validateStruct(s any) error {
	return fromValidator(validate.Struct(s), "")
}

func validateVar(field string, value any, tag string) error {
	return fromValidator(validate.Var(value, tag), field)
}

// fromValidator turns the first validator failure into a ValidationError.
func fromValidator(err error, field string) error {
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return internal(err)
	}

	fe := errs[0]
	if field == "" {
		field = fe.Field()
	}
	return &ValidationError{Field: field, Reason: reason(fe)}
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "plate":
		return "must be 5 to 8 letters, digits or dashes"
	case "datetime":
		return "must be in format " + layoutNames[fe.Param()]
	case "gte":
		return "must not be negative"
	case "gt":
		return "must be positive"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}
