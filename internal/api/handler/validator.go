package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/eventsphere/eventsphere/internal/core/domain"
)

// weakPasswords are rejected by the strongpwd tag regardless of length.
var weakPasswords = map[string]struct{}{
	"12345":    {},
	"123456":   {},
	"password": {},
	"qwerty":   {},
	"letmein":  {},
	"welcome":  {},
	"admin":    {},
}

// echoValidator wraps go-playground/validator so Echo can call c.Validate(req).
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
func NewValidator() *echoValidator {
	return newValidator(time.Now)
}

func newValidator(now func() time.Time) *echoValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("futuredate", func(fl validator.FieldLevel) bool {
		day, err := domain.ParseDate(fl.Field().String())
		if err != nil {
			return false
		}
		return domain.IsFutureDate(day, now())
	})
	_ = v.RegisterValidation("strongpwd", func(fl validator.FieldLevel) bool {
		_, weak := weakPasswords[strings.ToLower(fl.Field().String())]
		return !weak
	})
	return &echoValidator{v: v}
}

// Validate satisfies the echo.Validator interface. Field violations come back
// as *domain.ValidationError keyed by JSON field name.
func (ev *echoValidator) Validate(i any) error {
	if err := ev.v.Struct(i); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			fields := make(map[string]string, len(ve))
			for _, fe := range ve {
				if _, seen := fields[fe.Field()]; !seen {
					fields[fe.Field()] = fieldError(fe)
				}
			}
			return &domain.ValidationError{Fields: fields}
		}
		return err
	}
	return nil
}

// fieldError converts a single ValidationError into a human-readable message.
func fieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " must not be blank"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "eqfield":
		return fmt.Sprintf("%s does not match %s", field, strings.ToLower(fe.Param()))
	case "futuredate":
		return field + " must be a future date (YYYY-MM-DD)"
	case "strongpwd":
		return "please choose a strong password"
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
