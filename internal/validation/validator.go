package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a field name to a user-facing message. It is returned by
// form validation so handlers can surface every failing field at once.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for field, msg := range fe {
		parts = append(parts, field+": "+msg)
	}
	return strings.Join(parts, "; ")
}

func (fe FieldErrors) Add(field, msg string) {
	if _, dup := fe[field]; !dup {
		fe[field] = msg
	}
}

// echoValidator wraps go-playground/validator so echo can call c.Validate(req).
type echoValidator struct {
	v *validator.Validate
}

func New() *echoValidator {
	return &echoValidator{v: validator.New()}
}

// Validate satisfies the echo.Validator interface. Struct tag failures are
// converted into a FieldErrors so they keep their field scope.
func (ev *echoValidator) Validate(i any) error {
	if err := ev.v.Struct(i); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			fe := FieldErrors{}
			for _, f := range ve {
				fe.Add(strings.ToLower(f.Field()), fieldMessage(f))
			}
			return fe
		}
		return err
	}
	return nil
}

func fieldMessage(f validator.FieldError) string {
	field := strings.ToLower(f.Field())
	switch f.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, f.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, f.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, f.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, f.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, f.Tag())
	}
}
