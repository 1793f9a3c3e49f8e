package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	seatCodeRgx = regexp.MustCompile(`^[A-Z]{1,2}[0-9]{1,3}$`)
	scanCodeRgx = regexp.MustCompile(`^[A-Z0-9]{8,64}$`)
)

func NewValidator() *validator.Validate {
	validator := validator.New(validator.WithRequiredStructEnabled())

	validator.RegisterValidation("seatcode", validateSeatCode)
	validator.RegisterValidation("scancode", validateScanCode)

	return validator
}

// Codes are compared case-insensitively and ignoring surrounding blanks,
// the services normalize them the same way.
func validateSeatCode(fl validator.FieldLevel) bool {
	code := strings.ToUpper(strings.TrimSpace(fl.Field().String()))

	return seatCodeRgx.MatchString(code)
}

func validateScanCode(fl validator.FieldLevel) bool {
	code := strings.ToUpper(strings.TrimSpace(fl.Field().String()))

	return scanCodeRgx.MatchString(code)
}

// ValidationMessage converts validator errors into readable messages
func ValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must contain at least %s item(s)", err.Param())
	case "max":
		if err.Kind().String() == "string" {
			return fmt.Sprintf("must be at most %s characters long", err.Param())
		}
		return fmt.Sprintf("must contain at most %s item(s)", err.Param())
	case "seatcode":
		return "must be a seat code such as A1 or AB12"
	case "scancode":
		return "must be a ticket scan code"
	case "uuid":
		return "must be a valid UUID"
	case "excluded_with":
		return fmt.Sprintf("cannot be combined with %s", err.Param())
	case "required_without":
		return fmt.Sprintf("is required when %s is missing", err.Param())
	default:
		return "is invalid"
	}
}
