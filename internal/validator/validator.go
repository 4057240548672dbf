package validator

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var bookingCodeRgx = regexp.MustCompile(`^(BK|STF)\d{15}$`)

func NewValidator() *validator.Validate {
	validator := validator.New(validator.WithRequiredStructEnabled())

	validator.RegisterValidation("booking_code", validateBookingCode)
	validator.RegisterValidation("payment_method", validatePaymentMethod)

	return validator
}

func validateBookingCode(fl validator.FieldLevel) bool {
	return bookingCodeRgx.MatchString(fl.Field().String())
}

func validatePaymentMethod(fl validator.FieldLevel) bool {
	method := fl.Field().String()

	return method == "Transfer" || method == "Cash"
}

// ValidationMessage converts validator errors into readable messages
func ValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must have at least %s item(s)", err.Param())
	case "max":
		return fmt.Sprintf("must have at most %s item(s)", err.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", err.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "unique":
		return "must not contain duplicates"
	case "uuid":
		return "must be a valid UUID"
	case "booking_code":
		return "must be a valid booking code"
	case "payment_method":
		return "must be one of: Transfer, Cash"
	default:
		return "is invalid"
	}
}
