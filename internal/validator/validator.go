// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	phoneIDRegex  = regexp.MustCompile(`^(08|62)[0-9]{8,11}$`)
	otpCodeRegex  = regexp.MustCompile(`^[0-9]{4}$`)
	fullNameRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z .']*$`)
)

const passwordSymbols = "@$!%*?&"

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterOn(v)
	}
}

// RegisterOn registers the custom tags on v.
func RegisterOn(v *validator.Validate) {
	_ = v.RegisterValidation("phone_id", validatePhoneID)
	_ = v.RegisterValidation("strong_password", validateStrongPassword)
	_ = v.RegisterValidation("otp_code", validateOTPCode)
	_ = v.RegisterValidation("full_name", validateFullName)
	_ = v.RegisterValidation("job_type", validateJobType)
	_ = v.RegisterValidation("rate_type", validateRateType)
	_ = v.RegisterValidation("application_status", validateApplicationStatus)
}

// validatePhoneID accepts Indonesian mobile numbers: 10 to 13 digits
// starting with 08 or 62.
func validatePhoneID(fl validator.FieldLevel) bool {
	return phoneIDRegex.MatchString(fl.Field().String())
}

func validateStrongPassword(fl validator.FieldLevel) bool {
	pw := fl.Field().String()
	if len(pw) < 8 {
		return false
	}
	var lower, upper, digit, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case containsRune(passwordSymbols, r):
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}

func validateOTPCode(fl validator.FieldLevel) bool {
	return otpCodeRegex.MatchString(fl.Field().String())
}

func validateFullName(fl validator.FieldLevel) bool {
	return fullNameRegex.MatchString(fl.Field().String())
}

func validateJobType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "karyawan", "wiraswasta", "profesional":
		return true
	}
	return false
}

func validateRateType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "single_fixed", "tiered_fixed":
		return true
	}
	return false
}

func validateApplicationStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "submitted", "in_review", "approved", "rejected":
		return true
	}
	return false
}

func containsRune(s string, r rune) bool {
	for _, c := range s {
		if c == r {
			return true
		}
	}
	return false
}
