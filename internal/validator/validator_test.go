package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

func newValidate() *validator.Validate {
	v := validator.New()
	RegisterOn(v)
	return v
}

func TestCustomTags(t *testing.T) {
	v := newValidate()

	tests := []struct {
		tag   string
		value string
		valid bool
	}{
		{"phone_id", "081234567890", true},
		{"phone_id", "6281234567", true},
		{"phone_id", "0812345", false},
		{"phone_id", "07123456789", false},
		{"phone_id", "08123456789012", false},
		{"strong_password", "123Admin!", true},
		{"strong_password", "Admin!1", false},
		{"strong_password", "admin123!", false},
		{"strong_password", "Admin1234", false},
		{"otp_code", "0427", true},
		{"otp_code", "427", false},
		{"otp_code", "04a7", false},
		{"full_name", "Budi Santoso", true},
		{"full_name", "Budi 2", false},
		{"full_name", " Budi", false},
		{"job_type", "karyawan", true},
		{"job_type", "pelajar", false},
		{"rate_type", "tiered_fixed", true},
		{"rate_type", "floating", false},
		{"application_status", "in_review", true},
		{"application_status", "draft", false},
	}
	for _, tt := range tests {
		err := v.Var(tt.value, tt.tag)
		if tt.valid && err != nil {
			t.Errorf("%s(%q) should be valid: %v", tt.tag, tt.value, err)
		}
		if !tt.valid && err == nil {
			t.Errorf("%s(%q) should be invalid", tt.tag, tt.value)
		}
	}
}
