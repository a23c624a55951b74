package testutil

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	apperrors "kpr/internal/errors"
)

// AssertAppError fails unless err is an *AppError carrying code.
func AssertAppError(t *testing.T, err error, code string) {
	t.Helper()

	var appErr *apperrors.AppError
	switch {
	case err == nil:
		t.Fatalf("expected AppError %q, got nil", code)
	case !errors.As(err, &appErr):
		t.Fatalf("expected *AppError %q, got %T: %v", code, err, err)
	case appErr.Code != code:
		t.Errorf("error code = %q, want %q (message: %s)", appErr.Code, code, appErr.Message)
	}
}

// AssertNoError fails the test immediately if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertDecimal compares amounts by value, so "100" equals "100.00".
func AssertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("amount = %s, want %s", got.String(), want)
	}
}
