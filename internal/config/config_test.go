package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OTP_RESEND_COOLDOWN", "")
	t.Setenv("AFFORDABILITY_DTI_RATIO", "")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, cfg.OTPResendCooldown)
	assert.InDelta(t, 0.30, cfg.AffordabilityDTIRatio, 1e-9)
	assert.Equal(t, int64(2<<20), cfg.MaxDocumentBytes)
	assert.Empty(t, cfg.RedisAddr)
	assert.Same(t, cfg, Get())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("OTP_RESEND_COOLDOWN", "90s")
	t.Setenv("AFFORDABILITY_DTI_RATIO", "0.35")
	t.Setenv("MAX_DOCUMENT_MB", "5")
	t.Setenv("DRAFT_TTL", "48h")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.OTPResendCooldown)
	assert.InDelta(t, 0.35, cfg.AffordabilityDTIRatio, 1e-9)
	assert.Equal(t, int64(5<<20), cfg.MaxDocumentBytes)
	assert.Equal(t, 48*time.Hour, cfg.DraftTTL)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("JWT_EXPIRES_IN", "soon")
	t.Setenv("AFFORDABILITY_DTI_RATIO", "1.5")
	t.Setenv("OTP_MAX_ATTEMPTS", "-1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpirationDur)
	assert.InDelta(t, 0.30, cfg.AffordabilityDTIRatio, 1e-9)
	assert.Equal(t, 5, cfg.OTPMaxAttempts)
}
