package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	apperrors "kpr/internal/errors"
	"kpr/internal/kv"
	"kpr/internal/logger"
	"kpr/internal/metrics"
	"kpr/internal/notify"
)

const otpDigits = 4

// OTPPolicy controls code lifetime, resend cooldown and guess limit.
type OTPPolicy struct {
	TTL         time.Duration
	Cooldown    time.Duration
	MaxAttempts int
}

// DefaultOTPPolicy issues 4-digit codes valid for 5 minutes with a 60 second
// resend cooldown and 5 guesses.
func DefaultOTPPolicy() OTPPolicy {
	return OTPPolicy{TTL: 5 * time.Minute, Cooldown: 60 * time.Second, MaxAttempts: 5}
}

type otpRecord struct {
	Hash      string    `json:"hash"`
	Attempts  int       `json:"attempts"`
	ExpiresAt time.Time `json:"expires_at"`
}

// otpService stores only the SHA-256 of each code.
type otpService struct {
	store  kv.Store
	mailer notify.Mailer
	policy OTPPolicy
	now    func() time.Time
	code   func() (string, error)
}

// NewOTPService creates a new OTPServicer.
func NewOTPService(store kv.Store, mailer notify.Mailer, policy OTPPolicy) OTPServicer {
	def := DefaultOTPPolicy()
	if policy.TTL <= 0 {
		policy.TTL = def.TTL
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = def.MaxAttempts
	}
	return &otpService{store: store, mailer: mailer, policy: policy, now: time.Now, code: randomCode}
}

// Issue generates and mails a fresh code, replacing any earlier one. A second
// request inside the cooldown window fails with ErrOTPCooldown.
func (s *otpService) Issue(ctx context.Context, purpose OTPPurpose, email string) error {
	email = normalizeEmail(email)
	cooldownKey := otpCooldownKey(purpose, email)

	if s.policy.Cooldown > 0 {
		_, cooling, err := s.store.Get(ctx, cooldownKey)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if cooling {
			return apperrors.ErrOTPCooldown
		}
	}

	code, err := s.code()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.save(ctx, purpose, email, otpRecord{Hash: hashOTP(code), ExpiresAt: s.now().Add(s.policy.TTL)}); err != nil {
		return err
	}
	if s.policy.Cooldown > 0 {
		if err := s.store.Set(ctx, cooldownKey, "1", s.policy.Cooldown); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	if err := s.mailer.SendOTP(ctx, email, string(purpose), code); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	metrics.OTPIssued.WithLabelValues(string(purpose)).Inc()
	logger.Get().Infow("otp issued", "purpose", purpose, "email", email)
	return nil
}

// Verify consumes a matching code. A wrong code uses up one attempt; once the
// attempts run out the code is discarded and the caller must request another.
func (s *otpService) Verify(ctx context.Context, purpose OTPPurpose, email, code string) error {
	email = normalizeEmail(email)
	key := otpKey(purpose, email)

	raw, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !ok {
		return apperrors.ErrOTPExpired
	}

	var rec otpRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		_ = s.store.Delete(ctx, key)
		return apperrors.ErrOTPExpired
	}
	if !s.now().Before(rec.ExpiresAt) {
		_ = s.store.Delete(ctx, key)
		return apperrors.ErrOTPExpired
	}

	if subtle.ConstantTimeCompare([]byte(rec.Hash), []byte(hashOTP(code))) == 1 {
		if err := s.store.Delete(ctx, key); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	}

	rec.Attempts++
	if rec.Attempts >= s.policy.MaxAttempts {
		if err := s.store.Delete(ctx, key); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return apperrors.ErrOTPExpired
	}
	if err := s.save(ctx, purpose, email, rec); err != nil {
		return err
	}
	return apperrors.ErrInvalidOTP
}

func (s *otpService) save(ctx context.Context, purpose OTPPurpose, email string, rec otpRecord) error {
	ttl := rec.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return apperrors.ErrOTPExpired
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.store.Set(ctx, otpKey(purpose, email), string(data), ttl); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func otpKey(purpose OTPPurpose, email string) string {
	return fmt.Sprintf("otp:%s:%s", purpose, email)
}

func otpCooldownKey(purpose OTPPurpose, email string) string {
	return fmt.Sprintf("otp:cooldown:%s:%s", purpose, email)
}

func hashOTP(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func randomCode() (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < otpDigits; i++ {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}
