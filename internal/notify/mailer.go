// Package notify delivers one-time passwords to applicants.
package notify

import (
	"context"

	"go.uber.org/zap"
)

// Mailer sends an OTP for the given purpose ("register" or "reset_password").
type Mailer interface {
	SendOTP(ctx context.Context, email, purpose, code string) error
}

// LogMailer writes OTPs to the log instead of sending mail. It stands in for
// the real mail gateway in development and tests.
type LogMailer struct {
	log *zap.SugaredLogger
}

func NewLogMailer(log *zap.SugaredLogger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendOTP(_ context.Context, email, purpose, code string) error {
	m.log.Infow("otp issued", "email", email, "purpose", purpose, "code", code)
	return nil
}
