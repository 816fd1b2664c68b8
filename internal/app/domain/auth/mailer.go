package auth

import (
	"context"

	"go.uber.org/zap"
)

// Mailer delivers password reset tokens to users.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// LogMailer writes reset tokens to the log. It stands in for a real mail
// provider in development.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendPasswordReset(_ context.Context, email, token string) error {
	m.logger.Info("Password reset requested",
		zap.String("email", email),
		zap.String("reset_token", token),
	)
	return nil
}
