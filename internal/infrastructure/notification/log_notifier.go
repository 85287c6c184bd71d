// Package notification delivers user-facing messages. Only a logging
// implementation ships; mail delivery plugs in behind the same interfaces.
package notification

import (
	"context"
	"strings"
	"time"

	"github.com/bidhouse/backend/internal/domain/identity"
	"github.com/bidhouse/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

var _ identity.OTPNotifier = (*LogNotifier)(nil)

// LogNotifier writes OTP codes to the log instead of sending mail
type LogNotifier struct {
	logger     *zap.Logger
	revealCode bool
}

// NewLogNotifier creates the notifier. With revealCode false the code is
// masked, which is what production should run with.
func NewLogNotifier(log *zap.Logger, revealCode bool) *LogNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogNotifier{logger: log.Named("notifier"), revealCode: revealCode}
}

func (n *LogNotifier) SendOTP(ctx context.Context, email string, purpose identity.OTPPurpose, code string, expiresAt time.Time) error {
	shown := code
	if !n.revealCode {
		shown = strings.Repeat("*", len(code))
	}
	n.logger.Info("OTP issued",
		zap.String("request_id", logger.GetRequestID(ctx)),
		zap.String("email", MaskEmail(email)),
		zap.String("purpose", string(purpose)),
		zap.String("code", shown),
		zap.Time("expires_at", expiresAt),
	)
	return nil
}

// MaskEmail keeps the first character of the local part and the domain
func MaskEmail(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
