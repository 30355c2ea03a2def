package notification

import (
	"context"

	"lokapasar-be/internal/logger"

	"go.uber.org/zap"
)

// Notifier delivers order lifecycle messages. Delivery is best effort;
// a failed notification never fails the transaction that triggered it.
type Notifier interface {
	NotifyUser(ctx context.Context, userID uint, event string, message string)
	NotifyAdmin(ctx context.Context, event string, message string)
}

type logNotifier struct{}

// NewLogNotifier returns a Notifier that writes notifications to the
// application log. Stands in until a push or email channel is wired up.
func NewLogNotifier() Notifier {
	return &logNotifier{}
}

func (n *logNotifier) NotifyUser(ctx context.Context, userID uint, event string, message string) {
	logger.FromCtx(ctx).Info("user notification",
		zap.Uint("user_id", userID),
		zap.String("event", event),
		zap.String("message", message),
	)
}

func (n *logNotifier) NotifyAdmin(ctx context.Context, event string, message string) {
	logger.FromCtx(ctx).Info("admin notification",
		zap.String("event", event),
		zap.String("message", message),
	)
}
