package notify

import (
	"context"

	"github.com/jonwraymond/opswatch/observe"
)

// LogNotifier writes alerts to the structured log. It never fails.
type LogNotifier struct {
	logger observe.Logger
}

// NewLogNotifier creates a notifier that logs through l.
func NewLogNotifier(l observe.Logger) *LogNotifier {
	if l == nil {
		l = observe.NopLogger()
	}
	return &LogNotifier{logger: l}
}

// Publish logs the alert at warn level.
func (n *LogNotifier) Publish(ctx context.Context, subject, message string) error {
	n.logger.Warn(ctx, "alert",
		observe.Field{Key: "subject", Value: subject},
		observe.Field{Key: "body", Value: message},
	)
	return nil
}
