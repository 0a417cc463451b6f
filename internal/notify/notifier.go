// Package notify defines the outbound notification capability and its
// transports. The engine only depends on the Notifier interface; the concrete
// transport is wiring detail.
package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Notifier sends a reminder text to a destination address. What the
// destination means depends on the transport (a Telegram chat ID, a phone
// number behind a deep-link, ...).
type Notifier interface {
	Send(ctx context.Context, destination, text string) error
}

// LogNotifier writes reminders to the log instead of sending them. It is the
// fallback transport when no messaging credentials are configured.
type LogNotifier struct {
	logger *logrus.Logger
}

// NewLogNotifier creates a log-only notifier.
func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send logs the reminder and always succeeds.
func (n *LogNotifier) Send(ctx context.Context, destination, text string) error {
	n.logger.WithFields(logrus.Fields{
		"destination": destination,
	}).Infof("Reminder: %s", text)
	return nil
}
