// Package notifier delivers operational alerts (platform failures,
// storage trouble, lifecycle notices) to a configured Telegram chat.
// It is injected into the components that need it rather than accessed
// globally, so the core stays testable without process-wide setup.
package notifier

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/edgard/titulobot/internal/telegram"
)

const queueSize = 64

// Notifier forwards alert messages to the operational chat through a
// background worker, so reporting never blocks command handling. With
// no chat configured (id 0) alerts are only logged.
type Notifier struct {
	client telegram.Client
	chatID int64
	logger *slog.Logger
	queue  chan string
}

// New creates a Notifier. chatID 0 disables platform delivery.
func New(client telegram.Client, chatID int64, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Notifier{
		client: client,
		chatID: chatID,
		logger: logger.With("component", "notifier"),
		queue:  make(chan string, queueSize),
	}
}

// Run drains the alert queue until the context is cancelled. It always
// returns nil so a shared errgroup does not treat shutdown as failure.
func (n *Notifier) Run(ctx context.Context) error {
	if n.chatID == 0 {
		n.logger.Warn("No operational chat configured, alerts will only be logged")
	}

	for {
		select {
		case <-ctx.Done():
			n.logger.Info("Notifier worker stopped")
			return nil
		case msg := <-n.queue:
			if n.chatID == 0 {
				continue
			}
			if err := n.client.SendMessage(ctx, n.chatID, msg, 0); err != nil {
				n.logger.Warn("Failed to deliver operational alert", "error", err)
			}
		}
	}
}

// Report queues an alert. A full queue drops the alert rather than
// blocking the reporting command.
func (n *Notifier) Report(msg string) {
	n.logger.Warn("Operational alert", "message", msg)
	select {
	case n.queue <- msg:
	default:
		n.logger.Error("Alert queue full, dropping alert", "message", msg)
	}
}

// Reportf is Report with formatting.
func (n *Notifier) Reportf(format string, args ...any) {
	n.Report(fmt.Sprintf(format, args...))
}
