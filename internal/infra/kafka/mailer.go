package kafka

import (
	"context"
	"log/slog"

	"checkout-core/internal/usecase/commands"

	"github.com/segmentio/kafka-go"
)

type emailMessage struct {
	To      string            `json:"to"`
	Subject string            `json:"subject"`
	Body    string            `json:"body"`
	Tags    map[string]string `json:"tags,omitempty"`
}

// Mailer hands email to the notification service through its topic.
type Mailer struct {
	w messageWriter
}

func NewMailer(w *kafka.Writer) *Mailer {
	return &Mailer{w: w}
}

func (m *Mailer) Send(ctx context.Context, msg commands.Email) error {
	return publishJSON(ctx, m.w, msg.To, emailMessage{
		To:      msg.To,
		Subject: msg.Subject,
		Body:    msg.Body,
		Tags:    msg.Tags,
	})
}

func (m *Mailer) Close() error {
	return m.w.Close()
}

type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, msg commands.Email) error {
	m.logger.Info("email", "to", msg.To, "subject", msg.Subject)
	return nil
}
