package mail

import (
	"context"
	"sync"

	tradeapp "github.com/clinicledger/backend/internal/application/trade"
	"go.uber.org/zap"
)

// LogMailer logs messages instead of sending them. It is used when mail is
// disabled and keeps the messages for inspection.
type LogMailer struct {
	logger *zap.Logger

	mu   sync.Mutex
	sent []tradeapp.MailMessage
}

// NewLogMailer creates a LogMailer
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send records msg
func (m *LogMailer) Send(ctx context.Context, msg *tradeapp.MailMessage) error {
	m.mu.Lock()
	m.sent = append(m.sent, *msg)
	m.mu.Unlock()

	m.logger.Info("Mail delivery disabled, message not sent",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("attachments", len(msg.Attachments)))
	return nil
}

// Sent returns the recorded messages
func (m *LogMailer) Sent() []tradeapp.MailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]tradeapp.MailMessage(nil), m.sent...)
}

var _ tradeapp.Mailer = (*LogMailer)(nil)
