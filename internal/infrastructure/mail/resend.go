// Package mail sends transactional email through Resend.
package mail

import (
	"context"
	"errors"
	"fmt"

	tradeapp "github.com/clinicledger/backend/internal/application/trade"
	"github.com/clinicledger/backend/internal/infrastructure/config"
	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// ResendMailer delivers email with the Resend API.
type ResendMailer struct {
	client *resend.Client
	from   string
	logger *zap.Logger
}

// NewResendMailer creates a mailer from configuration.
func NewResendMailer(cfg config.MailConfig, logger *zap.Logger) (*ResendMailer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("mail api key is required")
	}
	if cfg.From == "" {
		return nil, errors.New("mail sender address is required")
	}
	return NewResendMailerWithClient(resend.NewClient(cfg.APIKey), cfg.From, logger), nil
}

// NewResendMailerWithClient wraps an existing client
func NewResendMailerWithClient(client *resend.Client, from string, logger *zap.Logger) *ResendMailer {
	return &ResendMailer{client: client, from: from, logger: logger}
}

// Send delivers msg with its attachments.
func (m *ResendMailer) Send(ctx context.Context, msg *tradeapp.MailMessage) error {
	if len(msg.To) == 0 {
		return errors.New("mail recipient is required")
	}

	attachments := make([]*resend.Attachment, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		attachments = append(attachments, &resend.Attachment{
			Filename:    a.Filename,
			Content:     a.Content,
			ContentType: a.ContentType,
		})
	}

	sent, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:        m.from,
		To:          msg.To,
		Subject:     msg.Subject,
		Html:        msg.HTML,
		Attachments: attachments,
	})
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	m.logger.Info("Email sent",
		zap.String("email_id", sent.Id),
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("attachments", len(attachments)))
	return nil
}

var _ tradeapp.Mailer = (*ResendMailer)(nil)
