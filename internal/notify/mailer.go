// Package notify sends the service's transactional emails.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// ResendMailer sends messages through the Resend API.
type ResendMailer struct {
	from   string
	client *resend.Client
}

// NewResendMailer builds a mailer. A nil client gets a 10s timeout.
func NewResendMailer(apiKey, from string, client *http.Client) *ResendMailer {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &ResendMailer{from: from, client: resend.NewCustomClient(client, apiKey)}
}

func (m *ResendMailer) Send(ctx context.Context, msg Message) error {
	_, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// NopMailer logs instead of sending; used when no email provider is configured.
type NopMailer struct {
	logger *zap.SugaredLogger
}

func NewNopMailer(logger *zap.SugaredLogger) *NopMailer { return &NopMailer{logger: logger} }

func (m *NopMailer) Send(_ context.Context, msg Message) error {
	m.logger.Infow("email not sent, no provider configured", "to", msg.To, "subject", msg.Subject)
	return nil
}

// NewMailer returns a Resend mailer when apiKey is set and a NopMailer otherwise.
func NewMailer(apiKey, from string, logger *zap.SugaredLogger) Mailer {
	if apiKey == "" {
		return NewNopMailer(logger)
	}
	return NewResendMailer(apiKey, from, nil)
}
