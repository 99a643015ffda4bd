// Package mailer wraps the transactional email provider. Dispatch is
// at-most-once: one Send call per user action, no retries.
package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

type Message struct {
	FromName  string
	FromEmail string
	To        string
	Subject   string
	HTML      string
}

// Mailer sends one email and returns the provider message id.
type Mailer interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// ResendMailer dispatches through the Resend API.
type ResendMailer struct {
	client *resend.Client
}

func NewResendMailer(apiKey string) *ResendMailer {
	return &ResendMailer{client: resend.NewClient(apiKey)}
}

func (m *ResendMailer) Send(ctx context.Context, msg Message) (string, error) {
	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", msg.FromName, msg.FromEmail),
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	}

	sent, err := m.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	return sent.Id, nil
}

// LogMailer logs instead of sending. Used in development when no provider
// key is configured.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) (string, error) {
	m.logger.InfoContext(ctx, "email dispatch skipped (dev mailer)",
		"to", msg.To,
		"subject", msg.Subject,
	)
	return "dev-" + msg.To, nil
}
