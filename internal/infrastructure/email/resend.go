// Package email delivers outbound mail.
package email

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"

	"github.com/eventsphere/eventsphere/internal/core/ports"
)

// ResendMailer sends mail through the Resend API.
type ResendMailer struct {
	client *resend.Client
	from   string
	logger zerolog.Logger
}

// NewResendMailer builds a mailer for apiKey sending as from.
func NewResendMailer(apiKey, from string, logger zerolog.Logger) (*ResendMailer, error) {
	if err := validateAddress(from); err != nil {
		return nil, fmt.Errorf("invalid sender email: %w", err)
	}
	return &ResendMailer{
		client: resend.NewClient(apiKey),
		from:   from,
		logger: logger.With().Str("component", "email").Logger(),
	}, nil
}

// Send delivers one message. Rate limit responses are reported, not retried.
func (m *ResendMailer) Send(ctx context.Context, msg ports.Mail) error {
	if err := validateAddress(msg.To); err != nil {
		return fmt.Errorf("invalid recipient email: %w", err)
	}

	sent, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		var rateLimitErr *resend.RateLimitError
		if errors.As(err, &rateLimitErr) {
			m.logger.Warn().
				Str("limit", rateLimitErr.Limit).
				Str("reset", rateLimitErr.Reset).
				Msg("resend rate limit exceeded")
			return fmt.Errorf("email rate limit exceeded (resets in %s seconds): %w", rateLimitErr.Reset, err)
		}
		return fmt.Errorf("resend API error: %w", err)
	}

	m.logger.Info().Str("email_id", sent.Id).Str("to", msg.To).Msg("email sent via Resend")
	return nil
}

// LogMailer only logs messages. Used when no mail provider is configured.
type LogMailer struct {
	logger zerolog.Logger
}

func NewLogMailer(logger zerolog.Logger) *LogMailer {
	return &LogMailer{logger: logger.With().Str("component", "email").Logger()}
}

func (m *LogMailer) Send(_ context.Context, msg ports.Mail) error {
	m.logger.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("email delivery disabled, message logged")
	return nil
}

// validateAddress rejects malformed addresses and header injection attempts.
func validateAddress(addr string) error {
	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		return err
	}
	if strings.ContainsAny(parsed.Address, "\r\n") {
		return errors.New("address contains newline characters")
	}
	return nil
}
