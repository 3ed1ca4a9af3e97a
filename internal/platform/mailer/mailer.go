// Package mailer implements reminder delivery over SMTP.
package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"

	"taskminder/internal/config"
	"taskminder/internal/reminder"
)

// SMTPNotifier implements reminder.Notifier using an SMTP submission account.
type SMTPNotifier struct {
	client *mail.Client
	from   string
	logger *slog.Logger
}

// Ensure SMTPNotifier implements the reminder.Notifier interface
var _ reminder.Notifier = (*SMTPNotifier)(nil)

// NewSMTPNotifier creates a notifier for the configured mail account.
func NewSMTPNotifier(cfg config.MailConfig, logger *slog.Logger) (*SMTPNotifier, error) {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for SMTPNotifier")
	}

	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	return &SMTPNotifier{
		client: client,
		from:   cfg.From,
		logger: logger.With(slog.String("component", "smtp_notifier")),
	}, nil
}

// Send delivers a single plain-text message. Transport failures surface as
// errors for the caller (the scheduler) to log; there is no retry here.
func (n *SMTPNotifier) Send(ctx context.Context, recipient, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return fmt.Errorf("%w: invalid sender address: %v", reminder.ErrNotifier, err)
	}
	if err := msg.To(recipient); err != nil {
		return fmt.Errorf("%w: invalid recipient address: %v", reminder.ErrNotifier, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("%w: %v", reminder.ErrNotifier, err)
	}

	n.logger.Debug("mail submitted", "subject", subject)
	return nil
}
