// Package mailer implements activation-mail delivery over SMTP and the
// activation message body. It satisfies the EmailDispatcher contract of the
// root package without importing it.
package mailer

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// SMTPConfig holds connection settings for the SMTP dispatcher.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	TLS      bool
}

// SMTPDispatcher delivers mail through a single SMTP endpoint. Each Send
// dials a fresh connection; activation mail volume does not justify pooling.
type SMTPDispatcher struct {
	cfg SMTPConfig
}

// NewSMTPDispatcher validates the config and returns a dispatcher.
func NewSMTPDispatcher(cfg SMTPConfig) (*SMTPDispatcher, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp from address is required")
	}
	return &SMTPDispatcher{cfg: cfg}, nil
}

// Send delivers one HTML message to recipient.
func (d *SMTPDispatcher) Send(ctx context.Context, recipient, subject, body string) error {
	msg := mail.NewMsg()

	if d.cfg.FromName != "" {
		if err := msg.FromFormat(d.cfg.FromName, d.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(d.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := msg.To(recipient); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body)

	opts := []mail.Option{
		mail.WithPort(d.cfg.Port),
	}

	if d.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		// Implicit TLS on 465, STARTTLS otherwise
		if d.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if d.cfg.Username != "" && d.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(d.cfg.Username),
			mail.WithPassword(d.cfg.Password),
		)
	}

	client, err := mail.NewClient(d.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}

// Discard is a no-op dispatcher for tests and mail-less deployments.
type Discard struct{}

func (Discard) Send(context.Context, string, string, string) error { return nil }
