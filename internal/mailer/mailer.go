// Package mailer sends transactional email. Production uses a plain SMTP
// relay behind a retry loop; development logs the message instead.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/ShubhamMishra2526/Travease-App/pkg/logger"
	"github.com/ShubhamMishra2526/Travease-App/pkg/retry"
)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	Text    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds relay settings.
type SMTPConfig struct {
	Addr     string // host:port
	Host     string
	Username string
	Password string
	From     string
}

// SMTPMailer delivers through an SMTP relay. Transient failures are
// retried with backoff; authentication failures are permanent.
type SMTPMailer struct {
	cfg   SMTPConfig
	retry *retry.Config
	send  func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer creates an SMTPMailer.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		cfg:   cfg,
		retry: retry.DefaultConfig(),
		send:  smtp.SendMail,
	}
}

// Send delivers one message, retrying transient relay failures.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	body := buildMessage(m.cfg.From, msg)

	err := retry.Do(ctx, m.retry, func(ctx context.Context) error {
		if err := m.send(m.cfg.Addr, auth, m.cfg.From, []string{msg.To}, body); err != nil {
			if strings.Contains(err.Error(), "535") { // auth rejected
				return retry.Permanent(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}
	return nil
}

func buildMessage(from string, msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Text)
	return []byte(b.String())
}

// LogMailer writes messages to the application log instead of sending
// them, for development.
type LogMailer struct{}

// NewLogMailer creates a LogMailer.
func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

// Send logs the message.
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	logger.Get().Info("email (not sent in development)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("text", msg.Text),
	)
	return nil
}
