// Package notify sends plain text mail to voters.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/abrezinsky/evote/internal/logger"
)

// ErrNoRecipient is returned when a message has no address to go to
var ErrNoRecipient = errors.New("recipient address is empty")

// SendFunc matches smtp.SendMail
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPConfig holds SMTP server settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer delivers mail through an SMTP relay
type SMTPMailer struct {
	cfg  SMTPConfig
	log  logger.Logger
	send SendFunc
	now  func() time.Time
}

// NewSMTPMailer creates a mailer for cfg
func NewSMTPMailer(cfg SMTPConfig, log logger.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, log: log, send: smtp.SendMail, now: time.Now}
}

// SetSendFunc replaces the transport (for testing)
func (m *SMTPMailer) SetSendFunc(fn SendFunc) {
	m.send = fn
}

// Send delivers one message. smtp.SendMail has no context support, so ctx
// is only checked before dialing.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))

	if err := m.send(addr, auth, m.cfg.From, []string{to}, m.compose(to, subject, body)); err != nil {
		m.log.Warn("Mail delivery failed", "to", to, "subject", subject, "error", err)
		return fmt.Errorf("send mail: %w", err)
	}
	m.log.Info("Mail sent", "to", to, "subject", subject)
	return nil
}

func (m *SMTPMailer) compose(to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", m.now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}

// Noop logs messages instead of sending them. Used when SMTP is not configured.
type Noop struct {
	log logger.Logger
}

// NewNoop creates a mailer that never sends
func NewNoop(log logger.Logger) *Noop {
	return &Noop{log: log}
}

// Send reports that mail is disabled
func (n *Noop) Send(ctx context.Context, to, subject, body string) error {
	n.log.Debug("Mail disabled, dropping message", "to", to, "subject", subject)
	return ErrDisabled
}

// ErrDisabled is returned by Noop.Send
var ErrDisabled = errors.New("mail is not configured")
