package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// ErrMissingCredentials means the sender address or password is unset
var ErrMissingCredentials = errors.New("smtp credentials not configured")

// SMTPConfig holds SMTP delivery settings
type SMTPConfig struct {
	// Addr is host:port of a STARTTLS submission server
	Addr     string
	From     string
	Password string
}

// DefaultSMTPConfig returns the Gmail submission endpoint with no credentials
func DefaultSMTPConfig() SMTPConfig {
	return SMTPConfig{
		Addr: "smtp.gmail.com:587",
	}
}

// SMTP delivers messages through an authenticated STARTTLS server
type SMTP struct {
	cfg SMTPConfig
}

// NewSMTP creates an SMTP notifier
func NewSMTP(cfg SMTPConfig) *SMTP {
	// Pasted credentials sometimes carry non-breaking spaces
	cfg.From = cleanCredential(cfg.From)
	cfg.Password = cleanCredential(cfg.Password)
	return &SMTP{cfg: cfg}
}

var _ Notifier = (*SMTP)(nil)

// Send delivers one plain-text message. The context deadline bounds the
// whole exchange.
func (n *SMTP) Send(ctx context.Context, to, subject, body string) error {
	if n.cfg.From == "" || n.cfg.Password == "" {
		return ErrMissingCredentials
	}

	host, _, err := net.SplitHostPort(n.cfg.Addr)
	if err != nil {
		return fmt.Errorf("smtp: bad address %q: %w", n.cfg.Addr, err)
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", n.cfg.Addr)
	if err != nil {
		return fmt.Errorf("smtp: dial: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp: handshake: %w", err)
	}
	defer func() { _ = client.Close() }()

	if err := client.StartTLS(&tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}); err != nil {
		return fmt.Errorf("smtp: starttls: %w", err)
	}
	if err := client.Auth(smtp.PlainAuth("", n.cfg.From, n.cfg.Password, host)); err != nil {
		return fmt.Errorf("smtp: auth: %w", err)
	}
	if err := client.Mail(n.cfg.From); err != nil {
		return fmt.Errorf("smtp: mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("smtp: rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp: data: %w", err)
	}
	if _, err := w.Write(buildMessage(n.cfg.From, to, subject, body, time.Now())); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp: write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp: data close: %w", err)
	}
	return client.Quit()
}

// buildMessage renders an RFC 5322 plain-text message
func buildMessage(from, to, subject, body string, now time.Time) []byte {
	var sb strings.Builder
	sb.WriteString("From: " + from + "\r\n")
	sb.WriteString("To: " + to + "\r\n")
	sb.WriteString("Subject: " + subject + "\r\n")
	sb.WriteString("Date: " + now.Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	sb.WriteString("\r\n")
	return []byte(sb.String())
}

func cleanCredential(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", ""))
}
