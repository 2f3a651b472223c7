package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"resbook/internal/config"
)

// maxSMTPRoundTrip bounds the whole SMTP conversation when the caller's
// context carries no deadline of its own.
const maxSMTPRoundTrip = 30 * time.Second

// SMTPMailer sends plain-text notification mail through a single SMTP
// relay. Delivery is best-effort; callers decide how to react to
// failures.
type SMTPMailer struct {
	host     string
	port     int
	from     string
	password string
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		host:     cfg.Host,
		port:     cfg.Port,
		from:     cfg.From,
		password: cfg.Password,
	}
}

// Send speaks SMTP over a connection whose deadline comes from ctx, so
// a stalled relay fails the call instead of blocking the dispatcher.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := []byte("From: " + m.from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=\"UTF-8\"\r\n" +
		"\r\n" + body + "\r\n")

	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to dial smtp relay %s: %w", addr, err)
	}
	defer conn.Close()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(maxSMTPRoundTrip)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set smtp deadline: %w", err)
	}

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		return fmt.Errorf("failed to greet smtp relay: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
			return fmt.Errorf("failed to start tls: %w", err)
		}
	}
	if m.password != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", m.from, m.password, m.host)
			if err := client.Auth(auth); err != nil {
				return fmt.Errorf("smtp auth failed: %w", err)
			}
		}
	}

	if err := client.Mail(m.from); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	if _, err := writer.Write(msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return client.Quit()
}
