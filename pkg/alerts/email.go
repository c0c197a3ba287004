package alerts

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// EmailConfig holds SMTP server settings for the email channel.
type EmailConfig struct {
	Server     string
	Port       int
	Username   string
	Password   string
	Sender     string
	Recipients []string
	// UseTLS selects implicit TLS (typically port 465). When false the
	// connection is plain with STARTTLS attempted before authentication.
	UseTLS  bool
	Timeout time.Duration
}

// EmailNotifier sends alerts over SMTP as multipart HTML+plain messages.
type EmailNotifier struct {
	cfg EmailConfig
}

// NewEmailNotifier creates an SMTP notifier. Server, sender and at least one
// recipient are required.
func NewEmailNotifier(cfg EmailConfig) (*EmailNotifier, error) {
	var missing []string
	if cfg.Server == "" {
		missing = append(missing, "server")
	}
	if cfg.Sender == "" {
		missing = append(missing, "sender")
	}
	if len(cfg.Recipients) == 0 {
		missing = append(missing, "recipients")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required email configuration: %s", strings.Join(missing, ", "))
	}

	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &EmailNotifier{cfg: cfg}, nil
}

func (e *EmailNotifier) Name() string { return "email" }

func (e *EmailNotifier) Send(ctx context.Context, event Event) error {
	msg := e.buildMessage(event)
	addr := fmt.Sprintf("%s:%d", e.cfg.Server, e.cfg.Port)

	if e.cfg.UseTLS {
		return e.sendImplicitTLS(ctx, addr, msg)
	}
	return e.sendSTARTTLS(ctx, addr, msg)
}

// levelColor maps alert levels to the accent color used in the HTML body.
func levelColor(level Level) string {
	switch level {
	case LevelWarning:
		return "#FF9800"
	case LevelCritical:
		return "#F44336"
	default:
		return "#2196F3"
	}
}

func (e *EmailNotifier) buildMessage(event Event) []byte {
	boundary := fmt.Sprintf("boundary-%d", time.Now().UnixNano())

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", e.cfg.Sender)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(e.cfg.Recipients, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", event.Subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)

	// Plain part
	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	buf.WriteString(event.Message)
	buf.WriteString("\r\n")

	// HTML part
	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	htmlBody := strings.ReplaceAll(event.Message, "\n", "<br>")
	fmt.Fprintf(&buf, `<html><body style="font-family: Arial, sans-serif; line-height: 1.6;">
<div style="padding: 20px; border-left: 4px solid %s; background-color: #f8f8f8;">%s</div>
<div style="font-size: 12px; color: #666; margin-top: 20px;">This is an automated message from Traffic Guardian.</div>
</body></html>`, levelColor(event.Level), htmlBody)
	buf.WriteString("\r\n")

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	return buf.Bytes()
}

func (e *EmailNotifier) sendSTARTTLS(ctx context.Context, addr string, msg []byte) error {
	dialer := &net.Dialer{Timeout: e.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp server: %w", err)
	}

	client, err := smtp.NewClient(conn, e.cfg.Server)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: e.cfg.Server}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	return e.submit(client, msg)
}

func (e *EmailNotifier) sendImplicitTLS(ctx context.Context, addr string, msg []byte) error {
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: e.cfg.Timeout},
		Config:    &tls.Config{ServerName: e.cfg.Server},
	}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial smtp server (tls): %w", err)
	}

	client, err := smtp.NewClient(conn, e.cfg.Server)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	return e.submit(client, msg)
}

func (e *EmailNotifier) submit(client *smtp.Client, msg []byte) error {
	if e.cfg.Username != "" && e.cfg.Password != "" {
		auth := smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Server)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(e.cfg.Sender); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	for _, rcpt := range e.cfg.Recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp rcpt %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		w.Close()
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close message: %w", err)
	}

	return client.Quit()
}
