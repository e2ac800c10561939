// Package smtp delivers notification emails through an SMTP relay. It is the
// fallback transport when no Postmark token is configured.
package smtp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/storefront/core/email"
)

const (
	ModeSTARTTLS = "starttls"
	ModeTLS      = "tls"
	ModePlain    = "plain"
)

// Client implements email.EmailSender. It is safe for concurrent use; every
// message opens its own connection.
type Client struct {
	config Config
	auth   smtp.Auth
	now    func() time.Time
}

// New validates cfg and creates a Client.
func New(cfg Config) (*Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: host is required", email.ErrInvalidConfig)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("%w: port must be between 1 and 65535", email.ErrInvalidConfig)
	}
	switch cfg.TLSMode {
	case ModeSTARTTLS, ModeTLS, ModePlain:
	default:
		return nil, fmt.Errorf("%w: tls mode must be starttls, tls or plain", email.ErrInvalidConfig)
	}
	if !email.IsValidAddress(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: sender %q is not a valid address", email.ErrInvalidConfig, cfg.SenderEmail)
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}

	c := &Client{config: cfg, now: time.Now}
	if cfg.Username != "" {
		c.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return c, nil
}

// SendEmail delivers params. The context bounds dialing and the whole
// transaction.
func (c *Client) SendEmail(ctx context.Context, params email.SendEmailParams) error {
	if err := ctx.Err(); err != nil {
		return errors.Join(email.ErrFailedToSendEmail, err)
	}
	if err := params.Validate(); err != nil {
		return err
	}

	if err := c.send(ctx, params.SendTo, c.buildMessage(params)); err != nil {
		return errors.Join(email.ErrFailedToSendEmail, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, to string, message []byte) error {
	addr := net.JoinHostPort(c.config.Host, strconv.Itoa(c.config.Port))
	dialCtx, cancel := context.WithTimeout(ctx, c.config.DialTimeout)
	defer cancel()

	var (
		conn net.Conn
		err  error
	)
	if c.config.TLSMode == ModeTLS {
		d := &tls.Dialer{Config: &tls.Config{ServerName: c.config.Host, MinVersion: tls.VersionTLS12}}
		conn, err = d.DialContext(dialCtx, "tcp", addr)
	} else {
		var d net.Dialer
		conn, err = d.DialContext(dialCtx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("connect to smtp server: %w", err)
	}
	defer func() { _ = conn.Close() }()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, c.config.Host)
	if err != nil {
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer func() { _ = client.Close() }()

	if c.config.TLSMode == ModeSTARTTLS {
		if err := client.StartTLS(&tls.Config{ServerName: c.config.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("start tls: %w", err)
		}
	}
	if c.auth != nil {
		if err := client.Auth(c.auth); err != nil {
			return fmt.Errorf("authenticate: %w", err)
		}
	}
	if err := client.Mail(c.config.SenderEmail); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("open data writer: %w", err)
	}
	if _, err := w.Write(message); err != nil {
		_ = w.Close()
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data writer: %w", err)
	}

	// Some relays drop the connection right after DATA; the message is accepted by then.
	_ = client.Quit()
	return nil
}

// buildMessage renders the headers in a fixed order followed by the body.
// HTML wins over text when both are set.
func (c *Client) buildMessage(params email.SendEmailParams) []byte {
	contentType, body := "text/plain; charset=\"UTF-8\"", params.BodyText
	if params.BodyHTML != "" {
		contentType, body = "text/html; charset=\"UTF-8\"", params.BodyHTML
	}

	now := c.now()
	headers := [][2]string{
		{"From", c.config.SenderEmail},
		{"To", params.SendTo},
		{"Subject", sanitizeHeader(params.Subject)},
		{"Date", now.Format(time.RFC1123Z)},
		{"Message-ID", fmt.Sprintf("<%d.%s@%s>", now.UnixNano(), strings.ReplaceAll(params.Tag, " ", "_"), c.config.Host)},
		{"MIME-Version", "1.0"},
		{"Content-Type", contentType},
	}
	if params.ReplyTo != "" {
		headers = append(headers, [2]string{"Reply-To", params.ReplyTo})
	}

	var b strings.Builder
	for _, h := range headers {
		b.WriteString(h[0])
		b.WriteString(": ")
		b.WriteString(h[1])
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(body, "\r\n", "\n"), "\n", "\r\n"))
	return []byte(b.String())
}

// sanitizeHeader drops line breaks so user text cannot inject headers.
func sanitizeHeader(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
