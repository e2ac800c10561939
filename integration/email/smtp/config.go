package smtp

import "time"

// Config holds SMTP relay settings. The sender is disabled while Host is empty.
type Config struct {
	Host        string        `env:"SMTP_HOST"`
	Port        int           `env:"SMTP_PORT" envDefault:"587"`
	Username    string        `env:"SMTP_USERNAME"`
	Password    string        `env:"SMTP_PASSWORD"`
	TLSMode     string        `env:"SMTP_TLS_MODE" envDefault:"starttls"` // starttls, tls or plain
	SenderEmail string        `env:"SMTP_SENDER_EMAIL" envDefault:"noreply@localhost.dev"`
	DialTimeout time.Duration `env:"SMTP_DIAL_TIMEOUT" envDefault:"10s"`
}

// Enabled reports whether a relay is configured.
func (c Config) Enabled() bool { return c.Host != "" }
