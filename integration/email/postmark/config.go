package postmark

// Config holds Postmark credentials and sender identity.
// Without a server token the application falls back to email.DevSender.
type Config struct {
	ServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	AccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail  string `env:"POSTMARK_SENDER_EMAIL" envDefault:"noreply@localhost.dev"`
	SupportEmail string `env:"POSTMARK_SUPPORT_EMAIL"`
}

// Enabled reports whether a server token is configured.
func (c Config) Enabled() bool { return c.ServerToken != "" }
