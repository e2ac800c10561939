// Package postmark implements email.EmailSender on top of the Postmark
// transactional API (github.com/mrz1836/postmark).
//
//	cfg := postmark.Config{}
//	_ = config.Load(&cfg)
//	if cfg.Enabled() {
//		sender, err := postmark.New(cfg)
//		...
//	}
//
// Configuration comes from POSTMARK_SERVER_TOKEN, POSTMARK_ACCOUNT_TOKEN,
// POSTMARK_SENDER_EMAIL and POSTMARK_SUPPORT_EMAIL.
// Postmark API errors (non-zero ErrorCode) are joined with email.ErrFailedToSendEmail.
package postmark
