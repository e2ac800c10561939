package postmark

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"

	"github.com/dmitrymomot/storefront/core/email"
)

// Client sends transactional email through the Postmark API.
type Client struct {
	client *postmark.Client
	config Config
}

var _ email.EmailSender = (*Client)(nil)

// New validates cfg and creates a Postmark-backed sender.
// The account token is optional; only the server token is used for sending.
func New(cfg Config) (*Client, error) {
	if cfg.ServerToken == "" {
		return nil, fmt.Errorf("%w: server token is required", email.ErrInvalidConfig)
	}
	if !email.IsValidAddress(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: sender email %q is invalid", email.ErrInvalidConfig, cfg.SenderEmail)
	}
	if cfg.SupportEmail != "" && !email.IsValidAddress(cfg.SupportEmail) {
		return nil, fmt.Errorf("%w: support email %q is invalid", email.ErrInvalidConfig, cfg.SupportEmail)
	}

	return &Client{
		client: postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		config: cfg,
	}, nil
}

// MustNew is New that panics on invalid configuration.
func MustNew(cfg Config) *Client {
	c, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return c
}

// SendEmail implements email.EmailSender.
// params.ReplyTo wins over the configured support address.
func (c *Client) SendEmail(ctx context.Context, params email.SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	resp, err := c.client.SendEmail(ctx, c.message(params))
	if err != nil {
		return errors.Join(email.ErrFailedToSendEmail, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(
			email.ErrFailedToSendEmail,
			fmt.Errorf("postmark error %d: %s", resp.ErrorCode, resp.Message),
		)
	}
	return nil
}

func (c *Client) message(params email.SendEmailParams) postmark.Email {
	replyTo := params.ReplyTo
	if replyTo == "" {
		replyTo = c.config.SupportEmail
	}
	msg := postmark.Email{
		From:       c.config.SenderEmail,
		ReplyTo:    replyTo,
		To:         params.SendTo,
		Subject:    params.Subject,
		Tag:        params.Tag,
		HTMLBody:   params.BodyHTML,
		TextBody:   params.BodyText,
		TrackOpens: params.BodyHTML != "",
	}
	if params.BodyHTML != "" {
		msg.TrackLinks = "HtmlOnly"
	}
	return msg
}
