// Package notify emails the sales inbox about new RFQs and inquiries.
//
// Delivery is best effort: messages are sent in the background with their
// own deadline, failures are logged and counted, and the request that caused
// them never waits.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/storefront/core/email"
	"github.com/dmitrymomot/storefront/core/logger"
	"github.com/dmitrymomot/storefront/internal/store"
	"github.com/dmitrymomot/storefront/pkg/async"
)

const (
	KindOrder   = "order"
	KindInquiry = "inquiry"

	DefaultSendTimeout = 10 * time.Second
)

// Recorder counts deliveries; *metrics.Metrics implements it.
type Recorder interface {
	NotificationSent(kind string, err error)
}

// Notifier sends notification emails to one recipient.
type Notifier struct {
	sender    email.EmailSender
	recipient string
	timeout   time.Duration
	log       *slog.Logger
	recorder  Recorder

	mu      sync.Mutex
	pending []*async.ExecFuture
}

// Option configures a Notifier.
type Option func(*Notifier)

func WithLogger(l *slog.Logger) Option {
	return func(n *Notifier) {
		if l != nil {
			n.log = l
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(n *Notifier) { n.recorder = r }
}

func WithSendTimeout(d time.Duration) Option {
	return func(n *Notifier) {
		if d > 0 {
			n.timeout = d
		}
	}
}

// New creates a Notifier. An empty recipient disables notifications.
func New(sender email.EmailSender, recipient string, opts ...Option) *Notifier {
	n := &Notifier{
		sender:    sender,
		recipient: recipient,
		timeout:   DefaultSendTimeout,
		log:       logger.Discard(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Enabled reports whether messages will be sent.
func (n *Notifier) Enabled() bool {
	return n != nil && n.sender != nil && n.recipient != ""
}

// OrderSubmitted announces a new RFQ.
func (n *Notifier) OrderSubmitted(ctx context.Context, o store.Order) {
	var b strings.Builder
	fmt.Fprintf(&b, "New request for quote %s\n\n", o.Reference)
	fmt.Fprintf(&b, "Company: %s\nContact: %s\nEmail: %s\nPhone: %s\n\n", o.Company, o.ContactName, o.Email, o.Phone)
	b.WriteString("Items:\n")
	for _, it := range o.Items {
		fmt.Fprintf(&b, "  %s x %d", it.SKU, it.Quantity)
		if it.Notes != "" {
			fmt.Fprintf(&b, " (%s)", it.Notes)
		}
		b.WriteByte('\n')
	}
	if o.Notes != "" {
		fmt.Fprintf(&b, "\nNotes:\n%s\n", o.Notes)
	}

	n.send(ctx, KindOrder, email.SendEmailParams{
		SendTo:   n.recipient,
		ReplyTo:  replyTo(o.Email),
		Subject:  fmt.Sprintf("RFQ %s from %s", o.Reference, o.Company),
		Tag:      "rfq",
		BodyText: b.String(),
	})
}

// InquiryReceived announces a new inquiry or contact message.
func (n *Notifier) InquiryReceived(ctx context.Context, q store.Inquiry) {
	subject := q.Subject
	if subject == "" {
		subject = "New " + q.Source + " from " + q.Name
	}
	body := fmt.Sprintf("From: %s <%s>\nCompany: %s\nPhone: %s\n\n%s\n", q.Name, q.Email, q.Company, q.Phone, q.Message)

	n.send(ctx, KindInquiry, email.SendEmailParams{
		SendTo:   n.recipient,
		ReplyTo:  replyTo(q.Email),
		Subject:  subject,
		Tag:      q.Source,
		BodyText: body,
	})
}

// Wait blocks until every message queued so far is delivered or failed, or
// ctx ends.
func (n *Notifier) Wait(ctx context.Context) error {
	n.mu.Lock()
	pending := n.pending
	n.pending = nil
	n.mu.Unlock()

	// Delivery failures are already logged and counted by send.
	if err := async.WaitAll(ctx, pending...); errors.Is(err, async.ErrNotComplete) {
		return ctx.Err()
	}
	return nil
}

func (n *Notifier) send(ctx context.Context, kind string, params email.SendEmailParams) {
	if !n.Enabled() {
		return
	}

	// The request context ends with the response; keep its values only.
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	f := async.Exec(sctx, params, func(ctx context.Context, p email.SendEmailParams) error {
		defer cancel()
		err := n.sender.SendEmail(ctx, p)
		if n.recorder != nil {
			n.recorder.NotificationSent(kind, err)
		}
		if err != nil {
			n.log.WarnContext(ctx, "notification not sent",
				logger.Component("notify"), slog.String("kind", kind), logger.Error(err))
		}
		return err
	})

	n.mu.Lock()
	kept := n.pending[:0]
	for _, p := range n.pending {
		if !p.IsComplete() {
			kept = append(kept, p)
		}
	}
	n.pending = append(kept, f)
	n.mu.Unlock()
}

func replyTo(addr string) string {
	if email.IsValidAddress(addr) {
		return addr
	}
	return ""
}
