// Package notify delivers donor notifications by email.
//
// Delivery is best-effort from the caller's point of view: Send never returns
// an error value, it reports the outcome in Result so the donation flow can
// record it without failing.
package notify

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-donation-backend/internal/config"
	"github.com/tbourn/go-donation-backend/internal/sysutil"
)

// ErrNotification wraps any delivery failure reported in Result.Err.
var ErrNotification = errors.New("notification failed")

// DefaultSender is used as the From address when neither MAIL_FROM nor
// SMTP_USER is set.
const DefaultSender = "help@mahilaswashthyamission.in"

// Attachment is a file sent with a Message.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Message is an HTML email.
type Message struct {
	To          []string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Result reports what happened to a Message.
type Result struct {
	Delivered bool
	Mock      bool
	MessageID string
	Err       error
}

// Dispatcher sends messages.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) Result
}

// New returns an SMTP dispatcher when credentials are configured and a
// MockDispatcher otherwise.
func New(cfg config.MailConfig, fromName string) (Dispatcher, error) {
	if !cfg.Enabled() {
		return MockDispatcher{}, nil
	}
	from := sysutil.FirstNonEmpty(cfg.From, cfg.User, DefaultSender)
	return NewSMTPDispatcher(cfg, fromName, from)
}

// MockDispatcher logs messages instead of sending them and reports success.
type MockDispatcher struct{}

func (MockDispatcher) Send(ctx context.Context, msg Message) Result {
	zerolog.Ctx(ctx).Info().
		Int("recipients", len(msg.To)).
		Str("subject", msg.Subject).
		Int("attachments", len(msg.Attachments)).
		Msg("email mock (SMTP not configured)")
	return Result{Delivered: true, Mock: true}
}
