// SMTP delivery via github.com/wneessen/go-mail.
//
// Behavior:
//   - One connection per message (DialAndSendWithContext); receipts are rare
//     enough that pooling buys nothing.
//   - Every send is bounded by MailConfig.Timeout on top of the caller's ctx.
//   - Failures come back as Result.Err wrapping ErrNotification and are
//     logged at WARN; Send never panics or blocks the donation.

package notify

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"github.com/tbourn/go-donation-backend/internal/config"
)

// SMTPDispatcher sends mail through an authenticated SMTP relay.
type SMTPDispatcher struct {
	client   *mail.Client
	fromName string
	fromAddr string
	timeout  time.Duration

	// send delivers a built message; replaced in tests.
	send func(ctx context.Context, m *mail.Msg) error
}

// NewSMTPDispatcher builds a client for cfg. Port 465 uses implicit TLS,
// any other port upgrades with STARTTLS when the server offers it.
func NewSMTPDispatcher(cfg config.MailConfig, fromName, fromAddr string) (*SMTPDispatcher, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.User),
		mail.WithPassword(cfg.Pass),
		mail.WithTimeout(cfg.Timeout),
	}
	if cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	c, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	d := &SMTPDispatcher{client: c, fromName: fromName, fromAddr: fromAddr, timeout: cfg.Timeout}
	d.send = func(ctx context.Context, m *mail.Msg) error {
		return d.client.DialAndSendWithContext(ctx, m)
	}
	return d, nil
}

// Send builds and delivers msg, bounded by the dispatcher timeout.
func (d *SMTPDispatcher) Send(ctx context.Context, msg Message) Result {
	m, err := d.build(msg)
	if err != nil {
		return Result{Err: fmt.Errorf("%w: %v", ErrNotification, err)}
	}
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	if err := d.send(ctx, m); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("subject", msg.Subject).Msg("smtp delivery failed")
		return Result{Err: fmt.Errorf("%w: %v", ErrNotification, err)}
	}

	var id string
	if ids := m.GetGenHeader(mail.HeaderMessageID); len(ids) > 0 {
		id = ids[0]
	}
	zerolog.Ctx(ctx).Info().Str("message_id", id).Msg("email sent")
	return Result{Delivered: true, MessageID: id}
}

// build turns msg into a go-mail message with a generated Message-ID, an
// HTML body and the given attachments.
func (d *SMTPDispatcher) build(msg Message) (*mail.Msg, error) {
	if len(msg.To) == 0 {
		return nil, fmt.Errorf("no recipients")
	}
	m := mail.NewMsg()
	if err := m.FromFormat(d.fromName, d.fromAddr); err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetMessageID()
	m.SetDate()
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)
	for _, a := range msg.Attachments {
		var fopts []mail.FileOption
		if a.ContentType != "" {
			fopts = append(fopts, mail.WithFileContentType(mail.ContentType(a.ContentType)))
		}
		if err := m.AttachReader(a.Name, bytes.NewReader(a.Data), fopts...); err != nil {
			return nil, fmt.Errorf("attach %s: %w", a.Name, err)
		}
	}
	return m, nil
}
