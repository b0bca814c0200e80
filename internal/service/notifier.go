package service

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/Payphone-Digital/tracker/internal/model"
	"github.com/Payphone-Digital/tracker/pkg/circuit"
	"github.com/Payphone-Digital/tracker/pkg/logger"
)

// ResetNotifier delivers a freshly issued reset token to the account owner
type ResetNotifier interface {
	NotifyPasswordReset(ctx context.Context, user *model.User, token string) error
}

type nopResetNotifier struct{}

func (nopResetNotifier) NotifyPasswordReset(context.Context, *model.User, string) error { return nil }

// Message is a rendered notification ready for delivery
type Message struct {
	To      string
	Subject string
	Body    string
}

// MessageSink hands a rendered message to a delivery channel
type MessageSink interface {
	Send(ctx context.Context, msg Message) error
}

const (
	defaultResetSubject = `Password reset for {{ .Email | lower }}`
	defaultResetBody    = `Hello {{ .FirstName | default "there" | title }},

Use the code below to reset your password. It expires {{ dateInZone "2006-01-02 15:04 MST" .ExpiresAt "UTC" }} and works once.

{{ .Token }}

If you did not ask for this, ignore this message.`
)

type resetTemplateData struct {
	Email     string
	FirstName string
	LastName  string
	Token     string
	ExpiresAt time.Time
}

// TemplateNotifier renders reset messages with text/template and the sprig function map
type TemplateNotifier struct {
	subject *template.Template
	body    *template.Template
	sink    MessageSink
	ttl     time.Duration
	now     func() time.Time
}

// NewTemplateNotifier parses subject and body, falling back to the built-in templates when empty
func NewTemplateNotifier(sink MessageSink, ttl time.Duration, subject, body string) (*TemplateNotifier, error) {
	if subject == "" {
		subject = defaultResetSubject
	}
	if body == "" {
		body = defaultResetBody
	}

	subjectTmpl, err := template.New("reset-subject").Funcs(sprig.TxtFuncMap()).Parse(subject)
	if err != nil {
		return nil, fmt.Errorf("parse reset subject: %w", err)
	}
	bodyTmpl, err := template.New("reset-body").Funcs(sprig.TxtFuncMap()).Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse reset body: %w", err)
	}

	return &TemplateNotifier{
		subject: subjectTmpl,
		body:    bodyTmpl,
		sink:    sink,
		ttl:     ttl,
		now:     time.Now,
	}, nil
}

func (n *TemplateNotifier) NotifyPasswordReset(ctx context.Context, user *model.User, token string) error {
	data := resetTemplateData{
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Token:     token,
		ExpiresAt: n.now().Add(n.ttl).UTC(),
	}

	var subject, body bytes.Buffer
	if err := n.subject.Execute(&subject, data); err != nil {
		return fmt.Errorf("render reset subject: %w", err)
	}
	if err := n.body.Execute(&body, data); err != nil {
		return fmt.Errorf("render reset body: %w", err)
	}

	return n.sink.Send(ctx, Message{To: user.Email, Subject: subject.String(), Body: body.String()})
}

// LogSink writes messages to the application log. The body carries the token
// and is only logged when includeBody is set.
type LogSink struct {
	includeBody bool
}

func NewLogSink(includeBody bool) *LogSink {
	return &LogSink{includeBody: includeBody}
}

func (s *LogSink) Send(ctx context.Context, msg Message) error {
	b := logger.InfoWithContext(ctx, "Notification queued").
		String("to", msg.To).
		String("subject", msg.Subject)
	if s.includeBody {
		b = b.String("body", msg.Body)
	}
	b.Log()
	return nil
}

// BreakerSink fails fast while the wrapped sink keeps failing, so a dead mail
// relay does not stall every forgot-password request.
type BreakerSink struct {
	next    MessageSink
	breaker *circuit.Breaker
}

func NewBreakerSink(next MessageSink, breaker *circuit.Breaker) *BreakerSink {
	return &BreakerSink{next: next, breaker: breaker}
}

func (s *BreakerSink) Send(ctx context.Context, msg Message) error {
	return s.breaker.Execute(func() error {
		return s.next.Send(ctx, msg)
	})
}
