package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Payphone-Digital/tracker/internal/model"
	"github.com/Payphone-Digital/tracker/pkg/circuit"
	"go.uber.org/zap"
)

type memorySink struct {
	messages []Message
}

func (s *memorySink) Send(_ context.Context, msg Message) error {
	s.messages = append(s.messages, msg)
	return nil
}

func TestTemplateNotifier_DefaultTemplates(t *testing.T) {
	sink := &memorySink{}
	n, err := NewTemplateNotifier(sink, time.Hour, "", "")
	if err != nil {
		t.Fatalf("NewTemplateNotifier returned error: %v", err)
	}
	n.now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }

	user := &model.User{Email: "Alice@Example.com", FirstName: "alice"}
	if err := n.NotifyPasswordReset(context.Background(), user, "tok-123"); err != nil {
		t.Fatalf("NotifyPasswordReset returned error: %v", err)
	}

	if len(sink.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(sink.messages))
	}
	msg := sink.messages[0]
	if msg.Subject != "Password reset for alice@example.com" {
		t.Errorf("unexpected subject %q", msg.Subject)
	}
	for _, want := range []string{"Hello Alice", "tok-123", "2024-03-01 11:00 UTC"} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("body missing %q:\n%s", want, msg.Body)
		}
	}
}

func TestTemplateNotifier_InvalidTemplate(t *testing.T) {
	if _, err := NewTemplateNotifier(&memorySink{}, time.Hour, "{{ .Email", ""); err == nil {
		t.Error("expected parse error")
	}
}

type failingSink struct {
	calls int
}

func (s *failingSink) Send(context.Context, Message) error {
	s.calls++
	return errors.New("relay unavailable")
}

func TestBreakerSink_FailsFast(t *testing.T) {
	next := &failingSink{}
	sink := NewBreakerSink(next, circuit.NewBreaker("reset-delivery", circuit.Config{Threshold: 2, OpenTimeout: time.Hour}, zap.NewNop()))

	for i := 0; i < 4; i++ {
		if err := sink.Send(context.Background(), Message{To: "a@example.com"}); err == nil {
			t.Fatalf("send %d: expected error", i+1)
		}
	}

	if next.calls != 2 {
		t.Errorf("expected the relay to be called twice before the breaker opened, got %d", next.calls)
	}
}
