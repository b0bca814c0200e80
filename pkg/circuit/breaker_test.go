package circuit

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

var errDelivery = errors.New("smtp: connection refused")

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestBreaker(threshold int) (*Breaker, *clock) {
	c := &clock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	b := NewBreaker("reset-delivery", Config{Threshold: threshold, OpenTimeout: time.Minute}, zap.NewNop())
	b.now = c.now
	return b, c
}

func fail() error    { return errDelivery }
func succeed() error { return nil }

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b, _ := newTestBreaker(3)

	for i := 0; i < 3; i++ {
		if err := b.Execute(fail); !errors.Is(err, errDelivery) {
			t.Fatalf("call %d: expected delivery error, got %v", i+1, err)
		}
	}
	if b.State() != StateOpen {
		t.Fatalf("expected OPEN, got %s", b.State())
	}

	called := false
	err := b.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) || called {
		t.Fatalf("open breaker must fail fast, got %v called=%v", err, called)
	}
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b, _ := newTestBreaker(3)

	_ = b.Execute(fail)
	_ = b.Execute(fail)
	_ = b.Execute(succeed)
	_ = b.Execute(fail)
	_ = b.Execute(fail)

	if b.State() != StateClosed {
		t.Fatalf("failures are consecutive, expected CLOSED, got %s", b.State())
	}
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	tests := []struct {
		name      string
		probe     func() error
		wantState State
	}{
		{name: "probe succeeds", probe: succeed, wantState: StateClosed},
		{name: "probe fails", probe: fail, wantState: StateOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, c := newTestBreaker(1)
			_ = b.Execute(fail)

			c.t = c.t.Add(time.Minute)
			_ = b.Execute(tt.probe)

			if b.State() != tt.wantState {
				t.Fatalf("expected %s, got %s", tt.wantState, b.State())
			}
			if tt.wantState == StateOpen {
				if err := b.Execute(succeed); !errors.Is(err, ErrCircuitOpen) {
					t.Errorf("failed probe must restart the open window, got %v", err)
				}
			}
		})
	}
}

func TestBreaker_SingleProbe(t *testing.T) {
	b, c := newTestBreaker(1)
	_ = b.Execute(fail)
	c.t = c.t.Add(time.Minute)

	err := b.Execute(func() error {
		if err := b.Execute(succeed); !errors.Is(err, ErrProbeRunning) {
			t.Errorf("expected concurrent probe to be refused, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("probe returned error: %v", err)
	}
	if b.State() != StateClosed {
		t.Fatalf("expected CLOSED, got %s", b.State())
	}
}
