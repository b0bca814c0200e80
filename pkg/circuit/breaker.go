package circuit

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State represents circuit breaker state
type State int

const (
	StateClosed   State = iota // Calls pass through
	StateOpen                  // Calls fail fast
	StateHalfOpen              // One probe call at a time
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

var (
	ErrCircuitOpen  = errors.New("circuit breaker is open")
	ErrProbeRunning = errors.New("circuit breaker probe in progress")
)

// Config defines circuit breaker configuration
type Config struct {
	Threshold   int           // Consecutive failures before opening
	OpenTimeout time.Duration // Time spent open before a probe is let through
}

// DefaultConfig returns sensible defaults for an outbound delivery channel
func DefaultConfig() Config {
	return Config{
		Threshold:   5,
		OpenTimeout: 30 * time.Second,
	}
}

// Breaker stops calling a failing dependency until it has had time to recover
type Breaker struct {
	mu       sync.Mutex
	name     string
	state    State
	failures int
	openedAt time.Time
	probing  bool
	config   Config
	logger   *zap.Logger
	now      func() time.Time
}

func NewBreaker(name string, config Config, logger *zap.Logger) *Breaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Threshold <= 0 {
		config.Threshold = DefaultConfig().Threshold
	}
	if config.OpenTimeout <= 0 {
		config.OpenTimeout = DefaultConfig().OpenTimeout
	}

	return &Breaker{
		name:   name,
		state:  StateClosed,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// Execute runs fn unless the circuit is open and records its outcome
func (b *Breaker) Execute(fn func() error) error {
	if err := b.allow(); err != nil {
		return err
	}

	err := fn()
	b.record(err)
	return err
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.config.OpenTimeout {
			return ErrCircuitOpen
		}
		b.transitionTo(StateHalfOpen)
		b.probing = true
		return nil
	case StateHalfOpen:
		if b.probing {
			return ErrProbeRunning
		}
		b.probing = true
		return nil
	default:
		return nil
	}
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false

	if err == nil {
		b.failures = 0
		if b.state != StateClosed {
			b.transitionTo(StateClosed)
		}
		return
	}

	b.failures++
	// A failed probe reopens immediately
	if b.state == StateHalfOpen || b.failures >= b.config.Threshold {
		b.openedAt = b.now()
		if b.state != StateOpen {
			b.transitionTo(StateOpen)
		}
	}
}

// transitionTo changes state (must hold lock)
func (b *Breaker) transitionTo(newState State) {
	oldState := b.state
	b.state = newState

	b.logger.Info("Circuit breaker state changed",
		zap.String("name", b.name),
		zap.String("from", oldState.String()),
		zap.String("to", newState.String()),
		zap.Int("failures", b.failures),
	)
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
