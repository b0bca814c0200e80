package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels
const (
	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultLocked   = "locked"
	ResultRejected = "rejected"
)

// AuthMetrics counts session lifecycle outcomes. A nil *AuthMetrics is a no-op.
type AuthMetrics struct {
	Logins        *prometheus.CounterVec
	Lockouts      prometheus.Counter
	Refreshes     *prometheus.CounterVec
	Registrations *prometheus.CounterVec
	Resets        *prometheus.CounterVec
}

// NewAuthMetrics builds and registers the auth collectors. Collectors that are
// already registered are reused.
func NewAuthMetrics(reg prometheus.Registerer, namespace string) (*AuthMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "tracker"
	}

	logins, err := registerCounterVec(reg, prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "logins_total",
		Help:      "Login attempts partitioned by result.",
	}, "result")
	if err != nil {
		return nil, err
	}

	refreshes, err := registerCounterVec(reg, prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "token_refreshes_total",
		Help:      "Refresh token rotations partitioned by result.",
	}, "result")
	if err != nil {
		return nil, err
	}

	registrations, err := registerCounterVec(reg, prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "registrations_total",
		Help:      "Account registrations partitioned by result.",
	}, "result")
	if err != nil {
		return nil, err
	}

	resets, err := registerCounterVec(reg, prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "password_resets_total",
		Help:      "Password reset completions partitioned by result.",
	}, "result")
	if err != nil {
		return nil, err
	}

	lockouts, err := register(reg, "lockouts_total", prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "lockouts_total",
		Help:      "Accounts locked after repeated failed logins.",
	}))
	if err != nil {
		return nil, err
	}

	return &AuthMetrics{
		Logins:        logins,
		Lockouts:      lockouts,
		Refreshes:     refreshes,
		Registrations: registrations,
		Resets:        resets,
	}, nil
}

func registerCounterVec(reg prometheus.Registerer, opts prometheus.CounterOpts, labels ...string) (*prometheus.CounterVec, error) {
	return register(reg, opts.Name, prometheus.NewCounterVec(opts, labels))
}

func (m *AuthMetrics) Login(result string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(result).Inc()
}

// Lockout counts a newly imposed lockout
func (m *AuthMetrics) Lockout() {
	if m == nil {
		return
	}
	m.Lockouts.Inc()
}

func (m *AuthMetrics) Refresh(result string) {
	if m == nil {
		return
	}
	m.Refreshes.WithLabelValues(result).Inc()
}

func (m *AuthMetrics) Registration(result string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(result).Inc()
}

func (m *AuthMetrics) Reset(result string) {
	if m == nil {
		return
	}
	m.Resets.WithLabelValues(result).Inc()
}
