package circuitbreaker

import (
	"errors"
	"scripture-api-go/logcolors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// State represents the circuit breaker state
type State int

const (
	StateClosed   State = iota // Normal operation, requests allowed
	StateOpen                  // Circuit tripped, requests blocked
	StateHalfOpen              // One probe request in flight
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}

var (
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// CircuitBreaker guards an upstream dependency by failing fast after
// a run of consecutive failures.
type CircuitBreaker struct {
	name            string
	state           State
	failures        int
	threshold       int
	cooldown        time.Duration
	halfOpenTimeout time.Duration
	lastFailureTime time.Time
	halfOpenStart   time.Time
	onStateChange   func(name string, from, to State)
	mu              sync.RWMutex
}

// Config holds circuit breaker configuration
type Config struct {
	Name            string        // Name for logging
	Threshold       int           // Consecutive failures before opening
	Cooldown        time.Duration // How long to stay open before probing
	HalfOpenTimeout time.Duration // How long a probe may take before the circuit reopens

	// OnStateChange is called with the lock held; it must not call back into the breaker.
	OnStateChange func(name string, from, to State)
}

// Snapshot is a point-in-time view used by the health and admin endpoints.
type Snapshot struct {
	Name           string `json:"name"`
	State          string `json:"state"`
	Failures       int    `json:"failures"`
	Threshold      int    `json:"threshold"`
	TimeUntilRetry string `json:"time_until_retry"`
}

// New creates a new circuit breaker
func New(cfg Config) *CircuitBreaker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = time.Minute
	}
	if cfg.HalfOpenTimeout <= 0 {
		cfg.HalfOpenTimeout = 30 * time.Second
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}

	return &CircuitBreaker{
		name:            cfg.Name,
		state:           StateClosed,
		threshold:       cfg.Threshold,
		cooldown:        cfg.Cooldown,
		halfOpenTimeout: cfg.HalfOpenTimeout,
		onStateChange:   cfg.OnStateChange,
	}
}

// transition must be called with cb.mu held.
func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	if cb.onStateChange != nil {
		cb.onStateChange(cb.name, from, to)
	}
}

// Allow reports whether a request may proceed.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true

	case StateOpen:
		if time.Since(cb.lastFailureTime) >= cb.cooldown {
			cb.transition(StateHalfOpen)
			cb.halfOpenStart = time.Now()
			log.Infof("%s Cooldown passed, transitioning to HALF-OPEN", logcolors.CircuitBreakerPrefix(cb.name))
			return true
		}
		return false

	case StateHalfOpen:
		if time.Since(cb.halfOpenStart) >= cb.halfOpenTimeout {
			cb.transition(StateOpen)
			cb.lastFailureTime = time.Now()
			log.Warnf("%s Probe timed out, transitioning back to OPEN", logcolors.CircuitBreakerPrefix(cb.name))
		}
		// The probe is still in flight (or just timed out); block everyone else.
		return false

	default:
		return true
	}
}

// RecordSuccess records a successful request
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen {
		log.Infof("%s Probe succeeded, transitioning to CLOSED", logcolors.CircuitBreakerPrefix(cb.name))
	}
	cb.transition(StateClosed)
	cb.failures = 0
}

// RecordFailure records a failed request
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailureTime = time.Now()

	switch cb.state {
	case StateHalfOpen:
		cb.transition(StateOpen)
		log.Warnf("%s Probe failed, transitioning back to OPEN", logcolors.CircuitBreakerPrefix(cb.name))
	case StateClosed:
		if cb.failures >= cb.threshold {
			cb.transition(StateOpen)
			log.Warnf("%s Threshold reached (%d failures), transitioning to OPEN (cooldown: %v)",
				logcolors.CircuitBreakerPrefix(cb.name), cb.failures, cb.cooldown)
		}
	}
}

// ReleaseProbe gives back a HALF-OPEN probe that ended without an answer,
// e.g. because its caller went away. The circuit reopens with its cooldown
// already spent, so the next request probes again. No failure is counted.
func (cb *CircuitBreaker) ReleaseProbe() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateHalfOpen {
		return
	}
	cb.transition(StateOpen)
	cb.halfOpenStart = time.Time{}
	log.Debugf("%s Probe abandoned, next request probes again", logcolors.CircuitBreakerPrefix(cb.name))
}

// State returns the current state
func (cb *CircuitBreaker) State() State {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Failures returns the current consecutive failure count
func (cb *CircuitBreaker) Failures() int {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.failures
}

// Reset manually resets the circuit breaker to closed state
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transition(StateClosed)
	cb.failures = 0
	cb.lastFailureTime = time.Time{}
	cb.halfOpenStart = time.Time{}
	log.Infof("%s Manually reset to CLOSED", logcolors.CircuitBreakerPrefix(cb.name))
}

// TimeUntilRetry returns the remaining cooldown (OPEN) or probe window
// (HALF-OPEN). Zero when closed.
func (cb *CircuitBreaker) TimeUntilRetry() time.Duration {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.timeUntilRetryLocked()
}

func (cb *CircuitBreaker) timeUntilRetryLocked() time.Duration {
	var remaining time.Duration
	switch cb.state {
	case StateOpen:
		remaining = cb.cooldown - time.Since(cb.lastFailureTime)
	case StateHalfOpen:
		remaining = cb.halfOpenTimeout - time.Since(cb.halfOpenStart)
	}
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Snapshot returns the breaker's current state for reporting.
func (cb *CircuitBreaker) Snapshot() Snapshot {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return Snapshot{
		Name:           cb.name,
		State:          cb.state.String(),
		Failures:       cb.failures,
		Threshold:      cb.threshold,
		TimeUntilRetry: cb.timeUntilRetryLocked().String(),
	}
}
