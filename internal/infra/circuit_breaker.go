package infra

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ── Circuit Breaker ───────────────────────────────────────────────────────────
// Guards outbound notification delivery. After FailureThreshold consecutive
// errors the breaker opens and calls fail fast with ErrCircuitOpen; once
// OpenTimeout elapses a single trial call is let through at a time, and
// SuccessThreshold successful trials close it again.

type CBState int

const (
	CBClosed CBState = iota
	CBOpen
	CBHalfOpen
)

func (s CBState) String() string {
	switch s {
	case CBClosed:
		return "closed"
	case CBOpen:
		return "open"
	case CBHalfOpen:
		return "half-open"
	}
	return "unknown"
}

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitBreakerConfig struct {
	// Name tags the transition logs (e.g. "smtp").
	Name             string
	FailureThreshold int
	SuccessThreshold int
	OpenTimeout      time.Duration
}

// DefaultCBConfig: trip after 5 consecutive failures, retry after 60s.
func DefaultCBConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{FailureThreshold: 5, SuccessThreshold: 2, OpenTimeout: time.Minute}
}

type CircuitBreaker struct {
	cfg CircuitBreakerConfig
	now func() time.Time

	mu        sync.Mutex
	state     CBState
	fails     int
	trialsOK  int
	trialing  bool
	openUntil time.Time
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCBConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = def.SuccessThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

// State reports the current state; an open breaker whose timeout elapsed
// reads as half-open.
func (cb *CircuitBreaker) State() CBState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.refresh()
	return cb.state
}

// Execute runs fn unless the breaker is open or a half-open trial is
// already in flight.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.allow() {
		return ErrCircuitOpen
	}
	err := fn()
	cb.record(err)
	return err
}

// refresh must be called with mu held.
func (cb *CircuitBreaker) refresh() {
	if cb.state == CBOpen && !cb.now().Before(cb.openUntil) {
		cb.transition(CBHalfOpen)
	}
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.refresh()
	switch cb.state {
	case CBOpen:
		return false
	case CBHalfOpen:
		if cb.trialing {
			return false
		}
		cb.trialing = true
	}
	return true
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CBHalfOpen {
		cb.trialing = false
		if err != nil {
			cb.trip()
			return
		}
		cb.trialsOK++
		if cb.trialsOK >= cb.cfg.SuccessThreshold {
			cb.transition(CBClosed)
		}
		return
	}

	if err == nil {
		cb.fails = 0
		return
	}
	cb.fails++
	if cb.fails >= cb.cfg.FailureThreshold {
		cb.trip()
	}
}

func (cb *CircuitBreaker) trip() {
	cb.openUntil = cb.now().Add(cb.cfg.OpenTimeout)
	cb.transition(CBOpen)
}

func (cb *CircuitBreaker) transition(to CBState) {
	if cb.state == to {
		return
	}
	log.Warn().Str("breaker", cb.cfg.Name).
		Str("from", cb.state.String()).
		Str("to", to.String()).
		Msg("circuit breaker state change")
	cb.state = to
	cb.fails = 0
	cb.trialsOK = 0
	cb.trialing = false
}
