package infra

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errSMTP = errors.New("dial tcp: connection refused")

func TestCircuitBreakerAbreTrasFallos(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3, OpenTimeout: time.Hour})

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(func() error { return errSMTP }), errSMTP)
	}
	assert.Equal(t, CBOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreakerSondeoCierra(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, SuccessThreshold: 2, OpenTimeout: 10 * time.Millisecond})

	_ = cb.Execute(func() error { return errSMTP })
	assert.Equal(t, CBOpen, cb.State())

	time.Sleep(15 * time.Millisecond)
	assert.Equal(t, CBHalfOpen, cb.State())
	assert.Equal(t, "half-open", cb.State().String())

	assert.NoError(t, cb.Execute(func() error { return nil }))
	assert.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, CBClosed, cb.State())
}

func TestCircuitBreakerSondeoFallidoReabre(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, OpenTimeout: 10 * time.Millisecond})

	_ = cb.Execute(func() error { return errSMTP })
	time.Sleep(15 * time.Millisecond)
	_ = cb.Execute(func() error { return errSMTP })
	assert.Equal(t, CBOpen, cb.State())
}

func TestCircuitBreakerUnSondeoALaVez(t *testing.T) {
	now := time.Now()
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "smtp", FailureThreshold: 1, OpenTimeout: time.Minute})
	cb.now = func() time.Time { return now }

	_ = cb.Execute(func() error { return errSMTP })
	now = now.Add(time.Minute)
	assert.Equal(t, CBHalfOpen, cb.State())

	err := cb.Execute(func() error {
		// a second caller while the trial is in flight is rejected
		assert.ErrorIs(t, cb.Execute(func() error { return nil }), ErrCircuitOpen)
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, CBHalfOpen, cb.State(), "one success of two needed")
}
