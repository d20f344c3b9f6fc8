package events

import (
	"sync"
	"time"
)

// CircuitBreaker keeps a broker outage from turning every status change
// into a blocked produce attempt. After threshold consecutive failures the
// circuit opens; once the cooldown elapses the next Allow half-opens it so
// a single probe produce can close it again.
type CircuitBreaker struct {
	mu        sync.Mutex
	threshold int
	cooldown  time.Duration

	streak   int
	open     bool
	openedAt time.Time
}

func NewCircuitBreaker(threshold int, cooldown time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = time.Minute
	}
	return &CircuitBreaker{threshold: threshold, cooldown: cooldown}
}

// Allow reports whether a produce attempt may proceed.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if !cb.open {
		return true
	}
	if time.Since(cb.openedAt) < cb.cooldown {
		return false
	}
	// Half-open: let the next attempt probe the broker.
	cb.open = false
	cb.streak = 0
	return true
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.streak = 0
	cb.open = false
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.streak++
	if cb.streak >= cb.threshold {
		cb.open = true
		cb.openedAt = time.Now()
	}
}

func (cb *CircuitBreaker) IsOpen() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.open
}
