package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/centralshop/storebackend/lib/mytime"
)

// ErrCircuitOpen is returned when the breaker deliberately withheld the call.
// It is distinct from the error of a call that was attempted and failed.
var ErrCircuitOpen = errors.New("circuit breaker is open")

func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
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

type BreakerConfig struct {
	FailureThreshold int
	ResetTimeout     time.Duration
	ProbeSuccesses   int
}

const (
	defaultFailureThreshold = 5
	defaultResetTimeout     = 60 * time.Second
	defaultProbeSuccesses   = 3
)

func (cfg BreakerConfig) withDefaults() BreakerConfig {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = defaultFailureThreshold
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = defaultResetTimeout
	}
	if cfg.ProbeSuccesses <= 0 {
		cfg.ProbeSuccesses = defaultProbeSuccesses
	}
	return cfg
}

// CircuitBreaker guards a single remote operation. It is safe for concurrent
// use; at most one probe is live while the breaker is HALF_OPEN.
type CircuitBreaker struct {
	config BreakerConfig
	nower  mytime.Nower

	mutex          sync.Mutex
	state          State
	failureCount   int
	probeSuccesses int
	probeInFlight  bool
	lastFailure    time.Time
}

func NewCircuitBreaker(cfg BreakerConfig, nower mytime.Nower) *CircuitBreaker {
	return &CircuitBreaker{
		config: cfg.withDefaults(),
		nower:  nower,
		state:  StateClosed,
	}
}

type BreakerSnapshot struct {
	State          State
	FailureCount   int
	ProbeSuccesses int
	LastFailure    time.Time
}

func (b *CircuitBreaker) Snapshot() BreakerSnapshot {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return BreakerSnapshot{
		State:          b.state,
		FailureCount:   b.failureCount,
		ProbeSuccesses: b.probeSuccesses,
		LastFailure:    b.lastFailure,
	}
}

// Execute runs op through breaker b. When the breaker withholds the call or op
// fails, fallback (if non-nil) produces the result instead.
func Execute[T any](c context.Context, b *CircuitBreaker, op func(c context.Context) (T, error), fallback func(c context.Context) (T, error)) (T, error) {
	err := b.allow()
	if err != nil {
		if fallback != nil {
			return fallback(c)
		}
		var zero T
		return zero, err
	}

	result, err := op(c)
	if err != nil {
		b.onFailure()
		if fallback != nil {
			return fallback(c)
		}
		var zero T
		return zero, err
	}

	b.onSuccess()

	return result, nil
}

func (b *CircuitBreaker) allow() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if b.nower.Now().Sub(b.lastFailure) < b.config.ResetTimeout {
			return ErrCircuitOpen
		}
		// reset timeout elapsed: allow exactly one probe through
		b.state = StateHalfOpen
		b.probeSuccesses = 0
		b.probeInFlight = true
		return nil
	case StateHalfOpen:
		if b.probeInFlight {
			return ErrCircuitOpen
		}
		b.probeInFlight = true
		return nil
	}

	return nil
}

func (b *CircuitBreaker) onSuccess() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.failureCount = 0

	if b.state == StateHalfOpen {
		b.probeInFlight = false
		b.probeSuccesses++
		if b.probeSuccesses >= b.config.ProbeSuccesses {
			b.state = StateClosed
		}
	}
}

func (b *CircuitBreaker) onFailure() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.failureCount++
	b.lastFailure = b.nower.Now()

	if b.state == StateHalfOpen {
		// a failed probe reopens immediately
		b.probeInFlight = false
		b.state = StateOpen
		return
	}

	if b.failureCount >= b.config.FailureThreshold {
		b.state = StateOpen
	}
}
