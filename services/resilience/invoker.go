package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/centralshop/storebackend/lib/mylog"
	"github.com/centralshop/storebackend/lib/mytime"
)

const (
	defaultRetries    = 3
	defaultRetryDelay = time.Second
)

type Options struct {
	// Retries is the total number of attempts, not the number of re-attempts.
	Retries    int
	RetryDelay time.Duration
	Breaker    BreakerConfig
}

func (o Options) withDefaults() Options {
	if o.Retries <= 0 {
		o.Retries = defaultRetries
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = defaultRetryDelay
	}
	return o
}

// Invoker wraps remote calls in bounded retry and a circuit breaker scoped per
// operation key. One breaker exists per distinct remote command, not per call.
type Invoker struct {
	nower  mytime.Nower
	logger mylog.Logger

	mutex    sync.Mutex
	breakers map[string]*CircuitBreaker
}

func NewInvoker(nower mytime.Nower) *Invoker {
	return &Invoker{
		nower:    nower,
		logger:   mylog.New("resilience"),
		breakers: map[string]*CircuitBreaker{},
	}
}

func (inv *Invoker) breakerFor(operationKey string, cfg BreakerConfig) *CircuitBreaker {
	inv.mutex.Lock()
	defer inv.mutex.Unlock()

	breaker, exists := inv.breakers[operationKey]
	if !exists {
		breaker = NewCircuitBreaker(cfg, inv.nower)
		inv.breakers[operationKey] = breaker
	}

	return breaker
}

// States reports the current breaker state per operation key.
func (inv *Invoker) States() map[string]BreakerSnapshot {
	inv.mutex.Lock()
	defer inv.mutex.Unlock()

	states := make(map[string]BreakerSnapshot, len(inv.breakers))
	for key, breaker := range inv.breakers {
		states[key] = breaker.Snapshot()
	}

	return states
}

// Do executes call with bounded retries behind the breaker keyed on
// operationKey. The whole retry sequence counts as a single breaker attempt.
// With a fallback supplied, Do never returns an error after exhaustion; the
// fallback's result is returned instead.
func Do[T any](c context.Context, inv *Invoker, operationKey string, call func(c context.Context) (T, error), opts Options, fallback func(c context.Context) (T, error)) (T, error) {
	opts = opts.withDefaults()

	breaker := inv.breakerFor(operationKey, opts.Breaker)

	return Execute(c, breaker, func(c context.Context) (T, error) {
		return retry(c, inv, operationKey, call, opts)
	}, fallback)
}

func retry[T any](c context.Context, inv *Invoker, operationKey string, call func(c context.Context) (T, error), opts Options) (T, error) {
	var lastErr error

	for attempt := 1; attempt <= opts.Retries; attempt++ {
		result, err := call(c)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt < opts.Retries {
			inv.logger.Log(c, operationKey, mylog.SeverityWarn, "Attempt %d/%d of %s failed: %s", attempt, opts.Retries, operationKey, err)

			select {
			case <-c.Done():
				var zero T
				return zero, c.Err()
			case <-time.After(opts.RetryDelay):
			}
		}
	}

	inv.logger.Log(c, operationKey, mylog.SeverityError, "Failed to execute %s after %d attempts: %s", operationKey, opts.Retries, lastErr)

	var zero T
	return zero, lastErr
}
