package resilience

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestInvokerRetriesThenFallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := context.TODO()
	nower, _ := tickingNower(ctrl)
	inv := NewInvoker(nower)

	attempts := 0
	got, err := Do(c, inv, "fetch_products",
		func(c context.Context) ([]string, error) {
			attempts++
			return nil, fmt.Errorf("timeout")
		},
		Options{RetryDelay: time.Millisecond},
		func(c context.Context) ([]string, error) {
			return []string{"cached-product"}, nil
		})

	assert.NoError(t, err)
	assert.Equal(t, []string{"cached-product"}, got)
	assert.Equal(t, 3, attempts)
}

func TestInvokerSucceedsMidRetry(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := context.TODO()
	nower, _ := tickingNower(ctrl)
	inv := NewInvoker(nower)

	attempts := 0
	got, err := Do(c, inv, "fetch_categories",
		func(c context.Context) (string, error) {
			attempts++
			if attempts < 2 {
				return "", fmt.Errorf("timeout")
			}
			return "live", nil
		},
		Options{RetryDelay: time.Millisecond}, nil)

	assert.NoError(t, err)
	assert.Equal(t, "live", got)
	assert.Equal(t, 2, attempts)
}

func TestInvokerErrorWithoutFallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := context.TODO()
	nower, _ := tickingNower(ctrl)
	inv := NewInvoker(nower)

	_, err := Do(c, inv, "register_payment",
		func(c context.Context) (string, error) {
			return "", fmt.Errorf("payment provider unreachable")
		},
		Options{Retries: 2, RetryDelay: time.Millisecond}, nil)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "payment provider unreachable")
}

func TestInvokerRetrySequenceIsOneBreakerAttempt(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := context.TODO()
	nower, _ := tickingNower(ctrl)
	inv := NewInvoker(nower)

	opts := Options{
		Retries:    2,
		RetryDelay: time.Millisecond,
		Breaker:    BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Minute},
	}

	attempts := 0
	failing := func(c context.Context) (string, error) {
		attempts++
		return "", fmt.Errorf("down")
	}

	// two exhausted retry sequences trip the breaker, not the four underlying attempts
	for i := 0; i < 2; i++ {
		_, err := Do(c, inv, "fetch_home", failing, opts, nil)
		assert.Error(t, err)
		assert.False(t, IsCircuitOpen(err))
	}
	assert.Equal(t, 4, attempts)
	assert.Equal(t, StateOpen, inv.States()["fetch_home"].State)

	// open breaker short-circuits before any retry happens
	_, err := Do(c, inv, "fetch_home", failing, opts, nil)
	assert.True(t, IsCircuitOpen(err))
	assert.Equal(t, 4, attempts)
}

func TestInvokerBreakersAreIndependentPerKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := context.TODO()
	nower, _ := tickingNower(ctrl)
	inv := NewInvoker(nower)

	opts := Options{
		Retries:    1,
		RetryDelay: time.Millisecond,
		Breaker:    BreakerConfig{FailureThreshold: 1, ResetTimeout: time.Minute},
	}

	_, err := Do(c, inv, "fetch_products", func(c context.Context) (string, error) {
		return "", fmt.Errorf("down")
	}, opts, nil)
	assert.Error(t, err)
	assert.Equal(t, StateOpen, inv.States()["fetch_products"].State)

	// a tripped product breaker does not affect the category one
	got, err := Do(c, inv, "fetch_categories", func(c context.Context) (string, error) {
		return "live", nil
	}, opts, nil)
	assert.NoError(t, err)
	assert.Equal(t, "live", got)
	assert.Equal(t, StateClosed, inv.States()["fetch_categories"].State)
}

func TestInvokerHonoursCancelledContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	nower, _ := tickingNower(ctrl)
	inv := NewInvoker(nower)

	c, cancel := context.WithCancel(context.TODO())

	attempts := 0
	_, err := Do(c, inv, "fetch_banners",
		func(c context.Context) (string, error) {
			attempts++
			cancel()
			return "", fmt.Errorf("down")
		},
		Options{RetryDelay: time.Hour}, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}
