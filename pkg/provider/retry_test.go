package provider

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := newCircuitBreaker(2, 50*time.Millisecond)
	assert.True(t, cb.Allow())
	cb.Failure()
	assert.True(t, cb.Allow())
	cb.Failure()
	assert.False(t, cb.Allow(), "breaker should open once failureCount reaches threshold")
}

func TestCircuitBreakerHalfOpensAfterResetTimeout(t *testing.T) {
	cb := newCircuitBreaker(1, 10*time.Millisecond)
	cb.Failure()
	assert.False(t, cb.Allow())
	time.Sleep(20 * time.Millisecond)
	assert.True(t, cb.Allow(), "breaker should half-open after resetTimeout")
}

func TestCircuitBreakerClosesOnSuccess(t *testing.T) {
	cb := newCircuitBreaker(1, time.Hour)
	cb.Failure()
	cb.state = "HALF_OPEN"
	cb.Success()
	assert.Equal(t, "CLOSED", cb.state)
	assert.Equal(t, 0, cb.failureCount)
}

func TestBackoffWithJitterGrowsExponentially(t *testing.T) {
	d0 := backoffWithJitter(100*time.Millisecond, 0)
	d2 := backoffWithJitter(100*time.Millisecond, 2)
	assert.GreaterOrEqual(t, d2, d0)
}
