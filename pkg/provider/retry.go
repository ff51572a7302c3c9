package provider

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"net/http"
	"sync"
	"time"
)

// resilientClient wraps http.Client with exponential backoff + jitter and
// a circuit breaker, grounded directly on the teacher's
// pkg/util/resiliency/client.go EnhancedClient/CircuitBreaker, adapted to
// consume max_attempts/timeout_seconds per provider (spec.md §9: the
// source configures max_attempts but never consumes it; this does).
type resilientClient struct {
	httpClient  *http.Client
	maxAttempts int
	baseDelay   time.Duration
	breaker     *circuitBreaker
}

func newResilientClient(timeout time.Duration, maxAttempts int, baseDelay time.Duration, breaker *circuitBreaker) *resilientClient {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &resilientClient{
		httpClient:  &http.Client{Timeout: timeout},
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		breaker:     breaker,
	}
}

// do executes req with up to maxAttempts tries, exponential backoff
// between tries, and a shared circuit breaker. A context deadline
// exceeded / timeout is classified the same way MDSClientBase._request
// does: status -1, synthetic timeout message.
func (c *resilientClient) do(ctx context.Context, req *http.Request) requestOutcome {
	if !c.breaker.Allow() {
		return requestOutcome{StatusCode: -1, Payload: map[string]interface{}{}, Message: "circuit breaker open"}
	}

	var lastOutcome requestOutcome
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		outcome := c.attempt(req)
		if outcome.ok() {
			c.breaker.Success()
			return outcome
		}
		lastOutcome = outcome

		if attempt == c.maxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			c.breaker.Failure()
			return requestOutcome{StatusCode: -1, Payload: map[string]interface{}{}, Message: ctx.Err().Error()}
		case <-time.After(backoffWithJitter(c.baseDelay, attempt)):
		}
	}

	c.breaker.Failure()
	return lastOutcome
}

func (c *resilientClient) attempt(req *http.Request) requestOutcome {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return requestOutcome{
			StatusCode: -1,
			Payload:    map[string]interface{}{},
			Message:    fmt.Sprintf("timeout or transport error: %v", err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := decodeJSONBody(resp)
	if resp.StatusCode != 200 {
		return requestOutcome{
			StatusCode: resp.StatusCode,
			Payload:    map[string]interface{}{},
			Message:    fmt.Sprintf("error: status %d", resp.StatusCode),
		}
	}
	if err != nil {
		return requestOutcome{
			StatusCode: -1,
			Payload:    map[string]interface{}{},
			Message:    fmt.Sprintf("decode error: %v", err),
		}
	}
	return requestOutcome{StatusCode: 200, Payload: payload, Message: "success"}
}

// backoffWithJitter computes base * 2^attempt plus up to 50ms of jitter,
// matching the teacher's EnhancedClient.Do backoff formula exactly.
func backoffWithJitter(base time.Duration, attempt int) time.Duration {
	backoff := time.Duration(math.Pow(2, float64(attempt))) * base
	jitter := time.Duration(0)
	if n, err := rand.Int(rand.Reader, big.NewInt(50)); err == nil {
		jitter = time.Duration(n.Int64()) * time.Millisecond
	}
	return backoff + jitter
}

// circuitBreaker is the teacher's CircuitBreaker, renamed to stay
// unexported within this package (one breaker per ProviderClient
// instance, not a shared global).
type circuitBreaker struct {
	mu           sync.Mutex
	failureCount int
	threshold    int
	lastFailure  time.Time
	resetTimeout time.Duration
	state        string
}

func newCircuitBreaker(threshold int, resetTimeout time.Duration) *circuitBreaker {
	return &circuitBreaker{threshold: threshold, resetTimeout: resetTimeout, state: "CLOSED"}
}

func (cb *circuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == "OPEN" {
		if time.Since(cb.lastFailure) > cb.resetTimeout {
			cb.state = "HALF_OPEN"
			return true
		}
		return false
	}
	return true
}

func (cb *circuitBreaker) Success() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = "CLOSED"
	cb.failureCount = 0
}

func (cb *circuitBreaker) Failure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failureCount++
	cb.lastFailure = time.Now()
	if cb.failureCount >= cb.threshold {
		cb.state = "OPEN"
	}
}
