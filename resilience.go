package winrm

import (
	"context"
	"errors"
	"io"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/cwb124/go-winrm/wsman"
	"github.com/cwb124/go-winrm/wsman/transport"
)

// RetryPolicy configures retry behavior for transient transport failures
// around Session.send. It does not apply to SOAP faults (a fault
// is a well-formed answer from the server, not a transient failure) or to
// caller cancellation.
type RetryPolicy struct {
	// Enabled activates retry.
	Enabled bool
	// MaxAttempts is the maximum number of attempts including the first.
	MaxAttempts int
	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration
	// MaxDelay caps the exponential backoff.
	MaxDelay time.Duration
	// Multiplier is the backoff multiplier (default 2.0).
	Multiplier float64
	// Jitter adds +/- randomness to the computed delay, as a fraction
	// (0.0-1.0), to avoid a thundering herd of reconnecting clients.
	Jitter float64
}

// DefaultRetryPolicy returns a conservative default retry policy.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		Enabled:      true,
		MaxAttempts:  3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
}

// isRetryableError reports whether err is a transient transport failure
// worth retrying, as opposed to a permanent one (bad credentials, caller
// cancellation, a SOAP fault).
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, transport.ErrUnauthorized) {
		return false
	}
	if wsman.IsFault(err) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "i/o timeout") ||
		strings.Contains(errStr, "network is unreachable") ||
		strings.Contains(errStr, "no route to host") ||
		strings.Contains(errStr, "broken pipe")
}

// calculateRetryBackoff computes exponential backoff with jitter, capped
// at policy.MaxDelay.
func calculateRetryBackoff(attempt int, policy *RetryPolicy) time.Duration {
	if policy == nil {
		return time.Second
	}

	delay := policy.InitialDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	multiplier := policy.Multiplier
	if multiplier < 1.0 {
		multiplier = 2.0
	}

	backoffFloat := float64(delay)
	if attempt > 1 {
		backoffFloat *= math.Pow(multiplier, float64(attempt-1))
	}

	maxDelay := policy.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 5 * time.Second
	}
	if backoffFloat > float64(maxDelay) || backoffFloat > float64(math.MaxInt64) {
		backoffFloat = float64(maxDelay)
	}

	if policy.Jitter > 0 {
		jitterRange := backoffFloat * policy.Jitter
		backoffFloat += (rand.Float64()*2 - 1) * jitterRange
		if backoffFloat < 0 {
			backoffFloat = 0
		}
	}

	return time.Duration(backoffFloat)
}

// CircuitState represents the state of a CircuitBreaker.
type CircuitState int

const (
	// StateClosed means requests pass through normally.
	StateClosed CircuitState = iota
	// StateOpen means requests fail fast without reaching the transport.
	StateOpen
	// StateHalfOpen means the reset timeout has elapsed and the next
	// request goes through as a probe; requests arriving while it is in
	// flight are not held back.
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "Closed"
	case StateOpen:
		return "Open"
	case StateHalfOpen:
		return "Half-Open"
	default:
		return "Unknown"
	}
}

// ErrCircuitOpen is returned when the circuit breaker is open.
var ErrCircuitOpen = errors.New("winrm: circuit breaker is open")

// CircuitBreakerPolicy configures a CircuitBreaker.
type CircuitBreakerPolicy struct {
	// Enabled activates the breaker; if false, Execute always calls fn.
	Enabled bool
	// FailureThreshold is the number of consecutive failures before
	// opening the breaker. DefaultCircuitBreakerPolicy uses 5.
	FailureThreshold int
	// ResetTimeout is how long to wait before probing again.
	// DefaultCircuitBreakerPolicy uses 30s.
	ResetTimeout time.Duration
	// OnStateChange, if set, is invoked asynchronously on every
	// transition.
	OnStateChange func(from, to CircuitState)
}

// DefaultCircuitBreakerPolicy returns sensible defaults: enabled, 5
// consecutive failures, 30 second reset window.
func DefaultCircuitBreakerPolicy() *CircuitBreakerPolicy {
	return &CircuitBreakerPolicy{
		Enabled:          true,
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
	}
}

// CircuitBreaker fails fast around Session.send once a WinRM endpoint has
// shown a run of consecutive failed operations (every error fn returns
// counts, SOAP faults included), rather than hammering a downed listener
// with full retry budgets on every call.
type CircuitBreaker struct {
	mu sync.Mutex

	state       CircuitState
	failures    int
	lastFailure time.Time

	threshold int
	timeout   time.Duration
	enabled   bool

	onStateChange func(from, to CircuitState)
}

// NewCircuitBreaker creates a circuit breaker from policy. A nil policy
// disables the breaker (Execute always calls fn).
func NewCircuitBreaker(policy *CircuitBreakerPolicy) *CircuitBreaker {
	if policy == nil {
		return &CircuitBreaker{enabled: false}
	}
	return &CircuitBreaker{
		state:         StateClosed,
		threshold:     policy.FailureThreshold,
		timeout:       policy.ResetTimeout,
		enabled:       policy.Enabled,
		onStateChange: policy.OnStateChange,
	}
}

// Execute runs fn under the breaker's state machine.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.enabled {
		return fn()
	}
	if err := cb.checkState(); err != nil {
		return err
	}
	err := fn()
	cb.updateState(err)
	return err
}

func (cb *CircuitBreaker) checkState() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		if time.Since(cb.lastFailure) > cb.timeout {
			cb.transitionLocked(StateHalfOpen)
			return nil
		}
		return ErrCircuitOpen
	}
	return nil
}

func (cb *CircuitBreaker) transitionLocked(newState CircuitState) {
	if cb.state == newState {
		return
	}
	oldState := cb.state
	cb.state = newState
	if cb.onStateChange != nil {
		go cb.onStateChange(oldState, newState)
	}
}

func (cb *CircuitBreaker) updateState(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		if cb.state == StateHalfOpen {
			cb.transitionLocked(StateClosed)
		}
		cb.failures = 0
		return
	}
	if errors.Is(err, ErrCircuitOpen) {
		return
	}

	cb.failures++
	cb.lastFailure = time.Now()

	if cb.state == StateHalfOpen {
		cb.transitionLocked(StateOpen)
		return
	}
	if cb.state == StateClosed && cb.failures >= cb.threshold {
		cb.transitionLocked(StateOpen)
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
