package scheduler

import (
	"time"

	"github.com/sony/gobreaker"

	"github.com/orcd/orcd/internal/executor"
)

// NewBreaker wraps executor dispatch in a gobreaker circuit breaker
// configured to trip after threshold consecutive Failed outcomes —
// never Blocked or Cancelled, which are not failures per the
// Executor's failure semantics. Gives the scheduler an independent,
// reusable trip/reset state machine instead of hand-rolled threshold
// bookkeeping for the breaker gauge.
func NewBreaker(threshold int, onStateChange func(from, to gobreaker.State)) *gobreaker.CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        "orcd-phase-executor",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(threshold)
		},
	}
	if onStateChange != nil {
		settings.OnStateChange = func(name string, from gobreaker.State, to gobreaker.State) {
			onStateChange(from, to)
		}
	}
	return gobreaker.NewCircuitBreaker(settings)
}

// RecordResult feeds an executor outcome to the breaker so its state
// reflects consecutive failures without routing the actual phase
// invocation through Execute (the executor call already races its own
// cancellation and timeout; the breaker here is bookkeeping, not a
// call gate). Failed and TimedOut both count against the breaker —
// spec.md's "timeout / agent error: reported as Failed; scheduler
// increments the circuit-breaker counter" draws no distinction
// between the two outcomes.
func RecordResult(cb *gobreaker.CircuitBreaker, res *executor.PhaseExecutionResult) {
	_, _ = cb.Execute(func() (interface{}, error) {
		if res.Outcome == executor.OutcomeFailed || res.Outcome == executor.OutcomeTimedOut {
			return nil, errExecutorFailed
		}
		return nil, nil
	})
}

var errExecutorFailed = executor.ErrPhaseFailed

// BreakerStateGauge maps gobreaker's state to the orcd_circuit_breaker_state
// metric convention: 0=closed, 1=half-open, 2=open.
func BreakerStateGauge(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
