package model

import "time"

// RunState is the Scheduler run-loop's accumulated, non-persisted
// iteration counters, threaded through each select_actions call. The
// run-loop starts each process with an empty RunState, so
// items_completed/items_blocked hold only that run's outcomes.
type RunState struct {
	Iterations           int
	ItemsCompleted        map[string]bool
	ItemsBlocked          map[string]bool
	ConsecutiveFailures   int
	StartedAt             time.Time
}

// NewRunState returns a zeroed RunState seeded from the given items'
// statuses; a nil slice yields empty sets.
func NewRunState(items []Item, now time.Time) *RunState {
	rs := &RunState{
		ItemsCompleted: make(map[string]bool),
		ItemsBlocked:   make(map[string]bool),
		StartedAt:      now,
	}
	for _, it := range items {
		switch it.Status {
		case StatusDone:
			rs.ItemsCompleted[it.ID] = true
		case StatusBlocked:
			rs.ItemsBlocked[it.ID] = true
		}
	}
	return rs
}

// AnyProgress reports whether any item has completed or been blocked,
// used by the NoMatchingItems halt condition.
func (rs *RunState) AnyProgress() bool {
	return len(rs.ItemsCompleted) > 0 || len(rs.ItemsBlocked) > 0
}

// RecordCompleted marks an item completed and resets the consecutive
// failure counter (a success interrupts a failure streak).
func (rs *RunState) RecordCompleted(id string) {
	rs.ItemsCompleted[id] = true
	rs.ConsecutiveFailures = 0
}

// RecordBlocked marks an item blocked. Blocked results are not
// failures (spec.md §4.4) and do not touch the failure counter.
func (rs *RunState) RecordBlocked(id string) {
	rs.ItemsBlocked[id] = true
}

// RecordFailure increments the consecutive-failure counter. The
// circuit breaker itself tracks its own trip state independently
// (see scheduler.RecordResult/CheckHaltCondition); this counter is
// informational run-state only.
func (rs *RunState) RecordFailure() {
	rs.ConsecutiveFailures++
}
