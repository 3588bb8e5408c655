package probe

import (
	"context"
	"time"
)

// PollState is the outcome of waiting for a measurement to finish.
type PollState int

const (
	// StateRunning means the progress widget has not reported completion.
	StateRunning PollState = iota

	// StateComplete means the widget's counters matched.
	StateComplete

	// StateTimedOut means the ceiling or the context expired first.
	// Callers treat this as soft completion: whatever the page shows by
	// now is the result.
	StateTimedOut
)

// ProgressFunc reads the page's progress widget. ok is false while the
// widget is not in the page yet; current and total are its counters.
type ProgressFunc func() (current, total string, ok bool)

// AwaitCompletion polls read every interval until the counters match, the
// ceiling elapses or ctx is done. The counters are strings on the page and
// are compared as strings here; "10" and "010" never match.
func AwaitCompletion(ctx context.Context, read ProgressFunc, ceiling, interval time.Duration) PollState {
	deadline := time.NewTimer(ceiling)
	defer deadline.Stop()
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		if current, total, ok := read(); ok && current == total {
			return StateComplete
		}
		select {
		case <-ctx.Done():
			return StateTimedOut
		case <-deadline.C:
			return StateTimedOut
		case <-tick.C:
		}
	}
}
