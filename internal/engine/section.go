package engine

import (
	"context"
	"time"
)

// FetchFunc loads the data for one section. It runs on a goroutine owned
// by the engine and must honor ctx cancellation. Returning an error marks
// the section Failed; the error is stored, not propagated.
type FetchFunc func(ctx context.Context) (any, error)

// section is the engine-internal record for one registered section.
// All fields are guarded by Engine.mu.
type section struct {
	id    string
	fetch FetchFunc

	status Status
	result any
	err    error

	// generation increments on every Trigger and Reset. A completing
	// fetch only lands if its generation still matches, which is how
	// completions made stale by a Reset get discarded.
	generation uint64

	// attempts counts fetch launches over the section's lifetime.
	attempts uint64

	startedAt   time.Time
	completedAt time.Time
}

// snapshot copies the section's observable state. Caller holds Engine.mu.
func (s *section) snapshot() Section {
	return Section{
		ID:          s.id,
		Status:      s.status,
		Err:         s.err,
		Generation:  s.generation,
		Attempts:    s.attempts,
		StartedAt:   s.startedAt,
		CompletedAt: s.completedAt,
	}
}

// Section is a point-in-time snapshot of one section's state as returned
// by Engine.Section and Engine.Snapshot. Fetched data is intentionally
// not included; read it with Engine.Result or ResultAs.
type Section struct {
	ID     string
	Status Status

	// Err is the most recent fetch error. It is cleared by a later
	// successful fetch or by Reset, so it can still be set while a
	// retry is in flight.
	Err error

	// Generation is the section's current fetch epoch.
	Generation uint64

	// Attempts is the number of fetches launched so far.
	Attempts uint64

	// StartedAt is when the latest fetch was triggered. Zero until the
	// first trigger.
	StartedAt time.Time

	// CompletedAt is when the latest fetch finished. Zero until the
	// first completion and after a Reset.
	CompletedAt time.Time
}

// Duration returns how long the latest completed fetch took, or zero
// when no fetch has completed.
func (s Section) Duration() time.Duration {
	if s.StartedAt.IsZero() || s.CompletedAt.IsZero() {
		return 0
	}
	return s.CompletedAt.Sub(s.StartedAt)
}

// Stale reports whether the section's data is older than maxAge.
// Sections that never completed count as stale.
func (s Section) Stale(maxAge time.Duration) bool {
	if s.CompletedAt.IsZero() {
		return true
	}
	return time.Since(s.CompletedAt) >= maxAge
}
