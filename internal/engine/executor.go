package engine

import (
	"context"
	"fmt"
	"time"
)

// Trigger starts the section's fetch on its own goroutine and returns
// immediately. If the section is already Loading the call is a no-op, so
// concurrent triggers cannot start duplicate fetches. From any other
// state the section moves to Loading and a new fetch begins.
//
// The fetch outcome is recorded asynchronously: success stores the
// result and clears any previous error, failure stores the error and
// clears any previous result. Fetch failures never surface here; only
// structural misuse (unknown id, closed engine) does.
func (e *Engine) Trigger(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}
	sec, ok := e.sections[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSection, id)
	}
	e.triggerLocked(ctx, sec)
	return nil
}

// TriggerAll starts fetches for the given sections concurrently, or for
// every defined section when no ids are given. No ordering is guaranteed
// between completions. If any id is unknown the call fails without
// starting anything; individual fetch failures never fail the call.
func (e *Engine) TriggerAll(ctx context.Context, ids ...string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}
	secs, err := e.resolveLocked(ids)
	if err != nil {
		return err
	}
	for _, sec := range secs {
		e.triggerLocked(ctx, sec)
	}
	return nil
}

// TriggerStale retriggers sections whose data is missing or outdated:
// Idle and Failed sections always start, Loaded sections start only when
// their data is older than maxAge, and Loading sections are left alone.
// It returns the ids actually started. Empty ids means every defined
// section.
func (e *Engine) TriggerStale(ctx context.Context, maxAge time.Duration, ids ...string) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrEngineClosed
	}
	secs, err := e.resolveLocked(ids)
	if err != nil {
		return nil, err
	}

	var started []string
	for _, sec := range secs {
		if sec.status == StatusLoaded && time.Since(sec.completedAt) < maxAge {
			continue
		}
		if e.triggerLocked(ctx, sec) {
			started = append(started, sec.id)
		}
	}
	return started, nil
}

// triggerLocked moves a section to Loading and launches its fetch,
// reporting whether a fetch actually started. Already-Loading sections
// are skipped. Caller holds e.mu, which makes the check-and-set atomic
// against concurrent triggers.
func (e *Engine) triggerLocked(ctx context.Context, sec *section) bool {
	if sec.status == StatusLoading {
		e.logger.Debug().Str("section", sec.id).Msg("trigger skipped, fetch already in flight")
		return false
	}

	prev := sec.status
	sec.status = StatusLoading
	sec.generation++
	sec.attempts++
	sec.startedAt = time.Now()
	sec.completedAt = time.Time{}

	e.publishLocked(Event{
		SectionID:  sec.id,
		From:       prev,
		To:         StatusLoading,
		Generation: sec.generation,
		At:         sec.startedAt,
	})
	e.logger.Debug().
		Str("section", sec.id).
		Uint64("generation", sec.generation).
		Msg("fetch started")

	// Arguments are evaluated here, under the lock, so the goroutine
	// carries a stable generation even if the section moves on.
	go e.runFetch(ctx, sec.id, sec.generation, sec.fetch)
	return true
}

// runFetch executes one fetch invocation and records its outcome. When a
// fetch limit is configured the section waits here for a slot, already
// marked Loading.
func (e *Engine) runFetch(ctx context.Context, id string, gen uint64, fetch FetchFunc) {
	if e.sem != nil {
		if err := e.sem.Acquire(ctx, 1); err != nil {
			e.complete(id, gen, nil, err)
			return
		}
		defer e.sem.Release(1)
	}

	result, err := fetch(ctx)
	e.complete(id, gen, result, err)
}

// complete lands a fetch outcome. Outcomes whose generation no longer
// matches the section's are stale (a Reset or newer Trigger superseded
// them) and are discarded without touching state.
func (e *Engine) complete(id string, gen uint64, result any, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	sec, ok := e.sections[id]
	if !ok {
		return
	}
	if sec.generation != gen {
		e.logger.Debug().
			Str("section", id).
			Uint64("stale_generation", gen).
			Uint64("current_generation", sec.generation).
			Msg("stale fetch completion discarded")
		return
	}

	sec.completedAt = time.Now()
	if err != nil {
		sec.status = StatusFailed
		sec.err = err
		sec.result = nil
		e.logger.Debug().Str("section", id).Err(err).Msg("fetch failed")
	} else {
		sec.status = StatusLoaded
		sec.result = result
		sec.err = nil
		e.logger.Debug().
			Str("section", id).
			Dur("took", sec.completedAt.Sub(sec.startedAt)).
			Msg("fetch completed")
	}

	e.publishLocked(Event{
		SectionID:  id,
		From:       StatusLoading,
		To:         sec.status,
		Generation: gen,
		Err:        sec.err,
		At:         sec.completedAt,
	})
}
