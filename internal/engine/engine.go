package engine

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

const defaultWatchBuffer = 16

// Engine owns the section registry. It tracks each section's status,
// result, and error, and launches fetches on their own goroutines.
//
// All methods are safe for concurrent use. Reads stay valid after Close;
// mutations fail with ErrEngineClosed.
type Engine struct {
	mu       sync.RWMutex
	sections map[string]*section
	order    []string
	closed   bool

	// sem caps concurrently running fetches when WithFetchLimit is set.
	// Nil means unlimited.
	sem *semaphore.Weighted

	watchMu  sync.Mutex
	watchers map[int]*watcher
	nextID   int
	watchBuf int
	dropped  atomic.Uint64

	logger zerolog.Logger
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithFetchLimit caps the number of fetches running at once. Triggered
// sections still transition to Loading immediately; their fetch bodies
// queue until a slot frees. Zero or negative means unlimited.
func WithFetchLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithWatchBuffer sets the per-subscriber event buffer size for Watch.
// Slow subscribers drop events rather than block the engine.
func WithWatchBuffer(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.watchBuf = n
		}
	}
}

// WithLogger attaches a logger for debug-level lifecycle tracing.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New returns an empty engine ready for Define calls.
func New(opts ...Option) *Engine {
	e := &Engine{
		sections: make(map[string]*section),
		watchers: make(map[int]*watcher),
		watchBuf: defaultWatchBuffer,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Define registers a new section at StatusIdle. The id must not already
// be registered and fetch must be non-nil.
func (e *Engine) Define(id string, fetch FetchFunc) error {
	if fetch == nil {
		return fmt.Errorf("%w: section %q", ErrNilFetch, id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}
	if _, ok := e.sections[id]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateSection, id)
	}

	e.sections[id] = &section{id: id, fetch: fetch, status: StatusIdle}
	e.order = append(e.order, id)
	e.logger.Debug().Str("section", id).Msg("section defined")
	return nil
}

// Reset forces a section back to StatusIdle from any state, discarding
// its stored result and error. An in-flight fetch is not cancelled; its
// completion is detected by generation mismatch and discarded.
func (e *Engine) Reset(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}
	sec, ok := e.sections[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSection, id)
	}

	prev := sec.status
	sec.status = StatusIdle
	sec.result = nil
	sec.err = nil
	sec.generation++
	sec.startedAt = time.Time{}
	sec.completedAt = time.Time{}

	if prev != StatusIdle {
		e.publishLocked(Event{
			SectionID:  id,
			From:       prev,
			To:         StatusIdle,
			Generation: sec.generation,
			At:         time.Now(),
		})
	}
	e.logger.Debug().Str("section", id).Stringer("from", prev).Msg("section reset")
	return nil
}

// Status returns the section's current status.
func (e *Engine) Status(id string) (Status, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	sec, ok := e.sections[id]
	if !ok {
		return StatusIdle, fmt.Errorf("%w: %q", ErrUnknownSection, id)
	}
	return sec.status, nil
}

// Result returns the section's most recently loaded result. It is nil
// until the first successful fetch and after a failure or Reset. While a
// refresh is in flight the previous result remains readable.
func (e *Engine) Result(id string) (any, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	sec, ok := e.sections[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSection, id)
	}
	return sec.result, nil
}

// LastErr returns the section's stored fetch error, nil when the latest
// completion succeeded or the section never failed. The unknown-id case
// is reported on the second return so callers can tell a failed fetch
// from a structural mistake.
func (e *Engine) LastErr(id string) (error, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	sec, ok := e.sections[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSection, id)
	}
	return sec.err, nil
}

// Section returns a point-in-time snapshot of one section.
func (e *Engine) Section(id string) (Section, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	sec, ok := e.sections[id]
	if !ok {
		return Section{}, fmt.Errorf("%w: %q", ErrUnknownSection, id)
	}
	return sec.snapshot(), nil
}

// Snapshot returns snapshots for the given sections, or for every
// defined section in definition order when no ids are given.
func (e *Engine) Snapshot(ids ...string) ([]Section, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	secs, err := e.resolveLocked(ids)
	if err != nil {
		return nil, err
	}
	out := make([]Section, 0, len(secs))
	for _, sec := range secs {
		out = append(out, sec.snapshot())
	}
	return out, nil
}

// IDs returns all defined section ids in definition order.
func (e *Engine) IDs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// Close marks the engine closed. Subsequent Define, Trigger, and Reset
// calls fail with ErrEngineClosed; reads keep working. In-flight fetches
// are not interrupted, but their completions are discarded and watcher
// channels are closed. Close is idempotent and never blocks on fetches.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	e.watchMu.Lock()
	for _, w := range e.watchers {
		close(w.ch)
	}
	e.watchers = nil
	e.watchMu.Unlock()

	e.logger.Debug().Msg("engine closed")
}

// ResultAs returns the section's result asserted to T. It fails with
// ErrWrongResultType when the section holds no result or a result of a
// different type.
func ResultAs[T any](e *Engine, id string) (T, error) {
	var zero T

	v, err := e.Result(id)
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, fmt.Errorf("%w: section %q has no result", ErrWrongResultType, id)
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: section %q holds %T", ErrWrongResultType, id, v)
	}
	return t, nil
}

// resolveLocked maps ids to sections, defaulting to every defined
// section in definition order when ids is empty. Caller holds e.mu.
func (e *Engine) resolveLocked(ids []string) ([]*section, error) {
	if len(ids) == 0 {
		out := make([]*section, 0, len(e.order))
		for _, id := range e.order {
			out = append(out, e.sections[id])
		}
		return out, nil
	}

	out := make([]*section, 0, len(ids))
	for _, id := range ids {
		sec, ok := e.sections[id]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSection, id)
		}
		out = append(out, sec)
	}
	return out, nil
}
