package engine

import "time"

// Event records one section status transition. Events are delivery
// hints: subscribers with full buffers miss events rather than block
// the engine, so consumers needing exact state should re-read via
// Snapshot or the aggregate predicates on wake-up.
type Event struct {
	SectionID  string
	From       Status
	To         Status
	Generation uint64

	// Err carries the fetch error on transitions to StatusFailed.
	Err error

	At time.Time
}

type watcher struct {
	ch chan Event
}

// Watch subscribes to status transition events. The returned cancel
// function releases the subscription and closes the channel; it is safe
// to call more than once. The channel is also closed by Engine.Close.
// On a closed engine Watch returns an already-closed channel.
//
// Events for one section are delivered in transition order. Delivery is
// best effort: when the subscriber's buffer is full the event is counted
// as dropped instead of blocking section completion.
func (e *Engine) Watch() (<-chan Event, func()) {
	e.watchMu.Lock()
	defer e.watchMu.Unlock()

	if e.watchers == nil {
		ch := make(chan Event)
		close(ch)
		return ch, func() {}
	}

	id := e.nextID
	e.nextID++
	w := &watcher{ch: make(chan Event, e.watchBuf)}
	e.watchers[id] = w

	cancel := func() {
		e.watchMu.Lock()
		defer e.watchMu.Unlock()
		if cur, ok := e.watchers[id]; ok {
			delete(e.watchers, id)
			close(cur.ch)
		}
	}
	return w.ch, cancel
}

// DroppedEvents returns how many events were discarded because a
// subscriber's buffer was full.
func (e *Engine) DroppedEvents() uint64 {
	return e.dropped.Load()
}

// publishLocked fans an event out to all subscribers without blocking.
// Caller holds e.mu, which is what orders events per section: the next
// transition cannot publish until this one has.
func (e *Engine) publishLocked(ev Event) {
	e.watchMu.Lock()
	defer e.watchMu.Unlock()

	for _, w := range e.watchers {
		select {
		case w.ch <- ev:
		default:
			e.dropped.Add(1)
		}
	}
}
