package engine

// Aggregate predicates. Each derives its answer from the sections'
// current statuses at call time; nothing is cached, so a status change
// is visible in the very next read. An empty id list means every
// defined section.

// AnyLoading reports whether any of the given sections is Loading.
// Vacuously false over an empty set.
func (e *Engine) AnyLoading(ids ...string) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	secs, err := e.resolveLocked(ids)
	if err != nil {
		return false, err
	}
	for _, sec := range secs {
		if sec.status == StatusLoading {
			return true, nil
		}
	}
	return false, nil
}

// AllLoaded reports whether every one of the given sections is Loaded.
// Vacuously true over an empty set.
func (e *Engine) AllLoaded(ids ...string) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	secs, err := e.resolveLocked(ids)
	if err != nil {
		return false, err
	}
	for _, sec := range secs {
		if sec.status != StatusLoaded {
			return false, nil
		}
	}
	return true, nil
}

// AnyFailed reports whether any of the given sections is Failed.
// Vacuously false over an empty set.
func (e *Engine) AnyFailed(ids ...string) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	secs, err := e.resolveLocked(ids)
	if err != nil {
		return false, err
	}
	for _, sec := range secs {
		if sec.status == StatusFailed {
			return true, nil
		}
	}
	return false, nil
}

// Counts is a per-status tally over a set of sections.
type Counts struct {
	Idle    int
	Loading int
	Loaded  int
	Failed  int
	Total   int
}

// Counts tallies the given sections by status, or every defined section
// when no ids are given.
func (e *Engine) Counts(ids ...string) (Counts, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	secs, err := e.resolveLocked(ids)
	if err != nil {
		return Counts{}, err
	}

	var c Counts
	for _, sec := range secs {
		switch sec.status {
		case StatusIdle:
			c.Idle++
		case StatusLoading:
			c.Loading++
		case StatusLoaded:
			c.Loaded++
		case StatusFailed:
			c.Failed++
		}
		c.Total++
	}
	return c, nil
}
