package engine

import (
	"context"
	"fmt"
	"sync"
)

// Gate defers fetching for grouped sections until their region is
// visited. Regions map to UI groupings like tab panels: the default
// region is active from construction, every other region stays inactive
// until Activate is called for it.
//
// Activation is monotonic. Once a region is active it stays active for
// the gate's lifetime, and a second Activate call is a no-op that does
// not retrigger the region's sections.
type Gate struct {
	mu            sync.RWMutex
	eng           *Engine
	regions       map[string][]string
	order         []string
	active        map[string]bool
	defaultRegion string
}

// NewGate builds a gate over eng with the default region and its
// sections. The default region starts active; its sections are not
// triggered here, that stays with the consumer's view initialization.
// Every section id must already be defined on the engine.
func NewGate(eng *Engine, defaultRegion string, sections ...string) (*Gate, error) {
	g := &Gate{
		eng:           eng,
		regions:       make(map[string][]string),
		active:        make(map[string]bool),
		defaultRegion: defaultRegion,
	}
	if err := g.AddRegion(defaultRegion, sections...); err != nil {
		return nil, err
	}
	g.active[defaultRegion] = true
	return g, nil
}

// AddRegion registers a region and the sections it gates. Region ids
// must be unique; section ids must already be defined on the engine.
func (g *Gate) AddRegion(id string, sections ...string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.regions[id]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateRegion, id)
	}
	for _, sectionID := range sections {
		if _, err := g.eng.Section(sectionID); err != nil {
			return fmt.Errorf("region %q: %w", id, err)
		}
	}

	g.regions[id] = append([]string(nil), sections...)
	g.order = append(g.order, id)
	return nil
}

// Activate marks a region active and triggers its sections. If the
// region is already active the call is a no-op, so a region's sections
// are fetch-triggered at most once per activation no matter how many
// times the user revisits it. Unknown regions fail with ErrUnknownRegion.
//
// The gate's lock spans the trigger, so concurrent Activate calls for
// the same region cannot both start its fetches.
func (g *Gate) Activate(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	sections, ok := g.regions[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRegion, id)
	}
	if g.active[id] {
		return nil
	}

	// An empty variadic TriggerAll means "every defined section", which
	// is not what an empty region wants.
	if len(sections) > 0 {
		if err := g.eng.TriggerAll(ctx, sections...); err != nil {
			return fmt.Errorf("activate region %q: %w", id, err)
		}
	}
	g.active[id] = true
	return nil
}

// IsActive reports whether the region has been activated. Unknown
// regions report false rather than failing.
func (g *Gate) IsActive(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.active[id]
}

// Sections returns the section ids gated by a region.
func (g *Gate) Sections(id string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	sections, ok := g.regions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRegion, id)
	}
	return append([]string(nil), sections...), nil
}

// Regions returns all region ids in registration order, the default
// region first.
func (g *Gate) Regions() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// DefaultRegion returns the region that was active from construction.
func (g *Gate) DefaultRegion() string {
	return g.defaultRegion
}
