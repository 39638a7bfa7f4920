package config

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rshade/mosaic/internal/engine"
	"github.com/rshade/mosaic/internal/logging"
	"github.com/rshade/mosaic/internal/source"
)

// Build constructs the runtime orchestrator a validated config
// describes: an engine with one section per panel, and a gate with one
// region per tab. Nothing is triggered; the caller decides when the
// default tab's panels start fetching.
func Build(cfg *Config, logger zerolog.Logger) (*engine.Engine, *engine.Gate, error) {
	eng := engine.New(
		engine.WithFetchLimit(cfg.FetchLimit),
		engine.WithLogger(logging.ComponentLogger(logger, "engine")),
	)

	for _, tab := range cfg.Tabs {
		for _, panel := range tab.Panels {
			src, err := panel.Source.NewSource()
			if err != nil {
				return nil, nil, fmt.Errorf("panel %q: %w", panel.ID, err)
			}
			if err := eng.Define(panel.ID, source.Bind(src)); err != nil {
				return nil, nil, fmt.Errorf("panel %q: %w", panel.ID, err)
			}
		}
	}

	defaultTab := cfg.DefaultTab()
	gate, err := engine.NewGate(eng, defaultTab.ID, defaultTab.PanelIDs()...)
	if err != nil {
		return nil, nil, fmt.Errorf("tab %q: %w", defaultTab.ID, err)
	}
	for _, tab := range cfg.Tabs {
		if tab.ID == defaultTab.ID {
			continue
		}
		if err := gate.AddRegion(tab.ID, tab.PanelIDs()...); err != nil {
			return nil, nil, fmt.Errorf("tab %q: %w", tab.ID, err)
		}
	}

	return eng, gate, nil
}
