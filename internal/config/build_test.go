package config

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/mosaic/internal/engine"
	"github.com/rshade/mosaic/internal/source"
)

const buildConfig = `
tabs:
  - id: overview
    default: true
    panels:
      - id: kpis
        source: {type: static, lines: ["orders: 120"]}
      - id: alerts
        source: {type: static, lines: ["none"]}
  - id: infra
    panels:
      - id: disk
        source: {type: static, lines: ["41%"]}
`

func TestBuild(t *testing.T) {
	t.Run("EngineAndGateMirrorConfig", func(t *testing.T) {
		cfg, err := Parse([]byte(buildConfig))
		require.NoError(t, err)

		eng, gate, err := Build(cfg, zerolog.Nop())
		require.NoError(t, err)
		defer eng.Close()

		assert.Equal(t, []string{"kpis", "alerts", "disk"}, eng.IDs())
		assert.Equal(t, []string{"overview", "infra"}, gate.Regions())
		assert.Equal(t, "overview", gate.DefaultRegion())
		assert.True(t, gate.IsActive("overview"))
		assert.False(t, gate.IsActive("infra"))

		sections, err := gate.Sections("infra")
		require.NoError(t, err)
		assert.Equal(t, []string{"disk"}, sections)
	})

	t.Run("DefaultTabSectionsLoad", func(t *testing.T) {
		cfg, err := Parse([]byte(buildConfig))
		require.NoError(t, err)

		eng, _, err := Build(cfg, zerolog.Nop())
		require.NoError(t, err)
		defer eng.Close()

		defaultTab := cfg.DefaultTab()
		require.NoError(t, eng.TriggerAll(context.Background(), defaultTab.PanelIDs()...))

		require.Eventually(t, func() bool {
			allLoaded, aerr := eng.AllLoaded(defaultTab.PanelIDs()...)
			return aerr == nil && allLoaded
		}, 2*time.Second, 5*time.Millisecond)

		payload, err := engine.ResultAs[source.Payload](eng, "kpis")
		require.NoError(t, err)
		assert.Equal(t, []string{"orders: 120"}, payload.Lines)

		// The inactive tab's panel was never triggered.
		status, err := eng.Status("disk")
		require.NoError(t, err)
		assert.Equal(t, engine.StatusIdle, status)
	})

	t.Run("ActivatingTabFetchesItsPanels", func(t *testing.T) {
		cfg, err := Parse([]byte(buildConfig))
		require.NoError(t, err)

		eng, gate, err := Build(cfg, zerolog.Nop())
		require.NoError(t, err)
		defer eng.Close()

		require.NoError(t, gate.Activate(context.Background(), "infra"))
		require.Eventually(t, func() bool {
			status, serr := eng.Status("disk")
			return serr == nil && status == engine.StatusLoaded
		}, 2*time.Second, 5*time.Millisecond)
	})
}
