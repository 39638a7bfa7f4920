package tui

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/mosaic/internal/engine"
	"github.com/rshade/mosaic/internal/source"
)

// TestDashView_TabsAndFooter verifies the loaded dashboard shows the title,
// tab labels, payload lines, and aggregate counts.
func TestDashView_TabsAndFooter(t *testing.T) {
	m := newTestModel(t, nil)
	runCmd(t, m.triggerRegionCmd("overview"))
	waitForStatus(t, m.eng, "cpu", engine.StatusLoaded)
	waitForStatus(t, m.eng, "mem", engine.StatusLoaded)

	out := m.View()

	for _, want := range []string{
		"ops",
		"1:Overview",
		"2:network",
		"cpu ok",
		"mem ok",
		"2/3 loaded",
		"q: quit",
	} {
		assert.Contains(t, out, want)
	}

	// Panels of the hidden tab are not rendered.
	assert.NotContains(t, out, "net ok")
}

// TestDashView_FailedPanel verifies a failed panel shows the fetch error, the
// retry hint, and a failed count in the footer.
func TestDashView_FailedPanel(t *testing.T) {
	m := newTestModel(t, map[string]engine.FetchFunc{"cpu": errFetch("probe offline")})
	runCmd(t, m.triggerRegionCmd("overview"))
	waitForStatus(t, m.eng, "cpu", engine.StatusFailed)
	waitForStatus(t, m.eng, "mem", engine.StatusLoaded)

	out := m.View()

	assert.Contains(t, out, "probe offline")
	assert.Contains(t, out, "press r to retry")
	assert.Contains(t, out, "1 failed")
}

// TestDashView_IdlePanel verifies untouched panels render a placeholder.
func TestDashView_IdlePanel(t *testing.T) {
	m := newTestModel(t, nil)

	out := m.View()

	assert.Contains(t, out, "no data yet")
	assert.Contains(t, out, "0/3 loaded")
}

// TestDashView_RefreshKeepsPreviousPayload verifies a panel refreshing over
// an earlier result keeps rendering that result while the fetch runs.
func TestDashView_RefreshKeepsPreviousPayload(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	cpuFetch := func(_ context.Context) (any, error) {
		if calls.Add(1) == 1 {
			return source.Payload{Lines: []string{"first run"}}, nil
		}
		<-release
		return source.Payload{Lines: []string{"second run"}}, nil
	}

	m := newTestModel(t, map[string]engine.FetchFunc{"cpu": cpuFetch})
	ctx := context.Background()

	require.NoError(t, m.eng.Trigger(ctx, "cpu"))
	waitForStatus(t, m.eng, "cpu", engine.StatusLoaded)

	require.NoError(t, m.eng.Trigger(ctx, "cpu"))
	waitForStatus(t, m.eng, "cpu", engine.StatusLoading)

	assert.Contains(t, m.View(), "first run")

	close(release)
	waitForStatus(t, m.eng, "cpu", engine.StatusLoaded)
	assert.Contains(t, m.View(), "second run")
}

// TestDashView_PayloadTruncation verifies long payloads are elided with a
// count marker.
func TestDashView_PayloadTruncation(t *testing.T) {
	lines := make([]string, 12)
	for i := range lines {
		lines[i] = fmt.Sprintf("row-%d", i+1)
	}

	m := newTestModel(t, map[string]engine.FetchFunc{"cpu": lineFetch(lines...)})
	require.NoError(t, m.eng.Trigger(context.Background(), "cpu"))
	waitForStatus(t, m.eng, "cpu", engine.StatusLoaded)

	out := m.View()

	assert.Contains(t, out, "row-8")
	assert.NotContains(t, out, "row-9")
	assert.Contains(t, out, "... 4 more lines")
}

// TestDashView_StatusOverlay verifies the overlay lists every panel across
// all tabs with its status.
func TestDashView_StatusOverlay(t *testing.T) {
	m := newTestModel(t, nil)
	runCmd(t, m.triggerRegionCmd("overview"))
	waitForStatus(t, m.eng, "cpu", engine.StatusLoaded)
	waitForStatus(t, m.eng, "mem", engine.StatusLoaded)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	m = updated.(DashModel)

	out := m.View()

	for _, want := range []string{"PANEL STATUS", "cpu", "mem", "net", "loaded", "idle", "esc to close"} {
		assert.Contains(t, out, want)
	}
}

// TestDashView_QuittingRendersNothing verifies the final frame is empty.
func TestDashView_QuittingRendersNothing(t *testing.T) {
	m := newTestModel(t, nil)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	m = updated.(DashModel)

	assert.Empty(t, m.View())
}

// TestTruncateLine verifies panel line truncation, including that cuts
// land on rune boundaries.
func TestTruncateLine(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		maxLen int
		want   string
	}{
		{name: "short line unchanged", line: "ok", maxLen: 10, want: "ok"},
		{name: "exact fit unchanged", line: "0123456789", maxLen: 10, want: "0123456789"},
		{name: "long line truncated", line: "0123456789abcdef", maxLen: 10, want: "0123456..."},
		{name: "tiny width unchanged", line: "0123456789", maxLen: 3, want: "0123456789"},
		{
			name:   "multibyte cut on rune boundary",
			line:   strings.Repeat("é", 16),
			maxLen: 10,
			want:   strings.Repeat("é", 7) + "...",
		},
		{
			name:   "multibyte fitting by runes unchanged",
			line:   strings.Repeat("日", 9),
			maxLen: 10,
			want:   strings.Repeat("日", 9),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateLine(tt.line, tt.maxLen)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

// TestFormatUpdated verifies the overlay timestamp column.
func TestFormatUpdated(t *testing.T) {
	assert.Equal(t, "-", formatUpdated(time.Time{}))
	assert.Contains(t, formatUpdated(time.Now().Add(-2*time.Second)), "ago")
}
