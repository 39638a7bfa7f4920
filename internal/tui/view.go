package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/mosaic/internal/engine"
	"github.com/rshade/mosaic/internal/source"
)

// printer formats counts with English number grouping.
//
//nolint:gochecknoglobals // Global printer is idiomatic for x/text/message usage.
var printer = message.NewPrinter(language.English)

// View renders the current view (Bubble Tea interface).
func (m DashModel) View() string {
	switch m.state {
	case ViewStateQuitting:
		return ""
	case ViewStateDashboard:
		// Rendered below.
	}

	if m.showStatus {
		return m.renderStatusOverlay()
	}
	return m.renderDashboard()
}

// renderDashboard renders the tab bar, the visible tab's panels, and the footer.
func (m DashModel) renderDashboard() string {
	sections := []string{
		m.renderTabBar(),
		m.renderPanels(),
		m.renderFooter(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderTabBar renders the dashboard title and one numbered label per tab.
// The selected tab is highlighted; tabs never visited are dimmed.
func (m DashModel) renderTabBar() string {
	labels := make([]string, 0, len(m.tabs)+1)
	if m.title != "" {
		labels = append(labels, HeaderStyle.Render(m.title))
	}

	for i, tab := range m.tabs {
		label := fmt.Sprintf("%d:%s", i+1, tab.title)
		switch {
		case i == m.activeTab:
			label = ActiveTabStyle.Render(label)
		case m.gate.IsActive(tab.id):
			label = TabStyle.Render(label)
		default:
			label = UnvisitedTabStyle.Render(label)
		}
		labels = append(labels, label)
	}

	return strings.Join(labels, "  ")
}

// renderPanels renders every panel of the visible tab as a stacked box.
func (m DashModel) renderPanels() string {
	if len(m.tabs) == 0 {
		return SubtleStyle.Render("no tabs configured")
	}

	tab := m.tabs[m.activeTab]
	panels := make([]string, 0, len(tab.panels))
	for _, p := range tab.panels {
		panels = append(panels, m.renderPanel(p))
	}
	return lipgloss.JoinVertical(lipgloss.Left, panels...)
}

// renderPanel renders one panel: a marker and title line, then the body for
// the panel's current state.
func (m DashModel) renderPanel(p panelEntry) string {
	sec, err := m.eng.Section(p.id)
	if err != nil {
		return CriticalStyle.Render(fmt.Sprintf("%s: %v", p.title, err))
	}

	title := m.statusMark(sec.Status) + " " + PanelTitleStyle.Render(p.title)
	if sec.Status == engine.StatusLoaded && sec.Duration() > 0 {
		title += SubtleStyle.Render("  " + sec.Duration().Round(time.Millisecond).String())
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, m.renderPanelBody(sec))
	return BoxStyle.Width(m.width - borderPadding).Render(content)
}

// statusMark returns the styled marker glyph for a section status.
func (m DashModel) statusMark(status engine.Status) string {
	switch status {
	case engine.StatusLoading:
		return m.spin.View()
	case engine.StatusLoaded:
		return LoadedMarkStyle.Render("●")
	case engine.StatusFailed:
		return CriticalStyle.Render("✗")
	case engine.StatusIdle:
		return SubtleStyle.Render("○")
	default:
		return " "
	}
}

// renderPanelBody renders the panel interior. A panel refreshing with a
// previous payload keeps showing it; only the title marker changes.
func (m DashModel) renderPanelBody(sec engine.Section) string {
	if sec.Status == engine.StatusFailed {
		return lipgloss.JoinVertical(lipgloss.Left,
			CriticalStyle.Render(formatErr(sec.Err)),
			SubtleStyle.Render("press r to retry"),
		)
	}

	payload, err := engine.ResultAs[source.Payload](m.eng, sec.ID)
	if err == nil {
		return m.renderPayload(payload)
	}
	if sec.Status == engine.StatusLoading {
		return SubtleStyle.Render("fetching...")
	}
	return SubtleStyle.Render("no data yet")
}

// renderPayload renders payload lines truncated to the panel width, with an
// elision marker when the payload is longer than the panel.
func (m DashModel) renderPayload(payload source.Payload) string {
	lines := payload.Lines
	extra := 0
	if len(lines) > maxPanelLines {
		extra = len(lines) - maxPanelLines
		lines = lines[:maxPanelLines]
	}

	inner := m.width - borderPadding*2
	out := make([]string, 0, len(lines)+1)
	for _, line := range lines {
		out = append(out, truncateLine(line, inner))
	}
	if extra > 0 {
		out = append(out, SubtleStyle.Render(printer.Sprintf("... %d more lines", extra)))
	}

	if len(out) == 0 {
		return SubtleStyle.Render("(empty)")
	}
	return strings.Join(out, "\n")
}

// truncateLine shortens a payload line to fit the panel interior,
// counting runes so multi-byte characters are never split.
func truncateLine(line string, maxLen int) string {
	const suffix = "..."
	if maxLen <= len(suffix) || len(line) <= maxLen {
		return line
	}
	runes := []rune(line)
	if len(runes) <= maxLen {
		return line
	}
	return string(runes[:maxLen-len(suffix)]) + suffix
}

// renderFooter renders the aggregate counts line and the key hints.
func (m DashModel) renderFooter() string {
	var lines []string

	if m.err != nil {
		lines = append(lines, CriticalStyle.Render("error: "+m.err.Error()))
	}

	if counts, err := m.eng.Counts(); err == nil {
		parts := []string{printer.Sprintf("%d/%d loaded", counts.Loaded, counts.Total)}
		if counts.Loading > 0 {
			parts = append(parts, printer.Sprintf("%d loading", counts.Loading))
		}
		if counts.Failed > 0 {
			parts = append(parts, CriticalStyle.Render(printer.Sprintf("%d failed", counts.Failed)))
		}
		lines = append(lines, FooterStyle.Render(strings.Join(parts, "  ")))
	}

	lines = append(lines, SubtleStyle.Render("tab: next  s: status  r: retry failed  R: reload tab  q: quit"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderStatusOverlay renders the full-panel status table.
func (m DashModel) renderStatusOverlay() string {
	sections := []string{
		HeaderStyle.Render("PANEL STATUS"),
		m.statusTable.View(),
	}

	if dropped := m.eng.DroppedEvents(); dropped > 0 {
		sections = append(sections, WarningStyle.Render(printer.Sprintf("%d events dropped", dropped)))
	}

	sections = append(sections, SubtleStyle.Render("esc to close  q to quit"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
