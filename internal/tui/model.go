// Package tui renders the interactive mosaic dashboard.
//
// The dashboard follows the Elm architecture via Bubble Tea. Key features:
//   - One tab per configured region; visiting a tab for the first time starts
//     its fetches, later visits render whatever the engine already holds
//   - Per-panel status markers with a shared spinner while fetches run
//   - A status overlay listing every panel across all tabs
//   - Manual refresh keys; the engine never refetches on its own
//
// Engine transitions arrive over Watch and are bridged into tea.Msgs. The
// spinner tick doubles as a render heartbeat, so a dropped event cannot
// freeze the view.
package tui

import (
	"context"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rshade/mosaic/internal/config"
	"github.com/rshade/mosaic/internal/engine"
)

// ViewState represents the top-level screen of the dashboard.
type ViewState int

const (
	// ViewStateDashboard is the normal tabbed panel view.
	ViewStateDashboard ViewState = iota
	// ViewStateQuitting indicates the application is exiting.
	ViewStateQuitting
)

// tabEntry is one dashboard tab and its panels, in configuration order.
type tabEntry struct {
	id     string
	title  string
	panels []panelEntry
}

// panelEntry is one panel of a tab. The id doubles as the engine section id.
type panelEntry struct {
	id    string
	title string
}

// engineEventMsg wraps an engine transition delivered over Watch.
type engineEventMsg struct {
	event engine.Event
	gen   int
}

// watchClosedMsg signals that the engine's event channel was closed.
type watchClosedMsg struct {
	gen int
}

// tabActivatedMsg reports the outcome of a region activation.
type tabActivatedMsg struct {
	id  string
	err error
}

// regionRefreshedMsg reports the outcome of a manual retry or reload.
type regionRefreshedMsg struct {
	id  string
	err error
}

// ConfigReloadedMsg swaps in a rebuilt engine and gate after the config file
// changed on disk. The dash command sends it via Program.Send from its
// watcher goroutine; the model closes the engine it replaces.
type ConfigReloadedMsg struct {
	Config *config.Config
	Engine *engine.Engine
	Gate   *engine.Gate
}

// DashModel is the Bubble Tea model for the mosaic dashboard.
//
//nolint:recvcheck // Bubble Tea requires value receivers for Init/Update/View interface methods.
type DashModel struct {
	ctx  context.Context
	eng  *engine.Engine
	gate *engine.Gate

	// Tab state
	title     string
	tabs      []tabEntry
	activeTab int

	// refresh is the data age beyond which revisiting a tab refetches its
	// panels. Zero disables staleness-based refresh.
	refresh time.Duration

	// Event bridge. watchGen guards against messages from a channel that a
	// config reload has already replaced.
	events      <-chan engine.Event
	cancelWatch func()
	watchGen    int

	// Interactive components
	spin        spinner.Model
	showStatus  bool
	statusTable table.Model

	// Display configuration
	width  int
	height int

	state ViewState
	err   error
}

// NewDashModel creates the dashboard model for a loaded configuration and the
// engine and gate built from it. The default tab's panels are not fetched
// until Init runs.
func NewDashModel(ctx context.Context, cfg *config.Config, eng *engine.Engine, gate *engine.Gate) DashModel {
	m := DashModel{
		ctx:     ctx,
		eng:     eng,
		gate:    gate,
		title:   cfg.Title,
		tabs:    buildTabs(cfg),
		refresh: cfg.Refresh.Std(),
		width:   defaultWidth,
		height:  defaultHeight,
		state:   ViewStateDashboard,
		spin:    newSpinner(),
	}
	if idx := indexOfTab(m.tabs, gate.DefaultRegion()); idx >= 0 {
		m.activeTab = idx
	}
	m.events, m.cancelWatch = eng.Watch()
	return m
}

// buildTabs converts the configured tabs into display entries.
func buildTabs(cfg *config.Config) []tabEntry {
	tabs := make([]tabEntry, 0, len(cfg.Tabs))
	for _, tc := range cfg.Tabs {
		entry := tabEntry{id: tc.ID, title: tc.GetTitle()}
		for _, pc := range tc.Panels {
			entry.panels = append(entry.panels, panelEntry{id: pc.ID, title: pc.GetTitle()})
		}
		tabs = append(tabs, entry)
	}
	return tabs
}

// indexOfTab returns the position of a tab id, or -1 when absent.
func indexOfTab(tabs []tabEntry, id string) int {
	for i, t := range tabs {
		if t.id == id {
			return i
		}
	}
	return -1
}

func newSpinner() spinner.Model {
	return spinner.New(
		spinner.WithSpinner(spinner.MiniDot),
		spinner.WithStyle(SpinnerStyle),
	)
}

// Init starts the spinner, arms the event bridge, and kicks off the default
// tab's fetches. The gate marks the default region active at construction but
// leaves the fetching to the first render.
func (m DashModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spin.Tick, waitForEvent(m.events, m.watchGen)}
	if len(m.tabs) > 0 {
		cmds = append(cmds, m.triggerRegionCmd(m.tabs[m.activeTab].id))
	}
	return tea.Batch(cmds...)
}

// Close releases the model's engine resources. The dash command calls it once
// the program loop has exited.
func (m DashModel) Close() {
	if m.cancelWatch != nil {
		m.cancelWatch()
	}
	if m.eng != nil {
		m.eng.Close()
	}
}

// waitForEvent re-arms the bridge between the engine's watch channel and the
// program's message loop.
func waitForEvent(events <-chan engine.Event, gen int) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return watchClosedMsg{gen: gen}
		}
		return engineEventMsg{event: ev, gen: gen}
	}
}

// triggerRegionCmd fetches every panel of an already active region. Used for
// the default tab at startup and for the selected tab after a config reload.
func (m DashModel) triggerRegionCmd(id string) tea.Cmd {
	ctx, eng, gate := m.ctx, m.eng, m.gate
	return func() tea.Msg {
		sections, err := gate.Sections(id)
		if err != nil {
			return tabActivatedMsg{id: id, err: err}
		}
		if len(sections) == 0 {
			return tabActivatedMsg{id: id}
		}
		return tabActivatedMsg{id: id, err: eng.TriggerAll(ctx, sections...)}
	}
}

// activateTabCmd marks a region visited. The first visit triggers its
// sections; later visits are no-ops.
func (m DashModel) activateTabCmd(id string) tea.Cmd {
	ctx, gate := m.ctx, m.gate
	return func() tea.Msg {
		return tabActivatedMsg{id: id, err: gate.Activate(ctx, id)}
	}
}

// retryFailedCmd retriggers the failed panels of the visible tab.
func (m DashModel) retryFailedCmd() tea.Cmd {
	if len(m.tabs) == 0 {
		return nil
	}
	tab := m.tabs[m.activeTab]
	ids := panelIDs(tab)
	ctx, eng := m.ctx, m.eng
	return func() tea.Msg {
		for _, id := range ids {
			status, err := eng.Status(id)
			if err != nil || status != engine.StatusFailed {
				continue
			}
			if err := eng.Trigger(ctx, id); err != nil {
				return regionRefreshedMsg{id: tab.id, err: err}
			}
		}
		return regionRefreshedMsg{id: tab.id}
	}
}

// refreshStaleCmd refetches the region's panels whose data is older than
// the configured refresh age, along with any Idle or Failed ones. Panels
// still Loading and freshly Loaded ones are left alone.
func (m DashModel) refreshStaleCmd(id string) tea.Cmd {
	ctx, eng, gate, maxAge := m.ctx, m.eng, m.gate, m.refresh
	return func() tea.Msg {
		sections, err := gate.Sections(id)
		if err != nil {
			return regionRefreshedMsg{id: id, err: err}
		}
		if len(sections) == 0 {
			return regionRefreshedMsg{id: id}
		}
		_, err = eng.TriggerStale(ctx, maxAge, sections...)
		return regionRefreshedMsg{id: id, err: err}
	}
}

// reloadTabCmd resets every panel of the visible tab and fetches them again.
// Resetting sections with fetches still in flight leaves those completions to
// be discarded as stale.
func (m DashModel) reloadTabCmd() tea.Cmd {
	if len(m.tabs) == 0 {
		return nil
	}
	tab := m.tabs[m.activeTab]
	ids := panelIDs(tab)
	ctx, eng := m.ctx, m.eng
	return func() tea.Msg {
		for _, id := range ids {
			if err := eng.Reset(id); err != nil {
				return regionRefreshedMsg{id: tab.id, err: err}
			}
		}
		if len(ids) == 0 {
			return regionRefreshedMsg{id: tab.id}
		}
		return regionRefreshedMsg{id: tab.id, err: eng.TriggerAll(ctx, ids...)}
	}
}

func panelIDs(tab tabEntry) []string {
	ids := make([]string, 0, len(tab.panels))
	for _, p := range tab.panels {
		ids = append(ids, p.id)
	}
	return ids
}

// Update handles messages and updates the model state (Bubble Tea interface).
func (m DashModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.showStatus {
			m.statusTable = m.buildStatusTable()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case engineEventMsg:
		return m.handleEngineEvent(msg)

	case watchClosedMsg:
		// The channel of a replaced engine closes after a reload; the new
		// bridge is already armed. A close on the current generation means
		// the engine itself shut down, so stop re-arming.
		return m, nil

	case tabActivatedMsg:
		m.err = msg.err
		return m, nil

	case regionRefreshedMsg:
		m.err = msg.err
		return m, nil

	case ConfigReloadedMsg:
		return m.handleConfigReloaded(msg)

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, nil
}

// handleEngineEvent refreshes the status overlay and re-arms the bridge.
// Events carrying a stale generation belong to a replaced engine and are
// dropped without re-arming.
func (m DashModel) handleEngineEvent(msg engineEventMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.watchGen {
		return m, nil
	}
	if m.showStatus {
		m.statusTable = m.buildStatusTable()
	}
	return m, waitForEvent(m.events, m.watchGen)
}

// handleConfigReloaded swaps in the rebuilt engine and gate, closes the old
// engine, and re-activates the previously selected tab. If that tab no longer
// exists the dashboard falls back to the new default tab.
func (m DashModel) handleConfigReloaded(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	previous := ""
	if len(m.tabs) > 0 {
		previous = m.tabs[m.activeTab].id
	}

	if m.cancelWatch != nil {
		m.cancelWatch()
	}
	if m.eng != nil {
		m.eng.Close()
	}

	m.eng = msg.Engine
	m.gate = msg.Gate
	m.title = msg.Config.Title
	m.tabs = buildTabs(msg.Config)
	m.refresh = msg.Config.Refresh.Std()
	m.watchGen++
	m.events, m.cancelWatch = m.eng.Watch()
	m.err = nil

	m.activeTab = indexOfTab(m.tabs, previous)
	if m.activeTab < 0 {
		m.activeTab = indexOfTab(m.tabs, m.gate.DefaultRegion())
	}
	if m.activeTab < 0 {
		m.activeTab = 0
	}

	// The fresh gate has an empty fetch history. The new default region is
	// active but idle, so it needs an explicit trigger; any other selection
	// counts as a first visit.
	var activate tea.Cmd
	if len(m.tabs) > 0 {
		id := m.tabs[m.activeTab].id
		if m.gate.IsActive(id) {
			activate = m.triggerRegionCmd(id)
		} else {
			activate = m.activateTabCmd(id)
		}
	}

	if m.showStatus {
		m.statusTable = m.buildStatusTable()
	}
	return m, tea.Batch(waitForEvent(m.events, m.watchGen), activate)
}

// handleKeyMsg processes keyboard input.
func (m DashModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showStatus {
		return m.handleStatusKeypress(msg)
	}

	switch msg.String() {
	case keyQuit, keyCtrlC:
		m.state = ViewStateQuitting
		return m, tea.Quit
	case keyTab, keyRight, "l":
		return m.switchTab(1)
	case keyShiftTab, keyLeft, "h":
		return m.switchTab(-1)
	case keyStatus:
		m.showStatus = true
		m.statusTable = m.buildStatusTable()
		return m, nil
	case keyRetry:
		return m, m.retryFailedCmd()
	case keyReload:
		return m, m.reloadTabCmd()
	default:
		if idx, ok := tabDigit(msg.String(), len(m.tabs)); ok {
			return m.switchTo(idx)
		}
		return m, nil
	}
}

// handleStatusKeypress processes keyboard input while the overlay is open.
// Unhandled keys scroll the table.
func (m DashModel) handleStatusKeypress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyStatus, keyEsc:
		m.showStatus = false
		return m, nil
	case keyQuit, keyCtrlC:
		m.state = ViewStateQuitting
		return m, tea.Quit
	default:
		var cmd tea.Cmd
		m.statusTable, cmd = m.statusTable.Update(msg)
		return m, cmd
	}
}

// switchTab moves the selection by delta with wrap-around.
func (m DashModel) switchTab(delta int) (tea.Model, tea.Cmd) {
	if len(m.tabs) == 0 {
		return m, nil
	}
	idx := (m.activeTab + delta + len(m.tabs)) % len(m.tabs)
	return m.switchTo(idx)
}

// switchTo selects a tab by index. A first visit triggers the region's
// fetches; a revisit refetches only stale panels, and only when a refresh
// age is configured.
func (m DashModel) switchTo(idx int) (tea.Model, tea.Cmd) {
	if idx == m.activeTab || idx < 0 || idx >= len(m.tabs) {
		return m, nil
	}
	m.activeTab = idx
	id := m.tabs[idx].id
	if m.refresh > 0 && m.gate.IsActive(id) {
		return m, m.refreshStaleCmd(id)
	}
	return m, m.activateTabCmd(id)
}

// tabDigit maps the keys "1" through "9" onto a tab index.
func tabDigit(key string, tabs int) (int, bool) {
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return 0, false
	}
	idx := int(key[0] - '1')
	if idx >= tabs {
		return 0, false
	}
	return idx, true
}

// buildStatusTable creates the overlay table over a snapshot of every panel.
func (m DashModel) buildStatusTable() table.Model {
	columns := []table.Column{
		{Title: "Panel", Width: 20},
		{Title: "Tab", Width: 12},
		{Title: "Status", Width: 8},
		{Title: "Attempts", Width: 8},
		{Title: "Updated", Width: 12},
		{Title: "Error", Width: 36},
	}

	var rows []table.Row
	for _, tab := range m.tabs {
		for _, p := range tab.panels {
			sec, err := m.eng.Section(p.id)
			if err != nil {
				continue
			}
			rows = append(rows, table.Row{
				p.id,
				tab.id,
				sec.Status.String(),
				strconv.FormatUint(sec.Attempts, 10),
				formatUpdated(sec.CompletedAt),
				formatErr(sec.Err),
			})
		}
	}

	height := m.height - chromeHeight
	if height > len(rows)+1 {
		height = len(rows) + 1
	}
	if height < minTableHeight {
		height = minTableHeight
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = TableHeaderStyle
	s.Selected = TableSelectedStyle
	t.SetStyles(s)

	return t
}

// formatUpdated renders how long ago a section last completed.
func formatUpdated(completed time.Time) string {
	if completed.IsZero() {
		return "-"
	}
	return time.Since(completed).Round(time.Second).String() + " ago"
}

// formatErr renders a section error for display.
func formatErr(err error) string {
	if err == nil {
		return "-"
	}
	return err.Error()
}
