package tui

import "github.com/charmbracelet/lipgloss"

// Layout constants.
const (
	defaultWidth  = 80
	defaultHeight = 24
	borderPadding = 2
	// maxPanelLines caps how many payload lines a panel renders before the
	// remainder is elided with a count marker.
	maxPanelLines = 8
	// minTableHeight keeps the status overlay table usable on tiny terminals.
	minTableHeight = 4
	// chromeHeight is the vertical space reserved for the tab bar and footer
	// when sizing the status overlay table.
	chromeHeight = 6
)

// Key bindings.
const (
	keyQuit     = "q"
	keyCtrlC    = "ctrl+c"
	keyTab      = "tab"
	keyShiftTab = "shift+tab"
	keyRight    = "right"
	keyLeft     = "left"
	keyRetry    = "r"
	keyReload   = "R"
	keyStatus   = "s"
	keyEsc      = "esc"
)

// Shared lipgloss styles for the dashboard.
//
//nolint:gochecknoglobals // Package-level styles are idiomatic for lipgloss usage.
var (
	// HeaderStyle renders section headers such as the dashboard title.
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63"))

	// ActiveTabStyle highlights the currently selected tab.
	ActiveTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	// TabStyle renders visited but unselected tabs.
	TabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	// UnvisitedTabStyle renders tabs whose panels have never been fetched.
	UnvisitedTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	// PanelTitleStyle renders panel titles inside their boxes.
	PanelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252"))

	// BoxStyle draws the border around each panel.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	// LoadedMarkStyle colors the marker of a successfully loaded panel.
	LoadedMarkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	// SpinnerStyle colors the shared loading spinner.
	SpinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))

	// SubtleStyle renders placeholders, hints, and other secondary text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	// WarningStyle renders non-fatal problems such as dropped events.
	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	// CriticalStyle renders fetch errors and failed status markers.
	CriticalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	// FooterStyle renders the aggregate counts line.
	FooterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	// TableHeaderStyle styles the status overlay table header.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(lipgloss.Color("240"))

	// TableSelectedStyle styles the selected status overlay row.
	TableSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57"))
)
