// Package config loads and validates mosaic dashboard configuration.
//
// A dashboard is described in YAML: tabs group panels, each panel names
// a data source. The schema is versioned; this build accepts any 1.x
// config. Package config also builds the runtime orchestrator from a
// validated config and hot-reloads it when the file changes.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/rshade/mosaic/internal/source"
)

// SchemaConstraint is the config version range this build understands.
const SchemaConstraint = "^1"

// DefaultVersion is assumed when a config omits the version field.
const DefaultVersion = "1.0"

// DefaultFetchLimit caps concurrent fetches when the config does not
// set one.
const DefaultFetchLimit = 4

// Config validation errors.
var (
	ErrUnsupportedVersion = errors.New("unsupported config version")
	ErrNoTabs             = errors.New("config needs at least one tab")
	ErrNoPanels           = errors.New("tab has no panels")
	ErrMissingID          = errors.New("missing id")
	ErrDuplicateTab       = errors.New("duplicate tab id")
	ErrDuplicatePanel     = errors.New("duplicate panel id")
	ErrMultipleDefaults   = errors.New("more than one default tab")
	ErrNegativeFetchLimit = errors.New("fetch_limit cannot be negative")
	ErrNegativeRefresh    = errors.New("refresh cannot be negative")
)

// Config is the root of a dashboard description.
type Config struct {
	// Version is the config schema version. Must satisfy "^1".
	// Defaults to DefaultVersion when omitted.
	Version string `yaml:"version,omitempty" json:"version,omitempty"`

	// Title is shown in the dashboard header.
	Title string `yaml:"title,omitempty" json:"title,omitempty"`

	// FetchLimit caps how many panel fetches run at once. Defaults to
	// DefaultFetchLimit; 0 in the file means "use the default".
	FetchLimit int `yaml:"fetch_limit,omitempty" json:"fetch_limit,omitempty"`

	// Refresh is the data age after which a visible panel is refetched
	// on demand. Zero disables staleness-based refresh.
	Refresh Duration `yaml:"refresh,omitempty" json:"refresh,omitempty"`

	// Log configures file logging for the TUI, where stderr is in use
	// by the interface itself.
	Log LogConfig `yaml:"log,omitempty" json:"log,omitempty"`

	// Tabs are the dashboard's regions, in display order.
	Tabs []TabConfig `yaml:"tabs" json:"tabs"`
}

// LogConfig mirrors the logging package's settings in the config file.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"  json:"level,omitempty"`
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
	File   string `yaml:"file,omitempty"   json:"file,omitempty"`
}

// TabConfig is one dashboard tab. Panels in non-default tabs are not
// fetched until the tab is first visited.
type TabConfig struct {
	ID      string        `yaml:"id"                json:"id"`
	Title   string        `yaml:"title,omitempty"   json:"title,omitempty"`
	Default bool          `yaml:"default,omitempty" json:"default,omitempty"`
	Panels  []PanelConfig `yaml:"panels"            json:"panels"`
}

// PanelConfig is one dashboard panel backed by a data source. Panel ids
// are the engine's section ids and must be unique across all tabs.
type PanelConfig struct {
	ID     string       `yaml:"id"              json:"id"`
	Title  string       `yaml:"title,omitempty" json:"title,omitempty"`
	Source SourceConfig `yaml:"source"          json:"source"`
}

// SourceConfig is the YAML shape of a panel's data source. Only the
// fields for the chosen type apply.
type SourceConfig struct {
	Type     string            `yaml:"type"                json:"type"`
	URL      string            `yaml:"url,omitempty"       json:"url,omitempty"`
	Method   string            `yaml:"method,omitempty"    json:"method,omitempty"`
	Headers  map[string]string `yaml:"headers,omitempty"   json:"headers,omitempty"`
	Command  []string          `yaml:"command,omitempty"   json:"command,omitempty"`
	Dir      string            `yaml:"dir,omitempty"       json:"dir,omitempty"`
	Lines    []string          `yaml:"lines,omitempty"     json:"lines,omitempty"`
	Delay    Duration          `yaml:"delay,omitempty"     json:"delay,omitempty"`
	Fail     string            `yaml:"fail,omitempty"      json:"fail,omitempty"`
	Timeout  Duration          `yaml:"timeout,omitempty"   json:"timeout,omitempty"`
	MaxLines int               `yaml:"max_lines,omitempty" json:"max_lines,omitempty"`
}

// NewSource constructs the runtime source this block describes.
func (s SourceConfig) NewSource() (source.Source, error) {
	return source.New(source.Config{
		Type:     s.Type,
		URL:      s.URL,
		Method:   s.Method,
		Headers:  s.Headers,
		Command:  s.Command,
		Dir:      s.Dir,
		Lines:    s.Lines,
		Delay:    s.Delay.Std(),
		Fail:     s.Fail,
		Timeout:  s.Timeout.Std(),
		MaxLines: s.MaxLines,
	})
}

// Load reads, parses, and validates the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates raw YAML. Unknown fields are rejected so
// typos fail loudly instead of silently configuring nothing.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("config is empty")
		}
		return nil, fmt.Errorf("parsing: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Version == "" {
		c.Version = DefaultVersion
	}
	if c.FetchLimit == 0 {
		c.FetchLimit = DefaultFetchLimit
	}
}

// Validate checks the whole config tree. It is called by Parse; callers
// constructing a Config in code can invoke it directly.
func (c *Config) Validate() error {
	if err := c.validateVersion(); err != nil {
		return err
	}
	if c.FetchLimit < 0 {
		return fmt.Errorf("%w: got %d", ErrNegativeFetchLimit, c.FetchLimit)
	}
	if c.Refresh < 0 {
		return fmt.Errorf("%w: got %s", ErrNegativeRefresh, c.Refresh.Std())
	}
	if len(c.Tabs) == 0 {
		return ErrNoTabs
	}

	seenTabs := make(map[string]bool, len(c.Tabs))
	seenPanels := make(map[string]bool)
	defaults := 0
	for _, tab := range c.Tabs {
		if tab.ID == "" {
			return fmt.Errorf("%w: tab", ErrMissingID)
		}
		if seenTabs[tab.ID] {
			return fmt.Errorf("%w: %q", ErrDuplicateTab, tab.ID)
		}
		seenTabs[tab.ID] = true
		if tab.Default {
			defaults++
		}
		if len(tab.Panels) == 0 {
			return fmt.Errorf("%w: %q", ErrNoPanels, tab.ID)
		}

		for _, panel := range tab.Panels {
			if panel.ID == "" {
				return fmt.Errorf("%w: panel in tab %q", ErrMissingID, tab.ID)
			}
			if seenPanels[panel.ID] {
				return fmt.Errorf("%w: %q", ErrDuplicatePanel, panel.ID)
			}
			seenPanels[panel.ID] = true

			if _, err := panel.Source.NewSource(); err != nil {
				return fmt.Errorf("panel %q: %w", panel.ID, err)
			}
		}
	}

	if defaults > 1 {
		return ErrMultipleDefaults
	}
	return nil
}

func (c *Config) validateVersion() error {
	v, err := semver.NewVersion(c.Version)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrUnsupportedVersion, c.Version, err)
	}
	constraint, err := semver.NewConstraint(SchemaConstraint)
	if err != nil {
		return fmt.Errorf("parsing schema constraint: %w", err)
	}
	if !constraint.Check(v) {
		return fmt.Errorf("%w: %q does not satisfy %q", ErrUnsupportedVersion, c.Version, SchemaConstraint)
	}
	return nil
}

// DefaultTab returns the tab marked default, or the first tab when none
// is marked. Call only on a validated config.
func (c *Config) DefaultTab() TabConfig {
	for _, tab := range c.Tabs {
		if tab.Default {
			return tab
		}
	}
	return c.Tabs[0]
}

// SectionIDs returns every panel id across all tabs in display order.
func (c *Config) SectionIDs() []string {
	var ids []string
	for _, tab := range c.Tabs {
		ids = append(ids, tab.PanelIDs()...)
	}
	return ids
}

// Tab returns the tab with the given id.
func (c *Config) Tab(id string) (TabConfig, bool) {
	for _, tab := range c.Tabs {
		if tab.ID == id {
			return tab, true
		}
	}
	return TabConfig{}, false
}

// PanelIDs returns the tab's panel ids in display order.
func (t TabConfig) PanelIDs() []string {
	ids := make([]string, 0, len(t.Panels))
	for _, panel := range t.Panels {
		ids = append(ids, panel.ID)
	}
	return ids
}

// GetTitle returns the tab's display title, falling back to its id.
func (t TabConfig) GetTitle() string {
	if t.Title != "" {
		return t.Title
	}
	return t.ID
}

// GetTitle returns the panel's display title, falling back to its id.
func (p PanelConfig) GetTitle() string {
	if p.Title != "" {
		return p.Title
	}
	return p.ID
}

// Duration wraps time.Duration so YAML configs can write "30s" or
// "500ms".
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\": %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration in Go's compact form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}
