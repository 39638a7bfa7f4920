package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/mosaic/internal/config"
)

// NewValidateCmd creates the validate command for checking dashboard files.
func NewValidateCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a dashboard config file",
		Long: `Validate parses the dashboard config and checks its schema version, tab
and panel ids, and every panel's source definition, without fetching
anything.`,
		Example: `  # Validate mosaic.yaml in the current directory
  mosaic validate

  # Validate a specific file and list its tabs and panels
  mosaic validate --config infra.yaml --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd, verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed config information")
	return cmd
}

// runValidate executes the configuration validation logic.
func runValidate(cmd *cobra.Command, verbose bool) error {
	path := configPath(cmd)
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	cmd.Printf("✅ %s is valid\n", path)
	if verbose {
		printConfigDetails(cmd, cfg)
	}
	return nil
}

// printConfigDetails prints the dashboard structure for --verbose.
func printConfigDetails(cmd *cobra.Command, cfg *config.Config) {
	cmd.Println()
	cmd.Println("Dashboard details:")
	cmd.Printf("  Version: %s\n", cfg.Version)
	if cfg.Title != "" {
		cmd.Printf("  Title: %s\n", cfg.Title)
	}
	cmd.Printf("  Fetch limit: %d\n", cfg.FetchLimit)
	if cfg.Refresh > 0 {
		cmd.Printf("  Refresh after: %s\n", cfg.Refresh.Std())
	}
	cmd.Printf("  Tabs: %d\n", len(cfg.Tabs))

	defaultID := cfg.DefaultTab().ID
	for _, tab := range cfg.Tabs {
		marker := ""
		if tab.ID == defaultID {
			marker = " (default)"
		}
		cmd.Printf("    - %s%s\n", tab.GetTitle(), marker)
		for _, panel := range tab.Panels {
			cmd.Printf("        %s [%s]\n", panel.ID, panel.Source.Type)
		}
	}
}
