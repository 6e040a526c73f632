package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boshu2/repath/internal/config"
)

var (
	configShow bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and manage repath configuration.

Configuration priority (highest to lowest):
  1. Command-line flags
  2. Environment variables (REPATH_*)
  3. Project config (.repath/config.yaml)
  4. Home config (~/.repath/config.yaml)
  5. Defaults

Environment variables:
  REPATH_CONFIG      - Explicit config file path (overrides default project config location)
  REPATH_OUTPUT      - Default output format (table, json)
  REPATH_RULES_FILE  - Rules file path
  REPATH_FAIL_MODE   - Safety rejection behavior (open|block)
  REPATH_VERBOSE     - Enable verbose output (true/1)
  REPATH_NO_CONFINE  - Allow redirect targets outside the project (true/1)
  REPATH_DISABLED    - Kill switch: disable the hook entirely (true/1)

Examples:
  repath config --show           # Show resolved configuration
  repath config --show -o json   # Output as JSON`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().BoolVar(&configShow, "show", false, "Show resolved configuration with sources")
}

// loadCLIConfig loads the effective config for CLI commands.
func loadCLIConfig() (*config.Config, error) {
	return config.Load(nil)
}

func runConfig(cmd *cobra.Command, args []string) error {
	if !configShow {
		// Show help if no flags
		return cmd.Help()
	}

	flagOutput := ""
	if rootCmd.PersistentFlags().Changed("output") {
		flagOutput = GetOutput()
	}
	resolved := config.Resolve(flagOutput, GetVerbose())

	if GetOutput() == "json" {
		data, err := json.MarshalIndent(resolved, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Println("Resolved configuration:")
	fmt.Printf("  %-20s %-12v (%s)\n", "output", resolved.Output.Value, resolved.Output.Source)
	fmt.Printf("  %-20s %-12v (%s)\n", "rules_file", resolved.RulesFile.Value, resolved.RulesFile.Source)
	fmt.Printf("  %-20s %-12v (%s)\n", "fail_mode", resolved.FailMode.Value, resolved.FailMode.Source)
	fmt.Printf("  %-20s %-12v (%s)\n", "verbose", resolved.Verbose.Value, resolved.Verbose.Source)
	fmt.Printf("  %-20s %-12v (%s)\n", "confine_to_project", resolved.ConfineToProject.Value, resolved.ConfineToProject.Source)
	return nil
}
