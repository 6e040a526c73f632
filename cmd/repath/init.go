package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/boshu2/repath/embedded"
	"github.com/boshu2/repath/internal/config"
)

var (
	initForce bool
	initHooks bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize repath in the current repository",
	Long: `Set up a repository for repath: the .repath/ directory and a starter
rules file.

This creates:
  .repath/rules.json   - Starter rules (all disabled; edit and enable)

The starter rules are examples only and ship disabled so initializing
repath never changes write behavior by itself.

Use --hooks to also install the Claude Code hook.
Use --force to overwrite an existing rules file.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing rules file")
	initCmd.Flags().BoolVar(&initHooks, "hooks", false, "Also install the Claude Code hook")
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	dir := filepath.Join(cwd, config.ConfigDirName)
	rulesFile := filepath.Join(dir, config.DefaultRulesName)

	if _, err := os.Stat(rulesFile); err == nil && !initForce {
		fmt.Printf("%s already exists. Use --force to overwrite.\n", rulesFile)
		return nil
	}

	if GetDryRun() {
		fmt.Printf("[dry-run] Would write %s\n", rulesFile)
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	if err := os.WriteFile(rulesFile, embedded.RulesJSON, 0644); err != nil {
		return fmt.Errorf("write rules file: %w", err)
	}

	fmt.Printf("✓ Created %s\n", rulesFile)
	fmt.Println()
	fmt.Println("The starter rules are disabled. Edit the file, set \"enabled\": true")
	fmt.Println("on the rules you want, then run 'repath rules validate'.")

	if initHooks {
		fmt.Println()
		return runHooksInstall(cmd, nil)
	}

	fmt.Println()
	fmt.Println("Next: 'repath hooks install' to register the hook.")
	return nil
}
