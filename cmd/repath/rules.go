package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	outpkg "github.com/boshu2/repath/internal/output"
	"github.com/boshu2/repath/internal/redirect"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List, check, and validate redirect rules",
	Long: `Work with the redirect rule set.

Subcommands:
  list      Show the loaded rules
  check     Dry-run a path through the decision engine
  validate  Parse and compile the rules file

Examples:
  repath rules list
  repath rules check notes/todo.md
  repath rules check --tool Edit src/main.go
  repath rules validate`,
}

var rulesCheckTool string

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the loaded rules",
	RunE:  runRulesList,
}

var rulesCheckCmd = &cobra.Command{
	Use:   "check <path>",
	Short: "Dry-run a path through the decision engine",
	Long: `Evaluate a path exactly as the hook would and print the decision:
whether a rule matched, which one, and where the write would land.`,
	Args: cobra.ExactArgs(1),
	RunE: runRulesCheck,
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Parse and compile the rules file",
	RunE:  runRulesValidate,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesCheckCmd)
	rulesCmd.AddCommand(rulesValidateCmd)

	rulesCheckCmd.Flags().StringVar(&rulesCheckTool, "tool", "Write", "Tool name for the simulated event")
}

// newPrinter builds the standard printer for rules/doctor output.
func newPrinter() *outpkg.Printer {
	jsonMode := GetOutput() == "json"
	isTTY := isatty.IsTerminal(os.Stdout.Fd())
	return outpkg.NewPrinter(os.Stdout, jsonMode, isTTY)
}

func runRulesList(cmd *cobra.Command, args []string) error {
	_, rulesFile, set, err := loadActiveRules()
	if err != nil {
		return err
	}
	p := newPrinter()
	if set == nil {
		if p.IsJSON() {
			return p.WriteJSON(map[string]any{"rules_file": rulesFile, "rules": []any{}})
		}
		p.Warnf("No rules file at %s", rulesFile)
		p.Println("Run 'repath init' to create one.")
		return nil
	}

	if p.IsJSON() {
		return p.WriteJSON(map[string]any{"rules_file": rulesFile, "rules": set.Rules})
	}

	p.Println(p.Styles().Dim.Render(rulesFile))
	headers := []string{"NAME", "PATTERN", "KIND", "DEST", "MODE", "ENABLED"}
	rows := make([][]string, 0, len(set.Rules))
	for i := range set.Rules {
		r := &set.Rules[i]
		kind := r.Kind
		if kind == "" {
			kind = "glob"
		}
		mode := r.Mode
		if mode == "" {
			mode = "dir"
		}
		rows = append(rows, []string{
			r.Name, r.Pattern, kind, r.Dest, mode, fmt.Sprintf("%t", r.IsEnabled()),
		})
	}
	p.Table(headers, rows)
	return nil
}

func runRulesCheck(cmd *cobra.Command, args []string) error {
	opts, rulesFile, set, err := loadActiveRules()
	if err != nil {
		return err
	}
	if set == nil {
		return fmt.Errorf("no rules file at %s (run 'repath init')", rulesFile)
	}

	engine, err := redirect.New(set, *opts)
	if err != nil {
		return err
	}

	d := engine.Evaluate(rulesCheckTool, args[0])

	p := newPrinter()
	if p.IsJSON() {
		return p.WriteJSON(d)
	}

	switch d.Action {
	case redirect.ActionRedirect:
		p.Successf("redirect (rule %q)", d.Rule)
		p.Print("  %s\n  → %s\n", d.Source, d.Target)
	case redirect.ActionBlock:
		p.Errorf("block (rule %q)", d.Rule)
		p.Print("  %s\n", d.Reason)
	default:
		p.Println("pass:", d.Reason)
	}
	return nil
}

func runRulesValidate(cmd *cobra.Command, args []string) error {
	_, rulesFile, set, err := loadActiveRules()
	if err != nil {
		return err
	}
	if set == nil {
		return fmt.Errorf("no rules file at %s (run 'repath init')", rulesFile)
	}
	if _, err := set.Compile(); err != nil {
		return err
	}

	names := make([]string, 0, len(set.Rules))
	for i := range set.Rules {
		if set.Rules[i].IsEnabled() {
			names = append(names, set.Rules[i].Name)
		}
	}

	p := newPrinter()
	if p.IsJSON() {
		return p.WriteJSON(map[string]any{
			"rules_file": rulesFile,
			"valid":      true,
			"rules":      len(set.Rules),
			"enabled":    names,
		})
	}
	p.Successf("✓ %s: %d rule(s) valid", rulesFile, len(set.Rules))
	if len(names) > 0 {
		p.Println("  enabled:", strings.Join(names, ", "))
	}
	return nil
}
