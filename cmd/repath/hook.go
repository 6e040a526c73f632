package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/boshu2/repath/internal/config"
	"github.com/boshu2/repath/internal/hookio"
	"github.com/boshu2/repath/internal/redirect"
	"github.com/boshu2/repath/internal/rules"
)

// killSwitchEnv disables the hook entirely when set to a truthy value.
const killSwitchEnv = "REPATH_DISABLED"

var hookCmd = &cobra.Command{
	Use:    "hook",
	Short:  "Hook handlers invoked by Claude Code",
	Hidden: true,
}

var hookPreWriteCmd = &cobra.Command{
	Use:   "pre-write",
	Short: "PreToolUse handler that rewrites file-write targets by rule",
	Long: `Reads one PreToolUse event from stdin, evaluates the write target
against the configured rules, and emits an updatedInput decision on stdout
when a redirect applies.

Invoked by the Claude Code hook system, not directly. The handler never
blocks the assistant: on any internal failure it exits 0 with no output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPreWrite(os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(hookCmd)
	hookCmd.AddCommand(hookPreWriteCmd)
}

// killSwitchSet reports whether the operator disabled the hook via env.
func killSwitchSet() bool {
	v := os.Getenv(killSwitchEnv)
	return v == "1" || v == "true"
}

// runPreWrite is the hook hot path. Every early return without output is a
// passthrough; the assistant proceeds with the write it asked for.
func runPreWrite(stdin io.Reader, stdout io.Writer) error {
	if killSwitchSet() {
		return nil
	}

	input, err := hookio.ReadInput(stdin)
	if err != nil {
		VerbosePrintf("repath: %v\n", err)
		return nil
	}
	if input.HookEventName != "" && input.HookEventName != hookio.EventPreToolUse {
		return nil
	}

	path := input.FilePath()
	if path == "" {
		return nil
	}

	cwd := input.CWD
	if cwd == "" {
		cwd, _ = os.Getwd()
	}
	home, _ := os.UserHomeDir()

	cfg, err := config.Load(nil)
	if err != nil {
		VerbosePrintf("repath: load config: %v\n", err)
		return nil
	}

	engine, err := buildEngine(cfg, cwd, home)
	if err != nil {
		VerbosePrintf("repath: %v\n", err)
		return nil
	}
	if engine == nil {
		// No rules file: nothing to do.
		return nil
	}

	return emitDecision(stdout, input, engine.Evaluate(input.ToolName, path), cfg.FailMode)
}

// buildEngine loads the rules file and constructs the engine.
// Returns (nil, nil) when no rules file exists.
func buildEngine(cfg *config.Config, cwd, home string) (*redirect.Engine, error) {
	rulesFile := cfg.ResolveRulesFile(cwd, home)
	if _, err := os.Stat(rulesFile); err != nil {
		return nil, nil
	}

	set, err := rules.Load(rulesFile)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	engine, err := redirect.New(set, redirect.Options{
		CWD:              cwd,
		Home:             home,
		ConfineToProject: cfg.ConfineToProject,
		AllowedBases:     cfg.AllowedBases,
		ProtectedExtra:   cfg.ProtectedExtra,
	})
	if err != nil {
		return nil, fmt.Errorf("compile rules: %w", err)
	}
	return engine, nil
}

// emitDecision maps an engine decision onto the hook protocol.
func emitDecision(stdout io.Writer, input *hookio.Input, d redirect.Decision, failMode string) error {
	switch d.Action {
	case redirect.ActionRedirect:
		updated, err := input.WithFilePath(d.Target)
		if err != nil {
			VerbosePrintf("repath: rewrite tool_input: %v\n", err)
			return nil
		}
		reason := fmt.Sprintf("repath: rule %q redirected %s to %s", d.Rule, d.Source, d.Target)
		if err := hookio.WriteAllow(stdout, updated, reason); err != nil {
			VerbosePrintf("repath: %v\n", err)
		}
		return nil

	case redirect.ActionBlock:
		if failMode != config.FailBlock {
			VerbosePrintf("repath: fail-open pass: %s\n", d.Reason)
			return nil
		}
		reason := fmt.Sprintf("repath: redirect rejected: %s", d.Reason)
		if err := hookio.WriteDeny(stdout, reason); err != nil {
			VerbosePrintf("repath: %v\n", err)
		}
		return nil

	default:
		return nil
	}
}
