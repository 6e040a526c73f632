package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/boshu2/repath/embedded"
	"github.com/boshu2/repath/internal/config"
	"github.com/boshu2/repath/internal/plugin"
)

var doctorJSON bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check repath health",
	Long: `Run health checks on your repath installation.

Validates that all required components are present and configured.
Optional components are reported as warnings but do not cause failure.

Examples:
  repath doctor
  repath doctor --json`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "Output results as JSON")
	rootCmd.AddCommand(doctorCmd)
}

type doctorCheck struct {
	Name     string `json:"name"`
	Status   string `json:"status"` // "pass", "warn", "fail"
	Detail   string `json:"detail"`
	Required bool   `json:"required"`
}

type doctorOutput struct {
	Checks  []doctorCheck `json:"checks"`
	Result  string        `json:"result"` // "HEALTHY", "DEGRADED", "UNHEALTHY"
	Summary string        `json:"summary"`
}

// gatherDoctorChecks runs all doctor checks and returns the results.
func gatherDoctorChecks() []doctorCheck {
	return []doctorCheck{
		{Name: "repath CLI", Status: "pass", Detail: fmt.Sprintf("v%s", version), Required: true},
		checkBinaryOnPath(),
		checkHookEntry(),
		checkRulesFile(),
		checkEmbeddedManifest(),
		checkFailMode(),
	}
}

func checkBinaryOnPath() doctorCheck {
	c := doctorCheck{Name: "binary on PATH", Required: true}
	path, err := exec.LookPath("repath")
	if err != nil {
		c.Status = "fail"
		c.Detail = "repath not found in PATH; the installed hook cannot run"
		return c
	}
	c.Status = "pass"
	c.Detail = path
	return c
}

func checkHookEntry() doctorCheck {
	c := doctorCheck{Name: "settings hook entry", Required: true}
	path, err := settingsPath()
	if err != nil {
		c.Status = "fail"
		c.Detail = err.Error()
		return c
	}
	rawSettings, err := loadSettings(path)
	if err != nil {
		c.Status = "fail"
		c.Detail = err.Error()
		return c
	}
	hooksMap, _ := rawSettings["hooks"].(map[string]any)
	if hooksMap == nil || !hasRepathHook(hooksMap) {
		c.Status = "fail"
		c.Detail = "no repath PreToolUse entry; run 'repath hooks install'"
		return c
	}
	c.Status = "pass"
	c.Detail = path
	return c
}

func checkRulesFile() doctorCheck {
	c := doctorCheck{Name: "rules file", Required: true}
	_, rulesFile, set, err := loadActiveRules()
	if err != nil {
		c.Status = "fail"
		c.Detail = err.Error()
		return c
	}
	if set == nil {
		c.Status = "warn"
		c.Detail = fmt.Sprintf("%s missing; run 'repath init'", rulesFile)
		return c
	}
	if _, err := set.Compile(); err != nil {
		c.Status = "fail"
		c.Detail = err.Error()
		return c
	}
	enabled := 0
	for i := range set.Rules {
		if set.Rules[i].IsEnabled() {
			enabled++
		}
	}
	if enabled == 0 {
		c.Status = "warn"
		c.Detail = fmt.Sprintf("%s: no enabled rules", rulesFile)
		return c
	}
	c.Status = "pass"
	c.Detail = fmt.Sprintf("%s: %d enabled rule(s)", rulesFile, enabled)
	return c
}

func checkEmbeddedManifest() doctorCheck {
	c := doctorCheck{Name: "embedded assets", Required: false}
	manifest, err := embeddedHooksManifest()
	if err != nil {
		c.Status = "fail"
		c.Detail = err.Error()
		return c
	}
	if len(manifest["PreToolUse"]) == 0 {
		c.Status = "fail"
		c.Detail = "embedded hooks manifest has no PreToolUse group"
		return c
	}
	if _, err := plugin.ParseManifest(embedded.PluginJSON); err != nil {
		c.Status = "fail"
		c.Detail = err.Error()
		return c
	}
	c.Status = "pass"
	c.Detail = "ok"
	return c
}

func checkFailMode() doctorCheck {
	c := doctorCheck{Name: "fail mode", Required: false}
	cfg, err := loadCLIConfig()
	if err != nil {
		c.Status = "fail"
		c.Detail = err.Error()
		return c
	}
	switch cfg.FailMode {
	case config.FailOpen, config.FailBlock:
		c.Status = "pass"
		c.Detail = cfg.FailMode
	default:
		c.Status = "warn"
		c.Detail = fmt.Sprintf("unknown fail_mode %q, hook treats it as open", cfg.FailMode)
	}
	return c
}

// summarizeDoctorChecks derives the overall result from individual checks.
func summarizeDoctorChecks(checks []doctorCheck) (string, string) {
	failures, warnings := 0, 0
	for _, c := range checks {
		switch c.Status {
		case "fail":
			failures++
		case "warn":
			warnings++
		}
	}
	switch {
	case failures > 0:
		return "UNHEALTHY", fmt.Sprintf("%d check(s) failed", failures)
	case warnings > 0:
		return "DEGRADED", fmt.Sprintf("%d warning(s)", warnings)
	default:
		return "HEALTHY", "all checks passed"
	}
}

func runDoctor(cmd *cobra.Command, args []string) error {
	checks := gatherDoctorChecks()
	result, summary := summarizeDoctorChecks(checks)

	if doctorJSON || GetOutput() == "json" {
		p := newPrinter()
		return p.WriteJSON(doctorOutput{Checks: checks, Result: result, Summary: summary})
	}

	fmt.Println("repath doctor")
	fmt.Println()
	for _, c := range checks {
		glyph := "✓"
		switch c.Status {
		case "warn":
			glyph = "⚠"
		case "fail":
			glyph = "✗"
		}
		fmt.Printf("  %s %-26s %s\n", glyph, c.Name, c.Detail)
	}
	fmt.Println()
	fmt.Printf("%s: %s\n", result, summary)

	if result == "UNHEALTHY" {
		os.Exit(1)
	}
	return nil
}
