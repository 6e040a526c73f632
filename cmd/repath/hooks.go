package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/boshu2/repath/embedded"
	"github.com/boshu2/repath/internal/hookio"
	"github.com/boshu2/repath/internal/redirect"
	"github.com/boshu2/repath/internal/rules"
)

var (
	hooksOutputFormat string
	hooksForce        bool
)

// HookEntry represents a single hook command (e.g., {"type": "command", "command": "..."}).
type HookEntry struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Timeout int    `json:"timeout,omitempty"`
}

// HookGroup represents a hook group with optional matcher and a hooks array.
// Claude Code format: {"matcher": "Write|Edit", "hooks": [{"type": "command", "command": "..."}]}
type HookGroup struct {
	Matcher string      `json:"matcher,omitempty"`
	Hooks   []HookEntry `json:"hooks"`
}

// writeMatcher covers every tool that targets a file path.
const writeMatcher = "Write|Edit|MultiEdit|NotebookEdit"

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Manage the Claude Code hook for repath",
	Long: `The hooks command manages the PreToolUse hook that routes file writes
through repath.

Subcommands:
  init       Print the hook configuration
  install    Install the hook into ~/.claude/settings.json
  show       Display current hook configuration
  uninstall  Remove repath hooks from settings
  test       Verify the hook works end to end

Example workflow:
  repath init                       # Create a rules file
  repath hooks install              # Register the hook
  repath hooks test                 # Verify everything works`,
}

var hooksInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Print the hook configuration",
	Long: `Print the Claude Code hooks configuration for repath.

Output formats:
  json     JSON for manual settings.json editing
  shell    The hook command for manual verification`,
	RunE: runHooksInit,
}

var hooksInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the hook into Claude Code settings",
	Long: `Install the repath PreToolUse hook into ~/.claude/settings.json.

This command:
  1. Reads existing settings.json (if any)
  2. Merges the repath hook with existing configuration
  3. Creates a backup of the original settings
  4. Writes the updated configuration

Existing non-repath hooks are left untouched.
Use --force to overwrite an existing repath hook.`,
	RunE: runHooksInstall,
}

var hooksShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current hook configuration",
	Long:  `Display the current Claude Code hooks configuration from ~/.claude/settings.json.`,
	RunE:  runHooksShow,
}

var hooksUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove repath hooks from Claude Code settings",
	RunE:  runHooksUninstall,
}

var hooksTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Test the hook configuration",
	Long: `Test that the repath hook is installed and working.

This command:
  1. Verifies repath is in PATH
  2. Checks the settings.json hook entry
  3. Parses the active rules file
  4. Round-trips a sample event through the decision engine`,
	RunE: runHooksTest,
}

func init() {
	rootCmd.AddCommand(hooksCmd)
	hooksCmd.AddCommand(hooksInitCmd)
	hooksCmd.AddCommand(hooksInstallCmd)
	hooksCmd.AddCommand(hooksShowCmd)
	hooksCmd.AddCommand(hooksUninstallCmd)
	hooksCmd.AddCommand(hooksTestCmd)

	hooksInitCmd.Flags().StringVar(&hooksOutputFormat, "format", "json", "Output format: json, shell")
	hooksInstallCmd.Flags().BoolVar(&hooksForce, "force", false, "Overwrite an existing repath hook")
}

// hooksManifest wraps the hooks.json file format which has a top-level "hooks" key.
type hooksManifest struct {
	Hooks map[string][]HookGroup `json:"hooks"`
}

// ReadHooksManifest parses a hooks.json manifest from raw bytes.
// The manifest wraps events in a top-level "hooks" key and may contain a "$schema" key.
func ReadHooksManifest(data []byte) (map[string][]HookGroup, error) {
	var manifest hooksManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse hooks manifest: %w", err)
	}
	if manifest.Hooks == nil {
		return nil, fmt.Errorf("hooks manifest missing 'hooks' key")
	}
	return manifest.Hooks, nil
}

// generateHookGroups returns the PreToolUse groups to install. The command
// invokes the binary by name: install assumes repath is on PATH, which
// `hooks test` verifies.
func generateHookGroups() []HookGroup {
	return []HookGroup{
		{
			Matcher: writeMatcher,
			Hooks: []HookEntry{
				{Type: "command", Command: "repath hook pre-write", Timeout: 10},
			},
		},
	}
}

func runHooksInit(cmd *cobra.Command, args []string) error {
	switch hooksOutputFormat {
	case "json":
		wrapper := map[string]any{
			"hooks": map[string]any{
				hookio.EventPreToolUse: generateHookGroups(),
			},
		}
		data, err := json.MarshalIndent(wrapper, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal hooks: %w", err)
		}
		fmt.Println(string(data))

	case "shell":
		fmt.Println("# PreToolUse hook (file-write redirection)")
		fmt.Println("echo '{\"tool_name\":\"Write\",\"tool_input\":{\"file_path\":\"notes.md\"}}' | repath hook pre-write")

	default:
		return fmt.Errorf("unknown format: %s (use json or shell)", hooksOutputFormat)
	}

	return nil
}

// settingsPath returns the Claude Code settings.json location.
func settingsPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".claude", "settings.json"), nil
}

func loadSettings(path string) (map[string]any, error) {
	rawSettings := make(map[string]any)
	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, &rawSettings); err != nil {
			return nil, fmt.Errorf("parse existing settings: %w", err)
		}
		return rawSettings, nil
	}
	if os.IsNotExist(err) {
		return rawSettings, nil
	}
	return nil, fmt.Errorf("read settings: %w", err)
}

func backupSettings(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	backupPath := fmt.Sprintf("%s.backup.%s", path, time.Now().Format("20060102-150405"))
	if err := os.WriteFile(backupPath, data, 0644); err != nil {
		return fmt.Errorf("create backup: %w", err)
	}
	fmt.Printf("Backed up existing settings to %s\n", backupPath)
	return nil
}

func writeSettings(path string, rawSettings map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create .claude directory: %w", err)
	}
	data, err := json.MarshalIndent(rawSettings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// isRepathHookCommand reports whether a hook command string belongs to repath.
func isRepathHookCommand(cmd string) bool {
	return strings.Contains(cmd, "repath hook")
}

// groupIsRepathManaged checks whether a raw hook group contains a repath command.
func groupIsRepathManaged(group map[string]any) bool {
	hooks, ok := group["hooks"].([]any)
	if !ok {
		return false
	}
	for _, h := range hooks {
		hook, ok := h.(map[string]any)
		if !ok {
			continue
		}
		if cmd, ok := hook["command"].(string); ok && isRepathHookCommand(cmd) {
			return true
		}
	}
	return false
}

// hasRepathHook checks if any PreToolUse group in the hooks map is repath-managed.
func hasRepathHook(hooksMap map[string]any) bool {
	groups, ok := hooksMap[hookio.EventPreToolUse].([]any)
	if !ok {
		return false
	}
	for _, g := range groups {
		group, ok := g.(map[string]any)
		if !ok {
			continue
		}
		if groupIsRepathManaged(group) {
			return true
		}
	}
	return false
}

// filterNonRepathGroups returns the PreToolUse groups that don't contain repath commands.
func filterNonRepathGroups(hooksMap map[string]any) []map[string]any {
	result := make([]map[string]any, 0)
	groups, ok := hooksMap[hookio.EventPreToolUse].([]any)
	if !ok {
		return result
	}
	for _, g := range groups {
		group, ok := g.(map[string]any)
		if !ok {
			continue
		}
		if !groupIsRepathManaged(group) {
			result = append(result, group)
		}
	}
	return result
}

// hookGroupToMap converts a HookGroup to a map for JSON serialization.
func hookGroupToMap(g HookGroup) map[string]any {
	hooks := make([]map[string]any, len(g.Hooks))
	for i, h := range g.Hooks {
		entry := map[string]any{
			"type":    h.Type,
			"command": h.Command,
		}
		if h.Timeout > 0 {
			entry["timeout"] = h.Timeout
		}
		hooks[i] = entry
	}
	result := map[string]any{
		"hooks": hooks,
	}
	if g.Matcher != "" {
		result["matcher"] = g.Matcher
	}
	return result
}

// cloneHooksMap copies the hooks section of the raw settings.
func cloneHooksMap(rawSettings map[string]any) map[string]any {
	hooksMap := make(map[string]any)
	if existing, ok := rawSettings["hooks"].(map[string]any); ok {
		for k, v := range existing {
			hooksMap[k] = v
		}
	}
	return hooksMap
}

func runHooksInstall(cmd *cobra.Command, args []string) error {
	path, err := settingsPath()
	if err != nil {
		return err
	}

	rawSettings, err := loadSettings(path)
	if err != nil {
		return err
	}

	hooksMap := cloneHooksMap(rawSettings)
	if hasRepathHook(hooksMap) && !hooksForce {
		fmt.Println("repath hook already installed. Use --force to overwrite.")
		return nil
	}

	groups := filterNonRepathGroups(hooksMap)
	for _, g := range generateHookGroups() {
		groups = append(groups, hookGroupToMap(g))
	}
	hooksMap[hookio.EventPreToolUse] = groups
	rawSettings["hooks"] = hooksMap

	if GetDryRun() {
		fmt.Println("[dry-run] Would write to", path)
		data, err := json.MarshalIndent(rawSettings, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal hooks settings: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if err := backupSettings(path); err != nil {
		return err
	}
	if err := writeSettings(path, rawSettings); err != nil {
		return err
	}

	fmt.Printf("✓ Installed repath hook to %s\n", path)
	fmt.Println()
	fmt.Printf("  PreToolUse (%s): repath hook pre-write\n", writeMatcher)
	fmt.Println()
	fmt.Println("Run 'repath hooks test' to verify the installation.")
	return nil
}

func runHooksUninstall(cmd *cobra.Command, args []string) error {
	path, err := settingsPath()
	if err != nil {
		return err
	}

	rawSettings, err := loadSettings(path)
	if err != nil {
		return err
	}

	hooksMap := cloneHooksMap(rawSettings)
	if !hasRepathHook(hooksMap) {
		fmt.Println("No repath hook found in", path)
		return nil
	}

	remaining := filterNonRepathGroups(hooksMap)
	if len(remaining) == 0 {
		delete(hooksMap, hookio.EventPreToolUse)
	} else {
		hooksMap[hookio.EventPreToolUse] = remaining
	}
	rawSettings["hooks"] = hooksMap

	if GetDryRun() {
		fmt.Println("[dry-run] Would remove repath hook from", path)
		return nil
	}

	if err := backupSettings(path); err != nil {
		return err
	}
	if err := writeSettings(path, rawSettings); err != nil {
		return err
	}
	fmt.Println("✓ Removed repath hook from", path)
	return nil
}

func runHooksShow(cmd *cobra.Command, args []string) error {
	path, err := settingsPath()
	if err != nil {
		return err
	}

	rawSettings, err := loadSettings(path)
	if err != nil {
		return err
	}

	hooksMap, ok := rawSettings["hooks"].(map[string]any)
	if !ok || len(hooksMap) == 0 {
		fmt.Println("No hooks configured in", path)
		fmt.Println("Run 'repath hooks install' to set up the hook.")
		return nil
	}

	groups, _ := hooksMap[hookio.EventPreToolUse].([]any)
	fmt.Printf("PreToolUse: %d group(s)\n", len(groups))
	for _, g := range groups {
		group, ok := g.(map[string]any)
		if !ok {
			continue
		}
		matcher, _ := group["matcher"].(string)
		managed := ""
		if groupIsRepathManaged(group) {
			managed = " (repath)"
		}
		fmt.Printf("  matcher %q%s\n", matcher, managed)
	}

	fmt.Println()
	if hasRepathHook(hooksMap) {
		fmt.Println("✓ repath hook is installed")
	} else {
		fmt.Println("⚠ repath hook not found. Run 'repath hooks install' to set up.")
	}
	return nil
}

func runBinaryPathTest(testNum int, allPassed *bool) {
	fmt.Printf("%d. Checking repath is in PATH... ", testNum)
	binPath, err := exec.LookPath("repath")
	if err != nil {
		fmt.Println("✗ FAILED")
		fmt.Println("   repath not found in PATH. Ensure repath is installed and in your PATH.")
		*allPassed = false
		return
	}
	fmt.Printf("✓ found at %s\n", binPath)
}

func runSettingsEntryTest(testNum int, allPassed *bool) {
	fmt.Printf("%d. Checking Claude settings... ", testNum)
	path, err := settingsPath()
	if err != nil {
		fmt.Println("✗ FAILED")
		*allPassed = false
		return
	}
	rawSettings, err := loadSettings(path)
	if err != nil {
		fmt.Println("✗ FAILED")
		fmt.Printf("   %v\n", err)
		*allPassed = false
		return
	}
	hooksMap, _ := rawSettings["hooks"].(map[string]any)
	if hooksMap == nil || !hasRepathHook(hooksMap) {
		fmt.Println("⚠ hook not installed")
		fmt.Println("   Run 'repath hooks install' to set up the hook.")
		return
	}
	fmt.Println("✓ hook entry present")
}

func runRulesParseTest(testNum int, allPassed *bool) {
	fmt.Printf("%d. Parsing rules file... ", testNum)
	_, rulesFile, set, err := loadActiveRules()
	if err != nil {
		fmt.Println("✗ FAILED")
		fmt.Printf("   %v\n", err)
		*allPassed = false
		return
	}
	if set == nil {
		fmt.Println("⚠ no rules file")
		fmt.Println("   Run 'repath init' to create one.")
		return
	}
	enabled := 0
	for i := range set.Rules {
		if set.Rules[i].IsEnabled() {
			enabled++
		}
	}
	fmt.Printf("✓ %s: %d rule(s), %d enabled\n", rulesFile, len(set.Rules), enabled)
}

func runEngineRoundTripTest(testNum int, allPassed *bool) {
	fmt.Printf("%d. Round-tripping a sample event... ", testNum)
	sample := `{"hook_event_name":"PreToolUse","tool_name":"Write","tool_input":{"file_path":"repath-selftest.md","content":""}}`
	var buf bytes.Buffer
	if err := runPreWrite(strings.NewReader(sample), &buf); err != nil {
		fmt.Println("✗ FAILED")
		fmt.Printf("   %v\n", err)
		*allPassed = false
		return
	}
	if buf.Len() == 0 {
		fmt.Println("✓ passthrough (no rule matched the sample)")
		return
	}
	var out hookio.Output
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil || out.HookSpecificOutput == nil {
		fmt.Println("✗ FAILED")
		fmt.Println("   hook emitted invalid JSON")
		*allPassed = false
		return
	}
	fmt.Printf("✓ decision: %s\n", out.HookSpecificOutput.PermissionDecision)
}

func runHooksTest(cmd *cobra.Command, args []string) error {
	fmt.Println("Testing repath hook configuration...")
	fmt.Println()

	allPassed := true
	testNum := 0

	testNum++
	runBinaryPathTest(testNum, &allPassed)

	testNum++
	runSettingsEntryTest(testNum, &allPassed)

	testNum++
	runRulesParseTest(testNum, &allPassed)

	testNum++
	runEngineRoundTripTest(testNum, &allPassed)

	fmt.Println()
	if allPassed {
		fmt.Println("✓ All tests passed! The hook is ready to use.")
	} else {
		fmt.Println("⚠ Some tests failed. Please fix the issues above.")
	}

	return nil
}

// loadActiveRules resolves and loads the rules file the hook would use.
// Returns a nil set when no rules file exists.
func loadActiveRules() (*redirect.Options, string, *rules.RuleSet, error) {
	cwd, _ := os.Getwd()
	home, _ := os.UserHomeDir()

	cfg, err := loadCLIConfig()
	if err != nil {
		return nil, "", nil, err
	}

	rulesFile := cfg.ResolveRulesFile(cwd, home)
	if _, err := os.Stat(rulesFile); err != nil {
		return nil, rulesFile, nil, nil
	}

	set, err := rules.Load(rulesFile)
	if err != nil {
		return nil, rulesFile, nil, err
	}

	opts := &redirect.Options{
		CWD:              cwd,
		Home:             home,
		ConfineToProject: cfg.ConfineToProject,
		AllowedBases:     cfg.AllowedBases,
		ProtectedExtra:   cfg.ProtectedExtra,
	}
	return opts, rulesFile, set, nil
}

// embeddedHooksManifest parses the compiled-in hooks.json, used by doctor
// to confirm the shipped manifest is well formed.
func embeddedHooksManifest() (map[string][]HookGroup, error) {
	return ReadHooksManifest(embedded.HooksJSON)
}
