package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/boshu2/repath/internal/hookio"
)

// testProject is a fictional project root. The engine never stats source or
// target paths, so the directory does not need to exist.
const testProject = "/project/demo"

// hookTestEnv isolates runPreWrite from the developer's real config: HOME
// points at an empty temp dir and every REPATH_* variable is reset.
func hookTestEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{
		"REPATH_DISABLED", "REPATH_CONFIG", "REPATH_OUTPUT",
		"REPATH_RULES_FILE", "REPATH_FAIL_MODE", "REPATH_VERBOSE",
		"REPATH_NO_CONFINE",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

// writeRules writes a rules file and points REPATH_RULES_FILE at it.
func writeRules(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("REPATH_RULES_FILE", path)
}

func event(cwd, tool, path string) string {
	return fmt.Sprintf(`{
		"session_id": "s1",
		"cwd": %q,
		"hook_event_name": "PreToolUse",
		"tool_name": %q,
		"tool_input": {"file_path": %q, "content": "x"}
	}`, cwd, tool, path)
}

func runHook(t *testing.T, stdin string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	if err := runPreWrite(strings.NewReader(stdin), &buf); err != nil {
		t.Fatalf("runPreWrite() error = %v", err)
	}
	return &buf
}

func decodeOutput(t *testing.T, buf *bytes.Buffer) *hookio.Specific {
	t.Helper()
	var out hookio.Output
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("hook output not valid JSON: %v\n%s", err, buf.String())
	}
	if out.HookSpecificOutput == nil {
		t.Fatal("missing hookSpecificOutput")
	}
	return out.HookSpecificOutput
}

func TestRunPreWriteRedirect(t *testing.T) {
	hookTestEnv(t)
	writeRules(t, `{"version": 1, "rules": [
		{"name": "docs", "pattern": "*.md", "dest": "docs"}
	]}`)

	buf := runHook(t, event(testProject, "Write", testProject+"/notes.md"))
	s := decodeOutput(t, buf)

	if s.PermissionDecision != hookio.DecisionAllow {
		t.Errorf("decision = %q, want allow", s.PermissionDecision)
	}
	if !strings.Contains(s.PermissionDecisionReason, `rule "docs"`) {
		t.Errorf("reason = %q", s.PermissionDecisionReason)
	}

	var input map[string]json.RawMessage
	if err := json.Unmarshal(s.UpdatedInput, &input); err != nil {
		t.Fatalf("updatedInput not valid JSON: %v", err)
	}
	var path string
	if err := json.Unmarshal(input["file_path"], &path); err != nil {
		t.Fatal(err)
	}
	if want := testProject + "/docs/notes.md"; path != want {
		t.Errorf("file_path = %q, want %q", path, want)
	}
	if string(input["content"]) != `"x"` {
		t.Errorf("content field not preserved: %s", input["content"])
	}
}

func TestRunPreWritePassthroughNoMatch(t *testing.T) {
	hookTestEnv(t)
	writeRules(t, `{"version": 1, "rules": [
		{"name": "docs", "pattern": "*.md", "dest": "docs"}
	]}`)

	buf := runHook(t, event(testProject, "Write", testProject+"/main.go"))
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %s", buf.String())
	}
}

func TestRunPreWriteNoRulesFile(t *testing.T) {
	hookTestEnv(t)

	buf := runHook(t, event(testProject, "Write", testProject+"/notes.md"))
	if buf.Len() != 0 {
		t.Errorf("expected passthrough without rules file, got %s", buf.String())
	}
}

func TestRunPreWriteKillSwitch(t *testing.T) {
	hookTestEnv(t)
	writeRules(t, `{"version": 1, "rules": [
		{"name": "docs", "pattern": "*.md", "dest": "docs"}
	]}`)
	t.Setenv("REPATH_DISABLED", "1")

	buf := runHook(t, event(testProject, "Write", testProject+"/notes.md"))
	if buf.Len() != 0 {
		t.Errorf("kill switch ignored, got %s", buf.String())
	}
}

func TestRunPreWriteWrongEvent(t *testing.T) {
	hookTestEnv(t)
	input := `{"hook_event_name": "PostToolUse", "tool_name": "Write",
		"tool_input": {"file_path": "/project/demo/x.md"}}`

	buf := runHook(t, input)
	if buf.Len() != 0 {
		t.Errorf("expected no output for non-PreToolUse event, got %s", buf.String())
	}
}

func TestRunPreWriteMalformedStdin(t *testing.T) {
	hookTestEnv(t)

	// Fail-open: garbage on stdin must not error and must not emit output.
	buf := runHook(t, "not json at all")
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %s", buf.String())
	}
}

func TestRunPreWriteOversizedEvent(t *testing.T) {
	hookTestEnv(t)
	writeRules(t, `{"version": 1, "rules": [
		{"name": "docs", "pattern": "*.md", "dest": "docs"}
	]}`)

	// A payload past the stdin cap truncates to invalid JSON; the hook
	// fails open instead of emitting a decision.
	big := strings.Repeat("a", 2<<20)
	input := fmt.Sprintf(`{
		"cwd": %q,
		"hook_event_name": "PreToolUse",
		"tool_name": "Write",
		"tool_input": {"file_path": %q, "content": %q}
	}`, testProject, testProject+"/notes.md", big)

	buf := runHook(t, input)
	if buf.Len() != 0 {
		t.Errorf("expected no output for oversized event, got %d bytes", buf.Len())
	}
}

func TestRunPreWriteNoPathField(t *testing.T) {
	hookTestEnv(t)
	input := `{"hook_event_name": "PreToolUse", "tool_name": "Write",
		"tool_input": {"content": "no path here"}}`

	buf := runHook(t, input)
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %s", buf.String())
	}
}

func TestRunPreWriteFailModes(t *testing.T) {
	hookTestEnv(t)
	writeRules(t, `{"version": 1, "rules": [
		{"name": "bad", "pattern": "*.md", "dest": "/etc/notes"}
	]}`)

	// Default fail mode is open: the rejected redirect degrades to a pass.
	buf := runHook(t, event(testProject, "Write", testProject+"/a.md"))
	if buf.Len() != 0 {
		t.Errorf("fail-open should passthrough, got %s", buf.String())
	}

	t.Setenv("REPATH_FAIL_MODE", "block")
	buf = runHook(t, event(testProject, "Write", testProject+"/a.md"))
	s := decodeOutput(t, buf)
	if s.PermissionDecision != hookio.DecisionDeny {
		t.Errorf("decision = %q, want deny", s.PermissionDecision)
	}
	if !strings.Contains(s.PermissionDecisionReason, "protected") {
		t.Errorf("reason = %q", s.PermissionDecisionReason)
	}
}

func TestRunPreWriteNotebookEdit(t *testing.T) {
	hookTestEnv(t)
	writeRules(t, `{"version": 1, "rules": [
		{"name": "nb", "pattern": "*.ipynb", "dest": "notebooks"}
	]}`)

	input := fmt.Sprintf(`{
		"cwd": %q,
		"hook_event_name": "PreToolUse",
		"tool_name": "NotebookEdit",
		"tool_input": {"notebook_path": %q, "new_source": "print(1)"}
	}`, testProject, testProject+"/scratch.ipynb")

	buf := runHook(t, input)
	s := decodeOutput(t, buf)
	if s.PermissionDecision != hookio.DecisionAllow {
		t.Fatalf("decision = %q, want allow", s.PermissionDecision)
	}

	var ti map[string]json.RawMessage
	if err := json.Unmarshal(s.UpdatedInput, &ti); err != nil {
		t.Fatal(err)
	}
	var path string
	if err := json.Unmarshal(ti["notebook_path"], &path); err != nil {
		t.Fatal(err)
	}
	if want := testProject + "/notebooks/scratch.ipynb"; path != want {
		t.Errorf("notebook_path = %q, want %q", path, want)
	}
}

func TestRunPreWriteBrokenRulesFile(t *testing.T) {
	hookTestEnv(t)
	writeRules(t, `{"version": 99}`)

	// A broken rules file must not block the write.
	buf := runHook(t, event(testProject, "Write", testProject+"/a.md"))
	if buf.Len() != 0 {
		t.Errorf("expected passthrough on broken rules, got %s", buf.String())
	}
}
