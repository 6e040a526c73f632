// Package hookio implements the Claude Code hook wire protocol: the JSON
// event the runtime writes to the hook's stdin and the JSON decision the
// hook writes back on stdout.
//
// The envelope is dictated by the host runtime. See
// https://docs.anthropic.com/en/docs/claude-code/hooks
package hookio

import (
	"encoding/json"
	"fmt"
	"io"
)

// maxStdinBytes caps stdin reads. Hook payloads are small JSON objects;
// 1 MB is generous headroom that prevents unbounded allocation.
const maxStdinBytes = 1 << 20

// EventPreToolUse is the hook event this plugin handles.
const EventPreToolUse = "PreToolUse"

// Permission decisions the runtime accepts from a PreToolUse hook.
const (
	DecisionAllow = "allow"
	DecisionDeny  = "deny"
)

// Input is the JSON Claude Code sends on stdin to a PreToolUse hook.
type Input struct {
	SessionID      string          `json:"session_id"`
	TranscriptPath string          `json:"transcript_path"`
	CWD            string          `json:"cwd"`
	PermissionMode string          `json:"permission_mode"`
	HookEventName  string          `json:"hook_event_name"`
	ToolName       string          `json:"tool_name"`
	ToolInput      json.RawMessage `json:"tool_input"`
	ToolUseID      string          `json:"tool_use_id"`
}

// Output is the JSON a hook writes to stdout. Empty output (no write at
// all) means passthrough; this struct is only emitted for decisions.
type Output struct {
	HookSpecificOutput *Specific `json:"hookSpecificOutput,omitempty"`
}

// Specific carries the PreToolUse decision.
type Specific struct {
	HookEventName            string          `json:"hookEventName"`
	PermissionDecision       string          `json:"permissionDecision,omitempty"`
	PermissionDecisionReason string          `json:"permissionDecisionReason,omitempty"`
	UpdatedInput             json.RawMessage `json:"updatedInput,omitempty"`
}

// ReadInput decodes one hook event from r with a bounded read.
func ReadInput(r io.Reader) (*Input, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxStdinBytes))
	if err != nil {
		return nil, fmt.Errorf("read hook stdin: %w", err)
	}
	var input Input
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("parse hook input: %w", err)
	}
	return &input, nil
}

// PathField returns the tool_input key that names the write target for a
// given tool. NotebookEdit is the odd one out.
func PathField(tool string) string {
	if tool == "NotebookEdit" {
		return "notebook_path"
	}
	return "file_path"
}

// FilePath extracts the write target from tool_input. Returns "" when the
// field is absent or not a string.
func (in *Input) FilePath() string {
	fields, err := in.rawFields()
	if err != nil {
		return ""
	}
	raw, ok := fields[PathField(in.ToolName)]
	if !ok {
		return ""
	}
	var path string
	if err := json.Unmarshal(raw, &path); err != nil {
		return ""
	}
	return path
}

// WithFilePath returns tool_input with the path field replaced and every
// other field preserved byte-for-byte. Using json.RawMessage values keeps
// the runtime's own encoding of content, edits, and numbers intact.
func (in *Input) WithFilePath(newPath string) (json.RawMessage, error) {
	fields, err := in.rawFields()
	if err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(newPath)
	if err != nil {
		return nil, fmt.Errorf("encode path: %w", err)
	}
	fields[PathField(in.ToolName)] = encoded
	updated, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode tool_input: %w", err)
	}
	return updated, nil
}

func (in *Input) rawFields() (map[string]json.RawMessage, error) {
	if len(in.ToolInput) == 0 {
		return nil, fmt.Errorf("tool_input is empty")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(in.ToolInput, &fields); err != nil {
		return nil, fmt.Errorf("parse tool_input: %w", err)
	}
	return fields, nil
}

// WriteAllow emits an allow decision carrying a rewritten tool_input.
func WriteAllow(w io.Writer, updated json.RawMessage, reason string) error {
	return write(w, &Specific{
		HookEventName:            EventPreToolUse,
		PermissionDecision:       DecisionAllow,
		PermissionDecisionReason: reason,
		UpdatedInput:             updated,
	})
}

// WriteDeny emits a deny decision with a reason shown to the user.
func WriteDeny(w io.Writer, reason string) error {
	return write(w, &Specific{
		HookEventName:            EventPreToolUse,
		PermissionDecision:       DecisionDeny,
		PermissionDecisionReason: reason,
	})
}

func write(w io.Writer, s *Specific) error {
	return json.NewEncoder(w).Encode(Output{HookSpecificOutput: s})
}
