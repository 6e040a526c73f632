package plugin

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestParseManifest(t *testing.T) {
	data := []byte(`{
		"name": "repath",
		"version": "0.3.0",
		"description": "Path redirect hook",
		"author": {"name": "boshu2"},
		"hooks": "hooks/hooks.json",
		"commands": "commands"
	}`)

	m, err := ParseManifest(data)
	if err != nil {
		t.Fatalf("ParseManifest() error = %v", err)
	}
	if m.Name != "repath" || m.Version != "0.3.0" {
		t.Errorf("unexpected manifest: %+v", m)
	}
	if m.Hooks != "hooks/hooks.json" || m.Commands != "commands" {
		t.Errorf("unexpected paths: %+v", m)
	}
}

func TestManifestValidate(t *testing.T) {
	tests := []struct {
		name     string
		manifest Manifest
		wantErr  error
	}{
		{"missing name", Manifest{Version: "1.0.0"}, ErrNameMissing},
		{"missing version", Manifest{Name: "repath"}, ErrVersionMissing},
		{"hooks escape", Manifest{Name: "x", Version: "1", Hooks: "../hooks.json"}, ErrPathEscapes},
		{"commands escape", Manifest{Name: "x", Version: "1", Commands: "../../cmds"}, ErrPathEscapes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.manifest.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	ok := Manifest{Name: "repath", Version: "0.3.0", Hooks: "hooks/hooks.json"}
	if err := ok.Validate(); err != nil {
		t.Errorf("valid manifest rejected: %v", err)
	}
}

func TestLoadManifest(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, ManifestDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	content := `{"name": "repath", "version": "0.3.0"}`
	if err := os.WriteFile(filepath.Join(dir, "plugin.json"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadManifest(root)
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}
	if m.Name != "repath" {
		t.Errorf("Name = %q", m.Name)
	}

	if _, err := LoadManifest(t.TempDir()); err == nil {
		t.Error("expected error for missing manifest")
	}
}

func TestDiscoverCommands(t *testing.T) {
	dir := t.TempDir()

	withFM := "---\nname: zz-check\ndescription: Check a path\n---\n\nBody here.\n"
	if err := os.WriteFile(filepath.Join(dir, "check.md"), []byte(withFM), 0644); err != nil {
		t.Fatal(err)
	}
	// No frontmatter: name falls back to the file basename.
	if err := os.WriteFile(filepath.Join(dir, "aa-rules.md"), []byte("Just a body.\n"), 0644); err != nil {
		t.Fatal(err)
	}
	// Non-markdown files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0644); err != nil {
		t.Fatal(err)
	}

	cmds, err := DiscoverCommands(dir)
	if err != nil {
		t.Fatalf("DiscoverCommands() error = %v", err)
	}
	if len(cmds) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(cmds))
	}
	if cmds[0].Name != "aa-rules" || cmds[1].Name != "zz-check" {
		t.Errorf("unexpected order: %q, %q", cmds[0].Name, cmds[1].Name)
	}
	if cmds[1].Description != "Check a path" {
		t.Errorf("Description = %q", cmds[1].Description)
	}
}

func TestDiscoverCommandsMissingDir(t *testing.T) {
	if _, err := DiscoverCommands(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestDiscoverCommandsFS(t *testing.T) {
	fsys := fstest.MapFS{
		"commands/check.md": {Data: []byte("---\nname: check\ndescription: Check\n---\nBody.\n")},
		"commands/plain.md": {Data: []byte("No frontmatter.\n")},
		"commands/skip.txt": {Data: []byte("ignored")},
	}

	cmds, err := DiscoverCommandsFS(fsys, "commands")
	if err != nil {
		t.Fatalf("DiscoverCommandsFS() error = %v", err)
	}
	if len(cmds) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(cmds))
	}
	if cmds[0].Name != "check" || cmds[1].Name != "plain" {
		t.Errorf("unexpected names: %q, %q", cmds[0].Name, cmds[1].Name)
	}

	if _, err := DiscoverCommandsFS(fsys, "missing"); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestParseCommandBrokenFrontmatter(t *testing.T) {
	cmd := parseCommand([]byte("---\n: : :\n---\nbody"), "x.md")
	if cmd.Name != "" {
		t.Errorf("broken frontmatter should yield empty name, got %q", cmd.Name)
	}

	cmd = parseCommand([]byte("---\nname: open\n"), "x.md")
	if cmd.Name != "" {
		t.Errorf("unterminated frontmatter should yield empty name, got %q", cmd.Name)
	}
}
