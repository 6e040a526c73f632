// Package plugin loads and validates the Claude Code plugin packaging:
// the .claude-plugin/plugin.json manifest and the commands/*.md slash
// command definitions.
package plugin

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ManifestDir is the directory holding plugin.json, relative to the
// plugin root.
const ManifestDir = ".claude-plugin"

// Manifest is the plugin.json document.
type Manifest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	Author      Author `json:"author,omitempty"`
	// Hooks is the hooks manifest path relative to the plugin root.
	Hooks string `json:"hooks,omitempty"`
	// Commands is the slash command directory relative to the plugin root.
	Commands string `json:"commands,omitempty"`
}

// Author identifies the plugin author in plugin.json.
type Author struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// ParseManifest decodes and validates a plugin.json document.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse plugin manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadManifest reads <root>/.claude-plugin/plugin.json.
func LoadManifest(root string) (*Manifest, error) {
	path := filepath.Join(root, ManifestDir, "plugin.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plugin manifest: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Validate checks required manifest fields.
func (m *Manifest) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrNameMissing
	}
	if strings.TrimSpace(m.Version) == "" {
		return ErrVersionMissing
	}
	if strings.Contains(m.Hooks, "..") || strings.Contains(m.Commands, "..") {
		return ErrPathEscapes
	}
	return nil
}

// Command is one slash command parsed from a commands/*.md file.
type Command struct {
	// Name is the slash trigger without the leading slash, e.g. "repath-check".
	Name string
	// Description is shown in the command palette.
	Description string
	// Path is the source file, for diagnostics.
	Path string
}

// frontmatter is the YAML header of a command markdown file.
type frontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// DiscoverCommands parses every *.md file in dir into a Command,
// sorted by name. A file without frontmatter falls back to its basename.
func DiscoverCommands(dir string) ([]Command, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read commands directory: %w", err)
	}

	var cmds []Command
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read command %s: %w", e.Name(), err)
		}
		cmd := parseCommand(data, path)
		if cmd.Name == "" {
			cmd.Name = strings.TrimSuffix(e.Name(), ".md")
		}
		cmds = append(cmds, cmd)
	}

	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds, nil
}

// DiscoverCommandsFS is DiscoverCommands over an fs.FS, for commands
// compiled into the binary.
func DiscoverCommandsFS(fsys fs.FS, dir string) ([]Command, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read commands directory: %w", err)
	}

	var cmds []Command
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		name := path.Join(dir, e.Name())
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read command %s: %w", e.Name(), err)
		}
		cmd := parseCommand(data, name)
		if cmd.Name == "" {
			cmd.Name = strings.TrimSuffix(e.Name(), ".md")
		}
		cmds = append(cmds, cmd)
	}

	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds, nil
}

// parseCommand extracts YAML frontmatter delimited by "---" lines.
func parseCommand(data []byte, path string) Command {
	cmd := Command{Path: path}
	body := string(data)
	if !strings.HasPrefix(body, "---\n") {
		return cmd
	}
	rest := body[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return cmd
	}
	var fm frontmatter
	if err := yaml.Unmarshal([]byte(rest[:end]), &fm); err != nil {
		return cmd
	}
	cmd.Name = fm.Name
	cmd.Description = fm.Description
	return cmd
}
