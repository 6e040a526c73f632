package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/boshu2/repath/embedded"
	"github.com/boshu2/repath/internal/plugin"
)

var pluginCmd = &cobra.Command{
	Use:   "plugin",
	Short: "Inspect the plugin packaging",
	Long: `Work with the Claude Code plugin packaging: the .claude-plugin/plugin.json
manifest and the commands/ slash command definitions.`,
}

var pluginVerifyCmd = &cobra.Command{
	Use:   "verify [dir]",
	Short: "Validate the plugin manifest and slash commands",
	Long: `Validate a plugin checkout: plugin.json fields, the hooks manifest it
points at, and the slash command frontmatter. Defaults to the current
directory. Without a checkout, the packaging compiled into the binary is
verified instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPluginVerify,
}

func init() {
	rootCmd.AddCommand(pluginCmd)
	pluginCmd.AddCommand(pluginVerifyCmd)
}

func runPluginVerify(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	return verifyPlugin(root, os.Stdout)
}

func verifyPlugin(root string, w io.Writer) error {
	manifest, err := plugin.LoadManifest(root)
	if errors.Is(err, fs.ErrNotExist) {
		return verifyEmbeddedPlugin(w)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "✓ plugin.json: %s v%s\n", manifest.Name, manifest.Version)

	if manifest.Hooks != "" {
		data, err := os.ReadFile(filepath.Join(root, manifest.Hooks))
		if err != nil {
			return fmt.Errorf("read hooks manifest: %w", err)
		}
		groups, err := ReadHooksManifest(data)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "✓ %s: %d PreToolUse group(s)\n", manifest.Hooks, len(groups["PreToolUse"]))
	}

	if manifest.Commands != "" {
		cmds, err := plugin.DiscoverCommands(filepath.Join(root, manifest.Commands))
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "✓ %s/: %d slash command(s)\n", manifest.Commands, len(cmds))
		for _, c := range cmds {
			fmt.Fprintf(w, "    /%s: %s\n", c.Name, c.Description)
		}
	}

	return nil
}

// verifyEmbeddedPlugin checks the packaging compiled into the binary.
func verifyEmbeddedPlugin(w io.Writer) error {
	fmt.Fprintln(w, "No plugin checkout found; verifying embedded packaging.")

	manifest, err := plugin.ParseManifest(embedded.PluginJSON)
	if err != nil {
		return fmt.Errorf("embedded plugin.json: %w", err)
	}
	fmt.Fprintf(w, "✓ plugin.json (embedded): %s v%s\n", manifest.Name, manifest.Version)

	groups, err := embeddedHooksManifest()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "✓ hooks.json (embedded): %d PreToolUse group(s)\n", len(groups["PreToolUse"]))

	cmds, err := plugin.DiscoverCommandsFS(embedded.CommandsFS, "commands")
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "✓ commands (embedded): %d slash command(s)\n", len(cmds))
	for _, c := range cmds {
		fmt.Fprintf(w, "    /%s: %s\n", c.Name, c.Description)
	}
	return nil
}
