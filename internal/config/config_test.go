package config

import (
	"os"
	"path/filepath"
	"testing"
)

// clearEnv unsets every REPATH_* variable for the duration of the test so
// the developer's own environment does not leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"REPATH_CONFIG", "REPATH_OUTPUT", "REPATH_RULES_FILE",
		"REPATH_FAIL_MODE", "REPATH_VERBOSE", "REPATH_NO_CONFINE",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Output != "table" {
		t.Errorf("Output = %q, want table", cfg.Output)
	}
	if cfg.FailMode != FailOpen {
		t.Errorf("FailMode = %q, want open", cfg.FailMode)
	}
	if !cfg.ConfineToProject {
		t.Error("ConfineToProject should default to true")
	}
	if cfg.Verbose {
		t.Error("Verbose should default to false")
	}
}

func TestMerge(t *testing.T) {
	dst := Default()
	confOff := &Config{ConfineToProject: false, ConfineToProjectSet: true}
	got := merge(dst, confOff)
	if got.ConfineToProject {
		t.Error("explicit false should override default true")
	}

	dst = Default()
	unset := &Config{ConfineToProject: false}
	got = merge(dst, unset)
	if !got.ConfineToProject {
		t.Error("unset confine flag should not override default")
	}

	dst = Default()
	src := &Config{Output: "json", FailMode: FailBlock, Verbose: true, AllowedBases: []string{"/x"}}
	got = merge(dst, src)
	if got.Output != "json" || got.FailMode != FailBlock || !got.Verbose {
		t.Errorf("merge dropped values: %+v", got)
	}
	if len(got.AllowedBases) != 1 || got.AllowedBases[0] != "/x" {
		t.Errorf("AllowedBases = %v", got.AllowedBases)
	}
}

func TestApplyEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("REPATH_OUTPUT", "json")
	t.Setenv("REPATH_FAIL_MODE", "block")
	t.Setenv("REPATH_VERBOSE", "1")
	t.Setenv("REPATH_NO_CONFINE", "true")

	cfg := applyEnv(Default())
	if cfg.Output != "json" {
		t.Errorf("Output = %q", cfg.Output)
	}
	if cfg.FailMode != FailBlock {
		t.Errorf("FailMode = %q", cfg.FailMode)
	}
	if !cfg.Verbose {
		t.Error("Verbose not applied")
	}
	if cfg.ConfineToProject {
		t.Error("REPATH_NO_CONFINE not applied")
	}
	if !cfg.ConfineToProjectSet {
		t.Error("ConfineToProjectSet not marked")
	}
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "output: json\nfail_mode: block\nconfine_to_project: false\nallowed_bases:\n  - /scratch\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadFromPath(path)
	if err != nil {
		t.Fatalf("loadFromPath() error = %v", err)
	}
	if cfg.Output != "json" || cfg.FailMode != "block" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.ConfineToProject || !cfg.ConfineToProjectSet {
		t.Error("confine_to_project: false should parse as explicitly set")
	}
	if len(cfg.AllowedBases) != 1 || cfg.AllowedBases[0] != "/scratch" {
		t.Errorf("AllowedBases = %v", cfg.AllowedBases)
	}
}

func TestLoadFromPathConfineOmitted(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("output: json\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadFromPath(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ConfineToProjectSet {
		t.Error("omitted confine_to_project should not be marked set")
	}
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	projPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(projPath, []byte("output: json\nfail_mode: block\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("REPATH_CONFIG", projPath)
	t.Setenv("REPATH_OUTPUT", "table")

	cfg, err := Load(&Config{FailMode: FailOpen})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Output != "table" {
		t.Errorf("env should beat project config: Output = %q", cfg.Output)
	}
	if cfg.FailMode != FailOpen {
		t.Errorf("flag should beat project config: FailMode = %q", cfg.FailMode)
	}
}

func TestResolveRulesFile(t *testing.T) {
	home := t.TempDir()
	cwd := t.TempDir()

	t.Run("explicit absolute", func(t *testing.T) {
		c := &Config{RulesFile: "/etc/repath/rules.json"}
		if got := c.ResolveRulesFile(cwd, home); got != "/etc/repath/rules.json" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("explicit relative", func(t *testing.T) {
		c := &Config{RulesFile: "my-rules.json"}
		want := filepath.Join(cwd, "my-rules.json")
		if got := c.ResolveRulesFile(cwd, home); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("explicit tilde", func(t *testing.T) {
		c := &Config{RulesFile: "~/rules.json"}
		want := filepath.Join(home, "rules.json")
		if got := c.ResolveRulesFile(cwd, home); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("fallback to project path when nothing exists", func(t *testing.T) {
		c := &Config{}
		want := filepath.Join(cwd, ConfigDirName, DefaultRulesName)
		if got := c.ResolveRulesFile(cwd, home); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("existing home file found", func(t *testing.T) {
		if err := os.MkdirAll(filepath.Join(home, ConfigDirName), 0755); err != nil {
			t.Fatal(err)
		}
		homeRules := filepath.Join(home, ConfigDirName, DefaultRulesName)
		if err := os.WriteFile(homeRules, []byte(`{"version":1}`), 0644); err != nil {
			t.Fatal(err)
		}
		c := &Config{}
		if got := c.ResolveRulesFile(cwd, home); got != homeRules {
			t.Errorf("got %q, want %q", got, homeRules)
		}
	})

	t.Run("existing project file beats home", func(t *testing.T) {
		if err := os.MkdirAll(filepath.Join(cwd, ConfigDirName), 0755); err != nil {
			t.Fatal(err)
		}
		projRules := filepath.Join(cwd, ConfigDirName, DefaultRulesName)
		if err := os.WriteFile(projRules, []byte(`{"version":1}`), 0644); err != nil {
			t.Fatal(err)
		}
		c := &Config{}
		if got := c.ResolveRulesFile(cwd, home); got != projRules {
			t.Errorf("got %q, want %q", got, projRules)
		}
	})
}

func TestResolveSources(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	projPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(projPath, []byte("output: json\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("REPATH_CONFIG", projPath)
	t.Setenv("REPATH_FAIL_MODE", "block")

	rc := Resolve("", true)
	if rc.Output.Source != SourceProject || rc.Output.Value != "json" {
		t.Errorf("Output = %+v", rc.Output)
	}
	if rc.FailMode.Source != SourceEnv || rc.FailMode.Value != "block" {
		t.Errorf("FailMode = %+v", rc.FailMode)
	}
	if rc.Verbose.Source != SourceFlag || rc.Verbose.Value != true {
		t.Errorf("Verbose = %+v", rc.Verbose)
	}
	if rc.ConfineToProject.Source != SourceDefault || rc.ConfineToProject.Value != true {
		t.Errorf("ConfineToProject = %+v", rc.ConfineToProject)
	}
}
