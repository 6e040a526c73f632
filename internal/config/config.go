// Package config provides configuration management for repath.
// Configuration is loaded from (highest to lowest priority):
// 1. Command-line flags
// 2. Environment variables (REPATH_*)
// 3. Project config (.repath/config.yaml in cwd)
// 4. Home config (~/.repath/config.yaml)
// 5. Defaults
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Fail modes for safety rejections in the hook.
const (
	// FailOpen degrades a rejected redirect to a passthrough.
	FailOpen = "open"
	// FailBlock denies the write with the rejection reason.
	FailBlock = "block"
)

// DefaultRulesName is the rules file looked up in the project and home
// config directories when rules_file is not set.
const DefaultRulesName = "rules.json"

// ConfigDirName is the per-project and per-home repath directory.
const ConfigDirName = ".repath"

// Config holds all repath configuration.
type Config struct {
	// Output controls the default output format (table, json).
	Output string `yaml:"output" json:"output"`

	// Verbose enables verbose output.
	Verbose bool `yaml:"verbose" json:"verbose"`

	// RulesFile overrides the rules file location.
	// Default: .repath/rules.json in cwd, falling back to ~/.repath/rules.json.
	RulesFile string `yaml:"rules_file" json:"rules_file"`

	// FailMode controls what a safety rejection does: "open" (passthrough)
	// or "block" (deny the write).
	FailMode string `yaml:"fail_mode" json:"fail_mode"`

	// ConfineToProject requires redirect targets to stay under the event
	// cwd or an allowed base. Default: true.
	ConfineToProject bool `yaml:"confine_to_project" json:"confine_to_project"`

	// ConfineToProjectSet tracks whether ConfineToProject was explicitly set.
	// This allows distinguishing between "not set" and "explicitly set to false".
	ConfineToProjectSet bool `yaml:"-" json:"-"`

	// AllowedBases are extra directories redirects may target when confined.
	AllowedBases []string `yaml:"allowed_bases" json:"allowed_bases"`

	// ProtectedExtra extends the built-in protected directory list.
	ProtectedExtra []string `yaml:"protected_extra" json:"protected_extra"`
}

// Default config values (used in resolution and validation).
const (
	defaultOutput   = "table"
	defaultFailMode = FailOpen
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Output:           defaultOutput,
		Verbose:          false,
		FailMode:         defaultFailMode,
		ConfineToProject: true,
	}
}

// Load loads configuration with proper precedence.
// Priority: flags > env > project > home > defaults
func Load(flagOverrides *Config) (*Config, error) {
	cfg := Default()

	// Load home config
	homeConfig, _ := loadFromPath(homeConfigPath())
	if homeConfig != nil {
		cfg = merge(cfg, homeConfig)
	}

	// Load project config
	projectConfig, _ := loadFromPath(projectConfigPath())
	if projectConfig != nil {
		cfg = merge(cfg, projectConfig)
	}

	// Apply environment variables
	cfg = applyEnv(cfg)

	// Apply flag overrides
	if flagOverrides != nil {
		cfg = merge(cfg, flagOverrides)
	}

	return cfg, nil
}

// homeConfigPath returns the home config path.
func homeConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ConfigDirName, "config.yaml")
}

// projectConfigPath returns the project config path.
func projectConfigPath() string {
	if override := strings.TrimSpace(os.Getenv("REPATH_CONFIG")); override != "" {
		return override
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, ConfigDirName, "config.yaml")
}

// loadFromPath loads config from a YAML file. A file that mentions
// confine_to_project at all marks the value as explicitly set.
func loadFromPath(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	var keys map[string]any
	if err := yaml.Unmarshal(data, &keys); err == nil {
		if _, ok := keys["confine_to_project"]; ok {
			cfg.ConfineToProjectSet = true
		}
	}

	return &cfg, nil
}

// applyEnv applies environment variable overrides.
func applyEnv(cfg *Config) *Config {
	if v := os.Getenv("REPATH_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv("REPATH_RULES_FILE"); v != "" {
		cfg.RulesFile = v
	}
	if v := os.Getenv("REPATH_FAIL_MODE"); v != "" {
		cfg.FailMode = v
	}
	if os.Getenv("REPATH_VERBOSE") == "true" || os.Getenv("REPATH_VERBOSE") == "1" {
		cfg.Verbose = true
	}
	if v := os.Getenv("REPATH_NO_CONFINE"); v == "true" || v == "1" {
		cfg.ConfineToProject = false
		cfg.ConfineToProjectSet = true
	}
	return cfg
}

// mergeStr overwrites dst with src when src is non-empty.
func mergeStr(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

// merge merges src into dst, with src values taking precedence.
// For booleans, explicit tracking via a separate "set" flag is required.
func merge(dst, src *Config) *Config {
	mergeStr(&dst.Output, src.Output)
	mergeStr(&dst.RulesFile, src.RulesFile)
	mergeStr(&dst.FailMode, src.FailMode)
	if src.Verbose {
		dst.Verbose = true
	}
	if src.ConfineToProjectSet {
		dst.ConfineToProject = src.ConfineToProject
		dst.ConfineToProjectSet = true
	}
	if len(src.AllowedBases) > 0 {
		dst.AllowedBases = src.AllowedBases
	}
	if len(src.ProtectedExtra) > 0 {
		dst.ProtectedExtra = src.ProtectedExtra
	}
	return dst
}

// ResolveRulesFile returns the rules file the hook should load.
// Explicit config wins; otherwise an existing project file is preferred
// over an existing home file. Falls back to the project path when neither
// exists so callers get a stable location to report.
func (c *Config) ResolveRulesFile(cwd, home string) string {
	if c.RulesFile != "" {
		if strings.HasPrefix(c.RulesFile, "~/") && home != "" {
			return filepath.Join(home, c.RulesFile[2:])
		}
		if !filepath.IsAbs(c.RulesFile) && cwd != "" {
			return filepath.Join(cwd, c.RulesFile)
		}
		return c.RulesFile
	}

	project := filepath.Join(cwd, ConfigDirName, DefaultRulesName)
	if cwd != "" {
		if _, err := os.Stat(project); err == nil {
			return project
		}
	}
	if home != "" {
		homePath := filepath.Join(home, ConfigDirName, DefaultRulesName)
		if _, err := os.Stat(homePath); err == nil {
			return homePath
		}
	}
	return project
}

// Source represents where a config value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceHome    Source = "~/.repath/config.yaml"
	SourceProject Source = ".repath/config.yaml"
	SourceEnv     Source = "environment"
	SourceFlag    Source = "flag"
)

type resolved struct {
	Value  interface{} `json:"value"`
	Source Source      `json:"source"`
}

// ResolvedConfig shows config values with their sources.
type ResolvedConfig struct {
	Output           resolved `json:"output"`
	RulesFile        resolved `json:"rules_file"`
	FailMode         resolved `json:"fail_mode"`
	Verbose          resolved `json:"verbose"`
	ConfineToProject resolved `json:"confine_to_project"`
}

// resolveStringField resolves a string through the precedence chain.
func resolveStringField(home, project, env, flag, def string) resolved {
	result := resolved{Value: def, Source: SourceDefault}
	if home != "" {
		result = resolved{Value: home, Source: SourceHome}
	}
	if project != "" {
		result = resolved{Value: project, Source: SourceProject}
	}
	if env != "" {
		result = resolved{Value: env, Source: SourceEnv}
	}
	if flag != "" {
		result = resolved{Value: flag, Source: SourceFlag}
	}
	return result
}

// Resolve returns configuration with source tracking.
// Uses precedence chain: flags > env > project > home > defaults.
func Resolve(flagOutput string, flagVerbose bool) *ResolvedConfig {
	homeConfig, _ := loadFromPath(homeConfigPath())
	projectConfig, _ := loadFromPath(projectConfigPath())

	var homeOutput, homeRules, homeFailMode string
	var homeVerbose bool
	if homeConfig != nil {
		homeOutput = homeConfig.Output
		homeRules = homeConfig.RulesFile
		homeFailMode = homeConfig.FailMode
		homeVerbose = homeConfig.Verbose
	}

	var projectOutput, projectRules, projectFailMode string
	var projectVerbose bool
	if projectConfig != nil {
		projectOutput = projectConfig.Output
		projectRules = projectConfig.RulesFile
		projectFailMode = projectConfig.FailMode
		projectVerbose = projectConfig.Verbose
	}

	envOutput := os.Getenv("REPATH_OUTPUT")
	envRules := os.Getenv("REPATH_RULES_FILE")
	envFailMode := os.Getenv("REPATH_FAIL_MODE")

	rc := &ResolvedConfig{
		Output:           resolveStringField(homeOutput, projectOutput, envOutput, flagOutput, defaultOutput),
		RulesFile:        resolveStringField(homeRules, projectRules, envRules, "", ""),
		FailMode:         resolveStringField(homeFailMode, projectFailMode, envFailMode, "", defaultFailMode),
		Verbose:          resolved{Value: false, Source: SourceDefault},
		ConfineToProject: resolved{Value: true, Source: SourceDefault},
	}

	// Verbose: boolean with OR semantics through the chain.
	if homeVerbose {
		rc.Verbose = resolved{Value: true, Source: SourceHome}
	}
	if projectVerbose {
		rc.Verbose = resolved{Value: true, Source: SourceProject}
	}
	if os.Getenv("REPATH_VERBOSE") == "true" || os.Getenv("REPATH_VERBOSE") == "1" {
		rc.Verbose = resolved{Value: true, Source: SourceEnv}
	}
	if flagVerbose {
		rc.Verbose = resolved{Value: true, Source: SourceFlag}
	}

	// ConfineToProject: explicit-set tracking through the chain.
	if homeConfig != nil && homeConfig.ConfineToProjectSet {
		rc.ConfineToProject = resolved{Value: homeConfig.ConfineToProject, Source: SourceHome}
	}
	if projectConfig != nil && projectConfig.ConfineToProjectSet {
		rc.ConfineToProject = resolved{Value: projectConfig.ConfineToProject, Source: SourceProject}
	}
	if v := os.Getenv("REPATH_NO_CONFINE"); v == "true" || v == "1" {
		rc.ConfineToProject = resolved{Value: false, Source: SourceEnv}
	}

	return rc
}
