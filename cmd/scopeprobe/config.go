// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kraklabs/scopeprobe/internal/errors"
	"github.com/kraklabs/scopeprobe/internal/watch"
	"github.com/kraklabs/scopeprobe/pkg/scanner"
)

const (
	defaultConfigDir  = ".scopeprobe"
	defaultConfigFile = "probe.yaml"
	configVersion     = "1"

	// defaultTarget is the file the rawCandidates investigation was run against.
	defaultTarget = "supabase/functions/execute-radar/index.ts"
)

// errConfigNotFound is wrapped by the error findConfigFile returns when no
// project config exists, so callers can fall back to defaults.
var errConfigNotFound = stderrors.New("no project configuration")

// Config represents the .scopeprobe/probe.yaml configuration file.
type Config struct {
	Version  string           `yaml:"version" json:"version"`
	Target   string           `yaml:"target" json:"target"` // relative to the project root
	Patterns scanner.Patterns `yaml:"patterns" json:"patterns"`
	Watch    WatchConfig      `yaml:"watch" json:"watch"`
	Metrics  MetricsConfig    `yaml:"metrics,omitempty" json:"metrics,omitempty"`
}

// WatchConfig contains settings for the watch command.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce" json:"debounce"`
}

// MetricsConfig contains metrics export settings.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty" json:"textfile,omitempty"` // Prometheus textfile path
}

// DefaultConfig returns the configuration used when no probe.yaml exists.
func DefaultConfig() *Config {
	return &Config{
		Version:  configVersion,
		Target:   defaultTarget,
		Patterns: scanner.DefaultPatterns(),
		Watch: WatchConfig{
			Debounce: watch.DefaultDebounce,
		},
	}
}

// LoadConfig loads configuration from the specified path or finds it automatically.
//
// If configPath is empty, SCOPEPROBE_CONFIG_PATH is consulted, then
// .scopeprobe/probe.yaml is searched for in the current and parent directories.
// Fields missing from the file keep their defaults. Environment variables are
// applied after the file.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = os.Getenv("SCOPEPROBE_CONFIG_PATH")
	}
	if configPath == "" {
		var err error
		configPath, err = findConfigFile()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) //nolint:gosec // G304: Path comes from user config or discovery
	if err != nil {
		return nil, errors.NewConfigError(
			"Cannot read configuration file",
			fmt.Sprintf("Failed to read %s", configPath),
			"Check file permissions and ensure the file exists",
			err,
		)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.NewConfigError(
			"Invalid configuration format",
			"YAML parsing failed - the config file contains syntax errors",
			fmt.Sprintf("Edit %s to fix syntax errors, or run 'scopeprobe init --force' to recreate", configPath),
			err,
		)
	}

	if cfg.Version != configVersion {
		return nil, errors.NewConfigError(
			"Unsupported configuration version",
			fmt.Sprintf("Config version '%s' is not supported (expected '%s')", cfg.Version, configVersion),
			"Run 'scopeprobe init --force' to regenerate the configuration file",
			nil,
		)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Patterns.Validate(); err != nil {
		return nil, errors.NewConfigError(
			"Invalid scan patterns",
			fmt.Sprintf("%s: %v", configPath, err),
			"Set patterns.symbol, patterns.definition and patterns.usage, or delete them to use the defaults",
			err,
		)
	}

	return cfg, nil
}

// loadConfigOrDefault behaves like LoadConfig but returns the defaults when
// no configuration file was given or found.
func loadConfigOrDefault(configPath string) (*Config, error) {
	cfg, err := LoadConfig(configPath)
	if err == nil {
		return cfg, nil
	}
	if stderrors.Is(err, errConfigNotFound) {
		cfg = DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, nil
	}
	return nil, err
}

// SaveConfig writes the configuration to configPath as YAML, creating the
// directory if needed.
func SaveConfig(cfg *Config, configPath string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.NewInternalError(
			"Cannot encode configuration",
			"YAML marshaling failed unexpectedly",
			"This is a bug. Please report it with your configuration details",
			err,
		)
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return errors.NewPermissionError(
			"Cannot create configuration directory",
			fmt.Sprintf("Permission denied creating %s", dir),
			"Check directory permissions or run with appropriate privileges",
			err,
		)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return errors.NewPermissionError(
			"Cannot write configuration file",
			fmt.Sprintf("Permission denied writing to %s", configPath),
			"Check file permissions and ensure sufficient disk space",
			err,
		)
	}

	return nil
}

// ConfigPath returns <dir>/.scopeprobe/probe.yaml.
func ConfigPath(dir string) string {
	return filepath.Join(dir, defaultConfigDir, defaultConfigFile)
}

// findConfigFile walks up from the working directory looking for
// .scopeprobe/probe.yaml and returns the first match.
func findConfigFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", errors.NewInternalError(
			"Cannot access working directory",
			"Failed to determine current directory path",
			"Check system permissions and try again",
			err,
		)
	}

	for {
		configPath := ConfigPath(dir)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", errors.NewConfigError(
		"Configuration not found",
		"No .scopeprobe/probe.yaml file found in current directory or any parent directory",
		"Run 'scopeprobe init' to create a new configuration",
		errConfigNotFound,
	)
}

// applyEnvOverrides applies environment variable overrides to the configuration.
//
// Supported environment variables:
//   - SCOPEPROBE_SYMBOL: symbol name printed in messages
//   - SCOPEPROBE_DEFINITION: definition substring
//   - SCOPEPROBE_USAGE: usage substring
//   - SCOPEPROBE_METRICS_FILE: Prometheus textfile path
//
// SCOPEPROBE_TARGET is resolved separately by targetPath.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SCOPEPROBE_SYMBOL"); v != "" {
		c.Patterns.Symbol = v
	}
	if v := os.Getenv("SCOPEPROBE_DEFINITION"); v != "" {
		c.Patterns.Definition = v
	}
	if v := os.Getenv("SCOPEPROBE_USAGE"); v != "" {
		c.Patterns.Usage = v
	}
	if v := os.Getenv("SCOPEPROBE_METRICS_FILE"); v != "" {
		c.Metrics.Textfile = v
	}
}
