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
	"encoding/json"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/scopeprobe/internal/errors"
	"github.com/kraklabs/scopeprobe/internal/ui"
)

// ConfigOutput is the --json form of the effective configuration.
type ConfigOutput struct {
	ConfigPath string  `json:"config_path,omitempty"` // empty when running on defaults
	TargetPath string  `json:"target_path"`
	Config     *Config `json:"config"`
}

// runConfig executes the 'config' CLI command, displaying the effective
// configuration after defaults, file and environment are merged.
//
// Examples:
//
//	scopeprobe config
//	scopeprobe --json config | jq '.config.patterns'
func runConfig(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: scopeprobe config

Description:
  Display the effective configuration: defaults, overlaid with
  .scopeprobe/probe.yaml if one is found, overlaid with SCOPEPROBE_*
  environment variables.

`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	out, err := effectiveConfig(configPath)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	if globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			errors.FatalError(err, true)
		}
		return
	}
	printConfig(os.Stdout, out)
}

func effectiveConfig(configPath string) (ConfigOutput, error) {
	cfg, err := loadConfigOrDefault(configPath)
	if err != nil {
		return ConfigOutput{}, err
	}

	out := ConfigOutput{Config: cfg}
	if path, err := resolvedConfigPath(configPath); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			out.ConfigPath = path
		}
	}
	out.TargetPath, err = targetPath("", cfg, configPath)
	if err != nil {
		return ConfigOutput{}, err
	}
	return out, nil
}

func printConfig(w io.Writer, out ConfigOutput) {
	ui.Header(w, "scopeprobe Configuration")
	source := out.ConfigPath
	if source == "" {
		source = "(defaults, no probe.yaml found)"
	}
	fmt.Fprintf(w, "%s    %s\n", ui.Label("Config file:"), ui.DimText(source))
	fmt.Fprintf(w, "%s         %s\n", ui.Label("Target:"), out.TargetPath)
	fmt.Fprintln(w)

	ui.SubHeader(w, "Patterns:")
	p := out.Config.Patterns
	fmt.Fprintf(w, "  Symbol:          %s\n", p.Symbol)
	fmt.Fprintf(w, "  Definition:      %q\n", p.Definition)
	fmt.Fprintf(w, "  Usage:           %q\n", p.Usage)
	fmt.Fprintf(w, "  Comment marker:  %q\n", p.CommentMarker)
	fmt.Fprintln(w)

	ui.SubHeader(w, "Watch:")
	fmt.Fprintf(w, "  Debounce:        %s\n", out.Config.Watch.Debounce)
	if out.Config.Metrics.Textfile != "" {
		fmt.Fprintln(w)
		ui.SubHeader(w, "Metrics:")
		fmt.Fprintf(w, "  Textfile:        %s\n", out.Config.Metrics.Textfile)
	}
}
