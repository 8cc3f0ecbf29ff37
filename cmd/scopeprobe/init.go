// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/scopeprobe/internal/errors"
	"github.com/kraklabs/scopeprobe/internal/ui"
)

// runInit executes the 'init' CLI command, writing .scopeprobe/probe.yaml
// with default patterns into the current directory.
func runInit(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.BoolP("force", "f", false, "Overwrite an existing configuration")
	target := fs.String("target", "", "File to scan by default, relative to this directory")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: scopeprobe init [options]

Description:
  Create .scopeprobe/probe.yaml in the current directory with the
  default rawCandidates patterns. Edit it to track another declaration.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	path, err := initConfig(configPath, *target, *force)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	if !globals.Quiet {
		ui.Successf("Created %s", path)
		fmt.Println()
		fmt.Println("Next steps:")
		fmt.Println("  scopeprobe scan     Scan the configured target")
		fmt.Println("  scopeprobe config   Review the effective configuration")
	}
}

// initConfig writes a default config and returns its path.
func initConfig(configPath, target string, force bool) (string, error) {
	path := configPath
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", errors.NewInternalError(
				"Cannot access working directory",
				"Failed to determine current directory path",
				"Check system permissions and try again",
				err,
			)
		}
		path = ConfigPath(cwd)
	}

	if _, err := os.Stat(path); err == nil && !force {
		return "", errors.NewInputError(
			"Configuration already exists",
			fmt.Sprintf("%s is already present", path),
			"Run 'scopeprobe init --force' to overwrite it",
		)
	}

	cfg := DefaultConfig()
	if target != "" {
		cfg.Target = target
	}
	if err := SaveConfig(cfg, path); err != nil {
		return "", err
	}
	return path, nil
}
