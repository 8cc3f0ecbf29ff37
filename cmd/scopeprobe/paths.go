// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"path/filepath"
)

// targetPath resolves the file to scan with precedence:
// command argument > SCOPEPROBE_TARGET > config target.
//
// The argument and the environment variable are relative to the working
// directory. A relative config target is relative to the project root, the
// directory that holds .scopeprobe/.
func targetPath(arg string, cfg *Config, configPath string) (string, error) {
	if arg != "" {
		return absPath(arg)
	}
	if env := os.Getenv("SCOPEPROBE_TARGET"); env != "" {
		return absPath(env)
	}

	target := defaultTarget
	if cfg != nil && cfg.Target != "" {
		target = cfg.Target
	}
	if filepath.IsAbs(target) {
		return filepath.Clean(target), nil
	}

	cfgFilePath, err := resolvedConfigPath(configPath)
	if err == nil {
		root := filepath.Dir(filepath.Dir(cfgFilePath))
		return filepath.Clean(filepath.Join(root, target)), nil
	}
	return absPath(target)
}

func resolvedConfigPath(configPath string) (string, error) {
	if configPath != "" {
		return absPath(configPath)
	}
	if envPath := os.Getenv("SCOPEPROBE_CONFIG_PATH"); envPath != "" {
		return absPath(envPath)
	}
	path, err := findConfigFile()
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return absPath(path)
}

func absPath(path string) (string, error) {
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}
