// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"bytes"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/scopeprobe/internal/errors"
	"github.com/kraklabs/scopeprobe/internal/ui"
	"github.com/kraklabs/scopeprobe/pkg/scanner"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SCOPEPROBE_CONFIG_PATH",
		"SCOPEPROBE_TARGET",
		"SCOPEPROBE_SYMBOL",
		"SCOPEPROBE_DEFINITION",
		"SCOPEPROBE_USAGE",
		"SCOPEPROBE_METRICS_FILE",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := ConfigPath(dir)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, t.TempDir(), `version: "1"
target: src/index.ts
patterns:
  symbol: items
watch:
  debounce: 750ms
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "src/index.ts", cfg.Target)
	assert.Equal(t, "items", cfg.Patterns.Symbol)
	assert.Equal(t, scanner.DefaultDefinition, cfg.Patterns.Definition)
	assert.Equal(t, scanner.DefaultUsage, cfg.Patterns.Usage)
	assert.Equal(t, "//", cfg.Patterns.CommentMarker)
	assert.Equal(t, 750*time.Millisecond, cfg.Watch.Debounce)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, t.TempDir(), "version: \"1\"\n")
	t.Setenv("SCOPEPROBE_SYMBOL", "rows")
	t.Setenv("SCOPEPROBE_DEFINITION", "const rows: Row[]")
	t.Setenv("SCOPEPROBE_USAGE", "rows.forEach")
	t.Setenv("SCOPEPROBE_METRICS_FILE", "/tmp/scopeprobe.prom")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, scanner.Patterns{
		Symbol:        "rows",
		Definition:    "const rows: Row[]",
		Usage:         "rows.forEach",
		CommentMarker: "//",
	}, cfg.Patterns)
	assert.Equal(t, "/tmp/scopeprobe.prom", cfg.Metrics.Textfile)
}

func TestLoadConfig_Errors(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{name: "bad yaml", body: "version: [\n", wantMsg: "Invalid configuration format"},
		{name: "wrong version", body: "version: \"2\"\n", wantMsg: "Unsupported configuration version"},
		{name: "empty usage", body: "version: \"1\"\npatterns:\n  usage: \"\"\n", wantMsg: "Invalid scan patterns"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.body)
			_, err := LoadConfig(path)
			require.Error(t, err)

			var ue *errors.UserError
			require.True(t, stderrors.As(err, &ue))
			assert.Equal(t, errors.TypeConfig, ue.Type)
			assert.Equal(t, tt.wantMsg, ue.Message)
		})
	}
}

func TestFindConfigFile_WalksUp(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	want := writeConfig(t, root, "version: \"1\"\n")
	nested := filepath.Join(root, "supabase", "functions")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	chdir(t, nested)

	got, err := findConfigFile()
	require.NoError(t, err)

	wantResolved, err := filepath.EvalSymlinks(want)
	require.NoError(t, err)
	gotResolved, err := filepath.EvalSymlinks(got)
	require.NoError(t, err)
	assert.Equal(t, wantResolved, gotResolved)
}

func TestLoadConfigOrDefault_NoConfig(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())
	t.Setenv("SCOPEPROBE_SYMBOL", "items")

	cfg, err := loadConfigOrDefault("")
	require.NoError(t, err)

	assert.Equal(t, defaultTarget, cfg.Target)
	assert.Equal(t, "items", cfg.Patterns.Symbol)
	assert.Equal(t, scanner.DefaultDefinition, cfg.Patterns.Definition)
}

func TestLoadConfigOrDefault_ExplicitMissingPathFails(t *testing.T) {
	clearEnv(t)
	_, err := loadConfigOrDefault(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.False(t, stderrors.Is(err, errConfigNotFound))
}

func TestPrintConfig_WritesEverythingToWriter(t *testing.T) {
	var stdout bytes.Buffer
	oldOut, oldNoColor := ui.Out, color.NoColor
	ui.Out, color.NoColor = &stdout, true
	t.Cleanup(func() { ui.Out, color.NoColor = oldOut, oldNoColor })

	cfg := DefaultConfig()
	cfg.Metrics.Textfile = "/var/lib/node_exporter/scopeprobe.prom"

	var buf bytes.Buffer
	printConfig(&buf, ConfigOutput{TargetPath: "/repo/index.ts", Config: cfg})

	text := buf.String()
	assert.Empty(t, stdout.String())
	assert.Contains(t, text, "scopeprobe Configuration\n\n")
	assert.Contains(t, text, "(defaults, no probe.yaml found)")
	assert.Contains(t, text, "Patterns:\n  Symbol:          rawCandidates\n")
	assert.Contains(t, text, "Watch:\n  Debounce:        300ms\n")
	assert.Contains(t, text, "Metrics:\n  Textfile:        /var/lib/node_exporter/scopeprobe.prom\n")
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	clearEnv(t)
	path := ConfigPath(t.TempDir())
	cfg := DefaultConfig()
	cfg.Target = "app/main.ts"
	cfg.Watch.Debounce = time.Second

	require.NoError(t, SaveConfig(cfg, path))
	loaded, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, cfg, loaded)
}

func TestInitConfig(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	chdir(t, dir)

	path, err := initConfig("", "src/index.ts", false)
	require.NoError(t, err)
	assert.Equal(t, "probe.yaml", filepath.Base(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "src/index.ts", cfg.Target)

	_, err = initConfig("", "", false)
	require.Error(t, err)
	var ue *errors.UserError
	require.True(t, stderrors.As(err, &ue))
	assert.Equal(t, "Configuration already exists", ue.Message)

	_, err = initConfig("", "", true)
	require.NoError(t, err)
	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, defaultTarget, cfg.Target)
}
