package main

import (
	"path/filepath"
	"testing"
)

func TestTargetPath_ArgumentWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("SCOPEPROBE_TARGET", "/tmp/from-env.ts")

	got, err := targetPath("/tmp/arg.ts", &Config{Target: "cfg.ts"}, "")
	if err != nil {
		t.Fatalf("targetPath() error = %v", err)
	}
	if got != "/tmp/arg.ts" {
		t.Fatalf("targetPath() = %q, want %q", got, "/tmp/arg.ts")
	}
}

func TestTargetPath_EnvOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("SCOPEPROBE_TARGET", "/tmp/from-env.ts")

	got, err := targetPath("", &Config{Target: "cfg.ts"}, "")
	if err != nil {
		t.Fatalf("targetPath() error = %v", err)
	}
	if got != "/tmp/from-env.ts" {
		t.Fatalf("targetPath() = %q, want %q", got, "/tmp/from-env.ts")
	}
}

func TestTargetPath_RelativeToProjectRoot(t *testing.T) {
	clearEnv(t)
	repo := t.TempDir()
	cfgPath := filepath.Join(repo, ".scopeprobe", "probe.yaml")

	got, err := targetPath("", &Config{Target: "supabase/functions/execute-radar/index.ts"}, cfgPath)
	if err != nil {
		t.Fatalf("targetPath() error = %v", err)
	}

	want := filepath.Join(repo, "supabase", "functions", "execute-radar", "index.ts")
	if got != want {
		t.Fatalf("targetPath() = %q, want %q", got, want)
	}
}

func TestTargetPath_DefaultWithoutConfig(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	chdir(t, dir)

	got, err := targetPath("", nil, "")
	if err != nil {
		t.Fatalf("targetPath() error = %v", err)
	}
	want, _ := filepath.Abs(defaultTarget)
	if got != want {
		t.Fatalf("targetPath() = %q, want %q", got, want)
	}
}

func TestAbsPath_CleansAbsolute(t *testing.T) {
	got, err := absPath("/tmp/a/../b.ts")
	if err != nil {
		t.Fatalf("absPath() error = %v", err)
	}
	if got != "/tmp/b.ts" {
		t.Fatalf("absPath() = %q, want %q", got, "/tmp/b.ts")
	}
}
