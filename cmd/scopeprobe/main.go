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

// Package main implements the scopeprobe CLI, which tracks brace depth
// through a source file and reports where a declaration's scope opens and
// closes.
//
// Usage:
//
//	scopeprobe scan [file]          Report definition, close and usage lines
//	scopeprobe watch [file]         Rescan whenever the file changes
//	scopeprobe check [file]         Compare heuristic depth with a syntax tree
//	scopeprobe init                 Create .scopeprobe/probe.yaml
//	scopeprobe config [--json]      Show effective configuration
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/kraklabs/scopeprobe/internal/ui"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GlobalFlags holds the global CLI flags that apply to all commands.
type GlobalFlags struct {
	JSON    bool // Output in JSON format
	NoColor bool // Disable color output
	Verbose int  // 0=warnings, 1=-v (info), 2=-vv (debug)
	Quiet   bool // Suppress non-essential output
}

// newLogger builds the stderr logger for a command. Diagnostics own stdout.
func newLogger(globals GlobalFlags) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case globals.Quiet:
		level = slog.LevelError
	case globals.Verbose >= 2:
		level = slog.LevelDebug
	case globals.Verbose == 1:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func usage(w io.Writer) {
	fmt.Fprintf(w, `scopeprobe - brace-depth scope probe

Tracks brace nesting through a single source file and reports where a
declaration is introduced, where its enclosing block closes, and every
line that matches a usage pattern.

Usage:
  scopeprobe [global options] <command> [options]

Commands:
  scan          Scan a file and print diagnostics (default target from config)
  watch         Scan, then rescan every time the file changes
  check         Compare the naive depth with a Tree-sitter syntax tree
  init          Create .scopeprobe/probe.yaml with default patterns
  config        Show the effective configuration

Global Options:
  --json            Output in JSON format
  --no-color        Disable color output (respects NO_COLOR env var)
  -v, --verbose     Increase verbosity (-v for info, -vv for debug)
  -q, --quiet       Suppress non-essential output
  -c, --config      Path to .scopeprobe/probe.yaml
  -V, --version     Show version and exit

Examples:
  scopeprobe scan supabase/functions/execute-radar/index.ts
  scopeprobe --json scan index.ts
  scopeprobe watch index.ts
  scopeprobe check index.ts

Environment Variables:
  SCOPEPROBE_CONFIG_PATH   Config file path
  SCOPEPROBE_TARGET        File to scan when no argument is given
  SCOPEPROBE_SYMBOL        Symbol name in messages
  SCOPEPROBE_DEFINITION    Definition substring
  SCOPEPROBE_USAGE         Usage substring
  SCOPEPROBE_METRICS_FILE  Prometheus textfile written after each scan

A .env file in the working directory is loaded first.

`)
}

func main() {
	var (
		showVersion = flag.BoolP("version", "V", false, "Show version and exit")
		configPath  = flag.StringP("config", "c", "", "Path to .scopeprobe/probe.yaml (default: search upward)")
		jsonOutput  = flag.Bool("json", false, "Output in JSON format")
		noColor     = flag.Bool("no-color", false, "Disable color output")
		verbose     = flag.CountP("verbose", "v", "Increase verbosity (-v for info, -vv for debug)")
		quiet       = flag.BoolP("quiet", "q", false, "Suppress non-essential output")
	)

	// Stop at the command name so subcommand flags reach their own FlagSet.
	flag.SetInterspersed(false)
	flag.Usage = func() { usage(os.Stderr) }
	flag.Parse()

	if *showVersion {
		fmt.Printf("scopeprobe version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	_ = godotenv.Load()

	if os.Getenv("NO_COLOR") != "" {
		*noColor = true
	}

	if *quiet && *verbose > 0 {
		fmt.Fprintf(os.Stderr, "Error: cannot use --quiet and --verbose together\n")
		os.Exit(1)
	}

	globals := GlobalFlags{
		JSON:    *jsonOutput,
		NoColor: *noColor,
		Verbose: *verbose,
		Quiet:   *quiet,
	}
	ui.InitColors(globals.NoColor)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "scan":
		runScan(cmdArgs, *configPath, globals)
	case "watch":
		runWatch(cmdArgs, *configPath, globals)
	case "check":
		runCheck(cmdArgs, *configPath, globals)
	case "init":
		runInit(cmdArgs, *configPath, globals)
	case "config":
		runConfig(cmdArgs, *configPath, globals)
	case "help":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
