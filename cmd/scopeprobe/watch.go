// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/scopeprobe/internal/errors"
	"github.com/kraklabs/scopeprobe/internal/ui"
	"github.com/kraklabs/scopeprobe/internal/watch"
)

// runWatch executes the 'watch' CLI command: one scan, then a rescan after
// every change to the file until interrupted.
func runWatch(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	pf := addPatternFlags(fs)
	debounce := fs.Duration("debounce", 0, "Wait this long after the last change before rescanning (default from config)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: scopeprobe watch [options] [file]

Description:
  Scan the file once, then scan it again every time it is saved.
  Stop with Ctrl-C. A missing file during a save is reported and the
  watch continues.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() > 1 {
		errors.FatalError(errors.NewInputError(
			"Too many arguments",
			fmt.Sprintf("watch takes at most one file, got %d", fs.NArg()),
			"Run: scopeprobe watch <file>",
		), globals.JSON)
	}

	job, err := newScanJob(fs, pf, fs.Arg(0), configPath, globals)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	wait := *debounce
	if !fs.Changed("debounce") {
		cfg, err := loadConfigOrDefault(configPath)
		if err != nil {
			errors.FatalError(err, globals.JSON)
		}
		wait = cfg.Watch.Debounce
	}

	// The first scan must succeed; later failures are transient.
	if _, err := executeScan(os.Stdout, job); err != nil {
		errors.FatalError(err, globals.JSON)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := watchAndRescan(ctx, os.Stdout, job, wait, globals); err != nil {
		errors.FatalError(errors.NewInternalError(
			"File watch failed",
			"The filesystem watcher could not be started or stopped unexpectedly",
			"Check that the file's directory exists and inotify limits are not exhausted",
			err,
		), globals.JSON)
	}
}

// watchAndRescan blocks until ctx is done, rescanning job.Path on change.
func watchAndRescan(ctx context.Context, w io.Writer, job scanJob, debounce time.Duration, globals GlobalFlags) error {
	rescan := func() {
		if !job.JSON && !globals.Quiet {
			fmt.Fprintf(w, "--- rescan %s ---\n", time.Now().Format("15:04:05"))
		}
		if _, err := executeScan(w, job); err != nil {
			ui.Warningf("rescan failed: %v", err)
		}
	}

	watcher, err := watch.New(job.Path, debounce, rescan, job.Logger)
	if err != nil {
		return err
	}
	return watcher.Run(ctx)
}
