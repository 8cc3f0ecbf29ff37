// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/kraklabs/scopeprobe/internal/ui"
)

// progressMinLines is the smallest file that gets a progress bar.
const progressMinLines = 20000

// ProgressConfig controls whether progress bars are drawn and where.
type ProgressConfig struct {
	Enabled bool
	Writer  io.Writer
}

// NewProgressConfig enables progress bars only for interactive, non-quiet,
// non-JSON runs.
func NewProgressConfig(globals GlobalFlags) ProgressConfig {
	return ProgressConfig{
		Enabled: !globals.Quiet && !globals.JSON && ui.StderrIsTerminal(),
		Writer:  os.Stderr,
	}
}

// NewProgressBar returns a bar for total items, or nil when progress is disabled.
func NewProgressBar(cfg ProgressConfig, total int64, description string) *progressbar.ProgressBar {
	if !cfg.Enabled {
		return nil
	}
	return progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(cfg.Writer),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
	)
}

// lineProgress adapts scanner progress callbacks to a lazily created bar.
type lineProgress struct {
	cfg     ProgressConfig
	bar     *progressbar.ProgressBar
	decided bool
}

func (p *lineProgress) update(done, total int) {
	if !p.decided {
		p.decided = true
		if total >= progressMinLines {
			p.bar = NewProgressBar(p.cfg, int64(total), "Scanning lines")
		}
	}
	if p.bar != nil {
		_ = p.bar.Set(done)
	}
}

func (p *lineProgress) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
