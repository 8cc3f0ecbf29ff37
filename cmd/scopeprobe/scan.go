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
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/scopeprobe/internal/errors"
	"github.com/kraklabs/scopeprobe/internal/metrics"
	"github.com/kraklabs/scopeprobe/pkg/scanner"
)

// ScanReport is the --json output of a scan.
type ScanReport struct {
	Path       string              `json:"path"`
	Symbol     string              `json:"symbol"`
	Lines      int                 `json:"lines"`
	FinalDepth int                 `json:"final_depth"`
	ArmedAtEOF *scanner.Definition `json:"armed_at_eof,omitempty"`
	Events     []ReportEvent       `json:"events"`
}

// ReportEvent is a scanner event with its rendered message.
type ReportEvent struct {
	scanner.Event
	Message string `json:"message"`
}

// scanJob is everything one scan needs once flags and config are merged.
type scanJob struct {
	Path        string
	Patterns    scanner.Patterns
	JSON        bool
	MetricsFile string
	Logger      *slog.Logger
	Progress    ProgressConfig
}

// patternFlags registers the pattern override flags shared by scan, watch
// and check.
type patternFlags struct {
	symbol        *string
	definition    *string
	usage         *string
	commentMarker *string
}

func addPatternFlags(fs *flag.FlagSet) patternFlags {
	return patternFlags{
		symbol:        fs.String("symbol", "", "Symbol name printed in messages (default from config)"),
		definition:    fs.String("definition", "", "Substring marking the definition line"),
		usage:         fs.String("usage", "", "Substring marking a usage line"),
		commentMarker: fs.String("comment-marker", "", "Truncate lines at this marker (default \"//\")"),
	}
}

// apply overlays flags the user actually set onto p.
func (pf patternFlags) apply(fs *flag.FlagSet, p scanner.Patterns) scanner.Patterns {
	if fs.Changed("symbol") {
		p.Symbol = *pf.symbol
	}
	if fs.Changed("definition") {
		p.Definition = *pf.definition
	}
	if fs.Changed("usage") {
		p.Usage = *pf.usage
	}
	if fs.Changed("comment-marker") {
		p.CommentMarker = *pf.commentMarker
	}
	return p
}

// runScan executes the 'scan' CLI command.
//
// Each diagnostic is printed to stdout as soon as it is found, in file order.
// Nothing else is written to stdout in text mode.
//
// Examples:
//
//	scopeprobe scan
//	scopeprobe scan supabase/functions/execute-radar/index.ts
//	scopeprobe --json scan index.ts
func runScan(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	pf := addPatternFlags(fs)
	metricsFile := fs.String("metrics-file", "", "Write Prometheus metrics to this textfile after the scan")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: scopeprobe scan [options] [file]

Description:
  Scan a source file line by line, tracking brace depth, and report:

    <symbol> defined at line N, depth D
    Scope of <symbol> (defined at N) CLOSED at line M
    Usage at line N, current depth D

  Depth is a naive count of '{' and '}' before the first '//' on each
  line. Braces in strings, templates and regex literals are counted.
  Use 'scopeprobe check' to compare against a real syntax tree.

  With no file argument the target comes from SCOPEPROBE_TARGET or the
  'target' key in .scopeprobe/probe.yaml.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  scopeprobe scan supabase/functions/execute-radar/index.ts
  scopeprobe scan --symbol items --definition "let items =" --usage "items.each" app.ts
  scopeprobe --json scan index.ts | jq '.events[] | select(.kind == "close")'

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() > 1 {
		errors.FatalError(errors.NewInputError(
			"Too many arguments",
			fmt.Sprintf("scan takes at most one file, got %d", fs.NArg()),
			"Run one scan per file: scopeprobe scan <file>",
		), globals.JSON)
	}

	job, err := newScanJob(fs, pf, fs.Arg(0), configPath, globals)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	if *metricsFile != "" {
		job.MetricsFile = *metricsFile
	}

	if _, err := executeScan(os.Stdout, job); err != nil {
		errors.FatalError(err, globals.JSON)
	}
}

// newScanJob merges config, environment and flags into a scanJob.
func newScanJob(fs *flag.FlagSet, pf patternFlags, arg, configPath string, globals GlobalFlags) (scanJob, error) {
	cfg, err := loadConfigOrDefault(configPath)
	if err != nil {
		return scanJob{}, err
	}

	patterns := pf.apply(fs, cfg.Patterns)
	if err := patterns.Validate(); err != nil {
		return scanJob{}, errors.NewInputError(
			"Invalid scan patterns",
			err.Error(),
			"Pass non-empty --symbol, --definition and --usage values",
		)
	}

	path, err := targetPath(arg, cfg, configPath)
	if err != nil {
		return scanJob{}, errors.NewInternalError(
			"Cannot resolve target path",
			"Failed to make the target path absolute",
			"Pass an absolute path to the file",
			err,
		)
	}

	return scanJob{
		Path:        path,
		Patterns:    patterns,
		JSON:        globals.JSON,
		MetricsFile: cfg.Metrics.Textfile,
		Logger:      newLogger(globals),
		Progress:    NewProgressConfig(globals),
	}, nil
}

// executeScan runs one scan and writes its diagnostics to w.
func executeScan(w io.Writer, job scanJob) (scanner.Result, error) {
	logger := job.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	progress := &lineProgress{cfg: job.Progress}
	opts := []scanner.Option{
		scanner.WithLogger(logger),
		scanner.WithProgress(progress.update),
	}
	if !job.JSON {
		symbol := job.Patterns.Symbol
		opts = append(opts, scanner.WithEventHandler(func(ev scanner.Event) {
			fmt.Fprintln(w, ev.Format(symbol))
		}))
	}

	res, err := scanner.ScanFile(job.Path, job.Patterns, opts...)
	progress.finish()
	if err != nil {
		return res, scanError(err)
	}

	if job.JSON {
		if err := writeScanJSON(w, res, job.Patterns.Symbol); err != nil {
			return res, err
		}
	}

	logger.Info("scan.complete",
		"path", res.Path,
		"lines", res.Lines,
		"events", len(res.Events),
		"final_depth", res.FinalDepth,
	)
	if res.Armed != nil {
		logger.Info("scan.tracker_armed_at_eof",
			"symbol", job.Patterns.Symbol,
			"def_line", res.Armed.Line,
			"def_depth", res.Armed.Depth,
		)
	}

	if job.MetricsFile != "" {
		rec := metrics.NewRecorder()
		rec.Observe(res)
		if err := rec.WriteTextfile(job.MetricsFile); err != nil {
			return res, errors.NewPermissionError(
				"Cannot write metrics file",
				fmt.Sprintf("Failed to write %s", job.MetricsFile),
				"Check that the directory exists and is writable",
				err,
			)
		}
		logger.Debug("metrics.textfile.written", "path", job.MetricsFile)
	}

	return res, nil
}

func writeScanJSON(w io.Writer, res scanner.Result, symbol string) error {
	report := ScanReport{
		Path:       res.Path,
		Symbol:     symbol,
		Lines:      res.Lines,
		FinalDepth: res.FinalDepth,
		ArmedAtEOF: res.Armed,
		Events:     make([]ReportEvent, 0, len(res.Events)),
	}
	for _, ev := range res.Events {
		report.Events = append(report.Events, ReportEvent{Event: ev, Message: ev.Format(symbol)})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return errors.NewInternalError(
			"Cannot encode scan report",
			"JSON encoding failed unexpectedly",
			"This is a bug. Please report it",
			err,
		)
	}
	return nil
}

// scanError converts a scanner error into a user-facing error.
func scanError(err error) error {
	var fae *scanner.FileAccessError
	if !stderrors.As(err, &fae) {
		return errors.NewInternalError("Scan failed", "", "", err)
	}

	cause := fmt.Sprintf("Failed to read %s", fae.Path)
	switch {
	case stderrors.Is(err, os.ErrNotExist):
		cause = fmt.Sprintf("%s does not exist", fae.Path)
	case stderrors.Is(err, os.ErrPermission):
		cause = fmt.Sprintf("Permission denied reading %s", fae.Path)
	}
	return errors.NewFileAccessError(
		"Cannot read input file",
		cause,
		"Check the path, or set 'target' in .scopeprobe/probe.yaml",
		err,
	)
}
