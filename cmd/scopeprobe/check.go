// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/scopeprobe/internal/errors"
	"github.com/kraklabs/scopeprobe/internal/ui"
	"github.com/kraklabs/scopeprobe/pkg/scanner"
	"github.com/kraklabs/scopeprobe/pkg/syntaxdepth"
)

// CheckReport is the result of comparing heuristic and syntax depths.
type CheckReport struct {
	Path           string                   `json:"path"`
	Language       syntaxdepth.Language     `json:"language"`
	Lines          int                      `json:"lines"`
	HeuristicFinal int                      `json:"heuristic_final_depth"`
	SyntaxFinal    int                      `json:"syntax_final_depth"`
	Divergences    []syntaxdepth.Divergence `json:"divergences"`
}

// runCheck executes the 'check' CLI command.
func runCheck(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	pf := addPatternFlags(fs)
	lang := fs.String("lang", "", "Grammar to use: typescript, tsx, javascript, go (default: from extension)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: scopeprobe check [options] [file]

Description:
  Parse the file with Tree-sitter and compare the brace depth after each
  line with the naive count used by 'scan'. Prints the first line of every
  run where the two disagree:

    Depth diverges at line N: heuristic H, syntax S

  Disagreements come from braces inside strings, template literals,
  regex literals and block comments, or from '//' inside a string.
  The scan output itself is not changed by this command.

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
			fmt.Sprintf("check takes at most one file, got %d", fs.NArg()),
			"Run: scopeprobe check <file>",
		), globals.JSON)
	}

	job, err := newScanJob(fs, pf, fs.Arg(0), configPath, globals)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	language := syntaxdepth.Language(*lang)
	if language == "" {
		language, err = syntaxdepth.LanguageForPath(job.Path)
		if err != nil {
			errors.FatalError(errors.NewInputError(
				"Unknown source language",
				err.Error(),
				"Pass --lang typescript|tsx|javascript|go",
			), globals.JSON)
		}
	}

	report, err := checkFile(context.Background(), job.Path, language, job.Patterns, job.Logger)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	if err := writeCheckReport(os.Stdout, report, globals); err != nil {
		errors.FatalError(err, globals.JSON)
	}
}

// checkFile reads path once and computes both depth series from the same bytes.
func checkFile(ctx context.Context, path string, lang syntaxdepth.Language, p scanner.Patterns, logger *slog.Logger) (CheckReport, error) {
	src, err := os.ReadFile(path) //nolint:gosec // G304: path is the file the user asked to check
	if err != nil {
		return CheckReport{}, scanError(&scanner.FileAccessError{Path: path, Err: err})
	}

	heuristic := scanner.ScanLines(scanner.SplitLines(string(src)), p, scanner.WithLogger(logger)).LineDepths

	syntax, err := syntaxdepth.NewAnalyzer(logger).LineDepths(ctx, lang, src)
	if err != nil {
		return CheckReport{}, errors.NewInputError(
			"Cannot parse source file",
			err.Error(),
			"Pass --lang with a supported grammar",
		)
	}

	report := CheckReport{
		Path:        path,
		Language:    lang,
		Lines:       len(heuristic),
		Divergences: syntaxdepth.Compare(heuristic, syntax),
	}
	if report.Divergences == nil {
		report.Divergences = []syntaxdepth.Divergence{}
	}
	if n := len(heuristic); n > 0 {
		report.HeuristicFinal = heuristic[n-1]
	}
	if n := len(syntax); n > 0 {
		report.SyntaxFinal = syntax[n-1]
	}
	return report, nil
}

func writeCheckReport(w io.Writer, report CheckReport, globals GlobalFlags) error {
	if globals.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	for _, d := range report.Divergences {
		fmt.Fprintln(w, d.String())
	}
	if globals.Quiet {
		return nil
	}
	if len(report.Divergences) == 0 {
		ui.Successf("Naive depth matches the %s syntax tree on all %d lines", report.Language, report.Lines)
		return nil
	}
	ui.Warningf("%d divergence(s); final depth heuristic %d, syntax %d",
		len(report.Divergences), report.HeuristicFinal, report.SyntaxFinal)
	return nil
}
