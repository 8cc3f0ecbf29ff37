// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package scanner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Result summarises a completed scan.
type Result struct {
	Path       string  `json:"path,omitempty"`
	Lines      int     `json:"lines"`
	FinalDepth int     `json:"final_depth"`
	Events     []Event `json:"events"`
	// LineDepths holds the depth after each line, indexed from 0.
	LineDepths []int `json:"-"`
	// Armed is the definition still being watched at end of input, if any.
	Armed *Definition `json:"armed_at_eof,omitempty"`
}

// Count returns the number of events of the given kind.
func (r Result) Count(kind EventKind) int {
	n := 0
	for _, ev := range r.Events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

// FileAccessError reports that the input file could not be opened or read.
type FileAccessError struct {
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("cannot read %s: %v", e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error {
	return e.Err
}

// NormalizeNewlines rewrites "\r\n" and lone "\r" line endings as "\n".
func NormalizeNewlines(text string) string {
	if !strings.Contains(text, "\r") {
		return text
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// SplitLines splits text into lines. "\n", "\r\n" and a lone "\r" all end a
// line, and a line ending at the very end does not start an extra empty line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(NormalizeNewlines(text), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// ScanLines runs a fresh scan over lines.
func ScanLines(lines []string, p Patterns, opts ...Option) Result {
	return New(p, opts...).Run(lines)
}

// Run scans lines in order, continuing from the scanner's current state.
func (s *Scanner) Run(lines []string) Result {
	res := Result{
		LineDepths: make([]int, 0, len(lines)),
		Events:     []Event{},
	}
	for i, line := range lines {
		res.Events = append(res.Events, s.ScanLine(line)...)
		res.LineDepths = append(res.LineDepths, s.depth)
		if s.onProgress != nil {
			s.onProgress(i+1, len(lines))
		}
	}
	res.Lines = s.line
	res.FinalDepth = s.depth
	if def, ok := s.Armed(); ok {
		res.Armed = &def
	}
	return res
}

// ScanReader reads r to the end and scans its lines.
func ScanReader(r io.Reader, p Patterns, opts ...Option) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, fmt.Errorf("invalid patterns: %w", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("read input: %w", err)
	}
	return ScanLines(SplitLines(string(data)), p, opts...), nil
}

// ScanFile reads the file at path in full and scans it. If the file cannot
// be read it returns a *FileAccessError and no events are produced.
func ScanFile(path string, p Patterns, opts ...Option) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, fmt.Errorf("invalid patterns: %w", err)
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is the file the user asked to scan
	if err != nil {
		return Result{}, &FileAccessError{Path: path, Err: err}
	}

	start := time.Now()
	lines := SplitLines(string(data))
	s := New(p, opts...)
	s.logger.Debug("scan.start", "path", path, "lines", len(lines), "bytes", len(data))

	res := s.Run(lines)
	res.Path = path

	s.logger.Debug("scan.complete",
		"path", path,
		"lines", res.Lines,
		"events", len(res.Events),
		"final_depth", res.FinalDepth,
		"duration", time.Since(start),
	)
	return res, nil
}
