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

// Package scanner tracks brace depth across the lines of a source file and
// reports where a tracked declaration is introduced, where its enclosing
// block closes, and where a usage pattern appears.
//
// Depth is a naive character count: every '{' adds one and every '}'
// subtracts one over the part of the line before the first comment marker.
// String, template and regex literals and block comments are not recognised,
// so braces inside them are counted. This is a heuristic, not a lexer; see
// package syntaxdepth for a tree-sitter based comparison.
package scanner

import (
	"log/slog"
	"strings"
)

// Definition records where the tracked declaration was seen.
type Definition struct {
	// Depth is the brace depth after the definition line's own braces.
	Depth int `json:"depth"`
	// Line is the 1-based definition line.
	Line int `json:"line"`
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the logger used for debug output. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEventHandler registers fn to receive every event as soon as it is
// produced, in file order.
func WithEventHandler(fn func(Event)) Option {
	return func(s *Scanner) {
		s.onEvent = fn
	}
}

// WithProgress registers fn to be called after each line of a multi-line scan.
// total is zero when the line count is not known up front.
func WithProgress(fn func(done, total int)) Option {
	return func(s *Scanner) {
		s.onProgress = fn
	}
}

// Scanner holds the state of one scan: the running depth, the definition
// tracker and the index of the next line. A Scanner is not safe for
// concurrent use.
type Scanner struct {
	patterns   Patterns
	logger     *slog.Logger
	onEvent    func(Event)
	onProgress func(done, total int)

	depth int
	line  int // 0-based index of the next line
	armed *Definition
}

// New creates a Scanner with depth 0 and the tracker unarmed.
func New(p Patterns, opts ...Option) *Scanner {
	s := &Scanner{
		patterns: p,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Depth returns the net brace balance of all lines scanned so far.
func (s *Scanner) Depth() int {
	return s.depth
}

// Line returns the number of lines scanned so far.
func (s *Scanner) Line() int {
	return s.line
}

// Armed returns the definition being watched, if any.
func (s *Scanner) Armed() (Definition, bool) {
	if s.armed == nil {
		return Definition{}, false
	}
	return *s.armed, true
}

// ScanLine processes the next line and returns the events it produced, in
// the order close, definition, usage.
func (s *Scanner) ScanLine(text string) []Event {
	lineNo := s.line + 1
	s.line++

	code := s.stripComment(text)

	var events []Event
	for i := 0; i < len(code); i++ {
		switch code[i] {
		case '{':
			s.depth++
		case '}':
			s.depth--
			// Report only once per arming.
			if s.armed != nil && s.depth < s.armed.Depth {
				events = s.emit(events, Event{
					Kind:    EventClose,
					Line:    lineNo,
					Depth:   s.depth,
					DefLine: s.armed.Line,
				})
				s.armed = nil
			}
		}
	}

	if s.patterns.Definition != "" && strings.Contains(code, s.patterns.Definition) {
		s.armed = &Definition{Depth: s.depth, Line: lineNo}
		events = s.emit(events, Event{Kind: EventDefinition, Line: lineNo, Depth: s.depth})
	}

	if s.patterns.Usage != "" && strings.Contains(code, s.patterns.Usage) {
		events = s.emit(events, Event{Kind: EventUsage, Line: lineNo, Depth: s.depth})
	}

	return events
}

func (s *Scanner) stripComment(text string) string {
	if s.patterns.CommentMarker == "" {
		return text
	}
	if idx := strings.Index(text, s.patterns.CommentMarker); idx >= 0 {
		return text[:idx]
	}
	return text
}

func (s *Scanner) emit(events []Event, ev Event) []Event {
	s.logger.Debug("scan.event",
		"kind", ev.Kind.String(),
		"line", ev.Line,
		"depth", ev.Depth,
	)
	if s.onEvent != nil {
		s.onEvent(ev)
	}
	return append(events, ev)
}
