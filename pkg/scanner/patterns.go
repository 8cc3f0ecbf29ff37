// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package scanner

import "fmt"

// Default patterns for the rawCandidates investigation.
const (
	DefaultSymbol        = "rawCandidates"
	DefaultDefinition    = "const rawCandidates: Candidate[]"
	DefaultUsage         = "if (rawCandidates.length > 0)"
	DefaultCommentMarker = "//"
)

// Patterns holds the literal substrings the scanner matches against each line.
// Matching is plain substring containment; nothing here is a regular expression.
type Patterns struct {
	// Symbol is the name printed in definition and close messages.
	Symbol string `yaml:"symbol" json:"symbol"`
	// Definition marks the line that introduces the tracked binding.
	Definition string `yaml:"definition" json:"definition"`
	// Usage marks a line of interest; reported with the current depth.
	Usage string `yaml:"usage" json:"usage"`
	// CommentMarker truncates a line at its first occurrence. Empty disables
	// truncation.
	CommentMarker string `yaml:"comment_marker" json:"comment_marker"`
}

// DefaultPatterns returns the patterns for the rawCandidates scope check.
func DefaultPatterns() Patterns {
	return Patterns{
		Symbol:        DefaultSymbol,
		Definition:    DefaultDefinition,
		Usage:         DefaultUsage,
		CommentMarker: DefaultCommentMarker,
	}
}

// Validate reports whether the patterns can drive a scan.
func (p Patterns) Validate() error {
	if p.Symbol == "" {
		return fmt.Errorf("symbol must not be empty")
	}
	if p.Definition == "" {
		return fmt.Errorf("definition pattern must not be empty")
	}
	if p.Usage == "" {
		return fmt.Errorf("usage pattern must not be empty")
	}
	return nil
}
