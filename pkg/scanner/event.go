// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package scanner

import "fmt"

// EventKind identifies which of the three line checks produced an Event.
type EventKind int

const (
	// EventClose is emitted when depth first drops below the depth recorded
	// at the tracked definition.
	EventClose EventKind = iota
	// EventDefinition is emitted when a line matches the definition pattern.
	EventDefinition
	// EventUsage is emitted when a line matches the usage pattern.
	EventUsage
)

// String returns the lowercase kind name used in JSON output and metric labels.
func (k EventKind) String() string {
	switch k {
	case EventClose:
		return "close"
	case EventDefinition:
		return "definition"
	case EventUsage:
		return "usage"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Event is a single diagnostic produced while scanning. Line numbers are 1-based.
type Event struct {
	Kind  EventKind `json:"kind"`
	Line  int       `json:"line"`
	Depth int       `json:"depth"`
	// DefLine is the definition line a close event refers to. Zero for other kinds.
	DefLine int `json:"def_line,omitempty"`
}

// Format renders the event as a diagnostic line for the tracked symbol.
func (e Event) Format(symbol string) string {
	switch e.Kind {
	case EventClose:
		return fmt.Sprintf("Scope of %s (defined at %d) CLOSED at line %d", symbol, e.DefLine, e.Line)
	case EventDefinition:
		return fmt.Sprintf("%s defined at line %d, depth %d", symbol, e.Line, e.Depth)
	case EventUsage:
		return fmt.Sprintf("Usage at line %d, current depth %d", e.Line, e.Depth)
	default:
		return fmt.Sprintf("unknown event at line %d", e.Line)
	}
}
