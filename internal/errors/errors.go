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

// Package errors provides user-facing CLI errors with a cause and a
// suggested fix, and a single exit path that renders them.
//
// Library packages return plain wrapped errors; the CLI converts them into
// a *UserError at the boundary and hands them to FatalError.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// ErrorType classifies a UserError for display and exit codes.
type ErrorType string

const (
	TypeConfig     ErrorType = "config"
	TypeInput      ErrorType = "input"
	TypeInternal   ErrorType = "internal"
	TypePermission ErrorType = "permission"
	TypeFileAccess ErrorType = "file_access"
)

// UserError is an error meant to be shown to a person at a terminal.
type UserError struct {
	Type    ErrorType
	Message string // what went wrong, one line
	Cause   string // why it probably happened
	Fix     string // what to do about it
	Err     error  // underlying error, may be nil
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// ExitCode returns the process exit status for this error.
func (e *UserError) ExitCode() int {
	if e.Type == TypeInput {
		return 2
	}
	return 1
}

func newError(t ErrorType, message, cause, fix string, err error) *UserError {
	return &UserError{Type: t, Message: message, Cause: cause, Fix: fix, Err: err}
}

// NewConfigError reports a missing, unreadable or invalid configuration.
func NewConfigError(message, cause, fix string, err error) *UserError {
	return newError(TypeConfig, message, cause, fix, err)
}

// NewInputError reports a bad command line. It never wraps another error.
func NewInputError(message, cause, fix string) *UserError {
	return newError(TypeInput, message, cause, fix, nil)
}

// NewInternalError reports a failure that is not the user's fault.
func NewInternalError(message, cause, fix string, err error) *UserError {
	return newError(TypeInternal, message, cause, fix, err)
}

// NewPermissionError reports a filesystem permission problem on write.
func NewPermissionError(message, cause, fix string, err error) *UserError {
	return newError(TypePermission, message, cause, fix, err)
}

// NewFileAccessError reports that an input file does not exist or cannot be read.
func NewFileAccessError(message, cause, fix string, err error) *UserError {
	return newError(TypeFileAccess, message, cause, fix, err)
}

// jsonError is the --json rendering of a fatal error.
type jsonError struct {
	Error   string    `json:"error"`
	Type    ErrorType `json:"type"`
	Cause   string    `json:"cause,omitempty"`
	Fix     string    `json:"fix,omitempty"`
	Details string    `json:"details,omitempty"`
}

// Output and exit hooks; tests replace them.
var (
	stderr   io.Writer = os.Stderr
	exitFunc           = os.Exit
)

// FatalError prints err to stderr and exits. A *UserError anywhere in the
// chain is rendered with its cause and fix; any other error is treated as
// internal. In JSON mode a single JSON object is written instead of text.
func FatalError(err error, jsonMode bool) {
	if err == nil {
		return
	}

	var ue *UserError
	if !stderrors.As(err, &ue) {
		ue = NewInternalError("Unexpected error", "", "", err)
	}

	if jsonMode {
		out := jsonError{
			Error: ue.Message,
			Type:  ue.Type,
			Cause: ue.Cause,
			Fix:   ue.Fix,
		}
		if ue.Err != nil {
			out.Details = ue.Err.Error()
		}
		enc := json.NewEncoder(stderr)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	} else {
		Render(stderr, ue)
	}

	exitFunc(ue.ExitCode())
}

// Render writes the human-readable form of e to w.
func Render(w io.Writer, e *UserError) {
	red := color.New(color.FgRed, color.Bold)
	dim := color.New(color.Faint)

	_, _ = red.Fprintf(w, "Error: %s\n", e.Message)
	if e.Cause != "" {
		fmt.Fprintf(w, "  %s %s\n", dim.Sprint("Cause:"), e.Cause)
	}
	if e.Err != nil {
		fmt.Fprintf(w, "  %s %v\n", dim.Sprint("Details:"), e.Err)
	}
	if e.Fix != "" {
		fmt.Fprintf(w, "  %s %s\n", dim.Sprint("Fix:"), e.Fix)
	}
}
