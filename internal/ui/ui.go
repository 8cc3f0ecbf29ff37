// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui holds the colored terminal helpers shared by CLI commands.
//
// Status lines (Success, Info) go to Out. Warnings go to Err so that they
// never mix with diagnostic output a caller may be piping. Headers are
// written to whichever writer the caller is rendering into.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var (
	Out io.Writer = os.Stdout
	Err io.Writer = os.Stderr
)

var (
	Cyan   = color.New(color.FgCyan)
	Green  = color.New(color.FgGreen)
	Yellow = color.New(color.FgYellow)
	Red    = color.New(color.FgRed)
	Dim    = color.New(color.Faint)
	Bold   = color.New(color.Bold)
)

// InitColors enables or disables color globally. Color is also off when
// stdout is not a terminal.
func InitColors(noColor bool) {
	if noColor || !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		color.NoColor = true
		return
	}
	color.NoColor = false
}

// StderrIsTerminal reports whether stderr is attached to a terminal.
func StderrIsTerminal() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Header prints a bold section title followed by a blank line.
func Header(w io.Writer, title string) {
	_, _ = Bold.Fprintln(w, title)
	fmt.Fprintln(w)
}

// SubHeader prints a cyan sub-section title.
func SubHeader(w io.Writer, title string) {
	_, _ = Cyan.Fprintln(w, title)
}

func Success(msg string) {
	_, _ = Green.Fprintf(Out, "✓ %s\n", msg)
}

func Successf(format string, args ...any) {
	Success(fmt.Sprintf(format, args...))
}

func Info(msg string) {
	fmt.Fprintf(Out, "%s %s\n", Cyan.Sprint("→"), msg)
}

func Infof(format string, args ...any) {
	Info(fmt.Sprintf(format, args...))
}

func Warning(msg string) {
	_, _ = Yellow.Fprintf(Err, "! %s\n", msg)
}

func Warningf(format string, args ...any) {
	Warning(fmt.Sprintf(format, args...))
}

// Label formats a field label.
func Label(s string) string {
	return Bold.Sprint(s)
}

// DimText formats secondary text such as paths.
func DimText(s string) string {
	return Dim.Sprint(s)
}
