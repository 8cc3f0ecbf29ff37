// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureFatal(t *testing.T, err error, jsonMode bool) (string, int) {
	t.Helper()

	var buf bytes.Buffer
	code := -1
	oldStderr, oldExit, oldNoColor := stderr, exitFunc, color.NoColor
	stderr = &buf
	exitFunc = func(c int) { code = c }
	color.NoColor = true
	t.Cleanup(func() {
		stderr, exitFunc, color.NoColor = oldStderr, oldExit, oldNoColor
	})

	FatalError(err, jsonMode)
	return buf.String(), code
}

func TestUserError_Unwrap(t *testing.T) {
	err := NewFileAccessError("Cannot read input file", "missing", "check the path", fs.ErrNotExist)
	wrapped := fmt.Errorf("scan: %w", err)

	assert.True(t, stderrors.Is(wrapped, fs.ErrNotExist))

	var ue *UserError
	require.True(t, stderrors.As(wrapped, &ue))
	assert.Equal(t, TypeFileAccess, ue.Type)
	assert.Equal(t, "Cannot read input file: file does not exist", ue.Error())
}

func TestFatalError_Text(t *testing.T) {
	out, code := captureFatal(t, NewConfigError(
		"Invalid configuration format",
		"YAML parsing failed",
		"Edit the file",
		stderrors.New("line 3: bad indent"),
	), false)

	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Error: Invalid configuration format")
	assert.Contains(t, out, "Cause: YAML parsing failed")
	assert.Contains(t, out, "Details: line 3: bad indent")
	assert.Contains(t, out, "Fix: Edit the file")
}

func TestFatalError_JSON(t *testing.T) {
	out, code := captureFatal(t, NewInputError("Too many arguments", "scan takes one file", "Pass a single path"), true)

	assert.Equal(t, 2, code)
	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Too many arguments", got["error"])
	assert.Equal(t, "input", got["type"])
	assert.Equal(t, "Pass a single path", got["fix"])
	assert.NotContains(t, got, "details")
}

func TestFatalError_PlainErrorIsInternal(t *testing.T) {
	out, code := captureFatal(t, stderrors.New("boom"), false)

	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Error: Unexpected error")
	assert.Contains(t, out, "Details: boom")
}

func TestFatalError_Nil(t *testing.T) {
	out, code := captureFatal(t, nil, false)
	assert.Empty(t, out)
	assert.Equal(t, -1, code)
}
