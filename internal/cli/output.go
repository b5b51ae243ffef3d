// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
)

// =============================================================================
// JSON OUTPUT
// =============================================================================

// JSONResponse is the envelope every command prints with --json.
type JSONResponse struct {
	Success   bool    `json:"success"`
	Command   string  `json:"command"`
	Data      any     `json:"data"`
	Error     *string `json:"error"`
	Timestamp string  `json:"timestamp"`
}

// NewJSONResponse wraps data for command.
func NewJSONResponse(command string, data any) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Command:   command,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Write encodes the response, indented, to w.
func (r *JSONResponse) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// =============================================================================
// HUMAN OUTPUT
// =============================================================================

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	mutedColor   = color.New(color.FgHiBlack)
	labelColor   = color.New(color.Bold)
	userColor    = color.New(color.FgGreen, color.Bold)
	aiColor      = color.New(color.FgCyan, color.Bold)
)

// printJSON writes the --json envelope for command.
func (e *Env) printJSON(command string, data any) error {
	return NewJSONResponse(command, data).Write(e.Out)
}

// success prints a green check line unless --quiet.
func (e *Env) success(format string, a ...any) {
	if e.Args.Quiet {
		return
	}
	fmt.Fprintf(e.Out, "%s %s\n", successColor.Sprint("✓"), fmt.Sprintf(format, a...))
}

// info prints a status line to stderr unless --quiet. Status goes to stderr
// so stdout stays clean for piping.
func (e *Env) info(format string, a ...any) {
	if e.Args.Quiet {
		return
	}
	fmt.Fprintln(e.Err, infoColor.Sprintf(format, a...))
}

// warn always prints to stderr.
func (e *Env) warn(format string, a ...any) {
	fmt.Fprintf(e.Err, "%s %s\n", warnColor.Sprint("!"), fmt.Sprintf(format, a...))
}

// failure prints a red cross line to stderr.
func (e *Env) failure(format string, a ...any) {
	fmt.Fprintf(e.Err, "%s %s\n", errorColor.Sprint("✗"), fmt.Sprintf(format, a...))
}

// label renders "name:" padded for key/value listings.
func label(name string, width int) string {
	return labelColor.Sprintf("%-*s", width, name+":")
}
