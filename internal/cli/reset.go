// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/jeranaias/docchat-tui/internal/api"
	"github.com/jeranaias/docchat-tui/internal/store"
)

// ResetData is the --json payload of the reset command.
type ResetData struct {
	api.ClearAllResult
	Message string `json:"message"`
}

// HandleReset deletes every file and chat message on the backend after a
// confirmation. --confirm skips the prompt and is required with --json.
func HandleReset(ctx context.Context, e *Env) error {
	p := NewArgParser(e.Args.Rest, "confirm", "yes", "y")
	confirmed := p.BoolFlag("confirm", "yes", "y")

	if !confirmed {
		if e.Args.JSON {
			return &ValidationError{Field: "--confirm", Reason: "is required with --json", Example: "docchat reset --confirm --json"}
		}
		ok, err := PromptYesNo(e.In, e.Err, "This deletes ALL uploaded files and chat history. Continue?")
		if err != nil {
			return err
		}
		if !ok {
			return ErrCancelled
		}
	}

	token := p.Flag("token")
	if token == "" {
		token = e.Config.Admin.Token
	}
	if token == "" && e.In == os.Stdin && IsTTY() {
		fmt.Fprint(e.Err, "Admin token: ")
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(e.Err)
		if err != nil {
			return NewCommandError("reset", "read token", "could not read admin token", err)
		}
		token = strings.TrimSpace(string(b))
	}

	stop := e.spin("Resetting…")
	res, err := store.NewAppState(e.Client).ClearAll(ctx, token)
	stop()
	if err != nil {
		return NewCommandError("reset", "clear", resetErrorText(err), err)
	}

	data := ResetData{ClearAllResult: *res, Message: "All files and chat history deleted. " + res.Summary()}
	if e.Args.JSON {
		return e.printJSON("reset", data)
	}
	e.success("%s", data.Message)
	return nil
}

func resetErrorText(err error) string {
	if errors.Is(err, store.ErrNoToken) {
		return "no admin token; pass --token or set admin.token"
	}
	return api.Message(err, api.OpClearAll)
}

// PromptYesNo asks question on w and reads a y/N answer from r. Anything
// but y or yes, including end of input, is a no.
func PromptYesNo(r io.Reader, w io.Writer, question string) (bool, error) {
	fmt.Fprintf(w, "%s %s ", warnColor.Sprint(question), mutedColor.Sprint("[y/N]"))
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
