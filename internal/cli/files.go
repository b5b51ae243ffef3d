// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jeranaias/docchat-tui/internal/api"
	"github.com/jeranaias/docchat-tui/internal/store"
	"github.com/jeranaias/docchat-tui/internal/util"
)

// FilesData is the --json payload of "files list".
type FilesData struct {
	Files []api.FileRecord `json:"files"`
	Count int              `json:"count"`
}

// DeleteData is the --json payload of "files delete".
type DeleteData struct {
	ID       int      `json:"id"`
	Filename string   `json:"filename,omitempty"`
	Warnings []string `json:"warnings"`
}

// HandleFiles lists files (the default) or deletes one.
func HandleFiles(ctx context.Context, e *Env) error {
	p := NewArgParser(e.Args.Rest)
	switch sub := p.Subcommand(); sub {
	case "", "list", "ls":
		return listFiles(ctx, e)
	case "delete", "rm":
		raw, err := p.RequirePositional(1, "id", "docchat files delete <id>")
		if err != nil {
			return err
		}
		id, err := strconv.Atoi(raw)
		if err != nil {
			return &ValidationError{Field: "id", Value: raw, Reason: "must be a file id", Example: "docchat files delete 3"}
		}
		return deleteFile(ctx, e, id)
	default:
		return unknownSubcommand("files", sub, "list", "delete")
	}
}

func listFiles(ctx context.Context, e *Env) error {
	state := store.NewAppState(e.Client)
	if err := state.LoadFiles(ctx); err != nil {
		return NewCommandError("files", "list", state.Files.Err(), err)
	}
	files := state.Files.Files()

	if e.Args.JSON {
		if files == nil {
			files = []api.FileRecord{}
		}
		return e.printJSON("files", FilesData{Files: files, Count: len(files)})
	}

	if len(files) == 0 {
		e.info("No files uploaded yet. Use: docchat upload <paths...>")
		return nil
	}

	nameWidth := 8
	for _, f := range files {
		nameWidth = max(nameWidth, util.StringWidth(f.Filename))
	}
	nameWidth = min(nameWidth, max(GetTerminalWidth()-30, 20))

	if !e.Args.Quiet {
		fmt.Fprintf(e.Out, "%s  %s  %s  %s\n",
			labelColor.Sprintf("%4s", "ID"),
			labelColor.Sprintf("%-5s", "TYPE"),
			labelColor.Sprint(util.PadRight("NAME", nameWidth)),
			labelColor.Sprint("UPLOADED"))
	}
	for _, f := range files {
		ext := f.Extension()
		if ext == "" {
			ext = "-"
		}
		name := util.PadRight(util.TruncateWidth(f.Filename, nameWidth), nameWidth)
		fmt.Fprintf(e.Out, "%4d  %-5s  %s  %s\n", f.ID, util.TruncateRunes(ext, 5), name, mutedColor.Sprint(f.UploadTime))
	}
	if !e.Args.Quiet {
		fmt.Fprintln(e.Out, mutedColor.Sprintf("%d file(s)", len(files)))
	}
	return nil
}

func deleteFile(ctx context.Context, e *Env, id int) error {
	res, err := e.Client.DeleteFile(ctx, id)
	if err != nil {
		return NewCommandError("files", "delete", api.Message(err, api.OpDelete), err)
	}

	data := DeleteData{ID: id, Warnings: []string{}}
	if res != nil && len(res.Warnings) > 0 {
		data.Warnings = res.Warnings
	}
	if e.Args.JSON {
		return e.printJSON("files delete", data)
	}

	if len(data.Warnings) > 0 {
		e.warn("File %d deleted with warnings:", id)
		for _, w := range data.Warnings {
			fmt.Fprintf(e.Err, "  - %s\n", w)
		}
		return nil
	}
	e.success("File %d deleted", id)
	return nil
}
