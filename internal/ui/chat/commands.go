// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/docchat-tui/internal/api"
	"github.com/jeranaias/docchat-tui/internal/store"
	"github.com/jeranaias/docchat-tui/internal/upload"
	"github.com/jeranaias/docchat-tui/internal/util"
)

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// waitForChange blocks until a store reports a mutation.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return StoreChangedMsg{}
	}
}

func loadFilesCmd(ctx context.Context, state *store.AppState) tea.Cmd {
	return func() tea.Msg {
		return FilesLoadedMsg{Err: state.LoadFiles(ctx)}
	}
}

func healthCmd(ctx context.Context, backend Backend) tea.Cmd {
	return func() tea.Msg {
		status, err := backend.Health(ctx)
		return HealthMsg{Status: status, Err: err}
	}
}

func sendChatCmd(ctx context.Context, state *store.AppState, question string, opts store.ChatOptions) tea.Cmd {
	return func() tea.Msg {
		return ChatDoneMsg{Err: state.SendChat(ctx, question, opts)}
	}
}

func deleteFileCmd(ctx context.Context, state *store.AppState, id int, filename string) tea.Cmd {
	return func() tea.Msg {
		warnings, err := state.DeleteFile(ctx, id)
		return FileDeletedMsg{ID: id, Filename: filename, Warnings: warnings, Err: err}
	}
}

func uploadCmd(ctx context.Context, uploader *upload.Uploader, paths []string) tea.Cmd {
	return func() tea.Msg {
		sum := uploader.UploadAll(ctx, upload.CandidatesFromPaths(paths))
		return UploadDoneMsg{Summary: sum}
	}
}

func resetCmd(ctx context.Context, state *store.AppState, token string) tea.Cmd {
	return func() tea.Msg {
		res, err := state.ClearAll(ctx, token)
		return ResetDoneMsg{Result: res, Err: err}
	}
}

func startWatcherCmd(ctx context.Context, dir string, uploader *upload.Uploader) tea.Cmd {
	return func() tea.Msg {
		w, err := upload.NewWatcher(dir, uploader, 0)
		if err != nil {
			return WatcherStartedMsg{Err: err}
		}
		if err := w.Watch(ctx); err != nil {
			_ = w.Close()
			return WatcherStartedMsg{Err: err}
		}
		return WatcherStartedMsg{Watcher: w}
	}
}

// resetErrorText is the toast description for a failed reset.
func resetErrorText(err error) string {
	if errors.Is(err, store.ErrNoToken) {
		return "Admin token is not configured. Set admin.token or DOCCHAT_ADMIN_TOKEN."
	}
	return api.Message(err, api.OpClearAll)
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// slashHelp lists the slash commands for /help.
var slashHelp = []struct{ usage, desc string }{
	{"/upload <path>...", "upload one or more files"},
	{"/files", "reload the file list"},
	{"/file <id|all>", "ask about one file, or all files"},
	{"/k <n>", "number of chunks to retrieve (0 = server default)"},
	{"/keywords a,b", "keyword hints (empty clears)"},
	{"/filter key=value...", "metadata filter (empty clears)"},
	{"/clear", "clear the transcript"},
	{"/health", "check the backend again"},
	{"/reset", "delete all files and chat history"},
	{"/help", "toggle help"},
	{"/quit", "exit"},
}

// runSlash executes a slash command line. It returns the command to run, if
// any. Parsing problems are reported with a warning toast.
func (m *Model) runSlash(line string) tea.Cmd {
	args, err := util.SplitArgs(strings.TrimPrefix(line, "/"))
	if err != nil || len(args) == 0 {
		m.toasts.AddWarning("Invalid command", line)
		return nil
	}
	name, args := strings.ToLower(args[0]), args[1:]

	switch name {
	case "upload", "u":
		if len(args) == 0 {
			m.toasts.AddWarning("Nothing to upload", "Usage: /upload <path>...")
			return nil
		}
		return m.startUpload(args)

	case "files", "ls":
		return loadFilesCmd(m.ctx, m.state)

	case "file":
		return m.setScope(args)

	case "k":
		if len(args) != 1 {
			m.toasts.AddWarning("Usage", "/k <n>")
			return nil
		}
		k, err := strconv.Atoi(args[0])
		if err != nil || k < 0 || k > 50 {
			m.toasts.AddWarning("Invalid k", "k must be a number from 0 to 50")
			return nil
		}
		m.opts.K = k
		return nil

	case "keywords", "kw":
		m.opts.Keywords = store.ParseKeywords(strings.Join(args, " "))
		return nil

	case "filter":
		filter, err := store.ParseFilter(args)
		if err != nil {
			m.toasts.AddWarning("Invalid filter", err.Error())
			return nil
		}
		m.opts.MetadataFilter = filter
		return nil

	case "clear":
		m.state.Chat.ClearChat()
		return nil

	case "health", "status":
		m.health = healthLoading(m.health)
		return healthCmd(m.ctx, m.backend)

	case "reset":
		m.openResetDialog()
		return nil

	case "help", "?":
		m.showHelp = !m.showHelp
		return nil

	case "quit", "exit", "q":
		m.Shutdown()
		return tea.Quit
	}

	m.toasts.AddWarning("Unknown command", "/"+name+" (try /help)")
	return nil
}

// setScope handles /file <id|all>.
func (m *Model) setScope(args []string) tea.Cmd {
	if len(args) != 1 {
		m.toasts.AddWarning("Usage", "/file <id|all>")
		return nil
	}
	if strings.EqualFold(args[0], "all") {
		m.opts.FileID = nil
		return nil
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		m.toasts.AddWarning("Invalid file id", args[0])
		return nil
	}
	if !m.state.Files.Contains(id) {
		m.toasts.AddWarning("Unknown file", fmt.Sprintf("No file with id %d", id))
		return nil
	}
	m.opts.FileID = &id
	return nil
}

func (m *Model) startUpload(paths []string) tea.Cmd {
	label := fmt.Sprintf("%d files", len(paths))
	if len(paths) == 1 {
		label = paths[0]
	}
	m.toasts.AddStatus("Uploading", label)
	return uploadCmd(m.ctx, m.uploader, paths)
}

// pastedPaths reports whether line is nothing but paths to existing regular
// files, as produced by dropping files onto the terminal. file:// URLs are
// accepted.
func pastedPaths(line string) ([]string, bool) {
	args, err := util.SplitArgs(strings.TrimSpace(line))
	if err != nil || len(args) == 0 {
		return nil, false
	}
	paths := make([]string, 0, len(args))
	for _, a := range args {
		if strings.HasPrefix(a, "file://") {
			u, err := url.Parse(a)
			if err != nil {
				return nil, false
			}
			a = u.Path
		}
		info, err := os.Stat(a)
		if err != nil || !info.Mode().IsRegular() {
			return nil, false
		}
		paths = append(paths, a)
	}
	return paths, true
}
