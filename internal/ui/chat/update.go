// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/docchat-tui/internal/api"
	"github.com/jeranaias/docchat-tui/internal/store"
	"github.com/jeranaias/docchat-tui/internal/ui/components"
)

// Update handles a message and re-syncs the layout with the stores.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := m.update(msg)
	m.refresh()
	return m, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case components.ToastTickMsg:
		m.toasts.Tick()
		return m, components.ToastTickCmd()

	case StoreChangedMsg:
		return m, waitForChange(m.changes)

	case FilesLoadedMsg:
		if msg.Err != nil {
			log.Printf("tui: list files: %v", msg.Err)
		}
		return m, nil

	case HealthMsg:
		m.health = components.HealthState{Status: msg.Status, Err: msg.Err}
		return m, nil

	case ChatDoneMsg:
		return m.handleChatDone(msg)

	case FileDeletedMsg:
		return m.handleFileDeleted(msg)

	case UploadDoneMsg:
		if n := len(msg.Summary.Results); n > 1 {
			log.Printf("tui: upload batch: %d of %d uploaded", len(msg.Summary.Uploaded()), n)
		}
		return m, nil

	case ResetDoneMsg:
		return m.handleResetDone(msg)

	case WatcherStartedMsg:
		if msg.Err != nil {
			m.toasts.AddError("Watch folder unavailable", msg.Err.Error())
			return m, nil
		}
		m.watcher = msg.Watcher
		m.toasts.AddStatus("Watching folder", msg.Watcher.Dir())
		return m, nil
	}

	if m.focus == focusInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.Shutdown()
		return m, tea.Quit
	}

	if m.confirm != nil {
		return m.handleConfirmKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Reset):
		m.openResetDialog()
		return m, nil

	case key.Matches(msg, m.keys.Dismiss):
		m.dismiss()
		return m, nil

	case key.Matches(msg, m.keys.Focus):
		m.toggleFocus()
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil

	case msg.String() == "f1":
		m.showHelp = !m.showHelp
		return m, nil
	}

	if m.focus == focusFiles {
		return m.handleFilesKey(msg)
	}
	return m.handleInputKey(msg)
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	dialog, result := m.confirm.HandleKey(msg)
	switch result {
	case components.ConfirmAccepted:
		m.confirm = nil
		m.toasts.AddStatus("Resetting", "Deleting all files and chat history…")
		return m, resetCmd(m.ctx, m.state, m.cfg.Admin.Token)
	case components.ConfirmCancelled:
		m.confirm = nil
	default:
		m.confirm = &dialog
	}
	return m, nil
}

func (m Model) handleFilesKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.fileList.MoveUp()
	case key.Matches(msg, m.keys.Down):
		m.fileList.MoveDown()
	case key.Matches(msg, m.keys.Scope):
		if f, ok := m.fileList.Selected(); ok {
			if m.opts.FileID != nil && *m.opts.FileID == f.ID {
				m.opts.FileID = nil
			} else {
				id := f.ID
				m.opts.FileID = &id
			}
		}
	case key.Matches(msg, m.keys.Delete):
		f, ok := m.fileList.Selected()
		if !ok || m.fileList.IsDeleting(f.ID) {
			return m, nil
		}
		m.fileList.SetDeleting(f.ID, true)
		return m, deleteFileCmd(m.ctx, m.state, f.ID, f.Filename)
	case key.Matches(msg, m.keys.Refresh):
		return m, loadFilesCmd(m.ctx, m.state)
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if !m.inputEnabled() {
		return m, nil
	}
	if msg.Type != tea.KeyEnter {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	line := strings.TrimSpace(m.input.Value())
	if line == "" {
		return m, nil
	}

	if strings.HasPrefix(line, "/") {
		m.input.Reset()
		cmd := m.runSlash(line)
		return m, cmd
	}

	if paths, ok := pastedPaths(line); ok {
		m.input.Reset()
		return m, m.startUpload(paths)
	}

	if !m.state.CanChat() {
		m.toasts.AddWarning("No files", NoFilesText)
		return m, nil
	}

	m.input.Reset()
	return m, sendChatCmd(m.ctx, m.state, line, m.chatOptions())
}

// =============================================================================
// RESULT HANDLERS
// =============================================================================

func (m Model) handleChatDone(msg ChatDoneMsg) (Model, tea.Cmd) {
	if msg.Err == nil || errors.Is(msg.Err, store.ErrEmptyQuestion) {
		return m, nil
	}
	log.Printf("tui: chat: %v", msg.Err)
	m.toasts.AddError("Chat Error", api.Message(msg.Err, api.OpChat))
	return m, nil
}

func (m Model) handleFileDeleted(msg FileDeletedMsg) (Model, tea.Cmd) {
	m.fileList.SetDeleting(msg.ID, false)
	if msg.Err != nil {
		log.Printf("tui: delete file %d: %v", msg.ID, msg.Err)
		m.toasts.AddError("File deletion failed", api.Message(msg.Err, api.OpDelete))
		return m, nil
	}

	if m.opts.FileID != nil && *m.opts.FileID == msg.ID {
		m.opts.FileID = nil
	}
	if len(msg.Warnings) > 0 {
		m.toasts.AddWarning("File deleted with warnings", strings.Join(msg.Warnings, "\n"))
	} else {
		m.toasts.AddSuccess("File deleted", msg.Filename)
	}
	return m, nil
}

func (m Model) handleResetDone(msg ResetDoneMsg) (Model, tea.Cmd) {
	if msg.Err != nil {
		log.Printf("tui: reset: %v", msg.Err)
		m.toasts.AddError("Reset failed", resetErrorText(msg.Err))
		return m, nil
	}

	desc := "All files and chat history deleted."
	if msg.Result != nil {
		desc += " " + msg.Result.Summary()
	}
	m.toasts.AddSuccess("App reset", desc)
	m.opts = store.ChatOptions{K: m.cfg.Chat.K}
	m.rendered = transcriptKey{count: -1}
	m.health = healthLoading(m.health)
	return m, tea.Batch(loadFilesCmd(m.ctx, m.state), healthCmd(m.ctx, m.backend))
}

// =============================================================================
// STATE HELPERS
// =============================================================================

func (m *Model) openResetDialog() {
	d := components.NewConfirmDialog("Reset App (Clear All)", ResetConfirmText, "Delete everything")
	m.confirm = &d
}

// dismiss closes the newest toast, then the error banner of the focused area.
func (m *Model) dismiss() {
	if m.toasts.DismissNewest() {
		return
	}
	if m.showHelp {
		m.showHelp = false
		return
	}
	if m.focus == focusFiles && m.state.Files.Err() != "" {
		m.state.Files.SetError("")
		return
	}
	if m.state.Chat.Err() != "" {
		m.state.Chat.SetError("")
	}
}

func (m *Model) toggleFocus() {
	if m.focus == focusInput {
		m.focus = focusFiles
		m.input.Blur()
		return
	}
	m.focus = focusInput
	m.input.Focus()
}

// inputEnabled is false while an answer is pending.
func (m Model) inputEnabled() bool {
	return !m.state.Chat.Loading()
}

// chatOptions returns the options for the next question, dropping a file
// scope that no longer exists.
func (m *Model) chatOptions() store.ChatOptions {
	if m.opts.FileID != nil && !m.state.Files.Contains(*m.opts.FileID) {
		m.opts.FileID = nil
	}
	return m.opts
}

func healthLoading(h components.HealthState) components.HealthState {
	h.Loading = true
	return h
}

// scopeText describes the chat options in one line.
func (m Model) scopeText() string {
	scope := "all files"
	if id := m.opts.FileID; id != nil {
		scope = fmt.Sprintf("file %d", *id)
		if f, ok := m.state.Files.Find(*id); ok {
			scope = f.Filename
		}
	}
	parts := []string{"scope: " + scope}
	if m.opts.K > 0 {
		parts = append(parts, fmt.Sprintf("k: %d", m.opts.K))
	}
	if len(m.opts.Keywords) > 0 {
		parts = append(parts, "keywords: "+strings.Join(m.opts.Keywords, ", "))
	}
	if len(m.opts.MetadataFilter) > 0 {
		parts = append(parts, fmt.Sprintf("filter: %d field(s)", len(m.opts.MetadataFilter)))
	}
	return strings.Join(parts, " · ")
}
