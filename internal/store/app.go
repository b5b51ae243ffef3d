// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"errors"
	"strings"

	"github.com/jeranaias/docchat-tui/internal/api"
)

// Backend is the set of API calls AppState drives.
type Backend interface {
	ChatAPI
	ListFiles(ctx context.Context) ([]api.FileRecord, error)
	DeleteFile(ctx context.Context, id int) (*api.DeleteResult, error)
	AdminClearAll(ctx context.Context, token string) (*api.ClearAllResult, error)
}

// AppState bundles the two stores with the backend and implements the
// actions that touch both.
type AppState struct {
	Files *FilesStore
	Chat  *ChatStore

	backend Backend
}

// NewAppState returns empty stores bound to backend.
func NewAppState(backend Backend) *AppState {
	return &AppState{
		Files:   NewFilesStore(),
		Chat:    NewChatStore(backend),
		backend: backend,
	}
}

// OnChange registers fn on both stores.
func (a *AppState) OnChange(fn func()) {
	a.Files.OnChange(fn)
	a.Chat.OnChange(fn)
}

// LoadFiles fetches the file list and replaces the store contents. On
// failure the previous list is kept and the error is recorded.
func (a *AppState) LoadFiles(ctx context.Context) error {
	a.Files.SetLoading(true)
	defer a.Files.SetLoading(false)

	files, err := a.backend.ListFiles(ctx)
	if err != nil {
		a.Files.SetError(api.Message(err, api.OpList))
		return err
	}
	a.Files.SetFiles(files)
	a.Files.SetError("")
	return nil
}

// DeleteFile deletes id on the backend and removes it locally. Warnings
// from the backend are joined into the files error and returned. Deleting
// the last file also clears the transcript.
func (a *AppState) DeleteFile(ctx context.Context, id int) ([]string, error) {
	res, err := a.backend.DeleteFile(ctx, id)
	if err != nil {
		a.Files.SetError(api.Message(err, api.OpDelete))
		return nil, err
	}

	a.Files.RemoveFile(id)
	var warnings []string
	if res != nil && len(res.Warnings) > 0 {
		warnings = res.Warnings
		a.Files.SetError(strings.Join(warnings, "\n"))
	} else {
		a.Files.SetError("")
	}

	if a.Files.Len() == 0 {
		a.Chat.ClearChat()
	}
	return warnings, nil
}

// ErrNoToken is returned by ClearAll when no admin token is available.
var ErrNoToken = errors.New("admin token is required")

// ClearAll wipes every file and chat message on the backend, then resets
// both local stores.
func (a *AppState) ClearAll(ctx context.Context, token string) (*api.ClearAllResult, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrNoToken
	}
	res, err := a.backend.AdminClearAll(ctx, token)
	if err != nil {
		return nil, err
	}
	a.Files.ClearFiles()
	a.Files.SetError("")
	a.Chat.ClearChat()
	a.Chat.SetError("")
	return res, nil
}

// SendChat forwards to the chat store.
func (a *AppState) SendChat(ctx context.Context, question string, opts ChatOptions) error {
	return a.Chat.SendChat(ctx, question, opts)
}

// CanChat reports whether at least one file is loaded.
func (a *AppState) CanChat() bool {
	return a.Files.Len() > 0
}
