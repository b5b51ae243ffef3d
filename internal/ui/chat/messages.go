// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/docchat-tui/internal/api"
	"github.com/jeranaias/docchat-tui/internal/upload"
)

// StoreChangedMsg reports that a store mutated.
type StoreChangedMsg struct{}

// FilesLoadedMsg is the result of a file list fetch.
type FilesLoadedMsg struct {
	Err error
}

// HealthMsg is the result of a health check.
type HealthMsg struct {
	Status *api.HealthStatus
	Err    error
}

// ChatDoneMsg is the result of a chat request. Err is nil on success.
type ChatDoneMsg struct {
	Err error
}

// FileDeletedMsg is the result of deleting one file.
type FileDeletedMsg struct {
	ID       int
	Filename string
	Warnings []string
	Err      error
}

// UploadDoneMsg reports a finished upload batch.
type UploadDoneMsg struct {
	Summary upload.Summary
}

// ResetDoneMsg is the result of the admin reset.
type ResetDoneMsg struct {
	Result *api.ClearAllResult
	Err    error
}

// WatcherStartedMsg reports the drop-folder watcher's start.
type WatcherStartedMsg struct {
	Watcher *upload.Watcher
	Err     error
}
