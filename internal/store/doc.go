// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store holds the client-side state shared by the TUI and CLI: the
// list of uploaded files and the chat transcript.
//
// Every mutation is atomic and followed by a change notification so views
// can re-render. State lives only in memory and is gone when the process
// exits.
package store
