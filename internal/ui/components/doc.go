// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components holds the reusable pieces of the docchat TUI: chat
// bubbles, the file list, the LLM status header, toasts and the
// confirmation dialog. Components render strings from plain data and keep
// no references to the stores.
package components
