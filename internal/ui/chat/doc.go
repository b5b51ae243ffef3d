// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the docchat TUI: a files sidebar, the chat transcript and
// an input line, bound to the shared stores in internal/store.
//
// Network work runs in tea.Cmds and reports back with result messages.
// Store mutations made by those commands are observed through a change
// channel and surface as StoreChangedMsg, so the view always renders the
// stores' current state.
//
// Keys:
//
//	enter       send the message or run a slash command
//	tab         switch focus between input and files
//	d / delete  delete the selected file (files focus)
//	enter       ask about the selected file only (files focus)
//	ctrl+r      reset the app (confirmation required)
//	pgup/pgdn   scroll the transcript
//	esc         dismiss a toast, then an error banner
//	ctrl+c      quit
package chat
