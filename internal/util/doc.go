// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared by the config, CLI and TUI layers:
// crash-safe file writes for the config file and display-width aware string
// truncation for filenames in narrow terminal columns.
package util
