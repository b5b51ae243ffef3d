// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements docchat's non-interactive subcommands.
//
// Parse turns os.Args into a Command and Args. Run builds an Env (config,
// backend client and output streams) and dispatches to the handler for the
// command. Handlers return errors instead of exiting; Run prints them and
// maps them to an exit code with ExitCode.
//
// Commands:
//
//	upload <paths...>            upload files with a progress bar
//	files [list|delete <id>]     list or delete uploaded files
//	ask "question"               ask one question
//	chat                         line-editing chat REPL
//	health, status               backend and LLM status
//	reset [--confirm] [--token]  delete all files and chat history
//	watch [dir]                  upload files dropped into a folder
//	config [show|get|set|path|init]  configuration
//	version, help
//
// Global flags: --url, --json, -q/--quiet, -v/--verbose, --no-color.
package cli
