// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package upload validates local files and sends them to the backend one at
// a time, reporting each outcome through a Notifier.
//
// Files that fail validation (unsupported extension, over the size limit)
// never reach the network. A Watcher turns a directory into a drop zone:
// anything created or written there is uploaded once writes settle.
package upload
