// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and saves docchat settings.
//
// Configuration file locations (in order of precedence):
//   - $DOCCHAT_HOME/config.toml (DOCCHAT_HOME defaults to ~/.docchat)
//   - $DOCCHAT_HOME/config.json
//   - Built-in defaults
//
// Environment variables are applied on top of whichever source was used:
//
//	DOCCHAT_URL            server.base_url
//	DOCCHAT_ADMIN_TOKEN    admin.token
//	DOCCHAT_MAX_UPLOAD_MB  upload.max_size_mb
//	DOCCHAT_WATCH_DIR      upload.watch_dir
//	DOCCHAT_THEME          ui.theme
//
// Values are read through Global, which loads the file once and is safe for
// concurrent use. The CLI's "config set" command goes through Get/Set, which
// address fields with dot notation such as "server.base_url".
package config
