// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles is the docchat TUI palette and Lip Gloss styles.
//
// Colors are AdaptiveColor values so they follow the terminal background.
// The ui.theme setting can pin the background to dark or light; see
// ApplyThemeMode. Status text always carries an ASCII indicator ([OK], [X],
// [!], [i]) so meaning does not depend on color alone.
package styles
