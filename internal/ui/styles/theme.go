// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds every style the TUI renders with.
type Theme struct {
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Header
	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	HeaderLabel lipgloss.Style
	StatusOK    lipgloss.Style
	StatusBad   lipgloss.Style
	StatusWait  lipgloss.Style

	// Sidebar
	Sidebar         lipgloss.Style
	SidebarFocused  lipgloss.Style
	SidebarTitle    lipgloss.Style
	SidebarHint     lipgloss.Style
	FileItem        lipgloss.Style
	FileItemFocused lipgloss.Style
	FileMeta        lipgloss.Style
	Badge           lipgloss.Style
	Deleting        lipgloss.Style
	EmptyText       lipgloss.Style

	// Chat
	ChatPane        lipgloss.Style
	UserBubble      lipgloss.Style
	AIBubble        lipgloss.Style
	BubbleLabel     lipgloss.Style
	SourcesLine     lipgloss.Style
	Placeholder     lipgloss.Style
	ErrorBanner     lipgloss.Style
	Spinner         lipgloss.Style
	ThinkingText    lipgloss.Style
	InputContainer  lipgloss.Style
	InputDisabled   lipgloss.Style
	InputPrompt     lipgloss.Style
	ChatOptionsLine lipgloss.Style

	// Dialog
	DialogBox    lipgloss.Style
	DialogTitle  lipgloss.Style
	DialogBody   lipgloss.Style
	Button       lipgloss.Style
	ButtonActive lipgloss.Style

	// Footer
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
}

// NewTheme detects the terminal's color support and builds the styles.
func NewTheme() *Theme {
	profile := lipgloss.ColorProfile()
	t := &Theme{
		IsDark:       lipgloss.HasDarkBackground(),
		HasTrueColor: profile == termenv.TrueColor,
		ColorProfile: profile,
	}
	t.initStyles()
	return t
}

// ApplyThemeMode pins the background to "dark" or "light". "auto" and any
// other value keep terminal detection. Call before NewTheme.
func ApplyThemeMode(mode string) {
	switch strings.ToLower(mode) {
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	case "light":
		lipgloss.SetHasDarkBackground(false)
	}
}

// DisableColor forces plain ASCII output, for NO_COLOR and non-TTY use.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.HeaderBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.HeaderLabel = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.StatusOK = lipgloss.NewStyle().Foreground(Emerald).Bold(true)
	t.StatusBad = lipgloss.NewStyle().Foreground(Rose).Bold(true)
	t.StatusWait = lipgloss.NewStyle().Foreground(Amber).Italic(true)

	// Sidebar
	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.SidebarFocused = t.Sidebar.
		BorderForeground(Purple)

	t.SidebarTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.SidebarHint = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.FileItem = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.FileItemFocused = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(SelectionBg).
		Bold(true)

	t.FileMeta = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Badge = lipgloss.NewStyle().
		Foreground(TextInverse).
		Bold(true).
		Padding(0, 1)

	t.Deleting = lipgloss.NewStyle().
		Foreground(Amber).
		Italic(true)

	t.EmptyText = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Chat
	t.ChatPane = lipgloss.NewStyle().
		Padding(0, 1)

	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1)

	t.AIBubble = lipgloss.NewStyle().
		Foreground(AIBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AIBubbleBorder).
		Padding(0, 1)

	t.BubbleLabel = lipgloss.NewStyle().
		Foreground(TextMuted).
		Bold(true)

	t.SourcesLine = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.Placeholder = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.ErrorBanner = lipgloss.NewStyle().
		Foreground(ErrorHighContrast).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Rose).
		PaddingLeft(1)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Purple)

	t.ThinkingText = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Cyan).
		Padding(0, 1)

	t.InputDisabled = t.InputContainer.
		BorderForeground(OverlayDim)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.ChatOptionsLine = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Dialog
	t.DialogBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Rose).
		Padding(1, 2)

	t.DialogTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Rose)

	t.DialogBody = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.Button = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(Overlay).
		Padding(0, 2)

	t.ButtonActive = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Rose).
		Bold(true).
		Padding(0, 2)

	// Footer
	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)
}

// BadgeFor returns the extension badge style for ext.
func (t *Theme) BadgeFor(ext string) lipgloss.Style {
	return t.Badge.Background(BadgeColor(ext))
}
