// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/docchat-tui/internal/ui/components"
	"github.com/jeranaias/docchat-tui/internal/util"
)

const (
	minSidebarWidth = 26
	maxSidebarWidth = 42
	inputHeight     = 3
)

// layout holds the sizes derived from the window.
type layout struct {
	sidebarWidth int
	chatWidth    int
	bodyHeight   int
}

func (m Model) layout() layout {
	sb := m.width / 3
	sb = max(minSidebarWidth, min(maxSidebarWidth, sb))
	if m.width < 2*minSidebarWidth {
		sb = min(sb, m.width/2)
	}
	return layout{
		sidebarWidth: sb,
		chatWidth:    max(0, m.width-sb),
		bodyHeight:   max(0, m.height-2),
	}
}

// chatInnerWidth is the chat pane width minus its padding.
func (l layout) chatInnerWidth() int {
	return max(10, l.chatWidth-2)
}

// refresh syncs the derived view state with the stores: file list, input
// placeholder, viewport size and transcript. The viewport jumps to the
// bottom when the transcript changes.
func (m *Model) refresh() {
	m.fileList.SetFiles(m.state.Files.Files())

	switch {
	case !m.state.CanChat():
		m.input.Placeholder = PlaceholderNoFiles
	default:
		m.input.Placeholder = PlaceholderReady
	}

	if m.width == 0 || m.height == 0 {
		return
	}
	l := m.layout()
	inner := l.chatInnerWidth()
	m.input.Width = max(1, inner-4-lipgloss.Width(m.input.Prompt)-1)

	fixed := 1 + inputHeight // options line, input box
	for _, part := range []string{m.chatBanner(inner), m.thinkingLine(), m.toastStack(inner)} {
		if part != "" {
			fixed += lipgloss.Height(part)
		}
	}
	m.viewport.Width = inner
	m.viewport.Height = max(1, l.bodyHeight-fixed)

	tk := transcriptKey{
		count:   m.state.Chat.Len(),
		width:   inner,
		noFiles: !m.state.CanChat(),
	}
	if tk == m.rendered {
		return
	}
	m.rendered = tk
	m.viewport.SetContent(components.RenderTranscript(m.theme, m.state.Chat.Messages(), components.BubbleOptions{
		Width:       inner,
		ShowSources: m.cfg.UI.ShowSources,
		Markdown:    m.markdown,
	}))
	m.viewport.GotoBottom()
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the whole screen.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading…"
	}
	l := m.layout()

	header := components.RenderHeader(m.theme, m.health, m.baseURL, m.width)

	var body string
	if m.confirm != nil {
		body = m.confirm.View(m.theme, m.width, l.bodyHeight)
	} else {
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			m.sidebarView(l),
			m.chatView(l),
		)
	}
	body = lipgloss.NewStyle().Height(l.bodyHeight).MaxHeight(l.bodyHeight).Render(body)

	footer := m.help.ShortHelpView(m.keys.ShortHelp())

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m Model) sidebarView(l layout) string {
	style := m.theme.Sidebar
	if m.focus == focusFiles {
		style = m.theme.SidebarFocused
	}
	// Border plus padding take four columns and two rows.
	inner := max(8, l.sidebarWidth-4)
	height := max(1, l.bodyHeight-2)

	title := m.theme.SidebarTitle.Render(fmt.Sprintf("Files (%d)", m.state.Files.Len()))
	hint := m.theme.SidebarHint.Width(inner).Render(
		"/upload <path> or paste a path\n" + m.uploader.Rules().Describe())

	parts := []string{title, hint, ""}
	if msg := m.state.Files.Err(); msg != "" {
		parts = append(parts, m.theme.ErrorBanner.Width(inner-2).Render(msg), "")
	}
	if m.state.Files.Loading() && m.state.Files.Len() == 0 {
		parts = append(parts, m.spinner.View()+" "+m.theme.ThinkingText.Render("Loading files…"))
	} else {
		used := lipgloss.Height(strings.Join(parts, "\n"))
		listHeight := max(2, height-used-2)
		parts = append(parts, m.fileList.View(m.theme, inner, listHeight, m.focus == focusFiles))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)
	content = lipgloss.NewStyle().Height(height - 1).MaxHeight(height - 1).Render(content)
	content += "\n" + m.theme.SidebarHint.Render("ctrl+r reset app")

	return style.Width(inner + 2).Height(height).Render(content)
}

func (m Model) chatView(l layout) string {
	inner := l.chatInnerWidth()

	var parts []string
	parts = append(parts, m.theme.ChatOptionsLine.Render(util.TruncateWidth(m.scopeText(), inner)))
	if banner := m.chatBanner(inner); banner != "" {
		parts = append(parts, banner)
	}

	switch {
	case m.showHelp:
		parts = append(parts, lipgloss.NewStyle().Height(m.viewport.Height).MaxHeight(m.viewport.Height).
			Render(m.helpView(inner)))
	case !m.state.CanChat():
		parts = append(parts, lipgloss.Place(inner, m.viewport.Height, lipgloss.Center, lipgloss.Center,
			m.theme.Placeholder.Render(NoFilesText)))
	default:
		parts = append(parts, m.viewport.View())
	}

	if line := m.thinkingLine(); line != "" {
		parts = append(parts, line)
	}
	if stack := m.toastStack(inner); stack != "" {
		parts = append(parts, lipgloss.PlaceHorizontal(inner, lipgloss.Right, stack))
	}

	box := m.theme.InputContainer
	if !m.inputEnabled() || !m.state.CanChat() {
		box = m.theme.InputDisabled
	}
	parts = append(parts, box.Width(inner-2).Render(m.input.View()))

	return m.theme.ChatPane.Width(l.chatWidth).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// chatBanner is the dismissible chat error, or "".
func (m Model) chatBanner(width int) string {
	msg := m.state.Chat.Err()
	if msg == "" {
		return ""
	}
	return m.theme.ErrorBanner.Width(width - 2).Render(msg)
}

func (m Model) thinkingLine() string {
	if !m.state.Chat.Loading() {
		return ""
	}
	return m.spinner.View() + " " + m.theme.ThinkingText.Render("Thinking…")
}

func (m Model) toastStack(width int) string {
	return components.RenderToastStack(m.toasts.Toasts(), width)
}

func (m Model) helpView(width int) string {
	var b strings.Builder
	b.WriteString(m.theme.SidebarTitle.Render("Commands"))
	b.WriteString("\n")
	for _, c := range slashHelp {
		b.WriteString(m.theme.ShortcutKey.Render(util.PadRight(c.usage, 24)))
		b.WriteString(m.theme.ShortcutDesc.Render(c.desc))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.theme.SidebarTitle.Render("Keys"))
	b.WriteString("\n")

	h := m.help
	h.Width = width
	h.ShowAll = true
	b.WriteString(h.FullHelpView(m.keys.FullHelp()))
	return b.String()
}
