// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/docchat-tui/internal/store"
	"github.com/jeranaias/docchat-tui/internal/ui/styles"
)

// BubbleOptions controls how a message is drawn.
type BubbleOptions struct {
	Width       int
	ShowSources bool
	// Markdown renders AI answers; nil shows them as plain text.
	Markdown *MarkdownRenderer
}

// SourcesText is the citation line for a message: "Sources: a, b", or ""
// when there are none. Names are de-duplicated by display string.
func SourcesText(msg store.ChatMessage) string {
	names := msg.SourceNames()
	if len(names) == 0 {
		return ""
	}
	return "Sources: " + strings.Join(names, ", ")
}

// RenderBubble draws one transcript entry. User messages sit on the right,
// AI answers on the left.
func RenderBubble(theme *styles.Theme, msg store.ChatMessage, opts BubbleOptions) string {
	width := opts.Width
	if width < 24 {
		width = 24
	}
	bubbleWidth := width * 4 / 5
	inner := bubbleWidth - 4

	if msg.Sender == store.SenderUser {
		label := theme.BubbleLabel.Render("You")
		body := theme.UserBubble.Width(bubbleWidth).Render(msg.Text)
		block := lipgloss.JoinVertical(lipgloss.Right, label, body)
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, block)
	}

	text := msg.Text
	if opts.Markdown != nil {
		text = opts.Markdown.Render(text, inner)
	}
	if opts.ShowSources {
		if src := SourcesText(msg); src != "" {
			text += "\n\n" + theme.SourcesLine.Width(inner).Render(src)
		}
	}

	label := theme.BubbleLabel.Render("Assistant")
	body := theme.AIBubble.Width(bubbleWidth).Render(text)
	return lipgloss.JoinVertical(lipgloss.Left, label, body)
}

// RenderTranscript draws every message separated by a blank line.
func RenderTranscript(theme *styles.Theme, msgs []store.ChatMessage, opts BubbleOptions) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		parts = append(parts, RenderBubble(theme, m, opts))
	}
	return strings.Join(parts, "\n\n")
}
