// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/docchat-tui/internal/ui/styles"
)

// ConfirmResult is the outcome of a key press in a ConfirmDialog.
type ConfirmResult int

const (
	ConfirmPending ConfirmResult = iota
	ConfirmAccepted
	ConfirmCancelled
)

// ConfirmDialog asks a yes/no question. Cancel is selected by default.
type ConfirmDialog struct {
	Title   string
	Body    string
	Confirm string
	yes     bool
}

// NewConfirmDialog builds a dialog; confirm labels the accept button.
func NewConfirmDialog(title, body, confirm string) ConfirmDialog {
	return ConfirmDialog{Title: title, Body: body, Confirm: confirm}
}

// HandleKey applies a key press. y and n answer directly; arrows and tab
// move the selection; enter picks it; esc cancels.
func (d ConfirmDialog) HandleKey(msg tea.KeyMsg) (ConfirmDialog, ConfirmResult) {
	switch msg.String() {
	case "y", "Y":
		return d, ConfirmAccepted
	case "n", "N", "esc", "q":
		return d, ConfirmCancelled
	case "left", "right", "tab", "shift+tab", "h", "l":
		d.yes = !d.yes
	case "enter":
		if d.yes {
			return d, ConfirmAccepted
		}
		return d, ConfirmCancelled
	}
	return d, ConfirmPending
}

// View renders the dialog centered in width x height.
func (d ConfirmDialog) View(theme *styles.Theme, width, height int) string {
	cancel, confirm := theme.ButtonActive, theme.Button
	if d.yes {
		cancel, confirm = theme.Button, theme.ButtonActive
	}
	label := d.Confirm
	if label == "" {
		label = "Confirm"
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Top,
		cancel.Render("Cancel"), "  ", confirm.Render(label))
	content := lipgloss.JoinVertical(lipgloss.Left,
		theme.DialogTitle.Render(d.Title),
		"",
		theme.DialogBody.Width(min(56, max(20, width-10))).Render(d.Body),
		"",
		buttons,
	)
	box := theme.DialogBox.Render(content)
	if width <= 0 || height <= 0 {
		return box
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
