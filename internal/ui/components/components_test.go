// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/docchat-tui/internal/api"
	"github.com/jeranaias/docchat-tui/internal/store"
	"github.com/jeranaias/docchat-tui/internal/ui/styles"
)

// =============================================================================
// TOASTS
// =============================================================================

func TestNewToast_DefaultDurations(t *testing.T) {
	assert.Equal(t, ErrorToastDuration, NewToast(ToastKindError, "x", "", 0).Duration)
	assert.Equal(t, SuccessToastDuration, NewToast(ToastKindSuccess, "x", "", 0).Duration)
	assert.Equal(t, 7*time.Second, NewToast(ToastKindStatus, "x", "", 7*time.Second).Duration)
}

func TestToastManager_NewestFirstAndCapped(t *testing.T) {
	m := NewToastManager()
	for i := 0; i < 7; i++ {
		m.AddStatus("toast", "")
	}
	m.AddError("latest", "")

	toasts := m.Toasts()
	require.Len(t, toasts, 5)
	assert.Equal(t, "latest", toasts[0].Title)
	assert.Equal(t, ToastKindError, toasts[0].Kind)
}

func TestToastManager_TickDropsExpired(t *testing.T) {
	m := NewToastManager()
	expired := NewToast(ToastKindStatus, "old", "", 10*time.Millisecond)
	expired.CreatedAt = time.Now().Add(-time.Second)
	m.Add(expired)
	m.AddSuccess("fresh", "")

	active := m.Tick()
	require.Len(t, active, 1)
	assert.Equal(t, "fresh", active[0].Title)
}

func TestToastManager_RemoveAndDismiss(t *testing.T) {
	m := NewToastManager()
	id := m.AddWarning("a", "")
	m.AddStatus("b", "")

	m.Remove(id)
	assert.Equal(t, 1, m.Len())
	assert.True(t, m.DismissNewest())
	assert.False(t, m.DismissNewest())
}

func TestRenderToast_ContainsTitleAndDescription(t *testing.T) {
	out := RenderToast(NewToast(ToastKindError, "Upload failed", "File too large", 0), 80)
	assert.Contains(t, out, "Upload failed")
	assert.Contains(t, out, "File too large")
	assert.Contains(t, out, styles.StatusIndicators.Error)
}

// =============================================================================
// BUBBLES
// =============================================================================

func TestSourcesText_Deduplicates(t *testing.T) {
	msg := store.NewMessage(store.SenderAI, "answer", []api.Source{
		api.StringSource("a.pdf"),
		api.ObjectSource(map[string]any{"filename": "a.pdf"}),
		api.ObjectSource(map[string]any{"source_file": "b.csv"}),
	})
	assert.Equal(t, "Sources: a.pdf, b.csv", SourcesText(msg))
	assert.Equal(t, "", SourcesText(store.NewMessage(store.SenderAI, "x", nil)))
}

func TestRenderBubble(t *testing.T) {
	theme := styles.NewTheme()

	user := RenderBubble(theme, store.NewMessage(store.SenderUser, "what is this?", nil), BubbleOptions{Width: 60})
	assert.Contains(t, user, "You")
	assert.Contains(t, user, "what is this?")

	ai := store.NewMessage(store.SenderAI, "It is a report.", []api.Source{api.StringSource("r.pdf")})
	withSources := RenderBubble(theme, ai, BubbleOptions{Width: 60, ShowSources: true})
	assert.Contains(t, withSources, "Sources: r.pdf")

	without := RenderBubble(theme, ai, BubbleOptions{Width: 60})
	assert.NotContains(t, without, "Sources:")
}

func TestMarkdownRenderer(t *testing.T) {
	r := NewMarkdownRenderer("dark")
	out := r.Render("# Title\n\nSome **bold** text.", 40)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "bold")
	assert.NotContains(t, out, "**")

	var nilRenderer *MarkdownRenderer
	assert.Equal(t, "plain", nilRenderer.Render("plain", 40))
}

// =============================================================================
// HEADER
// =============================================================================

func TestHealthText(t *testing.T) {
	tests := []struct {
		name string
		h    HealthState
		want string
	}{
		{"loading", HealthState{Loading: true}, "Checking LLM status…"},
		{"error", HealthState{Err: errors.New("x")}, "Unable to fetch backend health"},
		{"connected", HealthState{Status: &api.HealthStatus{LLM: &api.LLMStatus{OK: true, Model: "llama3"}}}, "LLM: llama3 · Connected"},
		{"down with msg", HealthState{Status: &api.HealthStatus{LLM: &api.LLMStatus{Msg: "timeout", Model: "None"}}}, "LLM: Unknown · Not Connected · timeout"},
		{"no llm block", HealthState{Status: &api.HealthStatus{}}, "LLM status unknown"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HealthText(tc.h))
		})
	}
}

func TestRenderHeader(t *testing.T) {
	out := RenderHeader(styles.NewTheme(), HealthState{Loading: true}, "http://localhost:8000", 100)
	assert.Contains(t, out, "docchat")
	assert.Contains(t, out, HealthCheckingText)
}

// =============================================================================
// FILE LIST
// =============================================================================

func TestFileList_SelectionSurvivesRefresh(t *testing.T) {
	l := NewFileList()
	l.SetFiles([]api.FileRecord{{ID: 1, Filename: "a.pdf"}, {ID: 2, Filename: "b.txt"}, {ID: 3, Filename: "c.csv"}})
	l.MoveDown()
	l.MoveDown()

	sel, ok := l.Selected()
	require.True(t, ok)
	assert.Equal(t, 3, sel.ID)

	l.SetFiles([]api.FileRecord{{ID: 3, Filename: "c.csv"}, {ID: 4, Filename: "d.docx"}})
	sel, _ = l.Selected()
	assert.Equal(t, 3, sel.ID)

	l.SetFiles(nil)
	_, ok = l.Selected()
	assert.False(t, ok)
}

func TestFileList_View(t *testing.T) {
	theme := styles.NewTheme()
	l := NewFileList()
	assert.Contains(t, l.View(theme, 30, 10, true), EmptyFilesText)

	l.SetFiles([]api.FileRecord{{ID: 1, Filename: "a-very-long-quarterly-report-name.pdf", UploadTime: "2024-05-01T10:00:00"}})
	l.SetDeleting(1, true)
	out := l.View(theme, 30, 10, true)
	assert.Contains(t, out, "PDF")
	assert.Contains(t, out, "deleting")
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, len([]rune(stripANSI(line))), 32)
	}

	l.SetDeleting(1, false)
	assert.Contains(t, l.View(theme, 30, 10, true), "May 1 10:00")
}

func TestFileList_DeletingClearedWhenFileGone(t *testing.T) {
	l := NewFileList()
	l.SetFiles([]api.FileRecord{{ID: 1, Filename: "a.pdf"}})
	l.SetDeleting(1, true)
	l.SetFiles(nil)
	assert.False(t, l.IsDeleting(1))
}

// =============================================================================
// CONFIRM DIALOG
// =============================================================================

func TestConfirmDialog(t *testing.T) {
	d := NewConfirmDialog("Reset everything?", "This deletes all files.", "Reset")

	_, res := d.HandleKey(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ConfirmCancelled, res, "cancel is the default")

	d, res = d.HandleKey(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, ConfirmPending, res)
	_, res = d.HandleKey(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ConfirmAccepted, res)

	_, res = d.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	assert.Equal(t, ConfirmAccepted, res)
	_, res = d.HandleKey(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ConfirmCancelled, res)

	view := d.View(styles.NewTheme(), 80, 24)
	assert.Contains(t, view, "Reset everything?")
	assert.Contains(t, view, "Cancel")
}

// stripANSI removes CSI escape sequences.
func stripANSI(s string) string {
	var b strings.Builder
	inEsc := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEsc = true
		case inEsc && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'):
			inEsc = false
		case !inEsc:
			b.WriteRune(r)
		}
	}
	return b.String()
}
