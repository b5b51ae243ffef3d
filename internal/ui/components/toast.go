// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/docchat-tui/internal/ui/styles"
)

// =============================================================================
// TOAST TYPES
// =============================================================================

// ToastKind is the severity of a toast.
type ToastKind int

const (
	ToastKindStatus ToastKind = iota
	ToastKindError
	ToastKindWarning
	ToastKindSuccess
)

// Default auto-dismiss durations.
const (
	SuccessToastDuration = 2 * time.Second
	StatusToastDuration  = 3 * time.Second
	ErrorToastDuration   = 4 * time.Second
	WarningToastDuration = 6 * time.Second
)

// Toast is a non-blocking notification that dismisses itself.
type Toast struct {
	ID          int
	Title       string
	Description string
	Kind        ToastKind
	CreatedAt   time.Time
	Duration    time.Duration
}

// NewToast builds a toast. A zero duration picks the default for kind.
func NewToast(kind ToastKind, title, description string, duration time.Duration) Toast {
	if duration <= 0 {
		switch kind {
		case ToastKindError:
			duration = ErrorToastDuration
		case ToastKindWarning:
			duration = WarningToastDuration
		case ToastKindSuccess:
			duration = SuccessToastDuration
		default:
			duration = StatusToastDuration
		}
	}
	return Toast{
		Title:       title,
		Description: description,
		Kind:        kind,
		CreatedAt:   time.Now(),
		Duration:    duration,
	}
}

// IsExpired reports whether the toast has outlived its duration.
func (t Toast) IsExpired() bool {
	return time.Since(t.CreatedAt) >= t.Duration
}

// TimeRemaining returns the time left before auto-dismiss.
func (t Toast) TimeRemaining() time.Duration {
	if remaining := t.Duration - time.Since(t.CreatedAt); remaining > 0 {
		return remaining
	}
	return 0
}

// =============================================================================
// TOAST MANAGER
// =============================================================================

// ToastManager holds the visible toasts, newest first. It is safe to add
// toasts from background goroutines.
type ToastManager struct {
	mu        sync.Mutex
	toasts    []Toast
	nextID    int
	maxToasts int
}

// NewToastManager returns a manager that shows at most five toasts.
func NewToastManager() *ToastManager {
	return &ToastManager{nextID: 1, maxToasts: 5}
}

// Add shows a toast and returns its id.
func (m *ToastManager) Add(t Toast) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	t.ID = m.nextID
	m.nextID++
	m.toasts = append([]Toast{t}, m.toasts...)
	if len(m.toasts) > m.maxToasts {
		m.toasts = m.toasts[:m.maxToasts]
	}
	return t.ID
}

func (m *ToastManager) AddError(title, description string) int {
	return m.Add(NewToast(ToastKindError, title, description, 0))
}

func (m *ToastManager) AddSuccess(title, description string) int {
	return m.Add(NewToast(ToastKindSuccess, title, description, 0))
}

func (m *ToastManager) AddStatus(title, description string) int {
	return m.Add(NewToast(ToastKindStatus, title, description, 0))
}

func (m *ToastManager) AddWarning(title, description string) int {
	return m.Add(NewToast(ToastKindWarning, title, description, 0))
}

// Remove dismisses one toast.
func (m *ToastManager) Remove(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.toasts {
		if t.ID == id {
			m.toasts = append(m.toasts[:i], m.toasts[i+1:]...)
			return
		}
	}
}

// DismissNewest removes the most recent toast, if any.
func (m *ToastManager) DismissNewest() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.toasts) == 0 {
		return false
	}
	m.toasts = m.toasts[1:]
	return true
}

// Tick drops expired toasts and returns a copy of the rest.
func (m *ToastManager) Tick() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()

	active := m.toasts[:0]
	for _, t := range m.toasts {
		if !t.IsExpired() {
			active = append(active, t)
		}
	}
	m.toasts = active
	return append([]Toast(nil), m.toasts...)
}

// Toasts returns a copy of the visible toasts.
func (m *ToastManager) Toasts() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Toast(nil), m.toasts...)
}

func (m *ToastManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.toasts)
}

// ToastTickMsg drives expiry.
type ToastTickMsg struct {
	Time time.Time
}

// ToastTickCmd ticks every 100ms.
func ToastTickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return ToastTickMsg{Time: t}
	})
}

// =============================================================================
// RENDERING
// =============================================================================

// RenderToast renders one toast at most 60 columns wide.
func RenderToast(t Toast, width int) string {
	maxWidth := 60
	if width > 0 && width-8 < maxWidth {
		maxWidth = width - 8
	}
	if maxWidth < 24 {
		maxWidth = 24
	}

	var color lipgloss.AdaptiveColor
	var icon string
	switch t.Kind {
	case ToastKindError:
		color, icon = styles.Rose, styles.StatusIndicators.Error
	case ToastKindWarning:
		color, icon = styles.Amber, styles.StatusIndicators.Warning
	case ToastKindSuccess:
		color, icon = styles.Emerald, styles.StatusIndicators.Success
	default:
		color, icon = styles.Cyan, styles.StatusIndicators.Info
	}

	inner := maxWidth - 6
	title := lipgloss.NewStyle().Foreground(color).Bold(true).Width(inner).
		Render(icon + " " + t.Title)
	content := title
	if t.Description != "" {
		content += "\n" + lipgloss.NewStyle().Foreground(styles.TextPrimary).Width(inner).Render(t.Description)
	}
	if secs := int(t.TimeRemaining().Seconds()); secs > 0 {
		content += "\n" + lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true).
			Render("esc dismiss  "+strconv.Itoa(secs)+"s")
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 2).
		Render(content)
}

// RenderToastStack renders toasts stacked vertically, newest on top.
func RenderToastStack(toasts []Toast, width int) string {
	if len(toasts) == 0 {
		return ""
	}
	rendered := make([]string, 0, len(toasts))
	for _, t := range toasts {
		rendered = append(rendered, RenderToast(t, width))
	}
	return lipgloss.JoinVertical(lipgloss.Right, rendered...)
}
