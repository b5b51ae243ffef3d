// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/docchat-tui/internal/api"
	"github.com/jeranaias/docchat-tui/internal/ui/styles"
)

// Health status texts.
const (
	HealthCheckingText    = "Checking LLM status…"
	HealthUnavailableText = "Unable to fetch backend health"
	HealthUnknownText     = "LLM status unknown"
)

// HealthState is what the header knows about the backend.
type HealthState struct {
	Loading bool
	Err     error
	Status  *api.HealthStatus
}

// HealthText is the plain status line: model name, connection state and,
// when the LLM is down, its message.
func HealthText(h HealthState) string {
	switch {
	case h.Loading:
		return HealthCheckingText
	case h.Err != nil || h.Status == nil:
		return HealthUnavailableText
	}

	llm := h.Status.LLM
	if llm == nil {
		return HealthUnknownText
	}
	parts := []string{"LLM: " + llm.DisplayModel(), llm.ConnectionText()}
	if !llm.OK && llm.Msg != "" {
		parts = append(parts, llm.Msg)
	}
	return strings.Join(parts, " · ")
}

// RenderHeader draws the top bar: brand on the left, backend URL and LLM
// status on the right.
func RenderHeader(theme *styles.Theme, h HealthState, baseURL string, width int) string {
	brand := theme.HeaderBrand.Render("docchat")

	var status string
	switch {
	case h.Loading:
		status = theme.StatusWait.Render(HealthText(h))
	case h.Err != nil || h.Status == nil:
		status = theme.StatusBad.Render(styles.StatusIndicators.Error + " " + HealthText(h))
	case h.Status.LLM == nil:
		status = theme.StatusWait.Render(styles.StatusIndicators.Info + " " + HealthText(h))
	case h.Status.LLM.OK:
		status = theme.StatusOK.Render(styles.StatusIndicators.Success + " " + HealthText(h))
	default:
		status = theme.StatusBad.Render(styles.StatusIndicators.Warning + " " + HealthText(h))
	}

	right := theme.HeaderLabel.Render(baseURL) + "  " + status
	gap := width - lipgloss.Width(brand) - lipgloss.Width(right) - 2
	if gap < 1 {
		return theme.Header.Width(width).Render(brand + " " + status)
	}
	return theme.Header.Width(width).Render(brand + strings.Repeat(" ", gap) + right)
}
