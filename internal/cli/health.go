// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	"github.com/jeranaias/docchat-tui/internal/api"
)

// HealthData is the --json payload of the health command.
type HealthData struct {
	URL        string         `json:"url"`
	Status     string         `json:"status"`
	LLM        *api.LLMStatus `json:"llm"`
	Model      string         `json:"model"`
	Connection string         `json:"connection"`
}

// HandleHealth reports backend and language model status. An unreachable
// backend is an error; a disconnected LLM is not.
func HandleHealth(ctx context.Context, e *Env) error {
	h, err := e.Client.Health(ctx)
	if err != nil {
		return NewCommandError("health", "check", api.Message(err, api.OpHealth), err)
	}

	data := HealthData{
		URL:        e.Client.BaseURL(),
		Status:     h.Status,
		LLM:        h.LLM,
		Model:      h.LLM.DisplayModel(),
		Connection: h.LLM.ConnectionText(),
	}
	if data.Status == "" {
		data.Status = "unknown"
	}
	if e.Args.JSON {
		return e.printJSON("health", data)
	}

	const w = 12
	fmt.Fprintf(e.Out, "%s %s\n", label("Backend", w), data.URL)
	fmt.Fprintf(e.Out, "%s %s\n", label("Status", w), data.Status)
	if h.LLM == nil {
		fmt.Fprintf(e.Out, "%s %s\n", label("LLM", w), mutedColor.Sprint("status unknown"))
		return nil
	}
	fmt.Fprintf(e.Out, "%s %s\n", label("Model", w), data.Model)
	conn := errorColor.Sprint(data.Connection)
	if h.LLM.OK {
		conn = successColor.Sprint(data.Connection)
	}
	fmt.Fprintf(e.Out, "%s %s\n", label("LLM", w), conn)
	if h.LLM.Msg != "" {
		fmt.Fprintf(e.Out, "%s %s\n", label("Message", w), h.LLM.Msg)
	}
	return nil
}
