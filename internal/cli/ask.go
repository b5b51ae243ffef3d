// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/muesli/termenv"

	"github.com/jeranaias/docchat-tui/internal/api"
	"github.com/jeranaias/docchat-tui/internal/store"
	"github.com/jeranaias/docchat-tui/internal/ui/components"
)

// AskData is the --json payload of the ask command.
type AskData struct {
	Question string       `json:"question"`
	Answer   string       `json:"answer"`
	Sources  []api.Source `json:"sources"`
}

// HandleAsk sends one question and prints the answer with its sources.
func HandleAsk(ctx context.Context, e *Env) error {
	p := NewArgParser(e.Args.Rest)
	question := strings.TrimSpace(strings.Join(p.PositionalArgs(), " "))
	if question == "" {
		return ErrMissingArgument("question", `docchat ask "What does the contract say about renewal?"`)
	}

	opts, err := chatOptionsFromFlags(p, e.Config.Chat.K)
	if err != nil {
		return err
	}

	chat := store.NewChatStore(e.Client)

	stop := e.spin("Thinking…")
	err = chat.SendChat(ctx, question, opts)
	stop()
	if err != nil {
		return NewCommandError("ask", "chat", chat.Err(), err)
	}

	msgs := chat.Messages()
	answer := msgs[len(msgs)-1]

	if e.Args.JSON {
		sources := answer.Sources
		if sources == nil {
			sources = []api.Source{}
		}
		return e.printJSON("ask", AskData{Question: question, Answer: answer.Text, Sources: sources})
	}
	e.printAnswer(answer)
	return nil
}

// chatOptionsFromFlags reads --file, --keyword, --filter and -k.
func chatOptionsFromFlags(p *ArgParser, defaultK int) (store.ChatOptions, error) {
	opts := store.ChatOptions{K: defaultK}

	if raw := p.Flag("file", "f"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return opts, &ValidationError{Field: "--file", Value: raw, Reason: "must be a file id", Example: "--file 3"}
		}
		opts.FileID = &id
	}

	for _, kw := range p.Flags("keyword", "keywords") {
		opts.Keywords = append(opts.Keywords, store.ParseKeywords(kw)...)
	}

	filter, err := store.ParseFilter(p.Flags("filter"))
	if err != nil {
		return opts, &ValidationError{Field: "--filter", Reason: err.Error(), Example: "--filter author=Smith"}
	}
	opts.MetadataFilter = filter

	k, err := p.FlagInt(defaultK, "k")
	if err != nil {
		return opts, err
	}
	if k < 0 || k > 50 {
		return opts, &ValidationError{Field: "-k", Value: strconv.Itoa(k), Reason: "must be between 0 and 50"}
	}
	opts.K = k
	return opts, nil
}

// =============================================================================
// ANSWER RENDERING
// =============================================================================

// printAnswer writes an AI message to stdout. Markdown is rendered with
// glamour when stdout is a terminal.
func (e *Env) printAnswer(msg store.ChatMessage) {
	text := msg.Text
	if r := e.markdown(); r != nil {
		text = r.Render(text, GetTerminalWidth()-2)
	}
	fmt.Fprintln(e.Out, text)

	if e.Config.UI.ShowSources {
		if names := msg.SourceNames(); len(names) > 0 {
			fmt.Fprintln(e.Out, mutedColor.Sprint("Sources: "+strings.Join(names, ", ")))
		}
	}
}

func (e *Env) markdown() *components.MarkdownRenderer {
	if !e.Config.UI.Markdown || e.Out != os.Stdout || !IsStdoutTTY() {
		return nil
	}
	style := "light"
	switch {
	case !ColorsEnabled():
		style = "notty"
	case e.Config.UI.Theme == "dark":
		style = "dark"
	case e.Config.UI.Theme == "auto" && termenv.HasDarkBackground():
		style = "dark"
	}
	return components.NewMarkdownRenderer(style)
}
