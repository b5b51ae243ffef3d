// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/docchat-tui/internal/config"
	"github.com/jeranaias/docchat-tui/internal/store"
	"github.com/jeranaias/docchat-tui/internal/upload"
	"github.com/jeranaias/docchat-tui/internal/util"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineReader is a liner prompt with a persistent history file.
type lineReader struct {
	line        *liner.State
	historyFile string
}

func newLineReader() *lineReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	r := &lineReader{line: line, historyFile: filepath.Join(dir, "chat_history")}

	if f, err := os.Open(r.historyFile); err == nil {
		_, _ = r.line.ReadHistory(f)
		f.Close()
	}
	return r
}

func (r *lineReader) read(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// close writes the history with 0600 permissions and restores the terminal.
func (r *lineReader) close() {
	defer r.line.Close()

	var buf bytes.Buffer
	if _, err := r.line.WriteHistory(&buf); err != nil {
		log.Printf("chat history: %v", err)
		return
	}
	if err := util.AtomicWriteFileWithDir(r.historyFile, buf.Bytes(), 0600, 0700); err != nil {
		log.Printf("chat history: %v", err)
	}
}

// =============================================================================
// SESSION
// =============================================================================

const chatHelp = `Commands:
  /files              List uploaded files
  /upload <paths...>  Upload files
  /file <id>|all      Limit answers to one file
  /k <n>              Chunks to retrieve (0 = backend default)
  /keywords a, b      Keyword hints (empty clears)
  /filter k=v ...     Metadata filter (empty clears)
  /clear              Clear the transcript
  /help               Show this help
  /quit               Leave
`

// chatSession is the state of one interactive chat.
type chatSession struct {
	env      *Env
	state    *store.AppState
	uploader *upload.Uploader
	opts     store.ChatOptions
}

// HandleChat runs an interactive question loop with line editing and
// history. It needs a terminal on stdin.
func HandleChat(ctx context.Context, e *Env) error {
	if e.Args.JSON {
		return &ValidationError{Field: "--json", Reason: "not supported by chat", Example: `docchat ask --json "question"`}
	}
	if err := RequiresTTY("chat", `use: docchat ask "question"`); err != nil {
		return err
	}

	p := NewArgParser(e.Args.Rest)
	opts, err := chatOptionsFromFlags(p, e.Config.Chat.K)
	if err != nil {
		return err
	}

	s := &chatSession{env: e, state: store.NewAppState(e.Client), opts: opts}
	s.uploader = e.newUploader(s.state.Files)

	if err := s.state.LoadFiles(ctx); err != nil {
		e.warn("%s", s.state.Files.Err())
	}
	e.info("docchat chat: %d file(s) available. Type /help for commands.", s.state.Files.Len())

	r := newLineReader()
	defer r.close()

	for {
		input, err := r.read(userColor.Sprint("you> "))
		if err != nil {
			// Ctrl+C, Ctrl+D and closed stdin all end the session.
			if !errors.Is(err, liner.ErrPromptAborted) && !errors.Is(err, io.EOF) {
				log.Printf("chat prompt: %v", err)
			}
			fmt.Fprintln(e.Out)
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if strings.HasPrefix(input, "/") {
			if !s.command(ctx, input) {
				return nil
			}
			continue
		}
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			return nil
		}
		s.ask(ctx, input)
	}
}

func (s *chatSession) ask(ctx context.Context, question string) {
	e := s.env
	if !s.state.CanChat() {
		e.warn("Please upload a file to start chatting. Use /upload <path>.")
		return
	}

	stop := e.spin("Thinking…")
	err := s.state.SendChat(ctx, question, s.opts)
	stop()
	if err != nil {
		e.failure("%s", s.state.Chat.Err())
		return
	}

	msgs := s.state.Chat.Messages()
	fmt.Fprint(e.Out, aiColor.Sprint("ai> "))
	e.printAnswer(msgs[len(msgs)-1])
	fmt.Fprintln(e.Out)
}

// command runs a slash command and reports whether the session goes on.
func (s *chatSession) command(ctx context.Context, line string) bool {
	e := s.env
	fields, err := util.SplitArgs(strings.TrimPrefix(line, "/"))
	if err != nil {
		e.failure("%v", err)
		return true
	}
	if len(fields) == 0 {
		return true
	}
	name, args := strings.ToLower(fields[0]), fields[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(line, "/"), fields[0]))

	switch name {
	case "quit", "exit", "q":
		return false

	case "help", "?":
		fmt.Fprint(e.Out, chatHelp)

	case "clear":
		s.state.Chat.ClearChat()
		e.success("Transcript cleared")

	case "files", "ls":
		if err := s.state.LoadFiles(ctx); err != nil {
			e.failure("%s", s.state.Files.Err())
			return true
		}
		for _, f := range s.state.Files.Files() {
			marker := " "
			if s.opts.FileID != nil && *s.opts.FileID == f.ID {
				marker = "*"
			}
			fmt.Fprintf(e.Out, "%s %4d  %s\n", marker, f.ID, f.Filename)
		}
		if s.state.Files.Len() == 0 {
			e.info("No files uploaded yet.")
		}

	case "upload", "u":
		if len(args) == 0 {
			e.warn("Usage: /upload <paths...>")
			return true
		}
		s.uploader.UploadAll(ctx, upload.CandidatesFromPaths(args))

	case "file":
		if len(args) == 0 || args[0] == "all" {
			s.opts.FileID = nil
			e.success("Searching all files")
			return true
		}
		id, err := strconv.Atoi(args[0])
		if err != nil || !s.state.Files.Contains(id) {
			e.warn("Unknown file %q. Use /files to list ids.", args[0])
			return true
		}
		s.opts.FileID = &id
		f, _ := s.state.Files.Find(id)
		e.success("Searching only %s", f.Filename)

	case "k":
		if len(args) == 0 {
			fmt.Fprintf(e.Out, "k = %d\n", s.opts.K)
			return true
		}
		k, err := strconv.Atoi(args[0])
		if err != nil || k < 0 || k > 50 {
			e.warn("k must be a number between 0 and 50")
			return true
		}
		s.opts.K = k
		e.success("k = %d", k)

	case "keywords", "kw":
		s.opts.Keywords = store.ParseKeywords(rest)
		if len(s.opts.Keywords) == 0 {
			e.success("Keywords cleared")
		} else {
			e.success("Keywords: %s", strings.Join(s.opts.Keywords, ", "))
		}

	case "filter":
		filter, err := store.ParseFilter(args)
		if err != nil {
			e.warn("%v", err)
			return true
		}
		s.opts.MetadataFilter = filter
		if filter == nil {
			e.success("Filter cleared")
		} else {
			e.success("Filter: %s", strings.Join(args, " "))
		}

	default:
		e.warn("Unknown command /%s. Type /help.", name)
	}
	return true
}
