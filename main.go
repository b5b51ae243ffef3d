// docchat - chat with your documents from the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/docchat-tui/internal/api"
	"github.com/jeranaias/docchat-tui/internal/cli"
	"github.com/jeranaias/docchat-tui/internal/config"
	"github.com/jeranaias/docchat-tui/internal/ui/chat"
	"github.com/jeranaias/docchat-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args, err := cli.Parse(os.Args[1:])
	if err != nil {
		cli.DisplayError(os.Stderr, err, args.JSON)
		if !args.JSON {
			fmt.Fprintln(os.Stderr)
			cli.PrintUsage(os.Stderr)
		}
		os.Exit(cli.ExitUsageError)
	}

	if cmd == cli.CmdTUI {
		os.Exit(runTUI(args))
	}

	if args.Verbose {
		log.SetOutput(os.Stderr)
		log.SetFlags(log.Ltime | log.Lmicroseconds)
	} else {
		log.SetOutput(io.Discard)
	}
	os.Exit(cli.Run(context.Background(), cmd, args))
}

// runTUI starts the full-screen interface. The alternate screen owns the
// terminal, so logs go to a file when DOCCHAT_DEBUG names one and are
// dropped otherwise.
func runTUI(args cli.Args) int {
	if path := os.Getenv("DOCCHAT_DEBUG"); path != "" {
		if path == "1" || path == "true" {
			path = "docchat-debug.log"
		}
		f, err := tea.LogToFile(path, "docchat")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: could not open debug log: %v\n", err)
			return cli.ExitGeneralError
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	cfg := config.Global()
	if args.URL != "" {
		cfg = cfg.Clone()
		cfg.Server.BaseURL = args.URL
		cfg.SetDefaults()
		if err := cfg.Validate(); err != nil {
			cli.DisplayError(os.Stderr, err, false)
			return cli.ExitConfigError
		}
		config.SetGlobal(cfg)
	}

	if args.NoColor || os.Getenv("NO_COLOR") != "" {
		styles.DisableColor()
	} else {
		styles.ApplyThemeMode(cfg.UI.Theme)
	}
	theme := styles.NewTheme()

	client := api.NewClientWithConfig(&api.ClientConfig{
		BaseURL:           cfg.Server.BaseURL,
		Timeout:           cfg.Timeout(),
		RequestsPerSecond: cfg.Server.RequestsPerSecond,
		UserAgent:         "docchat/" + Version,
	})
	log.Printf("starting TUI against %s", client.BaseURL())

	m := chat.New(chat.Options{
		Config:  cfg,
		Theme:   theme,
		Backend: client,
		BaseURL: client.BaseURL(),
	})
	defer m.Shutdown()

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	final, err := p.Run()
	if fm, ok := final.(chat.Model); ok {
		fm.Shutdown()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running docchat: %v\n", err)
		return cli.ExitGeneralError
	}
	return cli.ExitSuccess
}
