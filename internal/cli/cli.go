// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/fatih/color"

	"github.com/jeranaias/docchat-tui/internal/api"
	"github.com/jeranaias/docchat-tui/internal/config"
)

// Version information, set at build time with -ldflags.
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command is the subcommand to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdUpload
	CmdFiles
	CmdAsk
	CmdChat
	CmdHealth
	CmdReset
	CmdWatch
	CmdConfig
	CmdVersion
	CmdHelp
)

var commandNames = map[string]Command{
	"upload":  CmdUpload,
	"up":      CmdUpload,
	"files":   CmdFiles,
	"ls":      CmdFiles,
	"ask":     CmdAsk,
	"chat":    CmdChat,
	"health":  CmdHealth,
	"status":  CmdHealth,
	"reset":   CmdReset,
	"watch":   CmdWatch,
	"config":  CmdConfig,
	"version": CmdVersion,
	"help":    CmdHelp,
}

// String is the canonical command name.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdUpload:
		return "upload"
	case CmdFiles:
		return "files"
	case CmdAsk:
		return "ask"
	case CmdChat:
		return "chat"
	case CmdHealth:
		return "health"
	case CmdReset:
		return "reset"
	case CmdWatch:
		return "watch"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	default:
		return "help"
	}
}

// Args holds the global flags and the command's own arguments.
type Args struct {
	URL     string
	JSON    bool
	Quiet   bool
	Verbose bool
	NoColor bool

	// Rest are the arguments after the command name.
	Rest []string
}

const usageText = `docchat - chat with your documents from the terminal

Usage:
  docchat                         Start the TUI (default)
  docchat upload <paths...>       Upload files
  docchat files [list]            List uploaded files
  docchat files delete <id>       Delete a file
  docchat ask "question"          Ask one question
      --file ID                   Only search one file
      --keyword K                 Keyword hint (repeatable)
      --filter key=value          Metadata filter (repeatable)
      -k N                        Number of chunks to retrieve
  docchat chat                    Interactive chat (line editing, history)
  docchat health, status          Backend and LLM status
  docchat reset                   Delete ALL files and chat history
      --confirm                   Skip the confirmation prompt
      --token T                   Admin token (default: config)
  docchat watch [dir]             Upload files dropped into dir
      --debounce 2s               Wait for writes to settle
  docchat config [show]           Show configuration
  docchat config get <key>        Print one setting
  docchat config set <key> <val>  Change a setting
  docchat config path             Print the config file path
  docchat config init [--force]   Write a default config file
  docchat version                 Version information

Global flags:
  --url URL        Backend URL (default: config server.base_url)
  --json           Machine-readable output
  -q, --quiet      Only print results
  -v, --verbose    Log requests to stderr
  --no-color       Disable colors (NO_COLOR is honored too)

Environment:
  DOCCHAT_URL, DOCCHAT_ADMIN_TOKEN, DOCCHAT_MAX_UPLOAD_MB,
  DOCCHAT_WATCH_DIR, DOCCHAT_THEME, DOCCHAT_HOME, DOCCHAT_DEBUG
`

// PrintUsage writes the help text to w.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// =============================================================================
// PARSING
// =============================================================================

// Parse reads argv (without the program name). Global flags may appear
// anywhere; the first other word is the command. No command means the TUI.
func Parse(argv []string) (Command, Args, error) {
	var args Args
	var rest []string

	for i := 0; i < len(argv); i++ {
		a := argv[i]
		switch {
		case a == "--json":
			args.JSON = true
		case a == "-q" || a == "--quiet":
			args.Quiet = true
		case a == "-v" || a == "--verbose":
			args.Verbose = true
		case a == "--no-color":
			args.NoColor = true
		case a == "--url":
			if i+1 >= len(argv) {
				return CmdHelp, args, ErrMissingArgument("--url", "docchat --url http://host:8000 ...")
			}
			args.URL = argv[i+1]
			i++
		case strings.HasPrefix(a, "--url="):
			args.URL = strings.TrimPrefix(a, "--url=")
		case a == "--":
			rest = append(rest, argv[i:]...)
			i = len(argv)
		default:
			rest = append(rest, a)
		}
	}

	if len(rest) == 0 {
		return CmdTUI, args, nil
	}

	name := rest[0]
	switch name {
	case "-h", "--help":
		return CmdHelp, args, nil
	case "--version":
		return CmdVersion, args, nil
	}

	cmd, ok := commandNames[strings.ToLower(name)]
	if !ok {
		return CmdHelp, args, &ValidationError{
			Field:   "command",
			Value:   name,
			Reason:  "unknown command",
			Example: "docchat help",
		}
	}
	args.Rest = rest[1:]
	return cmd, args, nil
}

// =============================================================================
// ENVIRONMENT
// =============================================================================

// Env is what every handler works with.
type Env struct {
	Args   Args
	Config *config.Config
	Client *api.Client

	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// NewEnv loads configuration, applies --url and builds the backend client.
// A broken config file is reported as a warning and defaults are used.
func NewEnv(args Args) (*Env, error) {
	env := &Env{Args: args, In: os.Stdin, Out: os.Stdout, Err: os.Stderr}

	cfg, err := config.Load()
	if err != nil {
		if cfg == nil {
			return nil, err
		}
		env.warn("%v (using defaults)", err)
	}
	if args.URL != "" {
		cfg.Server.BaseURL = args.URL
		cfg.SetDefaults()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	config.SetGlobal(cfg)

	env.Config = cfg
	env.Client = newClient(cfg)
	return env, nil
}

func newClient(cfg *config.Config) *api.Client {
	return api.NewClientWithConfig(&api.ClientConfig{
		BaseURL:           cfg.Server.BaseURL,
		Timeout:           cfg.Timeout(),
		RequestsPerSecond: cfg.Server.RequestsPerSecond,
		UserAgent:         "docchat/" + Version,
	})
}

// Run executes cmd and returns the process exit code. It never starts the
// TUI; main handles CmdTUI itself.
func Run(ctx context.Context, cmd Command, args Args) int {
	if args.NoColor {
		ForceColorsEnabled(false)
	} else {
		color.NoColor = !ColorsEnabled()
	}

	// help and version need no config or backend.
	switch cmd {
	case CmdHelp:
		PrintUsage(os.Stdout)
		return ExitSuccess
	case CmdVersion:
		env := &Env{Args: args, Out: os.Stdout, Err: os.Stderr}
		return finish(env, HandleVersion(env))
	}

	env, err := NewEnv(args)
	if err != nil {
		DisplayError(os.Stderr, err, args.JSON)
		return ExitCode(err)
	}
	return finish(env, env.Dispatch(ctx, cmd))
}

func finish(env *Env, err error) int {
	if err == nil {
		return ExitSuccess
	}
	w := env.Err
	if env.Args.JSON {
		w = env.Out
	}
	DisplayError(w, err, env.Args.JSON)
	return ExitCode(err)
}

// Dispatch runs the handler for cmd.
func (e *Env) Dispatch(ctx context.Context, cmd Command) error {
	switch cmd {
	case CmdUpload:
		return HandleUpload(ctx, e)
	case CmdFiles:
		return HandleFiles(ctx, e)
	case CmdAsk:
		return HandleAsk(ctx, e)
	case CmdChat:
		return HandleChat(ctx, e)
	case CmdHealth:
		return HandleHealth(ctx, e)
	case CmdReset:
		return HandleReset(ctx, e)
	case CmdWatch:
		return HandleWatch(ctx, e)
	case CmdConfig:
		return HandleConfig(e)
	case CmdVersion:
		return HandleVersion(e)
	}
	PrintUsage(e.Out)
	return nil
}

// =============================================================================
// VERSION
// =============================================================================

// VersionData is the --json payload of the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// HandleVersion prints build information.
func HandleVersion(e *Env) error {
	data := VersionData{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if e.Args.JSON {
		return e.printJSON("version", data)
	}
	fmt.Fprintf(e.Out, "docchat %s\n", data.Version)
	if !e.Args.Quiet {
		fmt.Fprintf(e.Out, "  commit:   %s\n  built:    %s\n  go:       %s\n  platform: %s\n",
			data.GitCommit, data.BuildDate, data.GoVersion, data.Platform)
	}
	return nil
}
