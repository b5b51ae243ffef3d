// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/docchat-tui/internal/api"
	"github.com/jeranaias/docchat-tui/internal/config"
	"github.com/jeranaias/docchat-tui/internal/store"
	"github.com/jeranaias/docchat-tui/internal/ui/components"
	"github.com/jeranaias/docchat-tui/internal/ui/styles"
	"github.com/jeranaias/docchat-tui/internal/upload"
)

// Input placeholders.
const (
	PlaceholderNoFiles = "Please upload a file to start chatting"
	PlaceholderReady   = "Type your message..."
)

// NoFilesText replaces the transcript while no file is loaded.
const NoFilesText = "Please upload a file to start chatting."

// ResetConfirmText is the admin reset confirmation question.
const ResetConfirmText = "Are you sure you want to delete ALL files and chat history? This cannot be undone."

// Backend is every API call the TUI makes.
type Backend interface {
	store.Backend
	upload.API
	Health(ctx context.Context) (*api.HealthStatus, error)
}

type focusArea int

const (
	focusInput focusArea = iota
	focusFiles
)

// =============================================================================
// MODEL
// =============================================================================

// Model is the root bubbletea model.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg      *config.Config
	theme    *styles.Theme
	backend  Backend
	baseURL  string
	state    *store.AppState
	uploader *upload.Uploader
	watcher  *upload.Watcher

	toasts   *components.ToastManager
	fileList *components.FileList
	markdown *components.MarkdownRenderer

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	help     help.Model
	keys     KeyMap

	health   components.HealthState
	opts     store.ChatOptions
	focus    focusArea
	confirm  *components.ConfirmDialog
	showHelp bool

	// changes is poked by store listeners; capacity one coalesces bursts.
	changes chan struct{}

	width    int
	height   int
	rendered transcriptKey
}

// transcriptKey identifies the transcript content last put in the viewport.
type transcriptKey struct {
	count   int
	width   int
	noFiles bool
}

// Options configure New.
type Options struct {
	Config  *config.Config
	Theme   *styles.Theme
	Backend Backend
	// BaseURL is shown in the header.
	BaseURL string
}

// New builds the model. The stores and uploader are created here and bound
// to the backend; nothing touches the network until Init.
func New(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}

	ctx, cancel := context.WithCancel(context.Background())
	state := store.NewAppState(opts.Backend)
	toasts := components.NewToastManager()
	changes := make(chan struct{}, 1)
	poke := func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	}
	state.OnChange(poke)

	notifier := upload.NotifierFunc(func(n upload.Notification) {
		toasts.Add(components.NewToast(toastKind(n.Kind), n.Title, n.Description, n.Duration))
		poke()
	})
	uploader := upload.NewUploader(opts.Backend, state.Files, upload.RulesFromConfig(cfg), notifier)

	input := textinput.New()
	input.Prompt = "> "
	input.PromptStyle = theme.InputPrompt
	input.Placeholder = PlaceholderNoFiles
	input.CharLimit = 4000
	input.Focus()

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(theme.Spinner),
	)

	var md *components.MarkdownRenderer
	if cfg.UI.Markdown {
		md = components.NewMarkdownRenderer(markdownStyle(theme))
	}

	h := help.New()
	h.Styles.ShortKey = theme.ShortcutKey
	h.Styles.ShortDesc = theme.ShortcutDesc
	h.Styles.FullKey = theme.ShortcutKey
	h.Styles.FullDesc = theme.ShortcutDesc

	return Model{
		ctx:      ctx,
		cancel:   cancel,
		cfg:      cfg,
		theme:    theme,
		backend:  opts.Backend,
		baseURL:  opts.BaseURL,
		state:    state,
		uploader: uploader,
		toasts:   toasts,
		fileList: components.NewFileList(),
		markdown: md,
		input:    input,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		help:     h,
		keys:     DefaultKeyMap(),
		health:   components.HealthState{Loading: true},
		opts:     store.ChatOptions{K: cfg.Chat.K},
		changes:  changes,
		rendered: transcriptKey{count: -1},
	}
}

// Init fetches the file list and backend health, and starts the drop-folder
// watcher when one is configured.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textinput.Blink,
		m.spinner.Tick,
		components.ToastTickCmd(),
		waitForChange(m.changes),
		loadFilesCmd(m.ctx, m.state),
		healthCmd(m.ctx, m.backend),
	}
	if dir := m.cfg.Upload.WatchDir; dir != "" {
		cmds = append(cmds, startWatcherCmd(m.ctx, dir, m.uploader))
	}
	return tea.Batch(cmds...)
}

// State exposes the stores, for callers embedding the model.
func (m Model) State() *store.AppState {
	return m.state
}

// Shutdown stops background work. It is safe to call more than once.
func (m Model) Shutdown() {
	m.cancel()
	if m.watcher != nil {
		_ = m.watcher.Close()
	}
}

func toastKind(k upload.Kind) components.ToastKind {
	switch k {
	case upload.KindSuccess:
		return components.ToastKindSuccess
	case upload.KindError:
		return components.ToastKindError
	default:
		return components.ToastKindStatus
	}
}

func markdownStyle(theme *styles.Theme) string {
	if theme.IsDark {
		return "dark"
	}
	return "light"
}
