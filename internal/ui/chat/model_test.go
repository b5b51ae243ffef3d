// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/docchat-tui/internal/api"
	"github.com/jeranaias/docchat-tui/internal/config"
	"github.com/jeranaias/docchat-tui/internal/ui/components"
	"github.com/jeranaias/docchat-tui/internal/ui/styles"
)

// =============================================================================
// FAKE BACKEND
// =============================================================================

type fakeBackend struct {
	files     []api.FileRecord
	nextID    int
	answer    string
	sources   []api.Source
	chatErr   error
	deleteErr error
	warnings  []string
	resetErr  error
	health    *api.HealthStatus
	lastChat  api.ChatRequest
	lastToken string
}

func (f *fakeBackend) Chat(_ context.Context, req api.ChatRequest) (*api.ChatResponse, error) {
	f.lastChat = req
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	return &api.ChatResponse{Answer: f.answer, Sources: f.sources}, nil
}

func (f *fakeBackend) ListFiles(context.Context) ([]api.FileRecord, error) {
	return append([]api.FileRecord(nil), f.files...), nil
}

func (f *fakeBackend) DeleteFile(_ context.Context, id int) (*api.DeleteResult, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	return &api.DeleteResult{Status: "deleted", Warnings: f.warnings}, nil
}

func (f *fakeBackend) AdminClearAll(_ context.Context, token string) (*api.ClearAllResult, error) {
	f.lastToken = token
	if f.resetErr != nil {
		return nil, f.resetErr
	}
	n := len(f.files)
	f.files = nil
	return &api.ClearAllResult{Status: "ok", FilesDeleted: n, ChatsDeleted: 4}, nil
}

func (f *fakeBackend) Upload(_ context.Context, filename string, r io.Reader) (*api.FileRecord, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}
	f.nextID++
	rec := api.FileRecord{ID: 100 + f.nextID, Filename: filename}
	f.files = append(f.files, rec)
	return &rec, nil
}

func (f *fakeBackend) Health(context.Context) (*api.HealthStatus, error) {
	if f.health == nil {
		return nil, errors.New("down")
	}
	return f.health, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func newTestModel(t *testing.T, backend *fakeBackend) Model {
	t.Helper()
	styles.DisableColor()
	cfg := config.Default()
	cfg.UI.Markdown = false
	m := New(Options{Config: cfg, Theme: styles.NewTheme(), Backend: backend, BaseURL: "http://test"})
	t.Cleanup(m.Shutdown)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	return m
}

func withFiles(t *testing.T, m Model) Model {
	t.Helper()
	return run(t, m, loadFilesCmd(m.ctx, m.state))
}

func typeLine(t *testing.T, m Model, line string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(line)
	return update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func toastTitles(m Model) []string {
	var out []string
	for _, ts := range m.toasts.Toasts() {
		out = append(out, ts.Title)
	}
	return out
}

func twoFiles() []api.FileRecord {
	return []api.FileRecord{
		{ID: 1, Filename: "report.pdf", UploadTime: "2024-05-01T10:00:00"},
		{ID: 2, Filename: "notes.txt", UploadTime: "2024-05-02T11:30:00"},
	}
}

// =============================================================================
// VIEW STATE
// =============================================================================

func TestModel_EmptyState(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})

	view := m.View()
	assert.Contains(t, view, components.EmptyFilesText)
	assert.Contains(t, view, NoFilesText)
	assert.Equal(t, PlaceholderNoFiles, m.input.Placeholder)
}

func TestModel_FilesLoaded(t *testing.T) {
	m := newTestModel(t, &fakeBackend{files: twoFiles()})
	m = withFiles(t, m)

	assert.Equal(t, 2, m.state.Files.Len())
	assert.Equal(t, PlaceholderReady, m.input.Placeholder)
	view := m.View()
	assert.Contains(t, view, "report.pdf")
	assert.Contains(t, view, "Files (2)")
	assert.NotContains(t, view, NoFilesText)
}

func TestModel_Health(t *testing.T) {
	backend := &fakeBackend{health: &api.HealthStatus{
		Status: "ok",
		LLM:    &api.LLMStatus{OK: true, Model: "llama3"},
	}}
	m := newTestModel(t, backend)
	assert.Contains(t, m.View(), components.HealthCheckingText)

	m = run(t, m, healthCmd(m.ctx, backend))
	assert.Contains(t, m.View(), "llama3")
	assert.Contains(t, m.View(), "Connected")

	backend.health = nil
	m = run(t, m, healthCmd(m.ctx, backend))
	assert.Contains(t, m.View(), components.HealthUnavailableText)
}

// =============================================================================
// CHAT
// =============================================================================

func TestModel_SendChat(t *testing.T) {
	backend := &fakeBackend{
		files:   twoFiles(),
		answer:  "The answer is 42.",
		sources: []api.Source{api.StringSource("report.pdf")},
	}
	m := withFiles(t, newTestModel(t, backend))

	m, cmd := typeLine(t, m, "what is the answer?")
	assert.Empty(t, m.input.Value())
	m = run(t, m, cmd)

	msgs := m.state.Chat.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "what is the answer?", msgs[0].Text)
	assert.Equal(t, "The answer is 42.", msgs[1].Text)
	assert.Equal(t, "what is the answer?", backend.lastChat.Question)

	view := m.View()
	assert.Contains(t, view, "The answer is 42.")
	assert.Contains(t, view, "Sources: report.pdf")
}

func TestModel_ChatErrorRaisesToast(t *testing.T) {
	backend := &fakeBackend{
		files:   twoFiles(),
		chatErr: &api.Error{Op: api.OpChat, StatusCode: 500, Detail: "LLM unavailable"},
	}
	m := withFiles(t, newTestModel(t, backend))

	m, cmd := typeLine(t, m, "hello")
	m = run(t, m, cmd)

	assert.Contains(t, toastTitles(m), "Chat Error")
	assert.Equal(t, "LLM unavailable", m.state.Chat.Err())
	// The optimistic user message stays.
	assert.Equal(t, 1, m.state.Chat.Len())
	assert.Contains(t, m.View(), "LLM unavailable")
}

func TestModel_ChatWithoutFilesIsRefused(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})

	m, cmd := typeLine(t, m, "hello there")
	assert.Nil(t, cmd)
	assert.Equal(t, 0, m.state.Chat.Len())
	assert.Contains(t, toastTitles(m), "No files")
}

func TestModel_ChatOptionsForwarded(t *testing.T) {
	backend := &fakeBackend{files: twoFiles(), answer: "ok"}
	m := withFiles(t, newTestModel(t, backend))

	for _, line := range []string{"/k 7", "/keywords alpha, beta", "/filter year=2024 author=bob", "/file 2"} {
		var cmd tea.Cmd
		m, cmd = typeLine(t, m, line)
		assert.Nil(t, cmd, line)
	}
	m, cmd := typeLine(t, m, "question")
	run(t, m, cmd)

	req := backend.lastChat
	assert.Equal(t, 7, req.K)
	assert.Equal(t, []string{"alpha", "beta"}, req.Keywords)
	assert.Equal(t, map[string]any{"year": float64(2024), "author": "bob"}, req.MetadataFilter)
	require.NotNil(t, req.FileID)
	assert.Equal(t, 2, *req.FileID)
}

func TestModel_ClearTranscript(t *testing.T) {
	backend := &fakeBackend{files: twoFiles(), answer: "ok"}
	m := withFiles(t, newTestModel(t, backend))
	m, cmd := typeLine(t, m, "question")
	m = run(t, m, cmd)
	require.Equal(t, 2, m.state.Chat.Len())

	m, _ = typeLine(t, m, "/clear")
	assert.Equal(t, 0, m.state.Chat.Len())
}

// =============================================================================
// FILES
// =============================================================================

func TestModel_DeleteSelectedFile(t *testing.T) {
	m := withFiles(t, newTestModel(t, &fakeBackend{files: twoFiles()}))

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, focusFiles, m.focus)

	m, cmd := update(t, m, runes("d"))
	assert.True(t, m.fileList.IsDeleting(1))
	assert.Contains(t, m.View(), "deleting…")

	m = run(t, m, cmd)
	assert.False(t, m.state.Files.Contains(1))
	assert.Contains(t, toastTitles(m), "File deleted")
}

func TestModel_DeleteWithWarnings(t *testing.T) {
	backend := &fakeBackend{files: twoFiles(), warnings: []string{"vector store cleanup failed"}}
	m := withFiles(t, newTestModel(t, backend))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})

	m, cmd := update(t, m, runes("d"))
	m = run(t, m, cmd)

	assert.Contains(t, toastTitles(m), "File deleted with warnings")
	assert.Equal(t, "vector store cleanup failed", m.state.Files.Err())
}

func TestModel_DeleteFailure(t *testing.T) {
	backend := &fakeBackend{files: twoFiles(), deleteErr: &api.Error{Op: api.OpDelete, StatusCode: 404, Detail: "File not found"}}
	m := withFiles(t, newTestModel(t, backend))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})

	m, cmd := update(t, m, runes("d"))
	m = run(t, m, cmd)

	assert.Contains(t, toastTitles(m), "File deletion failed")
	assert.Equal(t, 2, m.state.Files.Len())
	assert.False(t, m.fileList.IsDeleting(1))
}

func TestModel_DeletingLastFileClearsTranscript(t *testing.T) {
	backend := &fakeBackend{files: twoFiles()[:1], answer: "ok"}
	m := withFiles(t, newTestModel(t, backend))
	m, cmd := typeLine(t, m, "question")
	m = run(t, m, cmd)
	require.Equal(t, 2, m.state.Chat.Len())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, cmd = update(t, m, runes("d"))
	m = run(t, m, cmd)

	assert.Equal(t, 0, m.state.Chat.Len())
	assert.Contains(t, m.View(), NoFilesText)
}

func TestModel_PastedPathUploads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "minutes.txt")
	require.NoError(t, os.WriteFile(path, []byte("meeting minutes"), 0o600))

	backend := &fakeBackend{}
	m := newTestModel(t, backend)

	m, cmd := typeLine(t, m, "'"+path+"'")
	m = run(t, m, cmd)

	assert.Equal(t, 1, m.state.Files.Len())
	assert.Contains(t, toastTitles(m), "File uploaded")
	assert.Equal(t, PlaceholderReady, m.input.Placeholder)
}

func TestModel_UploadRejectsUnsupportedType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o600))

	m := newTestModel(t, &fakeBackend{})
	m, cmd := typeLine(t, m, "/upload "+path)
	m = run(t, m, cmd)

	assert.Equal(t, 0, m.state.Files.Len())
	assert.Contains(t, toastTitles(m), "Unsupported file type")
}

// =============================================================================
// RESET
// =============================================================================

func TestModel_ResetFlow(t *testing.T) {
	backend := &fakeBackend{files: twoFiles(), answer: "ok"}
	m := withFiles(t, newTestModel(t, backend))

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	require.NotNil(t, m.confirm)
	assert.Contains(t, m.View(), ResetConfirmText)

	m, cmd := update(t, m, runes("y"))
	assert.Nil(t, m.confirm)
	m = run(t, m, cmd)

	assert.Equal(t, config.DefaultAdminToken, backend.lastToken)
	assert.Equal(t, 0, m.state.Files.Len())
	assert.Equal(t, 0, m.state.Chat.Len())

	var found bool
	for _, ts := range m.toasts.Toasts() {
		if ts.Title == "App reset" {
			found = true
			assert.Contains(t, ts.Description, "Deleted 2 files and 4 chat messages.")
		}
	}
	assert.True(t, found)
}

func TestModel_ResetCancelled(t *testing.T) {
	backend := &fakeBackend{files: twoFiles()}
	m := withFiles(t, newTestModel(t, backend))

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.Nil(t, cmd)
	assert.Nil(t, m.confirm)
	assert.Equal(t, 2, m.state.Files.Len())
	assert.Empty(t, backend.lastToken)
}

func TestModel_ResetFailure(t *testing.T) {
	backend := &fakeBackend{files: twoFiles(), resetErr: &api.Error{Op: api.OpClearAll, StatusCode: 403, Detail: "Invalid admin token"}}
	m := withFiles(t, newTestModel(t, backend))

	m, _ = typeLine(t, m, "/reset")
	m, cmd := update(t, m, runes("y"))
	m = run(t, m, cmd)

	assert.Contains(t, toastTitles(m), "Reset failed")
	assert.Equal(t, 2, m.state.Files.Len())
}

// =============================================================================
// MISC
// =============================================================================

func TestModel_EscDismissesToastThenBanner(t *testing.T) {
	backend := &fakeBackend{files: twoFiles(), chatErr: errors.New("boom")}
	m := withFiles(t, newTestModel(t, backend))
	m, cmd := typeLine(t, m, "hello")
	m = run(t, m, cmd)
	require.Equal(t, 1, m.toasts.Len())
	require.NotEmpty(t, m.state.Chat.Err())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, 0, m.toasts.Len())
	assert.NotEmpty(t, m.state.Chat.Err())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, m.state.Chat.Err())
}

func TestModel_UnknownCommand(t *testing.T) {
	m := newTestModel(t, &fakeBackend{})
	m, cmd := typeLine(t, m, "/frobnicate")
	assert.Nil(t, cmd)
	assert.Contains(t, toastTitles(m), "Unknown command")
}

func TestModel_FileScopeRejectsUnknownID(t *testing.T) {
	m := withFiles(t, newTestModel(t, &fakeBackend{files: twoFiles()}))
	m, _ = typeLine(t, m, "/file 99")
	assert.Nil(t, m.opts.FileID)
	assert.Contains(t, toastTitles(m), "Unknown file")

	m, _ = typeLine(t, m, "/file 1")
	require.NotNil(t, m.opts.FileID)
	assert.Contains(t, m.scopeText(), "report.pdf")

	m, _ = typeLine(t, m, "/file all")
	assert.Nil(t, m.opts.FileID)
}

func TestPastedPaths(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.pdf")
	require.NoError(t, os.WriteFile(a, []byte("x"), 0o600))

	paths, ok := pastedPaths(a)
	assert.True(t, ok)
	assert.Equal(t, []string{a}, paths)

	paths, ok = pastedPaths("file://" + a)
	assert.True(t, ok)
	assert.Equal(t, []string{a}, paths)

	_, ok = pastedPaths(a + " and a question")
	assert.False(t, ok)

	_, ok = pastedPaths(dir)
	assert.False(t, ok, "directories are not uploads")
}
