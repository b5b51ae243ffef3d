// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jeranaias/docchat-tui/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend records calls and returns canned results.
type fakeBackend struct {
	mu sync.Mutex

	chatReqs []api.ChatRequest
	chatResp *api.ChatResponse
	chatErr  error
	// onChat runs inside Chat before it returns.
	onChat func()

	files   []api.FileRecord
	listErr error

	deleteRes *api.DeleteResult
	deleteErr error

	clearRes   *api.ClearAllResult
	clearErr   error
	clearToken string
}

func (f *fakeBackend) Chat(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error) {
	f.mu.Lock()
	f.chatReqs = append(f.chatReqs, req)
	f.mu.Unlock()
	if f.onChat != nil {
		f.onChat()
	}
	return f.chatResp, f.chatErr
}

func (f *fakeBackend) ListFiles(ctx context.Context) ([]api.FileRecord, error) {
	return f.files, f.listErr
}

func (f *fakeBackend) DeleteFile(ctx context.Context, id int) (*api.DeleteResult, error) {
	return f.deleteRes, f.deleteErr
}

func (f *fakeBackend) AdminClearAll(ctx context.Context, token string) (*api.ClearAllResult, error) {
	f.clearToken = token
	return f.clearRes, f.clearErr
}

func files(ids ...int) []api.FileRecord {
	out := make([]api.FileRecord, len(ids))
	for i, id := range ids {
		out[i] = api.FileRecord{ID: id, Filename: "f.txt"}
	}
	return out
}

// =============================================================================
// FILES STORE
// =============================================================================

func TestFilesStore_Mutations(t *testing.T) {
	s := NewFilesStore()
	s.SetFiles(files(1, 2))
	s.AddFile(api.FileRecord{ID: 3, Filename: "c.csv"})
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Contains(3))

	s.RemoveFile(2)
	assert.False(t, s.Contains(2))
	assert.Equal(t, 2, s.Len())

	s.RemoveFile(99)
	assert.Equal(t, 2, s.Len(), "unknown id is a no-op")

	s.SetLoading(true)
	s.SetError("boom")
	assert.True(t, s.Loading())
	assert.Equal(t, "boom", s.Err())

	s.ClearFiles()
	assert.Zero(t, s.Len())
}

func TestFilesStore_FilesReturnsCopy(t *testing.T) {
	s := NewFilesStore()
	s.SetFiles(files(1))

	got := s.Files()
	got[0].Filename = "mutated"

	f, ok := s.Find(1)
	require.True(t, ok)
	assert.Equal(t, "f.txt", f.Filename)
}

func TestFilesStore_NotifiesOnChange(t *testing.T) {
	s := NewFilesStore()
	var calls int32
	s.OnChange(func() { atomic.AddInt32(&calls, 1) })

	s.AddFile(api.FileRecord{ID: 1})
	s.SetLoading(false)
	s.RemoveFile(1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

// =============================================================================
// CHAT STORE
// =============================================================================

func TestSendChat_AppendsUserMessageBeforeResponse(t *testing.T) {
	backend := &fakeBackend{chatResp: &api.ChatResponse{Answer: "42"}}
	chat := NewChatStore(backend)

	var seenDuringCall []ChatMessage
	var loadingDuringCall bool
	backend.onChat = func() {
		seenDuringCall = chat.Messages()
		loadingDuringCall = chat.Loading()
	}

	require.NoError(t, chat.SendChat(context.Background(), "  What is the answer?  ", ChatOptions{}))

	require.Len(t, seenDuringCall, 1)
	assert.Equal(t, SenderUser, seenDuringCall[0].Sender)
	assert.Equal(t, "What is the answer?", seenDuringCall[0].Text)
	assert.True(t, loadingDuringCall)

	msgs := chat.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, SenderAI, msgs[1].Sender)
	assert.Equal(t, "42", msgs[1].Text)
	assert.False(t, chat.Loading())
	assert.Empty(t, chat.Err())
	assert.NotEqual(t, msgs[0].ID, msgs[1].ID)
}

func TestSendChat_FailureKeepsUserMessage(t *testing.T) {
	backend := &fakeBackend{chatErr: &api.Error{Op: api.OpChat, StatusCode: 500}}
	chat := NewChatStore(backend)

	err := chat.SendChat(context.Background(), "hello", ChatOptions{})
	require.Error(t, err)

	msgs := chat.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, SenderUser, msgs[0].Sender)
	assert.Equal(t, "Chat request failed", chat.Err())
	assert.False(t, chat.Loading())
}

func TestSendChat_NonAPIErrorUsesFallback(t *testing.T) {
	chat := NewChatStore(&fakeBackend{chatErr: errors.New("dial tcp: refused")})
	require.Error(t, chat.SendChat(context.Background(), "q", ChatOptions{}))
	assert.Equal(t, "Chat request failed", chat.Err())
}

func TestSendChat_EmptyQuestion(t *testing.T) {
	backend := &fakeBackend{}
	chat := NewChatStore(backend)

	err := chat.SendChat(context.Background(), "   \n", ChatOptions{})
	assert.ErrorIs(t, err, ErrEmptyQuestion)
	assert.Zero(t, chat.Len())
	assert.Empty(t, backend.chatReqs, "no request for a blank question")
}

func TestSendChat_ForwardsHints(t *testing.T) {
	backend := &fakeBackend{chatResp: &api.ChatResponse{Answer: "ok"}}
	chat := NewChatStore(backend)
	id := 5

	require.NoError(t, chat.SendChat(context.Background(), "q", ChatOptions{
		FileID:         &id,
		Keywords:       []string{"tax"},
		MetadataFilter: map[string]any{"dept": "hr"},
		K:              3,
	}))

	require.Len(t, backend.chatReqs, 1)
	req := backend.chatReqs[0]
	assert.Equal(t, "q", req.Question)
	require.NotNil(t, req.FileID)
	assert.Equal(t, 5, *req.FileID)
	assert.Equal(t, []string{"tax"}, req.Keywords)
	assert.Equal(t, map[string]any{"dept": "hr"}, req.MetadataFilter)
	assert.Equal(t, 3, req.K)
}

func TestSendChat_ClearsPreviousError(t *testing.T) {
	chat := NewChatStore(&fakeBackend{chatResp: &api.ChatResponse{Answer: "a"}})
	chat.SetError("old")
	require.NoError(t, chat.SendChat(context.Background(), "q", ChatOptions{}))
	assert.Empty(t, chat.Err())
}

func TestClearChat_KeepsError(t *testing.T) {
	chat := NewChatStore(&fakeBackend{})
	chat.SendMessage("hi")
	chat.SetError("LLM unavailable")

	chat.ClearChat()
	assert.Zero(t, chat.Len())
	assert.Equal(t, "LLM unavailable", chat.Err())
}

func TestSendChat_ConcurrentCallsAllLand(t *testing.T) {
	chat := NewChatStore(&fakeBackend{chatResp: &api.ChatResponse{Answer: "a"}})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			chat.SendChat(context.Background(), "q", ChatOptions{})
		}()
	}
	wg.Wait()
	assert.Equal(t, 40, chat.Len())
}

func TestChatMessage_SourceNamesDeduplicated(t *testing.T) {
	msg := NewMessage(SenderAI, "a", []api.Source{
		api.StringSource("a.pdf"),
		api.ObjectSource(map[string]any{"filename": "a.pdf"}),
		api.ObjectSource(map[string]any{"source_file": "b.pdf"}),
	})
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, msg.SourceNames())
}

// =============================================================================
// APP STATE
// =============================================================================

func TestLoadFiles(t *testing.T) {
	backend := &fakeBackend{files: files(1, 2)}
	app := NewAppState(backend)
	app.Files.SetError("stale")

	require.NoError(t, app.LoadFiles(context.Background()))
	assert.Equal(t, 2, app.Files.Len())
	assert.Empty(t, app.Files.Err())
	assert.False(t, app.Files.Loading())
	assert.True(t, app.CanChat())
}

func TestLoadFiles_FailureKeepsList(t *testing.T) {
	backend := &fakeBackend{listErr: &api.Error{Op: api.OpList}}
	app := NewAppState(backend)
	app.Files.SetFiles(files(1))

	require.Error(t, app.LoadFiles(context.Background()))
	assert.Equal(t, "Fetching files failed", app.Files.Err())
	assert.Equal(t, 1, app.Files.Len())
	assert.False(t, app.Files.Loading())
}

func TestDeleteFile_RemovesIDAndKeepsChat(t *testing.T) {
	backend := &fakeBackend{deleteRes: &api.DeleteResult{Status: "deleted"}}
	app := NewAppState(backend)
	app.Files.SetFiles(files(1, 2))
	app.Chat.SendMessage("hi")

	warnings, err := app.DeleteFile(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.False(t, app.Files.Contains(1))
	assert.Equal(t, 1, app.Chat.Len(), "transcript kept while files remain")
}

func TestDeleteFile_LastFileClearsChat(t *testing.T) {
	backend := &fakeBackend{deleteRes: &api.DeleteResult{Status: "deleted"}}
	app := NewAppState(backend)
	app.Files.SetFiles(files(7))
	app.Chat.SendMessage("hi")
	app.Chat.ReceiveMessage("hello", nil)

	_, err := app.DeleteFile(context.Background(), 7)
	require.NoError(t, err)
	assert.Zero(t, app.Files.Len())
	assert.Zero(t, app.Chat.Len())
	assert.False(t, app.CanChat())
}

func TestDeleteFile_WarningsBecomeError(t *testing.T) {
	backend := &fakeBackend{deleteRes: &api.DeleteResult{Status: "deleted", Warnings: []string{"chunk index missing", "file not on disk"}}}
	app := NewAppState(backend)
	app.Files.SetFiles(files(1, 2))

	warnings, err := app.DeleteFile(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, warnings, 2)
	assert.Equal(t, "chunk index missing\nfile not on disk", app.Files.Err())
	assert.False(t, app.Files.Contains(2))
}

func TestDeleteFile_FailureKeepsFile(t *testing.T) {
	backend := &fakeBackend{deleteErr: &api.Error{Op: api.OpDelete, Detail: "File not found"}}
	app := NewAppState(backend)
	app.Files.SetFiles(files(1))

	_, err := app.DeleteFile(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, app.Files.Contains(1))
	assert.Equal(t, "File not found", app.Files.Err())
}

func TestClearAll(t *testing.T) {
	backend := &fakeBackend{clearRes: &api.ClearAllResult{Status: "ok", FilesDeleted: 2, ChatsDeleted: 5}}
	app := NewAppState(backend)
	app.Files.SetFiles(files(1, 2))
	app.Chat.SendMessage("hi")
	app.Chat.SetError("stale")

	res, err := app.ClearAll(context.Background(), "secret")
	require.NoError(t, err)
	assert.Equal(t, "secret", backend.clearToken)
	assert.Equal(t, "Deleted 2 files and 5 chat messages.", res.Summary())
	assert.Zero(t, app.Files.Len())
	assert.Zero(t, app.Chat.Len())
	assert.Empty(t, app.Chat.Err(), "reset starts a fresh session")
}

func TestClearAll_FailureLeavesStores(t *testing.T) {
	backend := &fakeBackend{clearErr: &api.Error{Op: api.OpClearAll, Detail: "Invalid admin token"}}
	app := NewAppState(backend)
	app.Files.SetFiles(files(1))

	_, err := app.ClearAll(context.Background(), "bad")
	assert.EqualError(t, err, "Invalid admin token")
	assert.Equal(t, 1, app.Files.Len())

	_, err = app.ClearAll(context.Background(), " ")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestParseKeywords(t *testing.T) {
	assert.Equal(t, []string{"alpha", "beta"}, ParseKeywords(" alpha, ,beta ,"))
	assert.Nil(t, ParseKeywords(""))
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter([]string{"year=2024", "draft=false", "tags=[1]", "name=x=y", "author=bob"})
	require.NoError(t, err)
	assert.Equal(t, float64(2024), f["year"])
	assert.Equal(t, false, f["draft"])
	assert.Equal(t, "[1]", f["tags"])
	assert.Equal(t, "x=y", f["name"])
	assert.Equal(t, "bob", f["author"])

	f, err = ParseFilter(nil)
	require.NoError(t, err)
	assert.Nil(t, f)

	_, err = ParseFilter([]string{"novalue"})
	assert.Error(t, err)
	_, err = ParseFilter([]string{"=x"})
	assert.Error(t, err)
}
