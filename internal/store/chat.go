// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jeranaias/docchat-tui/internal/api"
)

// ErrEmptyQuestion is returned by SendChat for a blank question.
var ErrEmptyQuestion = errors.New("question is empty")

// Sender identifies who wrote a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// ChatMessage is one entry in the transcript.
type ChatMessage struct {
	ID        string       `json:"id"`
	Sender    Sender       `json:"sender"`
	Text      string       `json:"text"`
	Sources   []api.Source `json:"sources,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// NewMessage stamps a message with a fresh id and the current time.
func NewMessage(sender Sender, text string, sources []api.Source) ChatMessage {
	return ChatMessage{
		ID:        uuid.NewString(),
		Sender:    sender,
		Text:      text,
		Sources:   sources,
		CreatedAt: time.Now(),
	}
}

// SourceNames returns the message's citations de-duplicated by display name.
func (m ChatMessage) SourceNames() []string {
	return api.UniqueSourceNames(m.Sources)
}

// ChatOptions are the optional retrieval hints sent with a question.
type ChatOptions struct {
	FileID         *int
	Keywords       []string
	MetadataFilter map[string]any
	K              int
}

// ChatAPI is the backend call ChatStore depends on.
type ChatAPI interface {
	Chat(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error)
}

// ChatStore is the transcript plus its loading and error state.
type ChatStore struct {
	api ChatAPI

	mu       sync.RWMutex
	messages []ChatMessage
	loading  bool
	err      string

	notifier
}

// NewChatStore returns an empty transcript backed by client.
func NewChatStore(client ChatAPI) *ChatStore {
	return &ChatStore{api: client}
}

// SendMessage appends a user message.
func (s *ChatStore) SendMessage(text string) {
	s.append(NewMessage(SenderUser, text, nil))
}

// ReceiveMessage appends an AI message.
func (s *ChatStore) ReceiveMessage(text string, sources []api.Source) {
	s.append(NewMessage(SenderAI, text, sources))
}

func (s *ChatStore) append(msg ChatMessage) {
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	s.notify()
}

// ClearChat empties the transcript. The error is left as is.
func (s *ChatStore) ClearChat() {
	s.mu.Lock()
	s.messages = nil
	s.mu.Unlock()
	s.notify()
}

// SetError sets the error message. An empty string clears it.
func (s *ChatStore) SetError(msg string) {
	s.mu.Lock()
	s.err = msg
	s.mu.Unlock()
	s.notify()
}

// SendChat asks question. The user message is appended before the request
// goes out and stays there if the request fails. On success the answer is
// appended as an AI message. Concurrent calls are not serialized.
func (s *ChatStore) SendChat(ctx context.Context, question string, opts ChatOptions) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return ErrEmptyQuestion
	}

	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.messages = append(s.messages, NewMessage(SenderUser, question, nil))
	s.mu.Unlock()
	s.notify()

	resp, err := s.api.Chat(ctx, api.ChatRequest{
		Question:       question,
		FileID:         opts.FileID,
		Keywords:       opts.Keywords,
		MetadataFilter: opts.MetadataFilter,
		K:              opts.K,
	})

	s.mu.Lock()
	if err != nil {
		s.err = api.Message(err, api.OpChat)
	} else {
		s.messages = append(s.messages, NewMessage(SenderAI, resp.Answer, resp.Sources))
	}
	s.loading = false
	s.mu.Unlock()
	s.notify()

	return err
}

// Messages returns a copy of the transcript.
func (s *ChatStore) Messages() []ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ChatMessage(nil), s.messages...)
}

func (s *ChatStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *ChatStore) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *ChatStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}
