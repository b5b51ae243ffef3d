// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"sync"

	"github.com/jeranaias/docchat-tui/internal/api"
)

// FilesStore is the list of uploaded files plus its loading and error state.
// Mutations do no validation.
type FilesStore struct {
	mu      sync.RWMutex
	files   []api.FileRecord
	loading bool
	err     string

	notifier
}

// NewFilesStore returns an empty store.
func NewFilesStore() *FilesStore {
	return &FilesStore{files: []api.FileRecord{}}
}

// SetFiles replaces the whole list.
func (s *FilesStore) SetFiles(files []api.FileRecord) {
	s.mu.Lock()
	s.files = append([]api.FileRecord{}, files...)
	s.mu.Unlock()
	s.notify()
}

// AddFile appends one record.
func (s *FilesStore) AddFile(f api.FileRecord) {
	s.mu.Lock()
	s.files = append(s.files, f)
	s.mu.Unlock()
	s.notify()
}

// RemoveFile drops every record with the given id.
func (s *FilesStore) RemoveFile(id int) {
	s.mu.Lock()
	kept := s.files[:0:0]
	for _, f := range s.files {
		if f.ID != id {
			kept = append(kept, f)
		}
	}
	s.files = kept
	s.mu.Unlock()
	s.notify()
}

// SetLoading sets the loading flag.
func (s *FilesStore) SetLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
	s.notify()
}

// SetError sets the error message. An empty string clears it.
func (s *FilesStore) SetError(msg string) {
	s.mu.Lock()
	s.err = msg
	s.mu.Unlock()
	s.notify()
}

// ClearFiles empties the list.
func (s *FilesStore) ClearFiles() {
	s.mu.Lock()
	s.files = []api.FileRecord{}
	s.mu.Unlock()
	s.notify()
}

// Files returns a copy of the list.
func (s *FilesStore) Files() []api.FileRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]api.FileRecord{}, s.files...)
}

func (s *FilesStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *FilesStore) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *FilesStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// Contains reports whether a file with id is in the list.
func (s *FilesStore) Contains(id int) bool {
	_, ok := s.Find(id)
	return ok
}

// Find returns the record with id.
func (s *FilesStore) Find(id int) (api.FileRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.files {
		if f.ID == id {
			return f, true
		}
	}
	return api.FileRecord{}, false
}
