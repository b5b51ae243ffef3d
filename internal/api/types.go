// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/docchat-tui/internal/util"
)

// =============================================================================
// FILES
// =============================================================================

// FileRecord is an uploaded file as the backend reports it.
type FileRecord struct {
	ID         int            `json:"id"`
	Filename   string         `json:"filename"`
	UploadTime string         `json:"upload_time,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// UnmarshalJSON accepts metadata either as a "metadata" object or as a
// JSON-encoded "file_metadata" string. A string that does not parse as an
// object is kept under the "raw" key.
func (f *FileRecord) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID           int             `json:"id"`
		Filename     string          `json:"filename"`
		UploadTime   string          `json:"upload_time"`
		Metadata     map[string]any  `json:"metadata"`
		FileMetadata json.RawMessage `json:"file_metadata"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	f.ID = wire.ID
	f.Filename = wire.Filename
	f.UploadTime = wire.UploadTime
	f.Metadata = wire.Metadata

	if f.Metadata == nil && len(wire.FileMetadata) > 0 && string(wire.FileMetadata) != "null" {
		f.Metadata = decodeFileMetadata(wire.FileMetadata)
	}
	return nil
}

func decodeFileMetadata(raw json.RawMessage) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return map[string]any{"raw": string(raw)}
	}
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(s), &obj); err == nil && obj != nil {
		return obj
	}
	return map[string]any{"raw": s}
}

// Extension is the filename's extension by the same rule uploads are
// validated with.
func (f FileRecord) Extension() string {
	return util.FileExtension(f.Filename)
}

// DeleteResult is the response to a file deletion. Warnings are non-fatal
// problems the backend hit while cleaning up (for example a missing vector
// store entry).
type DeleteResult struct {
	Status   string   `json:"status"`
	Warnings []string `json:"warnings,omitempty"`
}

// =============================================================================
// CHAT
// =============================================================================

// ChatRequest is a question plus optional retrieval hints.
type ChatRequest struct {
	Question       string         `json:"question"`
	FileID         *int           `json:"file_id,omitempty"`
	Keywords       []string       `json:"keywords,omitempty"`
	MetadataFilter map[string]any `json:"metadata_filter,omitempty"`
	// K is the number of chunks to retrieve. Zero leaves it to the backend.
	K int `json:"k,omitempty"`
}

// ChatResponse is the model's answer and the sources it drew on.
type ChatResponse struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources,omitempty"`
}

// Source is one citation. The backend sends either a plain string or an
// object with fields such as "filename" or "source_file".
type Source struct {
	Text   string
	Fields map[string]any
	raw    json.RawMessage
}

// StringSource builds a plain-text source.
func StringSource(s string) Source {
	return Source{Text: s}
}

// ObjectSource builds a structured source.
func ObjectSource(fields map[string]any) Source {
	return Source{Fields: fields}
}

// IsObject reports whether the source was sent as a JSON object.
func (s Source) IsObject() bool {
	return s.Fields != nil
}

func (s *Source) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*s = Source{}

	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &s.Text)
	}
	if len(data) > 0 && data[0] == '{' {
		if err := json.Unmarshal(data, &s.Fields); err != nil {
			return err
		}
		if s.Fields == nil {
			s.Fields = map[string]any{}
		}
		return nil
	}
	// Numbers, arrays and the like are displayed as their JSON text.
	s.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (s Source) MarshalJSON() ([]byte, error) {
	switch {
	case s.Fields != nil:
		return json.Marshal(s.Fields)
	case s.raw != nil:
		return s.raw, nil
	default:
		return json.Marshal(s.Text)
	}
}

// DisplayName is the label shown for the source: the string itself, or the
// object's "filename", else its "source_file", else its JSON encoding. The
// result is NFC-normalized so that visually identical names compare equal.
func (s Source) DisplayName() string {
	var name string
	switch {
	case s.Fields != nil:
		if v := nonEmptyString(s.Fields["filename"]); v != "" {
			name = v
		} else if v := nonEmptyString(s.Fields["source_file"]); v != "" {
			name = v
		} else {
			b, _ := json.Marshal(s.Fields)
			name = string(b)
		}
	case s.raw != nil:
		name = string(s.raw)
	default:
		name = s.Text
	}
	return norm.NFC.String(name)
}

func nonEmptyString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if !t {
			return ""
		}
		return "true"
	case float64:
		if t == 0 {
			return ""
		}
		return fmt.Sprint(t)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

// UniqueSourceNames returns the display names of sources with duplicates
// removed, in first-seen order.
func UniqueSourceNames(sources []Source) []string {
	seen := make(map[string]bool, len(sources))
	names := make([]string, 0, len(sources))
	for _, src := range sources {
		name := src.DisplayName()
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// =============================================================================
// HEALTH & ADMIN
// =============================================================================

// HealthStatus is the backend health report. LLM is nil when the backend
// did not report on the language model.
type HealthStatus struct {
	Status string     `json:"status,omitempty"`
	LLM    *LLMStatus `json:"llm,omitempty"`
}

// LLMStatus describes the backend's language model connection.
type LLMStatus struct {
	OK    bool   `json:"ok"`
	Msg   string `json:"msg,omitempty"`
	Model string `json:"model,omitempty"`
}

// DisplayModel returns the model name, or "Unknown" when the backend sent
// nothing or the string "None".
func (s *LLMStatus) DisplayModel() string {
	if s == nil || s.Model == "" || s.Model == "None" {
		return "Unknown"
	}
	return s.Model
}

// ConnectionText returns "Connected" or "Not Connected".
func (s *LLMStatus) ConnectionText() string {
	if s != nil && s.OK {
		return "Connected"
	}
	return "Not Connected"
}

// ClearAllResult reports what an admin reset removed.
type ClearAllResult struct {
	Status       string `json:"status"`
	FilesDeleted int    `json:"files_deleted"`
	ChatsDeleted int    `json:"chats_deleted"`
}

// Summary is the human-readable outcome of the reset.
func (r ClearAllResult) Summary() string {
	return fmt.Sprintf("Deleted %d files and %d chat messages.", r.FilesDeleted, r.ChatsDeleted)
}
