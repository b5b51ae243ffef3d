// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"strings"
)

// Op names the API operation that failed.
type Op string

const (
	OpUpload   Op = "upload"
	OpList     Op = "list"
	OpDelete   Op = "delete"
	OpChat     Op = "chat"
	OpHealth   Op = "health"
	OpClearAll Op = "clear_all"
)

var fallbackMessages = map[Op]string{
	OpUpload:   "File upload failed",
	OpList:     "Fetching files failed",
	OpDelete:   "File deletion failed",
	OpChat:     "Chat request failed",
	OpHealth:   "Failed to fetch health status",
	OpClearAll: "Reset failed",
}

// Fallback returns the generic message used when the backend gave no detail.
func (o Op) Fallback() string {
	if msg, ok := fallbackMessages[o]; ok {
		return msg
	}
	return "Request failed"
}

// Error is the single error type returned by Client methods. Error() is
// always one user-presentable string.
type Error struct {
	Op Op
	// StatusCode is the HTTP status, or 0 if no response was received.
	StatusCode int
	// Detail is the backend-provided message, if any.
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Op.Fallback()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Message normalizes any error to the string shown to the user. *Error
// values render themselves; anything else gets op's fallback.
func Message(err error, op Op) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return op.Fallback()
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// parseDetail extracts the "detail" message from an error body. It handles
// a plain string, an object with "msg", and a list of such objects
// (validation errors), whose messages are joined with "; ".
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}
	return detailText(envelope.Detail)
}

func detailText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var obj struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return strings.TrimSpace(obj.Msg)
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		msgs := make([]string, 0, len(list))
		for _, item := range list {
			if msg := detailText(item); msg != "" {
				msgs = append(msgs, msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
