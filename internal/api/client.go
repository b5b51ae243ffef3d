// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL is the backend origin (default: http://localhost:8000).
	BaseURL string

	// Timeout bounds each request (default: 120s). Chat answers from a
	// local LLM can take a while.
	Timeout time.Duration

	// RequestsPerSecond paces outgoing requests. 0 means unlimited.
	RequestsPerSecond float64

	// UserAgent is sent on every request (default: "docchat").
	UserAgent string

	// HTTPClient overrides the underlying client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:   "http://localhost:8000",
		Timeout:   120 * time.Second,
		UserAgent: "docchat",
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the document chat backend. It holds no per-request state
// and is safe for concurrent use.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client with the default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a client, filling zero values from DefaultConfig.
func NewClientWithConfig(config *ClientConfig) *Client {
	defaults := DefaultConfig()
	if config == nil {
		config = defaults
	}
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.UserAgent == "" {
		config.UserAgent = defaults.UserAgent
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	c := &Client{config: config, httpClient: httpClient}
	if config.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}
	return c
}

// BaseURL returns the backend origin the client points at.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// =============================================================================
// FILE OPERATIONS
// =============================================================================

// Upload sends one file as multipart field "file" and returns the record
// the backend created. The body is streamed from r.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (*FileRecord, error) {
	if err := c.wait(ctx, OpUpload); err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filepath.Base(filename))
		if err == nil {
			_, err = io.Copy(part, r)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	var rec FileRecord
	if err := c.send(ctx, OpUpload, http.MethodPost, "/api/upload", pr, mw.FormDataContentType(), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// UploadFile opens path and uploads it under its base name.
func (c *Client) UploadFile(ctx context.Context, path string) (*FileRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Op: OpUpload, Detail: fmt.Sprintf("cannot open %s", filepath.Base(path)), Cause: err}
	}
	defer f.Close()
	return c.Upload(ctx, filepath.Base(path), f)
}

// ListFiles returns every uploaded file. The backend may answer with a bare
// array or with {"files": [...]}.
func (c *Client) ListFiles(ctx context.Context) ([]FileRecord, error) {
	var raw json.RawMessage
	if err := c.do(ctx, OpList, http.MethodGet, "/api/files", nil, "", nil, &raw); err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return []FileRecord{}, nil
	}

	var files []FileRecord
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &files); err != nil {
			return nil, &Error{Op: OpList, StatusCode: http.StatusOK, Cause: err}
		}
	} else {
		var wrapped struct {
			Files []FileRecord `json:"files"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, &Error{Op: OpList, StatusCode: http.StatusOK, Cause: err}
		}
		files = wrapped.Files
	}
	if files == nil {
		files = []FileRecord{}
	}
	return files, nil
}

// DeleteFile removes a file and its chunks from the backend.
func (c *Client) DeleteFile(ctx context.Context, id int) (*DeleteResult, error) {
	var result DeleteResult
	path := "/api/files/" + strconv.Itoa(id)
	if err := c.do(ctx, OpDelete, http.MethodDelete, path, nil, "", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// =============================================================================
// CHAT, HEALTH, ADMIN
// =============================================================================

// Chat asks a question and waits for the complete answer.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &Error{Op: OpChat, Cause: err}
	}

	var resp ChatResponse
	if err := c.do(ctx, OpChat, http.MethodPost, "/api/chat", bytes.NewReader(body), "application/json", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health fetches the backend and LLM status.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var status HealthStatus
	if err := c.do(ctx, OpHealth, http.MethodGet, "/api/health", nil, "", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// AdminClearAll deletes every file and chat message on the backend. token
// is sent in the "admin-token" header.
func (c *Client) AdminClearAll(ctx context.Context, token string) (*ClearAllResult, error) {
	headers := http.Header{}
	headers.Set("admin-token", token)

	var result ClearAllResult
	if err := c.do(ctx, OpClearAll, http.MethodPost, "/api/admin/clear_all", nil, "", headers, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

func (c *Client) do(ctx context.Context, op Op, method, path string, body io.Reader, contentType string, headers http.Header, out any) error {
	if err := c.wait(ctx, op); err != nil {
		return err
	}
	return c.send(ctx, op, method, path, body, contentType, headers, out)
}

func (c *Client) wait(ctx context.Context, op Op) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return &Error{Op: op, Cause: err}
	}
	return nil
}

// send performs one request and decodes a 2xx JSON body into out. Any
// failure is returned as *Error.
func (c *Client) send(ctx context.Context, op Op, method, path string, body io.Reader, contentType string, headers http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
	if err != nil {
		if closer, ok := body.(io.Closer); ok {
			closer.Close()
		}
		return &Error{Op: op, Cause: err}
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("api: %s %s failed after %s (request %s): %v", method, path, time.Since(start).Round(time.Millisecond), requestID, err)
		return &Error{Op: op, Cause: err}
	}
	defer drainAndClose(resp.Body)

	log.Printf("api: %s %s -> %d in %s (request %s)", method, path, resp.StatusCode, time.Since(start).Round(time.Millisecond), requestID)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Op: op, StatusCode: resp.StatusCode, Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{
			Op:         op,
			StatusCode: resp.StatusCode,
			Detail:     parseDetail(data),
			Cause:      fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Op: op, StatusCode: resp.StatusCode, Cause: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

func drainAndClose(r io.ReadCloser) {
	io.Copy(io.Discard, r)
	r.Close()
}
