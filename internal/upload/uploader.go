// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/jeranaias/docchat-tui/internal/api"
	"github.com/jeranaias/docchat-tui/internal/store"
)

// API is the backend call the uploader needs.
type API interface {
	Upload(ctx context.Context, filename string, r io.Reader) (*api.FileRecord, error)
}

// Candidate is a file offered for upload.
type Candidate struct {
	Name string
	Path string
	Size int64
	// Open returns the file contents. It is only called for files that pass
	// validation.
	Open func() (io.ReadCloser, error)
	// Err is set when the file could not be inspected.
	Err error
}

// CandidatesFromPaths stats each path. Unreadable paths and directories are
// returned with Err set so the uploader reports them in order.
func CandidatesFromPaths(paths []string) []Candidate {
	out := make([]Candidate, 0, len(paths))
	for _, p := range paths {
		c := Candidate{Name: filepath.Base(p), Path: p}
		info, err := os.Stat(p)
		switch {
		case err != nil:
			c.Err = err
		case info.IsDir():
			c.Err = fmt.Errorf("%s is a directory", p)
		default:
			c.Size = info.Size()
			path := p
			c.Open = func() (io.ReadCloser, error) { return os.Open(path) }
		}
		out = append(out, c)
	}
	return out
}

// Result is the outcome for one candidate.
type Result struct {
	Name   string
	Record *api.FileRecord
	Err    error
}

// Summary collects the results of UploadAll in input order.
type Summary struct {
	Results []Result
}

// Uploaded returns the records created on the backend.
func (s Summary) Uploaded() []api.FileRecord {
	var out []api.FileRecord
	for _, r := range s.Results {
		if r.Record != nil {
			out = append(out, *r.Record)
		}
	}
	return out
}

// Failed counts candidates that were rejected or failed to upload.
func (s Summary) Failed() int {
	n := 0
	for _, r := range s.Results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Uploader validates candidates and uploads the accepted ones sequentially,
// keeping the files store in step.
type Uploader struct {
	// batch serializes UploadAll calls from the TUI and the watcher.
	batch sync.Mutex

	client   API
	files    *store.FilesStore
	rules    Rules
	notifier Notifier

	// WrapReader, if set, wraps each file body before it is sent, for
	// progress reporting.
	WrapReader func(c Candidate, r io.Reader) io.Reader
}

// NewUploader returns an uploader. A nil notifier discards notifications.
func NewUploader(client API, files *store.FilesStore, rules Rules, notifier Notifier) *Uploader {
	if notifier == nil {
		notifier = NotifierFunc(func(Notification) {})
	}
	return &Uploader{client: client, files: files, rules: rules, notifier: notifier}
}

// Rules returns the validation rules in effect.
func (u *Uploader) Rules() Rules {
	return u.rules
}

// UploadAll processes candidates one after another. Each upload finishes
// before the next starts, including across concurrent calls. A cancelled
// context stops the batch.
func (u *Uploader) UploadAll(ctx context.Context, candidates []Candidate) Summary {
	u.batch.Lock()
	defer u.batch.Unlock()

	var sum Summary
	for _, c := range candidates {
		if ctx.Err() != nil {
			break
		}
		sum.Results = append(sum.Results, u.uploadOne(ctx, c))
	}
	return sum
}

func (u *Uploader) uploadOne(ctx context.Context, c Candidate) Result {
	res := Result{Name: c.Name}

	if c.Err != nil {
		res.Err = c.Err
		u.notifier.Notify(failure("Upload failed", c.Err.Error()))
		return res
	}

	if err := Validate(c.Name, c.Size, u.rules); err != nil {
		res.Err = err
		var verr *ValidationError
		if errors.As(err, &verr) {
			u.notifier.Notify(failure(verr.Title, verr.Detail))
		} else {
			u.files.SetError(err.Error())
		}
		return res
	}

	u.files.SetLoading(true)
	defer u.files.SetLoading(false)

	rec, err := u.send(ctx, c)
	if err != nil {
		msg := api.Message(err, api.OpUpload)
		log.Printf("upload: %s failed: %v", c.Name, err)
		u.files.SetError(msg)
		u.notifier.Notify(failure("Upload failed", msg))
		res.Err = err
		return res
	}

	u.files.AddFile(*rec)
	u.notifier.Notify(success("File uploaded", rec.Filename))
	res.Record = rec
	return res
}

func (u *Uploader) send(ctx context.Context, c Candidate) (*api.FileRecord, error) {
	if c.Open == nil {
		return nil, &api.Error{Op: api.OpUpload, Detail: fmt.Sprintf("cannot read %s", c.Name)}
	}
	body, err := c.Open()
	if err != nil {
		return nil, &api.Error{Op: api.OpUpload, Detail: fmt.Sprintf("cannot read %s", c.Name), Cause: err}
	}
	defer body.Close()

	var r io.Reader = body
	if u.WrapReader != nil {
		r = u.WrapReader(c, r)
	}
	return u.client.Upload(ctx, c.Name, r)
}
