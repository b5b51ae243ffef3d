// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/jeranaias/docchat-tui/internal/api"
	"github.com/jeranaias/docchat-tui/internal/store"
	"github.com/jeranaias/docchat-tui/internal/upload"
)

// =============================================================================
// PROGRESS
// =============================================================================

// newByteBar is a byte-counting bar for one file upload on w.
func newByteBar(size int64, name string, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(color.BlueString(name)),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// newSpinner is an indeterminate spinner on w.
func newSpinner(description string, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// spin animates a spinner on stderr until the returned func is called. It
// is a no-op when progress output is off.
func (e *Env) spin(description string) (stop func()) {
	if !e.showProgress() {
		return func() {}
	}
	bar := newSpinner(description, e.Err)
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()
	return func() {
		close(done)
		<-finished
		_ = bar.Finish()
	}
}

// showProgress reports whether progress bars should be drawn.
func (e *Env) showProgress() bool {
	return !e.Args.JSON && !e.Args.Quiet && e.Err == os.Stderr && IsStderrTTY()
}

// =============================================================================
// UPLOAD
// =============================================================================

// uploadNotifier prints uploader notifications as status lines.
func (e *Env) uploadNotifier() upload.Notifier {
	return upload.NotifierFunc(func(n upload.Notification) {
		if e.Args.JSON {
			return
		}
		text := n.Title
		if n.Description != "" {
			text += ": " + n.Description
		}
		switch n.Kind {
		case upload.KindSuccess:
			e.success("%s", text)
		case upload.KindError:
			e.failure("%s", text)
		default:
			e.info("%s", text)
		}
	})
}

func (e *Env) newUploader(files *store.FilesStore) *upload.Uploader {
	u := upload.NewUploader(e.Client, files, upload.RulesFromConfig(e.Config), e.uploadNotifier())
	if e.showProgress() {
		u.WrapReader = func(c upload.Candidate, r io.Reader) io.Reader {
			return io.TeeReader(r, newByteBar(c.Size, c.Name, e.Err))
		}
	}
	return u
}

// UploadData is the --json payload of the upload command.
type UploadData struct {
	Uploaded []api.FileRecord `json:"uploaded"`
	Failed   []UploadFailure  `json:"failed"`
}

// UploadFailure is one rejected or failed file.
type UploadFailure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// HandleUpload uploads each path in order, one at a time.
func HandleUpload(ctx context.Context, e *Env) error {
	p := NewArgParser(e.Args.Rest)
	paths := p.PositionalArgs()
	if len(paths) == 0 {
		return ErrMissingArgument("paths", "docchat upload <paths...>")
	}

	uploader := e.newUploader(store.NewFilesStore())
	sum := uploader.UploadAll(ctx, upload.CandidatesFromPaths(paths))

	data := UploadData{Uploaded: sum.Uploaded(), Failed: []UploadFailure{}}
	if data.Uploaded == nil {
		data.Uploaded = []api.FileRecord{}
	}
	for _, r := range sum.Results {
		if r.Err != nil {
			data.Failed = append(data.Failed, UploadFailure{Name: r.Name, Error: r.Err.Error()})
		}
	}

	if e.Args.JSON {
		if err := e.printJSON("upload", data); err != nil {
			return err
		}
	}
	if n := len(data.Failed); n > 0 {
		return NewCommandError("upload", "files", fmt.Sprintf("%d of %d file(s) failed", n, len(paths)), nil)
	}
	return nil
}

// =============================================================================
// WATCH
// =============================================================================

// HandleWatch uploads files created in a directory until interrupted. The
// directory comes from the argument or upload.watch_dir.
func HandleWatch(ctx context.Context, e *Env) error {
	p := NewArgParser(e.Args.Rest)
	dir := p.Positional(0)
	if dir == "" {
		dir = e.Config.Upload.WatchDir
	}
	if dir == "" {
		return ErrMissingArgument("dir", "docchat watch <dir>  (or set upload.watch_dir)")
	}
	dir, _ = filepath.Abs(dir)

	debounce := upload.DefaultDebounce
	if v := p.Flag("debounce"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return &ValidationError{Field: "--debounce", Value: v, Reason: "must be a positive duration", Example: "--debounce 2s"}
		}
		debounce = d
	}

	uploader := e.newUploader(store.NewFilesStore())
	w, err := upload.NewWatcher(dir, uploader, debounce)
	if err != nil {
		return NewCommandError("watch", "start", dir, err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if e.Args.JSON {
		enc := newJSONLines(e.Out)
		w.OnBatch(func(sum upload.Summary) {
			for _, r := range sum.Results {
				enc.result(r)
			}
		})
	}

	if err := w.Watch(ctx); err != nil {
		_ = w.Close()
		return NewCommandError("watch", "start", dir, err)
	}
	e.info("Watching %s (%s). Press Ctrl+C to stop.", dir, uploader.Rules().Describe())

	<-ctx.Done()
	e.info("Stopped watching.")
	return w.Close()
}

// jsonLines writes one JSON object per upload result, for watch --json.
type jsonLines struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func newJSONLines(w io.Writer) *jsonLines {
	return &jsonLines{enc: json.NewEncoder(w)}
}

func (j *jsonLines) result(r upload.Result) {
	line := struct {
		Name   string          `json:"name"`
		Record *api.FileRecord `json:"record,omitempty"`
		Error  string          `json:"error,omitempty"`
	}{Name: r.Name, Record: r.Record}
	if r.Err != nil {
		line.Error = r.Err.Error()
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	_ = j.enc.Encode(line)
}
