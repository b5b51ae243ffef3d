// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package upload

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// DROP-FOLDER WATCHER
// =============================================================================

// DefaultDebounce is how long a file must go without writes before upload.
const DefaultDebounce = 750 * time.Millisecond

// Watcher uploads files that appear in a directory. Only the directory
// itself is watched, not subdirectories. A file is uploaded again only if
// its size or modification time changes.
type Watcher struct {
	dir      string
	uploader *Uploader
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]time.Time
	seen    map[string]stamp
	onBatch func(Summary)

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

type stamp struct {
	size    int64
	modTime time.Time
}

// NewWatcher creates a watcher for dir. A zero debounce uses DefaultDebounce.
func NewWatcher(dir string, uploader *Uploader, debounce time.Duration) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &os.PathError{Op: "watch", Path: dir, Err: os.ErrInvalid}
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		dir:      dir,
		uploader: uploader,
		watcher:  fw,
		debounce: debounce,
		pending:  make(map[string]time.Time),
		seen:     make(map[string]stamp),
		done:     make(chan struct{}),
	}, nil
}

// OnBatch registers fn to receive the summary of each upload batch.
func (w *Watcher) OnBatch(fn func(Summary)) {
	w.mu.Lock()
	w.onBatch = fn
	w.mu.Unlock()
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Watch starts watching until ctx is cancelled or Close is called. Files
// already in the directory are left alone.
func (w *Watcher) Watch(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		return err
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	w.markExisting()

	go w.processEvents()
	go w.processPending()
	return nil
}

// Close stops watching and releases the fsnotify handle.
func (w *Watcher) Close() error {
	if w.cancel != nil {
		w.cancel()
		<-w.done
	}
	return w.watcher.Close()
}

func (w *Watcher) markExisting() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, e := range entries {
		if info, err := e.Info(); err == nil && info.Mode().IsRegular() {
			w.seen[filepath.Join(w.dir, e.Name())] = stamp{info.Size(), info.ModTime()}
		}
	}
}

func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 && !ignoredName(filepath.Base(event.Name)) {
				w.mu.Lock()
				w.pending[event.Name] = time.Now()
				w.mu.Unlock()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("watch: %s: %v", w.dir, err)
		}
	}
}

// processPending uploads files whose last write is older than the debounce.
func (w *Watcher) processPending() {
	defer close(w.done)

	tick := w.debounce / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			if paths := w.settled(time.Now()); len(paths) > 0 {
				w.uploadBatch(paths)
			}
		}
	}
}

func (w *Watcher) settled(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var ready []string
	for path, changed := range w.pending {
		if now.Sub(changed) < w.debounce {
			continue
		}
		delete(w.pending, path)

		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		st := stamp{info.Size(), info.ModTime()}
		if prev, ok := w.seen[path]; ok && prev.size == st.size && prev.modTime.Equal(st.modTime) {
			continue
		}
		w.seen[path] = st
		ready = append(ready, path)
	}
	sort.Strings(ready)
	return ready
}

func (w *Watcher) uploadBatch(paths []string) {
	log.Printf("watch: uploading %d file(s) from %s", len(paths), w.dir)
	sum := w.uploader.UploadAll(w.ctx, CandidatesFromPaths(paths))

	w.mu.Lock()
	fn := w.onBatch
	w.mu.Unlock()
	if fn != nil {
		fn(sum)
	}
}

// ignoredName filters editor swap files and partial downloads.
func ignoredName(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
		return true
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".tmp", ".part", ".crdownload", ".swp":
		return true
	}
	return false
}
