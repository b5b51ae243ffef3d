// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/jeranaias/docchat-tui/internal/api"
	"github.com/jeranaias/docchat-tui/internal/ui/styles"
	"github.com/jeranaias/docchat-tui/internal/util"
)

// EmptyFilesText is shown when nothing has been uploaded.
const EmptyFilesText = "No files uploaded yet."

// FileList is a selectable list of uploaded files.
type FileList struct {
	files    []api.FileRecord
	cursor   int
	offset   int
	deleting map[int]bool
}

// NewFileList returns an empty list.
func NewFileList() *FileList {
	return &FileList{deleting: make(map[int]bool)}
}

// SetFiles replaces the list, keeping the cursor on the same file when it
// is still present.
func (l *FileList) SetFiles(files []api.FileRecord) {
	selectedID := -1
	if f, ok := l.Selected(); ok {
		selectedID = f.ID
	}

	l.files = files
	l.cursor = 0
	for i, f := range files {
		if f.ID == selectedID {
			l.cursor = i
			break
		}
	}
	l.clamp()

	for id := range l.deleting {
		found := false
		for _, f := range files {
			if f.ID == id {
				found = true
				break
			}
		}
		if !found {
			delete(l.deleting, id)
		}
	}
}

func (l *FileList) Len() int { return len(l.files) }

// Selected returns the file under the cursor.
func (l *FileList) Selected() (api.FileRecord, bool) {
	if l.cursor < 0 || l.cursor >= len(l.files) {
		return api.FileRecord{}, false
	}
	return l.files[l.cursor], true
}

func (l *FileList) MoveUp() {
	if l.cursor > 0 {
		l.cursor--
	}
}

func (l *FileList) MoveDown() {
	if l.cursor < len(l.files)-1 {
		l.cursor++
	}
}

// SetDeleting marks or unmarks a file as being deleted.
func (l *FileList) SetDeleting(id int, deleting bool) {
	if deleting {
		l.deleting[id] = true
	} else {
		delete(l.deleting, id)
	}
}

// IsDeleting reports whether a delete for id is in flight.
func (l *FileList) IsDeleting(id int) bool {
	return l.deleting[id]
}

func (l *FileList) clamp() {
	if l.cursor >= len(l.files) {
		l.cursor = len(l.files) - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
}

// View renders up to height rows, scrolling to keep the cursor visible.
// Each file takes two rows: name with badge, then upload time or status.
func (l *FileList) View(theme *styles.Theme, width, height int, focused bool) string {
	if len(l.files) == 0 {
		return theme.EmptyText.Render(EmptyFilesText)
	}

	visible := height / 2
	if visible < 1 {
		visible = 1
	}
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+visible {
		l.offset = l.cursor - visible + 1
	}
	if l.offset > len(l.files)-visible {
		l.offset = max(0, len(l.files)-visible)
	}

	end := min(len(l.files), l.offset+visible)
	rows := make([]string, 0, (end-l.offset)*2)
	for i := l.offset; i < end; i++ {
		f := l.files[i]
		ext := strings.ToUpper(f.Extension())
		if ext == "" {
			ext = "?"
		}
		badge := theme.BadgeFor(f.Extension()).Render(ext)
		nameWidth := width - util.StringWidth(ext) - 3
		name := util.PadRight(f.Filename, nameWidth)

		style := theme.FileItem
		if focused && i == l.cursor {
			style = theme.FileItemFocused
		}
		rows = append(rows, badge+" "+style.Render(name))

		meta := formatUploadTime(f.UploadTime)
		if l.deleting[f.ID] {
			rows = append(rows, theme.Deleting.Render("  deleting…"))
		} else {
			rows = append(rows, theme.FileMeta.Render(util.TruncateWidth("  "+meta, width)))
		}
	}
	return strings.Join(rows, "\n")
}

// formatUploadTime shortens an ISO timestamp for the sidebar. Unknown
// formats pass through.
func formatUploadTime(s string) string {
	if s == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("Jan 2 15:04")
		}
	}
	return s
}
