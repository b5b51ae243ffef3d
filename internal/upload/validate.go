// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package upload

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/docchat-tui/internal/config"
	"github.com/jeranaias/docchat-tui/internal/util"
)

// ErrMissingName is returned for a candidate without a file name.
var ErrMissingName = errors.New("File name is missing.")

// Rules is the client-side upload policy.
type Rules struct {
	// Extensions are lower-case, without a leading dot.
	Extensions []string
	MaxBytes   int64
}

// DefaultRules allows pdf, docx, txt, csv and xlsx up to 20 MiB.
func DefaultRules() Rules {
	return Rules{
		Extensions: append([]string(nil), config.DefaultExtensions...),
		MaxBytes:   config.DefaultMaxSizeMB * 1024 * 1024,
	}
}

// RulesFromConfig builds rules from the upload section of cfg. The result
// is never wider than DefaultRules: extensions off the default list are
// dropped and the size limit is capped. If nothing on the list survives the
// defaults apply.
func RulesFromConfig(cfg *config.Config) Rules {
	def := DefaultRules()
	if cfg == nil {
		return def
	}

	var exts []string
	for _, ext := range cfg.Upload.Extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if config.AllowedExtension(ext) {
			exts = append(exts, ext)
		}
	}
	if len(exts) == 0 {
		exts = def.Extensions
	}

	limit := cfg.MaxUploadBytes()
	if limit <= 0 || limit > def.MaxBytes {
		limit = def.MaxBytes
	}
	return Rules{Extensions: exts, MaxBytes: limit}
}

// Allows reports whether ext (lower-case, no dot) is on the allow-list.
func (r Rules) Allows(ext string) bool {
	for _, e := range r.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Describe renders the rules for help text, e.g. "pdf, docx (max 20 MB)".
func (r Rules) Describe() string {
	return fmt.Sprintf("%s (max %d MB)", strings.Join(r.Extensions, ", "), r.MaxBytes/(1024*1024))
}

// Reason says why a file was rejected.
type Reason int

const (
	ReasonUnsupportedType Reason = iota
	ReasonTooLarge
)

// ValidationError is a rejected file. Title is the short message shown to
// the user; Detail adds the specifics.
type ValidationError struct {
	Reason   Reason
	Filename string
	Title    string
	Detail   string
}

func (e *ValidationError) Error() string {
	return e.Title
}

// Extension returns the lower-cased text after the last dot of name. A name
// without a dot is its own extension.
func Extension(name string) string {
	return util.FileExtension(name)
}

// Validate checks a file against the rules before any network call.
func Validate(name string, size int64, rules Rules) error {
	if name == "" {
		return ErrMissingName
	}

	ext := Extension(name)
	if ext == "" || !rules.Allows(ext) {
		return &ValidationError{
			Reason:   ReasonUnsupportedType,
			Filename: name,
			Title:    "Unsupported file type",
			Detail:   fmt.Sprintf("%s: allowed types are %s", name, strings.Join(rules.Extensions, ", ")),
		}
	}

	if size > rules.MaxBytes {
		return &ValidationError{
			Reason:   ReasonTooLarge,
			Filename: name,
			Title:    "File too large",
			Detail:   fmt.Sprintf("%s is %s; the limit is %s", name, humanSize(size), humanSize(rules.MaxBytes)),
		}
	}
	return nil
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
