// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the config directory at a temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DOCCHAT_HOME", dir)
	for _, k := range []string{"DOCCHAT_URL", "DOCCHAT_ADMIN_TOKEN", "DOCCHAT_MAX_UPLOAD_MB", "DOCCHAT_WATCH_DIR", "DOCCHAT_THEME"} {
		t.Setenv(k, "")
	}
	return dir
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://localhost:8000", cfg.Server.BaseURL)
	assert.Equal(t, []string{"pdf", "docx", "txt", "csv", "xlsx"}, cfg.Upload.Extensions)
	assert.Equal(t, int64(20*1024*1024), cfg.MaxUploadBytes())
}

func TestLoad_NoFilesUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, cfg.Server.BaseURL)
	assert.Equal(t, DefaultAdminToken, cfg.Admin.Token)
}

func TestLoad_TOMLFile(t *testing.T) {
	dir := isolate(t)
	content := `
[server]
base_url = "http://docs.internal:9000/"
timeout_secs = 30

[upload]
max_size_mb = 5
extensions = [".PDF", "txt"]

[chat]
k = 8
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://docs.internal:9000", cfg.Server.BaseURL, "trailing slash trimmed")
	assert.Equal(t, 30, cfg.Server.TimeoutSecs)
	assert.Equal(t, 5, cfg.Upload.MaxSizeMB)
	assert.Equal(t, []string{"pdf", "txt"}, cfg.Upload.Extensions)
	assert.Equal(t, 8, cfg.Chat.K)
	assert.True(t, cfg.UI.Markdown, "unset keys keep defaults")

	info, err := os.Stat(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	if os.PathSeparator == '/' {
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}
}

func TestLoad_JSONFallback(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"),
		[]byte(`{"server":{"base_url":"https://docs.example.com"}}`), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://docs.example.com", cfg.Server.BaseURL)
}

func TestLoad_BrokenFileReturnsDefaultsAndError(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[server\nbase_url="), 0600))

	cfg, err := Load()
	require.Error(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, DefaultBaseURL, cfg.Server.BaseURL)
}

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("DOCCHAT_URL", "http://10.0.0.5:8000")
	t.Setenv("DOCCHAT_ADMIN_TOKEN", "hunter2")
	t.Setenv("DOCCHAT_MAX_UPLOAD_MB", "5")
	t.Setenv("DOCCHAT_THEME", "Light")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:8000", cfg.Server.BaseURL)
	assert.Equal(t, "hunter2", cfg.Admin.Token)
	assert.Equal(t, 5, cfg.Upload.MaxSizeMB)
	assert.Equal(t, "light", cfg.UI.Theme)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Server.BaseURL = "ftp://example.com"
	cfg.Upload.MaxSizeMB = -1
	cfg.Chat.K = 100
	cfg.UI.Theme = "neon"

	err := cfg.Validate()
	require.Error(t, err)

	var verrs ValidateErrors
	require.ErrorAs(t, err, &verrs)
	fields := make([]string, 0, len(verrs))
	for _, e := range verrs {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"server.base_url", "upload.max_size_mb", "chat.k", "ui.theme"}, fields)
}

func TestApplyEnvOverrides_UploadLimitCannotExceedDefault(t *testing.T) {
	isolate(t)
	t.Setenv("DOCCHAT_MAX_UPLOAD_MB", "1024")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxSizeMB, cfg.Upload.MaxSizeMB)
}

func TestValidate_UploadPolicyOnlyNarrows(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"subset of extensions", func(c *Config) { c.Upload.Extensions = []string{"pdf"} }, false},
		{"smaller limit", func(c *Config) { c.Upload.MaxSizeMB = 5 }, false},
		{"extra extension", func(c *Config) { c.Upload.Extensions = []string{"pdf", "md"} }, true},
		{"executable", func(c *Config) { c.Upload.Extensions = []string{"exe"} }, true},
		{"limit above default", func(c *Config) { c.Upload.MaxSizeMB = DefaultMaxSizeMB + 1 }, true},
		{"empty list", func(c *Config) { c.Upload.Extensions = []string{} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_WideUploadPolicyRejected(t *testing.T) {
	dir := isolate(t)
	content := "[upload]\nmax_size_mb = 500\nextensions = [\"exe\"]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	cfg, err := Load()
	require.Error(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, DefaultExtensions, cfg.Upload.Extensions)
	assert.Equal(t, DefaultMaxSizeMB, cfg.Upload.MaxSizeMB)
}

func TestGetSet_DotNotation(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("server.base_url", "http://example.com"))
	require.NoError(t, cfg.Set("chat.k", "6"))
	require.NoError(t, cfg.Set("ui.show_sources", "no"))
	require.NoError(t, cfg.Set("upload.extensions", "pdf, txt"))
	require.NoError(t, cfg.Set("server.requests_per_second", "2.5"))

	v, err := cfg.Get("server.base_url")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com", v)
	assert.Equal(t, 6, cfg.Chat.K)
	assert.False(t, cfg.UI.ShowSources)
	assert.Equal(t, []string{"pdf", "txt"}, cfg.Upload.Extensions)
	assert.Equal(t, 2.5, cfg.Server.RequestsPerSecond)

	assert.Error(t, cfg.Set("chat.k", "many"))
	assert.Error(t, cfg.Set("server.nope", "x"))
	_, err = cfg.Get("server")
	assert.Error(t, err, "sections are not values")
}

func TestGetAllKeys_Resolve(t *testing.T) {
	cfg := Default()
	for _, key := range GetAllKeys() {
		_, err := cfg.Get(key)
		assert.NoError(t, err, key)
	}
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	dir := isolate(t)
	cfg := Default()
	cfg.Server.BaseURL = "http://saved:8000"
	cfg.Chat.K = 3

	require.NoError(t, Save(cfg))

	data, err := os.ReadFile(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "# docchat configuration file")

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://saved:8000", loaded.Server.BaseURL)
	assert.Equal(t, 3, loaded.Chat.K)
}

func TestString_RedactsToken(t *testing.T) {
	cfg := Default()
	cfg.Admin.Token = "topsecret"
	assert.NotContains(t, cfg.String(), "topsecret")
	assert.Equal(t, "topsecret", cfg.Admin.Token, "original untouched")
}

func TestConfig_ConcurrentAccess(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}
