package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	def := DefaultAppConfig()
	assert.Equal(t, def.Store, cfg.Store)
	assert.Equal(t, def.Push, cfg.Push)
	assert.Equal(t, time.Sunday, cfg.WeekStartDay())
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `store:
  path: /tmp/x.db
  max_per_category: 7
display:
  week_start: monday
push:
  subject_prefix: test.push
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("INBOX_PUSH_URL", "nats://example:4333")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", cfg.Store.Path)
	assert.Equal(t, 7, cfg.Store.MaxPerCategory)
	assert.Equal(t, time.Monday, cfg.WeekStartDay())
	assert.Equal(t, "test.push", cfg.Push.SubjectPrefix)
	assert.Equal(t, "nats://example:4333", cfg.Push.URL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("display:\n  week_start: friday\n"), 0o644))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "week_start")
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultAppConfig()
	cfg.Store.Path = "/var/lib/inbox.db"
	cfg.Push.Enabled = true
	cfg.Display.WeekStart = "monday"
	cfg.Display.Theme = ThemeMono

	require.NoError(t, SaveConfig(path, cfg))

	got, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Store.Path, got.Store.Path)
	assert.True(t, got.Push.Enabled)
	assert.Equal(t, time.Monday, got.WeekStartDay())
	assert.Equal(t, ThemeMono, got.Display.Theme)
}

func TestAppConfig_Validate(t *testing.T) {
	cfg := DefaultAppConfig()
	require.NoError(t, cfg.Validate())

	cfg.Store.MaxPerCategory = -1
	assert.Error(t, cfg.Validate())

	cfg = DefaultAppConfig()
	cfg.Store.Path = ""
	assert.Error(t, cfg.Validate())
}

func TestAppConfig_ValidateTheme(t *testing.T) {
	tests := []struct {
		theme   string
		wantErr bool
	}{
		{"", false},
		{"default", false},
		{"Dark", false},
		{"light", false},
		{"mono", false},
		{"solarized", true},
	}
	for _, tt := range tests {
		t.Run(tt.theme, func(t *testing.T) {
			cfg := DefaultAppConfig()
			cfg.Display.Theme = tt.theme
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorContains(t, err, "display.theme")
				return
			}
			assert.NoError(t, err)
		})
	}
}
