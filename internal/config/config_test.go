package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LOCALCAT_DATA_DIR", "LOCALCAT_TM_PATH", "LOCALCAT_DB_PATH", "LOCALCAT_HISTORY_DAYS",
		"LOCALCAT_GLOSSARIES", "LOCALCAT_SOURCE_LANG", "LOCALCAT_TARGET_LANG", "LOCALCAT_MARKER",
		"LOCALCAT_SOURCE_DIRS", "LOCALCAT_CRON_EXPR", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestNewFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "./data", cfg.Storage.DataDir)
	assert.Equal(t, filepath.Join("./data", "tm.jsonl"), cfg.TMPath())
	assert.Equal(t, filepath.Join("./data", "localcat.db"), cfg.DBPath())
	assert.Equal(t, 30, cfg.Storage.HistoryDays)
	assert.Empty(t, cfg.Match.Glossaries)
	assert.Equal(t, language.English, cfg.Match.SourceLanguage)
	assert.Equal(t, language.Chinese, cfg.Match.TargetLanguage)
	assert.Equal(t, MarkerBracket, cfg.Match.Marker)
	assert.Equal(t, "*/10 * * * *", cfg.Watch.CronExpr)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestNewFromEnv_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOCALCAT_DATA_DIR", "/tmp/cat")
	t.Setenv("LOCALCAT_TM_PATH", "/srv/tm/main.jsonl")
	t.Setenv("LOCALCAT_GLOSSARIES", "a.csv, ,b.xlsx")
	t.Setenv("LOCALCAT_SOURCE_DIRS", "/l10n")
	t.Setenv("LOCALCAT_TARGET_LANG", "ja-JP")
	t.Setenv("LOCALCAT_MARKER", "color")
	t.Setenv("LOCALCAT_HISTORY_DAYS", "not-a-number")

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "/srv/tm/main.jsonl", cfg.TMPath())
	assert.Equal(t, filepath.Join("/tmp/cat", "localcat.db"), cfg.DBPath())
	assert.Equal(t, []string{"a.csv", "b.xlsx"}, cfg.Match.Glossaries)
	assert.Equal(t, []string{"/l10n"}, cfg.Watch.SourceDirs)
	assert.Equal(t, language.MustParse("ja-JP"), cfg.Match.TargetLanguage)
	assert.Equal(t, MarkerColor, cfg.Match.Marker)
	assert.Equal(t, 30, cfg.Storage.HistoryDays)
}

func TestNewFromEnv_Validation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad marker", "LOCALCAT_MARKER", "html"},
		{"bad cron", "LOCALCAT_CRON_EXPR", "every minute"},
		{"negative history", "LOCALCAT_HISTORY_DAYS", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			_, err := NewFromEnv()
			assert.Error(t, err)
		})
	}
}

func TestSettingsFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOCALCAT_MARKER", "color")

	path := filepath.Join(t.TempDir(), "localcat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: /var/lib/localcat
history_days: 0
glossaries:
  - terms.csv
  - product.xlsx
source_lang: de
target_lang: zh-TW
cron_expr: "0 * * * *"
source_dirs: [/l10n/app, /l10n/web]
`), 0o644))

	settings, err := LoadSettingsFile(path)
	require.NoError(t, err)

	cfg, err := NewFromEnv(WithSettings(settings), WithGlossaries("extra.tsv"), WithTMPath("/tmp/tm.jsonl"))
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/localcat", cfg.Storage.DataDir)
	assert.Equal(t, 0, cfg.Storage.HistoryDays)
	assert.Equal(t, []string{"terms.csv", "product.xlsx", "extra.tsv"}, cfg.Match.Glossaries)
	assert.Equal(t, language.German, cfg.Match.SourceLanguage)
	assert.Equal(t, language.MustParse("zh-TW"), cfg.Match.TargetLanguage)
	assert.Equal(t, "0 * * * *", cfg.Watch.CronExpr)
	assert.Equal(t, []string{"/l10n/app", "/l10n/web"}, cfg.Watch.SourceDirs)
	assert.Equal(t, "/tmp/tm.jsonl", cfg.TMPath())
	// unset in the file, so the environment value stays
	assert.Equal(t, MarkerColor, cfg.Match.Marker)
}

func TestLoadSettingsFile_Errors(t *testing.T) {
	_, err := LoadSettingsFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("glossaries: [unclosed"), 0o644))
	_, err = LoadSettingsFile(bad)
	assert.Error(t, err)
}

func TestWithMarker(t *testing.T) {
	clearEnv(t)
	cfg, err := NewFromEnv(WithMarker("color"), WithMarker(""))
	require.NoError(t, err)
	assert.Equal(t, MarkerColor, cfg.Match.Marker)
}
