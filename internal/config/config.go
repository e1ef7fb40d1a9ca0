package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
	"golang.org/x/text/language"
)

// Config holds all application configuration.
// Values come from environment variables with sensible defaults and may be
// overridden by Options (settings file, CLI flags).
//
// Environment Variables:
// Storage:
// - LOCALCAT_DATA_DIR: data directory (default: ./data)
// - LOCALCAT_TM_PATH: translation memory log (default: <data>/tm.jsonl)
// - LOCALCAT_DB_PATH: run history database (default: <data>/localcat.db)
// - LOCALCAT_HISTORY_DAYS: days of run history to keep, 0 = forever (default: 30)
//
// Matching:
// - LOCALCAT_GLOSSARIES: comma separated glossary files (.csv, .tsv, .xlsx, .json)
// - LOCALCAT_SOURCE_LANG: source language (default: en)
// - LOCALCAT_TARGET_LANG: target language (default: zh)
// - LOCALCAT_MARKER: inline marker style, bracket or color (default: bracket)
//
// Watch mode:
// - LOCALCAT_SOURCE_DIRS: comma separated directories scanned for PO/SRT files
// - LOCALCAT_CRON_EXPR: schedule (default: */10 * * * *)
//
// - LOG_LEVEL: debug, info, warn, error (default: info)
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Match   MatchConfig   `yaml:"match"`
	Watch   WatchConfig   `yaml:"watch"`

	LogLevel string `yaml:"log_level"`
}

type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
	TMPath  string `yaml:"tm_path"`
	DBPath  string `yaml:"db_path"`

	// HistoryDays is how long run history is kept; 0 keeps it forever.
	HistoryDays int `yaml:"history_days"`
}

type MatchConfig struct {
	Glossaries     []string     `yaml:"glossaries"`
	SourceLanguage language.Tag `yaml:"-"`
	TargetLanguage language.Tag `yaml:"-"`
	Marker         string       `yaml:"marker"`
}

type WatchConfig struct {
	SourceDirs []string `yaml:"source_dirs"`
	CronExpr   string   `yaml:"cron_expr"`
}

const (
	MarkerBracket = "bracket"
	MarkerColor   = "color"
)

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config from environment variables and options.
func NewFromEnv(opts ...Option) (*Config, error) {
	dataDir := getEnvString("LOCALCAT_DATA_DIR", "./data")

	config := &Config{
		Storage: StorageConfig{
			DataDir: dataDir,
			TMPath:  getEnvString("LOCALCAT_TM_PATH", ""),
			DBPath:  getEnvString("LOCALCAT_DB_PATH", ""),

			HistoryDays: getEnvInt("LOCALCAT_HISTORY_DAYS", 30),
		},
		Match: MatchConfig{
			Glossaries:     getEnvList("LOCALCAT_GLOSSARIES"),
			SourceLanguage: getEnvLanguage("LOCALCAT_SOURCE_LANG", language.English),
			TargetLanguage: getEnvLanguage("LOCALCAT_TARGET_LANG", language.Chinese),
			Marker:         getEnvString("LOCALCAT_MARKER", MarkerBracket),
		},
		Watch: WatchConfig{
			SourceDirs: getEnvList("LOCALCAT_SOURCE_DIRS"),
			CronExpr:   getEnvString("LOCALCAT_CRON_EXPR", "*/10 * * * *"),
		},
		LogLevel: getEnvString("LOG_LEVEL", "info"),
	}

	for _, opt := range opts {
		opt(config)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// TMPath is the memory log location, defaulting into the data directory.
func (c *Config) TMPath() string {
	if c.Storage.TMPath != "" {
		return c.Storage.TMPath
	}
	return filepath.Join(c.Storage.DataDir, "tm.jsonl")
}

// DBPath is the run history database location, defaulting into the data directory.
func (c *Config) DBPath() string {
	if c.Storage.DBPath != "" {
		return c.Storage.DBPath
	}
	return filepath.Join(c.Storage.DataDir, "localcat.db")
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Storage.DataDir) == "" && (c.Storage.TMPath == "" || c.Storage.DBPath == "") {
		return fmt.Errorf("LOCALCAT_DATA_DIR is required when TM or DB path is not set")
	}
	if c.Storage.HistoryDays < 0 {
		return fmt.Errorf("history days must not be negative")
	}
	switch c.Match.Marker {
	case MarkerBracket, MarkerColor:
	default:
		return fmt.Errorf("invalid marker style %q (want %s or %s)", c.Match.Marker, MarkerBracket, MarkerColor)
	}
	if _, err := cron.ParseStandard(c.Watch.CronExpr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", c.Watch.CronExpr, err)
	}
	if c.Match.SourceLanguage == language.Und || c.Match.TargetLanguage == language.Und {
		return fmt.Errorf("source and target languages are required")
	}
	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping empty items.
func getEnvList(key string) []string {
	return splitList(os.Getenv(key))
}

func getEnvLanguage(key string, defaultValue language.Tag) language.Tag {
	if value := os.Getenv(key); value != "" {
		if tag, err := language.Parse(value); err == nil {
			return tag
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	ret := make([]string, 0)
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			ret = append(ret, item)
		}
	}
	return ret
}
