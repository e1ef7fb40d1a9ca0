package config

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Settings is the optional YAML settings file. Empty fields leave the
// environment value in place.
type Settings struct {
	DataDir     string   `yaml:"data_dir"`
	TMPath      string   `yaml:"tm_path"`
	DBPath      string   `yaml:"db_path"`
	HistoryDays *int     `yaml:"history_days"`
	Glossaries  []string `yaml:"glossaries"`
	SourceLang  string   `yaml:"source_lang"`
	TargetLang  string   `yaml:"target_lang"`
	Marker      string   `yaml:"marker"`
	SourceDirs  []string `yaml:"source_dirs"`
	CronExpr    string   `yaml:"cron_expr"`
	LogLevel    string   `yaml:"log_level"`
}

func LoadSettingsFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}
	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("invalid settings file %s: %w", path, err)
	}
	return settings, nil
}

func WithSettings(s Settings) Option {
	return func(c *Config) {
		if strings.TrimSpace(s.DataDir) != "" {
			c.Storage.DataDir = s.DataDir
		}
		if strings.TrimSpace(s.TMPath) != "" {
			c.Storage.TMPath = s.TMPath
		}
		if strings.TrimSpace(s.DBPath) != "" {
			c.Storage.DBPath = s.DBPath
		}
		if s.HistoryDays != nil {
			c.Storage.HistoryDays = *s.HistoryDays
		}
		if len(s.Glossaries) > 0 {
			c.Match.Glossaries = s.Glossaries
		}
		if tag, err := language.Parse(s.SourceLang); err == nil {
			c.Match.SourceLanguage = tag
		}
		if tag, err := language.Parse(s.TargetLang); err == nil {
			c.Match.TargetLanguage = tag
		}
		if strings.TrimSpace(s.Marker) != "" {
			c.Match.Marker = s.Marker
		}
		if len(s.SourceDirs) > 0 {
			c.Watch.SourceDirs = s.SourceDirs
		}
		if strings.TrimSpace(s.CronExpr) != "" {
			c.Watch.CronExpr = s.CronExpr
		}
		if strings.TrimSpace(s.LogLevel) != "" {
			c.LogLevel = s.LogLevel
		}
	}
}

// WithGlossaries appends glossary files given on the command line.
func WithGlossaries(paths ...string) Option {
	return func(c *Config) {
		c.Match.Glossaries = append(c.Match.Glossaries, paths...)
	}
}

// WithTMPath overrides the memory log location.
func WithTMPath(path string) Option {
	return func(c *Config) {
		if path != "" {
			c.Storage.TMPath = path
		}
	}
}

// WithMarker overrides the inline marker style.
func WithMarker(marker string) Option {
	return func(c *Config) {
		if marker != "" {
			c.Match.Marker = marker
		}
	}
}
