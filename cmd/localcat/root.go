package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/MimeLyc/localcat/internal/config"
	"github.com/MimeLyc/localcat/internal/service"
	"github.com/MimeLyc/localcat/pkg/log"
)

var (
	settingsPath  string
	glossaryPaths []string
	tmPath        string
	marker        string
	logLevel      string
	logFile       string
)

var fileLogger *log.FileLogger

var rootCmd = &cobra.Command{
	Use:   "localcat",
	Short: "localcat - offline translation memory and terminology lookup",
	Long: `localcat suggests translations for PO and SRT segments.

An exact translation memory hit is offered first; otherwise glossary terms
found in the segment are highlighted inline.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if fileLogger == nil {
			return nil
		}
		err := fileLogger.Close()
		fileLogger = nil
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "YAML settings file")
	rootCmd.PersistentFlags().StringSliceVarP(&glossaryPaths, "glossary", "g", nil, "Glossary file (.csv, .tsv, .xlsx, .json), repeatable")
	rootCmd.PersistentFlags().StringVar(&tmPath, "tm", "", "Translation memory log (default <data dir>/tm.jsonl)")
	rootCmd.PersistentFlags().StringVar(&marker, "marker", "", "Inline marker style: bracket, color")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr")

	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig layers the settings file and flags over the environment.
func loadConfig() (*config.Config, error) {
	var opts []config.Option
	if settingsPath != "" {
		settings, err := config.LoadSettingsFile(settingsPath)
		if err != nil {
			return nil, service.WrapError(err, service.ErrConfig, "load settings file").WithContext("path", settingsPath)
		}
		opts = append(opts, config.WithSettings(settings))
	}
	if len(glossaryPaths) > 0 {
		opts = append(opts, config.WithGlossaries(glossaryPaths...))
	}
	if tmPath != "" {
		opts = append(opts, config.WithTMPath(tmPath))
	}
	if marker != "" {
		opts = append(opts, config.WithMarker(marker))
	}

	cfg, err := config.NewFromEnv(opts...)
	if err != nil {
		return nil, service.WrapError(err, service.ErrConfig, "invalid configuration")
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

func setupLogging(cmd *cobra.Command, cfg *config.Config) error {
	level := log.ParseLevel(cfg.LogLevel)
	if logFile == "" {
		log.InitLogger(level)
		log.GetLogger().SetOutput(cmd.ErrOrStderr())
		return nil
	}

	fl, err := log.NewFileLogger(logFile, level)
	if err != nil {
		return service.WrapError(err, service.ErrFileWrite, "open log file").WithContext("path", logFile)
	}
	fileLogger = fl
	log.SetGlobal(fl.Logger)
	return nil
}

// openService loads configuration, sets up logging and bootstraps the service.
func openService(cmd *cobra.Command) (*service.Service, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := setupLogging(cmd, cfg); err != nil {
		return nil, nil, err
	}
	svc, err := service.New(commandContext(cmd), cfg)
	if err != nil {
		return nil, nil, err
	}
	return svc, cfg, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
