package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/MimeLyc/localcat/internal/segment"
	"github.com/MimeLyc/localcat/internal/service"
	"github.com/MimeLyc/localcat/internal/watcher"
	"github.com/MimeLyc/localcat/pkg/icron"
	"github.com/MimeLyc/localcat/pkg/log"
)

var (
	watchNow    bool
	watchNotify bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Periodically process changed PO/SRT files in the source directories",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchNow, "now", false, "Scan once immediately before waiting for the schedule")
	watchCmd.Flags().BoolVar(&watchNotify, "notify", false, "Also process files as soon as they are saved")
}

func runWatch(cmd *cobra.Command, args []string) error {
	svc, cfg, err := openService(cmd)
	if err != nil {
		return err
	}
	defer svc.Close()

	if len(cfg.Watch.SourceDirs) == 0 {
		return service.NewError(service.ErrConfig, "no source directories configured (LOCALCAT_SOURCE_DIRS)")
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watchNow {
		if summary, err := svc.Scan(ctx); err != nil {
			log.Error("Initial scan failed: %v", err)
		} else if summary != nil {
			printSummary(cmd, *summary)
		}
	}

	c := cron.New()
	if _, err := svc.Schedule(ctx, c); err != nil {
		return service.WrapError(err, service.ErrConfig, "schedule scan")
	}

	if info, err := icron.GetTriggerInfo(cfg.Watch.CronExpr, time.Now()); err == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Watching %v, next scan at %s (in %s)\n",
			cfg.Watch.SourceDirs, info.Next.Format(time.DateTime), info.TimeUntilNext.Round(time.Second))
	}

	if watchNotify {
		w, err := startNotify(ctx, svc, cfg.Watch.SourceDirs)
		if err != nil {
			return err
		}
		defer w.Stop()
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	log.Info("Watch stopped")
	return nil
}

// startNotify runs every saved PO/SRT file through the service right away.
func startNotify(ctx context.Context, svc *service.Service, dirs []string) (*watcher.Watcher, error) {
	onChange := func(path string) {
		if _, err := svc.RunFiles(ctx, []string{path}); err != nil {
			log.Error("Failed to process %s: %v", path, err)
		}
	}
	w, err := watcher.New(segment.Supported, onChange)
	if err != nil {
		return nil, service.WrapError(err, service.ErrConfig, "start file watcher")
	}
	for _, dir := range dirs {
		if err := w.Watch(dir); err != nil {
			_ = w.Stop()
			return nil, service.ClassifyFileError(err, "watch source dir").WithContext("dir", dir)
		}
	}
	return w, nil
}
