package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/MimeLyc/localcat/internal/segment"
	"github.com/MimeLyc/localcat/pkg/file"
	"github.com/MimeLyc/localcat/pkg/log"
)

// initialLookback is how far back the first scan after startup looks.
const initialLookback = 7 * 24 * time.Hour

// Schedule registers the source directory scan on c with the configured
// cron expression. Overlapping triggers share one scan.
func (s *Service) Schedule(ctx context.Context, c *cron.Cron) (cron.EntryID, error) {
	log.Info("Scheduling scan of %v with %q", s.cfg.Watch.SourceDirs, s.cfg.Watch.CronExpr)
	return c.AddFunc(s.cfg.Watch.CronExpr, func() {
		if _, err := s.Scan(ctx); err != nil {
			log.Error("Scheduled scan failed: %v", err)
		}
	})
}

// Scan processes the PO/SRT files under the source directories modified since
// the previous scan. It returns nil when nothing changed.
func (s *Service) Scan(ctx context.Context) (*RunSummary, error) {
	v, err, shared := s.scanGroup.Do("scan", func() (any, error) {
		return s.scan(ctx)
	})
	if shared {
		log.Debug("Joined a scan already in progress")
	}
	if err != nil {
		return nil, err
	}
	return v.(*RunSummary), nil
}

func (s *Service) scan(ctx context.Context) (*RunSummary, error) {
	triggeredAt := s.now()
	since := s.startTime(triggeredAt)
	log.Info("Scanning for source files modified after %v", since)

	var paths []string
	for _, dir := range s.cfg.Watch.SourceDirs {
		found, err := file.FindRecentAfter(dir, since, segment.Supported)
		if err != nil {
			log.Error("Failed to scan dir %s: %v", dir, err)
			continue
		}
		log.Info("Found %d changed source files in %s", len(found), dir)
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		s.markTriggered(triggeredAt)
		return nil, nil
	}

	summary, err := s.RunFiles(ctx, paths)
	if err != nil {
		return nil, fmt.Errorf("run changed files: %w", err)
	}
	s.markTriggered(triggeredAt)
	return &summary, nil
}

func (s *Service) startTime(now time.Time) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastTrigger.IsZero() {
		return now.Add(-initialLookback)
	}
	return s.lastTrigger
}

func (s *Service) markTriggered(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastTrigger = at
}
