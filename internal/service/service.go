// Package service runs the matching core over whole files: it bootstraps the
// glossary and memory from configuration, processes PO/SRT sources, writes
// reports and keeps the run history.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fatih/color"
	"golang.org/x/sync/singleflight"

	"github.com/MimeLyc/localcat/internal/config"
	"github.com/MimeLyc/localcat/internal/glossary"
	"github.com/MimeLyc/localcat/internal/persistence"
	"github.com/MimeLyc/localcat/internal/segment"
	"github.com/MimeLyc/localcat/internal/session"
	"github.com/MimeLyc/localcat/internal/tm"
	"github.com/MimeLyc/localcat/pkg/file"
	"github.com/MimeLyc/localcat/pkg/log"
)

// Service is safe for concurrent use; file runs, queries and saves are
// serialised on one lock.
type Service struct {
	cfg *config.Config

	mu        sync.Mutex
	index     *glossary.Index
	loader    *glossary.Loader
	memory    *tm.Store
	history   *persistence.HistoryStore
	batch     *session.Orchestrator
	terminal  *session.Orchestrator
	termMaps  map[string]bool
	scanGroup singleflight.Group

	lastTrigger time.Time
	now         func() time.Time
}

// FileReport is the outcome of one source file within a run.
type FileReport struct {
	Path       string
	ReportPath string
	Results    []session.Result
}

// RunSummary describes a finished RunFiles call.
type RunSummary struct {
	RunID  string
	Files  []FileReport
	Counts persistence.OutcomeCounts
}

// Segments is the number of segments processed across all files.
func (s RunSummary) Segments() int {
	n := 0
	for _, f := range s.Files {
		n += len(f.Results)
	}
	return n
}

// RunOverview pairs a stored run with its outcome tally.
type RunOverview struct {
	persistence.Run
	Counts persistence.OutcomeCounts
}

// New loads the configured glossaries, replays the memory log and opens the
// run history database.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	if cfg == nil {
		return nil, NewError(ErrConfig, "configuration is required")
	}

	index := glossary.NewIndex()
	loader := glossary.NewLoader(index)
	terms, err := loader.LoadFiles(ctx, cfg.Match.Glossaries)
	if err != nil {
		return nil, ClassifyFileError(err, "load glossaries").
			WithContext("glossaries", cfg.Match.Glossaries)
	}
	log.Info("Loaded %d glossary terms from %d files", terms, len(cfg.Match.Glossaries))

	memory, err := tm.Open(cfg.TMPath())
	if err != nil {
		return nil, WrapError(err, ErrStorage, "open translation memory").WithContext("path", cfg.TMPath())
	}

	history, err := persistence.NewHistoryStore(cfg.DBPath())
	if err != nil {
		return nil, WrapError(err, ErrStorage, "open run history").WithContext("path", cfg.DBPath())
	}

	return &Service{
		cfg:      cfg,
		index:    index,
		loader:   loader,
		memory:   memory,
		history:  history,
		batch:    session.NewOrchestrator(memory, index, glossary.NewHighlighter(glossary.BracketRenderer{})),
		terminal: session.NewOrchestrator(memory, index, glossary.NewHighlighter(rendererFor(cfg.Match.Marker))),
		termMaps: make(map[string]bool),
		now:      time.Now,
	}, nil
}

func rendererFor(marker string) glossary.Renderer {
	if marker == config.MarkerColor {
		return glossary.NewColorRenderer(!color.NoColor)
	}
	return glossary.BracketRenderer{}
}

func (s *Service) Close() error {
	return s.history.Close()
}

// Terms is the number of glossary variants loaded so far.
func (s *Service) Terms() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Len()
}

// Query runs a single text through the orchestrator using the configured
// terminal marker.
func (s *Service) Query(text string) session.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminal.Process(segment.Segment{Text: text})
}

// Lookup is Query with the bracket marker used in reports.
func (s *Service) Lookup(text string) session.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batch.Process(segment.Segment{Text: text})
}

// Save records a confirmed translation in the memory.
func (s *Service) Save(seg segment.Segment, target string) (tm.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.memory.Save(seg, target)
	if errors.Is(err, tm.ErrEmptyInput) {
		return tm.Match{}, WrapError(err, ErrValidation, "save translation")
	}
	if err != nil {
		return tm.Match{}, WrapError(err, ErrStorage, "save translation").WithContext("path", s.memory.Path())
	}
	return m, nil
}

// RunFiles reads every path, processes its segments and writes a report next
// to it. All files are read before anything is recorded, so a missing or
// unsupported file fails the whole call without side effects. A later storage
// or report failure removes the run and the reports already written.
func (s *Service) RunFiles(ctx context.Context, paths []string) (RunSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(paths) == 0 {
		return RunSummary{}, NewError(ErrValidation, "no source files given")
	}

	sources := make([][]segment.Segment, len(paths))
	for i, path := range paths {
		segments, err := readSegments(path)
		if err != nil {
			return RunSummary{}, err
		}
		sources[i] = segments
	}

	run, err := s.history.CreateRun(ctx, paths)
	if err != nil {
		return RunSummary{}, WrapError(err, ErrStorage, "create run")
	}
	summary := RunSummary{RunID: run.ID, Counts: make(persistence.OutcomeCounts)}

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			s.discardRun(ctx, summary)
			return RunSummary{}, err
		}
		s.loadTermMapFor(path)

		results := s.batch.ProcessAll(sources[i])
		if err := s.history.RecordResults(ctx, run.ID, results); err != nil {
			s.discardRun(ctx, summary)
			return RunSummary{}, WrapError(err, ErrStorage, "record results").WithContext("file", path)
		}

		report := FileReport{
			Path:       path,
			ReportPath: file.ReplaceExt(path, ".report.txt"),
			Results:    results,
		}
		if err := writeReport(report, run.ID); err != nil {
			s.discardRun(ctx, summary)
			return RunSummary{}, WrapError(err, ErrFileWrite, "write report").WithContext("file", report.ReportPath)
		}
		for _, res := range results {
			summary.Counts[res.Outcome]++
		}
		summary.Files = append(summary.Files, report)
		log.Info("Processed %s: %d segments, report %s", path, len(results), report.ReportPath)
	}

	s.pruneHistory(ctx)
	return summary, nil
}

// discardRun undoes a run that failed part way.
func (s *Service) discardRun(ctx context.Context, summary RunSummary) {
	ctx = context.WithoutCancel(ctx)
	if err := s.history.DeleteRun(ctx, summary.RunID); err != nil {
		log.Warn("Failed to remove incomplete run %s: %v", summary.RunID, err)
	}
	for _, report := range summary.Files {
		if err := os.Remove(report.ReportPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("Failed to remove report %s: %v", report.ReportPath, err)
		}
	}
}

func readSegments(path string) ([]segment.Segment, error) {
	reader, err := segment.ReaderFor(path)
	if err != nil {
		return nil, ClassifyFileError(err, "read source").WithContext("file", path)
	}
	segments, err := reader.Read(path)
	if err != nil {
		return nil, ClassifyFileError(err, "read source").WithContext("file", path)
	}
	return segments, nil
}

// loadTermMapFor adds the term map closest to path, once per term map file.
func (s *Service) loadTermMapFor(path string) {
	found := glossary.FindTermMapInAncestors(
		filepath.Dir(path),
		s.cfg.Match.SourceLanguage.String(),
		s.cfg.Match.TargetLanguage.String(),
	)
	if found == "" || s.termMaps[found] {
		return
	}
	s.termMaps[found] = true

	n, err := s.loader.LoadFile(found)
	if err != nil {
		log.Warn("Failed to load term map %s: %v", found, err)
		return
	}
	log.Info("Loaded %d terms from term map %s", n, found)
}

func (s *Service) pruneHistory(ctx context.Context) {
	days := s.cfg.Storage.HistoryDays
	if days <= 0 {
		return
	}
	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	deleted, err := s.history.DeleteRunsBefore(ctx, cutoff)
	if err != nil {
		log.Warn("Failed to prune run history: %v", err)
		return
	}
	if deleted > 0 {
		log.Info("Pruned %d runs older than %d days", deleted, days)
	}
}

// History lists the most recent runs with their outcome counts.
func (s *Service) History(ctx context.Context, limit int) ([]RunOverview, error) {
	runs, err := s.history.ListRuns(ctx, limit)
	if err != nil {
		return nil, WrapError(err, ErrStorage, "list runs")
	}
	ret := make([]RunOverview, 0, len(runs))
	for _, run := range runs {
		counts, err := s.history.CountOutcomes(ctx, run.ID)
		if err != nil {
			return nil, WrapError(err, ErrStorage, "count outcomes").WithContext("run", run.ID)
		}
		ret = append(ret, RunOverview{Run: run, Counts: counts})
	}
	return ret, nil
}

// ClassifyFileError maps a file system error onto the matching ErrorType.
func ClassifyFileError(err error, message string) *CATError {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return WrapError(err, ErrFileNotFound, message)
	case errors.Is(err, segment.ErrUnsupportedFormat), errors.Is(err, glossary.ErrUnsupportedFormat):
		return WrapError(err, ErrParse, message)
	default:
		return WrapError(err, ErrFileRead, fmt.Sprintf("%s failed", message))
	}
}
