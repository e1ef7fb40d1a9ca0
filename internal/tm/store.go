// Package tm is the translation memory: an append-only JSONL log replayed into
// an in-memory exact-match index.
package tm

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/MimeLyc/localcat/internal/segment"
	"github.com/MimeLyc/localcat/pkg/log"
)

// ErrEmptyInput is returned by Save when the segment text or the target is empty.
var ErrEmptyInput = errors.New("source text and target are required")

// LoadStats describes the replay done by Open.
type LoadStats struct {
	Records int
	Skipped int
}

// Store is not safe for concurrent use; callers with several writers must
// serialise Save themselves.
type Store struct {
	path   string
	origin string
	index  map[string]Match
	stats  LoadStats
	now    func() time.Time

	// unterminated is set when the log ends without a newline, as an
	// interrupted append leaves it.
	unterminated bool
}

type Option func(*Store)

// WithClock overrides the clock used for last_used timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open builds a store over the log at path. A missing log gives an empty
// store. Malformed lines are skipped with a warning; for duplicated sources
// the last line in the file wins.
func Open(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("memory log path is required")
	}

	s := &Store{
		path:   path,
		origin: filepath.Base(path),
		index:  make(map[string]Match),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	file, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Debug("Memory log %s does not exist yet, starting empty", s.path)
			return nil
		}
		return fmt.Errorf("open memory log: %w", err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	lineNo := 0
	for {
		raw, readErr := reader.ReadBytes('\n')
		if len(raw) > 0 {
			lineNo++
			s.replay(lineNo, bytes.TrimSpace(raw))
			s.unterminated = raw[len(raw)-1] != '\n'
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("read memory log %s: %w", s.path, readErr)
		}
	}

	log.Info("Loaded %d memory records from %s (%d skipped)", s.stats.Records, s.path, s.stats.Skipped)
	return nil
}

func (s *Store) replay(lineNo int, line []byte) {
	if len(line) == 0 {
		return
	}
	rec, err := decodeRecord(line)
	if err != nil {
		s.stats.Skipped++
		log.Warn("Skipping invalid line %d in %s: %v", lineNo, s.path, err)
		return
	}
	if rec.Source == "" {
		s.stats.Skipped++
		return
	}
	s.stats.Records++
	s.index[rec.Source] = s.matchFrom(rec)
}

func (s *Store) matchFrom(rec Record) Match {
	return Match{
		Source:     rec.Source,
		Target:     rec.Target,
		Similarity: 1.0,
		Kind:       MatchExact,
		Origin:     s.origin,
		UsageCount: rec.UsageCount,
		LastUsed:   rec.LastUsed,
	}
}

// QueryExact looks up a byte-identical source text.
func (s *Store) QueryExact(text string) (Match, bool) {
	m, ok := s.index[text]
	return m, ok
}

// Save appends a record for seg and makes it visible to QueryExact at once.
// With an empty text or target nothing is written and ErrEmptyInput is returned.
func (s *Store) Save(seg segment.Segment, target string) (Match, error) {
	if seg.Text == "" || target == "" {
		return Match{}, ErrEmptyInput
	}

	rec := Record{
		Source:      seg.Text,
		Target:      target,
		ContextPrev: optional(seg.ContextBefore),
		ContextNext: optional(seg.ContextAfter),
		Speaker:     optional(seg.Speaker),
		FileSource:  seg.OriginFile,
		LastUsed:    s.now().UTC().Format(TimestampLayout),
		UsageCount:  1,
	}
	line, err := encodeRecord(rec)
	if err != nil {
		return Match{}, fmt.Errorf("encode memory record: %w", err)
	}
	if err := s.appendLine(line); err != nil {
		return Match{}, err
	}

	m := s.matchFrom(rec)
	s.index[rec.Source] = m
	return m, nil
}

func (s *Store) appendLine(line []byte) (err error) {
	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create memory log directory: %w", err)
		}
	}

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open memory log for append: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close memory log: %w", cerr)
		}
	}()

	if s.unterminated {
		line = append([]byte{'\n'}, line...)
	}
	if _, err := file.Write(line); err != nil {
		return fmt.Errorf("append memory record: %w", err)
	}
	s.unterminated = false
	return nil
}

// Len is the number of distinct source texts.
func (s *Store) Len() int {
	return len(s.index)
}

// Stats reports what Open replayed.
func (s *Store) Stats() LoadStats {
	return s.stats
}

func (s *Store) Path() string {
	return s.path
}
