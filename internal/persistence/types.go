package persistence

import (
	"time"

	"github.com/MimeLyc/localcat/internal/glossary"
	"github.com/MimeLyc/localcat/internal/session"
)

// Run is one batch pass over a set of source files.
type Run struct {
	ID        string
	Sources   []string
	StartedAt time.Time
}

// ResultRow is the stored form of one processed segment.
type ResultRow struct {
	RunID        string
	Seq          int
	SegmentID    string
	OriginFile   string
	SourceText   string
	Outcome      session.Outcome
	MemoryTarget string
	Rendered     string
	Hits         []glossary.Hit
	ProcessedAt  time.Time
}

// OutcomeCounts tallies results of a run by outcome.
type OutcomeCounts map[session.Outcome]int
