// Package session decides, per segment, between a memory suggestion and
// glossary suggestions.
package session

import (
	"github.com/MimeLyc/localcat/internal/glossary"
	"github.com/MimeLyc/localcat/internal/segment"
	"github.com/MimeLyc/localcat/internal/tm"
)

// Memory is the exact-match lookup the orchestrator consults first.
type Memory interface {
	QueryExact(text string) (tm.Match, bool)
}

// Extractor finds glossary terms in a text.
type Extractor interface {
	Extract(text string) []glossary.Hit
}

type Outcome string

const (
	OutcomeMemory  Outcome = "TM_HIT"
	OutcomeTerms   Outcome = "TERMS"
	OutcomeNoMatch Outcome = "NO_MATCH"
)

// Result is the suggestion produced for one segment. Match is set only for
// OutcomeMemory; Hits and Rendered only when extraction ran.
type Result struct {
	Segment  segment.Segment
	Outcome  Outcome
	Match    *tm.Match
	Hits     []glossary.Hit
	Rendered string
}

type Orchestrator struct {
	memory      Memory
	extractor   Extractor
	highlighter *glossary.Highlighter
}

// NewOrchestrator wires the engines; a nil highlighter uses the bracket marker.
func NewOrchestrator(memory Memory, extractor Extractor, highlighter *glossary.Highlighter) *Orchestrator {
	if highlighter == nil {
		highlighter = glossary.NewHighlighter(nil)
	}
	return &Orchestrator{
		memory:      memory,
		extractor:   extractor,
		highlighter: highlighter,
	}
}

// Process looks the segment up in memory and, only when that misses, runs
// term extraction. A memory hit never comes with glossary hits.
func (o *Orchestrator) Process(seg segment.Segment) Result {
	if m, ok := o.memory.QueryExact(seg.Text); ok {
		return Result{
			Segment: seg,
			Outcome: OutcomeMemory,
			Match:   &m,
		}
	}

	hits := o.extractor.Extract(seg.Text)
	if len(hits) == 0 {
		return Result{
			Segment:  seg,
			Outcome:  OutcomeNoMatch,
			Hits:     hits,
			Rendered: seg.Text,
		}
	}
	return Result{
		Segment:  seg,
		Outcome:  OutcomeTerms,
		Hits:     hits,
		Rendered: o.highlighter.Render(seg.Text, hits),
	}
}

// ProcessAll processes segments in order.
func (o *Orchestrator) ProcessAll(segments []segment.Segment) []Result {
	results := make([]Result, 0, len(segments))
	for _, seg := range segments {
		results = append(results, o.Process(seg))
	}
	return results
}
