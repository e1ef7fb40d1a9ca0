package glossary

import (
	"slices"
	"strings"

	"github.com/fatih/color"
)

// Renderer formats one accepted hit as an inline marker.
type Renderer interface {
	Mark(hit Hit) string
}

// BracketRenderer renders hits as [source|target].
type BracketRenderer struct{}

func (BracketRenderer) Mark(hit Hit) string {
	return "[" + hit.Source + "|" + hit.Target + "]"
}

// ColorRenderer renders hits for a terminal: the matched span followed by the
// target in parentheses, each with its own colour.
type ColorRenderer struct {
	source *color.Color
	target *color.Color
}

// NewColorRenderer creates a terminal renderer. With enabled=false the output
// carries no escape sequences.
func NewColorRenderer(enabled bool) *ColorRenderer {
	r := &ColorRenderer{
		source: color.New(color.Bold, color.FgYellow),
		target: color.New(color.FgHiGreen),
	}
	if !enabled {
		r.source.DisableColor()
		r.target.DisableColor()
	} else {
		r.source.EnableColor()
		r.target.EnableColor()
	}
	return r
}

func (r *ColorRenderer) Mark(hit Hit) string {
	return r.source.Sprint(hit.Source) + r.target.Sprint("("+hit.Target+")")
}

// Highlighter resolves overlapping hits and renders the survivors inline.
type Highlighter struct {
	renderer Renderer
}

// NewHighlighter creates a highlighter; a nil renderer means BracketRenderer.
func NewHighlighter(r Renderer) *Highlighter {
	if r == nil {
		r = BracketRenderer{}
	}
	return &Highlighter{renderer: r}
}

// Select picks a non-overlapping subset of hits, greedily and longest first:
// candidates are tried by span length descending, then start ascending, and a
// hit is kept only if none of its positions is already taken. Priority is
// ignored. The result is ordered by start. Hits whose span does not fit a text
// of textLen runes are discarded.
func (h *Highlighter) Select(textLen int, hits []Hit) []Hit {
	if len(hits) == 0 || textLen <= 0 {
		return nil
	}

	candidates := slices.Clone(hits)
	slices.SortStableFunc(candidates, func(a, b Hit) int {
		if a.Len() != b.Len() {
			return b.Len() - a.Len()
		}
		return a.Start - b.Start
	})

	occupied := make([]bool, textLen)
	accepted := make([]Hit, 0, len(candidates))
	for _, hit := range candidates {
		if hit.Start < 0 || hit.End > textLen || hit.End <= hit.Start {
			continue
		}
		free := true
		for i := hit.Start; i < hit.End; i++ {
			if occupied[i] {
				free = false
				break
			}
		}
		if !free {
			continue
		}
		for i := hit.Start; i < hit.End; i++ {
			occupied[i] = true
		}
		accepted = append(accepted, hit)
	}

	slices.SortStableFunc(accepted, func(a, b Hit) int {
		return a.Start - b.Start
	})
	return accepted
}

// Render returns text with every selected hit replaced by its marker.
// Characters outside selected hits are copied verbatim.
func (h *Highlighter) Render(text string, hits []Hit) string {
	if len(hits) == 0 {
		return text
	}

	runes := []rune(text)
	selected := h.Select(len(runes), hits)

	var sb strings.Builder
	cursor := 0
	for _, hit := range selected {
		sb.WriteString(string(runes[cursor:hit.Start]))
		sb.WriteString(h.renderer.Mark(hit))
		cursor = hit.End
	}
	sb.WriteString(string(runes[cursor:]))
	return sb.String()
}
