package glossary

import "slices"

// Hit is one occurrence of an indexed term inside a text.
// Start and End are rune offsets, End exclusive.
type Hit struct {
	Source   string
	Target   string
	Start    int
	End      int
	Origin   string
	Priority int
}

// Len is the span length in runes.
func (h Hit) Len() int {
	return h.End - h.Start
}

// Extract returns every occurrence of every indexed term in text, including
// overlapping and nested ones. One hit is produced per variant.
//
// Hits are ordered by start ascending, then span length descending; hits with
// an identical span keep the order their variants were added in.
func (idx *Index) Extract(text string) []Hit {
	runes := []rune(text)
	hits := make([]Hit, 0)

	for i := range runes {
		n := idx.root
		for j := i; j < len(runes); j++ {
			child, ok := n.children[runes[j]]
			if !ok {
				break
			}
			n = child
			if !n.terminal {
				continue
			}
			span := string(runes[i : j+1])
			for _, v := range n.variants {
				hits = append(hits, Hit{
					Source:   span,
					Target:   v.Target,
					Start:    i,
					End:      j + 1,
					Origin:   v.Origin,
					Priority: v.Priority,
				})
			}
		}
	}

	slices.SortStableFunc(hits, func(a, b Hit) int {
		if a.Start != b.Start {
			return a.Start - b.Start
		}
		return b.Len() - a.Len()
	})
	return hits
}
