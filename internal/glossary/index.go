// Package glossary holds the terminology index, the in-segment term
// extractor and the overlap-resolving highlighter.
package glossary

import "slices"

// DefaultPriority is the priority assigned by loaders that have no notion of one.
const DefaultPriority = 1

// Variant is one translation attached to a complete source key.
// Several variants may share a key (synonyms coming from different glossaries).
type Variant struct {
	Target   string
	Origin   string
	Priority int
}

type node struct {
	children map[rune]*node
	terminal bool
	variants []Variant
}

func newNode() *node {
	return &node{children: make(map[rune]*node)}
}

// Index is a character trie mapping source terms to their variants.
// It is not safe for concurrent use while terms are being added.
type Index struct {
	root  *node
	terms int
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{root: newNode()}
}

// AddTerm inserts source as a trie path and attaches a variant to its final node.
// An empty source is ignored.
func (idx *Index) AddTerm(source, target, origin string, priority int) {
	if source == "" {
		return
	}

	n := idx.root
	for _, r := range source {
		child, ok := n.children[r]
		if !ok {
			child = newNode()
			n.children[r] = child
		}
		n = child
	}

	n.terminal = true
	n.variants = append(n.variants, Variant{
		Target:   target,
		Origin:   origin,
		Priority: priority,
	})
	idx.terms++
}

// Len reports how many variants have been added.
func (idx *Index) Len() int {
	return idx.terms
}

// Lookup returns the variants stored for an exact key, or nil.
func (idx *Index) Lookup(source string) []Variant {
	if source == "" {
		return nil
	}
	n := idx.root
	for _, r := range source {
		child, ok := n.children[r]
		if !ok {
			return nil
		}
		n = child
	}
	if !n.terminal {
		return nil
	}
	return slices.Clone(n.variants)
}
