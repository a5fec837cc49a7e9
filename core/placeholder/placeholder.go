// Package placeholder implements the bidirectional mapping between
// SDLXLIFF inline formatting markup and the compact placeholder text
// notation used for agent-authored edits, plus the structural validator
// that guards proposed edits against tag loss.
//
// Notation:
//
//	<g id="5">…</g>, <it id="5">…</it>  →  {5}…{/5}
//	<x id="5"/>, <bx/>, <ex/>, <ph/>    →  {x:5}
//	<bpt id="5">…</bpt>                 →  {5}
//	<ept id="5">…</ept>                 →  {/5}
//
// Brace runs that do not match a recognized token form are literal text.
// All functions are pure; nothing in this package holds state.
package placeholder

import (
	"sort"
	"strconv"

	"github.com/antchfx/xmlquery"
)

// Kind classifies an inline tag by how it appears in markup and which
// placeholder tokens it requires. The switches over Kind in this package
// are exhaustive; adding a Kind means revisiting every one of them.
type Kind int

const (
	// KindPaired is a single element wrapping content: <g>, <it>.
	// Requires {N} and {/N}, properly nested.
	KindPaired Kind = iota
	// KindSelfClosing is a standalone marker: <x/>, <bx/>, <ex/>, <ph/>.
	// Requires {x:N}.
	KindSelfClosing
	// KindSplit is a <bpt>/<ept> pair sharing an id within the segment.
	// Requires {N} and {/N}; the pair may cross other split pairs.
	KindSplit
	// KindBeginOnly is a <bpt> whose <ept> lives in another segment.
	// Requires {N} only.
	KindBeginOnly
	// KindEndOnly is an <ept> whose <bpt> lives in another segment.
	// Requires {/N} only.
	KindEndOnly
)

// String returns a stable name for the kind, used in error messages.
func (k Kind) String() string {
	switch k {
	case KindPaired:
		return "paired"
	case KindSelfClosing:
		return "self-closing"
	case KindSplit:
		return "split-pair"
	case KindBeginOnly:
		return "begin-only"
	case KindEndOnly:
		return "end-only"
	}
	return "unknown"
}

// Tag is one inline formatting marker owned by a segment.
type Tag struct {
	ID   string
	Kind Kind
	// Elem is a detached clone of the original element: shallow for
	// KindPaired (content is rebuilt from the proposal), deep otherwise.
	Elem *xmlquery.Node
	// End is the deep clone of the <ept> element for KindSplit.
	End *xmlquery.Node
}

// TagSet indexes a segment's tags by id.
type TagSet map[string]*Tag

// IDs returns the tag ids sorted numerically where possible.
func (ts TagSet) IDs() []string {
	ids := make([]string, 0, len(ts))
	for id := range ts {
		ids = append(ids, id)
	}
	SortIDs(ids)
	return ids
}

// SortIDs orders tag ids numerically, falling back to lexicographic
// order for non-numeric ids.
func SortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		a, aerr := strconv.Atoi(ids[i])
		b, berr := strconv.Atoi(ids[j])
		if aerr == nil && berr == nil {
			return a < b
		}
		if aerr == nil {
			return true
		}
		if berr == nil {
			return false
		}
		return ids[i] < ids[j]
	})
}

// Encoded is the result of encoding a markup fragment.
type Encoded struct {
	// Placeholder is the tag-inclusive notation.
	Placeholder string
	// Clean is the plain text with all markup stripped.
	Clean string
	// Tags is the fragment's tag set, keyed by id.
	Tags TagSet
}

// HasTags reports whether the fragment carried any inline tags.
func (e Encoded) HasTags() bool {
	return len(e.Tags) > 0
}
