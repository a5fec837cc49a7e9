// Package sdlxliff maintains an SDLXLIFF bilingual document as a
// collection of addressable segments: parsing, paginated listing,
// validated editing through an in-memory overlay, and byte-stable
// re-serialization.
//
// The parsed tree is treated as immutable between parse and save. All
// accepted edits live in the overlay (segment id → PendingEdit) and are
// spliced into the tree only at serialization time, so concurrent reads
// of segment views never observe a half-applied edit.
//
// One Document is single-caller: operations on the same Document must
// be invoked sequentially. Distinct Documents share no state.
package sdlxliff

import (
	"github.com/antchfx/xmlquery"

	"github.com/lingtools/xliffd/core/errors"
	"github.com/lingtools/xliffd/core/placeholder"
)

// MaxSegmentTextSize caps a single proposed target text (100 KB);
// segments are typically far smaller.
const MaxSegmentTextSize = 100 * 1024

// Document is an open SDLXLIFF file: the parsed tree, the segment
// index, and the overlay of pending edits.
type Document struct {
	path string

	root *xmlquery.Node // document node, declaration included
	bom  bool

	sourceLanguage string
	targetLanguage string

	units    []*TranslationUnit
	segments []*Segment // document order, stable across reads
	index    map[string]*Segment

	overlay     map[string]*PendingEdit
	fingerprint string // blake3 hex of the source bytes
}

// TranslationUnit is a structural grouping of segments sharing
// surrounding context. Units are read-only; only their segments are
// edited.
type TranslationUnit struct {
	ID       string
	Segments []*Segment

	node *xmlquery.Node
}

// Segment is the atomic editable entity. The exported view of a
// segment (overlay applied) is SegmentView; this struct is the parsed
// original.
type Segment struct {
	ID     string // mrk mid, unique within the document
	UnitID string

	source placeholder.Encoded
	target placeholder.Encoded
	status Status
	locked bool

	targetMrk *xmlquery.Node // segment content element in the tree; nil if the unit has no target
	sdlSeg    *xmlquery.Node // sdl:seg carrying conf/locked; nil when seg-defs is absent
}

// HasTags reports whether the segment's original markup (source or
// target side) contains at least one inline formatting tag.
func (s *Segment) HasTags() bool {
	return s.source.HasTags() || s.target.HasTags()
}

// TargetTags returns the tag set proposals are validated against.
func (s *Segment) TargetTags() placeholder.TagSet {
	return s.target.Tags
}

// PendingEdit is one overlay entry. It is created only by a passed
// validation, consumed on save, and never partially applied.
type PendingEdit struct {
	SegmentID   string
	TextChanged bool
	Clean       string
	Placeholder string
	// Fragment is the decoded markup from the validator's successful
	// decode, reused verbatim at save time rather than re-derived.
	Fragment []*xmlquery.Node
	Status   Status
}

// SegmentView is the agent-consumable JSON shape of a segment with the
// overlay applied. Placeholder fields are present only for segments
// that carry tags.
type SegmentView struct {
	SegmentID    string `json:"segment_id"`
	UnitID       string `json:"trans_unit_id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceTagged string `json:"source_tagged,omitempty"`
	TargetTagged string `json:"target_tagged,omitempty"`
	HasTags      bool   `json:"has_tags"`
	Status       string `json:"status"`
	Locked       bool   `json:"locked"`
	Pending      bool   `json:"pending,omitempty"`
}

// Path returns the file path the document was opened from.
func (d *Document) Path() string { return d.path }

// Fingerprint returns the blake3 hex digest of the bytes the document
// was parsed from (updated after an in-place save).
func (d *Document) Fingerprint() string { return d.fingerprint }

// SourceLanguage returns the file-level source language code.
func (d *Document) SourceLanguage() string { return d.sourceLanguage }

// TargetLanguage returns the file-level target language code.
func (d *Document) TargetLanguage() string { return d.targetLanguage }

// Units returns the translation units in document order.
func (d *Document) Units() []*TranslationUnit { return d.units }

// Len returns the number of segments.
func (d *Document) Len() int { return len(d.segments) }

// HasPendingEdits reports whether the overlay is non-empty.
func (d *Document) HasPendingEdits() bool { return len(d.overlay) > 0 }

// segment returns the parsed segment for id.
func (d *Document) segment(id string) (*Segment, error) {
	seg, ok := d.index[id]
	if !ok {
		return nil, errors.NewNotFound("segment", id)
	}
	return seg, nil
}

// view builds the overlay-reflecting view of a segment.
func (d *Document) view(seg *Segment, includeTags bool) SegmentView {
	v := SegmentView{
		SegmentID: seg.ID,
		UnitID:    seg.UnitID,
		Source:    seg.source.Clean,
		Target:    seg.target.Clean,
		HasTags:   seg.HasTags(),
		Status:    string(seg.status),
		Locked:    seg.locked,
	}
	if includeTags && v.HasTags {
		v.SourceTagged = seg.source.Placeholder
		v.TargetTagged = seg.target.Placeholder
	}
	if pe, ok := d.overlay[seg.ID]; ok {
		v.Pending = true
		v.Status = string(pe.Status)
		if pe.TextChanged {
			v.Target = pe.Clean
			if includeTags && v.HasTags {
				v.TargetTagged = pe.Placeholder
			}
		}
	}
	return v
}
