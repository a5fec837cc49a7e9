package sdlxliff

import (
	"github.com/antchfx/xmlquery"

	"github.com/lingtools/xliffd/core/errors"
	"github.com/lingtools/xliffd/core/placeholder"
	"github.com/lingtools/xliffd/internal/logging"
)

// MaxPageSize caps List responses so a single call cannot blow up an
// agent's context window. Callers paginate with offset.
const MaxPageSize = 50

// Page is one window of the segment sequence in document order.
type Page struct {
	Total    int           `json:"total_segments"`
	Offset   int           `json:"offset"`
	Count    int           `json:"count"`
	HasMore  bool          `json:"has_more"`
	Segments []SegmentView `json:"segments"`
}

// List returns segments [offset, offset+limit) in document order.
// limit values outside 1..MaxPageSize are clamped to MaxPageSize; a
// negative offset is treated as 0. The order is established at parse
// time and never re-sorted.
func (d *Document) List(offset, limit int, includeTags bool) Page {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}

	total := len(d.segments)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	views := make([]SegmentView, 0, end-offset)
	for _, seg := range d.segments[offset:end] {
		views = append(views, d.view(seg, includeTags))
	}

	return Page{
		Total:    total,
		Offset:   offset,
		Count:    len(views),
		HasMore:  end < total,
		Segments: views,
	}
}

// Get returns a single segment view. Tagged segments always include
// their placeholder fields.
func (d *Document) Get(id string) (SegmentView, error) {
	seg, err := d.segment(id)
	if err != nil {
		return SegmentView{}, err
	}
	return d.view(seg, true), nil
}

// Validate checks a proposed target text against a segment's original
// tag set without changing any state.
func (d *Document) Validate(id, proposal string) (placeholder.Result, error) {
	seg, err := d.segment(id)
	if err != nil {
		return placeholder.Result{}, err
	}
	return placeholder.Validate(seg.target.Tags, seg.target.Placeholder, proposal), nil
}

// EditOptions alters ProposeEdit behavior.
type EditOptions struct {
	// StripTags accepts a plain-text proposal for a tagged segment,
	// deliberately discarding the segment's inline formatting.
	StripTags bool
}

// ProposeEdit validates newText against the segment's original tag set
// and, on success, records a PendingEdit in the overlay and returns the
// updated view. The edit is not written to disk until Save.
//
// Any accepted text edit forces the status to RejectedTranslation, no
// matter what the segment's status was: an automated correction must
// never masquerade as a reviewed translation.
//
// Locked segments are not rejected here; locking is informational
// metadata and honoring it is the caller's decision.
func (d *Document) ProposeEdit(id, newText string, opts EditOptions) (SegmentView, placeholder.Result, error) {
	seg, err := d.segment(id)
	if err != nil {
		return SegmentView{}, placeholder.Result{}, err
	}
	if seg.targetMrk == nil {
		return SegmentView{}, placeholder.Result{}, errors.NewUnsupported(
			"edit", "segment "+id+" has no target element")
	}
	if len(newText) > MaxSegmentTextSize {
		return SegmentView{}, placeholder.Result{}, errors.Wrapf(errors.ErrInvalidInput,
			"target text too large: %d bytes (max %d)", len(newText), MaxSegmentTextSize)
	}

	pe := &PendingEdit{
		SegmentID:   id,
		TextChanged: true,
		Status:      StatusRejectedTranslation,
	}

	switch {
	case seg.target.HasTags() && !opts.StripTags:
		result := placeholder.Validate(seg.target.Tags, seg.target.Placeholder, newText)
		if !result.Valid {
			return SegmentView{}, result, &errors.ValidationError{
				SegmentID: id,
				Messages:  result.Errors,
			}
		}
		fragment, err := placeholder.Decode(newText, seg.target.Tags)
		if err != nil {
			// Validate passed, so a decode failure is a codec bug; still
			// surfaced as a structured error rather than committed.
			return SegmentView{}, result, err
		}
		pe.Placeholder = newText
		pe.Clean = placeholder.StripTokens(newText)
		pe.Fragment = fragment
		d.overlay[id] = pe
		logging.SegmentUpdated(d.path, id, len(result.Warnings))
		return d.view(seg, true), result, nil

	default:
		// Untagged segment, or an explicit strip-tags override.
		pe.Clean = newText
		pe.Fragment = []*xmlquery.Node{{Type: xmlquery.TextNode, Data: newText}}
		d.overlay[id] = pe
		logging.SegmentUpdated(d.path, id, 0)
		return d.view(seg, true), placeholder.Result{Valid: true}, nil
	}
}

// SetStatus records a confirmation-level change without editing text.
// Unlike a text edit this applies the requested status: changing the
// level is itself the review action.
func (d *Document) SetStatus(id string, status Status) (SegmentView, error) {
	seg, err := d.segment(id)
	if err != nil {
		return SegmentView{}, err
	}
	if !status.Known() {
		_, perr := ParseStatus(string(status))
		return SegmentView{}, perr
	}
	// Without an sdl:seg element there is nowhere to carry a conf
	// attribute, so the change could not survive a save.
	if seg.sdlSeg == nil {
		return SegmentView{}, errors.NewUnsupported("status change",
			"segment "+id+" has no sdl:seg metadata")
	}

	if pe, ok := d.overlay[id]; ok {
		pe.Status = status
	} else {
		d.overlay[id] = &PendingEdit{SegmentID: id, Status: status}
	}
	return d.view(seg, true), nil
}

// PendingEdits returns the overlay entries in document order.
func (d *Document) PendingEdits() []*PendingEdit {
	edits := make([]*PendingEdit, 0, len(d.overlay))
	for _, seg := range d.segments {
		if pe, ok := d.overlay[seg.ID]; ok {
			edits = append(edits, pe)
		}
	}
	return edits
}

// DiscardEdits drops the overlay without saving.
func (d *Document) DiscardEdits() {
	d.overlay = make(map[string]*PendingEdit)
}
