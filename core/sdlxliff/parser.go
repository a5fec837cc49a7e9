package sdlxliff

import (
	"bytes"
	"encoding/hex"
	"os"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/zeebo/blake3"
	"golang.org/x/net/html/charset"

	"github.com/lingtools/xliffd/core/errors"
	"github.com/lingtools/xliffd/core/placeholder"
	"github.com/lingtools/xliffd/internal/logging"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Precompiled segment queries. Names are matched on the local part, so
// the sdl: prefix on seg-defs/seg does not need namespace bindings.
var (
	exprFile       = xpath.MustCompile("//file")
	exprTransUnits = xpath.MustCompile("//trans-unit")
	exprSegMarks   = xpath.MustCompile(".//mrk[@mtype='seg']")
	exprSdlSegs    = xpath.MustCompile(".//seg-defs/seg")
)

// Open reads and parses the document at path.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &errors.NotFoundError{Resource: "document", ID: path, Err: err}
		}
		return nil, errors.NewIO("read", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		if pe, ok := err.(*errors.ParseError); ok {
			pe.Path = path
		}
		return nil, err
	}
	doc.path = path
	logging.DocumentOpened(path, doc.Len(), doc.sourceLanguage, doc.targetLanguage)
	return doc, nil
}

// Parse builds a Document from raw SDLXLIFF bytes. Malformed XML is
// fatal: no partial Document is returned. A segment missing its
// confirmation attribute defaults to Draft instead of failing the
// parse.
func Parse(data []byte) (*Document, error) {
	bom := bytes.HasPrefix(data, utf8BOM)

	opts := xmlquery.ParserOptions{
		Decoder: &xmlquery.DecoderOptions{
			CharsetReader: charset.NewReaderLabel,
		},
	}
	root, err := xmlquery.ParseWithOptions(bytes.NewReader(data), opts)
	if err != nil {
		return nil, &errors.ParseError{Format: "SDLXLIFF", Message: err.Error(), Err: err}
	}

	sum := blake3.Sum256(data)
	doc := &Document{
		root:        root,
		bom:         bom,
		index:       make(map[string]*Segment),
		overlay:     make(map[string]*PendingEdit),
		fingerprint: hex.EncodeToString(sum[:]),
	}

	if fileElem := xmlquery.QuerySelector(root, exprFile); fileElem != nil {
		doc.sourceLanguage = fileElem.SelectAttr("source-language")
		doc.targetLanguage = fileElem.SelectAttr("target-language")
	}

	for _, tu := range xmlquery.QuerySelectorAll(root, exprTransUnits) {
		unit := parseTransUnit(doc, tu)
		if unit != nil {
			doc.units = append(doc.units, unit)
		}
	}

	return doc, nil
}

// parseTransUnit extracts the segments of one trans-unit. Each
// <mrk mtype="seg"> in the target is a segment keyed by its mid; the
// matching seg-source mrk supplies the aligned source text.
func parseTransUnit(doc *Document, tu *xmlquery.Node) *TranslationUnit {
	unit := &TranslationUnit{
		ID:   tu.SelectAttr("id"),
		node: tu,
	}

	sourceByMid := map[string]placeholder.Encoded{}
	if segSource := childElement(tu, "seg-source"); segSource != nil {
		for _, mrk := range xmlquery.QuerySelectorAll(segSource, exprSegMarks) {
			sourceByMid[mrk.SelectAttr("mid")] = placeholder.Encode(mrk)
		}
	}

	// Unsegmented fallback when no seg-source mrk matches.
	var fallbackSource placeholder.Encoded
	if source := childElement(tu, "source"); source != nil {
		fallbackSource = placeholder.Encode(source)
	}

	sdlSegByID := map[string]*xmlquery.Node{}
	for _, seg := range xmlquery.QuerySelectorAll(tu, exprSdlSegs) {
		sdlSegByID[seg.SelectAttr("id")] = seg
	}

	target := childElement(tu, "target")
	if target == nil {
		// Untranslated unit: expose the source, nothing editable yet.
		doc.addSegment(unit, &Segment{
			ID:     unit.ID,
			UnitID: unit.ID,
			source: fallbackSource,
			status: StatusDraft,
		})
		return unit
	}

	marks := xmlquery.QuerySelectorAll(target, exprSegMarks)
	if len(marks) == 0 {
		// Target without mrk segmentation: the whole target is one segment.
		seg := &Segment{
			ID:        unit.ID,
			UnitID:    unit.ID,
			source:    fallbackSource,
			target:    placeholder.Encode(target),
			targetMrk: target,
		}
		applySdlSeg(seg, sdlSegByID["1"])
		doc.addSegment(unit, seg)
		return unit
	}

	for _, mrk := range marks {
		mid := mrk.SelectAttr("mid")
		source, ok := sourceByMid[mid]
		if !ok {
			source = fallbackSource
		}
		seg := &Segment{
			ID:        mid,
			UnitID:    unit.ID,
			source:    source,
			target:    placeholder.Encode(mrk),
			targetMrk: mrk,
		}
		applySdlSeg(seg, sdlSegByID[mid])
		doc.addSegment(unit, seg)
	}

	return unit
}

// applySdlSeg reads conf/locked off the sdl:seg metadata element.
// A missing element or conf attribute defaults the status to Draft.
func applySdlSeg(seg *Segment, sdlSeg *xmlquery.Node) {
	seg.sdlSeg = sdlSeg
	seg.status = StatusDraft
	if sdlSeg == nil {
		return
	}
	if conf := sdlSeg.SelectAttr("conf"); conf != "" {
		seg.status = Status(conf)
	}
	seg.locked = sdlSeg.SelectAttr("locked") == "true"
}

func (d *Document) addSegment(unit *TranslationUnit, seg *Segment) {
	if _, exists := d.index[seg.ID]; exists {
		logging.Warn("duplicate segment id, keeping first occurrence",
			"segment_id", seg.ID, "trans_unit_id", seg.UnitID)
		return
	}
	d.index[seg.ID] = seg
	d.segments = append(d.segments, seg)
	unit.Segments = append(unit.Segments, seg)
}

// childElement returns the first direct child element with the given
// local name.
func childElement(n *xmlquery.Node, name string) *xmlquery.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode && c.Data == name {
			return c
		}
	}
	return nil
}

// declaration returns the document's XML declaration node, if any.
func (d *Document) declaration() *xmlquery.Node {
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.DeclarationNode {
			return c
		}
	}
	return nil
}

// declaredUTF8 reports whether the declaration is absent or already
// declares a UTF-8 encoding (serialized output is always UTF-8).
func (d *Document) declaredUTF8() bool {
	decl := d.declaration()
	if decl == nil {
		return true
	}
	enc := decl.SelectAttr("encoding")
	return enc == "" || strings.EqualFold(enc, "utf-8")
}
