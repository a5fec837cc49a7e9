package sdlxliff

import (
	"bytes"
	"encoding/hex"
	"path/filepath"

	"github.com/antchfx/xmlquery"
	"github.com/zeebo/blake3"

	"github.com/lingtools/xliffd/core/placeholder"
	"github.com/lingtools/xliffd/core/xmltree"
	"github.com/lingtools/xliffd/internal/fileutil"
	"github.com/lingtools/xliffd/internal/logging"
)

// Serialize re-serializes the document with the overlay spliced in.
// Unedited content is re-emitted from the original tree unchanged, and
// the tree itself is left untouched: pending fragments are cloned in
// for the duration of serialization and the splice is undone before
// returning. Output is always UTF-8, preserving the original BOM and
// XML declaration.
func (d *Document) Serialize() []byte {
	undo := d.applyOverlay(false)
	defer undo()

	var buf bytes.Buffer
	if d.bom {
		buf.Write(utf8BOM)
	}
	if d.declaration() == nil {
		buf.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	}
	buf.Write(xmltree.Serialize(d.root))
	return buf.Bytes()
}

// applyOverlay splices every pending edit into the tree. When
// permanent, fragments are attached directly and segment state is
// updated; the returned undo is a no-op. Otherwise fragments are
// cloned in and the undo restores the tree exactly.
func (d *Document) applyOverlay(permanent bool) (undo func()) {
	var undos []func()

	for _, pe := range d.PendingEdits() {
		seg := d.index[pe.SegmentID]

		if pe.TextChanged && seg.targetMrk != nil {
			replacement := xmltree.Clone(seg.targetMrk, false)
			for _, n := range pe.Fragment {
				if permanent {
					xmltree.AppendChild(replacement, n)
				} else {
					xmltree.AppendChild(replacement, xmltree.Clone(n, true))
				}
			}
			original := seg.targetMrk
			parent := original.Parent
			xmltree.ReplaceChild(parent, original, replacement)
			if permanent {
				seg.targetMrk = replacement
				seg.target = placeholder.Encode(replacement)
				seg.status = pe.Status
			} else {
				undos = append(undos, func() {
					xmltree.ReplaceChild(parent, replacement, original)
				})
			}
		}

		if seg.sdlSeg != nil {
			if !permanent {
				saved := append([]xmlquery.Attr(nil), seg.sdlSeg.Attr...)
				node := seg.sdlSeg
				undos = append(undos, func() { node.Attr = saved })
			}
			xmltree.SetAttr(seg.sdlSeg, "conf", string(pe.Status))
			if permanent {
				seg.status = pe.Status
			}
		}
	}

	// The file is written as UTF-8 regardless of the source encoding,
	// so a non-UTF-8 declaration is rewritten to match.
	if decl := d.declaration(); decl != nil && !d.declaredUTF8() {
		if !permanent {
			saved := append([]xmlquery.Attr(nil), decl.Attr...)
			undos = append(undos, func() { decl.Attr = saved })
		}
		xmltree.SetAttr(decl, "encoding", "utf-8")
	}

	return func() {
		for i := len(undos) - 1; i >= 0; i-- {
			undos[i]()
		}
	}
}

// SaveOptions alters Save behavior.
type SaveOptions struct {
	// Backup writes an xz-compressed copy of the existing file next to
	// it before an in-place overwrite.
	Backup bool
}

// Save serializes the document and writes it to outputPath, or to the
// original path when outputPath is empty. The write is atomic: bytes go
// to a temporary file in the destination directory which is renamed
// over the target, and the temporary file is removed on every failure
// path, so no partial document is ever left behind.
//
// Saving to the original path consumes the overlay (edits become part
// of the parsed tree) only after the write has succeeded; a save-as to
// another path leaves the overlay intact.
func (d *Document) Save(outputPath string, opts SaveOptions) (int64, error) {
	target := outputPath
	if target == "" {
		target = d.path
	}
	inPlace := samePath(target, d.path)

	data := d.Serialize()

	if opts.Backup && inPlace {
		if _, err := fileutil.BackupXZ(d.path); err != nil {
			return 0, err
		}
	}

	if err := fileutil.WriteAtomic(target, data, 0o644); err != nil {
		return 0, err
	}

	if inPlace {
		d.commitOverlay(data)
	}
	logging.DocumentSaved(target, int64(len(data)), inPlace)
	return int64(len(data)), nil
}

// commitOverlay makes the overlay permanent after a confirmed in-place
// write and refreshes the fingerprint to the bytes just written.
func (d *Document) commitOverlay(written []byte) {
	d.applyOverlay(true)
	d.overlay = make(map[string]*PendingEdit)
	sum := blake3.Sum256(written)
	d.fingerprint = hex.EncodeToString(sum[:])
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
