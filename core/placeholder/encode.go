package placeholder

import (
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/lingtools/xliffd/core/xmltree"
)

// Encode walks the children of an mrk (or source/target) element and
// produces the placeholder notation, the tag-stripped text, and the tag
// set needed to decode an edited proposal later. The input tree is not
// modified; tag elements are cloned into the set.
func Encode(n *xmlquery.Node) Encoded {
	b := encoder{tags: TagSet{}}
	b.walk(n)
	return Encoded{
		Placeholder: b.tagged.String(),
		Clean:       b.clean.String(),
		Tags:        b.tags,
	}
}

type encoder struct {
	tagged strings.Builder
	clean  strings.Builder
	tags   TagSet
}

func (b *encoder) walk(n *xmlquery.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case xmlquery.TextNode, xmlquery.CharDataNode:
			b.tagged.WriteString(c.Data)
			b.clean.WriteString(c.Data)

		case xmlquery.ElementNode:
			// Location bookmarks carry no translatable content.
			if c.Data == "mrk" && c.SelectAttr("mtype") == "x-sdl-location" {
				continue
			}

			id := c.SelectAttr("id")
			if id == "" {
				b.walk(c)
				continue
			}

			switch c.Data {
			case "g", "it":
				b.tags[id] = &Tag{ID: id, Kind: KindPaired, Elem: xmltree.Clone(c, false)}
				b.tagged.WriteString("{" + id + "}")
				b.walk(c)
				b.tagged.WriteString("{/" + id + "}")

			case "x", "bx", "ex", "ph":
				b.tags[id] = &Tag{ID: id, Kind: KindSelfClosing, Elem: xmltree.Clone(c, true)}
				b.tagged.WriteString("{x:" + id + "}")

			case "bpt":
				// The element content is native code, not translatable text.
				if t, ok := b.tags[id]; ok && t.Kind == KindEndOnly {
					t.End = t.Elem
					t.Elem = xmltree.Clone(c, true)
					t.Kind = KindSplit
				} else {
					b.tags[id] = &Tag{ID: id, Kind: KindBeginOnly, Elem: xmltree.Clone(c, true)}
				}
				b.tagged.WriteString("{" + id + "}")

			case "ept":
				if t, ok := b.tags[id]; ok && t.Kind == KindBeginOnly {
					t.End = xmltree.Clone(c, true)
					t.Kind = KindSplit
				} else {
					b.tags[id] = &Tag{ID: id, Kind: KindEndOnly, Elem: xmltree.Clone(c, true)}
				}
				b.tagged.WriteString("{/" + id + "}")

			default:
				// Unknown wrapper element: transparent for text purposes.
				b.walk(c)
			}
		}
	}
}
