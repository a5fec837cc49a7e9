package placeholder

import (
	"github.com/antchfx/xmlquery"

	"github.com/lingtools/xliffd/core/errors"
	"github.com/lingtools/xliffd/core/xmltree"
)

// Decode converts placeholder text back into a markup fragment using
// the segment's original tag set. The returned nodes are detached
// siblings in document order, ready to be appended under a fresh
// segment element.
//
// Decode fails with a MalformedPlaceholderError when a token references
// an id absent from the tag set, uses the wrong token form for its
// kind, closes a tag that is not open, or leaves a paired tag
// unterminated at end of input. Validate catches all of these ahead of
// time; Decode re-checks so it is safe standalone.
func Decode(input string, tags TagSet) ([]*xmlquery.Node, error) {
	root := &xmlquery.Node{Type: xmlquery.ElementNode, Data: "#fragment"}
	current := root

	// Stack of open paired elements; ids of split pairs currently open.
	var stack []*openPaired
	openSplits := map[string]bool{}

	for _, tok := range Scan(input) {
		switch tok.Kind {
		case TokenText:
			xmltree.AppendChild(current, &xmlquery.Node{Type: xmlquery.TextNode, Data: tok.Text})

		case TokenOpen:
			tag, ok := tags[tok.ID]
			if !ok {
				return nil, errors.NewMalformedPlaceholder(tok.Text, tok.ID, "tag id not in original segment")
			}
			switch tag.Kind {
			case KindPaired:
				elem := xmltree.Clone(tag.Elem, false)
				xmltree.AppendChild(current, elem)
				stack = append(stack, &openPaired{id: tok.ID, elem: elem})
				current = elem
			case KindSplit:
				if openSplits[tok.ID] {
					return nil, errors.NewMalformedPlaceholder(tok.Text, tok.ID, "begin token repeated before its end token")
				}
				xmltree.AppendChild(current, xmltree.Clone(tag.Elem, true))
				openSplits[tok.ID] = true
			case KindBeginOnly:
				xmltree.AppendChild(current, xmltree.Clone(tag.Elem, true))
			case KindSelfClosing:
				return nil, errors.NewMalformedPlaceholder(tok.Text, tok.ID, "tag is self-closing, expected {x:"+tok.ID+"}")
			case KindEndOnly:
				return nil, errors.NewMalformedPlaceholder(tok.Text, tok.ID, "tag is an end marker, expected {/"+tok.ID+"}")
			}

		case TokenClose:
			tag, ok := tags[tok.ID]
			if !ok {
				return nil, errors.NewMalformedPlaceholder(tok.Text, tok.ID, "tag id not in original segment")
			}
			switch tag.Kind {
			case KindPaired:
				if len(stack) == 0 || stack[len(stack)-1].id != tok.ID {
					return nil, errors.NewMalformedPlaceholder(tok.Text, tok.ID, "closing token without matching open token")
				}
				stack = stack[:len(stack)-1]
				if len(stack) > 0 {
					current = stack[len(stack)-1].elem
				} else {
					current = root
				}
			case KindSplit:
				if !openSplits[tok.ID] {
					return nil, errors.NewMalformedPlaceholder(tok.Text, tok.ID, "end token before its begin token")
				}
				xmltree.AppendChild(current, xmltree.Clone(tag.End, true))
				openSplits[tok.ID] = false
			case KindEndOnly:
				xmltree.AppendChild(current, xmltree.Clone(tag.Elem, true))
			case KindSelfClosing:
				return nil, errors.NewMalformedPlaceholder(tok.Text, tok.ID, "tag is self-closing, expected {x:"+tok.ID+"}")
			case KindBeginOnly:
				return nil, errors.NewMalformedPlaceholder(tok.Text, tok.ID, "tag is a begin marker, expected {"+tok.ID+"}")
			}

		case TokenSelfClosing:
			tag, ok := tags[tok.ID]
			if !ok {
				return nil, errors.NewMalformedPlaceholder(tok.Text, tok.ID, "tag id not in original segment")
			}
			if tag.Kind != KindSelfClosing {
				return nil, errors.NewMalformedPlaceholder(tok.Text, tok.ID, "tag is "+tag.Kind.String()+", not self-closing")
			}
			xmltree.AppendChild(current, xmltree.Clone(tag.Elem, true))
		}
	}

	if len(stack) > 0 {
		open := stack[len(stack)-1]
		return nil, errors.NewMalformedPlaceholder("{"+open.id+"}", open.id, "paired tag not terminated before end of input")
	}
	for id, open := range openSplits {
		if open {
			return nil, errors.NewMalformedPlaceholder("{"+id+"}", id, "split pair not terminated before end of input")
		}
	}

	var fragment []*xmlquery.Node
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		fragment = append(fragment, c)
	}
	for _, n := range fragment {
		n.Parent = nil
		n.PrevSibling = nil
		n.NextSibling = nil
	}
	return fragment, nil
}

type openPaired struct {
	id   string
	elem *xmlquery.Node
}
