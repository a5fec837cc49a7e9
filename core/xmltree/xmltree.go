// Package xmltree provides node manipulation and faithful serialization
// for xmlquery document trees.
//
// The serializer is deliberately not a pretty-printer: it re-emits the
// tree with original attribute order, prefixes, and whitespace intact so
// that unedited regions of a document survive a parse/serialize cycle
// unchanged. Escaping is minimal (see core/encoding).
//
// Serialization is deterministic but not guaranteed byte-identical to
// the input file on the first pass: the parser already normalizes some
// lexical forms, so a childless <target></target> re-emits as
// <target/> and entities like &apos; come back as the character they
// name. Subsequent serializations of the same tree are byte-identical.
package xmltree

import (
	"bytes"
	"encoding/xml"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/lingtools/xliffd/core/encoding"
)

// Clone copies a node. With deep=true the whole subtree is copied;
// otherwise only the node itself (attributes included, children not).
// The clone is detached: parent and sibling links are nil.
func Clone(n *xmlquery.Node, deep bool) *xmlquery.Node {
	if n == nil {
		return nil
	}
	c := &xmlquery.Node{
		Type:         n.Type,
		Data:         n.Data,
		Prefix:       n.Prefix,
		NamespaceURI: n.NamespaceURI,
	}
	if len(n.Attr) > 0 {
		c.Attr = append([]xmlquery.Attr(nil), n.Attr...)
	}
	if deep {
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			AppendChild(c, Clone(child, true))
		}
	}
	return c
}

// AppendChild attaches child as the last child of parent.
func AppendChild(parent, child *xmlquery.Node) {
	child.Parent = parent
	child.NextSibling = nil
	if parent.FirstChild == nil {
		parent.FirstChild = child
		child.PrevSibling = nil
	} else {
		parent.LastChild.NextSibling = child
		child.PrevSibling = parent.LastChild
	}
	parent.LastChild = child
}

// ReplaceChild swaps old for new in parent's child list. The old node
// keeps its subtree but is detached from the document.
func ReplaceChild(parent, old, replacement *xmlquery.Node) {
	replacement.Parent = parent
	replacement.PrevSibling = old.PrevSibling
	replacement.NextSibling = old.NextSibling
	if old.PrevSibling != nil {
		old.PrevSibling.NextSibling = replacement
	}
	if old.NextSibling != nil {
		old.NextSibling.PrevSibling = replacement
	}
	if parent.FirstChild == old {
		parent.FirstChild = replacement
	}
	if parent.LastChild == old {
		parent.LastChild = replacement
	}
	old.Parent = nil
	old.PrevSibling = nil
	old.NextSibling = nil
}

// SetAttr sets an attribute value, appending the attribute when it is
// not already present. Existing attribute order is preserved.
func SetAttr(n *xmlquery.Node, name, value string) {
	for i, attr := range n.Attr {
		if attr.Name.Space == "" && attr.Name.Local == name {
			n.Attr[i].Value = value
			return
		}
	}
	n.Attr = append(n.Attr, xmlquery.Attr{
		Name:  xml.Name{Local: name},
		Value: value,
	})
}

// RemoveChildren detaches every child of n.
func RemoveChildren(n *xmlquery.Node) {
	for child := n.FirstChild; child != nil; {
		next := child.NextSibling
		child.Parent = nil
		child.PrevSibling = nil
		child.NextSibling = nil
		child = next
	}
	n.FirstChild = nil
	n.LastChild = nil
}

// Serialize re-emits the tree rooted at n as XML bytes.
func Serialize(n *xmlquery.Node) []byte {
	var buf bytes.Buffer
	writeNode(&buf, n)
	return buf.Bytes()
}

func writeNode(w *bytes.Buffer, n *xmlquery.Node) {
	switch n.Type {
	case xmlquery.DocumentNode:
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			writeNode(w, child)
		}

	case xmlquery.DeclarationNode:
		w.WriteString("<?xml")
		for _, attr := range n.Attr {
			w.WriteString(" ")
			w.WriteString(attrName(n, attr))
			w.WriteString("=\"")
			w.WriteString(encoding.EscapeXMLAttr(attr.Value))
			w.WriteString("\"")
		}
		w.WriteString("?>")

	case xmlquery.ElementNode:
		w.WriteString("<")
		w.WriteString(elementName(n))
		for _, attr := range n.Attr {
			w.WriteString(" ")
			w.WriteString(attrName(n, attr))
			w.WriteString("=\"")
			w.WriteString(encoding.EscapeXMLAttr(attr.Value))
			w.WriteString("\"")
		}
		if n.FirstChild == nil {
			w.WriteString("/>")
			return
		}
		w.WriteString(">")
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			writeNode(w, child)
		}
		w.WriteString("</")
		w.WriteString(elementName(n))
		w.WriteString(">")

	case xmlquery.TextNode:
		w.WriteString(encoding.EscapeXMLText(n.Data))

	case xmlquery.CharDataNode:
		w.WriteString("<![CDATA[")
		w.WriteString(n.Data)
		w.WriteString("]]>")

	case xmlquery.CommentNode:
		w.WriteString("<!--")
		w.WriteString(n.Data)
		w.WriteString("-->")

	case xmlquery.NotationNode:
		w.WriteString("<!")
		w.WriteString(n.Data)
		w.WriteString(">")
	}
}

func elementName(n *xmlquery.Node) string {
	if n.Prefix != "" {
		return n.Prefix + ":" + n.Data
	}
	return n.Data
}

// attrName renders an attribute name with its original prefix.
// encoding/xml resolves prefixed attribute names to namespace URIs, so
// a URI in Space is mapped back to the prefix declared on an ancestor.
func attrName(n *xmlquery.Node, attr xmlquery.Attr) string {
	space := attr.Name.Space
	if space == "" {
		return attr.Name.Local
	}
	if space == "xmlns" {
		return "xmlns:" + attr.Name.Local
	}
	if !strings.ContainsAny(space, ":/") {
		return space + ":" + attr.Name.Local
	}
	if prefix := prefixForURI(n, space); prefix != "" {
		return prefix + ":" + attr.Name.Local
	}
	return attr.Name.Local
}

// prefixForURI walks ancestors looking for an xmlns:prefix declaration
// matching the given namespace URI.
func prefixForURI(n *xmlquery.Node, uri string) string {
	for cur := n; cur != nil; cur = cur.Parent {
		for _, attr := range cur.Attr {
			if attr.Name.Space == "xmlns" && attr.Value == uri {
				return attr.Name.Local
			}
		}
	}
	return ""
}
