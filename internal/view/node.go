// Package view is the rendered-tree side of the editor: a small element/text
// node tree built from a block, and the mapping between positions in that
// tree and logical character offsets.
//
// Offsets inside text nodes count runes. Element offsets follow DOM range
// semantics: an offset on an element is a child index.
package view

import (
	"unicode/utf8"

	"blocknote/pkg/notedoc"
)

type NodeKind uint8

const (
	ElementNode NodeKind = iota
	TextNode
)

const (
	AttrBlockID  = "data-block-id"
	AttrTerm     = "data-term"
	AttrAlign    = "data-align"
	AttrFontSize = "data-font-size"

	ClassBold      = "font-bold"
	ClassItalic    = "italic"
	ClassUnderline = "underline"
	ClassTerm      = "glossary-term"
)

type Node struct {
	Kind     NodeKind
	Tag      string
	Classes  []string
	Attrs    map[string]string
	Text     string
	Children []*Node
}

func NewText(s string) *Node { return &Node{Kind: TextNode, Text: s} }

func NewElement(tag string, classes []string, children ...*Node) *Node {
	return &Node{Kind: ElementNode, Tag: tag, Classes: classes, Children: children}
}

func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

func (n *Node) Attr(key string) string {
	if n == nil || n.Attrs == nil {
		return ""
	}
	return n.Attrs[key]
}

func (n *Node) SetAttr(key, value string) {
	if n.Attrs == nil {
		n.Attrs = map[string]string{}
	}
	n.Attrs[key] = value
}

func (n *Node) HasClass(c string) bool {
	for _, have := range n.Classes {
		if have == c {
			return true
		}
	}
	return false
}

// Len is the rune length of a text node, or of all text beneath an element.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	if n.Kind == TextNode {
		return utf8.RuneCountInString(n.Text)
	}
	total := 0
	for _, c := range n.Children {
		total += c.Len()
	}
	return total
}

// TextContent concatenates every text node beneath n in document order.
func (n *Node) TextContent() string {
	if n == nil {
		return ""
	}
	if n.Kind == TextNode {
		return n.Text
	}
	var out []byte
	Walk(n, func(c *Node) bool {
		if c.Kind == TextNode {
			out = append(out, c.Text...)
		}
		return true
	})
	return string(out)
}

// Walk visits n and its descendants in document order until fn returns false.
// It reports whether the walk ran to completion.
func Walk(n *Node, fn func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !Walk(c, fn) {
			return false
		}
	}
	return true
}

// TextNodes lists the text nodes beneath root in document order.
func TextNodes(root *Node) []*Node {
	var out []*Node
	Walk(root, func(n *Node) bool {
		if n.Kind == TextNode {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Clone deep-copies a tree.
func Clone(n *Node) *Node {
	if n == nil {
		return nil
	}
	out := &Node{Kind: n.Kind, Tag: n.Tag, Text: n.Text}
	if n.Classes != nil {
		out.Classes = append([]string(nil), n.Classes...)
	}
	if n.Attrs != nil {
		out.Attrs = make(map[string]string, len(n.Attrs))
		for k, v := range n.Attrs {
			out.Attrs[k] = v
		}
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, Clone(c))
	}
	return out
}

func formatClass(f notedoc.Format) string {
	switch f {
	case notedoc.Bold:
		return ClassBold
	case notedoc.Italic:
		return ClassItalic
	case notedoc.Underline:
		return ClassUnderline
	}
	return ""
}
