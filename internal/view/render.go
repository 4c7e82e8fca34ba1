package view

import (
	"sort"
	"strconv"

	"blocknote/pkg/notedoc"
)

// Mark highlights [Start, End) of a block's text, e.g. a glossary term.
type Mark struct {
	Start int
	End   int
	Term  string
}

// Render builds the tree for one block: a div root holding one span per run.
// Marks that overlap a run split its text into plain text nodes and mark
// elements; they never change the run structure.
func Render(b notedoc.Block, marks []Mark) *Node {
	root := NewElement("div", nil)
	root.SetAttr(AttrBlockID, b.ID)
	root.SetAttr(AttrAlign, string(b.Align))
	root.SetAttr(AttrFontSize, strconv.Itoa(b.FontSize))

	marks = sortedMarks(marks)
	runStart := 0
	for _, r := range b.Runs {
		span := NewElement("span", runClasses(r.Formats))
		runes := []rune(r.Text)
		runEnd := runStart + len(runes)
		span.Children = splitByMarks(runes, runStart, runEnd, marks)
		root.Append(span)
		runStart = runEnd
	}
	if len(root.Children) == 0 {
		root.Append(NewElement("span", nil, NewText("")))
	}
	return root
}

func runClasses(s notedoc.FormatSet) []string {
	if s.Empty() {
		return nil
	}
	out := make([]string, 0, len(notedoc.Formats))
	for _, f := range s.Slice() {
		out = append(out, formatClass(f))
	}
	return out
}

func sortedMarks(marks []Mark) []Mark {
	out := make([]Mark, 0, len(marks))
	for _, m := range marks {
		if m.End > m.Start {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func splitByMarks(runes []rune, runStart, runEnd int, marks []Mark) []*Node {
	var out []*Node
	pos := runStart
	for _, m := range marks {
		if m.End <= pos || m.Start >= runEnd {
			continue
		}
		start := max(m.Start, pos)
		end := min(m.End, runEnd)
		if start > pos {
			out = append(out, NewText(string(runes[pos-runStart:start-runStart])))
		}
		mark := NewElement("mark", []string{ClassTerm}, NewText(string(runes[start-runStart:end-runStart])))
		mark.SetAttr(AttrTerm, m.Term)
		out = append(out, mark)
		pos = end
	}
	if pos < runEnd || len(out) == 0 {
		out = append(out, NewText(string(runes[pos-runStart:])))
	}
	return out
}

// Segment is one text node together with the formats and glossary term it
// inherits from its ancestors.
type Segment struct {
	Node    *Node
	Formats notedoc.FormatSet
	Term    string
}

// Segments lists the text nodes beneath root in document order. Formats
// accumulate from every ancestor element's classes and tags, so markup an
// editing surface inserts on its own (b, strong, em, ...) counts as well.
func Segments(root *Node) []Segment {
	var out []Segment
	var visit func(n *Node, formats notedoc.FormatSet, term string)
	visit = func(n *Node, formats notedoc.FormatSet, term string) {
		if n == nil {
			return
		}
		if n.Kind == TextNode {
			out = append(out, Segment{Node: n, Formats: formats, Term: term})
			return
		}
		formats |= elementFormats(n)
		if t := n.Attr(AttrTerm); t != "" {
			term = t
		}
		for _, c := range n.Children {
			visit(c, formats, term)
		}
	}
	visit(root, 0, "")
	return out
}

// ReadRuns recovers the run partition from a rendered (and possibly edited)
// tree.
func ReadRuns(root *Node) []notedoc.Run {
	segs := Segments(root)
	runs := make([]notedoc.Run, 0, len(segs))
	for _, s := range segs {
		runs = append(runs, notedoc.Run{Text: s.Node.Text, Formats: s.Formats})
	}
	return notedoc.MergeRuns(runs)
}

func elementFormats(n *Node) notedoc.FormatSet {
	var s notedoc.FormatSet
	switch n.Tag {
	case "b", "strong":
		s = s.With(notedoc.Bold)
	case "i", "em":
		s = s.With(notedoc.Italic)
	case "u":
		s = s.With(notedoc.Underline)
	}
	for _, c := range n.Classes {
		switch c {
		case ClassBold:
			s = s.With(notedoc.Bold)
		case ClassItalic:
			s = s.With(notedoc.Italic)
		case ClassUnderline:
			s = s.With(notedoc.Underline)
		}
	}
	return s
}
