package view

import (
	"testing"

	"blocknote/pkg/notedoc"
)

func sampleBlock() notedoc.Block {
	return notedoc.NewBlock("b1", []notedoc.Run{
		{Text: "Hello, wo", Formats: notedoc.NewFormatSet(notedoc.Bold)},
		{Text: "rld! "},
		{Text: "This is a test", Formats: notedoc.NewFormatSet(notedoc.Italic)},
	}, notedoc.AlignLeft, 16)
}

func TestRenderOneSpanPerRun(t *testing.T) {
	root := Render(sampleBlock(), nil)
	if root.Attr(AttrBlockID) != "b1" {
		t.Fatalf("unexpected block id attr: %q", root.Attr(AttrBlockID))
	}
	if len(root.Children) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(root.Children))
	}
	if !root.Children[0].HasClass(ClassBold) || root.Children[1].HasClass(ClassBold) {
		t.Fatalf("unexpected span classes: %v %v", root.Children[0].Classes, root.Children[1].Classes)
	}
	if got := root.TextContent(); got != "Hello, world! This is a test" {
		t.Fatalf("unexpected text content: %q", got)
	}
}

func TestRenderEmptyBlockHasCaretTarget(t *testing.T) {
	root := Render(notedoc.NewEmptyBlock("e"), nil)
	nodes := TextNodes(root)
	if len(nodes) != 1 || nodes[0].Text != "" {
		t.Fatalf("expected one empty text node, got %#v", nodes)
	}
	n, off := ToViewPosition(root, 3)
	if n != nodes[0] || off != 0 {
		t.Fatalf("unexpected clamp: %v %d", n, off)
	}
}

func TestRenderMarksDoNotChangeRuns(t *testing.T) {
	b := sampleBlock()
	root := Render(b, []Mark{{Start: 7, End: 12, Term: "world"}})
	var marks []*Node
	Walk(root, func(n *Node) bool {
		if n.HasClass(ClassTerm) {
			marks = append(marks, n)
		}
		return true
	})
	if len(marks) != 2 {
		t.Fatalf("expected the mark to be split across two runs, got %d", len(marks))
	}
	if marks[0].TextContent()+marks[1].TextContent() != "world" {
		t.Fatalf("unexpected marked text: %q %q", marks[0].TextContent(), marks[1].TextContent())
	}
	runs := ReadRuns(root)
	if len(runs) != len(b.Runs) {
		t.Fatalf("marks altered runs: %#v", runs)
	}
	for i := range runs {
		if runs[i] != b.Runs[i] {
			t.Fatalf("run %d: got %#v want %#v", i, runs[i], b.Runs[i])
		}
	}
}

func TestSelectionMappingRoundTrip(t *testing.T) {
	blocks := []notedoc.Block{
		sampleBlock(),
		notedoc.NewEmptyBlock("empty"),
		notedoc.NewBlock("uni", []notedoc.Run{{Text: "héllo "}, {Text: "wörld", Formats: notedoc.NewFormatSet(notedoc.Underline)}}, notedoc.AlignLeft, 16),
	}
	for _, b := range blocks {
		for _, marks := range [][]Mark{nil, {{Start: 1, End: 4, Term: "x"}}} {
			root := Render(b, marks)
			for k := 0; k <= b.Len(); k++ {
				node, off := ToViewPosition(root, k)
				if got := ToLogicalOffset(root, node, off); got != k {
					t.Fatalf("block %s: round trip of %d gave %d", b.ID, k, got)
				}
			}
		}
	}
}

func TestToLogicalOffsetMissingNodeMapsToEnd(t *testing.T) {
	root := Render(sampleBlock(), nil)
	stale := NewText("gone")
	if got := ToLogicalOffset(root, stale, 2); got != sampleBlock().Len() {
		t.Fatalf("expected end of block, got %d", got)
	}
	if got := ToLogicalOffset(root, nil, 0); got != sampleBlock().Len() {
		t.Fatalf("expected end of block for nil target, got %d", got)
	}
}

func TestToLogicalOffsetElementTarget(t *testing.T) {
	root := Render(sampleBlock(), nil)
	if got := ToLogicalOffset(root, root, 1); got != len("Hello, wo") {
		t.Fatalf("unexpected element offset: %d", got)
	}
	if got := ToLogicalOffset(root, root, 99); got != sampleBlock().Len() {
		t.Fatalf("unexpected clamped element offset: %d", got)
	}
	if got := ToLogicalOffset(root, root.Children[1], 0); got != len("Hello, wo") {
		t.Fatalf("unexpected span offset: %d", got)
	}
}

func TestToViewPositionClampsPastEnd(t *testing.T) {
	root := Render(sampleBlock(), nil)
	nodes := TextNodes(root)
	last := nodes[len(nodes)-1]
	n, off := ToViewPosition(root, 1000)
	if n != last || off != last.Len() {
		t.Fatalf("expected (last, %d), got (%v, %d)", last.Len(), n, off)
	}
	n, off = ToViewPosition(root, -4)
	if n != nodes[0] || off != 0 {
		t.Fatalf("expected start of first node, got (%v, %d)", n, off)
	}
}

func TestMappingDoesNotMutateTree(t *testing.T) {
	root := Render(sampleBlock(), nil)
	before := Clone(root)
	for k := 0; k <= 40; k++ {
		n, off := ToViewPosition(root, k)
		ToLogicalOffset(root, n, off)
	}
	if ReadRuns(root)[0] != ReadRuns(before)[0] || root.TextContent() != before.TextContent() {
		t.Fatalf("mapping mutated the tree")
	}
}

func TestReadRunsFromForeignMarkup(t *testing.T) {
	root := NewElement("div", nil,
		NewText("plain "),
		NewElement("strong", nil, NewText("bold "), NewElement("em", nil, NewText("both"))),
		NewElement("span", []string{ClassUnderline}, NewText("")),
	)
	runs := ReadRuns(root)
	want := []notedoc.Run{
		{Text: "plain "},
		{Text: "bold ", Formats: notedoc.NewFormatSet(notedoc.Bold)},
		{Text: "both", Formats: notedoc.NewFormatSet(notedoc.Bold, notedoc.Italic)},
	}
	if len(runs) != len(want) {
		t.Fatalf("unexpected runs: %#v", runs)
	}
	for i := range want {
		if runs[i] != want[i] {
			t.Fatalf("run %d: got %#v want %#v", i, runs[i], want[i])
		}
	}
}

func TestInsertTextInheritsPrecedingRun(t *testing.T) {
	root := Render(sampleBlock(), nil)
	node, off := InsertText(root, len("Hello, wo"), "XY")
	if got := ToLogicalOffset(root, node, off); got != len("Hello, woXY") {
		t.Fatalf("unexpected caret after insert: %d", got)
	}
	runs := ReadRuns(root)
	if runs[0].Text != "Hello, woXY" || !runs[0].Formats.Has(notedoc.Bold) {
		t.Fatalf("expected inserted text to join the bold run, got %#v", runs[0])
	}
}

func TestDeleteRangeAcrossNodes(t *testing.T) {
	root := Render(sampleBlock(), nil)
	DeleteRange(root, 7, 19)
	if got := root.TextContent(); got != "Hello, is a test" {
		t.Fatalf("unexpected text: %q", got)
	}
	runs := ReadRuns(root)
	if len(runs) != 2 || runs[0].Text != "Hello, " || runs[1].Text != "is a test" {
		t.Fatalf("unexpected runs after delete: %#v", runs)
	}
}
