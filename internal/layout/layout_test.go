package layout

import (
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"blocknote/internal/view"
	"blocknote/pkg/notedoc"
)

// Face7x13 advances every glyph by 7px and has a 13px line.
func fixedFace(int, notedoc.FormatSet) font.Face { return basicfont.Face7x13 }

func seqOf(blocks ...notedoc.Block) notedoc.Sequence {
	return notedoc.Sequence{Blocks: blocks}
}

func textBlock(id, text string, align notedoc.Alignment) notedoc.Block {
	return notedoc.NewBlock(id, []notedoc.Run{{Text: text}}, align, 16)
}

func TestBuildWrapsAtLastSpace(t *testing.T) {
	doc := Build(seqOf(textBlock("a", "hello world", notedoc.AlignLeft)), nil, Options{Width: 56, Face: fixedFace})
	lines := doc.Blocks[0].Lines
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Pieces[0].Text != "hello " || lines[1].Pieces[0].Text != "world" {
		t.Fatalf("unexpected wrap: %q / %q", lines[0].Pieces[0].Text, lines[1].Pieces[0].Text)
	}
	if lines[1].Y != 13 || doc.Height != 26 {
		t.Fatalf("unexpected geometry: line y %d, height %d", lines[1].Y, doc.Height)
	}
}

func TestBuildBreaksLongWord(t *testing.T) {
	doc := Build(seqOf(textBlock("a", "abcdefghij", notedoc.AlignLeft)), nil, Options{Width: 28, Face: fixedFace})
	lines := doc.Blocks[0].Lines
	if len(lines) != 3 || lines[2].Pieces[0].Text != "ij" {
		t.Fatalf("unexpected lines: %+v", lines)
	}
}

func TestBuildStacksBlocksWithGap(t *testing.T) {
	doc := Build(seqOf(
		textBlock("a", "one", notedoc.AlignLeft),
		notedoc.NewEmptyBlock("b"),
	), nil, Options{Width: 200, BlockGap: 5, Face: fixedFace})
	if doc.Blocks[1].Y != 18 {
		t.Fatalf("second block at %d", doc.Blocks[1].Y)
	}
	empty := doc.Blocks[1]
	if len(empty.Lines) != 1 || len(empty.Lines[0].Pieces) != 1 {
		t.Fatalf("empty block needs a caret piece: %+v", empty.Lines)
	}
	x, y, h := doc.OffsetPoint(1, 0)
	if x != 0 || y != 18 || h != 13 {
		t.Fatalf("unexpected caret in empty block: %d,%d,%d", x, y, h)
	}
}

func TestBuildAlignsLines(t *testing.T) {
	doc := Build(seqOf(
		textBlock("c", "abcd", notedoc.AlignCenter),
		textBlock("r", "abcd", notedoc.AlignRight),
	), nil, Options{Width: 140, Face: fixedFace})
	if x := doc.Blocks[0].Lines[0].Pieces[0].X; x != 56 {
		t.Fatalf("centre offset %d", x)
	}
	if x := doc.Blocks[1].Lines[0].Pieces[0].X; x != 112 {
		t.Fatalf("right offset %d", x)
	}
}

func TestMarksSplitPieces(t *testing.T) {
	marks := func(notedoc.Block) []view.Mark { return []view.Mark{{Start: 2, End: 5, Term: "API"}} }
	doc := Build(seqOf(textBlock("a", "a API b", notedoc.AlignLeft)), marks, Options{Width: 500, Face: fixedFace})
	b := doc.Blocks[0]
	pieces := b.Lines[0].Pieces
	if len(pieces) != 3 {
		t.Fatalf("expected 3 pieces, got %+v", pieces)
	}
	if b.Segments[pieces[1].Seg].Term != "API" || pieces[1].X != 14 {
		t.Fatalf("unexpected mark piece: %+v", pieces[1])
	}
}

func TestHitTestRoundTrip(t *testing.T) {
	doc := Build(seqOf(textBlock("a", "hello world", notedoc.AlignLeft)), nil, Options{Width: 56, Face: fixedFace})
	root := doc.Blocks[0].Root
	for k := 0; k <= 11; k++ {
		x, y, _ := doc.OffsetPoint(0, k)
		bi, node, off := doc.HitTest(x, y)
		if bi != 0 {
			t.Fatalf("offset %d hit block %d", k, bi)
		}
		if got := view.ToLogicalOffset(root, node, off); got != k {
			t.Fatalf("offset %d: hit test gave %d", k, got)
		}
	}
}

func TestHitTestClampsOutside(t *testing.T) {
	doc := Build(seqOf(
		textBlock("a", "abc", notedoc.AlignLeft),
		textBlock("b", "xyz", notedoc.AlignLeft),
	), nil, Options{Width: 100, Face: fixedFace})
	bi, node, off := doc.HitTest(500, 1000)
	if bi != 1 || view.ToLogicalOffset(doc.Blocks[1].Root, node, off) != 3 {
		t.Fatalf("expected end of last block, got %d/%d", bi, off)
	}
	bi, node, off = doc.HitTest(-10, 0)
	if bi != 0 || view.ToLogicalOffset(doc.Blocks[0].Root, node, off) != 0 {
		t.Fatalf("expected start of first block, got %d/%d", bi, off)
	}
	if bi, _, _ := (&Document{}).HitTest(0, 0); bi != -1 {
		t.Fatalf("empty document hit %d", bi)
	}
}

func TestPointAtForeignNodeMapsToEnd(t *testing.T) {
	doc := Build(seqOf(textBlock("a", "abc", notedoc.AlignLeft)), nil, Options{Width: 100, Face: fixedFace})
	x, _, _ := doc.PointAt(0, view.NewText("stale"), 1)
	if x != 21 {
		t.Fatalf("expected end of block, got x=%d", x)
	}
}

func TestSelectionRectsSpanLines(t *testing.T) {
	doc := Build(seqOf(textBlock("a", "hello world", notedoc.AlignLeft)), nil, Options{Width: 56, Face: fixedFace})
	rects := doc.SelectionRects(0, 3, 8)
	if len(rects) != 2 {
		t.Fatalf("expected 2 rects, got %v", rects)
	}
	if rects[0] != [4]int{21, 0, 21, 13} || rects[1] != [4]int{0, 13, 14, 13} {
		t.Fatalf("unexpected rects: %v", rects)
	}
	if doc.SelectionRects(0, 4, 4) != nil {
		t.Fatal("collapsed range should have no rects")
	}
}

func TestNewlineEndsLine(t *testing.T) {
	doc := Build(seqOf(textBlock("a", "ab\ncd\n", notedoc.AlignLeft)), nil, Options{Width: 500, Face: fixedFace})
	b := doc.Blocks[0]
	if len(b.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(b.Lines))
	}
	if x, y, _ := doc.OffsetPoint(0, 3); x != 0 || y != 13 {
		t.Fatalf("offset after newline at %d,%d", x, y)
	}
	if x, y, _ := doc.OffsetPoint(0, 6); x != 0 || y != 26 {
		t.Fatalf("trailing newline caret at %d,%d", x, y)
	}
	_, node, off := doc.HitTest(300, 0)
	if got := view.ToLogicalOffset(b.Root, node, off); got != 2 {
		t.Fatalf("click right of first line gave %d", got)
	}
}
