// Package layout turns rendered block trees into positioned lines of text.
//
// Geometry is computed from the view tree, never from the model directly,
// so a caret position always refers to a text node of the tree that was
// actually laid out. All coordinates are document pixels: x from the left
// edge of the content box, y from the top of the first block.
package layout

import (
	"strings"
	"unicode"

	"golang.org/x/image/font"

	"blocknote/internal/view"
	"blocknote/pkg/notedoc"
)

// FaceFunc returns the face for text of the given size and formats.
type FaceFunc func(size int, formats notedoc.FormatSet) font.Face

type Options struct {
	Width    int
	BlockGap int
	LineGap  int
	Face     FaceFunc
}

// Piece is the part of one text node that sits on one line.
type Piece struct {
	Seg   int
	Start int
	End   int
	Text  string
	X     int
	Width int
}

type Line struct {
	Pieces []Piece
	Y      int
	Height int
	Ascent int
	Width  int
}

type Block struct {
	Index    int
	ID       string
	Align    notedoc.Alignment
	FontSize int
	Root     *view.Node
	Segments []view.Segment
	Faces    []font.Face
	Lines    []Line
	Y        int
	Height   int
}

type Document struct {
	Blocks []Block
	Height int
	Width  int
}

// Build lays out every block of seq. marks may be nil.
func Build(seq notedoc.Sequence, marks func(notedoc.Block) []view.Mark, opts Options) *Document {
	doc := &Document{Width: opts.Width}
	y := 0
	for i, b := range seq.Blocks {
		var m []view.Mark
		if marks != nil {
			m = marks(b)
		}
		lb := layoutBlock(i, b, view.Render(b, m), y, opts)
		doc.Blocks = append(doc.Blocks, lb)
		y += lb.Height + opts.BlockGap
	}
	doc.Height = max(y-opts.BlockGap, 0)
	return doc
}

type glyph struct {
	seg     int
	off     int
	adv     int
	space   bool
	newline bool
}

func layoutBlock(index int, b notedoc.Block, root *view.Node, y int, opts Options) Block {
	lb := Block{
		Index:    index,
		ID:       b.ID,
		Align:    b.Align,
		FontSize: b.FontSize,
		Root:     root,
		Segments: view.Segments(root),
		Y:        y,
	}
	var glyphs []glyph
	for si, seg := range lb.Segments {
		face := opts.Face(b.FontSize, seg.Formats)
		lb.Faces = append(lb.Faces, face)
		for off, r := range []rune(seg.Node.Text) {
			g := glyph{seg: si, off: off, space: unicode.IsSpace(r), newline: r == '\n'}
			if !g.newline {
				g.adv = runeAdvance(face, r)
			}
			glyphs = append(glyphs, g)
		}
	}

	lineY := y
	for _, span := range wrap(glyphs, opts.Width) {
		line := lb.buildLine(glyphs[span[0]:span[1]], opts)
		if len(line.Pieces) == 0 {
			line = lb.emptyLine(span[0], glyphs, opts)
		}
		line.Y = lineY
		lineY += line.Height + opts.LineGap
		lb.Lines = append(lb.Lines, line)
	}
	lb.Height = max(lineY-opts.LineGap-y, 0)
	return lb
}

// wrap splits glyphs into lines no wider than width, breaking after the last
// space that fits or mid-word when a word is wider than the line. A newline
// always ends its line.
func wrap(glyphs []glyph, width int) [][2]int {
	if len(glyphs) == 0 {
		return [][2]int{{0, 0}}
	}
	var lines [][2]int
	start, w, lastSpace := 0, 0, -1
	for i := 0; i < len(glyphs); i++ {
		g := glyphs[i]
		if g.newline {
			lines = append(lines, [2]int{start, i + 1})
			start, w, lastSpace = i+1, 0, -1
			continue
		}
		if width > 0 && w+g.adv > width && i > start && !g.space {
			brk := i
			if lastSpace >= start {
				brk = lastSpace + 1
			}
			lines = append(lines, [2]int{start, brk})
			start, w, lastSpace = brk, 0, -1
			i = brk - 1
			continue
		}
		w += g.adv
		if g.space {
			lastSpace = i
		}
	}
	return append(lines, [2]int{start, len(glyphs)})
}

func (lb *Block) buildLine(glyphs []glyph, opts Options) Line {
	var line Line
	x := 0
	for i := 0; i < len(glyphs); {
		j := i
		w := 0
		for j < len(glyphs) && glyphs[j].seg == glyphs[i].seg {
			w += glyphs[j].adv
			j++
		}
		seg := glyphs[i].seg
		start, end := glyphs[i].off, glyphs[j-1].off+1
		line.Pieces = append(line.Pieces, Piece{
			Seg:   seg,
			Start: start,
			End:   end,
			Text:  string([]rune(lb.Segments[seg].Node.Text)[start:end]),
			X:     x,
			Width: w,
		})
		lb.grow(&line, lb.Faces[seg])
		x += w
		i = j
	}
	line.Width = x
	lb.align(&line, opts.Width)
	return line
}

// emptyLine gives a line without text a zero-width piece so the caret has
// somewhere to go.
func (lb *Block) emptyLine(at int, glyphs []glyph, opts Options) Line {
	var p Piece
	switch {
	case at < len(glyphs):
		p = Piece{Seg: glyphs[at].seg, Start: glyphs[at].off, End: glyphs[at].off}
	case len(glyphs) > 0:
		last := glyphs[len(glyphs)-1]
		p = Piece{Seg: last.seg, Start: last.off + 1, End: last.off + 1}
	}
	var line Line
	if len(lb.Segments) > 0 {
		line.Pieces = []Piece{p}
		lb.grow(&line, lb.Faces[p.Seg])
	} else {
		lb.grow(&line, opts.Face(lb.FontSize, 0))
	}
	lb.align(&line, opts.Width)
	return line
}

func (lb *Block) grow(line *Line, face font.Face) {
	m := face.Metrics()
	asc, h := m.Ascent.Ceil(), m.Height.Ceil()
	if des := m.Descent.Ceil(); asc+des > h {
		h = asc + des
	}
	line.Ascent = max(line.Ascent, asc)
	line.Height = max(line.Height, h)
}

func (lb *Block) align(line *Line, width int) {
	free := width - line.Width
	if free <= 0 {
		return
	}
	shift := 0
	switch lb.Align {
	case notedoc.AlignCenter:
		shift = free / 2
	case notedoc.AlignRight:
		shift = free
	}
	for i := range line.Pieces {
		line.Pieces[i].X += shift
	}
}

// PointAt returns the caret geometry for a view point inside block index.
// A node that is not part of the block's tree maps to the end of the block.
func (d *Document) PointAt(index int, node *view.Node, off int) (x, y, h int) {
	if index < 0 || index >= len(d.Blocks) {
		return 0, 0, 0
	}
	lb := &d.Blocks[index]
	for _, line := range lb.Lines {
		for _, p := range line.Pieces {
			if lb.Segments[p.Seg].Node != node || off < p.Start || off > p.End {
				continue
			}
			if off == p.End && p.End > p.Start && strings.HasSuffix(p.Text, "\n") {
				continue
			}
			return p.X + lb.prefixWidth(p, off), line.Y, line.Height
		}
	}
	last := lb.Lines[len(lb.Lines)-1]
	x = 0
	if n := len(last.Pieces); n > 0 {
		x = last.Pieces[n-1].X + last.Pieces[n-1].Width
	}
	return x, last.Y, last.Height
}

// OffsetPoint is PointAt for a logical offset, going through the view tree.
func (d *Document) OffsetPoint(index, offset int) (x, y, h int) {
	if index < 0 || index >= len(d.Blocks) {
		return 0, 0, 0
	}
	node, off := view.ToViewPosition(d.Blocks[index].Root, offset)
	return d.PointAt(index, node, off)
}

// HitTest maps a document point to a block and a view point inside it.
// Points above or below the text clamp to the first or last line.
func (d *Document) HitTest(x, y int) (int, *view.Node, int) {
	if len(d.Blocks) == 0 {
		return -1, nil, 0
	}
	bi := len(d.Blocks) - 1
	for i, b := range d.Blocks {
		if y < b.Y+b.Height {
			bi = i
			break
		}
	}
	lb := &d.Blocks[bi]
	line := lb.Lines[len(lb.Lines)-1]
	for _, l := range lb.Lines {
		if y < l.Y+l.Height {
			line = l
			break
		}
	}
	if len(line.Pieces) == 0 {
		return bi, lb.Root, 0
	}
	for i, p := range line.Pieces {
		if x >= p.X+p.Width && i < len(line.Pieces)-1 {
			continue
		}
		return bi, lb.Segments[p.Seg].Node, lb.offsetAtX(p, x-p.X)
	}
	return bi, lb.Root, 0
}

// SelectionRects returns one rectangle per line covering [start, end) of
// block index.
func (d *Document) SelectionRects(index, start, end int) [][4]int {
	if index < 0 || index >= len(d.Blocks) || start >= end {
		return nil
	}
	lb := &d.Blocks[index]
	var out [][4]int
	pos := 0
	segStart := make([]int, len(lb.Segments))
	for i, s := range lb.Segments {
		segStart[i] = pos
		pos += s.Node.Len()
	}
	for _, line := range lb.Lines {
		x0, x1 := -1, -1
		for _, p := range line.Pieces {
			ps, pe := segStart[p.Seg]+p.Start, segStart[p.Seg]+p.End
			lo, hi := max(start, ps), min(end, pe)
			if lo >= hi {
				continue
			}
			a := p.X + lb.prefixWidth(p, lo-segStart[p.Seg])
			b := p.X + lb.prefixWidth(p, hi-segStart[p.Seg])
			if x0 < 0 {
				x0 = a
			}
			x1 = b
		}
		if x0 >= 0 && x1 > x0 {
			out = append(out, [4]int{x0, line.Y, x1 - x0, line.Height})
		}
	}
	return out
}

func (lb *Block) prefixWidth(p Piece, off int) int {
	runes := []rune(lb.Segments[p.Seg].Node.Text)
	face := lb.Faces[p.Seg]
	w := 0
	for i := p.Start; i < off && i < p.End; i++ {
		w += runeAdvance(face, runes[i])
	}
	return w
}

func (lb *Block) offsetAtX(p Piece, relX int) int {
	runes := []rune(lb.Segments[p.Seg].Node.Text)
	face := lb.Faces[p.Seg]
	end := p.End
	if end > p.Start && runes[end-1] == '\n' {
		end--
	}
	x := 0
	for i := p.Start; i < end; i++ {
		adv := runeAdvance(face, runes[i])
		if relX < x+adv/2 {
			return i
		}
		x += adv
	}
	return end
}

func runeAdvance(face font.Face, r rune) int {
	adv, ok := face.GlyphAdvance(r)
	if !ok {
		adv, _ = face.GlyphAdvance('?')
	}
	return adv.Round()
}
