package app

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"unicode/utf8"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font"

	"blocknote/internal/editor"
	"blocknote/internal/render"
	"blocknote/internal/store"
	"blocknote/internal/ui"
	"blocknote/internal/view"
	"blocknote/pkg/notedoc"
)

var (
	errorText = color.RGBA{R: 165, G: 35, B: 35, A: 255}
	scrollBar = color.RGBA{R: 156, G: 170, B: 190, A: 255}
	scrollBg  = color.RGBA{R: 231, G: 236, B: 244, A: 255}
)

var helpLines = []string{
	"Ctrl+B / Ctrl+I / Ctrl+U: Bold / Italic / Underline",
	"Ctrl+Shift+L / E / R: Align left / centre / right",
	"Ctrl+. / Ctrl+,: Larger / smaller block font",
	"Ctrl+Z: Undo | Ctrl+Y or Ctrl+Shift+Z: Redo",
	"Enter: Split block | Shift+Enter: Line break",
	"Tab: Indent block | Backspace at start: Remove block",
	"Ctrl+C / Ctrl+X / Ctrl+V: Copy / Cut / Paste",
	"Ctrl+N: New note | Ctrl+F: Search | Ctrl+P: Pin",
	"F2: Rename | Ctrl+D: Delete note",
	"Ctrl+S: Save | Ctrl+Shift+S: Export | Ctrl+O: Import",
	"Ctrl+= / Ctrl+-: Interface scale",
	"F1 or Esc closes this dialog",
}

func (a *App) uiFace(size int, bold bool) font.Face {
	return a.fonts.face(size, bold, false, a.scale())
}

// layoutChrome places the toolbar buttons, the search box and the note rows
// for the current shell layout. It runs before input so clicks hit what was
// drawn.
func (a *App) layoutChrome() {
	face := a.uiFace(11, false)
	sess := a.ws.Session()
	active := notedoc.FormatSet(0)
	align := notedoc.AlignLeft
	if sess != nil {
		active = sess.ActiveFormats()
		align = sess.CurrentBlock().Align
	}

	t := a.shell.Toolbar
	pad := a.shell.Dp(6)
	gap := a.shell.Dp(12)
	x := t.X + pad
	y := t.Y + pad
	h := t.H - pad*2
	a.buttons = a.buttons[:0]
	add := func(id, label string, on bool) {
		w := measureString(face, label) + a.shell.Dp(16)
		a.buttons = append(a.buttons, button{id: id, label: label, r: ui.Rect{X: x, Y: y, W: w, H: h}, active: on})
		x += w + pad
	}
	add("bold", "B", active.Has(notedoc.Bold))
	add("italic", "I", active.Has(notedoc.Italic))
	add("underline", "U", active.Has(notedoc.Underline))
	x += gap
	add("align_left", "Left", align == notedoc.AlignLeft)
	add("align_center", "Centre", align == notedoc.AlignCenter)
	add("align_right", "Right", align == notedoc.AlignRight)
	x += gap
	add("font_down", "A-", false)
	a.sizeLabel = ui.Rect{X: x, Y: y, W: measureString(face, "28px") + a.shell.Dp(8), H: h}
	x += a.sizeLabel.W + pad
	add("font_up", "A+", false)
	x += gap
	add("undo", "Undo", false)
	add("redo", "Redo", false)
	x += gap
	add("export", "Export", false)
	add("import", "Import", false)
	add("help", "Help", false)

	s := a.shell.Sidebar
	a.search = ui.Rect{X: s.X + pad*2, Y: s.Y + pad*2, W: s.W - pad*4, H: a.shell.Dp(28)}
	a.rows = a.rows[:0]
	rowH := a.shell.Dp(46)
	ry := a.search.Y + a.search.H + pad*2
	for _, n := range a.ws.Notes() {
		if ry+rowH > s.Y+s.H {
			break
		}
		a.rows = append(a.rows, noteRow{id: n.ID, r: ui.Rect{X: s.X, Y: ry, W: s.W - 1, H: rowH}})
		ry += rowH
	}
}

func (a *App) Draw(screen *ebiten.Image) {
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	if a.frameBuffer == nil {
		a.frameBuffer = render.NewFrameBuffer(w, h)
		a.canvas = ebiten.NewImage(w, h)
	} else if a.frameBuffer.Resize(w, h) {
		a.canvas = ebiten.NewImage(w, h)
	}
	if a.shell.Scale == 0 {
		a.shell = ui.ComputeLayout(w, h, a.theme, a.scale())
		a.layoutChrome()
	}

	ui.DrawShell(a.frameBuffer, a.theme, a.shell)
	a.drawChrome()
	a.drawHighlights()
	a.drawScrollbar()
	a.canvas.WritePixels(a.frameBuffer.Pixels)
	screen.DrawImage(a.canvas, nil)

	a.drawDocumentText(screen)
	a.drawChromeLabels(screen)
	a.drawStatus(screen, h)

	if a.prompt != nil {
		a.drawPrompt(screen, w, h)
	}
	if a.showHelp {
		a.drawHelp(screen, w, h)
	}
}

func (a *App) drawChrome() {
	fb, th := a.frameBuffer, a.theme
	for _, b := range a.buttons {
		bg := th.Toolbar
		if b.active {
			bg = th.ToolbarActive
		}
		fb.FillRect(b.r.X, b.r.Y, b.r.W, b.r.H, bg)
		fb.StrokeRect(b.r.X, b.r.Y, b.r.W, b.r.H, 1, th.Border)
	}

	s := a.search
	fb.FillRect(s.X, s.Y, s.W, s.H, th.Page)
	fb.StrokeRect(s.X, s.Y, s.W, s.H, 1, th.Border)

	current := ""
	if n := a.ws.Note(); n != nil {
		current = n.ID
	}
	for _, row := range a.rows {
		if row.id == current {
			fb.FillRect(row.r.X, row.r.Y, row.r.W, row.r.H, th.SidebarActive)
			fb.FillRect(row.r.X, row.r.Y, max(a.shell.Dp(3), 1), row.r.H, th.Accent)
		}
		fb.FillRect(row.r.X+a.shell.Dp(12), row.r.Y+row.r.H-1, row.r.W-a.shell.Dp(24), 1, th.Shadow)
	}
}

// drawHighlights paints glossary terms, the selection and the caret of the
// open note into the frame buffer, clipped to the page content.
func (a *App) drawHighlights() {
	if a.doc == nil {
		return
	}
	c := a.shell.Content
	top := c.Y - int(a.scrollY)
	for _, lb := range a.doc.Blocks {
		for _, line := range lb.Lines {
			for _, p := range line.Pieces {
				if lb.Segments[p.Seg].Term == "" || p.Width == 0 {
					continue
				}
				a.fillContent(c.X+p.X, top+line.Y, p.Width, line.Height, a.theme.TermHighlight)
			}
		}
	}

	sess := a.ws.Session()
	if sess == nil {
		return
	}
	idx := sess.CurrentIndex()
	if idx >= len(a.doc.Blocks) {
		return
	}
	sel := sess.Selection()
	if !sel.Collapsed() {
		for _, r := range a.doc.SelectionRects(idx, sel.Start, sel.End) {
			a.fillContent(c.X+r[0], top+r[1], r[2], r[3], a.theme.Selection)
		}
		return
	}
	if a.prompt != nil || (a.frameTick/30)%2 == 1 {
		return
	}
	vs := editor.ToView(a.doc.Blocks[idx].Root, sel)
	x, y, h := a.doc.PointAt(idx, vs.Focus.Node, vs.Focus.Offset)
	a.fillContent(c.X+x, top+y, max(a.shell.Dp(2), 1), h, a.theme.Caret)
}

func (a *App) drawScrollbar() {
	if a.maxY <= 0 {
		return
	}
	p := a.shell.Page
	trackX := p.X + p.W - a.shell.Dp(8)
	trackY := p.Y + a.shell.Dp(8)
	trackH := p.H - a.shell.Dp(16)
	visible := float64(a.shell.Content.H)
	thumbH := max(a.shell.Dp(24), int(float64(trackH)*visible/(visible+a.maxY)))
	thumbY := trackY + int(a.scrollY/a.maxY*float64(trackH-thumbH))
	a.frameBuffer.FillRect(trackX, trackY, 4, trackH, scrollBg)
	a.frameBuffer.FillRect(trackX, thumbY, 4, thumbH, scrollBar)
}

// fillContent fills the part of the rectangle that lies inside the page
// content area.
func (a *App) fillContent(x, y, w, h int, c color.RGBA) {
	r := a.shell.Content
	x0, y0 := max(x, r.X), max(y, r.Y)
	x1, y1 := min(x+w, r.X+r.W), min(y+h, r.Y+r.H)
	if x1 <= x0 || y1 <= y0 {
		return
	}
	a.frameBuffer.FillRect(x0, y0, x1-x0, y1-y0, c)
}

func (a *App) drawDocumentText(screen *ebiten.Image) {
	c := a.shell.Content
	if a.doc == nil || c.W <= 0 || c.H <= 0 {
		return
	}
	layer := screen.SubImage(image.Rect(c.X, c.Y, c.X+c.W, c.Y+c.H)).(*ebiten.Image)
	top := c.Y - int(a.scrollY)
	thickness := max(a.shell.Dp(1), 1)
	for _, lb := range a.doc.Blocks {
		if top+lb.Y > c.Y+c.H || top+lb.Y+lb.Height < c.Y {
			continue
		}
		for _, line := range lb.Lines {
			baseline := top + line.Y + line.Ascent
			for _, p := range line.Pieces {
				s := strings.TrimSuffix(p.Text, "\n")
				if s == "" {
					continue
				}
				x := c.X + p.X
				text.Draw(layer, s, lb.Faces[p.Seg], x, baseline, a.theme.Text)
				if lb.Segments[p.Seg].Formats.Has(notedoc.Underline) {
					a.fillImage(layer, x, baseline+thickness, p.Width, thickness, a.theme.Text)
				}
			}
		}
	}
}

func (a *App) drawChromeLabels(screen *ebiten.Image) {
	face := a.uiFace(11, false)
	bold := a.uiFace(11, true)
	ascent := face.Metrics().Ascent.Round()
	for _, b := range a.buttons {
		f := face
		if b.id == "bold" {
			f = bold
		}
		lw := measureString(f, b.label)
		baseline := b.r.Y + (b.r.H+ascent)/2 - 1
		text.Draw(screen, b.label, f, b.r.X+(b.r.W-lw)/2, baseline, a.theme.Text)
		if b.id == "underline" {
			a.fillImage(screen, b.r.X+(b.r.W-lw)/2, baseline+1, lw, 1, a.theme.Text)
		}
	}
	if sess := a.ws.Session(); sess != nil {
		size := fmt.Sprintf("%dpx", sess.CurrentBlock().FontSize)
		r := a.sizeLabel
		text.Draw(screen, size, face, r.X+(r.W-measureString(face, size))/2, r.Y+(r.H+ascent)/2-1, a.theme.MutedText)
	}

	s := a.search
	query, clr := a.ws.Query(), a.theme.Text
	if query == "" {
		query, clr = "Search (Ctrl+F)", a.theme.MutedText
	}
	text.Draw(screen, query, face, s.X+a.shell.Dp(8), s.Y+(s.H+ascent)/2-1, clr)

	small := a.uiFace(10, false)
	notes := a.ws.Notes()
	pad := a.shell.Dp(14)
	for i, row := range a.rows {
		if i >= len(notes) || notes[i].ID != row.id {
			break
		}
		n := notes[i]
		title := n.Title
		if n.Pinned {
			title = "• " + title
		}
		text.Draw(screen, title, bold, row.r.X+pad, row.r.Y+a.shell.Dp(18), a.theme.Text)
		summary := store.Summary(n, 32)
		if summary == "" {
			summary = "Empty note"
		}
		text.Draw(screen, summary, small, row.r.X+pad, row.r.Y+a.shell.Dp(36), a.theme.MutedText)
	}
	if len(notes) == 0 {
		text.Draw(screen, "No notes", small, a.shell.Sidebar.X+pad, a.search.Y+a.search.H+a.shell.Dp(28), a.theme.MutedText)
	}
}

func (a *App) drawStatus(screen *ebiten.Image, h int) {
	face := a.uiFace(10, false)
	sess := a.ws.Session()
	if sess == nil {
		return
	}
	saved := "Saved"
	if a.ws.Dirty() {
		saved = "Unsaved"
	}
	left := fmt.Sprintf("[ Block %d/%d ] [ Caret %d ] [ Font %dpx ] [ %s ]",
		sess.CurrentIndex()+1, sess.BlockCount(), sess.Caret(), sess.CurrentBlock().FontSize, saved)
	right := a.status
	if term := a.termAtCaret(); term != "" {
		right = term + ": " + a.ws.Definition(term)
	}
	baseline := h - a.shell.Dp(8)
	x := a.shell.Dp(12)
	text.Draw(screen, left, face, x, baseline, a.theme.MutedText)
	text.Draw(screen, right, face, x+measureString(face, left)+a.shell.Dp(24), baseline, a.theme.Text)
}

// termAtCaret returns the glossary term whose mark holds the caret.
func (a *App) termAtCaret() string {
	sess := a.ws.Session()
	if a.doc == nil || sess.CurrentIndex() >= len(a.doc.Blocks) {
		return ""
	}
	lb := a.doc.Blocks[sess.CurrentIndex()]
	node, _ := view.ToViewPosition(lb.Root, sess.Caret())
	for _, seg := range lb.Segments {
		if seg.Node == node {
			return seg.Term
		}
	}
	return ""
}

func (a *App) drawPrompt(screen *ebiten.Image, w, h int) {
	p := a.prompt
	a.fillImage(screen, 0, 0, w, h, a.theme.Overlay)
	pw, ph := a.shell.Dp(440), a.shell.Dp(164)
	x, y := (w-pw)/2, (h-ph)/2
	a.fillImage(screen, x+2, y+2, pw, ph, a.theme.Shadow)
	a.fillImage(screen, x, y, pw, ph, a.theme.Page)
	a.fillImage(screen, x, y, pw, max(a.shell.Dp(3), 1), a.theme.Accent)

	pad := a.shell.Dp(20)
	text.Draw(screen, p.title, a.uiFace(12, true), x+pad, y+a.shell.Dp(32), a.theme.Text)
	face := a.uiFace(10, false)
	text.Draw(screen, p.label, face, x+pad, y+a.shell.Dp(54), a.theme.MutedText)

	box := ui.Rect{X: x + pad, Y: y + a.shell.Dp(66), W: pw - pad*2, H: a.shell.Dp(30)}
	a.fillImage(screen, box.X, box.Y, box.W, box.H, a.theme.Border)
	a.fillImage(screen, box.X+1, box.Y+1, box.W-2, box.H-2, a.theme.Page)
	input := p.input
	if p.masked {
		input = strings.Repeat("•", utf8.RuneCountInString(p.input))
	}
	ascent := face.Metrics().Ascent.Round()
	baseline := box.Y + (box.H+ascent)/2 - 1
	text.Draw(screen, input, face, box.X+a.shell.Dp(8), baseline, a.theme.Text)
	if (a.frameTick/30)%2 == 0 {
		cx := box.X + a.shell.Dp(8) + measureString(face, input) + 1
		a.fillImage(screen, cx, box.Y+a.shell.Dp(6), max(a.shell.Dp(1), 1), box.H-a.shell.Dp(12), a.theme.Caret)
	}

	hint, clr := "Enter to confirm, Esc to cancel", a.theme.MutedText
	if p.err != "" {
		hint, clr = p.err, errorText
	}
	text.Draw(screen, hint, face, x+pad, box.Y+box.H+a.shell.Dp(24), clr)
}

func (a *App) drawHelp(screen *ebiten.Image, w, h int) {
	a.fillImage(screen, 0, 0, w, h, a.theme.Overlay)
	lineH := a.shell.Dp(24)
	pw := a.shell.Dp(480)
	ph := a.shell.Dp(72) + lineH*len(helpLines)
	x, y := (w-pw)/2, max((h-ph)/2, 0)
	a.fillImage(screen, x+2, y+2, pw, ph, a.theme.Shadow)
	a.fillImage(screen, x, y, pw, ph, a.theme.Page)
	a.fillImage(screen, x, y, pw, max(a.shell.Dp(3), 1), a.theme.Accent)

	pad := a.shell.Dp(22)
	text.Draw(screen, "Keyboard shortcuts", a.uiFace(12, true), x+pad, y+a.shell.Dp(32), a.theme.Text)
	face := a.uiFace(10, false)
	ly := y + a.shell.Dp(62)
	for _, l := range helpLines {
		text.Draw(screen, l, face, x+pad, ly, a.theme.Text)
		ly += lineH
	}
}

// fillImage draws a solid rectangle onto dst by stretching the 1x1 pixel
// image.
func (a *App) fillImage(dst *ebiten.Image, x, y, w, h int, c color.RGBA) {
	if w <= 0 || h <= 0 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(w), float64(h))
	op.GeoM.Translate(float64(x), float64(y))
	op.ColorScale.ScaleWithColor(c)
	dst.DrawImage(a.pixel, op)
}
