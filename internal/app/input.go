package app

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"blocknote/internal/editor"
	"blocknote/internal/view"
	"blocknote/pkg/notedoc"
)

// repeated reports a key press on its first frame and then at the usual
// auto-repeat rate while it is held.
func repeated(key ebiten.Key) bool {
	d := inpututil.KeyPressDuration(key)
	return d == 1 || (d >= 30 && (d-30)%4 == 0)
}

func modifiers() (ctrl, shift bool) {
	ctrl = ebiten.IsKeyPressed(ebiten.KeyControl) || ebiten.IsKeyPressed(ebiten.KeyMeta)
	shift = ebiten.IsKeyPressed(ebiten.KeyShift)
	return ctrl, shift
}

func (a *App) handleScroll() {
	_, wheelY := ebiten.Wheel()
	if wheelY != 0 {
		a.scrollY -= wheelY * float64(a.shell.Dp(42))
	}
	if repeated(ebiten.KeyPageDown) {
		a.scrollY += float64(a.shell.Content.H) * 0.8
	}
	if repeated(ebiten.KeyPageUp) {
		a.scrollY -= float64(a.shell.Content.H) * 0.8
	}
	a.clampScroll()
}

func (a *App) handleMouse() {
	x, y := ebiten.CursorPosition()
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		_, shift := modifiers()
		switch {
		case a.clickButton(x, y):
		case a.search.Contains(x, y):
			a.openSearch()
		case a.clickNote(x, y):
		case a.shell.Canvas.Contains(x, y):
			a.pressText(x, y, shift)
		}
	}
	if a.dragSelecting && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		a.dragText(x, y)
	}
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		a.dragSelecting = false
	}
}

func (a *App) clickButton(x, y int) bool {
	for _, b := range a.buttons {
		if b.r.Contains(x, y) {
			a.invokeAction(b.id)
			return true
		}
	}
	return false
}

func (a *App) clickNote(x, y int) bool {
	for _, row := range a.rows {
		if !row.r.Contains(x, y) {
			continue
		}
		if note := a.ws.Note(); note != nil && note.ID == row.id {
			return true
		}
		if err := a.ws.Open(a.ctx, row.id); err != nil {
			a.fail("Open note", err)
			return true
		}
		a.scrollY = 0
		a.status = "Opened " + a.ws.Note().Title
		return true
	}
	return false
}

// hit maps a window point to a block and a logical offset through the
// rendered tree of that block.
func (a *App) hit(x, y int) (int, int, bool) {
	c := a.shell.Content
	bi, node, off := a.doc.HitTest(x-c.X, y-c.Y+int(a.scrollY))
	if bi < 0 {
		return 0, 0, false
	}
	return bi, view.ToLogicalOffset(a.doc.Blocks[bi].Root, node, off), true
}

func (a *App) pressText(x, y int, shift bool) {
	bi, off, ok := a.hit(x, y)
	if !ok {
		return
	}
	sess := a.ws.Session()
	anchor := off
	if shift && bi == sess.CurrentIndex() {
		anchor = sess.Selection().Start
		if sess.Caret() == sess.Selection().Start {
			anchor = sess.Selection().End
		}
	}
	a.dragSelecting = true
	a.dragBlock = bi
	a.dragAnchor = anchor
	a.selectInBlock(bi, anchor, off)
}

// dragText extends the selection while the button is held. Selections stay
// inside the block where the drag started.
func (a *App) dragText(x, y int) {
	bi, off, ok := a.hit(x, y)
	if !ok || bi >= len(a.doc.Blocks) || a.dragBlock >= len(a.doc.Blocks) {
		return
	}
	switch {
	case bi < a.dragBlock:
		off = 0
	case bi > a.dragBlock:
		off = a.ws.Session().Block(a.dragBlock).Len()
	}
	a.selectInBlock(a.dragBlock, a.dragAnchor, off)
}

// selectInBlock reports a selection the way the editing surface sees it:
// as two points in the block's rendered tree.
func (a *App) selectInBlock(bi, anchor, focus int) {
	lb := a.doc.Blocks[bi]
	an, ao := view.ToViewPosition(lb.Root, anchor)
	fn, fo := view.ToViewPosition(lb.Root, focus)
	_, err := a.ws.Session().SyncFromView(lb.ID, lb.Root, editor.ViewPoint{Node: an, Offset: ao}, editor.ViewPoint{Node: fn, Offset: fo})
	if err != nil {
		a.fail("Select", err)
	}
}

func (a *App) handleShortcuts() {
	ctrl, shift := modifiers()
	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		a.showHelp = true
		return
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF2) {
		a.invokeAction("rename")
		return
	}
	if !ctrl {
		return
	}
	sess := a.ws.Session()
	pressed := inpututil.IsKeyJustPressed
	switch {
	case pressed(ebiten.KeyZ) && shift, pressed(ebiten.KeyY):
		a.invokeAction("redo")
	case pressed(ebiten.KeyZ):
		a.invokeAction("undo")
	case pressed(ebiten.KeyB):
		a.invokeAction("bold")
	case pressed(ebiten.KeyI):
		a.invokeAction("italic")
	case pressed(ebiten.KeyU):
		a.invokeAction("underline")
	case pressed(ebiten.KeyL) && shift:
		a.invokeAction("align_left")
	case pressed(ebiten.KeyE) && shift:
		a.invokeAction("align_center")
	case pressed(ebiten.KeyR) && shift:
		a.invokeAction("align_right")
	case pressed(ebiten.KeyPeriod):
		a.invokeAction("font_up")
	case pressed(ebiten.KeyComma):
		a.invokeAction("font_down")
	case pressed(ebiten.KeyEqual), pressed(ebiten.KeyKPAdd):
		a.bumpUIScale(1)
	case pressed(ebiten.KeyMinus), pressed(ebiten.KeyKPSubtract):
		a.bumpUIScale(-1)
	case pressed(ebiten.KeyA):
		sess.SelectBlock()
	case pressed(ebiten.KeyC):
		a.copySelection(false)
	case pressed(ebiten.KeyX):
		a.copySelection(true)
	case pressed(ebiten.KeyV):
		a.paste()
	case pressed(ebiten.KeyS) && shift:
		a.invokeAction("export")
	case pressed(ebiten.KeyS):
		a.invokeAction("save")
	case pressed(ebiten.KeyO):
		a.invokeAction("import")
	case pressed(ebiten.KeyN):
		a.invokeAction("new")
	case pressed(ebiten.KeyP):
		a.invokeAction("pin")
	case pressed(ebiten.KeyD):
		a.invokeAction("delete")
	case pressed(ebiten.KeyF):
		a.openSearch()
	}
}

func (a *App) handleNavigation() {
	ctrl, shift := modifiers()
	sess := a.ws.Session()
	switch {
	case repeated(ebiten.KeyArrowLeft):
		switch {
		case shift:
			sess.ExtendLeft()
		case ctrl:
			sess.MoveWordLeft()
		default:
			sess.MoveLeft()
		}
	case repeated(ebiten.KeyArrowRight):
		switch {
		case shift:
			sess.ExtendRight()
		case ctrl:
			sess.MoveWordRight()
		default:
			sess.MoveRight()
		}
	case repeated(ebiten.KeyArrowUp):
		sess.MoveUp()
	case repeated(ebiten.KeyArrowDown):
		sess.MoveDown()
	case inpututil.IsKeyJustPressed(ebiten.KeyHome):
		if shift {
			sess.ExtendHome()
		} else {
			sess.Home()
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyEnd):
		if shift {
			sess.ExtendEnd()
		} else {
			sess.End()
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		sess.SetCaret(sess.CurrentIndex(), sess.Caret())
	}
}

// handleEditing routes editing keys. Structural keys go to the session;
// everything else edits the rendered tree, which is then read back.
func (a *App) handleEditing() {
	ctrl, shift := modifiers()
	if ctrl {
		return
	}
	sess := a.ws.Session()
	switch {
	case repeated(ebiten.KeyEnter), repeated(ebiten.KeyKPEnter):
		if !sess.HandleKey(editor.Key{Code: editor.KeyEnter, Shift: shift}) {
			a.insertText("\n")
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyTab):
		sess.HandleKey(editor.Key{Code: editor.KeyTab})
	case repeated(ebiten.KeyBackspace):
		if sess.HandleKey(editor.Key{Code: editor.KeyBackspace}) {
			return
		}
		if !sess.HasSelection() {
			sess.ExtendLeft()
		}
		a.deleteSelection()
	case repeated(ebiten.KeyDelete):
		if !sess.HasSelection() {
			sess.ExtendRight()
		}
		a.deleteSelection()
	}

	var typed []rune
	for _, r := range ebiten.AppendInputChars(nil) {
		if r < 0x20 || r == 0x7F || !utf8.ValidRune(r) {
			continue
		}
		typed = append(typed, r)
	}
	if len(typed) > 0 {
		a.insertText(string(typed))
	}
}

// insertText types s at the caret: the selection is removed first, then s
// is inserted into the text node under the caret and the block is synced
// back from the edited tree.
func (a *App) insertText(s string) {
	sess := a.ws.Session()
	if sess.HasSelection() {
		a.deleteSelection()
	}
	b := sess.CurrentBlock()
	root := view.Render(b, a.ws.Marks(b))
	node, off := view.InsertText(root, sess.Caret(), s)
	if node == nil {
		return
	}
	at := editor.ViewPoint{Node: node, Offset: off}
	if _, err := sess.SyncFromView(b.ID, root, at, at); err != nil {
		a.fail("Insert", err)
	}
}

func (a *App) deleteSelection() {
	sess := a.ws.Session()
	sel := sess.Selection()
	if sel.Collapsed() {
		return
	}
	b := sess.CurrentBlock()
	root := view.Render(b, a.ws.Marks(b))
	view.DeleteRange(root, sel.Start, sel.End)
	node, off := view.ToViewPosition(root, sel.Start)
	at := editor.ViewPoint{Node: node, Offset: off}
	if _, err := sess.SyncFromView(b.ID, root, at, at); err != nil {
		a.fail("Delete", err)
	}
}

func (a *App) copySelection(cut bool) {
	sess := a.ws.Session()
	if !sess.HasSelection() {
		return
	}
	if err := clipboard.WriteAll(sess.SelectedText()); err != nil {
		a.fail("Copy", err)
		return
	}
	if cut {
		a.deleteSelection()
		a.status = "Cut"
		return
	}
	a.status = "Copied"
}

// paste inserts clipboard text. Each line break becomes a block split, as
// if the user had pressed Enter.
func (a *App) paste() {
	text, err := clipboard.ReadAll()
	if err != nil {
		a.fail("Paste", err)
		return
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if text == "" {
		return
	}
	sess := a.ws.Session()
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			sess.HandleKey(editor.Key{Code: editor.KeyEnter})
		}
		if line != "" {
			a.insertText(line)
		}
	}
}

func (a *App) invokeAction(id string) {
	sess := a.ws.Session()
	switch id {
	case "bold", "italic", "underline":
		a.toggleFormat(id)
	case "align_left":
		sess.SetAlignment(notedoc.AlignLeft)
	case "align_center":
		sess.SetAlignment(notedoc.AlignCenter)
	case "align_right":
		sess.SetAlignment(notedoc.AlignRight)
	case "font_up":
		a.stepFontSize(1)
	case "font_down":
		a.stepFontSize(-1)
	case "undo":
		if !sess.Undo() {
			a.status = "Nothing to undo"
		}
	case "redo":
		if !sess.Redo() {
			a.status = "Nothing to redo"
		}
	case "save":
		if err := a.ws.Flush(a.ctx); err != nil {
			a.fail("Save", err)
			return
		}
		a.status = "Saved"
	case "new":
		if err := a.ws.NewNote(a.ctx); err != nil {
			a.fail("New note", err)
			return
		}
		a.scrollY = 0
		a.status = "New note"
	case "pin":
		if err := a.ws.TogglePin(a.ctx); err != nil {
			a.fail("Pin", err)
			return
		}
		if a.ws.Note().Pinned {
			a.status = "Pinned"
		} else {
			a.status = "Unpinned"
		}
	case "delete":
		a.deleteNote()
	case "rename":
		a.openRename()
	case "export":
		a.exportNote()
	case "import":
		a.importNote()
	case "help":
		a.showHelp = true
	}
}

var formatActions = map[string]notedoc.Format{
	"bold":      notedoc.Bold,
	"italic":    notedoc.Italic,
	"underline": notedoc.Underline,
}

func (a *App) toggleFormat(id string) {
	f, ok := formatActions[id]
	if !ok {
		a.fail("Format", editor.ErrUnknownFormat)
		return
	}
	sess := a.ws.Session()
	if !sess.HasSelection() {
		a.status = "Select text to format"
		return
	}
	if err := sess.ToggleFormat(f); err != nil {
		if errors.Is(err, editor.ErrUnknownFormat) {
			a.status = "Unknown format"
			return
		}
		a.fail("Format", err)
	}
}

func (a *App) stepFontSize(delta int) {
	sess := a.ws.Session()
	cur := sess.CurrentBlock().FontSize
	idx := 0
	for i, size := range editor.FontSizes {
		if size <= cur {
			idx = i
		}
	}
	idx = min(max(idx+delta, 0), len(editor.FontSizes)-1)
	if sess.SetFontSize(editor.FontSizes[idx]) {
		a.status = "Font size " + strconv.Itoa(editor.FontSizes[idx]) + "px"
	}
}
