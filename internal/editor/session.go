package editor

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"blocknote/internal/logger"
	"blocknote/internal/view"
	"blocknote/pkg/notedoc"
)

var ErrBlockNotFound = errors.New("editor: block not found")

// FontSizes are the block font sizes offered to the user.
var FontSizes = []int{12, 14, 16, 18, 20, 24, 28}

type KeyCode uint8

const (
	KeyOther KeyCode = iota
	KeyEnter
	KeyBackspace
	KeyTab
)

type Key struct {
	Code  KeyCode
	Shift bool
}

type Options struct {
	// IndentText is the content of blocks inserted by Tab.
	IndentText   string
	HistoryLimit int
	// FontSize and Align style the blocks inserted by Tab.
	FontSize int
	Align    notedoc.Alignment
	// NewID generates block ids. Defaults to random UUIDs.
	NewID func() string
}

// Session owns the block sequence of one open note together with the caret
// and selection inside it. All mutation goes through Session; views only
// read the sequence and the logical selection.
type Session struct {
	seq     notedoc.Sequence
	current int
	anchor  int
	caret   int

	opts    Options
	history *History
	// typingBlock is the block whose text edits are being coalesced into
	// one undo step, or "" when the next edit starts a new step.
	typingBlock string

	// OnChange receives a copy of the sequence after every committed change.
	OnChange func(notedoc.Sequence)
}

func NewSession(seq notedoc.Sequence, opts Options) *Session {
	if opts.NewID == nil {
		opts.NewID = NewBlockID
	}
	if opts.IndentText == "" {
		opts.IndentText = notedoc.IndentText
	}
	if opts.FontSize <= 0 {
		opts.FontSize = notedoc.DefaultFontSize
	}
	if !opts.Align.Valid() {
		opts.Align = notedoc.AlignLeft
	}
	s := &Session{
		seq:     notedoc.Normalize(notedoc.CloneSequence(seq), opts.NewID),
		opts:    opts,
		history: NewHistory(opts.HistoryLimit),
	}
	return s
}

func NewBlockID() string { return uuid.NewString() }

// Sequence returns a copy of the current block sequence.
func (s *Session) Sequence() notedoc.Sequence { return notedoc.CloneSequence(s.seq) }

func (s *Session) BlockCount() int { return len(s.seq.Blocks) }

func (s *Session) Block(i int) notedoc.Block {
	if i < 0 || i >= len(s.seq.Blocks) {
		return notedoc.Block{}
	}
	return notedoc.CloneBlock(s.seq.Blocks[i])
}

func (s *Session) CurrentIndex() int { return s.current }

func (s *Session) CurrentBlock() notedoc.Block { return s.Block(s.current) }

func (s *Session) Caret() int { return s.caret }

// Selection returns the ordered logical selection in the current block.
func (s *Session) Selection() LogicalSelection {
	start, end := s.anchor, s.caret
	if start > end {
		start, end = end, start
	}
	return LogicalSelection{BlockID: s.seq.Blocks[s.current].ID, Start: start, End: end}
}

func (s *Session) HasSelection() bool { return s.anchor != s.caret }

// SetSelection moves the selection. Offsets are clamped to the block; an
// unknown block id leaves the selection untouched.
func (s *Session) SetSelection(sel LogicalSelection) error {
	i := s.seq.IndexOf(sel.BlockID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, sel.BlockID)
	}
	n := s.seq.Blocks[i].Len()
	s.current = i
	s.anchor = clamp(sel.Start, 0, n)
	s.caret = clamp(sel.End, 0, n)
	s.typingBlock = ""
	return nil
}

// SetCaret collapses the selection at offset in block index.
func (s *Session) SetCaret(index, offset int) {
	index = clamp(index, 0, len(s.seq.Blocks)-1)
	s.current = index
	s.caret = clamp(offset, 0, s.seq.Blocks[index].Len())
	s.anchor = s.caret
	s.typingBlock = ""
}

// HandleKey runs the structural transition bound to k. It reports whether
// the key was consumed; unconsumed keys are ordinary text editing and belong
// to the view.
func (s *Session) HandleKey(k Key) bool {
	switch k.Code {
	case KeyEnter:
		if k.Shift {
			return false
		}
		s.Enter()
		return true
	case KeyBackspace:
		return s.Backspace()
	case KeyTab:
		s.Tab()
		return true
	}
	return false
}

// Enter splits the current block at the caret. The left half keeps the
// block id, the right half gets a fresh one and receives the caret.
func (s *Session) Enter() {
	s.record()
	b := s.seq.Blocks[s.current]
	sel := s.Selection()
	runs := b.Runs
	if !sel.Collapsed() {
		runs = deleteRuns(runs, sel.Start, sel.End)
	}
	left, right := splitRuns(runs, sel.Start)

	leftBlock := notedoc.CloneBlock(b)
	leftBlock.Runs = left
	rightBlock := notedoc.NewBlock(s.opts.NewID(), right, b.Align, b.FontSize)

	blocks := make([]notedoc.Block, 0, len(s.seq.Blocks)+1)
	blocks = append(blocks, s.seq.Blocks[:s.current]...)
	blocks = append(blocks, leftBlock, rightBlock)
	blocks = append(blocks, s.seq.Blocks[s.current+1:]...)
	s.seq.Blocks = blocks

	s.current++
	s.anchor, s.caret = 0, 0
	logger.Debugf("split block %s at %d, new block %s", b.ID, sel.Start, rightBlock.ID)
	s.commit()
}

// Backspace removes the current block when the caret sits at offset 0 of a
// block other than the first, moving the caret to the end of the previous
// block. It reports whether it did anything.
func (s *Session) Backspace() bool {
	if s.HasSelection() || s.caret != 0 || s.current == 0 {
		return false
	}
	s.record()
	removed := s.seq.Blocks[s.current].ID
	s.seq.Blocks = append(s.seq.Blocks[:s.current:s.current], s.seq.Blocks[s.current+1:]...)
	s.current--
	s.caret = s.seq.Blocks[s.current].Len()
	s.anchor = s.caret
	logger.Debugf("removed block %s", removed)
	s.commit()
	return true
}

// Tab inserts an indented block after the current one. The current block
// and the caret are left alone.
func (s *Session) Tab() {
	s.record()
	nb := notedoc.NewBlock(s.opts.NewID(), []notedoc.Run{{Text: s.opts.IndentText}}, s.opts.Align, s.opts.FontSize)
	i := s.current + 1
	blocks := make([]notedoc.Block, 0, len(s.seq.Blocks)+1)
	blocks = append(blocks, s.seq.Blocks[:i]...)
	blocks = append(blocks, nb)
	blocks = append(blocks, s.seq.Blocks[i:]...)
	s.seq.Blocks = blocks
	logger.Debugf("inserted indent block %s after %s", nb.ID, s.seq.Blocks[s.current].ID)
	s.commit()
}

// ToggleFormat applies f to the current selection. A collapsed selection
// changes nothing.
func (s *Session) ToggleFormat(f notedoc.Format) error {
	sel := s.Selection()
	b := s.seq.Blocks[s.current]
	out, err := ApplyFormat(b, sel.Start, sel.End, f)
	if err != nil {
		return err
	}
	if sameRuns(out.Runs, b.Runs) {
		return nil
	}
	s.record()
	s.seq.Blocks[s.current] = out
	s.commit()
	return nil
}

// ActiveFormats reports the formats shared by the whole selection, or the
// formats at the caret when nothing is selected.
func (s *Session) ActiveFormats() notedoc.FormatSet {
	sel := s.Selection()
	b := s.seq.Blocks[s.current]
	var set notedoc.FormatSet
	for _, f := range notedoc.Formats {
		if sel.Collapsed() {
			if FormatsAt(b, max(sel.Start-1, 0)).Has(f) {
				set = set.With(f)
			}
			continue
		}
		if HasFormat(b, sel.Start, sel.End, f) {
			set = set.With(f)
		}
	}
	return set
}

// SyncFromView rebuilds a block from its edited view tree. Runs and their
// formats are read back from the tree and the view selection is converted to
// a logical selection, which becomes the session selection.
func (s *Session) SyncFromView(blockID string, root *view.Node, anchor, focus ViewPoint) (LogicalSelection, error) {
	i := s.seq.IndexOf(blockID)
	if i < 0 {
		logger.Warnf("sync from view: unknown block %s", blockID)
		return s.Selection(), fmt.Errorf("%w: %s", ErrBlockNotFound, blockID)
	}
	runs := view.ReadRuns(root)
	a := view.ToLogicalOffset(root, anchor.Node, anchor.Offset)
	c := view.ToLogicalOffset(root, focus.Node, focus.Offset)

	if !sameRuns(runs, s.seq.Blocks[i].Runs) {
		if s.typingBlock != blockID {
			s.record()
		}
		s.seq.Blocks[i].Runs = runs
		s.current, s.anchor, s.caret = i, a, c
		s.commit()
		s.typingBlock = blockID
	} else if i != s.current || a != s.anchor || c != s.caret {
		s.current, s.anchor, s.caret = i, a, c
		s.typingBlock = ""
	}
	return s.Selection(), nil
}

// SetAlignment changes the alignment of the current block.
func (s *Session) SetAlignment(a notedoc.Alignment) bool {
	b := &s.seq.Blocks[s.current]
	if !a.Valid() || b.Align == a {
		return false
	}
	s.record()
	b.Align = a
	s.commit()
	return true
}

// SetFontSize changes the font size of the current block. Only sizes listed
// in FontSizes are accepted.
func (s *Session) SetFontSize(size int) bool {
	if !validFontSize(size) || s.seq.Blocks[s.current].FontSize == size {
		return false
	}
	s.record()
	s.seq.Blocks[s.current].FontSize = size
	s.commit()
	return true
}

func (s *Session) CanUndo() bool { return s.history.CanUndo() }
func (s *Session) CanRedo() bool { return s.history.CanRedo() }

func (s *Session) Undo() bool {
	last, ok := s.history.popUndo(s.snapshot())
	if !ok {
		return false
	}
	s.restore(last)
	return true
}

func (s *Session) Redo() bool {
	last, ok := s.history.popRedo(s.snapshot())
	if !ok {
		return false
	}
	s.restore(last)
	return true
}

func (s *Session) snapshot() snapshot {
	return snapshot{seq: notedoc.CloneSequence(s.seq), current: s.current, anchor: s.anchor, caret: s.caret}
}

func (s *Session) record() {
	s.history.push(s.snapshot())
	s.typingBlock = ""
}

func (s *Session) restore(snap snapshot) {
	s.seq = snap.seq
	s.current = clamp(snap.current, 0, len(s.seq.Blocks)-1)
	n := s.seq.Blocks[s.current].Len()
	s.anchor = clamp(snap.anchor, 0, n)
	s.caret = clamp(snap.caret, 0, n)
	s.typingBlock = ""
	s.notify()
}

func (s *Session) commit() {
	s.typingBlock = ""
	s.notify()
}

func (s *Session) notify() {
	if s.OnChange != nil {
		s.OnChange(notedoc.CloneSequence(s.seq))
	}
}

func validFontSize(size int) bool {
	for _, v := range FontSizes {
		if v == size {
			return true
		}
	}
	return false
}

func sameRuns(a, b []notedoc.Run) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
