package editor

import "blocknote/pkg/notedoc"

const DefaultHistoryLimit = 200

type snapshot struct {
	seq     notedoc.Sequence
	current int
	anchor  int
	caret   int
}

// History keeps bounded undo and redo stacks of session snapshots.
type History struct {
	limit int
	undo  []snapshot
	redo  []snapshot
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{
		limit: limit,
		undo:  make([]snapshot, 0, 64),
		redo:  make([]snapshot, 0, 64),
	}
}

// push records the state before an edit and invalidates redo.
func (h *History) push(s snapshot) {
	h.undo = append(h.undo, s)
	if len(h.undo) > h.limit {
		h.undo = h.undo[1:]
	}
	h.redo = h.redo[:0]
}

func (h *History) popUndo(cur snapshot) (snapshot, bool) {
	if len(h.undo) == 0 {
		return snapshot{}, false
	}
	last := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, cur)
	return last, true
}

func (h *History) popRedo(cur snapshot) (snapshot, bool) {
	if len(h.redo) == 0 {
		return snapshot{}, false
	}
	last := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, cur)
	return last, true
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

func (h *History) Reset() {
	h.undo = h.undo[:0]
	h.redo = h.redo[:0]
}
