package editor

import "blocknote/internal/view"

// LogicalSelection addresses a character range inside one block. Unlike a
// view position it survives a full re-render.
type LogicalSelection struct {
	BlockID string
	Start   int
	End     int
}

func (s LogicalSelection) Collapsed() bool { return s.Start == s.End }

// ViewPoint is one end of a selection as reported by the view: a node in the
// rendered tree plus an offset inside it.
type ViewPoint struct {
	Node   *view.Node
	Offset int
}

// ViewSelection is a logical selection converted back to view coordinates.
type ViewSelection struct {
	Anchor ViewPoint
	Focus  ViewPoint
}

// ToView maps sel onto root, the freshly rendered tree of sel's block. The
// tree must come from the render that follows the mutation; positions
// computed against an older tree are stale.
func ToView(root *view.Node, sel LogicalSelection) ViewSelection {
	an, ao := view.ToViewPosition(root, sel.Start)
	fn, fo := view.ToViewPosition(root, sel.End)
	return ViewSelection{Anchor: ViewPoint{Node: an, Offset: ao}, Focus: ViewPoint{Node: fn, Offset: fo}}
}
