package view

// The functions below mutate a rendered tree the way an editing surface does
// when the user types: text lands inside existing text nodes and formatting
// is whatever markup already surrounds it. The model is rebuilt from the
// edited tree afterwards with ReadRuns.

// InsertText inserts s at the logical offset and returns the view position
// just after the inserted text.
func InsertText(root *Node, offset int, s string) (*Node, int) {
	node, at := ToViewPosition(root, offset)
	if node == nil {
		return nil, 0
	}
	if node.Kind != TextNode {
		node = NewText("")
		root.Append(NewElement("span", nil, node))
		at = 0
	}
	runes := []rune(node.Text)
	at = clamp(at, 0, len(runes))
	inserted := []rune(s)
	out := make([]rune, 0, len(runes)+len(inserted))
	out = append(out, runes[:at]...)
	out = append(out, inserted...)
	out = append(out, runes[at:]...)
	node.Text = string(out)
	return node, at + len(inserted)
}

// DeleteRange removes the characters in [start, end) across text nodes.
func DeleteRange(root *Node, start, end int) {
	if start > end {
		start, end = end, start
	}
	if start == end {
		return
	}
	acc := 0
	for _, n := range TextNodes(root) {
		runes := []rune(n.Text)
		nStart, nEnd := acc, acc+len(runes)
		acc = nEnd
		if nEnd <= start || nStart >= end {
			continue
		}
		from := clamp(start-nStart, 0, len(runes))
		to := clamp(end-nStart, 0, len(runes))
		n.Text = string(append(runes[:from:from], runes[to:]...))
	}
}
