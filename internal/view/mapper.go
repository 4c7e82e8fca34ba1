package view

// ToLogicalOffset converts a view position inside root into a block-relative
// character offset. A target outside the tree maps to the end of the block:
// restoring a selection must never fail.
func ToLogicalOffset(root, target *Node, targetOffset int) int {
	if root == nil {
		return 0
	}
	acc := 0
	found := false
	result := 0
	Walk(root, func(n *Node) bool {
		if n == target {
			found = true
			if n.Kind == TextNode {
				result = acc + clamp(targetOffset, 0, n.Len())
			} else {
				result = acc + childrenLen(n, targetOffset)
			}
			return false
		}
		if n.Kind == TextNode {
			acc += n.Len()
		}
		return true
	})
	if !found {
		return root.Len()
	}
	return result
}

// ToViewPosition is the inverse of ToLogicalOffset: it returns the first text
// node whose cumulative length reaches offset. Offsets past the end clamp to
// the end of the last text node; a tree without text nodes yields (root, 0).
func ToViewPosition(root *Node, offset int) (*Node, int) {
	if root == nil {
		return nil, 0
	}
	if offset < 0 {
		offset = 0
	}
	nodes := TextNodes(root)
	if len(nodes) == 0 {
		return root, 0
	}
	acc := 0
	for _, n := range nodes {
		l := n.Len()
		if acc+l >= offset {
			return n, offset - acc
		}
		acc += l
	}
	last := nodes[len(nodes)-1]
	return last, last.Len()
}

// Contains reports whether target is root or one of its descendants.
func Contains(root, target *Node) bool {
	if root == nil || target == nil {
		return false
	}
	return !Walk(root, func(n *Node) bool { return n != target })
}

func childrenLen(n *Node, count int) int {
	count = clamp(count, 0, len(n.Children))
	total := 0
	for _, c := range n.Children[:count] {
		total += c.Len()
	}
	return total
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
