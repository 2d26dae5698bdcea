package ast

// Visit tells Walk how to continue after a node.
type Visit int

const (
	// Continue descends into the node's children.
	Continue Visit = iota
	// SkipChildren moves on to the next sibling.
	SkipChildren
	// Stop ends the walk.
	Stop
)

// Walk visits root and its descendants in pre-order, children left to right.
// An explicit stack keeps deeply nested files from exhausting the goroutine
// stack.
func Walk(root *Node, fn func(*Node) Visit) {
	if root == nil {
		return
	}
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch fn(n) {
		case Stop:
			return
		case SkipChildren:
			continue
		}

		for i := len(n.children) - 1; i >= 0; i-- {
			if child, ok := n.children[i].(*Node); ok && child != nil {
				stack = append(stack, child)
			}
		}
	}
}

// FindDescendant returns the first node in pre-order under n, n included,
// for which pred holds. The search stops at the first match.
func FindDescendant(n *Node, pred func(*Node) bool) (*Node, bool) {
	var found *Node
	Walk(n, func(cur *Node) Visit {
		if pred(cur) {
			found = cur
			return Stop
		}
		return Continue
	})
	return found, found != nil
}

// LastHeredocEnd returns the end offset of the last heredoc terminator that
// belongs to n but sits below n's last line, or -1 when there is none. A
// statement opening a heredoc physically extends to that terminator.
func LastHeredocEnd(n *Node) int {
	if n == nil {
		return -1
	}
	last := n.LastLine()
	end := -1
	Walk(n, func(cur *Node) Visit {
		term := cur.loc.HeredocEnd
		if term.Valid() && cur.src.Line(term.Begin) > last && term.End > end {
			end = term.End
		}
		return Continue
	})
	return end
}
