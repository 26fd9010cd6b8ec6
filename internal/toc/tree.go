package toc

// Node is a heading together with the headings nested beneath it.
type Node struct {
	Heading
	Children []*Node `json:"children,omitempty"`
}

// Nest arranges a flat heading list into a tree: each heading becomes a
// child of the closest preceding heading with a lower level. Skipped levels
// are tolerated, so an h3 directly under an h1 nests under that h1.
func Nest(headings []Heading) []*Node {
	type stackEntry struct {
		node  *Node
		level int
	}

	// Root is level 0, every real heading nests under it.
	root := &Node{}
	stack := []stackEntry{{node: root, level: 0}}

	for _, h := range headings {
		n := &Node{Heading: h}

		// Pop until the top is a strict ancestor.
		for len(stack) > 1 && stack[len(stack)-1].level >= h.Level {
			stack = stack[:len(stack)-1]
		}

		parent := stack[len(stack)-1].node
		parent.Children = append(parent.Children, n)
		stack = append(stack, stackEntry{node: n, level: h.Level})
	}

	return root.Children
}
