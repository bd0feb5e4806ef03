package scene

import "slices"

// Clone returns a deep copy of n: geometry, style, content and children.
// The copy has no identifier and shares the immutable decoded bitmap.
func (n *Node) Clone() *Node {
	c := *n
	c.ID = ""
	c.Fill.Stops = slices.Clone(n.Fill.Stops)
	c.StrokeDash = slices.Clone(n.StrokeDash)
	if n.Text != nil {
		t := *n.Text
		t.Runs = slices.Clone(n.Text.Runs)
		c.Text = &t
	}
	if n.Image != nil {
		img := *n.Image
		c.Image = &img
	}
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, ch := range n.Children {
			c.Children[i] = ch.Clone()
		}
	}
	return &c
}

// CloneAll deep-copies each node.
func CloneAll(nodes []*Node) []*Node {
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

// Copy returns a detached deep copy of the scene for read-only work such
// as saving or rendering off the editor's lock. Listeners and the
// selection are not carried over.
func (s *Scene) Copy() *Scene {
	return &Scene{
		width:      s.width,
		height:     s.height,
		background: s.background,
		nodes:      CloneAll(s.nodes),
		viewport:   s.viewport,
		generation: s.generation,
		listeners:  map[int]Listener{},
	}
}
