package scene

import (
	"errors"
	"slices"

	"github.com/gogpu/gg"
)

// ErrNotGroup is returned when ungrouping a node that is not a group.
var ErrNotGroup = errors.New("node is not a group")

// Group merges members into a single group node placed at the z-index of
// the topmost member. Members keep their absolute placement.
func (s *Scene) Group(members []*Node) (*Node, error) {
	members = slices.DeleteFunc(slices.Clone(members), func(n *Node) bool { return !s.Contains(n) })
	if len(members) == 0 {
		return nil, ErrNotInScene
	}
	slices.SortFunc(members, func(a, b *Node) int { return s.IndexOf(a) - s.IndexOf(b) })

	var box Rect
	for _, m := range members {
		box = box.Union(m.Bounds())
	}
	g := NewNode(KindGroup)
	g.X, g.Y = box.Min.X, box.Min.Y
	g.Width, g.Height = box.Dx(), box.Dy()
	g.StrokeWidth = 0

	inv := g.Matrix().Invert()
	top := s.IndexOf(members[len(members)-1]) - (len(members) - 1)
	for _, m := range members {
		m.applyMatrix(inv.Multiply(m.Matrix()))
		g.Children = append(g.Children, m)
	}
	s.Discard()
	for _, m := range members {
		s.Remove(m)
	}
	s.Insert(top, g)
	return g, nil
}

// Ungroup replaces g by its children at g's z-index, restoring their
// absolute placement, and returns them bottom to top.
func (s *Scene) Ungroup(g *Node) ([]*Node, error) {
	if g.Kind != KindGroup {
		return nil, ErrNotGroup
	}
	at := s.IndexOf(g)
	if at < 0 {
		return nil, ErrNotInScene
	}
	gm := g.Matrix()
	children := g.Children
	for _, c := range children {
		c.applyMatrix(gm.Multiply(c.Matrix()))
		if g.Opacity < 1 {
			c.Opacity *= g.Opacity
		}
	}
	s.Discard()
	s.Remove(g)
	for i, c := range children {
		s.Insert(at+i, c)
	}
	g.Children = nil
	return children, nil
}

// WorldMatrix returns the transform of a node nested under the given
// ancestors, outermost first.
func WorldMatrix(ancestors []*Node, n *Node) gg.Matrix {
	m := gg.Identity()
	for _, a := range ancestors {
		m = m.Multiply(a.Matrix())
	}
	return m.Multiply(n.Matrix())
}
