package scene

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/gogpu/gg"
	"github.com/samber/lo"
)

var (
	// ErrInvalidSize is returned for canvas dimensions outside the accepted range.
	ErrInvalidSize = errors.New("invalid canvas size")
	// ErrLocked is returned when an interactive transform targets a locked node.
	ErrLocked = errors.New("node is locked")
	// ErrNotInScene is returned when a node does not belong to the scene.
	ErrNotInScene = errors.New("node is not in the scene")
)

const (
	MinZoom = 0.01
	MaxZoom = 20.0

	maxDimension = 10000
)

// Viewport is the pan/zoom transform from scene to canvas coordinates:
// canvas = scene*Scale + (TX, TY).
type Viewport struct {
	Scale float64 `json:"scale"`
	TX    float64 `json:"tx"`
	TY    float64 `json:"ty"`
}

// IdentityViewport is the unzoomed, unpanned viewport.
func IdentityViewport() Viewport { return Viewport{Scale: 1} }

// Matrix returns the viewport as an affine transform.
func (v Viewport) Matrix() gg.Matrix {
	return gg.Matrix{A: v.Scale, E: v.Scale, C: v.TX, F: v.TY}
}

// Selection is the active selection. A composite selection manipulates its
// members together without merging them into a group.
type Selection struct {
	Nodes     []*Node
	Composite bool
}

// Empty reports whether nothing is selected.
func (s Selection) Empty() bool { return len(s.Nodes) == 0 }

// Single returns the selected node when exactly one non-composite node is
// selected.
func (s Selection) Single() *Node {
	if s.Composite || len(s.Nodes) != 1 {
		return nil
	}
	return s.Nodes[0]
}

// Bounds is the union of the members' boxes.
func (s Selection) Bounds() Rect {
	var r Rect
	for _, n := range s.Nodes {
		r = r.Union(n.Bounds())
	}
	return r
}

// Scene is the ordered node collection plus canvas-level state. Index 0 is
// the bottom of the z-order. A Scene is not safe for concurrent use; the
// editor session serializes access to it.
type Scene struct {
	width, height int
	background    string
	nodes         []*Node
	viewport      Viewport
	selection     Selection
	pageX, pageY  float64

	generation uint64
	listeners  map[int]Listener
	nextID     int

	renderPending bool
	onRender      func()
}

// New creates a scene with the given pixel size.
func New(width, height int) (*Scene, error) {
	if err := checkSize(width, height); err != nil {
		return nil, err
	}
	return &Scene{
		width:      width,
		height:     height,
		background: "#ffffff",
		viewport:   IdentityViewport(),
		listeners:  map[int]Listener{},
	}, nil
}

func checkSize(w, h int) error {
	if w < 1 || h < 1 || w > maxDimension || h > maxDimension {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, w, h)
	}
	return nil
}

// Width is the canvas width in pixels.
func (s *Scene) Width() int { return s.width }

// Height is the canvas height in pixels.
func (s *Scene) Height() int { return s.height }

// Background is the canvas background color; empty means transparent.
func (s *Scene) Background() string { return s.background }

// SetBackground sets the background color.
func (s *Scene) SetBackground(color string) {
	s.background = color
	s.RequestRender()
}

// Generation changes whenever the scene content is torn down. Async work
// captures it at start and discards its result on mismatch.
func (s *Scene) Generation() uint64 { return s.generation }

// Resize changes the canvas pixel size.
func (s *Scene) Resize(width, height int) error {
	if err := checkSize(width, height); err != nil {
		return err
	}
	s.width, s.height = width, height
	s.RequestRender()
	return nil
}

// Clear removes every node, the selection and the background, and starts a
// new generation.
func (s *Scene) Clear() {
	s.Discard()
	s.nodes = nil
	s.background = ""
	s.generation++
	s.emit(Event{Type: EventCleared})
	s.RequestRender()
}

// Dispose tears the scene down for good: listeners are dropped and the
// generation advances so pending async work discards its result.
func (s *Scene) Dispose() {
	s.selection = Selection{}
	s.nodes = nil
	s.generation++
	s.listeners = map[int]Listener{}
	s.onRender = nil
}

// ── Render scheduling ────────────────────────────────────────

// OnRenderRequest registers the hook called when a render becomes pending.
// Repeated requests before TakeRenderRequest coalesce into one call.
func (s *Scene) OnRenderRequest(fn func()) { s.onRender = fn }

// RequestRender marks the scene dirty.
func (s *Scene) RequestRender() {
	if s.renderPending {
		return
	}
	s.renderPending = true
	if s.onRender != nil {
		s.onRender()
	}
}

// TakeRenderRequest reports and clears the pending flag.
func (s *Scene) TakeRenderRequest() bool {
	p := s.renderPending
	s.renderPending = false
	return p
}

// ── Viewport ─────────────────────────────────────────────────

// Viewport returns the current pan/zoom.
func (s *Scene) Viewport() Viewport { return s.viewport }

// SetViewport replaces the pan/zoom.
func (s *Scene) SetViewport(scale, tx, ty float64) {
	s.viewport = Viewport{Scale: clampZoom(scale), TX: tx, TY: ty}
	s.RequestRender()
}

// ZoomToPoint sets the zoom level keeping the canvas point (px, py) fixed.
func (s *Scene) ZoomToPoint(px, py, zoom float64) {
	zoom = clampZoom(zoom)
	before := s.viewport.Matrix().Invert().TransformPoint(gg.Pt(px, py))
	s.viewport = Viewport{
		Scale: zoom,
		TX:    px - before.X*zoom,
		TY:    py - before.Y*zoom,
	}
	s.RequestRender()
}

// Wheel applies a mouse-wheel step. With the zoom modifier held the view
// zooms by 0.999^deltaY anchored at the pointer; otherwise it pans
// vertically by deltaY.
func (s *Scene) Wheel(deltaY, px, py float64, zoomModifier bool) {
	if zoomModifier {
		s.ZoomToPoint(px, py, s.viewport.Scale*math.Pow(0.999, deltaY))
		return
	}
	s.viewport.TY -= deltaY
	s.RequestRender()
}

func clampZoom(z float64) float64 {
	return math.Min(MaxZoom, math.Max(MinZoom, z))
}

// CanvasToScene maps a canvas-local point into scene coordinates.
func (s *Scene) CanvasToScene(px, py float64) gg.Point {
	return s.viewport.Matrix().Invert().TransformPoint(gg.Pt(px, py))
}

// SetPageOffset records where the canvas element sits on the page.
func (s *Scene) SetPageOffset(x, y float64) { s.pageX, s.pageY = x, y }

// CanvasToPage maps a canvas-local point to page coordinates.
func (s *Scene) CanvasToPage(px, py float64) gg.Point {
	return gg.Pt(px+s.pageX, py+s.pageY)
}

// ViewportCenter is the scene point under the middle of the canvas.
func (s *Scene) ViewportCenter() gg.Point {
	v := s.viewport
	return gg.Pt((-v.TX+float64(s.width)/2)/v.Scale, (-v.TY+float64(s.height)/2)/v.Scale)
}

// ── Nodes and z-order ────────────────────────────────────────

// Nodes returns the nodes bottom to top. The slice is a copy.
func (s *Scene) Nodes() []*Node { return slices.Clone(s.nodes) }

// Len is the number of nodes, including transient ones.
func (s *Scene) Len() int { return len(s.nodes) }

// IndexOf returns the z-index of n, or -1.
func (s *Scene) IndexOf(n *Node) int { return slices.Index(s.nodes, n) }

// Contains reports whether n is a top-level node of the scene.
func (s *Scene) Contains(n *Node) bool { return s.IndexOf(n) >= 0 }

// FindByID returns the top-level node with the given id.
func (s *Scene) FindByID(id string) *Node {
	n, _ := lo.Find(s.nodes, func(n *Node) bool { return id != "" && n.ID == id })
	return n
}

// Add appends nodes to the top of the z-order.
func (s *Scene) Add(nodes ...*Node) {
	for _, n := range nodes {
		s.Insert(len(s.nodes), n)
	}
}

// Insert places n at z-index i, clamped to the valid range.
func (s *Scene) Insert(i int, n *Node) {
	i = max(0, min(i, len(s.nodes)))
	s.nodes = slices.Insert(s.nodes, i, n)
	n.SetCoords()
	if !n.Transient {
		s.emit(Event{Type: EventAdded, Node: n})
	}
	s.RequestRender()
}

// Remove deletes nodes from the scene and from the selection.
func (s *Scene) Remove(nodes ...*Node) {
	for _, n := range nodes {
		i := s.IndexOf(n)
		if i < 0 {
			continue
		}
		s.nodes = slices.Delete(s.nodes, i, i+1)
		if lo.Contains(s.selection.Nodes, n) {
			rest := lo.Without(s.selection.Nodes, n)
			if len(rest) == 0 {
				s.Discard()
			} else {
				s.selection.Nodes = rest
			}
		}
		if !n.Transient {
			s.emit(Event{Type: EventRemoved, Node: n})
		}
	}
	s.RequestRender()
}

// Replace swaps old for n at the same z-index.
func (s *Scene) Replace(old, n *Node) error {
	i := s.IndexOf(old)
	if i < 0 {
		return ErrNotInScene
	}
	s.Remove(old)
	s.Insert(i, n)
	return nil
}

func (s *Scene) move(n *Node, to int) {
	from := s.IndexOf(n)
	if from < 0 {
		return
	}
	to = max(0, min(to, len(s.nodes)-1))
	if from == to {
		return
	}
	s.nodes = slices.Delete(s.nodes, from, from+1)
	s.nodes = slices.Insert(s.nodes, to, n)
	s.emit(Event{Type: EventModified, Node: n})
	s.RequestRender()
}

// BringForward moves n one z-step up.
func (s *Scene) BringForward(n *Node) { s.move(n, s.IndexOf(n)+1) }

// SendBackward moves n one z-step down.
func (s *Scene) SendBackward(n *Node) {
	if i := s.IndexOf(n); i > 0 {
		s.move(n, i-1)
	}
}

// BringToFront moves n to the top of the z-order.
func (s *Scene) BringToFront(n *Node) { s.move(n, len(s.nodes)-1) }

// SendToBack moves n to the bottom of the z-order.
func (s *Scene) SendToBack(n *Node) { s.move(n, 0) }

// HitTest returns the topmost visible, non-transient node under the scene
// point, using the cached coordinates.
func (s *Scene) HitTest(p gg.Point) *Node {
	for i := len(s.nodes) - 1; i >= 0; i-- {
		n := s.nodes[i]
		if n.IsVisible() && n.Contains(p) {
			return n
		}
	}
	return nil
}

// ── Selection ───────────────────────────────────────────────

// Active returns the current selection.
func (s *Scene) Active() Selection {
	return Selection{Nodes: slices.Clone(s.selection.Nodes), Composite: s.selection.Composite}
}

// Select makes n the single active node.
func (s *Scene) Select(n *Node) {
	s.setSelection(Selection{Nodes: []*Node{n}})
}

// SelectComposite makes nodes the active composite selection.
func (s *Scene) SelectComposite(nodes []*Node) {
	if len(nodes) == 0 {
		s.Discard()
		return
	}
	s.setSelection(Selection{Nodes: slices.Clone(nodes), Composite: true})
}

func (s *Scene) setSelection(sel Selection) {
	sel.Nodes = lo.Filter(sel.Nodes, func(n *Node, _ int) bool { return s.Contains(n) && !n.Transient })
	if len(sel.Nodes) == 0 {
		s.Discard()
		return
	}
	typ := EventSelectionCreated
	if !s.selection.Empty() {
		typ = EventSelectionUpdated
	}
	s.selection = sel
	s.emit(Event{Type: typ, Node: sel.Nodes[0], Selection: s.Active()})
	s.RequestRender()
}

// Discard clears the selection.
func (s *Scene) Discard() {
	if s.selection.Empty() {
		return
	}
	s.selection = Selection{}
	s.emit(Event{Type: EventSelectionCleared})
	s.RequestRender()
}

// ── Interactive transforms ──────────────────────────────────

// Modified reports a programmatic write to n.
func (s *Scene) Modified(n *Node) {
	n.SetCoords()
	s.emit(Event{Type: EventModified, Node: n})
	s.RequestRender()
}

// DragBy moves n during a pointer drag.
func (s *Scene) DragBy(n *Node, dx, dy float64) error {
	if n.Locked {
		return ErrLocked
	}
	n.X += dx
	n.Y += dy
	n.SetCoords()
	s.emit(Event{Type: EventMoving, Node: n})
	s.RequestRender()
	return nil
}

// ScaleBy multiplies n's scale during a pointer resize.
func (s *Scene) ScaleBy(n *Node, fx, fy float64) error {
	if n.Locked {
		return ErrLocked
	}
	n.ScaleX *= fx
	n.ScaleY *= fy
	n.SetCoords()
	s.emit(Event{Type: EventScaling, Node: n})
	s.RequestRender()
	return nil
}

// RotateTo sets n's angle in degrees during a pointer rotation.
func (s *Scene) RotateTo(n *Node, deg float64) error {
	if n.Locked {
		return ErrLocked
	}
	n.Angle = NormalizeAngle(deg)
	n.SetCoords()
	s.emit(Event{Type: EventRotating, Node: n})
	s.RequestRender()
	return nil
}

// EndTransform finishes a pointer interaction on n.
func (s *Scene) EndTransform(n *Node) { s.Modified(n) }

// Walk visits every node depth first, parents before children, until fn
// returns false.
func (s *Scene) Walk(fn func(*Node) bool) {
	var walk func([]*Node) bool
	walk = func(nodes []*Node) bool {
		for _, n := range nodes {
			if !fn(n) || !walk(n.Children) {
				return false
			}
		}
		return true
	}
	walk(s.nodes)
}

// Owns reports whether n is in the scene at any depth.
func (s *Scene) Owns(n *Node) bool {
	found := false
	s.Walk(func(c *Node) bool {
		found = c == n
		return !found
	})
	return found
}
