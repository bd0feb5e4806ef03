package editor

import (
	"fmt"

	"github.com/gogpu/gg"
	"github.com/samber/lo"

	"studio/internal/scene"
)

// Shape names a quick-add tool.
type Shape string

const (
	ShapeRect        Shape = "rect"
	ShapeRoundedRect Shape = "roundedRect"
	ShapeEllipse     Shape = "ellipse"
	ShapeText        Shape = "text"
)

// spread is the width of the random offset applied to quick-added shapes.
const spread = 40

// AddShape adds a default-styled shape near the middle of the view and
// selects it.
func (e *Editor) AddShape(shape Shape) (*scene.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var n *scene.Node
	switch shape {
	case ShapeRect:
		p := e.safePosition(100, 100)
		n = scene.NewRect(p.X, p.Y, 100, 100, "#3b82f6")
	case ShapeRoundedRect:
		p := e.safePosition(120, 120)
		n = scene.NewRect(p.X, p.Y, 120, 120, "#10b981")
		n.CornerRadius = 20
	case ShapeEllipse:
		p := e.safePosition(100, 100)
		n = scene.NewEllipse(p.X, p.Y, 50, "#ef4444")
	case ShapeText:
		p := e.safePosition(200, 50)
		n = scene.NewText(p.X, p.Y, "Double click to edit", scene.DefaultTextStyle(), "#1e293b")
	default:
		return nil, fmt.Errorf("add shape: unknown shape %q", shape)
	}
	e.scene.Add(n)
	e.scene.Select(n)
	return n, nil
}

// AddNode adds n on top and selects it.
func (e *Editor) AddNode(n *scene.Node) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scene.Add(n)
	e.scene.Select(n)
}

// safePosition is the top-left that centers a w x h box in the view, offset
// by the same random amount on both axes so repeated adds don't stack.
func (e *Editor) safePosition(w, h float64) gg.Point {
	c := e.scene.ViewportCenter()
	off := e.jitter()*spread - spread/2
	return gg.Pt(c.X+off-w/2, c.Y+off-h/2)
}

// ── Selection actions ───────────────────────────────────────

// ToggleLock locks or unlocks the selection, following its first member.
func (e *Editor) ToggleLock() error {
	return e.eachSelected(func(sel scene.Selection) {
		locked := !sel.Nodes[0].Locked
		for _, n := range sel.Nodes {
			n.Locked = locked
			e.scene.Modified(n)
		}
	})
}

// ToggleVisibility hides or shows the selection and clears it so the
// effect is visible.
func (e *Editor) ToggleVisibility() error {
	return e.eachSelected(func(sel scene.Selection) {
		hidden := sel.Nodes[0].Visibility != scene.Hidden
		for _, n := range sel.Nodes {
			n.Visibility = scene.Visible
			if hidden {
				n.Visibility = scene.Hidden
			}
			e.scene.Modified(n)
		}
		e.scene.Discard()
	})
}

// TogglePattern swaps the fill between its flat color and a diagonal hatch
// in that color.
func (e *Editor) TogglePattern() error {
	return e.eachSelected(func(sel scene.Selection) {
		for _, n := range sel.Nodes {
			if n.Kind == scene.KindImage || n.Kind == scene.KindGroup {
				continue
			}
			if n.Fill.Kind == scene.FillPattern {
				n.Fill = scene.Solid(n.Fill.Color)
			} else {
				n.Fill = scene.Paint{Kind: scene.FillPattern, Color: fillColor(n.Fill)}
			}
			e.scene.Modified(n)
		}
	})
}

// FlipHorizontal mirrors the selection about its vertical axis.
func (e *Editor) FlipHorizontal() error {
	return e.eachSelected(func(sel scene.Selection) {
		for _, n := range sel.Nodes {
			n.FlipX = !n.FlipX
			e.scene.Modified(n)
		}
	})
}

// FlipVertical mirrors the selection about its horizontal axis.
func (e *Editor) FlipVertical() error {
	return e.eachSelected(func(sel scene.Selection) {
		for _, n := range sel.Nodes {
			n.FlipY = !n.FlipY
			e.scene.Modified(n)
		}
	})
}

// CenterOnCanvas moves the selection so its box is centered on the canvas.
func (e *Editor) CenterOnCanvas() error {
	return e.eachSelected(func(sel scene.Selection) {
		c := sel.Bounds().Center()
		dx := float64(e.scene.Width())/2 - c.X
		dy := float64(e.scene.Height())/2 - c.Y
		for _, n := range sel.Nodes {
			n.X += dx
			n.Y += dy
			e.scene.Modified(n)
		}
	})
}

func (e *Editor) eachSelected(fn func(scene.Selection)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	sel := e.scene.Active()
	if sel.Empty() {
		return ErrNoSelection
	}
	fn(sel)
	return nil
}

// SelectByID makes the top-level node with id the selection.
func (e *Editor) SelectByID(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.scene.FindByID(id)
	if n == nil {
		return false
	}
	e.scene.Select(n)
	return true
}

// Deselect clears the selection.
func (e *Editor) Deselect() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scene.Discard()
}

// ── Pointer input ───────────────────────────────────────────

// Toolbar is the contextual toolbar, positioned in page coordinates.
type Toolbar struct {
	Visible bool    `json:"visible"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// Toolbar returns the contextual toolbar state.
func (e *Editor) Toolbar() Toolbar {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.toolbar
}

func (e *Editor) hideToolbar() {
	if !e.toolbar.Visible {
		return
	}
	e.toolbar = Toolbar{}
	e.notify.Emit(e.ctx, EventToolbar, e.toolbar)
}

// Click handles a press at canvas-local (px, py): the node under the
// pointer becomes the selection, empty space clears it.
func (e *Editor) Click(px, py float64) *scene.Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.scene.HitTest(e.scene.CanvasToScene(px, py))
	if n == nil {
		e.hideToolbar()
		e.scene.Discard()
		return nil
	}
	if !e.isSelected(n) {
		e.scene.Select(n)
	}
	return n
}

// DoubleClick opens the contextual toolbar at the pointer's page position
// over the node under it. Double-clicking a text node starts editing it.
func (e *Editor) DoubleClick(px, py float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.scene.HitTest(e.scene.CanvasToScene(px, py))
	if n == nil {
		return false
	}
	if !e.isSelected(n) {
		e.scene.Select(n)
	}
	p := e.scene.CanvasToPage(px, py)
	e.toolbar = Toolbar{Visible: true, X: p.X, Y: p.Y}
	e.notify.Emit(e.ctx, EventToolbar, e.toolbar)
	if n.Kind == scene.KindText {
		e.beginTextEdit(n)
	}
	return true
}

// Wheel zooms or pans the view.
func (e *Editor) Wheel(deltaY, px, py float64, zoomModifier bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scene.Wheel(deltaY, px, py, zoomModifier)
}

// SetPageOffset records where the canvas element sits on the page.
func (e *Editor) SetPageOffset(x, y float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scene.SetPageOffset(x, y)
}

// Drag moves the selection by a canvas-space delta during a pointer drag.
// Locked members of a composite selection stay put.
func (e *Editor) Drag(dx, dy float64) error {
	return e.transform(func(n *scene.Node, _ scene.Rect, composite bool, scale float64) error {
		return e.scene.DragBy(n, dx/scale, dy/scale)
	})
}

// Scale resizes the selection by factors during a pointer resize. Members
// of a composite selection also move away from the selection box origin,
// the way a width or height edit in the panel does.
func (e *Editor) Scale(fx, fy float64) error {
	return e.transform(func(n *scene.Node, box scene.Rect, composite bool, _ float64) error {
		if composite {
			n.X = box.Min.X + (n.X-box.Min.X)*fx
			n.Y = box.Min.Y + (n.Y-box.Min.Y)*fy
		}
		return e.scene.ScaleBy(n, fx, fy)
	})
}

// Rotate sets the angle of a single selected node during a pointer
// rotation.
func (e *Editor) Rotate(deg float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.scene.Active().Single()
	if n == nil {
		return ErrNoSelection
	}
	return e.scene.RotateTo(n, deg)
}

// EndTransform finishes a pointer interaction.
func (e *Editor) EndTransform() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, n := range e.scene.Active().Nodes {
		if !n.Locked {
			e.scene.EndTransform(n)
		}
	}
}

// transform applies fn to the unlocked members of the selection. box is
// their bounding box before the change. A selection with nothing unlocked
// fails with scene.ErrLocked before any node is touched.
func (e *Editor) transform(fn func(n *scene.Node, box scene.Rect, composite bool, scale float64) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	sel := e.scene.Active()
	if sel.Empty() {
		return ErrNoSelection
	}
	movable := lo.Filter(sel.Nodes, func(n *scene.Node, _ int) bool { return !n.Locked })
	if len(movable) == 0 {
		return scene.ErrLocked
	}
	box := scene.Selection{Nodes: movable}.Bounds()
	scale := e.scene.Viewport().Scale
	for _, n := range movable {
		if err := fn(n, box, sel.Composite, scale); err != nil {
			return err
		}
	}
	return nil
}

// ── Text editing ────────────────────────────────────────────

// BeginTextEdit enters edit mode on the text node with id.
func (e *Editor) BeginTextEdit(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.scene.FindByID(id)
	if n == nil {
		return fmt.Errorf("begin text edit: %w", scene.ErrNotInScene)
	}
	if n.Kind != scene.KindText {
		return ErrNotText
	}
	e.scene.Select(n)
	e.beginTextEdit(n)
	return nil
}

func (e *Editor) beginTextEdit(n *scene.Node) {
	e.editing = n
	e.selStart, e.selEnd = 0, 0
	e.publishFields()
}

// SetTextSelection records the selected character range of the text being
// edited, in runes.
func (e *Editor) SetTextSelection(start, end int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.editing == nil {
		return ErrNotText
	}
	n := len([]rune(e.editing.Text.Content))
	e.selStart = min(max(start, 0), n)
	e.selEnd = min(max(end, 0), n)
	return nil
}

// EndTextEdit leaves edit mode.
func (e *Editor) EndTextEdit() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.editing == nil {
		return
	}
	n := e.editing
	e.editing = nil
	e.selStart, e.selEnd = 0, 0
	e.scene.Modified(n)
}

// Editing reports whether a text node is in edit mode.
func (e *Editor) Editing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.editing != nil
}

// ── Documents ───────────────────────────────────────────────

// NewFile starts an empty design. Missing or invalid dimensions fall back
// to the default size.
func (e *Editor) NewFile(width, height any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.editing = nil
	e.scene.Clear()
	e.scene.SetBackground("#ffffff")
	if err := e.scene.Resize(scene.SizeOrDefault(width), scene.SizeOrDefault(height)); err != nil {
		return fmt.Errorf("new file: %w", err)
	}
	e.scene.SetViewport(1, 0, 0)
	e.startDocument(Document{})
	return nil
}

// ApplyTemplate replaces the content with an encoded template scene. The
// design identity is kept, and the new nodes count as edits.
func (e *Editor) ApplyTemplate(data []byte) error {
	tpl, err := scene.Decode(data)
	if err != nil {
		return fmt.Errorf("apply template: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.editing = nil
	e.scene.Clear()
	e.scene.SetBackground(tpl.Background())
	if err := e.scene.Resize(tpl.Width(), tpl.Height()); err != nil {
		return fmt.Errorf("apply template: %w", err)
	}
	e.scene.Add(tpl.Nodes()...)
	return nil
}
