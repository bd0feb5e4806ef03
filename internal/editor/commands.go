package editor

import (
	"slices"
	"strings"

	"studio/internal/scene"
)

// KeyEvent is a key press forwarded from the frontend. Meta (Cmd on macOS)
// is accepted wherever Ctrl is.
type KeyEvent struct {
	Key   string `json:"key"`
	Ctrl  bool   `json:"ctrl"`
	Meta  bool   `json:"meta"`
	Shift bool   `json:"shift"`
}

func (k KeyEvent) command() bool { return k.Ctrl || k.Meta }

// HandleKey runs the shortcut bound to k and reports whether the key was
// consumed. Nothing is consumed while a text node is being edited, so
// typing reaches the text.
func (e *Editor) HandleKey(k KeyEvent) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.editing != nil {
		return false
	}
	key := k.Key
	if k.command() {
		switch strings.ToLower(key) {
		case "v":
			e.paste()
			return true
		case "a":
			e.selectAll()
			return true
		}
	}

	sel := e.scene.Active()
	if sel.Empty() {
		return false
	}

	if k.command() {
		switch key {
		case "c", "C":
			e.copySelection(sel)
			return true
		case "x", "X":
			e.cut(sel)
			return true
		case "d", "D":
			e.duplicate(sel)
			return true
		case "g", "G":
			if k.Shift {
				e.ungroup(sel)
			} else {
				e.group(sel)
			}
			return true
		case "]", "}":
			if k.Shift || key == "}" {
				e.layer(sel, layerFront)
			} else {
				e.layer(sel, layerForward)
			}
			return true
		case "[", "{":
			if k.Shift || key == "{" {
				e.layer(sel, layerBack)
			} else {
				e.layer(sel, layerBackward)
			}
			return true
		}
	}

	step := 1.0
	if k.Shift {
		step = 10
	}
	switch key {
	case "Delete", "Backspace":
		e.deleteSelection(sel)
	case "ArrowUp":
		e.nudge(sel, 0, -step)
	case "ArrowDown":
		e.nudge(sel, 0, step)
	case "ArrowLeft":
		e.nudge(sel, -step, 0)
	case "ArrowRight":
		e.nudge(sel, step, 0)
	default:
		return false
	}
	return true
}

// SelectAll selects every node as a composite selection.
func (e *Editor) SelectAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selectAll()
}

func (e *Editor) selectAll() {
	nodes := slices.DeleteFunc(e.scene.Nodes(), func(n *scene.Node) bool { return n.Transient })
	if len(nodes) == 0 {
		return
	}
	e.scene.Discard()
	e.scene.SelectComposite(nodes)
}

// DeleteSelection removes the selected nodes.
func (e *Editor) DeleteSelection() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	sel := e.scene.Active()
	if sel.Empty() {
		return false
	}
	e.deleteSelection(sel)
	return true
}

func (e *Editor) deleteSelection(sel scene.Selection) {
	e.scene.Remove(sel.Nodes...)
	e.scene.Discard()
	e.hideToolbar()
}

// Group merges a composite selection into one group node. Anything else is
// left alone.
func (e *Editor) Group() (*scene.Node, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.group(e.scene.Active())
}

func (e *Editor) group(sel scene.Selection) (*scene.Node, bool) {
	if !sel.Composite || len(sel.Nodes) < 2 {
		return nil, false
	}
	g, err := e.scene.Group(sel.Nodes)
	if err != nil {
		return nil, false
	}
	e.scene.Select(g)
	return g, true
}

// Ungroup expands a selected group back into a composite selection of its
// members.
func (e *Editor) Ungroup() ([]*scene.Node, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ungroup(e.scene.Active())
}

func (e *Editor) ungroup(sel scene.Selection) ([]*scene.Node, bool) {
	g := sel.Single()
	if g == nil || g.Kind != scene.KindGroup {
		return nil, false
	}
	children, err := e.scene.Ungroup(g)
	if err != nil || len(children) == 0 {
		return nil, false
	}
	e.scene.SelectComposite(children)
	return children, true
}

type layerOp int

const (
	layerForward layerOp = iota
	layerBackward
	layerFront
	layerBack
)

// BringForward moves the selection one step up.
func (e *Editor) BringForward() { e.withLayer(layerForward) }

// SendBackward moves the selection one step down.
func (e *Editor) SendBackward() { e.withLayer(layerBackward) }

// BringToFront moves the selection to the top.
func (e *Editor) BringToFront() { e.withLayer(layerFront) }

// SendToBack moves the selection to the bottom.
func (e *Editor) SendToBack() { e.withLayer(layerBack) }

func (e *Editor) withLayer(op layerOp) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if sel := e.scene.Active(); !sel.Empty() {
		e.layer(sel, op)
	}
}

// layer restacks members so that their relative order survives.
func (e *Editor) layer(sel scene.Selection, op layerOp) {
	members := slices.Clone(sel.Nodes)
	slices.SortFunc(members, func(a, b *scene.Node) int { return e.scene.IndexOf(a) - e.scene.IndexOf(b) })
	topDown := op == layerForward || op == layerBack
	if topDown {
		slices.Reverse(members)
	}
	// A member pinned at an end blocks the members stacked against it.
	stuck := map[*scene.Node]bool{}
	for _, n := range members {
		nodes := e.scene.Nodes()
		i := e.scene.IndexOf(n)
		switch op {
		case layerForward:
			if i == len(nodes)-1 || stuck[nodes[i+1]] {
				stuck[n] = true
				continue
			}
			e.scene.BringForward(n)
		case layerBackward:
			if i == 0 || stuck[nodes[i-1]] {
				stuck[n] = true
				continue
			}
			e.scene.SendBackward(n)
		case layerFront:
			e.scene.BringToFront(n)
		case layerBack:
			e.scene.SendToBack(n)
		}
	}
}

// Nudge moves the selection by (dx, dy). Locked nodes stay put.
func (e *Editor) Nudge(dx, dy float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	sel := e.scene.Active()
	if sel.Empty() {
		return false
	}
	e.nudge(sel, dx, dy)
	return true
}

func (e *Editor) nudge(sel scene.Selection, dx, dy float64) {
	for _, n := range sel.Nodes {
		if n.Locked {
			continue
		}
		n.X += dx
		n.Y += dy
		e.scene.Modified(n)
	}
}
