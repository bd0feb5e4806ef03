package editor_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"math"
	"sync"
	"testing"

	"studio/internal/editor"
	"studio/internal/scene"
)

// recorder captures notifier events.
type recorder struct {
	mu     sync.Mutex
	events []string
	data   []any
}

func (r *recorder) Emit(_ context.Context, event string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	r.data = append(r.data, data)
}

func (r *recorder) count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == event {
			n++
		}
	}
	return n
}

func newEditor(t *testing.T) (*editor.Editor, *scene.Scene, *recorder) {
	t.Helper()
	s, err := scene.New(1080, 1080)
	if err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	ed := editor.New(s,
		editor.WithNotifier(context.Background(), rec),
		editor.WithJitter(func() float64 { return 0.5 }),
	)
	t.Cleanup(ed.Close)
	return ed, s, rec
}

func addRect(ed *editor.Editor, x, y float64) *scene.Node {
	n := scene.NewRect(x, y, 100, 100, "#3b82f6")
	ed.AddNode(n)
	return n
}

func ctrl(key string) editor.KeyEvent { return editor.KeyEvent{Key: key, Ctrl: true} }

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func decodeConfig(data []byte) (image.Config, error) {
	return png.DecodeConfig(bytes.NewReader(data))
}

// ─────────────────────────────────────────────────────────────
// Property binding
// ─────────────────────────────────────────────────────────────

func TestSetWidth_GoesThroughScale(t *testing.T) {
	ed, _, _ := newEditor(t)
	n := addRect(ed, 100, 100)
	before := n.ScaleX

	if err := ed.SetProperty("width", 200); err != nil {
		t.Fatal(err)
	}
	if !near(n.ScaleX, before*2) {
		t.Errorf("scaleX = %v, want %v", n.ScaleX, before*2)
	}
	if n.Width != 100 {
		t.Errorf("base width changed to %v", n.Width)
	}
	if f := ed.Fields(); f == nil || f.Width != 200 {
		t.Errorf("reported width = %+v, want 200", f)
	}
	if !near(n.ScaledWidth(), n.ScaleX*n.Width) {
		t.Error("scaled width does not follow scale")
	}
}

func TestSetProperty_RecomputesCoords(t *testing.T) {
	ed, s, _ := newEditor(t)
	n := addRect(ed, 0, 0)
	if err := ed.SetProperty("left", 500); err != nil {
		t.Fatal(err)
	}
	if hit := s.HitTest(s.CanvasToScene(550, 50)); hit != n {
		t.Error("hit test missed the moved node")
	}
	if hit := s.HitTest(s.CanvasToScene(50, 50)); hit != nil {
		t.Error("hit test still finds the node at its old place")
	}
}

func TestSetProperty_Errors(t *testing.T) {
	ed, _, _ := newEditor(t)
	if err := ed.SetProperty("left", 1); !errors.Is(err, editor.ErrNoSelection) {
		t.Errorf("no selection: err = %v", err)
	}
	addRect(ed, 0, 0)
	tests := []struct {
		key   string
		value any
		want  error
	}{
		{"bogus", 1, editor.ErrUnknownProperty},
		{"width", "wide", editor.ErrInvalidValue},
		{"width", -5, editor.ErrInvalidValue},
		{"fontSize", 12, editor.ErrNotApplicable},
		{"textAlign", "center", editor.ErrNotApplicable},
	}
	for _, tt := range tests {
		if err := ed.SetProperty(tt.key, tt.value); !errors.Is(err, tt.want) {
			t.Errorf("SetProperty(%q, %v) = %v, want %v", tt.key, tt.value, err, tt.want)
		}
	}
}

func TestSetProperty_Values(t *testing.T) {
	ed, _, _ := newEditor(t)
	n := addRect(ed, 0, 0)

	must := func(key string, v any) {
		t.Helper()
		if err := ed.SetProperty(key, v); err != nil {
			t.Fatalf("SetProperty(%q): %v", key, err)
		}
	}
	must("opacity", "50")
	must("angle", -90)
	must("rx", 12)
	must("fill", "#ff0000")
	must("stroke", "#000000")
	must("strokeWidth", 3)

	if n.Opacity != 0.5 {
		t.Errorf("opacity = %v, want 0.5", n.Opacity)
	}
	if n.Angle != 270 {
		t.Errorf("angle = %v, want 270", n.Angle)
	}
	if n.CornerRadius != 12 || n.Fill.Color != "#ff0000" || n.StrokeWidth != 3 {
		t.Errorf("unexpected node %+v", n)
	}
	f := ed.Fields()
	if f.Opacity != 50 || f.CornerRadius == nil || *f.CornerRadius != 12 {
		t.Errorf("fields = %+v", f)
	}
}

func TestTextRange_StylesOnlySelection(t *testing.T) {
	ed, _, _ := newEditor(t)
	n := scene.NewText(10, 10, "Hello world", scene.DefaultTextStyle(), "#1e293b")
	n.EnsureID()
	ed.AddNode(n)

	if err := ed.BeginTextEdit(n.ID); err != nil {
		t.Fatal(err)
	}
	if err := ed.SetTextSelection(0, 5); err != nil {
		t.Fatal(err)
	}
	if err := ed.SetProperty("fill", "#ff0000"); err != nil {
		t.Fatal(err)
	}
	if n.Fill.Color != "#1e293b" {
		t.Errorf("node fill changed to %q", n.Fill.Color)
	}
	if len(n.Text.Runs) != 1 {
		t.Fatalf("runs = %+v, want one", n.Text.Runs)
	}
	r := n.Text.Runs[0]
	if r.Start != 0 || r.End != 5 || r.Style.Fill != "#ff0000" {
		t.Errorf("run = %+v", r)
	}

	// Geometry stays node-wide even with a range selected.
	if err := ed.SetProperty("left", 40); err != nil {
		t.Fatal(err)
	}
	if n.X != 40 {
		t.Errorf("x = %v, want 40", n.X)
	}

	// An empty range styles the whole node.
	ed.SetTextSelection(3, 3)
	if err := ed.SetProperty("fontSize", 48); err != nil {
		t.Fatal(err)
	}
	if n.Text.Style.FontSize != 48 {
		t.Errorf("font size = %v, want 48", n.Text.Style.FontSize)
	}
}

func TestComposite_MovesSelectionBox(t *testing.T) {
	ed, _, _ := newEditor(t)
	a := addRect(ed, 100, 100)
	b := addRect(ed, 300, 200)
	ed.SelectAll()

	if err := ed.SetProperty("left", 0); err != nil {
		t.Fatal(err)
	}
	if a.X != 0 || b.X != 200 {
		t.Errorf("x = %v, %v; want 0, 200", a.X, b.X)
	}
	if err := ed.SetProperty("angle", 10); !errors.Is(err, editor.ErrNotApplicable) {
		t.Errorf("angle on composite: err = %v", err)
	}
	if f := ed.Fields(); f.Kind != editor.KindSelection || f.Count != 2 {
		t.Errorf("fields = %+v", f)
	}
}

func TestComposite_DragSkipsLockedMembers(t *testing.T) {
	ed, _, _ := newEditor(t)
	a := addRect(ed, 0, 0)
	b := addRect(ed, 100, 0)
	b.Locked = true
	ed.SelectAll()

	if err := ed.Drag(10, 0); err != nil {
		t.Fatalf("drag: %v", err)
	}
	if a.X != 10 || b.X != 100 {
		t.Errorf("x = %v, %v; want 10, 100", a.X, b.X)
	}

	a.Locked = true
	if err := ed.Drag(10, 0); !errors.Is(err, scene.ErrLocked) {
		t.Fatalf("expected ErrLocked with every member locked, got %v", err)
	}
	if a.X != 10 || b.X != 100 {
		t.Errorf("a failed drag moved nodes: x = %v, %v", a.X, b.X)
	}
}

func TestComposite_ScaleSpreadsFromBox(t *testing.T) {
	ed, _, _ := newEditor(t)
	a := addRect(ed, 100, 100)
	b := addRect(ed, 300, 100)
	ed.SelectAll()

	if err := ed.Scale(2, 1); err != nil {
		t.Fatalf("scale: %v", err)
	}
	if !near(a.X, 100) || !near(b.X, 500) {
		t.Errorf("x = %v, %v; want 100, 500", a.X, b.X)
	}
	if !near(a.ScaleX, 2) || !near(b.ScaleX, 2) || !near(b.ScaleY, 1) {
		t.Errorf("scale a=(%v,%v) b=(%v,%v)", a.ScaleX, a.ScaleY, b.ScaleX, b.ScaleY)
	}
	if !near(a.Y, 100) || !near(b.Y, 100) {
		t.Errorf("y = %v, %v; want 100, 100", a.Y, b.Y)
	}
}

// ─────────────────────────────────────────────────────────────
// Selection tracking
// ─────────────────────────────────────────────────────────────

func TestFields_FollowSelection(t *testing.T) {
	ed, _, rec := newEditor(t)
	if _, err := ed.AddShape(editor.ShapeRect); err != nil {
		t.Fatal(err)
	}
	f := ed.Fields()
	if f == nil || f.Kind != scene.KindRect || f.Width != 100 || f.Fill != "#3b82f6" {
		t.Fatalf("fields = %+v", f)
	}
	if rec.count(editor.EventFields) == 0 {
		t.Error("no fields event emitted")
	}

	ed.Deselect()
	if ed.Fields() != nil {
		t.Error("fields should be undefined after clearing the selection")
	}
	if rec.count(editor.EventSelectionCleared) != 1 {
		t.Errorf("selection-cleared events = %d, want 1", rec.count(editor.EventSelectionCleared))
	}
}

func TestAddShape_Defaults(t *testing.T) {
	ed, s, _ := newEditor(t)
	tests := []struct {
		shape editor.Shape
		kind  scene.Kind
		x     float64
		w     float64
		fill  string
	}{
		{editor.ShapeRect, scene.KindRect, 490, 100, "#3b82f6"},
		{editor.ShapeRoundedRect, scene.KindRect, 480, 120, "#10b981"},
		{editor.ShapeEllipse, scene.KindEllipse, 490, 100, "#ef4444"},
	}
	for _, tt := range tests {
		n, err := ed.AddShape(tt.shape)
		if err != nil {
			t.Fatal(err)
		}
		if n.Kind != tt.kind || n.X != tt.x || n.Width != tt.w || n.Fill.Color != tt.fill {
			t.Errorf("%s: got kind=%s x=%v w=%v fill=%s", tt.shape, n.Kind, n.X, n.Width, n.Fill.Color)
		}
		if s.IndexOf(n) != s.Len()-1 {
			t.Errorf("%s: not on top", tt.shape)
		}
	}
	txt, _ := ed.AddShape(editor.ShapeText)
	if txt.Text.Content != "Double click to edit" || txt.Text.Style.FontSize != 24 {
		t.Errorf("text defaults = %+v", txt.Text)
	}
}

func TestDoubleClick_OpensToolbarAtPagePosition(t *testing.T) {
	ed, s, rec := newEditor(t)
	addRect(ed, 100, 100)
	ed.Deselect()
	s.SetPageOffset(300, 40)

	if !ed.DoubleClick(150, 150) {
		t.Fatal("double click missed the node")
	}
	tb := ed.Toolbar()
	if !tb.Visible || tb.X != 450 || tb.Y != 190 {
		t.Errorf("toolbar = %+v, want visible at (450,190)", tb)
	}
	if rec.count(editor.EventToolbar) != 1 {
		t.Errorf("toolbar events = %d", rec.count(editor.EventToolbar))
	}

	ed.Click(5, 5)
	if ed.Toolbar().Visible {
		t.Error("clicking empty space should hide the toolbar")
	}
}

// ─────────────────────────────────────────────────────────────
// Keyboard commands
// ─────────────────────────────────────────────────────────────

func TestPaste_EmptyClipboardIsNoop(t *testing.T) {
	ed, s, _ := newEditor(t)
	ed.HandleKey(ctrl("v"))
	if s.Len() != 0 {
		t.Errorf("nodes = %d, want 0", s.Len())
	}
}

func TestPaste_Cascades(t *testing.T) {
	ed, s, _ := newEditor(t)
	orig := addRect(ed, 100, 100)
	ed.HandleKey(ctrl("c"))

	var got []*scene.Node
	for i := 0; i < 3; i++ {
		ed.HandleKey(ctrl("v"))
		got = append(got, s.Active().Single())
	}
	for i, n := range got {
		want := 100 + float64(i+1)*20
		if n == nil || n.X != want || n.Y != want {
			t.Fatalf("paste %d at %+v, want %v", i, n, want)
		}
		if n == orig || n.Fill.Color != orig.Fill.Color || n.Kind != orig.Kind || n.Width != orig.Width {
			t.Errorf("paste %d is not a faithful clone", i)
		}
	}
	if orig.X != 100 || orig.Y != 100 {
		t.Errorf("original moved to (%v,%v)", orig.X, orig.Y)
	}
	if s.Len() != 4 || s.IndexOf(got[2]) != 3 {
		t.Errorf("pastes should stack on top")
	}
}

func TestCut_RemovesAndKeepsClipboard(t *testing.T) {
	ed, s, _ := newEditor(t)
	addRect(ed, 100, 100)
	ed.HandleKey(ctrl("x"))
	if s.Len() != 0 || !s.Active().Empty() {
		t.Fatal("cut should remove the node and clear the selection")
	}
	ed.HandleKey(ctrl("v"))
	if s.Len() != 1 || s.Nodes()[0].X != 120 {
		t.Errorf("paste after cut: %d nodes", s.Len())
	}
}

func TestDuplicate_BypassesClipboard(t *testing.T) {
	ed, s, _ := newEditor(t)
	addRect(ed, 100, 100)
	ed.HandleKey(ctrl("d"))
	if s.Len() != 2 || s.Active().Single().X != 120 {
		t.Fatal("duplicate should add a selected clone offset by 20")
	}
	ed.HandleKey(ctrl("v"))
	if s.Len() != 2 {
		t.Error("duplicate must not fill the clipboard")
	}
}

func TestGroupUngroup_RestoresState(t *testing.T) {
	ed, s, _ := newEditor(t)
	a := addRect(ed, 100, 100)
	b := addRect(ed, 400, 250)
	b.Angle = 30
	b.ScaleX = 1.5
	b.SetCoords()
	type geo struct{ x, y, angle, sx, sy float64 }
	snap := func() []geo {
		var out []geo
		for _, n := range s.Nodes() {
			out = append(out, geo{n.X, n.Y, n.Angle, n.ScaleX, n.ScaleY})
		}
		return out
	}
	before := snap()

	ed.HandleKey(ctrl("a"))
	ed.HandleKey(ctrl("g"))
	if s.Len() != 1 || s.Nodes()[0].Kind != scene.KindGroup {
		t.Fatalf("after group: %d nodes", s.Len())
	}
	ed.HandleKey(editor.KeyEvent{Key: "G", Ctrl: true, Shift: true})
	if s.Len() != 2 {
		t.Fatalf("after ungroup: %d nodes", s.Len())
	}
	if s.Nodes()[0] != a || s.Nodes()[1] != b {
		t.Error("ungroup changed node identity or order")
	}
	sel := s.Active()
	if !sel.Composite || len(sel.Nodes) != 2 {
		t.Errorf("ungroup should leave a composite selection, got %+v", sel)
	}
	after := snap()
	for i := range before {
		x, y := before[i], after[i]
		if !near(x.x, y.x) || !near(x.y, y.y) || !near(x.angle, y.angle) || !near(x.sx, y.sx) || !near(x.sy, y.sy) {
			t.Errorf("node %d: before %+v after %+v", i, x, y)
		}
	}
}

func TestGroup_RequiresComposite(t *testing.T) {
	ed, s, _ := newEditor(t)
	addRect(ed, 0, 0)
	ed.HandleKey(ctrl("g"))
	if s.Nodes()[0].Kind != scene.KindRect {
		t.Error("single selection must not be grouped")
	}
	ed.HandleKey(editor.KeyEvent{Key: "g", Ctrl: true, Shift: true})
	if s.Len() != 1 {
		t.Error("ungroup of a non-group must do nothing")
	}
}

func TestSelectAll_EmptySceneIsNoop(t *testing.T) {
	ed, s, _ := newEditor(t)
	ed.HandleKey(ctrl("a"))
	if !s.Active().Empty() {
		t.Error("select all on an empty scene selected something")
	}
}

func TestDelete_RemovesSelection(t *testing.T) {
	ed, s, _ := newEditor(t)
	addRect(ed, 0, 0)
	addRect(ed, 200, 0)
	ed.HandleKey(editor.KeyEvent{Key: "a", Meta: true})
	if !ed.HandleKey(editor.KeyEvent{Key: "Backspace"}) {
		t.Fatal("backspace not handled")
	}
	if s.Len() != 0 || ed.Fields() != nil || ed.Toolbar().Visible {
		t.Error("delete should empty the scene, the fields and the toolbar")
	}
}

func TestNudge(t *testing.T) {
	ed, _, rec := newEditor(t)
	n := addRect(ed, 100, 100)
	before := rec.count(editor.EventFields)

	ed.HandleKey(editor.KeyEvent{Key: "ArrowRight"})
	ed.HandleKey(editor.KeyEvent{Key: "ArrowUp", Shift: true})
	if n.X != 101 || n.Y != 90 {
		t.Errorf("position = (%v,%v), want (101,90)", n.X, n.Y)
	}
	if rec.count(editor.EventFields) <= before {
		t.Error("nudge should republish fields")
	}
	if f := ed.Fields(); f.Left != 101 || f.Top != 90 {
		t.Errorf("fields = (%v,%v)", f.Left, f.Top)
	}

	n.Locked = true
	ed.HandleKey(editor.KeyEvent{Key: "ArrowLeft"})
	if n.X != 101 {
		t.Error("locked node was nudged")
	}
}

func TestLayering(t *testing.T) {
	ed, s, _ := newEditor(t)
	a := addRect(ed, 0, 0)
	b := addRect(ed, 10, 0)
	c := addRect(ed, 20, 0)

	ed.SelectByID(a.EnsureID())
	ed.HandleKey(ctrl("]"))
	if s.IndexOf(a) != 1 {
		t.Errorf("forward: index %d, want 1", s.IndexOf(a))
	}
	ed.HandleKey(editor.KeyEvent{Key: "}", Ctrl: true, Shift: true})
	if s.IndexOf(a) != 2 {
		t.Errorf("front: index %d, want 2", s.IndexOf(a))
	}
	ed.HandleKey(editor.KeyEvent{Key: "{", Ctrl: true, Shift: true})
	if s.IndexOf(a) != 0 {
		t.Errorf("back: index %d, want 0", s.IndexOf(a))
	}
	ed.HandleKey(ctrl("["))
	if s.IndexOf(a) != 0 || s.IndexOf(b) != 1 || s.IndexOf(c) != 2 {
		t.Error("backward at the bottom must not reorder")
	}
}

func TestKeys_IgnoredWhileEditingText(t *testing.T) {
	ed, s, _ := newEditor(t)
	n := scene.NewText(0, 0, "abc", scene.DefaultTextStyle(), "#000000")
	n.EnsureID()
	ed.AddNode(n)
	if err := ed.BeginTextEdit(n.ID); err != nil {
		t.Fatal(err)
	}
	if ed.HandleKey(editor.KeyEvent{Key: "Backspace"}) {
		t.Error("backspace consumed while editing")
	}
	if ed.HandleKey(ctrl("a")) {
		t.Error("ctrl+a consumed while editing")
	}
	if s.Len() != 1 {
		t.Error("node removed while editing")
	}
	ed.EndTextEdit()
	if !ed.HandleKey(editor.KeyEvent{Key: "Delete"}) || s.Len() != 0 {
		t.Error("delete after edit should remove the node")
	}
}

// ─────────────────────────────────────────────────────────────
// Selection actions
// ─────────────────────────────────────────────────────────────

func TestToggles(t *testing.T) {
	ed, s, _ := newEditor(t)
	n := addRect(ed, 0, 0)

	ed.TogglePattern()
	if n.Fill.Kind != scene.FillPattern || n.Fill.Color != "#3b82f6" {
		t.Errorf("pattern on: %+v", n.Fill)
	}
	ed.TogglePattern()
	if n.Fill.Kind != scene.FillSolid || n.Fill.Color != "#3b82f6" {
		t.Errorf("pattern off: %+v", n.Fill)
	}

	ed.ToggleLock()
	if !n.Locked {
		t.Error("lock not set")
	}
	if err := s.DragBy(n, 5, 5); !errors.Is(err, scene.ErrLocked) {
		t.Errorf("drag locked: %v", err)
	}

	n.Opacity = 0.7
	ed.ToggleVisibility()
	if n.Visibility != scene.Hidden || n.Opacity != 0.7 {
		t.Errorf("hidden: visibility=%s opacity=%v", n.Visibility, n.Opacity)
	}
	if !s.Active().Empty() {
		t.Error("toggling visibility should clear the selection")
	}
	if err := ed.ToggleVisibility(); !errors.Is(err, editor.ErrNoSelection) {
		t.Errorf("err = %v", err)
	}
}

func TestCenterOnCanvas(t *testing.T) {
	ed, _, _ := newEditor(t)
	n := addRect(ed, 0, 0)
	ed.CenterOnCanvas()
	if n.X != 490 || n.Y != 490 {
		t.Errorf("position = (%v,%v), want (490,490)", n.X, n.Y)
	}
}

func TestNewFile_Resets(t *testing.T) {
	ed, s, _ := newEditor(t)
	addRect(ed, 0, 0)
	s.SetViewport(2, 30, 40)
	ed.SetDocument(editor.Document{ID: "abc", Name: "Poster"})
	gen := s.Generation()

	if err := ed.NewFile("800", nil); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 0 || s.Width() != 800 || s.Height() != scene.DefaultSize {
		t.Errorf("scene = %d nodes %dx%d", s.Len(), s.Width(), s.Height())
	}
	if s.Background() != "#ffffff" || s.Viewport() != scene.IdentityViewport() {
		t.Errorf("background %q viewport %+v", s.Background(), s.Viewport())
	}
	if s.Generation() == gen {
		t.Error("generation not advanced")
	}
	if d := ed.Document(); d.ID != "" || d.Name != editor.DefaultName {
		t.Errorf("document = %+v", d)
	}
}

func TestAdoptID_FollowsDocumentNotContent(t *testing.T) {
	ed, _, _ := newEditor(t)
	addRect(ed, 0, 0)

	_, doc := ed.Snapshot()
	tpl, _ := scene.New(300, 300)
	data, err := scene.Encode(tpl)
	if err != nil {
		t.Fatal(err)
	}
	if err := ed.ApplyTemplate(data); err != nil {
		t.Fatal(err)
	}
	if !ed.AdoptID("d1", doc) || ed.Document().ID != "d1" {
		t.Fatalf("expected the id to survive a content replacement, got %+v", ed.Document())
	}
	if ed.AdoptID("d2", doc) {
		t.Error("a document with an id adopted another")
	}

	_, doc = ed.Snapshot()
	ed.SetDocument(editor.Document{ID: "d1", Name: "Renamed"})
	_, renamed := ed.Snapshot()
	if err := ed.NewFile(nil, nil); err != nil {
		t.Fatal(err)
	}
	if ed.AdoptID("d3", doc) || ed.AdoptID("d3", renamed) {
		t.Errorf("id adopted across a new file: %+v", ed.Document())
	}
}

// ─────────────────────────────────────────────────────────────
// Export
// ─────────────────────────────────────────────────────────────

func TestExportPNG(t *testing.T) {
	s, _ := scene.New(100, 50)
	ed := editor.New(s)
	defer ed.Close()
	ed.SetDocument(editor.Document{Name: "Summer Sale"})

	exp, err := ed.ExportPNG()
	if err != nil {
		t.Fatal(err)
	}
	if exp.Filename != "summer_sale.png" {
		t.Errorf("filename = %q", exp.Filename)
	}
	cfg, err := decodeConfig(exp.Data)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 200 || cfg.Height != 100 {
		t.Errorf("scene export = %dx%d, want 200x100", cfg.Width, cfg.Height)
	}

	ed.AddNode(scene.NewRect(10, 10, 20, 10, "#000000"))
	exp, err = ed.ExportPNG()
	if err != nil {
		t.Fatal(err)
	}
	cfg, _ = decodeConfig(exp.Data)
	if cfg.Width != 80 || cfg.Height != 40 {
		t.Errorf("node export = %dx%d, want 80x40", cfg.Width, cfg.Height)
	}
}
