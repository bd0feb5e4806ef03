package editor_test

import (
	"context"
	"errors"
	"image"
	"testing"

	"studio/internal/editor"
	"studio/internal/scene"
)

type loaderFunc func(ctx context.Context, src string) (image.Image, error)

func (f loaderFunc) Fetch(ctx context.Context, src string) (image.Image, error) { return f(ctx, src) }

// gatedLoader blocks every fetch until release is closed.
func gatedLoader(img image.Image, err error) (editor.ImageLoader, chan struct{}, chan struct{}) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	l := loaderFunc(func(ctx context.Context, _ string) (image.Image, error) {
		started <- struct{}{}
		<-release
		return img, err
	})
	return l, started, release
}

type insertResult struct {
	node *scene.Node
	err  error
}

func insertAsync(ed *editor.Editor, l editor.ImageLoader, place editor.Placement) chan insertResult {
	done := make(chan insertResult, 1)
	go func() {
		n, err := ed.InsertImage(context.Background(), l, "https://example.com/a.png", place)
		done <- insertResult{n, err}
	}()
	return done
}

func countNodes(ed *editor.Editor) (total, transient int) {
	ed.With(func(s *scene.Scene) error {
		for _, n := range s.Nodes() {
			total++
			if n.Transient {
				transient++
			}
		}
		return nil
	})
	return total, transient
}

// ─────────────────────────────────────────────────────────────
// InsertImage
// ─────────────────────────────────────────────────────────────

func TestInsertImage_ReplacesPlaceholder(t *testing.T) {
	ed, s, _ := newEditor(t)
	below := addRect(ed, 0, 0)

	l, started, release := gatedLoader(image.NewRGBA(image.Rect(0, 0, 400, 200)), nil)
	done := insertAsync(ed, l, editor.PlaceUpload)
	<-started

	// Added while the image loads: it must land above the image's slot.
	above := addRect(ed, 500, 500)
	if total, transient := countNodes(ed); total != 3 || transient != 1 {
		t.Fatalf("during load: %d nodes, %d transient", total, transient)
	}

	close(release)
	res := <-done
	if res.err != nil || res.node == nil {
		t.Fatalf("insert: %v", res.err)
	}
	n := res.node
	if s.IndexOf(below) != 0 || s.IndexOf(n) != 1 || s.IndexOf(above) != 2 {
		t.Errorf("z-order = %d %d %d", s.IndexOf(below), s.IndexOf(n), s.IndexOf(above))
	}
	if n.X != 100 || n.Y != 100 || n.ScaledWidth() != 200 {
		t.Errorf("placement = (%v,%v) w=%v", n.X, n.Y, n.ScaledWidth())
	}
	if _, transient := countNodes(ed); transient != 0 {
		t.Error("placeholder left behind")
	}
	if s.Active().Single() != n {
		t.Error("inserted image not selected")
	}
}

func TestInsertImage_CenteredAndCapped(t *testing.T) {
	ed, _, _ := newEditor(t)
	l := loaderFunc(func(context.Context, string) (image.Image, error) {
		return image.NewRGBA(image.Rect(0, 0, 1000, 500)), nil
	})
	n, err := ed.InsertImage(context.Background(), l, "icon.svg", editor.PlaceCentered)
	if err != nil {
		t.Fatal(err)
	}
	if !near(n.ScaledWidth(), 432) {
		t.Errorf("width = %v, want 432", n.ScaledWidth())
	}
	if !near(n.X, 540-216) || !near(n.Y, 540-108) {
		t.Errorf("position = (%v,%v)", n.X, n.Y)
	}
}

func TestInsertImage_DiscardedAfterNewFile(t *testing.T) {
	ed, s, _ := newEditor(t)
	l, started, release := gatedLoader(image.NewRGBA(image.Rect(0, 0, 10, 10)), nil)
	done := insertAsync(ed, l, editor.PlaceUpload)
	<-started

	if err := ed.NewFile(800, 600); err != nil {
		t.Fatal(err)
	}
	close(release)
	res := <-done
	if res.err != nil || res.node != nil {
		t.Errorf("stale insert returned (%v, %v), want (nil, nil)", res.node, res.err)
	}
	if s.Len() != 0 {
		t.Errorf("new scene has %d nodes", s.Len())
	}
}

func TestInsertImage_PlaceholderGoneAppends(t *testing.T) {
	ed, s, _ := newEditor(t)
	l, started, release := gatedLoader(image.NewRGBA(image.Rect(0, 0, 10, 10)), nil)
	done := insertAsync(ed, l, editor.PlaceUpload)
	<-started

	ed.With(func(sc *scene.Scene) error {
		for _, n := range sc.Nodes() {
			if n.Transient {
				sc.Remove(n)
			}
		}
		return nil
	})
	top := addRect(ed, 0, 0)
	close(release)
	res := <-done
	if res.node == nil || s.IndexOf(res.node) != s.IndexOf(top)+1 {
		t.Error("image should go on top when its placeholder is gone")
	}
}

func TestInsertImage_FailureRemovesPlaceholder(t *testing.T) {
	ed, s, _ := newEditor(t)
	boom := errors.New("blocked by CORS")
	l := loaderFunc(func(context.Context, string) (image.Image, error) { return nil, boom })

	_, err := ed.InsertImage(context.Background(), l, "https://example.com/x.png", editor.PlaceCentered)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped load error", err)
	}
	if s.Len() != 0 {
		t.Errorf("%d nodes left after failed insert", s.Len())
	}
}

func TestHydrateImages(t *testing.T) {
	ed, _, _ := newEditor(t)
	n := scene.NewImage(0, 0, "https://example.com/a.png")
	n.Width, n.Height = 50, 50
	ed.AddNode(n)

	l := loaderFunc(func(context.Context, string) (image.Image, error) {
		return image.NewRGBA(image.Rect(0, 0, 100, 100)), nil
	})
	if got := ed.HydrateImages(context.Background(), l); got != 1 {
		t.Fatalf("hydrated %d, want 1", got)
	}
	if n.Bitmap() == nil || n.Width != 50 {
		t.Errorf("bitmap=%v width=%v; stored geometry must be kept", n.Bitmap() != nil, n.Width)
	}
}

// ─────────────────────────────────────────────────────────────
// Processing set
// ─────────────────────────────────────────────────────────────

func addImage(t *testing.T, ed *editor.Editor) *scene.Node {
	t.Helper()
	n := scene.NewImage(0, 0, "data:image/png;base64,AAAA")
	n.SetBitmap(image.NewRGBA(image.Rect(0, 0, 20, 20)))
	ed.AddNode(n)
	return n
}

func TestProcessing_SameNodeRejected(t *testing.T) {
	ed, _, rec := newEditor(t)
	n := addImage(t, ed)

	job, err := ed.BeginProcessing()
	if err != nil {
		t.Fatal(err)
	}
	if n.ID == "" || job.NodeID != n.ID {
		t.Fatalf("node id not assigned: %q / %q", n.ID, job.NodeID)
	}
	if !ed.Processing(n.ID) || !ed.Fields().Processing {
		t.Error("node should be marked as processing")
	}
	if _, err := ed.BeginProcessing(); !errors.Is(err, editor.ErrAlreadyProcessing) {
		t.Errorf("second request: err = %v", err)
	}

	ed.EndProcessing(job)
	if ed.Processing(n.ID) {
		t.Error("processing flag not cleared")
	}
	if rec.count(editor.EventProcessing) != 2 {
		t.Errorf("processing events = %d, want 2", rec.count(editor.EventProcessing))
	}
	if _, err := ed.BeginProcessing(); err != nil {
		t.Errorf("after release: %v", err)
	}
}

func TestProcessing_RequiresImage(t *testing.T) {
	ed, _, _ := newEditor(t)
	addRect(ed, 0, 0)
	if _, err := ed.BeginProcessing(); !errors.Is(err, editor.ErrNotImage) {
		t.Errorf("err = %v", err)
	}
}

func TestApplyProcessed(t *testing.T) {
	ed, _, _ := newEditor(t)
	n := addImage(t, ed)
	job, _ := ed.BeginProcessing()

	out := image.NewRGBA(image.Rect(0, 0, 20, 20))
	if err := ed.ApplyProcessed(job, out, "data:image/png;base64,BBBB"); err != nil {
		t.Fatal(err)
	}
	if n.Image.Src != "data:image/png;base64,BBBB" || n.Bitmap() != out {
		t.Error("result not swapped in")
	}
	ed.EndProcessing(job)

	job, _ = ed.BeginProcessing()
	ed.DeleteSelection()
	if err := ed.ApplyProcessed(job, out, "x"); !errors.Is(err, editor.ErrStale) {
		t.Errorf("removed node: err = %v", err)
	}
	ed.EndProcessing(job)
}

// ─────────────────────────────────────────────────────────────
// System clipboard
// ─────────────────────────────────────────────────────────────

type textClipboard struct{ text string }

func (c *textClipboard) WriteAll(text string) error {
	c.text = text
	return nil
}

func (c *textClipboard) ReadAll() (string, error) { return c.text, nil }

func TestPasteSystem_NormalizesForeignNodes(t *testing.T) {
	s, _ := scene.New(400, 400)
	clip := &textClipboard{text: `{"studioClipboard":1,"objects":[{"type":"image","left":10,"top":10,"width":16,"height":16},null]}`}
	ed := editor.New(s, editor.WithClipboard(clip))
	defer ed.Close()

	if !ed.PasteSystem() {
		t.Fatal("expected the payload to paste")
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 pasted node, got %d", s.Len())
	}
	n := s.Nodes()[0]
	if n.Image == nil || n.ScaleX != 1 || n.Visibility != scene.Visible {
		t.Fatalf("pasted node not normalized: %+v", n)
	}
	job, err := ed.BeginProcessing()
	if err != nil {
		t.Fatalf("begin processing: %v", err)
	}
	ed.EndProcessing(job)
}

func TestPasteSystem_ImagesCanBeHydrated(t *testing.T) {
	s, _ := scene.New(400, 400)
	clip := &textClipboard{text: `{"studioClipboard":1,"objects":[{"type":"image","left":0,"top":0,"image":{"src":"https://example.com/b.png"}}]}`}
	ed := editor.New(s, editor.WithClipboard(clip))
	defer ed.Close()

	if !ed.PasteSystem() {
		t.Fatal("expected the payload to paste")
	}
	l := loaderFunc(func(context.Context, string) (image.Image, error) {
		return image.NewRGBA(image.Rect(0, 0, 16, 16)), nil
	})
	if got := ed.HydrateImages(context.Background(), l); got != 1 {
		t.Fatalf("expected the pasted image to load, got %d", got)
	}
	if s.Nodes()[0].Bitmap() == nil {
		t.Error("pasted image has no pixels")
	}
}

func TestPasteSystem_IgnoresPlainText(t *testing.T) {
	s, _ := scene.New(400, 400)
	ed := editor.New(s, editor.WithClipboard(&textClipboard{text: "hello"}))
	defer ed.Close()
	if ed.PasteSystem() || s.Len() != 0 {
		t.Error("plain text was pasted as nodes")
	}
}
