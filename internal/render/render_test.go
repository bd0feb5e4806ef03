package render_test

import (
	"bytes"
	"errors"
	"image/color"
	"image/png"
	"testing"

	"studio/internal/render"
	"studio/internal/scene"
)

func mustScene(t *testing.T, w, h int) *scene.Scene {
	t.Helper()
	s, err := scene.New(w, h)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func rgba(c color.Color) (uint8, uint8, uint8, uint8) {
	r, g, b, a := c.RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)
}

// ─────────────────────────────────────────────────────────────
// Scene
// ─────────────────────────────────────────────────────────────

func TestScene_SizeFollowsMultiplier(t *testing.T) {
	s := mustScene(t, 200, 100)
	img, err := render.Scene(s, render.Options{Multiplier: 2})
	if err != nil {
		t.Fatal(err)
	}
	b := img.Bounds()
	if b.Dx() != 400 || b.Dy() != 200 {
		t.Errorf("size = %dx%d, want 400x200", b.Dx(), b.Dy())
	}
}

func TestScene_PaintsBackgroundAndRect(t *testing.T) {
	s := mustScene(t, 100, 100)
	s.SetBackground("#ffffff")
	s.Add(scene.NewRect(10, 10, 40, 40, "#ff0000"))

	img, err := render.Scene(s, render.Options{Multiplier: 1})
	if err != nil {
		t.Fatal(err)
	}

	r, g, b, _ := rgba(img.At(30, 30))
	if r < 200 || g > 60 || b > 60 {
		t.Errorf("inside rect = (%d,%d,%d), want red", r, g, b)
	}
	r, g, b, _ = rgba(img.At(80, 80))
	if r < 240 || g < 240 || b < 240 {
		t.Errorf("outside rect = (%d,%d,%d), want white", r, g, b)
	}
}

func TestScene_SkipsHiddenNodes(t *testing.T) {
	s := mustScene(t, 100, 100)
	s.SetBackground("#ffffff")
	n := scene.NewRect(0, 0, 100, 100, "#000000")
	n.Visibility = scene.Hidden
	s.Add(n)

	img, err := render.Scene(s, render.Options{Multiplier: 1})
	if err != nil {
		t.Fatal(err)
	}
	if r, _, _, _ := rgba(img.At(50, 50)); r < 240 {
		t.Errorf("hidden node was drawn (r=%d)", r)
	}
}

func TestScene_BackgroundOverride(t *testing.T) {
	s := mustScene(t, 100, 100)
	s.SetBackground("")

	img, err := render.Scene(s, render.Options{Multiplier: 1, Background: "#ffffff"})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, _, a := rgba(img.At(5, 5)); a != 255 {
		t.Errorf("alpha = %d, want opaque override background", a)
	}
}

// ─────────────────────────────────────────────────────────────
// Nodes
// ─────────────────────────────────────────────────────────────

func TestNodes_CropsToUnionBounds(t *testing.T) {
	a := scene.NewRect(10, 10, 20, 20, "#000000")
	b := scene.NewRect(50, 40, 10, 10, "#000000")
	a.SetCoords()
	b.SetCoords()

	img, err := render.Nodes([]*scene.Node{a, b}, 4)
	if err != nil {
		t.Fatal(err)
	}
	bb := img.Bounds()
	if bb.Dx() != 200 || bb.Dy() != 160 {
		t.Errorf("size = %dx%d, want 200x160", bb.Dx(), bb.Dy())
	}
}

func TestNodes_EmptyIsError(t *testing.T) {
	_, err := render.Nodes(nil, 1)
	if !errors.Is(err, render.ErrEmpty) {
		t.Errorf("err = %v, want ErrEmpty", err)
	}
}

// ─────────────────────────────────────────────────────────────
// Encoding helpers
// ─────────────────────────────────────────────────────────────

func TestDataURI_RoundTrip(t *testing.T) {
	s := mustScene(t, 120, 80)
	img, err := render.Scene(s, render.Options{Multiplier: 1})
	if err != nil {
		t.Fatal(err)
	}
	uri, err := render.DataURI(img)
	if err != nil {
		t.Fatal(err)
	}
	data, err := render.DecodeDataURI(uri)
	if err != nil {
		t.Fatal(err)
	}
	back, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if back.Bounds() != img.Bounds() {
		t.Errorf("bounds = %v, want %v", back.Bounds(), img.Bounds())
	}
}

func TestExportFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"My Poster!", "my_poster_.png"},
		{"", "design.png"},
		{"   ", "design.png"},
		{"Logo2025", "logo2025.png"},
	}
	for _, tt := range tests {
		if got := render.ExportFilename(tt.in); got != tt.want {
			t.Errorf("ExportFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHatchTile(t *testing.T) {
	img, err := render.HatchTile("#ff0000")
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 10 || b.Dy() != 10 {
		t.Fatalf("tile = %v, want 10x10", b)
	}
	painted := false
	for y := 0; y < 10 && !painted; y++ {
		for x := 0; x < 10; x++ {
			if _, _, _, a := rgba(img.At(x, y)); a > 0 {
				painted = true
				break
			}
		}
	}
	if !painted {
		t.Error("hatch tile has no stripes")
	}
}
