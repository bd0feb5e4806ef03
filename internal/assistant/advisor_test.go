package assistant_test

import (
	"strings"
	"testing"

	"studio/internal/assistant"
	"studio/internal/scene"
)

func newScene(t *testing.T, bg string) *scene.Scene {
	t.Helper()
	s, err := scene.New(1080, 1080)
	if err != nil {
		t.Fatal(err)
	}
	s.SetBackground(bg)
	return s
}

func text(size float64, content, fill string) *scene.Node {
	st := scene.DefaultTextStyle()
	st.FontSize = size
	return scene.NewText(200, 200, content, st, fill)
}

func codes(tips []assistant.Tip) string {
	out := make([]string, len(tips))
	for i, t := range tips {
		out[i] = t.Code
	}
	return strings.Join(out, ",")
}

func TestAdvise(t *testing.T) {
	tests := []struct {
		name string
		bg   string
		node *scene.Node
		want string
	}{
		{"readable text", "#ffffff", text(24, "Hello", "#111111"), ""},
		{"small text", "#ffffff", text(12, "Hello", "#111111"), "text-small"},
		{"huge text", "#ffffff", text(140, "Hi", "#111111"), "text-large"},
		{"white on white", "#ffffff", text(24, "Hello", "#FFFFFF"), "contrast"},
		{"white on light gray", "#f3f4f6", text(24, "Hello", "#fff"), "contrast"},
		{"white on dark", "#0f3d4e", text(24, "Hello", "#ffffff"), ""},
		{"long text", "#ffffff", text(24, strings.Repeat("a", 101), "#000000"), "text-long"},
		{"small and long", "#ffffff", text(10, strings.Repeat("é", 120), "#000000"), "text-small,text-long"},
		{"tiny rect", "#ffffff", scene.NewRect(200, 200, 30, 80, "#000000"), "shape-small"},
		{"rect at edge", "#ffffff", scene.NewRect(5, 200, 100, 100, "#000000"), "edge"},
		{"rect at right edge", "#ffffff", scene.NewRect(1000, 200, 100, 100, "#000000"), "edge"},
		{"tiny circle at edge", "#ffffff", scene.NewEllipse(0, 0, 10, "#000000"), "shape-small,edge"},
		{"image is not checked", "#ffffff", scene.NewImage(0, 0, "x.png"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newScene(t, tt.bg)
			s.Add(tt.node)
			if got := codes(assistant.Advise(tt.node, s)); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAdvise_ScaledText(t *testing.T) {
	s := newScene(t, "#ffffff")
	n := text(40, "Hello", "#000000")
	n.ScaleY = 0.25
	s.Add(n)
	if got := codes(assistant.Advise(n, s)); got != "text-small" {
		t.Errorf("expected scaled-down text to be small, got %q", got)
	}
}

func TestAdvise_Crowded(t *testing.T) {
	s := newScene(t, "#ffffff")
	var last *scene.Node
	for i := range 16 {
		last = scene.NewRect(100+float64(i), 100, 100, 100, "#000000")
		s.Add(last)
	}
	tips := assistant.Advise(last, s)
	if got := codes(tips); got != "crowded" {
		t.Fatalf("got %q", got)
	}
	h := assistant.Headline(tips)
	if h == nil || h.Severity != assistant.Warning {
		t.Fatalf("unexpected headline: %+v", h)
	}
	if assistant.Headline(nil) != nil {
		t.Error("expected no headline without tips")
	}
}
