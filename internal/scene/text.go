package scene

import (
	"strings"
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// lineHeight matches the default line spacing of the editor's text objects.
const lineHeight = 1.16

// TextStyle is the node-wide typography of a text node.
type TextStyle struct {
	FontFamily string  `json:"fontFamily"`
	FontSize   float64 `json:"fontSize"`
	FontWeight string  `json:"fontWeight"`
	Align      string  `json:"textAlign"`
}

// DefaultTextStyle is the style given to newly added text.
func DefaultTextStyle() TextStyle {
	return TextStyle{FontFamily: "Inter, sans-serif", FontSize: 24, FontWeight: "normal", Align: "left"}
}

// RunStyle overrides the node style for a character range. Zero fields
// inherit from the node.
type RunStyle struct {
	Fill       string  `json:"fill,omitempty"`
	FontFamily string  `json:"fontFamily,omitempty"`
	FontSize   float64 `json:"fontSize,omitempty"`
	FontWeight string  `json:"fontWeight,omitempty"`
}

func (r RunStyle) merge(patch RunStyle) RunStyle {
	if patch.Fill != "" {
		r.Fill = patch.Fill
	}
	if patch.FontFamily != "" {
		r.FontFamily = patch.FontFamily
	}
	if patch.FontSize != 0 {
		r.FontSize = patch.FontSize
	}
	if patch.FontWeight != "" {
		r.FontWeight = patch.FontWeight
	}
	return r
}

// StyleRun applies Style to runes [Start, End).
type StyleRun struct {
	Start int      `json:"start"`
	End   int      `json:"end"`
	Style RunStyle `json:"style"`
}

// TextBody is the content of a text node.
type TextBody struct {
	Content string     `json:"content"`
	Style   TextStyle  `json:"style"`
	Runs    []StyleRun `json:"runs,omitempty"`
}

// SetContent replaces the content and drops runs past the new end.
func (t *TextBody) SetContent(s string) {
	t.Content = s
	n := len([]rune(s))
	kept := t.Runs[:0]
	for _, r := range t.Runs {
		if r.Start >= n {
			continue
		}
		if r.End > n {
			r.End = n
		}
		kept = append(kept, r)
	}
	t.Runs = kept
}

// ApplyStyle merges patch into the style of runes [start, end).
func (t *TextBody) ApplyStyle(start, end int, patch RunStyle) {
	n := len([]rune(t.Content))
	if start > end {
		start, end = end, start
	}
	start = max(start, 0)
	end = min(end, n)
	if start >= end {
		return
	}
	per := make([]RunStyle, n)
	for _, r := range t.Runs {
		for i := max(r.Start, 0); i < min(r.End, n); i++ {
			per[i] = r.Style
		}
	}
	for i := start; i < end; i++ {
		per[i] = per[i].merge(patch)
	}
	var runs []StyleRun
	for i := 0; i < n; i++ {
		if per[i] == (RunStyle{}) {
			continue
		}
		if k := len(runs) - 1; k >= 0 && runs[k].End == i && runs[k].Style == per[i] {
			runs[k].End = i + 1
			continue
		}
		runs = append(runs, StyleRun{Start: i, End: i + 1, Style: per[i]})
	}
	t.Runs = runs
}

// StyleAt returns the run override covering rune i.
func (t *TextBody) StyleAt(i int) RunStyle {
	for _, r := range t.Runs {
		if i >= r.Start && i < r.End {
			return r.Style
		}
	}
	return RunStyle{}
}

// Lines splits the content on newlines.
func (t *TextBody) Lines() []string {
	return strings.Split(t.Content, "\n")
}

var (
	fontsOnce sync.Once
	fontReg   *text.FontSource
	fontBold  *text.FontSource
)

func loadFonts() {
	fontsOnce.Do(func() {
		fontReg, _ = text.NewFontSource(goregular.TTF)
		fontBold, _ = text.NewFontSource(gobold.TTF)
	})
}

// IsBold reports whether a CSS font weight renders with the bold face.
func IsBold(weight string) bool {
	switch weight {
	case "bold", "bolder", "600", "700", "800", "900":
		return true
	}
	return false
}

// Face returns the font face used to draw and measure text of the given
// weight and size. Families map onto the bundled Go fonts.
func Face(weight string, size float64) text.Face {
	loadFonts()
	src := fontReg
	if IsBold(weight) && fontBold != nil {
		src = fontBold
	}
	if src == nil {
		return nil
	}
	return src.Face(size)
}

// Reflow recomputes a text node's base box from its content.
func (n *Node) Reflow() {
	if n.Text == nil {
		return
	}
	st := n.Text.Style
	face := Face(st.FontWeight, st.FontSize)
	lines := n.Text.Lines()
	w := 0.0
	for _, l := range lines {
		var adv float64
		if face != nil {
			adv = face.Advance(l)
		} else {
			adv = float64(len([]rune(l))) * st.FontSize * 0.5
		}
		w = max(w, adv)
	}
	n.Width = w
	n.Height = float64(len(lines)) * st.FontSize * lineHeight
}
