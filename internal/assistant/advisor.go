// Package assistant gives rule-based design advice for the selected node.
package assistant

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/gogpu/gg"
	"github.com/samber/lo"

	"studio/internal/scene"
)

type Severity string

const (
	Info    Severity = "info"
	Warning Severity = "warning"
	Error   Severity = "error"
)

// Tip is one piece of advice. Code identifies the rule.
type Tip struct {
	Code     string   `json:"code"`
	Severity Severity `json:"type"`
	Message  string   `json:"message"`
	Action   string   `json:"action"`
}

const (
	minFontSize   = 16
	maxFontSize   = 100
	maxTextLength = 100
	minShapeSize  = 50
	edgeMargin    = 20
	maxNodes      = 15
)

// Advise checks n against the layout rules and returns the tips in rule
// order. Font sizes and shape sizes are measured as drawn, scale included.
func Advise(n *scene.Node, s *scene.Scene) []Tip {
	var tips []Tip
	if n == nil || s == nil {
		return nil
	}

	switch n.Kind {
	case scene.KindText:
		if n.Text == nil {
			break
		}
		size := n.Text.Style.FontSize * math.Abs(n.ScaleY)
		if size < minFontSize {
			tips = append(tips, Tip{
				Code: "text-small", Severity: Warning,
				Message: "This text is very small. Raise it to 16px or more.",
				Action:  "Small text has to stay readable.",
			})
		} else if size > maxFontSize {
			tips = append(tips, Tip{
				Code: "text-large", Severity: Info,
				Message: "This text is very large. Scale it down to fit the layout.",
				Action:  "Text should blend into the design.",
			})
		}
		if isWhite(n.Fill.Color) && nearWhite(s.Background()) {
			tips = append(tips, Tip{
				Code: "contrast", Severity: Error,
				Message: "Text and background colors are the same. Change one of them.",
				Action:  "Use enough contrast for the text to be read.",
			})
		}
		if utf8.RuneCountInString(n.Text.Content) > maxTextLength {
			tips = append(tips, Tip{
				Code: "text-long", Severity: Info,
				Message: "This text is long. Shorten it to the key point.",
				Action:  "Short copy draws attention.",
			})
		}
	case scene.KindRect, scene.KindEllipse:
		if n.ScaledWidth() < minShapeSize || n.ScaledHeight() < minShapeSize {
			tips = append(tips, Tip{
				Code: "shape-small", Severity: Warning,
				Message: "This shape is very small. Enlarge it so it shows.",
				Action:  "Tiny shapes get lost in the design.",
			})
		}
		if nearEdge(n.Bounds(), float64(s.Width()), float64(s.Height())) {
			tips = append(tips, Tip{
				Code: "edge", Severity: Info,
				Message: "This shape is very close to the edge. Move it inward.",
				Action:  "Leave a margin around the canvas edge.",
			})
		}
	}

	count := lo.CountBy(s.Nodes(), func(x *scene.Node) bool { return !x.Transient })
	if count > maxNodes {
		tips = append(tips, Tip{
			Code: "crowded", Severity: Warning,
			Message: "The design is crowded. Remove some elements.",
			Action:  "A simple design is a beautiful design.",
		})
	}
	return tips
}

// Headline returns the first tip, the one shown to the user, or nil.
func Headline(tips []Tip) *Tip {
	if len(tips) == 0 {
		return nil
	}
	return &tips[0]
}

func nearEdge(b scene.Rect, w, h float64) bool {
	return b.Min.X < edgeMargin || b.Min.Y < edgeMargin ||
		b.Max.X > w-edgeMargin || b.Max.Y > h-edgeMargin
}

func isWhite(color string) bool {
	c, ok := hex(color)
	return ok && c.R >= 0.999 && c.G >= 0.999 && c.B >= 0.999
}

// nearWhite reports a background of luminance 0.9 or more. No background
// exports as white.
func nearWhite(color string) bool {
	if strings.TrimSpace(color) == "" {
		return true
	}
	c, ok := hex(color)
	if !ok {
		return false
	}
	return 0.2126*c.R+0.7152*c.G+0.0722*c.B >= 0.9
}

func hex(color string) (gg.RGBA, bool) {
	color = strings.TrimSpace(strings.ToLower(color))
	if color == "white" {
		return gg.RGBA{R: 1, G: 1, B: 1, A: 1}, true
	}
	if !strings.HasPrefix(color, "#") {
		return gg.RGBA{}, false
	}
	return gg.Hex(color), true
}
