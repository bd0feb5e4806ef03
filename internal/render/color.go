package render

import (
	"strings"

	"github.com/gogpu/gg"
	"github.com/spf13/cast"
)

// parseColor reads the CSS color forms designs carry: hex, rgb(), rgba()
// and transparent. ok is false for anything that paints nothing.
func parseColor(s string) (c gg.RGBA, ok bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch {
	case s == "" || s == "transparent" || s == "none":
		return gg.RGBA{}, false
	case strings.HasPrefix(s, "rgb"):
		open, end := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
		if open < 0 || end < open {
			return gg.RGBA{}, false
		}
		parts := strings.Split(s[open+1:end], ",")
		if len(parts) < 3 {
			return gg.RGBA{}, false
		}
		c = gg.RGBA{
			R: cast.ToFloat64(strings.TrimSpace(parts[0])) / 255,
			G: cast.ToFloat64(strings.TrimSpace(parts[1])) / 255,
			B: cast.ToFloat64(strings.TrimSpace(parts[2])) / 255,
			A: 1,
		}
		if len(parts) > 3 {
			c.A = cast.ToFloat64(strings.TrimSpace(parts[3]))
		}
		return c, c.A > 0
	}
	c = gg.Hex(s)
	return c, c.A > 0
}

func paint(s string, alpha float64) (gg.SolidBrush, bool) {
	c, ok := parseColor(s)
	if !ok {
		return gg.SolidBrush{}, false
	}
	c.A *= alpha
	return gg.Solid(c), true
}
