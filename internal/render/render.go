// Package render rasterizes scenes and node subsets with gg. It backs the
// canvas frame, PNG export and design thumbnails.
package render

import (
	"errors"
	"fmt"
	"image"
	"log"
	"math"

	"github.com/gogpu/gg"

	"studio/internal/scene"
)

// ErrEmpty is returned when there is nothing to rasterize.
var ErrEmpty = errors.New("render: nothing to draw")

// Options controls a scene rasterization.
type Options struct {
	// Multiplier scales the output relative to scene units.
	Multiplier float64
	// Background overrides the scene background when non-empty.
	Background string
	// Viewport applies the scene's zoom and pan, as the canvas shows it.
	Viewport bool
	// Selection draws the selection outline on top.
	Selection bool
}

// Scene rasterizes s at Multiplier times its size.
func Scene(s *scene.Scene, opts Options) (image.Image, error) {
	mult := opts.Multiplier
	if mult <= 0 {
		mult = 1
	}
	w := int(math.Round(float64(s.Width()) * mult))
	h := int(math.Round(float64(s.Height()) * mult))
	if w <= 0 || h <= 0 {
		return nil, ErrEmpty
	}

	dc := gg.NewContext(w, h)
	defer dc.Close()

	bg := opts.Background
	if bg == "" {
		bg = s.Background()
	}
	if c, ok := parseColor(bg); ok {
		dc.ClearWithColor(c)
	}

	base := gg.Scale(mult, mult)
	if opts.Viewport {
		base = base.Multiply(s.Viewport().Matrix())
	}
	for _, n := range s.Nodes() {
		if err := drawNode(dc, base, n, 1); err != nil {
			return nil, err
		}
	}
	if opts.Selection {
		drawSelection(dc, base, s.Active())
	}
	return dc.Image(), nil
}

// Nodes rasterizes the given top-level nodes cropped to their union bounds,
// on a transparent background.
func Nodes(nodes []*scene.Node, mult float64) (image.Image, error) {
	if mult <= 0 {
		mult = 1
	}
	var box scene.Rect
	for _, n := range nodes {
		if n.IsVisible() {
			box = box.Union(n.Bounds())
		}
	}
	w := int(math.Ceil(box.Dx() * mult))
	h := int(math.Ceil(box.Dy() * mult))
	if w <= 0 || h <= 0 {
		return nil, ErrEmpty
	}

	dc := gg.NewContext(w, h)
	defer dc.Close()

	base := gg.Scale(mult, mult).Multiply(gg.Translate(-box.Min.X, -box.Min.Y))
	for _, n := range nodes {
		if err := drawNode(dc, base, n, 1); err != nil {
			return nil, err
		}
	}
	return dc.Image(), nil
}

func drawNode(dc *gg.Context, parent gg.Matrix, n *scene.Node, alpha float64) error {
	if !n.IsVisible() {
		return nil
	}
	alpha *= n.Opacity
	if alpha <= 0 {
		return nil
	}
	m := parent.Multiply(n.Matrix())

	switch n.Kind {
	case scene.KindGroup:
		for _, c := range n.Children {
			if err := drawNode(dc, m, c, alpha); err != nil {
				return err
			}
		}
		return nil
	case scene.KindImage:
		drawImage(dc, m, n, alpha)
		return nil
	case scene.KindText:
		drawText(dc, m, n, alpha)
		return nil
	}

	dc.SetTransform(m)
	defer dc.Identity()

	switch n.Kind {
	case scene.KindRect:
		roundedRect(dc, n.Width, n.Height, n.CornerRadius)
	case scene.KindEllipse:
		dc.DrawEllipse(n.Width/2, n.Height/2, n.Width/2, n.Height/2)
	case scene.KindPath:
		if err := tracePath(dc, n); err != nil {
			log.Printf("[render] skip path %s: %v", n.ID, err)
			dc.ClearPath()
			return nil
		}
	default:
		return fmt.Errorf("render: unknown node kind %q", n.Kind)
	}

	strokeBrush, stroke := paint(n.Stroke, alpha)
	stroke = stroke && n.StrokeWidth > 0
	if hasFill(n.Fill) {
		setFill(dc, m, n, alpha)
		var err error
		if stroke {
			err = dc.FillPreserve()
		} else {
			err = dc.Fill()
		}
		if err != nil {
			return fmt.Errorf("render: fill %s: %w", n.Kind, err)
		}
	}
	if stroke {
		dc.SetStrokeBrush(strokeBrush)
		dc.SetLineWidth(n.StrokeWidth)
		if len(n.StrokeDash) > 0 {
			dc.SetDash(n.StrokeDash...)
		}
		err := dc.Stroke()
		dc.ClearDash()
		if err != nil {
			return fmt.Errorf("render: stroke %s: %w", n.Kind, err)
		}
	}
	dc.ClearPath()
	return nil
}

func hasFill(p scene.Paint) bool {
	switch p.Kind {
	case scene.FillGradient:
		return len(p.Stops) > 0
	case scene.FillSolid, scene.FillPattern:
		_, ok := parseColor(p.Color)
		return ok
	}
	return false
}

func setFill(dc *gg.Context, m gg.Matrix, n *scene.Node, alpha float64) {
	switch n.Fill.Kind {
	case scene.FillGradient:
		// Brushes sample in device space, so the gradient axis is mapped
		// through the node matrix.
		a := m.TransformPoint(gg.Pt(0, n.Height/2))
		b := m.TransformPoint(gg.Pt(n.Width, n.Height/2))
		g := gg.NewLinearGradientBrush(a.X, a.Y, b.X, b.Y)
		for _, st := range n.Fill.Stops {
			c, _ := parseColor(st.Color)
			g.AddColorStop(st.Offset, withAlpha(c, alpha))
		}
		dc.SetFillBrush(g)
	case scene.FillPattern:
		tile, err := HatchTile(n.Fill.Color)
		if err != nil {
			log.Printf("[render] hatch tile: %v", err)
			b, _ := paint(n.Fill.Color, alpha)
			dc.SetFillBrush(b)
			return
		}
		b := tile.Bounds()
		dc.SetFillPattern(dc.CreateImagePattern(gg.ImageBufFromImage(tile), 0, 0, b.Dx(), b.Dy()))
	default:
		b, _ := paint(n.Fill.Color, alpha)
		dc.SetFillBrush(b)
	}
}

func withAlpha(c gg.RGBA, alpha float64) gg.RGBA {
	c.A *= alpha
	return c
}

// roundedRect traces the box with corner radius r through the current
// transform. gg's own rounded rectangle ignores the matrix.
func roundedRect(dc *gg.Context, w, h, r float64) {
	r = math.Min(r, math.Min(w, h)/2)
	if r <= 0 {
		dc.DrawRectangle(0, 0, w, h)
		return
	}
	// Bezier handle length for a quarter circle.
	k := r * 0.5523
	dc.MoveTo(r, 0)
	dc.LineTo(w-r, 0)
	dc.CubicTo(w-r+k, 0, w, r-k, w, r)
	dc.LineTo(w, h-r)
	dc.CubicTo(w, h-r+k, w-r+k, h, w-r, h)
	dc.LineTo(r, h)
	dc.CubicTo(r-k, h, 0, h-r+k, 0, h-r)
	dc.LineTo(0, r)
	dc.CubicTo(0, r-k, r-k, 0, r, 0)
	dc.ClosePath()
}

// tracePath replays the node's path data in box space. Path coordinates are
// absolute, so they are shifted by the path's own origin.
func tracePath(dc *gg.Context, n *scene.Node) error {
	segs, err := scene.ParsePath(n.Path)
	if err != nil {
		return err
	}
	origin := scene.PathBounds(segs).Min
	at := func(p gg.Point) (float64, float64) { return p.X - origin.X, p.Y - origin.Y }
	for _, s := range segs {
		switch s.Op {
		case 'M':
			dc.MoveTo(at(s.Pts[0]))
		case 'L':
			dc.LineTo(at(s.Pts[0]))
		case 'Q':
			x1, y1 := at(s.Pts[0])
			x, y := at(s.Pts[1])
			dc.QuadraticTo(x1, y1, x, y)
		case 'C':
			x1, y1 := at(s.Pts[0])
			x2, y2 := at(s.Pts[1])
			x, y := at(s.Pts[2])
			dc.CubicTo(x1, y1, x2, y2, x, y)
		case 'Z':
			dc.ClosePath()
		}
	}
	return nil
}

// drawImage places the bitmap over the axis-aligned box of its transformed
// corners. Rotation is not applied to image pixels.
func drawImage(dc *gg.Context, m gg.Matrix, n *scene.Node, alpha float64) {
	bmp := n.Bitmap()
	if bmp == nil {
		return
	}
	p0 := m.TransformPoint(gg.Pt(0, 0))
	p1 := m.TransformPoint(gg.Pt(n.Width, n.Height))
	x, y := math.Min(p0.X, p1.X), math.Min(p0.Y, p1.Y)
	w, h := math.Abs(p1.X-p0.X), math.Abs(p1.Y-p0.Y)
	if w < 1 || h < 1 {
		return
	}
	dc.DrawImageEx(gg.ImageBufFromImage(bmp), gg.DrawImageOptions{
		X:         x,
		Y:         y,
		DstWidth:  w,
		DstHeight: h,
		Opacity:   alpha,
	})
}

// drawText draws each line at its transformed anchor, honoring per-range
// fill and weight. gg text is not affected by the transform, so glyphs stay
// upright and are sized by the matrix' uniform scale.
func drawText(dc *gg.Context, m gg.Matrix, n *scene.Node, alpha float64) {
	body := n.Text
	if body == nil || body.Content == "" {
		return
	}
	scale := math.Sqrt(math.Abs(m.A*m.E - m.B*m.D))
	if scale == 0 {
		return
	}
	dc.Identity()
	st := body.Style
	lineH := st.FontSize * 1.16
	idx := 0
	for li, line := range body.Lines() {
		runes := []rune(line)
		lineW := lineAdvance(body, idx, runes)
		x := 0.0
		switch st.Align {
		case "center":
			x = (n.Width - lineW) / 2
		case "right":
			x = n.Width - lineW
		}
		baseline := float64(li)*lineH + st.FontSize

		for start := 0; start < len(runes); {
			rs := body.StyleAt(idx + start)
			end := start + 1
			for end < len(runes) && body.StyleAt(idx+end) == rs {
				end++
			}
			chunk := string(runes[start:end])
			weight, size, fill := runStyle(n, rs)
			face := scene.Face(weight, size*scale)
			brush, visible := paint(fill, alpha)
			if !visible {
				// Outlined text is drawn solid in its stroke color.
				brush, visible = paint(n.Stroke, alpha)
			}
			if face != nil && visible {
				p := m.TransformPoint(gg.Pt(x, baseline))
				dc.SetFont(face)
				dc.SetFillBrush(brush)
				dc.DrawString(chunk, p.X, p.Y)
			}
			if face != nil {
				x += face.Advance(chunk) / scale
			}
			start = end
		}
		idx += len(runes) + 1
	}
}

func runStyle(n *scene.Node, rs scene.RunStyle) (weight string, size float64, fill string) {
	st := n.Text.Style
	weight, size, fill = st.FontWeight, st.FontSize, n.Fill.Color
	if rs.FontWeight != "" {
		weight = rs.FontWeight
	}
	if rs.FontSize > 0 {
		size = rs.FontSize
	}
	if rs.Fill != "" {
		fill = rs.Fill
	}
	if fill == "" {
		fill = "#000000"
	}
	return weight, size, fill
}

func lineAdvance(body *scene.TextBody, offset int, runes []rune) float64 {
	w := 0.0
	for i, r := range runes {
		rs := body.StyleAt(offset + i)
		weight, size := body.Style.FontWeight, body.Style.FontSize
		if rs.FontWeight != "" {
			weight = rs.FontWeight
		}
		if rs.FontSize > 0 {
			size = rs.FontSize
		}
		if face := scene.Face(weight, size); face != nil {
			w += face.Advance(string(r))
		}
	}
	return w
}

// drawSelection outlines each selected node's quad.
func drawSelection(dc *gg.Context, base gg.Matrix, sel scene.Selection) {
	if sel.Empty() {
		return
	}
	dc.Identity()
	dc.SetStrokeBrush(gg.SolidHex("#3b82f6"))
	dc.SetLineWidth(1.5)
	for _, n := range sel.Nodes {
		q := n.Coords()
		for i := range q {
			p := base.TransformPoint(q[i])
			if i == 0 {
				dc.MoveTo(p.X, p.Y)
			} else {
				dc.LineTo(p.X, p.Y)
			}
		}
		dc.ClosePath()
	}
	if err := dc.Stroke(); err != nil {
		log.Printf("[render] selection outline: %v", err)
	}
	dc.ClearPath()
}
