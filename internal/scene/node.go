package scene

import (
	"image"
	"math"

	"github.com/gogpu/gg"
	"github.com/google/uuid"
)

// Kind is the variant tag of a Node.
type Kind string

const (
	KindRect    Kind = "rect"
	KindEllipse Kind = "ellipse"
	KindText    Kind = "text"
	KindImage   Kind = "image"
	KindPath    Kind = "path"
	KindGroup   Kind = "group"
)

// Visibility replaces the flag+opacity pair: opacity stays a pure style attribute.
type Visibility string

const (
	Visible Visibility = "visible"
	Hidden  Visibility = "hidden"
)

// FillKind tells how a Paint is applied.
type FillKind string

const (
	FillSolid    FillKind = "solid"
	FillPattern  FillKind = "pattern"
	FillGradient FillKind = "gradient"
)

// GradientStop is one color stop of a linear gradient running left to right
// across the node's box.
type GradientStop struct {
	Offset float64 `json:"offset"`
	Color  string  `json:"color"`
}

// Paint is a node fill. For FillPattern, Color is the hatch color and also
// the color restored when the pattern is toggled off.
type Paint struct {
	Kind  FillKind       `json:"kind"`
	Color string         `json:"color,omitempty"`
	Stops []GradientStop `json:"stops,omitempty"`
}

// Solid returns a flat color paint.
func Solid(color string) Paint {
	return Paint{Kind: FillSolid, Color: color}
}

// ImageSource references the bitmap behind an image node.
type ImageSource struct {
	Src         string `json:"src"`
	CrossOrigin string `json:"crossOrigin,omitempty"`
}

// Node is a drawable scene entity. Geometry is the base box (Width x Height)
// placed at (X, Y) and transformed by scale, rotation (degrees, about the
// top-left corner) and flips (about the box center). Group children live in
// the group's local coordinates.
type Node struct {
	ID           string       `json:"id,omitempty"`
	Kind         Kind         `json:"type"`
	Name         string       `json:"name,omitempty"`
	X            float64      `json:"left"`
	Y            float64      `json:"top"`
	Width        float64      `json:"width"`
	Height       float64      `json:"height"`
	ScaleX       float64      `json:"scaleX"`
	ScaleY       float64      `json:"scaleY"`
	Angle        float64      `json:"angle"`
	FlipX        bool         `json:"flipX,omitempty"`
	FlipY        bool         `json:"flipY,omitempty"`
	Opacity      float64      `json:"opacity"`
	Fill         Paint        `json:"fill"`
	Stroke       string       `json:"stroke,omitempty"`
	StrokeWidth  float64      `json:"strokeWidth"`
	StrokeDash   []float64    `json:"strokeDashArray,omitempty"`
	CornerRadius float64      `json:"rx,omitempty"`
	Visibility   Visibility   `json:"visibility"`
	Locked       bool         `json:"locked,omitempty"`
	Text         *TextBody    `json:"text,omitempty"`
	Image        *ImageSource `json:"image,omitempty"`
	Path         string       `json:"path,omitempty"`
	Children     []*Node      `json:"objects,omitempty"`

	// Transient nodes reserve z-order for pending async work. They are
	// never hit-tested, selected, exported or serialized.
	Transient bool `json:"-"`

	bitmap image.Image
	coords [4]gg.Point
}

// NewNode returns a node of the given kind with neutral defaults.
func NewNode(kind Kind) *Node {
	n := &Node{
		Kind:        kind,
		ScaleX:      1,
		ScaleY:      1,
		Opacity:     1,
		Fill:        Solid("#000000"),
		StrokeWidth: 1,
		Visibility:  Visible,
	}
	if kind == KindText {
		n.Text = &TextBody{Style: DefaultTextStyle()}
	}
	if kind == KindImage {
		n.Image = &ImageSource{}
		n.Fill = Paint{}
	}
	if kind == KindGroup {
		n.Fill = Paint{}
	}
	return n
}

// NewRect returns a rectangle at (x, y).
func NewRect(x, y, w, h float64, fill string) *Node {
	n := NewNode(KindRect)
	n.X, n.Y, n.Width, n.Height = x, y, w, h
	n.Fill = Solid(fill)
	n.StrokeWidth = 0
	return n
}

// NewEllipse returns a circle of radius r whose box starts at (x, y).
func NewEllipse(x, y, r float64, fill string) *Node {
	n := NewNode(KindEllipse)
	n.X, n.Y, n.Width, n.Height = x, y, 2*r, 2*r
	n.Fill = Solid(fill)
	n.StrokeWidth = 0
	return n
}

// NewText returns a text node sized to its content.
func NewText(x, y float64, content string, style TextStyle, fill string) *Node {
	n := NewNode(KindText)
	n.X, n.Y = x, y
	n.Text = &TextBody{Content: content, Style: style}
	n.Fill = Solid(fill)
	n.StrokeWidth = 0
	n.Reflow()
	return n
}

// NewImage returns an image node for src. Width and Height follow the
// bitmap once one is attached.
func NewImage(x, y float64, src string) *Node {
	n := NewNode(KindImage)
	n.X, n.Y = x, y
	n.Image = &ImageSource{Src: src, CrossOrigin: "anonymous"}
	n.StrokeWidth = 0
	return n
}

// NewPath returns a path node from SVG path data, positioned at the path's
// own bounds.
func NewPath(data, fill string) (*Node, error) {
	segs, err := ParsePath(data)
	if err != nil {
		return nil, err
	}
	b := PathBounds(segs)
	n := NewNode(KindPath)
	n.Path = data
	n.X, n.Y = b.Min.X, b.Min.Y
	n.Width, n.Height = b.Dx(), b.Dy()
	n.Fill = Solid(fill)
	n.StrokeWidth = 0
	return n, nil
}

// EnsureID assigns a stable identifier on first need and returns it.
func (n *Node) EnsureID() string {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return n.ID
}

// Radius is the ellipse radius along x.
func (n *Node) Radius() float64 { return n.Width / 2 }

// ScaledWidth is the visual width: base width times scale.
func (n *Node) ScaledWidth() float64 { return n.Width * math.Abs(n.ScaleX) }

// ScaledHeight is the visual height: base height times scale.
func (n *Node) ScaledHeight() float64 { return n.Height * math.Abs(n.ScaleY) }

// IsVisible reports whether the node takes part in rendering and hit testing.
func (n *Node) IsVisible() bool {
	return n.Visibility != Hidden && !n.Transient
}

// Bitmap returns the decoded image behind an image node, if loaded.
func (n *Node) Bitmap() image.Image { return n.bitmap }

// SetBitmap attaches decoded pixels and adopts their size as base geometry.
func (n *Node) SetBitmap(img image.Image) {
	n.bitmap = img
	if img == nil {
		return
	}
	b := img.Bounds()
	n.Width, n.Height = float64(b.Dx()), float64(b.Dy())
}

// AttachBitmap sets the pixels of a node whose geometry is already known,
// such as a decoded document or a processed replacement. Nodes without a
// size adopt the bitmap's.
func (n *Node) AttachBitmap(img image.Image) {
	if n.Width == 0 || n.Height == 0 {
		n.SetBitmap(img)
		return
	}
	n.bitmap = img
}

// ScaleToWidth sets a uniform scale giving the node the target visual width.
func (n *Node) ScaleToWidth(w float64) {
	if n.Width == 0 {
		return
	}
	s := w / n.Width
	n.ScaleX, n.ScaleY = s, s
}

// Coords returns the cached world-space corners computed by SetCoords.
func (n *Node) Coords() [4]gg.Point { return n.coords }

// Matrix maps the node's box [0,W]x[0,H] into its parent's space.
func (n *Node) Matrix() gg.Matrix {
	m := gg.Translate(n.X, n.Y).
		Multiply(gg.Rotate(n.Angle * math.Pi / 180)).
		Multiply(gg.Scale(n.ScaleX, n.ScaleY))
	return m.Multiply(n.flipMatrix())
}

func (n *Node) flipMatrix() gg.Matrix {
	if !n.FlipX && !n.FlipY {
		return gg.Identity()
	}
	fx, fy := 1.0, 1.0
	if n.FlipX {
		fx = -1
	}
	if n.FlipY {
		fy = -1
	}
	return gg.Translate(n.Width/2, n.Height/2).
		Multiply(gg.Scale(fx, fy)).
		Multiply(gg.Translate(-n.Width/2, -n.Height/2))
}

// applyMatrix sets position, angle and scale so that n.Matrix() equals m,
// keeping the flip flags. Skew is dropped.
func (n *Node) applyMatrix(m gg.Matrix) {
	core := m.Multiply(n.flipMatrix())
	sx := math.Hypot(core.A, core.D)
	if sx == 0 {
		return
	}
	n.X, n.Y = core.C, core.F
	n.ScaleX = sx
	n.ScaleY = (core.A*core.E - core.B*core.D) / sx
	n.Angle = NormalizeAngle(math.Atan2(core.D, core.A) * 180 / math.Pi)
}

// NormalizeAngle maps degrees into [0, 360).
func NormalizeAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if math.Abs(deg) < 1e-9 || math.Abs(deg-360) < 1e-9 {
		return 0
	}
	return deg
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	Min, Max gg.Point
}

func (r Rect) Dx() float64 { return r.Max.X - r.Min.X }
func (r Rect) Dy() float64 { return r.Max.Y - r.Min.Y }

// Center returns the midpoint.
func (r Rect) Center() gg.Point {
	return gg.Pt((r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2)
}

// Union grows r to cover o. A zero Rect is treated as empty.
func (r Rect) Union(o Rect) Rect {
	if r == (Rect{}) {
		return o
	}
	return Rect{
		Min: gg.Pt(math.Min(r.Min.X, o.Min.X), math.Min(r.Min.Y, o.Min.Y)),
		Max: gg.Pt(math.Max(r.Max.X, o.Max.X), math.Max(r.Max.Y, o.Max.Y)),
	}
}

func boundsOf(pts []gg.Point) Rect {
	r := Rect{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		r.Min.X = math.Min(r.Min.X, p.X)
		r.Min.Y = math.Min(r.Min.Y, p.Y)
		r.Max.X = math.Max(r.Max.X, p.X)
		r.Max.Y = math.Max(r.Max.Y, p.Y)
	}
	return r
}

func (n *Node) corners(parent gg.Matrix) [4]gg.Point {
	m := parent.Multiply(n.Matrix())
	return [4]gg.Point{
		m.TransformPoint(gg.Pt(0, 0)),
		m.TransformPoint(gg.Pt(n.Width, 0)),
		m.TransformPoint(gg.Pt(n.Width, n.Height)),
		m.TransformPoint(gg.Pt(0, n.Height)),
	}
}

// Bounds is the axis-aligned box of the node in its parent's space.
func (n *Node) Bounds() Rect {
	c := n.corners(gg.Identity())
	return boundsOf(c[:])
}

// SetCoords recomputes the cached corners used by hit testing. It must run
// after any geometry write and before the next hit test or render.
func (n *Node) SetCoords() {
	if n.Kind == KindText {
		n.Reflow()
	}
	n.coords = n.corners(gg.Identity())
}

// Contains reports whether the scene-space point lies inside the node's
// cached quad.
func (n *Node) Contains(p gg.Point) bool {
	q := n.coords
	sign := 0.0
	for i := 0; i < 4; i++ {
		a, b := q[i], q[(i+1)%4]
		cross := (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
		if cross == 0 {
			continue
		}
		if sign == 0 {
			sign = cross
			continue
		}
		if (cross > 0) != (sign > 0) {
			return false
		}
	}
	return sign != 0
}
