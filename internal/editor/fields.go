package editor

import (
	"math"

	"studio/internal/scene"
)

// KindSelection is the Fields.Kind reported for a composite selection.
const KindSelection scene.Kind = "activeSelection"

// Fields are the panel-editable values of the current selection. Numbers
// are rounded the way the panel shows them; Opacity is a percentage.
type Fields struct {
	ID           string      `json:"id,omitempty"`
	Kind         scene.Kind  `json:"type"`
	Count        int         `json:"count"`
	Left         float64     `json:"left"`
	Top          float64     `json:"top"`
	Width        float64     `json:"width"`
	Height       float64     `json:"height"`
	Angle        float64     `json:"angle"`
	Opacity      float64     `json:"opacity"`
	Fill         string      `json:"fill"`
	Pattern      bool        `json:"pattern"`
	Stroke       string      `json:"stroke"`
	StrokeWidth  float64     `json:"strokeWidth"`
	CornerRadius *float64    `json:"rx,omitempty"`
	Text         *TextFields `json:"text,omitempty"`
	Locked       bool        `json:"locked"`
	Visible      bool        `json:"visible"`
	FlipX        bool        `json:"flipX"`
	FlipY        bool        `json:"flipY"`
	Processing   bool        `json:"processing"`
	Editing      bool        `json:"editing"`
}

// TextFields is the typography block shown for text nodes.
type TextFields struct {
	Content    string  `json:"content"`
	FontFamily string  `json:"fontFamily"`
	FontSize   float64 `json:"fontSize"`
	FontWeight string  `json:"fontWeight"`
	Align      string  `json:"textAlign"`
}

// Fields returns the editable fields of the current selection, or nil when
// nothing is selected.
func (e *Editor) Fields() *Fields {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fields == nil {
		return nil
	}
	f := *e.fields
	return &f
}

func (e *Editor) publishFields() {
	sel := e.scene.Active()
	if sel.Empty() {
		e.fields = nil
		return
	}
	e.fields = e.readFields(sel)
	e.notify.Emit(e.ctx, EventFields, *e.fields)
}

func (e *Editor) readFields(sel scene.Selection) *Fields {
	n := sel.Nodes[0]
	f := &Fields{
		ID:          n.ID,
		Kind:        n.Kind,
		Count:       len(sel.Nodes),
		Left:        math.Round(n.X),
		Top:         math.Round(n.Y),
		Width:       math.Round(n.ScaledWidth()),
		Height:      math.Round(n.ScaledHeight()),
		Angle:       math.Round(n.Angle),
		Opacity:     math.Round(n.Opacity * 100),
		Fill:        fillColor(n.Fill),
		Pattern:     n.Fill.Kind == scene.FillPattern,
		Stroke:      n.Stroke,
		StrokeWidth: n.StrokeWidth,
		Locked:      n.Locked,
		Visible:     n.Visibility != scene.Hidden,
		FlipX:       n.FlipX,
		FlipY:       n.FlipY,
	}
	if f.Stroke == "" {
		f.Stroke = "#000000"
	}
	if sel.Composite {
		b := sel.Bounds()
		f.ID = ""
		f.Kind = KindSelection
		f.Left, f.Top = math.Round(b.Min.X), math.Round(b.Min.Y)
		f.Width, f.Height = math.Round(b.Dx()), math.Round(b.Dy())
		f.Angle = 0
		return f
	}
	if n.Kind == scene.KindRect {
		rx := n.CornerRadius
		f.CornerRadius = &rx
	}
	if n.Kind == scene.KindText && n.Text != nil {
		st := n.Text.Style
		f.Text = &TextFields{
			Content:    n.Text.Content,
			FontFamily: st.FontFamily,
			FontSize:   st.FontSize,
			FontWeight: st.FontWeight,
			Align:      st.Align,
		}
		f.Editing = n == e.editing
	}
	if n.ID != "" {
		_, f.Processing = e.processing[n.ID]
	}
	return f
}

func fillColor(p scene.Paint) string {
	switch {
	case p.Color != "":
		return p.Color
	case p.Kind == scene.FillGradient && len(p.Stops) > 0:
		return p.Stops[0].Color
	}
	return "#000000"
}
