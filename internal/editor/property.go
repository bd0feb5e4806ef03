package editor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"studio/internal/scene"
)

// SetProperty writes a panel edit into the selection.
//
// While a text node is being edited with a non-empty character range
// selected, fill and font keys style only that range. Width and height are
// visual sizes and are applied through the scale factor. Locked nodes still
// accept panel writes; only pointer transforms and nudges are refused.
func (e *Editor) SetProperty(key string, value any) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	sel := e.scene.Active()
	if sel.Empty() {
		return ErrNoSelection
	}

	if n := sel.Single(); n != nil && n == e.editing && e.selStart != e.selEnd {
		patch, ok, err := runPatch(key, value)
		if err != nil {
			return err
		}
		if ok {
			n.Text.ApplyStyle(e.selStart, e.selEnd, patch)
			e.scene.Modified(n)
			return nil
		}
	}

	if sel.Composite {
		return e.setComposite(sel, key, value)
	}
	n := sel.Nodes[0]
	if err := setNodeProperty(n, key, value); err != nil {
		return err
	}
	e.scene.Modified(n)
	return nil
}

// runPatch maps range-scoped keys to a run style.
func runPatch(key string, value any) (scene.RunStyle, bool, error) {
	var p scene.RunStyle
	switch key {
	case "fill":
		s, err := toColor(key, value)
		if err != nil {
			return p, false, err
		}
		p.Fill = s
	case "fontFamily":
		s, err := toNonEmpty(key, value)
		if err != nil {
			return p, false, err
		}
		p.FontFamily = s
	case "fontSize":
		v, err := toPositive(key, value)
		if err != nil {
			return p, false, err
		}
		p.FontSize = v
	case "fontWeight":
		s, err := toNonEmpty(key, value)
		if err != nil {
			return p, false, err
		}
		p.FontWeight = s
	default:
		return p, false, nil
	}
	return p, true, nil
}

func setNodeProperty(n *scene.Node, key string, value any) error {
	switch key {
	case "left", "top":
		v, err := toFloat(key, value)
		if err != nil {
			return err
		}
		if key == "left" {
			n.X = v
		} else {
			n.Y = v
		}

	case "width", "height":
		v, err := toPositive(key, value)
		if err != nil {
			return err
		}
		base := n.Width
		if key == "height" {
			base = n.Height
		}
		if base == 0 {
			return fmt.Errorf("%w: %s of an empty node", ErrNotApplicable, key)
		}
		if key == "width" {
			n.ScaleX = v / base
		} else {
			n.ScaleY = v / base
		}

	case "angle":
		v, err := toFloat(key, value)
		if err != nil {
			return err
		}
		n.Angle = scene.NormalizeAngle(v)

	case "opacity":
		v, err := toFloat(key, value)
		if err != nil {
			return err
		}
		n.Opacity = min(max(v, 0), 100) / 100

	case "fill":
		s, err := toColor(key, value)
		if err != nil {
			return err
		}
		if n.Kind == scene.KindImage || n.Kind == scene.KindGroup {
			return fmt.Errorf("%w: fill on %s", ErrNotApplicable, n.Kind)
		}
		n.Fill = scene.Solid(s)

	case "stroke":
		s, err := toColor(key, value)
		if err != nil {
			return err
		}
		n.Stroke = s

	case "strokeWidth":
		v, err := toFloat(key, value)
		if err != nil {
			return err
		}
		if v < 0 {
			return fmt.Errorf("%w: %s=%v", ErrInvalidValue, key, value)
		}
		n.StrokeWidth = v

	case "rx", "cornerRadius":
		if n.Kind != scene.KindRect {
			return fmt.Errorf("%w: corner radius on %s", ErrNotApplicable, n.Kind)
		}
		v, err := toFloat(key, value)
		if err != nil {
			return err
		}
		n.CornerRadius = max(v, 0)

	case "text", "fontFamily", "fontSize", "fontWeight", "textAlign":
		if n.Kind != scene.KindText || n.Text == nil {
			return fmt.Errorf("%w: %s on %s", ErrNotApplicable, key, n.Kind)
		}
		return setTextProperty(n.Text, key, value)

	case "locked", "visible", "flipX", "flipY":
		b, err := cast.ToBoolE(value)
		if err != nil {
			return fmt.Errorf("%w: %s=%v", ErrInvalidValue, key, value)
		}
		switch key {
		case "locked":
			n.Locked = b
		case "visible":
			n.Visibility = scene.Hidden
			if b {
				n.Visibility = scene.Visible
			}
		case "flipX":
			n.FlipX = b
		case "flipY":
			n.FlipY = b
		}

	case "name":
		n.Name = cast.ToString(value)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownProperty, key)
	}
	return nil
}

func setTextProperty(t *scene.TextBody, key string, value any) error {
	switch key {
	case "text":
		s, err := cast.ToStringE(value)
		if err != nil {
			return fmt.Errorf("%w: %s=%v", ErrInvalidValue, key, value)
		}
		t.SetContent(s)
	case "fontFamily":
		s, err := toNonEmpty(key, value)
		if err != nil {
			return err
		}
		t.Style.FontFamily = s
	case "fontSize":
		v, err := toPositive(key, value)
		if err != nil {
			return err
		}
		t.Style.FontSize = v
	case "fontWeight":
		s, err := toNonEmpty(key, value)
		if err != nil {
			return err
		}
		t.Style.FontWeight = s
	case "textAlign":
		s := cast.ToString(value)
		switch s {
		case "left", "center", "right", "justify":
			t.Style.Align = s
		default:
			return fmt.Errorf("%w: %s=%v", ErrInvalidValue, key, value)
		}
	}
	return nil
}

// setComposite applies a write to every member of a composite selection.
// Position and size act on the selection box as a whole.
func (e *Editor) setComposite(sel scene.Selection, key string, value any) error {
	box := sel.Bounds()
	switch key {
	case "left", "top":
		v, err := toFloat(key, value)
		if err != nil {
			return err
		}
		dx, dy := v-box.Min.X, 0.0
		if key == "top" {
			dx, dy = 0, v-box.Min.Y
		}
		for _, n := range sel.Nodes {
			n.X += dx
			n.Y += dy
			e.scene.Modified(n)
		}
		return nil

	case "width", "height":
		v, err := toPositive(key, value)
		if err != nil {
			return err
		}
		size := box.Dx()
		if key == "height" {
			size = box.Dy()
		}
		if size == 0 {
			return fmt.Errorf("%w: %s of an empty selection", ErrNotApplicable, key)
		}
		f := v / size
		for _, n := range sel.Nodes {
			if key == "width" {
				n.X = box.Min.X + (n.X-box.Min.X)*f
				n.ScaleX *= f
			} else {
				n.Y = box.Min.Y + (n.Y-box.Min.Y)*f
				n.ScaleY *= f
			}
			e.scene.Modified(n)
		}
		return nil

	case "angle":
		return fmt.Errorf("%w: angle on a multiple selection", ErrNotApplicable)
	}

	applied := 0
	for _, n := range sel.Nodes {
		err := setNodeProperty(n, key, value)
		if errors.Is(err, ErrNotApplicable) {
			continue
		}
		if err != nil {
			return err
		}
		applied++
		e.scene.Modified(n)
	}
	if applied == 0 {
		return fmt.Errorf("%w: %s", ErrNotApplicable, key)
	}
	return nil
}

func toFloat(key string, value any) (float64, error) {
	v, err := cast.ToFloat64E(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%v", ErrInvalidValue, key, value)
	}
	return v, nil
}

func toPositive(key string, value any) (float64, error) {
	v, err := toFloat(key, value)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive", ErrInvalidValue, key)
	}
	return v, nil
}

func toNonEmpty(key string, value any) (string, error) {
	s, err := cast.ToStringE(value)
	if err != nil || strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: %s=%v", ErrInvalidValue, key, value)
	}
	return s, nil
}

func toColor(key string, value any) (string, error) {
	s, err := toNonEmpty(key, value)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(s), nil
}
