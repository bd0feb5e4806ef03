package scene

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

const (
	MinCustomSize = 100
	MaxCustomSize = 5000

	// DefaultSize is used when a new-file dimension is missing or unparsable.
	DefaultSize = 1080
)

// Preset is a named canvas size offered when starting a design.
type Preset struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Presets returns the built-in canvas sizes.
func Presets() []Preset {
	return []Preset{
		{Name: "Logo", Width: 500, Height: 500},
		{Name: "Poster", Width: 800, Height: 1200},
		{Name: "Social Media Square", Width: 1080, Height: 1080},
		{Name: "Web Banner", Width: 1200, Height: 400},
	}
}

// PresetByName finds a preset case-insensitively.
func PresetByName(name string) (Preset, bool) {
	for _, p := range Presets() {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Preset{}, false
}

// ParseCustomSize validates user-entered dimensions. Nothing is mutated on
// failure; the error carries the message to show.
func ParseCustomSize(width, height any) (int, int, error) {
	w, errW := cast.ToIntE(width)
	h, errH := cast.ToIntE(height)
	if errW != nil || errH != nil || w < MinCustomSize || h < MinCustomSize {
		return 0, 0, fmt.Errorf("%w: please enter a valid size (minimum %dpx)", ErrInvalidSize, MinCustomSize)
	}
	if w > MaxCustomSize || h > MaxCustomSize {
		return 0, 0, fmt.Errorf("%w: size is too large (maximum %dpx)", ErrInvalidSize, MaxCustomSize)
	}
	return w, h, nil
}

// SizeOrDefault parses a dimension for a new file, falling back to
// DefaultSize.
func SizeOrDefault(v any) int {
	n, err := cast.ToIntE(v)
	if err != nil || n <= 0 {
		return DefaultSize
	}
	return min(n, maxDimension)
}
