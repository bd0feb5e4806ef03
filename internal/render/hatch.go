package render

import (
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

const hatchSize = 10

const hatchSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10" viewBox="0 0 10 10">` +
	`<path d="M-1,1 l2,-2 M0,10 l10,-10 M9,11 l2,-2" stroke="%s" stroke-width="1" fill="none"/></svg>`

var (
	hatchMu    sync.Mutex
	hatchCache = map[string]image.Image{}
)

// HatchTile returns the 10x10 diagonal-stripe tile used by pattern fills,
// drawn in color.
func HatchTile(color string) (image.Image, error) {
	if color == "" {
		color = "#000000"
	}
	hatchMu.Lock()
	defer hatchMu.Unlock()
	if img, ok := hatchCache[color]; ok {
		return img, nil
	}

	icon, err := oksvg.ReadIconStream(strings.NewReader(fmt.Sprintf(hatchSVG, color)))
	if err != nil {
		return nil, fmt.Errorf("hatch tile %s: %w", color, err)
	}
	icon.SetTarget(0, 0, hatchSize, hatchSize)

	img := image.NewRGBA(image.Rect(0, 0, hatchSize, hatchSize))
	scanner := rasterx.NewScannerGV(hatchSize, hatchSize, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(hatchSize, hatchSize, scanner), 1.0)

	hatchCache[color] = img
	return img, nil
}
