package editor

import (
	"bytes"
	"fmt"
	"image"

	"studio/internal/render"
)

// Export is a rendered PNG ready to download.
type Export struct {
	Filename string
	Data     []byte
}

// ExportPNG renders the selection, or the whole canvas when nothing is
// selected. A transparent canvas is exported on white.
func (e *Editor) ExportPNG() (Export, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var (
		img image.Image
		err error
	)
	if sel := e.scene.Active(); !sel.Empty() {
		img, err = render.Nodes(sel.Nodes, e.export.Node)
	} else {
		bg := e.scene.Background()
		if bg == "" {
			bg = "#ffffff"
		}
		img, err = render.Scene(e.scene, render.Options{Multiplier: e.export.Scene, Background: bg})
	}
	if err != nil {
		return Export{}, fmt.Errorf("export png: %w", err)
	}

	var buf bytes.Buffer
	if err := render.PNG(img, &buf); err != nil {
		return Export{}, fmt.Errorf("export png: %w", err)
	}
	return Export{Filename: render.ExportFilename(e.doc.Name), Data: buf.Bytes()}, nil
}
