package editor

import (
	"context"
	"fmt"
	"image"
	"log"

	"studio/internal/scene"
)

// ImageLoader fetches and decodes the bitmap behind a source reference
// (URL or data URI).
type ImageLoader interface {
	Fetch(ctx context.Context, src string) (image.Image, error)
}

// Placement decides where an inserted image lands.
type Placement int

const (
	// PlaceUpload puts the image at (100, 100), 200px wide.
	PlaceUpload Placement = iota
	// PlaceCentered centers the image on the canvas, at most 40% of the
	// canvas width.
	PlaceCentered
)

// InsertImage loads src and inserts it as a selected image node.
//
// A transient placeholder reserves the z-index while the load runs outside
// the session lock. If the scene was cleared or replaced meanwhile the
// result is dropped and (nil, nil) is returned. If only the placeholder is
// gone the image goes on top. A failed load removes the placeholder.
func (e *Editor) InsertImage(ctx context.Context, loader ImageLoader, src string, place Placement) (*scene.Node, error) {
	e.mu.Lock()
	gen := e.scene.Generation()
	ph := scene.NewRect(0, 0, 1, 1, "")
	ph.Opacity = 0
	ph.Transient = true
	e.scene.Add(ph)
	e.mu.Unlock()

	img, err := loader.Fetch(ctx, src)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.scene.Generation() != gen {
		log.Printf("[editor] drop image %.60s: %v", src, ErrStale)
		return nil, nil
	}
	if err != nil {
		e.scene.Remove(ph)
		return nil, fmt.Errorf("insert image: %w", err)
	}

	n := scene.NewImage(0, 0, src)
	n.SetBitmap(img)
	switch place {
	case PlaceUpload:
		n.X, n.Y = 100, 100
		n.ScaleToWidth(200)
	case PlaceCentered:
		if maxW := float64(e.scene.Width()) * 0.4; n.Width > maxW {
			n.ScaleToWidth(maxW)
		}
		n.X = float64(e.scene.Width())/2 - n.ScaledWidth()/2
		n.Y = float64(e.scene.Height())/2 - n.ScaledHeight()/2
	}

	if e.scene.Contains(ph) {
		if err := e.scene.Replace(ph, n); err != nil {
			return nil, fmt.Errorf("insert image: %w", err)
		}
	} else {
		e.scene.Add(n)
	}
	e.scene.Select(n)
	return n, nil
}

// HydrateImages loads pixels for image nodes that have none, such as after
// loading a stored design. Failures are logged and leave the node empty.
func (e *Editor) HydrateImages(ctx context.Context, loader ImageLoader) int {
	e.mu.Lock()
	gen := e.scene.Generation()
	var pending []*scene.Node
	e.scene.Walk(func(n *scene.Node) bool {
		if n.Kind == scene.KindImage && n.Bitmap() == nil && n.Image != nil && n.Image.Src != "" {
			pending = append(pending, n)
		}
		return true
	})
	e.mu.Unlock()

	loaded := 0
	for _, n := range pending {
		img, err := loader.Fetch(ctx, n.Image.Src)
		if err != nil {
			log.Printf("[editor] hydrate image %.60s: %v", n.Image.Src, err)
			continue
		}
		e.mu.Lock()
		if e.scene.Generation() == gen && e.scene.Owns(n) {
			n.AttachBitmap(img)
			n.SetCoords()
			e.scene.RequestRender()
			loaded++
		}
		e.mu.Unlock()
	}
	return loaded
}

// ── Processing set ──────────────────────────────────────────

// Job is an async transform of one image node.
type Job struct {
	NodeID string
	Src    string
	Bitmap image.Image

	node       *scene.Node
	generation uint64
}

// ProcessingState is the payload of EventProcessing.
type ProcessingState struct {
	NodeID     string `json:"id"`
	Processing bool   `json:"processing"`
}

// BeginProcessing claims the selected image for an async transform. The
// node gets an id if it had none. A node already being processed is
// refused.
func (e *Editor) BeginProcessing() (*Job, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.scene.Active().Single()
	if n == nil || n.Kind != scene.KindImage {
		return nil, ErrNotImage
	}
	id := n.EnsureID()
	if _, busy := e.processing[id]; busy {
		return nil, ErrAlreadyProcessing
	}
	e.processing[id] = struct{}{}
	e.notify.Emit(e.ctx, EventProcessing, ProcessingState{NodeID: id, Processing: true})
	e.publishFields()
	return &Job{
		NodeID:     id,
		Src:        n.Image.Src,
		Bitmap:     n.Bitmap(),
		node:       n,
		generation: e.scene.Generation(),
	}, nil
}

// ApplyProcessed swaps the job's result in as the node's new source. It
// returns ErrStale when the node left the scene or the scene was replaced.
func (e *Editor) ApplyProcessed(j *Job, img image.Image, src string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.scene.Generation() != j.generation || !e.scene.Owns(j.node) {
		return ErrStale
	}
	j.node.Image.Src = src
	j.node.AttachBitmap(img)
	e.scene.Modified(j.node)
	return nil
}

// EndProcessing releases the node claimed by j. It must run whether the
// transform succeeded or not.
func (e *Editor) EndProcessing(j *Job) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.processing, j.NodeID)
	e.notify.Emit(e.ctx, EventProcessing, ProcessingState{NodeID: j.NodeID, Processing: false})
	if e.isSelected(j.node) {
		e.publishFields()
	}
}

// Processing reports whether the node with id is being processed.
func (e *Editor) Processing(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.processing[id]
	return ok
}
