package editor

import (
	"encoding/json"
	"log"

	"github.com/atotto/clipboard"

	"studio/internal/scene"
)

// pasteOffset is how far each paste or duplicate lands from its source.
const pasteOffset = 20

// clipSlot holds deep clones awaiting paste. Each paste advances the
// stored position so repeated pastes cascade.
type clipSlot struct {
	nodes     []*scene.Node
	composite bool
}

// ClipboardMirror is the system clipboard.
type ClipboardMirror interface {
	WriteAll(text string) error
	ReadAll() (string, error)
}

// OSClipboard is the platform clipboard.
type OSClipboard struct{}

func (OSClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }
func (OSClipboard) ReadAll() (string, error)   { return clipboard.ReadAll() }

// clipboardPayload is what lands on the system clipboard. The marker tells
// our own payloads apart from arbitrary text.
type clipboardPayload struct {
	Marker    int           `json:"studioClipboard"`
	Composite bool          `json:"composite,omitempty"`
	Objects   []*scene.Node `json:"objects"`
}

// Copy puts a deep clone of the selection into the clipboard slot.
func (e *Editor) Copy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.copySelection(e.scene.Active())
}

// Cut copies the selection and removes it from the scene.
func (e *Editor) Cut() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cut(e.scene.Active())
}

// Paste inserts a clone of the clipboard slot offset from the last paste
// and selects it. An empty slot does nothing.
func (e *Editor) Paste() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paste()
}

// PasteSystem pastes nodes copied by another editor window through the
// system clipboard. Image nodes arrive without pixels; callers hydrate them.
func (e *Editor) PasteSystem() bool {
	if e.mirror == nil {
		return false
	}
	text, err := e.mirror.ReadAll()
	if err != nil {
		log.Printf("[editor] read clipboard: %v", err)
		return false
	}
	var p clipboardPayload
	if json.Unmarshal([]byte(text), &p) != nil || p.Marker == 0 {
		return false
	}
	nodes := scene.Normalize(p.Objects)
	if len(nodes) == 0 {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clip = &clipSlot{nodes: nodes, composite: p.Composite}
	return e.paste()
}

// Duplicate clones the live selection next to itself, leaving the
// clipboard slot untouched.
func (e *Editor) Duplicate() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duplicate(e.scene.Active())
}

func (e *Editor) copySelection(sel scene.Selection) bool {
	if sel.Empty() {
		return false
	}
	e.clip = &clipSlot{nodes: scene.CloneAll(sel.Nodes), composite: sel.Composite}
	e.mirrorSlot()
	return true
}

func (e *Editor) mirrorSlot() {
	if e.mirror == nil || e.clip == nil {
		return
	}
	data, err := json.Marshal(clipboardPayload{Marker: 1, Composite: e.clip.composite, Objects: e.clip.nodes})
	if err != nil {
		log.Printf("[editor] encode clipboard: %v", err)
		return
	}
	if err := e.mirror.WriteAll(string(data)); err != nil {
		log.Printf("[editor] write clipboard: %v", err)
	}
}

func (e *Editor) cut(sel scene.Selection) bool {
	if !e.copySelection(sel) {
		return false
	}
	e.scene.Remove(sel.Nodes...)
	e.scene.Discard()
	return true
}

func (e *Editor) paste() bool {
	if e.clip == nil || len(e.clip.nodes) == 0 {
		return false
	}
	e.place(scene.CloneAll(e.clip.nodes), e.clip.composite)
	for _, n := range e.clip.nodes {
		n.X += pasteOffset
		n.Y += pasteOffset
	}
	return true
}

func (e *Editor) duplicate(sel scene.Selection) bool {
	if sel.Empty() {
		return false
	}
	e.place(scene.CloneAll(sel.Nodes), sel.Composite)
	return true
}

// place offsets fresh clones, adds them on top and selects them.
func (e *Editor) place(clones []*scene.Node, composite bool) {
	e.scene.Discard()
	for _, c := range clones {
		c.X += pasteOffset
		c.Y += pasteOffset
	}
	e.scene.Add(clones...)
	if composite || len(clones) > 1 {
		e.scene.SelectComposite(clones)
		return
	}
	e.scene.Select(clones[0])
}
