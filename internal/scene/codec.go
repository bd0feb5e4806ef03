package scene

import (
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
)

// FormatVersion is the version written into encoded documents.
const FormatVersion = 1

// Document is the serialized form of a scene.
type Document struct {
	Version    int      `json:"version"`
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	Background string   `json:"background"`
	Viewport   Viewport `json:"viewport"`
	Objects    []*Node  `json:"objects"`
}

// Snapshot returns the document form of the scene without transient nodes.
func (s *Scene) Snapshot() Document {
	return Document{
		Version:    FormatVersion,
		Width:      s.width,
		Height:     s.height,
		Background: s.background,
		Viewport:   s.viewport,
		Objects:    lo.Reject(s.nodes, func(n *Node, _ int) bool { return n.Transient }),
	}
}

// MarshalJSON encodes the scene as a Document.
func (s *Scene) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Snapshot())
}

// Encode serializes the scene.
func Encode(s *Scene) ([]byte, error) {
	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("encode scene: %w", err)
	}
	return data, nil
}

// Decode builds a scene from serialized data. The viewport always starts
// at identity, whatever was stored.
func Decode(data []byte) (*Scene, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	if doc.Version > FormatVersion {
		return nil, fmt.Errorf("decode scene: unsupported version %d", doc.Version)
	}
	s, err := New(doc.Width, doc.Height)
	if err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	s.background = doc.Background
	for _, n := range doc.Objects {
		if n == nil {
			continue
		}
		normalize(n)
		s.nodes = append(s.nodes, n)
		n.SetCoords()
	}
	return s, nil
}

// Load replaces the content of s with the decoded document, keeping its
// listeners, and starts a new generation.
func (s *Scene) Load(data []byte) error {
	fresh, err := Decode(data)
	if err != nil {
		return err
	}
	s.Clear()
	s.width, s.height = fresh.width, fresh.height
	s.background = fresh.background
	s.viewport = IdentityViewport()
	s.nodes = fresh.nodes
	s.emit(Event{Type: EventLoaded})
	s.RequestRender()
	return nil
}

// Normalize prepares nodes decoded outside a Document, such as a clipboard
// payload, the way Decode does. Nil entries are dropped.
func Normalize(nodes []*Node) []*Node {
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		normalize(n)
		n.SetCoords()
		out = append(out, n)
	}
	return out
}

// normalize fills defaults that older documents may omit.
func normalize(n *Node) {
	if n.ScaleX == 0 {
		n.ScaleX = 1
	}
	if n.ScaleY == 0 {
		n.ScaleY = 1
	}
	if n.Visibility == "" {
		n.Visibility = Visible
	}
	if n.Kind == KindText && n.Text == nil {
		n.Text = &TextBody{Style: DefaultTextStyle()}
	}
	if n.Kind == KindImage && n.Image == nil {
		n.Image = &ImageSource{}
	}
	for _, c := range n.Children {
		normalize(c)
		c.SetCoords()
	}
}
