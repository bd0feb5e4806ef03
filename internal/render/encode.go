package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"
	"regexp"
	"strings"

	"studio/internal/scene"
)

// PNG encodes img to w.
func PNG(img image.Image, w io.Writer) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// DataURI returns img as a base64 PNG data URI.
func DataURI(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := PNG(img, &buf); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeDataURI is the inverse of DataURI for any base64 image URI.
func DecodeDataURI(uri string) ([]byte, error) {
	_, payload, ok := strings.Cut(uri, ";base64,")
	if !ok || !strings.HasPrefix(uri, "data:") {
		return nil, fmt.Errorf("decode data uri: not a base64 data uri")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data uri: %w", err)
	}
	return data, nil
}

// Thumbnail renders the whole scene at mult and returns it as a data URI.
func Thumbnail(s *scene.Scene, mult float64) (string, error) {
	img, err := Scene(s, Options{Multiplier: mult})
	if err != nil {
		return "", fmt.Errorf("thumbnail: %w", err)
	}
	return DataURI(img)
}

var unsafeName = regexp.MustCompile(`[^a-z0-9]`)

// ExportFilename derives the download name for a design title.
func ExportFilename(name string) string {
	if strings.TrimSpace(name) == "" {
		name = "design"
	}
	return unsafeName.ReplaceAllString(strings.ToLower(name), "_") + ".png"
}
