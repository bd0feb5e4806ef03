package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"studio/internal/render"
)

// ErrFetch marks a failed asset download or decode. The editor treats it as
// recoverable: the insert is abandoned and the user is told.
var ErrFetch = errors.New("asset unavailable")

const (
	maxBodyBytes = 32 << 20
	// maxPixels caps the decoded size of a raster, whatever its file size.
	maxPixels = 50_000_000
	// svgSize is the longer side, in pixels, an SVG is rasterized at.
	svgSize = 300
)

// LoaderConfig tunes downloads.
type LoaderConfig struct {
	Timeout      time.Duration
	MaxDimension int
	UserAgent    string
}

// Loader downloads and decodes image sources. It satisfies
// editor.ImageLoader.
type Loader struct {
	client *http.Client
	cfg    LoaderConfig
}

// NewLoader returns a Loader. client may be nil.
func NewLoader(cfg LoaderConfig, client *http.Client) *Loader {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxDimension <= 0 {
		cfg.MaxDimension = 2048
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "studio/1.0"
	}
	if client == nil {
		client = &http.Client{}
	}
	return &Loader{client: client, cfg: cfg}
}

// Fetch loads src, an http(s) URL or a base64 data URI, and returns the
// decoded image, downscaled so neither side exceeds MaxDimension.
func (l *Loader) Fetch(ctx context.Context, src string) (image.Image, error) {
	data, ctype, err := l.read(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %.80s: %w", ErrFetch, src, err)
	}
	img, err := decode(data, ctype)
	if err != nil {
		return nil, fmt.Errorf("%w: %.80s: %w", ErrFetch, src, err)
	}
	return fit(img, l.cfg.MaxDimension), nil
}

func (l *Loader) read(ctx context.Context, src string) ([]byte, string, error) {
	if strings.HasPrefix(src, "data:") {
		data, err := render.DecodeDataURI(src)
		if err != nil {
			return nil, "", err
		}
		ctype, _, _ := strings.Cut(strings.TrimPrefix(src, "data:"), ";")
		return data, ctype, nil
	}
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return nil, "", fmt.Errorf("unsupported source")
	}

	ctx, cancel := context.WithTimeout(ctx, l.cfg.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("User-Agent", l.cfg.UserAgent)
	req.Header.Set("Accept", "image/*")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, "", err
	}
	ctype := resp.Header.Get("Content-Type")
	if ctype == "" || strings.HasPrefix(ctype, "application/octet-stream") {
		ctype = http.DetectContentType(data)
	}
	return data, ctype, nil
}

func decode(data []byte, ctype string) (image.Image, error) {
	ctype = strings.ToLower(ctype)
	if strings.Contains(ctype, "svg") || looksLikeSVG(data) {
		return rasterizeSVG(data)
	}
	if !strings.HasPrefix(ctype, "image/") {
		return nil, fmt.Errorf("not an image (%s)", ctype)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return nil, fmt.Errorf("decode: image too large (%dx%d)", cfg.Width, cfg.Height)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return img, nil
}

func looksLikeSVG(data []byte) bool {
	head := bytes.TrimSpace(data[:min(len(data), 256)])
	return bytes.HasPrefix(head, []byte("<svg")) ||
		(bytes.HasPrefix(head, []byte("<?xml")) && bytes.Contains(data, []byte("<svg")))
}

func rasterizeSVG(data []byte) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("svg: %w", err)
	}
	vw, vh := icon.ViewBox.W, icon.ViewBox.H
	if vw <= 0 || vh <= 0 {
		vw, vh = svgSize, svgSize
	}
	k := svgSize / max(vw, vh)
	w, h := max(1, int(vw*k+0.5)), max(1, int(vh*k+0.5))
	icon.SetTarget(0, 0, float64(w), float64(h))

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1.0)
	return img, nil
}

// fit downscales img so its longer side is at most limit.
func fit(img image.Image, limit int) image.Image {
	b := img.Bounds()
	longest := max(b.Dx(), b.Dy())
	if longest <= limit {
		return img
	}
	k := float64(limit) / float64(longest)
	w, h := max(1, int(float64(b.Dx())*k+0.5)), max(1, int(float64(b.Dy())*k+0.5))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
