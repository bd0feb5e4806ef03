package assets_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"studio/internal/assets"
	"studio/internal/render"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// ─────────────────────────────────────────────────────────────
// Search
// ─────────────────────────────────────────────────────────────

func TestSearch_Generated(t *testing.T) {
	s := assets.NewSearcher(assets.Endpoints{}, nil)
	res, err := s.Search("red car", assets.CategoryPhoto)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 12 {
		t.Fatalf("got %d results, want 12", len(res))
	}
	if !strings.HasPrefix(res[0].URL, "https://image.pollinations.ai/prompt/red%20car%2C%20raw%20photo") {
		t.Errorf("url = %s", res[0].URL)
	}
	if !strings.HasSuffix(res[3].URL, "width=400&height=400&nologo=true&seed=3") {
		t.Errorf("preview url = %s", res[3].URL)
	}
	if !strings.HasSuffix(res[3].FullURL, "width=1024&height=1024&nologo=true&seed=3") {
		t.Errorf("full url = %s", res[3].FullURL)
	}
}

func TestSearch_Icons(t *testing.T) {
	s := assets.NewSearcher(assets.Endpoints{}, nil)
	res, _ := s.Search("home", assets.CategoryIcon)
	if len(res) != len(assets.IconSets) {
		t.Fatalf("got %d results", len(res))
	}
	if res[0].URL != "https://api.iconify.design/mdi:home.svg?height=100" {
		t.Errorf("url = %s", res[0].URL)
	}
	if res[0].FullURL != "https://api.iconify.design/mdi:home.svg?height=300" || res[0].Author != "mdi" {
		t.Errorf("result = %+v", res[0])
	}
}

func TestSearch_Edges(t *testing.T) {
	s := assets.NewSearcher(assets.Endpoints{}, nil)
	if res, err := s.Search("   ", assets.CategoryArt); err != nil || res != nil {
		t.Errorf("blank query = (%v, %v)", res, err)
	}
	if _, err := s.Search("x", "video"); err == nil {
		t.Error("unknown category should fail")
	}
}

func TestSuggest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("s") {
		case "flwer":
			w.Write([]byte(`[{"word":"flower","score":100}]`))
		case "Flower":
			w.Write([]byte(`[{"word":"flower","score":100}]`))
		default:
			w.Write([]byte(`[]`))
		}
	}))
	defer srv.Close()

	s := assets.NewSearcher(assets.Endpoints{Words: srv.URL}, srv.Client())
	tests := []struct {
		query, want string
	}{
		{"flwer", "flower"},
		{"Flower", ""},
		{"zzz", ""},
	}
	for _, tt := range tests {
		got, err := s.Suggest(context.Background(), tt.query)
		if err != nil {
			t.Fatalf("%s: %v", tt.query, err)
		}
		if got != tt.want {
			t.Errorf("Suggest(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

// ─────────────────────────────────────────────────────────────
// Loader
// ─────────────────────────────────────────────────────────────

func TestFetch_PNGOverHTTP(t *testing.T) {
	body := pngBytes(t, 30, 20)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(body)
	}))
	defer srv.Close()

	l := assets.NewLoader(assets.LoaderConfig{}, srv.Client())
	img, err := l.Fetch(context.Background(), srv.URL+"/a.png")
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 30 || b.Dy() != 20 {
		t.Errorf("bounds = %v", b)
	}
}

func TestFetch_DownscalesLargeImages(t *testing.T) {
	uri, err := render.DataURI(image.NewRGBA(image.Rect(0, 0, 400, 100)))
	if err != nil {
		t.Fatal(err)
	}
	l := assets.NewLoader(assets.LoaderConfig{MaxDimension: 100}, nil)
	img, err := l.Fetch(context.Background(), uri)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 25 {
		t.Errorf("bounds = %v, want 100x25", b)
	}
}

func TestFetch_SVG(t *testing.T) {
	svg := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 12"><rect width="24" height="12" fill="#ff0000"/></svg>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Write([]byte(svg))
	}))
	defer srv.Close()

	img, err := assets.NewLoader(assets.LoaderConfig{}, srv.Client()).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 300 || b.Dy() != 150 {
		t.Errorf("bounds = %v, want 300x150", b)
	}
}

func TestFetch_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/html":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html></html>"))
		case "/broken":
			w.Header().Set("Content-Type", "image/png")
			w.Write([]byte("not a png"))
		}
	}))
	defer srv.Close()

	l := assets.NewLoader(assets.LoaderConfig{}, srv.Client())
	for _, src := range []string{
		srv.URL + "/missing",
		srv.URL + "/html",
		srv.URL + "/broken",
		"ftp://example.com/a.png",
		"data:image/png;base64,!!",
	} {
		if _, err := l.Fetch(context.Background(), src); !errors.Is(err, assets.ErrFetch) {
			t.Errorf("%s: err = %v, want ErrFetch", src, err)
		}
	}
}

// pngHeader returns a PNG whose IHDR claims w x h pixels and carries no data.
func pngHeader(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	chunk := func(typ string, data []byte) {
		binary.Write(&buf, binary.BigEndian, uint32(len(data)))
		body := append([]byte(typ), data...)
		buf.Write(body)
		binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(body))
	}
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 6 // RGBA
	chunk("IHDR", ihdr)
	chunk("IEND", nil)
	return buf.Bytes()
}

func TestFetch_RejectsHugeDimensions(t *testing.T) {
	huge := pngHeader(40000, 40000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(huge)
	}))
	defer srv.Close()

	l := assets.NewLoader(assets.LoaderConfig{}, srv.Client())
	_, err := l.Fetch(context.Background(), srv.URL+"/huge.png")
	if !errors.Is(err, assets.ErrFetch) {
		t.Fatalf("err = %v, want ErrFetch", err)
	}
	if !strings.Contains(err.Error(), "too large") {
		t.Errorf("err = %v, want a size rejection", err)
	}
}
