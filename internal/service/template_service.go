package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"

	"studio/internal/scene"
)

// ─────────────────────────────────────────────────────────────
// Template Service: built-in and file templates
// ─────────────────────────────────────────────────────────────

var ErrTemplateNotFound = errors.New("template not found")

// EventTemplatesChanged is emitted with the new name list after the
// templates directory was reloaded.
const EventTemplatesChanged = "templates:changed"

// WatchTemplate is the name of the built-in poster template.
const WatchTemplate = "watch"

// TemplateService resolves template names to encoded scenes. File
// templates are *.json scene documents in dir, named after the file.
type TemplateService struct {
	dir     string
	emitter EventEmitter

	mu    sync.RWMutex
	files map[string][]byte

	watchCancel context.CancelFunc
	watcher     *fsnotify.Watcher
}

// NewTemplateService creates a TemplateService over dir. dir may be empty
// to only serve the built-in template.
func NewTemplateService(dir string, emitter EventEmitter) *TemplateService {
	return &TemplateService{dir: dir, emitter: emitter, files: map[string][]byte{}}
}

// Load (re)reads the templates directory. Files that do not decode as a
// scene are logged and skipped. A missing directory holds no templates.
func (s *TemplateService) Load() error {
	files := map[string][]byte{}
	if s.dir != "" {
		paths, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
		if err != nil {
			return fmt.Errorf("load templates: %w", err)
		}
		for _, p := range paths {
			data, err := os.ReadFile(p)
			if err != nil {
				log.Printf("[templates] read %s: %v", p, err)
				continue
			}
			if _, err := scene.Decode(data); err != nil {
				log.Printf("[templates] skip %s: %v", p, err)
				continue
			}
			name := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
			files[strings.ToLower(name)] = data
		}
	}

	s.mu.Lock()
	s.files = files
	s.mu.Unlock()
	log.Printf("[templates] loaded %d file template(s)", len(files))
	return nil
}

// Names lists the available templates, built-in first.
func (s *TemplateService) Names() []string {
	s.mu.RLock()
	names := lo.Keys(s.files)
	s.mu.RUnlock()
	slices.Sort(names)
	return append([]string{WatchTemplate}, lo.Without(names, WatchTemplate)...)
}

// Template returns the encoded scene for name. The built-in template is
// laid out for a width x height canvas; file templates carry their own size.
func (s *TemplateService) Template(name string, width, height int) ([]byte, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == WatchTemplate {
		sc, err := BuildWatchTemplate(width, height)
		if err != nil {
			return nil, err
		}
		return scene.Encode(sc)
	}
	s.mu.RLock()
	data, ok := s.files[key]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	return data, nil
}

// Watch reloads the directory when *.json files change, debounced by
// 500ms. It returns once the watcher is running.
func (s *TemplateService) Watch() error {
	s.Close()
	if s.dir == "" {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("watch templates: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch templates: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch templates: %w", err)
	}
	s.watcher = watcher

	watchCtx, cancel := context.WithCancel(context.Background())
	s.watchCancel = cancel

	go func() {
		var timer *time.Timer
		for {
			select {
			case <-watchCtx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Ext(event.Name) != ".json" || event.Has(fsnotify.Chmod) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(500*time.Millisecond, func() {
					if err := s.Load(); err != nil {
						log.Printf("[templates] reload: %v", err)
						return
					}
					s.emitter.Emit(watchCtx, EventTemplatesChanged, s.Names())
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("[templates] watcher error: %v", err)
			}
		}
	}()

	log.Printf("[templates] watching %s", s.dir)
	return nil
}

// Close stops the directory watcher.
func (s *TemplateService) Close() {
	if s.watchCancel != nil {
		s.watchCancel()
		s.watchCancel = nil
	}
	if s.watcher != nil {
		s.watcher.Close()
		s.watcher = nil
	}
}

// ── Built-in template ──────────────────────────────────────

// BuildWatchTemplate lays out the product poster: a sand wave over a dark
// background, the title block, a discount badge, an image slot and a
// "SHOP NOW" button.
func BuildWatchTemplate(width, height int) (*scene.Scene, error) {
	sc, err := scene.New(width, height)
	if err != nil {
		return nil, fmt.Errorf("watch template: %w", err)
	}
	w, h := float64(width), float64(height)
	sc.SetBackground("#0f3d4e")

	wave, err := scene.NewPath(fmt.Sprintf("M 0 %g Q %g %g %g %g L %g %g L 0 %g Z",
		h*0.6, w/2, h*0.4, w, h*0.6, w, h, h), "#f3f4f6")
	if err != nil {
		return nil, fmt.Errorf("watch template: %w", err)
	}
	wave.Name = "wave"
	wave.Locked = true

	style := func(size float64, weight string) scene.TextStyle {
		st := scene.DefaultTextStyle()
		st.FontSize = size
		st.FontWeight = weight
		return st
	}

	outline := scene.NewText(50, 250, "WATCH", style(60, "900"), "transparent")
	outline.Stroke = "#ffffff"
	outline.StrokeWidth = 2

	slot := scene.NewRect(w/2+50, 150, 300, 400, "rgba(255,255,255,0.1)")
	slot.Stroke = "#ffffff"
	slot.StrokeWidth = 1
	slot.StrokeDash = []float64{5, 5}
	slot.CornerRadius = 20

	sc.Add(
		wave,
		scene.NewText(50, 50, "TIME ZONE", style(24, "bold"), "#a5b4fc"),
		scene.NewText(50, 150, "NEW", style(20, "bold"), "#94a3b8"),
		scene.NewText(50, 180, "STYLISH", style(60, "900"), "#ffffff"),
		outline,
		scene.NewText(50, 330, "available on our store", style(18, "normal"), "#cbd5e1"),
	)

	ring := scene.NewEllipse(40, 450, 60, "#f1f5f9")
	ring.Stroke = "#0f3d4e"
	ring.StrokeWidth = 2
	ring.StrokeDash = []float64{5, 5}
	badge := []*scene.Node{
		ring,
		centered(scene.NewText(0, 0, "UP TO", style(12, "bold"), "#0f3d4e"), 100, 485),
		centered(scene.NewText(0, 0, "40%", style(36, "900"), "#0f3d4e"), 100, 510),
		centered(scene.NewText(0, 0, "OFF", style(12, "bold"), "#0f3d4e"), 100, 535),
	}
	sc.Add(badge...)
	if _, err := sc.Group(badge); err != nil {
		return nil, fmt.Errorf("watch template: %w", err)
	}

	sc.Add(slot, scene.NewText(w/2+100, 350, "Place Watch Image Here", style(16, "normal"), "#ffffff"))

	btn := scene.NewRect(50, 650, 150, 40, "transparent")
	btn.Stroke = "#0f3d4e"
	btn.StrokeWidth = 2
	btn.CornerRadius = 20
	label := centered(scene.NewText(0, 0, "SHOP NOW", style(14, "bold"), "#0f3d4e"), 125, 670)
	sc.Add(btn, label)
	group, err := sc.Group([]*scene.Node{btn, label})
	if err != nil {
		return nil, fmt.Errorf("watch template: %w", err)
	}
	group.Name = "shop-now"

	sc.Discard()
	return sc, nil
}

// centered moves a sized node so its box is centered on (cx, cy).
func centered(n *scene.Node, cx, cy float64) *scene.Node {
	n.X = cx - n.ScaledWidth()/2
	n.Y = cy - n.ScaledHeight()/2
	n.SetCoords()
	return n
}
