package app

// ─────────────────────────────────────────────────────────────
// Editor Handlers: thin delegates to the editor session
// ─────────────────────────────────────────────────────────────

import (
	"fmt"
	"os"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"studio/internal/editor"
	"studio/internal/render"
)

// ── Canvas ─────────────────────────────────────────────────

// RenderFrame returns the canvas as a PNG data URI. The frontend calls it
// after canvas:invalidated.
func (a *App) RenderFrame(multiplier float64) (string, error) {
	if multiplier <= 0 {
		multiplier = 1
	}
	img, err := a.editor.Frame(multiplier)
	if err != nil {
		return "", err
	}
	return render.DataURI(img)
}

func (a *App) SetPageOffset(x, y float64) {
	a.editor.SetPageOffset(x, y)
}

func (a *App) Wheel(deltaY, x, y float64, zoomModifier bool) {
	a.editor.Wheel(deltaY, x, y, zoomModifier)
}

// ── Pointer ────────────────────────────────────────────────

// Click selects the node under the pointer and returns its id, or "" when
// the click hit empty canvas.
func (a *App) Click(x, y float64) string {
	n := a.editor.Click(x, y)
	if n == nil {
		return ""
	}
	return n.ID
}

func (a *App) DoubleClick(x, y float64) bool {
	return a.editor.DoubleClick(x, y)
}

func (a *App) Drag(dx, dy float64) error {
	return a.editor.Drag(dx, dy)
}

func (a *App) Scale(fx, fy float64) error {
	return a.editor.Scale(fx, fy)
}

func (a *App) Rotate(deg float64) error {
	return a.editor.Rotate(deg)
}

func (a *App) EndTransform() {
	a.editor.EndTransform()
}

// ── Keyboard and clipboard ─────────────────────────────────

// HandleKey runs a shortcut and reports whether the frontend should
// prevent the default action.
func (a *App) HandleKey(k editor.KeyEvent) bool {
	return a.editor.HandleKey(k)
}

func (a *App) Copy() bool      { return a.editor.Copy() }
func (a *App) Cut() bool       { return a.editor.Cut() }
func (a *App) Paste() bool     { return a.editor.Paste() }
func (a *App) Duplicate() bool { return a.editor.Duplicate() }

// PasteSystem pastes scene JSON copied by another studio window. Pasted
// images arrive without pixels and are fetched in the background.
func (a *App) PasteSystem() bool {
	if !a.editor.PasteSystem() {
		return false
	}
	go a.editor.HydrateImages(a.ctx, a.loader)
	return true
}

// ── Selection ──────────────────────────────────────────────

func (a *App) GetFields() *editor.Fields {
	return a.editor.Fields()
}

func (a *App) GetToolbar() editor.Toolbar {
	return a.editor.Toolbar()
}

func (a *App) SelectNode(id string) bool {
	return a.editor.SelectByID(id)
}

func (a *App) SelectAll() {
	a.editor.SelectAll()
}

func (a *App) Deselect() {
	a.editor.Deselect()
}

func (a *App) DeleteSelection() bool {
	return a.editor.DeleteSelection()
}

func (a *App) GroupSelection() bool {
	_, ok := a.editor.Group()
	return ok
}

func (a *App) UngroupSelection() bool {
	_, ok := a.editor.Ungroup()
	return ok
}

// ── Properties ─────────────────────────────────────────────

// SetProperty writes a panel edit into the selection.
func (a *App) SetProperty(key string, value any) error {
	return a.editor.SetProperty(key, value)
}

func (a *App) ToggleLock() error       { return a.editor.ToggleLock() }
func (a *App) ToggleVisibility() error { return a.editor.ToggleVisibility() }
func (a *App) TogglePattern() error    { return a.editor.TogglePattern() }
func (a *App) FlipHorizontal() error   { return a.editor.FlipHorizontal() }
func (a *App) FlipVertical() error     { return a.editor.FlipVertical() }
func (a *App) CenterOnCanvas() error   { return a.editor.CenterOnCanvas() }

// ── Layers ─────────────────────────────────────────────────

func (a *App) BringForward() { a.editor.BringForward() }
func (a *App) SendBackward() { a.editor.SendBackward() }
func (a *App) BringToFront() { a.editor.BringToFront() }
func (a *App) SendToBack()   { a.editor.SendToBack() }

// ── Tools ──────────────────────────────────────────────────

// AddShape quick-adds rect, roundedRect, ellipse or text.
func (a *App) AddShape(shape string) error {
	_, err := a.editor.AddShape(editor.Shape(shape))
	return err
}

// ── Text editing ───────────────────────────────────────────

func (a *App) BeginTextEdit(id string) error {
	return a.editor.BeginTextEdit(id)
}

func (a *App) SetTextSelection(start, end int) error {
	return a.editor.SetTextSelection(start, end)
}

func (a *App) EndTextEdit() {
	a.editor.EndTextEdit()
}

// ── Export ─────────────────────────────────────────────────

// ExportPNG renders the selection (or the canvas) and asks where to save
// it. It returns the written path, or "" when the dialog was cancelled.
func (a *App) ExportPNG() (string, error) {
	exp, err := a.editor.ExportPNG()
	if err != nil {
		return "", err
	}
	path, err := wailsRuntime.SaveFileDialog(a.ctx, wailsRuntime.SaveDialogOptions{
		Title:           "Export PNG",
		DefaultFilename: exp.Filename,
		Filters: []wailsRuntime.FileFilter{
			{DisplayName: "PNG Image", Pattern: "*.png"},
		},
	})
	if err != nil || path == "" {
		return "", err
	}
	if err := os.WriteFile(path, exp.Data, 0644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	wailsRuntime.LogInfof(a.ctx, "[Export] %s (%d bytes)", path, len(exp.Data))
	return path, nil
}
