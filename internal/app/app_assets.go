package app

// ─────────────────────────────────────────────────────────────
// Asset Handlers: search, image insert, background removal, tutor
// ─────────────────────────────────────────────────────────────

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"studio/internal/assets"
	"studio/internal/assistant"
	"studio/internal/editor"
	"studio/internal/scene"
	"studio/internal/service"
)

// ── Search ─────────────────────────────────────────────────

// SearchAssets returns result URLs for the asset panel. An empty query
// searches the default one.
func (a *App) SearchAssets(query, category string) ([]assets.Result, error) {
	if query == "" {
		query = assets.DefaultQuery
	}
	results, err := a.searcher.Search(query, assets.Category(category))
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []assets.Result{}
	}
	return results, nil
}

// SuggestQuery returns a spelling correction, or "".
func (a *App) SuggestQuery(query string) string {
	ctx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	s, err := a.searcher.Suggest(ctx, query)
	if err != nil {
		wailsRuntime.LogDebugf(a.ctx, "[Assets] suggest %q: %v", query, err)
		return ""
	}
	return s
}

// OpenPinterest opens the external search page for query.
func (a *App) OpenPinterest(query string) {
	wailsRuntime.BrowserOpenURL(a.ctx, assets.PinterestURL(query))
}

// ── Images ─────────────────────────────────────────────────

// InsertImage loads a search result and centers it on the canvas.
func (a *App) InsertImage(src string) error {
	_, err := a.editor.InsertImage(a.ctx, a.loader, src, editor.PlaceCentered)
	return err
}

// UploadImage inserts an image the frontend read as a data URI.
func (a *App) UploadImage(dataURI string) error {
	_, err := a.editor.InsertImage(a.ctx, a.loader, dataURI, editor.PlaceUpload)
	return err
}

// PickImageFile opens a native file picker and inserts the chosen image.
// It returns false when the dialog was cancelled.
func (a *App) PickImageFile() (bool, error) {
	path, err := wailsRuntime.OpenFileDialog(a.ctx, wailsRuntime.OpenDialogOptions{
		Title: "Select Image",
		Filters: []wailsRuntime.FileFilter{
			{DisplayName: "Images", Pattern: "*.png;*.jpg;*.jpeg;*.gif;*.webp;*.svg"},
		},
	})
	if err != nil || path == "" {
		return false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read image: %w", err)
	}
	mime := http.DetectContentType(data)
	if mime == "text/xml; charset=utf-8" || mime == "text/plain; charset=utf-8" {
		mime = "image/svg+xml"
	}
	uri := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
	return true, a.UploadImage(uri)
}

// ── Background removal ─────────────────────────────────────

func (a *App) BackgroundRemovalAvailable() bool {
	return a.background.Available()
}

// RemoveBackground strips the background of the selected image.
func (a *App) RemoveBackground() error {
	return a.background.Remove(a.ctx, a.editor)
}

// ── Advice ─────────────────────────────────────────────────

// GetAdvice returns layout tips for the single selected node.
func (a *App) GetAdvice() []assistant.Tip {
	var tips []assistant.Tip
	a.editor.With(func(sc *scene.Scene) error {
		tips = assistant.Advise(sc.Active().Single(), sc)
		return nil
	})
	if tips == nil {
		tips = []assistant.Tip{}
	}
	return tips
}

// ── Tutor ──────────────────────────────────────────────────

// ChatGreeting is the opening turn of the tutor panel.
func (a *App) ChatGreeting() service.ChatMessage {
	return a.chat.Greeting()
}

// Chat sends a question to the design tutor. A failed call is answered
// with an apology turn so the conversation keeps going.
func (a *App) Chat(history []service.ChatMessage, input string) (service.ChatMessage, error) {
	reply, err := a.chat.Chat(a.ctx, history, input)
	if errors.Is(err, service.ErrEmptyMessage) {
		return service.ChatMessage{}, err
	}
	if err != nil {
		wailsRuntime.LogErrorf(a.ctx, "[Chat] %v", err)
		return service.ChatMessage{Role: service.RoleAssistant, Content: "Sorry, I could not reach the tutor."}, nil
	}
	return reply, nil
}

func (a *App) ChatAssignments() []service.Assignment {
	return a.chat.Assignments()
}

// ChatAssignment returns the canned exercise for key as a tutor turn.
func (a *App) ChatAssignment(key string) (service.ChatMessage, error) {
	m, ok := a.chat.Assignment(key)
	if !ok {
		return service.ChatMessage{}, fmt.Errorf("unknown assignment %q", key)
	}
	return m, nil
}
