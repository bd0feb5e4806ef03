package app

// ─────────────────────────────────────────────────────────────
// Design Handlers: dashboard, open/save, history, templates
// ─────────────────────────────────────────────────────────────

import (
	"context"
	"fmt"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"studio/internal/domain"
	"studio/internal/editor"
	"studio/internal/scene"
)

// saveOpenDesign is the autosave action: it writes the editor's document
// and starts watching it once it has an id.
func (a *App) saveOpenDesign(ctx context.Context) error {
	var id string
	err := a.watcher.Own(func() error {
		var err error
		id, err = a.designs.SaveEditor(ctx, a.editor)
		return err
	})
	if err != nil {
		return err
	}
	if a.editor.Document().ID != id {
		// The session moved to another design during the save.
		return nil
	}
	a.watcher.SetDesign(id)
	if err := a.window.SetLastDesign(id); err != nil {
		wailsRuntime.LogErrorf(a.ctx, "Failed to remember last design: %v", err)
	}
	return nil
}

// leaveDesign saves edits still waiting for the autosave timer.
func (a *App) leaveDesign() {
	a.autosave.Flush()
	a.autosave.Wait(a.ctx)
}

// ── Dashboard ──────────────────────────────────────────────

func (a *App) ListDesigns() ([]domain.DesignSummary, error) {
	list, err := a.designs.List(a.ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.DesignSummary{}
	}
	return list, nil
}

func (a *App) RenameDesign(id, name string) error {
	if err := a.watcher.Own(func() error { return a.designs.Rename(a.ctx, id, name) }); err != nil {
		return err
	}
	if a.editor.Document().ID == id {
		a.editor.SetDocument(editor.Document{ID: id, Name: name})
	}
	return nil
}

func (a *App) DeleteDesign(id string) error {
	open := a.editor.Document().ID == id
	if open {
		// Nothing left to save into.
		a.autosave.Cancel()
		a.autosave.Wait(a.ctx)
	}
	if err := a.watcher.Own(func() error { return a.designs.Delete(a.ctx, id) }); err != nil {
		return err
	}
	if open {
		if err := a.editor.NewFile(scene.DefaultSize, scene.DefaultSize); err != nil {
			return err
		}
		a.watcher.SetDesign("")
	}
	return nil
}

// ── Open / New / Save ──────────────────────────────────────

// OpenDesign loads a stored design into the editor.
func (a *App) OpenDesign(id string) (*DesignState, error) {
	a.leaveDesign()
	wailsRuntime.LogInfof(a.ctx, "[OpenDesign] loading design: %s", id)
	d, err := a.designs.LoadInto(a.ctx, a.editor, id)
	if err != nil {
		return nil, err
	}
	a.watcher.SetDesign(d.ID)
	if err := a.window.SetLastDesign(d.ID); err != nil {
		wailsRuntime.LogErrorf(a.ctx, "Failed to remember last design: %v", err)
	}

	// Bitmaps are not stored; fetch them in the background.
	go func() {
		if n := a.editor.HydrateImages(a.ctx, a.loader); n > 0 {
			wailsRuntime.LogInfof(a.ctx, "[OpenDesign] %d image(s) loaded", n)
		}
	}()

	state := a.designState()
	wailsRuntime.EventsEmit(a.ctx, EventDesignOpened, state)
	return state, nil
}

// NewDesign starts an empty unsaved design. Invalid sizes fall back to the
// default.
func (a *App) NewDesign(width, height int) (*DesignState, error) {
	a.leaveDesign()
	if err := a.editor.NewFile(width, height); err != nil {
		return nil, err
	}
	a.watcher.SetDesign("")
	return a.designState(), nil
}

// NewDesignFromPreset starts a design sized by a named preset.
func (a *App) NewDesignFromPreset(name string) (*DesignState, error) {
	p, ok := scene.PresetByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown preset %q", name)
	}
	return a.NewDesign(p.Width, p.Height)
}

// NewCustomDesign validates a user-typed size.
func (a *App) NewCustomDesign(width, height string) (*DesignState, error) {
	w, h, err := scene.ParseCustomSize(width, height)
	if err != nil {
		return nil, err
	}
	return a.NewDesign(w, h)
}

func (a *App) ListPresets() []scene.Preset {
	return scene.Presets()
}

// SaveDesign saves immediately instead of waiting for autosave. It queues
// behind an autosave already writing the document.
func (a *App) SaveDesign() (string, error) {
	if err := a.autosave.SaveNow(a.ctx); err != nil {
		return "", err
	}
	return a.editor.Document().ID, nil
}

// SetDesignName renames the open design; autosave picks it up.
func (a *App) SetDesignName(name string) {
	doc := a.editor.Document()
	doc.Name = name
	a.editor.SetDocument(doc)
	a.autosave.Touch()
}

func (a *App) GetDesignState() *DesignState {
	return a.designState()
}

func (a *App) designState() *DesignState {
	var st DesignState
	a.editor.With(func(sc *scene.Scene) error {
		st.Width = sc.Width()
		st.Height = sc.Height()
		st.Background = sc.Background()
		st.Nodes = sc.Len()
		return nil
	})
	st.Document = a.editor.Document()
	return &st
}

// ── History ────────────────────────────────────────────────

func (a *App) ListRevisions(designID string) ([]domain.Revision, error) {
	revs, err := a.designs.Revisions(a.ctx, designID)
	if err != nil {
		return nil, err
	}
	if revs == nil {
		revs = []domain.Revision{}
	}
	return revs, nil
}

// RestoreRevision loads an older version into the open design. It is saved
// like any other edit.
func (a *App) RestoreRevision(designID, revisionID string) (*DesignState, error) {
	if a.editor.Document().ID != designID {
		if _, err := a.OpenDesign(designID); err != nil {
			return nil, err
		}
	}
	sc, err := a.designs.RestoreRevision(a.ctx, designID, revisionID)
	if err != nil {
		return nil, err
	}
	data, err := scene.Encode(sc)
	if err != nil {
		return nil, fmt.Errorf("restore revision: %w", err)
	}
	if err := a.editor.ApplyTemplate(data); err != nil {
		return nil, fmt.Errorf("restore revision: %w", err)
	}
	go a.editor.HydrateImages(a.ctx, a.loader)
	return a.designState(), nil
}

// ── Templates ──────────────────────────────────────────────

func (a *App) ListTemplates() []string {
	return a.templates.Names()
}

// ApplyTemplate replaces the open design's content with a template. The
// built-in template is laid out for the current canvas size.
func (a *App) ApplyTemplate(name string) (*DesignState, error) {
	var w, h int
	a.editor.With(func(sc *scene.Scene) error {
		w, h = sc.Width(), sc.Height()
		return nil
	})
	data, err := a.templates.Template(name, w, h)
	if err != nil {
		return nil, err
	}
	if err := a.editor.ApplyTemplate(data); err != nil {
		return nil, err
	}
	go a.editor.HydrateImages(a.ctx, a.loader)
	return a.designState(), nil
}
