// Package editor is the interactive session over one scene: it tracks the
// selection into editable fields, writes panel edits back into nodes,
// dispatches keyboard shortcuts and owns the clipboard slot, the contextual
// toolbar and the set of nodes under async processing.
//
// All methods are safe for concurrent use. Scene listeners registered with
// OnChange run with the session lock held and must not call back into the
// Editor.
package editor

import (
	"context"
	"errors"
	"image"
	"math/rand/v2"
	"sync"

	"studio/internal/render"
	"studio/internal/scene"
)

var (
	ErrNoSelection       = errors.New("nothing is selected")
	ErrUnknownProperty   = errors.New("unknown property")
	ErrInvalidValue      = errors.New("invalid property value")
	ErrNotApplicable     = errors.New("property does not apply to the selection")
	ErrNotImage          = errors.New("selection is not an image")
	ErrNotText           = errors.New("node is not a text")
	ErrAlreadyProcessing = errors.New("node is already being processed")
	// ErrStale is returned when an async completion targets a scene that
	// was cleared or replaced meanwhile.
	ErrStale = errors.New("scene changed while the operation was pending")
)

// Frontend notifications.
const (
	EventFields           = "editor:fields"
	EventSelectionCleared = "editor:selection-cleared"
	EventToolbar          = "editor:toolbar"
	EventProcessing       = "editor:processing"
)

// DefaultName is the title of a design that was never named.
const DefaultName = "Untitled Design"

// Notifier pushes session state to the frontend.
type Notifier interface {
	Emit(ctx context.Context, event string, data any)
}

type nopNotifier struct{}

func (nopNotifier) Emit(context.Context, string, any) {}

// Document identifies the design being edited. ID is empty until the first
// save.
type Document struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// seq changes whenever the session switches to another document.
	seq uint64
}

// ExportOptions are the resolution multipliers used by ExportPNG.
type ExportOptions struct {
	Scene float64
	Node  float64
}

// Editor is one editing session.
type Editor struct {
	mu sync.Mutex

	ctx    context.Context
	notify Notifier
	mirror ClipboardMirror
	jitter func() float64
	export ExportOptions

	scene *scene.Scene
	off   func()

	fields  *Fields
	toolbar Toolbar
	clip    *clipSlot

	editing          *scene.Node
	selStart, selEnd int

	processing map[string]struct{}
	doc        Document
	docSeq     uint64
}

// Option configures an Editor.
type Option func(*Editor)

// WithNotifier sets where field, toolbar and processing updates go.
func WithNotifier(ctx context.Context, n Notifier) Option {
	return func(e *Editor) {
		e.ctx = ctx
		e.notify = n
	}
}

// WithClipboard mirrors copies to the system clipboard.
func WithClipboard(m ClipboardMirror) Option {
	return func(e *Editor) { e.mirror = m }
}

// WithJitter replaces the random source used to spread quick-added shapes.
// It must return values in [0, 1).
func WithJitter(fn func() float64) Option {
	return func(e *Editor) { e.jitter = fn }
}

// WithExport sets the export multipliers.
func WithExport(o ExportOptions) Option {
	return func(e *Editor) {
		if o.Scene > 0 {
			e.export.Scene = o.Scene
		}
		if o.Node > 0 {
			e.export.Node = o.Node
		}
	}
}

// New starts a session over s.
func New(s *scene.Scene, opts ...Option) *Editor {
	e := &Editor{
		ctx:        context.Background(),
		notify:     nopNotifier{},
		jitter:     rand.Float64,
		export:     ExportOptions{Scene: 2, Node: 4},
		scene:      s,
		processing: map[string]struct{}{},
		doc:        Document{Name: DefaultName},
	}
	for _, o := range opts {
		o(e)
	}
	e.off = s.On(e.handle)
	return e
}

// Close ends the session. The scene is disposed so in-flight async work
// discards its results.
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.off != nil {
		e.off()
		e.off = nil
	}
	e.editing = nil
	e.fields = nil
	e.scene.Dispose()
}

// OnChange registers l on the scene.
func (e *Editor) OnChange(l scene.Listener) (off func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	remove := e.scene.On(l)
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		remove()
	}
}

// With runs fn on the scene under the session lock.
func (e *Editor) With(fn func(s *scene.Scene) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.scene)
}

// Snapshot returns a detached copy of the scene and the document identity,
// for saving off the lock.
func (e *Editor) Snapshot() (*scene.Scene, Document) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scene.Copy(), e.doc
}

// Document returns the identity of the design being edited.
func (e *Editor) Document() Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc
}

// SetDocument records the design identity. Keeping the id renames the
// current document; another id switches to a different one.
func (e *Editor) SetDocument(d Document) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if d.ID == e.doc.ID {
		d.seq = e.doc.seq
		e.setDocument(d)
		return
	}
	e.startDocument(d)
}

// AdoptID records the id issued for the first save of an unsaved document.
// from is the Document returned with the saved snapshot. The id is ignored
// when the session moved to another document since, or the document
// already has an id. Content replaced in place, e.g. by a template, keeps
// the document.
func (e *Editor) AdoptID(id string, from Document) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.doc.ID != "" || e.doc.seq != from.seq {
		return false
	}
	e.doc.ID = id
	return true
}

// startDocument switches the session to d. Callers hold e.mu.
func (e *Editor) startDocument(d Document) {
	e.docSeq++
	d.seq = e.docSeq
	e.setDocument(d)
}

func (e *Editor) setDocument(d Document) {
	if d.Name == "" {
		d.Name = DefaultName
	}
	e.doc = d
}

// Load replaces the scene content with a stored design.
func (e *Editor) Load(data []byte, d Document) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.editing = nil
	if err := e.scene.Load(data); err != nil {
		return err
	}
	e.startDocument(d)
	e.fields = nil
	return nil
}

// Frame renders what the canvas shows: viewport applied, selection
// outlined. It consumes the pending render request.
func (e *Editor) Frame(mult float64) (image.Image, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scene.TakeRenderRequest()
	return render.Scene(e.scene, render.Options{Multiplier: mult, Viewport: true, Selection: true})
}

// OnRenderRequest registers fn to run when the canvas needs a repaint.
// Requests coalesce until the next Frame. fn runs under the session lock
// and must not call Frame itself.
func (e *Editor) OnRenderRequest(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scene.OnRenderRequest(fn)
}

// handle tracks scene events into session state. It runs under e.mu.
func (e *Editor) handle(ev scene.Event) {
	switch ev.Type {
	case scene.EventSelectionCreated, scene.EventSelectionUpdated:
		if e.editing != nil && ev.Selection.Single() != e.editing {
			e.editing = nil
		}
		e.publishFields()
	case scene.EventMoving:
		e.hideToolbar()
		if e.isSelected(ev.Node) {
			e.publishFields()
		}
	case scene.EventModified, scene.EventScaling, scene.EventRotating:
		if e.isSelected(ev.Node) {
			e.publishFields()
		}
	case scene.EventSelectionCleared:
		e.editing = nil
		e.fields = nil
		e.hideToolbar()
		e.notify.Emit(e.ctx, EventSelectionCleared, nil)
	case scene.EventRemoved:
		if ev.Node == e.editing {
			e.editing = nil
		}
	case scene.EventCleared, scene.EventLoaded:
		e.editing = nil
		e.fields = nil
		e.hideToolbar()
	}
}

func (e *Editor) isSelected(n *scene.Node) bool {
	for _, s := range e.scene.Active().Nodes {
		if s == n {
			return true
		}
	}
	return false
}
