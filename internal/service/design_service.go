package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"studio/internal/domain"
	"studio/internal/editor"
	"studio/internal/render"
	"studio/internal/scene"
)

// ─────────────────────────────────────────────────────────────
// Design Service: persistence of editor documents
// ─────────────────────────────────────────────────────────────

// ErrNotSignedIn is returned by every operation that needs an owner.
var ErrNotSignedIn = errors.New("not signed in")

// EventDesignSaved is emitted after every successful save.
const EventDesignSaved = "design:saved"

// Identity is the part of the auth session persistence depends on.
type Identity interface {
	CurrentUserID() (string, bool)
}

// DesignOptions tune thumbnails and history.
type DesignOptions struct {
	ThumbnailMultiplier float64
	KeepRevisions       int
}

// SavedDesign is the payload of EventDesignSaved.
type SavedDesign struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DesignService saves and loads designs for the signed-in user.
type DesignService struct {
	designs   domain.DesignStore
	revisions domain.RevisionStore
	identity  Identity
	emitter   EventEmitter
	opts      DesignOptions
}

// NewDesignService creates a DesignService. revisions may be nil to
// disable history.
func NewDesignService(
	designs domain.DesignStore,
	revisions domain.RevisionStore,
	identity Identity,
	emitter EventEmitter,
	opts DesignOptions,
) *DesignService {
	if opts.ThumbnailMultiplier <= 0 {
		opts.ThumbnailMultiplier = 0.2
	}
	if opts.KeepRevisions <= 0 {
		opts.KeepRevisions = 40
	}
	return &DesignService{
		designs:   designs,
		revisions: revisions,
		identity:  identity,
		emitter:   emitter,
		opts:      opts,
	}
}

func (s *DesignService) owner() (string, error) {
	id, ok := s.identity.CurrentUserID()
	if !ok {
		return "", ErrNotSignedIn
	}
	return id, nil
}

// owned fetches id and checks it belongs to the signed-in user. Designs of
// other users read as not found.
func (s *DesignService) owned(ctx context.Context, id string) (*domain.Design, error) {
	owner, err := s.owner()
	if err != nil {
		return nil, err
	}
	d, err := s.designs.GetDesign(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.OwnerID != owner {
		return nil, fmt.Errorf("design %s: %w", id, domain.ErrNotFound)
	}
	return d, nil
}

// ── Save / Load ────────────────────────────────────────────

// Save writes sc as a new design (existingID empty) or over existingID and
// returns the design id. A failed write is retried once without the
// preview; only the second error is returned.
func (s *DesignService) Save(ctx context.Context, sc *scene.Scene, name, existingID string) (string, error) {
	owner, err := s.owner()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(name) == "" {
		name = editor.DefaultName
	}
	content, err := scene.Encode(sc)
	if err != nil {
		return "", fmt.Errorf("save design: %w", err)
	}
	preview, err := render.Thumbnail(sc, s.opts.ThumbnailMultiplier)
	if err != nil {
		log.Printf("[design] thumbnail: %v", err)
	}

	d := &domain.Design{ID: existingID, OwnerID: owner, Name: name, Content: string(content), Preview: preview}
	if existingID != "" {
		if _, err := s.owned(ctx, existingID); err != nil {
			return "", fmt.Errorf("save design: %w", err)
		}
	} else {
		d.ID = uuid.New().String()
	}

	write := func(opts domain.WriteOptions) error {
		if existingID == "" {
			return s.designs.CreateDesign(ctx, d, opts)
		}
		return s.designs.UpdateDesign(ctx, d, opts)
	}
	if err := write(domain.WriteOptions{OmitPreview: preview == ""}); err != nil {
		log.Printf("[design] save %s failed, retrying without preview: %v", d.ID, err)
		if err := write(domain.WriteOptions{OmitPreview: true}); err != nil {
			return "", fmt.Errorf("save design: %w", err)
		}
	}

	s.record(ctx, d.ID, d.Content)
	s.emitter.Emit(ctx, EventDesignSaved, SavedDesign{ID: d.ID, Name: d.Name, UpdatedAt: d.UpdatedAt})
	return d.ID, nil
}

// SaveEditor saves the editor's current document. The first save of an
// unsaved document assigns the id back to the editor, unless the editor
// moved to another document meanwhile. Callers serialize saves of one
// editor; the Autosaver does.
func (s *DesignService) SaveEditor(ctx context.Context, ed *editor.Editor) (string, error) {
	sc, doc := ed.Snapshot()
	id, err := s.Save(ctx, sc, doc.Name, doc.ID)
	if err != nil {
		return "", err
	}
	if doc.ID == "" {
		ed.AdoptID(id, doc)
	}
	return id, nil
}

// record appends a revision and trims history. Failures only cost history,
// so they are logged.
func (s *DesignService) record(ctx context.Context, designID, content string) {
	if s.revisions == nil {
		return
	}
	rev := &domain.Revision{ID: uuid.New().String(), DesignID: designID, Content: content}
	if err := s.revisions.AddRevision(ctx, rev); err != nil {
		log.Printf("[design] add revision %s: %v", designID, err)
		return
	}
	if _, err := s.revisions.PruneRevisions(ctx, designID, s.opts.KeepRevisions); err != nil {
		log.Printf("[design] prune revisions %s: %v", designID, err)
	}
}

// Load fetches a design and decodes its scene. The viewport is identity.
func (s *DesignService) Load(ctx context.Context, id string) (*domain.Design, *scene.Scene, error) {
	d, err := s.owned(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("load design: %w", err)
	}
	sc, err := scene.Decode([]byte(d.Content))
	if err != nil {
		return nil, nil, fmt.Errorf("load design %s: %w", id, err)
	}
	return d, sc, nil
}

// LoadInto loads a design into the editor session.
func (s *DesignService) LoadInto(ctx context.Context, ed *editor.Editor, id string) (*domain.Design, error) {
	d, err := s.owned(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load design: %w", err)
	}
	if err := ed.Load([]byte(d.Content), editor.Document{ID: d.ID, Name: d.Name}); err != nil {
		return nil, fmt.Errorf("load design %s: %w", id, err)
	}
	return d, nil
}

// ── Dashboard ──────────────────────────────────────────────

// List returns the user's designs, most recently updated first.
func (s *DesignService) List(ctx context.Context) ([]domain.DesignSummary, error) {
	owner, err := s.owner()
	if err != nil {
		return nil, err
	}
	return s.designs.ListDesigns(ctx, owner)
}

func (s *DesignService) Rename(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("rename design: name is empty")
	}
	if _, err := s.owned(ctx, id); err != nil {
		return fmt.Errorf("rename design: %w", err)
	}
	return s.designs.RenameDesign(ctx, id, name)
}

func (s *DesignService) Delete(ctx context.Context, id string) error {
	if _, err := s.owned(ctx, id); err != nil {
		return fmt.Errorf("delete design: %w", err)
	}
	if err := s.designs.DeleteDesign(ctx, id); err != nil {
		return err
	}
	if s.revisions != nil {
		if err := s.revisions.DeleteRevisions(ctx, id); err != nil {
			log.Printf("[design] delete revisions %s: %v", id, err)
		}
	}
	return nil
}

// ── Revisions ──────────────────────────────────────────────

func (s *DesignService) Revisions(ctx context.Context, id string) ([]domain.Revision, error) {
	if _, err := s.owned(ctx, id); err != nil {
		return nil, fmt.Errorf("revisions: %w", err)
	}
	if s.revisions == nil {
		return nil, nil
	}
	return s.revisions.ListRevisions(ctx, id)
}

// RestoreRevision makes a past revision the design's current content and
// returns the restored scene.
func (s *DesignService) RestoreRevision(ctx context.Context, id, revisionID string) (*scene.Scene, error) {
	d, err := s.owned(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("restore revision: %w", err)
	}
	if s.revisions == nil {
		return nil, fmt.Errorf("restore revision: %w", domain.ErrNotFound)
	}
	rev, err := s.revisions.GetRevision(ctx, revisionID)
	if err != nil {
		return nil, fmt.Errorf("restore revision: %w", err)
	}
	if rev.DesignID != id {
		return nil, fmt.Errorf("restore revision %s: %w", revisionID, domain.ErrNotFound)
	}
	sc, err := scene.Decode([]byte(rev.Content))
	if err != nil {
		return nil, fmt.Errorf("restore revision: %w", err)
	}
	if _, err := s.Save(ctx, sc, d.Name, id); err != nil {
		return nil, fmt.Errorf("restore revision: %w", err)
	}
	return sc, nil
}
