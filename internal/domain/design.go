package domain

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores when a record does not exist or is not
// owned by the caller.
var ErrNotFound = errors.New("not found")

// Design is a stored document: the encoded scene plus a preview thumbnail.
type Design struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Name      string    `json:"name"`
	Content   string    `json:"content"` // scene JSON
	Preview   string    `json:"preview"` // PNG data URI
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DesignSummary is a dashboard row. Content is left out.
type DesignSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Preview   string    `json:"preview"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// WriteOptions adjust a single design write.
type WriteOptions struct {
	// OmitPreview leaves the preview column untouched, for backends whose
	// schema predates it or rejects the payload size.
	OmitPreview bool
}

// DesignStore persists designs. Implementations exist for SQL databases
// and MongoDB.
type DesignStore interface {
	CreateDesign(ctx context.Context, d *Design, opts WriteOptions) error
	UpdateDesign(ctx context.Context, d *Design, opts WriteOptions) error
	GetDesign(ctx context.Context, id string) (*Design, error)
	ListDesigns(ctx context.Context, ownerID string) ([]DesignSummary, error)
	RenameDesign(ctx context.Context, id, name string) error
	DeleteDesign(ctx context.Context, id string) error
	// DesignIDs lists every design regardless of owner, for maintenance.
	DesignIDs(ctx context.Context) ([]string, error)
}

// Revision is a past version of a design's content.
type Revision struct {
	ID        string    `json:"id"`
	DesignID  string    `json:"designId"`
	Content   string    `json:"content,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// RevisionStore keeps a bounded history per design.
type RevisionStore interface {
	AddRevision(ctx context.Context, r *Revision) error
	ListRevisions(ctx context.Context, designID string) ([]Revision, error)
	GetRevision(ctx context.Context, id string) (*Revision, error)
	// PruneRevisions keeps the newest keep revisions of designID and
	// returns how many were removed.
	PruneRevisions(ctx context.Context, designID string, keep int) (int, error)
	DeleteRevisions(ctx context.Context, designID string) error
}
