package app

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"studio/internal/domain"
	mcpserver "studio/internal/mcp"
	"studio/internal/service"
)

// Watcher events.
const (
	EventDesignChangedExternally = "design:changed-externally"
	EventDesignsChanged          = "designs:changed"
	EventMCPActivity             = "mcp:activity"
)

// designLister lists the signed-in user's designs.
type designLister interface {
	List(ctx context.Context) ([]domain.DesignSummary, error)
}

// designWatcher polls the store for changes to the open design, detecting
// external modifications (e.g. from a standalone MCP process) and emitting
// events so the frontend can reload.
type designWatcher struct {
	ctx      context.Context
	store    domain.DesignStore
	designs  designLister
	approval *sql.DB
	emitter  service.EventEmitter
	interval time.Duration

	mu sync.Mutex
	// Open design tracking
	designID   string
	lastDesign string // updated_at fingerprint
	// Dashboard tracking
	lastList string // count + max updated_at
	// Own writes in flight; their changes are not external.
	owned  int
	stopCh chan struct{}
	// Track emitted approval IDs to avoid re-emission
	emittedApprovals map[string]bool
}

func newDesignWatcher(ctx context.Context, store domain.DesignStore, designs designLister, approvalDB *sql.DB, emitter service.EventEmitter) *designWatcher {
	return &designWatcher{
		ctx:              ctx,
		store:            store,
		designs:          designs,
		approval:         approvalDB,
		emitter:          emitter,
		interval:         2 * time.Second,
		emittedApprovals: map[string]bool{},
	}
}

// SetDesign updates the watched design id. Called when the user opens a
// design or the first save assigns one.
func (w *designWatcher) SetDesign(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.designID == id {
		return
	}
	w.designID = id
	w.lastDesign = ""
}

// Own runs a write made by this process. Whatever it changes is taken as
// the new baseline instead of being reported.
func (w *designWatcher) Own(fn func() error) error {
	w.mu.Lock()
	w.owned++
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.owned--
		w.lastDesign = ""
		w.lastList = ""
		w.mu.Unlock()
	}()
	return fn()
}

// Start begins the polling loop. Should be called once on app startup.
func (w *designWatcher) Start() {
	w.stopCh = make(chan struct{})
	go w.pollLoop(w.stopCh)
}

// Stop terminates the polling loop.
func (w *designWatcher) Stop() {
	if w.stopCh != nil {
		close(w.stopCh)
		w.stopCh = nil
	}
}

func (w *designWatcher) pollLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.check()
		case <-stop:
			return
		case <-w.ctx.Done():
			return
		}
	}
}

func (w *designWatcher) check() {
	w.mu.Lock()
	designID := w.designID
	busy := w.owned > 0
	w.mu.Unlock()

	if !busy {
		w.checkDesigns(designID)
	}
	w.checkApprovals(designID)
}

func (w *designWatcher) checkDesigns(designID string) {
	// ── Open design updated_at ──────────────────────────
	var designFingerprint string
	if designID != "" {
		d, err := w.store.GetDesign(w.ctx, designID)
		if err == nil {
			designFingerprint = fmt.Sprint(d.UpdatedAt.UnixNano())
		}
	}

	// ── Dashboard list (count + newest) ─────────────────
	var listFingerprint string
	if list, err := w.designs.List(w.ctx); err == nil {
		var newest time.Time
		for _, d := range list {
			if d.UpdatedAt.After(newest) {
				newest = d.UpdatedAt
			}
		}
		listFingerprint = fmt.Sprintf("%d:%d", len(list), newest.UnixNano())
	}

	w.mu.Lock()
	if w.owned > 0 || w.designID != designID {
		// A save started or the design switched while reading.
		w.mu.Unlock()
		return
	}
	designChanged := w.lastDesign != "" && designFingerprint != "" && w.lastDesign != designFingerprint
	listChanged := w.lastList != "" && listFingerprint != "" && w.lastList != listFingerprint
	if designFingerprint != "" {
		w.lastDesign = designFingerprint
	}
	if listFingerprint != "" {
		w.lastList = listFingerprint
	}
	w.mu.Unlock()

	if designChanged {
		w.emitter.Emit(w.ctx, EventDesignChangedExternally, map[string]string{"designId": designID})
	}
	if listChanged {
		w.emitter.Emit(w.ctx, EventDesignsChanged, nil)
	}
}

// checkApprovals surfaces requests a standalone MCP server is waiting on.
func (w *designWatcher) checkApprovals(designID string) {
	if w.approval == nil {
		return
	}
	pending, err := mcpserver.PendingStored(w.approval)
	if err != nil {
		return
	}

	live := make(map[string]bool, len(pending))
	for _, p := range pending {
		live[p.ID] = true
		w.mu.Lock()
		alreadySent := w.emittedApprovals[p.ID]
		w.emittedApprovals[p.ID] = true
		w.mu.Unlock()
		if alreadySent {
			continue
		}
		w.emitter.Emit(w.ctx, EventMCPActivity, map[string]any{
			"changes":  1,
			"designId": designID,
		})
		w.emitter.Emit(w.ctx, mcpserver.EventApprovalRequired, p)
	}

	// Forget resolved or expired requests (the server deletes them).
	w.mu.Lock()
	for id := range w.emittedApprovals {
		if !live[id] {
			delete(w.emittedApprovals, id)
		}
	}
	w.mu.Unlock()
}
