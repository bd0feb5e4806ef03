package service

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"studio/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Maintenance Service: scheduled revision pruning
// ─────────────────────────────────────────────────────────────

// MaintenanceService trims every design's history on a cron schedule.
type MaintenanceService struct {
	designs   domain.DesignStore
	revisions domain.RevisionStore
	keep      int
	emitter   EventEmitter
	cronSched *cron.Cron
}

// NewMaintenanceService creates a MaintenanceService keeping keep
// revisions per design.
func NewMaintenanceService(designs domain.DesignStore, revisions domain.RevisionStore, keep int, emitter EventEmitter) *MaintenanceService {
	if keep < 1 {
		keep = 40
	}
	return &MaintenanceService{designs: designs, revisions: revisions, keep: keep, emitter: emitter}
}

// Start schedules PruneAll with a cron expression or descriptor
// ("@daily", "0 3 * * *").
func (m *MaintenanceService) Start(ctx context.Context, schedule string) error {
	m.Stop()
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		n, err := m.PruneAll(ctx)
		if err != nil {
			log.Printf("[maintenance] prune failed: %v", err)
			return
		}
		log.Printf("[maintenance] pruned %d revision(s)", n)
		m.emitter.Emit(ctx, "maintenance:pruned", n)
	})
	if err != nil {
		return fmt.Errorf("maintenance: invalid schedule %q: %w", schedule, err)
	}
	c.Start()
	m.cronSched = c
	return nil
}

// PruneAll trims every design's revisions and returns how many were removed.
// A failing design is logged and skipped.
func (m *MaintenanceService) PruneAll(ctx context.Context) (int, error) {
	if m.revisions == nil {
		return 0, nil
	}
	ids, err := m.designs.DesignIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}
	total := 0
	for _, id := range ids {
		n, err := m.revisions.PruneRevisions(ctx, id, m.keep)
		if err != nil {
			log.Printf("[maintenance] prune %s: %v", id, err)
			continue
		}
		total += n
	}
	return total, nil
}

// Stop halts the scheduler and waits for a running prune.
func (m *MaintenanceService) Stop() {
	if m.cronSched != nil {
		<-m.cronSched.Stop().Done()
		m.cronSched = nil
	}
}
