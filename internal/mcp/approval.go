package mcpserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrRejected is returned when the user declines or ignores an action.
var ErrRejected = errors.New("action rejected by user")

// Frontend events of the approval flow.
const (
	EventApprovalRequired  = "mcp:approval-required"
	EventApprovalDismissed = "mcp:approval-dismissed"
)

// EventEmitter allows the server to notify the frontend.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// PendingAction is a destructive tool call awaiting the user's decision.
type PendingAction struct {
	ID          string `json:"id"`
	Tool        string `json:"tool"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
	Metadata    string `json:"metadata"` // JSON, e.g. {"designId":..,"nodeId":..} for highlighting
}

// ApprovalQueue holds destructive tool calls until the user answers.
// Two modes:
//   - in-process (MCP inside the desktop app): channels plus frontend events
//   - stored (standalone MCP): rows in mcp_approvals that the app resolves
type ApprovalQueue struct {
	mu      sync.Mutex
	pending map[string]chan bool
	ctx     context.Context
	emitter EventEmitter
	timeout time.Duration
	poll    time.Duration

	db *sql.DB
}

func NewApprovalQueue(ctx context.Context, emitter EventEmitter) *ApprovalQueue {
	return &ApprovalQueue{
		pending: make(map[string]chan bool),
		ctx:     ctx,
		emitter: emitter,
		timeout: 120 * time.Second,
		poll:    500 * time.Millisecond,
	}
}

// SetDB switches to stored mode: requests are written to the local
// database and polled until the app resolves them.
func (q *ApprovalQueue) SetDB(db *sql.DB) {
	q.db = db
}

// SetTimeout changes how long a request waits before it counts as rejected.
func (q *ApprovalQueue) SetTimeout(d time.Duration) {
	q.timeout = d
}

// Request blocks until the action is approved, rejected or times out. A nil
// error means approved.
func (q *ApprovalQueue) Request(ctx context.Context, tool, description, metadata string) error {
	id := uuid.New().String()
	if metadata == "" {
		metadata = "{}"
	}
	if q.db != nil {
		return q.requestStored(ctx, id, tool, description, metadata)
	}
	return q.requestInProcess(ctx, id, tool, description, metadata)
}

func (q *ApprovalQueue) requestStored(ctx context.Context, id, tool, description, metadata string) error {
	_, err := q.db.Exec(
		`INSERT INTO mcp_approvals (id, tool, description, status, metadata) VALUES (?, ?, ?, 'pending', ?)`,
		id, tool, description, metadata,
	)
	if err != nil {
		return fmt.Errorf("insert approval: %w", err)
	}
	defer q.db.Exec(`DELETE FROM mcp_approvals WHERE id = ?`, id)

	deadline := time.NewTimer(q.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(q.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			var status string
			if err := q.db.QueryRow(`SELECT status FROM mcp_approvals WHERE id = ?`, id).Scan(&status); err != nil {
				continue
			}
			switch status {
			case "approved":
				return nil
			case "rejected":
				return fmt.Errorf("%w: %s", ErrRejected, tool)
			}
		case <-deadline.C:
			return fmt.Errorf("%w: %s timed out after %s", ErrRejected, tool, q.timeout)
		case <-ctx.Done():
			return ctx.Err()
		case <-q.ctx.Done():
			return q.ctx.Err()
		}
	}
}

func (q *ApprovalQueue) requestInProcess(ctx context.Context, id, tool, description, metadata string) error {
	ch := make(chan bool, 1)
	q.mu.Lock()
	q.pending[id] = ch
	q.mu.Unlock()
	defer q.cleanup(id)

	q.emitter.Emit(q.ctx, EventApprovalRequired, PendingAction{
		ID:          id,
		Tool:        tool,
		Description: description,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		Metadata:    metadata,
	})

	dismiss := func() {
		q.emitter.Emit(q.ctx, EventApprovalDismissed, map[string]string{"id": id})
	}
	select {
	case approved := <-ch:
		if !approved {
			return fmt.Errorf("%w: %s", ErrRejected, tool)
		}
		return nil
	case <-time.After(q.timeout):
		dismiss()
		return fmt.Errorf("%w: %s timed out after %s", ErrRejected, tool, q.timeout)
	case <-ctx.Done():
		dismiss()
		return ctx.Err()
	}
}

// Approve answers a pending in-process request.
func (q *ApprovalQueue) Approve(actionID string) { q.answer(actionID, true) }

// Reject answers a pending in-process request.
func (q *ApprovalQueue) Reject(actionID string) { q.answer(actionID, false) }

func (q *ApprovalQueue) answer(actionID string, approved bool) {
	q.mu.Lock()
	ch, ok := q.pending[actionID]
	q.mu.Unlock()
	if ok {
		select {
		case ch <- approved:
		default:
		}
	}
}

func (q *ApprovalQueue) cleanup(id string) {
	q.mu.Lock()
	delete(q.pending, id)
	q.mu.Unlock()
}

// ── Stored mode, app side ──────────────────────────────────

// PendingStored lists the requests a standalone server is waiting on.
func PendingStored(db *sql.DB) ([]PendingAction, error) {
	rows, err := db.Query(
		`SELECT id, tool, description, created_at, metadata FROM mcp_approvals WHERE status = 'pending' ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	defer rows.Close()

	var out []PendingAction
	for rows.Next() {
		var a PendingAction
		if err := rows.Scan(&a.ID, &a.Tool, &a.Description, &a.CreatedAt, &a.Metadata); err != nil {
			return nil, fmt.Errorf("scan approval: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ResolveStored records the user's answer for a stored request.
func ResolveStored(db *sql.DB, id string, approved bool) error {
	status := "rejected"
	if approved {
		status = "approved"
	}
	res, err := db.Exec(`UPDATE mcp_approvals SET status = ? WHERE id = ? AND status = 'pending'`, status, id)
	if err != nil {
		return fmt.Errorf("resolve approval: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("resolve approval: %s is not pending", id)
	}
	return nil
}
