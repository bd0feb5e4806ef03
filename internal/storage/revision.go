package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"studio/internal/domain"
)

// RevisionStore implements domain.RevisionStore over SQL.
type RevisionStore struct {
	db *DB
}

func NewRevisionStore(db *DB) *RevisionStore {
	return &RevisionStore{db: db}
}

func (s *RevisionStore) AddRevision(ctx context.Context, r *domain.Revision) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.conn.ExecContext(ctx, s.db.q(
		`INSERT INTO design_revisions (id, design_id, content, created_at) VALUES (?, ?, ?, ?)`),
		r.ID, r.DesignID, r.Content, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("add revision: %w", err)
	}
	return nil
}

// ListRevisions returns the history newest first, without content.
func (s *RevisionStore) ListRevisions(ctx context.Context, designID string) ([]domain.Revision, error) {
	rows, err := s.db.conn.QueryContext(ctx, s.db.q(
		`SELECT id, design_id, created_at FROM design_revisions WHERE design_id = ? ORDER BY created_at DESC`), designID,
	)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer rows.Close()

	var out []domain.Revision
	for rows.Next() {
		var r domain.Revision
		if err := rows.Scan(&r.ID, &r.DesignID, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *RevisionStore) GetRevision(ctx context.Context, id string) (*domain.Revision, error) {
	r := &domain.Revision{}
	err := s.db.conn.QueryRowContext(ctx, s.db.q(
		`SELECT id, design_id, content, created_at FROM design_revisions WHERE id = ?`), id,
	).Scan(&r.ID, &r.DesignID, &r.Content, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get revision %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get revision: %w", err)
	}
	return r, nil
}

func (s *RevisionStore) PruneRevisions(ctx context.Context, designID string, keep int) (int, error) {
	var count int
	if err := s.db.conn.QueryRowContext(ctx, s.db.q(
		`SELECT COUNT(*) FROM design_revisions WHERE design_id = ?`), designID,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count revisions: %w", err)
	}
	if count <= keep {
		return 0, nil
	}

	// Collect ids first and close the cursor before writing: the local
	// database has a single connection.
	rows, err := s.db.conn.QueryContext(ctx, s.db.q(
		`SELECT id FROM design_revisions WHERE design_id = ? ORDER BY created_at ASC LIMIT ?`),
		designID, count-keep,
	)
	if err != nil {
		return 0, fmt.Errorf("select old revisions: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			continue
		}
		ids = append(ids, id)
	}
	rows.Close()

	removed := 0
	for _, id := range ids {
		if _, err := s.db.conn.ExecContext(ctx, s.db.q(`DELETE FROM design_revisions WHERE id = ?`), id); err != nil {
			return removed, fmt.Errorf("delete revision: %w", err)
		}
		removed++
	}
	return removed, nil
}

func (s *RevisionStore) DeleteRevisions(ctx context.Context, designID string) error {
	_, err := s.db.conn.ExecContext(ctx, s.db.q(`DELETE FROM design_revisions WHERE design_id = ?`), designID)
	if err != nil {
		return fmt.Errorf("delete revisions: %w", err)
	}
	return nil
}
