package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"studio/internal/domain"
)

// DesignStore implements domain.DesignStore over SQL.
type DesignStore struct {
	db *DB
}

func NewDesignStore(db *DB) *DesignStore {
	return &DesignStore{db: db}
}

func (s *DesignStore) CreateDesign(ctx context.Context, d *domain.Design, opts domain.WriteOptions) error {
	now := time.Now().UTC()
	d.CreatedAt, d.UpdatedAt = now, now

	var err error
	if opts.OmitPreview {
		_, err = s.db.conn.ExecContext(ctx, s.db.q(
			`INSERT INTO designs (id, owner_id, name, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`),
			d.ID, d.OwnerID, d.Name, d.Content, d.CreatedAt, d.UpdatedAt,
		)
	} else {
		_, err = s.db.conn.ExecContext(ctx, s.db.q(
			`INSERT INTO designs (id, owner_id, name, content, preview, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`),
			d.ID, d.OwnerID, d.Name, d.Content, d.Preview, d.CreatedAt, d.UpdatedAt,
		)
	}
	if err != nil {
		return fmt.Errorf("create design: %w", err)
	}
	return nil
}

func (s *DesignStore) UpdateDesign(ctx context.Context, d *domain.Design, opts domain.WriteOptions) error {
	d.UpdatedAt = time.Now().UTC()

	var (
		res sql.Result
		err error
	)
	if opts.OmitPreview {
		res, err = s.db.conn.ExecContext(ctx, s.db.q(
			`UPDATE designs SET name = ?, content = ?, updated_at = ? WHERE id = ?`),
			d.Name, d.Content, d.UpdatedAt, d.ID,
		)
	} else {
		res, err = s.db.conn.ExecContext(ctx, s.db.q(
			`UPDATE designs SET name = ?, content = ?, preview = ?, updated_at = ? WHERE id = ?`),
			d.Name, d.Content, d.Preview, d.UpdatedAt, d.ID,
		)
	}
	if err != nil {
		return fmt.Errorf("update design: %w", err)
	}
	return affectedOne(res, "update design")
}

func (s *DesignStore) GetDesign(ctx context.Context, id string) (*domain.Design, error) {
	d := &domain.Design{}
	var preview sql.NullString
	err := s.db.conn.QueryRowContext(ctx, s.db.q(
		`SELECT id, owner_id, name, content, preview, created_at, updated_at FROM designs WHERE id = ?`), id,
	).Scan(&d.ID, &d.OwnerID, &d.Name, &d.Content, &preview, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get design %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get design: %w", err)
	}
	d.Preview = preview.String
	return d, nil
}

func (s *DesignStore) ListDesigns(ctx context.Context, ownerID string) ([]domain.DesignSummary, error) {
	rows, err := s.db.conn.QueryContext(ctx, s.db.q(
		`SELECT id, name, preview, updated_at FROM designs WHERE owner_id = ? ORDER BY updated_at DESC`), ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list designs: %w", err)
	}
	defer rows.Close()

	var out []domain.DesignSummary
	for rows.Next() {
		var (
			d       domain.DesignSummary
			preview sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.Name, &preview, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan design: %w", err)
		}
		d.Preview = preview.String
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *DesignStore) RenameDesign(ctx context.Context, id, name string) error {
	res, err := s.db.conn.ExecContext(ctx, s.db.q(
		`UPDATE designs SET name = ?, updated_at = ? WHERE id = ?`),
		name, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("rename design: %w", err)
	}
	return affectedOne(res, "rename design")
}

func (s *DesignStore) DeleteDesign(ctx context.Context, id string) error {
	res, err := s.db.conn.ExecContext(ctx, s.db.q(`DELETE FROM designs WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete design: %w", err)
	}
	return affectedOne(res, "delete design")
}

func (s *DesignStore) DesignIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.conn.QueryContext(ctx, `SELECT id FROM designs`)
	if err != nil {
		return nil, fmt.Errorf("design ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func affectedOne(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return nil // driver can't tell; trust the statement
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}
