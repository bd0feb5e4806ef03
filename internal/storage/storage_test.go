package storage_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"studio/internal/domain"
	"studio/internal/storage"
)

func openDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "studio.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// ─────────────────────────────────────────────────────────────
// Designs
// ─────────────────────────────────────────────────────────────

func TestDesignStore_CRUD(t *testing.T) {
	ctx := context.Background()
	store := storage.NewDesignStore(openDB(t))

	d := &domain.Design{ID: "d1", OwnerID: "u1", Name: "Poster", Content: `{"objects":[]}`, Preview: "data:image/png;base64,AA"}
	if err := store.CreateDesign(ctx, d, domain.WriteOptions{}); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetDesign(ctx, "d1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Poster" || got.Preview != d.Preview || got.OwnerID != "u1" {
		t.Errorf("got %+v", got)
	}

	d.Content = `{"objects":[{"type":"rect"}]}`
	d.Preview = "data:image/png;base64,BB"
	if err := store.UpdateDesign(ctx, d, domain.WriteOptions{OmitPreview: true}); err != nil {
		t.Fatal(err)
	}
	got, _ = store.GetDesign(ctx, "d1")
	if got.Content != d.Content || got.Preview != "data:image/png;base64,AA" {
		t.Errorf("omit preview should keep the old thumbnail: %+v", got)
	}

	if err := store.RenameDesign(ctx, "d1", "Flyer"); err != nil {
		t.Fatal(err)
	}
	if got, _ = store.GetDesign(ctx, "d1"); got.Name != "Flyer" {
		t.Errorf("name = %s", got.Name)
	}

	if err := store.DeleteDesign(ctx, "d1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetDesign(ctx, "d1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("after delete: %v", err)
	}
	if err := store.DeleteDesign(ctx, "d1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete: %v", err)
	}
}

func TestDesignStore_ListIsPerOwnerNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := storage.NewDesignStore(openDB(t))

	for i, owner := range []string{"u1", "u2", "u1"} {
		d := &domain.Design{ID: fmt.Sprintf("d%d", i), OwnerID: owner, Name: fmt.Sprintf("n%d", i), Content: "{}"}
		if err := store.CreateDesign(ctx, d, domain.WriteOptions{OmitPreview: true}); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	list, err := store.ListDesigns(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != "d2" || list[1].ID != "d0" {
		t.Fatalf("list = %+v", list)
	}
	if list[0].Preview != "" {
		t.Error("missing preview should read as empty")
	}

	ids, _ := store.DesignIDs(ctx)
	if len(ids) != 3 {
		t.Errorf("ids = %v", ids)
	}
}

func TestMigrate_AddsPreviewToOldSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	raw, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	_, err = raw.Exec(`CREATE TABLE designs (
		id TEXT PRIMARY KEY, owner_id TEXT NOT NULL, name VARCHAR(255) NOT NULL,
		content TEXT NOT NULL, created_at DATETIME NOT NULL, updated_at DATETIME NOT NULL)`)
	if err != nil {
		t.Fatal(err)
	}
	_, err = raw.Exec(`INSERT INTO designs VALUES ('old', 'u1', 'Legacy', '{}', ?, ?)`, time.Now(), time.Now())
	if err != nil {
		t.Fatal(err)
	}
	raw.Close()

	db, err := storage.New(path)
	if err != nil {
		t.Fatalf("migrate old schema: %v", err)
	}

	store := storage.NewDesignStore(db)
	got, err := store.GetDesign(context.Background(), "old")
	if err != nil || got.Name != "Legacy" || got.Preview != "" {
		t.Fatalf("legacy row = %+v, %v", got, err)
	}

	// Reopening runs the migrations again.
	db.Close()
	if db, err = storage.New(path); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	db.Close()
}

// ─────────────────────────────────────────────────────────────
// Revisions and settings
// ─────────────────────────────────────────────────────────────

func TestRevisionStore_Prune(t *testing.T) {
	ctx := context.Background()
	store := storage.NewRevisionStore(openDB(t))

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		r := &domain.Revision{ID: fmt.Sprintf("r%d", i), DesignID: "d1", Content: fmt.Sprint(i), CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := store.AddRevision(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	store.AddRevision(ctx, &domain.Revision{ID: "other", DesignID: "d2", Content: "x"})

	removed, err := store.PruneRevisions(ctx, "d1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 3 {
		t.Errorf("removed %d, want 3", removed)
	}
	list, _ := store.ListRevisions(ctx, "d1")
	if len(list) != 2 || list[0].ID != "r4" || list[1].ID != "r3" {
		t.Errorf("kept = %+v", list)
	}
	if list[0].Content != "" {
		t.Error("list should not carry content")
	}

	r, err := store.GetRevision(ctx, "r3")
	if err != nil || r.Content != "3" {
		t.Errorf("get = %+v, %v", r, err)
	}
	if n, _ := store.PruneRevisions(ctx, "d2", 2); n != 0 {
		t.Errorf("under the limit removed %d", n)
	}
}

func TestSettings(t *testing.T) {
	s := storage.NewSettings(openDB(t))
	if _, ok, err := s.Get("window_width"); ok || err != nil {
		t.Fatalf("unset key: ok=%v err=%v", ok, err)
	}
	s.Set("window_width", 1440)
	s.Set("window_width", 1600)
	v, ok, _ := s.Get("window_width")
	if !ok || v != "1600" {
		t.Errorf("got %q", v)
	}
}

func TestDialect_Rebind(t *testing.T) {
	q := `UPDATE designs SET name = ? WHERE id = ?`
	if got := storage.Postgres.Rebind(q); got != `UPDATE designs SET name = $1 WHERE id = $2` {
		t.Errorf("postgres: %s", got)
	}
	if got := storage.MySQL.Rebind(q); got != q {
		t.Errorf("mysql: %s", got)
	}
}
