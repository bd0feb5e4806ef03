package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// DB wraps a database connection and the dialect its queries are written in.
type DB struct {
	conn    *sql.DB
	dialect Dialect
	local   bool
}

// New opens (or creates) the local SQLite database at dbPath. Besides
// designs it holds app settings and the MCP approval queue.
func New(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite only supports one writer. A single connection avoids SQLITE_BUSY.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn, dialect: SQLite, local: true}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Open wraps an already opened remote database and creates the design
// tables in its dialect.
func Open(conn *sql.DB, d Dialect) (*DB, error) {
	db := &DB{conn: conn, dialect: d}
	if err := db.migrate(); err != nil {
		return nil, fmt.Errorf("migrate %s: %w", d.Name, err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Dialect reports the SQL flavour of the connection.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// q rewrites a ?-placeholder query for the connection's dialect.
func (db *DB) q(query string) string {
	return db.dialect.Rebind(query)
}

func (db *DB) migrate() error {
	d := db.dialect
	migrations := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS designs (
			id %[1]s PRIMARY KEY,
			owner_id %[1]s NOT NULL,
			name VARCHAR(255) NOT NULL,
			content %[2]s NOT NULL,
			created_at %[3]s NOT NULL,
			updated_at %[3]s NOT NULL
		)`, d.key, d.longText, d.timestamp),
		`CREATE INDEX idx_designs_owner ON designs(owner_id, updated_at)`,
		// Older databases predate thumbnails.
		fmt.Sprintf(`ALTER TABLE designs ADD COLUMN preview %s`, d.longText),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS design_revisions (
			id %[1]s PRIMARY KEY,
			design_id %[1]s NOT NULL,
			content %[2]s NOT NULL,
			created_at %[3]s NOT NULL
		)`, d.key, d.longText, d.timestamp),
		`CREATE INDEX idx_design_revisions_design ON design_revisions(design_id, created_at)`,
	}
	if db.local {
		migrations = append(migrations,
			`CREATE TABLE IF NOT EXISTS app_settings (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE TABLE IF NOT EXISTS mcp_approvals (
				id TEXT PRIMARY KEY,
				tool TEXT NOT NULL,
				description TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'pending',
				metadata TEXT NOT NULL DEFAULT '{}',
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
		)
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			// Re-running ALTER TABLE / CREATE INDEX fails once applied.
			if alreadyApplied(err) {
				continue
			}
			stmt := strings.Join(strings.Fields(m), " ")
			return fmt.Errorf("migration failed: %s: %w", stmt[:min(len(stmt), 40)], err)
		}
	}
	return nil
}

func alreadyApplied(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate column") ||
		strings.Contains(msg, "duplicate key name") ||
		strings.Contains(msg, "already exists")
}
