package dbclient

import (
	"strconv"
	"strings"

	"studio/internal/domain"

	_ "github.com/lib/pq"
)

const defaultPostgresPort = 5432

// buildPostgresDSN renders a libpq keyword/value string. Empty settings are
// left out so pq falls back to its PG* environment defaults.
func buildPostgresDSN(b domain.Backend, password string) string {
	port := b.Port
	if port == 0 {
		port = defaultPostgresPort
	}
	sslMode := b.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	pairs := []struct{ key, val string }{
		{"host", b.Host},
		{"port", strconv.Itoa(port)},
		{"user", b.Username},
		{"password", password},
		{"dbname", b.Database},
		{"sslmode", sslMode},
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.val == "" {
			continue
		}
		parts = append(parts, p.key+"="+pqValue(p.val))
	}
	return strings.Join(parts, " ")
}

// pqValue quotes a value containing spaces, quotes or backslashes.
func pqValue(v string) string {
	if !strings.ContainsAny(v, " '\\") {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}
