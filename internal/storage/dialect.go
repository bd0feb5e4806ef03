package storage

import (
	"strconv"
	"strings"
)

// Dialect captures the differences between the SQL engines the design
// store runs on.
type Dialect struct {
	Name string

	numbered  bool   // $1, $2 placeholders
	key       string // id column type
	longText  string // scene JSON and data URIs
	timestamp string
}

var (
	SQLite   = Dialect{Name: "sqlite", key: "TEXT", longText: "TEXT", timestamp: "DATETIME"}
	Postgres = Dialect{Name: "postgres", numbered: true, key: "VARCHAR(64)", longText: "TEXT", timestamp: "TIMESTAMPTZ"}
	MySQL    = Dialect{Name: "mysql", key: "VARCHAR(64)", longText: "LONGTEXT", timestamp: "DATETIME(6)"}
)

// Rebind rewrites ? placeholders into the dialect's form.
func (d Dialect) Rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
