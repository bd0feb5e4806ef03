package dbclient

import (
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"

	"studio/internal/domain"
)

const defaultMySQLPort = 3306

// buildMySQLDSN renders the driver's DSN through its own Config so that
// credentials with reserved characters survive.
func buildMySQLDSN(b domain.Backend, password string) string {
	port := b.Port
	if port == 0 {
		port = defaultMySQLPort
	}

	cfg := mysql.NewConfig()
	cfg.User = b.Username
	cfg.Passwd = password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(b.Host, strconv.Itoa(port))
	cfg.DBName = b.Database
	// updated_at scans into time.Time.
	cfg.ParseTime = true
	switch b.SSLMode {
	case "require", "verify-full":
		cfg.TLSConfig = "true"
	case "skip-verify":
		cfg.TLSConfig = "skip-verify"
	}
	return cfg.FormatDSN()
}
