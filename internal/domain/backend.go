package domain

// BackendDriver is the database engine behind the design store.
type BackendDriver string

const (
	BackendSQLite   BackendDriver = "sqlite"
	BackendPostgres BackendDriver = "postgres"
	BackendMySQL    BackendDriver = "mysql"
	BackendMongoDB  BackendDriver = "mongodb"
)

// Backend holds connection metadata for the design store.
// The password is stored separately in the SecretStore.
type Backend struct {
	Driver   BackendDriver `json:"driver"`
	Host     string        `json:"host"`     // hostname, file path (sqlite) or full mongodb URI
	Port     int           `json:"port"`     // 0 uses the driver default
	Database string        `json:"database"` // db name, empty for sqlite
	Username string        `json:"username"`
	SSLMode  string        `json:"sslMode"`
}
