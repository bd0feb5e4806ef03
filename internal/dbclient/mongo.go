package dbclient

import (
	"fmt"
	"log"
	"strings"

	"studio/internal/domain"
)

const defaultMongoDatabase = "studio"

// mongoURI builds the connection URI and picks the database name. A host
// that is already a full URI (Atlas mongodb+srv:// or mongodb://) is used
// as is, with <password> placeholders filled in.
func mongoURI(b domain.Backend, password string) (uri, dbName string) {
	if strings.HasPrefix(b.Host, "mongodb+srv://") || strings.HasPrefix(b.Host, "mongodb://") {
		uri = b.Host
		if password != "" {
			uri = strings.ReplaceAll(uri, "<password>", password)
			uri = strings.ReplaceAll(uri, "<db_password>", password)
		}
	} else {
		port := b.Port
		if port == 0 {
			port = 27017
		}
		if b.Username != "" {
			uri = fmt.Sprintf("mongodb://%s:%s@%s:%d", b.Username, password, b.Host, port)
		} else {
			uri = fmt.Sprintf("mongodb://%s:%d", b.Host, port)
		}
	}

	dbName = b.Database
	if dbName == "" {
		dbName = databaseFromURI(uri)
	}
	if dbName == "" {
		dbName = defaultMongoDatabase
	}

	logURI := uri
	if password != "" {
		logURI = strings.ReplaceAll(logURI, password, "***")
	}
	log.Printf("[mongo] connecting to %s (db %s)", logURI, dbName)
	return uri, dbName
}

// databaseFromURI extracts the path segment of user:pass@host/DB?params.
func databaseFromURI(uri string) string {
	for _, prefix := range []string{"mongodb+srv://", "mongodb://"} {
		uri = strings.TrimPrefix(uri, prefix)
	}
	if at := strings.LastIndex(uri, "@"); at != -1 {
		uri = uri[at+1:]
	}
	_, path, ok := strings.Cut(uri, "/")
	if !ok {
		return ""
	}
	path, _, _ = strings.Cut(path, "?")
	return path
}
