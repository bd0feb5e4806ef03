package dbclient

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"studio/internal/domain"
	"studio/internal/storage"
)

// Stores is an opened design backend.
type Stores struct {
	Designs   domain.DesignStore
	Revisions domain.RevisionStore
	close     func() error
}

// Close releases the backend connection. The local database is owned by
// the caller and stays open.
func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Local returns stores backed by the local SQLite database.
func Local(db *storage.DB) *Stores {
	return &Stores{
		Designs:   storage.NewDesignStore(db),
		Revisions: storage.NewRevisionStore(db),
	}
}

// Open connects to the backend described by b. A sqlite backend without a
// host uses local. The password must be provided separately (from
// SecretStore).
func Open(ctx context.Context, b domain.Backend, password string, local *storage.DB) (*Stores, error) {
	switch b.Driver {
	case "", domain.BackendSQLite:
		if b.Host == "" {
			return Local(local), nil
		}
		db, err := storage.New(b.Host)
		if err != nil {
			return nil, err
		}
		s := Local(db)
		s.close = db.Close
		return s, nil
	case domain.BackendPostgres:
		return openSQL(ctx, "postgres", buildPostgresDSN(b, password), storage.Postgres)
	case domain.BackendMySQL:
		return openSQL(ctx, "mysql", buildMySQLDSN(b, password), storage.MySQL)
	case domain.BackendMongoDB:
		return openMongo(ctx, b, password)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", b.Driver)
	}
}

func openSQL(ctx context.Context, driverName, dsn string, d storage.Dialect) (*Stores, error) {
	conn, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}
	// Sensible pool settings for a desktop app
	conn.SetMaxOpenConns(5)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s: %w", driverName, err)
	}

	db, err := storage.Open(conn, d)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &Stores{
		Designs:   storage.NewDesignStore(db),
		Revisions: storage.NewRevisionStore(db),
		close:     db.Close,
	}, nil
}

func openMongo(ctx context.Context, b domain.Backend, password string) (*Stores, error) {
	uri, dbName := mongoURI(b, password)
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	store := storage.NewMongoStore(client.Database(dbName))
	return &Stores{
		Designs:   store,
		Revisions: store,
		close: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return client.Disconnect(ctx)
		},
	}, nil
}
