package datasource

import (
	"context"
	"io/fs"
	"time"

	"github.com/iotnatural/poolwatch-core/internal/infrastructure/config"
	"github.com/iotnatural/poolwatch-core/internal/infrastructure/database"
	"github.com/iotnatural/poolwatch-core/internal/metrics"
)

// LocalProvider serves connections from a local SQLite mirror of the remote schema.
type LocalProvider struct {
	db *database.DB
}

// OpenLocal opens the SQLite file at cfg.Path and applies migrations from fsys.
//
// Parameters:
//   - ctx: Bounds migration
//   - cfg: Local database settings
//   - fsys: Migration files (usually migrations.FS); nil skips migration
//
// Returns:
//   - *LocalProvider: Ready provider; callers must Close it
//   - error: ErrUnavailable (wrapped) if the database cannot be opened or migrated
func OpenLocal(ctx context.Context, cfg database.Config, fsys fs.FS) (*LocalProvider, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, unavailable("opening local database", err)
	}

	if fsys != nil {
		if err := db.Migrate(ctx, fsys); err != nil {
			db.Close() //nolint:errcheck // Best effort cleanup on error path
			return nil, unavailable("migrating local database", err)
		}
	}

	return &LocalProvider{db: db}, nil
}

// Acquire reserves a dedicated connection from the local database.
func (p *LocalProvider) Acquire(ctx context.Context) (conn *Conn, err error) {
	start := time.Now()
	defer func() { metrics.RecordAcquire(config.DriverSQLite, time.Since(start), err) }()

	c, err := p.db.Conn(ctx)
	if err != nil {
		return nil, unavailable("reserving local connection", err)
	}
	return NewConn(c, c.Close), nil
}

// DB returns the underlying local database.
func (p *LocalProvider) DB() *database.DB {
	return p.db
}

// Close closes the local database.
func (p *LocalProvider) Close() error {
	return p.db.Close()
}
