package datasource

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/iotnatural/poolwatch-core/internal/infrastructure/database"
	"github.com/iotnatural/poolwatch-core/migrations"
)

func TestLocalProvider_ServesMigratedSchema(t *testing.T) {
	ctx := context.Background()

	p, err := OpenLocal(ctx, database.Config{Path: filepath.Join(t.TempDir(), "pool.db")}, migrations.FS)
	if err != nil {
		t.Fatalf("OpenLocal() error = %v", err)
	}
	defer p.Close() //nolint:errcheck // Test cleanup

	var users []database.Record
	err = With(ctx, p, func(q database.Querier) error {
		var qerr error
		users, qerr = database.QueryRecords(ctx, q, "SELECT * FROM Users WHERE Email = ?", "demo@poolwatch.local")
		return qerr
	})
	if err != nil {
		t.Fatalf("With() error = %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("len(users) = %d, want 1", len(users))
	}
	if users[0]["UserId"] != int64(1) {
		t.Errorf("UserId = %#v, want int64(1)", users[0]["UserId"])
	}
}

func TestLocalProvider_ReleasesConnection(t *testing.T) {
	ctx := context.Background()

	p, err := OpenLocal(ctx, database.Config{Path: filepath.Join(t.TempDir(), "pool.db")}, nil)
	if err != nil {
		t.Fatalf("OpenLocal() error = %v", err)
	}
	defer p.Close() //nolint:errcheck // Test cleanup

	// The local database allows a single connection; a leak would block the second acquire.
	for i := range 2 {
		conn, err := p.Acquire(ctx)
		if err != nil {
			t.Fatalf("Acquire() #%d error = %v", i, err)
		}
		if err := conn.Close(); err != nil {
			t.Fatalf("Close() #%d error = %v", i, err)
		}
	}
}
