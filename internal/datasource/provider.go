package datasource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/iotnatural/poolwatch-core/internal/infrastructure/database"
)

// Provider acquires scoped database connections.
type Provider interface {
	// Acquire establishes a connection. The caller must Close it.
	// Establishment failures are reported as ErrUnavailable.
	Acquire(ctx context.Context) (*Conn, error)
}

// Conn is an acquired connection. It satisfies database.Querier.
type Conn struct {
	q       database.Querier
	release func() error

	once sync.Once
	err  error
}

// NewConn wraps q with a release function run once on Close.
func NewConn(q database.Querier, release func() error) *Conn {
	return &Conn{q: q, release: release}
}

// QueryContext runs a query on the underlying connection.
func (c *Conn) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.q.QueryContext(ctx, query, args...)
}

// Close releases the connection and everything opened to reach it.
// Subsequent calls return the first result.
func (c *Conn) Close() error {
	c.once.Do(func() {
		if c.release != nil {
			c.err = c.release()
		}
	})
	return c.err
}

// With acquires a connection from p, runs fn and releases the connection,
// including when fn panics.
//
// Parameters:
//   - ctx: Bounds acquisition and is passed through to fn's queries by the caller
//   - p: Connection provider
//   - fn: Work to run against the connection
//
// Returns:
//   - error: ErrUnavailable (wrapped) if acquisition fails, otherwise fn's error
func With(ctx context.Context, p Provider, fn func(q database.Querier) error) (err error) {
	conn, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("releasing connection: %w", cerr)
		}
	}()

	return fn(conn)
}

// unavailable wraps cause with ErrUnavailable unless it already is.
func unavailable(stage string, cause error) error {
	if errors.Is(cause, ErrUnavailable) {
		return cause
	}
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, stage, cause)
}
