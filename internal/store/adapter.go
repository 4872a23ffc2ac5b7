// Package store adapts a pooled Postgres connection, with Apache AGE's
// property-graph extension loaded, into the graph store contract the rest
// of this service depends on: ExecutePGQL/ExecuteScalar/ExecuteStream,
// Transaction, and CreateGraph/DropGraph. It is a thin lightweight wrapper
// in the mold of the teacher's PostgresDB — no ORM, direct SQL, a pool the
// adapter itself holds no other state beyond.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Adapter wraps a *pgxpool.Pool. It is safe for concurrent use, matching
// the concurrency story of the underlying pool.
type Adapter struct {
	pool *pgxpool.Pool
}

// Options configures pool construction.
type Options struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime int64 // seconds; 0 means use pgxpool's default
}

// New opens a pooled connection to Postgres and verifies it with a Ping.
func New(ctx context.Context, opts Options) (*Adapter, error) {
	cfg, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("store: parsing dsn: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		cfg.MinConns = opts.MinConns
	}
	if opts.ConnMaxLifetime > 0 {
		cfg.MaxConnLifetime = time.Duration(opts.ConnMaxLifetime) * time.Second
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("store: creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: pinging database: %w", err)
	}
	return &Adapter{pool: pool}, nil
}

// NewFromPool wraps an already-constructed pool, primarily for tests
// against testcontainers-provisioned Postgres instances.
func NewFromPool(pool *pgxpool.Pool) *Adapter {
	return &Adapter{pool: pool}
}

// Close closes the underlying pool. Safe to call once, at service shutdown.
func (a *Adapter) Close() {
	a.pool.Close()
}

// Pool exposes the underlying pool for components (internal/jobs' lock
// store, internal/query's cursor) that need connection-level control this
// adapter's higher-level methods don't expose.
func (a *Adapter) Pool() *pgxpool.Pool {
	return a.pool
}

// QueryScalarSQL runs a plain SQL statement (not PGQL) expected to return
// one row with one column, scanning it into an interface{}. Used for
// calling the is_of_model/is_of_model_old plpgsql routines directly,
// which are plain Postgres functions rather than Cypher queries.
func (a *Adapter) QueryScalarSQL(ctx context.Context, sql string, args ...interface{}) (interface{}, error) {
	var result interface{}
	if err := a.pool.QueryRow(ctx, sql, args...).Scan(&result); err != nil {
		return nil, fmt.Errorf("store: querying scalar sql: %w", err)
	}
	return result, nil
}

// cypherSQL builds the `ag_catalog.cypher(graph, $1, $2)` call form AGE
// expects, with the query text and its JSON-encoded parameters (from
// cypherParams) bound as $1 and $2, and the single vertex/edge/scalar
// result column returned as agtype text for the caller's Record/Rows
// wrapping.
func cypherSQL(graph string) string {
	return fmt.Sprintf(`SELECT * FROM ag_catalog.cypher(%s, $1, $2) AS (result ag_catalog.agtype)`, pgx.Identifier{graph}.Sanitize())
}

func cypherParams(cypher string, params map[string]interface{}) (string, interface{}, error) {
	payload, err := marshalParams(params)
	if err != nil {
		return "", nil, fmt.Errorf("store: marshaling query params: %w", err)
	}
	return cypher, payload, nil
}
