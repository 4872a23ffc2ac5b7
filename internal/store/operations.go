package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ExecutePGQL runs a PGQL/Cypher query against graph and returns the fully
// materialized result set. Use ExecuteStream instead for queries expected
// to return many rows (internal/query's paginator always does).
func (a *Adapter) ExecutePGQL(ctx context.Context, graph, cypher string, params map[string]interface{}) (*Rows, error) {
	query, payload, err := cypherParams(cypher, params)
	if err != nil {
		return nil, err
	}

	rows, err := a.pool.Query(ctx, cypherSQL(graph), query, payload)
	if err != nil {
		return nil, fmt.Errorf("store: executing pgql: %w", err)
	}
	defer rows.Close()

	result := &Rows{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("store: scanning pgql row: %w", err)
		}
		record, err := decodeAgtypeRow(raw)
		if err != nil {
			return nil, err
		}
		result.Records = append(result.Records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterating pgql rows: %w", err)
	}
	return result, nil
}

// ErrNoRows is returned by ExecuteScalar when the query produced zero rows.
var ErrNoRows = errors.New("store: query returned no rows")

// ExecuteScalar runs a query expected to return exactly one row with one
// field (e.g. `RETURN COUNT(*)` or `RETURN is_of_model(...)`), returning
// that field's decoded value.
func (a *Adapter) ExecuteScalar(ctx context.Context, graph, cypher string, params map[string]interface{}) (interface{}, error) {
	rows, err := a.ExecutePGQL(ctx, graph, cypher, params)
	if err != nil {
		return nil, err
	}
	if rows.Len() == 0 {
		return nil, ErrNoRows
	}
	record := rows.Records[0]
	for _, key := range record.Keys() {
		v, _ := record.Get(key)
		return v, nil
	}
	return nil, ErrNoRows
}

// RowIterator lazily pulls one decoded Record at a time from an
// in-flight pgx.Rows cursor, never buffering the full result set. This
// grounds internal/query's pagination, which must stream millions of
// twins/relationships without materializing them all at once.
type RowIterator struct {
	rows pgx.Rows
}

// Next advances to the next record. It returns (nil, false, nil) when the
// stream is exhausted, and (nil, false, err) on a scan/decode failure.
func (it *RowIterator) Next() (*Record, bool, error) {
	if !it.rows.Next() {
		if err := it.rows.Err(); err != nil {
			return nil, false, fmt.Errorf("store: iterating pgql rows: %w", err)
		}
		return nil, false, nil
	}
	var raw string
	if err := it.rows.Scan(&raw); err != nil {
		return nil, false, fmt.Errorf("store: scanning pgql row: %w", err)
	}
	record, err := decodeAgtypeRow(raw)
	if err != nil {
		return nil, false, err
	}
	return record, true, nil
}

// Close releases the underlying connection back to the pool. Callers must
// call Close once they stop pulling rows, whether or not the stream was
// exhausted.
func (it *RowIterator) Close() {
	it.rows.Close()
}

// ExecuteStream opens a cursor-style iteration over a query's results,
// backed directly by pgx.Rows, per spec §4.1's ExecuteStream contract.
func (a *Adapter) ExecuteStream(ctx context.Context, graph, cypher string, params map[string]interface{}) (*RowIterator, error) {
	query, payload, err := cypherParams(cypher, params)
	if err != nil {
		return nil, err
	}
	rows, err := a.pool.Query(ctx, cypherSQL(graph), query, payload)
	if err != nil {
		return nil, fmt.Errorf("store: opening pgql stream: %w", err)
	}
	return &RowIterator{rows: rows}, nil
}

// Tx is the transaction handle passed to a Transaction callback. It
// exposes the same ExecutePGQL/ExecuteScalar surface as Adapter, scoped to
// the open transaction, so catalog/dataplane code can write the same way
// whether or not it is inside a Transaction call.
type Tx struct {
	tx    pgx.Tx
	graph string
}

func (t *Tx) ExecutePGQL(ctx context.Context, graph, cypher string, params map[string]interface{}) (*Rows, error) {
	query, payload, err := cypherParams(cypher, params)
	if err != nil {
		return nil, err
	}
	rows, err := t.tx.Query(ctx, cypherSQL(graph), query, payload)
	if err != nil {
		return nil, fmt.Errorf("store: executing pgql in transaction: %w", err)
	}
	defer rows.Close()

	result := &Rows{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("store: scanning pgql row: %w", err)
		}
		record, err := decodeAgtypeRow(raw)
		if err != nil {
			return nil, err
		}
		result.Records = append(result.Records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterating pgql rows: %w", err)
	}
	return result, nil
}

func (t *Tx) ExecuteScalar(ctx context.Context, graph, cypher string, params map[string]interface{}) (interface{}, error) {
	rows, err := t.ExecutePGQL(ctx, graph, cypher, params)
	if err != nil {
		return nil, err
	}
	if rows.Len() == 0 {
		return nil, ErrNoRows
	}
	record := rows.Records[0]
	for _, key := range record.Keys() {
		v, _ := record.Get(key)
		return v, nil
	}
	return nil, ErrNoRows
}

// Exec runs a plain SQL statement (not PGQL) against the transaction, for
// the relational-side bookkeeping internal/jobs and internal/catalog need
// alongside graph writes (job records, checkpoints, the jobs schema).
func (t *Tx) Exec(ctx context.Context, sql string, args ...interface{}) error {
	_, err := t.tx.Exec(ctx, sql, args...)
	return err
}

func (t *Tx) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return t.tx.Query(ctx, sql, args...)
}

func (t *Tx) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return t.tx.QueryRow(ctx, sql, args...)
}

// Transaction runs fn inside a single Postgres transaction: commit on a
// nil return, rollback on any error, and rollback-then-repanic if fn
// panics. Grounded on db/postgres_pgx.go's pool-holding style generalized
// from ad hoc Exec/Query calls to a managed transaction, matching the
// commit/rollback discipline db/repository/neo4j.go's ExecuteWrite gives
// the teacher's graph writes.
func (a *Adapter) Transaction(ctx context.Context, graph string, fn func(*Tx) error) (err error) {
	pgxTx, beginErr := a.pool.Begin(ctx)
	if beginErr != nil {
		return fmt.Errorf("store: beginning transaction: %w", beginErr)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = pgxTx.Rollback(ctx)
			panic(p)
		}
	}()

	if err = fn(&Tx{tx: pgxTx, graph: graph}); err != nil {
		if rbErr := pgxTx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("store: transaction failed (%v) and rollback failed: %w", err, rbErr)
		}
		return err
	}
	if err = pgxTx.Commit(ctx); err != nil {
		return fmt.Errorf("store: committing transaction: %w", err)
	}
	return nil
}

// CreateGraph provisions a new property graph named graph: AGE's catalog
// entry, the vertex/edge labels this service uses (Twin, Model,
// _extends, _hasComponent, and generic typed relationship edges), the
// is_of_model/is_of_model_old helper routines (spec §4.2), and a
// dedicated `<graph>_jobs` schema for JobRecord/JobLock/DeleteCheckpoint
// rows (spec §3 Ownership: "Jobs and locks are persisted in a dedicated
// schema named by deriving from the graph name").
func (a *Adapter) CreateGraph(ctx context.Context, graph string) error {
	return a.Transaction(ctx, graph, func(tx *Tx) error {
		if err := tx.Exec(ctx, `SELECT ag_catalog.create_graph($1)`, graph); err != nil {
			return fmt.Errorf("store: creating graph %q: %w", graph, err)
		}
		if err := tx.Exec(ctx, `SELECT ag_catalog.create_vlabel($1, 'Twin')`, graph); err != nil {
			return fmt.Errorf("store: creating Twin vertex label: %w", err)
		}
		if err := tx.Exec(ctx, `SELECT ag_catalog.create_vlabel($1, 'Model')`, graph); err != nil {
			return fmt.Errorf("store: creating Model vertex label: %w", err)
		}
		if err := tx.Exec(ctx, `SELECT ag_catalog.create_elabel($1, '_extends')`, graph); err != nil {
			return fmt.Errorf("store: creating _extends edge label: %w", err)
		}
		if err := tx.Exec(ctx, `SELECT ag_catalog.create_elabel($1, '_hasComponent')`, graph); err != nil {
			return fmt.Errorf("store: creating _hasComponent edge label: %w", err)
		}
		if err := tx.Exec(ctx, `SELECT ag_catalog.create_elabel($1, 'Relationship')`, graph); err != nil {
			return fmt.Errorf("store: creating Relationship edge label: %w", err)
		}
		schema := jobsSchemaName(graph)
		if err := tx.Exec(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, pgx.Identifier{schema}.Sanitize())); err != nil {
			return fmt.Errorf("store: creating jobs schema %q: %w", schema, err)
		}
		if err := tx.Exec(ctx, jobsTablesSQL(schema)); err != nil {
			return fmt.Errorf("store: creating jobs tables: %w", err)
		}
		if err := tx.Exec(ctx, isOfModelFunctionSQL(graph, schema)); err != nil {
			return fmt.Errorf("store: creating is_of_model routine: %w", err)
		}
		if err := tx.Exec(ctx, isOfModelOldFunctionSQL(graph, schema)); err != nil {
			return fmt.Errorf("store: creating is_of_model_old routine: %w", err)
		}
		return nil
	})
}

// DropGraph removes a graph and its jobs schema entirely. Used by tests
// and administrative tooling; there is no corresponding public API
// operation (spec has no "delete graph" twin/model/job operation).
func (a *Adapter) DropGraph(ctx context.Context, graph string) error {
	return a.Transaction(ctx, graph, func(tx *Tx) error {
		if err := tx.Exec(ctx, `SELECT ag_catalog.drop_graph($1, true)`, graph); err != nil {
			return fmt.Errorf("store: dropping graph %q: %w", graph, err)
		}
		schema := jobsSchemaName(graph)
		if err := tx.Exec(ctx, fmt.Sprintf(`DROP SCHEMA IF EXISTS %s CASCADE`, pgx.Identifier{schema}.Sanitize())); err != nil {
			return fmt.Errorf("store: dropping jobs schema %q: %w", schema, err)
		}
		return nil
	})
}

// jobsSchemaName derives the dedicated schema name for a graph's
// JobRecord/JobLock/DeleteCheckpoint tables.
func jobsSchemaName(graph string) string {
	return graph + "_jobs"
}

// JobsSchema exposes jobsSchemaName's convention to internal/jobs, which
// issues its own raw SQL against these tables via Pool() rather than
// through Adapter/Tx's Cypher-oriented surface.
func JobsSchema(graph string) string {
	return jobsSchemaName(graph)
}
