package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// sequenceSQL builds the upsert-and-increment statement for a named
// counter in graph's dedicated jobs schema. The same model_sequence table
// CreateGraph provisions for the model catalog's internal bookkeeping
// doubles as the monotonic source internal/dataplane hashes into twin and
// relationship ETags (spec §4.3, §9: "a hash of a monotonically
// increasing write sequence per-row, not a timestamp").
func sequenceSQL(schema string) string {
	table := pgx.Identifier{schema, "model_sequence"}.Sanitize()
	return fmt.Sprintf(`
		INSERT INTO %s (name, counter) VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET counter = model_sequence.counter + 1
		RETURNING counter`, table)
}

// NextSequence atomically increments and returns the named counter for
// graph, outside of any transaction.
func (a *Adapter) NextSequence(ctx context.Context, graph, name string) (int64, error) {
	var counter int64
	row := a.pool.QueryRow(ctx, sequenceSQL(jobsSchemaName(graph)), name)
	if err := row.Scan(&counter); err != nil {
		return 0, fmt.Errorf("store: incrementing sequence %q: %w", name, err)
	}
	return counter, nil
}

// NextSequence is the transaction-scoped twin, keeping ETag assignment
// atomic with the twin/relationship row write it accompanies.
func (t *Tx) NextSequence(ctx context.Context, name string) (int64, error) {
	var counter int64
	row := t.tx.QueryRow(ctx, sequenceSQL(jobsSchemaName(t.graph)), name)
	if err := row.Scan(&counter); err != nil {
		return 0, fmt.Errorf("store: incrementing sequence %q: %w", name, err)
	}
	return counter, nil
}
