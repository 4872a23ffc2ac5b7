package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// UpsertTwinModel records (or updates) the twin_id -> metadata_model/bases
// row the store-side is_of_model routine consults, keeping it in lockstep
// with internal/dataplane's twin writes rather than recomputing it from a
// graph walk on every subtype test.
func (t *Tx) UpsertTwinModel(ctx context.Context, graph, twinID, metadataModel string, bases []string) error {
	table := pgx.Identifier{jobsSchemaName(graph), "twin_models"}.Sanitize()
	sql := fmt.Sprintf(`
		INSERT INTO %s (twin_id, metadata_model, bases) VALUES ($1, $2, $3)
		ON CONFLICT (twin_id) DO UPDATE SET metadata_model = $2, bases = $3`, table)
	if err := t.Exec(ctx, sql, twinID, metadataModel, bases); err != nil {
		return fmt.Errorf("store: upserting twin model row for %q: %w", twinID, err)
	}
	return nil
}

// DeleteTwinModel removes twinID's subtype-test bookkeeping row, called
// when a twin is deleted.
func (t *Tx) DeleteTwinModel(ctx context.Context, graph, twinID string) error {
	table := pgx.Identifier{jobsSchemaName(graph), "twin_models"}.Sanitize()
	sql := fmt.Sprintf(`DELETE FROM %s WHERE twin_id = $1`, table)
	if err := t.Exec(ctx, sql, twinID); err != nil {
		return fmt.Errorf("store: deleting twin model row for %q: %w", twinID, err)
	}
	return nil
}
