package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// UpsertModelExtends records childDTMI's direct parents in the
// model_extends side-table, kept in lockstep with the graph's _extends
// edges so is_of_model_old's relational ancestor walk (internal/store/ddl.go)
// has something to walk. One row per (child, parent) pair; safe to call
// again on replace since the extends set itself cannot change on replace
// (spec §4.2 Replace invariant (b)).
func (t *Tx) UpsertModelExtends(ctx context.Context, graph string, childDTMI string, parentDTMIs []string) error {
	table := pgx.Identifier{jobsSchemaName(graph), "model_extends"}.Sanitize()
	for _, parent := range parentDTMIs {
		sql := fmt.Sprintf(`
			INSERT INTO %s (child_dtmi, parent_dtmi) VALUES ($1, $2)
			ON CONFLICT (child_dtmi, parent_dtmi) DO NOTHING`, table)
		if err := t.Exec(ctx, sql, childDTMI, parent); err != nil {
			return fmt.Errorf("store: upserting model_extends row %q->%q: %w", childDTMI, parent, err)
		}
	}
	return nil
}
