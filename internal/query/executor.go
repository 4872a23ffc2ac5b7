package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/evalgo/digitaltwins/internal/store"
	"github.com/evalgo/digitaltwins/internal/tdql"
)

// RowIterator lazily pulls decoded Rows from a store cursor, one at a
// time, mirroring db/couchdb_changes.go's GetChanges/ListenChanges
// for-rows.Next() loop rather than materializing the whole result set.
type RowIterator struct {
	inner *store.RowIterator
}

// Next advances to the next row. It returns (nil, false, nil) once the
// stream is exhausted.
func (it *RowIterator) Next() (Row, bool, error) {
	record, ok, err := it.inner.Next()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return recordToRow(record), true, nil
}

// Close releases the underlying cursor.
func (it *RowIterator) Close() {
	it.inner.Close()
}

// Query detects whether text is TDQL or already-rendered PGQL by its
// leading keyword (spec §7: "detects TDQL vs PGQL by leading keyword"),
// translates TDQL through internal/tdql if needed, and opens a lazy
// cursor over the result.
func (e *Executor) Query(ctx context.Context, text string) (*RowIterator, error) {
	pgql, err := e.toPGQL(text)
	if err != nil {
		return nil, err
	}
	inner, err := e.store.ExecuteStream(ctx, e.graph, pgql, nil)
	if err != nil {
		return nil, err
	}
	return &RowIterator{inner: inner}, nil
}

// toPGQL translates TDQL (a statement opening with SELECT) through
// internal/tdql, or passes already-rendered PGQL (opening with MATCH)
// through unchanged.
func (e *Executor) toPGQL(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	upper := strings.ToUpper(trimmed)
	switch {
	case strings.HasPrefix(upper, "SELECT"):
		return tdql.Translate(trimmed, e.graph)
	case strings.HasPrefix(upper, "MATCH"):
		return trimmed, nil
	default:
		return "", fmt.Errorf("query: cannot determine dialect of statement: %q", trimmed)
	}
}
