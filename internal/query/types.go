// Package query implements the query executor and paginator (spec
// §4.5): dialect detection between TDQL and raw PGQL, lazy streaming of
// full result sets, and the SKIP/LIMIT continuation-token pagination
// algorithm, falling back to client-side pagination for variable-length
// edge queries.
//
// Grounded on the teacher's lazy-cursor idiom in db/couchdb_changes.go
// (GetChanges's Since/lastSeq resume pattern mirrors the continuation
// token here) and on internal/store's RowIterator, which this package
// wraps rather than reimplements.
package query

import (
	"github.com/evalgo/digitaltwins/internal/store"
)

// Row is one decoded result row, keyed by the PGQL RETURN clause's
// aliases.
type Row map[string]interface{}

// Page is one page of a paginated query, per spec §4.5.
type Page struct {
	Values            []Row
	ContinuationToken *string
}

// DefaultPageSize is used when the caller supplies no pageSizeHint.
const DefaultPageSize = 100

// Executor runs TDQL/PGQL queries against a single graph.
type Executor struct {
	store *store.Adapter
	graph string
}

// New builds an Executor bound to graph.
func New(adapter *store.Adapter, graph string) *Executor {
	return &Executor{store: adapter, graph: graph}
}

func recordToRow(r *store.Record) Row {
	row := make(Row)
	for _, k := range r.Keys() {
		v, _ := r.Get(k)
		row[k] = v
	}
	return row
}
