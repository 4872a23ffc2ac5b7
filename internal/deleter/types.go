// Package deleter implements the resumable bulk-delete job (spec §4.7):
// three strict phases — Relationships, Twins, Models — each proceeding
// in batches with a checkpoint persisted after every batch, so a crashed
// or cancelled job resumes from whichever phase it had not finished
// rather than restarting from scratch.
//
// Grounded on db/couchdb_bulk.go/db/couchdb_changes.go's batch-fetch loop
// and graph/dag.go's Kahn's-algorithm topological ordering, here inverted
// to delete _extends leaves before their ancestors in the Models phase.
package deleter

import (
	"github.com/evalgo/digitaltwins/internal/catalog"
	"github.com/evalgo/digitaltwins/internal/dataplane"
	"github.com/evalgo/digitaltwins/internal/jobs"
	"github.com/evalgo/digitaltwins/internal/store"
)

// DefaultBatchSize is how many relationships or twins Deleter fetches and
// removes per round trip, when Options.BatchSize is unset.
const DefaultBatchSize = 200

// Options controls a bulk-delete run's batching.
type Options struct {
	BatchSize int
}

func (o Options) batchSize() int {
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return DefaultBatchSize
}

// Deleter runs bulk-delete jobs for one graph, composing catalog
// (topologically-ordered model removal) and dataplane (twin/relationship
// removal) under a jobs.Service-managed lock, status lifecycle, and
// checkpoint.
type Deleter struct {
	store     *store.Adapter
	catalog   *catalog.Catalog
	dataplane *dataplane.Dataplane
	service   *jobs.Service
	graph     string
}

// New builds a Deleter over adapter/cat/dp for graph, running jobs
// through svc.
func New(adapter *store.Adapter, cat *catalog.Catalog, dp *dataplane.Dataplane, svc *jobs.Service, graph string) *Deleter {
	return &Deleter{store: adapter, catalog: cat, dataplane: dp, service: svc, graph: graph}
}
