// Package importer implements the ND-JSON bulk import job (spec §4.7):
// a strict Header -> Models? -> Twins? -> Relationships? section state
// machine run as one internal/jobs workload, bulk-creating models via
// internal/catalog and upserting twins/relationships via
// internal/dataplane.
//
// Grounded on db/couchdb_bulk.go/db/couchdb_changes.go's streaming
// record-at-a-time ingestion loop, adapted from CouchDB's bulk-docs API
// shape to this service's own ND-JSON section grammar.
package importer

import (
	"errors"

	"github.com/evalgo/digitaltwins/internal/catalog"
	"github.com/evalgo/digitaltwins/internal/dataplane"
	"github.com/evalgo/digitaltwins/internal/jobs"
)

// supportedFileVersion is the only accepted ND-JSON header fileVersion.
const supportedFileVersion = "1.0.0"

// ErrArgumentError matches dataplane/catalog's error taxonomy for
// malformed import streams, spec §4.7 steps 1-3.
var ErrArgumentError = errors.New("importer: invalid argument")

// Options controls per-record failure handling during an import run.
type Options struct {
	// ContinueOnFailure logs per-record errors and keeps going (the job
	// ends PartiallySucceeded) instead of aborting on the first error
	// (the job ends Failed).
	ContinueOnFailure bool
}

// Importer runs ND-JSON import jobs for one graph, composing catalog
// (model bulk-create) and dataplane (twin/relationship upsert) under a
// jobs.Service-managed lock and status lifecycle.
type Importer struct {
	catalog   *catalog.Catalog
	dataplane *dataplane.Dataplane
	service   *jobs.Service
}

// New builds an Importer over cat/dp, running jobs through svc.
func New(cat *catalog.Catalog, dp *dataplane.Dataplane, svc *jobs.Service) *Importer {
	return &Importer{catalog: cat, dataplane: dp, service: svc}
}

// section is the current position in the Header -> Models? -> Twins? ->
// Relationships? state machine.
type section int

const (
	sectionHeader section = iota
	sectionModels
	sectionTwins
	sectionRelationships
	sectionDone
)

func (s section) String() string {
	switch s {
	case sectionHeader:
		return "Header"
	case sectionModels:
		return "Models"
	case sectionTwins:
		return "Twins"
	case sectionRelationships:
		return "Relationships"
	default:
		return "Done"
	}
}

// sectionRank orders the sections this import grammar allows, so an
// out-of-order marker (e.g. Models after Twins) is detected by comparing
// ranks rather than hardcoding a transition table.
func sectionRank(name string) (section, bool) {
	switch name {
	case "Models":
		return sectionModels, true
	case "Twins":
		return sectionTwins, true
	case "Relationships":
		return sectionRelationships, true
	default:
		return sectionDone, false
	}
}
