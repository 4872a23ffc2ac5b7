// Package catalog implements the model catalog (spec §4.2): DTDL interface
// create/get/update/replace/delete with bases/descendants closure
// maintenance, backed by internal/store's property graph and fronted by a
// read-through TTL cache.
//
// Grounded on db/repository/neo4j.go for the Cypher-shaped write patterns
// (MERGE-style upsert run inside a transaction) and graph/dag.go for
// bases/descendants computation: GetExecutionOrder's Kahn's-algorithm
// style informs the deterministic BFS closure over the DTMI extends DAG,
// and checkCycleManual's DFS-with-recursion-stack is inverted here (extends
// is required acyclic by the DTDL spec, not checked for cycles) into a
// closure walk instead of a cycle check.
package catalog

import (
	"encoding/json"
	"time"

	"github.com/evalgo/digitaltwins/internal/dtdl"
)

// Model is one catalog entry: a parsed DTDL interface plus the derived
// bases/descendants closures and lifecycle metadata spec §3 assigns to
// the Model entity.
type Model struct {
	ID              dtdl.DTMI
	DTDLDocument    json.RawMessage
	Bases           []dtdl.DTMI
	Descendants     []dtdl.DTMI
	Decommissioned  bool
	UploadTime      time.Time

	iface *dtdl.Interface // parsed form, not persisted directly
}

// Interface returns the parsed DTDL AST for this model, parsing
// DTDLDocument lazily and caching the result on first call.
func (m *Model) Interface() (*dtdl.Interface, error) {
	if m.iface != nil {
		return m.iface, nil
	}
	iface, err := dtdl.ParseInterface(m.DTDLDocument)
	if err != nil {
		return nil, err
	}
	m.iface = iface
	return iface, nil
}

// ModelData is the per-model result of a CreateModels batch call — a
// thinner projection than Model, matching what callers typically want
// back from a bulk create (no raw document round-trip required).
type ModelData struct {
	ID          dtdl.DTMI
	Bases       []dtdl.DTMI
	Descendants []dtdl.DTMI
	UploadTime  time.Time
}

// GetOptions controls how much of a Model Get/List returns.
type GetOptions struct {
	IncludeDocument  bool
	IncludeFlattened bool
}

// FlattenedView is the merged properties/relationships/components/
// telemetries view spec §4.2 Get/List describes: "a flattened view that
// merges contents from all bases".
type FlattenedView = dtdl.Flattened
