// Package dataplane implements the twin/relationship data plane (spec
// §4.3): full-object upsert and RFC 6902 JSON-Patch mutation, schema
// validation against the flattened model catalog, optimistic concurrency
// via a monotonic ETag token, and component sub-path access.
//
// Grounded on db/repository/postgres.go's JSONB-column CRUD pattern
// (marshal-to-JSON, parameterized INSERT, scan-and-unmarshal) generalized
// from flat metrics rows to twin/relationship bodies carrying per-property
// metadata, and on db/repository/neo4j.go's transaction-scoped write style
// for the graph-side vertex/edge mutations.
package dataplane

import (
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/evalgo/digitaltwins/internal/catalog"
	"github.com/evalgo/digitaltwins/internal/store"
)

// PropertyMetadata is the `$metadata.<name>` entry spec §3 assigns to
// every twin/relationship property: when the store last observed a
// change, and the device-reported time the value itself describes.
type PropertyMetadata struct {
	LastUpdatedOn time.Time `json:"lastUpdatedOn"`
	SourceTime    *string   `json:"sourceTime,omitempty"`
}

// Twin is one digital twin row as stored: the full property body plus the
// bookkeeping spec §3 describes ($dtId, $etag, $metadata).
type Twin struct {
	ID       string                      `json:"$dtId"`
	ModelID  string                      `json:"-"`
	ETag     string                      `json:"$etag"`
	Body     map[string]interface{}      `json:"-"`
	Metadata map[string]PropertyMetadata `json:"-"`
}

// Relationship is one edge row: identity, endpoints, declared name, and
// custom properties plus their own ETag (spec §3 Relationship).
type Relationship struct {
	ID       string                      `json:"$relationshipId"`
	SourceID string                      `json:"$sourceId"`
	TargetID string                      `json:"$targetId"`
	Name     string                      `json:"$relationshipName"`
	ETag     string                      `json:"$etag"`
	Body     map[string]interface{}      `json:"-"`
	Metadata map[string]PropertyMetadata `json:"-"`
}

// BatchItemResult is one element of a CreateOrReplaceDigitalTwins /
// CreateOrReplaceRelationships batch result — per spec §4.3 "no
// all-or-nothing semantics", every item succeeds or fails independently.
type BatchItemResult struct {
	ID    string `json:"id"`
	Error error  `json:"-"`
}

// BatchResult is the `{ successes[], failures[] }` shape spec §6's client
// table names for both batch-upsert operations.
type BatchResult struct {
	Successes []BatchItemResult
	Failures  []BatchItemResult
}

// Dataplane is the C3 component, scoped to one graph. It depends on the
// catalog for model lookup/validation and on the store for the underlying
// graph and relational (ETag sequence, twin_models) writes.
type Dataplane struct {
	store   *store.Adapter
	catalog *catalog.Catalog
	graph   string
	log     *logrus.Entry
}

// New constructs a Dataplane over adapter/cat for the given graph name.
func New(adapter *store.Adapter, cat *catalog.Catalog, graph string, log *logrus.Entry) *Dataplane {
	return &Dataplane{store: adapter, catalog: cat, graph: graph, log: log}
}

// MaxBatchSize is the spec §4.3 limit on CreateOrReplaceDigitalTwins /
// CreateOrReplaceRelationships: "at most 100 elements".
const MaxBatchSize = 100

func marshalBody(body map[string]interface{}) (string, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
