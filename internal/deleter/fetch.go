package deleter

import (
	"context"
	"fmt"

	"github.com/evalgo/digitaltwins/internal/catalog"
	"github.com/evalgo/digitaltwins/internal/dtdl"
)

// relRef identifies one relationship edge by the compound key
// dataplane.DeleteRelationship expects.
type relRef struct {
	sourceID       string
	relationshipID string
}

// fetchRelationshipBatch returns up to limit relationship edges still
// present in the graph, in no defined order, matching
// db/couchdb_bulk.go's "fetch a page, act on it, fetch the next page"
// loop shape.
func (d *Deleter) fetchRelationshipBatch(ctx context.Context, limit int) ([]relRef, error) {
	rows, err := d.store.ExecutePGQL(ctx, d.graph, `
		MATCH (:Twin)-[r:Relationship]->(:Twin)
		RETURN r.source_id AS source, r.relationship_id AS relId
		LIMIT $limit
	`, map[string]interface{}{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("deleter: fetching relationship batch: %w", err)
	}

	batch := make([]relRef, 0, rows.Len())
	for _, rec := range rows.Records {
		source, err := rec.GetString("source")
		if err != nil {
			return nil, err
		}
		relID, err := rec.GetString("relId")
		if err != nil {
			return nil, err
		}
		batch = append(batch, relRef{sourceID: source, relationshipID: relID})
	}
	return batch, nil
}

// fetchTwinBatch returns up to limit twin IDs still present in the
// graph.
func (d *Deleter) fetchTwinBatch(ctx context.Context, limit int) ([]string, error) {
	rows, err := d.store.ExecutePGQL(ctx, d.graph, `
		MATCH (t:Twin)
		RETURN t.dt_id AS id
		LIMIT $limit
	`, map[string]interface{}{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("deleter: fetching twin batch: %w", err)
	}

	ids := make([]string, 0, rows.Len())
	for _, rec := range rows.Records {
		id, err := rec.GetString("id")
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// loadModelGraph collects every model's DTMI and its full (transitive)
// descendants array,
// the input topoOrderLeavesFirst needs to order deletes leaf-first.
func (d *Deleter) loadModelGraph(ctx context.Context) ([]dtdl.DTMI, map[dtdl.DTMI][]dtdl.DTMI, error) {
	var ids []dtdl.DTMI
	descendantsOf := make(map[dtdl.DTMI][]dtdl.DTMI)

	err := d.catalog.GetModels(ctx, catalog.GetOptions{}, func(view *catalog.ModelView) error {
		ids = append(ids, view.ID)
		descendantsOf[view.ID] = view.Descendants
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("deleter: loading model graph: %w", err)
	}
	return ids, descendantsOf, nil
}

// topoOrderLeavesFirst returns every id in ids ordered so that a model
// always appears before any ancestor it descends from — the reverse of
// graph/dag.go's GetExecutionOrder, which emits dependencies before their
// dependents. Here a model with no remaining descendants is a frontier
// node (Kahn's algorithm), repeatedly peeled off until every model is
// placed.
func topoOrderLeavesFirst(ids []dtdl.DTMI, descendantsOf map[dtdl.DTMI][]dtdl.DTMI) []dtdl.DTMI {
	remaining := make(map[dtdl.DTMI]int, len(ids))
	for _, id := range ids {
		remaining[id] = len(descendantsOf[id])
	}

	order := make([]dtdl.DTMI, 0, len(ids))
	for len(order) < len(ids) {
		progressed := false
		for _, id := range ids {
			if remaining[id] != 0 {
				continue
			}
			if contains(order, id) {
				continue
			}
			order = append(order, id)
			progressed = true
			for _, other := range ids {
				for _, desc := range descendantsOf[other] {
					if desc == id {
						remaining[other]--
					}
				}
			}
			remaining[id] = -1 // placed, never matches the ==0 check again
		}
		if !progressed {
			// a cycle would be a DTDL spec violation upstream; fall back to
			// input order for whatever is left rather than looping forever.
			for _, id := range ids {
				if !contains(order, id) {
					order = append(order, id)
				}
			}
			break
		}
	}
	return order
}

func contains(haystack []dtdl.DTMI, needle dtdl.DTMI) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}
