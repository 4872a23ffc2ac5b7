package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/evalgo/digitaltwins/internal/dtdl"
	"github.com/evalgo/digitaltwins/internal/store"
)

// CreateModels runs the full batch-create algorithm of spec §4.2:
//  1. parse every document and collect references
//  2. resolve the closure (batch-local or store), failing on any
//     unresolved DTMI
//  3. validate each model
//  4. compute bases for each new model (deterministic BFS)
//  5. upsert everything in one transaction, including descendants array
//     updates on every ancestor and _extends/_hasComponent edges
func (c *Catalog) CreateModels(ctx context.Context, docs [][]byte) ([]ModelData, error) {
	batch, err := parseBatch(docs)
	if err != nil {
		return nil, err
	}

	resolved, err := c.resolveReferences(ctx, batch)
	if err != nil {
		return nil, err
	}

	for _, id := range batch.order {
		iface := batch.byID[id]
		if issues := validateInterfaceShape(iface); len(issues) > 0 {
			return nil, &ValidationError{DTMI: id, Issues: issues}
		}
	}

	for _, id := range batch.order {
		if exists, decommissioned, err := c.modelExists(ctx, id); err != nil {
			return nil, err
		} else if exists && !decommissioned {
			return nil, fmt.Errorf("%w: %s", ErrModelAlreadyExists, id)
		}
	}

	now := time.Now()
	results := make([]ModelData, 0, len(batch.order))
	basesByID := make(map[dtdl.DTMI][]dtdl.DTMI, len(batch.order))
	for _, id := range batch.order {
		basesByID[id] = computeBases(batch.byID[id], resolved)
	}

	err = c.store.Transaction(ctx, c.graph, func(tx *store.Tx) error {
		for _, id := range batch.order {
			iface := batch.byID[id]
			doc := docs[indexOf(batch.order, id)]
			bases := basesByID[id]

			if err := upsertModelVertex(ctx, tx, c.graph, iface, doc, bases, now); err != nil {
				return err
			}
			if err := writeExtendsEdges(ctx, tx, c.graph, iface); err != nil {
				return err
			}
			if err := writeHasComponentEdges(ctx, tx, c.graph, iface); err != nil {
				return err
			}
			for _, base := range bases {
				if err := appendDescendant(ctx, tx, c.graph, base, id); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, id := range batch.order {
		c.cache.invalidate(id)
		results = append(results, ModelData{
			ID:          id,
			Bases:       basesByID[id],
			Descendants: nil,
			UploadTime:  now,
		})
	}
	return results, nil
}

func indexOf(order []dtdl.DTMI, id dtdl.DTMI) int {
	for i, o := range order {
		if o == id {
			return i
		}
	}
	return -1
}

// modelExists reports whether dtmi already has a persisted model vertex,
// and whether that vertex is decommissioned (decommissioned models may be
// recreated; spec §4.2 step 5: "If a DTMI already exists with
// decommissioned unset, fail with ModelAlreadyExists").
func (c *Catalog) modelExists(ctx context.Context, dtmi dtdl.DTMI) (exists bool, decommissioned bool, err error) {
	model, err := c.fetchModelFromStore(ctx, dtmi)
	if err != nil {
		return false, false, nil
	}
	return true, model.Decommissioned, nil
}

func upsertModelVertex(ctx context.Context, tx *store.Tx, graph string, iface *dtdl.Interface, doc []byte, bases []dtdl.DTMI, now time.Time) error {
	_, err := tx.ExecutePGQL(ctx, graph, `
		MERGE (m:Model {dtmi: $dtmi})
		SET m.dtdl_document = $document,
		    m.bases = $bases,
		    m.decommissioned = false,
		    m.upload_time = $uploadTime
	`, map[string]interface{}{
		"dtmi":       iface.ID,
		"document":   string(doc),
		"bases":      bases,
		"uploadTime": now.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("catalog: upserting model %s: %w", iface.ID, err)
	}
	return nil
}

func writeExtendsEdges(ctx context.Context, tx *store.Tx, graph string, iface *dtdl.Interface) error {
	for _, parent := range iface.Extends {
		_, err := tx.ExecutePGQL(ctx, graph, `
			MATCH (m:Model {dtmi: $child}), (p:Model {dtmi: $parent})
			MERGE (m)-[:_extends]->(p)
		`, map[string]interface{}{"child": iface.ID, "parent": parent})
		if err != nil {
			return fmt.Errorf("catalog: writing _extends edge %s->%s: %w", iface.ID, parent, err)
		}
	}
	if len(iface.Extends) > 0 {
		if err := tx.UpsertModelExtends(ctx, graph, string(iface.ID), iface.Extends); err != nil {
			return err
		}
	}
	return nil
}

func writeHasComponentEdges(ctx context.Context, tx *store.Tx, graph string, iface *dtdl.Interface) error {
	for _, c := range iface.Contents {
		if c.Kind != dtdl.KindComponent {
			continue
		}
		_, err := tx.ExecutePGQL(ctx, graph, `
			MATCH (m:Model {dtmi: $owner}), (s:Model {dtmi: $schema})
			MERGE (m)-[:_hasComponent {name: $name}]->(s)
		`, map[string]interface{}{"owner": iface.ID, "schema": c.ComponentSchema, "name": c.Name})
		if err != nil {
			return fmt.Errorf("catalog: writing _hasComponent edge %s.%s->%s: %w", iface.ID, c.Name, c.ComponentSchema, err)
		}
	}
	return nil
}

func appendDescendant(ctx context.Context, tx *store.Tx, graph string, ancestor, descendant dtdl.DTMI) error {
	_, err := tx.ExecutePGQL(ctx, graph, `
		MATCH (b:Model {dtmi: $ancestor})
		SET b.descendants = CASE
			WHEN $descendant IN b.descendants THEN b.descendants
			ELSE b.descendants + $descendant
		END
	`, map[string]interface{}{"ancestor": ancestor, "descendant": descendant})
	if err != nil {
		return fmt.Errorf("catalog: updating descendants of %s: %w", ancestor, err)
	}
	return nil
}

// validateInterfaceShape runs DTDL-semantic structural checks beyond
// parsing: every content name is unique and no relationship has a
// minMultiplicity above its maxMultiplicity. The form of component and
// relationship DTMI references is not checked here. Full
// schema-value validation happens in internal/dataplane against actual
// twin bodies; this is the model-authoring-time check spec §4.2 step 3
// calls "validate each model using DTDL semantics".
func validateInterfaceShape(iface *dtdl.Interface) []string {
	var issues []string
	seen := map[string]bool{}
	for _, c := range iface.Contents {
		if seen[c.Name] {
			issues = append(issues, fmt.Sprintf("duplicate content name %q", c.Name))
		}
		seen[c.Name] = true

		if c.Kind == dtdl.KindRelationship && c.MinMultiplicity != nil && c.MaxMultiplicity != nil {
			if *c.MinMultiplicity > *c.MaxMultiplicity {
				issues = append(issues, fmt.Sprintf("relationship %q: minMultiplicity > maxMultiplicity", c.Name))
			}
		}
	}
	return issues
}
