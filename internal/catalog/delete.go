package catalog

import (
	"context"
	"fmt"

	"github.com/evalgo/digitaltwins/internal/dtdl"
	"github.com/evalgo/digitaltwins/internal/store"
)

// DeleteModel removes a model, permitted only when no other model reaches
// it through an _extends or _hasComponent edge and no twin instantiates it
// (spec §4.2 Delete). A model named only as a relationship target does not
// block the delete. On success it removes the model from every
// ancestor's descendants array and deletes its outgoing _extends/
// _hasComponent edges.
func (c *Catalog) DeleteModel(ctx context.Context, dtmi dtdl.DTMI) error {
	model, err := c.fetchModelFromStore(ctx, dtmi)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrModelNotFound, dtmi)
	}

	referenced, err := c.isReferenced(ctx, dtmi)
	if err != nil {
		return err
	}
	if referenced {
		return fmt.Errorf("%w: %s", ErrModelReferencesNotDeleted, dtmi)
	}

	err = c.store.Transaction(ctx, c.graph, func(tx *store.Tx) error {
		for _, ancestor := range model.Bases {
			if _, err := tx.ExecutePGQL(ctx, c.graph, `
				MATCH (b:Model {dtmi: $ancestor})
				SET b.descendants = [x IN b.descendants WHERE x != $dtmi]
			`, map[string]interface{}{"ancestor": ancestor, "dtmi": dtmi}); err != nil {
				return err
			}
		}
		if _, err := tx.ExecutePGQL(ctx, c.graph, `
			MATCH (m:Model {dtmi: $dtmi})-[r:_extends|_hasComponent]->()
			DELETE r
		`, map[string]interface{}{"dtmi": dtmi}); err != nil {
			return err
		}
		_, err := tx.ExecutePGQL(ctx, c.graph, `
			MATCH (m:Model {dtmi: $dtmi})
			DELETE m
		`, map[string]interface{}{"dtmi": dtmi})
		return err
	})
	if err != nil {
		return fmt.Errorf("catalog: deleting model %s: %w", dtmi, err)
	}
	c.cache.invalidate(dtmi)
	return nil
}

// isReferenced reports whether any model extends dtmi or uses it as a
// component schema, or any twin instantiates it. Relationship targets are
// not counted.
func (c *Catalog) isReferenced(ctx context.Context, dtmi dtdl.DTMI) (bool, error) {
	count, err := c.store.ExecuteScalar(ctx, c.graph, `
		MATCH (m:Model)-[:_extends|_hasComponent]->(:Model {dtmi: $dtmi})
		RETURN COUNT(*)
	`, map[string]interface{}{"dtmi": dtmi})
	if err != nil {
		return false, fmt.Errorf("catalog: checking model references for %s: %w", dtmi, err)
	}
	if asCount(count) > 0 {
		return true, nil
	}

	twinCount, err := c.store.ExecuteScalar(ctx, c.graph, `
		MATCH (t:Twin {model: $dtmi})
		RETURN COUNT(*)
	`, map[string]interface{}{"dtmi": dtmi})
	if err != nil {
		return false, fmt.Errorf("catalog: checking twin instantiations for %s: %w", dtmi, err)
	}
	return asCount(twinCount) > 0, nil
}

func asCount(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	default:
		return 0
	}
}

// DeleteAllModels removes every model in the graph, backing the
// catalog-wide delete exposed through pkg/dtwinclient and the HTTP API
// (the delete job's Models phase deletes models one by one through
// DeleteModel instead). It deletes in descendant-before-ancestor order so
// isReferenced-style invariants are never violated mid-sweep.
func (c *Catalog) DeleteAllModels(ctx context.Context) (int, error) {
	var ids []dtdl.DTMI
	err := c.GetModels(ctx, GetOptions{}, func(view *ModelView) error {
		ids = append(ids, view.ID)
		return nil
	})
	if err != nil {
		return 0, err
	}

	order := topoOrderMostDerivedFirst(ids, func(id dtdl.DTMI) []dtdl.DTMI {
		model, err := c.fetchModelFromStore(ctx, id)
		if err != nil {
			return nil
		}
		return model.Descendants
	})

	deleted := 0
	for _, id := range order {
		if err := c.forceDeleteModel(ctx, id); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// forceDeleteModel deletes a model vertex and its outgoing edges
// unconditionally, used only by DeleteAllModels once descendant ordering
// has already made the reference-count check redundant.
func (c *Catalog) forceDeleteModel(ctx context.Context, dtmi dtdl.DTMI) error {
	err := c.store.Transaction(ctx, c.graph, func(tx *store.Tx) error {
		if _, err := tx.ExecutePGQL(ctx, c.graph, `
			MATCH (m:Model {dtmi: $dtmi})-[r]-()
			DELETE r
		`, map[string]interface{}{"dtmi": dtmi}); err != nil {
			return err
		}
		_, err := tx.ExecutePGQL(ctx, c.graph, `
			MATCH (m:Model {dtmi: $dtmi})
			DELETE m
		`, map[string]interface{}{"dtmi": dtmi})
		return err
	})
	if err != nil {
		return fmt.Errorf("catalog: force-deleting model %s: %w", dtmi, err)
	}
	c.cache.invalidate(dtmi)
	return nil
}

// topoOrderMostDerivedFirst orders ids so that every descendant of a
// model appears before it, using Kahn's algorithm over the descendants
// relation (a model with no remaining descendants is safe to delete
// next) — the same frontier-queue shape as graph/dag.go's
// GetExecutionOrder, applied to descendants instead of action
// dependencies.
func topoOrderMostDerivedFirst(ids []dtdl.DTMI, descendantsOf func(dtdl.DTMI) []dtdl.DTMI) []dtdl.DTMI {
	remaining := map[dtdl.DTMI]int{}
	for _, id := range ids {
		remaining[id] = len(descendantsOf(id))
	}

	var queue []dtdl.DTMI
	for _, id := range ids {
		if remaining[id] == 0 {
			queue = append(queue, id)
		}
	}

	parentsOf := map[dtdl.DTMI][]dtdl.DTMI{}
	for _, id := range ids {
		for _, d := range descendantsOf(id) {
			parentsOf[d] = append(parentsOf[d], id)
		}
	}

	var order []dtdl.DTMI
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, parent := range parentsOf[id] {
			remaining[parent]--
			if remaining[parent] == 0 {
				queue = append(queue, parent)
			}
		}
	}
	if len(order) != len(ids) {
		return ids // fallback: leave original order if the descendants graph doesn't resolve cleanly
	}
	return order
}
