package catalog

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/evalgo/digitaltwins/internal/dtdl"
)

// parsedBatch holds the parse + reference-closure results for one
// CreateModels call (spec §4.2 steps 1-2).
type parsedBatch struct {
	byID  map[dtdl.DTMI]*dtdl.Interface
	order []dtdl.DTMI // batch input order, preserved for deterministic error messages
}

// parseBatch parses every document and indexes it by DTMI, rejecting a
// batch where two documents declare the same @id (spec doesn't require
// this explicitly; an intra-batch DTMI collision cannot possibly both be
// created, so it fails early with a ResolutionError, while collisions
// with already-stored models are reported as ModelAlreadyExists).
func parseBatch(docs [][]byte) (*parsedBatch, error) {
	batch := &parsedBatch{byID: make(map[dtdl.DTMI]*dtdl.Interface, len(docs))}
	for _, doc := range docs {
		iface, err := dtdl.ParseInterface(doc)
		if err != nil {
			return nil, err
		}
		if _, exists := batch.byID[iface.ID]; exists {
			return nil, &ResolutionError{Unresolved: []string{iface.ID + " (duplicate in batch)"}}
		}
		batch.byID[iface.ID] = iface
		batch.order = append(batch.order, iface.ID)
	}
	return batch, nil
}

// resolveReferences computes the full set of DTMIs referenced (directly
// or transitively via extends) by the batch, fetching anything not
// present in the batch from the store, and fails the whole batch with
// ResolutionError if any reference remains unresolved (spec §4.2 step 2).
//
// It returns every resolved ancestor Interface needed to compute bases
// closures in bases.go, keyed by DTMI, including batch-local interfaces.
func (c *Catalog) resolveReferences(ctx context.Context, batch *parsedBatch) (map[dtdl.DTMI]*dtdl.Interface, error) {
	resolved := make(map[dtdl.DTMI]*dtdl.Interface, len(batch.byID))
	for id, iface := range batch.byID {
		resolved[id] = iface
	}

	frontier := make([]dtdl.DTMI, 0, len(batch.byID))
	for _, iface := range batch.byID {
		extends, componentSchemas, relationshipTargets := dtdl.References(iface)
		frontier = append(frontier, extends...)
		frontier = append(frontier, componentSchemas...)
		frontier = append(frontier, relationshipTargets...)
	}

	var unresolved []string
	seen := map[dtdl.DTMI]bool{}
	for len(frontier) > 0 {
		id := frontier[0]
		frontier = frontier[1:]
		if seen[id] {
			continue
		}
		seen[id] = true

		if _, ok := resolved[id]; ok {
			continue
		}

		iface, err := c.fetchInterface(ctx, id)
		if err != nil {
			unresolved = append(unresolved, id)
			continue
		}
		resolved[id] = iface
		extends, componentSchemas, relationshipTargets := dtdl.References(iface)
		frontier = append(frontier, extends...)
		frontier = append(frontier, componentSchemas...)
		frontier = append(frontier, relationshipTargets...)
	}

	if len(unresolved) > 0 {
		sort.Strings(unresolved)
		return nil, &ResolutionError{Unresolved: unresolved}
	}
	return resolved, nil
}

// fetchInterface loads a model's DTDL document from the cache or store
// and parses it, without applying the full Get/List projection logic in
// read.go (this is an internal helper used only for reference resolution
// and bases computation).
func (c *Catalog) fetchInterface(ctx context.Context, dtmi dtdl.DTMI) (*dtdl.Interface, error) {
	model, err := c.loadModel(ctx, dtmi)
	if err != nil {
		return nil, err
	}
	return model.Interface()
}

// loadModel fetches one model row from cache-or-store without expanding
// its flattened view, used both by Get and internally by resolution.
func (c *Catalog) loadModel(ctx context.Context, dtmi dtdl.DTMI) (*Model, error) {
	if cached, ok, stale := c.cache.get(ctx, dtmi); ok {
		if stale {
			go c.refreshModel(dtmi)
		}
		return cached, nil
	}

	model, err := c.fetchModelFromStore(ctx, dtmi)
	if err != nil {
		return nil, err
	}
	c.cache.put(dtmi, model)
	return model, nil
}

func (c *Catalog) refreshModel(dtmi dtdl.DTMI) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	model, err := c.fetchModelFromStore(ctx, dtmi)
	if err != nil {
		return
	}
	c.cache.put(dtmi, model)
}

func (c *Catalog) fetchModelFromStore(ctx context.Context, dtmi dtdl.DTMI) (*Model, error) {
	record, err := c.store.ExecuteScalar(ctx, c.graph,
		`MATCH (m:Model {dtmi: $dtmi}) RETURN m`,
		map[string]interface{}{"dtmi": dtmi})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, dtmi)
	}
	props, ok := record.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, dtmi)
	}
	return modelFromVertexProperties(props)
}
