package catalog

import (
	"context"
	"fmt"

	"github.com/evalgo/digitaltwins/internal/dtdl"
	"github.com/evalgo/digitaltwins/internal/store"
)

// UpdateModel toggles a model's decommissioned flag. Must not be called
// on a missing model (spec §4.2 Update: "Must not be called on a missing
// model (ModelNotFound)").
func (c *Catalog) UpdateModel(ctx context.Context, dtmi dtdl.DTMI, decommissioned bool) error {
	if _, err := c.fetchModelFromStore(ctx, dtmi); err != nil {
		return fmt.Errorf("%w: %s", ErrModelNotFound, dtmi)
	}

	err := c.store.Transaction(ctx, c.graph, func(tx *store.Tx) error {
		_, err := tx.ExecutePGQL(ctx, c.graph, `
			MATCH (m:Model {dtmi: $dtmi})
			SET m.decommissioned = $decommissioned
		`, map[string]interface{}{"dtmi": dtmi, "decommissioned": decommissioned})
		return err
	})
	if err != nil {
		return fmt.Errorf("catalog: updating model %s: %w", dtmi, err)
	}
	c.cache.invalidate(dtmi)
	return nil
}

// CreateOrReplaceModel replaces an existing model's document in place,
// subject to spec §4.2 Replace's three invariants:
//
//  (a) @id matches the target
//  (b) the set of direct extends is unchanged (ErrModelExtendsChanged)
//  (c) no newly-added content name collides with any name already
//      defined by any descendant (ErrModelUpdateValidationError)
//
// On success, _hasComponent edges are diffed to add/remove so the graph
// reflects the new contents exactly (spec §4.2 Replace).
func (c *Catalog) CreateOrReplaceModel(ctx context.Context, dtmi dtdl.DTMI, doc []byte) error {
	existing, err := c.fetchModelFromStore(ctx, dtmi)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrModelNotFound, dtmi)
	}
	existingIface, err := existing.Interface()
	if err != nil {
		return err
	}

	newIface, err := dtdl.ParseInterface(doc)
	if err != nil {
		return err
	}
	if newIface.ID != dtmi {
		return fmt.Errorf("catalog: replace document @id %q does not match target %q", newIface.ID, dtmi)
	}
	if !sameStringSet(newIface.Extends, existingIface.Extends) {
		return fmt.Errorf("%w: %s", ErrModelExtendsChanged, dtmi)
	}

	if err := c.checkDescendantCollisions(ctx, dtmi, existing.Descendants, existingIface, newIface); err != nil {
		return err
	}

	oldComponents := componentEdgesOf(existingIface)
	newComponents := componentEdgesOf(newIface)

	err = c.store.Transaction(ctx, c.graph, func(tx *store.Tx) error {
		_, err := tx.ExecutePGQL(ctx, c.graph, `
			MATCH (m:Model {dtmi: $dtmi})
			SET m.dtdl_document = $document
		`, map[string]interface{}{"dtmi": dtmi, "document": string(doc)})
		if err != nil {
			return err
		}

		for name, schema := range oldComponents {
			if newComponents[name] != schema {
				if _, err := tx.ExecutePGQL(ctx, c.graph, `
					MATCH (m:Model {dtmi: $owner})-[r:_hasComponent {name: $name}]->(:Model {dtmi: $schema})
					DELETE r
				`, map[string]interface{}{"owner": dtmi, "name": name, "schema": schema}); err != nil {
					return err
				}
			}
		}
		for name, schema := range newComponents {
			if oldComponents[name] != schema {
				if err := writeHasComponentEdges(ctx, tx, c.graph, newIface); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("catalog: replacing model %s: %w", dtmi, err)
	}
	c.cache.invalidate(dtmi)
	return nil
}

func componentEdgesOf(iface *dtdl.Interface) map[string]dtdl.DTMI {
	out := map[string]dtdl.DTMI{}
	for _, c := range iface.Contents {
		if c.Kind == dtdl.KindComponent {
			out[c.Name] = c.ComponentSchema
		}
	}
	return out
}

// checkDescendantCollisions enforces invariant (c): no newly-added
// content name on newIface may collide with a name any descendant
// already declares.
func (c *Catalog) checkDescendantCollisions(ctx context.Context, dtmi dtdl.DTMI, descendants []dtdl.DTMI, oldIface, newIface *dtdl.Interface) error {
	oldNames := map[string]bool{}
	for _, content := range oldIface.Contents {
		oldNames[content.Name] = true
	}
	newNames := map[string]bool{}
	for _, content := range newIface.Contents {
		if !oldNames[content.Name] {
			newNames[content.Name] = true
		}
	}

	for _, descendantID := range descendants {
		descendantModel, err := c.fetchModelFromStore(ctx, descendantID)
		if err != nil {
			continue
		}
		descendantIface, err := descendantModel.Interface()
		if err != nil {
			continue
		}
		for _, content := range descendantIface.Contents {
			if newNames[content.Name] {
				return fmt.Errorf("%w: %s: %q collides with descendant %s", ErrModelUpdateValidationError, dtmi, content.Name, descendantID)
			}
		}
	}
	return nil
}

func sameStringSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := map[string]bool{}
	for _, s := range a {
		set[s] = true
	}
	for _, s := range b {
		if !set[s] {
			return false
		}
	}
	return true
}
