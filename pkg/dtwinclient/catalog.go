package dtwinclient

import (
	"context"

	"github.com/evalgo/digitaltwins/internal/catalog"
	"github.com/evalgo/digitaltwins/internal/dtdl"
)

// CreateModels bulk-creates one or more DTDL interface documents (spec
// §4.2), resolving cross-references within the batch and against what is
// already persisted.
func (c *Client) CreateModels(ctx context.Context, docs [][]byte) ([]catalog.ModelData, error) {
	return c.Catalog.CreateModels(ctx, docs)
}

// GetModel returns one catalog entry, optionally including its raw DTDL
// document and/or a flattened bases-merged view.
func (c *Client) GetModel(ctx context.Context, dtmi dtdl.DTMI, opts catalog.GetOptions) (*catalog.ModelView, error) {
	return c.Catalog.GetModel(ctx, dtmi, opts)
}

// GetModels streams every model in the catalog to fn.
func (c *Client) GetModels(ctx context.Context, opts catalog.GetOptions, fn func(*catalog.ModelView) error) error {
	return c.Catalog.GetModels(ctx, opts, fn)
}

// CreateOrReplaceModel upserts a single model document in place.
func (c *Client) CreateOrReplaceModel(ctx context.Context, dtmi dtdl.DTMI, doc []byte) error {
	return c.Catalog.CreateOrReplaceModel(ctx, dtmi, doc)
}

// UpdateModel toggles a model's decommissioned flag (spec §4.2's only
// supported partial update).
func (c *Client) UpdateModel(ctx context.Context, dtmi dtdl.DTMI, decommissioned bool) error {
	return c.Catalog.UpdateModel(ctx, dtmi, decommissioned)
}

// DeleteModel removes one model, failing with catalog.ErrModelReferencesNotDeleted
// if any twin still references it or any other model still extends it.
func (c *Client) DeleteModel(ctx context.Context, dtmi dtdl.DTMI) error {
	return c.Catalog.DeleteModel(ctx, dtmi)
}

// DeleteAllModels removes every model in the catalog in descendants-first
// order, bypassing the single-model reference check (spec §4.2's bulk
// variant). Prefer Client.DeleteAll for a full graph wipe that also
// drains twins/relationships first.
func (c *Client) DeleteAllModels(ctx context.Context) (int, error) {
	return c.Catalog.DeleteAllModels(ctx)
}

// IsOfModel reports whether twinID's model is dtmi or (unless exact)
// descends from it.
func (c *Client) IsOfModel(ctx context.Context, twinID string, dtmi dtdl.DTMI, exact bool) (bool, error) {
	return c.Catalog.IsOfModel(ctx, twinID, dtmi, exact)
}
