package catalog

import (
	"context"
	"fmt"

	"github.com/evalgo/digitaltwins/internal/dtdl"
)

// ModelView is the projection returned by Get/List, shaped by GetOptions.
type ModelView struct {
	Model
	Flattened *FlattenedView
}

// GetModel returns one model, optionally including its raw DTDL document
// and/or a flattened properties/relationships/components/telemetries view
// merged from all its bases (spec §4.2 Get/List).
func (c *Catalog) GetModel(ctx context.Context, dtmi dtdl.DTMI, opts GetOptions) (*ModelView, error) {
	model, err := c.loadModel(ctx, dtmi)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, dtmi)
	}

	view := &ModelView{Model: *model}
	if !opts.IncludeDocument {
		view.Model.DTDLDocument = nil
	}
	if opts.IncludeFlattened {
		flattened, err := c.flattenModel(ctx, model)
		if err != nil {
			return nil, err
		}
		view.Flattened = &flattened
	}
	return view, nil
}

func (c *Catalog) flattenModel(ctx context.Context, model *Model) (FlattenedView, error) {
	iface, err := model.Interface()
	if err != nil {
		return FlattenedView{}, err
	}

	baseIfaces := make([]*dtdl.Interface, 0, len(model.Bases))
	for _, b := range model.Bases {
		baseModel, err := c.loadModel(ctx, b)
		if err != nil {
			continue // a base may have been deleted out from under a stale bases array; best-effort flatten
		}
		baseIface, err := baseModel.Interface()
		if err != nil {
			continue
		}
		baseIfaces = append(baseIfaces, baseIface)
	}

	return dtdl.Flatten(iface, baseIfaces), nil
}

// GetModels streams every model in the catalog to fn, stopping (and
// returning fn's error) the first time fn returns a non-nil error. This
// mirrors internal/store's ExecuteStream lazy-cursor contract rather than
// materializing every model up front.
func (c *Catalog) GetModels(ctx context.Context, opts GetOptions, fn func(*ModelView) error) error {
	iter, err := c.store.ExecuteStream(ctx, c.graph, `MATCH (m:Model) RETURN m`, nil)
	if err != nil {
		return err
	}
	defer iter.Close()

	for {
		record, hasNext, err := iter.Next()
		if err != nil {
			return err
		}
		if !hasNext {
			return nil
		}
		vertex, err := record.GetMap("m")
		if err != nil {
			return err
		}
		model, err := modelFromVertexProperties(vertex)
		if err != nil {
			return err
		}

		view := &ModelView{Model: *model}
		if !opts.IncludeDocument {
			view.Model.DTDLDocument = nil
		}
		if opts.IncludeFlattened {
			flattened, err := c.flattenModel(ctx, model)
			if err != nil {
				return err
			}
			view.Flattened = &flattened
		}
		if err := fn(view); err != nil {
			return err
		}
	}
}
