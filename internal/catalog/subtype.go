package catalog

import (
	"context"
	"fmt"

	"github.com/evalgo/digitaltwins/internal/dtdl"
)

// IsOfModel calls through to the store-side is_of_model helper routine
// (spec §4.2 Subtype test), which internal/store's CreateGraph installs
// as a plpgsql function consulting each Model's materialized bases array.
func (c *Catalog) IsOfModel(ctx context.Context, twinID string, dtmi dtdl.DTMI, exact bool) (bool, error) {
	sql := fmt.Sprintf(`SELECT %s.is_of_model($1, $2, $3)`, quoteSchema(c.graph))
	result, err := c.store.QueryScalarSQL(ctx, sql, twinID, dtmi, exact)
	if err != nil {
		return false, err
	}
	b, _ := result.(bool)
	return b, nil
}

func quoteSchema(graph string) string {
	return `"` + graph + `"`
}

// isOfModelOld is the Go-side reference implementation of the recursive
// _extends walk, retained for the behavioral-equivalence test spec §8
// requires between it and the materialized-bases fast path (and, at the
// SQL layer, matches internal/store's is_of_model_old routine kept under
// the same suffix "for benchmarking"). It explores every ancestor reachable
// through every parent (a full frontier walk, not a single chain), so
// multi-parent/diamond inheritance (spec §8 scenario 6) is answered
// correctly.
func (c *Catalog) isOfModelOld(ctx context.Context, twinModel dtdl.DTMI, dtmi dtdl.DTMI, exact bool) (bool, error) {
	if twinModel == dtmi {
		return true, nil
	}
	if exact {
		return false, nil
	}

	visited := map[dtdl.DTMI]bool{twinModel: true}
	frontier := []dtdl.DTMI{twinModel}
	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]

		model, err := c.fetchModelFromStore(ctx, current)
		if err != nil {
			continue
		}
		iface, err := model.Interface()
		if err != nil {
			return false, err
		}
		for _, parent := range iface.Extends {
			if parent == dtmi {
				return true, nil
			}
			if !visited[parent] {
				visited[parent] = true
				frontier = append(frontier, parent)
			}
		}
	}
	return false, nil
}
