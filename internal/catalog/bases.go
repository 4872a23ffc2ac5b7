package catalog

import (
	"sort"

	"github.com/evalgo/digitaltwins/internal/dtdl"
)

// computeBases returns the transitive closure of iface's `extends` chain:
// breadth-first, ties broken by DTMI lexicographic order (spec §4.2 step
// 4), using resolved to look up each ancestor's own Extends list.
//
// Grounded on graph/dag.go's GetExecutionOrder, whose Kahn's-algorithm
// frontier-queue shape is reused here for a closure walk rather than a
// topological sort: instead of an in-degree counter gating when a node
// joins the queue, every newly discovered ancestor is enqueued once and
// the loop simply accumulates the visited set. Each level is consumed to
// completion (sorted) before any of its discoveries join the next level,
// so the walk is level-major: no grandparent reached off an early parent
// in a level can be popped ahead of a sibling still waiting in that same
// level, which a single re-sorted flat queue would allow.
func computeBases(iface *dtdl.Interface, resolved map[dtdl.DTMI]*dtdl.Interface) []dtdl.DTMI {
	visited := map[dtdl.DTMI]bool{}
	var bases []dtdl.DTMI

	level := append([]dtdl.DTMI{}, iface.Extends...)
	for len(level) > 0 {
		sort.Strings(level)

		var nextLevel []dtdl.DTMI
		for _, id := range level {
			if visited[id] {
				continue
			}
			visited[id] = true
			bases = append(bases, id)

			parent, ok := resolved[id]
			if !ok {
				continue
			}
			for _, grandparent := range parent.Extends {
				if !visited[grandparent] {
					nextLevel = append(nextLevel, grandparent)
				}
			}
		}
		level = nextLevel
	}

	return bases
}

// descendantsUpdate computes, for a newly created model M with bases
// list, the set of ancestor DTMIs whose `descendants` array must gain M
// (spec §4.2 step 5: "for each new model M, and each b in M.bases, add M
// to b.descendants atomically").
func descendantsUpdate(modelID dtdl.DTMI, bases []dtdl.DTMI) map[dtdl.DTMI]dtdl.DTMI {
	updates := make(map[dtdl.DTMI]dtdl.DTMI, len(bases))
	for _, b := range bases {
		updates[b] = modelID
	}
	return updates
}
