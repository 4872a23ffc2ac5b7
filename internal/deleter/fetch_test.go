package deleter

import (
	"testing"

	"github.com/evalgo/digitaltwins/internal/dtdl"
)

func TestTopoOrderLeavesFirst_DescendantBeforeAncestor(t *testing.T) {
	room := dtdl.DTMI("dtmi:example:Room;1")
	space := dtdl.DTMI("dtmi:example:Space;1") // Room extends Space
	building := dtdl.DTMI("dtmi:example:Building;1")

	ids := []dtdl.DTMI{space, room, building}
	descendantsOf := map[dtdl.DTMI][]dtdl.DTMI{
		space:    {room},
		room:     nil,
		building: nil,
	}

	order := topoOrderLeavesFirst(ids, descendantsOf)
	if len(order) != len(ids) {
		t.Fatalf("order length = %d, want %d", len(order), len(ids))
	}

	pos := make(map[dtdl.DTMI]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	if pos[room] >= pos[space] {
		t.Fatalf("expected Room (descendant) before Space (ancestor): order=%v", order)
	}
}

func TestTopoOrderLeavesFirst_NoEdgesPreservesAll(t *testing.T) {
	a := dtdl.DTMI("dtmi:example:A;1")
	b := dtdl.DTMI("dtmi:example:B;1")
	ids := []dtdl.DTMI{a, b}

	order := topoOrderLeavesFirst(ids, map[dtdl.DTMI][]dtdl.DTMI{})
	if len(order) != 2 {
		t.Fatalf("order length = %d, want 2", len(order))
	}
}
