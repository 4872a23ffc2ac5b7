package api

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/evalgo/digitaltwins/internal/dataplane"
)

func TestTwinJSON_MergesBodyAndReservedKeys(t *testing.T) {
	twin := &dataplane.Twin{
		ID:      "room-1",
		ModelID: "dtmi:example:Room;1",
		ETag:    "abc123",
		Body:    map[string]interface{}{"temperature": 21.5},
	}
	out := twinJSON(twin)
	require.Equal(t, "room-1", out["$dtId"])
	require.Equal(t, "abc123", out["$etag"])
	require.Equal(t, 21.5, out["temperature"])
}

func TestRelationshipJSON_MergesBodyAndReservedKeys(t *testing.T) {
	rel := &dataplane.Relationship{
		ID:       "rel-1",
		SourceID: "room-1",
		TargetID: "floor-1",
		Name:     "locatedIn",
		ETag:     "xyz789",
		Body:     map[string]interface{}{"distance": 3},
	}
	out := relationshipJSON(rel)
	require.Equal(t, "rel-1", out["$relationshipId"])
	require.Equal(t, "room-1", out["$sourceId"])
	require.Equal(t, "floor-1", out["$targetId"])
	require.Equal(t, "locatedIn", out["$relationshipName"])
	require.Equal(t, 3, out["distance"])
}

func TestBatchResultJSON_SeparatesSuccessesAndFailures(t *testing.T) {
	result := &dataplane.BatchResult{
		Successes: []dataplane.BatchItemResult{{ID: "a"}},
		Failures:  []dataplane.BatchItemResult{{ID: "b", Error: dataplane.ErrArgumentError}},
	}
	out := batchResultJSON(result)
	successes := out["successes"].([]string)
	require.Equal(t, []string{"a"}, successes)
	require.Len(t, out["failures"], 1)
}
