package dataplane

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateOrReplaceDigitalTwins_OverBatchLimitNamesCountAndLimit(t *testing.T) {
	items := make(map[string]map[string]interface{}, MaxBatchSize+1)
	for i := 0; i < MaxBatchSize+1; i++ {
		items[fmt.Sprintf("twin-%d", i)] = map[string]interface{}{}
	}

	var d Dataplane
	_, err := d.CreateOrReplaceDigitalTwins(nil, items)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrArgumentError)
	require.Contains(t, err.Error(), "101")
	require.Contains(t, err.Error(), "100")
}

func TestCreateOrReplaceRelationships_OverBatchLimitNamesCountAndLimit(t *testing.T) {
	items := make([]RelationshipCreateRequest, MaxBatchSize+1)

	var d Dataplane
	_, err := d.CreateOrReplaceRelationships(nil, items)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrArgumentError)
	require.Contains(t, err.Error(), "101")
	require.Contains(t, err.Error(), "100")
}
