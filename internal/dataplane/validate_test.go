package dataplane

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalgo/digitaltwins/internal/dtdl"
)

func mustFlatten(t *testing.T, doc string) *dtdl.Flattened {
	t.Helper()
	iface, err := dtdl.ParseInterface([]byte(doc))
	require.NoError(t, err)
	flat := dtdl.Flatten(iface, nil)
	return &flat
}

func TestValidateTwinBody_RejectsUndeclaredProperty(t *testing.T) {
	flattened := mustFlatten(t, `{
		"@id": "dtmi:com:example:Room;1", "@type": "Interface",
		"contents": [{"@type": "Property", "name": "temperature", "schema": "double"}]
	}`)
	issues := validateTwinBody(flattened, map[string]interface{}{"humidity": 40.0})
	require.Len(t, issues, 1)
	assert.Equal(t, "humidity", issues[0].Path)
}

func TestValidateTwinBody_CoercesWholeNumberIntoInteger(t *testing.T) {
	flattened := mustFlatten(t, `{
		"@id": "dtmi:com:example:Room;1", "@type": "Interface",
		"contents": [{"@type": "Property", "name": "count", "schema": "integer"}]
	}`)
	issues := validateTwinBody(flattened, map[string]interface{}{"count": float64(3)})
	assert.Empty(t, issues)
}

func TestValidateTwinBody_SkipsReservedKeys(t *testing.T) {
	flattened := mustFlatten(t, `{"@id": "dtmi:com:example:Room;1", "@type": "Interface"}`)
	issues := validateTwinBody(flattened, map[string]interface{}{
		"$dtId": "room1", "$etag": "x", "$metadata": map[string]interface{}{},
	})
	assert.Empty(t, issues)
}

func TestRequireModelID_MissingMetadataFails(t *testing.T) {
	_, err := requireModelID(map[string]interface{}{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrArgumentError)
}

func TestRequireModelID_Present(t *testing.T) {
	id, err := requireModelID(map[string]interface{}{
		"$metadata": map[string]interface{}{"$model": "dtmi:com:example:Room;1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "dtmi:com:example:Room;1", id)
}
