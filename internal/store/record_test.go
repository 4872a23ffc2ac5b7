package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAgtypeRow_VertexAnnotation(t *testing.T) {
	raw := `{"T": {"id": 1125899906842625, "label": "Twin", "properties": {"$dtId": "thermostat-1"}}}::vertex`
	record, err := decodeAgtypeRow(raw)
	require.NoError(t, err)

	twin, err := record.GetMap("T")
	require.NoError(t, err)
	props, ok := twin["properties"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "thermostat-1", props["$dtId"])
}

func TestDecodeAgtypeRow_ScalarNoAnnotation(t *testing.T) {
	raw := `{"count": 42}`
	record, err := decodeAgtypeRow(raw)
	require.NoError(t, err)
	n, err := record.GetInt64("count")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}

func TestRecord_GetMissingField(t *testing.T) {
	record, err := decodeAgtypeRow(`{"a": 1}`)
	require.NoError(t, err)
	_, err = record.GetString("b")
	assert.Error(t, err)
}

func TestStripAgtypeAnnotations_NestedObjects(t *testing.T) {
	raw := `{"R": {"id": 1, "properties": {}}::edge, "T": {"id": 2}::vertex}`
	cleaned := stripAgtypeAnnotations(raw)
	assert.NotContains(t, cleaned, "::edge")
	assert.NotContains(t, cleaned, "::vertex")
}

func TestMarshalParams_NilBecomesEmptyObject(t *testing.T) {
	payload, err := marshalParams(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", payload)
}

func TestMarshalParams_RoundTrip(t *testing.T) {
	payload, err := marshalParams(map[string]interface{}{"dtmi": "dtmi:com:example:Thermostat;1"})
	require.NoError(t, err)
	assert.Contains(t, payload, "dtmi:com:example:Thermostat;1")
}
