package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBatch_DuplicateDTMIFails(t *testing.T) {
	docs := [][]byte{
		[]byte(`{"@id": "dtmi:com:example:A;1", "@type": "Interface"}`),
		[]byte(`{"@id": "dtmi:com:example:A;1", "@type": "Interface"}`),
	}
	_, err := parseBatch(docs)
	require.Error(t, err)
	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)
}

func TestParseBatch_OrderPreserved(t *testing.T) {
	docs := [][]byte{
		[]byte(`{"@id": "dtmi:com:example:B;1", "@type": "Interface"}`),
		[]byte(`{"@id": "dtmi:com:example:A;1", "@type": "Interface"}`),
	}
	batch, err := parseBatch(docs)
	require.NoError(t, err)
	assert.Equal(t, []string{"dtmi:com:example:B;1", "dtmi:com:example:A;1"}, batch.order)
}

func TestModelFromVertexProperties_RoundTrip(t *testing.T) {
	vertex := map[string]interface{}{
		"properties": map[string]interface{}{
			"dtmi":           "dtmi:com:example:Thermostat;1",
			"dtdl_document":  `{"@id":"dtmi:com:example:Thermostat;1","@type":"Interface"}`,
			"bases":          []interface{}{"dtmi:com:example:Device;1"},
			"descendants":    []interface{}{},
			"decommissioned": false,
		},
	}
	model, err := modelFromVertexProperties(vertex)
	require.NoError(t, err)
	assert.Equal(t, "dtmi:com:example:Thermostat;1", model.ID)
	assert.Equal(t, []string{"dtmi:com:example:Device;1"}, model.Bases)
	assert.False(t, model.Decommissioned)
}

func TestModelFromVertexProperties_MissingDTMI(t *testing.T) {
	_, err := modelFromVertexProperties(map[string]interface{}{
		"properties": map[string]interface{}{},
	})
	assert.Error(t, err)
}
