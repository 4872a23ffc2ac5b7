package dtdl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatten_DerivedShadowsBase(t *testing.T) {
	base, err := ParseInterface([]byte(`{
	  "@id": "dtmi:com:example:Device;1",
	  "@type": "Interface",
	  "contents": [
	    {"@type": "Property", "name": "name", "schema": "string"},
	    {"@type": "Telemetry", "name": "uptime", "schema": "integer"}
	  ]
	}`))
	require.NoError(t, err)

	derived, err := ParseInterface([]byte(`{
	  "@id": "dtmi:com:example:Thermostat;1",
	  "@type": "Interface",
	  "extends": "dtmi:com:example:Device;1",
	  "contents": [
	    {"@type": "Property", "name": "name", "schema": "integer"},
	    {"@type": "Property", "name": "targetTemperature", "schema": "double"}
	  ]
	}`))
	require.NoError(t, err)

	flat := Flatten(derived, []*Interface{base})

	require.Len(t, flat.Properties, 2)
	name, ok := flat.FindProperty("name")
	require.True(t, ok)
	assert.Equal(t, PrimitiveInteger, name.Schema.Primitive, "derived definition must shadow base")

	_, ok = flat.FindProperty("targetTemperature")
	assert.True(t, ok)

	require.Len(t, flat.Telemetries, 1)
	_, ok = flat.FindRelationship("uptime")
	assert.False(t, ok, "telemetry must not appear as a relationship")
}

func TestValidateValue_PrimitiveCoercion(t *testing.T) {
	schema := &Schema{Kind: SchemaPrimitive, Primitive: PrimitiveInteger}

	issues := ValidateValue(schema, float64(42), "/count", nil)
	assert.Empty(t, issues)

	issues = ValidateValue(schema, float64(42.5), "/count", nil)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Reason, "whole number")
}

func TestValidateValue_ObjectRejectsUndeclaredField(t *testing.T) {
	schema := &Schema{
		Kind: SchemaObject,
		Fields: []ObjectField{
			{Name: "lat", Schema: &Schema{Kind: SchemaPrimitive, Primitive: PrimitiveDouble}},
		},
	}
	value := map[string]interface{}{"lat": 1.0, "lon": 2.0}
	issues := ValidateValue(schema, value, "/location", nil)
	require.Len(t, issues, 1)
	assert.Equal(t, "/location/lon", issues[0].Path)
}

func TestValidateValue_EnumRejectsUnknownMember(t *testing.T) {
	schema := &Schema{
		Kind:        SchemaEnum,
		ValueSchema: "string",
		EnumValues:  []EnumValue{{Name: "ok", EnumValue: "ok"}},
	}
	issues := ValidateValue(schema, "fault", "/status", nil)
	require.Len(t, issues, 1)
}
