package dtdl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const thermostatDoc = `{
  "@context": "dtmi:dtdl:context;3",
  "@id": "dtmi:com:example:Thermostat;1",
  "@type": "Interface",
  "extends": "dtmi:com:example:Device;1",
  "contents": [
    {"@type": "Property", "name": "targetTemperature", "schema": "double", "writable": true},
    {"@type": "Telemetry", "name": "temperature", "schema": "double"},
    {
      "@type": "Relationship",
      "name": "hosts",
      "target": "dtmi:com:example:Sensor;1",
      "maxMultiplicity": 10
    },
    {
      "@type": "Component",
      "name": "thermostatFirmware",
      "schema": "dtmi:com:example:Firmware;1"
    }
  ]
}`

func TestParseInterface_Thermostat(t *testing.T) {
	iface, err := ParseInterface([]byte(thermostatDoc))
	require.NoError(t, err)

	assert.Equal(t, "dtmi:com:example:Thermostat;1", iface.ID)
	assert.Equal(t, []string{"dtmi:com:example:Device;1"}, iface.Extends)
	require.Len(t, iface.Contents, 4)

	prop := iface.Contents[0]
	assert.Equal(t, KindProperty, prop.Kind)
	assert.True(t, prop.Writable)
	require.NotNil(t, prop.Schema)
	assert.Equal(t, SchemaPrimitive, prop.Schema.Kind)
	assert.Equal(t, PrimitiveDouble, prop.Schema.Primitive)

	rel := iface.Contents[2]
	assert.Equal(t, KindRelationship, rel.Kind)
	assert.Equal(t, "dtmi:com:example:Sensor;1", rel.Target)
	require.NotNil(t, rel.MaxMultiplicity)
	assert.Equal(t, 10, *rel.MaxMultiplicity)

	comp := iface.Contents[3]
	assert.Equal(t, KindComponent, comp.Kind)
	assert.Equal(t, "dtmi:com:example:Firmware;1", comp.ComponentSchema)
}

func TestParseInterface_MissingID(t *testing.T) {
	_, err := ParseInterface([]byte(`{"@type": "Interface"}`))
	assert.Error(t, err)
}

func TestParseInterface_WrongType(t *testing.T) {
	_, err := ParseInterface([]byte(`{"@id": "dtmi:a:b;1", "@type": "Telemetry"}`))
	assert.Error(t, err)
}

func TestParseInterface_ObjectAndEnumSchema(t *testing.T) {
	doc := `{
	  "@id": "dtmi:com:example:Reading;1",
	  "@type": "Interface",
	  "contents": [
	    {
	      "@type": "Property",
	      "name": "status",
	      "schema": {
	        "@type": "Enum",
	        "valueSchema": "string",
	        "enumValues": [
	          {"name": "ok", "enumValue": "ok"},
	          {"name": "fault", "enumValue": "fault"}
	        ]
	      }
	    },
	    {
	      "@type": "Property",
	      "name": "location",
	      "schema": {
	        "@type": "Object",
	        "fields": [
	          {"name": "lat", "schema": "double"},
	          {"name": "lon", "schema": "double"}
	        ]
	      }
	    },
	    {
	      "@type": "Property",
	      "name": "tags",
	      "schema": {
	        "@type": "Array",
	        "elementSchema": "string"
	      }
	    },
	    {
	      "@type": "Property",
	      "name": "labels",
	      "schema": {
	        "@type": "Map",
	        "mapKey": {"name": "k", "schema": "string"},
	        "mapValue": {"name": "v", "schema": "string"}
	      }
	    }
	  ]
	}`

	iface, err := ParseInterface([]byte(doc))
	require.NoError(t, err)
	require.Len(t, iface.Contents, 4)

	assert.Equal(t, SchemaEnum, iface.Contents[0].Schema.Kind)
	assert.Len(t, iface.Contents[0].Schema.EnumValues, 2)

	assert.Equal(t, SchemaObject, iface.Contents[1].Schema.Kind)
	assert.Len(t, iface.Contents[1].Schema.Fields, 2)

	assert.Equal(t, SchemaArray, iface.Contents[2].Schema.Kind)
	assert.Equal(t, PrimitiveString, iface.Contents[2].Schema.ElementSchema.Primitive)

	assert.Equal(t, SchemaMap, iface.Contents[3].Schema.Kind)
	assert.Equal(t, PrimitiveString, iface.Contents[3].Schema.MapValue.Primitive)
}

func TestReferences(t *testing.T) {
	iface, err := ParseInterface([]byte(thermostatDoc))
	require.NoError(t, err)

	extends, componentSchemas, relationshipTargets := References(iface)
	assert.Equal(t, []string{"dtmi:com:example:Device;1"}, extends)
	assert.Equal(t, []string{"dtmi:com:example:Firmware;1"}, componentSchemas)
	assert.Equal(t, []string{"dtmi:com:example:Sensor;1"}, relationshipTargets)
}
