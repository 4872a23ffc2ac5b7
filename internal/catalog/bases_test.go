package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalgo/digitaltwins/internal/dtdl"
)

func mustParse(t *testing.T, doc string) *dtdl.Interface {
	t.Helper()
	iface, err := dtdl.ParseInterface([]byte(doc))
	require.NoError(t, err)
	return iface
}

func TestComputeBases_DiamondInheritance(t *testing.T) {
	device := mustParse(t, `{"@id": "dtmi:com:example:Device;1", "@type": "Interface"}`)
	sensor := mustParse(t, `{"@id": "dtmi:com:example:Sensor;1", "@type": "Interface", "extends": "dtmi:com:example:Device;1"}`)
	actuator := mustParse(t, `{"@id": "dtmi:com:example:Actuator;1", "@type": "Interface", "extends": "dtmi:com:example:Device;1"}`)
	thermostat := mustParse(t, `{"@id": "dtmi:com:example:Thermostat;1", "@type": "Interface", "extends": ["dtmi:com:example:Sensor;1", "dtmi:com:example:Actuator;1"]}`)

	resolved := map[dtdl.DTMI]*dtdl.Interface{
		device.ID:     device,
		sensor.ID:     sensor,
		actuator.ID:   actuator,
		thermostat.ID: thermostat,
	}

	bases := computeBases(thermostat, resolved)
	assert.ElementsMatch(t, []string{
		"dtmi:com:example:Sensor;1",
		"dtmi:com:example:Actuator;1",
		"dtmi:com:example:Device;1",
	}, bases)

	// Device must appear exactly once despite being reachable via both
	// Sensor and Actuator (diamond inheritance).
	count := 0
	for _, b := range bases {
		if b == "dtmi:com:example:Device;1" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestComputeBases_LevelMajorOrder(t *testing.T) {
	// M extends [W, Y, Z] (level 1); W extends [AAA] (level 2). AAA sorts
	// before Y and Z lexicographically, but it must not be popped until
	// every level-1 ancestor has been visited: a walk that merely
	// re-sorts one flat frontier (instead of draining a full level before
	// admitting the next) would interleave AAA ahead of Y/Z.
	aaa := mustParse(t, `{"@id": "dtmi:com:example:AAA;1", "@type": "Interface"}`)
	w := mustParse(t, `{"@id": "dtmi:com:example:WWW;1", "@type": "Interface", "extends": "dtmi:com:example:AAA;1"}`)
	y := mustParse(t, `{"@id": "dtmi:com:example:YYY;1", "@type": "Interface"}`)
	z := mustParse(t, `{"@id": "dtmi:com:example:ZZZ;1", "@type": "Interface"}`)
	m := mustParse(t, `{"@id": "dtmi:com:example:MMM;1", "@type": "Interface", "extends": ["dtmi:com:example:WWW;1", "dtmi:com:example:YYY;1", "dtmi:com:example:ZZZ;1"]}`)

	resolved := map[dtdl.DTMI]*dtdl.Interface{
		aaa.ID: aaa,
		w.ID:   w,
		y.ID:   y,
		z.ID:   z,
		m.ID:   m,
	}

	bases := computeBases(m, resolved)
	require.Equal(t, []string{
		"dtmi:com:example:WWW;1",
		"dtmi:com:example:YYY;1",
		"dtmi:com:example:ZZZ;1",
		"dtmi:com:example:AAA;1",
	}, bases)
}

func TestComputeBases_NoExtends(t *testing.T) {
	device := mustParse(t, `{"@id": "dtmi:com:example:Device;1", "@type": "Interface"}`)
	bases := computeBases(device, map[dtdl.DTMI]*dtdl.Interface{device.ID: device})
	assert.Empty(t, bases)
}

func TestTopoOrderMostDerivedFirst(t *testing.T) {
	descendants := map[string][]string{
		"Device":     {"Sensor", "Thermostat"},
		"Sensor":     {"Thermostat"},
		"Thermostat": {},
	}
	order := topoOrderMostDerivedFirst([]string{"Device", "Sensor", "Thermostat"}, func(id string) []string {
		return descendants[id]
	})

	pos := map[string]int{}
	for i, id := range order {
		pos[id] = i
	}
	assert.Less(t, pos["Thermostat"], pos["Sensor"])
	assert.Less(t, pos["Sensor"], pos["Device"])
}

func TestValidateInterfaceShape_DuplicateContentName(t *testing.T) {
	iface := mustParse(t, `{
	  "@id": "dtmi:com:example:Bad;1",
	  "@type": "Interface",
	  "contents": [
	    {"@type": "Property", "name": "x", "schema": "string"},
	    {"@type": "Telemetry", "name": "x", "schema": "double"}
	  ]
	}`)
	issues := validateInterfaceShape(iface)
	require.Len(t, issues, 1)
}

func TestSameStringSet(t *testing.T) {
	assert.True(t, sameStringSet([]string{"a", "b"}, []string{"b", "a"}))
	assert.False(t, sameStringSet([]string{"a"}, []string{"a", "b"}))
}
