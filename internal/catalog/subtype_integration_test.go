//go:build integration

package catalog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/evalgo/digitaltwins/internal/dtdl"
	"github.com/evalgo/digitaltwins/internal/store"
)

func setupAGEContainer(t *testing.T) (string, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "apache/age:release_PG16_1.5.0",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start AGE container")

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}
	return dsn, cleanup
}

// TestIsOfModel_MatchesOldImplementation exercises spec §8's required
// testable property, is_of_model(...) ≡ is_of_model_old(...), across a
// diamond-inheritance hierarchy (Thermostat extends Sensor and Actuator,
// both of which extend Device), so a twin instantiating the most-derived
// model is checked against every ancestor, a sibling branch, an unrelated
// model, and itself, under both exact and non-exact subtype tests.
func TestIsOfModel_MatchesOldImplementation(t *testing.T) {
	dsn, cleanup := setupAGEContainer(t)
	defer cleanup()

	ctx := context.Background()
	adapter, err := store.New(ctx, store.Options{DSN: dsn})
	require.NoError(t, err)
	defer adapter.Close()

	const graph = "subtypetest"
	require.NoError(t, adapter.CreateGraph(ctx, graph))

	log := logrus.NewEntry(logrus.New())
	cat, err := New(adapter, graph, Config{}, log)
	require.NoError(t, err)

	device := `{"@id":"dtmi:example:Device;1","@type":"Interface"}`
	sensor := `{"@id":"dtmi:example:Sensor;1","@type":"Interface","extends":"dtmi:example:Device;1"}`
	actuator := `{"@id":"dtmi:example:Actuator;1","@type":"Interface","extends":"dtmi:example:Device;1"}`
	thermostat := `{"@id":"dtmi:example:Thermostat;1","@type":"Interface","extends":["dtmi:example:Sensor;1","dtmi:example:Actuator;1"]}`
	unrelated := `{"@id":"dtmi:example:Unrelated;1","@type":"Interface"}`

	_, err = cat.CreateModels(ctx, [][]byte{[]byte(device), []byte(sensor), []byte(actuator), []byte(thermostat), []byte(unrelated)})
	require.NoError(t, err)

	const twinID = "thermostat-1"
	err = adapter.Transaction(ctx, graph, func(tx *store.Tx) error {
		return tx.UpsertTwinModel(ctx, graph, twinID, "dtmi:example:Thermostat;1", []string{
			"dtmi:example:Sensor;1", "dtmi:example:Actuator;1", "dtmi:example:Device;1",
		})
	})
	require.NoError(t, err)

	cases := []struct {
		name  string
		dtmi  dtdl.DTMI
		exact bool
	}{
		{"self exact", "dtmi:example:Thermostat;1", true},
		{"self non-exact", "dtmi:example:Thermostat;1", false},
		{"direct parent exact", "dtmi:example:Sensor;1", true},
		{"direct parent non-exact", "dtmi:example:Sensor;1", false},
		{"sibling parent non-exact", "dtmi:example:Actuator;1", false},
		{"grandparent exact", "dtmi:example:Device;1", true},
		{"grandparent non-exact (diamond)", "dtmi:example:Device;1", false},
		{"unrelated model non-exact", "dtmi:example:Unrelated;1", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := cat.IsOfModel(ctx, twinID, tc.dtmi, tc.exact)
			require.NoError(t, err)

			want, err := cat.isOfModelOld(ctx, "dtmi:example:Thermostat;1", tc.dtmi, tc.exact)
			require.NoError(t, err)

			require.Equal(t, want, got, "is_of_model and is_of_model_old disagree for %s exact=%v", tc.dtmi, tc.exact)
		})
	}
}
