//go:build integration

package dataplane

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/evalgo/digitaltwins/internal/catalog"
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

// TestCreateOrReplaceDigitalTwins_BatchBoundary exercises spec §8's
// explicit boundary behavior: exactly MaxBatchSize (100) items succeeds,
// MaxBatchSize+1 (101) fails up front with ArgumentError whose message
// names both the submitted count and the limit.
func TestCreateOrReplaceDigitalTwins_BatchBoundary(t *testing.T) {
	dsn, cleanup := setupAGEContainer(t)
	defer cleanup()

	ctx := context.Background()
	adapter, err := store.New(ctx, store.Options{DSN: dsn})
	require.NoError(t, err)
	defer adapter.Close()

	const graph = "batchboundary"
	require.NoError(t, adapter.CreateGraph(ctx, graph))

	log := logrus.NewEntry(logrus.New())
	cat, err := catalog.New(adapter, graph, catalog.Config{}, log)
	require.NoError(t, err)

	const room = `{"@id":"dtmi:example:Room;1","@type":"Interface"}`
	_, err = cat.CreateModels(ctx, [][]byte{[]byte(room)})
	require.NoError(t, err)

	dp := New(adapter, cat, graph, log)

	items := make(map[string]map[string]interface{}, MaxBatchSize)
	for i := 0; i < MaxBatchSize; i++ {
		items[fmt.Sprintf("room-%d", i)] = map[string]interface{}{
			"$metadata": map[string]interface{}{"$model": "dtmi:example:Room;1"},
		}
	}
	result, err := dp.CreateOrReplaceDigitalTwins(ctx, items)
	require.NoError(t, err)
	require.Len(t, result.Successes, MaxBatchSize)
	require.Empty(t, result.Failures)

	items["room-overflow"] = map[string]interface{}{
		"$metadata": map[string]interface{}{"$model": "dtmi:example:Room;1"},
	}
	require.Len(t, items, MaxBatchSize+1)

	_, err = dp.CreateOrReplaceDigitalTwins(ctx, items)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrArgumentError)
	require.Contains(t, err.Error(), "101")
	require.Contains(t, err.Error(), "100")
}
