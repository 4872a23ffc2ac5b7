//go:build integration

package dtwinclient

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/evalgo/digitaltwins/internal/catalog"
	"github.com/evalgo/digitaltwins/internal/deleter"
	"github.com/evalgo/digitaltwins/internal/store"
)

func setupAGEContainer(t *testing.T) string {
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
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())
}

func TestClient_EndToEndCatalogTwinQueryJob(t *testing.T) {
	dsn := setupAGEContainer(t)
	ctx := context.Background()

	client, err := New(ctx, Config{
		Store: store.Options{DSN: dsn},
		Graph: "clienttest",
	})
	require.NoError(t, err)

	const room = `{"@id":"dtmi:example:Room;1","@type":"Interface","contents":[{"@type":"Property","name":"temperature","schema":"double"}]}`
	created, err := client.CreateModels(ctx, [][]byte{[]byte(room)})
	require.NoError(t, err)
	require.Len(t, created, 1)

	_, err = client.CreateOrReplaceDigitalTwin(ctx, "room-1", map[string]interface{}{
		"$metadata":   map[string]interface{}{"$model": "dtmi:example:Room;1"},
		"temperature": 21.5,
	}, "")
	require.NoError(t, err)

	page, err := client.Pages(ctx, "SELECT * FROM DIGITALTWINS", "", 0)
	require.NoError(t, err)
	require.Len(t, page.Values, 1)

	rec, err := client.DeleteAll(ctx, "client-delete-job", deleter.Options{})
	require.NoError(t, err)
	require.Equal(t, "Succeeded", string(rec.Status))
	require.EqualValues(t, 1, rec.TwinsDeleted)
	require.EqualValues(t, 1, rec.ModelsDeleted)

	_, err = client.GetModel(ctx, "dtmi:example:Room;1", catalog.GetOptions{})
	require.Error(t, err, "model should have been removed by DeleteAll")
}
