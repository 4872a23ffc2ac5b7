//go:build integration

package importer

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/evalgo/digitaltwins/internal/catalog"
	"github.com/evalgo/digitaltwins/internal/dataplane"
	"github.com/evalgo/digitaltwins/internal/jobs"
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

func TestImporter_ImportsHeaderModelsTwinsRelationships(t *testing.T) {
	dsn, cleanup := setupAGEContainer(t)
	defer cleanup()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	_, err = pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS age`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `LOAD 'age'`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `SET search_path = ag_catalog, "$user", public`)
	require.NoError(t, err)

	adapter := store.NewFromPool(pool)
	require.NoError(t, adapter.CreateGraph(ctx, "importtest"))

	log := logrus.NewEntry(logrus.New())
	cat, err := catalog.New(adapter, "importtest", catalog.Config{}, log)
	require.NoError(t, err)
	dp := dataplane.New(adapter, cat, "importtest", log)
	svc := jobs.New(adapter, "importtest", "test-instance", log)
	imp := New(cat, dp, svc)

	const room = `{"@id":"dtmi:example:Room;1","@type":"Interface","contents":[{"@type":"Property","name":"temperature","schema":"double"}]}`

	var stream strings.Builder
	stream.WriteString(`{"Section":"Header"}` + "\n")
	stream.WriteString(`{"fileVersion":"1.0.0"}` + "\n")
	stream.WriteString(`{"Section":"Models"}` + "\n")
	stream.WriteString(room + "\n")
	stream.WriteString(`{"Section":"Twins"}` + "\n")
	stream.WriteString(`{"$dtId":"room-1","$metadata":{"$model":"dtmi:example:Room;1"},"temperature":21.5}` + "\n")

	rec, err := imp.Import(ctx, "import-job-1", strings.NewReader(stream.String()), Options{})
	require.NoError(t, err)
	require.Equal(t, jobs.StatusSucceeded, rec.Status)
	require.EqualValues(t, 1, rec.ModelsCreated)
	require.EqualValues(t, 1, rec.TwinsCreated)

	twin, err := dp.GetDigitalTwin(ctx, "room-1")
	require.NoError(t, err)
	require.Equal(t, "dtmi:example:Room;1", twin.ModelID)
}

func TestImporter_RejectsMissingHeader(t *testing.T) {
	dsn, cleanup := setupAGEContainer(t)
	defer cleanup()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	_, err = pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS age`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `LOAD 'age'`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `SET search_path = ag_catalog, "$user", public`)
	require.NoError(t, err)

	adapter := store.NewFromPool(pool)
	require.NoError(t, adapter.CreateGraph(ctx, "importtest2"))

	log := logrus.NewEntry(logrus.New())
	cat, err := catalog.New(adapter, "importtest2", catalog.Config{}, log)
	require.NoError(t, err)
	dp := dataplane.New(adapter, cat, "importtest2", log)
	svc := jobs.New(adapter, "importtest2", "test-instance", log)
	imp := New(cat, dp, svc)

	stream := `{"Section":"Twins"}` + "\n"
	rec, err := imp.Import(ctx, "import-job-2", strings.NewReader(stream), Options{})
	require.NoError(t, err)
	require.Equal(t, jobs.StatusFailed, rec.Status)
}
