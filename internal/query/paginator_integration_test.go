//go:build integration

package query

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/evalgo/digitaltwins/internal/store"
)

// setupAGEContainer mirrors internal/store's testcontainers-go helper
// against the same Apache AGE image.
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

func TestExecutor_PagesWalksFullResultSet(t *testing.T) {
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
	require.NoError(t, adapter.CreateGraph(ctx, "pagingtest"))

	err = adapter.Transaction(ctx, "pagingtest", func(tx *store.Tx) error {
		for i := 0; i < 5; i++ {
			if _, err := tx.ExecutePGQL(ctx, "pagingtest",
				fmt.Sprintf(`CREATE (:Twin {dt_id: 'twin-%d'})`, i), nil); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	executor := New(adapter, "pagingtest")

	var seen []Row
	token := ""
	for {
		page, err := executor.Pages(ctx, "MATCH (T:Twin) RETURN T", token, 2)
		require.NoError(t, err)
		seen = append(seen, page.Values...)
		if page.ContinuationToken == nil {
			break
		}
		token = *page.ContinuationToken
	}

	require.Len(t, seen, 5)
}
