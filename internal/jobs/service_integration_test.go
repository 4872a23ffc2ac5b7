//go:build integration

package jobs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/evalgo/digitaltwins/internal/store"
)

// setupAGEContainer mirrors internal/store and internal/query's
// testcontainers-go helper against the same Apache AGE image.
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

func newTestAdapter(t *testing.T, graph string) *store.Adapter {
	dsn, cleanup := setupAGEContainer(t)
	t.Cleanup(cleanup)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS age`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `LOAD 'age'`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `SET search_path = ag_catalog, "$user", public`)
	require.NoError(t, err)

	adapter := store.NewFromPool(pool)
	require.NoError(t, adapter.CreateGraph(ctx, graph))
	return adapter
}

func TestService_RunAppliesCountersAndTerminalStatus(t *testing.T) {
	ctx := context.Background()
	adapter := newTestAdapter(t, "jobstest")

	jobStore := NewJobStore(adapter, "jobstest")
	_, err := jobStore.Create(ctx, "job-1", JobTypeImport, nil)
	require.NoError(t, err)

	svc := New(adapter, "jobstest", "instance-a", logrus.NewEntry(logrus.New()))

	rec, err := svc.Run(ctx, "job-1", func(ctx context.Context) (JobOutcome, error) {
		return JobOutcome{Status: StatusSucceeded, TwinsCreated: 3, ModelsCreated: 1}, nil
	})
	require.NoError(t, err)
	require.Equal(t, StatusSucceeded, rec.Status)
	require.EqualValues(t, 3, rec.TwinsCreated)
	require.EqualValues(t, 1, rec.ModelsCreated)

	lock, err := svc.locks.GetInfo(ctx, "job-1")
	require.ErrorIs(t, err, ErrLockNotFound)
	require.Nil(t, lock)
}

func TestLockStore_TryAcquireStealsExpiredLock(t *testing.T) {
	ctx := context.Background()
	adapter := newTestAdapter(t, "locktest")
	locks := NewLockStore(adapter, "locktest")

	ok, err := locks.TryAcquire(ctx, "job-2", "owner-a", 0)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(50 * time.Millisecond)

	ok, err = locks.TryAcquire(ctx, "job-2", "owner-b", time.Minute)
	require.NoError(t, err)
	require.True(t, ok, "owner-b should steal an immediately-expired lock")

	err = locks.Renew(ctx, "job-2", "owner-a")
	require.ErrorIs(t, err, ErrNotOwner)
}
