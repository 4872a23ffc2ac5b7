package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evalgo/digitaltwins/internal/store"
)

// LockStore is a Postgres-backed distributed lock keyed on job ID,
// grounded on db/repository/redis.go's RedisRepository.AcquireLock/
// ReleaseLock/IsLocked (Redis SETNX-with-TTL), adapted to a relational
// row whose liveness is judged with "heartbeat_at + ttl <= now()"
// evaluated by Postgres's own clock rather than trusting a caller-
// supplied deadline, so a stalled or clock-skewed owner cannot hold a
// lock past its TTL from the store's point of view.
type LockStore struct {
	pool   *pgxpool.Pool
	schema string
}

// NewLockStore builds a LockStore scoped to graph's dedicated jobs
// schema.
func NewLockStore(adapter *store.Adapter, graph string) *LockStore {
	return &LockStore{pool: adapter.Pool(), schema: store.JobsSchema(graph)}
}

func (s *LockStore) table(name string) string {
	return pgx.Identifier{s.schema, name}.Sanitize()
}

// TryAcquire attempts to take the lock for jobID on behalf of
// ownerInstanceID. It succeeds either when no lock row exists yet, or
// when the existing row's heartbeat has not been renewed within its
// TTL (an abandoned lock, steal-able by anyone). It reports (false,
// nil) — not an error — when a live lock is held by someone else,
// mirroring RedisRepository.AcquireLock's boolean-return contract.
func (s *LockStore) TryAcquire(ctx context.Context, jobID, ownerInstanceID string, ttl time.Duration) (bool, error) {
	sql := fmt.Sprintf(`
INSERT INTO %[1]s (job_id, owner_instance_id, acquired_at, heartbeat_at, ttl_seconds)
VALUES ($1, $2, now(), now(), $3)
ON CONFLICT (job_id) DO UPDATE SET
	owner_instance_id = EXCLUDED.owner_instance_id,
	acquired_at       = EXCLUDED.acquired_at,
	heartbeat_at      = EXCLUDED.heartbeat_at,
	ttl_seconds       = EXCLUDED.ttl_seconds
WHERE %[1]s.heartbeat_at + (%[1]s.ttl_seconds || ' seconds')::interval <= now()
RETURNING job_id
`, s.table("job_locks"))

	var returned string
	err := s.pool.QueryRow(ctx, sql, jobID, ownerInstanceID, int(ttl.Seconds())).Scan(&returned)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("jobs: acquiring lock for %q: %w", jobID, err)
	}
	return true, nil
}

// Renew extends a held lock's TTL window by touching heartbeat_at to
// now(). It returns ErrNotOwner if ownerInstanceID does not currently
// hold the lock (including if it expired and was stolen).
func (s *LockStore) Renew(ctx context.Context, jobID, ownerInstanceID string) error {
	sql := fmt.Sprintf(`
UPDATE %s SET heartbeat_at = now()
WHERE job_id = $1 AND owner_instance_id = $2
`, s.table("job_locks"))

	tag, err := s.pool.Exec(ctx, sql, jobID, ownerInstanceID)
	if err != nil {
		return fmt.Errorf("jobs: renewing lock for %q: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotOwner
	}
	return nil
}

// Release drops a held lock early, e.g. once a job reaches a terminal
// status. It returns ErrNotOwner if ownerInstanceID does not hold it.
func (s *LockStore) Release(ctx context.Context, jobID, ownerInstanceID string) error {
	sql := fmt.Sprintf(`DELETE FROM %s WHERE job_id = $1 AND owner_instance_id = $2`, s.table("job_locks"))

	tag, err := s.pool.Exec(ctx, sql, jobID, ownerInstanceID)
	if err != nil {
		return fmt.Errorf("jobs: releasing lock for %q: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotOwner
	}
	return nil
}

// CleanupExpired deletes every lock row whose heartbeat has not been
// renewed within its TTL, returning how many rows were removed. Callers
// run this periodically as administrative hygiene; TryAcquire itself
// does not need it to make progress, since it can steal an expired row
// directly.
func (s *LockStore) CleanupExpired(ctx context.Context) (int64, error) {
	sql := fmt.Sprintf(`
DELETE FROM %[1]s
WHERE %[1]s.heartbeat_at + (%[1]s.ttl_seconds || ' seconds')::interval <= now()
`, s.table("job_locks"))

	tag, err := s.pool.Exec(ctx, sql)
	if err != nil {
		return 0, fmt.Errorf("jobs: cleaning up expired locks: %w", err)
	}
	return tag.RowsAffected(), nil
}

// GetInfo reads a lock row's current state, computing IsExpired from
// the store's own clock at query time rather than the caller's, per
// spec §9's "lock expiry is judged by the store, not the caller" open
// question resolution (see DESIGN.md). GetInfo never deletes an expired
// row itself; CleanupExpired or the next TryAcquire does that.
func (s *LockStore) GetInfo(ctx context.Context, jobID string) (*JobLock, error) {
	sql := fmt.Sprintf(`
SELECT job_id, owner_instance_id, acquired_at, heartbeat_at, ttl_seconds,
       (heartbeat_at + (ttl_seconds || ' seconds')::interval <= now()) AS is_expired
FROM %s WHERE job_id = $1
`, s.table("job_locks"))

	var lock JobLock
	var ttlSeconds int
	err := s.pool.QueryRow(ctx, sql, jobID).Scan(
		&lock.JobID, &lock.OwnerInstanceID, &lock.AcquiredAt, &lock.HeartbeatAt, &ttlSeconds, &lock.IsExpired)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLockNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("jobs: reading lock for %q: %w", jobID, err)
	}
	lock.TTL = time.Duration(ttlSeconds) * time.Second
	return &lock, nil
}
