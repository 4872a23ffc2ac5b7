package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evalgo/digitaltwins/internal/store"
)

// JobStore is the Postgres-backed CRUD surface over a graph's
// `<graph>_jobs.job_records` table. It issues raw SQL through the pool
// rather than through store.Adapter's Cypher-oriented ExecutePGQL/
// ExecuteScalar surface, matching how db/postgres_pgx.go's relational
// helpers sit alongside the teacher's graph-store code.
type JobStore struct {
	pool   *pgxpool.Pool
	schema string
}

// NewJobStore builds a JobStore scoped to graph's dedicated jobs schema.
func NewJobStore(adapter *store.Adapter, graph string) *JobStore {
	return &JobStore{pool: adapter.Pool(), schema: store.JobsSchema(graph)}
}

func (s *JobStore) table(name string) string {
	return pgx.Identifier{s.schema, name}.Sanitize()
}

// Create inserts a new job row in NotStarted status. It returns
// ErrJobExists if id is already in use.
func (s *JobStore) Create(ctx context.Context, id string, jobType JobType, configuration map[string]interface{}) (*JobRecord, error) {
	if configuration == nil {
		configuration = map[string]interface{}{}
	}
	payload, err := json.Marshal(configuration)
	if err != nil {
		return nil, fmt.Errorf("jobs: marshaling configuration: %w", err)
	}

	sql := fmt.Sprintf(`
INSERT INTO %s (id, job_type, status, configuration)
VALUES ($1, $2, $3, $4)
`, s.table("job_records"))

	_, err = s.pool.Exec(ctx, sql, id, string(jobType), string(StatusNotStarted), payload)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrJobExists
		}
		return nil, fmt.Errorf("jobs: creating job %q: %w", id, err)
	}
	return s.Get(ctx, id)
}

// Get loads a job record by ID.
func (s *JobStore) Get(ctx context.Context, id string) (*JobRecord, error) {
	sql := fmt.Sprintf(`
SELECT id, job_type, status, created_at, last_action_at, finished_at, purge_at,
       models_created, models_deleted, twins_created, twins_deleted,
       relationships_created, relationships_deleted, error_count, errors
FROM %s WHERE id = $1
`, s.table("job_records"))

	row := s.pool.QueryRow(ctx, sql, id)
	return scanJobRecord(row)
}

func scanJobRecord(row pgx.Row) (*JobRecord, error) {
	var rec JobRecord
	var jobType, status string
	var errorsPayload []byte

	err := row.Scan(
		&rec.ID, &jobType, &status, &rec.CreatedAt, &rec.LastActionAt, &rec.FinishedAt, &rec.PurgeAt,
		&rec.ModelsCreated, &rec.ModelsDeleted, &rec.TwinsCreated, &rec.TwinsDeleted,
		&rec.RelationshipsCreated, &rec.RelationshipsDeleted, &rec.ErrorCount, &errorsPayload,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("jobs: scanning job record: %w", err)
	}
	rec.Type = JobType(jobType)
	rec.Status = Status(status)
	if len(errorsPayload) > 0 {
		if err := json.Unmarshal(errorsPayload, &rec.Errors); err != nil {
			return nil, fmt.Errorf("jobs: decoding errors payload: %w", err)
		}
	}
	return &rec, nil
}

// UpdateStatus moves a job from its current status to next, rejecting
// the update with ErrInvalidTransition if the edge is not legal under
// Status.CanTransitionTo. Terminal statuses also set finished_at.
func (s *JobStore) UpdateStatus(ctx context.Context, id string, next Status) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !current.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, next)
	}

	sql := fmt.Sprintf(`
UPDATE %s SET status = $2, last_action_at = now(),
       finished_at = CASE WHEN $3 THEN now() ELSE finished_at END
WHERE id = $1
`, s.table("job_records"))

	tag, err := s.pool.Exec(ctx, sql, id, string(next), next.IsTerminal())
	if err != nil {
		return fmt.Errorf("jobs: updating status for %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

// ApplyCounters accumulates progress counters and merges per-record
// error messages into a job's row, used by the importer/deleter
// workloads to report progress as they stream through a batch.
func (s *JobStore) ApplyCounters(ctx context.Context, id string, delta JobOutcome) error {
	errorDelta := delta.Errors
	if errorDelta == nil {
		errorDelta = map[string]string{}
	}
	mergedErrors, err := json.Marshal(errorDelta)
	if err != nil {
		return fmt.Errorf("jobs: marshaling error delta: %w", err)
	}

	sql := fmt.Sprintf(`
UPDATE %s SET
	models_created = models_created + $2,
	models_deleted = models_deleted + $3,
	twins_created = twins_created + $4,
	twins_deleted = twins_deleted + $5,
	relationships_created = relationships_created + $6,
	relationships_deleted = relationships_deleted + $7,
	error_count = error_count + $8,
	errors = errors || $9::jsonb,
	last_action_at = now()
WHERE id = $1
`, s.table("job_records"))

	tag, err := s.pool.Exec(ctx, sql, id,
		delta.ModelsCreated, delta.ModelsDeleted, delta.TwinsCreated, delta.TwinsDeleted,
		delta.RelationshipsCreated, delta.RelationshipsDeleted, delta.ErrorCount, mergedErrors)
	if err != nil {
		return fmt.Errorf("jobs: applying counters for %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

// List returns every job record of the given type, most recently
// created first. Pass "" to list jobs of any type.
func (s *JobStore) List(ctx context.Context, jobType JobType) ([]*JobRecord, error) {
	sql := fmt.Sprintf(`
SELECT id, job_type, status, created_at, last_action_at, finished_at, purge_at,
       models_created, models_deleted, twins_created, twins_deleted,
       relationships_created, relationships_deleted, error_count, errors
FROM %s
WHERE ($1 = '' OR job_type = $1)
ORDER BY created_at DESC
`, s.table("job_records"))

	rows, err := s.pool.Query(ctx, sql, string(jobType))
	if err != nil {
		return nil, fmt.Errorf("jobs: listing jobs: %w", err)
	}
	defer rows.Close()

	var records []*JobRecord
	for rows.Next() {
		rec, err := scanJobRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("jobs: iterating jobs: %w", err)
	}
	return records, nil
}

// Delete removes a job record. It is idempotent: deleting an unknown ID
// is not an error, matching how PurgeAt-driven retention is expected to
// sweep already-deleted rows.
func (s *JobStore) Delete(ctx context.Context, id string) error {
	sql := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.table("job_records"))
	_, err := s.pool.Exec(ctx, sql, id)
	if err != nil {
		return fmt.Errorf("jobs: deleting job %q: %w", id, err)
	}
	return nil
}

// SetPurgeAt schedules a completed job record for later removal by a
// retention sweep, per spec §4.6's job-retention note.
func (s *JobStore) SetPurgeAt(ctx context.Context, id string, purgeAt time.Time) error {
	sql := fmt.Sprintf(`UPDATE %s SET purge_at = $2 WHERE id = $1`, s.table("job_records"))
	tag, err := s.pool.Exec(ctx, sql, id, purgeAt)
	if err != nil {
		return fmt.Errorf("jobs: scheduling purge for %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}
