package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evalgo/digitaltwins/internal/store"
)

// CheckpointStore persists DeleteCheckpoint rows, letting a restarted
// bulk-delete worker resume the section it had not finished instead of
// restarting Relationships -> Twins -> Models from the beginning.
type CheckpointStore struct {
	pool   *pgxpool.Pool
	schema string
}

// NewCheckpointStore builds a CheckpointStore scoped to graph's
// dedicated jobs schema.
func NewCheckpointStore(adapter *store.Adapter, graph string) *CheckpointStore {
	return &CheckpointStore{pool: adapter.Pool(), schema: store.JobsSchema(graph)}
}

func (s *CheckpointStore) table(name string) string {
	return pgx.Identifier{s.schema, name}.Sanitize()
}

// Save upserts a job's checkpoint row.
func (s *CheckpointStore) Save(ctx context.Context, cp *DeleteCheckpoint) error {
	sql := fmt.Sprintf(`
INSERT INTO %[1]s (job_id, current_section, relationships_done, twins_done, models_done,
                    relationships_deleted, twins_deleted, models_deleted, last_updated)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
ON CONFLICT (job_id) DO UPDATE SET
	current_section       = EXCLUDED.current_section,
	relationships_done     = EXCLUDED.relationships_done,
	twins_done             = EXCLUDED.twins_done,
	models_done            = EXCLUDED.models_done,
	relationships_deleted  = EXCLUDED.relationships_deleted,
	twins_deleted          = EXCLUDED.twins_deleted,
	models_deleted         = EXCLUDED.models_deleted,
	last_updated           = now()
`, s.table("delete_checkpoints"))

	_, err := s.pool.Exec(ctx, sql, cp.JobID, string(cp.CurrentSection), cp.RelationshipsDone, cp.TwinsDone,
		cp.ModelsDone, cp.RelationshipsDeleted, cp.TwinsDeleted, cp.ModelsDeleted)
	if err != nil {
		return fmt.Errorf("jobs: saving checkpoint for %q: %w", cp.JobID, err)
	}
	return nil
}

// Load reads a job's checkpoint row. It returns a fresh, zero-valued
// checkpoint (not an error) when no row exists yet, since a job's first
// run has nothing to resume.
func (s *CheckpointStore) Load(ctx context.Context, jobID string) (*DeleteCheckpoint, error) {
	sql := fmt.Sprintf(`
SELECT job_id, current_section, relationships_done, twins_done, models_done,
       relationships_deleted, twins_deleted, models_deleted, last_updated
FROM %s WHERE job_id = $1
`, s.table("delete_checkpoints"))

	var cp DeleteCheckpoint
	var section string
	err := s.pool.QueryRow(ctx, sql, jobID).Scan(
		&cp.JobID, &section, &cp.RelationshipsDone, &cp.TwinsDone, &cp.ModelsDone,
		&cp.RelationshipsDeleted, &cp.TwinsDeleted, &cp.ModelsDeleted, &cp.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return &DeleteCheckpoint{JobID: jobID, CurrentSection: DeletePhaseRelationships}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("jobs: loading checkpoint for %q: %w", jobID, err)
	}
	cp.CurrentSection = DeletePhase(section)
	return &cp, nil
}

// Delete removes a job's checkpoint row, called once a bulk-delete job
// reaches a terminal status and no longer needs to be resumable.
func (s *CheckpointStore) Delete(ctx context.Context, jobID string) error {
	sql := fmt.Sprintf(`DELETE FROM %s WHERE job_id = $1`, s.table("delete_checkpoints"))
	_, err := s.pool.Exec(ctx, sql, jobID)
	if err != nil {
		return fmt.Errorf("jobs: deleting checkpoint for %q: %w", jobID, err)
	}
	return nil
}
