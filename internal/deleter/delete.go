package deleter

import (
	"context"
	"errors"
	"fmt"

	"github.com/evalgo/digitaltwins/internal/jobs"
)

// DeleteAll runs jobID's workload through the Deleter's jobs.Service,
// implementing spec §4.7's bulk-delete algorithm: Relationships, then
// Twins, then Models, resuming from whichever phase a prior checkpoint
// left off. If jobID has not been created yet, DeleteAll creates it
// first.
func (d *Deleter) DeleteAll(ctx context.Context, jobID string, opts Options) (*jobs.JobRecord, error) {
	if _, err := d.service.Jobs().Create(ctx, jobID, jobs.JobTypeDelete, nil); err != nil && !errors.Is(err, jobs.ErrJobExists) {
		return nil, err
	}

	return d.service.Run(ctx, jobID, func(ctx context.Context) (jobs.JobOutcome, error) {
		return d.run(ctx, jobID, opts)
	})
}

// DeleteAllInBackground is DeleteAll's asynchronous counterpart.
func (d *Deleter) DeleteAllInBackground(ctx context.Context, jobID string, opts Options) error {
	if _, err := d.service.Jobs().Create(ctx, jobID, jobs.JobTypeDelete, nil); err != nil && !errors.Is(err, jobs.ErrJobExists) {
		return err
	}

	return d.service.RunInBackground(ctx, jobID, func(ctx context.Context) (jobs.JobOutcome, error) {
		return d.run(ctx, jobID, opts)
	})
}

func (d *Deleter) run(ctx context.Context, jobID string, opts Options) (jobs.JobOutcome, error) {
	cp, err := d.service.Checkpoints().Load(ctx, jobID)
	if err != nil {
		return jobs.JobOutcome{}, err
	}

	batchSize := opts.batchSize()

	if cp.CurrentSection == jobs.DeletePhaseRelationships && !cp.RelationshipsDone {
		if cancelled, err := d.drainRelationships(ctx, cp, batchSize); cancelled || err != nil {
			return d.cancelledOrErrorOutcome(cp, err), err
		}
		cp.RelationshipsDone = true
		cp.CurrentSection = jobs.DeletePhaseTwins
		if err := d.service.Checkpoints().Save(ctx, cp); err != nil {
			return d.outcomeFromCheckpoint(cp, ""), err
		}
	}

	if cp.CurrentSection == jobs.DeletePhaseTwins && !cp.TwinsDone {
		if cancelled, err := d.drainTwins(ctx, cp, batchSize); cancelled || err != nil {
			return d.cancelledOrErrorOutcome(cp, err), err
		}
		cp.TwinsDone = true
		cp.CurrentSection = jobs.DeletePhaseModels
		if err := d.service.Checkpoints().Save(ctx, cp); err != nil {
			return d.outcomeFromCheckpoint(cp, ""), err
		}
	}

	if cp.CurrentSection == jobs.DeletePhaseModels && !cp.ModelsDone {
		if cancelled, err := d.drainModels(ctx, cp); cancelled || err != nil {
			return d.cancelledOrErrorOutcome(cp, err), err
		}
		cp.ModelsDone = true
		cp.CurrentSection = jobs.DeletePhaseDone
		if err := d.service.Checkpoints().Save(ctx, cp); err != nil {
			return d.outcomeFromCheckpoint(cp, ""), err
		}
	}

	if err := d.service.Checkpoints().Delete(ctx, jobID); err != nil {
		return d.outcomeFromCheckpoint(cp, ""), err
	}
	return d.outcomeFromCheckpoint(cp, jobs.StatusSucceeded), nil
}

// drainRelationships deletes every relationship edge in batches of
// batchSize, persisting the checkpoint after each batch, until a batch
// comes back empty. It reports cancelled=true (without error) if ctx is
// done between batches, per spec §5's "Jobs poll the signal between
// batches" cancellation contract.
func (d *Deleter) drainRelationships(ctx context.Context, cp *jobs.DeleteCheckpoint, batchSize int) (cancelled bool, err error) {
	for {
		if ctx.Err() != nil {
			return true, nil
		}

		batch, ferr := d.fetchRelationshipBatch(ctx, batchSize)
		if ferr != nil {
			return false, ferr
		}
		if len(batch) == 0 {
			return false, nil
		}

		for _, rel := range batch {
			if derr := d.dataplane.DeleteRelationship(ctx, rel.sourceID, rel.relationshipID, ""); derr != nil {
				return false, derr
			}
			cp.RelationshipsDeleted++
		}
		if serr := d.service.Checkpoints().Save(ctx, cp); serr != nil {
			return false, serr
		}
	}
}

// drainTwins deletes every twin vertex in batches, force-deleting since
// the Relationships phase has already run to completion first.
func (d *Deleter) drainTwins(ctx context.Context, cp *jobs.DeleteCheckpoint, batchSize int) (cancelled bool, err error) {
	for {
		if ctx.Err() != nil {
			return true, nil
		}

		ids, ferr := d.fetchTwinBatch(ctx, batchSize)
		if ferr != nil {
			return false, ferr
		}
		if len(ids) == 0 {
			return false, nil
		}

		for _, id := range ids {
			if derr := d.dataplane.DeleteDigitalTwin(ctx, id, "", true); derr != nil {
				return false, derr
			}
			cp.TwinsDeleted++
		}
		if serr := d.service.Checkpoints().Save(ctx, cp); serr != nil {
			return false, serr
		}
	}
}

// drainModels deletes every model in one descendant-before-ancestor pass
// (spec §4.7's "respects _extends, leaves first"), matching
// graph/dag.go's Kahn's-algorithm frontier-queue shape applied to the
// descendants relation instead of action dependencies.
func (d *Deleter) drainModels(ctx context.Context, cp *jobs.DeleteCheckpoint) (cancelled bool, err error) {
	ids, descendantsOf, err := d.loadModelGraph(ctx)
	if err != nil {
		return false, err
	}
	order := topoOrderLeavesFirst(ids, descendantsOf)

	for _, id := range order {
		if ctx.Err() != nil {
			return true, nil
		}
		if err := d.catalog.DeleteModel(ctx, id); err != nil {
			return false, fmt.Errorf("deleter: deleting model %s: %w", id, err)
		}
		cp.ModelsDeleted++
		if err := d.service.Checkpoints().Save(ctx, cp); err != nil {
			return false, err
		}
	}
	return false, nil
}

func (d *Deleter) cancelledOrErrorOutcome(cp *jobs.DeleteCheckpoint, err error) jobs.JobOutcome {
	if err != nil {
		return d.outcomeFromCheckpoint(cp, jobs.StatusFailed)
	}
	return d.outcomeFromCheckpoint(cp, jobs.StatusCancelled)
}

func (d *Deleter) outcomeFromCheckpoint(cp *jobs.DeleteCheckpoint, status jobs.Status) jobs.JobOutcome {
	return jobs.JobOutcome{
		Status:               status,
		RelationshipsDeleted: cp.RelationshipsDeleted,
		TwinsDeleted:         cp.TwinsDeleted,
		ModelsDeleted:        cp.ModelsDeleted,
	}
}
