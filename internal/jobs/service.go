package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/evalgo/digitaltwins/internal/store"
)

// DefaultLockTTL is how long a Service-held job lock survives without a
// heartbeat renewal before another instance may steal it.
const DefaultLockTTL = 30 * time.Second

// heartbeatInterval is kept well under DefaultLockTTL so a single missed
// tick (a slow GC pause, a transient network blip) does not cost the
// lock outright.
const heartbeatInterval = DefaultLockTTL / 3

// Workload is the unit of work a Service runs under a job's lock. It
// reports the outcome counters and terminal status to apply to the job
// record once it returns. Returning a non-nil error with a zero-value
// Status is treated as StatusFailed.
type Workload func(ctx context.Context) (JobOutcome, error)

// Service runs import/delete workloads under the NotStarted -> Running
// -> terminal job-status state machine and a distributed lock, matching
// coordinator/phases.go's PhaseManager shape generalized from an
// in-process mutex to the cross-instance LockStore.
type Service struct {
	jobs        *JobStore
	locks       *LockStore
	checkpoints *CheckpointStore
	instanceID  string
	log         *logrus.Entry
}

// New builds a Service scoped to graph, identifying itself as
// instanceID when acquiring locks (so lock rows can be attributed and
// renewed by the correct process).
func New(adapter *store.Adapter, graph, instanceID string, log *logrus.Entry) *Service {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{
		jobs:        NewJobStore(adapter, graph),
		locks:       NewLockStore(adapter, graph),
		checkpoints: NewCheckpointStore(adapter, graph),
		instanceID:  instanceID,
		log:         log,
	}
}

// Jobs exposes the underlying JobStore for read paths (status lookup,
// listing) that do not need to go through Run/RunInBackground.
func (s *Service) Jobs() *JobStore { return s.jobs }

// Checkpoints exposes the underlying CheckpointStore so a resumable
// delete workload can load/save its progress without the Service
// threading checkpoint calls through Workload's signature.
func (s *Service) Checkpoints() *CheckpointStore { return s.checkpoints }

// retryableStoreCall wraps a JobStore/LockStore call with
// cenkalti/backoff/v4's exponential backoff, so a handful of transient
// connection errors don't immediately surface as job-level failures and
// count toward a record's error_count.
func retryableStoreCall(ctx context.Context, fn func() error) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	return backoff.Retry(fn, policy)
}

// Run acquires jobID's lock, transitions it to Running, executes
// workload synchronously, applies its reported counters, and transitions
// it to the terminal status workload reports (or Failed, if workload
// returns an error without setting one). It returns ErrLockHeld without
// running workload at all if another instance currently holds a live
// lock.
func (s *Service) Run(ctx context.Context, jobID string, workload Workload) (*JobRecord, error) {
	acquired, err := s.acquire(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, ErrLockHeld
	}
	defer func() {
		if err := s.locks.Release(ctx, jobID, s.instanceID); err != nil && err != ErrNotOwner {
			s.log.WithError(err).WithField("job_id", jobID).Warn("jobs: failed to release lock")
		}
	}()

	if err := retryableStoreCall(ctx, func() error { return s.jobs.UpdateStatus(ctx, jobID, StatusRunning) }); err != nil {
		return nil, err
	}

	outcome, workErr := workload(ctx)
	final := s.resolveFinalStatus(outcome, workErr)

	if err := retryableStoreCall(ctx, func() error { return s.jobs.ApplyCounters(ctx, jobID, outcome) }); err != nil {
		s.log.WithError(err).WithField("job_id", jobID).Error("jobs: failed to apply counters")
	}
	if err := retryableStoreCall(ctx, func() error { return s.jobs.UpdateStatus(ctx, jobID, final) }); err != nil {
		return nil, err
	}
	return s.jobs.Get(ctx, jobID)
}

// RunInBackground acquires jobID's lock and transitions it to Running,
// then runs workload on a separate goroutine, renewing the lock on a
// robfig/cron "@every" schedule until workload returns. It returns as
// soon as the job is marked Running, without waiting for workload to
// finish; callers poll JobStore.Get (or Service.Jobs().Get) for
// completion.
func (s *Service) RunInBackground(ctx context.Context, jobID string, workload Workload) error {
	acquired, err := s.acquire(ctx, jobID)
	if err != nil {
		return err
	}
	if !acquired {
		return ErrLockHeld
	}

	if err := retryableStoreCall(ctx, func() error { return s.jobs.UpdateStatus(ctx, jobID, StatusRunning) }); err != nil {
		_ = s.locks.Release(ctx, jobID, s.instanceID)
		return err
	}

	sched := cron.New()
	if _, err := sched.AddFunc(fmt.Sprintf("@every %s", heartbeatInterval), func() {
		if err := s.locks.Renew(context.Background(), jobID, s.instanceID); err != nil {
			s.log.WithError(err).WithField("job_id", jobID).Warn("jobs: heartbeat renewal failed")
		}
	}); err != nil {
		_ = s.locks.Release(ctx, jobID, s.instanceID)
		return fmt.Errorf("jobs: scheduling heartbeat: %w", err)
	}
	sched.Start()

	go func() {
		defer sched.Stop()
		defer func() {
			if err := s.locks.Release(context.Background(), jobID, s.instanceID); err != nil && err != ErrNotOwner {
				s.log.WithError(err).WithField("job_id", jobID).Warn("jobs: failed to release lock")
			}
		}()

		outcome, workErr := workload(ctx)
		final := s.resolveFinalStatus(outcome, workErr)

		bg := context.Background()
		if err := retryableStoreCall(bg, func() error { return s.jobs.ApplyCounters(bg, jobID, outcome) }); err != nil {
			s.log.WithError(err).WithField("job_id", jobID).Error("jobs: failed to apply counters")
		}
		if err := retryableStoreCall(bg, func() error { return s.jobs.UpdateStatus(bg, jobID, final) }); err != nil {
			s.log.WithError(err).WithField("job_id", jobID).Error("jobs: failed to finalize status")
		}
	}()

	return nil
}

func (s *Service) resolveFinalStatus(outcome JobOutcome, workErr error) Status {
	if outcome.Status != "" {
		return outcome.Status
	}
	if workErr != nil {
		return StatusFailed
	}
	return StatusSucceeded
}

func (s *Service) acquire(ctx context.Context, jobID string) (bool, error) {
	var acquired bool
	err := retryableStoreCall(ctx, func() error {
		ok, err := s.locks.TryAcquire(ctx, jobID, s.instanceID, DefaultLockTTL)
		if err != nil {
			return err
		}
		acquired = ok
		return nil
	})
	return acquired, err
}
