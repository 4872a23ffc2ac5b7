package jobs

import "errors"

var (
	// ErrJobExists is returned by JobStore.Create when a job with the
	// same ID already exists.
	ErrJobExists = errors.New("jobs: job already exists")

	// ErrJobNotFound is returned by JobStore.Get/UpdateStatus/
	// ApplyCounters/SetPurgeAt when no row matches the given job ID.
	ErrJobNotFound = errors.New("jobs: job not found")

	// ErrInvalidTransition is returned when a status update would
	// violate the NotStarted -> Running -> terminal state machine.
	ErrInvalidTransition = errors.New("jobs: invalid status transition")

	// ErrLockHeld is returned by Service.Run/RunInBackground when
	// another owner currently holds the job's lock and it has not
	// expired.
	ErrLockHeld = errors.New("jobs: lock is held by another owner")

	// ErrNotOwner is returned by LockStore.Renew/Release when the
	// calling instance does not hold the lock it is trying to act on.
	ErrNotOwner = errors.New("jobs: caller does not own this lock")

	// ErrLockNotFound is returned by LockStore.GetInfo when no lock row
	// exists for the given job ID.
	ErrLockNotFound = errors.New("jobs: lock not found")
)
