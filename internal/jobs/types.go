// Package jobs implements the durable, resumable batch-job and
// distributed-lock machinery behind import/delete operations (spec
// §4.6). The job status state machine is grounded on
// coordinator/phases.go's Phase/ValidTransitions/CanTransitionTo; the
// lock's acquire/renew/release shape is grounded on
// db/repository/redis.go's RedisRepository, adapted from Redis SETNX/TTL
// to a Postgres row whose expiry is judged by the store's own clock
// rather than the caller's (spec §4.6/§9).
package jobs

import "time"

// Status is a job's position in the NotStarted -> Running ->
// {Succeeded, PartiallySucceeded, Failed, Cancelled} state machine.
type Status string

const (
	StatusNotStarted         Status = "NotStarted"
	StatusRunning            Status = "Running"
	StatusSucceeded          Status = "Succeeded"
	StatusPartiallySucceeded Status = "PartiallySucceeded"
	StatusFailed             Status = "Failed"
	StatusCancelled          Status = "Cancelled"
)

// validTransitions mirrors coordinator/phases.go's ValidTransitions
// table: a map from a status to the set of statuses it may move to next.
var validTransitions = map[Status][]Status{
	StatusNotStarted: {StatusRunning, StatusCancelled},
	StatusRunning: {
		StatusSucceeded,
		StatusPartiallySucceeded,
		StatusFailed,
		StatusCancelled,
	},
	StatusSucceeded:          {},
	StatusPartiallySucceeded: {},
	StatusFailed:             {},
	StatusCancelled:          {},
}

// CanTransitionTo reports whether moving from s to next is a legal
// state-machine edge, matching Phase.CanTransitionTo's lookup-in-table
// approach.
func (s Status) CanTransitionTo(next Status) bool {
	for _, candidate := range validTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s has no further outgoing transitions.
func (s Status) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// JobType distinguishes the two batch workloads spec §4.6 defines.
type JobType string

const (
	JobTypeImport JobType = "Import"
	JobTypeDelete JobType = "Delete"
)

// JobRecord is the durable row tracking one import or delete batch job.
type JobRecord struct {
	ID           string
	Type         JobType
	Status       Status
	CreatedAt    time.Time
	LastActionAt time.Time
	FinishedAt   *time.Time
	PurgeAt      *time.Time

	ModelsCreated        int64
	ModelsDeleted        int64
	TwinsCreated         int64
	TwinsDeleted         int64
	RelationshipsCreated int64
	RelationshipsDeleted int64
	ErrorCount           int64

	Errors map[string]string
}

// JobLock is a point-in-time read of a job's advisory lock row.
type JobLock struct {
	JobID           string
	OwnerInstanceID string
	AcquiredAt      time.Time
	HeartbeatAt     time.Time
	TTL             time.Duration
	IsExpired       bool
}

// DeleteCheckpoint records how far a resumable bulk-delete job has
// progressed through its three phases (Relationships, Twins, Models),
// so a restarted worker can resume a section it had not finished
// instead of restarting the whole job from scratch.
type DeleteCheckpoint struct {
	JobID             string
	CurrentSection    DeletePhase
	RelationshipsDone bool
	TwinsDone         bool
	ModelsDone        bool

	RelationshipsDeleted int64
	TwinsDeleted         int64
	ModelsDeleted        int64

	LastUpdated time.Time
}

// DeletePhase is the current stage of a resumable bulk-delete job.
type DeletePhase string

const (
	DeletePhaseRelationships DeletePhase = "Relationships"
	DeletePhaseTwins         DeletePhase = "Twins"
	DeletePhaseModels        DeletePhase = "Models"
	DeletePhaseDone          DeletePhase = "Done"
)

// JobOutcome is what a workload function reports back to Service.Run /
// Service.RunInBackground once it finishes, driving the terminal status
// transition and the record's final counters.
type JobOutcome struct {
	Status Status

	ModelsCreated        int64
	ModelsDeleted        int64
	TwinsCreated         int64
	TwinsDeleted         int64
	RelationshipsCreated int64
	RelationshipsDeleted int64
	ErrorCount           int64

	Errors map[string]string
}
