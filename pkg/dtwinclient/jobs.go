package dtwinclient

import (
	"context"
	"io"

	"github.com/evalgo/digitaltwins/internal/deleter"
	"github.com/evalgo/digitaltwins/internal/importer"
	"github.com/evalgo/digitaltwins/internal/jobs"
)

// GetJob returns one job's current record, including its counters and
// status.
func (c *Client) GetJob(ctx context.Context, jobID string) (*jobs.JobRecord, error) {
	return c.Jobs.Jobs().Get(ctx, jobID)
}

// ListJobs lists every job of the given type (or every job, if jobType
// is empty).
func (c *Client) ListJobs(ctx context.Context, jobType jobs.JobType) ([]*jobs.JobRecord, error) {
	return c.Jobs.Jobs().List(ctx, jobType)
}

// Import runs jobID's ND-JSON import synchronously (spec §4.7), reading
// r as a Header/Models/Twins/Relationships stream.
func (c *Client) Import(ctx context.Context, jobID string, r io.Reader, opts importer.Options) (*jobs.JobRecord, error) {
	return c.Importer.Import(ctx, jobID, r, opts)
}

// ImportInBackground is Import's asynchronous counterpart, returning as
// soon as jobID is marked Running.
func (c *Client) ImportInBackground(ctx context.Context, jobID string, r io.Reader, opts importer.Options) error {
	return c.Importer.ImportInBackground(ctx, jobID, r, opts)
}

// DeleteAll runs jobID's three-phase bulk delete (Relationships, Twins,
// Models) synchronously, resuming from any prior checkpoint.
func (c *Client) DeleteAll(ctx context.Context, jobID string, opts deleter.Options) (*jobs.JobRecord, error) {
	return c.Deleter.DeleteAll(ctx, jobID, opts)
}

// DeleteAllInBackground is DeleteAll's asynchronous counterpart.
func (c *Client) DeleteAllInBackground(ctx context.Context, jobID string, opts deleter.Options) error {
	return c.Deleter.DeleteAllInBackground(ctx, jobID, opts)
}
