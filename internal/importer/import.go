package importer

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/evalgo/digitaltwins/internal/jobs"
)

// sectionMarker is the `{"Section":"..."}` line that introduces or
// re-announces a section.
type sectionMarker struct {
	Section string `json:"Section"`
}

// header is the second ND-JSON line, required to declare a supported
// fileVersion (spec §4.7 step 2).
type header struct {
	FileVersion string `json:"fileVersion"`
}

// Import reads r as an ND-JSON stream and runs it as jobID's workload
// through the Importer's jobs.Service, implementing spec §4.7's Import
// algorithm verbatim. If jobID has not been created yet, Import creates
// it first.
func (imp *Importer) Import(ctx context.Context, jobID string, r io.Reader, opts Options) (*jobs.JobRecord, error) {
	if _, err := imp.service.Jobs().Create(ctx, jobID, jobs.JobTypeImport, map[string]interface{}{
		"continueOnFailure": opts.ContinueOnFailure,
	}); err != nil && !errors.Is(err, jobs.ErrJobExists) {
		return nil, err
	}

	return imp.service.Run(ctx, jobID, func(ctx context.Context) (jobs.JobOutcome, error) {
		return imp.run(ctx, r, opts)
	})
}

// ImportInBackground is Import's asynchronous counterpart, returning as
// soon as the job is marked Running (spec §4.6's "background" execution
// mode, §4.7's import workload run as a separately scheduled task).
func (imp *Importer) ImportInBackground(ctx context.Context, jobID string, r io.Reader, opts Options) error {
	if _, err := imp.service.Jobs().Create(ctx, jobID, jobs.JobTypeImport, map[string]interface{}{
		"continueOnFailure": opts.ContinueOnFailure,
	}); err != nil && !errors.Is(err, jobs.ErrJobExists) {
		return err
	}

	return imp.service.RunInBackground(ctx, jobID, func(ctx context.Context) (jobs.JobOutcome, error) {
		return imp.run(ctx, r, opts)
	})
}

// importState accumulates section position and result counters across
// the ND-JSON scan.
type importState struct {
	current    section
	modelsDocs [][]byte
	outcome    jobs.JobOutcome
}

func (imp *Importer) run(ctx context.Context, r io.Reader, opts Options) (jobs.JobOutcome, error) {
	st := &importState{current: sectionHeader, outcome: jobs.JobOutcome{Errors: map[string]string{}}}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lineNo := 0
	nextLine := func() (string, bool) {
		for scanner.Scan() {
			lineNo++
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			return line, true
		}
		return "", false
	}

	firstLine, ok := nextLine()
	if !ok {
		return st.outcome, fmt.Errorf("%w: Empty input stream", ErrArgumentError)
	}
	var first sectionMarker
	if err := json.Unmarshal([]byte(firstLine), &first); err != nil || first.Section != "Header" {
		return st.outcome, fmt.Errorf("%w: First section must be 'Header'", ErrArgumentError)
	}

	headerLine, ok := nextLine()
	if !ok {
		return st.outcome, fmt.Errorf("%w: Empty input stream", ErrArgumentError)
	}
	var hdr header
	if err := json.Unmarshal([]byte(headerLine), &hdr); err != nil || hdr.FileVersion != supportedFileVersion {
		return st.outcome, fmt.Errorf("%w: Unsupported file version", ErrArgumentError)
	}

	for {
		if err := ctx.Err(); err != nil {
			st.outcome.Status = jobs.StatusCancelled
			return st.outcome, nil
		}

		line, ok := nextLine()
		if !ok {
			break
		}

		var marker sectionMarker
		if err := json.Unmarshal([]byte(line), &marker); err == nil && marker.Section != "" {
			next, known := sectionRank(marker.Section)
			if !known || next < st.current {
				return st.outcome, fmt.Errorf("%w: sections out of order at line %d", ErrArgumentError, lineNo)
			}
			if err := imp.flushModels(ctx, st); err != nil {
				if !imp.recordFailure(st, "models", err, opts) {
					return imp.finalOutcome(st), nil
				}
			}
			st.current = next
			continue
		}

		if err := imp.processRecord(ctx, st, line); err != nil {
			if !imp.recordFailure(st, fmt.Sprintf("line %d", lineNo), err, opts) {
				return imp.finalOutcome(st), nil
			}
		}
	}

	if err := imp.flushModels(ctx, st); err != nil {
		if !imp.recordFailure(st, "models", err, opts) {
			return imp.finalOutcome(st), nil
		}
	}

	if err := scanner.Err(); err != nil {
		return st.outcome, fmt.Errorf("importer: reading input stream: %w", err)
	}

	return imp.finalOutcome(st), nil
}

// processRecord dispatches one payload line to the handler for the
// current section.
func (imp *Importer) processRecord(ctx context.Context, st *importState, line string) error {
	switch st.current {
	case sectionModels:
		st.modelsDocs = append(st.modelsDocs, []byte(line))
		return nil
	case sectionTwins:
		return imp.importTwin(ctx, st, line)
	case sectionRelationships:
		return imp.importRelationship(ctx, st, line)
	default:
		return fmt.Errorf("%w: payload record before any section marker", ErrArgumentError)
	}
}

// flushModels bulk-creates every accumulated Models-section document in
// one C2 batch call, per spec §4.7's "accumulate DTDL documents and
// bulk-create via C2 in one batch".
func (imp *Importer) flushModels(ctx context.Context, st *importState) error {
	if len(st.modelsDocs) == 0 {
		return nil
	}
	docs := st.modelsDocs
	st.modelsDocs = nil

	created, err := imp.catalog.CreateModels(ctx, docs)
	if err != nil {
		return err
	}
	st.outcome.ModelsCreated += int64(len(created))
	return nil
}

func (imp *Importer) importTwin(ctx context.Context, st *importState, line string) error {
	var body map[string]interface{}
	if err := json.Unmarshal([]byte(line), &body); err != nil {
		return fmt.Errorf("%w: malformed twin record: %v", ErrArgumentError, err)
	}
	id, _ := body["$dtId"].(string)
	if id == "" {
		return fmt.Errorf("%w: twin record missing $dtId", ErrArgumentError)
	}
	if _, err := imp.dataplane.CreateOrReplaceDigitalTwin(ctx, id, body, ""); err != nil {
		return err
	}
	st.outcome.TwinsCreated++
	return nil
}

func (imp *Importer) importRelationship(ctx context.Context, st *importState, line string) error {
	var body map[string]interface{}
	if err := json.Unmarshal([]byte(line), &body); err != nil {
		return fmt.Errorf("%w: malformed relationship record: %v", ErrArgumentError, err)
	}
	relID, _ := body["$relationshipId"].(string)
	sourceID, _ := body["$sourceId"].(string)
	targetID, _ := body["$targetId"].(string)
	name, _ := body["$relationshipName"].(string)
	if relID == "" || sourceID == "" || targetID == "" || name == "" {
		return fmt.Errorf("%w: relationship record missing required fields", ErrArgumentError)
	}
	if _, err := imp.dataplane.CreateOrReplaceRelationship(ctx, sourceID, relID, targetID, name, body, ""); err != nil {
		return err
	}
	st.outcome.RelationshipsCreated++
	return nil
}

// recordFailure applies spec §4.7 step 5: if ContinueOnFailure, log the
// error into the outcome's error map and keep going; otherwise mark the
// outcome Failed and signal the caller to stop (return false).
func (imp *Importer) recordFailure(st *importState, key string, err error, opts Options) bool {
	st.outcome.ErrorCount++
	st.outcome.Errors[key] = err.Error()
	if !opts.ContinueOnFailure {
		st.outcome.Status = jobs.StatusFailed
		return false
	}
	return true
}

func (imp *Importer) finalOutcome(st *importState) jobs.JobOutcome {
	if st.outcome.Status != "" {
		return st.outcome
	}
	if st.outcome.ErrorCount > 0 {
		st.outcome.Status = jobs.StatusPartiallySucceeded
	} else {
		st.outcome.Status = jobs.StatusSucceeded
	}
	return st.outcome
}
