package dataplane

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/evalgo/digitaltwins/internal/store"

	jsonpatch "github.com/evanphx/json-patch"
)

// CreateOrReplaceDigitalTwin implements spec §4.3's Upsert Twin: require
// `$metadata.$model`, validate against the flattened model, honor
// `ifNoneMatch = "*"`, and write the twin with a fresh monotonic ETag and
// per-property lastUpdatedOn metadata (preserving any caller-supplied
// sourceTime) in a single transaction.
func (d *Dataplane) CreateOrReplaceDigitalTwin(ctx context.Context, id string, body map[string]interface{}, ifNoneMatch string) (*Twin, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: twin id is required", ErrArgumentError)
	}
	modelID, err := requireModelID(body)
	if err != nil {
		return nil, err
	}

	view, err := d.loadFlattenedModel(ctx, modelID)
	if err != nil {
		return nil, err
	}
	if issues := validateTwinBody(view.Flattened, body); len(issues) > 0 {
		return nil, issuesError(id, issues)
	}

	_, existErr := d.fetchTwinRow(ctx, id)
	exists := existErr == nil
	if ifNoneMatch == "*" && exists {
		return nil, fmt.Errorf("%w: twin %q already exists", ErrPreconditionFailed, id)
	}

	now := time.Now().UTC()
	metadata := stampMetadata(body, now)

	var twin *Twin
	err = d.store.Transaction(ctx, d.graph, func(tx *store.Tx) error {
		etag, err := nextETag(ctx, tx, twinSequenceName(id))
		if err != nil {
			return err
		}
		raw, err := marshalBody(mergeBodyAndMetadata(body, metadata))
		if err != nil {
			return err
		}
		_, err = tx.ExecutePGQL(ctx, d.graph, `
			MERGE (t:Twin {dt_id: $id})
			SET t.model = $model, t.body = $body, t.etag = $etag
		`, map[string]interface{}{"id": id, "model": modelID, "body": raw, "etag": etag})
		if err != nil {
			return fmt.Errorf("dataplane: writing twin %q: %w", id, err)
		}
		if err := tx.UpsertTwinModel(ctx, d.graph, id, modelID, view.Model.Bases); err != nil {
			return err
		}
		twin = &Twin{ID: id, ModelID: modelID, ETag: etag, Body: body, Metadata: metadata}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return twin, nil
}

// CreateOrReplaceDigitalTwins runs a batch of at most MaxBatchSize
// upserts, each independently validated and committed: spec §4.3 "no
// all-or-nothing semantics".
func (d *Dataplane) CreateOrReplaceDigitalTwins(ctx context.Context, items map[string]map[string]interface{}) (*BatchResult, error) {
	if len(items) == 0 || len(items) > MaxBatchSize {
		return nil, fmt.Errorf("%w: batch of %d twins must contain between 1 and %d", ErrArgumentError, len(items), MaxBatchSize)
	}
	result := &BatchResult{}
	for id, body := range items {
		if _, err := d.CreateOrReplaceDigitalTwin(ctx, id, body, ""); err != nil {
			result.Failures = append(result.Failures, BatchItemResult{ID: id, Error: err})
			continue
		}
		result.Successes = append(result.Successes, BatchItemResult{ID: id})
	}
	return result, nil
}

// GetDigitalTwin returns the twin's body (with $dtId/$etag/$metadata
// populated) and ETag.
func (d *Dataplane) GetDigitalTwin(ctx context.Context, id string) (*Twin, error) {
	twin, err := d.fetchTwinRow(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDigitalTwinNotFound, id)
	}
	return twin, nil
}

// UpdateDigitalTwin applies an RFC 6902 JSON-Patch to the twin's current
// body, re-validates the result, and writes it back with fresh
// per-property metadata for every changed property (spec §4.3 Patch
// Twin). Patches touching `/$metadata/<name>/sourceTime` are honored
// verbatim, matching spec's explicit carve-out.
func (d *Dataplane) UpdateDigitalTwin(ctx context.Context, id string, patch []byte, ifMatch string) (*Twin, error) {
	current, err := d.fetchTwinRow(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDigitalTwinNotFound, id)
	}
	if ifMatch != "" && ifMatch != current.ETag {
		return nil, fmt.Errorf("%w: twin %q etag mismatch", ErrPreconditionFailed, id)
	}

	decoded, err := jsonpatch.DecodePatch(patch)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed json-patch: %v", ErrArgumentError, err)
	}
	currentFull := mergeBodyAndMetadata(current.Body, current.Metadata)
	currentRaw, err := json.Marshal(currentFull)
	if err != nil {
		return nil, err
	}
	patchedRaw, err := decoded.Apply(currentRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: applying json-patch: %v", ErrArgumentError, err)
	}
	var patchedFull map[string]interface{}
	if err := json.Unmarshal(patchedRaw, &patchedFull); err != nil {
		return nil, err
	}
	patchedBody := dataOnly(patchedFull)

	view, err := d.loadFlattenedModel(ctx, current.ModelID)
	if err != nil {
		return nil, err
	}
	if issues := validateTwinBody(view.Flattened, patchedBody); len(issues) > 0 {
		return nil, issuesError(id, issues)
	}

	now := time.Now().UTC()
	metadata := diffMetadata(current.Body, patchedFull, current.Metadata, now)

	var twin *Twin
	err = d.store.Transaction(ctx, d.graph, func(tx *store.Tx) error {
		etag, err := nextETag(ctx, tx, twinSequenceName(id))
		if err != nil {
			return err
		}
		raw, err := marshalBody(mergeBodyAndMetadata(patchedBody, metadata))
		if err != nil {
			return err
		}
		_, err = tx.ExecutePGQL(ctx, d.graph, `
			MATCH (t:Twin {dt_id: $id}) SET t.body = $body, t.etag = $etag
		`, map[string]interface{}{"id": id, "body": raw, "etag": etag})
		if err != nil {
			return fmt.Errorf("dataplane: patching twin %q: %w", id, err)
		}
		twin = &Twin{ID: id, ModelID: current.ModelID, ETag: etag, Body: patchedBody, Metadata: metadata}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return twin, nil
}

// DeleteDigitalTwin removes a twin, rejecting the delete if any
// relationship references it in either direction unless force is set
// (the bulk-delete job's Twins phase passes force=true after already
// draining relationships, per spec §4.3 Delete Twin).
func (d *Dataplane) DeleteDigitalTwin(ctx context.Context, id string, ifMatch string, force bool) error {
	current, err := d.fetchTwinRow(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrDigitalTwinNotFound, id)
	}
	if ifMatch != "" && ifMatch != current.ETag {
		return fmt.Errorf("%w: twin %q etag mismatch", ErrPreconditionFailed, id)
	}

	if !force {
		count, err := d.store.ExecuteScalar(ctx, d.graph, `
			MATCH (t:Twin {dt_id: $id})-[r:Relationship]-() RETURN count(r)
		`, map[string]interface{}{"id": id})
		if err != nil {
			return fmt.Errorf("dataplane: checking twin %q references: %w", id, err)
		}
		if n, ok := count.(float64); ok && n > 0 {
			return fmt.Errorf("dataplane: twin %q still has relationships", id)
		}
	}

	return d.store.Transaction(ctx, d.graph, func(tx *store.Tx) error {
		_, err := tx.ExecutePGQL(ctx, d.graph, `MATCH (t:Twin {dt_id: $id}) DETACH DELETE t`, map[string]interface{}{"id": id})
		if err != nil {
			return fmt.Errorf("dataplane: deleting twin %q: %w", id, err)
		}
		return tx.DeleteTwinModel(ctx, d.graph, id)
	})
}

// writeTwinBody persists body/metadata for an existing twin with a fresh
// ETag, without touching its model or twin_models bookkeeping — shared by
// UpdateComponent, which mutates a sub-path rather than the top-level
// property set UpdateDigitalTwin handles.
func (d *Dataplane) writeTwinBody(ctx context.Context, id, modelID string, body map[string]interface{}, metadata map[string]PropertyMetadata) (*Twin, error) {
	var twin *Twin
	err := d.store.Transaction(ctx, d.graph, func(tx *store.Tx) error {
		etag, err := nextETag(ctx, tx, twinSequenceName(id))
		if err != nil {
			return err
		}
		raw, err := marshalBody(mergeBodyAndMetadata(body, metadata))
		if err != nil {
			return err
		}
		_, err = tx.ExecutePGQL(ctx, d.graph, `
			MATCH (t:Twin {dt_id: $id}) SET t.body = $body, t.etag = $etag
		`, map[string]interface{}{"id": id, "body": raw, "etag": etag})
		if err != nil {
			return fmt.Errorf("dataplane: writing twin %q body: %w", id, err)
		}
		twin = &Twin{ID: id, ModelID: modelID, ETag: etag, Body: body, Metadata: metadata}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return twin, nil
}

// fetchTwinRow loads one twin's vertex from the store and decodes it into
// a Twin, splitting the stored body back into Body/Metadata.
func (d *Dataplane) fetchTwinRow(ctx context.Context, id string) (*Twin, error) {
	record, err := d.store.ExecuteScalar(ctx, d.graph, `MATCH (t:Twin {dt_id: $id}) RETURN t`, map[string]interface{}{"id": id})
	if err != nil {
		return nil, err
	}
	vertex, ok := record.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("dataplane: malformed twin vertex for %q", id)
	}
	return twinFromVertexProperties(vertex)
}

func twinFromVertexProperties(vertex map[string]interface{}) (*Twin, error) {
	props, ok := vertex["properties"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("dataplane: malformed twin vertex: missing properties")
	}
	id, _ := props["dt_id"].(string)
	model, _ := props["model"].(string)
	etag, _ := props["etag"].(string)
	bodyStr, _ := props["body"].(string)

	var stored map[string]interface{}
	if bodyStr != "" {
		if err := json.Unmarshal([]byte(bodyStr), &stored); err != nil {
			return nil, fmt.Errorf("dataplane: decoding twin %q body: %w", id, err)
		}
	}
	body, metadata := splitBodyAndMetadata(stored)
	return &Twin{ID: id, ModelID: model, ETag: etag, Body: body, Metadata: metadata}, nil
}
