package dataplane

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/evalgo/digitaltwins/internal/store"

	jsonpatch "github.com/evanphx/json-patch"
)

// CreateOrReplaceRelationship implements spec §4.3 Relationship Upsert:
// both endpoints must exist, the source's flattened model must declare a
// relationship with that name, the target must satisfy the relationship's
// `target` attribute if set, and properties validate like twin
// properties. `ifNoneMatch = "*"` rejects an existing edge.
func (d *Dataplane) CreateOrReplaceRelationship(ctx context.Context, sourceID, relationshipID, targetID, name string, body map[string]interface{}, ifNoneMatch string) (*Relationship, error) {
	if sourceID == "" || relationshipID == "" || targetID == "" || name == "" {
		return nil, fmt.Errorf("%w: sourceId, relationshipId, targetId, and relationshipName are all required", ErrArgumentError)
	}

	source, err := d.fetchTwinRow(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("%w: source twin %s", ErrDigitalTwinNotFound, sourceID)
	}
	if _, err := d.fetchTwinRow(ctx, targetID); err != nil {
		return nil, fmt.Errorf("%w: target twin %s", ErrDigitalTwinNotFound, targetID)
	}

	view, err := d.loadFlattenedModel(ctx, source.ModelID)
	if err != nil {
		return nil, err
	}
	content, ok := view.Flattened.FindRelationship(name)
	if !ok {
		return nil, &ValidationFailed{ID: relationshipID, Issues: []string{fmt.Sprintf("relationship %q is not declared on model %s", name, source.ModelID)}}
	}
	if content.Target != "" {
		targetOK, err := d.catalog.IsOfModel(ctx, targetID, content.Target, false)
		if err != nil || !targetOK {
			return nil, &ValidationFailed{ID: relationshipID, Issues: []string{fmt.Sprintf("target %s is not an instance of required model %s", targetID, content.Target)}}
		}
	}
	if issues := validateRelationshipBody(content, body); len(issues) > 0 {
		return nil, issuesError(relationshipID, issues)
	}

	_, existErr := d.fetchRelationshipRow(ctx, sourceID, relationshipID)
	if ifNoneMatch == "*" && existErr == nil {
		return nil, fmt.Errorf("%w: relationship %q already exists", ErrPreconditionFailed, relationshipID)
	}

	now := time.Now().UTC()
	metadata := stampMetadata(body, now)

	var rel *Relationship
	err = d.store.Transaction(ctx, d.graph, func(tx *store.Tx) error {
		etag, err := nextETag(ctx, tx, relationshipSequenceName(sourceID, relationshipID))
		if err != nil {
			return err
		}
		raw, err := marshalBody(mergeBodyAndMetadata(body, metadata))
		if err != nil {
			return err
		}
		_, err = tx.ExecutePGQL(ctx, d.graph, `
			MATCH (s:Twin {dt_id: $source}), (t:Twin {dt_id: $target})
			MERGE (s)-[r:Relationship {relationship_id: $relId, source_id: $source}]->(t)
			SET r.name = $name, r.target_id = $target, r.body = $body, r.etag = $etag
		`, map[string]interface{}{
			"source": sourceID, "target": targetID, "relId": relationshipID,
			"name": name, "body": raw, "etag": etag,
		})
		if err != nil {
			return fmt.Errorf("dataplane: writing relationship %q: %w", relationshipID, err)
		}
		rel = &Relationship{ID: relationshipID, SourceID: sourceID, TargetID: targetID, Name: name, ETag: etag, Body: body, Metadata: metadata}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rel, nil
}

// CreateOrReplaceRelationships runs a non-empty batch of at most
// MaxBatchSize relationship upserts, spec §6's client-table signature.
func (d *Dataplane) CreateOrReplaceRelationships(ctx context.Context, items []RelationshipCreateRequest) (*BatchResult, error) {
	if len(items) == 0 || len(items) > MaxBatchSize {
		return nil, fmt.Errorf("%w: batch of %d relationships must contain between 1 and %d", ErrArgumentError, len(items), MaxBatchSize)
	}
	result := &BatchResult{}
	for _, item := range items {
		if _, err := d.CreateOrReplaceRelationship(ctx, item.SourceID, item.RelationshipID, item.TargetID, item.Name, item.Body, ""); err != nil {
			result.Failures = append(result.Failures, BatchItemResult{ID: item.RelationshipID, Error: err})
			continue
		}
		result.Successes = append(result.Successes, BatchItemResult{ID: item.RelationshipID})
	}
	return result, nil
}

// RelationshipCreateRequest is one element of a CreateOrReplaceRelationships batch.
type RelationshipCreateRequest struct {
	SourceID       string
	RelationshipID string
	TargetID       string
	Name           string
	Body           map[string]interface{}
}

// GetRelationship returns one relationship by source twin and relationship id.
func (d *Dataplane) GetRelationship(ctx context.Context, sourceID, relationshipID string) (*Relationship, error) {
	rel, err := d.fetchRelationshipRow(ctx, sourceID, relationshipID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrRelationshipNotFound, sourceID, relationshipID)
	}
	return rel, nil
}

// UpdateRelationship applies an RFC 6902 JSON-Patch to a relationship's
// custom properties, mirroring UpdateDigitalTwin's semantics.
func (d *Dataplane) UpdateRelationship(ctx context.Context, sourceID, relationshipID string, patch []byte, ifMatch string) (*Relationship, error) {
	current, err := d.fetchRelationshipRow(ctx, sourceID, relationshipID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrRelationshipNotFound, sourceID, relationshipID)
	}
	if ifMatch != "" && ifMatch != current.ETag {
		return nil, fmt.Errorf("%w: relationship %q etag mismatch", ErrPreconditionFailed, relationshipID)
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

	source, err := d.fetchTwinRow(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("%w: source twin %s", ErrDigitalTwinNotFound, sourceID)
	}
	view, err := d.loadFlattenedModel(ctx, source.ModelID)
	if err != nil {
		return nil, err
	}
	content, ok := view.Flattened.FindRelationship(current.Name)
	if ok {
		if issues := validateRelationshipBody(content, patchedBody); len(issues) > 0 {
			return nil, issuesError(relationshipID, issues)
		}
	}

	now := time.Now().UTC()
	metadata := diffMetadata(current.Body, patchedFull, current.Metadata, now)

	var rel *Relationship
	err = d.store.Transaction(ctx, d.graph, func(tx *store.Tx) error {
		etag, err := nextETag(ctx, tx, relationshipSequenceName(sourceID, relationshipID))
		if err != nil {
			return err
		}
		raw, err := marshalBody(mergeBodyAndMetadata(patchedBody, metadata))
		if err != nil {
			return err
		}
		_, err = tx.ExecutePGQL(ctx, d.graph, `
			MATCH (:Twin {dt_id: $source})-[r:Relationship {relationship_id: $relId, source_id: $source}]->(:Twin)
			SET r.body = $body, r.etag = $etag
		`, map[string]interface{}{"source": sourceID, "relId": relationshipID, "body": raw, "etag": etag})
		if err != nil {
			return fmt.Errorf("dataplane: patching relationship %q: %w", relationshipID, err)
		}
		rel = &Relationship{ID: relationshipID, SourceID: sourceID, TargetID: current.TargetID, Name: current.Name, ETag: etag, Body: patchedBody, Metadata: metadata}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rel, nil
}

// DeleteRelationship removes one relationship edge.
func (d *Dataplane) DeleteRelationship(ctx context.Context, sourceID, relationshipID string, ifMatch string) error {
	current, err := d.fetchRelationshipRow(ctx, sourceID, relationshipID)
	if err != nil {
		return fmt.Errorf("%w: %s/%s", ErrRelationshipNotFound, sourceID, relationshipID)
	}
	if ifMatch != "" && ifMatch != current.ETag {
		return fmt.Errorf("%w: relationship %q etag mismatch", ErrPreconditionFailed, relationshipID)
	}
	return d.store.Transaction(ctx, d.graph, func(tx *store.Tx) error {
		_, err := tx.ExecutePGQL(ctx, d.graph, `
			MATCH (:Twin {dt_id: $source})-[r:Relationship {relationship_id: $relId, source_id: $source}]->(:Twin)
			DELETE r
		`, map[string]interface{}{"source": sourceID, "relId": relationshipID})
		if err != nil {
			return fmt.Errorf("dataplane: deleting relationship %q: %w", relationshipID, err)
		}
		return nil
	})
}

func (d *Dataplane) fetchRelationshipRow(ctx context.Context, sourceID, relationshipID string) (*Relationship, error) {
	record, err := d.store.ExecuteScalar(ctx, d.graph, `
		MATCH (:Twin {dt_id: $source})-[r:Relationship {relationship_id: $relId, source_id: $source}]->(t:Twin)
		RETURN r
	`, map[string]interface{}{"source": sourceID, "relId": relationshipID})
	if err != nil {
		return nil, err
	}
	edge, ok := record.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("dataplane: malformed relationship edge for %q", relationshipID)
	}
	return relationshipFromEdgeProperties(edge)
}

func relationshipFromEdgeProperties(edge map[string]interface{}) (*Relationship, error) {
	props, ok := edge["properties"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("dataplane: malformed relationship edge: missing properties")
	}
	id, _ := props["relationship_id"].(string)
	source, _ := props["source_id"].(string)
	target, _ := props["target_id"].(string)
	name, _ := props["name"].(string)
	etag, _ := props["etag"].(string)
	bodyStr, _ := props["body"].(string)

	var stored map[string]interface{}
	if bodyStr != "" {
		if err := json.Unmarshal([]byte(bodyStr), &stored); err != nil {
			return nil, fmt.Errorf("dataplane: decoding relationship %q body: %w", id, err)
		}
	}
	body, metadata := splitBodyAndMetadata(stored)
	return &Relationship{ID: id, SourceID: source, TargetID: target, Name: name, ETag: etag, Body: body, Metadata: metadata}, nil
}
