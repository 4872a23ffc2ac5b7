package dtwinclient

import (
	"context"

	"github.com/evalgo/digitaltwins/internal/dataplane"
)

// CreateOrReplaceDigitalTwin creates or fully replaces one twin, validating
// body against its declared model (spec §4.3).
func (c *Client) CreateOrReplaceDigitalTwin(ctx context.Context, id string, body map[string]interface{}, ifNoneMatch string) (*dataplane.Twin, error) {
	return c.Dataplane.CreateOrReplaceDigitalTwin(ctx, id, body, ifNoneMatch)
}

// CreateOrReplaceDigitalTwins is the batched form, up to dataplane.MaxBatchSize
// items per call.
func (c *Client) CreateOrReplaceDigitalTwins(ctx context.Context, items map[string]map[string]interface{}) (*dataplane.BatchResult, error) {
	return c.Dataplane.CreateOrReplaceDigitalTwins(ctx, items)
}

// GetDigitalTwin fetches one twin by ID.
func (c *Client) GetDigitalTwin(ctx context.Context, id string) (*dataplane.Twin, error) {
	return c.Dataplane.GetDigitalTwin(ctx, id)
}

// UpdateDigitalTwin applies a JSON-Patch document to one twin, honoring
// ifMatch as an optimistic-concurrency ETag precondition when non-empty.
func (c *Client) UpdateDigitalTwin(ctx context.Context, id string, patch []byte, ifMatch string) (*dataplane.Twin, error) {
	return c.Dataplane.UpdateDigitalTwin(ctx, id, patch, ifMatch)
}

// DeleteDigitalTwin removes one twin. With force=false, it fails if any
// relationship still references the twin; with force=true it detaches and
// deletes the relationships along with the twin.
func (c *Client) DeleteDigitalTwin(ctx context.Context, id string, ifMatch string, force bool) error {
	return c.Dataplane.DeleteDigitalTwin(ctx, id, ifMatch, force)
}

// GetComponent reads one named component off a twin.
func (c *Client) GetComponent(ctx context.Context, twinID, componentName string) (map[string]interface{}, error) {
	return c.Dataplane.GetComponent(ctx, twinID, componentName)
}

// UpdateComponent applies a JSON-Patch document to one named component.
func (c *Client) UpdateComponent(ctx context.Context, twinID, componentName string, patch []byte) (*dataplane.Twin, error) {
	return c.Dataplane.UpdateComponent(ctx, twinID, componentName, patch)
}

// CreateOrReplaceRelationship creates or fully replaces one typed edge
// between two twins.
func (c *Client) CreateOrReplaceRelationship(ctx context.Context, sourceID, relationshipID, targetID, name string, body map[string]interface{}, ifNoneMatch string) (*dataplane.Relationship, error) {
	return c.Dataplane.CreateOrReplaceRelationship(ctx, sourceID, relationshipID, targetID, name, body, ifNoneMatch)
}

// CreateOrReplaceRelationships is the batched form.
func (c *Client) CreateOrReplaceRelationships(ctx context.Context, items []dataplane.RelationshipCreateRequest) (*dataplane.BatchResult, error) {
	return c.Dataplane.CreateOrReplaceRelationships(ctx, items)
}

// GetRelationship fetches one relationship by its source twin and
// relationship ID.
func (c *Client) GetRelationship(ctx context.Context, sourceID, relationshipID string) (*dataplane.Relationship, error) {
	return c.Dataplane.GetRelationship(ctx, sourceID, relationshipID)
}

// UpdateRelationship applies a JSON-Patch document to one relationship.
func (c *Client) UpdateRelationship(ctx context.Context, sourceID, relationshipID string, patch []byte, ifMatch string) (*dataplane.Relationship, error) {
	return c.Dataplane.UpdateRelationship(ctx, sourceID, relationshipID, patch, ifMatch)
}

// DeleteRelationship removes one relationship.
func (c *Client) DeleteRelationship(ctx context.Context, sourceID, relationshipID string, ifMatch string) error {
	return c.Dataplane.DeleteRelationship(ctx, sourceID, relationshipID, ifMatch)
}
