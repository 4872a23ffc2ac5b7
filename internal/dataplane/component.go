package dataplane

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	jsonpatch "github.com/evanphx/json-patch"
)

// GetComponent returns one component's body, a sub-path of the twin body
// named by componentName, per spec §4.3 Component read/patch.
func (d *Dataplane) GetComponent(ctx context.Context, twinID, componentName string) (map[string]interface{}, error) {
	twin, err := d.fetchTwinRow(ctx, twinID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDigitalTwinNotFound, twinID)
	}
	view, err := d.loadFlattenedModel(ctx, twin.ModelID)
	if err != nil {
		return nil, err
	}
	if _, ok := view.Flattened.FindComponent(componentName); !ok {
		return nil, fmt.Errorf("%w: %s is not a component on %s", ErrComponentNotFound, componentName, twin.ModelID)
	}
	comp, ok := twin.Body[componentName].(map[string]interface{})
	if !ok {
		return map[string]interface{}{}, nil
	}
	return comp, nil
}

// UpdateComponent applies an RFC 6902 JSON-Patch to one component's
// sub-path of the twin body, validating the patched component against
// its component schema model (spec §4.3: "Validation is against the
// component's schema model").
func (d *Dataplane) UpdateComponent(ctx context.Context, twinID, componentName string, patch []byte) (*Twin, error) {
	twin, err := d.fetchTwinRow(ctx, twinID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDigitalTwinNotFound, twinID)
	}
	view, err := d.loadFlattenedModel(ctx, twin.ModelID)
	if err != nil {
		return nil, err
	}
	content, ok := view.Flattened.FindComponent(componentName)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a component on %s", ErrComponentNotFound, componentName, twin.ModelID)
	}

	comp, _ := twin.Body[componentName].(map[string]interface{})
	if comp == nil {
		comp = map[string]interface{}{}
	}
	currentRaw, err := json.Marshal(comp)
	if err != nil {
		return nil, err
	}
	decoded, err := jsonpatch.DecodePatch(patch)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed json-patch: %v", ErrArgumentError, err)
	}
	patchedRaw, err := decoded.Apply(currentRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: applying json-patch: %v", ErrArgumentError, err)
	}
	var patchedComponent map[string]interface{}
	if err := json.Unmarshal(patchedRaw, &patchedComponent); err != nil {
		return nil, err
	}

	componentModel, err := d.loadFlattenedModel(ctx, content.ComponentSchema)
	if err != nil {
		return nil, err
	}
	if issues := validateTwinBody(componentModel.Flattened, patchedComponent); len(issues) > 0 {
		return nil, issuesError(componentName, issues)
	}

	newBody := dataOnly(twin.Body)
	newBody[componentName] = patchedComponent

	now := time.Now().UTC()
	metadata := make(map[string]PropertyMetadata, len(twin.Metadata))
	for k, v := range twin.Metadata {
		metadata[k] = v
	}
	metadata[componentName] = PropertyMetadata{LastUpdatedOn: now}

	return d.writeTwinBody(ctx, twinID, twin.ModelID, newBody, metadata)
}
