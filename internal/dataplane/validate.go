package dataplane

import (
	"context"
	"fmt"

	"github.com/evalgo/digitaltwins/internal/catalog"
	"github.com/evalgo/digitaltwins/internal/dtdl"
)

// modelKeys are the reserved top-level keys spec §3 assigns to a twin
// body that aren't themselves property values and so are skipped during
// content validation.
var modelKeys = map[string]bool{
	"$dtId":     true,
	"$etag":     true,
	"$metadata": true,
}

// loadFlattenedModel fetches dtmi's flattened view through the catalog's
// short-TTL cache, failing ValidationFailed when the model is absent or
// decommissioned (spec §4.3: "Fetch the referenced Model (through a
// short-TTL cache); if absent or decommissioned, ValidationFailed").
func (d *Dataplane) loadFlattenedModel(ctx context.Context, dtmi string) (*catalog.ModelView, error) {
	view, err := d.catalog.GetModel(ctx, dtmi, catalog.GetOptions{IncludeFlattened: true})
	if err != nil {
		return nil, &ValidationFailed{ID: dtmi, Issues: []string{"model not found: " + err.Error()}}
	}
	if view.Model.Decommissioned {
		return nil, &ValidationFailed{ID: dtmi, Issues: []string{"model is decommissioned"}}
	}
	return view, nil
}

// validateTwinBody checks every property key present in body against
// flattened.Properties (primitive schemas coerced numerically, object/map
// recursed per dtdl.ValidateValue), collecting every offending path
// rather than stopping at the first (spec §4.3).
func validateTwinBody(flattened *dtdl.Flattened, body map[string]interface{}) []dtdl.ValidationIssue {
	var issues []dtdl.ValidationIssue
	for key, value := range body {
		if modelKeys[key] {
			continue
		}
		content, ok := flattened.FindProperty(key)
		if !ok {
			content, ok = flattened.FindComponent(key)
			if !ok {
				issues = append(issues, dtdl.ValidationIssue{Path: key, Reason: "not a property or component declared on the twin's model"})
				continue
			}
			compValue, isMap := value.(map[string]interface{})
			if !isMap {
				issues = append(issues, dtdl.ValidationIssue{Path: key, Reason: "expected an object for component content"})
				continue
			}
			for k := range compValue {
				if modelKeys[k] {
					continue
				}
				issues = append(issues, dtdl.ValidationIssue{Path: key + "/" + k, Reason: "component-level schema validation runs through GetComponent/UpdateComponent"})
			}
			continue
		}
		issues = dtdl.ValidateValue(content.Schema, value, key, issues)
	}
	return issues
}

// validateRelationshipBody checks the custom property keys of a
// relationship body against the relationship content's nested property
// declarations (spec §4.3: "property schema validation as for twins").
func validateRelationshipBody(content dtdl.Content, body map[string]interface{}) []dtdl.ValidationIssue {
	var issues []dtdl.ValidationIssue
	for key, value := range body {
		if modelKeys[key] || key == "$relationshipId" || key == "$sourceId" || key == "$targetId" || key == "$relationshipName" {
			continue
		}
		prop, ok := findRelProperty(content.RelProperties, key)
		if !ok {
			issues = append(issues, dtdl.ValidationIssue{Path: key, Reason: "not a property declared on the relationship"})
			continue
		}
		issues = dtdl.ValidateValue(prop.Schema, value, key, issues)
	}
	return issues
}

func findRelProperty(props []dtdl.Content, name string) (dtdl.Content, bool) {
	for _, p := range props {
		if p.Name == name {
			return p, true
		}
	}
	return dtdl.Content{}, false
}

func issuesError(id string, issues []dtdl.ValidationIssue) error {
	if len(issues) == 0 {
		return nil
	}
	strs := make([]string, 0, len(issues))
	for _, i := range issues {
		strs = append(strs, i.String())
	}
	return &ValidationFailed{ID: id, Issues: strs}
}

func requireModelID(body map[string]interface{}) (string, error) {
	meta, ok := body["$metadata"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("%w: body.$metadata.$model is required", ErrArgumentError)
	}
	model, ok := meta["$model"].(string)
	if !ok || model == "" {
		return "", fmt.Errorf("%w: body.$metadata.$model is required", ErrArgumentError)
	}
	return model, nil
}
