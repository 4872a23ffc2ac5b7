package api

import (
	"github.com/evalgo/digitaltwins/internal/dataplane"
)

// twinJSON flattens a dataplane.Twin's Body map together with its reserved
// $dtId/$etag/$metadata keys into the single response document spec §3/§6
// describe, since Twin itself tags Body/Metadata json:"-" to keep its Go
// shape distinct from its wire shape.
func twinJSON(t *dataplane.Twin) map[string]interface{} {
	out := make(map[string]interface{}, len(t.Body)+3)
	for k, v := range t.Body {
		out[k] = v
	}
	out["$dtId"] = t.ID
	out["$etag"] = t.ETag
	if len(t.Metadata) > 0 {
		out["$metadata"] = metadataJSON(t.ModelID, t.Metadata)
	}
	return out
}

// relationshipJSON is twinJSON's counterpart for edges.
func relationshipJSON(r *dataplane.Relationship) map[string]interface{} {
	out := make(map[string]interface{}, len(r.Body)+5)
	for k, v := range r.Body {
		out[k] = v
	}
	out["$relationshipId"] = r.ID
	out["$sourceId"] = r.SourceID
	out["$targetId"] = r.TargetID
	out["$relationshipName"] = r.Name
	out["$etag"] = r.ETag
	if len(r.Metadata) > 0 {
		out["$metadata"] = metadataJSON("", r.Metadata)
	}
	return out
}

func metadataJSON(modelID string, props map[string]dataplane.PropertyMetadata) map[string]interface{} {
	meta := make(map[string]interface{}, len(props)+1)
	if modelID != "" {
		meta["$model"] = modelID
	}
	for name, pm := range props {
		meta[name] = pm
	}
	return meta
}

func batchResultJSON(r *dataplane.BatchResult) map[string]interface{} {
	successes := make([]string, 0, len(r.Successes))
	for _, s := range r.Successes {
		successes = append(successes, s.ID)
	}
	type failure struct {
		ID    string `json:"id"`
		Error string `json:"error"`
	}
	failures := make([]failure, 0, len(r.Failures))
	for _, f := range r.Failures {
		msg := ""
		if f.Error != nil {
			msg = f.Error.Error()
		}
		failures = append(failures, failure{ID: f.ID, Error: msg})
	}
	return map[string]interface{}{"successes": successes, "failures": failures}
}
