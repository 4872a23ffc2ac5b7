package dataplane

import (
	"reflect"
	"time"
)

// dataOnly strips the reserved top-level keys from a twin/relationship
// body, leaving just the caller's property values.
func dataOnly(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		if modelKeys[k] || k == "$relationshipId" || k == "$sourceId" || k == "$targetId" || k == "$relationshipName" {
			continue
		}
		out[k] = v
	}
	return out
}

// callerMetadata reads an optional "$metadata" object a caller embedded in
// a create/replace request body, mapping property name to any
// caller-supplied sourceTime — spec §4.3's "preserving caller-supplied
// sourceTime if present".
func callerMetadata(body map[string]interface{}) map[string]string {
	out := map[string]string{}
	meta, ok := body["$metadata"].(map[string]interface{})
	if !ok {
		return out
	}
	for name, v := range meta {
		entry, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		if st, ok := entry["sourceTime"].(string); ok {
			out[name] = st
		}
	}
	return out
}

// stampMetadata builds a fresh PropertyMetadata for every data property in
// body, used by CreateOrReplaceDigitalTwin/Relationship (a full replace
// always refreshes lastUpdatedOn, carrying forward a caller-supplied
// sourceTime when given).
func stampMetadata(body map[string]interface{}, now time.Time) map[string]PropertyMetadata {
	caller := callerMetadata(body)
	out := make(map[string]PropertyMetadata)
	for key := range dataOnly(body) {
		pm := PropertyMetadata{LastUpdatedOn: now}
		if st, ok := caller[key]; ok {
			s := st
			pm.SourceTime = &s
		}
		out[key] = pm
	}
	return out
}

// mergeBodyAndMetadata embeds metadata as the stored body's "$metadata"
// object, alongside the caller's data properties, producing the
// JSON-serialized shape persisted to the Twin/Relationship vertex.
func mergeBodyAndMetadata(body map[string]interface{}, metadata map[string]PropertyMetadata) map[string]interface{} {
	out := dataOnly(body)
	meta := make(map[string]interface{}, len(metadata))
	for name, pm := range metadata {
		entry := map[string]interface{}{"lastUpdatedOn": pm.LastUpdatedOn.Format(time.RFC3339)}
		if pm.SourceTime != nil {
			entry["sourceTime"] = *pm.SourceTime
		}
		meta[name] = entry
	}
	out["$metadata"] = meta
	return out
}

// splitBodyAndMetadata reverses mergeBodyAndMetadata: given a stored
// document, separate the caller's data properties from the parsed
// per-property metadata.
func splitBodyAndMetadata(stored map[string]interface{}) (map[string]interface{}, map[string]PropertyMetadata) {
	metadata := make(map[string]PropertyMetadata)
	if raw, ok := stored["$metadata"].(map[string]interface{}); ok {
		for name, v := range raw {
			entry, ok := v.(map[string]interface{})
			if !ok {
				continue
			}
			pm := PropertyMetadata{}
			if ts, ok := entry["lastUpdatedOn"].(string); ok {
				if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
					pm.LastUpdatedOn = parsed
				}
			}
			if st, ok := entry["sourceTime"].(string); ok {
				s := st
				pm.SourceTime = &s
			}
			metadata[name] = pm
		}
	}
	return dataOnly(stored), metadata
}

// diffMetadata computes the post-patch metadata map per spec §4.3 Patch
// Twin: a property whose value changed gets a fresh lastUpdatedOn; a
// property removed by the patch loses its metadata entry entirely; an
// unchanged property keeps its prior stamp unless the patch itself
// rewrote `/$metadata/<name>/sourceTime`, in which case patchedFull
// already reflects that edit verbatim (json-patch applied it directly),
// so reading sourceTime back out of patchedFull's own "$metadata" object
// honors it without any special-casing here.
func diffMetadata(oldBody, patchedFull map[string]interface{}, oldMetadata map[string]PropertyMetadata, now time.Time) map[string]PropertyMetadata {
	patchedData := dataOnly(patchedFull)
	patchedMeta, ok := patchedFull["$metadata"].(map[string]interface{})
	if !ok {
		patchedMeta = map[string]interface{}{}
	}

	out := make(map[string]PropertyMetadata, len(patchedData))
	for key, newVal := range patchedData {
		sourceTime := extractSourceTime(patchedMeta, key)

		oldVal, hadOld := oldBody[key]
		changed := !hadOld || !reflect.DeepEqual(oldVal, newVal)

		lastUpdatedOn := now
		if !changed {
			if old, ok := oldMetadata[key]; ok && !old.LastUpdatedOn.IsZero() {
				lastUpdatedOn = old.LastUpdatedOn
			}
		}
		out[key] = PropertyMetadata{LastUpdatedOn: lastUpdatedOn, SourceTime: sourceTime}
	}
	return out
}

func extractSourceTime(meta map[string]interface{}, key string) *string {
	entry, ok := meta[key].(map[string]interface{})
	if !ok {
		return nil
	}
	if st, ok := entry["sourceTime"].(string); ok {
		s := st
		return &s
	}
	return nil
}
