package catalog

import (
	"fmt"
	"time"

	"github.com/evalgo/digitaltwins/internal/dtdl"
)

// modelFromVertexProperties decodes one AGE Model vertex's `properties`
// object (as returned inside the agtype RETURN payload) into a Model.
func modelFromVertexProperties(vertex map[string]interface{}) (*Model, error) {
	props, ok := vertex["properties"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("catalog: malformed model vertex: missing properties")
	}

	id, _ := props["dtmi"].(string)
	if id == "" {
		return nil, fmt.Errorf("catalog: malformed model vertex: missing dtmi")
	}
	docStr, _ := props["dtdl_document"].(string)
	decommissioned, _ := props["decommissioned"].(bool)

	var uploadTime time.Time
	if ts, ok := props["upload_time"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			uploadTime = parsed
		}
	}

	return &Model{
		ID:             id,
		DTDLDocument:   []byte(docStr),
		Bases:          toStringSlice(props["bases"]),
		Descendants:    toStringSlice(props["descendants"]),
		Decommissioned: decommissioned,
		UploadTime:     uploadTime,
	}, nil
}

func toStringSlice(v interface{}) []dtdl.DTMI {
	arr, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]dtdl.DTMI, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
