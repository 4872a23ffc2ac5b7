package query

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// continuationPayload is the JSON shape base64-encoded into a
// continuation token: the original (SKIP/LIMIT-stripped) query plus the
// cumulative row offset already returned. Per spec §4.5/§9, this is
// deliberately unsigned and unauthenticated — callers must bind it to
// their own session/graph out-of-band; see the Open Question resolution
// in DESIGN.md.
type continuationPayload struct {
	Query  string `json:"query"`
	Offset int    `json:"offset"`
}

// encodeToken builds an opaque continuation token for query at offset.
func encodeToken(query string, offset int) (string, error) {
	data, err := json.Marshal(continuationPayload{Query: query, Offset: offset})
	if err != nil {
		return "", fmt.Errorf("query: encoding continuation token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// decodeToken recovers the query/offset pair from a continuation token.
func decodeToken(token string) (query string, offset int, err error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", 0, fmt.Errorf("query: decoding continuation token: %w", err)
	}
	var payload continuationPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", 0, fmt.Errorf("query: decoding continuation token: %w", err)
	}
	return payload.Query, payload.Offset, nil
}
