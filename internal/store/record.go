package store

import (
	"encoding/json"
	"fmt"
)

// Record is one decoded result row, exposing named-field access in the
// style of neo4j.Record.Get — grounded on db/repository/neo4j.go's usage
// of record.Get("path")/record.Get("count") against Cypher RETURN
// clauses, adapted here to AGE's single `result agtype` column, which this
// package decodes into a name→value map keyed by the RETURN alias.
type Record struct {
	values map[string]interface{}
}

// Get returns the named field and whether it was present. Field names
// correspond to the alias in the PGQL query's RETURN clause (e.g. "T" in
// "MATCH (T:Twin) RETURN T").
func (r *Record) Get(name string) (interface{}, bool) {
	v, ok := r.values[name]
	return v, ok
}

// GetString, GetInt64 and GetMap are typed convenience
// wrappers over Get, returning an error instead of a zero value on a type
// mismatch so store callers fail loudly rather than silently misreading a
// twin/model property.
func (r *Record) GetString(name string) (string, error) {
	v, ok := r.values[name]
	if !ok {
		return "", fmt.Errorf("store: field %q not present in record", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("store: field %q is not a string (got %T)", name, v)
	}
	return s, nil
}

func (r *Record) GetMap(name string) (map[string]interface{}, error) {
	v, ok := r.values[name]
	if !ok {
		return nil, fmt.Errorf("store: field %q not present in record", name)
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("store: field %q is not an object (got %T)", name, v)
	}
	return m, nil
}

func (r *Record) GetInt64(name string) (int64, error) {
	v, ok := r.values[name]
	if !ok {
		return 0, fmt.Errorf("store: field %q not present in record", name)
	}
	switch n := v.(type) {
	case float64:
		return int64(n), nil
	case int64:
		return n, nil
	default:
		return 0, fmt.Errorf("store: field %q is not numeric (got %T)", name, v)
	}
}

// Keys returns the record's field names.
func (r *Record) Keys() []string {
	keys := make([]string, 0, len(r.values))
	for k := range r.values {
		keys = append(keys, k)
	}
	return keys
}

// Rows is a fully materialized result set, used by callers that need
// random access or a count (ExecutePGQL). For large result sets, prefer
// ExecuteStream's RowIterator instead.
type Rows struct {
	Records []*Record
}

// Len returns the number of records.
func (r *Rows) Len() int { return len(r.Records) }

// decodeAgtypeRow parses one "result agtype" column (stored by AGE as a
// string of JSON-ish agtype text) into a Record. AGE wraps the RETURN
// clause's aliases into a JSON object of {alias: value}; this function
// trims AGE's type suffix annotations (e.g. "::vertex") before decoding,
// since those annotations aren't valid JSON on their own.
func decodeAgtypeRow(raw string) (*Record, error) {
	cleaned := stripAgtypeAnnotations(raw)
	var values map[string]interface{}
	if err := json.Unmarshal([]byte(cleaned), &values); err != nil {
		return nil, fmt.Errorf("store: decoding agtype row: %w", err)
	}
	return &Record{values: values}, nil
}

// stripAgtypeAnnotations removes AGE's "::vertex"/"::edge"/"::path" type
// suffixes so the remaining text is plain JSON. AGE appends these after
// the closing brace/bracket of a composite value; this is a best-effort
// textual strip rather than a full agtype parser, sufficient for the
// vertex/edge/scalar shapes this service's PGQL queries produce.
func stripAgtypeAnnotations(raw string) string {
	out := make([]byte, 0, len(raw))
	depth := 0
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch c {
		case '{', '[':
			depth++
			out = append(out, c)
		case '}', ']':
			depth--
			out = append(out, c)
			i = skipAnnotation(raw, i+1) - 1
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

// skipAnnotation advances past a "::word" annotation starting at i,
// returning the index immediately after it (or i if there is none).
func skipAnnotation(raw string, i int) int {
	if i+1 >= len(raw) || raw[i] != ':' || raw[i+1] != ':' {
		return i
	}
	j := i + 2
	for j < len(raw) && isIdentByte(raw[j]) {
		j++
	}
	return j
}

func isIdentByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}
