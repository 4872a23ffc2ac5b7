package tdql

import "regexp"

// variableLengthEdgePattern matches `[*]`, `[*n..m]`, `[r*]`, and
// `[r:X*…]` edge forms.
var variableLengthEdgePattern = regexp.MustCompile(`\[[^\]]*\*[^\]]*\]`)

// HasVariableLengthEdge reports whether a rendered PGQL/Cypher query
// contains a variable-length edge pattern. internal/query uses this to
// pick the client-side pagination path instead of SKIP/LIMIT injection,
// per spec §4.5 ("the backend's semantics for SKIP interact poorly with
// variable-length path expansion").
func HasVariableLengthEdge(pgql string) bool {
	return variableLengthEdgePattern.MatchString(pgql)
}
