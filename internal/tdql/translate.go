package tdql

import "strings"

// Translate rewrites a TDQL statement into PGQL/Cypher text runnable
// against graph via internal/store, per spec §4.4. It is a pure function:
// graph is substituted only into rendered IS_OF_MODEL calls, and no store
// or catalog lookup is performed.
func Translate(tdql, graph string) (string, error) {
	normalized := normalizeKeywords(strings.TrimSpace(tdql))

	rest, rawMatch, hasRawMatch := splitRawMatch(normalized)

	toks := tokenize(rest)
	query, err := parseQuery(toks, rawMatch, hasRawMatch)
	if err != nil {
		return "", err
	}

	return render(query, graph)
}
