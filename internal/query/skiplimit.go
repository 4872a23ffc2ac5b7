package query

import (
	"regexp"
	"strconv"
	"strings"
)

var trailingSkipLimit = regexp.MustCompile(`(?i)^(.*?)(?:\s+SKIP\s+(\d+))?(?:\s+LIMIT\s+(\d+))?$`)

// parsedQuery is a PGQL query with any trailing SKIP/LIMIT clauses
// parsed off, per spec §4.5 step 1 ("Parse trailing SKIP s / LIMIT l
// off the query (if present) and keep them separately").
type parsedQuery struct {
	Base  string
	Skip  int
	Limit *int
}

func parseSkipLimit(pgql string) parsedQuery {
	trimmed := strings.TrimSpace(pgql)
	match := trailingSkipLimit.FindStringSubmatch(trimmed)
	if match == nil {
		return parsedQuery{Base: trimmed}
	}
	result := parsedQuery{Base: strings.TrimSpace(match[1])}
	if match[2] != "" {
		n, _ := strconv.Atoi(match[2])
		result.Skip = n
	}
	if match[3] != "" {
		n, _ := strconv.Atoi(match[3])
		result.Limit = &n
	}
	return result
}
