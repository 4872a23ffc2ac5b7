package query

import (
	"context"
	"fmt"

	"github.com/evalgo/digitaltwins/internal/tdql"
)

// Pages fetches one page, implementing spec §4.5's exact algorithm. On
// the first call, pass an empty continuationToken and the base PGQL
// query (TDQL is rejected here — callers translate once up front via
// Executor.toPGQL/Query so the token can re-encode a stable PGQL string).
// On subsequent calls, pass the token returned by the previous page; the
// pgql argument is then only used as a fallback if the token decodes to
// an empty query.
func (e *Executor) Pages(ctx context.Context, pgql string, continuationToken string, pageSizeHint int) (*Page, error) {
	query := pgql
	offset := 0
	if continuationToken != "" {
		decodedQuery, decodedOffset, err := decodeToken(continuationToken)
		if err != nil {
			return nil, err
		}
		if decodedQuery != "" {
			query = decodedQuery
		}
		offset = decodedOffset
	}

	parsed := parseSkipLimit(query)

	if tdql.HasVariableLengthEdge(parsed.Base) {
		return e.pageClientSide(ctx, parsed, offset, pageSizeHint)
	}
	return e.pageWithSkipLimit(ctx, parsed, offset, pageSizeHint)
}

func effectivePageSize(hint int, limit *int, alreadyReturned int) int {
	size := DefaultPageSize
	if hint > 0 {
		size = hint
	}
	if limit != nil {
		remaining := *limit - alreadyReturned
		if remaining < 0 {
			remaining = 0
		}
		if remaining < size {
			size = remaining
		}
	}
	return size
}

// pageWithSkipLimit implements steps 2-4 of §4.5: re-execute the query
// with SKIP/LIMIT injected, fetching one extra row as a lookahead to
// detect whether a further page exists.
func (e *Executor) pageWithSkipLimit(ctx context.Context, parsed parsedQuery, alreadyReturned, pageSizeHint int) (*Page, error) {
	size := effectivePageSize(pageSizeHint, parsed.Limit, alreadyReturned)
	if size == 0 {
		return &Page{}, nil
	}

	injected := fmt.Sprintf("%s SKIP %d LIMIT %d", parsed.Base, parsed.Skip+alreadyReturned, size+1)
	rows, err := e.store.ExecutePGQL(ctx, e.graph, injected, nil)
	if err != nil {
		return nil, err
	}

	fetched := rows.Records
	hasMore := len(fetched) > size
	if hasMore {
		fetched = fetched[:size]
	}
	if parsed.Limit != nil && alreadyReturned+len(fetched) >= *parsed.Limit {
		hasMore = false
	}

	page := &Page{Values: make([]Row, len(fetched))}
	for i, rec := range fetched {
		page.Values[i] = recordToRow(rec)
	}

	if hasMore {
		token, err := encodeToken(parsed.Base, alreadyReturned+len(fetched))
		if err != nil {
			return nil, err
		}
		page.ContinuationToken = &token
	}
	return page, nil
}

// pageClientSide handles variable-length-edge queries, which bypass
// SKIP/LIMIT injection per spec §4.5 ("the backend's semantics for SKIP
// interact poorly with variable-length path expansion"): the full result
// set is fetched eagerly once and paginated over in memory.
func (e *Executor) pageClientSide(ctx context.Context, parsed parsedQuery, alreadyReturned, pageSizeHint int) (*Page, error) {
	rows, err := e.store.ExecutePGQL(ctx, e.graph, parsed.Base, nil)
	if err != nil {
		return nil, err
	}

	size := DefaultPageSize
	if pageSizeHint > 0 {
		size = pageSizeHint
	}

	start := alreadyReturned
	if start > len(rows.Records) {
		start = len(rows.Records)
	}
	end := start + size
	if end > len(rows.Records) {
		end = len(rows.Records)
	}

	page := &Page{Values: make([]Row, end-start)}
	for i, rec := range rows.Records[start:end] {
		page.Values[i] = recordToRow(rec)
	}

	if end < len(rows.Records) {
		token, err := encodeToken(parsed.Base, end)
		if err != nil {
			return nil, err
		}
		page.ContinuationToken = &token
	}
	return page, nil
}
