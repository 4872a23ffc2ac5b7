package dtwinclient

import (
	"context"
	"strings"

	"github.com/evalgo/digitaltwins/internal/query"
	"github.com/evalgo/digitaltwins/internal/tdql"
)

// Pages fetches one page of a TDQL or PGQL query (spec §4.4/§4.5),
// translating TDQL on the first call (an empty continuationToken) and
// passing whatever the continuation token decodes to through on later
// calls, matching Client.Query's own dialect-detection so callers can use
// either surface without translating TDQL themselves.
//
// For the initial call, Client.Query is usually preferable when the full
// result set should simply be streamed; reach for Pages when the caller
// wants spec §4.5's opaque continuation-token pagination instead.
func (c *Client) Pages(ctx context.Context, text string, continuationToken string, pageSizeHint int) (*query.Page, error) {
	pgql := text
	if continuationToken == "" {
		translated, err := translateIfTDQL(text, c.graph)
		if err != nil {
			return nil, err
		}
		pgql = translated
	}
	return c.Query.Pages(ctx, pgql, continuationToken, pageSizeHint)
}

func translateIfTDQL(text, graph string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(strings.ToUpper(trimmed), "SELECT") {
		return tdql.Translate(trimmed, graph)
	}
	return trimmed, nil
}
