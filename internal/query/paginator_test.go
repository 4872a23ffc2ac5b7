package query

import "testing"

func TestParseSkipLimit(t *testing.T) {
	tests := []struct {
		name      string
		pgql      string
		wantBase  string
		wantSkip  int
		wantLimit *int
	}{
		{
			name:     "no skip or limit",
			pgql:     "MATCH (T:Twin) RETURN T",
			wantBase: "MATCH (T:Twin) RETURN T",
		},
		{
			name:      "limit only",
			pgql:      "MATCH (T:Twin) RETURN T LIMIT 1",
			wantBase:  "MATCH (T:Twin) RETURN T",
			wantLimit: intPtr(1),
		},
		{
			name:      "skip and limit",
			pgql:      "MATCH (T:Twin) RETURN T SKIP 5 LIMIT 10",
			wantBase:  "MATCH (T:Twin) RETURN T",
			wantSkip:  5,
			wantLimit: intPtr(10),
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := parseSkipLimit(tc.pgql)
			if got.Base != tc.wantBase {
				t.Fatalf("Base = %q, want %q", got.Base, tc.wantBase)
			}
			if got.Skip != tc.wantSkip {
				t.Fatalf("Skip = %d, want %d", got.Skip, tc.wantSkip)
			}
			if (got.Limit == nil) != (tc.wantLimit == nil) {
				t.Fatalf("Limit = %v, want %v", got.Limit, tc.wantLimit)
			}
			if got.Limit != nil && *got.Limit != *tc.wantLimit {
				t.Fatalf("Limit = %d, want %d", *got.Limit, *tc.wantLimit)
			}
		})
	}
}

func intPtr(n int) *int { return &n }

func TestEffectivePageSize(t *testing.T) {
	tests := []struct {
		name            string
		hint            int
		limit           *int
		alreadyReturned int
		want            int
	}{
		{name: "default when no hint or limit", hint: 0, limit: nil, want: DefaultPageSize},
		{name: "hint wins over default", hint: 20, limit: nil, want: 20},
		{name: "limit caps hint", hint: 20, limit: intPtr(5), want: 5},
		{name: "limit accounts for already returned", hint: 20, limit: intPtr(12), alreadyReturned: 10, want: 2},
		{name: "exhausted limit yields zero", hint: 20, limit: intPtr(10), alreadyReturned: 10, want: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := effectivePageSize(tc.hint, tc.limit, tc.alreadyReturned)
			if got != tc.want {
				t.Fatalf("effectivePageSize() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := encodeToken("MATCH (T:Twin) RETURN T", 42)
	if err != nil {
		t.Fatalf("encodeToken: %v", err)
	}
	query, offset, err := decodeToken(token)
	if err != nil {
		t.Fatalf("decodeToken: %v", err)
	}
	if query != "MATCH (T:Twin) RETURN T" {
		t.Fatalf("query = %q", query)
	}
	if offset != 42 {
		t.Fatalf("offset = %d, want 42", offset)
	}
}

func TestExecutor_ToPGQL(t *testing.T) {
	e := New(nil, "g")

	pgql, err := e.toPGQL("select * from digitaltwins")
	if err != nil {
		t.Fatalf("toPGQL(tdql): %v", err)
	}
	if pgql != "MATCH (T:Twin) RETURN *" {
		t.Fatalf("toPGQL(tdql) = %q", pgql)
	}

	passthrough, err := e.toPGQL("MATCH (T:Twin) RETURN T")
	if err != nil {
		t.Fatalf("toPGQL(pgql): %v", err)
	}
	if passthrough != "MATCH (T:Twin) RETURN T" {
		t.Fatalf("toPGQL(pgql) = %q", passthrough)
	}

	if _, err := e.toPGQL("garbage"); err == nil {
		t.Fatal("expected error for unrecognized dialect")
	}
}
