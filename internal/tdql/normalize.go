package tdql

import "regexp"

// tdqlKeywords lists the case-insensitive keywords spec §4.4 requires be
// normalized to uppercase before parsing ("Case-insensitive
// digitaltwins/relationships normalized to uppercase keywords").
var tdqlKeywords = []string{
	"SELECT", "FROM", "WHERE", "JOIN", "RELATED", "AS", "TOP", "COUNT",
	"DIGITALTWINS", "RELATIONSHIPS", "AND", "OR", "NOT", "MATCH",
	"IS_OF_MODEL", "IS_NUMBER", "STARTS_WITH", "CONTAINS",
}

var keywordPattern = func() *regexp.Regexp {
	pattern := `(?i)\b(`
	for i, kw := range tdqlKeywords {
		if i > 0 {
			pattern += "|"
		}
		pattern += kw
	}
	pattern += `)\b`
	return regexp.MustCompile(pattern)
}()

// normalizeKeywords uppercases every recognized TDQL keyword wherever it
// appears, regardless of the caller's casing.
func normalizeKeywords(tdql string) string {
	return keywordPattern.ReplaceAllStringFunc(tdql, func(m string) string {
		for _, kw := range tdqlKeywords {
			if len(kw) == len(m) && equalFold(kw, m) {
				return kw
			}
		}
		return m
	})
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'a' <= ca && ca <= 'z' {
			ca -= 'a' - 'A'
		}
		if 'a' <= cb && cb <= 'z' {
			cb -= 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
