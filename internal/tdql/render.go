package tdql

import (
	"fmt"
	"regexp"
	"strings"
)

// render turns a parsed Query plus the originating graph name into PGQL
// text, applying every rewrite in spec §4.4's table.
func render(q *Query, graph string) (string, error) {
	known := map[string]bool{q.Alias: true}
	for _, j := range q.Joins {
		known[j.JoinAlias] = true
		known[j.EdgeAlias] = true
	}

	pattern, extraPredicate, err := renderPattern(q)
	if err != nil {
		return "", err
	}

	var parts []string
	parts = append(parts, "MATCH", pattern)

	whereText := ""
	if q.Where != nil {
		whereText = renderExpr(q.Where, graph, q.Alias, known)
	}
	if extraPredicate != "" {
		if whereText != "" {
			whereText = "(" + whereText + ") AND (" + extraPredicate + ")"
		} else {
			whereText = extraPredicate
		}
	}
	if whereText != "" {
		parts = append(parts, "WHERE", whereText)
	}

	parts = append(parts, "RETURN", renderReturnClause(q, graph, known))

	if q.Top != nil {
		parts = append(parts, fmt.Sprintf("LIMIT %d", *q.Top))
	}

	return strings.Join(parts, " "), nil
}

func renderReturnClause(q *Query, graph string, known map[string]bool) string {
	if q.IsCount {
		return "COUNT(*)"
	}
	if len(q.Selects) == 1 {
		if _, ok := q.Selects[0].Expr.(Star); ok {
			return "*"
		}
	}
	items := make([]string, len(q.Selects))
	for i, item := range q.Selects {
		text := renderExpr(item.Expr, graph, q.Alias, known)
		if item.As != "" {
			text += " AS " + item.As
		}
		items[i] = text
	}
	return strings.Join(items, ", ")
}

// renderPattern builds the MATCH clause's pattern text: the raw,
// label-injected MATCH(...) the caller supplied, a JOIN-derived chain, or
// the default single-node/edge pattern for a bare FROM.
func renderPattern(q *Query) (pattern string, extraPredicate string, err error) {
	if q.RawMatch != "" {
		injected := injectTwinLabels(q.RawMatch)
		rewritten, predicate := rewritePipeRelationship(injected)
		return rewritten, predicate, nil
	}

	if len(q.Joins) > 0 {
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("(%s:Twin)", q.Alias))
		for _, j := range q.Joins {
			sb.WriteString(fmt.Sprintf("-[%s:%s]->(%s:Twin)", j.EdgeAlias, j.RelName, j.JoinAlias))
		}
		return sb.String(), "", nil
	}

	if q.FromKind == FromRelationships {
		return fmt.Sprintf("(:Twin)-[%s]->(:Twin)", q.Alias), "", nil
	}
	return fmt.Sprintf("(%s:Twin)", q.Alias), "", nil
}

var bareNodePattern = regexp.MustCompile(`\(([A-Za-z_][A-Za-z0-9_]*)\)`)

// injectTwinLabels adds `:Twin` to every unlabeled node reference in a
// raw MATCH pattern (spec §4.4: "inject :Twin on every unlabeled node in
// the pattern").
func injectTwinLabels(pattern string) string {
	return bareNodePattern.ReplaceAllString(pattern, "($1:Twin)")
}

var pipeRelPattern = regexp.MustCompile(`\[([A-Za-z_][A-Za-z0-9_]*):([A-Za-z0-9_|]+)\]`)

// rewritePipeRelationship rewrites `[r:rel1|rel2]` to `[r]`, returning an
// extra WHERE predicate asserting the edge's label is one of the
// alternatives — a workaround for the backend's missing pipe support
// (spec §4.4).
func rewritePipeRelationship(pattern string) (string, string) {
	var predicate string
	rewritten := pipeRelPattern.ReplaceAllStringFunc(pattern, func(m string) string {
		sub := pipeRelPattern.FindStringSubmatch(m)
		alias, names := sub[1], sub[2]
		if !strings.Contains(names, "|") {
			return m
		}
		parts := strings.Split(names, "|")
		clauses := make([]string, len(parts))
		for i, n := range parts {
			clauses[i] = fmt.Sprintf("label(%s) = '%s'", alias, n)
		}
		predicate = "(" + strings.Join(clauses, " OR ") + ")"
		return "[" + alias + "]"
	})
	return rewritten, predicate
}

// renderExpr stringifies a parsed expression, applying bracket-notation
// property rewriting, implicit alias binding on bare column references,
// the `!=` → `NOT (x = y)` rewrite, and the IS_OF_MODEL/IS_NUMBER/
// STARTS_WITH/CONTAINS function translations.
func renderExpr(e Expr, graph, alias string, known map[string]bool) string {
	switch v := e.(type) {
	case Star:
		return "*"
	case Literal:
		return v.Raw
	case Ident:
		if known[v.Name] {
			return v.Name
		}
		return renderPropertyPath(PropertyPath{Base: alias, Segments: []string{v.Name}})
	case PropertyPath:
		return renderPropertyPath(v)
	case FuncCall:
		return renderFuncCall(v, graph, alias, known)
	case Not:
		return "NOT (" + renderExpr(v.Expr, graph, alias, known) + ")"
	case Binary:
		left := renderExpr(v.Left, graph, alias, known)
		right := renderExpr(v.Right, graph, alias, known)
		switch v.Op {
		case "!=":
			return "NOT (" + left + " = " + right + ")"
		case "AND", "OR":
			return "(" + left + " " + v.Op + " " + right + ")"
		default:
			return left + " " + v.Op + " " + right
		}
	case RawText:
		return v.Text
	default:
		return ""
	}
}

func renderPropertyPath(p PropertyPath) string {
	var sb strings.Builder
	sb.WriteString(p.Base)
	for _, seg := range p.Segments {
		if strings.HasPrefix(seg, "$") {
			sb.WriteString("['")
			sb.WriteString(seg)
			sb.WriteString("']")
		} else {
			sb.WriteString(".")
			sb.WriteString(seg)
		}
	}
	return sb.String()
}

func renderFuncCall(fc FuncCall, graph, alias string, known map[string]bool) string {
	upper := strings.ToUpper(fc.Name)
	switch upper {
	case "IS_OF_MODEL":
		dtmi := renderExpr(fc.Args[0], graph, alias, known)
		if len(fc.Args) == 1 {
			return fmt.Sprintf("%s.is_of_model(%s,%s)", graph, alias, dtmi)
		}
		exact := "true"
		if lit, ok := fc.Args[1].(Literal); ok && (lit.Raw == "true" || lit.Raw == "false") {
			exact = lit.Raw
		}
		return fmt.Sprintf("%s.is_of_model(%s,%s,%s)", graph, alias, dtmi, exact)
	case "IS_NUMBER":
		x := renderExpr(fc.Args[0], graph, alias, known)
		return fmt.Sprintf("((toFloat(%s) IS NOT NULL OR toInteger(%s) IS NOT NULL) AND NOT (toString(%s) = %s))", x, x, x, x)
	case "STARTS_WITH":
		x := renderExpr(fc.Args[0], graph, alias, known)
		v := renderExpr(fc.Args[1], graph, alias, known)
		return fmt.Sprintf("STARTS_WITH(%s,%s)", x, v)
	case "CONTAINS":
		x := renderExpr(fc.Args[0], graph, alias, known)
		v := renderExpr(fc.Args[1], graph, alias, known)
		return fmt.Sprintf("%s CONTAINS %s", x, v)
	default:
		args := make([]string, len(fc.Args))
		for i, a := range fc.Args {
			args[i] = renderExpr(a, graph, alias, known)
		}
		return fmt.Sprintf("%s(%s)", fc.Name, strings.Join(args, ", "))
	}
}
