// Package tdql translates the Twin Data Query Language's SQL-flavored
// surface syntax into the PGQL/Cypher text internal/store executes, per
// spec §4.4. Translate is a pure function: no store access, no catalog
// lookups beyond the graph name itself, which is only ever substituted
// into IS_OF_MODEL's rendered function-call text.
//
// Grounded structurally on workflow/parser.go's shape (a top-level
// dispatch over a small keyword set feeding dedicated per-form parsers)
// adapted here to a hand-written lexer/recursive-descent pair over
// TDQL's SQL-flavored grammar, and on semantic/sparql.go's approach of
// building one target-syntax string out of parsed parts.
package tdql

import "fmt"

// Query is the parsed form of a single TDQL statement.
type Query struct {
	Top       *int
	IsCount   bool
	Selects   []SelectItem
	FromKind  FromKind
	Alias     string
	Joins     []JoinClause
	RawMatch  string // raw MATCH(...) pattern text, copy-through with label injection
	Where     Expr
}

// FromKind distinguishes the two TDQL row sources.
type FromKind int

const (
	FromDigitalTwins FromKind = iota
	FromRelationships
)

func (k FromKind) label() string {
	if k == FromRelationships {
		return "R"
	}
	return "T"
}

// SelectItem is one projected column, optionally aliased via AS.
type SelectItem struct {
	Expr Expr
	As   string
}

// JoinClause models `JOIN B RELATED A.rel R`: B is the joined alias,
// A.rel names the source alias and relationship type, R is the edge
// alias bound in the rendered pattern.
type JoinClause struct {
	JoinAlias  string
	FromAlias  string
	RelName    string
	EdgeAlias  string
}

// Expr is any node in a parsed SELECT projection or WHERE predicate.
type Expr interface {
	isExpr()
}

// PropertyPath is a dotted access such as T.$dtId or T.$metadata.$model.
type PropertyPath struct {
	Base     string
	Segments []string
}

func (PropertyPath) isExpr() {}

// Ident is a bare, unqualified name (e.g. a column with no alias yet, or
// a function name resolved during rewriting).
type Ident struct {
	Name string
}

func (Ident) isExpr() {}

// Literal is a number, string, or boolean/null token carried through
// verbatim.
type Literal struct {
	Raw string
}

func (Literal) isExpr() {}

// Star represents the `*` selector.
type Star struct{}

func (Star) isExpr() {}

// FuncCall is a function-call expression, e.g. IS_OF_MODEL('dtmi:x;1').
type FuncCall struct {
	Name string
	Args []Expr
}

func (FuncCall) isExpr() {}

// Binary is a comparison or logical operator applied to two operands.
// Op is one of "=", "!=", "<", "<=", ">", ">=", "AND", "OR".
type Binary struct {
	Left  Expr
	Op    string
	Right Expr
}

func (Binary) isExpr() {}

// Not is a logical negation, used both for source-level NOT and for the
// != → NOT (x = y) rewrite.
type Not struct {
	Expr Expr
}

func (Not) isExpr() {}

// RawText is untouched text, used for raw relationship bracket patterns
// like [r:rel1|rel2] handled outside the expression grammar.
type RawText struct {
	Text string
}

func (RawText) isExpr() {}

// ParseError reports a translator failure with the offending token's
// position so callers see exactly what TDQL text confused it.
type ParseError struct {
	Pos     int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("tdql: parse error at position %d: %s", e.Pos, e.Message)
}
