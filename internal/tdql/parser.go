package tdql

import "fmt"

type parser struct {
	toks []token
	pos  int
}

func newParser(toks []token) *parser {
	return &parser{toks: toks}
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) atEOF() bool {
	return p.peek().kind == tokEOF
}

func (p *parser) isKeyword(kw string) bool {
	t := p.peek()
	return t.kind == tokKeyword && t.text == kw
}

func (p *parser) expectKeyword(kw string) (token, error) {
	if !p.isKeyword(kw) {
		return token{}, &ParseError{Pos: p.peek().pos, Message: fmt.Sprintf("expected %s, got %q", kw, p.peek().text)}
	}
	return p.advance(), nil
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	if p.peek().kind != kind {
		return token{}, &ParseError{Pos: p.peek().pos, Message: fmt.Sprintf("expected %s, got %q", what, p.peek().text)}
	}
	return p.advance(), nil
}

// parseQuery parses the token stream for a single TDQL statement (the
// raw MATCH clause, if any, has already been excised by splitRawMatch
// and is threaded in separately via rawMatch).
func parseQuery(toks []token, rawMatch string, hasRawMatch bool) (*Query, error) {
	p := newParser(toks)
	q := &Query{RawMatch: rawMatch}

	if _, err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}

	if err := p.parseSelectClause(q); err != nil {
		return nil, err
	}

	if _, err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	if err := p.parseFromClause(q); err != nil {
		return nil, err
	}

	if !hasRawMatch {
		for p.isKeyword("JOIN") {
			join, err := p.parseJoin()
			if err != nil {
				return nil, err
			}
			q.Joins = append(q.Joins, join)
		}
	}

	if p.isKeyword("WHERE") {
		p.advance()
		where, err := p.parseOrExpr()
		if err != nil {
			return nil, err
		}
		q.Where = where
	}

	if !p.atEOF() {
		return nil, &ParseError{Pos: p.peek().pos, Message: fmt.Sprintf("unexpected trailing token %q", p.peek().text)}
	}
	return q, nil
}

func (p *parser) parseSelectClause(q *Query) error {
	if p.isKeyword("TOP") {
		p.advance()
		if _, err := p.expect(tokLParen, "("); err != nil {
			return err
		}
		numTok, err := p.expect(tokNumber, "number")
		if err != nil {
			return err
		}
		if _, err := p.expect(tokRParen, ")"); err != nil {
			return err
		}
		n := 0
		fmt.Sscanf(numTok.text, "%d", &n)
		q.Top = &n
	}

	if p.isKeyword("COUNT") {
		p.advance()
		if _, err := p.expect(tokLParen, "("); err != nil {
			return err
		}
		if _, err := p.expect(tokRParen, ")"); err != nil {
			return err
		}
		q.IsCount = true
		return nil
	}

	if p.peek().kind == tokStar {
		p.advance()
		q.Selects = []SelectItem{{Expr: Star{}}}
		return nil
	}

	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return err
		}
		q.Selects = append(q.Selects, item)
		if p.peek().kind == tokComma {
			p.advance()
			continue
		}
		break
	}
	return nil
}

func (p *parser) parseSelectItem() (SelectItem, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return SelectItem{}, err
	}
	item := SelectItem{Expr: expr}
	if p.isKeyword("AS") {
		p.advance()
		name, err := p.expect(tokIdent, "identifier")
		if err != nil {
			return SelectItem{}, err
		}
		item.As = name.text
	}
	return item, nil
}

func (p *parser) parseFromClause(q *Query) error {
	t := p.peek()
	if t.kind != tokKeyword || (t.text != "DIGITALTWINS" && t.text != "RELATIONSHIPS") {
		return &ParseError{Pos: t.pos, Message: fmt.Sprintf("expected DIGITALTWINS or RELATIONSHIPS, got %q", t.text)}
	}
	p.advance()
	if t.text == "DIGITALTWINS" {
		q.FromKind = FromDigitalTwins
	} else {
		q.FromKind = FromRelationships
	}

	if p.peek().kind == tokIdent {
		q.Alias = p.advance().text
	} else {
		q.Alias = q.FromKind.label()
	}
	return nil
}

func (p *parser) parseJoin() (JoinClause, error) {
	if _, err := p.expectKeyword("JOIN"); err != nil {
		return JoinClause{}, err
	}
	joinAlias, err := p.expect(tokIdent, "identifier")
	if err != nil {
		return JoinClause{}, err
	}
	if _, err := p.expectKeyword("RELATED"); err != nil {
		return JoinClause{}, err
	}
	fromAlias, err := p.expect(tokIdent, "identifier")
	if err != nil {
		return JoinClause{}, err
	}
	if _, err := p.expect(tokDot, "."); err != nil {
		return JoinClause{}, err
	}
	relName, err := p.expect(tokIdent, "relationship name")
	if err != nil {
		return JoinClause{}, err
	}
	edgeAlias, err := p.expect(tokIdent, "identifier")
	if err != nil {
		return JoinClause{}, err
	}
	return JoinClause{
		JoinAlias: joinAlias.text,
		FromAlias: fromAlias.text,
		RelName:   relName.text,
		EdgeAlias: edgeAlias.text,
	}, nil
}

func (p *parser) parseOrExpr() (Expr, error) {
	left, err := p.parseAndExpr()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("OR") {
		p.advance()
		right, err := p.parseAndExpr()
		if err != nil {
			return nil, err
		}
		left = Binary{Left: left, Op: "OR", Right: right}
	}
	return left, nil
}

func (p *parser) parseAndExpr() (Expr, error) {
	left, err := p.parseNotExpr()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("AND") {
		p.advance()
		right, err := p.parseNotExpr()
		if err != nil {
			return nil, err
		}
		left = Binary{Left: left, Op: "AND", Right: right}
	}
	return left, nil
}

func (p *parser) parseNotExpr() (Expr, error) {
	if p.isKeyword("NOT") {
		p.advance()
		inner, err := p.parseNotExpr()
		if err != nil {
			return nil, err
		}
		return Not{Expr: inner}, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.peek().kind == tokOp {
		op := p.advance().text
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return Binary{Left: left, Op: op, Right: right}, nil
	}
	return left, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.peek()
	switch t.kind {
	case tokStar:
		p.advance()
		return Star{}, nil
	case tokNumber, tokString:
		p.advance()
		return Literal{Raw: t.text}, nil
	case tokLParen:
		p.advance()
		inner, err := p.parseOrExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return inner, nil
	case tokIdent:
		p.advance()
		if p.peek().kind == tokLParen {
			args, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			return FuncCall{Name: t.text, Args: args}, nil
		}
		if p.peek().kind == tokDot {
			segments := []string{}
			for p.peek().kind == tokDot {
				p.advance()
				seg, err := p.expect(tokIdent, "property segment")
				if err != nil {
					return nil, err
				}
				segments = append(segments, seg.text)
			}
			return PropertyPath{Base: t.text, Segments: segments}, nil
		}
		return Ident{Name: t.text}, nil
	default:
		return nil, &ParseError{Pos: t.pos, Message: fmt.Sprintf("unexpected token %q", t.text)}
	}
}

func (p *parser) parseArgList() ([]Expr, error) {
	if _, err := p.expect(tokLParen, "("); err != nil {
		return nil, err
	}
	var args []Expr
	if p.peek().kind != tokRParen {
		for {
			arg, err := p.parseOrExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().kind == tokComma {
				p.advance()
				continue
			}
			break
		}
	}
	if _, err := p.expect(tokRParen, ")"); err != nil {
		return nil, err
	}
	return args, nil
}
