package lang

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/klauspost/readahead"

	"github.com/ardnew/aql/log"
)

// ParseReader parses a query read from r.
func ParseReader(
	ctx context.Context,
	r io.Reader,
	opts ...Option,
) (*Query, error) {
	// Wrap reader with async read-ahead for concurrent I/O.
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).
			With(slog.String("source", "reader"))
	}

	return Parse(ctx, string(data), opts...)
}

// Parse parses query text into a [Query].
//
// Unbound identifiers are not parse errors; they are reported when the
// query is evaluated. If a [Cache] was given with [WithCache], the parsed
// query is shared through it.
func Parse(ctx context.Context, text string, opts ...Option) (*Query, error) {
	o := makeOptions(opts...)

	if o.cache != nil {
		return o.cache.parse(ctx, text, o)
	}

	return parse(ctx, text, o)
}

func parse(ctx context.Context, text string, o options) (*Query, error) {
	o.logger.TraceContext(ctx, "parse start",
		slog.Int("source_bytes", len(text)),
		slog.Int("max_depth", o.maxDepth),
	)

	p := &parser{
		scan:     newScanner(text),
		maxDepth: o.maxDepth,
		logger:   o.logger,
	}

	if err := p.advance(); err != nil {
		return nil, err
	}

	if p.tok.kind == tokEOF {
		return nil, ErrSyntax.WithPosition(p.tok.pos).
			With(slog.String("reason", "empty query"))
	}

	q, err := p.parseQuery()
	if err != nil {
		o.logger.DebugContext(ctx, "parse failed", slog.Any("error", err))

		return nil, err
	}

	if p.tok.kind != tokEOF {
		return nil, p.unexpected(tokEOF.String())
	}

	o.logger.TraceContext(ctx, "parse complete",
		slog.Int("clause_count", len(q.Clauses)+1),
	)

	return q, nil
}

// parser holds the parser state.
type parser struct {
	logger   log.Logger
	tok      token
	scan     scanner
	depth    int
	maxDepth int
}

func (p *parser) advance() error {
	tok, err := p.scan.next()
	if err != nil {
		return err
	}

	p.tok = tok

	return nil
}

func (p *parser) expect(kind tokenKind) error {
	if p.tok.kind != kind {
		return p.unexpected(kind.String())
	}

	return p.advance()
}

func (p *parser) unexpected(expected string) error {
	return ErrSyntax.WithPosition(p.tok.pos).With(
		slog.String("expected", expected),
		slog.String("found", p.tok.describe()),
	)
}

// enter records one more level of nesting and fails once the configured
// maximum is exceeded.
func (p *parser) enter() error {
	p.depth++
	if p.depth > p.maxDepth {
		return ErrMaxDepthExceeded.WithPosition(p.tok.pos).
			With(slog.Int("max_depth", p.maxDepth))
	}

	return nil
}

func (p *parser) leave() { p.depth-- }

// parseQuery parses: Clause* ReturnClause.
func (p *parser) parseQuery() (*Query, error) {
	q := &Query{At: p.tok.pos}

	for {
		var (
			c   Clause
			err error
		)

		switch p.tok.kind {
		case tokFor:
			c, err = p.parseFor()
		case tokLet:
			c, err = p.parseLet()
		case tokFilter:
			c, err = p.parseFilter()
		case tokSort:
			c, err = p.parseSort()
		case tokLimit:
			c, err = p.parseLimit()

		case tokReturn:
			ret, err := p.parseReturn()
			if err != nil {
				return nil, err
			}

			q.Return = ret

			if p.tok.kind.isClauseStart() {
				return nil, ErrSyntax.WithPosition(p.tok.pos).With(
					slog.String("reason", "return must be the final clause"),
					slog.String("found", p.tok.describe()),
				)
			}

			return q, nil

		case tokEOF, tokRParen:
			return nil, ErrSyntax.WithPosition(p.tok.pos).
				With(slog.String("reason", "missing return clause"))

		default:
			return nil, p.unexpected("clause (for, let, filter, sort, limit, return)")
		}

		if err != nil {
			return nil, err
		}

		q.Clauses = append(q.Clauses, c)
	}
}

// parseFor parses: "for" Identifier "in" Expr.
func (p *parser) parseFor() (*ForClause, error) {
	pos := p.tok.pos

	if err := p.advance(); err != nil {
		return nil, err
	}

	name, err := p.parseVariable()
	if err != nil {
		return nil, err
	}

	if err := p.expect(tokIn); err != nil {
		return nil, err
	}

	src, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return &ForClause{Var: name, Source: src, At: pos}, nil
}

// parseLet parses: "let" Identifier "=" Expr.
func (p *parser) parseLet() (*LetClause, error) {
	pos := p.tok.pos

	if err := p.advance(); err != nil {
		return nil, err
	}

	name, err := p.parseVariable()
	if err != nil {
		return nil, err
	}

	if err := p.expect(tokAssign); err != nil {
		return nil, err
	}

	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return &LetClause{Var: name, Value: value, At: pos}, nil
}

// parseFilter parses: "filter" Expr.
func (p *parser) parseFilter() (*FilterClause, error) {
	pos := p.tok.pos

	if err := p.advance(); err != nil {
		return nil, err
	}

	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return &FilterClause{Cond: cond, At: pos}, nil
}

// parseSort parses: "sort" Expr ["asc"|"desc"] ("," Expr ["asc"|"desc"])*.
func (p *parser) parseSort() (*SortClause, error) {
	c := &SortClause{At: p.tok.pos}

	for {
		if err := p.advance(); err != nil {
			return nil, err
		}

		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		key := SortKey{Expr: e}

		switch p.tok.kind {
		case tokAsc:
			err = p.advance()
		case tokDesc:
			key.Desc = true
			err = p.advance()
		}

		if err != nil {
			return nil, err
		}

		c.Keys = append(c.Keys, key)

		if p.tok.kind != tokComma {
			return c, nil
		}
	}
}

// parseLimit parses: "limit" Integer ["," Integer].
func (p *parser) parseLimit() (*LimitClause, error) {
	c := &LimitClause{At: p.tok.pos}

	if err := p.advance(); err != nil {
		return nil, err
	}

	n, err := p.parseCount()
	if err != nil {
		return nil, err
	}

	c.Count = n

	if p.tok.kind != tokComma {
		return c, nil
	}

	if err := p.advance(); err != nil {
		return nil, err
	}

	if c.Count, err = p.parseCount(); err != nil {
		return nil, err
	}

	c.Offset = n

	return c, nil
}

func (p *parser) parseCount() (int64, error) {
	if p.tok.kind != tokInt {
		return 0, p.unexpected("non-negative integer")
	}

	n := p.tok.i

	return n, p.advance()
}

// parseReturn parses: "return" Expr.
func (p *parser) parseReturn() (*ReturnClause, error) {
	pos := p.tok.pos

	if err := p.advance(); err != nil {
		return nil, err
	}

	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return &ReturnClause{Value: value, At: pos}, nil
}

func (p *parser) parseVariable() (string, error) {
	if p.tok.kind != tokIdent {
		return "", p.unexpected("identifier")
	}

	name := p.tok.str

	return name, p.advance()
}

// binaryOps maps infix operator tokens to their operators.
var binaryOps = map[tokenKind]Operator{
	tokOr:      OpOr,
	tokAnd:     OpAnd,
	tokEq:      OpEq,
	tokNe:      OpNe,
	tokLt:      OpLt,
	tokLe:      OpLe,
	tokGt:      OpGt,
	tokGe:      OpGe,
	tokPlus:    OpAdd,
	tokMinus:   OpSub,
	tokStar:    OpMul,
	tokSlash:   OpDiv,
	tokPercent: OpMod,
}

func (p *parser) parseExpr() (Expr, error) {
	return p.parseBinary(precOr)
}

// parseBinary parses a left-associative chain of operators that bind with
// strength prec, whose operands bind tighter.
func (p *parser) parseBinary(prec int) (Expr, error) {
	if prec >= precUnary {
		return p.parseUnary()
	}

	left, err := p.parseBinary(prec + 1)
	if err != nil {
		return nil, err
	}

	for {
		op, ok := binaryOps[p.tok.kind]
		if !ok || op.precedence() != prec {
			return left, nil
		}

		pos := p.tok.pos

		if err := p.advance(); err != nil {
			return nil, err
		}

		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}

		left = &BinaryOp{Op: op, Left: left, Right: right, At: pos}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	var op Operator

	switch p.tok.kind {
	case tokMinus:
		op = OpNeg
	case tokPlus:
		op = OpPos
	case tokNot:
		op = OpNot
	default:
		return p.parsePostfix()
	}

	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	pos := p.tok.pos

	if err := p.advance(); err != nil {
		return nil, err
	}

	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	return &UnaryOp{Op: op, Operand: operand, At: pos}, nil
}

// parsePostfix parses: Primary ("." Identifier | "[" Expr "]")*.
func (p *parser) parsePostfix() (Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		pos := p.tok.pos

		switch p.tok.kind {
		case tokDot:
			if err := p.advance(); err != nil {
				return nil, err
			}

			if !p.tok.isWord() {
				return nil, p.unexpected("attribute name")
			}

			e = &AttributeAccess{Object: e, Name: p.tok.str, At: pos}

			if err := p.advance(); err != nil {
				return nil, err
			}

		case tokLBracket:
			index, err := p.parseIndex()
			if err != nil {
				return nil, err
			}

			e = &IndexAccess{Object: e, Index: index, At: pos}

		default:
			return e, nil
		}
	}
}

func (p *parser) parseIndex() (Expr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	if err := p.advance(); err != nil {
		return nil, err
	}

	index, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return index, p.expect(tokRBracket)
}

func (p *parser) parsePrimary() (Expr, error) {
	tok := p.tok

	var e Expr

	switch tok.kind {
	case tokInt:
		e = &Literal{Value: Int(tok.i), At: tok.pos}
	case tokFloat:
		e = &Literal{Value: Float(tok.f), At: tok.pos}
	case tokString:
		e = &Literal{Value: String(tok.str), At: tok.pos}
	case tokNull:
		e = &Literal{Value: Null(), At: tok.pos}
	case tokTrue:
		e = &Literal{Value: Bool(true), At: tok.pos}
	case tokFalse:
		e = &Literal{Value: Bool(false), At: tok.pos}
	case tokIdent:
		e = &VariableRef{Name: tok.str, At: tok.pos}

	case tokLParen:
		return p.parseParen()
	case tokLBracket:
		return p.parseList()
	case tokLBrace:
		return p.parseObject()

	default:
		return nil, p.unexpected("expression")
	}

	return e, p.advance()
}

// parseParen parses either a subquery "(" Query ")" or a grouped
// expression "(" Expr ")".
func (p *parser) parseParen() (Expr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	pos := p.tok.pos

	if err := p.advance(); err != nil {
		return nil, err
	}

	if p.tok.kind.isClauseStart() {
		q, err := p.parseQuery()
		if err != nil {
			return nil, err
		}

		return &Subquery{Query: q, At: pos}, p.expect(tokRParen)
	}

	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return e, p.expect(tokRParen)
}

// parseList parses: "[" [Expr ("," Expr)* [","]] "]".
func (p *parser) parseList() (Expr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	list := &ListConstructor{At: p.tok.pos}

	if err := p.advance(); err != nil {
		return nil, err
	}

	for p.tok.kind != tokRBracket {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		list.Elements = append(list.Elements, e)

		if p.tok.kind != tokComma {
			break
		}

		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	return list, p.expect(tokRBracket)
}

// parseObject parses: "{" [Member ("," Member)* [","]] "}".
func (p *parser) parseObject() (Expr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	obj := &ObjectConstructor{At: p.tok.pos}

	if err := p.advance(); err != nil {
		return nil, err
	}

	for p.tok.kind != tokRBrace {
		if p.tok.kind != tokString && !p.tok.isWord() {
			return nil, p.unexpected("member name")
		}

		key := p.tok.str

		if err := p.advance(); err != nil {
			return nil, err
		}

		if err := p.expect(tokColon); err != nil {
			return nil, err
		}

		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		obj.Members = append(obj.Members, ObjectMember{Key: key, Value: value})

		if p.tok.kind != tokComma {
			break
		}

		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	return obj, p.expect(tokRBrace)
}

// isWord reports whether t is an identifier or a keyword spelled as a word.
func (t token) isWord() bool {
	if t.kind == tokIdent {
		return true
	}

	_, ok := keywords[strings.ToLower(t.text)]

	return ok
}
