package lang

import (
	"strconv"
	"strings"
)

// Node is implemented by every element of a parsed query.
type Node interface {
	// Pos returns the source position of the node. Operators report the
	// position of the operator token.
	Pos() Position
	// String returns canonical query text for the node.
	String() string
}

// Clause is one stage of a query pipeline.
type Clause interface {
	Node
	clause()
}

// Expr is an expression that evaluates to a single [Value].
type Expr interface {
	Node
	expr()
}

// Query is an ordered sequence of clauses terminated by a return clause.
type Query struct {
	Return  *ReturnClause
	Clauses []Clause
	At      Position
}

// Pos returns the position of the first clause.
func (q *Query) Pos() Position { return q.At }

func (q *Query) String() string {
	var b strings.Builder

	for _, c := range q.Clauses {
		b.WriteString(c.String())
		b.WriteByte(' ')
	}

	if q.Return != nil {
		b.WriteString(q.Return.String())
	}

	return b.String()
}

// ForClause iterates Var over the elements of the list Source.
type ForClause struct {
	Source Expr
	Var    string
	At     Position
}

// LetClause binds Var to the value of Value in the current row.
type LetClause struct {
	Value Expr
	Var   string
	At    Position
}

// FilterClause discards rows for which Cond is false or null.
type FilterClause struct {
	Cond Expr
	At   Position
}

// SortKey is one ordering criterion of a [SortClause].
type SortKey struct {
	Expr Expr
	Desc bool
}

// SortClause orders rows by one or more keys.
type SortClause struct {
	Keys []SortKey
	At   Position
}

// LimitClause skips Offset rows and passes at most Count rows.
type LimitClause struct {
	Offset int64
	Count  int64
	At     Position
}

// ReturnClause produces one output row per surviving input row.
type ReturnClause struct {
	Value Expr
	At    Position
}

func (c *ForClause) Pos() Position    { return c.At }
func (c *LetClause) Pos() Position    { return c.At }
func (c *FilterClause) Pos() Position { return c.At }
func (c *SortClause) Pos() Position   { return c.At }
func (c *LimitClause) Pos() Position  { return c.At }
func (c *ReturnClause) Pos() Position { return c.At }

func (*ForClause) clause()    {}
func (*LetClause) clause()    {}
func (*FilterClause) clause() {}
func (*SortClause) clause()   {}
func (*LimitClause) clause()  {}
func (*ReturnClause) clause() {}

func (c *ForClause) String() string {
	return "for " + formatIdent(c.Var) + " in " + c.Source.String()
}

func (c *LetClause) String() string {
	return "let " + formatIdent(c.Var) + " = " + c.Value.String()
}

func (c *FilterClause) String() string { return "filter " + c.Cond.String() }

func (c *SortClause) String() string {
	keys := make([]string, len(c.Keys))

	for i, k := range c.Keys {
		keys[i] = k.Expr.String()
		if k.Desc {
			keys[i] += " desc"
		}
	}

	return "sort " + strings.Join(keys, ", ")
}

func (c *LimitClause) String() string {
	if c.Offset > 0 {
		return "limit " + strconv.FormatInt(c.Offset, 10) + ", " +
			strconv.FormatInt(c.Count, 10)
	}

	return "limit " + strconv.FormatInt(c.Count, 10)
}

func (c *ReturnClause) String() string { return "return " + c.Value.String() }

// Literal is a constant value.
type Literal struct {
	Value Value
	At    Position
}

// VariableRef refers to a bound variable by name.
type VariableRef struct {
	Name string
	At   Position
}

// BinaryOp applies Op to Left and Right.
type BinaryOp struct {
	Left  Expr
	Right Expr
	Op    Operator
	At    Position
}

// UnaryOp applies Op to Operand.
type UnaryOp struct {
	Operand Expr
	Op      Operator
	At      Position
}

// ListConstructor builds a list from its element expressions.
type ListConstructor struct {
	Elements []Expr
	At       Position
}

// ObjectMember is a single key/value entry of an [ObjectConstructor].
type ObjectMember struct {
	Value Expr
	Key   string
}

// ObjectConstructor builds an object from its member expressions.
type ObjectConstructor struct {
	Members []ObjectMember
	At      Position
}

// Subquery is a parenthesized query used as an expression. It evaluates to
// the list of values returned by Query.
type Subquery struct {
	Query *Query
	At    Position
}

// AttributeAccess selects the member Name of an object.
type AttributeAccess struct {
	Object Expr
	Name   string
	At     Position
}

// IndexAccess selects an element of a list or a member of an object.
type IndexAccess struct {
	Object Expr
	Index  Expr
	At     Position
}

func (e *Literal) Pos() Position           { return e.At }
func (e *VariableRef) Pos() Position       { return e.At }
func (e *BinaryOp) Pos() Position          { return e.At }
func (e *UnaryOp) Pos() Position           { return e.At }
func (e *ListConstructor) Pos() Position   { return e.At }
func (e *ObjectConstructor) Pos() Position { return e.At }
func (e *Subquery) Pos() Position          { return e.At }
func (e *AttributeAccess) Pos() Position   { return e.At }
func (e *IndexAccess) Pos() Position       { return e.At }

func (*Literal) expr()           {}
func (*VariableRef) expr()       {}
func (*BinaryOp) expr()          {}
func (*UnaryOp) expr()           {}
func (*ListConstructor) expr()   {}
func (*ObjectConstructor) expr() {}
func (*Subquery) expr()          {}
func (*AttributeAccess) expr()   {}
func (*IndexAccess) expr()       {}

func (e *Literal) String() string     { return e.Value.String() }
func (e *VariableRef) String() string { return formatIdent(e.Name) }

func (e *BinaryOp) String() string {
	prec := e.Op.precedence()

	left := e.Left.String()
	if exprPrecedence(e.Left) < prec {
		left = "(" + left + ")"
	}

	// Operators are left-associative, so an equal-precedence right operand
	// needs parentheses to keep its grouping.
	right := e.Right.String()
	if exprPrecedence(e.Right) <= prec {
		right = "(" + right + ")"
	}

	return left + " " + e.Op.String() + " " + right
}

func (e *UnaryOp) String() string {
	operand := e.Operand.String()
	if exprPrecedence(e.Operand) < precUnary {
		operand = "(" + operand + ")"
	}

	return e.Op.String() + operand
}

func (e *ListConstructor) String() string {
	elems := make([]string, len(e.Elements))
	for i, el := range e.Elements {
		elems[i] = el.String()
	}

	return "[" + strings.Join(elems, ", ") + "]"
}

func (e *ObjectConstructor) String() string {
	members := make([]string, len(e.Members))
	for i, m := range e.Members {
		members[i] = formatKey(m.Key) + ": " + m.Value.String()
	}

	return "{" + strings.Join(members, ", ") + "}"
}

func (e *Subquery) String() string { return "(" + e.Query.String() + ")" }

func (e *AttributeAccess) String() string {
	return postfixOperand(e.Object) + "." + formatIdent(e.Name)
}

func (e *IndexAccess) String() string {
	return postfixOperand(e.Object) + "[" + e.Index.String() + "]"
}

func postfixOperand(e Expr) string {
	if exprPrecedence(e) < precPostfix {
		return "(" + e.String() + ")"
	}

	return e.String()
}

// Operator identifies a unary or binary operator.
type Operator int

const (
	OpOr Operator = iota
	OpAnd
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNeg
	OpPos
	OpNot
)

var operatorText = [...]string{
	OpOr:  "||",
	OpAnd: "&&",
	OpEq:  "==",
	OpNe:  "!=",
	OpLt:  "<",
	OpLe:  "<=",
	OpGt:  ">",
	OpGe:  ">=",
	OpAdd: "+",
	OpSub: "-",
	OpMul: "*",
	OpDiv: "/",
	OpMod: "%",
	OpNeg: "-",
	OpPos: "+",
	OpNot: "!",
}

func (op Operator) String() string {
	if op < 0 || int(op) >= len(operatorText) {
		return "Operator(" + strconv.Itoa(int(op)) + ")"
	}

	return operatorText[op]
}

// Binding strength, weakest first.
const (
	precOr = iota + 1
	precAnd
	precEquality
	precComparison
	precAdditive
	precMultiplicative
	precUnary
	precPostfix
	precPrimary
)

func (op Operator) precedence() int {
	switch op {
	case OpOr:
		return precOr
	case OpAnd:
		return precAnd
	case OpEq, OpNe:
		return precEquality
	case OpLt, OpLe, OpGt, OpGe:
		return precComparison
	case OpAdd, OpSub:
		return precAdditive
	case OpMul, OpDiv, OpMod:
		return precMultiplicative
	default:
		return precUnary
	}
}

func exprPrecedence(e Expr) int {
	switch e := e.(type) {
	case *BinaryOp:
		return e.Op.precedence()
	case *UnaryOp:
		return precUnary
	case *AttributeAccess, *IndexAccess:
		return precPostfix
	case *Literal:
		// Negative numbers print with a leading minus sign.
		if e.Value.Kind() == KindNumber && strings.HasPrefix(e.Value.String(), "-") {
			return precUnary
		}

		return precPrimary
	default:
		return precPrimary
	}
}

// formatIdent renders name as an identifier, quoting it in backticks when it
// would otherwise read as a keyword or is not a plain identifier.
func formatIdent(name string) string {
	if IsIdentifier(name) {
		return name
	}

	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// formatKey renders an object key bare when possible and quoted otherwise.
func formatKey(key string) string {
	if IsIdentifier(key) {
		return key
	}

	return strconv.Quote(key)
}

// IsIdentifier reports whether s can be written as a bare variable name:
// it follows the lexer's identifier rules and is not a keyword.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}

	if _, ok := keywords[strings.ToLower(s)]; ok {
		return false
	}

	for i, r := range s {
		if i == 0 && !isIdentifierStart(r) {
			return false
		}

		if i > 0 && !isIdentifierContinue(r) {
			return false
		}
	}

	return true
}
