// Package lang implements a small declarative query language: variable
// bindings, iteration, filtering, sorting, projection, nested subqueries,
// literal construction, and arithmetic, comparison and logical operators.
//
// # Pipeline
//
// Query text is parsed into a [Query], evaluated against an [Environment],
// and its output rows are delivered through a [Cursor]:
//
//	cur := lang.Evaluate(ctx, `for u in [1, 2, 3] filter u > 1 return u * 10`, nil)
//	if cur.IsError() {
//		return cur.Err()
//	}
//
//	rows := cur.ToList() // [20, 30]
//
// Evaluate never returns partial results. Any failure, from a syntax error
// to a type mismatch in the last row, yields a cursor whose error marker is
// set and which holds no rows. [Query.Run] exposes the lazy row sequence
// for callers that want to stream.
//
// # Grammar
//
// Informal EBNF. Keywords are case-insensitive.
//
//	Query        → Clause* ReturnClause
//	Clause       → ForClause | LetClause | FilterClause | SortClause | LimitClause
//	ForClause    → 'for' Identifier 'in' Expr
//	LetClause    → 'let' Identifier '=' Expr
//	FilterClause → 'filter' Expr
//	SortClause   → 'sort' Expr ('asc' | 'desc')? (',' Expr ('asc' | 'desc')?)*
//	LimitClause  → 'limit' Integer (',' Integer)?
//	ReturnClause → 'return' Expr
//	Expr         → Expr BinaryOp Expr | UnaryOp Expr | Postfix
//	Postfix      → Primary ('.' Identifier | '[' Expr ']')*
//	Primary      → Literal | Identifier | '(' Query ')' | '(' Expr ')'
//	             | '[' Expr,* ']' | '{' (Key ':' Expr),* '}'
//
// Binary operators, weakest first: '||' ('or'), '&&' ('and'), '==' '!=',
// '<' '<=' '>' '>=', '+' '-', '*' '/' '%'. All are left-associative.
// Unary operators are '-', '+' and '!' ('not').
//
// A parenthesized query is a subquery. It evaluates to the list of rows its
// return clause produces, even when that list has a single element.
//
// # Scoping
//
// Each evaluation pushes a scope onto the caller's bindings. A for clause
// pushes one child scope per element; let binds in the current row's
// scope. Rebinding a name in the same scope is [ErrDuplicateBinding];
// shadowing a name from an enclosing scope is allowed.
//
// # Values
//
// A [Value] is null, a bool, a number (int64 or float64), a string, a list
// or an object. Values are immutable. Equality is structural and never
// crosses kinds. Ordering is total: null < bool < number < string < list <
// object.
package lang
