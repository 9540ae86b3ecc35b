package lang

import (
	"maps"
	"slices"
	"strconv"
)

// tokenKind classifies a lexical token.
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokInt
	tokFloat
	tokString

	// Punctuation.
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokLBrace
	tokRBrace
	tokComma
	tokColon
	tokDot
	tokAssign

	// Operators.
	tokEq
	tokNe
	tokLt
	tokLe
	tokGt
	tokGe
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPercent
	tokAnd
	tokOr
	tokNot

	// Keywords.
	tokFor
	tokIn
	tokLet
	tokFilter
	tokSort
	tokAsc
	tokDesc
	tokLimit
	tokReturn
	tokNull
	tokTrue
	tokFalse
)

var tokenText = map[tokenKind]string{
	tokEOF:      "end of input",
	tokIdent:    "identifier",
	tokInt:      "integer",
	tokFloat:    "number",
	tokString:   "string",
	tokLParen:   "(",
	tokRParen:   ")",
	tokLBracket: "[",
	tokRBracket: "]",
	tokLBrace:   "{",
	tokRBrace:   "}",
	tokComma:    ",",
	tokColon:    ":",
	tokDot:      ".",
	tokAssign:   "=",
	tokEq:       "==",
	tokNe:       "!=",
	tokLt:       "<",
	tokLe:       "<=",
	tokGt:       ">",
	tokGe:       ">=",
	tokPlus:     "+",
	tokMinus:    "-",
	tokStar:     "*",
	tokSlash:    "/",
	tokPercent:  "%",
	tokAnd:      "&&",
	tokOr:       "||",
	tokNot:      "!",
	tokFor:      "for",
	tokIn:       "in",
	tokLet:      "let",
	tokFilter:   "filter",
	tokSort:     "sort",
	tokAsc:      "asc",
	tokDesc:     "desc",
	tokLimit:    "limit",
	tokReturn:   "return",
	tokNull:     "null",
	tokTrue:     "true",
	tokFalse:    "false",
}

func (k tokenKind) String() string {
	if s, ok := tokenText[k]; ok {
		return s
	}

	return "token(" + strconv.Itoa(int(k)) + ")"
}

// keywords maps lowercased reserved words to their token kinds.
// Keywords are matched case-insensitively.
var keywords = map[string]tokenKind{
	"for":    tokFor,
	"in":     tokIn,
	"let":    tokLet,
	"filter": tokFilter,
	"sort":   tokSort,
	"asc":    tokAsc,
	"desc":   tokDesc,
	"limit":  tokLimit,
	"return": tokReturn,
	"null":   tokNull,
	"true":   tokTrue,
	"false":  tokFalse,
	"and":    tokAnd,
	"or":     tokOr,
	"not":    tokNot,
}

// Keywords returns the reserved words of the query language, sorted.
func Keywords() []string {
	return slices.Sorted(maps.Keys(keywords))
}

// isClauseStart reports whether k begins a query clause.
func (k tokenKind) isClauseStart() bool {
	switch k {
	case tokFor, tokLet, tokFilter, tokSort, tokLimit, tokReturn:
		return true
	default:
		return false
	}
}

// token is a single lexical unit together with its decoded payload.
type token struct {
	text string // raw source text
	str  string // decoded string literal or identifier name
	pos  Position
	i    int64
	f    float64
	kind tokenKind
}

// describe returns a short description of t for error messages.
func (t token) describe() string {
	switch t.kind {
	case tokEOF:
		return t.kind.String()
	case tokIdent, tokInt, tokFloat, tokString:
		return t.kind.String() + " " + strconv.Quote(t.text)
	default:
		return strconv.Quote(t.text)
	}
}
