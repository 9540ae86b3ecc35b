package lang

import (
	"log/slog"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// scanner splits query text into tokens.
//
// It is a small value type so the parser can look ahead by copying it.
type scanner struct {
	input []byte
	pos   int
	line  int
	col   int
}

func newScanner(input string) scanner {
	return scanner{input: []byte(input), line: 1, col: 1}
}

// next skips whitespace and comments and returns the following token.
func (s *scanner) next() (token, error) {
	if err := s.skipWhitespaceAndComments(); err != nil {
		return token{}, err
	}

	start := s.pos
	tok := token{pos: s.position()}

	if s.eof() {
		tok.kind = tokEOF

		return tok, nil
	}

	ch := s.peek()

	switch {
	case isIdentifierStart(ch):
		s.scanIdentifier(&tok)

	case ch == '`':
		if err := s.scanQuotedIdentifier(&tok); err != nil {
			return token{}, err
		}

	case ch >= '0' && ch <= '9':
		if err := s.scanNumber(&tok); err != nil {
			return token{}, err
		}

	case ch == '"' || ch == '\'':
		if err := s.scanString(&tok, byte(ch)); err != nil {
			return token{}, err
		}

	default:
		if err := s.scanPunct(&tok); err != nil {
			return token{}, err
		}
	}

	tok.text = string(s.input[start:s.pos])

	return tok, nil
}

func (s *scanner) scanIdentifier(tok *token) {
	start := s.pos

	s.advance()

	for !s.eof() && isIdentifierContinue(s.peek()) {
		s.advance()
	}

	name := string(s.input[start:s.pos])

	if kind, ok := keywords[strings.ToLower(name)]; ok {
		tok.kind = kind
		tok.str = name

		return
	}

	tok.kind = tokIdent
	tok.str = name
}

// scanQuotedIdentifier reads a backtick-quoted identifier, which may spell a
// keyword. A doubled backtick stands for a literal backtick.
func (s *scanner) scanQuotedIdentifier(tok *token) error {
	pos := s.position()

	s.advance() // skip opening backtick

	var b strings.Builder

	for {
		if s.eof() {
			return ErrSyntax.WithPosition(pos).
				With(slog.String("reason", "unterminated quoted identifier"))
		}

		ch := s.peek()
		s.advance()

		if ch == '`' {
			if s.peek() == '`' {
				s.advance()
				b.WriteByte('`')

				continue
			}

			break
		}

		b.WriteRune(ch)
	}

	if b.Len() == 0 {
		return ErrSyntax.WithPosition(pos).
			With(slog.String("reason", "empty quoted identifier"))
	}

	tok.kind = tokIdent
	tok.str = b.String()

	return nil
}

func (s *scanner) scanNumber(tok *token) error {
	start := s.pos
	isFloat := false

	s.skipDigits()

	if s.peek() == '.' && isDigit(s.peekAt(1)) {
		isFloat = true

		s.advance()
		s.skipDigits()
	}

	if c := s.peek(); c == 'e' || c == 'E' {
		n := 1
		if c := s.peekAt(1); c == '+' || c == '-' {
			n = 2
		}

		if isDigit(s.peekAt(n)) {
			isFloat = true

			for range n {
				s.advance()
			}

			s.skipDigits()
		}
	}

	if !s.eof() && isIdentifierContinue(s.peek()) {
		return ErrSyntax.WithPosition(s.position()).
			With(slog.String("reason", "invalid number literal"))
	}

	text := string(s.input[start:s.pos])

	if !isFloat {
		i, err := strconv.ParseInt(text, 10, 64)
		if err == nil {
			tok.kind = tokInt
			tok.i = i

			return nil
		}
		// Too large for int64; fall through to float.
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return ErrSyntax.WithPosition(tok.pos).
			With(slog.String("reason", "invalid number literal")).
			Wrap(err)
	}

	tok.kind = tokFloat
	tok.f = f

	return nil
}

func (s *scanner) scanString(tok *token, quote byte) error {
	start := s.pos

	s.advance() // skip opening quote

	for {
		if s.eof() {
			return ErrSyntax.WithPosition(tok.pos).
				With(slog.String("reason", "unterminated string"))
		}

		ch := s.peek()
		s.advance()

		if ch == '\\' {
			if s.eof() {
				continue
			}

			s.advance()

			continue
		}

		if ch == rune(quote) {
			break
		}
	}

	str, err := unquote(string(s.input[start:s.pos]), quote)
	if err != nil {
		return ErrSyntax.WithPosition(tok.pos).
			With(slog.String("reason", "invalid string literal")).
			Wrap(err)
	}

	tok.kind = tokString
	tok.str = str

	return nil
}

// unquote decodes a quoted string literal using Go escape rules. Single
// quoted strings are rewritten as double quoted ones first.
func unquote(raw string, quote byte) (string, error) {
	body := raw[1 : len(raw)-1]

	var b strings.Builder

	b.Grow(len(raw) + 2)
	b.WriteByte('"')

	for i := 0; i < len(body); i++ {
		c := body[i]

		switch {
		case c == '\\' && i+1 < len(body):
			next := body[i+1]
			if next == '\'' {
				b.WriteByte('\'')
			} else {
				b.WriteByte(c)
				b.WriteByte(next)
			}

			i++

		case c == '"' && quote == '\'':
			b.WriteString(`\"`)

		case c == '\n':
			b.WriteString(`\n`)

		case c == '\r':
			b.WriteString(`\r`)

		default:
			b.WriteByte(c)
		}
	}

	b.WriteByte('"')

	return strconv.Unquote(b.String())
}

func (s *scanner) scanPunct(tok *token) error {
	ch := s.peek()
	two := s.peekN(2)

	switch two {
	case "==":
		tok.kind = tokEq
	case "!=":
		tok.kind = tokNe
	case "<=":
		tok.kind = tokLe
	case ">=":
		tok.kind = tokGe
	case "&&":
		tok.kind = tokAnd
	case "||":
		tok.kind = tokOr
	}

	if tok.kind != tokEOF {
		s.advance()
		s.advance()

		return nil
	}

	switch ch {
	case '(':
		tok.kind = tokLParen
	case ')':
		tok.kind = tokRParen
	case '[':
		tok.kind = tokLBracket
	case ']':
		tok.kind = tokRBracket
	case '{':
		tok.kind = tokLBrace
	case '}':
		tok.kind = tokRBrace
	case ',':
		tok.kind = tokComma
	case ':':
		tok.kind = tokColon
	case '.':
		tok.kind = tokDot
	case '=':
		tok.kind = tokAssign
	case '<':
		tok.kind = tokLt
	case '>':
		tok.kind = tokGt
	case '+':
		tok.kind = tokPlus
	case '-':
		tok.kind = tokMinus
	case '*':
		tok.kind = tokStar
	case '/':
		tok.kind = tokSlash
	case '%':
		tok.kind = tokPercent
	case '!':
		tok.kind = tokNot
	default:
		return ErrSyntax.WithPosition(tok.pos).
			With(slog.String("reason", "unexpected character "+strconv.QuoteRune(ch)))
	}

	s.advance()

	return nil
}

// Helper methods

func (s *scanner) peek() rune {
	if s.eof() {
		return 0
	}

	r, _ := utf8.DecodeRune(s.input[s.pos:])

	return r
}

// peekAt returns the byte n positions ahead, or 0 past the end of input.
func (s *scanner) peekAt(n int) byte {
	if s.pos+n >= len(s.input) {
		return 0
	}

	return s.input[s.pos+n]
}

func (s *scanner) peekN(n int) string {
	if s.pos+n > len(s.input) {
		return string(s.input[s.pos:])
	}

	return string(s.input[s.pos : s.pos+n])
}

func (s *scanner) advance() {
	if s.eof() {
		return
	}

	r, size := utf8.DecodeRune(s.input[s.pos:])

	s.pos += size
	if r == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
}

func (s *scanner) eof() bool {
	return s.pos >= len(s.input)
}

func (s *scanner) position() Position {
	return Position{
		Offset: s.pos,
		Line:   s.line,
		Column: s.col,
	}
}

func (s *scanner) skipDigits() {
	for isDigit(s.peekAt(0)) {
		s.advance()
	}
}

func (s *scanner) skipWhitespaceAndComments() error {
	for {
		for !s.eof() && unicode.IsSpace(s.peek()) {
			s.advance()
		}

		switch s.peekN(2) {
		case "//":
			for !s.eof() && s.peek() != '\n' {
				s.advance()
			}

		case "/*":
			pos := s.position()

			s.advance() // skip '/'
			s.advance() // skip '*'

			for s.peekN(2) != "*/" {
				if s.eof() {
					return ErrSyntax.WithPosition(pos).
						With(slog.String("reason", "unterminated comment"))
				}

				s.advance()
			}

			s.advance() // skip '*'
			s.advance() // skip '/'

		default:
			return nil
		}
	}
}

// Character classification

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentifierStart(r rune) bool {
	return unicode.In(r,
		unicode.L,  // Letter
		unicode.Nl, // Letter, Number
		unicode.Other_ID_Start,
	) || r == '_'
}

func isIdentifierContinue(r rune) bool {
	return unicode.In(r,
		unicode.L,  // Letter
		unicode.Nl, // Letter, Number
		unicode.Other_ID_Start,
		unicode.Mn, // Mark, Nonspacing
		unicode.Mc, // Mark, Spacing Combining
		unicode.Nd, // Number, Decimal Digit
		unicode.Pc, // Punctuation, Connector
		unicode.Other_ID_Continue,
	)
}
