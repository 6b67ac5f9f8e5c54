// Package lexer implements the Cem tokenizer: a single left-to-right pass
// over the source bytes with one byte of lookahead (spec.md §4.1).
package lexer

import (
	"strings"

	"github.com/navicore/cem/internal/token"
)

// maxStringBytes is the hard limit on a string literal's decoded length
// (spec.md §4.1).
const maxStringBytes = 1_000_000

func isOperatorChar(c byte) bool {
	switch c {
	case '+', '-', '*', '/', '<', '>', '=', '!':
		return true
	}
	return false
}

func isIdentChar(c byte) bool {
	return isAlphaNumeric(c) || c == '_' || c == '-' || isOperatorChar(c)
}

func isAlphaNumeric(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// Lexer scans a byte slice into a flat token stream. It holds no state
// beyond the scan position, the current line/column, and the interned
// filename pointer, matching lang/ylex/lexer.go's single-pass design.
type Lexer struct {
	src    string
	pos    int
	line   int
	column int
	file   *string
}

// New creates a Lexer over src. filename is interned once and shared by
// reference across every Loc the lexer produces (spec.md §3).
func New(src string, filename string) *Lexer {
	return &Lexer{
		src:    src,
		pos:    0,
		line:   1,
		column: 1,
		file:   &filename,
	}
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.src)
}

func (l *Lexer) peek() byte {
	if l.atEnd() {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.src) {
		return 0
	}
	return l.src[l.pos+n]
}

func (l *Lexer) advance() byte {
	c := l.peek()
	l.pos++
	if c == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return c
}

func (l *Lexer) loc() token.Loc {
	return token.Loc{File: l.file, Line: l.line, Column: l.column}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for !l.atEnd() {
		switch l.peek() {
		case ' ', '\t', '\r', '\n':
			l.advance()
		case '#':
			for !l.atEnd() && l.peek() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

// Next scans and returns the next token. An EOF token is returned forever
// once the input is exhausted.
func (l *Lexer) Next() token.Token {
	l.skipWhitespaceAndComments()
	if l.atEnd() {
		return token.Token{Kind: token.EOF, Loc: l.loc()}
	}

	start := l.loc()
	c := l.peek()

	switch c {
	case '(':
		l.advance()
		return token.Token{Kind: token.LParen, Text: "(", Loc: start}
	case ')':
		l.advance()
		return token.Token{Kind: token.RParen, Text: ")", Loc: start}
	case '[':
		l.advance()
		return token.Token{Kind: token.LBracket, Text: "[", Loc: start}
	case ']':
		l.advance()
		return token.Token{Kind: token.RBracket, Text: "]", Loc: start}
	case ':':
		l.advance()
		return token.Token{Kind: token.Colon, Text: ":", Loc: start}
	case '|':
		l.advance()
		return token.Token{Kind: token.Pipe, Text: "|", Loc: start}
	case ';':
		l.advance()
		return token.Token{Kind: token.Semicolon, Text: ";", Loc: start}
	case '"':
		return l.stringLiteral(start)
	case '-':
		if l.peekAt(1) == '-' {
			l.advance()
			l.advance()
			return token.Token{Kind: token.DashDash, Text: "--", Loc: start}
		}
		if isDigit(l.peekAt(1)) {
			return l.numberLiteral(start)
		}
		return l.identifierOrKeyword(start)
	case '=':
		if l.peekAt(1) == '>' {
			l.advance()
			l.advance()
			return token.Token{Kind: token.FatArrow, Text: "=>", Loc: start}
		}
		// Not "=>": '=' is an operator char, so let identifierOrKeyword
		// absorb it along with any further ident/operator chars (the bare
		// equals word, or an identifier like "=default").
		return l.identifierOrKeyword(start)
	}

	if isDigit(c) {
		return l.numberLiteral(start)
	}
	if isAlphaNumeric(c) || c == '_' || isOperatorChar(c) {
		return l.identifierOrKeyword(start)
	}

	// Unknown single character: pass through as an identifier for
	// parser-level error recovery (spec.md §4.1).
	l.advance()
	return token.Token{Kind: token.Ident, Text: string(c), Loc: start}
}

func (l *Lexer) numberLiteral(start token.Loc) token.Token {
	var sb strings.Builder
	if l.peek() == '-' {
		sb.WriteByte(l.advance())
	}
	for !l.atEnd() && isDigit(l.peek()) {
		sb.WriteByte(l.advance())
	}
	return token.Token{Kind: token.Int, Text: sb.String(), Loc: start}
}

func (l *Lexer) identifierOrKeyword(start token.Loc) token.Token {
	var sb strings.Builder
	for !l.atEnd() && isIdentChar(l.peek()) {
		sb.WriteByte(l.advance())
	}
	text := sb.String()

	if kw, ok := token.Keywords[text]; ok {
		return token.Token{Kind: kw, Text: text, Loc: start}
	}
	if text == "true" || text == "false" {
		return token.Token{Kind: token.Bool, Text: text, Loc: start}
	}
	return token.Token{Kind: token.Ident, Text: text, Loc: start}
}

func (l *Lexer) stringLiteral(start token.Loc) token.Token {
	l.advance() // consume opening quote

	var sb strings.Builder
	for {
		if sb.Len() > maxStringBytes {
			return token.Token{
				Kind: token.Error,
				Text: "ERROR: string literal exceeds maximum length of 1000000 bytes",
				Loc:  start,
			}
		}
		if l.atEnd() {
			return token.Token{Kind: token.Error, Text: "ERROR: unterminated string literal (EOF)", Loc: start}
		}
		c := l.peek()
		if c == '"' {
			break
		}
		if c == '\n' {
			return token.Token{Kind: token.Error, Text: "ERROR: unterminated string literal (newline)", Loc: start}
		}
		if c == '\\' {
			l.advance()
			if l.atEnd() {
				return token.Token{Kind: token.Error, Text: "ERROR: unterminated string literal (EOF)", Loc: start}
			}
			switch l.peek() {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			default:
				sb.WriteByte(l.peek())
			}
			l.advance()
			continue
		}
		sb.WriteByte(l.advance())
	}
	l.advance() // consume closing quote
	return token.Token{Kind: token.String, Text: sb.String(), Loc: start}
}

// Tokenize scans the entire input and returns its token stream, always
// terminated by a single EOF token.
func Tokenize(src, filename string) []token.Token {
	l := New(src, filename)
	var out []token.Token
	for {
		t := l.Next()
		out = append(out, t)
		if t.Kind == token.EOF {
			return out
		}
	}
}
