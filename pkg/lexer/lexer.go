package lexer

import (
	"fmt"
	"strconv"
)

// TokenType identifies the lexical class of a token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenLeftParen
	TokenRightParen
	TokenLeftSquare
	TokenRightSquare
	TokenColon
	TokenAt
	TokenString
	TokenIdent
	TokenNumber
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "end of input"
	case TokenLeftParen:
		return "'('"
	case TokenRightParen:
		return "')'"
	case TokenLeftSquare:
		return "'['"
	case TokenRightSquare:
		return "']'"
	case TokenColon:
		return "':'"
	case TokenAt:
		return "'@'"
	case TokenString:
		return "string"
	case TokenIdent:
		return "identifier"
	case TokenNumber:
		return "number"
	default:
		return fmt.Sprintf("token(%d)", int(t))
	}
}

// Token is a single lexeme. Text holds the string contents (without quotes)
// or the identifier name; Number holds the value of a number token.
type Token struct {
	Type   TokenType
	Text   string
	Number int64
	Offset int
}

// Error is a lexical failure. Lexing never resynchronises: the first error
// aborts the whole input unit.
type Error struct {
	Offset int
	Msg    string
	// Incomplete is set when the input ended inside a token.
	Incomplete bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("lex error at offset %d: %s", e.Offset, e.Msg)
}

// Scan reads the token starting at or after pos and returns it together with
// the position just past it. At end of input it returns a TokenEOF.
func Scan(src string, pos int) (Token, int, error) {
	for pos < len(src) && isSpace(src[pos]) {
		pos++
	}
	if pos >= len(src) {
		return Token{Type: TokenEOF, Offset: pos}, pos, nil
	}

	start := pos
	ch := src[pos]
	switch {
	case ch == '(':
		return Token{Type: TokenLeftParen, Text: "(", Offset: start}, pos + 1, nil
	case ch == ')':
		return Token{Type: TokenRightParen, Text: ")", Offset: start}, pos + 1, nil
	case ch == '[':
		return Token{Type: TokenLeftSquare, Text: "[", Offset: start}, pos + 1, nil
	case ch == ']':
		return Token{Type: TokenRightSquare, Text: "]", Offset: start}, pos + 1, nil
	case ch == ':':
		return Token{Type: TokenColon, Text: ":", Offset: start}, pos + 1, nil
	case ch == '@':
		return Token{Type: TokenAt, Text: "@", Offset: start}, pos + 1, nil
	case ch == '"':
		pos++ // opening quote
		for pos < len(src) && src[pos] != '"' {
			pos++
		}
		if pos >= len(src) {
			return Token{}, start, &Error{Offset: start, Msg: "unterminated string literal", Incomplete: true}
		}
		return Token{Type: TokenString, Text: src[start+1 : pos], Offset: start}, pos + 1, nil
	case isDigit(ch) || (ch == '-' && pos+1 < len(src) && isDigit(src[pos+1])):
		pos++
		for pos < len(src) && isDigit(src[pos]) {
			pos++
		}
		text := src[start:pos]
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Token{}, start, &Error{Offset: start, Msg: fmt.Sprintf("integer literal %s out of range", text)}
		}
		return Token{Type: TokenNumber, Text: text, Number: n, Offset: start}, pos, nil
	case isAlpha(ch):
		for pos < len(src) && (isAlpha(src[pos]) || isDigit(src[pos])) {
			pos++
		}
		return Token{Type: TokenIdent, Text: src[start:pos], Offset: start}, pos, nil
	default:
		return Token{}, start, &Error{Offset: start, Msg: fmt.Sprintf("unexpected character %q", ch)}
	}
}

// Lexer pulls tokens from a source string on demand.
type Lexer struct {
	src string
	pos int
}

func New(src string) *Lexer {
	return &Lexer{src: src}
}

// Next returns the next token. Once TokenEOF is returned every further call
// returns TokenEOF again.
func (l *Lexer) Next() (Token, error) {
	tok, pos, err := Scan(l.src, l.pos)
	if err != nil {
		return Token{}, err
	}
	l.pos = pos
	return tok, nil
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}
