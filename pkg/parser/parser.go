package parser

import (
	"errors"
	"fmt"

	"paren/interpreter-go/pkg/ast"
	"paren/interpreter-go/pkg/lexer"
)

// Error is a syntax failure. No partial tree is produced; the whole unit is
// rejected.
type Error struct {
	Offset int
	Msg    string
	// Incomplete is set when the input ran out before the form was closed,
	// so more input could still make it valid.
	Incomplete bool

	lexErr *lexer.Error
}

func (e *Error) Error() string {
	if e.lexErr != nil {
		return e.lexErr.Error()
	}
	return fmt.Sprintf("parse error at offset %d: %s", e.Offset, e.Msg)
}

// Unwrap exposes the underlying lexer error, if any.
func (e *Error) Unwrap() error {
	if e.lexErr == nil {
		return nil
	}
	return e.lexErr
}

// IsIncomplete reports whether err was caused by running out of input.
func IsIncomplete(err error) bool {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Incomplete
	}
	var lerr *lexer.Error
	if errors.As(err, &lerr) {
		return lerr.Incomplete
	}
	return false
}

// parser is a recursive-descent parser with one token of lookahead.
type parser struct {
	lex *lexer.Lexer
	tok lexer.Token
}

// Parse parses exactly one form from text. The form is a call, an array
// literal or a single atom; anything after it is an error.
func Parse(text string) (ast.Expr, error) {
	p := &parser{lex: lexer.New(text)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.tok.Type == lexer.TokenEOF {
		return nil, p.incomplete("empty input")
	}
	expr, err := p.parseForm()
	if err != nil {
		return nil, err
	}
	if p.tok.Type != lexer.TokenEOF {
		return nil, p.errorf("unexpected %s after expression", p.tok.Type)
	}
	return expr, nil
}

func (p *parser) advance() error {
	tok, err := p.lex.Next()
	if err != nil {
		var lerr *lexer.Error
		if errors.As(err, &lerr) {
			return &Error{Offset: lerr.Offset, Msg: lerr.Msg, Incomplete: lerr.Incomplete, lexErr: lerr}
		}
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) errorf(format string, args ...any) *Error {
	return &Error{Offset: p.tok.Offset, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) incomplete(msg string) *Error {
	return &Error{Offset: p.tok.Offset, Msg: msg, Incomplete: true}
}

// parseForm parses a top-level form: call, array or atom.
func (p *parser) parseForm() (ast.Expr, error) {
	switch p.tok.Type {
	case lexer.TokenLeftParen:
		return p.parseCall()
	case lexer.TokenLeftSquare:
		return p.parseArray()
	default:
		return p.parseAtom()
	}
}

// parseCall parses `( [:]callee arg* )`. The current token is the `(`.
func (p *parser) parseCall() (ast.Expr, error) {
	if err := p.advance(); err != nil { // skip '('
		return nil, err
	}

	isMacro := false
	if p.tok.Type == lexer.TokenColon {
		isMacro = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	switch p.tok.Type {
	case lexer.TokenIdent:
	case lexer.TokenEOF:
		return nil, p.incomplete("expected callee identifier")
	default:
		return nil, p.errorf("expected callee identifier, found %s", p.tok.Type)
	}
	callee := p.tok.Text
	if err := p.advance(); err != nil {
		return nil, err
	}

	args := make([]ast.Expr, 0)
	for {
		switch p.tok.Type {
		case lexer.TokenRightParen:
			if err := p.advance(); err != nil {
				return nil, err
			}
			return ast.NewCallExpression(callee, args, isMacro), nil
		case lexer.TokenEOF:
			return nil, p.incomplete(fmt.Sprintf("unclosed call to %s", callee))
		case lexer.TokenLeftParen:
			arg, err := p.parseCall()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		case lexer.TokenLeftSquare:
			arg, err := p.parseArray()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		default:
			arg, err := p.parseAtom()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
	}
}

// parseArray parses `[ atom* ]`. Arrays hold only strings, numbers and
// identifiers; calls and nested arrays are rejected.
func (p *parser) parseArray() (ast.Expr, error) {
	if err := p.advance(); err != nil { // skip '['
		return nil, err
	}
	elements := make([]ast.Expr, 0)
	for {
		var elem ast.Expr
		switch p.tok.Type {
		case lexer.TokenRightSquare:
			if err := p.advance(); err != nil {
				return nil, err
			}
			return ast.NewArrayLiteral(elements), nil
		case lexer.TokenEOF:
			return nil, p.incomplete("unclosed array literal")
		case lexer.TokenNumber:
			elem = ast.NewNumberLiteral(p.tok.Number)
		case lexer.TokenString:
			elem = ast.NewStringLiteral(p.tok.Text)
		case lexer.TokenIdent:
			elem = ast.NewIdentifier(p.tok.Text, false)
		default:
			return nil, p.errorf("unexpected %s in array literal", p.tok.Type)
		}
		elements = append(elements, elem)
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
}

// parseAtom parses a number, string, identifier or `@identifier`.
func (p *parser) parseAtom() (ast.Expr, error) {
	var expr ast.Expr
	switch p.tok.Type {
	case lexer.TokenNumber:
		expr = ast.NewNumberLiteral(p.tok.Number)
	case lexer.TokenString:
		expr = ast.NewStringLiteral(p.tok.Text)
	case lexer.TokenIdent:
		expr = ast.NewIdentifier(p.tok.Text, false)
	case lexer.TokenAt:
		if err := p.advance(); err != nil {
			return nil, err
		}
		switch p.tok.Type {
		case lexer.TokenIdent:
		case lexer.TokenEOF:
			return nil, p.incomplete("expected identifier after '@'")
		default:
			return nil, p.errorf("expected identifier after '@', found %s", p.tok.Type)
		}
		expr = ast.NewIdentifier(p.tok.Text, true)
	case lexer.TokenEOF:
		return nil, p.incomplete("unexpected end of input")
	default:
		return nil, p.errorf("unexpected %s", p.tok.Type)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return expr, nil
}
