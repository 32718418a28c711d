package interpreter

import (
	"errors"
	"fmt"

	"paren/interpreter-go/pkg/lexer"
	"paren/interpreter-go/pkg/parser"
)

// UnboundNameError reports an identifier or call target that is not bound in
// any enclosing frame.
type UnboundNameError struct {
	Name string
}

func (e *UnboundNameError) Error() string {
	return fmt.Sprintf("unbound name '%s'", e.Name)
}

// TypeMismatchError reports an operand of the wrong kind, a malformed
// argument list, or an attempt to call something that is not callable.
type TypeMismatchError struct {
	Op  string
	Msg string
}

func (e *TypeMismatchError) Error() string {
	if e.Op == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

// ArithmeticError reports a numeric operation with no result, such as
// division by zero.
type ArithmeticError struct {
	Op  string
	Msg string
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

// RecursionError reports nesting of function calls and scopes beyond the
// interpreter's limit.
type RecursionError struct {
	Limit int
}

func (e *RecursionError) Error() string {
	return fmt.Sprintf("recursion depth exceeds %d", e.Limit)
}

func typeMismatch(op string, format string, args ...any) error {
	return &TypeMismatchError{Op: op, Msg: fmt.Sprintf(format, args...)}
}

// ErrorKind names the class of err for display and journaling. Errors
// outside the language's taxonomy report as "Error".
func ErrorKind(err error) string {
	var (
		lexErr   *lexer.Error
		parseErr *parser.Error
		unbound  *UnboundNameError
		mismatch *TypeMismatchError
		arith    *ArithmeticError
		deep     *RecursionError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &lexErr):
		return "LexError"
	case errors.As(err, &parseErr):
		return "ParseError"
	case errors.As(err, &unbound):
		return "UnboundNameError"
	case errors.As(err, &mismatch):
		return "TypeMismatchError"
	case errors.As(err, &arith):
		return "ArithmeticError"
	case errors.As(err, &deep):
		return "RecursionError"
	default:
		return "Error"
	}
}
