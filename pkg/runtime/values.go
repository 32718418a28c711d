package runtime

import (
	"fmt"

	"paren/interpreter-go/pkg/ast"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindNil Kind = iota
	KindNumber
	KindString
	KindArray
	KindNativeFunction
	KindNativeMacro
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindNativeFunction:
		return "native_function"
	case KindNativeMacro:
		return "native_macro"
	case KindFunction:
		return "function"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the shared behaviour for all runtime values. Values are
// immutable once built, so copying one never aliases mutable state.
type Value interface {
	Kind() Kind
}

//-----------------------------------------------------------------------------
// Scalars
//-----------------------------------------------------------------------------

type NilValue struct{}

func (NilValue) Kind() Kind { return KindNil }

type NumberValue struct {
	Val int64
}

func (NumberValue) Kind() Kind { return KindNumber }

type StringValue struct {
	Val string
}

func (StringValue) Kind() Kind { return KindString }

//-----------------------------------------------------------------------------
// Arrays
//-----------------------------------------------------------------------------

type ArrayValue struct {
	Elements []Value
}

func (ArrayValue) Kind() Kind { return KindArray }

// NewArray copies elems so the array never shares a backing slice with the
// caller.
func NewArray(elems []Value) ArrayValue {
	out := make([]Value, len(elems))
	copy(out, elems)
	return ArrayValue{Elements: out}
}

//-----------------------------------------------------------------------------
// Callables
//-----------------------------------------------------------------------------

// NativeFunctionValue is a builtin called with evaluated arguments.
type NativeFunctionValue struct {
	Op NativeOp
}

func (NativeFunctionValue) Kind() Kind { return KindNativeFunction }

// NativeMacroValue is a builtin called with the unevaluated argument syntax.
type NativeMacroValue struct {
	Op NativeOp
}

func (NativeMacroValue) Kind() Kind { return KindNativeMacro }

// FunctionValue is a user-defined function. It captures only its parameter
// names and body; free variables in Body are resolved in the caller's
// environment at call time, not in the environment of the definition.
type FunctionValue struct {
	Name   string
	Params []string
	Body   ast.Expr
}

func (*FunctionValue) Kind() Kind { return KindFunction }
