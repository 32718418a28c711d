package runtime

import "fmt"

// NativeOp names a builtin operation. The set is closed: the interpreter
// dispatches on it through fixed-signature tables, so native values carry no
// function pointers and stay printable and comparable.
type NativeOp int

const (
	OpPlus NativeOp = iota
	OpMinus
	OpTimes
	OpDiv
	OpID
	OpList
	OpLen
	OpConcat
	OpEq
	OpPrint

	OpLet
	OpDef
	OpFn
	OpScope
	OpIf
)

var nativeOpNames = map[NativeOp]string{
	OpPlus:   "plus",
	OpMinus:  "minus",
	OpTimes:  "times",
	OpDiv:    "div",
	OpID:     "id",
	OpList:   "list",
	OpLen:    "len",
	OpConcat: "concat",
	OpEq:     "eq",
	OpPrint:  "print",
	OpLet:    "let",
	OpDef:    "def",
	OpFn:     "fn",
	OpScope:  "scope",
	OpIf:     "if",
}

// String returns the name the op is bound to in the root environment.
func (op NativeOp) String() string {
	if name, ok := nativeOpNames[op]; ok {
		return name
	}
	return fmt.Sprintf("native_op_%d", int(op))
}
