package ast

// Literal helpers.

func Num(value int64) *NumberLiteral {
	return NewNumberLiteral(value)
}

func Str(value string) *StringLiteral {
	return NewStringLiteral(value)
}

func ID(name string) *Identifier {
	return NewIdentifier(name, false)
}

// BindID builds the `@name` form.
func BindID(name string) *Identifier {
	return NewIdentifier(name, true)
}

func Arr(elements ...Expr) *ArrayLiteral {
	return NewArrayLiteral(elements)
}

// Call helpers.

func Call(callee string, args ...Expr) *CallExpression {
	return NewCallExpression(callee, args, false)
}

// Macro builds the `(:callee ...)` form.
func Macro(callee string, args ...Expr) *CallExpression {
	return NewCallExpression(callee, args, true)
}
