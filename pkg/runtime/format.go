package runtime

import (
	"fmt"
	"strconv"
	"strings"
)

// Format renders a value the way the REPL prints results. Numbers and
// strings render as source text, so parsing the output of Format and
// evaluating it yields an equal value.
func Format(v Value) string {
	switch val := v.(type) {
	case nil:
		return "nil"
	case NilValue:
		return "nil"
	case NumberValue:
		return strconv.FormatInt(val.Val, 10)
	case StringValue:
		return `"` + val.Val + `"`
	case ArrayValue:
		parts := make([]string, len(val.Elements))
		for i, e := range val.Elements {
			parts[i] = Format(e)
		}
		return "[" + strings.Join(parts, " ") + "]"
	case NativeFunctionValue:
		return fmt.Sprintf("<native function %s>", val.Op)
	case NativeMacroValue:
		return fmt.Sprintf("<native macro %s>", val.Op)
	case *FunctionValue:
		name := val.Name
		if name == "" {
			name = "anonymous"
		}
		return fmt.Sprintf("<function %s (%s)>", name, strings.Join(val.Params, " "))
	default:
		return fmt.Sprintf("<%s>", v.Kind())
	}
}

// Display renders a value for output by print: like Format, except that
// top-level strings are written without quotes.
func Display(v Value) string {
	if s, ok := v.(StringValue); ok {
		return s.Val
	}
	return Format(v)
}

// Equal reports deep equality. Natives are equal when they name the same op;
// user functions only when they are the same function value.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case NilValue:
		return true
	case NumberValue:
		return av.Val == b.(NumberValue).Val
	case StringValue:
		return av.Val == b.(StringValue).Val
	case ArrayValue:
		bv := b.(ArrayValue)
		if len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !Equal(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	case NativeFunctionValue:
		return av.Op == b.(NativeFunctionValue).Op
	case NativeMacroValue:
		return av.Op == b.(NativeMacroValue).Op
	case *FunctionValue:
		return av == b.(*FunctionValue)
	}
	return false
}
