package interpreter

import (
	"fmt"
	"strings"

	"github.com/golang/glog"

	"paren/interpreter-go/pkg/ast"
	"paren/interpreter-go/pkg/runtime"
)

// callContext is handed to every builtin. env is the environment of the
// call site; binding macros write into it.
type callContext struct {
	interp *Interpreter
	env    *runtime.Environment
	op     runtime.NativeOp
}

func (c *callContext) name() string { return c.op.String() }

type nativeFunction func(ctx *callContext, args []runtime.Value) (runtime.Value, error)

type nativeMacro func(ctx *callContext, args []ast.Expr) (runtime.Value, error)

func (i *Interpreter) installBuiltins() {
	i.functions = map[runtime.NativeOp]nativeFunction{
		runtime.OpPlus:   nativePlus,
		runtime.OpMinus:  nativeMinus,
		runtime.OpTimes:  nativeTimes,
		runtime.OpDiv:    nativeDiv,
		runtime.OpID:     nativeID,
		runtime.OpList:   nativeList,
		runtime.OpLen:    nativeLen,
		runtime.OpConcat: nativeConcat,
		runtime.OpEq:     nativeEq,
		runtime.OpPrint:  nativePrint,
	}
	i.macros = map[runtime.NativeOp]nativeMacro{
		runtime.OpLet:   macroLet,
		runtime.OpDef:   macroDef,
		runtime.OpFn:    macroFn,
		runtime.OpScope: macroScope,
		runtime.OpIf:    macroIf,
	}
	for op := range i.functions {
		i.global.Define(op.String(), runtime.NativeFunctionValue{Op: op})
	}
	for op := range i.macros {
		i.global.Define(op.String(), runtime.NativeMacroValue{Op: op})
	}
	i.global.Define("nil", runtime.NilValue{})
}

//-----------------------------------------------------------------------------
// Functions
//-----------------------------------------------------------------------------

func numbers(ctx *callContext, args []runtime.Value) ([]int64, error) {
	out := make([]int64, len(args))
	for idx, arg := range args {
		num, ok := arg.(runtime.NumberValue)
		if !ok {
			return nil, typeMismatch(ctx.name(), "argument %d must be a number, got %s", idx+1, arg.Kind())
		}
		out[idx] = num.Val
	}
	return out, nil
}

func nativePlus(ctx *callContext, args []runtime.Value) (runtime.Value, error) {
	nums, err := numbers(ctx, args)
	if err != nil {
		return nil, err
	}
	var sum int64
	for _, n := range nums {
		sum += n
	}
	return runtime.NumberValue{Val: sum}, nil
}

func nativeMinus(ctx *callContext, args []runtime.Value) (runtime.Value, error) {
	nums, err := numbers(ctx, args)
	if err != nil {
		return nil, err
	}
	switch len(nums) {
	case 0:
		return nil, typeMismatch(ctx.name(), "expects at least 1 argument")
	case 1:
		return runtime.NumberValue{Val: -nums[0]}, nil
	}
	acc := nums[0]
	for _, n := range nums[1:] {
		acc -= n
	}
	return runtime.NumberValue{Val: acc}, nil
}

func nativeTimes(ctx *callContext, args []runtime.Value) (runtime.Value, error) {
	nums, err := numbers(ctx, args)
	if err != nil {
		return nil, err
	}
	product := int64(1)
	for _, n := range nums {
		product *= n
	}
	return runtime.NumberValue{Val: product}, nil
}

func nativeDiv(ctx *callContext, args []runtime.Value) (runtime.Value, error) {
	nums, err := numbers(ctx, args)
	if err != nil {
		return nil, err
	}
	if len(nums) < 2 {
		return nil, typeMismatch(ctx.name(), "expects at least 2 arguments, got %d", len(nums))
	}
	acc := nums[0]
	for _, n := range nums[1:] {
		if n == 0 {
			return nil, &ArithmeticError{Op: ctx.name(), Msg: "division by zero"}
		}
		acc /= n
	}
	return runtime.NumberValue{Val: acc}, nil
}

func nativeID(ctx *callContext, args []runtime.Value) (runtime.Value, error) {
	if len(args) != 1 {
		return nil, typeMismatch(ctx.name(), "expects 1 argument, got %d", len(args))
	}
	return args[0], nil
}

func nativeList(_ *callContext, args []runtime.Value) (runtime.Value, error) {
	return runtime.NewArray(args), nil
}

func nativeLen(ctx *callContext, args []runtime.Value) (runtime.Value, error) {
	if len(args) != 1 {
		return nil, typeMismatch(ctx.name(), "expects 1 argument, got %d", len(args))
	}
	switch v := args[0].(type) {
	case runtime.StringValue:
		return runtime.NumberValue{Val: int64(len(v.Val))}, nil
	case runtime.ArrayValue:
		return runtime.NumberValue{Val: int64(len(v.Elements))}, nil
	default:
		return nil, typeMismatch(ctx.name(), "expects a string or array, got %s", v.Kind())
	}
}

func nativeConcat(ctx *callContext, args []runtime.Value) (runtime.Value, error) {
	if len(args) == 0 {
		return runtime.StringValue{Val: ""}, nil
	}
	switch args[0].(type) {
	case runtime.StringValue:
		var sb strings.Builder
		for idx, arg := range args {
			s, ok := arg.(runtime.StringValue)
			if !ok {
				return nil, typeMismatch(ctx.name(), "argument %d must be a string, got %s", idx+1, arg.Kind())
			}
			sb.WriteString(s.Val)
		}
		return runtime.StringValue{Val: sb.String()}, nil
	case runtime.ArrayValue:
		var elems []runtime.Value
		for idx, arg := range args {
			arr, ok := arg.(runtime.ArrayValue)
			if !ok {
				return nil, typeMismatch(ctx.name(), "argument %d must be an array, got %s", idx+1, arg.Kind())
			}
			elems = append(elems, arr.Elements...)
		}
		return runtime.NewArray(elems), nil
	default:
		return nil, typeMismatch(ctx.name(), "expects strings or arrays, got %s", args[0].Kind())
	}
}

func nativeEq(ctx *callContext, args []runtime.Value) (runtime.Value, error) {
	if len(args) < 2 {
		return nil, typeMismatch(ctx.name(), "expects at least 2 arguments, got %d", len(args))
	}
	for _, arg := range args[1:] {
		if !runtime.Equal(args[0], arg) {
			return runtime.NilValue{}, nil
		}
	}
	return runtime.NumberValue{Val: 1}, nil
}

func nativePrint(ctx *callContext, args []runtime.Value) (runtime.Value, error) {
	parts := make([]string, len(args))
	for idx, arg := range args {
		parts[idx] = runtime.Display(arg)
	}
	if _, err := fmt.Fprintln(ctx.interp.out, strings.Join(parts, " ")); err != nil {
		return nil, fmt.Errorf("print: %w", err)
	}
	return runtime.NilValue{}, nil
}

//-----------------------------------------------------------------------------
// Macros
//-----------------------------------------------------------------------------

// bindingName reads the name operand of let, def and fn. A plain or @
// identifier names itself and a string literal names its contents; any other
// form is evaluated and must produce a string.
func bindingName(ctx *callContext, expr ast.Expr) (string, error) {
	switch n := expr.(type) {
	case *ast.Identifier:
		return n.Name, nil
	case *ast.StringLiteral:
		return n.Value, nil
	}
	val, err := ctx.interp.Evaluate(expr, ctx.env)
	if err != nil {
		return "", err
	}
	s, ok := val.(runtime.StringValue)
	if !ok {
		return "", typeMismatch(ctx.name(), "name must be a string, got %s", val.Kind())
	}
	return s.Val, nil
}

func bind(ctx *callContext, name string, val runtime.Value) {
	if prev, replaced := ctx.env.Define(name, val); replaced {
		glog.V(1).Infof("%s: rebinding %s (was %s)", ctx.name(), name, runtime.Format(prev))
	}
}

func macroLet(ctx *callContext, args []ast.Expr) (runtime.Value, error) {
	if len(args) != 2 {
		return nil, typeMismatch(ctx.name(), "expects a name and a value, got %d forms", len(args))
	}
	name, err := bindingName(ctx, args[0])
	if err != nil {
		return nil, err
	}
	val, err := ctx.interp.Evaluate(args[1], ctx.env)
	if err != nil {
		return nil, err
	}
	bind(ctx, name, val)
	return val, nil
}

func macroDef(ctx *callContext, args []ast.Expr) (runtime.Value, error) {
	switch len(args) {
	case 2:
		return macroLet(ctx, args)
	case 3:
	default:
		return nil, typeMismatch(ctx.name(), "expects (def name value) or (def name params body), got %d forms", len(args))
	}
	name, err := bindingName(ctx, args[0])
	if err != nil {
		return nil, err
	}
	params, err := parameterNames(ctx, args[1])
	if err != nil {
		return nil, err
	}
	fn := &runtime.FunctionValue{Name: name, Params: params, Body: args[2]}
	bind(ctx, name, fn)
	return fn, nil
}

func macroFn(ctx *callContext, args []ast.Expr) (runtime.Value, error) {
	if len(args) != 2 {
		return nil, typeMismatch(ctx.name(), "expects params and a body, got %d forms", len(args))
	}
	params, err := parameterNames(ctx, args[0])
	if err != nil {
		return nil, err
	}
	return &runtime.FunctionValue{Params: params, Body: args[1]}, nil
}

// parameterNames accepts (a b c), which parses as a call to a, or [a b c].
func parameterNames(ctx *callContext, expr ast.Expr) ([]string, error) {
	var items []ast.Expr
	var params []string
	switch n := expr.(type) {
	case *ast.CallExpression:
		if n.IsMacro {
			return nil, typeMismatch(ctx.name(), "parameter list cannot be a macro call")
		}
		params = append(params, n.Callee)
		items = n.Arguments
	case *ast.ArrayLiteral:
		items = n.Elements
	default:
		return nil, typeMismatch(ctx.name(), "parameter list must be (names...) or [names...], got %s", expr)
	}
	for _, item := range items {
		ident, ok := item.(*ast.Identifier)
		if !ok {
			return nil, typeMismatch(ctx.name(), "parameter must be an identifier, got %s", item)
		}
		params = append(params, ident.Name)
	}
	return params, nil
}

func macroScope(ctx *callContext, args []ast.Expr) (runtime.Value, error) {
	if err := ctx.interp.enter(); err != nil {
		return nil, err
	}
	defer ctx.interp.leave()
	local := ctx.env.NewChild()
	defer local.Release()
	var result runtime.Value = runtime.NilValue{}
	for _, expr := range args {
		val, err := ctx.interp.Evaluate(expr, local)
		if err != nil {
			return nil, err
		}
		result = val
	}
	return result, nil
}

func macroIf(ctx *callContext, args []ast.Expr) (runtime.Value, error) {
	if len(args) != 2 && len(args) != 3 {
		return nil, typeMismatch(ctx.name(), "expects a condition, a then form and an optional else form, got %d forms", len(args))
	}
	cond, err := ctx.interp.Evaluate(args[0], ctx.env)
	if err != nil {
		return nil, err
	}
	if _, isNil := cond.(runtime.NilValue); !isNil {
		return ctx.interp.Evaluate(args[1], ctx.env)
	}
	if len(args) == 3 {
		return ctx.interp.Evaluate(args[2], ctx.env)
	}
	return runtime.NilValue{}, nil
}
