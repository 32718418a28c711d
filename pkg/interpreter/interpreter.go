package interpreter

import (
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"

	"paren/interpreter-go/pkg/ast"
	"paren/interpreter-go/pkg/runtime"
)

// Interpreter evaluates expression trees against a root environment
// populated with the builtin functions and macros.
type Interpreter struct {
	global    *runtime.Environment
	out       io.Writer
	functions map[runtime.NativeOp]nativeFunction
	macros    map[runtime.NativeOp]nativeMacro
	depth     int
	maxDepth  int
}

// DefaultMaxDepth bounds nested function calls and scopes.
const DefaultMaxDepth = 10000

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithOutput directs the output of print to w (os.Stdout by default).
func WithOutput(w io.Writer) Option {
	return func(i *Interpreter) {
		i.out = w
	}
}

// WithMaxDepth limits how many function calls and scopes may be active at
// once. Values below 1 keep the default.
func WithMaxDepth(n int) Option {
	return func(i *Interpreter) {
		if n > 0 {
			i.maxDepth = n
		}
	}
}

// New returns an interpreter whose global environment holds the builtins.
func New(opts ...Option) *Interpreter {
	i := &Interpreter{
		global:   runtime.NewEnvironment(),
		out:      os.Stdout,
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(i)
	}
	i.installBuiltins()
	return i
}

// GlobalEnvironment returns the interpreter's root environment.
func (i *Interpreter) GlobalEnvironment() *runtime.Environment {
	return i.global
}

// Evaluate reduces expr to a value in env. Binding macros write into env;
// every frame pushed while evaluating is released before Evaluate returns,
// whether or not it fails.
func (i *Interpreter) Evaluate(expr ast.Expr, env *runtime.Environment) (runtime.Value, error) {
	switch n := expr.(type) {
	case *ast.NumberLiteral:
		return runtime.NumberValue{Val: n.Value}, nil
	case *ast.StringLiteral:
		return runtime.StringValue{Val: n.Value}, nil
	case *ast.ArrayLiteral:
		values, err := i.evaluateAll(n.Elements, env)
		if err != nil {
			return nil, err
		}
		return runtime.ArrayValue{Elements: values}, nil
	case *ast.Identifier:
		if n.IsBindName {
			return runtime.StringValue{Val: n.Name}, nil
		}
		val, ok := env.Lookup(n.Name)
		if !ok {
			return nil, &UnboundNameError{Name: n.Name}
		}
		return val, nil
	case *ast.CallExpression:
		return i.evaluateCall(n, env)
	case nil:
		return nil, fmt.Errorf("cannot evaluate nil expression")
	default:
		return nil, fmt.Errorf("unsupported expression type: %s", n.NodeType())
	}
}

// enter claims one level of nesting; each successful enter must be paired
// with a leave.
func (i *Interpreter) enter() error {
	if i.depth >= i.maxDepth {
		return &RecursionError{Limit: i.maxDepth}
	}
	i.depth++
	return nil
}

func (i *Interpreter) leave() { i.depth-- }

func (i *Interpreter) evaluateAll(exprs []ast.Expr, env *runtime.Environment) ([]runtime.Value, error) {
	values := make([]runtime.Value, 0, len(exprs))
	for _, expr := range exprs {
		val, err := i.Evaluate(expr, env)
		if err != nil {
			return nil, err
		}
		values = append(values, val)
	}
	return values, nil
}

func (i *Interpreter) evaluateCall(call *ast.CallExpression, env *runtime.Environment) (runtime.Value, error) {
	callee, ok := env.Lookup(call.Callee)
	if !ok {
		return nil, &UnboundNameError{Name: call.Callee}
	}
	if call.IsMacro {
		macro, ok := callee.(runtime.NativeMacroValue)
		if !ok {
			return nil, typeMismatch(call.Callee, "%s is not a macro", callee.Kind())
		}
		return i.invokeMacro(macro, call.Arguments, env)
	}
	switch fn := callee.(type) {
	case runtime.NativeFunctionValue:
		args, err := i.evaluateAll(call.Arguments, env)
		if err != nil {
			return nil, err
		}
		return i.invokeNative(fn, args, env)
	case *runtime.FunctionValue:
		args, err := i.evaluateAll(call.Arguments, env)
		if err != nil {
			return nil, err
		}
		return i.invokeFunction(fn, args, env)
	case runtime.NativeMacroValue:
		// An unmarked call to a macro still hands it the raw syntax.
		return i.invokeMacro(fn, call.Arguments, env)
	default:
		return nil, typeMismatch(call.Callee, "calling non-callable value of kind %s", callee.Kind())
	}
}

func (i *Interpreter) invokeNative(fn runtime.NativeFunctionValue, args []runtime.Value, env *runtime.Environment) (runtime.Value, error) {
	impl, ok := i.functions[fn.Op]
	if !ok {
		return nil, fmt.Errorf("no native function registered for %s", fn.Op)
	}
	if glog.V(3) {
		glog.Infof("call native %s with %d args", fn.Op, len(args))
	}
	return impl(&callContext{interp: i, env: env, op: fn.Op}, args)
}

func (i *Interpreter) invokeMacro(macro runtime.NativeMacroValue, args []ast.Expr, env *runtime.Environment) (runtime.Value, error) {
	impl, ok := i.macros[macro.Op]
	if !ok {
		return nil, fmt.Errorf("no native macro registered for %s", macro.Op)
	}
	if glog.V(3) {
		glog.Infof("expand macro %s with %d forms", macro.Op, len(args))
	}
	return impl(&callContext{interp: i, env: env, op: macro.Op}, args)
}

// invokeFunction runs a user function in a fresh frame whose outer frame is
// the caller's environment, not the environment the function was defined
// in. Free names in the body therefore resolve at the call site (dynamic
// scoping).
func (i *Interpreter) invokeFunction(fn *runtime.FunctionValue, args []runtime.Value, caller *runtime.Environment) (runtime.Value, error) {
	if len(args) != len(fn.Params) {
		glog.V(1).Infof("function %s takes %d parameters, called with %d arguments", functionName(fn), len(fn.Params), len(args))
	}
	if glog.V(3) {
		glog.Infof("call function %s at depth %d", functionName(fn), caller.Depth())
	}
	if err := i.enter(); err != nil {
		glog.V(1).Infof("function %s: %v", functionName(fn), err)
		return nil, err
	}
	defer i.leave()
	local := caller.NewChild()
	defer local.Release()
	for idx, param := range fn.Params {
		if idx >= len(args) {
			break
		}
		local.Define(param, args[idx])
	}
	return i.Evaluate(fn.Body, local)
}

func functionName(fn *runtime.FunctionValue) string {
	if fn.Name == "" {
		return "<anonymous>"
	}
	return fn.Name
}
