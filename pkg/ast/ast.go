package ast

import (
	"strconv"
	"strings"
)

type NodeType string

const (
	NodeNumberLiteral  NodeType = "NumberLiteral"
	NodeStringLiteral  NodeType = "StringLiteral"
	NodeIdentifier     NodeType = "Identifier"
	NodeArrayLiteral   NodeType = "ArrayLiteral"
	NodeCallExpression NodeType = "CallExpression"
)

// Expr is a node of a parsed paren form. Trees are built once by the parser
// (or the DSL helpers) and never mutated afterwards; evaluation only reads them.
type Expr interface {
	NodeType() NodeType
	String() string
	exprNode()
}

type nodeImpl struct {
	Type NodeType `json:"type"`
}

func newNodeImpl(kind NodeType) nodeImpl {
	return nodeImpl{Type: kind}
}

func (n nodeImpl) NodeType() NodeType { return n.Type }
func (nodeImpl) exprNode()            {}

// Literals

type NumberLiteral struct {
	nodeImpl

	Value int64 `json:"value"`
}

func NewNumberLiteral(value int64) *NumberLiteral {
	return &NumberLiteral{nodeImpl: newNodeImpl(NodeNumberLiteral), Value: value}
}

func (n *NumberLiteral) String() string {
	return strconv.FormatInt(n.Value, 10)
}

type StringLiteral struct {
	nodeImpl

	Value string `json:"value"`
}

func NewStringLiteral(value string) *StringLiteral {
	return &StringLiteral{nodeImpl: newNodeImpl(NodeStringLiteral), Value: value}
}

// String renders the literal without escaping; the lexer has no escapes, so
// the rendering re-lexes to the same text.
func (n *StringLiteral) String() string {
	return `"` + n.Value + `"`
}

// Identifier

// Identifier references a binding by name. When IsBindName is set (written
// `@name`) the identifier evaluates to its own text instead of a lookup, which
// lets macros receive the name to bind as data.
type Identifier struct {
	nodeImpl

	Name       string `json:"name"`
	IsBindName bool   `json:"isBindName,omitempty"`
}

func NewIdentifier(name string, isBindName bool) *Identifier {
	return &Identifier{nodeImpl: newNodeImpl(NodeIdentifier), Name: name, IsBindName: isBindName}
}

func (n *Identifier) String() string {
	if n.IsBindName {
		return "@" + n.Name
	}
	return n.Name
}

// Arrays

type ArrayLiteral struct {
	nodeImpl

	Elements []Expr `json:"elements"`
}

func NewArrayLiteral(elements []Expr) *ArrayLiteral {
	return &ArrayLiteral{nodeImpl: newNodeImpl(NodeArrayLiteral), Elements: elements}
}

func (n *ArrayLiteral) String() string {
	return "[" + joinExprs(n.Elements) + "]"
}

// Calls

// CallExpression is a parenthesised form. IsMacro records the `:` sigil on the
// callee and selects the macro calling convention at evaluation time.
type CallExpression struct {
	nodeImpl

	Callee    string `json:"callee"`
	Arguments []Expr `json:"arguments"`
	IsMacro   bool   `json:"isMacro,omitempty"`
}

func NewCallExpression(callee string, args []Expr, isMacro bool) *CallExpression {
	return &CallExpression{nodeImpl: newNodeImpl(NodeCallExpression), Callee: callee, Arguments: args, IsMacro: isMacro}
}

func (n *CallExpression) String() string {
	var b strings.Builder
	b.WriteByte('(')
	if n.IsMacro {
		b.WriteByte(':')
	}
	b.WriteString(n.Callee)
	if len(n.Arguments) > 0 {
		b.WriteByte(' ')
		b.WriteString(joinExprs(n.Arguments))
	}
	b.WriteByte(')')
	return b.String()
}

func joinExprs(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, " ")
}
