package mvel

import (
	"fmt"
	"strings"
)

// Node is either a statement or an operator.
type Node struct {
	Operator  Operator
	Statement *Statement
}

// Stmt returns a statement node.
func Stmt(name string, args ...any) Node {
	return Node{Statement: &Statement{Name: name, Arguments: args}}
}

// Op returns an operator node.
func Op(o Operator) Node {
	return Node{Operator: o}
}

func (n Node) String() string {
	if n.Statement != nil {
		return n.Statement.String()
	}
	return n.Operator.Symbol()
}

// AST is an expression as an ordered node list with an optional behavior.
// It renders to an equivalent mVEL string.
type AST struct {
	Behavior Behavior
	Nodes    []Node
}

// NewAST returns an AST with normal behavior.
func NewAST(nodes ...Node) *AST {
	return &AST{Nodes: nodes}
}

func (a *AST) String() string {
	var sb strings.Builder
	sb.WriteString(a.Behavior.Symbol())
	for _, n := range a.Nodes {
		sb.WriteString(n.String())
	}
	return sb.String()
}

// Validate checks parenthesis balance and combinator placement.
func (a *AST) Validate() error {
	if problems := checkTokens(a.tokens()); len(problems) > 0 {
		return &ExpressionError{Expression: a.String(), Problems: problems}
	}
	return nil
}

func (a *AST) tokens() []token {
	tokens := make([]token, len(a.Nodes))
	for i, n := range a.Nodes {
		if n.Statement != nil {
			tokens[i] = token{kind: tokStatement, name: n.Statement.Name}
		} else {
			tokens[i] = token{kind: tokOperator, op: n.Operator}
		}
	}
	return tokens
}

// Statements returns the statement nodes in order.
func (a *AST) Statements() []*Statement {
	var out []*Statement
	for _, n := range a.Nodes {
		if n.Statement != nil {
			out = append(out, n.Statement)
		}
	}
	return out
}

// Parse expands macros, checks the structure and binds every statement to
// its rule definition.
func (r *Registry) Parse(expression string) (*AST, error) {
	behavior, tokens, problems := lex(expression)
	if len(problems) > 0 {
		return nil, &ExpressionError{Expression: expression, Problems: problems}
	}
	r.mu.RLock()
	tokens, err := r.expand(tokens, 0)
	r.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	tokens = implicitAnd(tokens)
	if problems := checkTokens(tokens); len(problems) > 0 {
		return nil, &ExpressionError{Expression: expression, Problems: problems}
	}

	ast := &AST{Behavior: behavior, Nodes: make([]Node, 0, len(tokens))}
	for _, t := range tokens {
		if t.kind == tokOperator {
			ast.Nodes = append(ast.Nodes, Op(t.op))
			continue
		}
		stmt, err := r.bind(t)
		if err != nil {
			return nil, err
		}
		ast.Nodes = append(ast.Nodes, Node{Statement: stmt})
	}
	return ast, nil
}

func implicitAnd(tokens []token) []token {
	out := make([]token, 0, len(tokens))
	for i, t := range tokens {
		if i > 0 && endsOperand(tokens[i-1]) && startsOperand(t) {
			out = append(out, token{kind: tokOperator, op: OpAnd})
		}
		out = append(out, t)
	}
	return out
}

func endsOperand(t token) bool {
	return t.kind != tokOperator || t.op == OpClose
}

func startsOperand(t token) bool {
	return t.kind != tokOperator || t.op == OpOpen || t.op == OpNot
}

// expressionString accepts a string, a [fmt.Stringer] such as *Expression or
// *AST, or nil.
func expressionString(expr any) (string, error) {
	switch e := expr.(type) {
	case string:
		return e, nil
	case *AST:
		if err := e.Validate(); err != nil {
			return "", err
		}
		return e.String(), nil
	case fmt.Stringer:
		return e.String(), nil
	}
	return "", fmt.Errorf("%w: unsupported expression type %T", ErrInvalidExpression, expr)
}
