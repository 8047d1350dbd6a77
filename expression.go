package mvel

import (
	"errors"
	"strings"
)

// Expression builds an mVEL string. Write and Concat never fail; problems are
// reported by Build.
//
//	expr, err := mvel.NewExpression().
//	    Rule("required").
//	    Rule("min", 18).
//	    Group(func(e *mvel.Expression) { e.Rule("max", 65).Or().Rule("null") }).
//	    Build()
type Expression struct {
	buf  string
	errs []error
}

// NewExpression returns an empty expression builder.
func NewExpression() *Expression {
	return &Expression{}
}

// Write appends s, inserting an implicit AND when s starts a new operand
// right after another operand.
func (e *Expression) Write(s string) *Expression {
	if s == "" {
		return e
	}
	if e.needsAnd(s) {
		e.buf += OpAnd.Symbol()
	}
	e.buf += s
	return e
}

// Concat appends s verbatim.
func (e *Expression) Concat(s string) *Expression {
	e.buf += s
	return e
}

func (e *Expression) needsAnd(s string) bool {
	body := e.body()
	if body == "" || strings.HasPrefix(s, "/*") {
		return false
	}
	switch s[0] {
	case '&', '|', '^', ')':
		return false
	}
	switch body[len(body)-1] {
	case '~', '&', '|', '^', '(':
		return false
	}
	return true
}

func (e *Expression) body() string {
	if e.buf != "" {
		if _, ok := behaviorOf(e.buf[0]); ok {
			return e.buf[1:]
		}
	}
	return e.buf
}

// Rule writes a statement for the named rule with JSON encoded arguments.
func (e *Expression) Rule(name string, args ...any) *Expression {
	s, err := EncodeStatement(name, args...)
	if err != nil {
		e.errs = append(e.errs, err)
		return e
	}
	return e.Write(s)
}

// Macro writes a reference to a registered macro.
func (e *Expression) Macro(name string) *Expression {
	return e.Write("[" + name + "]")
}

// Not writes a NOT combinator.
func (e *Expression) Not() *Expression { return e.Write(OpNot.Symbol()) }

// And writes an AND combinator.
func (e *Expression) And() *Expression { return e.Write(OpAnd.Symbol()) }

// Or writes an OR combinator.
func (e *Expression) Or() *Expression { return e.Write(OpOr.Symbol()) }

// Xor writes an XOR combinator.
func (e *Expression) Xor() *Expression { return e.Write(OpXor.Symbol()) }

// Open writes an opening parenthesis.
func (e *Expression) Open() *Expression { return e.Write(OpOpen.Symbol()) }

// Close writes a closing parenthesis.
func (e *Expression) Close() *Expression { return e.Write(OpClose.Symbol()) }

// Group wraps whatever fn writes in parentheses.
func (e *Expression) Group(fn func(*Expression)) *Expression {
	e.Open()
	fn(e)
	return e.Close()
}

// Comment writes an inert /* text */ block.
func (e *Expression) Comment(text string) *Expression {
	return e.Concat("/* " + strings.ReplaceAll(text, "*/", "* /") + " */")
}

// Normal removes the leading behavior character.
func (e *Expression) Normal() *Expression { return e.behave(Normal) }

// Optimistic sets the leading behavior character to ?.
func (e *Expression) Optimistic() *Expression { return e.behave(Optimistic) }

// Pessimistic sets the leading behavior character to !.
func (e *Expression) Pessimistic() *Expression { return e.behave(Pessimistic) }

func (e *Expression) behave(b Behavior) *Expression {
	e.buf = b.Symbol() + e.body()
	return e
}

// String returns the expression as written so far, without validation.
func (e *Expression) String() string {
	return e.buf
}

// Build validates the expression and returns it.
func (e *Expression) Build() (string, error) {
	if err := checkExpression(e.buf); err != nil {
		return "", errors.Join(append([]error{err}, e.errs...)...)
	}
	if len(e.errs) > 0 {
		return "", errors.Join(e.errs...)
	}
	return e.buf, nil
}

// checkExpression validates the structure of expr without consulting a registry.
func checkExpression(expr string) error {
	_, tokens, problems := lex(expr)
	problems = append(problems, checkTokens(tokens)...)
	if len(problems) > 0 {
		return &ExpressionError{Expression: expr, Problems: problems}
	}
	return nil
}
