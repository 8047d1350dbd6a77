package mvel

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// Strategy is the failure policy of a constraint.
type Strategy int

const (
	// FailLazy records the failure and continues.
	FailLazy Strategy = iota
	// FailFast stops Check at the first failure.
	FailFast
)

func (s Strategy) String() string {
	if s == FailFast {
		return "fail-fast"
	}
	return "fail-lazy"
}

// ParseStrategy parses the value of an mvel-strategy struct tag.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lazy", "faillazy", "fail-lazy":
		return FailLazy, nil
	case "fast", "failfast", "fail-fast":
		return FailFast, nil
	}
	return FailLazy, fmt.Errorf("%w: unknown strategy %q", ErrValidationLogic, s)
}

// Constraint binds an expression to a declared location.
type Constraint struct {
	Expression any
	Messages   map[string]string
	Label      string
	Strategy   Strategy
}

// NewConstraint returns a FailLazy constraint for expression.
func NewConstraint(expression any) *Constraint {
	return &Constraint{Expression: expression}
}

// FailFast switches the constraint to the FailFast strategy.
func (c *Constraint) FailFast() *Constraint {
	c.Strategy = FailFast
	return c
}

// WithMessages sets per-rule message overrides.
func (c *Constraint) WithMessages(messages map[string]string) *Constraint {
	c.Messages = messages
	return c
}

// WithLabel sets @label for the constraint's rules.
func (c *Constraint) WithLabel(label string) *Constraint {
	c.Label = label
	return c
}

// Kind is the kind of member a constraint is attached to.
type Kind string

// Member kinds, in the order Check runs them.
const (
	KindClass    Kind = "class"
	KindConstant Kind = "constant"
	KindProperty Kind = "property"
	KindMethod   Kind = "method"
)

var phases = []Kind{KindClass, KindConstant, KindProperty, KindMethod}

// Location identifies where a constraint was declared. Ordinal numbers the
// constraints sharing the same member, starting at 0 in discovery order.
type Location struct {
	Type    reflect.Type
	Kind    Kind
	Name    string
	Ordinal int
}

// Key is the stable descriptor used as the result key. Further constraints
// on an already constrained member get a "#<ordinal>" suffix, so each keeps
// its own result.
func (l Location) Key() string {
	key := l.Type.String() + "::" + string(l.Kind) + "::" + l.Name
	if l.Ordinal > 0 {
		key += "#" + strconv.Itoa(l.Ordinal)
	}
	return key
}

// Declaration collects explicitly registered constraints for T. Struct tags
// cover instance properties; everything else is declared here.
type Declaration[T any] struct {
	entries []declared
}

type declared struct {
	kind       Kind
	name       string
	constraint *Constraint
	value      func() any
}

// Class attaches c to the type itself; the validated value is the instance.
func (d *Declaration[T]) Class(c *Constraint) *Declaration[T] {
	d.entries = append(d.entries, declared{kind: KindClass, constraint: c})
	return d
}

// Constant attaches c to a named constant value.
func (d *Declaration[T]) Constant(name string, value any, c *Constraint) *Declaration[T] {
	d.entries = append(d.entries, declared{kind: KindConstant, name: name, constraint: c, value: func() any { return value }})
	return d
}

// Static attaches c to a package level variable read through get on every call.
func (d *Declaration[T]) Static(name string, get func() any, c *Constraint) *Declaration[T] {
	d.entries = append(d.entries, declared{kind: KindProperty, name: name, constraint: c, value: get})
	return d
}

// Property attaches c to the exported field name, in addition to its tags.
func (d *Declaration[T]) Property(name string, c *Constraint) *Declaration[T] {
	d.entries = append(d.entries, declared{kind: KindProperty, name: name, constraint: c})
	return d
}

// Method attaches c to a method whose result is validated. The method must
// not require parameters.
func (d *Declaration[T]) Method(name string, c *Constraint) *Declaration[T] {
	d.entries = append(d.entries, declared{kind: KindMethod, name: name, constraint: c})
	return d
}

var declarations sync.Map // reflect.Type -> []declared

// Declare registers constraints for T. It is meant to be called from init or
// startup code; declaring again replaces the previous declaration.
//
//	mvel.Declare(func(d *mvel.Declaration[User]) {
//	    d.Class(mvel.NewConstraint("object"))
//	    d.Constant("MaxAge", MaxAge, mvel.NewConstraint("integer&max:150"))
//	    d.Method("FullName", mvel.NewConstraint("required&string"))
//	})
func Declare[T any](fn func(d *Declaration[T])) {
	d := &Declaration[T]{}
	fn(d)
	t := reflect.TypeFor[T]()
	declarations.Store(t, d.entries)
	metadata.Delete(t)
}
