package mvel

// Operator is an expression combinator or grouping token.
type Operator int

// Expression combinators.
const (
	OpNone Operator = iota
	OpNot
	OpAnd
	OpOr
	OpXor
	OpOpen
	OpClose
)

var operatorSymbols = map[Operator]string{
	OpNot:   "~",
	OpAnd:   "&",
	OpOr:    "|",
	OpXor:   "^",
	OpOpen:  "(",
	OpClose: ")",
}

var symbolOperators = map[byte]Operator{
	'~': OpNot,
	'&': OpAnd,
	'|': OpOr,
	'^': OpXor,
	'(': OpOpen,
	')': OpClose,
}

// Symbol returns the mVEL character for o.
func (o Operator) Symbol() string {
	return operatorSymbols[o]
}

func (o Operator) String() string {
	switch o {
	case OpNot:
		return "NOT"
	case OpAnd:
		return "AND"
	case OpOr:
		return "OR"
	case OpXor:
		return "XOR"
	case OpOpen:
		return "OPEN"
	case OpClose:
		return "CLOSE"
	}
	return "NONE"
}

// IsBinary reports whether o combines two operands.
func (o Operator) IsBinary() bool {
	return o == OpAnd || o == OpOr || o == OpXor
}

func (o Operator) apply(a, b bool) bool {
	switch o {
	case OpOr:
		return a || b
	case OpXor:
		return a != b
	}
	return a && b
}

func isCombinator(c byte) bool {
	_, ok := symbolOperators[c]
	return ok
}

// Behavior is the expression-wide short-circuit policy.
type Behavior int

const (
	// Normal evaluates every statement.
	Normal Behavior = iota
	// Optimistic succeeds as soon as any statement passes.
	Optimistic
	// Pessimistic fails as soon as any statement fails.
	Pessimistic
)

// Symbol returns the leading mVEL character for b, empty for Normal.
func (b Behavior) Symbol() string {
	switch b {
	case Optimistic:
		return "?"
	case Pessimistic:
		return "!"
	}
	return ""
}

func (b Behavior) String() string {
	switch b {
	case Optimistic:
		return "optimistic"
	case Pessimistic:
		return "pessimistic"
	}
	return "normal"
}

func behaviorOf(c byte) (Behavior, bool) {
	switch c {
	case '?':
		return Optimistic, true
	case '!':
		return Pessimistic, true
	}
	return Normal, false
}
