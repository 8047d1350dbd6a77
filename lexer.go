package mvel

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokStatement tokenKind = iota
	tokOperator
	tokMacro
)

type token struct {
	kind    tokenKind
	op      Operator
	name    string
	args    string
	hasArgs bool
}

func (t token) String() string {
	switch t.kind {
	case tokOperator:
		return t.op.Symbol()
	case tokMacro:
		return "[" + t.name + "]"
	}
	if t.hasArgs {
		return t.name + ":" + t.args
	}
	return t.name
}

func isNameChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '_' || c == '-' || c == '.'
}

func validName(name string) bool {
	if len(name) < 2 || len(name) > 255 {
		return false
	}
	for i := range len(name) {
		if !isNameChar(name[i]) {
			return false
		}
	}
	return true
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// stripComments removes /* */ blocks that are not inside a quoted argument.
func stripComments(s string) (string, []string) {
	if !strings.Contains(s, "/*") {
		return s, nil
	}
	var (
		sb      strings.Builder
		inQuote bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inQuote {
			sb.WriteByte(c)
			if c == '\\' && i+1 < len(s) {
				i++
				sb.WriteByte(s[i])
			} else if c == '"' {
				inQuote = false
			}
			continue
		}
		if c == '"' {
			inQuote = true
		}
		if c == '/' && i+1 < len(s) && s[i+1] == '*' {
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				return sb.String(), []string{"unterminated comment"}
			}
			i += end + 3
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String(), nil
}

// lex splits an mVEL string into tokens. Problems are collected rather than
// returned one at a time so callers can report all of them.
func lex(expr string) (Behavior, []token, []string) {
	s, problems := stripComments(expr)
	s = strings.TrimSpace(s)

	behavior := Normal
	if s != "" {
		if b, ok := behaviorOf(s[0]); ok {
			behavior = b
			s = s[1:]
		}
	}

	var tokens []token
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case isSpace(c):
			i++
		case isCombinator(c):
			tokens = append(tokens, token{kind: tokOperator, op: symbolOperators[c]})
			i++
		case c == '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				problems = append(problems, fmt.Sprintf("unterminated macro reference at %d", i))
				return behavior, tokens, problems
			}
			name := s[i+1 : i+end]
			if !validName(name) {
				problems = append(problems, fmt.Sprintf("invalid macro name %q", name))
			}
			tokens = append(tokens, token{kind: tokMacro, name: name})
			i += end + 1
		case isNameChar(c):
			t, next, problem := lexStatement(s, i)
			if problem != "" {
				problems = append(problems, problem)
			}
			tokens = append(tokens, t)
			i = next
		default:
			problems = append(problems, fmt.Sprintf("unexpected character %q at %d", c, i))
			i++
		}
	}
	return behavior, tokens, problems
}

func lexStatement(s string, start int) (token, int, string) {
	i := start
	for i < len(s) && isNameChar(s[i]) {
		i++
	}
	t := token{kind: tokStatement, name: s[start:i]}
	var problem string
	if !validName(t.name) {
		problem = fmt.Sprintf("invalid rule name %q", t.name)
	}
	if i >= len(s) || s[i] != ':' {
		return t, i, problem
	}

	i++
	argStart := i
	depth := 0
	inQuote := false
scan:
	for ; i < len(s); i++ {
		c := s[i]
		if inQuote {
			if c == '\\' {
				i++
			} else if c == '"' {
				inQuote = false
			}
			continue
		}
		switch c {
		case '"':
			inQuote = true
		case '[', '{':
			depth++
		case ']', '}':
			depth--
		default:
			if depth <= 0 && isCombinator(c) {
				break scan
			}
		}
	}
	if i > len(s) {
		i = len(s)
	}
	if inQuote && problem == "" {
		problem = fmt.Sprintf("unterminated string in arguments of %q", t.name)
	}
	t.hasArgs = true
	t.args = strings.TrimSpace(s[argStart:i])
	return t, i, problem
}

// checkTokens verifies the structural invariants of a token sequence.
func checkTokens(tokens []token) []string {
	if len(tokens) == 0 {
		return []string{"expression is empty"}
	}
	var problems []string
	first, last := tokens[0], tokens[len(tokens)-1]
	if first.kind == tokOperator && first.op.IsBinary() {
		problems = append(problems, fmt.Sprintf("starts with %s combinator", first.op))
	}
	if last.kind == tokOperator && last.op != OpClose {
		problems = append(problems, fmt.Sprintf("ends with %s combinator", last.op))
	}

	depth, opens, closes := 0, 0, 0
	for i, t := range tokens {
		if t.kind != tokOperator {
			continue
		}
		switch t.op {
		case OpOpen:
			opens++
			depth++
		case OpClose:
			closes++
			depth--
			if depth < 0 {
				problems = append(problems, "closing parenthesis without opening one")
				depth = 0
			}
		}
		if i == 0 {
			continue
		}
		prev := tokens[i-1]
		if prev.kind != tokOperator {
			continue
		}
		switch {
		case prev.op.IsBinary() && t.op.IsBinary():
			problems = append(problems, fmt.Sprintf("doubled combinator %s%s", prev.op.Symbol(), t.op.Symbol()))
		case prev.op == OpNot && t.op == OpNot:
			problems = append(problems, "doubled combinator ~~")
		case (prev.op.IsBinary() || prev.op == OpNot || prev.op == OpOpen) && t.op == OpClose:
			problems = append(problems, fmt.Sprintf("%s combinator before closing parenthesis", prev.op))
		case prev.op == OpOpen && t.op.IsBinary(), prev.op == OpNot && t.op.IsBinary():
			problems = append(problems, fmt.Sprintf("%s combinator after %s", t.op, prev.op))
		}
	}
	if opens != closes {
		problems = append(problems, fmt.Sprintf("unbalanced parentheses: %d opening, %d closing", opens, closes))
	}
	return problems
}
