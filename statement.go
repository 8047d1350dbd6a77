package mvel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// ArgType is the declared type of a rule argument slot.
type ArgType int

// Argument types.
const (
	Any ArgType = iota
	Bool
	Int
	Float
	String
	Array
	Object
)

func (t ArgType) String() string {
	switch t {
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	}
	return "any"
}

// Argument is a typed argument slot of a rule. Only the last slot of a rule
// may be variadic; it then receives every remaining argument as a []any.
type Argument struct {
	Name     string
	Type     ArgType
	Variadic bool
	Optional bool
	Default  any
}

// Statement is one invocation of a rule with concrete arguments.
type Statement struct {
	Name      string
	Arguments []any

	// variadic marks Arguments as packed: the last element holds the tail.
	variadic bool
}

// String encodes s as name:arg1,arg2. A packed variadic tail is flattened.
func (s *Statement) String() string {
	args := s.Arguments
	if s.variadic && len(args) > 0 {
		if tail, ok := args[len(args)-1].([]any); ok {
			args = append(append([]any{}, args[:len(args)-1]...), tail...)
		}
	}
	out, err := EncodeStatement(s.Name, args...)
	if err != nil {
		return s.Name
	}
	return out
}

// EncodeStatement encodes a rule statement. Each argument is encoded as a JSON
// literal, so strings containing the separator or quotes are quoted and escaped.
func EncodeStatement(name string, args ...any) (string, error) {
	if len(args) == 0 {
		return name, nil
	}
	parts := make([]string, len(args))
	for i, a := range args {
		b, err := marshalArgument(a)
		if err != nil {
			return "", invalidStatement("argument %d of %q: %v", i, name, err)
		}
		parts[i] = string(b)
	}
	return name + ":" + strings.Join(parts, ","), nil
}

func marshalArgument(a any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(floatLiterals(a)); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// floatLiterals rewrites finite floats as json.Number literals that keep a
// fractional part, so 2.0 is encoded as 2.0 and decodes back to a float.
// Slices and maps are copied, never modified in place.
func floatLiterals(v any) any {
	switch t := v.(type) {
	case float64:
		return floatLiteral(t, 64)
	case float32:
		return floatLiteral(float64(t), 32)
	case []float64:
		out := make([]any, len(t))
		for i, f := range t {
			out[i] = floatLiteral(f, 64)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = floatLiterals(t[i])
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = floatLiterals(e)
		}
		return out
	}
	return v
}

func floatLiteral(f float64, bits int) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return json.Number(s)
}

// splitArguments splits on commas that are outside quotes, arrays and objects.
func splitArguments(s string) ([]string, error) {
	var (
		parts   []string
		depth   int
		inQuote bool
		start   int
	)
	for i := 0; i < len(s); i++ {
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
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated string in %q", s)
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced brackets in %q", s)
	}
	return append(parts, strings.TrimSpace(s[start:])), nil
}

// decodeArgument decodes one JSON literal. Tokens that are not valid JSON are
// taken as bare strings.
func decodeArgument(s string) any {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return s
	}
	return normalizeNumbers(v)
}

// normalizeNumbers turns integer literals into int and every literal with a
// fraction or exponent into float64.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if !strings.ContainsAny(t.String(), ".eE") {
			if i, err := t.Int64(); err == nil {
				return int(i)
			}
		}
		f, _ := t.Float64()
		return f
	case []any:
		for i := range t {
			t[i] = normalizeNumbers(t[i])
		}
	case map[string]any:
		for k := range t {
			t[k] = normalizeNumbers(t[k])
		}
	}
	return v
}

// parseArguments decodes the raw argument text of a statement.
func parseArguments(raw string) ([]any, error) {
	if raw == "" {
		return nil, nil
	}
	parts, err := splitArguments(raw)
	if err != nil {
		return nil, err
	}
	args := make([]any, len(parts))
	for i, p := range parts {
		args[i] = decodeArgument(p)
	}
	return args, nil
}

// bindArguments checks args against the declared slots of rule, casting each
// value and packing a variadic tail into the last slot.
func bindArguments(rule *Rule, args []any) (*Statement, error) {
	slots := rule.Arguments
	stmt := &Statement{Name: rule.Name}
	variadic := len(slots) > 0 && slots[len(slots)-1].Variadic

	if !variadic && len(args) > len(slots) {
		return nil, invalidStatement("%q takes at most %d arguments, got %d", rule.Name, len(slots), len(args))
	}

	fixed := len(slots)
	if variadic {
		fixed--
	}
	out := make([]any, 0, len(slots))
	for i := range fixed {
		slot := slots[i]
		if i >= len(args) {
			if !slot.Optional {
				return nil, invalidStatement("%q requires argument %d (%s)", rule.Name, i, slot.Name)
			}
			out = append(out, slot.Default)
			continue
		}
		v, err := castArgument(args[i], slot.Type)
		if err != nil {
			return nil, invalidStatement("%q argument %d (%s): %v", rule.Name, i, slot.Name, err)
		}
		out = append(out, v)
	}

	if variadic {
		slot := slots[len(slots)-1]
		var tail []any
		if len(args) > fixed {
			tail = make([]any, 0, len(args)-fixed)
			for i, a := range args[fixed:] {
				v, err := castArgument(a, slot.Type)
				if err != nil {
					return nil, invalidStatement("%q argument %d (%s): %v", rule.Name, fixed+i, slot.Name, err)
				}
				tail = append(tail, v)
			}
		} else if !slot.Optional {
			return nil, invalidStatement("%q requires at least one %s argument", rule.Name, slot.Name)
		}
		out = append(out, tail)
		stmt.variadic = true
	}

	stmt.Arguments = out
	return stmt, nil
}

func castArgument(v any, t ArgType) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t {
	case Bool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case Int:
		switch n := v.(type) {
		case int:
			return n, nil
		case float64:
			if n == math.Trunc(n) {
				return int(n), nil
			}
		default:
			rv := reflect.ValueOf(v)
			switch rv.Kind() {
			case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
				return int(rv.Int()), nil
			case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
				return int(rv.Uint()), nil
			}
		}
	case Float:
		if _, isString := v.(string); isString {
			break
		}
		if f, ok := toFloat(v); ok {
			return f, nil
		}
	case String:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case Array:
		if _, ok := v.([]any); ok {
			return v, nil
		}
		if k := reflect.ValueOf(v).Kind(); k == reflect.Slice || k == reflect.Array {
			return v, nil
		}
	case Object:
		if _, ok := v.(map[string]any); ok {
			return v, nil
		}
		if reflect.ValueOf(v).Kind() == reflect.Map {
			return v, nil
		}
	default:
		return v, nil
	}
	return nil, fmt.Errorf("expected %s, got %T", t, v)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
