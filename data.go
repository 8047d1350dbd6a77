package mvel

import (
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Validator validates many keyed values, each against its own expression.
// Keys are dot paths into the data and may contain * segments, which apply
// the expression to every element or property found at that position.
//
// Expressions and messages may refer to results of keys validated earlier
// with ${key.value} or ${key.validations.rule}. Keys run in the order they
// were added; a reference to a key that has not run yet resolves to null.
type Validator struct {
	engine *Engine
	fields []*field
}

type field struct {
	key        string
	expression any
	label      string
	messages   map[string]string
	strategy   Strategy
}

// KeyOption configures a key added with [Validator.Key].
type KeyOption func(*field)

// Label sets @label for the key. It defaults to the key itself.
func Label(label string) KeyOption {
	return func(f *field) { f.label = label }
}

// Messages overrides message templates per rule name for the key.
func Messages(messages map[string]string) KeyOption {
	return func(f *field) { f.messages = messages }
}

// WithStrategy sets the failure policy of the key. Only [Validator.Check]
// honors FailFast.
func WithStrategy(s Strategy) KeyOption {
	return func(f *field) { f.strategy = s }
}

// NewValidator returns a Validator on the default engine.
func NewValidator() *Validator {
	return Default().NewValidator()
}

// NewValidator returns a Validator running on e.
func (e *Engine) NewValidator() *Validator {
	return &Validator{engine: e}
}

// Key adds a key and its expression.
func (v *Validator) Key(key string, expression any, opts ...KeyOption) *Validator {
	f := &field{key: key, expression: expression, strategy: FailLazy}
	for _, opt := range opts {
		opt(f)
	}
	v.fields = append(v.fields, f)
	return v
}

// Validate runs every key and returns all results. The error is only set for
// structural problems such as malformed expressions or unknown rules.
func (v *Validator) Validate(data any) (Results, error) {
	results, _, err := v.run(data, false)
	return results, err
}

// Check is like Validate but returns a [ValidationFailedError]: immediately
// when a FailFast key fails, otherwise once all keys ran if any failed.
func (v *Validator) Check(data any) (Results, error) {
	results, fast, err := v.run(data, true)
	if err != nil {
		return results, err
	}
	if fast != nil {
		return results, NewValidationFailedError(fast)
	}
	if failed := results.Failed(); len(failed) > 0 {
		return results, NewValidationFailedError(failed...)
	}
	return results, nil
}

// run executes the keys in order. With failFast set, it stops at the first
// failing FailFast key and returns its result.
func (v *Validator) run(data any, failFast bool) (Results, *Result, error) {
	results := Results{}
	for _, f := range v.fields {
		expr, err := expressionString(f.expression)
		if err != nil {
			return results, nil, err
		}
		for _, kv := range expandKey(data, f.key) {
			label := f.label
			if label == "" {
				label = kv.key
			}
			res, err := v.engine.Execute(kv.value, substituteExpression(expr, results),
				WithKey(kv.key),
				WithLabel(label),
				WithMessages(substituteMessages(f.messages, results)),
			)
			if err != nil {
				return results, nil, err
			}
			res.Attributes["strategy"] = f.strategy.String()
			if kv.key != f.key {
				res.Attributes["pattern"] = f.key
			}
			results[kv.key] = res
			if failFast && !res.Success && f.strategy == FailFast {
				return results, res, nil
			}
		}
	}
	return results, nil, nil
}

// ValidateData validates data against validations (key to string or
// expression) with optional per-key message overrides and labels. Keys run in
// sorted order.
func (e *Engine) ValidateData(data any, validations map[string]any, messages map[string]map[string]string, labels map[string]string) (Results, error) {
	v := e.NewValidator()
	for _, key := range sortedKeys(validations) {
		var opts []KeyOption
		if m, ok := messages[key]; ok {
			opts = append(opts, Messages(m))
		}
		if l, ok := labels[key]; ok {
			opts = append(opts, Label(l))
		}
		v.Key(key, validations[key], opts...)
	}
	return v.Validate(data)
}

type keyedValue struct {
	key   string
	value any
}

// expandKey resolves key against data. Keys without wildcards always yield
// exactly one entry, with a nil value when the path is missing.
func expandKey(data any, key string) []keyedValue {
	if m, ok := data.(map[string]any); ok {
		if v, found := m[key]; found {
			return []keyedValue{{key, v}}
		}
	}
	if !strings.Contains(key, "*") {
		v, _ := Walk(data, key)
		return []keyedValue{{key, v}}
	}
	var out []keyedValue
	expandSegments(data, nil, strings.Split(key, "."), &out)
	return out
}

func expandSegments(cur any, prefix, rest []string, out *[]keyedValue) {
	if len(rest) == 0 {
		*out = append(*out, keyedValue{strings.Join(prefix, "."), cur})
		return
	}
	seg := rest[0]
	if seg != "*" {
		next, _ := step(cur, seg)
		expandSegments(next, append(prefix, seg), rest[1:], out)
		return
	}
	for _, child := range children(cur) {
		expandSegments(child.value, append(append([]string{}, prefix...), child.key), rest[1:], out)
	}
}

// children lists the elements of a slice or array, or the entries of a map
// in key order.
func children(v any) []keyedValue {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	var out []keyedValue
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := range rv.Len() {
			out = append(out, keyedValue{strconv.Itoa(i), rv.Index(i).Interface()})
		}
	case reflect.Map:
		for _, k := range rv.MapKeys() {
			out = append(out, keyedValue{stringify(k.Interface()), rv.MapIndex(k).Interface()})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	case reflect.Struct:
		t := rv.Type()
		for i := range t.NumField() {
			if sf := t.Field(i); sf.IsExported() {
				out = append(out, keyedValue{sf.Name, rv.Field(i).Interface()})
			}
		}
	}
	return out
}

var (
	quotedRefRegexp = regexp.MustCompile(`"\$\{([^{}"]+)\}"`)
	refRegexp       = regexp.MustCompile(`\$\{([^{}"]+)\}`)
)

// substituteExpression replaces back-references to earlier results with JSON
// literals. Context references such as ${@input} are left for the engine.
func substituteExpression(expr string, results Results) string {
	if !strings.Contains(expr, "${") {
		return expr
	}
	replace := func(m string, ref string) string {
		v, ok := backReference(results, ref)
		if !ok {
			return m
		}
		b, err := marshalArgument(v)
		if err != nil {
			return "null"
		}
		return string(b)
	}
	expr = quotedRefRegexp.ReplaceAllStringFunc(expr, func(m string) string {
		return replace(m, m[3:len(m)-2])
	})
	return refRegexp.ReplaceAllStringFunc(expr, func(m string) string {
		return replace(m, m[2:len(m)-1])
	})
}

func substituteMessages(messages map[string]string, results Results) map[string]string {
	if len(messages) == 0 {
		return messages
	}
	out := make(map[string]string, len(messages))
	for rule, msg := range messages {
		out[rule] = refRegexp.ReplaceAllStringFunc(msg, func(m string) string {
			v, ok := backReference(results, m[2:len(m)-1])
			if !ok {
				return m
			}
			return stringify(v)
		})
	}
	return out
}

// backReference resolves key.path[:fallback] against results. The longest
// result key that prefixes the reference wins, so keys may contain dots.
func backReference(results Results, ref string) (any, bool) {
	path, fallback, hasFallback := strings.Cut(ref, ":")
	if strings.HasPrefix(path, "@") {
		return nil, false
	}
	var (
		best string
		res  *Result
	)
	for k, r := range results {
		if strings.HasPrefix(path, k+".") && len(k) > len(best) {
			best, res = k, r
		}
	}
	if res != nil {
		if v, ok := Walk(res.view(), path[len(best)+1:]); ok {
			return v, true
		}
	}
	if hasFallback {
		return decodeArgument(fallback), true
	}
	return nil, true
}
