package mvel

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// Fixed execution context keys.
const (
	KeyRule       = "@rule"
	KeyName       = "@name"
	KeyInput      = "@input"
	KeyOutput     = "@output"
	KeyArguments  = "@arguments"
	KeyParameters = "@parameters"
	KeyLabel      = "@label"
	KeyExtra      = "@extra"
)

var fixedKeys = map[string]bool{
	KeyRule: true, KeyName: true, KeyInput: true, KeyOutput: true,
	KeyArguments: true, KeyParameters: true, KeyLabel: true, KeyExtra: true,
}

func isFixedKey(k string) bool {
	return fixedKeys[k]
}

// Context is the execution context of a single rule. It holds the fixed keys
// and any variables declared by the rule or produced by its callback.
type Context map[string]any

// Resolve resolves a reference of the form @root.key1.key2[:fallback].
// Numeric segments index ordered containers. A reference with a missing
// segment yields its fallback, or nil when there is none. A segment that
// exists and holds nil resolves to nil. Resolve never fails.
func (c Context) Resolve(ref string) any {
	path, fallback, hasFallback := strings.Cut(strings.TrimSpace(ref), ":")
	if v, ok := Walk(map[string]any(c), path); ok {
		return v
	}
	if hasFallback {
		return decodeArgument(fallback)
	}
	return nil
}

var placeholderRegexp = regexp.MustCompile(`\$\{([^{}]*)\}`)

// Render substitutes every ${ref[:fallback]} in template.
func (c Context) Render(template string) string {
	return placeholderRegexp.ReplaceAllStringFunc(template, func(m string) string {
		return stringify(c.Resolve(m[2 : len(m)-1]))
	})
}

// operand resolves v if it is an injectable, returning literals unchanged.
func (c Context) operand(v any) any {
	if ref, ok := injectable(v); ok {
		return c.Resolve(ref)
	}
	return v
}

// injectable reports whether v is a reference and returns it without ${}.
func injectable(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return s[2 : len(s)-1], true
	}
	if strings.HasPrefix(s, "@") {
		return s, true
	}
	return "", false
}

// Walk follows a dot separated path through maps, slices, arrays and structs.
// Struct fields match by Go name or json tag name.
func Walk(root any, path string) (any, bool) {
	if path == "" {
		return root, true
	}
	cur := root
	for _, seg := range strings.Split(path, ".") {
		next, ok := step(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func step(v any, seg string) (any, bool) {
	if m, ok := v.(map[string]any); ok {
		next, found := m[seg]
		return next, found
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		key, ok := mapKey(rv.Type().Key(), seg)
		if !ok {
			return nil, false
		}
		val := rv.MapIndex(key)
		if !val.IsValid() {
			return nil, false
		}
		return val.Interface(), true
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= rv.Len() {
			return nil, false
		}
		return rv.Index(i).Interface(), true
	case reflect.Struct:
		f := structField(rv, seg)
		if !f.IsValid() || !f.CanInterface() {
			return nil, false
		}
		return f.Interface(), true
	}
	return nil, false
}

func mapKey(t reflect.Type, seg string) (reflect.Value, bool) {
	switch t.Kind() {
	case reflect.String:
		return reflect.ValueOf(seg).Convert(t), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(seg, 10, 64)
		if err != nil {
			return reflect.Value{}, false
		}
		return reflect.ValueOf(i).Convert(t), true
	case reflect.Interface:
		return reflect.ValueOf(seg), true
	}
	return reflect.Value{}, false
}

func structField(rv reflect.Value, name string) reflect.Value {
	if f := rv.FieldByName(name); f.IsValid() {
		return f
	}
	t := rv.Type()
	for i := range t.NumField() {
		sf := t.Field(i)
		if tag := strings.Split(sf.Tag.Get("json"), ",")[0]; tag == name && sf.IsExported() {
			return rv.Field(i)
		}
	}
	return reflect.Value{}
}

// stringify renders a resolved value for a message.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(t)
	}
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%v", v)
}
