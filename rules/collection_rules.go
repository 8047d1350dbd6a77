package rules

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/Gobd/mvel"
)

func collectionRules() []*mvel.Rule {
	return []*mvel.Rule{
		{
			Name:        "distinct",
			Callback:    check(distinct),
			Message:     "${@label} must contain unique items.",
			Description: "Collection has no duplicate items.",
		},
		{
			Name:      "keys",
			Arguments: []mvel.Argument{{Name: "allowed", Type: mvel.String, Variadic: true}},
			Callback: func(params ...any) (any, error) {
				return keysIn(params[0], params[1].([]any))
			},
			Parameters:  inputAndArgs(1),
			Message:     "${@label} keys must be in ${@arguments.0}.",
			Description: "Every key of the object is one of the arguments.",
			Example:     `keys:"id","name"`,
		},
		{
			Name:      "contains",
			Arguments: []mvel.Argument{{Name: "value"}},
			Callback: func(params ...any) (any, error) {
				return contains(params[0], params[1]), nil
			},
			Parameters:  inputAndArgs(1),
			Message:     "${@label} must contain ${@arguments.0}.",
			Description: "Collection holds the value, or string holds the substring.",
		},
	}
}

// distinct reports whether a slice holds no duplicates. Items are compared by
// their JSON rendering so that maps and slices can be items too.
func distinct(v any) bool {
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false
	}
	seen := make(map[string]struct{}, rv.Len())
	for i := range rv.Len() {
		k := itemKey(rv.Index(i).Interface())
		if _, dup := seen[k]; dup {
			return false
		}
		seen[k] = struct{}{}
	}
	return true
}

func itemKey(v any) string {
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%#v", v)
}

// keysIn round-trips v through JSON so that structs are checked by their
// serialized field names.
func keysIn(v any, allowed []any) (bool, error) {
	valid := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		if s, ok := a.(string); ok {
			valid[s] = true
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return false, err
	}
	var obj map[string]any
	if err := json.Unmarshal(b, &obj); err != nil {
		return false, nil
	}
	for k := range obj {
		if !valid[k] {
			return false, nil
		}
	}
	return true, nil
}

func contains(v, want any) bool {
	if s, ok := v.(string); ok {
		w, ok := want.(string)
		return ok && strings.Contains(s, w)
	}
	rv := reflect.Indirect(reflect.ValueOf(v))
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := range rv.Len() {
			if oneOf(rv.Index(i).Interface(), []any{want}) {
				return true
			}
		}
	case reflect.Map:
		for _, k := range rv.MapKeys() {
			if oneOf(k.Interface(), []any{want}) {
				return true
			}
		}
	}
	return false
}
