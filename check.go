package mvel

import (
	"reflect"
	"strings"
)

// MissingConstraints returns the names of exported struct fields of v that
// carry no property constraint, neither by tag nor by [Declare]. Embedded
// structs are walked recursively.
//
// Automatically excluded:
//   - json:"-"
//   - mvel:"-"  (field intentionally has no constraint)
//
// Use in tests to catch forgotten fields:
//
//	assert.Empty(t, mvel.MissingConstraints(&MyStruct{}))
//	assert.Empty(t, mvel.MissingConstraints(&MyStruct{}, "OptionalField"))
func MissingConstraints(v any, exclude ...string) []string {
	t, err := structType(v)
	if err != nil {
		return nil
	}

	covered := map[string]bool{}
	if meta := discover(t); meta.err == nil {
		for _, m := range meta.members[KindProperty] {
			covered[m.loc.Name] = true
		}
	}

	excl := map[string]bool{}
	for _, e := range exclude {
		excl[e] = true
	}

	var missing []string
	collectUncovered(t, excl, covered, &missing)
	return missing
}

func collectUncovered(t reflect.Type, excl, covered map[string]bool, missing *[]string) {
	for i := range t.NumField() {
		sf := t.Field(i)
		if sf.Anonymous && sf.Tag.Get(TagExpression) == "" {
			inner := sf.Type
			if inner.Kind() == reflect.Ptr {
				inner = inner.Elem()
			}
			if inner.Kind() == reflect.Struct {
				collectUncovered(inner, excl, covered, missing)
				continue
			}
		}
		if !sf.IsExported() || covered[sf.Name] || excl[sf.Name] {
			continue
		}
		if strings.Split(sf.Tag.Get("json"), ",")[0] == "-" || sf.Tag.Get(TagExpression) == "-" {
			continue
		}
		*missing = append(*missing, sf.Name)
	}
}
