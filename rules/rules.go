package rules

import (
	"maps"
	"reflect"
	"slices"
	"strconv"
	"unicode/utf8"

	"github.com/Gobd/mvel"
)

// Aliases maps alternate names to canonical rule names.
var Aliases = map[string]string{
	"bool": "boolean",
	"int":  "integer",
	"num":  "numeric",
	"str":  "string",
}

// All returns fresh definitions of every rule in this package.
func All() []*mvel.Rule {
	var all []*mvel.Rule
	all = append(all, typeRules()...)
	all = append(all, comparisonRules()...)
	all = append(all, stringRules()...)
	all = append(all, collectionRules()...)
	all = append(all, docRules()...)
	return all
}

// Register installs every rule and alias into reg.
func Register(reg *mvel.Registry) error {
	if err := reg.Register(All()...); err != nil {
		return err
	}
	for _, alias := range sortedAliases() {
		if err := reg.Alias(alias, Aliases[alias]); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding the standard rules. It panics if
// registration fails, which only happens on a broken rule definition.
func NewRegistry(opts ...mvel.Option) *mvel.Registry {
	reg := mvel.NewRegistry(opts...)
	if err := Register(reg); err != nil {
		panic(err)
	}
	return reg
}

func sortedAliases() []string {
	return slices.Sorted(maps.Keys(Aliases))
}

// inputAndArgs passes the value followed by the first n arguments.
func inputAndArgs(n int) []any {
	params := []any{mvel.KeyInput}
	for i := range n {
		params = append(params, mvel.KeyArguments+"."+strconv.Itoa(i))
	}
	return params
}

func check(f func(v any) bool) mvel.Callback {
	return func(params ...any) (any, error) {
		return f(params[0]), nil
	}
}

// size is the numeric value of numbers, the rune count of strings and the
// length of collections.
func size(v any) (float64, bool) {
	if s, ok := v.(string); ok {
		return float64(utf8.RuneCountInString(s)), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return float64(rv.Len()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func number(v any) float64 {
	f, _ := size(v)
	return f
}
