package rules_test

import (
	"fmt"
	"testing"

	"github.com/Gobd/mvel"
	"github.com/Gobd/mvel/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) *mvel.Engine {
	t.Helper()
	return mvel.NewEngine(rules.NewRegistry())
}

func TestRules(t *testing.T) {
	e := newEngine(t)

	tests := []struct {
		expr  string
		value any
		pass  bool
	}{
		{expr: "required", value: "x", pass: true},
		{expr: "required", value: "", pass: false},
		{expr: "required", value: nil, pass: false},
		{expr: "null", value: nil, pass: true},
		{expr: "null", value: "x", pass: false},
		{expr: "empty", value: []any{}, pass: true},
		{expr: "empty", value: "x", pass: false},

		{expr: "string", value: "x", pass: true},
		{expr: "string", value: 1, pass: false},
		{expr: "integer", value: 17, pass: true},
		{expr: "integer", value: 17.0, pass: true},
		{expr: "integer", value: 17.5, pass: false},
		{expr: "integer", value: "17", pass: false},
		{expr: "float", value: 1.5, pass: true},
		{expr: "float", value: 1, pass: false},
		{expr: "numeric", value: "3.14", pass: true},
		{expr: "numeric", value: 3, pass: true},
		{expr: "numeric", value: "abc", pass: false},
		{expr: "boolean", value: true, pass: true},
		{expr: "boolean", value: "true", pass: false},
		{expr: "array", value: []any{1}, pass: true},
		{expr: "array", value: map[string]any{}, pass: false},
		{expr: "object", value: map[string]any{}, pass: true},
		{expr: "object", value: struct{}{}, pass: true},
		{expr: "json", value: `{"a":1}`, pass: true},
		{expr: "json", value: `{"a":`, pass: false},
		{expr: `type:"string"`, value: "x", pass: true},
		{expr: `type:"string"`, value: 1, pass: false},

		{expr: "min:18", value: 17, pass: false},
		{expr: "min:18", value: 18, pass: true},
		{expr: "min:3", value: "abc", pass: true},
		{expr: "max:3", value: []int{1, 2, 3, 4}, pass: false},
		{expr: "max:5.5", value: 5.4, pass: true},
		{expr: "between:1,10", value: 5, pass: true},
		{expr: "between:1,10", value: 11, pass: false},
		{expr: "same:5", value: 5.0, pass: true},
		{expr: `same:"a"`, value: "b", pass: false},
		{expr: "identical:5", value: 5.0, pass: false},
		{expr: "identical:5", value: 5, pass: true},
		{expr: `different:"a"`, value: "b", pass: true},
		{expr: `in:"a","b","c"`, value: "b", pass: true},
		{expr: `in:"a","b","c"`, value: "d", pass: false},
		{expr: `in:"a","b","c"`, value: "", pass: false},
		{expr: `in:"",null`, value: "", pass: true},
		{expr: "in:1,2,3", value: 2, pass: true},
		{expr: "in:1,2,3", value: 2.0, pass: true},
		{expr: "in:1,2,3", value: "2", pass: false},
		{expr: "flag:4", value: 6, pass: true},
		{expr: "flag:4", value: 1, pass: false},

		{expr: "length:2,4", value: "abc", pass: true},
		{expr: "length:2,4", value: "a", pass: false},
		{expr: "length:2,4", value: "abcde", pass: false},
		{expr: "length:2,4", value: "", pass: false},
		{expr: "length:0", value: "", pass: true},
		{expr: "length:2", value: "abcdef", pass: true},
		{expr: "length:1", value: 1, pass: false},
		{expr: `regex:"^[a-z]+$"`, value: "abc", pass: true},
		{expr: `regex:"^[a-z]+$"`, value: "ABC", pass: false},
		{expr: "email", value: "someone@example.com", pass: true},
		{expr: "email", value: "nope", pass: false},
		{expr: "email", value: "", pass: false},
		{expr: "url", value: "https://example.com/a", pass: true},
		{expr: "ip", value: "127.0.0.1", pass: true},
		{expr: "ip", value: "300.0.0.1", pass: false},
		{expr: "uuid", value: "c0a80121-7ac0-11d1-898c-00c04fd8d5cd", pass: true},
		{expr: "uuid", value: "c0a80121", pass: false},
		{expr: "alpha", value: "abc", pass: true},
		{expr: "alpha", value: "ab1", pass: false},
		{expr: "alnum", value: "ab1", pass: true},
		{expr: "date", value: "2024-01-31", pass: true},
		{expr: "date", value: "2024-13-01", pass: false},
		{expr: `date:"02/01/2006"`, value: "31/01/2024", pass: true},
		{expr: "credit-card", value: "4111111111111111", pass: true},
		{expr: "credit-card", value: "4111111111111112", pass: false},
		{expr: "has-alpha", value: "1234 abc", pass: true},
		{expr: "has-alpha", value: "1234", pass: false},
		{expr: "~card-like", value: "4111-1111-1111-1111", pass: false},
		{expr: "~card-like", value: "1234-5678", pass: true},
		{expr: "~card-like", value: "abc", pass: true},

		{expr: "distinct", value: []any{1, 2, 3}, pass: true},
		{expr: "distinct", value: []any{1, 1}, pass: false},
		{expr: "distinct", value: []map[string]int{{"a": 1}, {"a": 1}}, pass: false},
		{expr: "distinct", value: "abc", pass: false},
		{expr: `keys:"id","name"`, value: map[string]any{"id": 1}, pass: true},
		{expr: `keys:"id","name"`, value: map[string]any{"x": 1}, pass: false},
		{expr: `keys:"Name"`, value: struct{ Name string }{}, pass: true},
		{expr: `contains:"b"`, value: "abc", pass: true},
		{expr: `contains:"b"`, value: []any{"a", "b"}, pass: true},
		{expr: `contains:"b"`, value: []any{1}, pass: false},

		{expr: "deprecated", value: nil, pass: true},
		{expr: `default:"draft"`, value: 1, pass: true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s,v:%v", tt.expr, tt.value), func(t *testing.T) {
			res, err := e.Execute(tt.value, tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.pass, res.Success, res.Messages())
		})
	}
}

func TestAliases(t *testing.T) {
	e := newEngine(t)
	for alias, canonical := range rules.Aliases {
		for _, v := range []any{true, 1, "1", 1.5, nil} {
			a, err := e.Execute(v, alias)
			require.NoError(t, err)
			c, err := e.Execute(v, canonical)
			require.NoError(t, err)
			assert.Equal(t, c.Success, a.Success, "%s vs %s for %v", alias, canonical, v)
			assert.Equal(t, c.Validations, a.Validations)
		}
	}
}

func TestMessages(t *testing.T) {
	e := newEngine(t)

	res, err := e.Execute(17, "required&integer&min:18", mvel.WithLabel("age"))
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "min", res.Failures[0].Rule)
	assert.Equal(t, "age must be at least 18.", res.Failures[0].Message)

	res, err = e.Execute(1, `type:"string"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"value must be of type string, got int."}, res.Messages())

	res, err = e.Execute("x", `length:2,4`)
	require.NoError(t, err)
	assert.Equal(t, []string{"value must be between 2 and 4 characters long."}, res.Messages())
}

func TestCallbackError(t *testing.T) {
	e := newEngine(t)
	_, err := e.Execute("abc", `regex:"("`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `rule "regex"`)
}

func TestArgumentErrors(t *testing.T) {
	e := newEngine(t)
	for _, expr := range []string{
		"min",          // missing argument
		`min:"18"`,     // float slot rejects strings
		"length:1,2,3", // too many arguments
		"in",           // variadic needs at least one value
		`keys:1`,       // string slot
		`flag:1.5`,     // int slot
		`nope`,         // unknown rule
	} {
		t.Run(expr, func(t *testing.T) {
			_, err := e.Execute("x", expr)
			require.Error(t, err)
		})
	}
}

func TestRegister(t *testing.T) {
	reg := mvel.NewRegistry()
	require.NoError(t, rules.Register(reg))
	assert.ErrorIs(t, rules.Register(reg), mvel.ErrInvalidRuleDefinition)

	names := reg.Rules()
	assert.Contains(t, names, "required")
	assert.Contains(t, names, "keys")

	rule, err := reg.Lookup("int")
	require.NoError(t, err)
	assert.Equal(t, "integer", rule.Name)
}
