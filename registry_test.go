package mvel

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, names ...string) *Registry {
	t.Helper()
	reg := NewRegistry()
	for _, n := range names {
		require.NoError(t, reg.Register(&Rule{Name: n}))
	}
	return reg
}

func TestRegisterInvalid(t *testing.T) {
	reg := newTestRegistry(t, "required")

	tests := []struct {
		name string
		rule *Rule
	}{
		{name: "nil", rule: nil},
		{name: "short name", rule: &Rule{Name: "x"}},
		{name: "bad character", rule: &Rule{Name: "a b"}},
		{name: "duplicate", rule: &Rule{Name: "required"}},
		{name: "variadic not last", rule: &Rule{Name: "many", Arguments: []Argument{{Name: "a", Variadic: true}, {Name: "b"}}}},
		{name: "unknown argument type", rule: &Rule{Name: "typed", Arguments: []Argument{{Name: "a", Type: ArgType(99)}}}},
		{name: "empty comparison", rule: &Rule{Name: "cmp", Comparison: &Comparison{Operator: "eq"}}},
		{name: "shadowed key", rule: &Rule{Name: "shadow", Variables: map[string]any{KeyInput: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, reg.Register(tt.rule), ErrInvalidRuleDefinition)
		})
	}

	assert.NoError(t, reg.Register(&Rule{Name: "labelled", Variables: map[string]any{KeyLabel: "x", "custom": 1}}))
	assert.Panics(t, func() { reg.MustRegister(&Rule{Name: "required"}) })
}

func TestAlias(t *testing.T) {
	reg := newTestRegistry(t, "boolean", "string")

	require.NoError(t, reg.Alias("bool", "boolean"))
	rule, err := reg.Lookup("bool")
	require.NoError(t, err)
	assert.Equal(t, "boolean", rule.Name)

	assert.ErrorIs(t, reg.Alias("b2", "bool"), ErrInvalidRuleDefinition, "alias of alias")
	assert.ErrorIs(t, reg.Alias("string", "boolean"), ErrInvalidRuleDefinition, "alias shadows rule")
	assert.ErrorIs(t, reg.Alias("x", "boolean"), ErrInvalidRuleDefinition, "invalid alias name")
	assert.ErrorIs(t, reg.Alias("nothing", "missing"), ErrUnknownRule)
	assert.ErrorIs(t, reg.Register(&Rule{Name: "bool"}), ErrInvalidRuleDefinition, "rule collides with alias")

	_, err = reg.Lookup("missing")
	assert.ErrorIs(t, err, ErrUnknownRule)

	assert.Equal(t, []string{"boolean", "string"}, reg.Rules())
}

func TestMacro(t *testing.T) {
	reg := newTestRegistry(t, "required", "integer", "min", "null")

	require.NoError(t, reg.Macro("adult", "required&integer&min"))
	require.NoError(t, reg.Macro("maybe-adult", "null|[adult]"))

	got, err := reg.Expand("[maybe-adult]&required")
	require.NoError(t, err)
	assert.Equal(t, "(null|(required&integer&min))&required", got)

	got, err = reg.Expand("?[adult]")
	require.NoError(t, err)
	assert.Equal(t, "?(required&integer&min)", got)

	_, err = reg.Expand("[unknown]")
	assert.ErrorIs(t, err, ErrUnknownRule)

	_, err = reg.Expand("[adult")
	assert.ErrorIs(t, err, ErrInvalidExpression)
}

func TestMacroRejected(t *testing.T) {
	reg := newTestRegistry(t, "required", "null")

	err := reg.Macro("self", "required&[self]")
	require.ErrorIs(t, err, ErrInvalidRuleDefinition)
	assert.Contains(t, err.Error(), "self -> self")

	require.NoError(t, reg.Macro("first", "required&[second]"))
	err = reg.Macro("second", "null|[first]")
	require.ErrorIs(t, err, ErrInvalidRuleDefinition)
	assert.Contains(t, err.Error(), "second -> first -> second")

	assert.ErrorIs(t, reg.Macro("optimist", "?required|null"), ErrInvalidRuleDefinition)
	assert.ErrorIs(t, reg.Macro("broken", "required&"), ErrInvalidExpression)
	assert.ErrorIs(t, reg.Macro("x", "required"), ErrInvalidRuleDefinition)
}

func TestLoadConfig(t *testing.T) {
	reg := newTestRegistry(t, "boolean", "required", "integer", "min")

	cfg := `
aliases:
  bool: boolean
macros:
  adult: "[positive]&min"
  positive: required&integer
messages:
  required: "${@label} is mandatory."
`
	require.NoError(t, reg.LoadConfig(strings.NewReader(cfg)))

	rule, err := reg.Lookup("bool")
	require.NoError(t, err)
	assert.Equal(t, "boolean", rule.Name)

	got, err := reg.Expand("[adult]")
	require.NoError(t, err)
	assert.Equal(t, "((required&integer)&min)", got)

	required, err := reg.Lookup("required")
	require.NoError(t, err)
	assert.Equal(t, "${@label} is mandatory.", reg.Message(required))

	integer, err := reg.Lookup("integer")
	require.NoError(t, err)
	assert.Equal(t, defaultMessage, reg.Message(integer))

	assert.NoError(t, reg.LoadConfig(strings.NewReader("")))
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  string
		err  error
	}{
		{name: "unknown field", cfg: "rules: {}", err: ErrInvalidRuleDefinition},
		{name: "malformed", cfg: "aliases: [", err: ErrInvalidRuleDefinition},
		{name: "unknown message rule", cfg: "messages:\n  nope: x", err: ErrUnknownRule},
		{name: "alias to unknown rule", cfg: "aliases:\n  bool: nope", err: ErrUnknownRule},
		{name: "cyclic macros", cfg: "macros:\n  aa: \"[bb]\"\n  bb: \"[aa]\"", err: ErrInvalidRuleDefinition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := newTestRegistry(t, "required")
			assert.ErrorIs(t, reg.LoadConfig(strings.NewReader(tt.cfg)), tt.err)
		})
	}

	reg := newTestRegistry(t, "required")
	require.NoError(t, reg.Macro("dup", "required"))
	assert.ErrorIs(t, reg.Apply(Config{Macros: map[string]string{"dup": "required"}}), ErrInvalidRuleDefinition)
}
