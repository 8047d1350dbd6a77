package mvel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpressionWrite(t *testing.T) {
	tests := []struct {
		name  string
		build func(e *Expression)
		want  string
	}{
		{
			name:  "implicit and",
			build: func(e *Expression) { e.Rule("required").Rule("min", 18) },
			want:  "required&min:18",
		},
		{
			name:  "explicit or",
			build: func(e *Expression) { e.Rule("null").Or().Rule("string") },
			want:  "null|string",
		},
		{
			name:  "not",
			build: func(e *Expression) { e.Rule("required").Not().Rule("null") },
			want:  "required&~null",
		},
		{
			name: "group",
			build: func(e *Expression) {
				e.Rule("required").Group(func(e *Expression) { e.Rule("max", 65).Or().Rule("null") })
			},
			want: "required&(max:65|null)",
		},
		{
			name:  "comment",
			build: func(e *Expression) { e.Rule("required").Comment("must be set").Rule("string") },
			want:  "required/* must be set */&string",
		},
		{
			name:  "comment terminator escaped",
			build: func(e *Expression) { e.Comment("a */ b") },
			want:  "/* a * / b */",
		},
		{
			name:  "macro",
			build: func(e *Expression) { e.Macro("adult").Rule("string") },
			want:  "[adult]&string",
		},
		{
			name:  "quoted arguments",
			build: func(e *Expression) { e.Rule("in", "a,b", `q"x`, "<&>") },
			want:  `in:"a,b","q\"x","<&>"`,
		},
		{
			name:  "concat is raw",
			build: func(e *Expression) { e.Write("required").Concat("string") },
			want:  "requiredstring",
		},
		{
			name:  "write after operator",
			build: func(e *Expression) { e.Write("required").Write("|").Write("null") },
			want:  "required|null",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExpression()
			tt.build(e)
			assert.Equal(t, tt.want, e.String())
		})
	}
}

func TestExpressionBehavior(t *testing.T) {
	e := NewExpression().Optimistic().Rule("null").Rule("string")
	assert.Equal(t, "?null&string", e.String())

	e.Pessimistic()
	assert.Equal(t, "!null&string", e.String())

	e.Normal()
	assert.Equal(t, "null&string", e.String())

	// Applying the same behavior again changes nothing.
	assert.Equal(t, "?a", NewExpression().Optimistic().Optimistic().Rule("a").String())
	assert.Equal(t, "!a", NewExpression().Pessimistic().Pessimistic().Rule("a").String())
	assert.Equal(t, "?a|b", NewExpression().Rule("a").Or().Rule("b").Optimistic().Optimistic().String())

	// Switching behavior and back restores the original string.
	plain := NewExpression().Rule("required").Or().Rule("null")
	before := plain.String()
	assert.Equal(t, before, plain.Optimistic().Normal().String())
	assert.Equal(t, before, plain.Pessimistic().Optimistic().Normal().String())
}

func TestExpressionBuild(t *testing.T) {
	got, err := NewExpression().Rule("required").Group(func(e *Expression) {
		e.Rule("min", 1).Xor().Rule("max", 2)
	}).Build()
	require.NoError(t, err)
	assert.Equal(t, "required&(min:1^max:2)", got)

	tests := []struct {
		name    string
		expr    *Expression
		problem string
	}{
		{name: "empty", expr: NewExpression(), problem: "expression is empty"},
		{name: "trailing and", expr: NewExpression().Rule("required").And(), problem: "ends with AND combinator"},
		{name: "leading or", expr: NewExpression().Concat("|required"), problem: "starts with OR combinator"},
		{name: "doubled", expr: NewExpression().Concat("required&&string"), problem: "doubled combinator &&"},
		{name: "double not", expr: NewExpression().Concat("~~required"), problem: "doubled combinator ~~"},
		{name: "unbalanced", expr: NewExpression().Concat("(required"), problem: "unbalanced parentheses: 1 opening, 0 closing"},
		{name: "stray close", expr: NewExpression().Concat("required)&(string"), problem: "closing parenthesis without opening one"},
		{name: "empty group", expr: NewExpression().Concat("required&()"), problem: "OPEN combinator before closing parenthesis"},
		{name: "and after open", expr: NewExpression().Concat("(&required)"), problem: "AND combinator after OPEN"},
		{name: "short name", expr: NewExpression().Concat("x"), problem: `invalid rule name "x"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.expr.Build()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidExpression)
			var exprErr *ExpressionError
			require.True(t, errors.As(err, &exprErr))
			assert.Contains(t, exprErr.Problems, tt.problem)
		})
	}
}

func TestExpressionBuildArgumentError(t *testing.T) {
	_, err := NewExpression().Rule("custom", func() {}).Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidStatement)
}
