package mvel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLex(t *testing.T) {
	tests := []struct {
		expr     string
		behavior Behavior
		tokens   []string
	}{
		{expr: "required&string", behavior: Normal, tokens: []string{"required", "&", "string"}},
		{expr: "?null|string", behavior: Optimistic, tokens: []string{"null", "|", "string"}},
		{expr: "!required & min:18", behavior: Pessimistic, tokens: []string{"required", "&", "min:18"}},
		{expr: "~(a1^b2)", behavior: Normal, tokens: []string{"~", "(", "a1", "^", "b2", ")"}},
		{expr: "[adult]&string", behavior: Normal, tokens: []string{"[adult]", "&", "string"}},
		{expr: "required /* a & b */ & string", behavior: Normal, tokens: []string{"required", "&", "string"}},
		{expr: `in:"/* kept */","a|b"&string`, behavior: Normal, tokens: []string{`in:"/* kept */","a|b"`, "&", "string"}},
		{expr: `in:[1,2],{"a":"&"}|null`, behavior: Normal, tokens: []string{`in:[1,2],{"a":"&"}`, "|", "null"}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			behavior, tokens, problems := lex(tt.expr)
			require.Empty(t, problems)
			assert.Equal(t, tt.behavior, behavior)
			got := make([]string, len(tokens))
			for i, tok := range tokens {
				got[i] = tok.String()
			}
			assert.Equal(t, tt.tokens, got)
		})
	}
}

func TestLexProblems(t *testing.T) {
	tests := []struct {
		expr    string
		problem string
	}{
		{expr: "required/* open", problem: "unterminated comment"},
		{expr: "[adult", problem: "unterminated macro reference at 0"},
		{expr: "[a]", problem: `invalid macro name "a"`},
		{expr: `in:"abc`, problem: `unterminated string in arguments of "in"`},
		{expr: "required#", problem: `unexpected character '#' at 8`},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, _, problems := lex(tt.expr)
			assert.Contains(t, problems, tt.problem)
		})
	}
}

func TestImplicitAnd(t *testing.T) {
	_, tokens, problems := lex("required(string|null)~empty")
	require.Empty(t, problems)
	assert.Equal(t, "required&(string|null)&~empty", renderTokens(Normal, implicitAnd(tokens)))
}
