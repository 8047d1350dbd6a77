package mvel

import (
	"fmt"
	"maps"
)

type (
	// Callback computes the output of a rule from its resolved parameters.
	// An error returned by a callback is not a validation failure; it aborts
	// the execution.
	Callback func(params ...any) (any, error)

	// Output may be returned by a Callback to override rule variables.
	// Variables set here win over the defaults declared on the Rule.
	Output struct {
		Value     any
		Variables map[string]any
	}

	// Comparison decides whether a rule passed. Operands that are strings
	// starting with @ or wrapped in ${} are injectables resolved against the
	// execution context; anything else is a literal.
	Comparison struct {
		Left     any
		Operator string
		Right    any
	}

	// Rule is the canonical definition of a named check.
	//
	//	&mvel.Rule{
	//	    Name:       "min",
	//	    Arguments:  []mvel.Argument{{Name: "min", Type: mvel.Float}},
	//	    Callback:   func(p ...any) (any, error) { return size(p[0]) >= p[1].(float64), nil },
	//	    Parameters: []any{"@input", "@arguments.0"},
	//	    Message:    "${@label} must be at least ${@arguments.0}.",
	//	}
	Rule struct {
		Name       string
		Arguments  []Argument
		Callback   Callback
		Parameters []any
		Comparison *Comparison
		Variables  map[string]any
		Message    string

		// Documentation only.
		Description string
		Example     string
	}
)

const defaultMessage = "${@label} must pass the ${@name} rule."

var defaultComparison = Comparison{Left: KeyOutput, Operator: "and", Right: true}

func identity(params ...any) (any, error) {
	if len(params) == 0 {
		return nil, nil
	}
	return params[0], nil
}

func (r *Rule) callback() Callback {
	if r.Callback == nil {
		return identity
	}
	return r.Callback
}

func (r *Rule) parameters() []any {
	if r.Parameters == nil {
		return []any{KeyInput}
	}
	return r.Parameters
}

func (r *Rule) comparison() Comparison {
	if r.Comparison == nil {
		return defaultComparison
	}
	return *r.Comparison
}

func (r *Rule) message() string {
	if r.Message == "" {
		return defaultMessage
	}
	return r.Message
}

// variables returns the declared variables with callback overrides applied.
func (r *Rule) variables(overrides map[string]any) map[string]any {
	vars := map[string]any{KeyLabel: nil, KeyExtra: nil}
	maps.Copy(vars, r.Variables)
	maps.Copy(vars, overrides)
	return vars
}

func (r *Rule) validate() error {
	if r == nil {
		return invalidDefinition("nil rule")
	}
	if !validName(r.Name) {
		return invalidDefinition("name %q must match [A-Za-z0-9_\\-.]{2,255}", r.Name)
	}
	for i, a := range r.Arguments {
		if a.Variadic && i != len(r.Arguments)-1 {
			return invalidDefinition("%q: only the last argument may be variadic, %q is not last", r.Name, a.Name)
		}
		if a.Type < Any || a.Type > Object {
			return invalidDefinition("%q: argument %q has unknown type %d", r.Name, a.Name, a.Type)
		}
	}
	if c := r.Comparison; c != nil && c.Left == nil && c.Right == nil {
		return invalidDefinition("%q: comparison has no operands", r.Name)
	}
	for k := range r.Variables {
		if isFixedKey(k) && k != KeyLabel && k != KeyExtra {
			return invalidDefinition("%q: variable %q shadows a context key", r.Name, k)
		}
	}
	return nil
}

func (r *Rule) String() string {
	return fmt.Sprintf("rule %s/%d", r.Name, len(r.Arguments))
}
