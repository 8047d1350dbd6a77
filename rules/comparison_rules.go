package rules

import (
	"reflect"

	"github.com/Gobd/mvel"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func comparisonRules() []*mvel.Rule {
	return []*mvel.Rule{
		{
			Name:      "min",
			Arguments: []mvel.Argument{{Name: "min", Type: mvel.Float}},
			Callback: func(params ...any) (any, error) {
				s, ok := size(params[0])
				return ok && s >= number(params[1]), nil
			},
			Parameters:  inputAndArgs(1),
			Message:     "${@label} must be at least ${@arguments.0}.",
			Description: "Number, string length or collection size is at least the argument.",
			Example:     "min:18",
		},
		{
			Name:      "max",
			Arguments: []mvel.Argument{{Name: "max", Type: mvel.Float}},
			Callback: func(params ...any) (any, error) {
				s, ok := size(params[0])
				return ok && s <= number(params[1]), nil
			},
			Parameters:  inputAndArgs(1),
			Message:     "${@label} must be at most ${@arguments.0}.",
			Description: "Number, string length or collection size is at most the argument.",
			Example:     "max:65",
		},
		{
			Name: "between",
			Arguments: []mvel.Argument{
				{Name: "min", Type: mvel.Float},
				{Name: "max", Type: mvel.Float},
			},
			Callback: func(params ...any) (any, error) {
				s, ok := size(params[0])
				return ok && s >= number(params[1]) && s <= number(params[2]), nil
			},
			Parameters:  inputAndArgs(2),
			Message:     "${@label} must be between ${@arguments.0} and ${@arguments.1}.",
			Description: "Number, string length or collection size is within the inclusive range.",
			Example:     "between:1,10",
		},
		{
			Name:        "same",
			Arguments:   []mvel.Argument{{Name: "value"}},
			Comparison:  &mvel.Comparison{Left: mvel.KeyInput, Operator: "eq", Right: mvel.KeyArguments + ".0"},
			Message:     "${@label} must be equal to ${@arguments.0}.",
			Description: "Value loosely equals the argument.",
			Example:     "same:${password.value}",
		},
		{
			Name:        "identical",
			Arguments:   []mvel.Argument{{Name: "value"}},
			Comparison:  &mvel.Comparison{Left: mvel.KeyInput, Operator: "id", Right: mvel.KeyArguments + ".0"},
			Message:     "${@label} must be identical to ${@arguments.0}.",
			Description: "Value strictly equals the argument, type included.",
		},
		{
			Name:        "different",
			Arguments:   []mvel.Argument{{Name: "value"}},
			Comparison:  &mvel.Comparison{Left: mvel.KeyInput, Operator: "neq", Right: mvel.KeyArguments + ".0"},
			Message:     "${@label} must differ from ${@arguments.0}.",
			Description: "Value does not loosely equal the argument.",
		},
		{
			Name:        "in",
			Arguments:   []mvel.Argument{{Name: "values", Variadic: true}},
			Callback:    func(params ...any) (any, error) { return oneOf(params[0], params[1].([]any)), nil },
			Parameters:  inputAndArgs(1),
			Message:     "${@label} must be one of ${@arguments.0}.",
			Description: "Value is one of the arguments.",
			Example:     `in:"a","b","c"`,
		},
		{
			Name:        "flag",
			Arguments:   []mvel.Argument{{Name: "mask", Type: mvel.Int}},
			Comparison:  &mvel.Comparison{Left: mvel.KeyInput, Operator: "&", Right: mvel.KeyArguments + ".0"},
			Message:     "${@label} must have a bit of ${@arguments.0} set.",
			Description: "Integer value shares at least one bit with the mask.",
			Example:     "flag:4",
		},
	}
}

// oneOf reports whether v is in values. ozzo's In skips empty values, so
// those are matched here.
func oneOf(v any, values []any) bool {
	if validation.IsEmpty(v) {
		for _, want := range values {
			if reflect.DeepEqual(v, want) {
				return true
			}
		}
		return false
	}
	if validation.In(values...).Validate(v) == nil {
		return true
	}
	// Decoded arguments are int or float64; compare numbers by value.
	if f, ok := size(v); ok && kindOf(v) != reflect.String {
		for _, want := range values {
			if w, ok := size(want); ok && kindOf(want) != reflect.String && w == f {
				return true
			}
		}
	}
	return false
}
