package rules

import "github.com/Gobd/mvel"

// docRules always pass. They only carry information for schema generation.
func docRules() []*mvel.Rule {
	pass := func(...any) (any, error) { return true, nil }
	return []*mvel.Rule{
		{
			Name:        "deprecated",
			Callback:    pass,
			Description: "Deprecated.",
			Example:     "deprecated&string",
		},
		{
			Name:        "default",
			Arguments:   []mvel.Argument{{Name: "value"}},
			Callback:    pass,
			Description: "Has a default value.",
			Example:     `default:"draft"`,
		},
	}
}
