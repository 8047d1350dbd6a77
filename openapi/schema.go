package openapi

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/Gobd/mvel"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"
)

// Extension is the schema extension holding the raw mVEL expression.
const Extension = "x-mvel"

// Describer documents one statement of a property expression. name is the
// property name within parent, the enclosing object schema.
type Describer func(stmt *mvel.Statement, name string, parent, prop *openapi3.Schema)

// Generator builds OpenAPI schemas for types carrying mvel constraints.
type Generator struct {
	registry   *mvel.Registry
	describers map[string]Describer
}

// NewGenerator returns a generator resolving rules in reg, with describers
// for the rules of the rules package. A nil reg uses [mvel.DefaultRegistry].
func NewGenerator(reg *mvel.Registry) *Generator {
	if reg == nil {
		reg = mvel.DefaultRegistry()
	}
	return &Generator{registry: reg, describers: maps.Clone(defaultDescribers)}
}

// Describe sets the describer for a canonical rule name.
func (g *Generator) Describe(rule string, d Describer) *Generator {
	g.describers[rule] = d
	return g
}

// NewSchemaRefForValue generates an OpenAPI schema for value using
// [mvel.DefaultRegistry].
func NewSchemaRefForValue(value any) (*openapi3.SchemaRef, error) {
	return NewGenerator(nil).NewSchemaRefForValue(value)
}

// NewSchemaRefForValue generates an OpenAPI schema for value. Properties with
// constraints carry the expression in the x-mvel extension; expressions that
// only join statements with & are also translated into schema keywords.
func (g *Generator) NewSchemaRefForValue(value any) (*openapi3.SchemaRef, error) {
	gen := openapi3gen.NewGenerator(openapi3gen.SchemaCustomizer(g.customize))
	return gen.NewSchemaRefForValue(value, nil)
}

func (g *Generator) customize(_ string, t reflect.Type, _ reflect.StructTag, schema *openapi3.Schema) error {
	if t.Kind() != reflect.Struct {
		return nil
	}
	locs, constraints, err := mvel.Constraints(reflect.New(t).Interface())
	if err != nil {
		return err
	}
	// Constraints sharing a member are described together.
	var (
		members []mvel.Location
		exprs   = map[mvel.Location][]string{}
	)
	for i, loc := range locs {
		loc.Ordinal = 0
		if _, ok := exprs[loc]; !ok {
			members = append(members, loc)
		}
		exprs[loc] = append(exprs[loc], expressionOf(constraints[i].Expression))
	}
	for _, loc := range members {
		if loc.Kind != mvel.KindProperty {
			extend(schema, string(loc.Kind)+":"+loc.Name, joined(exprs[loc]))
			continue
		}
		name, ok := propertyName(t, loc.Name)
		if !ok || schema.Properties[name] == nil {
			extend(schema, string(loc.Kind)+":"+loc.Name, joined(exprs[loc]))
			continue
		}
		if err := g.annotate(schema, name, exprs[loc]); err != nil {
			return fmt.Errorf("%s: %w", loc.Key(), err)
		}
	}
	return nil
}

// joined renders several expressions on one member as their conjunction.
func joined(exprs []string) string {
	if len(exprs) == 1 {
		return exprs[0]
	}
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = "(" + e + ")"
	}
	return strings.Join(parts, "&")
}

func (g *Generator) annotate(parent *openapi3.Schema, name string, exprs []string) error {
	// Copy so that a schema shared between properties is not modified twice.
	ref := parent.Properties[name]
	prop := *ref.Value
	prop.Extensions = maps.Clone(ref.Value.Extensions)
	if prop.Extensions == nil {
		prop.Extensions = map[string]any{}
	}
	prop.Extensions[Extension] = joined(exprs)
	ref.Value = &prop

	for _, expr := range exprs {
		ast, err := g.registry.Parse(expr)
		if err != nil {
			return err
		}
		if !conjunctive(ast) {
			appendDescription(&prop, "Must satisfy "+expr+".")
			continue
		}
		for _, stmt := range ast.Statements() {
			rule, err := g.registry.Lookup(stmt.Name)
			if err != nil {
				return err
			}
			appendDescription(&prop, rule.Description)
			if d, ok := g.describers[rule.Name]; ok {
				d(stmt, name, parent, &prop)
			}
		}
	}
	return nil
}

// conjunctive reports whether every statement of a must pass.
func conjunctive(a *mvel.AST) bool {
	if a.Behavior == mvel.Optimistic && len(a.Statements()) > 1 {
		return false
	}
	for _, n := range a.Nodes {
		if n.Statement != nil {
			continue
		}
		switch n.Operator {
		case mvel.OpAnd, mvel.OpOpen, mvel.OpClose:
		default:
			return false
		}
	}
	return true
}

func extend(schema *openapi3.Schema, key, expr string) {
	if schema.Extensions == nil {
		schema.Extensions = map[string]any{}
	}
	m, _ := schema.Extensions[Extension].(map[string]string)
	if m == nil {
		m = map[string]string{}
		schema.Extensions[Extension] = m
	}
	m[key] = expr
}

func appendDescription(s *openapi3.Schema, text string) {
	if text == "" || strings.Contains(s.Description, text) {
		return
	}
	if s.Description != "" && !strings.HasSuffix(s.Description, " ") {
		s.Description += " "
	}
	s.Description += text
}

// propertyName maps a Go field name to the JSON property name openapi3gen
// uses for it.
func propertyName(t reflect.Type, field string) (string, bool) {
	sf, ok := t.FieldByName(field)
	if !ok {
		return "", false
	}
	name := strings.Split(sf.Tag.Get("json"), ",")[0]
	switch name {
	case "-":
		return "", false
	case "":
		return sf.Name, true
	}
	return name, true
}

func expressionOf(e any) string {
	switch v := e.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(e)
}

var defaultDescribers = map[string]Describer{
	"required": func(_ *mvel.Statement, name string, parent, _ *openapi3.Schema) {
		if !slices.Contains(parent.Required, name) {
			parent.Required = append(parent.Required, name)
		}
	},
	"min": func(stmt *mvel.Statement, _ string, _, prop *openapi3.Schema) {
		bound(prop, number(stmt, 0), true)
	},
	"max": func(stmt *mvel.Statement, _ string, _, prop *openapi3.Schema) {
		bound(prop, number(stmt, 0), false)
	},
	"between": func(stmt *mvel.Statement, _ string, _, prop *openapi3.Schema) {
		bound(prop, number(stmt, 0), true)
		bound(prop, number(stmt, 1), false)
	},
	"length": func(stmt *mvel.Statement, _ string, _, prop *openapi3.Schema) {
		if lo := number(stmt, 0); lo > 0 {
			prop.MinLength = uint64(lo)
		}
		if hi := number(stmt, 1); hi > 0 {
			n := uint64(hi)
			prop.MaxLength = &n
		}
	},
	"in": func(stmt *mvel.Statement, _ string, _, prop *openapi3.Schema) {
		if len(stmt.Arguments) > 0 {
			values, _ := stmt.Arguments[0].([]any)
			prop.Enum = values
		}
	},
	"regex": func(stmt *mvel.Statement, _ string, _, prop *openapi3.Schema) {
		if len(stmt.Arguments) > 0 {
			prop.Pattern, _ = stmt.Arguments[0].(string)
		}
	},
	"distinct": func(_ *mvel.Statement, _ string, _, prop *openapi3.Schema) {
		prop.UniqueItems = true
	},
	"deprecated": func(_ *mvel.Statement, _ string, _, prop *openapi3.Schema) {
		prop.Deprecated = true
	},
	"default": func(stmt *mvel.Statement, _ string, _, prop *openapi3.Schema) {
		if len(stmt.Arguments) > 0 {
			prop.Default = stmt.Arguments[0]
		}
	},
	"email": format("email"),
	"url":   format("uri"),
	"uuid":  format("uuid"),
	"date": func(stmt *mvel.Statement, _ string, _, prop *openapi3.Schema) {
		if len(stmt.Arguments) > 0 && stmt.Arguments[0] == "2006-01-02" {
			prop.Format = "date"
		}
	},
}

func format(f string) Describer {
	return func(_ *mvel.Statement, _ string, _, prop *openapi3.Schema) {
		prop.Format = f
	}
}

// bound sets a lower or upper bound on the keyword matching the schema type:
// the value itself for numbers, the length for strings, the size for arrays.
func bound(prop *openapi3.Schema, v float64, lower bool) {
	switch {
	case prop.Type.Is(openapi3.TypeString):
		n := uint64(max(v, 0))
		if lower {
			prop.MinLength = n
		} else {
			prop.MaxLength = &n
		}
	case prop.Type.Is(openapi3.TypeArray):
		n := uint64(max(v, 0))
		if lower {
			prop.MinItems = n
		} else {
			prop.MaxItems = &n
		}
	default:
		if lower {
			prop.Min = &v
		} else {
			prop.Max = &v
		}
	}
}

func number(stmt *mvel.Statement, i int) float64 {
	if i >= len(stmt.Arguments) {
		return 0
	}
	switch n := stmt.Arguments[i].(type) {
	case int:
		return float64(n)
	case float64:
		return n
	}
	return 0
}
