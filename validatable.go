package mvel

import (
	"fmt"
	"reflect"
)

// ConstraintValidator validates the constraints declared on one instance.
// Discovery metadata is cached per type, so a ConstraintValidator is cheap to
// create and needs no teardown; only the instance's current values are read
// on each call.
type ConstraintValidator struct {
	engine   *Engine
	instance any
}

// For returns a ConstraintValidator for v, a struct or pointer to struct.
func (e *Engine) For(v any) *ConstraintValidator {
	return &ConstraintValidator{engine: e, instance: v}
}

// For returns a ConstraintValidator for v on the default engine.
func For(v any) *ConstraintValidator {
	return Default().For(v)
}

// Check runs class, constant, property and method constraints in that order.
// A failing FailFast constraint stops immediately with a ValidationFailedError
// holding only its result; FailLazy failures are collected and reported once
// every phase ran.
func (c *ConstraintValidator) Check() error {
	meta, rv, err := c.prepare()
	if err != nil {
		return err
	}
	var lazy []*Result
	for _, kind := range phases {
		members := meta.members[kind]
		if len(members) == 0 {
			continue
		}
		v, data, err := c.phase(members, rv)
		if err != nil {
			return err
		}
		results, fast, err := v.run(data, true)
		if err != nil {
			return err
		}
		if fast != nil {
			return NewValidationFailedError(fast)
		}
		for _, m := range members {
			if r := results[m.loc.Key()]; r != nil && !r.Success {
				lazy = append(lazy, r)
			}
		}
	}
	if len(lazy) > 0 {
		return NewValidationFailedError(lazy...)
	}
	return nil
}

// Validate runs every constraint of every phase regardless of strategy and
// returns all results, passing and failing. The error is only set for
// structural problems.
func (c *ConstraintValidator) Validate() (Results, error) {
	meta, rv, err := c.prepare()
	if err != nil {
		return nil, err
	}
	all := Results{}
	for _, kind := range phases {
		members := meta.members[kind]
		if len(members) == 0 {
			continue
		}
		v, data, err := c.phase(members, rv)
		if err != nil {
			return all, err
		}
		results, _, err := v.run(data, false)
		for k, r := range results {
			all[k] = r
		}
		if err != nil {
			return all, err
		}
	}
	return all, nil
}

// IsValid reports whether Check passes. Any error, including configuration
// errors, yields false.
func (c *ConstraintValidator) IsValid() bool {
	return c.Check() == nil
}

func (c *ConstraintValidator) prepare() (*typeMeta, reflect.Value, error) {
	t, err := structType(c.instance)
	if err != nil {
		return nil, reflect.Value{}, err
	}
	rv := reflect.ValueOf(c.instance)
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		return nil, rv, fmt.Errorf("%w: nil %T", ErrValidationLogic, c.instance)
	}
	meta := discover(t)
	if meta.err != nil {
		return nil, rv, meta.err
	}
	return meta, rv, nil
}

// phase builds a data Validator for members, reading their current values.
func (c *ConstraintValidator) phase(members []member, rv reflect.Value) (*Validator, map[string]any, error) {
	v := c.engine.NewValidator()
	data := make(map[string]any, len(members))
	for _, m := range members {
		value, err := m.read(rv)
		if err != nil {
			return nil, nil, err
		}
		key := m.loc.Key()
		data[key] = value
		v.Key(key, m.constraint.Expression,
			Label(m.label()),
			Messages(m.constraint.Messages),
			WithStrategy(m.constraint.Strategy),
		)
	}
	return v, data, nil
}

// Check validates the constraints declared on v with the default engine.
func Check(v any) error {
	return For(v).Check()
}

// ValidateConstraints returns the results of every constraint declared on v.
func ValidateConstraints(v any) (Results, error) {
	return For(v).Validate()
}

// IsValid reports whether v passes Check.
func IsValid(v any) bool {
	return For(v).IsValid()
}

// Constraints lists the locations and constraints declared on v's type.
func Constraints(v any) ([]Location, []*Constraint, error) {
	t, err := structType(v)
	if err != nil {
		return nil, nil, err
	}
	meta := discover(t)
	if meta.err != nil {
		return nil, nil, meta.err
	}
	var (
		locs        []Location
		constraints []*Constraint
	)
	for _, kind := range phases {
		for _, m := range meta.members[kind] {
			locs = append(locs, m.loc)
			constraints = append(constraints, m.constraint)
		}
	}
	return locs, constraints, nil
}
