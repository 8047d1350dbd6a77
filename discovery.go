package mvel

import (
	"fmt"
	"reflect"
	"sync"
)

// Struct tags read during discovery.
const (
	TagExpression = "mvel"
	TagStrategy   = "mvel-strategy"
	TagLabel      = "mvel-label"
)

type member struct {
	loc        Location
	constraint *Constraint
	read       func(instance reflect.Value) (any, error)
}

func (m member) label() string {
	if m.constraint.Label != "" {
		return m.constraint.Label
	}
	return m.loc.Name
}

// typeMeta is the memoized discovery result for one struct type. A
// discovery error is memoized too and returned on every call.
type typeMeta struct {
	members map[Kind][]member
	err     error
}

var metadata sync.Map // reflect.Type -> *typeMeta

// structType returns the struct type behind v.
func structType(v any) (reflect.Type, error) {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: constraints can only be discovered on structs, got %T", ErrValidationLogic, v)
	}
	return t, nil
}

// discover returns the cached metadata for t. Concurrent first calls may
// both compute it; the first stored value wins and the work is identical.
func discover(t reflect.Type) *typeMeta {
	if m, ok := metadata.Load(t); ok {
		return m.(*typeMeta)
	}
	m, _ := metadata.LoadOrStore(t, buildMeta(t))
	return m.(*typeMeta)
}

func buildMeta(t reflect.Type) *typeMeta {
	meta := &typeMeta{members: map[Kind][]member{}}
	seen := map[Location]int{}
	add := func(m member) {
		m.loc.Ordinal = seen[m.loc]
		seen[m.loc]++
		meta.members[m.loc.Kind] = append(meta.members[m.loc.Kind], m)
	}

	if err := tagMembers(t, t, nil, add); err != nil {
		meta.err = err
		return meta
	}

	var entries []declared
	if d, ok := declarations.Load(t); ok {
		entries = d.([]declared)
	}
	for _, e := range entries {
		m, err := declaredMember(t, e)
		if err != nil {
			meta.err = err
			return meta
		}
		add(m)
	}
	return meta
}

// tagMembers walks struct fields, descending into embedded structs.
func tagMembers(root, t reflect.Type, index []int, add func(member)) error {
	for i := range t.NumField() {
		sf := t.Field(i)
		idx := append(append([]int{}, index...), i)
		if sf.Anonymous {
			inner := sf.Type
			if inner.Kind() == reflect.Ptr {
				inner = inner.Elem()
			}
			if inner.Kind() == reflect.Struct && sf.Tag.Get(TagExpression) == "" {
				if err := tagMembers(root, inner, idx, add); err != nil {
					return err
				}
				continue
			}
		}
		expr := sf.Tag.Get(TagExpression)
		if expr == "" || expr == "-" {
			continue
		}
		if !sf.IsExported() {
			return fmt.Errorf("%w: %s.%s carries a constraint but is not exported", ErrValidationLogic, root, sf.Name)
		}
		strategy, err := ParseStrategy(sf.Tag.Get(TagStrategy))
		if err != nil {
			return fmt.Errorf("%s.%s: %w", root, sf.Name, err)
		}
		add(member{
			loc: Location{Type: root, Kind: KindProperty, Name: sf.Name},
			constraint: &Constraint{
				Expression: expr,
				Label:      sf.Tag.Get(TagLabel),
				Strategy:   strategy,
			},
			read: fieldReader(idx),
		})
	}
	return nil
}

func fieldReader(index []int) func(reflect.Value) (any, error) {
	return func(instance reflect.Value) (any, error) {
		v := reflect.Indirect(instance)
		for _, i := range index {
			if v.Kind() == reflect.Ptr {
				if v.IsNil() {
					return nil, nil
				}
				v = v.Elem()
			}
			v = v.Field(i)
		}
		return v.Interface(), nil
	}
}

func declaredMember(t reflect.Type, e declared) (member, error) {
	m := member{constraint: e.constraint, loc: Location{Type: t, Kind: e.kind, Name: e.name}}
	if m.constraint == nil {
		return m, fmt.Errorf("%w: %s %s has a nil constraint", ErrValidationLogic, e.kind, e.name)
	}
	switch {
	case e.kind == KindClass:
		m.loc.Name = t.Name()
		m.read = func(instance reflect.Value) (any, error) { return instance.Interface(), nil }
	case e.value != nil:
		get := e.value
		m.read = func(reflect.Value) (any, error) { return get(), nil }
	case e.kind == KindProperty:
		sf, ok := t.FieldByName(e.name)
		if !ok || !sf.IsExported() {
			return m, fmt.Errorf("%w: %s has no exported field %s", ErrValidationLogic, t, e.name)
		}
		m.read = fieldReader(sf.Index)
	case e.kind == KindMethod:
		read, err := methodReader(t, e.name)
		if err != nil {
			return m, err
		}
		m.read = read
	}
	return m, nil
}

var errorType = reflect.TypeFor[error]()

// methodReader validates that name can be called without arguments and
// returns a reader invoking it. A trailing non-nil error result is returned.
func methodReader(t reflect.Type, name string) (func(reflect.Value) (any, error), error) {
	method, ok := reflect.PointerTo(t).MethodByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no method %s", ErrValidationLogic, t, name)
	}
	mt := method.Type
	required := mt.NumIn() - 1
	if mt.IsVariadic() {
		required--
	}
	if required > 0 {
		return nil, fmt.Errorf("%w: method %s.%s requires %d parameters and cannot be validated", ErrValidationLogic, t, name, required)
	}
	if mt.NumOut() == 0 {
		return nil, fmt.Errorf("%w: method %s.%s returns nothing", ErrValidationLogic, t, name)
	}
	returnsErr := mt.NumOut() > 1 && mt.Out(mt.NumOut()-1) == errorType

	return func(instance reflect.Value) (any, error) {
		ptr := instance
		if ptr.Kind() != reflect.Ptr {
			ptr = reflect.New(instance.Type())
			ptr.Elem().Set(instance)
		}
		out := ptr.MethodByName(name).Call(nil)
		if returnsErr {
			if err, _ := out[len(out)-1].Interface().(error); err != nil {
				return nil, fmt.Errorf("method %s.%s: %w", t, name, err)
			}
		}
		return out[0].Interface(), nil
	}, nil
}
