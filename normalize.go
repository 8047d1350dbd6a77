package mvel

import (
	"encoding/json"
	"io"
	"reflect"
	"strings"
)

// Normalizer is implemented by types that clean themselves up after decoding.
// The top level is called first, then nested structs, pointers, slices and
// map values depth first.
type Normalizer interface {
	Normalize()
}

// UnmarshalAndValidate decodes JSON into dst, normalizes it and runs Check on
// the default engine.
func UnmarshalAndValidate(b []byte, dst any) error {
	return Default().UnmarshalAndValidate(b, dst)
}

// DecodeAndValidate is like UnmarshalAndValidate but streams from r.
func DecodeAndValidate(r io.Reader, dst any) error {
	return Default().DecodeAndValidate(r, dst)
}

// UnmarshalAndValidate decodes JSON into dst, normalizes it and runs Check.
func (e *Engine) UnmarshalAndValidate(b []byte, dst any) error {
	if err := json.Unmarshal(b, dst); err != nil {
		return err
	}
	normalize(dst)
	return e.For(dst).Check()
}

// DecodeAndValidate is like UnmarshalAndValidate but streams from r.
func (e *Engine) DecodeAndValidate(r io.Reader, dst any) error {
	if err := json.NewDecoder(r).Decode(dst); err != nil {
		return err
	}
	normalize(dst)
	return e.For(dst).Check()
}

func normalize(a any) {
	if a == nil {
		return
	}
	if n, ok := a.(Normalizer); ok {
		n.Normalize()
	}
	rv := reflect.ValueOf(a)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct {
		walkNormalize(rv)
	}
}

func normalizeValue(v reflect.Value) {
	switch v.Kind() {
	case reflect.Struct:
		if v.CanAddr() {
			if n, ok := v.Addr().Interface().(Normalizer); ok {
				n.Normalize()
			}
		}
		walkNormalize(v)
	case reflect.Ptr:
		if v.IsNil() {
			return
		}
		if n, ok := v.Interface().(Normalizer); ok {
			n.Normalize()
		}
		if v.Elem().Kind() == reflect.Struct {
			walkNormalize(v.Elem())
		}
	}
}

func walkNormalize(rv reflect.Value) {
	for i := range rv.NumField() {
		if !rv.Type().Field(i).IsExported() {
			continue
		}
		field := rv.Field(i)
		switch field.Kind() {
		case reflect.Struct, reflect.Ptr:
			normalizeValue(field)
		case reflect.Slice:
			for j := range field.Len() {
				normalizeValue(field.Index(j))
			}
		case reflect.Map:
			for _, key := range field.MapKeys() {
				val := field.MapIndex(key)
				if val.Kind() != reflect.Struct {
					continue
				}
				// Map entries are not addressable, so normalize a copy and store it.
				cp := reflect.New(val.Type())
				cp.Elem().Set(val)
				normalizeValue(cp.Elem())
				field.SetMapIndex(key, cp.Elem())
			}
		}
	}
}

// TrimSpace runs [strings.TrimSpace] on every string reachable from v.
func TrimSpace(v any) {
	MapStrings(v, strings.TrimSpace)
}

// MapStrings applies f to every settable string reachable from v through
// exported struct fields, pointers, slices, arrays and map values. Interface
// values are left alone.
func MapStrings(v any, f func(string) string) {
	mapStrings(reflect.ValueOf(v), f)
}

func mapStrings(v reflect.Value, f func(string) string) {
	switch v.Kind() {
	case reflect.String:
		if v.CanSet() {
			v.SetString(f(v.String()))
		}
	case reflect.Ptr:
		if !v.IsNil() {
			mapStrings(v.Elem(), f)
		}
	case reflect.Struct:
		for i := range v.NumField() {
			if v.Type().Field(i).IsExported() {
				mapStrings(v.Field(i), f)
			}
		}
	case reflect.Slice, reflect.Array:
		for i := range v.Len() {
			mapStrings(v.Index(i), f)
		}
	case reflect.Map:
		for _, key := range v.MapKeys() {
			cp := reflect.New(v.Type().Elem()).Elem()
			cp.Set(v.MapIndex(key))
			mapStrings(cp, f)
			v.SetMapIndex(key, cp)
		}
	}
}
