package rules

import (
	"fmt"
	"math"
	"reflect"

	"github.com/Gobd/mvel"
	"github.com/asaskevich/govalidator"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func typeRules() []*mvel.Rule {
	return []*mvel.Rule{
		{
			Name:        "required",
			Callback:    check(func(v any) bool { return validation.Required.Validate(v) == nil }),
			Message:     "${@label} is required.",
			Description: "Value is present and not empty.",
			Example:     "required",
		},
		{
			Name: "null",
			Callback: check(func(v any) bool {
				_, isNil := validation.Indirect(v)
				return isNil
			}),
			Message:     "${@label} must be null.",
			Description: "Value is nil.",
		},
		{
			Name:        "empty",
			Callback:    check(validation.IsEmpty),
			Message:     "${@label} must be empty.",
			Description: "Value is the zero value or an empty collection.",
		},
		{
			Name:        "string",
			Callback:    check(func(v any) bool { return kindOf(v) == reflect.String }),
			Message:     "${@label} must be a string.",
			Description: "Value is a string.",
		},
		{
			Name:        "integer",
			Callback:    check(isInteger),
			Message:     "${@label} must be an integer.",
			Description: "Value is an integer, or a float without fraction.",
			Example:     "integer",
		},
		{
			Name: "float",
			Callback: check(func(v any) bool {
				k := kindOf(v)
				return k == reflect.Float32 || k == reflect.Float64
			}),
			Message:     "${@label} must be a float.",
			Description: "Value is a floating point number.",
		},
		{
			Name: "numeric",
			Callback: check(func(v any) bool {
				if s, ok := v.(string); ok {
					return govalidator.IsFloat(s)
				}
				_, ok := size(v)
				return ok && kindOf(v) != reflect.Slice && kindOf(v) != reflect.Map && kindOf(v) != reflect.Array
			}),
			Message:     "${@label} must be numeric.",
			Description: "Value is a number or a numeric string.",
		},
		{
			Name:        "boolean",
			Callback:    check(func(v any) bool { return kindOf(v) == reflect.Bool }),
			Message:     "${@label} must be a boolean.",
			Description: "Value is true or false.",
			Example:     "boolean",
		},
		{
			Name: "array",
			Callback: check(func(v any) bool {
				k := kindOf(v)
				return k == reflect.Slice || k == reflect.Array
			}),
			Message:     "${@label} must be an array.",
			Description: "Value is a slice or an array.",
		},
		{
			Name: "object",
			Callback: check(func(v any) bool {
				k := kindOf(v)
				return k == reflect.Map || k == reflect.Struct
			}),
			Message:     "${@label} must be an object.",
			Description: "Value is a map or a struct.",
		},
		{
			Name: "json",
			Callback: check(func(v any) bool {
				s, ok := v.(string)
				return ok && govalidator.IsJSON(s)
			}),
			Message:     "${@label} must be a valid JSON string.",
			Description: "Value is a string holding valid JSON.",
		},
		{
			Name:      "type",
			Arguments: []mvel.Argument{{Name: "type", Type: mvel.String}},
			Callback: func(params ...any) (any, error) {
				return mvel.Output{
					Value:     fmt.Sprintf("%T", params[0]) == params[1],
					Variables: map[string]any{mvel.KeyExtra: fmt.Sprintf("%T", params[0])},
				}, nil
			},
			Parameters:  inputAndArgs(1),
			Message:     "${@label} must be of type ${@arguments.0}, got ${@extra}.",
			Description: "Value has the given Go type.",
			Example:     `type:"string"`,
		},
	}
}

func kindOf(v any) reflect.Kind {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr && !rv.IsNil() {
		rv = rv.Elem()
	}
	return rv.Kind()
}

func isInteger(v any) bool {
	switch kindOf(v) {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	case reflect.Float32, reflect.Float64:
		f := number(v)
		return f == math.Trunc(f) && !math.IsInf(f, 0)
	}
	return false
}
