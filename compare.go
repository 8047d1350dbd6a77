package mvel

import (
	"fmt"
	"math"
	"reflect"
	"strings"
)

// CompareOp is the operator of a rule [Comparison].
type CompareOp int

// Logical and bitwise comparison operators.
const (
	CmpAnd CompareOp = iota
	CmpOr
	CmpXor
	CmpNot
	CmpEq
	CmpNeq
	CmpID
	CmpNid
	CmpLt
	CmpLte
	CmpGt
	CmpGte
	CmpBitNot
	CmpBitAnd
	CmpBitOr
	CmpBitXor
	CmpShl
	CmpShr
)

var compareTokens = map[string]CompareOp{
	"and": CmpAnd, "&&": CmpAnd,
	"or": CmpOr, "||": CmpOr,
	"xor": CmpXor,
	"not": CmpNot, "!": CmpNot,
	"eq": CmpEq, "==": CmpEq,
	"neq": CmpNeq, "!=": CmpNeq,
	"id": CmpID, "===": CmpID,
	"nid": CmpNid, "!==": CmpNid,
	"lt": CmpLt, "<": CmpLt,
	"lte": CmpLte, "<=": CmpLte,
	"gt": CmpGt, ">": CmpGt,
	"gte": CmpGte, ">=": CmpGte,
	"~": CmpBitNot,
	"&": CmpBitAnd,
	"|": CmpBitOr,
	"^": CmpBitXor,
	"<<": CmpShl,
	">>": CmpShr,
}

// ParseCompareOp maps a comparison token to its operator. Unknown tokens map
// to CmpAnd and ok is false.
func ParseCompareOp(token string) (op CompareOp, ok bool) {
	op, ok = compareTokens[strings.ToLower(strings.TrimSpace(token))]
	if !ok {
		return CmpAnd, false
	}
	return op, true
}

// Compare applies op to a and b.
func Compare(op CompareOp, a, b any) bool {
	switch op {
	case CmpAnd:
		return truthy(a) && truthy(b)
	case CmpOr:
		return truthy(a) || truthy(b)
	case CmpXor:
		return truthy(a) != truthy(b)
	case CmpNot:
		return !truthy(a)
	case CmpEq:
		return looseEqual(a, b)
	case CmpNeq:
		return !looseEqual(a, b)
	case CmpID:
		return identical(a, b)
	case CmpNid:
		return !identical(a, b)
	case CmpLt, CmpLte, CmpGt, CmpGte:
		c, ok := order(a, b)
		if !ok {
			return false
		}
		switch op {
		case CmpLt:
			return c < 0
		case CmpLte:
			return c <= 0
		case CmpGt:
			return c > 0
		}
		return c >= 0
	}
	return bitwise(op, a, b) != 0
}

func bitwise(op CompareOp, a, b any) int64 {
	x, y := toInt(a), toInt(b)
	switch op {
	case CmpBitNot:
		return ^x
	case CmpBitAnd:
		return x & y
	case CmpBitOr:
		return x | y
	case CmpBitXor:
		return x ^ y
	case CmpShl:
		if y < 0 || y > 63 {
			return 0
		}
		return x << uint(y)
	case CmpShr:
		if y < 0 || y > 63 {
			return 0
		}
		return x >> uint(y)
	}
	return 0
}

func toInt(v any) int64 {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) {
		return 0
	}
	return int64(f)
}

// truthy follows the usual scripting notion of truthiness: nil, false, zero,
// "", "0" and empty collections are false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != "" && t != "0"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface:
		return !rv.IsNil()
	}
	if f, ok := toFloat(v); ok {
		return f != 0
	}
	return true
}

func isNumber(v any) bool {
	if _, ok := v.(string); ok {
		return false
	}
	_, ok := toFloat(v)
	return ok
}

func looseEqual(a, b any) bool {
	if isNumber(a) || isNumber(b) {
		x, okx := toFloat(a)
		y, oky := toFloat(b)
		if okx && oky {
			return x == y
		}
	}
	if ab, ok := a.(bool); ok {
		return ab == truthy(b)
	}
	if bb, ok := b.(bool); ok {
		return bb == truthy(a)
	}
	if reflect.DeepEqual(a, b) {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func identical(a, b any) bool {
	if isNumber(a) && isNumber(b) && reflect.TypeOf(a).Kind() != reflect.TypeOf(b).Kind() {
		return false
	}
	return reflect.DeepEqual(a, b)
}

// order compares numbers numerically and strings lexically.
func order(a, b any) (int, bool) {
	if isNumber(a) || isNumber(b) {
		x, okx := toFloat(a)
		y, oky := toFloat(b)
		if !okx || !oky {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	}
	as, oka := a.(string)
	bs, okb := b.(string)
	if !oka || !okb {
		return 0, false
	}
	return strings.Compare(as, bs), true
}
