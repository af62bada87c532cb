// Package value provides the tagged runtime value used by the expression
// evaluator and the row-level API surface.
//
// A Value is one of: null, a signed 64-bit integer, an IEEE-754 double, a
// UTF-8 string, or a boolean. The codecs work on typed Go slices (int64,
// string, raw bytes); column.Reader converts a decoded page into Values.
// Value is the row-at-a-time shape used by INSERT, expression evaluation,
// query results and page reads.
package value

import (
	"fmt"
	"strings"
)

// Kind tags the dynamic type carried by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindString
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Value is a small tagged union. Zero value is Null.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    bool
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Int wraps a signed 64-bit integer.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float wraps an IEEE-754 double.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// Str wraps a UTF-8 string.
func Str(v string) Value { return Value{kind: KindString, s: v} }

// Bool wraps a boolean.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }
func (v Value) Int() int64   { return v.i }
func (v Value) Float() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}

	return v.f
}
func (v Value) Str() string   { return v.s }
func (v Value) Bool() bool    { return v.b }

// AsFloat64 coerces numeric kinds to float64; used whenever either side of a
// comparison or arithmetic expression is numeric (§3 comparison semantics).
func (v Value) AsFloat64() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindString:
		return v.s
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	default:
		return "?"
	}
}

// Compare implements §3's comparison semantics:
//   - null compared to anything returns (0, false) — the caller must treat
//     any comparison involving null as null, not as a definite ordering.
//   - numeric compare is performed in double when either side is numeric.
//   - string compare is byte-wise.
//
// Returns (cmp, ok) where cmp is -1/0/1 and ok is false if the values are
// not comparable (null involved, or incompatible non-numeric kinds).
func Compare(a, b Value) (int, bool) {
	if a.kind == KindNull || b.kind == KindNull {
		return 0, false
	}

	af, aNum := a.AsFloat64()
	bf, bNum := b.AsFloat64()
	if aNum && bNum {
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}

	if a.kind == KindString && b.kind == KindString {
		return strings.Compare(a.s, b.s), true
	}

	if a.kind == KindBool && b.kind == KindBool {
		switch {
		case a.b == b.b:
			return 0, true
		case !a.b:
			return -1, true
		default:
			return 1, true
		}
	}

	return 0, false
}

// Equal reports whether a and b are equal under Compare; null is never
// equal to anything, including another null, under three-valued semantics
// (callers needing SQL IS NULL use IsNull directly).
func Equal(a, b Value) bool {
	cmp, ok := Compare(a, b)

	return ok && cmp == 0
}

// Add implements §4.12's `+`: string concatenation, numeric sum narrowed to
// i64 when both operands are integral, otherwise double.
func Add(a, b Value) (Value, error) {
	if a.kind == KindString || b.kind == KindString {
		return Str(a.String() + b.String()), nil
	}
	if a.kind == KindInt && b.kind == KindInt {
		return Int(a.i + b.i), nil
	}
	af, aOk := a.AsFloat64()
	bf, bOk := b.AsFloat64()
	if aOk && bOk {
		return Float(af + bf), nil
	}

	return Null(), fmt.Errorf("cannot add %s and %s", a.kind, b.kind)
}

// IsTruthy reports the three-valued boolean interpretation of v: null stays
// null (second return false), otherwise the value's boolean coercion.
func IsTruthy(v Value) (bool, bool) {
	switch v.kind {
	case KindNull:
		return false, false
	case KindBool:
		return v.b, true
	case KindInt:
		return v.i != 0, true
	case KindFloat:
		return v.f != 0, true
	case KindString:
		return v.s != "", true
	default:
		return false, false
	}
}

// And implements three-valued AND: null ∧ false = false; null ∧ true = null.
func And(a, b Value) Value {
	av, aOk := IsTruthy(a)
	bv, bOk := IsTruthy(b)
	if aOk && bOk {
		return Bool(av && bv)
	}
	if aOk && !av {
		return Bool(false)
	}
	if bOk && !bv {
		return Bool(false)
	}

	return Null()
}

// Or implements three-valued OR: null ∨ true = true; null ∨ false = null.
func Or(a, b Value) Value {
	av, aOk := IsTruthy(a)
	bv, bOk := IsTruthy(b)
	if aOk && bOk {
		return Bool(av || bv)
	}
	if aOk && av {
		return Bool(true)
	}
	if bOk && bv {
		return Bool(true)
	}

	return Null()
}

// Not implements three-valued NOT: NOT null = null.
func Not(a Value) Value {
	av, ok := IsTruthy(a)
	if !ok {
		return Null()
	}

	return Bool(!av)
}
