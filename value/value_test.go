package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestThreeValuedAnd(t *testing.T) {
	require.Equal(t, Bool(false), And(Null(), Bool(false)))
	require.True(t, And(Null(), Bool(true)).IsNull())
	require.Equal(t, Bool(false), And(Bool(false), Null()))
	require.Equal(t, Bool(true), And(Bool(true), Bool(true)))
	require.Equal(t, Bool(false), And(Bool(true), Bool(false)))
}

func TestThreeValuedOr(t *testing.T) {
	require.Equal(t, Bool(true), Or(Null(), Bool(true)))
	require.True(t, Or(Null(), Bool(false)).IsNull())
	require.Equal(t, Bool(true), Or(Bool(true), Null()))
	require.Equal(t, Bool(false), Or(Bool(false), Bool(false)))
}

func TestThreeValuedNot(t *testing.T) {
	require.True(t, Not(Null()).IsNull())
	require.Equal(t, Bool(false), Not(Bool(true)))
	require.Equal(t, Bool(true), Not(Bool(false)))
}

func TestCompareNullNeverComparable(t *testing.T) {
	_, ok := Compare(Null(), Int(1))
	require.False(t, ok)
	_, ok = Compare(Int(1), Null())
	require.False(t, ok)
	_, ok = Compare(Null(), Null())
	require.False(t, ok)
}

func TestCompareNumericCoercion(t *testing.T) {
	cmp, ok := Compare(Int(3), Float(3.5))
	require.True(t, ok)
	require.Equal(t, -1, cmp)

	cmp, ok = Compare(Float(3.5), Int(3))
	require.True(t, ok)
	require.Equal(t, 1, cmp)

	cmp, ok = Compare(Int(4), Float(4))
	require.True(t, ok)
	require.Equal(t, 0, cmp)
}

func TestCompareStringIsByteWise(t *testing.T) {
	cmp, ok := Compare(Str("abc"), Str("abd"))
	require.True(t, ok)
	require.Equal(t, -1, cmp)

	require.True(t, Equal(Str("x"), Str("x")))
	require.False(t, Equal(Str("x"), Str("y")))
}

func TestCompareIncompatibleKindsNotComparable(t *testing.T) {
	_, ok := Compare(Str("1"), Int(1))
	require.False(t, ok)
	_, ok = Compare(Bool(true), Int(1))
	require.False(t, ok)
}

func TestEqualNullIsNeverEqual(t *testing.T) {
	require.False(t, Equal(Null(), Null()))
	require.False(t, Equal(Null(), Int(0)))
}

func TestAddStringConcatenation(t *testing.T) {
	v, err := Add(Str("foo"), Str("bar"))
	require.NoError(t, err)
	require.Equal(t, "foobar", v.Str())

	v, err = Add(Str("n="), Int(3))
	require.NoError(t, err)
	require.Equal(t, "n=3", v.Str())
}

func TestAddIntegerStaysInt(t *testing.T) {
	v, err := Add(Int(2), Int(3))
	require.NoError(t, err)
	require.Equal(t, KindInt, v.Kind())
	require.Equal(t, int64(5), v.Int())
}

func TestAddMixedNumericNarrowsToFloat(t *testing.T) {
	v, err := Add(Int(2), Float(0.5))
	require.NoError(t, err)
	require.Equal(t, KindFloat, v.Kind())
	require.InDelta(t, 2.5, v.Float(), 1e-9)
}

func TestAddIncompatibleKindsErrors(t *testing.T) {
	_, err := Add(Bool(true), Int(1))
	require.Error(t, err)
}

func TestIsTruthy(t *testing.T) {
	_, ok := IsTruthy(Null())
	require.False(t, ok)

	v, ok := IsTruthy(Int(0))
	require.True(t, ok)
	require.False(t, v)

	v, ok = IsTruthy(Str("x"))
	require.True(t, ok)
	require.True(t, v)
}

func TestAsFloat64(t *testing.T) {
	f, ok := Int(7).AsFloat64()
	require.True(t, ok)
	require.Equal(t, 7.0, f)

	_, ok = Str("7").AsFloat64()
	require.False(t, ok)
}
