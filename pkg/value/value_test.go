package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ofp is like Of but returns a pointer, so the accessor methods (which have
// pointer receivers) can be chained directly off a literal construction.
func ofp(val any) *Value {
	v := Of(val)
	return &v
}

func TestSetOverwritesVariant(t *testing.T) {
	var v Value
	assert.Equal(t, TypeNull, v.Type(), "zero value is NULL")

	v.SetInteger(42)
	assert.Equal(t, TypeInteger, v.Type())
	assert.Equal(t, int64(42), v.AsInt64())

	v.SetString("hello")
	assert.Equal(t, TypeString, v.Type())
	assert.Equal(t, "hello", v.AsString())

	v.SetNull()
	assert.True(t, v.IsNull())
}

func TestOfMapsHostTypes(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Type
	}{
		{"nil", nil, TypeNull},
		{"bool", true, TypeBoolean},
		{"int", 7, TypeInteger},
		{"int64", int64(7), TypeInteger},
		{"uint32", uint32(7), TypeInteger},
		{"float64", 1.5, TypeFloat},
		{"string", "x", TypeString},
		{"list", NewList(), TypeList},
		{"map", NewMap(), TypeMap},
		{"buffer", NewBuffer(4), TypeBuffer},
		{"error", NewError("Test", "boom", ""), TypeError},
		{"opaque", struct{ X int }{1}, TypeObjectRef},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Of(tt.in)
			assert.Equal(t, tt.want, v.Type())
		})
	}
}

func TestReferenceSharing(t *testing.T) {
	list := NewListOf(1, 2, 3)
	a := Of(list)
	var b Value
	b.CopyFrom(&a)

	// Mutating through one holder is visible through the other.
	v := Of(int64(4))
	b.List().Add(&v)
	assert.Equal(t, 4, a.List().Len())
	assert.Same(t, a.List(), b.List())
}

func TestEmpty(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"null", Of(nil), true},
		{"false", Of(false), true},
		{"true", Of(true), false},
		{"zero int", Of(0), true},
		{"int", Of(3), false},
		{"zero float", Of(0.0), true},
		{"nan", Of(math.NaN()), true},
		{"float", Of(0.5), false},
		{"empty string", Of(""), true},
		{"string", Of("a"), false},
		{"empty list", Of(NewList()), true},
		{"list", Of(NewListOf(1)), false},
		{"error", Of(NewError("T", "m", "")), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.Empty())
		})
	}
}

func TestLength(t *testing.T) {
	assert.Equal(t, 5, ofp("héllo").Length(), "length counts code points")
	assert.Equal(t, 2, ofp(NewListOf(1, 2)).Length())
	assert.Equal(t, 8, ofp(NewBuffer(8)).Length())
	assert.Equal(t, 0, ofp(42).Length())

	m := NewMap()
	v := Of(1)
	m.Set("a", &v)
	assert.Equal(t, 1, ofp(m).Length())
}

func TestAsBool(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"null", Of(nil), false},
		{"nonzero", Of(3), true},
		{"nan", Of(math.NaN()), false},
		{"literal false", Of("false"), false},
		{"literal FALSE", Of("FALSE"), false},
		{"literal zero", Of("0"), false},
		{"other text", Of("no"), true},
		{"error", Of(NewError("T", "m", "")), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.AsBool())
		})
	}
}

func TestNumericStringParsing(t *testing.T) {
	assert.Equal(t, int64(255), ofp("0xFF").AsInt64(), "hex strings parse for integer targets")
	assert.Equal(t, int64(-12), ofp("-12").AsInt64())
	assert.Equal(t, int64(3), ofp("3.9").AsInt64(), "fractional text truncates")
	assert.Equal(t, int64(0), ofp("bogus").AsInt64(), "parse failure yields zero")

	assert.Equal(t, 2.5, ofp("2.5").AsFloat64())
	assert.Equal(t, 255.0, ofp("0xff").AsFloat64(), "hex parses for the float target too")
	assert.True(t, math.IsNaN(ofp("bogus").AsFloat64()), "parse failure yields NaN")
}

func TestAsStringForms(t *testing.T) {
	assert.Equal(t, "null", ofp(nil).AsString())
	assert.Equal(t, "true", ofp(true).AsString())
	assert.Equal(t, "42", ofp(42).AsString())
	assert.Equal(t, "NaN", ofp(math.NaN()).AsString())
	assert.Equal(t, "Infinity", ofp(math.Inf(1)).AsString())
	assert.Equal(t, "boom", ofp(NewError("T", "boom", "")).AsString(),
		"an error's string coercion is its message")
	assert.Equal(t, "[1, 2]", ofp(NewListOf(1, 2)).AsString())
}

// Coercion idempotence: coercing a coerced value changes nothing.
func TestCoercionIdempotence(t *testing.T) {
	samples := []Value{
		Of(nil), Of(true), Of(false), Of(0), Of(-9), Of(123456789),
		Of(0.0), Of(2.75), Of(math.NaN()), Of(math.Inf(-1)),
		Of(""), Of("17"), Of("2.5"), Of("bogus"),
		Of(NewListOf(1)), Of(NewError("T", "m", "")),
	}
	for _, s := range samples {
		i := Of(s.AsInt64())
		assert.Equal(t, i.AsInt64(), s.AsInt64())

		f := Of(s.AsFloat64())
		if math.IsNaN(s.AsFloat64()) {
			assert.True(t, math.IsNaN(f.AsFloat64()))
		} else {
			assert.Equal(t, f.AsFloat64(), s.AsFloat64())
		}

		str := Of(s.AsString())
		assert.Equal(t, str.AsString(), s.AsString())

		b := Of(s.AsBool())
		assert.Equal(t, b.AsBool(), s.AsBool())
	}
}

func TestErrorToMap(t *testing.T) {
	e := NewError("BadParameter", "bad arg", "")
	m := e.ToMap()
	require.Equal(t, 3, m.Len())

	var v Value
	require.True(t, m.Get("type", &v))
	assert.Equal(t, "BadParameter", v.AsString())
	require.True(t, m.Get("message", &v))
	assert.Equal(t, "bad arg", v.AsString())
	require.True(t, m.Get("localizedMessage", &v))
	assert.Equal(t, "bad arg", v.AsString(), "localized message defaults to the message")
}

func TestAsInterface(t *testing.T) {
	assert.Nil(t, ofp(nil).AsInterface())
	assert.Equal(t, int64(3), ofp(3).AsInterface())
	assert.Equal(t, "x", ofp("x").AsInterface())

	host := &struct{ N int }{5}
	var v Value
	v.SetObjectRef("thing", host)
	assert.Same(t, host, v.AsInterface(), "objectref unwraps to the host object")
	assert.Equal(t, "thing", v.ObjectRef().TypeName)
}
