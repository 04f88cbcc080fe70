package value

import "math"

// Operator functions write their result into a caller-provided output slot
// so the interpreter's hot path never allocates. The output slot may alias
// either input; every operator reads both inputs before writing.

// numeric reduces a value to arithmetic form. Booleans and NULL reduce to
// integers; strings parse as integer first, then float; anything that fails
// to parse, and all reference types, become float NaN so arithmetic on them
// stays "not a number" instead of silently turning into zero.
func numeric(v *Value) (isFloat bool, i int64, f float64) {
	switch v.typ {
	case TypeNull:
		return false, 0, 0
	case TypeBoolean, TypeInteger:
		return false, v.i, 0
	case TypeFloat:
		return true, 0, v.f
	case TypeString:
		if n, ok := parseInteger(v.s); ok {
			return false, n, 0
		}
		if x, ok := parseFloat(v.s); ok {
			return true, 0, x
		}
		return true, 0, math.NaN()
	default:
		return true, 0, math.NaN()
	}
}

// binaryNumeric splits a pair of operands per the promotion rule: if either
// side reduces to float, both do.
func binaryNumeric(a, b *Value) (isFloat bool, ai, bi int64, af, bf float64) {
	aFloat, ai, af := numeric(a)
	bFloat, bi, bf := numeric(b)
	if aFloat || bFloat {
		if !aFloat {
			af = float64(ai)
		}
		if !bFloat {
			bf = float64(bi)
		}
		return true, 0, 0, af, bf
	}
	return false, ai, bi, 0, 0
}

// Add implements the + operator: string concatenation when both operands
// are strings, list append (into a new list) when the left operand is a
// list, numeric addition otherwise.
func Add(out, a, b *Value) {
	switch {
	case a.typ == TypeString && b.typ == TypeString:
		out.SetString(a.s + b.s)
	case a.typ == TypeList:
		src := a.List()
		dst := NewListCapacity(src.Len() + 1)
		dst.items = append(dst.items, src.items...)
		var elem Value
		elem.CopyFrom(b)
		dst.items = append(dst.items, elem)
		out.SetList(dst)
	default:
		if isFloat, ai, bi, af, bf := binaryNumeric(a, b); isFloat {
			out.SetFloat(af + bf)
		} else {
			out.SetInteger(ai + bi)
		}
	}
}

// Subtract implements the - operator.
func Subtract(out, a, b *Value) {
	if isFloat, ai, bi, af, bf := binaryNumeric(a, b); isFloat {
		out.SetFloat(af - bf)
	} else {
		out.SetInteger(ai - bi)
	}
}

// Multiply implements the * operator.
func Multiply(out, a, b *Value) {
	if isFloat, ai, bi, af, bf := binaryNumeric(a, b); isFloat {
		out.SetFloat(af * bf)
	} else {
		out.SetInteger(ai * bi)
	}
}

// Divide implements the / operator. Integer division by zero produces an
// ERROR value; float division follows IEEE-754 (±Infinity, 0/0 is NaN).
func Divide(out, a, b *Value) {
	if isFloat, ai, bi, af, bf := binaryNumeric(a, b); isFloat {
		out.SetFloat(af / bf)
	} else if bi == 0 {
		out.SetError("Arithmetic", "divide by zero", "")
	} else {
		out.SetInteger(ai / bi)
	}
}

// Modulo implements the % operator, with the same zero-divisor behavior
// as Divide.
func Modulo(out, a, b *Value) {
	if isFloat, ai, bi, af, bf := binaryNumeric(a, b); isFloat {
		out.SetFloat(math.Mod(af, bf))
	} else if bi == 0 {
		out.SetError("Arithmetic", "divide by zero", "")
	} else {
		out.SetInteger(ai % bi)
	}
}

// And implements bitwise &. Both operands coerce to INTEGER.
func And(out, a, b *Value) { out.SetInteger(a.AsInt64() & b.AsInt64()) }

// Or implements bitwise |.
func Or(out, a, b *Value) { out.SetInteger(a.AsInt64() | b.AsInt64()) }

// Xor implements bitwise ^.
func Xor(out, a, b *Value) { out.SetInteger(a.AsInt64() ^ b.AsInt64()) }

// LeftShift implements <<. The shift amount uses the low six bits.
func LeftShift(out, a, b *Value) {
	out.SetInteger(a.AsInt64() << (uint64(b.AsInt64()) & 63))
}

// RightShift implements the sign-extending >>.
func RightShift(out, a, b *Value) {
	out.SetInteger(a.AsInt64() >> (uint64(b.AsInt64()) & 63))
}

// RightShiftPadded implements the zero-filling >>>.
func RightShiftPadded(out, a, b *Value) {
	out.SetInteger(int64(uint64(a.AsInt64()) >> (uint64(b.AsInt64()) & 63)))
}

// LogicalAnd implements &&. Both operands coerce to boolean.
func LogicalAnd(out, a, b *Value) { out.SetBool(a.AsBool() && b.AsBool()) }

// LogicalOr implements ||.
func LogicalOr(out, a, b *Value) { out.SetBool(a.AsBool() || b.AsBool()) }

// Not implements bitwise complement ~.
func Not(out, a *Value) { out.SetInteger(^a.AsInt64()) }

// LogicalNot implements !.
func LogicalNot(out, a *Value) { out.SetBool(!a.AsBool()) }

// Negate implements unary minus, staying in the operand's numeric kind.
func Negate(out, a *Value) {
	if isFloat, i, f := numeric(a); isFloat {
		out.SetFloat(-f)
	} else {
		out.SetInteger(-i)
	}
}

// Absolute implements the absolute-value operator.
func Absolute(out, a *Value) {
	if isFloat, i, f := numeric(a); isFloat {
		out.SetFloat(math.Abs(f))
	} else if i < 0 {
		out.SetInteger(-i)
	} else {
		out.SetInteger(i)
	}
}

// isNumericKind reports whether a variant participates in numeric equality
// and ordering without parsing.
func isNumericKind(t Type) bool {
	return t == TypeNull || t == TypeBoolean || t == TypeInteger || t == TypeFloat
}

// Equals is coercion-aware equality: numeric values compare by value across
// variants, strings compare to numbers when they parse to a matching value,
// strings compare to strings by text, and reference types compare by
// identity. NaN is never equal to anything.
func Equals(a, b *Value) bool {
	switch {
	case a.typ == TypeNull || b.typ == TypeNull:
		return a.typ == b.typ
	case isNumericKind(a.typ) && isNumericKind(b.typ):
		af, bf := a.AsFloat64(), b.AsFloat64()
		return af == bf
	case a.typ == TypeString && b.typ == TypeString:
		return a.s == b.s
	case a.typ == TypeString && isNumericKind(b.typ):
		if f, ok := parseFloat(a.s); ok {
			return f == b.AsFloat64()
		}
		return false
	case isNumericKind(a.typ) && b.typ == TypeString:
		if f, ok := parseFloat(b.s); ok {
			return a.AsFloat64() == f
		}
		return false
	case a.typ == b.typ:
		return a.ref == b.ref
	default:
		return false
	}
}

// StrictEquals requires matching variants: numbers must match in kind and
// value, strings in text, and reference types in identity.
func StrictEquals(a, b *Value) bool {
	if a.typ != b.typ {
		return false
	}
	switch a.typ {
	case TypeNull:
		return true
	case TypeBoolean, TypeInteger:
		return a.i == b.i
	case TypeFloat:
		return a.f == b.f
	case TypeString:
		return a.s == b.s
	default:
		return a.ref == b.ref
	}
}

// Compare orders two values. ok is false only when both sides order as
// numbers and one of them is NaN. Strings order lexicographically; numeric
// values order by value; everything else, including a non-numeric string
// against a number, falls back to type-tag order, with identical reference
// types tied.
func Compare(a, b *Value) (c int, ok bool) {
	switch {
	case a.typ == TypeString && b.typ == TypeString:
		switch {
		case a.s < b.s:
			return -1, true
		case a.s > b.s:
			return 1, true
		default:
			return 0, true
		}
	case orderableAsNumber(a) && orderableAsNumber(b):
		af, bf := a.AsFloat64(), b.AsFloat64()
		if af != af || bf != bf {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	default:
		switch {
		case a.typ < b.typ:
			return -1, true
		case a.typ > b.typ:
			return 1, true
		default:
			return 0, true
		}
	}
}

func orderableAsNumber(v *Value) bool {
	if isNumericKind(v.typ) {
		return true
	}
	if v.typ == TypeString {
		_, ok := parseFloat(v.s)
		return ok
	}
	return false
}

// Less implements the < operator, writing BOOLEAN into out. Unordered pairs
// compare false.
func Less(out, a, b *Value) {
	c, ok := Compare(a, b)
	out.SetBool(ok && c < 0)
}

// LessOrEqual implements <=.
func LessOrEqual(out, a, b *Value) {
	c, ok := Compare(a, b)
	out.SetBool(ok && c <= 0)
}

// Greater implements >.
func Greater(out, a, b *Value) {
	c, ok := Compare(a, b)
	out.SetBool(ok && c > 0)
}

// GreaterOrEqual implements >=.
func GreaterOrEqual(out, a, b *Value) {
	c, ok := Compare(a, b)
	out.SetBool(ok && c >= 0)
}

// Equal implements ==, writing BOOLEAN into out.
func Equal(out, a, b *Value) { out.SetBool(Equals(a, b)) }

// NotEqual implements !=.
func NotEqual(out, a, b *Value) { out.SetBool(!Equals(a, b)) }

// StrictEqual implements ===.
func StrictEqual(out, a, b *Value) { out.SetBool(StrictEquals(a, b)) }

// StrictNotEqual implements !==.
func StrictNotEqual(out, a, b *Value) { out.SetBool(!StrictEquals(a, b)) }
