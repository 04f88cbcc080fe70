package value

import (
	"math"
	"strconv"
	"strings"
)

// Coercions are defined for every variant. Parse failures are silent:
// integer targets produce 0, the float target produces NaN, matching the
// script-facing contract that bad numeric text is "not a number" rather
// than an error.

// AsBool coerces the value to a boolean.
//
// NULL is false; numbers are true when nonzero and not NaN; strings are
// true when non-empty and not the literal "false" or "0"; containers are
// true when non-empty; ERROR is always true; OBJECTREF is true when the
// handle holds an object.
func (v *Value) AsBool() bool {
	switch v.typ {
	case TypeNull:
		return false
	case TypeBoolean, TypeInteger:
		return v.i != 0
	case TypeFloat:
		return v.f != 0 && v.f == v.f
	case TypeString:
		return len(v.s) != 0 && !strings.EqualFold(v.s, "false") && v.s != "0"
	case TypeList:
		return v.List().Len() > 0
	case TypeMap:
		return v.Map().Len() > 0
	case TypeBuffer:
		return v.Buffer().Len() > 0
	case TypeError:
		return true
	case TypeObjectRef:
		return v.ObjectRef().Object != nil
	default:
		return false
	}
}

// AsInt64 coerces the value to a 64-bit integer. Strings accept decimal and
// 0x-prefixed hex; fractional text is truncated; unparseable text is 0.
func (v *Value) AsInt64() int64 {
	switch v.typ {
	case TypeBoolean, TypeInteger:
		return v.i
	case TypeFloat:
		if v.f != v.f {
			return 0
		}
		return int64(v.f)
	case TypeString:
		if i, ok := parseInteger(v.s); ok {
			return i
		}
		if f, ok := parseFloat(v.s); ok && f == f {
			return int64(f)
		}
		return 0
	default:
		return 0
	}
}

// AsInt coerces the value to a platform int via AsInt64.
func (v *Value) AsInt() int { return int(v.AsInt64()) }

// AsFloat64 coerces the value to a 64-bit float. Unparseable strings and
// non-numeric variants produce NaN; NULL produces 0.
func (v *Value) AsFloat64() float64 {
	switch v.typ {
	case TypeNull:
		return 0
	case TypeBoolean, TypeInteger:
		return float64(v.i)
	case TypeFloat:
		return v.f
	case TypeString:
		if f, ok := parseFloat(v.s); ok {
			return f
		}
		return math.NaN()
	default:
		return math.NaN()
	}
}

// AsString coerces the value to text. ERROR values coerce to their message
// field; containers render their contents.
func (v *Value) AsString() string {
	switch v.typ {
	case TypeNull:
		return "null"
	case TypeBoolean:
		if v.i != 0 {
			return "true"
		}
		return "false"
	case TypeInteger:
		return strconv.FormatInt(v.i, 10)
	case TypeFloat:
		return formatFloat(v.f)
	case TypeString:
		return v.s
	case TypeList:
		return v.List().String()
	case TypeMap:
		return v.Map().String()
	case TypeBuffer:
		return v.Buffer().String()
	case TypeError:
		return v.Error().Message
	case TypeObjectRef:
		ref := v.ObjectRef()
		return "objectref:" + ref.TypeName
	default:
		return ""
	}
}

// AsInterface unwraps the value into its native Go mirror: nil, bool,
// int64, float64, string, the shared container, the Error payload, or the
// host object held by an OBJECTREF.
func (v *Value) AsInterface() any {
	switch v.typ {
	case TypeNull:
		return nil
	case TypeBoolean:
		return v.i != 0
	case TypeInteger:
		return v.i
	case TypeFloat:
		return v.f
	case TypeString:
		return v.s
	case TypeList:
		return v.List()
	case TypeMap:
		return v.Map()
	case TypeBuffer:
		return v.Buffer()
	case TypeError:
		return v.Error()
	case TypeObjectRef:
		return v.ObjectRef().Object
	default:
		return nil
	}
}

func formatFloat(f float64) string {
	switch {
	case f != f:
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

// parseInteger parses decimal or 0x-prefixed hex text, with an optional
// leading sign.
func parseInteger(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	neg := false
	if s[0] == '+' || s[0] == '-' {
		neg = s[0] == '-'
		s = s[1:]
	}
	var (
		i   int64
		err error
	)
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		var u uint64
		u, err = strconv.ParseUint(s[2:], 16, 64)
		i = int64(u)
	} else {
		i, err = strconv.ParseInt(s, 10, 64)
	}
	if err != nil {
		return 0, false
	}
	if neg {
		i = -i
	}
	return i, true
}

// parseFloat parses decimal float text, falling back to the integer parse
// so hex text coerces consistently across numeric targets.
func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	if i, ok := parseInteger(s); ok {
		return float64(i), true
	}
	return 0, false
}
