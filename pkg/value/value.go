// Package value implements the RookScript runtime value model.
//
// Every value that a script can touch is a Value: a tagged variant over
// null, boolean, 64-bit integer, 64-bit float, string, list, map, buffer,
// error, and opaque host object reference.
//
// Value Semantics:
//
// Values are small mutable structs intended to live inside reusable slots
// (operand stack entries, local variable scopes, scratch registers). All
// mutation goes through the Set* family, which overwrites the slot in place:
//
//	var v Value
//	v.SetInteger(42)    // v is INTEGER 42
//	v.SetString("hi")   // the same slot now holds STRING "hi"
//
// Copying a Value copies the tag and payload. For LIST, MAP, BUFFER, ERROR,
// and OBJECTREF the payload is a pointer, so copies share the underlying
// container: mutations made through one holder are visible to every other
// holder. STRING is immutable and behaves like a plain value.
//
// The operator functions (Add, Divide, Less, ...) live in arith.go and write
// their result into a caller-provided output slot. On the steady-state path
// no operator allocates; allocation happens only when a script constructs a
// new list, map, buffer, or error.
package value

import (
	"fmt"
	"unicode/utf8"
)

// Type identifies which variant a Value currently holds.
type Type int

// Value variants, in type-tag order. The order is load-bearing: sorting and
// cross-type comparisons of non-numeric values fall back to it.
const (
	TypeNull Type = iota
	TypeBoolean
	TypeInteger
	TypeFloat
	TypeString
	TypeList
	TypeMap
	TypeBuffer
	TypeError
	TypeObjectRef
)

// String returns the upper-case variant name; the typeof host function
// reports it in lower case.
func (t Type) String() string {
	switch t {
	case TypeNull:
		return "NULL"
	case TypeBoolean:
		return "BOOLEAN"
	case TypeInteger:
		return "INTEGER"
	case TypeFloat:
		return "FLOAT"
	case TypeString:
		return "STRING"
	case TypeList:
		return "LIST"
	case TypeMap:
		return "MAP"
	case TypeBuffer:
		return "BUFFER"
	case TypeError:
		return "ERROR"
	case TypeObjectRef:
		return "OBJECTREF"
	default:
		return "UNKNOWN"
	}
}

// Value is the runtime representation of a single script value.
//
// Exactly one payload field is live at a time, selected by typ:
//
//	TypeNull                  no payload
//	TypeBoolean, TypeInteger  i
//	TypeFloat                 f
//	TypeString                s
//	TypeList..TypeObjectRef   ref (*List, *Map, *Buffer, *Error, *ObjectRef)
//
// The zero Value is NULL, so freshly sized slot arrays are immediately valid.
type Value struct {
	typ Type
	i   int64
	f   float64
	s   string
	ref any
}

// Type reports the live variant.
func (v *Value) Type() Type { return v.typ }

// IsNull reports whether the value is NULL.
func (v *Value) IsNull() bool { return v.typ == TypeNull }

// SetNull overwrites the slot with NULL, dropping any payload reference.
func (v *Value) SetNull() {
	v.typ = TypeNull
	v.i = 0
	v.f = 0
	v.s = ""
	v.ref = nil
}

// SetBool overwrites the slot with a BOOLEAN.
func (v *Value) SetBool(b bool) {
	v.SetNull()
	v.typ = TypeBoolean
	if b {
		v.i = 1
	}
}

// SetInteger overwrites the slot with an INTEGER.
func (v *Value) SetInteger(i int64) {
	v.SetNull()
	v.typ = TypeInteger
	v.i = i
}

// SetFloat overwrites the slot with a FLOAT.
func (v *Value) SetFloat(f float64) {
	v.SetNull()
	v.typ = TypeFloat
	v.f = f
}

// SetString overwrites the slot with a STRING.
func (v *Value) SetString(s string) {
	v.SetNull()
	v.typ = TypeString
	v.s = s
}

// SetList overwrites the slot with a reference to l.
func (v *Value) SetList(l *List) {
	v.SetNull()
	v.typ = TypeList
	v.ref = l
}

// SetMap overwrites the slot with a reference to m.
func (v *Value) SetMap(m *Map) {
	v.SetNull()
	v.typ = TypeMap
	v.ref = m
}

// SetBuffer overwrites the slot with a reference to b.
func (v *Value) SetBuffer(b *Buffer) {
	v.SetNull()
	v.typ = TypeBuffer
	v.ref = b
}

// SetError overwrites the slot with a new ERROR triple. The localized
// message defaults to the message when empty.
func (v *Value) SetError(errType, message, localized string) {
	if localized == "" {
		localized = message
	}
	v.SetNull()
	v.typ = TypeError
	v.ref = &Error{Type: errType, Message: message, Localized: localized}
}

// SetErrorValue overwrites the slot with a reference to an existing Error.
func (v *Value) SetErrorValue(e *Error) {
	v.SetNull()
	v.typ = TypeError
	v.ref = e
}

// SetObjectRef overwrites the slot with an opaque host object handle.
// typeName is the nominal host type used by host functions for filtering;
// the VM never interprets obj.
func (v *Value) SetObjectRef(typeName string, obj any) {
	v.SetNull()
	v.typ = TypeObjectRef
	v.ref = &ObjectRef{TypeName: typeName, Object: obj}
}

// CopyFrom overwrites the slot with the contents of src. Reference payloads
// are shared, not cloned.
func (v *Value) CopyFrom(src *Value) {
	if v == src {
		return
	}
	v.typ = src.typ
	v.i = src.i
	v.f = src.f
	v.s = src.s
	v.ref = src.ref
}

// Set overwrites the slot from an arbitrary host value, mapping native Go
// types onto script variants. Unrecognized types become OBJECTREF handles
// with the Go type name as the nominal host type.
func (v *Value) Set(val any) {
	switch x := val.(type) {
	case nil:
		v.SetNull()
	case bool:
		v.SetBool(x)
	case int:
		v.SetInteger(int64(x))
	case int8:
		v.SetInteger(int64(x))
	case int16:
		v.SetInteger(int64(x))
	case int32:
		v.SetInteger(int64(x))
	case int64:
		v.SetInteger(x)
	case uint:
		v.SetInteger(int64(x))
	case uint8:
		v.SetInteger(int64(x))
	case uint16:
		v.SetInteger(int64(x))
	case uint32:
		v.SetInteger(int64(x))
	case uint64:
		v.SetInteger(int64(x))
	case float32:
		v.SetFloat(float64(x))
	case float64:
		v.SetFloat(x)
	case string:
		v.SetString(x)
	case *List:
		v.SetList(x)
	case *Map:
		v.SetMap(x)
	case *Buffer:
		v.SetBuffer(x)
	case *Error:
		v.SetErrorValue(x)
	case *ObjectRef:
		v.SetNull()
		v.typ = TypeObjectRef
		v.ref = x
	case *Value:
		v.CopyFrom(x)
	case Value:
		v.CopyFrom(&x)
	default:
		v.SetObjectRef(fmt.Sprintf("%T", val), val)
	}
}

// Of builds a Value from an arbitrary host value. Convenience for tests and
// embedders; the slot-reuse paths use Set.
func Of(val any) Value {
	var v Value
	v.Set(val)
	return v
}

// List returns the list payload, or nil if the value is not a LIST.
func (v *Value) List() *List {
	if v.typ != TypeList {
		return nil
	}
	return v.ref.(*List)
}

// Map returns the map payload, or nil if the value is not a MAP.
func (v *Value) Map() *Map {
	if v.typ != TypeMap {
		return nil
	}
	return v.ref.(*Map)
}

// Buffer returns the buffer payload, or nil if the value is not a BUFFER.
func (v *Value) Buffer() *Buffer {
	if v.typ != TypeBuffer {
		return nil
	}
	return v.ref.(*Buffer)
}

// Error returns the error payload, or nil if the value is not an ERROR.
func (v *Value) Error() *Error {
	if v.typ != TypeError {
		return nil
	}
	return v.ref.(*Error)
}

// ObjectRef returns the object handle payload, or nil if the value is not
// an OBJECTREF.
func (v *Value) ObjectRef() *ObjectRef {
	if v.typ != TypeObjectRef {
		return nil
	}
	return v.ref.(*ObjectRef)
}

// Empty reports the "emptiness" of a value:
// NULL is empty; BOOLEAN is empty iff false; INTEGER iff zero; FLOAT iff
// zero or NaN; STRING/LIST/MAP/BUFFER iff length zero; ERROR never;
// OBJECTREF iff the handle holds nothing.
func (v *Value) Empty() bool {
	switch v.typ {
	case TypeNull:
		return true
	case TypeBoolean, TypeInteger:
		return v.i == 0
	case TypeFloat:
		return v.f == 0 || v.f != v.f
	case TypeString:
		return len(v.s) == 0
	case TypeList:
		return v.List().Len() == 0
	case TypeMap:
		return v.Map().Len() == 0
	case TypeBuffer:
		return v.Buffer().Len() == 0
	case TypeError:
		return false
	case TypeObjectRef:
		return v.ObjectRef().Object == nil
	default:
		return true
	}
}

// Length returns the value's length: code points for STRING, element count
// for LIST, entry count for MAP, byte count for BUFFER, zero otherwise.
func (v *Value) Length() int {
	switch v.typ {
	case TypeString:
		return utf8.RuneCountInString(v.s)
	case TypeList:
		return v.List().Len()
	case TypeMap:
		return v.Map().Len()
	case TypeBuffer:
		return v.Buffer().Len()
	default:
		return 0
	}
}

// Error is the payload of an ERROR value: a type tag, a message, and a
// localized message. Errors flow through the operand stack like any other
// value; they never abort execution by themselves.
type Error struct {
	Type      string
	Message   string
	Localized string
}

// NewError builds an Error payload. The localized message defaults to the
// message when empty.
func NewError(errType, message, localized string) *Error {
	if localized == "" {
		localized = message
	}
	return &Error{Type: errType, Message: message, Localized: localized}
}

// ToMap converts the error to its external map representation with the
// keys "type", "message", and "localizedMessage".
func (e *Error) ToMap() *Map {
	m := NewMap()
	var v Value
	v.SetString(e.Type)
	m.Set("type", &v)
	v.SetString(e.Message)
	m.Set("message", &v)
	v.SetString(e.Localized)
	m.Set("localizedMessage", &v)
	return m
}

// ObjectRef is an opaque handle to a host object. TypeName is a nominal
// type tag host functions can filter on; Object is never interpreted by
// the VM.
type ObjectRef struct {
	TypeName string
	Object   any
}
