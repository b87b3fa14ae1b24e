package vm

import "math"

// Value is the boundary representation of a single guest value: a kind tag
// plus either a primitive payload or an object reference. It is what crosses
// Execute's argument/result boundary and what native methods see; inside the
// dispatch loop values live untagged on the operand stack and in local slots.
type Value struct {
	kind Kind
	bits uint64
	ref  *Object
}

// NoValue is the result of a void method.
var NoValue = Value{kind: KindVoid}

// NullValue is the null reference.
var NullValue = Value{kind: KindObject}

// IntValue returns an int value.
func IntValue(v int32) Value {
	return Value{kind: KindInt, bits: uint64(uint32(v))}
}

// LongValue returns a long value.
func LongValue(v int64) Value {
	return Value{kind: KindLong, bits: uint64(v)}
}

// FloatValue returns a float value.
func FloatValue(v float32) Value {
	return Value{kind: KindFloat, bits: uint64(math.Float32bits(v))}
}

// DoubleValue returns a double value.
func DoubleValue(v float64) Value {
	return Value{kind: KindDouble, bits: math.Float64bits(v)}
}

// RefValue returns a reference value. A nil object is the null reference.
func RefValue(o *Object) Value {
	return Value{kind: KindObject, ref: o}
}

// BooleanValue returns an int-family boolean value.
func BooleanValue(v bool) Value {
	var b uint64
	if v {
		b = 1
	}
	return Value{kind: KindBoolean, bits: b}
}

// ByteValue returns an int-family byte value.
func ByteValue(v int8) Value {
	return Value{kind: KindByte, bits: uint64(uint32(int32(v)))}
}

// ShortValue returns an int-family short value.
func ShortValue(v int16) Value {
	return Value{kind: KindShort, bits: uint64(uint32(int32(v)))}
}

// CharValue returns an int-family char value.
func CharValue(v uint16) Value {
	return Value{kind: KindChar, bits: uint64(uint32(v))}
}

// Kind returns the value's kind tag.
func (v Value) Kind() Kind { return v.kind }

// Int returns the int payload. Valid for the whole int family.
func (v Value) Int() int32 { return int32(uint32(v.bits)) }

// Long returns the long payload.
func (v Value) Long() int64 { return int64(v.bits) }

// Float returns the float payload.
func (v Value) Float() float32 { return math.Float32frombits(uint32(v.bits)) }

// Double returns the double payload.
func (v Value) Double() float64 { return math.Float64frombits(v.bits) }

// Ref returns the reference payload (nil for null).
func (v Value) Ref() *Object { return v.ref }

// Bool returns the boolean payload.
func (v Value) Bool() bool { return v.bits != 0 }

// IsNull reports whether the value is a null reference.
func (v Value) IsNull() bool { return v.kind == KindObject && v.ref == nil }

// narrowIntReturn narrows a raw int to the declared int-family return kind.
// The stored payload keeps int32 width; the tag records the declared kind.
func narrowIntReturn(declared Kind, raw int32) Value {
	switch declared {
	case KindBoolean:
		return BooleanValue(raw&1 != 0)
	case KindByte:
		return ByteValue(int8(raw))
	case KindShort:
		return ShortValue(int16(raw))
	case KindChar:
		return CharValue(uint16(raw))
	case KindInt:
		return IntValue(raw)
	}
	panic(&InvariantViolation{Reason: "int-family return for kind " + declared.String()})
}
