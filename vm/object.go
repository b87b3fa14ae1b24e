package vm

import "sync/atomic"

// Object is a heap cell: a plain instance (fields), an array (elems), or a
// string-bearing instance (str carries the content for string constants and
// throwable messages). The zero distinctions live in Class, not here.
type Object struct {
	Class  *Class
	fields []Value
	elems  []Value
	str    string

	// Balanced-entry monitor depth. Guest execution is single-owner per
	// Execute call; the depth check catches unbalanced monitorexit.
	monitorDepth atomic.Int32
}

// NewInstance allocates an instance of c with every field at its kind's
// default value.
func NewInstance(c *Class) *Object {
	o := &Object{Class: c, fields: make([]Value, c.InstanceSlots())}
	for k := c; k != nil; k = k.Super {
		for _, f := range k.Fields {
			o.fields[f.Index] = zeroValueOf(f.Kind)
		}
	}
	return o
}

// NewStringObject allocates a string-content instance of c.
func NewStringObject(c *Class, s string) *Object {
	o := NewInstance(c)
	o.str = s
	return o
}

// NewArray allocates a zero-filled array of the given array class.
func NewArray(arrayClass *Class, length int) *Object {
	elems := make([]Value, length)
	zero := zeroValueOf(arrayClass.ElemKind)
	for i := range elems {
		elems[i] = zero
	}
	return &Object{Class: arrayClass, elems: elems}
}

// zeroValueOf returns the default value for a field or element of kind k.
func zeroValueOf(k Kind) Value {
	switch k {
	case KindBoolean:
		return BooleanValue(false)
	case KindByte:
		return ByteValue(0)
	case KindChar:
		return CharValue(0)
	case KindShort:
		return ShortValue(0)
	case KindInt:
		return IntValue(0)
	case KindFloat:
		return FloatValue(0)
	case KindLong:
		return LongValue(0)
	case KindDouble:
		return DoubleValue(0)
	}
	return NullValue
}

// IsArray reports whether o is an array.
func (o *Object) IsArray() bool {
	return o.elems != nil || (o.Class != nil && o.Class.IsArray())
}

// Length returns the array length.
func (o *Object) Length() int {
	return len(o.elems)
}

// String returns the string content of a string-bearing instance.
func (o *Object) String() string {
	if o == nil {
		return "null"
	}
	if o.str != "" {
		return o.str
	}
	return o.Class.Name
}

// newarray component codes, fixed by the encoding.
const (
	atypeBoolean = 4
	atypeChar    = 5
	atypeFloat   = 6
	atypeDouble  = 7
	atypeByte    = 8
	atypeShort   = 9
	atypeInt     = 10
	atypeLong    = 11
)

func arrayTypeKind(code uint8) Kind {
	switch code {
	case atypeBoolean:
		return KindBoolean
	case atypeChar:
		return KindChar
	case atypeFloat:
		return KindFloat
	case atypeDouble:
		return KindDouble
	case atypeByte:
		return KindByte
	case atypeShort:
		return KindShort
	case atypeInt:
		return KindInt
	case atypeLong:
		return KindLong
	}
	return KindIllegal
}

func arrayTypeCode(k Kind) uint8 {
	switch k {
	case KindBoolean:
		return atypeBoolean
	case KindChar:
		return atypeChar
	case KindFloat:
		return atypeFloat
	case KindDouble:
		return atypeDouble
	case KindByte:
		return atypeByte
	case KindShort:
		return atypeShort
	case KindInt:
		return atypeInt
	case KindLong:
		return atypeLong
	}
	panic(&InvariantViolation{Reason: "no array type code for kind " + k.String()})
}
