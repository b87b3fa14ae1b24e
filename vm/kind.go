package vm

// Kind is the value category governing stack and local-slot operation
// selection. The int family (boolean, byte, char, short, int) shares the
// int stack kind; boolean/byte/char/short only matter at method-boundary
// narrowing and for typed field/array access.
type Kind uint8

const (
	KindIllegal Kind = iota
	KindBoolean
	KindByte
	KindChar
	KindShort
	KindInt
	KindFloat
	KindLong
	KindDouble
	KindObject
	KindReturnAddress
	KindVoid
)

var kindNames = [...]string{
	KindIllegal:       "illegal",
	KindBoolean:       "boolean",
	KindByte:          "byte",
	KindChar:          "char",
	KindShort:         "short",
	KindInt:           "int",
	KindFloat:         "float",
	KindLong:          "long",
	KindDouble:        "double",
	KindObject:        "object",
	KindReturnAddress: "returnAddress",
	KindVoid:          "void",
}

// String returns the kind's name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// SlotCount returns the number of stack/local slots a value of this kind
// occupies: 2 for long and double, 1 for everything else.
func (k Kind) SlotCount() int {
	if k == KindLong || k == KindDouble {
		return 2
	}
	return 1
}

// StackKind maps the int family down to KindInt, the tag actually used on
// the operand stack and in local slots.
func (k Kind) StackKind() Kind {
	switch k {
	case KindBoolean, KindByte, KindChar, KindShort:
		return KindInt
	}
	return k
}

// IsPrimitive reports whether the kind is one of the eight primitive kinds.
func (k Kind) IsPrimitive() bool {
	switch k {
	case KindBoolean, KindByte, KindChar, KindShort, KindInt, KindFloat, KindLong, KindDouble:
		return true
	}
	return false
}
