package vm

import (
	"fmt"
	"math"
)

// Frame is one activation: the method's local slot array plus its operand
// stack. Local slots are re-tagged on every write; a read whose accessor
// kind does not match the slot's current tag is an interpreter bug, not a
// guest condition, and panics as an invariant violation.
type Frame struct {
	method *Method
	kinds  []Kind
	prims  []uint64
	refs   []*Object
	stack  *OperandStack
}

// NewFrame returns a frame sized for method's code.
func NewFrame(method *Method) *Frame {
	code := method.Code
	return &Frame{
		method: method,
		kinds:  make([]Kind, code.MaxLocals),
		prims:  make([]uint64, code.MaxLocals),
		refs:   make([]*Object, code.MaxLocals),
		stack:  NewOperandStack(code.MaxStack),
	}
}

func (f *Frame) checkKind(slot int, want Kind) {
	if f.kinds[slot] != want {
		panic(&InvariantViolation{Reason: fmt.Sprintf(
			"local %d of %s read as %s but holds %s",
			slot, f.method.Name, want, f.kinds[slot])})
	}
}

func (f *Frame) SetInt(slot int, v int32) {
	f.kinds[slot] = KindInt
	f.prims[slot] = uint64(uint32(v))
	f.refs[slot] = nil
}

func (f *Frame) GetInt(slot int) int32 {
	f.checkKind(slot, KindInt)
	return int32(uint32(f.prims[slot]))
}

func (f *Frame) SetLong(slot int, v int64) {
	f.kinds[slot] = KindLong
	f.kinds[slot+1] = KindIllegal
	f.prims[slot] = uint64(v)
	f.refs[slot] = nil
	f.refs[slot+1] = nil
}

func (f *Frame) GetLong(slot int) int64 {
	f.checkKind(slot, KindLong)
	return int64(f.prims[slot])
}

func (f *Frame) SetFloat(slot int, v float32) {
	f.kinds[slot] = KindFloat
	f.prims[slot] = uint64(math.Float32bits(v))
	f.refs[slot] = nil
}

func (f *Frame) GetFloat(slot int) float32 {
	f.checkKind(slot, KindFloat)
	return math.Float32frombits(uint32(f.prims[slot]))
}

func (f *Frame) SetDouble(slot int, v float64) {
	f.kinds[slot] = KindDouble
	f.kinds[slot+1] = KindIllegal
	f.prims[slot] = math.Float64bits(v)
	f.refs[slot] = nil
	f.refs[slot+1] = nil
}

func (f *Frame) GetDouble(slot int) float64 {
	f.checkKind(slot, KindDouble)
	return math.Float64frombits(f.prims[slot])
}

func (f *Frame) SetRef(slot int, o *Object) {
	f.kinds[slot] = KindObject
	f.prims[slot] = 0
	f.refs[slot] = o
}

func (f *Frame) GetRef(slot int) *Object {
	f.checkKind(slot, KindObject)
	return f.refs[slot]
}

// SetReturnAddress stores a jsr return bci. Distinct from references on
// purpose: ret must never consume an object and aload must never consume a
// return address.
func (f *Frame) SetReturnAddress(slot int, bci int) {
	f.kinds[slot] = KindReturnAddress
	f.prims[slot] = uint64(bci)
	f.refs[slot] = nil
}

func (f *Frame) GetReturnAddress(slot int) int {
	f.checkKind(slot, KindReturnAddress)
	return int(f.prims[slot])
}
