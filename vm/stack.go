package vm

import "math"

// OperandStack is the per-frame evaluation stack. Primitives and references
// live in parallel arrays with a kind tag per slot, so the dup/swap family
// can move slots without knowing what they hold; long and double occupy two
// slots with the payload in the lower one. Pops are unchecked: code
// reaching the loop is assumed verified, and an out-of-range access is a
// host fault, not a guest one.
type OperandStack struct {
	kinds []Kind
	prims []uint64
	refs  []*Object
	sp    int
}

// NewOperandStack returns a stack with the given slot capacity. Two spare
// slots back the dup/swap family, which shuffles through the space just
// above the live top.
func NewOperandStack(maxStack int) *OperandStack {
	return &OperandStack{
		kinds: make([]Kind, maxStack+2),
		prims: make([]uint64, maxStack+2),
		refs:  make([]*Object, maxStack+2),
	}
}

// Depth returns the current slot count.
func (s *OperandStack) Depth() int {
	return s.sp
}

// TopKind returns the kind tag of the top slot.
func (s *OperandStack) TopKind() Kind {
	return s.kinds[s.sp-1]
}

// Clear drops every slot, releasing references.
func (s *OperandStack) Clear() {
	for i := 0; i < s.sp; i++ {
		s.refs[i] = nil
		s.kinds[i] = KindIllegal
	}
	s.sp = 0
}

func (s *OperandStack) PushInt(v int32) {
	s.kinds[s.sp] = KindInt
	s.prims[s.sp] = uint64(uint32(v))
	s.refs[s.sp] = nil
	s.sp++
}

func (s *OperandStack) PopInt() int32 {
	s.sp--
	return int32(uint32(s.prims[s.sp]))
}

func (s *OperandStack) PushLong(v int64) {
	s.kinds[s.sp] = KindLong
	s.kinds[s.sp+1] = KindIllegal
	s.prims[s.sp] = uint64(v)
	s.refs[s.sp] = nil
	s.refs[s.sp+1] = nil
	s.sp += 2
}

func (s *OperandStack) PopLong() int64 {
	s.sp -= 2
	return int64(s.prims[s.sp])
}

func (s *OperandStack) PushFloat(v float32) {
	s.kinds[s.sp] = KindFloat
	s.prims[s.sp] = uint64(math.Float32bits(v))
	s.refs[s.sp] = nil
	s.sp++
}

func (s *OperandStack) PopFloat() float32 {
	s.sp--
	return math.Float32frombits(uint32(s.prims[s.sp]))
}

func (s *OperandStack) PushDouble(v float64) {
	s.kinds[s.sp] = KindDouble
	s.kinds[s.sp+1] = KindIllegal
	s.prims[s.sp] = math.Float64bits(v)
	s.refs[s.sp] = nil
	s.refs[s.sp+1] = nil
	s.sp += 2
}

func (s *OperandStack) PopDouble() float64 {
	s.sp -= 2
	return math.Float64frombits(s.prims[s.sp])
}

func (s *OperandStack) PushRef(o *Object) {
	s.kinds[s.sp] = KindObject
	s.prims[s.sp] = 0
	s.refs[s.sp] = o
	s.sp++
}

func (s *OperandStack) PopRef() *Object {
	s.sp--
	o := s.refs[s.sp]
	s.refs[s.sp] = nil
	return o
}

// PeekRef returns the reference n slots below the top without popping; 0 is
// the top slot.
func (s *OperandStack) PeekRef(n int) *Object {
	return s.refs[s.sp-1-n]
}

// PushReturnAddress pushes a jsr return bci. Return addresses ride the
// primitive array under their own tag and never mix with references.
func (s *OperandStack) PushReturnAddress(bci int) {
	s.kinds[s.sp] = KindReturnAddress
	s.prims[s.sp] = uint64(bci)
	s.refs[s.sp] = nil
	s.sp++
}

func (s *OperandStack) PopReturnAddress() int {
	s.sp--
	return int(s.prims[s.sp])
}

// copySlot copies slot src to slot dst in all three arrays.
func (s *OperandStack) copySlot(dst, src int) {
	s.kinds[dst] = s.kinds[src]
	s.prims[dst] = s.prims[src]
	s.refs[dst] = s.refs[src]
}

// Pop drops one slot.
func (s *OperandStack) Pop() {
	s.sp--
	s.refs[s.sp] = nil
}

// Pop2 drops two slots.
func (s *OperandStack) Pop2() {
	s.sp -= 2
	s.refs[s.sp] = nil
	s.refs[s.sp+1] = nil
}

// Dup duplicates the top slot.
func (s *OperandStack) Dup() {
	s.copySlot(s.sp, s.sp-1)
	s.sp++
}

// DupX1 duplicates the top slot below the slot under it.
func (s *OperandStack) DupX1() {
	s.copySlot(s.sp, s.sp-1)
	s.copySlot(s.sp-1, s.sp-2)
	s.copySlot(s.sp-2, s.sp)
	s.sp++
}

// DupX2 duplicates the top slot three slots down.
func (s *OperandStack) DupX2() {
	s.copySlot(s.sp, s.sp-1)
	s.copySlot(s.sp-1, s.sp-2)
	s.copySlot(s.sp-2, s.sp-3)
	s.copySlot(s.sp-3, s.sp)
	s.sp++
}

// Dup2 duplicates the top two slots.
func (s *OperandStack) Dup2() {
	s.copySlot(s.sp, s.sp-2)
	s.copySlot(s.sp+1, s.sp-1)
	s.sp += 2
}

// Dup2X1 duplicates the top two slots below the slot under them.
func (s *OperandStack) Dup2X1() {
	s.copySlot(s.sp+1, s.sp-1)
	s.copySlot(s.sp, s.sp-2)
	s.copySlot(s.sp-1, s.sp-3)
	s.copySlot(s.sp-3, s.sp)
	s.copySlot(s.sp-2, s.sp+1)
	s.sp += 2
}

// Dup2X2 duplicates the top two slots below the two slots under them.
func (s *OperandStack) Dup2X2() {
	s.copySlot(s.sp+1, s.sp-1)
	s.copySlot(s.sp, s.sp-2)
	s.copySlot(s.sp-1, s.sp-3)
	s.copySlot(s.sp-2, s.sp-4)
	s.copySlot(s.sp-4, s.sp)
	s.copySlot(s.sp-3, s.sp+1)
	s.sp += 2
}

// Swap exchanges the top two slots.
func (s *OperandStack) Swap() {
	s.copySlot(s.sp, s.sp-1)
	s.copySlot(s.sp-1, s.sp-2)
	s.copySlot(s.sp-2, s.sp)
}
