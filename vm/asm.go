package vm

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// Label is a forward- or backward-referencable position in code under
// construction. Branches to an unbound label are patched when Bind runs.
type Label struct {
	bound   bool
	bci     int
	patches []patchSite
}

// patchSite records a branch operand awaiting a label: the operand offset,
// its width in bytes, and the bci the offset is relative to.
type patchSite struct {
	at    int
	width int
	base  int
}

// CodeBuilder assembles a bytecode array. It exists for tests and for
// constructing method metadata by hand; it performs no verification.
type CodeBuilder struct {
	buf []byte
}

// NewCodeBuilder returns an empty builder.
func NewCodeBuilder() *CodeBuilder {
	return &CodeBuilder{}
}

// Here returns the bci the next emitted instruction will occupy.
func (b *CodeBuilder) Here() int {
	return len(b.buf)
}

// Bytes returns the assembled code. Panics if any label is still unbound.
func (b *CodeBuilder) Bytes() []byte {
	return b.buf
}

// Bind fixes label at the current position and patches every branch that
// referenced it.
func (b *CodeBuilder) Bind(label *Label) *CodeBuilder {
	if label.bound {
		panic("label bound twice")
	}
	label.bound = true
	label.bci = len(b.buf)
	for _, p := range label.patches {
		b.patchOffset(p, label.bci)
	}
	label.patches = nil
	return b
}

func (b *CodeBuilder) patchOffset(p patchSite, dest int) {
	off := dest - p.base
	switch p.width {
	case 2:
		if off < -32768 || off > 32767 {
			panic(fmt.Sprintf("branch offset %d out of 16-bit range", off))
		}
		binary.BigEndian.PutUint16(b.buf[p.at:], uint16(int16(off)))
	case 4:
		binary.BigEndian.PutUint32(b.buf[p.at:], uint32(int32(off)))
	}
}

func (b *CodeBuilder) emitRef(label *Label, width, base int) {
	site := patchSite{at: len(b.buf), width: width, base: base}
	for i := 0; i < width; i++ {
		b.buf = append(b.buf, 0)
	}
	if label.bound {
		b.patchOffset(site, label.bci)
	} else {
		label.patches = append(label.patches, site)
	}
}

// Op emits a bare opcode.
func (b *CodeBuilder) Op(op Opcode) *CodeBuilder {
	b.buf = append(b.buf, byte(op))
	return b
}

// OpU8 emits an opcode with one unsigned byte operand.
func (b *CodeBuilder) OpU8(op Opcode, v uint8) *CodeBuilder {
	b.buf = append(b.buf, byte(op), v)
	return b
}

// OpU16 emits an opcode with one big-endian unsigned short operand.
func (b *CodeBuilder) OpU16(op Opcode, v uint16) *CodeBuilder {
	b.buf = append(b.buf, byte(op), byte(v>>8), byte(v))
	return b
}

// Bipush emits bipush v.
func (b *CodeBuilder) Bipush(v int8) *CodeBuilder {
	return b.OpU8(BIPUSH, uint8(v))
}

// Sipush emits sipush v.
func (b *CodeBuilder) Sipush(v int16) *CodeBuilder {
	return b.OpU16(SIPUSH, uint16(v))
}

// PushInt emits the shortest encoding pushing the int constant v, falling
// back to sipush; constants beyond short range need an ldc and a pool slot.
func (b *CodeBuilder) PushInt(v int32) *CodeBuilder {
	switch {
	case v >= -1 && v <= 5:
		return b.Op(Opcode(int32(ICONST_0) + v))
	case v >= -128 && v <= 127:
		return b.Bipush(int8(v))
	case v >= -32768 && v <= 32767:
		return b.Sipush(int16(v))
	}
	panic(fmt.Sprintf("int constant %d needs a pool entry; use Ldc", v))
}

// Ldc emits ldc or ldc_w as the index requires.
func (b *CodeBuilder) Ldc(cpi uint16) *CodeBuilder {
	if cpi <= 0xFF {
		return b.OpU8(LDC, uint8(cpi))
	}
	return b.OpU16(LDC_W, cpi)
}

// Ldc2 emits ldc2_w.
func (b *CodeBuilder) Ldc2(cpi uint16) *CodeBuilder {
	return b.OpU16(LDC2_W, cpi)
}

// Load emits the load instruction for kind and slot, using the short forms
// when available.
func (b *CodeBuilder) Load(kind Kind, slot int) *CodeBuilder {
	return b.loadStore(kind, slot, ILOAD, ILOAD_0)
}

// Store emits the store instruction for kind and slot, using the short forms
// when available.
func (b *CodeBuilder) Store(kind Kind, slot int) *CodeBuilder {
	return b.loadStore(kind, slot, ISTORE, ISTORE_0)
}

var loadStoreRow = map[Kind]int{
	KindInt: 0, KindLong: 1, KindFloat: 2, KindDouble: 3, KindObject: 4,
}

func (b *CodeBuilder) loadStore(kind Kind, slot int, long, short Opcode) *CodeBuilder {
	row, ok := loadStoreRow[kind.StackKind()]
	if !ok {
		panic("no load/store for kind " + kind.String())
	}
	if slot <= 3 {
		return b.Op(short + Opcode(row*4+slot))
	}
	if slot <= 0xFF {
		return b.OpU8(long+Opcode(row), uint8(slot))
	}
	b.buf = append(b.buf, byte(WIDE), byte(long+Opcode(row)), byte(slot>>8), byte(slot))
	return b
}

// Iinc emits iinc (wide when slot or delta need it).
func (b *CodeBuilder) Iinc(slot int, delta int32) *CodeBuilder {
	if slot <= 0xFF && delta >= -128 && delta <= 127 {
		b.buf = append(b.buf, byte(IINC), byte(slot), byte(int8(delta)))
		return b
	}
	b.buf = append(b.buf, byte(WIDE), byte(IINC), byte(slot>>8), byte(slot), byte(delta>>8), byte(delta))
	return b
}

// Ret emits ret slot (wide when needed).
func (b *CodeBuilder) Ret(slot int) *CodeBuilder {
	if slot <= 0xFF {
		return b.OpU8(RET, uint8(slot))
	}
	b.buf = append(b.buf, byte(WIDE), byte(RET), byte(slot>>8), byte(slot))
	return b
}

// Branch emits a conditional or unconditional 16-bit branch to label.
func (b *CodeBuilder) Branch(op Opcode, label *Label) *CodeBuilder {
	base := len(b.buf)
	b.buf = append(b.buf, byte(op))
	b.emitRef(label, 2, base)
	return b
}

// Goto emits goto label.
func (b *CodeBuilder) Goto(label *Label) *CodeBuilder {
	return b.Branch(GOTO, label)
}

// GotoW emits goto_w label with a 32-bit offset.
func (b *CodeBuilder) GotoW(label *Label) *CodeBuilder {
	base := len(b.buf)
	b.buf = append(b.buf, byte(GOTO_W))
	b.emitRef(label, 4, base)
	return b
}

// Jsr emits jsr label.
func (b *CodeBuilder) Jsr(label *Label) *CodeBuilder {
	return b.Branch(JSR, label)
}

// Invoke emits an invoke instruction with a 2-byte pool index. The
// invokeinterface count/zero bytes are filled mechanically.
func (b *CodeBuilder) Invoke(op Opcode, cpi uint16) *CodeBuilder {
	b.OpU16(op, cpi)
	if op == INVOKEINTERFACE {
		b.buf = append(b.buf, 0, 0)
	}
	return b
}

// Field emits a getfield/putfield/getstatic/putstatic with a pool index.
func (b *CodeBuilder) Field(op Opcode, cpi uint16) *CodeBuilder {
	return b.OpU16(op, cpi)
}

// New emits new with a pool index.
func (b *CodeBuilder) New(cpi uint16) *CodeBuilder {
	return b.OpU16(NEW, cpi)
}

// NewArray emits newarray for a primitive component kind.
func (b *CodeBuilder) NewArray(kind Kind) *CodeBuilder {
	return b.OpU8(NEWARRAY, arrayTypeCode(kind))
}

// ANewArray emits anewarray with a pool index.
func (b *CodeBuilder) ANewArray(cpi uint16) *CodeBuilder {
	return b.OpU16(ANEWARRAY, cpi)
}

// MultiANewArray emits multianewarray.
func (b *CodeBuilder) MultiANewArray(cpi uint16, dims uint8) *CodeBuilder {
	b.OpU16(MULTIANEWARRAY, cpi)
	b.buf = append(b.buf, dims)
	return b
}

// TableSwitch emits a tableswitch with an aligned payload. dests[i] is the
// target for key low+i.
func (b *CodeBuilder) TableSwitch(low int32, def *Label, dests []*Label) *CodeBuilder {
	base := len(b.buf)
	b.buf = append(b.buf, byte(TABLESWITCH))
	for len(b.buf)%4 != 0 {
		b.buf = append(b.buf, 0)
	}
	b.emitRef(def, 4, base)
	var hi [4]byte
	binary.BigEndian.PutUint32(hi[:], uint32(low))
	b.buf = append(b.buf, hi[:]...)
	binary.BigEndian.PutUint32(hi[:], uint32(low+int32(len(dests))-1))
	b.buf = append(b.buf, hi[:]...)
	for _, d := range dests {
		b.emitRef(d, 4, base)
	}
	return b
}

// SwitchPair is one lookupswitch key/target pair.
type SwitchPair struct {
	Key  int32
	Dest *Label
}

// LookupSwitch emits a lookupswitch with an aligned payload. Pairs are
// sorted by key as the matcher requires.
func (b *CodeBuilder) LookupSwitch(def *Label, pairs []SwitchPair) *CodeBuilder {
	sorted := make([]SwitchPair, len(pairs))
	copy(sorted, pairs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	base := len(b.buf)
	b.buf = append(b.buf, byte(LOOKUPSWITCH))
	for len(b.buf)%4 != 0 {
		b.buf = append(b.buf, 0)
	}
	b.emitRef(def, 4, base)
	var word [4]byte
	binary.BigEndian.PutUint32(word[:], uint32(len(sorted)))
	b.buf = append(b.buf, word[:]...)
	for _, p := range sorted {
		binary.BigEndian.PutUint32(word[:], uint32(p.Key))
		b.buf = append(b.buf, word[:]...)
		b.emitRef(p.Dest, 4, base)
	}
	return b
}
