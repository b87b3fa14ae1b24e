package vm

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// CodeStream is a stateless reader over an immutable bytecode array. All
// methods take an explicit bci; nothing is cached, so a single value may be
// shared by any number of frames.
type CodeStream struct {
	code []byte
}

// NewCodeStream returns a reader over code. The slice is not copied; callers
// must not mutate it.
func NewCodeStream(code []byte) CodeStream {
	return CodeStream{code: code}
}

// Len returns the code length in bytes.
func (s CodeStream) Len() int {
	return len(s.code)
}

// OpcodeAt returns the opcode byte at bci.
func (s CodeStream) OpcodeAt(bci int) Opcode {
	return Opcode(s.code[bci])
}

// ReadUint8 returns the unsigned byte operand at off.
func (s CodeStream) ReadUint8(off int) uint8 {
	return s.code[off]
}

// ReadInt8 returns the signed byte operand at off.
func (s CodeStream) ReadInt8(off int) int8 {
	return int8(s.code[off])
}

// ReadUint16 returns the big-endian unsigned short operand at off.
func (s CodeStream) ReadUint16(off int) uint16 {
	return binary.BigEndian.Uint16(s.code[off:])
}

// ReadInt16 returns the big-endian signed short operand at off.
func (s CodeStream) ReadInt16(off int) int16 {
	return int16(binary.BigEndian.Uint16(s.code[off:]))
}

// ReadInt32 returns the big-endian signed int operand at off.
func (s CodeStream) ReadInt32(off int) int32 {
	return int32(binary.BigEndian.Uint32(s.code[off:]))
}

// IsWide reports whether the instruction at bci carries the wide prefix.
func (s CodeStream) IsWide(bci int) bool {
	return Opcode(s.code[bci]) == WIDE
}

// WideOpcodeAt returns the effective opcode at bci, looking through a wide
// prefix.
func (s CodeStream) WideOpcodeAt(bci int) Opcode {
	if s.IsWide(bci) {
		return Opcode(s.code[bci+1])
	}
	return Opcode(s.code[bci])
}

// LocalIndex returns the local-slot operand of the load/store/ret/iinc
// instruction at bci, honoring the wide prefix.
func (s CodeStream) LocalIndex(bci int) int {
	if s.IsWide(bci) {
		return int(s.ReadUint16(bci + 2))
	}
	return int(s.ReadUint8(bci + 1))
}

// IincDelta returns the increment operand of the iinc at bci, honoring the
// wide prefix.
func (s CodeStream) IincDelta(bci int) int32 {
	if s.IsWide(bci) {
		return int32(s.ReadInt16(bci + 4))
	}
	return int32(s.ReadInt8(bci + 2))
}

// CPIndex returns the 2-byte constant-pool (or arena) index operand at bci.
func (s CodeStream) CPIndex(bci int) uint16 {
	return s.ReadUint16(bci + 1)
}

// BranchDest returns the absolute branch target of the instruction at bci.
// goto_w and jsr_w carry a 4-byte offset, every other branch a 2-byte one.
func (s CodeStream) BranchDest(bci int) int {
	op := Opcode(s.code[bci])
	if op == GOTO_W || op == JSR_W {
		return bci + int(s.ReadInt32(bci+1))
	}
	return bci + int(s.ReadInt16(bci+1))
}

// NextBCI returns the bci of the instruction following the one at bci.
func (s CodeStream) NextBCI(bci int) int {
	op := Opcode(s.code[bci])
	switch op {
	case WIDE:
		if Opcode(s.code[bci+1]) == IINC {
			return bci + 6
		}
		return bci + 4
	case TABLESWITCH:
		ts := s.TableSwitchAt(bci)
		return ts.payload + 12 + 4*ts.Count()
	case LOOKUPSWITCH:
		ls := s.LookupSwitchAt(bci)
		return ls.payload + 8 + 8*ls.Count()
	}
	return bci + op.Info().Length
}

// alignUp4 rounds off up to the next 4-byte boundary relative to the code
// start; switch payloads are aligned this way.
func alignUp4(off int) int {
	return (off + 3) &^ 3
}

// TableSwitch is a view over a tableswitch payload.
type TableSwitch struct {
	s       CodeStream
	bci     int
	payload int
}

// TableSwitchAt returns a view over the tableswitch at bci.
func (s CodeStream) TableSwitchAt(bci int) TableSwitch {
	return TableSwitch{s: s, bci: bci, payload: alignUp4(bci + 1)}
}

// DefaultDest returns the absolute default target.
func (t TableSwitch) DefaultDest() int {
	return t.bci + int(t.s.ReadInt32(t.payload))
}

// Low returns the lowest matched key.
func (t TableSwitch) Low() int32 {
	return t.s.ReadInt32(t.payload + 4)
}

// High returns the highest matched key.
func (t TableSwitch) High() int32 {
	return t.s.ReadInt32(t.payload + 8)
}

// Count returns the number of jump entries.
func (t TableSwitch) Count() int {
	return int(t.High()-t.Low()) + 1
}

// DestAt returns the absolute target of entry i.
func (t TableSwitch) DestAt(i int) int {
	return t.bci + int(t.s.ReadInt32(t.payload+12+4*i))
}

// LookupSwitch is a view over a lookupswitch payload. Pairs are sorted by
// key, which the binary-search matcher relies on.
type LookupSwitch struct {
	s       CodeStream
	bci     int
	payload int
}

// LookupSwitchAt returns a view over the lookupswitch at bci.
func (s CodeStream) LookupSwitchAt(bci int) LookupSwitch {
	return LookupSwitch{s: s, bci: bci, payload: alignUp4(bci + 1)}
}

// DefaultDest returns the absolute default target.
func (l LookupSwitch) DefaultDest() int {
	return l.bci + int(l.s.ReadInt32(l.payload))
}

// Count returns the number of key/target pairs.
func (l LookupSwitch) Count() int {
	return int(l.s.ReadInt32(l.payload + 4))
}

// KeyAt returns the key of pair i.
func (l LookupSwitch) KeyAt(i int) int32 {
	return l.s.ReadInt32(l.payload + 8 + 8*i)
}

// DestAt returns the absolute target of pair i.
func (l LookupSwitch) DestAt(i int) int {
	return l.bci + int(l.s.ReadInt32(l.payload+8+8*i+4))
}

// Match binary-searches the sorted pairs for key and returns its target, or
// the default target when absent.
func (l LookupSwitch) Match(key int32) int {
	lo, hi := 0, l.Count()-1
	for lo <= hi {
		mid := (lo + hi) / 2
		k := l.KeyAt(mid)
		switch {
		case key < k:
			hi = mid - 1
		case key > k:
			lo = mid + 1
		default:
			return l.DestAt(mid)
		}
	}
	return l.DefaultDest()
}

// Disassemble renders the whole stream, one instruction per line, for trace
// logging and test failure output.
func (s CodeStream) Disassemble() string {
	var b strings.Builder
	for bci := 0; bci < len(s.code); bci = s.NextBCI(bci) {
		b.WriteString(s.DisassembleAt(bci))
		b.WriteByte('\n')
	}
	return b.String()
}

// DisassembleAt renders the single instruction at bci.
func (s CodeStream) DisassembleAt(bci int) string {
	op := Opcode(s.code[bci])
	switch op {
	case BIPUSH:
		return fmt.Sprintf("%4d: bipush %d", bci, s.ReadInt8(bci+1))
	case SIPUSH:
		return fmt.Sprintf("%4d: sipush %d", bci, s.ReadInt16(bci+1))
	case LDC:
		return fmt.Sprintf("%4d: ldc #%d", bci, s.ReadUint8(bci+1))
	case LDC_W, LDC2_W, GETSTATIC, PUTSTATIC, GETFIELD, PUTFIELD,
		INVOKEVIRTUAL, INVOKESPECIAL, INVOKESTATIC,
		NEW, ANEWARRAY, CHECKCAST, INSTANCEOF,
		QUICK_INVOKEVIRTUAL, QUICK_INVOKESPECIAL, QUICK_INVOKESTATIC, QUICK_INVOKEINTERFACE:
		return fmt.Sprintf("%4d: %s #%d", bci, op.Name(), s.CPIndex(bci))
	case INVOKEINTERFACE, INVOKEDYNAMIC:
		return fmt.Sprintf("%4d: %s #%d", bci, op.Name(), s.CPIndex(bci))
	case ILOAD, LLOAD, FLOAD, DLOAD, ALOAD,
		ISTORE, LSTORE, FSTORE, DSTORE, ASTORE, RET:
		return fmt.Sprintf("%4d: %s %d", bci, op.Name(), s.ReadUint8(bci+1))
	case IINC:
		return fmt.Sprintf("%4d: iinc %d %d", bci, s.ReadUint8(bci+1), s.ReadInt8(bci+2))
	case WIDE:
		inner := Opcode(s.code[bci+1])
		if inner == IINC {
			return fmt.Sprintf("%4d: wide iinc %d %d", bci, s.ReadUint16(bci+2), s.ReadInt16(bci+4))
		}
		return fmt.Sprintf("%4d: wide %s %d", bci, inner.Name(), s.ReadUint16(bci+2))
	case IFEQ, IFNE, IFLT, IFGE, IFGT, IFLE,
		IF_ICMPEQ, IF_ICMPNE, IF_ICMPLT, IF_ICMPGE, IF_ICMPGT, IF_ICMPLE,
		IF_ACMPEQ, IF_ACMPNE, IFNULL, IFNONNULL, GOTO, JSR, GOTO_W, JSR_W:
		return fmt.Sprintf("%4d: %s %d", bci, op.Name(), s.BranchDest(bci))
	case TABLESWITCH:
		ts := s.TableSwitchAt(bci)
		return fmt.Sprintf("%4d: tableswitch [%d..%d] default=%d", bci, ts.Low(), ts.High(), ts.DefaultDest())
	case LOOKUPSWITCH:
		ls := s.LookupSwitchAt(bci)
		return fmt.Sprintf("%4d: lookupswitch pairs=%d default=%d", bci, ls.Count(), ls.DefaultDest())
	case NEWARRAY:
		return fmt.Sprintf("%4d: newarray %s", bci, arrayTypeKind(s.ReadUint8(bci+1)))
	case MULTIANEWARRAY:
		return fmt.Sprintf("%4d: multianewarray #%d dims=%d", bci, s.CPIndex(bci), s.ReadUint8(bci+3))
	}
	return fmt.Sprintf("%4d: %s", bci, op.Name())
}
