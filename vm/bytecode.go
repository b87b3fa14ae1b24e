package vm

import "fmt"

// Opcode is a single bytecode instruction byte.
type Opcode byte

// Constants and stack manipulation.
const (
	NOP         Opcode = 0x00
	ACONST_NULL Opcode = 0x01
	ICONST_M1   Opcode = 0x02
	ICONST_0    Opcode = 0x03
	ICONST_1    Opcode = 0x04
	ICONST_2    Opcode = 0x05
	ICONST_3    Opcode = 0x06
	ICONST_4    Opcode = 0x07
	ICONST_5    Opcode = 0x08
	LCONST_0    Opcode = 0x09
	LCONST_1    Opcode = 0x0A
	FCONST_0    Opcode = 0x0B
	FCONST_1    Opcode = 0x0C
	FCONST_2    Opcode = 0x0D
	DCONST_0    Opcode = 0x0E
	DCONST_1    Opcode = 0x0F
	BIPUSH      Opcode = 0x10
	SIPUSH      Opcode = 0x11
	LDC         Opcode = 0x12
	LDC_W       Opcode = 0x13
	LDC2_W      Opcode = 0x14
)

// Local loads.
const (
	ILOAD   Opcode = 0x15
	LLOAD   Opcode = 0x16
	FLOAD   Opcode = 0x17
	DLOAD   Opcode = 0x18
	ALOAD   Opcode = 0x19
	ILOAD_0 Opcode = 0x1A
	ILOAD_1 Opcode = 0x1B
	ILOAD_2 Opcode = 0x1C
	ILOAD_3 Opcode = 0x1D
	LLOAD_0 Opcode = 0x1E
	LLOAD_1 Opcode = 0x1F
	LLOAD_2 Opcode = 0x20
	LLOAD_3 Opcode = 0x21
	FLOAD_0 Opcode = 0x22
	FLOAD_1 Opcode = 0x23
	FLOAD_2 Opcode = 0x24
	FLOAD_3 Opcode = 0x25
	DLOAD_0 Opcode = 0x26
	DLOAD_1 Opcode = 0x27
	DLOAD_2 Opcode = 0x28
	DLOAD_3 Opcode = 0x29
	ALOAD_0 Opcode = 0x2A
	ALOAD_1 Opcode = 0x2B
	ALOAD_2 Opcode = 0x2C
	ALOAD_3 Opcode = 0x2D
)

// Array loads.
const (
	IALOAD Opcode = 0x2E
	LALOAD Opcode = 0x2F
	FALOAD Opcode = 0x30
	DALOAD Opcode = 0x31
	AALOAD Opcode = 0x32
	BALOAD Opcode = 0x33
	CALOAD Opcode = 0x34
	SALOAD Opcode = 0x35
)

// Local stores.
const (
	ISTORE   Opcode = 0x36
	LSTORE   Opcode = 0x37
	FSTORE   Opcode = 0x38
	DSTORE   Opcode = 0x39
	ASTORE   Opcode = 0x3A
	ISTORE_0 Opcode = 0x3B
	ISTORE_1 Opcode = 0x3C
	ISTORE_2 Opcode = 0x3D
	ISTORE_3 Opcode = 0x3E
	LSTORE_0 Opcode = 0x3F
	LSTORE_1 Opcode = 0x40
	LSTORE_2 Opcode = 0x41
	LSTORE_3 Opcode = 0x42
	FSTORE_0 Opcode = 0x43
	FSTORE_1 Opcode = 0x44
	FSTORE_2 Opcode = 0x45
	FSTORE_3 Opcode = 0x46
	DSTORE_0 Opcode = 0x47
	DSTORE_1 Opcode = 0x48
	DSTORE_2 Opcode = 0x49
	DSTORE_3 Opcode = 0x4A
	ASTORE_0 Opcode = 0x4B
	ASTORE_1 Opcode = 0x4C
	ASTORE_2 Opcode = 0x4D
	ASTORE_3 Opcode = 0x4E
)

// Array stores.
const (
	IASTORE Opcode = 0x4F
	LASTORE Opcode = 0x50
	FASTORE Opcode = 0x51
	DASTORE Opcode = 0x52
	AASTORE Opcode = 0x53
	BASTORE Opcode = 0x54
	CASTORE Opcode = 0x55
	SASTORE Opcode = 0x56
)

// Stack manipulation.
const (
	POP     Opcode = 0x57
	POP2    Opcode = 0x58
	DUP     Opcode = 0x59
	DUP_X1  Opcode = 0x5A
	DUP_X2  Opcode = 0x5B
	DUP2    Opcode = 0x5C
	DUP2_X1 Opcode = 0x5D
	DUP2_X2 Opcode = 0x5E
	SWAP    Opcode = 0x5F
)

// Arithmetic.
const (
	IADD  Opcode = 0x60
	LADD  Opcode = 0x61
	FADD  Opcode = 0x62
	DADD  Opcode = 0x63
	ISUB  Opcode = 0x64
	LSUB  Opcode = 0x65
	FSUB  Opcode = 0x66
	DSUB  Opcode = 0x67
	IMUL  Opcode = 0x68
	LMUL  Opcode = 0x69
	FMUL  Opcode = 0x6A
	DMUL  Opcode = 0x6B
	IDIV  Opcode = 0x6C
	LDIV  Opcode = 0x6D
	FDIV  Opcode = 0x6E
	DDIV  Opcode = 0x6F
	IREM  Opcode = 0x70
	LREM  Opcode = 0x71
	FREM  Opcode = 0x72
	DREM  Opcode = 0x73
	INEG  Opcode = 0x74
	LNEG  Opcode = 0x75
	FNEG  Opcode = 0x76
	DNEG  Opcode = 0x77
	ISHL  Opcode = 0x78
	LSHL  Opcode = 0x79
	ISHR  Opcode = 0x7A
	LSHR  Opcode = 0x7B
	IUSHR Opcode = 0x7C
	LUSHR Opcode = 0x7D
	IAND  Opcode = 0x7E
	LAND  Opcode = 0x7F
	IOR   Opcode = 0x80
	LOR   Opcode = 0x81
	IXOR  Opcode = 0x82
	LXOR  Opcode = 0x83
	IINC  Opcode = 0x84
)

// Conversions.
const (
	I2L Opcode = 0x85
	I2F Opcode = 0x86
	I2D Opcode = 0x87
	L2I Opcode = 0x88
	L2F Opcode = 0x89
	L2D Opcode = 0x8A
	F2I Opcode = 0x8B
	F2L Opcode = 0x8C
	F2D Opcode = 0x8D
	D2I Opcode = 0x8E
	D2L Opcode = 0x8F
	D2F Opcode = 0x90
	I2B Opcode = 0x91
	I2C Opcode = 0x92
	I2S Opcode = 0x93
)

// Comparisons and branches.
const (
	LCMP      Opcode = 0x94
	FCMPL     Opcode = 0x95
	FCMPG     Opcode = 0x96
	DCMPL     Opcode = 0x97
	DCMPG     Opcode = 0x98
	IFEQ      Opcode = 0x99
	IFNE      Opcode = 0x9A
	IFLT      Opcode = 0x9B
	IFGE      Opcode = 0x9C
	IFGT      Opcode = 0x9D
	IFLE      Opcode = 0x9E
	IF_ICMPEQ Opcode = 0x9F
	IF_ICMPNE Opcode = 0xA0
	IF_ICMPLT Opcode = 0xA1
	IF_ICMPGE Opcode = 0xA2
	IF_ICMPGT Opcode = 0xA3
	IF_ICMPLE Opcode = 0xA4
	IF_ACMPEQ Opcode = 0xA5
	IF_ACMPNE Opcode = 0xA6
	GOTO      Opcode = 0xA7
	JSR       Opcode = 0xA8
	RET       Opcode = 0xA9
)

// Switches and returns.
const (
	TABLESWITCH  Opcode = 0xAA
	LOOKUPSWITCH Opcode = 0xAB
	IRETURN      Opcode = 0xAC
	LRETURN      Opcode = 0xAD
	FRETURN      Opcode = 0xAE
	DRETURN      Opcode = 0xAF
	ARETURN      Opcode = 0xB0
	RETURN       Opcode = 0xB1
)

// Field access, invocation, allocation, type checks, monitors.
const (
	GETSTATIC       Opcode = 0xB2
	PUTSTATIC       Opcode = 0xB3
	GETFIELD        Opcode = 0xB4
	PUTFIELD        Opcode = 0xB5
	INVOKEVIRTUAL   Opcode = 0xB6
	INVOKESPECIAL   Opcode = 0xB7
	INVOKESTATIC    Opcode = 0xB8
	INVOKEINTERFACE Opcode = 0xB9
	INVOKEDYNAMIC   Opcode = 0xBA
	NEW             Opcode = 0xBB
	NEWARRAY        Opcode = 0xBC
	ANEWARRAY       Opcode = 0xBD
	ARRAYLENGTH     Opcode = 0xBE
	ATHROW          Opcode = 0xBF
	CHECKCAST       Opcode = 0xC0
	INSTANCEOF      Opcode = 0xC1
	MONITORENTER    Opcode = 0xC2
	MONITOREXIT     Opcode = 0xC3
	WIDE            Opcode = 0xC4
	MULTIANEWARRAY  Opcode = 0xC5
	IFNULL          Opcode = 0xC6
	IFNONNULL       Opcode = 0xC7
	GOTO_W          Opcode = 0xC8
	JSR_W           Opcode = 0xC9
	BREAKPOINT      Opcode = 0xCA
)

// Quickened invoke forms. Never present in loaded code; installed by the
// call-site cache after first resolution. Their 2-byte operand is an index
// into the method's call-site arena instead of a constant-pool index.
const (
	QUICK_INVOKEVIRTUAL   Opcode = 0xD6
	QUICK_INVOKESPECIAL   Opcode = 0xD7
	QUICK_INVOKESTATIC    Opcode = 0xD8
	QUICK_INVOKEINTERFACE Opcode = 0xD9
)

// IsQuickened reports whether op is one of the quick invoke forms.
func (op Opcode) IsQuickened() bool {
	return op >= QUICK_INVOKEVIRTUAL && op <= QUICK_INVOKEINTERFACE
}

// OpcodeInfo holds decode metadata for an opcode.
type OpcodeInfo struct {
	Name   string
	Length int // total instruction length in bytes; -1 = variable
}

var opcodeTable = map[Opcode]OpcodeInfo{
	NOP: {"nop", 1}, ACONST_NULL: {"aconst_null", 1},
	ICONST_M1: {"iconst_m1", 1}, ICONST_0: {"iconst_0", 1}, ICONST_1: {"iconst_1", 1},
	ICONST_2: {"iconst_2", 1}, ICONST_3: {"iconst_3", 1}, ICONST_4: {"iconst_4", 1}, ICONST_5: {"iconst_5", 1},
	LCONST_0: {"lconst_0", 1}, LCONST_1: {"lconst_1", 1},
	FCONST_0: {"fconst_0", 1}, FCONST_1: {"fconst_1", 1}, FCONST_2: {"fconst_2", 1},
	DCONST_0: {"dconst_0", 1}, DCONST_1: {"dconst_1", 1},
	BIPUSH: {"bipush", 2}, SIPUSH: {"sipush", 3},
	LDC: {"ldc", 2}, LDC_W: {"ldc_w", 3}, LDC2_W: {"ldc2_w", 3},

	ILOAD: {"iload", 2}, LLOAD: {"lload", 2}, FLOAD: {"fload", 2}, DLOAD: {"dload", 2}, ALOAD: {"aload", 2},
	ILOAD_0: {"iload_0", 1}, ILOAD_1: {"iload_1", 1}, ILOAD_2: {"iload_2", 1}, ILOAD_3: {"iload_3", 1},
	LLOAD_0: {"lload_0", 1}, LLOAD_1: {"lload_1", 1}, LLOAD_2: {"lload_2", 1}, LLOAD_3: {"lload_3", 1},
	FLOAD_0: {"fload_0", 1}, FLOAD_1: {"fload_1", 1}, FLOAD_2: {"fload_2", 1}, FLOAD_3: {"fload_3", 1},
	DLOAD_0: {"dload_0", 1}, DLOAD_1: {"dload_1", 1}, DLOAD_2: {"dload_2", 1}, DLOAD_3: {"dload_3", 1},
	ALOAD_0: {"aload_0", 1}, ALOAD_1: {"aload_1", 1}, ALOAD_2: {"aload_2", 1}, ALOAD_3: {"aload_3", 1},

	IALOAD: {"iaload", 1}, LALOAD: {"laload", 1}, FALOAD: {"faload", 1}, DALOAD: {"daload", 1},
	AALOAD: {"aaload", 1}, BALOAD: {"baload", 1}, CALOAD: {"caload", 1}, SALOAD: {"saload", 1},

	ISTORE: {"istore", 2}, LSTORE: {"lstore", 2}, FSTORE: {"fstore", 2}, DSTORE: {"dstore", 2}, ASTORE: {"astore", 2},
	ISTORE_0: {"istore_0", 1}, ISTORE_1: {"istore_1", 1}, ISTORE_2: {"istore_2", 1}, ISTORE_3: {"istore_3", 1},
	LSTORE_0: {"lstore_0", 1}, LSTORE_1: {"lstore_1", 1}, LSTORE_2: {"lstore_2", 1}, LSTORE_3: {"lstore_3", 1},
	FSTORE_0: {"fstore_0", 1}, FSTORE_1: {"fstore_1", 1}, FSTORE_2: {"fstore_2", 1}, FSTORE_3: {"fstore_3", 1},
	DSTORE_0: {"dstore_0", 1}, DSTORE_1: {"dstore_1", 1}, DSTORE_2: {"dstore_2", 1}, DSTORE_3: {"dstore_3", 1},
	ASTORE_0: {"astore_0", 1}, ASTORE_1: {"astore_1", 1}, ASTORE_2: {"astore_2", 1}, ASTORE_3: {"astore_3", 1},

	IASTORE: {"iastore", 1}, LASTORE: {"lastore", 1}, FASTORE: {"fastore", 1}, DASTORE: {"dastore", 1},
	AASTORE: {"aastore", 1}, BASTORE: {"bastore", 1}, CASTORE: {"castore", 1}, SASTORE: {"sastore", 1},

	POP: {"pop", 1}, POP2: {"pop2", 1},
	DUP: {"dup", 1}, DUP_X1: {"dup_x1", 1}, DUP_X2: {"dup_x2", 1},
	DUP2: {"dup2", 1}, DUP2_X1: {"dup2_x1", 1}, DUP2_X2: {"dup2_x2", 1},
	SWAP: {"swap", 1},

	IADD: {"iadd", 1}, LADD: {"ladd", 1}, FADD: {"fadd", 1}, DADD: {"dadd", 1},
	ISUB: {"isub", 1}, LSUB: {"lsub", 1}, FSUB: {"fsub", 1}, DSUB: {"dsub", 1},
	IMUL: {"imul", 1}, LMUL: {"lmul", 1}, FMUL: {"fmul", 1}, DMUL: {"dmul", 1},
	IDIV: {"idiv", 1}, LDIV: {"ldiv", 1}, FDIV: {"fdiv", 1}, DDIV: {"ddiv", 1},
	IREM: {"irem", 1}, LREM: {"lrem", 1}, FREM: {"frem", 1}, DREM: {"drem", 1},
	INEG: {"ineg", 1}, LNEG: {"lneg", 1}, FNEG: {"fneg", 1}, DNEG: {"dneg", 1},
	ISHL: {"ishl", 1}, LSHL: {"lshl", 1}, ISHR: {"ishr", 1}, LSHR: {"lshr", 1},
	IUSHR: {"iushr", 1}, LUSHR: {"lushr", 1},
	IAND: {"iand", 1}, LAND: {"land", 1}, IOR: {"ior", 1}, LOR: {"lor", 1},
	IXOR: {"ixor", 1}, LXOR: {"lxor", 1},
	IINC: {"iinc", 3},

	I2L: {"i2l", 1}, I2F: {"i2f", 1}, I2D: {"i2d", 1},
	L2I: {"l2i", 1}, L2F: {"l2f", 1}, L2D: {"l2d", 1},
	F2I: {"f2i", 1}, F2L: {"f2l", 1}, F2D: {"f2d", 1},
	D2I: {"d2i", 1}, D2L: {"d2l", 1}, D2F: {"d2f", 1},
	I2B: {"i2b", 1}, I2C: {"i2c", 1}, I2S: {"i2s", 1},

	LCMP: {"lcmp", 1}, FCMPL: {"fcmpl", 1}, FCMPG: {"fcmpg", 1}, DCMPL: {"dcmpl", 1}, DCMPG: {"dcmpg", 1},
	IFEQ: {"ifeq", 3}, IFNE: {"ifne", 3}, IFLT: {"iflt", 3}, IFGE: {"ifge", 3}, IFGT: {"ifgt", 3}, IFLE: {"ifle", 3},
	IF_ICMPEQ: {"if_icmpeq", 3}, IF_ICMPNE: {"if_icmpne", 3}, IF_ICMPLT: {"if_icmplt", 3},
	IF_ICMPGE: {"if_icmpge", 3}, IF_ICMPGT: {"if_icmpgt", 3}, IF_ICMPLE: {"if_icmple", 3},
	IF_ACMPEQ: {"if_acmpeq", 3}, IF_ACMPNE: {"if_acmpne", 3},
	GOTO: {"goto", 3}, JSR: {"jsr", 3}, RET: {"ret", 2},

	TABLESWITCH: {"tableswitch", -1}, LOOKUPSWITCH: {"lookupswitch", -1},
	IRETURN: {"ireturn", 1}, LRETURN: {"lreturn", 1}, FRETURN: {"freturn", 1},
	DRETURN: {"dreturn", 1}, ARETURN: {"areturn", 1}, RETURN: {"return", 1},

	GETSTATIC: {"getstatic", 3}, PUTSTATIC: {"putstatic", 3},
	GETFIELD: {"getfield", 3}, PUTFIELD: {"putfield", 3},
	INVOKEVIRTUAL: {"invokevirtual", 3}, INVOKESPECIAL: {"invokespecial", 3},
	INVOKESTATIC: {"invokestatic", 3}, INVOKEINTERFACE: {"invokeinterface", 5},
	INVOKEDYNAMIC: {"invokedynamic", 5},
	NEW:           {"new", 3}, NEWARRAY: {"newarray", 2}, ANEWARRAY: {"anewarray", 3},
	ARRAYLENGTH: {"arraylength", 1}, ATHROW: {"athrow", 1},
	CHECKCAST: {"checkcast", 3}, INSTANCEOF: {"instanceof", 3},
	MONITORENTER: {"monitorenter", 1}, MONITOREXIT: {"monitorexit", 1},
	WIDE:           {"wide", -1},
	MULTIANEWARRAY: {"multianewarray", 4},
	IFNULL:         {"ifnull", 3}, IFNONNULL: {"ifnonnull", 3},
	GOTO_W: {"goto_w", 5}, JSR_W: {"jsr_w", 5},
	BREAKPOINT: {"breakpoint", 1},

	QUICK_INVOKEVIRTUAL:   {"invokevirtual_quick", 3},
	QUICK_INVOKESPECIAL:   {"invokespecial_quick", 3},
	QUICK_INVOKESTATIC:    {"invokestatic_quick", 3},
	QUICK_INVOKEINTERFACE: {"invokeinterface_quick", 3},
}

// Info returns the decode metadata for an opcode.
func (op Opcode) Info() OpcodeInfo {
	if info, ok := opcodeTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("unknown_%02X", byte(op)), Length: 1}
}

// Name returns the mnemonic for an opcode.
func (op Opcode) Name() string {
	return op.Info().Name
}

// String implements the Stringer interface.
func (op Opcode) String() string {
	return op.Name()
}
