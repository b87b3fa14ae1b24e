package vm

import (
	"fmt"
	"math"

	"github.com/tliron/commonlog"
)

// Interpreter executes method bodies against a Machine. One Interpreter
// serves one goroutine; any number may share a Machine and its methods,
// and call-site quickening stays coherent across them.
type Interpreter struct {
	machine *Machine
	config  Config
	log     commonlog.Logger
	depth   int
}

// NewInterpreter returns an interpreter over m with the given config.
func NewInterpreter(m *Machine, cfg Config) *Interpreter {
	return &Interpreter{
		machine: m,
		config:  cfg,
		log:     commonlog.GetLogger("kava.vm"),
	}
}

// Machine returns the backing machine.
func (in *Interpreter) Machine() *Machine {
	return in.machine
}

// Execute runs method with the given arguments (receiver first for instance
// methods). A guest exception no frame handles comes back as *GuestError;
// invariant violations stay panics.
func (in *Interpreter) Execute(method *Method, args []Value) (result Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			if t, ok := r.(guestThrow); ok {
				result = NoValue
				err = &GuestError{Exception: t.exception}
				return
			}
			panic(r)
		}
	}()
	return in.callMethod(method, args), nil
}

// callMethod runs one activation and returns its result. Guest exceptions
// leave by panic.
func (in *Interpreter) callMethod(method *Method, args []Value) Value {
	if method.IsAbstract() {
		in.machine.ThrowFault(FaultAbstractMethod, method.QualifiedName())
	}
	if in.depth >= in.config.MaxFrames {
		in.machine.ThrowFault(FaultStackOverflow, fmt.Sprintf("depth %d", in.depth))
	}
	in.depth++
	defer func() { in.depth-- }()

	frame := NewFrame(method)
	in.initArgs(frame, method, args)
	return in.runFrame(method, frame)
}

// initArgs seeds the frame's first locals from the call arguments: the
// receiver in slot 0 for instance methods, then each declared parameter in
// its slot width.
func (in *Interpreter) initArgs(f *Frame, method *Method, args []Value) {
	slot := 0
	i := 0
	if method.HasReceiver() {
		f.SetRef(0, args[0].Ref())
		slot, i = 1, 1
	}
	for _, k := range method.Code.ParamKinds {
		v := args[i]
		i++
		switch k.StackKind() {
		case KindInt:
			f.SetInt(slot, v.Int())
		case KindLong:
			f.SetLong(slot, v.Long())
		case KindFloat:
			f.SetFloat(slot, v.Float())
		case KindDouble:
			f.SetDouble(slot, v.Double())
		case KindObject:
			f.SetRef(slot, v.Ref())
		default:
			panic(&InvariantViolation{Reason: "parameter of kind " + k.String()})
		}
		slot += k.SlotCount()
	}
}

// runFrame drives one activation: run until a return or a guest throw, and
// on a throw either enter a handler in this frame or rethrow to the caller.
func (in *Interpreter) runFrame(method *Method, f *Frame) Value {
	code := method.Code
	pc := 0
	for {
		result, thrown := in.runSection(method, f, &pc)
		if thrown == nil {
			return result
		}
		h := resolveHandler(code, pc, thrown)
		if h == nil {
			panic(guestThrow{exception: thrown})
		}
		f.stack.Clear()
		f.stack.PushRef(thrown)
		pc = h.HandlerPC
	}
}

// runSection executes from *pc until the frame returns or a guest throw
// surfaces. On a throw it reports the exception with *pc still at the
// raising instruction so the caller can resolve handlers.
func (in *Interpreter) runSection(method *Method, f *Frame, pc *int) (result Value, thrown *Object) {
	defer func() {
		if r := recover(); r != nil {
			if t, ok := r.(guestThrow); ok {
				thrown = t.exception
				return
			}
			panic(r)
		}
	}()

	m := in.machine
	code := method.Code
	pool := code.Pool
	s := code.Stream()
	st := f.stack
	trace := in.config.TraceExecution

	for {
		op := s.OpcodeAt(*pc)
		if op == WIDE {
			inner := s.WideOpcodeAt(*pc)
			switch inner {
			case ILOAD, LLOAD, FLOAD, DLOAD, ALOAD,
				ISTORE, LSTORE, FSTORE, DSTORE, ASTORE, RET, IINC:
				op = inner
			default:
				panic(&InvariantViolation{Reason: "wide prefix on " + inner.Name()})
			}
		}
		m.Counters.Bytecodes.Add(1)
		if trace {
			in.log.Debugf("%s %s", method.QualifiedName(), s.DisassembleAt(*pc))
		}

		next := s.NextBCI(*pc)

		switch op {
		case NOP:

		case ACONST_NULL:
			st.PushRef(nil)
		case ICONST_M1, ICONST_0, ICONST_1, ICONST_2, ICONST_3, ICONST_4, ICONST_5:
			st.PushInt(int32(op) - int32(ICONST_0))
		case LCONST_0, LCONST_1:
			st.PushLong(int64(op - LCONST_0))
		case FCONST_0, FCONST_1, FCONST_2:
			st.PushFloat(float32(op - FCONST_0))
		case DCONST_0, DCONST_1:
			st.PushDouble(float64(op - DCONST_0))
		case BIPUSH:
			st.PushInt(int32(s.ReadInt8(*pc + 1)))
		case SIPUSH:
			st.PushInt(int32(s.ReadInt16(*pc + 1)))
		case LDC:
			pushValue(st, pool.LoadableAt(uint16(s.ReadUint8(*pc+1))))
		case LDC_W:
			pushValue(st, pool.LoadableAt(s.CPIndex(*pc)))
		case LDC2_W:
			pushValue(st, pool.WideLoadableAt(s.CPIndex(*pc)))

		case ILOAD:
			st.PushInt(f.GetInt(s.LocalIndex(*pc)))
		case LLOAD:
			st.PushLong(f.GetLong(s.LocalIndex(*pc)))
		case FLOAD:
			st.PushFloat(f.GetFloat(s.LocalIndex(*pc)))
		case DLOAD:
			st.PushDouble(f.GetDouble(s.LocalIndex(*pc)))
		case ALOAD:
			st.PushRef(f.GetRef(s.LocalIndex(*pc)))
		case ILOAD_0, ILOAD_1, ILOAD_2, ILOAD_3:
			st.PushInt(f.GetInt(int(op - ILOAD_0)))
		case LLOAD_0, LLOAD_1, LLOAD_2, LLOAD_3:
			st.PushLong(f.GetLong(int(op - LLOAD_0)))
		case FLOAD_0, FLOAD_1, FLOAD_2, FLOAD_3:
			st.PushFloat(f.GetFloat(int(op - FLOAD_0)))
		case DLOAD_0, DLOAD_1, DLOAD_2, DLOAD_3:
			st.PushDouble(f.GetDouble(int(op - DLOAD_0)))
		case ALOAD_0, ALOAD_1, ALOAD_2, ALOAD_3:
			st.PushRef(f.GetRef(int(op - ALOAD_0)))

		case ISTORE:
			f.SetInt(s.LocalIndex(*pc), st.PopInt())
		case LSTORE:
			f.SetLong(s.LocalIndex(*pc), st.PopLong())
		case FSTORE:
			f.SetFloat(s.LocalIndex(*pc), st.PopFloat())
		case DSTORE:
			f.SetDouble(s.LocalIndex(*pc), st.PopDouble())
		case ASTORE:
			in.storeRefOrAddress(f, st, s.LocalIndex(*pc))
		case ISTORE_0, ISTORE_1, ISTORE_2, ISTORE_3:
			f.SetInt(int(op-ISTORE_0), st.PopInt())
		case LSTORE_0, LSTORE_1, LSTORE_2, LSTORE_3:
			f.SetLong(int(op-LSTORE_0), st.PopLong())
		case FSTORE_0, FSTORE_1, FSTORE_2, FSTORE_3:
			f.SetFloat(int(op-FSTORE_0), st.PopFloat())
		case DSTORE_0, DSTORE_1, DSTORE_2, DSTORE_3:
			f.SetDouble(int(op-DSTORE_0), st.PopDouble())
		case ASTORE_0, ASTORE_1, ASTORE_2, ASTORE_3:
			in.storeRefOrAddress(f, st, int(op-ASTORE_0))

		case IALOAD, BALOAD, CALOAD, SALOAD:
			idx := st.PopInt()
			arr := st.PopRef()
			st.PushInt(m.GetElem(arr, idx).Int())
		case LALOAD:
			idx := st.PopInt()
			arr := st.PopRef()
			st.PushLong(m.GetElem(arr, idx).Long())
		case FALOAD:
			idx := st.PopInt()
			arr := st.PopRef()
			st.PushFloat(m.GetElem(arr, idx).Float())
		case DALOAD:
			idx := st.PopInt()
			arr := st.PopRef()
			st.PushDouble(m.GetElem(arr, idx).Double())
		case AALOAD:
			idx := st.PopInt()
			arr := st.PopRef()
			st.PushRef(m.GetElem(arr, idx).Ref())

		case IASTORE:
			v := st.PopInt()
			idx := st.PopInt()
			arr := st.PopRef()
			m.SetElem(arr, idx, IntValue(v))
		case BASTORE:
			v := st.PopInt()
			idx := st.PopInt()
			arr := st.PopRef()
			if arr != nil && arr.Class.ElemKind == KindBoolean {
				m.SetElem(arr, idx, BooleanValue(v&1 != 0))
			} else {
				m.SetElem(arr, idx, ByteValue(int8(v)))
			}
		case CASTORE:
			v := st.PopInt()
			idx := st.PopInt()
			arr := st.PopRef()
			m.SetElem(arr, idx, CharValue(uint16(v)))
		case SASTORE:
			v := st.PopInt()
			idx := st.PopInt()
			arr := st.PopRef()
			m.SetElem(arr, idx, ShortValue(int16(v)))
		case LASTORE:
			v := st.PopLong()
			idx := st.PopInt()
			arr := st.PopRef()
			m.SetElem(arr, idx, LongValue(v))
		case FASTORE:
			v := st.PopFloat()
			idx := st.PopInt()
			arr := st.PopRef()
			m.SetElem(arr, idx, FloatValue(v))
		case DASTORE:
			v := st.PopDouble()
			idx := st.PopInt()
			arr := st.PopRef()
			m.SetElem(arr, idx, DoubleValue(v))
		case AASTORE:
			v := st.PopRef()
			idx := st.PopInt()
			arr := st.PopRef()
			m.SetElem(arr, idx, RefValue(v))

		case POP:
			st.Pop()
		case POP2:
			st.Pop2()
		case DUP:
			st.Dup()
		case DUP_X1:
			st.DupX1()
		case DUP_X2:
			st.DupX2()
		case DUP2:
			st.Dup2()
		case DUP2_X1:
			st.Dup2X1()
		case DUP2_X2:
			st.Dup2X2()
		case SWAP:
			st.Swap()

		case IADD:
			st.PushInt(addInt(st.PopInt(), st.PopInt()))
		case LADD:
			st.PushLong(addLong(st.PopLong(), st.PopLong()))
		case FADD:
			st.PushFloat(addFloat(st.PopFloat(), st.PopFloat()))
		case DADD:
			st.PushDouble(addDouble(st.PopDouble(), st.PopDouble()))
		case ISUB:
			st.PushInt(subInt(st.PopInt(), st.PopInt()))
		case LSUB:
			st.PushLong(subLong(st.PopLong(), st.PopLong()))
		case FSUB:
			st.PushFloat(subFloat(st.PopFloat(), st.PopFloat()))
		case DSUB:
			st.PushDouble(subDouble(st.PopDouble(), st.PopDouble()))
		case IMUL:
			st.PushInt(mulInt(st.PopInt(), st.PopInt()))
		case LMUL:
			st.PushLong(mulLong(st.PopLong(), st.PopLong()))
		case FMUL:
			st.PushFloat(mulFloat(st.PopFloat(), st.PopFloat()))
		case DMUL:
			st.PushDouble(mulDouble(st.PopDouble(), st.PopDouble()))
		case IDIV:
			st.PushInt(in.divInt(st.PopInt(), st.PopInt()))
		case LDIV:
			st.PushLong(in.divLong(st.PopLong(), st.PopLong()))
		case FDIV:
			st.PushFloat(divFloat(st.PopFloat(), st.PopFloat()))
		case DDIV:
			st.PushDouble(divDouble(st.PopDouble(), st.PopDouble()))
		case IREM:
			st.PushInt(in.remInt(st.PopInt(), st.PopInt()))
		case LREM:
			st.PushLong(in.remLong(st.PopLong(), st.PopLong()))
		case FREM:
			st.PushFloat(remFloat(st.PopFloat(), st.PopFloat()))
		case DREM:
			st.PushDouble(remDouble(st.PopDouble(), st.PopDouble()))
		case INEG:
			st.PushInt(-st.PopInt())
		case LNEG:
			st.PushLong(-st.PopLong())
		case FNEG:
			st.PushFloat(negFloat(st.PopFloat()))
		case DNEG:
			st.PushDouble(negDouble(st.PopDouble()))
		case ISHL:
			st.PushInt(shiftLeftInt(st.PopInt(), st.PopInt()))
		case LSHL:
			st.PushLong(shiftLeftLong(st.PopInt(), st.PopLong()))
		case ISHR:
			st.PushInt(shiftRightInt(st.PopInt(), st.PopInt()))
		case LSHR:
			st.PushLong(shiftRightLong(st.PopInt(), st.PopLong()))
		case IUSHR:
			st.PushInt(shiftRightUnsignedInt(st.PopInt(), st.PopInt()))
		case LUSHR:
			st.PushLong(shiftRightUnsignedLong(st.PopInt(), st.PopLong()))
		case IAND:
			st.PushInt(st.PopInt() & st.PopInt())
		case LAND:
			st.PushLong(st.PopLong() & st.PopLong())
		case IOR:
			st.PushInt(st.PopInt() | st.PopInt())
		case LOR:
			st.PushLong(st.PopLong() | st.PopLong())
		case IXOR:
			st.PushInt(st.PopInt() ^ st.PopInt())
		case LXOR:
			st.PushLong(st.PopLong() ^ st.PopLong())
		case IINC:
			slot := s.LocalIndex(*pc)
			f.SetInt(slot, f.GetInt(slot)+s.IincDelta(*pc))

		case I2L:
			st.PushLong(int64(st.PopInt()))
		case I2F:
			st.PushFloat(float32(st.PopInt()))
		case I2D:
			st.PushDouble(float64(st.PopInt()))
		case L2I:
			st.PushInt(int32(st.PopLong()))
		case L2F:
			st.PushFloat(float32(st.PopLong()))
		case L2D:
			st.PushDouble(float64(st.PopLong()))
		case F2I:
			st.PushInt(floatToInt(st.PopFloat()))
		case F2L:
			st.PushLong(floatToLong(st.PopFloat()))
		case F2D:
			st.PushDouble(float64(st.PopFloat()))
		case D2I:
			st.PushInt(doubleToInt(st.PopDouble()))
		case D2L:
			st.PushLong(doubleToLong(st.PopDouble()))
		case D2F:
			st.PushFloat(float32(st.PopDouble()))
		case I2B:
			st.PushInt(int32(int8(st.PopInt())))
		case I2C:
			st.PushInt(int32(uint16(st.PopInt())))
		case I2S:
			st.PushInt(int32(int16(st.PopInt())))

		case LCMP:
			st.PushInt(compareLong(st.PopLong(), st.PopLong()))
		case FCMPL:
			st.PushInt(compareFloat(st.PopFloat(), st.PopFloat(), -1))
		case FCMPG:
			st.PushInt(compareFloat(st.PopFloat(), st.PopFloat(), 1))
		case DCMPL:
			st.PushInt(compareDouble(st.PopDouble(), st.PopDouble(), -1))
		case DCMPG:
			st.PushInt(compareDouble(st.PopDouble(), st.PopDouble(), 1))

		case IFEQ, IFNE, IFLT, IFGE, IFGT, IFLE:
			v := st.PopInt()
			if takeIntBranch(op, v, 0) {
				next = s.BranchDest(*pc)
			}
		case IF_ICMPEQ, IF_ICMPNE, IF_ICMPLT, IF_ICMPGE, IF_ICMPGT, IF_ICMPLE:
			right := st.PopInt()
			left := st.PopInt()
			if takeIntBranch(op-(IF_ICMPEQ-IFEQ), left, right) {
				next = s.BranchDest(*pc)
			}
		case IF_ACMPEQ:
			if st.PopRef() == st.PopRef() {
				next = s.BranchDest(*pc)
			}
		case IF_ACMPNE:
			if st.PopRef() != st.PopRef() {
				next = s.BranchDest(*pc)
			}
		case IFNULL:
			if st.PopRef() == nil {
				next = s.BranchDest(*pc)
			}
		case IFNONNULL:
			if st.PopRef() != nil {
				next = s.BranchDest(*pc)
			}
		case GOTO, GOTO_W:
			next = s.BranchDest(*pc)

		case JSR, JSR_W:
			st.PushReturnAddress(next)
			next = s.BranchDest(*pc)
		case RET:
			next = f.GetReturnAddress(s.LocalIndex(*pc))

		case TABLESWITCH:
			next = in.matchTableSwitch(s.TableSwitchAt(*pc), st.PopInt())
		case LOOKUPSWITCH:
			next = s.LookupSwitchAt(*pc).Match(st.PopInt())

		case IRETURN:
			return narrowIntReturn(code.ReturnKind, st.PopInt()), nil
		case LRETURN:
			return LongValue(st.PopLong()), nil
		case FRETURN:
			return FloatValue(st.PopFloat()), nil
		case DRETURN:
			return DoubleValue(st.PopDouble()), nil
		case ARETURN:
			return RefValue(st.PopRef()), nil
		case RETURN:
			return NoValue, nil

		case GETSTATIC:
			fld := pool.FieldAt(s.CPIndex(*pc))
			fld.Class.EnsureInitialized(in)
			m.Counters.FieldReads.Add(1)
			pushValue(st, fld.Class.GetStatic(fld))
		case PUTSTATIC:
			fld := pool.FieldAt(s.CPIndex(*pc))
			fld.Class.EnsureInitialized(in)
			m.Counters.FieldWrites.Add(1)
			fld.Class.SetStatic(fld, popValue(st, fld.Kind))
		case GETFIELD:
			fld := pool.FieldAt(s.CPIndex(*pc))
			obj := st.PopRef()
			pushValue(st, m.GetField(obj, fld))
		case PUTFIELD:
			fld := pool.FieldAt(s.CPIndex(*pc))
			v := popValue(st, fld.Kind)
			obj := st.PopRef()
			m.SetField(obj, fld, v)

		case INVOKESTATIC, INVOKESPECIAL, INVOKEVIRTUAL, INVOKEINTERFACE:
			strategy := in.strategyAt(method, *pc, op)
			pushValue(st, in.invoke(st, strategy))

		case INVOKEDYNAMIC:
			panic(&InvariantViolation{Reason: "invokedynamic past the loading boundary"})
		case BREAKPOINT:
			panic(&InvariantViolation{Reason: "breakpoint past the loading boundary"})

		case NEW:
			c := pool.ClassAt(s.CPIndex(*pc))
			c.EnsureInitialized(in)
			st.PushRef(m.AllocateInstance(c))
		case NEWARRAY:
			st.PushRef(m.AllocateArray(arrayTypeKind(s.ReadUint8(*pc+1)), st.PopInt()))
		case ANEWARRAY:
			c := pool.ClassAt(s.CPIndex(*pc))
			st.PushRef(m.AllocateRefArray(c, st.PopInt()))
		case MULTIANEWARRAY:
			c := pool.ClassAt(s.CPIndex(*pc))
			nDims := int(s.ReadUint8(*pc + 3))
			dims := make([]int32, nDims)
			for i := nDims - 1; i >= 0; i-- {
				dims[i] = st.PopInt()
			}
			st.PushRef(m.AllocateMultiArray(c, dims))
		case ARRAYLENGTH:
			st.PushInt(m.ArrayLength(st.PopRef()))

		case ATHROW:
			ex := st.PopRef()
			m.Throw(ex)

		case CHECKCAST:
			c := pool.ClassAt(s.CPIndex(*pc))
			st.PushRef(m.CheckCast(st.PopRef(), c))
		case INSTANCEOF:
			c := pool.ClassAt(s.CPIndex(*pc))
			if m.InstanceOf(st.PopRef(), c) {
				st.PushInt(1)
			} else {
				st.PushInt(0)
			}

		case MONITORENTER:
			m.MonitorEnter(st.PopRef())
		case MONITOREXIT:
			m.MonitorExit(st.PopRef())

		default:
			panic(&InvariantViolation{Reason: fmt.Sprintf("opcode %s at %d", op, *pc)})
		}

		*pc = next
	}
}

// storeRefOrAddress handles astore's second life as the jsr return-address
// store; the slot tag decides which it is.
func (in *Interpreter) storeRefOrAddress(f *Frame, st *OperandStack, slot int) {
	if st.TopKind() == KindReturnAddress {
		f.SetReturnAddress(slot, st.PopReturnAddress())
		return
	}
	f.SetRef(slot, st.PopRef())
}

// strategyAt returns the quickened strategy for the invoke at bci,
// resolving and installing it on first execution.
func (in *Interpreter) strategyAt(method *Method, bci int, op Opcode) *callStrategy {
	if _, strategy, ok := method.sites.lookup(bci); ok {
		return strategy
	}
	_, strategy := in.quickenInvoke(method, bci, op)
	return strategy
}

// invoke pops the callee arguments, dispatches through the strategy, runs
// the target, and returns its result.
func (in *Interpreter) invoke(st *OperandStack, strategy *callStrategy) Value {
	declared := strategy.target
	params := declared.Code.ParamKinds
	hasReceiver := strategy.kind != callStatic

	args := make([]Value, len(params), len(params)+1)
	for i := len(params) - 1; i >= 0; i-- {
		args[i] = popValue(st, params[i])
	}
	var receiver *Object
	if hasReceiver {
		receiver = st.PopRef()
		if receiver == nil {
			in.machine.ThrowFault(FaultNullPointer, "invoke "+declared.Name+" on null")
		}
		args = append([]Value{RefValue(receiver)}, args...)
	}

	target := strategy.dispatch(in.machine, receiver)
	return in.callMethod(target, args)
}

// matchTableSwitch resolves a tableswitch key per the configured mode. The
// direct strategy indexes; the speculative one compares keys first-to-last,
// betting that hot switches hit their early cases.
func (in *Interpreter) matchTableSwitch(t TableSwitch, key int32) int {
	low, high := t.Low(), t.High()
	if in.config.Mode == SwitchSpeculative {
		for i := 0; i < t.Count(); i++ {
			if key == low+int32(i) {
				return t.DestAt(i)
			}
		}
		return t.DefaultDest()
	}
	if key < low || key > high {
		return t.DefaultDest()
	}
	return t.DestAt(int(key - low))
}

// pushValue spills a boundary value onto the operand stack. Void pushes
// nothing.
func pushValue(st *OperandStack, v Value) {
	switch v.Kind().StackKind() {
	case KindInt:
		st.PushInt(v.Int())
	case KindLong:
		st.PushLong(v.Long())
	case KindFloat:
		st.PushFloat(v.Float())
	case KindDouble:
		st.PushDouble(v.Double())
	case KindObject:
		st.PushRef(v.Ref())
	case KindVoid:
	default:
		panic(&InvariantViolation{Reason: "push of kind " + v.Kind().String()})
	}
}

// popValue lifts a stack slot into a boundary value of the declared kind,
// narrowing the int family.
func popValue(st *OperandStack, declared Kind) Value {
	switch declared.StackKind() {
	case KindInt:
		return narrowIntReturn(declared, st.PopInt())
	case KindLong:
		return LongValue(st.PopLong())
	case KindFloat:
		return FloatValue(st.PopFloat())
	case KindDouble:
		return DoubleValue(st.PopDouble())
	case KindObject:
		return RefValue(st.PopRef())
	}
	panic(&InvariantViolation{Reason: "pop of kind " + declared.String()})
}

// takeIntBranch evaluates the shared condition set of the if<cond> and
// if_icmp<cond> families; the single-operand family compares against zero.
func takeIntBranch(op Opcode, left, right int32) bool {
	switch op {
	case IFEQ:
		return left == right
	case IFNE:
		return left != right
	case IFLT:
		return left < right
	case IFGE:
		return left >= right
	case IFGT:
		return left > right
	case IFLE:
		return left <= right
	}
	panic(&InvariantViolation{Reason: "branch condition " + op.Name()})
}

// Arithmetic helpers take the right-hand operand first, matching pop
// order: the top of stack is the second source operand.

func addInt(right, left int32) int32              { return left + right }
func addLong(right, left int64) int64             { return left + right }
func addFloat(right, left float32) float32        { return left + right }
func addDouble(right, left float64) float64       { return left + right }
func subInt(right, left int32) int32              { return left - right }
func subLong(right, left int64) int64             { return left - right }
func subFloat(right, left float32) float32        { return left - right }
func subDouble(right, left float64) float64       { return left - right }
func mulInt(right, left int32) int32              { return left * right }
func mulLong(right, left int64) int64             { return left * right }
func mulFloat(right, left float32) float32        { return left * right }
func mulDouble(right, left float64) float64       { return left * right }
func divFloat(divisor, dividend float32) float32  { return dividend / divisor }
func divDouble(divisor, dividend float64) float64 { return dividend / divisor }

func remFloat(divisor, dividend float32) float32 {
	return float32(math.Mod(float64(dividend), float64(divisor)))
}

func remDouble(divisor, dividend float64) float64 {
	return math.Mod(dividend, divisor)
}

// divInt checks the divisor before dividing; the quotient of the most
// negative value and -1 wraps to the dividend.
func (in *Interpreter) divInt(divisor, dividend int32) int32 {
	if divisor == 0 {
		in.machine.ThrowFault(FaultArithmetic, "/ by zero")
	}
	return dividend / divisor
}

func (in *Interpreter) divLong(divisor, dividend int64) int64 {
	if divisor == 0 {
		in.machine.ThrowFault(FaultArithmetic, "/ by zero")
	}
	return dividend / divisor
}

func (in *Interpreter) remInt(divisor, dividend int32) int32 {
	if divisor == 0 {
		in.machine.ThrowFault(FaultArithmetic, "/ by zero")
	}
	return dividend % divisor
}

func (in *Interpreter) remLong(divisor, dividend int64) int64 {
	if divisor == 0 {
		in.machine.ThrowFault(FaultArithmetic, "/ by zero")
	}
	return dividend % divisor
}

// Shift counts mask to the operand width.

func shiftLeftInt(count, v int32) int32          { return v << (uint32(count) & 0x1F) }
func shiftRightInt(count, v int32) int32         { return v >> (uint32(count) & 0x1F) }
func shiftRightUnsignedInt(count, v int32) int32 { return int32(uint32(v) >> (uint32(count) & 0x1F)) }
func shiftLeftLong(count int32, v int64) int64   { return v << (uint32(count) & 0x3F) }
func shiftRightLong(count int32, v int64) int64  { return v >> (uint32(count) & 0x3F) }
func shiftRightUnsignedLong(count int32, v int64) int64 {
	return int64(uint64(v) >> (uint32(count) & 0x3F))
}

// negFloat and negDouble go through the sign bit so -0.0 and NaN behave.

func negFloat(v float32) float32 {
	return math.Float32frombits(math.Float32bits(v) ^ 0x80000000)
}

func negDouble(v float64) float64 {
	return math.Float64frombits(math.Float64bits(v) ^ 0x8000000000000000)
}

func compareLong(right, left int64) int32 {
	switch {
	case left < right:
		return -1
	case left > right:
		return 1
	}
	return 0
}

// compareFloat orders left against right with nanResult for unordered
// inputs: the g variants take 1, the l variants -1.
func compareFloat(right, left float32, nanResult int32) int32 {
	switch {
	case left < right:
		return -1
	case left > right:
		return 1
	case left == right:
		return 0
	}
	return nanResult
}

func compareDouble(right, left float64, nanResult int32) int32 {
	switch {
	case left < right:
		return -1
	case left > right:
		return 1
	case left == right:
		return 0
	}
	return nanResult
}

// Float-to-integral conversions saturate: NaN to zero, out-of-range to the
// nearest extreme. Go's native conversion leaves these cases undefined.

func floatToInt(v float32) int32 {
	return doubleToInt(float64(v))
}

func floatToLong(v float32) int64 {
	return doubleToLong(float64(v))
}

func doubleToInt(v float64) int32 {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt32:
		return math.MaxInt32
	case v <= math.MinInt32:
		return math.MinInt32
	}
	return int32(v)
}

func doubleToLong(v float64) int64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt64:
		return math.MaxInt64
	case v <= math.MinInt64:
		return math.MinInt64
	}
	return int64(v)
}
