package vm

import (
	"math"
	"testing"
)

func testRig() (*Interpreter, *Machine) {
	m := NewMachine()
	return NewInterpreter(m, DefaultConfig()), m
}

func mustExecute(t *testing.T, in *Interpreter, m *Method, args ...Value) Value {
	t.Helper()
	v, err := in.Execute(m, args)
	if err != nil {
		t.Fatalf("Execute(%s) error: %v", m.Name, err)
	}
	return v
}

func TestArithmeticPopOrder(t *testing.T) {
	in, _ := testRig()

	cases := []struct {
		name string
		op   Opcode
		want int32
	}{
		{"isub", ISUB, 4},
		{"idiv", IDIV, 2},
		{"irem", IREM, 1},
		{"ishl", ISHL, 56},
		{"ishr", ISHR, 0},
	}
	for _, tc := range cases {
		b := NewMethodBuilder(tc.name).Returns(KindInt)
		b.Code().PushInt(7).PushInt(3).Op(tc.op).Op(IRETURN)
		got := mustExecute(t, in, b.Build())
		if got.Int() != tc.want {
			t.Errorf("%s: result = %d, want %d", tc.name, got.Int(), tc.want)
		}
	}
}

func TestLongArithmetic(t *testing.T) {
	in, mach := testRig()
	pool := mach.NewConstantPool()
	big := pool.AddLong(1 << 40)
	three := pool.AddLong(3)

	b := NewMethodBuilder("longDivRem").Returns(KindLong).Pool(pool)
	b.Code().Ldc2(big).Ldc2(three).Op(LDIV).Op(LRETURN)
	got := mustExecute(t, in, b.Build())
	if want := int64(1<<40) / 3; got.Long() != want {
		t.Errorf("ldiv result = %d, want %d", got.Long(), want)
	}

	b = NewMethodBuilder("longShift").Returns(KindLong).Pool(pool)
	b.Code().Ldc2(three).PushInt(40).Op(LSHL).Op(LRETURN)
	got = mustExecute(t, in, b.Build())
	if want := int64(3) << 40; got.Long() != want {
		t.Errorf("lshl result = %d, want %d", got.Long(), want)
	}
}

func TestIntDivisionEdgeCases(t *testing.T) {
	in, mach := testRig()

	b := NewMethodBuilder("divZero").Returns(KindInt)
	b.Code().PushInt(7).PushInt(0).Op(IDIV).Op(IRETURN)
	_, err := in.Execute(b.Build(), nil)
	ge, ok := err.(*GuestError)
	if !ok {
		t.Fatalf("idiv by zero error = %v, want *GuestError", err)
	}
	if ge.Exception.Class.Name != "ArithmeticException" {
		t.Errorf("idiv by zero raised %s, want ArithmeticException", ge.Exception.Class.Name)
	}

	pool := mach.NewConstantPool()
	minInt := pool.AddInt(math.MinInt32)
	b = NewMethodBuilder("divOverflow").Returns(KindInt).Pool(pool)
	b.Code().Ldc(minInt).PushInt(-1).Op(IDIV).Op(IRETURN)
	got := mustExecute(t, in, b.Build())
	if got.Int() != math.MinInt32 {
		t.Errorf("min/-1 = %d, want %d", got.Int(), int32(math.MinInt32))
	}
}

func TestFloatCompareNaN(t *testing.T) {
	in, mach := testRig()
	pool := mach.NewConstantPool()
	fnan := pool.AddFloat(float32(math.NaN()))
	dnan := pool.AddDouble(math.NaN())

	cases := []struct {
		name string
		emit func(cb *CodeBuilder)
		want int32
	}{
		{"fcmpg", func(cb *CodeBuilder) { cb.Ldc(fnan).Ldc(fnan).Op(FCMPG) }, 1},
		{"fcmpl", func(cb *CodeBuilder) { cb.Ldc(fnan).Ldc(fnan).Op(FCMPL) }, -1},
		{"dcmpg", func(cb *CodeBuilder) { cb.Ldc2(dnan).Ldc2(dnan).Op(DCMPG) }, 1},
		{"dcmpl", func(cb *CodeBuilder) { cb.Ldc2(dnan).Ldc2(dnan).Op(DCMPL) }, -1},
	}
	for _, tc := range cases {
		b := NewMethodBuilder(tc.name).Returns(KindInt).Pool(pool)
		tc.emit(b.Code())
		b.Code().Op(IRETURN)
		got := mustExecute(t, in, b.Build())
		if got.Int() != tc.want {
			t.Errorf("%s on NaN = %d, want %d", tc.name, got.Int(), tc.want)
		}
	}

	// Ordered operands still compare by magnitude.
	b := NewMethodBuilder("fcmpOrdered").Returns(KindInt)
	b.Code().Op(FCONST_1).Op(FCONST_2).Op(FCMPG).Op(IRETURN)
	if got := mustExecute(t, in, b.Build()); got.Int() != -1 {
		t.Errorf("fcmpg(1, 2) = %d, want -1", got.Int())
	}
}

func TestConditionalBranches(t *testing.T) {
	in, _ := testRig()

	// max(a, b) via if_icmpge.
	b := NewMethodBuilder("max").Param(KindInt).Param(KindInt).Returns(KindInt)
	cb := b.Code()
	bigger := &Label{}
	cb.Load(KindInt, 0).Load(KindInt, 1)
	cb.Branch(IF_ICMPGE, bigger)
	cb.Load(KindInt, 1).Op(IRETURN)
	cb.Bind(bigger).Load(KindInt, 0).Op(IRETURN)
	max := b.Build()

	for _, tc := range [][3]int32{{3, 9, 9}, {9, 3, 9}, {5, 5, 5}, {-2, 1, 1}} {
		got := mustExecute(t, in, max, IntValue(tc[0]), IntValue(tc[1]))
		if got.Int() != tc[2] {
			t.Errorf("max(%d, %d) = %d, want %d", tc[0], tc[1], got.Int(), tc[2])
		}
	}
}

func TestLoopWithIinc(t *testing.T) {
	in, _ := testRig()

	// sum 1..n with a counter local.
	b := NewMethodBuilder("sum").Param(KindInt).Returns(KindInt)
	cb := b.Code()
	loop, done := &Label{}, &Label{}
	cb.PushInt(0).Store(KindInt, 1)
	cb.PushInt(1).Store(KindInt, 2)
	cb.Bind(loop)
	cb.Load(KindInt, 2).Load(KindInt, 0)
	cb.Branch(IF_ICMPGT, done)
	cb.Load(KindInt, 1).Load(KindInt, 2).Op(IADD).Store(KindInt, 1)
	cb.Iinc(2, 1)
	cb.Goto(loop)
	cb.Bind(done).Load(KindInt, 1).Op(IRETURN)

	got := mustExecute(t, in, b.Build(), IntValue(10))
	if got.Int() != 55 {
		t.Errorf("sum(10) = %d, want 55", got.Int())
	}
}

func TestTableSwitchModesAgree(t *testing.T) {
	build := func() *Method {
		b := NewMethodBuilder("classify").Param(KindInt).Returns(KindInt)
		cb := b.Code()
		def := &Label{}
		dests := []*Label{{}, {}, {}}
		cb.Load(KindInt, 0)
		cb.TableSwitch(10, def, dests)
		for i, l := range dests {
			cb.Bind(l).Sipush(int16(100 * (i + 1))).Op(IRETURN)
		}
		cb.Bind(def).PushInt(-1).Op(IRETURN)
		return b.Build()
	}

	mach := NewMachine()
	direct := NewInterpreter(mach, Config{Mode: SwitchDirect, MaxFrames: 64})
	spec := NewInterpreter(mach, Config{Mode: SwitchSpeculative, MaxFrames: 64})
	dm, sm := build(), build()

	for _, key := range []int32{9, 10, 11, 12, 13, math.MinInt32, math.MaxInt32} {
		dv := mustExecute(t, direct, dm, IntValue(key))
		sv := mustExecute(t, spec, sm, IntValue(key))
		if dv.Int() != sv.Int() {
			t.Errorf("key %d: direct = %d, speculative = %d", key, dv.Int(), sv.Int())
		}
	}

	dv := mustExecute(t, direct, dm, IntValue(11))
	if dv.Int() != 200 {
		t.Errorf("key 11 = %d, want 200", dv.Int())
	}
	if dv := mustExecute(t, direct, dm, IntValue(42)); dv.Int() != -1 {
		t.Errorf("key 42 = %d, want default -1", dv.Int())
	}
}

func TestLookupSwitch(t *testing.T) {
	in, _ := testRig()

	b := NewMethodBuilder("lookup").Param(KindInt).Returns(KindInt)
	cb := b.Code()
	def := &Label{}
	l1, l2, l3 := &Label{}, &Label{}, &Label{}
	cb.Load(KindInt, 0)
	cb.LookupSwitch(def, []SwitchPair{
		{Key: 1000, Dest: l2},
		{Key: -5, Dest: l1},
		{Key: 70000, Dest: l3},
	})
	cb.Bind(l1).PushInt(1).Op(IRETURN)
	cb.Bind(l2).PushInt(2).Op(IRETURN)
	cb.Bind(l3).PushInt(3).Op(IRETURN)
	cb.Bind(def).PushInt(0).Op(IRETURN)
	m := b.Build()

	for _, tc := range [][2]int32{{-5, 1}, {1000, 2}, {70000, 3}, {0, 0}, {999, 0}} {
		got := mustExecute(t, in, m, IntValue(tc[0]))
		if got.Int() != tc[1] {
			t.Errorf("lookup(%d) = %d, want %d", tc[0], got.Int(), tc[1])
		}
	}
}

func TestDupAndSwapShapes(t *testing.T) {
	in, _ := testRig()

	// dup: 5 -> 5*5.
	b := NewMethodBuilder("square").Returns(KindInt)
	b.Code().PushInt(5).Op(DUP).Op(IMUL).Op(IRETURN)
	if got := mustExecute(t, in, b.Build()); got.Int() != 25 {
		t.Errorf("dup square = %d, want 25", got.Int())
	}

	// swap: 2 10 -> 10 2 -> 10/2.
	b = NewMethodBuilder("swapDiv").Returns(KindInt)
	b.Code().PushInt(2).PushInt(10).Op(SWAP).Op(IDIV).Op(IRETURN)
	if got := mustExecute(t, in, b.Build()); got.Int() != 5 {
		t.Errorf("swap div = %d, want 5", got.Int())
	}

	// dup_x1: a b -> b a b; (b - (a - b)) distinguishes every misplacement.
	b = NewMethodBuilder("dupX1").Returns(KindInt)
	b.Code().PushInt(7).PushInt(3).Op(DUP_X1).Op(ISUB).Op(ISUB).Op(IRETURN)
	if got := mustExecute(t, in, b.Build()); got.Int() != -1 {
		t.Errorf("dup_x1 shape = %d, want -1", got.Int())
	}

	// dup2 on a long: value doubles.
	b = NewMethodBuilder("dup2Long").Returns(KindLong)
	b.Code().Op(LCONST_1).Op(DUP2).Op(LADD).Op(LRETURN)
	if got := mustExecute(t, in, b.Build()); got.Long() != 2 {
		t.Errorf("dup2 ladd = %d, want 2", got.Long())
	}

	// dup2_x1: a b c -> b c a b c with ints (1 2 3).
	b = NewMethodBuilder("dup2X1").Returns(KindInt)
	b.Code().PushInt(1).PushInt(2).PushInt(3).
		Op(DUP2_X1).
		Op(IADD).Op(IADD).Op(IADD).Op(IADD).Op(IRETURN)
	if got := mustExecute(t, in, b.Build()); got.Int() != 11 {
		t.Errorf("dup2_x1 sum = %d, want 11", got.Int())
	}

	// pop2 drops a long.
	b = NewMethodBuilder("popLong").Returns(KindInt)
	b.Code().PushInt(9).Op(LCONST_1).Op(POP2).Op(IRETURN)
	if got := mustExecute(t, in, b.Build()); got.Int() != 9 {
		t.Errorf("pop2 = %d, want 9", got.Int())
	}
}

func TestConversions(t *testing.T) {
	in, mach := testRig()
	pool := mach.NewConstantPool()

	b := NewMethodBuilder("i2b").Returns(KindInt)
	b.Code().Sipush(511).Op(I2B).Op(IRETURN)
	if got := mustExecute(t, in, b.Build()); got.Int() != -1 {
		t.Errorf("i2b(511) = %d, want -1", got.Int())
	}

	b = NewMethodBuilder("i2c").Returns(KindInt).Pool(pool)
	b.Code().PushInt(-1).Op(I2C).Op(IRETURN)
	if got := mustExecute(t, in, b.Build()); got.Int() != 0xFFFF {
		t.Errorf("i2c(-1) = %d, want %d", got.Int(), 0xFFFF)
	}

	b = NewMethodBuilder("i2s").Returns(KindInt).Pool(pool)
	b.Code().Ldc(pool.AddInt(0x12345)).Op(I2S).Op(IRETURN)
	if got := mustExecute(t, in, b.Build()); got.Int() != int32(int16(0x2345)) {
		t.Errorf("i2s(0x12345) = %d, want %d", got.Int(), int32(int16(0x2345)))
	}

	b = NewMethodBuilder("l2i").Returns(KindInt).Pool(pool)
	b.Code().Ldc2(pool.AddLong(1<<35 | 7)).Op(L2I).Op(IRETURN)
	if got := mustExecute(t, in, b.Build()); got.Int() != 7 {
		t.Errorf("l2i = %d, want 7", got.Int())
	}

	// d2i saturates and zeroes NaN.
	d2i := func(idx uint16) int32 {
		bb := NewMethodBuilder("d2i").Returns(KindInt).Pool(pool)
		bb.Code().Ldc2(idx).Op(D2I).Op(IRETURN)
		return mustExecute(t, in, bb.Build()).Int()
	}
	if got := d2i(pool.AddDouble(math.NaN())); got != 0 {
		t.Errorf("d2i(NaN) = %d, want 0", got)
	}
	if got := d2i(pool.AddDouble(1e300)); got != math.MaxInt32 {
		t.Errorf("d2i(1e300) = %d, want MaxInt32", got)
	}
	if got := d2i(pool.AddDouble(-1e300)); got != math.MinInt32 {
		t.Errorf("d2i(-1e300) = %d, want MinInt32", got)
	}
	if got := d2i(pool.AddDouble(-2.9)); got != -2 {
		t.Errorf("d2i(-2.9) = %d, want -2", got)
	}

	// fneg flips the sign of zero.
	b = NewMethodBuilder("fnegZero").Returns(KindInt)
	cb := b.Code()
	neg := &Label{}
	cb.Op(FCONST_0).Op(FNEG)
	// 1/-0.0 is -Inf; compare against 0 with fcmpl.
	cb.Op(FCONST_1).Op(SWAP).Op(FDIV).Op(FCONST_0).Op(FCMPL)
	cb.Branch(IFLT, neg)
	cb.PushInt(0).Op(IRETURN)
	cb.Bind(neg).PushInt(1).Op(IRETURN)
	if got := mustExecute(t, in, b.Build()); got.Int() != 1 {
		t.Errorf("fneg(0.0) kept positive sign")
	}
}

func TestReturnNarrowing(t *testing.T) {
	in, _ := testRig()

	b := NewMethodBuilder("asByte").Returns(KindByte)
	b.Code().Sipush(511).Op(IRETURN)
	got := mustExecute(t, in, b.Build())
	if got.Kind() != KindByte || got.Int() != -1 {
		t.Errorf("byte return = (%s, %d), want (byte, -1)", got.Kind(), got.Int())
	}

	b = NewMethodBuilder("asBool").Returns(KindBoolean)
	b.Code().PushInt(2).Op(IRETURN)
	got = mustExecute(t, in, b.Build())
	if got.Kind() != KindBoolean || got.Bool() {
		t.Errorf("boolean return = (%s, %v), want (boolean, false)", got.Kind(), got.Bool())
	}

	b = NewMethodBuilder("asChar").Returns(KindChar)
	b.Code().PushInt(-1).Op(IRETURN)
	got = mustExecute(t, in, b.Build())
	if got.Kind() != KindChar || got.Int() != 0xFFFF {
		t.Errorf("char return = (%s, %d), want (char, 65535)", got.Kind(), got.Int())
	}

	b = NewMethodBuilder("asVoid")
	b.Code().Op(RETURN)
	got = mustExecute(t, in, b.Build())
	if got.Kind() != KindVoid {
		t.Errorf("void return kind = %s, want void", got.Kind())
	}
}

func TestLocalKindMismatchPanics(t *testing.T) {
	in, _ := testRig()

	b := NewMethodBuilder("badRead").Returns(KindInt)
	b.Code().Op(LCONST_0).Store(KindLong, 0).Load(KindInt, 0).Op(IRETURN)
	m := b.Build()

	defer func() {
		if _, ok := recover().(*InvariantViolation); !ok {
			t.Errorf("kind-mismatched local read did not raise an invariant violation")
		}
	}()
	in.Execute(m, nil)
}

func TestLocalRetagging(t *testing.T) {
	in, _ := testRig()

	// The same slot legally holds an int, then a float, then a ref width.
	b := NewMethodBuilder("retag").Returns(KindInt)
	b.Code().
		PushInt(3).Store(KindInt, 0).
		Op(FCONST_2).Store(KindFloat, 0).
		Load(KindFloat, 0).Op(F2I).Op(IRETURN)
	if got := mustExecute(t, in, b.Build()); got.Int() != 2 {
		t.Errorf("retagged read = %d, want 2", got.Int())
	}
}

func TestJsrRet(t *testing.T) {
	in, _ := testRig()

	b := NewMethodBuilder("withSub").Returns(KindInt)
	cb := b.Code()
	sub := &Label{}
	cb.PushInt(2)
	cb.Jsr(sub)
	cb.Op(IRETURN)
	cb.Bind(sub)
	cb.Store(KindObject, 1) // astore of the return address
	cb.PushInt(3).Op(IADD)
	cb.Ret(1)

	got := mustExecute(t, in, b.Build())
	if got.Int() != 5 {
		t.Errorf("jsr/ret result = %d, want 5", got.Int())
	}
}

func TestLdcConstants(t *testing.T) {
	in, mach := testRig()
	pool := mach.NewConstantPool()

	b := NewMethodBuilder("bigInt").Returns(KindInt).Pool(pool)
	b.Code().Ldc(pool.AddInt(123456789)).Op(IRETURN)
	if got := mustExecute(t, in, b.Build()); got.Int() != 123456789 {
		t.Errorf("ldc int = %d, want 123456789", got.Int())
	}

	b = NewMethodBuilder("str").Returns(KindObject).Pool(pool)
	idx := pool.AddString("hello")
	b.Code().Ldc(idx).Op(ARETURN)
	got := mustExecute(t, in, b.Build())
	if got.Ref() == nil || got.Ref().String() != "hello" {
		t.Errorf("ldc string = %v, want hello", got.Ref())
	}
	// Same constant yields the same object.
	mustExecute(t, in, b.Build())
	if pool.StringAt(idx) != got.Ref() {
		t.Errorf("string constant not interned per pool entry")
	}
}

func TestReservedOpcodesPanic(t *testing.T) {
	in, _ := testRig()

	for _, op := range []Opcode{BREAKPOINT, INVOKEDYNAMIC} {
		b := NewMethodBuilder("reserved")
		cb := b.Code()
		if op == INVOKEDYNAMIC {
			cb.OpU16(op, 1)
			cb.Op(NOP).Op(NOP)
		} else {
			cb.Op(op)
		}
		cb.Op(RETURN)
		m := b.Build()

		func() {
			defer func() {
				if _, ok := recover().(*InvariantViolation); !ok {
					t.Errorf("%s did not raise an invariant violation", op)
				}
			}()
			in.Execute(m, nil)
		}()
	}
}

func TestCallDepthLimit(t *testing.T) {
	mach := NewMachine()
	in := NewInterpreter(mach, Config{Mode: SwitchDirect, MaxFrames: 32})
	pool := mach.NewConstantPool()
	owner := mach.DefineClass("Recursive", nil)

	self := pool.AddMethodRef("Recursive", "spin")
	b := NewMethodBuilder("spin").Returns(KindInt).Pool(pool)
	b.Code().Invoke(INVOKESTATIC, self).Op(IRETURN)
	owner.AddMethod(b.Build())

	_, err := in.Execute(owner.DeclaredMethod("spin"), nil)
	ge, ok := err.(*GuestError)
	if !ok {
		t.Fatalf("unbounded recursion error = %v, want *GuestError", err)
	}
	if ge.Exception.Class.Name != "StackOverflowError" {
		t.Errorf("recursion raised %s, want StackOverflowError", ge.Exception.Class.Name)
	}
}
