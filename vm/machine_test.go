package vm

import "testing"

func TestFieldRoundTrip(t *testing.T) {
	in, mach := testRig()
	pool := mach.NewConstantPool()

	point := mach.DefineClass("Point", nil)
	point.AddField("x", KindInt)
	point.AddField("weight", KindDouble)
	point.AddField("label", KindObject)
	xRef := pool.AddFieldRef("Point", "x")

	// Direct machine access round-trips every primitive kind and refs.
	obj := mach.AllocateInstance(point)
	fx := point.FieldByName("x")
	mach.SetField(obj, fx, IntValue(42))
	if got := mach.GetField(obj, fx); got.Int() != 42 {
		t.Errorf("x = %d, want 42", got.Int())
	}
	fw := point.FieldByName("weight")
	mach.SetField(obj, fw, DoubleValue(2.5))
	if got := mach.GetField(obj, fw); got.Double() != 2.5 {
		t.Errorf("weight = %v, want 2.5", got.Double())
	}
	fl := point.FieldByName("label")
	label := mach.NewString("origin")
	mach.SetField(obj, fl, RefValue(label))
	if got := mach.GetField(obj, fl); got.Ref() != label {
		t.Errorf("label = %v, want the stored string", got.Ref())
	}
	mach.SetField(obj, fl, NullValue)
	if got := mach.GetField(obj, fl); !got.IsNull() {
		t.Errorf("label = %v, want null", got.Ref())
	}

	// The bytecode path agrees with the direct one.
	b := NewMethodBuilder("bumpX").Param(KindObject).Returns(KindInt).Pool(pool)
	b.Code().
		Load(KindObject, 0).Op(DUP).
		Field(GETFIELD, xRef).PushInt(1).Op(IADD).
		Field(PUTFIELD, xRef).
		Load(KindObject, 0).Field(GETFIELD, xRef).Op(IRETURN)
	if got := mustExecute(t, in, b.Build(), RefValue(obj)); got.Int() != 43 {
		t.Errorf("bumpX = %d, want 43", got.Int())
	}
}

func TestFieldDefaultsPerKind(t *testing.T) {
	_, mach := testRig()
	c := mach.DefineClass("Defaults", nil)
	kinds := []Kind{KindBoolean, KindByte, KindChar, KindShort, KindInt, KindFloat, KindLong, KindDouble, KindObject}
	for _, k := range kinds {
		c.AddField("f_"+k.String(), k)
	}
	obj := mach.AllocateInstance(c)
	for _, k := range kinds {
		v := mach.GetField(obj, c.FieldByName("f_"+k.String()))
		if v.Kind() != k {
			t.Errorf("default of %s field tagged %s", k, v.Kind())
		}
		if k == KindObject && !v.IsNull() {
			t.Errorf("object field default not null")
		}
	}
}

func TestInheritedFieldLayout(t *testing.T) {
	_, mach := testRig()
	base := mach.DefineClass("Base", nil)
	base.AddField("a", KindInt)
	sub := mach.DefineClass("Sub", base)
	fb := sub.AddField("b", KindInt)

	obj := mach.AllocateInstance(sub)
	fa := sub.FieldByName("a")
	mach.SetField(obj, fa, IntValue(1))
	mach.SetField(obj, fb, IntValue(2))
	if mach.GetField(obj, fa).Int() != 1 || mach.GetField(obj, fb).Int() != 2 {
		t.Errorf("inherited and own fields collide: a=%d b=%d",
			mach.GetField(obj, fa).Int(), mach.GetField(obj, fb).Int())
	}
}

func TestStaticFieldsAndClassInit(t *testing.T) {
	in, mach := testRig()
	pool := mach.NewConstantPool()

	counted := mach.DefineClass("Counted", nil)
	counted.AddStaticField("runs", KindInt)
	runsRef := pool.AddFieldRef("Counted", "runs")

	// The initializer increments its own static, which re-enters
	// initialization and must not deadlock.
	init := NewMethodBuilder("init").Pool(pool)
	init.Code().
		Field(GETSTATIC, runsRef).PushInt(1).Op(IADD).
		Field(PUTSTATIC, runsRef).Op(RETURN)
	counted.Initializer = init.Build()

	read := NewMethodBuilder("readRuns").Returns(KindInt).Pool(pool)
	read.Code().Field(GETSTATIC, runsRef).Op(IRETURN)
	m := read.Build()

	for i := 0; i < 3; i++ {
		if got := mustExecute(t, in, m); got.Int() != 1 {
			t.Fatalf("runs after read %d = %d, want 1 (initializer ran once)", i, got.Int())
		}
	}
}

func TestNewTriggersSuperInitFirst(t *testing.T) {
	in, mach := testRig()
	pool := mach.NewConstantPool()

	order := mach.DefineClass("InitOrder", nil)
	order.AddStaticField("trace", KindInt)
	traceRef := pool.AddFieldRef("InitOrder", "trace")

	appendDigit := func(digit int32) *Method {
		b := NewMethodBuilder("init").Pool(pool)
		b.Code().
			Field(GETSTATIC, traceRef).PushInt(10).Op(IMUL).PushInt(digit).Op(IADD).
			Field(PUTSTATIC, traceRef).Op(RETURN)
		return b.Build()
	}

	base := mach.DefineClass("InitBase", nil)
	base.Initializer = appendDigit(1)
	sub := mach.DefineClass("InitSub", base)
	sub.Initializer = appendDigit(2)
	subIdx := pool.AddClass("InitSub")

	b := NewMethodBuilder("make").Returns(KindInt).Pool(pool)
	b.Code().New(subIdx).Op(POP).Field(GETSTATIC, traceRef).Op(IRETURN)
	if got := mustExecute(t, in, b.Build()); got.Int() != 12 {
		t.Errorf("init trace = %d, want 12 (super before sub)", got.Int())
	}
}

func TestPrimitiveArrayRoundTrip(t *testing.T) {
	in, _ := testRig()

	b := NewMethodBuilder("sumArray").Returns(KindInt)
	cb := b.Code()
	cb.PushInt(3).NewArray(KindInt).Store(KindObject, 0)
	for i := int32(0); i < 3; i++ {
		cb.Load(KindObject, 0).PushInt(i).PushInt(i * 10).Op(IASTORE)
	}
	cb.Load(KindObject, 0).PushInt(0).Op(IALOAD)
	cb.Load(KindObject, 0).PushInt(1).Op(IALOAD).Op(IADD)
	cb.Load(KindObject, 0).PushInt(2).Op(IALOAD).Op(IADD)
	cb.Op(IRETURN)
	if got := mustExecute(t, in, b.Build()); got.Int() != 30 {
		t.Errorf("array sum = %d, want 30", got.Int())
	}

	b = NewMethodBuilder("longArray").Returns(KindLong)
	b.Code().
		PushInt(1).NewArray(KindLong).Store(KindObject, 0).
		Load(KindObject, 0).PushInt(0).Op(LCONST_1).Op(LASTORE).
		Load(KindObject, 0).PushInt(0).Op(LALOAD).Op(LRETURN)
	if got := mustExecute(t, in, b.Build()); got.Long() != 1 {
		t.Errorf("long array element = %d, want 1", got.Long())
	}

	// byte array narrows on store.
	b = NewMethodBuilder("byteArray").Returns(KindInt)
	b.Code().
		PushInt(1).NewArray(KindByte).Store(KindObject, 0).
		Load(KindObject, 0).PushInt(0).Sipush(511).Op(BASTORE).
		Load(KindObject, 0).PushInt(0).Op(BALOAD).Op(IRETURN)
	if got := mustExecute(t, in, b.Build()); got.Int() != -1 {
		t.Errorf("byte array element = %d, want -1", got.Int())
	}
}

func TestArrayFaults(t *testing.T) {
	in, _ := testRig()

	expect := func(name string, emit func(cb *CodeBuilder), wantClass string) {
		b := NewMethodBuilder(name).Returns(KindInt)
		emit(b.Code())
		_, err := in.Execute(b.Build(), nil)
		ge, ok := err.(*GuestError)
		if !ok {
			t.Errorf("%s error = %v, want *GuestError", name, err)
			return
		}
		if ge.Exception.Class.Name != wantClass {
			t.Errorf("%s raised %s, want %s", name, ge.Exception.Class.Name, wantClass)
		}
	}

	expect("outOfBounds", func(cb *CodeBuilder) {
		cb.PushInt(2).NewArray(KindInt).Store(KindObject, 0)
		cb.Load(KindObject, 0).PushInt(2).Op(IALOAD).Op(IRETURN)
	}, "ArrayIndexOutOfBoundsException")

	expect("negativeIndex", func(cb *CodeBuilder) {
		cb.PushInt(2).NewArray(KindInt).Store(KindObject, 0)
		cb.Load(KindObject, 0).PushInt(-1).PushInt(0).Op(IASTORE).PushInt(0).Op(IRETURN)
	}, "ArrayIndexOutOfBoundsException")

	expect("negativeSize", func(cb *CodeBuilder) {
		cb.PushInt(-3).NewArray(KindInt).Op(POP).PushInt(0).Op(IRETURN)
	}, "NegativeArraySizeException")

	expect("nullArray", func(cb *CodeBuilder) {
		cb.Op(ACONST_NULL).PushInt(0).Op(IALOAD).Op(IRETURN)
	}, "NullPointerException")
}

func TestRefArrayStoreCheck(t *testing.T) {
	_, mach := testRig()
	base := mach.DefineClass("Fruit", nil)
	apple := mach.DefineClass("Apple", base)

	apples := mach.AllocateRefArray(apple, 2)
	mach.SetElem(apples, 0, RefValue(NewInstance(apple)))
	mach.SetElem(apples, 1, NullValue)

	defer func() {
		r := recover()
		gt, ok := r.(guestThrow)
		if !ok {
			t.Fatalf("mismatched store recovered %v, want a guest throw", r)
		}
		if gt.exception.Class.Name != "ArrayStoreException" {
			t.Errorf("store check raised %s, want ArrayStoreException", gt.exception.Class.Name)
		}
	}()
	mach.SetElem(apples, 0, RefValue(NewInstance(base)))
}

func TestMultiANewArray(t *testing.T) {
	in, mach := testRig()
	pool := mach.NewConstantPool()

	grid := ArrayOf(PrimitiveArrayOf(KindInt))
	mach.Register(grid)
	gridIdx := pool.AddClass(grid.Name)

	// new int[2][3]; return length of row 1.
	b := NewMethodBuilder("grid").Returns(KindInt).Pool(pool)
	b.Code().
		PushInt(2).PushInt(3).MultiANewArray(gridIdx, 2).Store(KindObject, 0).
		Load(KindObject, 0).PushInt(1).Op(AALOAD).Op(ARRAYLENGTH).Op(IRETURN)
	if got := mustExecute(t, in, b.Build()); got.Int() != 3 {
		t.Errorf("inner length = %d, want 3", got.Int())
	}

	b = NewMethodBuilder("gridOuter").Returns(KindInt).Pool(pool)
	b.Code().
		PushInt(2).PushInt(3).MultiANewArray(gridIdx, 2).Op(ARRAYLENGTH).Op(IRETURN)
	if got := mustExecute(t, in, b.Build()); got.Int() != 2 {
		t.Errorf("outer length = %d, want 2", got.Int())
	}
}

func TestInstanceOfAndCheckCast(t *testing.T) {
	in, mach := testRig()
	pool := mach.NewConstantPool()
	base := mach.DefineClass("Vehicle", nil)
	mach.DefineClass("Car", base)
	baseIdx := pool.AddClass("Vehicle")
	carIdx := pool.AddClass("Car")

	isCar := NewMethodBuilder("isCar").Param(KindObject).Returns(KindBoolean).Pool(pool)
	isCar.Code().Load(KindObject, 0).OpU16(INSTANCEOF, carIdx).Op(IRETURN)
	m := isCar.Build()

	car := NewInstance(mach.LookupClass("Car"))
	if got := mustExecute(t, in, m, RefValue(car)); !got.Bool() {
		t.Errorf("Car instanceof Car = false")
	}
	if got := mustExecute(t, in, m, RefValue(NewInstance(base))); got.Bool() {
		t.Errorf("Vehicle instanceof Car = true")
	}
	if got := mustExecute(t, in, m, NullValue); got.Bool() {
		t.Errorf("null instanceof Car = true")
	}

	cast := NewMethodBuilder("asVehicle").Param(KindObject).Returns(KindObject).Pool(pool)
	cast.Code().Load(KindObject, 0).OpU16(CHECKCAST, baseIdx).Op(ARETURN)
	cm := cast.Build()
	if got := mustExecute(t, in, cm, RefValue(car)); got.Ref() != car {
		t.Errorf("upcast changed the reference")
	}
	if got := mustExecute(t, in, cm, NullValue); !got.IsNull() {
		t.Errorf("checkcast null = %v, want null", got.Ref())
	}

	down := NewMethodBuilder("asCar").Param(KindObject).Returns(KindObject).Pool(pool)
	down.Code().Load(KindObject, 0).OpU16(CHECKCAST, carIdx).Op(ARETURN)
	_, err := in.Execute(down.Build(), []Value{RefValue(NewInstance(base))})
	if ge, ok := err.(*GuestError); !ok || ge.Exception.Class.Name != "ClassCastException" {
		t.Errorf("bad downcast error = %v, want ClassCastException", err)
	}
}

func TestMonitorBalance(t *testing.T) {
	in, mach := testRig()

	b := NewMethodBuilder("balanced").Param(KindObject).Returns(KindInt)
	b.Code().
		Load(KindObject, 0).Op(MONITORENTER).
		Load(KindObject, 0).Op(MONITOREXIT).
		PushInt(1).Op(IRETURN)
	obj := NewInstance(mach.ObjectClass())
	if got := mustExecute(t, in, b.Build(), RefValue(obj)); got.Int() != 1 {
		t.Errorf("balanced monitors = %d, want 1", got.Int())
	}

	b = NewMethodBuilder("unbalanced").Param(KindObject).Returns(KindInt)
	b.Code().Load(KindObject, 0).Op(MONITOREXIT).PushInt(1).Op(IRETURN)
	_, err := in.Execute(b.Build(), []Value{RefValue(obj)})
	if ge, ok := err.(*GuestError); !ok || ge.Exception.Class.Name != "IllegalMonitorStateException" {
		t.Errorf("unbalanced exit error = %v, want IllegalMonitorStateException", err)
	}
}

func TestCountersObserveExecution(t *testing.T) {
	in, mach := testRig()

	b := NewMethodBuilder("busy").Returns(KindInt)
	b.Code().PushInt(1).PushInt(2).Op(IADD).Op(IRETURN)
	mustExecute(t, in, b.Build())

	s := mach.Counters.Snapshot()
	if s.Bytecodes != 4 {
		t.Errorf("bytecodes = %d, want 4", s.Bytecodes)
	}

	mach.AllocateInstance(mach.ObjectClass())
	if got := mach.Counters.Instances.Load(); got != 1 {
		t.Errorf("instances = %d, want 1", got)
	}
}
