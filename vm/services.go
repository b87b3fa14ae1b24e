package vm

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

// Services is what the dispatch loop requires of the surrounding machine:
// allocation, typed field and element access, type tests, monitors, and
// fault conversion. The loop holds no heap knowledge of its own.
type Services interface {
	AllocateInstance(c *Class) *Object
	AllocateArray(elem Kind, length int32) *Object
	AllocateRefArray(component *Class, length int32) *Object
	AllocateMultiArray(arrayClass *Class, dims []int32) *Object

	ArrayLength(arr *Object) int32
	GetElem(arr *Object, idx int32) Value
	SetElem(arr *Object, idx int32, v Value)

	GetField(obj *Object, f *Field) Value
	SetField(obj *Object, f *Field, v Value)

	InstanceOf(o *Object, c *Class) bool
	CheckCast(o *Object, c *Class) *Object

	MonitorEnter(o *Object)
	MonitorExit(o *Object)

	Throw(exception *Object)
	ThrowFault(f Fault, msg string)

	NewString(s string) *Object
}

var _ Services = (*Machine)(nil)

// Machine is the built-in Services implementation: the class registry, the
// canonical exception hierarchy, and the heap conventions of object.go.
type Machine struct {
	ID  uuid.UUID
	log commonlog.Logger

	mu       sync.RWMutex
	registry map[string]*Class
	mirrors  map[*Class]*Object

	objectClass    *Class
	stringClass    *Class
	classClass     *Class
	throwableClass *Class

	Counters *Counters
}

// NewMachine returns a machine with the canonical hierarchy registered.
func NewMachine() *Machine {
	m := &Machine{
		ID:       uuid.New(),
		log:      commonlog.GetLogger("kava.vm"),
		registry: map[string]*Class{},
		mirrors:  map[*Class]*Object{},
		Counters: NewCounters(),
	}
	m.bootstrap()
	m.log.Debugf("machine %s up, %d bootstrap classes", m.ID, len(m.registry))
	return m
}

// bootstrap registers Object, String, Class, and the throwable hierarchy
// every fault conversion relies on.
func (m *Machine) bootstrap() {
	m.objectClass = m.DefineClass("Object", nil)
	m.stringClass = m.DefineClass("String", m.objectClass)
	m.classClass = m.DefineClass("Class", m.objectClass)

	m.throwableClass = m.DefineClass("Throwable", m.objectClass)
	exception := m.DefineClass("Exception", m.throwableClass)
	errorClass := m.DefineClass("Error", m.throwableClass)
	runtime := m.DefineClass("RuntimeException", exception)

	for _, name := range []string{
		"ArithmeticException", "NullPointerException", "ClassCastException",
		"ArrayIndexOutOfBoundsException", "NegativeArraySizeException",
		"ArrayStoreException", "IllegalMonitorStateException",
	} {
		m.DefineClass(name, runtime)
	}
	linkage := m.DefineClass("LinkageError", errorClass)
	for _, name := range []string{
		"NoClassDefFoundError", "NoSuchMethodError", "NoSuchFieldError",
		"AbstractMethodError", "IncompatibleClassChangeError",
	} {
		m.DefineClass(name, linkage)
	}
	m.DefineClass("StackOverflowError", errorClass)
}

// DefineClass creates and registers a class. Super defaults to Object for
// every class but the root.
func (m *Machine) DefineClass(name string, super *Class) *Class {
	if super == nil && m.objectClass != nil {
		super = m.objectClass
	}
	c := NewClass(name, super)
	m.mu.Lock()
	m.registry[name] = c
	m.mu.Unlock()
	return c
}

// Register adds an externally built class to the registry.
func (m *Machine) Register(c *Class) *Class {
	m.mu.Lock()
	m.registry[c.Name] = c
	m.mu.Unlock()
	return c
}

// LookupClass returns the registered class, or nil.
func (m *Machine) LookupClass(name string) *Class {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.registry[name]
}

// lookupClass is LookupClass with the guest linkage condition on a miss.
func (m *Machine) lookupClass(name string) *Class {
	if c := m.LookupClass(name); c != nil {
		return c
	}
	m.ThrowLinkage("NoClassDefFoundError", name)
	return nil
}

// ObjectClass returns the hierarchy root.
func (m *Machine) ObjectClass() *Class { return m.objectClass }

// ThrowableClass returns the root of the throwable hierarchy.
func (m *Machine) ThrowableClass() *Class { return m.throwableClass }

// NewString allocates a string-content instance.
func (m *Machine) NewString(s string) *Object {
	return NewStringObject(m.stringClass, s)
}

// ClassMirror returns the singleton mirror object for c.
func (m *Machine) ClassMirror(c *Class) *Object {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mirror, ok := m.mirrors[c]; ok {
		return mirror
	}
	mirror := NewStringObject(m.classClass, c.Name)
	m.mirrors[c] = mirror
	return mirror
}

// NewException allocates an instance of the named registered class carrying
// msg, without throwing it.
func (m *Machine) NewException(className, msg string) *Object {
	c := m.lookupClass(className)
	o := NewInstance(c)
	o.str = msg
	return o
}

// Throw raises a guest exception.
func (m *Machine) Throw(exception *Object) {
	if exception == nil {
		m.ThrowFault(FaultNullPointer, "athrow on null")
	}
	panic(guestThrow{exception: exception})
}

// ThrowFault converts a host-detected fault to its canonical guest
// exception and raises it.
func (m *Machine) ThrowFault(f Fault, msg string) {
	m.Counters.Faults.Add(1)
	m.Throw(m.NewException(f.ClassName(), msg))
}

// ThrowLinkage raises a guest linkage condition of the named class.
func (m *Machine) ThrowLinkage(className, symbol string) {
	m.Throw(m.NewException(className, symbol))
}

// AllocateInstance allocates a zeroed instance.
func (m *Machine) AllocateInstance(c *Class) *Object {
	m.Counters.Instances.Add(1)
	return NewInstance(c)
}

func (m *Machine) checkLength(length int32) {
	if length < 0 {
		m.ThrowFault(FaultNegativeArraySize, fmt.Sprintf("%d", length))
	}
}

// AllocateArray allocates a primitive array.
func (m *Machine) AllocateArray(elem Kind, length int32) *Object {
	m.checkLength(length)
	m.Counters.Instances.Add(1)
	return NewArray(PrimitiveArrayOf(elem), int(length))
}

// AllocateRefArray allocates a reference array.
func (m *Machine) AllocateRefArray(component *Class, length int32) *Object {
	m.checkLength(length)
	m.Counters.Instances.Add(1)
	return NewArray(ArrayOf(component), int(length))
}

// AllocateMultiArray allocates dims[0] x dims[1] x ... nested arrays of
// arrayClass. A zero dimension stops nesting below it.
func (m *Machine) AllocateMultiArray(arrayClass *Class, dims []int32) *Object {
	for _, d := range dims {
		m.checkLength(d)
	}
	return m.allocMulti(arrayClass, dims)
}

func (m *Machine) allocMulti(arrayClass *Class, dims []int32) *Object {
	m.Counters.Instances.Add(1)
	arr := NewArray(arrayClass, int(dims[0]))
	if len(dims) > 1 && dims[0] > 0 {
		for i := int32(0); i < dims[0]; i++ {
			arr.elems[i] = RefValue(m.allocMulti(arrayClass.Component, dims[1:]))
		}
	}
	return arr
}

func (m *Machine) checkArray(arr *Object, idx int32) {
	if arr == nil {
		m.ThrowFault(FaultNullPointer, "array access on null")
	}
	if idx < 0 || int(idx) >= len(arr.elems) {
		m.ThrowFault(FaultArrayIndex, fmt.Sprintf("index %d, length %d", idx, len(arr.elems)))
	}
}

// ArrayLength returns the array length; null faults.
func (m *Machine) ArrayLength(arr *Object) int32 {
	if arr == nil {
		m.ThrowFault(FaultNullPointer, "arraylength on null")
	}
	return int32(len(arr.elems))
}

// GetElem reads an element with null and bounds checks.
func (m *Machine) GetElem(arr *Object, idx int32) Value {
	m.checkArray(arr, idx)
	return arr.elems[idx]
}

// SetElem writes an element with null, bounds, and store checks. Reference
// stores into a covariant array verify the runtime component type.
func (m *Machine) SetElem(arr *Object, idx int32, v Value) {
	m.checkArray(arr, idx)
	if arr.Class.ElemKind == KindObject && v.Kind() == KindObject && v.Ref() != nil {
		if comp := arr.Class.Component; comp != nil && !comp.IsAssignableFrom(v.Ref().Class) {
			m.ThrowFault(FaultArrayStore, v.Ref().Class.Name+" into "+arr.Class.Name)
		}
	}
	arr.elems[idx] = v
}

// GetField reads an instance field; null faults.
func (m *Machine) GetField(obj *Object, f *Field) Value {
	if obj == nil {
		m.ThrowFault(FaultNullPointer, "getfield "+f.Name+" on null")
	}
	m.Counters.FieldReads.Add(1)
	return obj.fields[f.Index]
}

// SetField writes an instance field; null faults.
func (m *Machine) SetField(obj *Object, f *Field, v Value) {
	if obj == nil {
		m.ThrowFault(FaultNullPointer, "putfield "+f.Name+" on null")
	}
	m.Counters.FieldWrites.Add(1)
	obj.fields[f.Index] = v
}

// InstanceOf reports assignability; null is an instance of nothing.
func (m *Machine) InstanceOf(o *Object, c *Class) bool {
	if o == nil {
		return false
	}
	return c.IsAssignableFrom(o.Class)
}

// CheckCast passes null and assignable references through; anything else
// faults.
func (m *Machine) CheckCast(o *Object, c *Class) *Object {
	if o != nil && !c.IsAssignableFrom(o.Class) {
		m.ThrowFault(FaultClassCast, o.Class.Name+" to "+c.Name)
	}
	return o
}

// MonitorEnter records a balanced monitor entry; null faults.
func (m *Machine) MonitorEnter(o *Object) {
	if o == nil {
		m.ThrowFault(FaultNullPointer, "monitorenter on null")
	}
	o.monitorDepth.Add(1)
}

// MonitorExit releases one monitor entry; unbalanced exit faults.
func (m *Machine) MonitorExit(o *Object) {
	if o == nil {
		m.ThrowFault(FaultNullPointer, "monitorexit on null")
	}
	if o.monitorDepth.Add(-1) < 0 {
		o.monitorDepth.Add(1)
		m.ThrowFault(FaultIllegalMonitorState, "monitorexit without enter")
	}
}
