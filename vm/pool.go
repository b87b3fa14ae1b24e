package vm

import (
	"fmt"
	"sync/atomic"
)

// ConstKind discriminates pool entries.
type ConstKind uint8

const (
	ConstNone ConstKind = iota
	ConstInt
	ConstLong
	ConstFloat
	ConstDouble
	ConstString
	ConstClass
	ConstMethodRef
	ConstFieldRef
)

// poolResolution is the cached result of resolving one entry. Written once
// through an atomic pointer; later readers reuse it without re-resolving.
type poolResolution struct {
	class  *Class
	method *Method
	field  *Field
	strObj *Object
}

// Constant is one pool entry. Symbolic entries (class, method, field,
// string) resolve lazily and cache the result.
type Constant struct {
	Kind   ConstKind
	IntVal int32
	Long   int64
	Float  float32
	Double float64
	Str    string

	// Symbolic reference payload: ClassName names the target or owner
	// class, Member the method or field name.
	ClassName string
	Member    string

	cache atomic.Pointer[poolResolution]
}

// ConstantPool resolves symbolic references for one or more method bodies.
// Index 0 is reserved (the catch-all handler sentinel).
type ConstantPool struct {
	machine *Machine
	consts  []*Constant
}

// NewConstantPool returns an empty pool bound to m's class registry.
func (m *Machine) NewConstantPool() *ConstantPool {
	return &ConstantPool{machine: m, consts: []*Constant{nil}}
}

func (p *ConstantPool) add(c *Constant) uint16 {
	p.consts = append(p.consts, c)
	return uint16(len(p.consts) - 1)
}

// AddInt appends an int constant and returns its index.
func (p *ConstantPool) AddInt(v int32) uint16 {
	return p.add(&Constant{Kind: ConstInt, IntVal: v})
}

// AddLong appends a long constant and returns its index.
func (p *ConstantPool) AddLong(v int64) uint16 {
	return p.add(&Constant{Kind: ConstLong, Long: v})
}

// AddFloat appends a float constant and returns its index.
func (p *ConstantPool) AddFloat(v float32) uint16 {
	return p.add(&Constant{Kind: ConstFloat, Float: v})
}

// AddDouble appends a double constant and returns its index.
func (p *ConstantPool) AddDouble(v float64) uint16 {
	return p.add(&Constant{Kind: ConstDouble, Double: v})
}

// AddString appends a string constant and returns its index.
func (p *ConstantPool) AddString(s string) uint16 {
	return p.add(&Constant{Kind: ConstString, Str: s})
}

// AddClass appends a class reference and returns its index.
func (p *ConstantPool) AddClass(name string) uint16 {
	return p.add(&Constant{Kind: ConstClass, ClassName: name})
}

// AddMethodRef appends a method reference and returns its index.
func (p *ConstantPool) AddMethodRef(className, method string) uint16 {
	return p.add(&Constant{Kind: ConstMethodRef, ClassName: className, Member: method})
}

// AddFieldRef appends a field reference and returns its index.
func (p *ConstantPool) AddFieldRef(className, field string) uint16 {
	return p.add(&Constant{Kind: ConstFieldRef, ClassName: className, Member: field})
}

// Machine returns the machine the pool resolves against.
func (p *ConstantPool) Machine() *Machine {
	return p.machine
}

func (p *ConstantPool) at(idx uint16, want ConstKind) *Constant {
	if int(idx) >= len(p.consts) || p.consts[idx] == nil {
		panic(&InvariantViolation{Reason: fmt.Sprintf("constant pool index %d out of range", idx)})
	}
	c := p.consts[idx]
	if c.Kind != want {
		panic(&InvariantViolation{Reason: fmt.Sprintf(
			"constant pool index %d holds kind %d, want %d", idx, c.Kind, want)})
	}
	return c
}

// IntAt returns the int constant at idx.
func (p *ConstantPool) IntAt(idx uint16) int32 {
	return p.at(idx, ConstInt).IntVal
}

// LongAt returns the long constant at idx.
func (p *ConstantPool) LongAt(idx uint16) int64 {
	return p.at(idx, ConstLong).Long
}

// FloatAt returns the float constant at idx.
func (p *ConstantPool) FloatAt(idx uint16) float32 {
	return p.at(idx, ConstFloat).Float
}

// DoubleAt returns the double constant at idx.
func (p *ConstantPool) DoubleAt(idx uint16) float64 {
	return p.at(idx, ConstDouble).Double
}

// StringAt returns the cached string object for the constant at idx.
func (p *ConstantPool) StringAt(idx uint16) *Object {
	c := p.at(idx, ConstString)
	if r := c.cache.Load(); r != nil {
		return r.strObj
	}
	obj := p.machine.NewString(c.Str)
	c.cache.Store(&poolResolution{strObj: obj})
	return obj
}

// ClassAt resolves and caches the class reference at idx. An unknown class
// raises the guest linkage condition.
func (p *ConstantPool) ClassAt(idx uint16) *Class {
	c := p.at(idx, ConstClass)
	if r := c.cache.Load(); r != nil {
		return r.class
	}
	k := p.machine.lookupClass(c.ClassName)
	c.cache.Store(&poolResolution{class: k})
	return k
}

// MethodAt resolves and caches the method reference at idx. Resolution
// failure raises the guest linkage condition and caches nothing.
func (p *ConstantPool) MethodAt(idx uint16) *Method {
	c := p.at(idx, ConstMethodRef)
	if r := c.cache.Load(); r != nil {
		return r.method
	}
	owner := p.machine.lookupClass(c.ClassName)
	m := owner.LookupMethod(c.Member)
	if m == nil {
		p.machine.ThrowLinkage("NoSuchMethodError", c.ClassName+"."+c.Member)
	}
	c.cache.Store(&poolResolution{method: m})
	return m
}

// FieldAt resolves and caches the field reference at idx.
func (p *ConstantPool) FieldAt(idx uint16) *Field {
	c := p.at(idx, ConstFieldRef)
	if r := c.cache.Load(); r != nil {
		return r.field
	}
	owner := p.machine.lookupClass(c.ClassName)
	f := owner.FieldByName(c.Member)
	if f == nil {
		p.machine.ThrowLinkage("NoSuchFieldError", c.ClassName+"."+c.Member)
	}
	c.cache.Store(&poolResolution{field: f})
	return f
}

// LoadableAt returns the ldc/ldc_w value at idx: int, float, string, or
// class. Long and double go through ldc2_w instead.
func (p *ConstantPool) LoadableAt(idx uint16) Value {
	c := p.consts[idx]
	switch c.Kind {
	case ConstInt:
		return IntValue(c.IntVal)
	case ConstFloat:
		return FloatValue(c.Float)
	case ConstString:
		return RefValue(p.StringAt(idx))
	case ConstClass:
		return RefValue(p.machine.ClassMirror(p.ClassAt(idx)))
	}
	panic(&InvariantViolation{Reason: fmt.Sprintf("constant %d is not single-slot loadable", idx)})
}

// WideLoadableAt returns the ldc2_w value at idx: long or double.
func (p *ConstantPool) WideLoadableAt(idx uint16) Value {
	c := p.consts[idx]
	switch c.Kind {
	case ConstLong:
		return LongValue(c.Long)
	case ConstDouble:
		return DoubleValue(c.Double)
	}
	panic(&InvariantViolation{Reason: fmt.Sprintf("constant %d is not double-slot loadable", idx)})
}
