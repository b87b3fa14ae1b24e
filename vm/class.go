package vm

import "sync"

// Field describes one declared field. Index is the slot in the owning
// object's field array (or in the class statics for static fields).
type Field struct {
	Class  *Class
	Name   string
	Kind   Kind
	Static bool
	Index  int
}

// Class is runtime class metadata: identity, hierarchy, layout, methods,
// and at-most-once initialization state. Array classes are classes whose
// Component (or ElemKind for primitive arrays) is set.
type Class struct {
	Name       string
	Super      *Class
	Interfaces []*Class
	Final      bool
	Iface      bool

	Fields       []*Field
	StaticFields []*Field
	methods      map[string]*Method

	// Initializer runs at most once, before the first static access or
	// instantiation. Supers initialize first.
	Initializer *Method
	initMu      sync.Mutex
	initState   uint8 // 0 new, 1 running, 2 done
	initBy      *Interpreter
	initDone    chan struct{}
	statics     []Value

	// Array classes only.
	Component *Class
	ElemKind  Kind
}

// NewClass returns a class with the given name and superclass (nil for the
// hierarchy root).
func NewClass(name string, super *Class) *Class {
	return &Class{Name: name, Super: super, methods: map[string]*Method{}}
}

// ArrayOf returns the array class with reference component c.
func ArrayOf(component *Class) *Class {
	return &Class{Name: component.Name + "[]", Component: component, ElemKind: KindObject}
}

// PrimitiveArrayOf returns the array class with primitive component kind k.
func PrimitiveArrayOf(k Kind) *Class {
	return &Class{Name: k.String() + "[]", ElemKind: k}
}

// IsArray reports whether c is an array class.
func (c *Class) IsArray() bool {
	return c.ElemKind != KindIllegal
}

// AddMethod declares m on c and returns m.
func (c *Class) AddMethod(m *Method) *Method {
	m.Class = c
	c.methods[m.Name] = m
	return m
}

// DeclaredMethod returns the method declared directly on c, or nil.
func (c *Class) DeclaredMethod(name string) *Method {
	return c.methods[name]
}

// LookupMethod resolves name against c, its superclasses, then its
// interfaces, in that order.
func (c *Class) LookupMethod(name string) *Method {
	for k := c; k != nil; k = k.Super {
		if m := k.methods[name]; m != nil {
			return m
		}
	}
	for _, iface := range c.allInterfaces() {
		if m := iface.methods[name]; m != nil {
			return m
		}
	}
	return nil
}

func (c *Class) allInterfaces() []*Class {
	var out []*Class
	for k := c; k != nil; k = k.Super {
		for _, iface := range k.Interfaces {
			out = append(out, iface)
			out = append(out, iface.allInterfaces()...)
		}
	}
	return out
}

// AddField declares an instance field and returns it.
func (c *Class) AddField(name string, kind Kind) *Field {
	f := &Field{Class: c, Name: name, Kind: kind, Index: c.instanceSlotBase() + len(c.Fields)}
	c.Fields = append(c.Fields, f)
	return f
}

// AddStaticField declares a static field and returns it.
func (c *Class) AddStaticField(name string, kind Kind) *Field {
	f := &Field{Class: c, Name: name, Kind: kind, Static: true, Index: len(c.StaticFields)}
	c.StaticFields = append(c.StaticFields, f)
	c.statics = append(c.statics, NoValue)
	return f
}

// FieldByName resolves an instance field against c and its superclasses.
func (c *Class) FieldByName(name string) *Field {
	for k := c; k != nil; k = k.Super {
		for _, f := range k.Fields {
			if f.Name == name {
				return f
			}
		}
		for _, f := range k.StaticFields {
			if f.Name == name {
				return f
			}
		}
	}
	return nil
}

func (c *Class) instanceSlotBase() int {
	n := 0
	for k := c.Super; k != nil; k = k.Super {
		n += len(k.Fields)
	}
	return n
}

// InstanceSlots returns the total instance field count including inherited
// fields.
func (c *Class) InstanceSlots() int {
	return c.instanceSlotBase() + len(c.Fields)
}

// GetStatic reads a static field value.
func (c *Class) GetStatic(f *Field) Value {
	return c.statics[f.Index]
}

// SetStatic writes a static field value.
func (c *Class) SetStatic(f *Field, v Value) {
	c.statics[f.Index] = v
}

// IsAssignableFrom reports whether a value of class sub may be stored where
// c is expected. Arrays are covariant in their reference component.
func (c *Class) IsAssignableFrom(sub *Class) bool {
	if sub == nil {
		return false
	}
	if c.IsArray() {
		if !sub.IsArray() {
			return false
		}
		if c.Component != nil && sub.Component != nil {
			return c.Component.IsAssignableFrom(sub.Component)
		}
		return c.ElemKind == sub.ElemKind && c.Component == sub.Component
	}
	for k := sub; k != nil; k = k.Super {
		if k == c {
			return true
		}
	}
	if c.Iface {
		for _, iface := range sub.allInterfaces() {
			if iface == c {
				return true
			}
		}
		// Arrays implement nothing here; object-rooted interfaces only.
	}
	return false
}

// EnsureInitialized runs the class initializer chain at most once. Supers
// run before subs. A re-entrant trigger from the initializing interpreter
// itself (an initializer reading its own statics) returns immediately;
// other interpreters wait for completion. A guest throw from an
// initializer propagates to the triggering instruction, and the class
// still counts as initialized.
func (c *Class) EnsureInitialized(in *Interpreter) {
	c.initMu.Lock()
	switch c.initState {
	case 2:
		c.initMu.Unlock()
		return
	case 1:
		if c.initBy == in {
			c.initMu.Unlock()
			return
		}
		done := c.initDone
		c.initMu.Unlock()
		<-done
		return
	}
	c.initState = 1
	c.initBy = in
	c.initDone = make(chan struct{})
	c.initMu.Unlock()

	defer func() {
		c.initMu.Lock()
		c.initState = 2
		c.initBy = nil
		close(c.initDone)
		c.initMu.Unlock()
	}()

	if c.Super != nil {
		c.Super.EnsureInitialized(in)
	}
	if c.Initializer != nil {
		in.log.Debugf("initializing class %s", c.Name)
		in.callMethod(c.Initializer, nil)
	}
}
