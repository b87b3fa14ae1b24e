package vm

import "fmt"

// ExceptionHandler is one entry of a method's handler table. The guarded
// range is [StartPC, EndPC). CatchType is a constant-pool class index; 0
// catches everything.
type ExceptionHandler struct {
	StartPC   int
	EndPC     int
	HandlerPC int
	CatchType uint16
}

// Code is an immutable method body.
type Code struct {
	Bytes      []byte
	MaxStack   int
	MaxLocals  int
	ParamKinds []Kind
	ReturnKind Kind
	Handlers   []ExceptionHandler
	Pool       *ConstantPool
}

// Stream returns a decoder over the body.
func (c *Code) Stream() CodeStream {
	return NewCodeStream(c.Bytes)
}

// ArgSlots returns the local slots consumed by the declared parameters,
// excluding any receiver.
func (c *Code) ArgSlots() int {
	n := 0
	for _, k := range c.ParamKinds {
		n += k.SlotCount()
	}
	return n
}

// Method is an executable method: identity, flags, body, and the call-site
// cache the interpreter fills as invoke sites warm up.
type Method struct {
	Class  *Class
	Name   string
	Static bool
	Final  bool
	Code   *Code

	sites callSiteTable
}

// QualifiedName returns Class.Name + "." + Name for logs and errors.
func (m *Method) QualifiedName() string {
	if m.Class == nil {
		return m.Name
	}
	return m.Class.Name + "." + m.Name
}

// HasReceiver reports whether local 0 holds a receiver.
func (m *Method) HasReceiver() bool {
	return !m.Static
}

// IsAbstract reports whether the method has no body to run.
func (m *Method) IsAbstract() bool {
	return m.Code == nil || len(m.Code.Bytes) == 0
}

// NewAbstractMethod declares a bodiless instance method: a signature for
// interface and abstract-class dispatch.
func NewAbstractMethod(name string, params []Kind, ret Kind) *Method {
	return &Method{
		Name: name,
		Code: &Code{ParamKinds: params, ReturnKind: ret},
	}
}

// MethodBuilder assembles a Method by hand; tests and the metadata layer use
// it in place of a class-file parser.
type MethodBuilder struct {
	method    Method
	code      Code
	cb        *CodeBuilder
	maxStack  int
	maxLocals int
}

// NewMethodBuilder starts a builder for a method with the given name.
func NewMethodBuilder(name string) *MethodBuilder {
	return &MethodBuilder{
		method: Method{Name: name, Static: true},
		code:   Code{ReturnKind: KindVoid},
		cb:     NewCodeBuilder(),
	}
}

// Code returns the underlying code builder for emitting the body.
func (b *MethodBuilder) Code() *CodeBuilder {
	return b.cb
}

// Param appends a declared parameter kind.
func (b *MethodBuilder) Param(k Kind) *MethodBuilder {
	b.code.ParamKinds = append(b.code.ParamKinds, k)
	return b
}

// Returns sets the declared return kind.
func (b *MethodBuilder) Returns(k Kind) *MethodBuilder {
	b.code.ReturnKind = k
	return b
}

// Instance marks the method as carrying a receiver in local 0.
func (b *MethodBuilder) Instance() *MethodBuilder {
	b.method.Static = false
	return b
}

// Final marks the method final.
func (b *MethodBuilder) Final() *MethodBuilder {
	b.method.Final = true
	return b
}

// Owner sets the declaring class.
func (b *MethodBuilder) Owner(c *Class) *MethodBuilder {
	b.method.Class = c
	return b
}

// Pool sets the constant pool the body resolves against.
func (b *MethodBuilder) Pool(p *ConstantPool) *MethodBuilder {
	b.code.Pool = p
	return b
}

// MaxStack overrides the default operand-stack sizing.
func (b *MethodBuilder) MaxStack(n int) *MethodBuilder {
	b.maxStack = n
	return b
}

// MaxLocals overrides the default local sizing.
func (b *MethodBuilder) MaxLocals(n int) *MethodBuilder {
	b.maxLocals = n
	return b
}

// Handler appends an exception-table entry. Entries match in append order.
func (b *MethodBuilder) Handler(startPC, endPC, handlerPC int, catchType uint16) *MethodBuilder {
	b.code.Handlers = append(b.code.Handlers, ExceptionHandler{
		StartPC: startPC, EndPC: endPC, HandlerPC: handlerPC, CatchType: catchType,
	})
	return b
}

// Build finalizes the method. Sizing defaults are generous rather than
// exact; nothing verifies them.
func (b *MethodBuilder) Build() *Method {
	b.code.Bytes = b.cb.Bytes()
	if len(b.code.Bytes) == 0 {
		panic(fmt.Sprintf("method %s has no code", b.method.Name))
	}
	b.code.MaxStack = b.maxStack
	if b.code.MaxStack == 0 {
		b.code.MaxStack = 16
	}
	b.code.MaxLocals = b.maxLocals
	argSlots := b.code.ArgSlots()
	if !b.method.Static {
		argSlots++
	}
	if b.code.MaxLocals < argSlots+8 {
		b.code.MaxLocals = argSlots + 8
	}
	m := b.method
	m.Code = &b.code
	m.sites.init(len(b.code.Bytes))
	return &m
}
