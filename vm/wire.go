package vm

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Wire encoding of method bodies and class digests. Canonical CBOR keeps
// the encoding deterministic, so equal bodies hash to equal store keys.

var wireEnc cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	wireEnc = em
}

// WireHandler is the encoded form of one exception-table entry.
type WireHandler struct {
	Start   int    `cbor:"1,keyasint"`
	End     int    `cbor:"2,keyasint"`
	Handler int    `cbor:"3,keyasint"`
	Catch   uint16 `cbor:"4,keyasint"`
}

// WireMethod is the encoded form of a method body. Constant-pool contents
// travel separately; the body carries only indexes into it.
type WireMethod struct {
	Class     string        `cbor:"1,keyasint"`
	Name      string        `cbor:"2,keyasint"`
	Static    bool          `cbor:"3,keyasint"`
	MaxStack  int           `cbor:"4,keyasint"`
	MaxLocals int           `cbor:"5,keyasint"`
	Params    []uint8       `cbor:"6,keyasint"`
	Return    uint8         `cbor:"7,keyasint"`
	Code      []byte        `cbor:"8,keyasint"`
	Handlers  []WireHandler `cbor:"9,keyasint,omitempty"`
}

// EncodeMethod marshals m's body to canonical CBOR.
func EncodeMethod(m *Method) ([]byte, error) {
	c := m.Code
	w := WireMethod{
		Name:      m.Name,
		Static:    m.Static,
		MaxStack:  c.MaxStack,
		MaxLocals: c.MaxLocals,
		Return:    uint8(c.ReturnKind),
		Code:      c.Bytes,
	}
	if m.Class != nil {
		w.Class = m.Class.Name
	}
	for _, k := range c.ParamKinds {
		w.Params = append(w.Params, uint8(k))
	}
	for _, h := range c.Handlers {
		w.Handlers = append(w.Handlers, WireHandler{
			Start: h.StartPC, End: h.EndPC, Handler: h.HandlerPC, Catch: h.CatchType,
		})
	}
	data, err := wireEnc.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("encoding method %s: %w", m.QualifiedName(), err)
	}
	return data, nil
}

// DecodeMethod unmarshals an encoded method body.
func DecodeMethod(data []byte) (*WireMethod, error) {
	var w WireMethod
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decoding method: %w", err)
	}
	return &w, nil
}

// Build reconstructs an executable method resolving against pool.
func (w *WireMethod) Build(pool *ConstantPool) *Method {
	code := &Code{
		Bytes:      w.Code,
		MaxStack:   w.MaxStack,
		MaxLocals:  w.MaxLocals,
		ReturnKind: Kind(w.Return),
		Pool:       pool,
	}
	for _, p := range w.Params {
		code.ParamKinds = append(code.ParamKinds, Kind(p))
	}
	for _, h := range w.Handlers {
		code.Handlers = append(code.Handlers, ExceptionHandler{
			StartPC: h.Start, EndPC: h.End, HandlerPC: h.Handler, CatchType: h.Catch,
		})
	}
	m := &Method{Name: w.Name, Static: w.Static, Code: code}
	m.sites.init(len(code.Bytes))
	return m
}

// ClassDigest summarizes a class for the content store: identity plus the
// store keys of its method bodies.
type ClassDigest struct {
	Name    string            `cbor:"1,keyasint"`
	Super   string            `cbor:"2,keyasint,omitempty"`
	Methods map[string]string `cbor:"3,keyasint,omitempty"`
}

// EncodeClassDigest marshals a digest to canonical CBOR.
func EncodeClassDigest(d *ClassDigest) ([]byte, error) {
	data, err := wireEnc.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encoding class digest %s: %w", d.Name, err)
	}
	return data, nil
}

// DecodeClassDigest unmarshals a class digest.
func DecodeClassDigest(data []byte) (*ClassDigest, error) {
	var d ClassDigest
	if err := cbor.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decoding class digest: %w", err)
	}
	return &d, nil
}
