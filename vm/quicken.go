package vm

import (
	"sync"
	"sync/atomic"
)

// strategyKind is the resolved linkage of an invoke site.
type strategyKind uint8

const (
	callStatic strategyKind = iota
	callSpecial
	callVirtual
	callInterface
)

// polyLimit is the receiver-class count past which a virtual or interface
// site goes megamorphic and stops caching.
const polyLimit = 6

// icEntry maps one observed receiver class to its dispatch target.
type icEntry struct {
	class  *Class
	target *Method
}

// icState is an immutable inline-cache generation. Transitions replace the
// whole value: empty, monomorphic, polymorphic, then megamorphic.
type icState struct {
	entries []icEntry
	mega    bool
}

// callStrategy is one arena entry: everything a quickened invoke needs to
// dispatch without touching the constant pool again.
type callStrategy struct {
	kind   strategyKind
	target *Method
	cache  atomic.Pointer[icState]
}

// dispatch returns the concrete target for receiver. Static and special
// strategies ignore the receiver; virtual and interface go through the
// inline cache.
func (s *callStrategy) dispatch(m *Machine, receiver *Object) *Method {
	switch s.kind {
	case callStatic, callSpecial:
		return s.target
	}

	recvClass := receiver.Class
	state := s.cache.Load()
	if state != nil && !state.mega {
		for i := range state.entries {
			if state.entries[i].class == recvClass {
				return state.entries[i].target
			}
		}
	}
	target := recvClass.LookupMethod(s.target.Name)
	if target == nil || target.IsAbstract() {
		m.ThrowFault(FaultAbstractMethod, recvClass.Name+"."+s.target.Name)
	}
	if state == nil || !state.mega {
		s.grow(state, recvClass, target)
	}
	return target
}

// grow publishes the next cache generation. A lost race is harmless; the
// losing entry is observed again on the next miss.
func (s *callStrategy) grow(old *icState, class *Class, target *Method) {
	var next icState
	if old != nil {
		next.entries = append(next.entries, old.entries...)
	}
	next.entries = append(next.entries, icEntry{class: class, target: target})
	if len(next.entries) > polyLimit {
		next = icState{mega: true}
	}
	s.cache.CompareAndSwap(old, &next)
}

// callSiteTable is a method's quickening state: one patch word per bci plus
// a grow-only strategy arena. A patch word packs the quick opcode in the
// high half and the arena index in the low half; zero means unquickened.
// The arena slice is published before the word, so a reader that sees a
// word always sees its strategy.
type callSiteTable struct {
	words []atomic.Uint32
	arena atomic.Pointer[[]*callStrategy]
	mu    sync.Mutex
}

func (t *callSiteTable) init(codeLen int) {
	t.words = make([]atomic.Uint32, codeLen)
	empty := make([]*callStrategy, 0)
	t.arena.Store(&empty)
}

// lookup returns the installed quick opcode and strategy for bci, if any.
func (t *callSiteTable) lookup(bci int) (Opcode, *callStrategy, bool) {
	word := t.words[bci].Load()
	if word == 0 {
		return 0, nil, false
	}
	arena := *t.arena.Load()
	return Opcode(word >> 16), arena[word&0xFFFF], true
}

// install publishes a strategy for bci, first writer wins. The loser's
// resolution is discarded and the winner's strategy returned.
func (t *callSiteTable) install(bci int, quick Opcode, s *callStrategy) (Opcode, *callStrategy) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if op, existing, ok := t.lookup(bci); ok {
		return op, existing
	}
	arena := *t.arena.Load()
	next := make([]*callStrategy, len(arena)+1)
	copy(next, arena)
	idx := len(arena)
	next[idx] = s
	t.arena.Store(&next)
	t.words[bci].Store(uint32(quick)<<16 | uint32(idx))
	return quick, s
}

var quickForms = map[Opcode]struct {
	quick Opcode
	kind  strategyKind
}{
	INVOKESTATIC:    {QUICK_INVOKESTATIC, callStatic},
	INVOKESPECIAL:   {QUICK_INVOKESPECIAL, callSpecial},
	INVOKEVIRTUAL:   {QUICK_INVOKEVIRTUAL, callVirtual},
	INVOKEINTERFACE: {QUICK_INVOKEINTERFACE, callInterface},
}

// quickenInvoke resolves the invoke at bci once and installs its strategy.
// Resolution failure raises the guest linkage condition before anything is
// installed; the site stays unquickened and re-resolves on re-execution.
// A virtual site whose resolved target cannot be overridden degrades to the
// special strategy.
func (in *Interpreter) quickenInvoke(method *Method, bci int, op Opcode) (Opcode, *callStrategy) {
	form, ok := quickForms[op]
	if !ok {
		panic(&InvariantViolation{Reason: "quickening non-invoke opcode " + op.Name()})
	}
	cpi := method.Code.Stream().CPIndex(bci)
	resolved := method.Code.Pool.MethodAt(cpi)

	kind := form.kind
	if kind == callVirtual && (resolved.Final || resolved.Class.Final) {
		kind = callSpecial
	}
	if kind == callStatic {
		resolved.Class.EnsureInitialized(in)
	}

	in.machine.Counters.Quickenings.Add(1)
	in.log.Debugf("quicken %s@%d of %s -> %s", op, bci, method.QualifiedName(), resolved.QualifiedName())
	return method.sites.install(bci, form.quick, &callStrategy{kind: kind, target: resolved})
}
