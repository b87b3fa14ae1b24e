package vm

import "fmt"

// guestThrow carries an in-flight guest exception up the Go stack. The
// dispatch loop recovers it at every frame to run handler resolution; it
// never escapes Execute.
type guestThrow struct {
	exception *Object
}

// GuestError is an unhandled guest exception surfacing at the unit
// boundary as a plain Go error.
type GuestError struct {
	Exception *Object
}

func (e *GuestError) Error() string {
	msg := e.Exception.str
	if msg == "" {
		return e.Exception.Class.Name
	}
	return e.Exception.Class.Name + ": " + msg
}

// InvariantViolation marks a state the dispatch loop must never reach:
// malformed code past the loading boundary, a kind-mismatched local read, a
// reserved opcode. It is a host panic, is never convertible to a guest
// exception, and is never caught by guest handlers.
type InvariantViolation struct {
	Reason string
}

func (v *InvariantViolation) Error() string {
	return "invariant violation: " + v.Reason
}

// Fault is a host-detected guest misbehavior. Each fault converts to its
// canonical guest exception class before entering guest handler dispatch.
type Fault uint8

const (
	FaultNullPointer Fault = iota
	FaultArrayIndex
	FaultArithmetic
	FaultClassCast
	FaultNegativeArraySize
	FaultArrayStore
	FaultIllegalMonitorState
	FaultStackOverflow
	FaultAbstractMethod
)

var faultClassNames = [...]string{
	FaultNullPointer:         "NullPointerException",
	FaultArrayIndex:          "ArrayIndexOutOfBoundsException",
	FaultArithmetic:          "ArithmeticException",
	FaultClassCast:           "ClassCastException",
	FaultNegativeArraySize:   "NegativeArraySizeException",
	FaultArrayStore:          "ArrayStoreException",
	FaultIllegalMonitorState: "IllegalMonitorStateException",
	FaultStackOverflow:       "StackOverflowError",
	FaultAbstractMethod:      "AbstractMethodError",
}

// ClassName returns the guest exception class the fault converts to.
func (f Fault) ClassName() string {
	if int(f) < len(faultClassNames) {
		return faultClassNames[f]
	}
	panic(&InvariantViolation{Reason: fmt.Sprintf("unknown fault %d", f)})
}

// resolveHandler returns the first handler, in declaration order, whose
// range covers bci and whose catch type is assignable from the thrown
// class. Catch type 0 catches everything. Nil means the exception leaves
// the frame.
func resolveHandler(code *Code, bci int, thrown *Object) *ExceptionHandler {
	for i := range code.Handlers {
		h := &code.Handlers[i]
		if bci < h.StartPC || bci >= h.EndPC {
			continue
		}
		if h.CatchType == 0 {
			return h
		}
		catch := code.Pool.ClassAt(h.CatchType)
		if catch.IsAssignableFrom(thrown.Class) {
			return h
		}
	}
	return nil
}
