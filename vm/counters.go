package vm

import (
	"sync/atomic"

	"github.com/tliron/commonlog"
)

// Counters are the machine's execution counters. Purely observational; no
// semantics hang off them. Cheap enough to leave always on.
type Counters struct {
	Bytecodes   atomic.Int64
	Instances   atomic.Int64
	FieldReads  atomic.Int64
	FieldWrites atomic.Int64
	Faults      atomic.Int64
	Quickenings atomic.Int64
}

// NewCounters returns a zeroed counter set.
func NewCounters() *Counters {
	return &Counters{}
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Bytecodes   int64
	Instances   int64
	FieldReads  int64
	FieldWrites int64
	Faults      int64
	Quickenings int64
}

// Snapshot reads all counters.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Bytecodes:   c.Bytecodes.Load(),
		Instances:   c.Instances.Load(),
		FieldReads:  c.FieldReads.Load(),
		FieldWrites: c.FieldWrites.Load(),
		Faults:      c.Faults.Load(),
		Quickenings: c.Quickenings.Load(),
	}
}

// Dump logs the current counter values.
func (c *Counters) Dump(log commonlog.Logger) {
	s := c.Snapshot()
	log.Infof("bytecodes=%d instances=%d fieldReads=%d fieldWrites=%d faults=%d quickenings=%d",
		s.Bytecodes, s.Instances, s.FieldReads, s.FieldWrites, s.Faults, s.Quickenings)
}
