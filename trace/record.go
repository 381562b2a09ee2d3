// Package trace holds the per-core reference streams that drive a replay
// and the text format they are stored in.
package trace

import (
	"fmt"

	"github.com/sarchlab/memhier/mem"
)

// Kind tells what a record does.
type Kind uint8

// Kinds of records.
const (
	KindLoad Kind = iota
	KindStore
	KindBlock
)

func (k Kind) String() string {
	switch k {
	case KindLoad:
		return "L"
	case KindStore:
		return "S"
	case KindBlock:
		return "B"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// A Record is one memory reference of a core. Bytes and Instrs only apply
// to instruction blocks.
type Record struct {
	Kind   Kind
	Addr   mem.LineAddress
	Bytes  uint32
	Instrs uint32
}

// Load creates a data load record.
func Load(addr mem.LineAddress) Record {
	return Record{Kind: KindLoad, Addr: addr}
}

// Store creates a data store record.
func Store(addr mem.LineAddress) Record {
	return Record{Kind: KindStore, Addr: addr}
}

// Block creates an instruction block record covering bytes bytes of code
// from the line addr, holding instrs instructions.
func Block(addr mem.LineAddress, bytes, instrs uint32) Record {
	return Record{Kind: KindBlock, Addr: addr, Bytes: bytes, Instrs: instrs}
}

// NumLines returns how many consecutive lines an instruction block touches.
// Other records touch one line.
func (r Record) NumLines(lineSize uint64) uint64 {
	if r.Kind != KindBlock {
		return 1
	}

	return (uint64(r.Bytes) + lineSize - 1) / lineSize
}

func (r Record) String() string {
	if r.Kind == KindBlock {
		return fmt.Sprintf("%s %#x %d %d", r.Kind, uint64(r.Addr), r.Bytes, r.Instrs)
	}

	return fmt.Sprintf("%s %#x", r.Kind, uint64(r.Addr))
}
