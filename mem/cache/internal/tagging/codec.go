package tagging

import (
	"log"

	"github.com/sarchlab/memhier/mem"
)

const (
	validBit uint64 = 1 << 63
	dirtyBit uint64 = 1 << 62

	// MaxTag is the largest tag that fits in a packed entry.
	MaxTag uint64 = dirtyBit - 1
)

// A Codec splits line addresses into a set index and a tag for one level.
// It holds no state other than the set count.
type Codec struct {
	numSets uint64
}

// NewCodec creates a codec for a level with numSets sets.
func NewCodec(numSets int) Codec {
	if numSets <= 0 {
		log.Panicf("tagging: invalid number of sets %d", numSets)
	}

	return Codec{numSets: uint64(numSets)}
}

// NumSets returns the number of sets the codec indexes.
func (c Codec) NumSets() int {
	return int(c.numSets)
}

// Split returns the set index and the tag of a line address.
func (c Codec) Split(addr mem.LineAddress) (setID int, tag uint64) {
	a := uint64(addr)
	return int(a % c.numSets), a / c.numSets
}

// Join rebuilds the line address from a set index and a tag.
func (c Codec) Join(setID int, tag uint64) mem.LineAddress {
	return mem.LineAddress(tag*c.numSets + uint64(setID))
}

// An Entry is one way of the tag array. The valid and dirty bits take the
// two top bits of the word and the tag takes the rest.
type Entry uint64

// Pack builds an entry.
func Pack(tag uint64, valid, dirty bool) Entry {
	e := Entry(tag & MaxTag)
	return e.WithValid(valid).WithDirty(dirty)
}

// Unpack returns all the fields of the entry.
func (e Entry) Unpack() (tag uint64, valid, dirty bool) {
	return e.Tag(), e.Valid(), e.Dirty()
}

// Tag returns the tag bits.
func (e Entry) Tag() uint64 {
	return uint64(e) & MaxTag
}

// Valid tells if the entry holds a line.
func (e Entry) Valid() bool {
	return uint64(e)&validBit != 0
}

// Dirty tells if the line was written since it was installed.
func (e Entry) Dirty() bool {
	return uint64(e)&dirtyBit != 0
}

// WithValid returns a copy of the entry with the valid bit set to v.
func (e Entry) WithValid(v bool) Entry {
	if v {
		return Entry(uint64(e) | validBit)
	}

	return Entry(uint64(e) &^ validBit)
}

// WithDirty returns a copy of the entry with the dirty bit set to d.
func (e Entry) WithDirty(d bool) Entry {
	if d {
		return Entry(uint64(e) | dirtyBit)
	}

	return Entry(uint64(e) &^ dirtyBit)
}

// Matches tells if the entry is valid and holds the given tag.
func (e Entry) Matches(tag uint64) bool {
	return e.Valid() && e.Tag() == tag
}
