package tagging

import (
	"fmt"
)

// DuplicateTagError reports two valid ways of one set holding the same tag.
type DuplicateTagError struct {
	Set  int
	Ways [2]int
	Tag  uint64
}

func (e *DuplicateTagError) Error() string {
	return fmt.Sprintf("set %d: ways %d and %d both hold tag %#x",
		e.Set, e.Ways[0], e.Ways[1], e.Tag)
}

// A TagArray holds the packed entries of every way of every set.
type TagArray struct {
	codec   Codec
	numWays int
	entries []Entry
}

// NewTagArray creates an empty tag array.
func NewTagArray(numSets, numWays int) *TagArray {
	if numWays <= 0 {
		panic(fmt.Sprintf("tagging: invalid number of ways %d", numWays))
	}

	t := &TagArray{
		codec:   NewCodec(numSets),
		numWays: numWays,
	}

	t.Reset()

	return t
}

// Codec returns the address codec of the array.
func (t *TagArray) Codec() Codec {
	return t.codec
}

// NumSets returns the number of sets.
func (t *TagArray) NumSets() int {
	return t.codec.NumSets()
}

// NumWays returns the associativity.
func (t *TagArray) NumWays() int {
	return t.numWays
}

// Reset marks every way invalid.
func (t *TagArray) Reset() {
	t.entries = make([]Entry, t.NumSets()*t.numWays)
}

// Lookup searches a set for a valid way holding tag. The whole set is
// scanned so that a second copy is reported instead of silently ignored.
func (t *TagArray) Lookup(setID int, tag uint64) (wayID int, found bool, err error) {
	wayID = -1

	for w, e := range t.set(setID) {
		if !e.Matches(tag) {
			continue
		}

		if wayID >= 0 {
			return wayID, true, &DuplicateTagError{
				Set:  setID,
				Ways: [2]int{wayID, w},
				Tag:  tag,
			}
		}

		wayID = w
	}

	return wayID, wayID >= 0, nil
}

// Entry returns the entry stored in a way.
func (t *TagArray) Entry(setID, wayID int) Entry {
	return t.entries[t.index(setID, wayID)]
}

// Install places a clean, valid line in a way and returns what the way held
// before.
func (t *TagArray) Install(setID, wayID int, tag uint64) Entry {
	i := t.index(setID, wayID)
	prev := t.entries[i]
	t.entries[i] = Pack(tag, true, false)

	return prev
}

// MarkDirty sets the dirty bit of a way.
func (t *TagArray) MarkDirty(setID, wayID int) {
	i := t.index(setID, wayID)
	t.entries[i] = t.entries[i].WithDirty(true)
}

// Invalidate clears the valid bit of a way.
func (t *TagArray) Invalidate(setID, wayID int) {
	i := t.index(setID, wayID)
	t.entries[i] = t.entries[i].WithValid(false)
}

// FirstInvalid returns the lowest way of a set that holds no line.
func (t *TagArray) FirstInvalid(setID int) (wayID int, ok bool) {
	for w, e := range t.set(setID) {
		if !e.Valid() {
			return w, true
		}
	}

	return -1, false
}

// Visit calls f for every valid way.
func (t *TagArray) Visit(f func(setID, wayID int, e Entry)) {
	for i, e := range t.entries {
		if e.Valid() {
			f(i/t.numWays, i%t.numWays, e)
		}
	}
}

func (t *TagArray) set(setID int) []Entry {
	start := setID * t.numWays
	return t.entries[start : start+t.numWays]
}

func (t *TagArray) index(setID, wayID int) int {
	if setID < 0 || setID >= t.NumSets() || wayID < 0 || wayID >= t.numWays {
		panic(fmt.Sprintf("tagging: set %d way %d out of range", setID, wayID))
	}

	return setID*t.numWays + wayID
}
