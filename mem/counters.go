package mem

// Counters are the monotonic statistics kept by one level. They are only
// read between phases.
type Counters struct {
	Hits          uint64 `json:"hits"`
	Misses        uint64 `json:"misses"`
	Invalidations uint64 `json:"invalidations"`
	Evictions     uint64 `json:"evictions"`
}

// Accesses returns the number of accesses served so far.
func (c Counters) Accesses() uint64 {
	return c.Hits + c.Misses
}

// Add returns the element-wise sum of two counter sets.
func (c Counters) Add(o Counters) Counters {
	return Counters{
		Hits:          c.Hits + o.Hits,
		Misses:        c.Misses + o.Misses,
		Invalidations: c.Invalidations + o.Invalidations,
		Evictions:     c.Evictions + o.Evictions,
	}
}
