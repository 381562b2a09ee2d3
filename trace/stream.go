package trace

// A Stream is the queue of records a core has yet to replay. It is a ring
// whose size is a power of two, grown by doubling when full.
type Stream struct {
	buf  []Record
	mask uint64
	head uint64
	tail uint64
}

// NewStream creates a stream that can hold at least sizeHint records
// before growing.
func NewStream(sizeHint int) *Stream {
	size := uint64(1)
	for size < uint64(sizeHint) {
		size <<= 1
	}

	return &Stream{
		buf:  make([]Record, size),
		mask: size - 1,
	}
}

// Push appends a record.
func (s *Stream) Push(r Record) {
	if s.Len() == len(s.buf) {
		s.grow()
	}

	s.buf[s.tail&s.mask] = r
	s.tail++
}

// Pop removes the oldest record. It returns false if the stream is empty.
func (s *Stream) Pop() (Record, bool) {
	if s.Len() == 0 {
		return Record{}, false
	}

	r := s.buf[s.head&s.mask]
	s.head++

	return r, true
}

// Peek returns the oldest record without removing it.
func (s *Stream) Peek() (Record, bool) {
	if s.Len() == 0 {
		return Record{}, false
	}

	return s.buf[s.head&s.mask], true
}

// Len returns the number of records waiting.
func (s *Stream) Len() int {
	return int(s.tail - s.head)
}

// Cap returns the number of records the stream holds before growing.
func (s *Stream) Cap() int {
	return len(s.buf)
}

func (s *Stream) grow() {
	buf := make([]Record, 2*len(s.buf))

	n := s.Len()
	for i := 0; i < n; i++ {
		buf[i] = s.buf[(s.head+uint64(i))&s.mask]
	}

	s.buf = buf
	s.mask = uint64(len(buf)) - 1
	s.head = 0
	s.tail = uint64(n)
}
