package trace

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/memhier/mem"
)

// A ParseError locates a malformed line of a trace file.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("trace line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// A Reader parses the text trace format. Each line is one of
//
//	<core> L <lineAddr>
//	<core> S <lineAddr>
//	<core> B <lineAddr> <bytes> <instrs>
//
// Numbers are decimal or 0x-prefixed hex. Blank lines and text after a #
// are ignored.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader creates a reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Next returns the next record and the core it belongs to. It returns
// io.EOF after the last record.
func (r *Reader) Next() (int, Record, error) {
	for r.scanner.Scan() {
		r.line++

		text := r.scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}

		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}

		core, rec, err := parseFields(fields)
		if err != nil {
			return 0, Record{}, &ParseError{
				Line: r.line,
				Text: r.scanner.Text(),
				Err:  err,
			}
		}

		return core, rec, nil
	}

	if err := r.scanner.Err(); err != nil {
		return 0, Record{}, err
	}

	return 0, Record{}, io.EOF
}

func parseFields(fields []string) (int, Record, error) {
	if len(fields) < 3 {
		return 0, Record{}, fmt.Errorf("expected at least 3 fields, got %d",
			len(fields))
	}

	core, err := strconv.ParseUint(fields[0], 0, 31)
	if err != nil {
		return 0, Record{}, fmt.Errorf("bad core: %w", err)
	}

	addr, err := strconv.ParseUint(fields[2], 0, 64)
	if err != nil {
		return 0, Record{}, fmt.Errorf("bad address: %w", err)
	}

	switch fields[1] {
	case "L":
		return int(core), Load(mem.LineAddress(addr)), checkArity(fields, 3)
	case "S":
		return int(core), Store(mem.LineAddress(addr)), checkArity(fields, 3)
	case "B":
		if err := checkArity(fields, 5); err != nil {
			return 0, Record{}, err
		}

		bytes, err := strconv.ParseUint(fields[3], 0, 32)
		if err != nil {
			return 0, Record{}, fmt.Errorf("bad byte count: %w", err)
		}

		instrs, err := strconv.ParseUint(fields[4], 0, 32)
		if err != nil {
			return 0, Record{}, fmt.Errorf("bad instruction count: %w", err)
		}

		return int(core),
			Block(mem.LineAddress(addr), uint32(bytes), uint32(instrs)),
			nil
	default:
		return 0, Record{}, fmt.Errorf("unknown record kind %q", fields[1])
	}
}

func checkArity(fields []string, n int) error {
	if len(fields) != n {
		return fmt.Errorf("%s records take %d fields, got %d",
			fields[1], n, len(fields))
	}

	return nil
}

// ReadStreams reads a whole trace into one stream per core. Records of a
// core id outside [0, numCores) are an error.
func ReadStreams(r io.Reader, numCores int) ([]*Stream, error) {
	streams := make([]*Stream, numCores)
	for i := range streams {
		streams[i] = NewStream(1024)
	}

	reader := NewReader(r)
	for {
		core, rec, err := reader.Next()
		if err == io.EOF {
			return streams, nil
		}

		if err != nil {
			return nil, err
		}

		if core >= numCores {
			return nil, &ParseError{
				Line: reader.line,
				Text: reader.scanner.Text(),
				Err: fmt.Errorf("core %d out of range, the system has %d",
					core, numCores),
			}
		}

		streams[core].Push(rec)
	}
}
