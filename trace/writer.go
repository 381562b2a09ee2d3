package trace

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"

	"github.com/sarchlab/memhier/mem"
)

// A Writer produces the text trace format.
type Writer struct {
	w *bufio.Writer
}

// NewWriter creates a writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Comment writes a comment line.
func (w *Writer) Comment(format string, args ...any) error {
	_, err := fmt.Fprintf(w.w, "# "+format+"\n", args...)
	return err
}

// Write writes one record of a core.
func (w *Writer) Write(core int, r Record) error {
	_, err := fmt.Fprintf(w.w, "%d %s\n", core, r)
	return err
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// SynthOptions shape a synthetic workload.
type SynthOptions struct {
	NumCores       int
	RecordsPerCore int
	FootprintLines uint64
	StoreRatio     float64
	BlockRatio     float64
	Seed           int64
}

// Synthesize writes a random workload. Each core gets a private region of
// the footprint plus a region shared by all cores, and its instruction
// blocks walk a small code region sequentially.
func Synthesize(w *Writer, opts SynthOptions) error {
	if opts.NumCores <= 0 || opts.FootprintLines == 0 {
		return fmt.Errorf("synthetic trace needs cores and a footprint")
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	codeBase := mem.LineAddress(1 << 32)
	sharedBase := mem.LineAddress(1 << 40)

	err := w.Comment("synthetic trace: %d cores, %d records each, seed %d",
		opts.NumCores, opts.RecordsPerCore, opts.Seed)
	if err != nil {
		return err
	}

	pc := make([]mem.LineAddress, opts.NumCores)
	for i := 0; i < opts.RecordsPerCore; i++ {
		for core := 0; core < opts.NumCores; core++ {
			rec := synthRecord(rng, opts, core, &pc[core], codeBase, sharedBase)
			if err := w.Write(core, rec); err != nil {
				return err
			}
		}
	}

	return w.Flush()
}

func synthRecord(
	rng *rand.Rand,
	opts SynthOptions,
	core int,
	pc *mem.LineAddress,
	codeBase, sharedBase mem.LineAddress,
) Record {
	p := rng.Float64()

	if p < opts.BlockRatio {
		bytes := uint32(8 + rng.Intn(120))
		rec := Block(codeBase+*pc, bytes, bytes/4+1)
		*pc = (*pc + 1) % 256

		return rec
	}

	var addr mem.LineAddress
	if rng.Intn(4) == 0 {
		addr = sharedBase + mem.LineAddress(rng.Int63n(int64(opts.FootprintLines)))
	} else {
		region := mem.LineAddress(uint64(core+1) << 28)
		addr = region + mem.LineAddress(rng.Int63n(int64(opts.FootprintLines)))
	}

	if rng.Float64() < opts.StoreRatio {
		return Store(addr)
	}

	return Load(addr)
}
