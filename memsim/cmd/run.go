package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/pkg/browser"
	"github.com/sarchlab/memhier/config"
	"github.com/sarchlab/memhier/datarecording"
	"github.com/sarchlab/memhier/mem/hierarchy"
	"github.com/sarchlab/memhier/monitoring"
	"github.com/sarchlab/memhier/replay"
	"github.com/sarchlab/memhier/sim"
	"github.com/sarchlab/memhier/trace"
	"github.com/sarchlab/memhier/tracing"
	"github.com/spf13/cobra"
)

type runOptions struct {
	configPath     string
	tracePath      string
	dbPath         string
	recordInterval uint64
	queue          string
	maxPhases      uint64
	monitor        bool
	port           int
	openBrowser    bool
	logAccesses    bool
	countEvents    bool
	checkInvariant bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay a trace through the configured hierarchy.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		flags := cmd.Flags()
		opts := runOptions{}
		opts.configPath, _ = flags.GetString("config")
		opts.tracePath, _ = flags.GetString("trace")
		opts.dbPath, _ = flags.GetString("db")
		opts.recordInterval, _ = flags.GetUint64("record-interval")
		opts.queue, _ = flags.GetString("queue")
		opts.maxPhases, _ = flags.GetUint64("max-phases")
		opts.monitor, _ = flags.GetBool("monitor")
		opts.port, _ = flags.GetInt("port")
		opts.openBrowser, _ = flags.GetBool("open")
		opts.logAccesses, _ = flags.GetBool("log-accesses")
		opts.countEvents, _ = flags.GetBool("count-events")
		opts.checkInvariant, _ = flags.GetBool("check")

		return runSimulation(opts, cmd.OutOrStdout())
	},
}

func init() {
	f := runCmd.Flags()
	f.StringP("config", "c", "", "YAML configuration file; the defaults are used when empty")
	f.StringP("trace", "t", "", "trace file to replay")
	f.String("db", "", "record per-phase counters into this SQLite database "+
		"(without extension) or clickhouse:// DSN")
	f.Uint64("record-interval", 1, "record counters every this many phases")
	f.String("queue", "wheel", "event queue: wheel, heap, or insertion")
	f.Uint64("max-phases", 0, "stop after this many phases; 0 runs to completion")
	f.Bool("monitor", false, "serve a monitoring page while simulating")
	f.Int("port", 0, "port of the monitoring server; random when 0")
	f.Bool("open", false, "open the monitoring page in a browser")
	f.Bool("log-accesses", false, "log every cache event to stderr")
	f.Bool("count-events", false, "print the number of cache events of each kind")
	f.Bool("check", false, "check the hierarchy invariants when the run ends")

	_ = runCmd.MarkFlagRequired("trace")

	rootCmd.AddCommand(runCmd)
}

func makeQueue(name string) (sim.EventQueue, error) {
	switch name {
	case "wheel":
		return sim.NewTimingWheel(), nil
	case "heap":
		return sim.NewHeapQueue(), nil
	case "insertion":
		return sim.NewInsertionQueue(), nil
	default:
		return nil, fmt.Errorf("unknown event queue %q", name)
	}
}

func readTrace(path string, numCores int) ([]*trace.Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trace: %w", err)
	}
	defer f.Close()

	streams, err := trace.ReadStreams(f, numCores)
	if err != nil {
		return nil, fmt.Errorf("reading trace %s: %w", path, err)
	}

	return streams, nil
}

func buildEngine(
	cfg config.Config,
	h *hierarchy.Hierarchy,
	streams []*trace.Stream,
	queue sim.EventQueue,
) *replay.Engine {
	engine := replay.MakeBuilder().
		WithPhaseLength(cfg.Sim.PhaseLength).
		WithLineSize(cfg.Sys.LineSize).
		WithQueue(queue).
		WithLogger(log.New(os.Stderr, "", 0)).
		Build()

	for core, s := range streams {
		inst, data := h.Ports(core)
		engine.AddCore(inst, data, s)
	}

	return engine
}

type recording struct {
	recorder datarecording.DataRecorder
	exec     *datarecording.ExecRecorder
	phases   *datarecording.PhaseRecorder
}

func startRecording(
	opts runOptions,
	cfg config.Config,
	h *hierarchy.Hierarchy,
	engine *replay.Engine,
) (*recording, error) {
	cfgText, err := cfg.Marshal()
	if err != nil {
		return nil, err
	}

	r := &recording{}

	if strings.HasPrefix(opts.dbPath, "clickhouse://") {
		r.recorder, err = datarecording.NewClickHouse(opts.dbPath)
	} else {
		r.recorder, err = datarecording.New(opts.dbPath)
	}

	if err != nil {
		return nil, err
	}

	r.exec = datarecording.NewExecRecorder(r.recorder)
	r.exec.Start()
	r.exec.Set("Config", string(cfgText))
	r.exec.Set("Trace", opts.tracePath)
	r.exec.Set("Queue", opts.queue)

	r.phases = datarecording.NewPhaseRecorder(
		r.recorder, h.Levels(), opts.recordInterval)
	engine.AcceptHook(r.phases)

	return r, nil
}

func (r *recording) finish(engine *replay.Engine) error {
	r.phases.Finish(engine)
	r.exec.Set("Phases", fmt.Sprint(engine.Phase()))
	r.exec.End()

	return r.recorder.Close()
}

func startMonitor(
	opts runOptions,
	h *hierarchy.Hierarchy,
	engine *replay.Engine,
) (*monitoring.Monitor, error) {
	m := monitoring.NewMonitor().WithPortNumber(opts.port)

	for _, l := range h.Levels() {
		m.RegisterLevel(l)
	}

	m.RegisterEngine(engine)

	url, err := m.StartServer()
	if err != nil {
		return nil, err
	}

	if opts.openBrowser {
		if err := browser.OpenURL(url); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open browser: %v\n", err)
		}
	}

	return m, nil
}

func runSimulation(opts runOptions, out io.Writer) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	queue, err := makeQueue(opts.queue)
	if err != nil {
		return err
	}

	h, err := hierarchy.Build(cfg)
	if err != nil {
		return err
	}

	streams, err := readTrace(opts.tracePath, cfg.Sys.NumCores)
	if err != nil {
		return err
	}

	engine := buildEngine(cfg, h, streams, queue)

	if opts.logAccesses {
		h.AcceptHook(tracing.NewAccessLogger(log.New(os.Stderr, "", 0)))
	}

	var counts *tracing.CountTracer
	if opts.countEvents {
		counts = tracing.NewCountTracer()
		h.AcceptHook(counts)
	}

	var rec *recording
	if opts.dbPath != "" {
		rec, err = startRecording(opts, cfg, h, engine)
		if err != nil {
			return err
		}
	}

	simPhase := engine.SimPhase
	if opts.monitor {
		m, err := startMonitor(opts, h, engine)
		if err != nil {
			return err
		}

		simPhase = func() { m.Guard(engine.SimPhase) }
	}

	for n := uint64(0); !engine.Done(); n++ {
		if opts.maxPhases > 0 && n >= opts.maxPhases {
			break
		}

		simPhase()
	}

	if rec != nil {
		if err := rec.finish(engine); err != nil {
			return err
		}
	}

	if opts.checkInvariant {
		if err := h.CheckInvariants(); err != nil {
			return err
		}
	}

	printSummary(out, h, engine, counts)

	return nil
}

func printSummary(
	out io.Writer,
	h *hierarchy.Hierarchy,
	engine *replay.Engine,
	counts *tracing.CountTracer,
) {
	fmt.Fprintf(out, "phases: %d\n", engine.Phase())

	for _, c := range engine.Cores() {
		fmt.Fprintf(out, "core %d: cycles %d, instrs %d\n",
			c.ID(), c.Cycles(), c.Instrs())
	}

	for _, l := range h.Levels() {
		c := l.Counters()
		fmt.Fprintf(out,
			"%s: hits %d, misses %d, invalidations %d, evictions %d\n",
			l.Name(), c.Hits, c.Misses, c.Invalidations, c.Evictions)
	}

	if counts == nil {
		return
	}

	for _, name := range counts.Levels() {
		fields := []string{}
		for _, pos := range cachePositions {
			fields = append(fields,
				fmt.Sprintf("%s %d", pos.Name, counts.Count(name, pos)))
		}

		fmt.Fprintf(out, "%s events: %s\n", name, strings.Join(fields, ", "))
	}
}
