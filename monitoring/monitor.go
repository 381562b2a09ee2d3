// Package monitoring serves the state of a running replay over HTTP.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/rs/xid"
	"github.com/sarchlab/memhier/mem"
	"github.com/sarchlab/memhier/monitoring/web"
	"github.com/sarchlab/memhier/replay"
	"github.com/sarchlab/memhier/sim/hooking"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// Monitor turns a simulation into a server that can be inspected from a
// browser. Levels and cores are only read while no phase is running.
type Monitor struct {
	simLock    sync.Mutex
	engine     *replay.Engine
	levels     []mem.Level
	portNumber int

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
	recordsBar       *ProgressBar
	recordsTotal     uint64
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterLevel registers a level to be monitored.
func (m *Monitor) RegisterLevel(l mem.Level) {
	m.simLock.Lock()
	defer m.simLock.Unlock()

	m.levels = append(m.levels, l)
}

// RegisterEngine registers the replay engine and tracks the progress of its
// trace records. The engine must have all its cores added.
func (m *Monitor) RegisterEngine(e *replay.Engine) {
	m.simLock.Lock()
	m.engine = e
	m.recordsTotal = pendingRecords(e)
	m.simLock.Unlock()

	m.recordsBar = m.CreateProgressBar("Trace records", m.recordsTotal)

	e.AcceptHook(m)
}

func pendingRecords(e *replay.Engine) uint64 {
	var n uint64
	for _, c := range e.Cores() {
		n += uint64(c.Pending())
	}

	return n
}

// Guard runs f while holding the simulation lock. Phases must run inside
// Guard so that the server never reads a level in the middle of an access.
func (m *Monitor) Guard(f func()) {
	m.simLock.Lock()
	defer m.simLock.Unlock()

	f()
}

// Func updates the progress bar at the end of every phase. It runs on the
// simulation goroutine, inside Guard.
func (m *Monitor) Func(ctx hooking.HookCtx) {
	if ctx.Pos != replay.HookPosPhaseEnd || m.recordsBar == nil {
		return
	}

	engine, ok := ctx.Domain.(*replay.Engine)
	if !ok {
		return
	}

	finished := m.recordsTotal - pendingRecords(engine)

	m.recordsBar.Lock()
	delta := finished - m.recordsBar.Finished
	m.recordsBar.Unlock()

	m.recordsBar.IncrementFinished(delta)
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        xid.New().String(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Router returns the routes served by the monitor.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	fServer := http.FileServer(web.GetAssets())
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/levels", m.listLevels)
	r.HandleFunc("/api/level/{name}", m.listLevelDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/counters", m.listCounters)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/").Handler(fServer)

	return r
}

// StartServer starts the monitor as a web server and returns its URL.
func (m *Monitor) StartServer() (string, error) {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return "", fmt.Errorf("starting monitor: %w", err)
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	r := m.Router()

	go func() {
		err := http.Serve(listener, r)
		dieOnErr(err)
	}()

	return url, nil
}

type nowRsp struct {
	Phase uint64 `json:"phase"`
	Done  bool   `json:"done"`
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	rsp := nowRsp{}

	m.Guard(func() {
		if m.engine != nil {
			rsp.Phase = m.engine.Phase()
			rsp.Done = m.engine.Done()
		}
	})

	writeJSON(w, rsp)
}

func (m *Monitor) listLevels(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(m.levels))

	m.Guard(func() {
		for _, l := range m.levels {
			names = append(names, l.Name())
		}
	})

	writeJSON(w, names)
}

func (m *Monitor) listLevelDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	m.Guard(func() {
		level := m.findLevelOr404(w, name)
		if level == nil {
			return
		}

		serializer := goseth.NewSerializer()
		serializer.SetRoot(level)
		serializer.SetMaxDepth(1)
		err := serializer.Serialize(w)

		dieOnErr(err)
	})
}

type fieldReq struct {
	LevelName string `json:"level_name,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	jsonString := mux.Vars(r)["json"]
	req := fieldReq{}

	err := json.Unmarshal([]byte(jsonString), &req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	fields := strings.Split(req.FieldName, ".")

	m.Guard(func() {
		level := m.findLevelOr404(w, req.LevelName)
		if level == nil {
			return
		}

		serializer := goseth.NewSerializer()
		serializer.SetRoot(level)
		serializer.SetMaxDepth(1)

		err = serializer.SetEntryPoint(fields)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, "Error: %s", err)

			return
		}

		err = serializer.Serialize(w)
		dieOnErr(err)
	})
}

type levelCounters struct {
	Name string `json:"name"`
	mem.Counters
}

func (m *Monitor) listCounters(w http.ResponseWriter, _ *http.Request) {
	rsp := make([]levelCounters, 0, len(m.levels))

	m.Guard(func() {
		for _, l := range m.levels {
			rsp = append(rsp, levelCounters{
				Name:     l.Name(),
				Counters: l.Counters(),
			})
		}
	})

	writeJSON(w, rsp)
}

func (m *Monitor) findLevelOr404(
	w http.ResponseWriter,
	name string,
) mem.Level {
	for _, l := range m.levels {
		if l.Name() == name {
			return l
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Level not found"))
	dieOnErr(err)

	return nil
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	bars := make([]progressBarRsp, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.snapshot())
	}

	writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	writeJSON(w, rsp)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
