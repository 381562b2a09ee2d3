package datarecording

import (
	"os"
	"strings"
	"time"

	"github.com/rs/xid"
)

// ExecInfo is one property of a program execution.
type ExecInfo struct {
	Property string
	Value    string
}

// ExecRecorder records how and when the simulator was run.
type ExecRecorder struct {
	tablename string
	recorder  DataRecorder
	entries   []ExecInfo
	runID     string
}

// NewExecRecorder creates the exec_info table in the recorder.
func NewExecRecorder(recorder DataRecorder) *ExecRecorder {
	e := &ExecRecorder{
		tablename: "exec_info",
		recorder:  recorder,
		runID:     xid.New().String(),
	}

	e.recorder.CreateTable(e.tablename, ExecInfo{})

	return e
}

// RunID returns the unique id of this run.
func (e *ExecRecorder) RunID() string {
	return e.runID
}

// Start logs the current execution.
func (e *ExecRecorder) Start() {
	startTime := time.Now().Format("2006-01-02 15:04:05.000000000")

	e.entries = append(e.entries,
		ExecInfo{"Run ID", e.runID},
		ExecInfo{"Start Time", startTime},
		ExecInfo{"Command", strings.Join(os.Args, " ")},
	)

	if cwd, err := os.Getwd(); err == nil {
		e.entries = append(e.entries, ExecInfo{"Working Directory", cwd})
	}
}

// Set adds a property of the run, such as the configuration used.
func (e *ExecRecorder) Set(property, value string) {
	e.entries = append(e.entries, ExecInfo{property, value})
}

// End writes the properties along with the program exit time.
func (e *ExecRecorder) End() {
	for _, entry := range e.entries {
		e.recorder.InsertData(e.tablename, entry)
	}

	endTime := time.Now().Format("2006-01-02 15:04:05.000000000")
	e.recorder.InsertData(e.tablename, ExecInfo{"End Time", endTime})

	e.entries = nil

	e.recorder.Flush()
}
