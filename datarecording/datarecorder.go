// Package datarecording stores simulation statistics in a database.
package datarecording

import (
	"database/sql"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/fatih/structs"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// DataRecorder is a backend that can record and store data
type DataRecorder interface {
	// CreateTable creates a new table whose columns are the fields of the
	// sample entry.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers an entry of a table that already exists.
	InsertData(tableName string, entry any)

	// ListTables returns the names of all the tables created.
	ListTables() []string

	// Flush writes all the buffered entries into the database.
	Flush()

	// Close flushes and closes the database.
	Close() error
}

const sqliteBatchSize = 100000

// New creates a DataRecorder writing to path.sqlite3. An empty path picks
// a unique name. It refuses to reuse an existing file, so that the rows of
// two runs never mix.
func New(path string) (DataRecorder, error) {
	if path == "" {
		path = "memhier_stats_" + xid.New().String()
	}

	filename := path + ".sqlite3"
	if _, err := os.Stat(filename); err == nil {
		return nil, fmt.Errorf("recording database %s: %w",
			filename, os.ErrExist)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(os.Stderr, "Database created for recording: %s\n", filename)

	r := &sqliteRecorder{
		db:     db,
		tables: make(map[string]*sqliteTable),
	}

	atexit.Register(func() { r.Flush() })

	return r, nil
}

// sqliteTable buffers the rows of one table until the next flush.
type sqliteTable struct {
	rowType   reflect.Type
	insertSQL string
	pending   [][]any
}

type sqliteRecorder struct {
	db      *sql.DB
	tables  map[string]*sqliteTable
	order   []string
	pending int
	closed  bool
}

func (r *sqliteRecorder) CreateTable(tableName string, sampleEntry any) {
	if err := checkStructFields(sampleEntry); err != nil {
		panic(err)
	}

	if _, dup := r.tables[tableName]; dup {
		panic(fmt.Sprintf("table %s already exists", tableName))
	}

	columns := structs.Names(sampleEntry)
	r.mustExec(fmt.Sprintf("CREATE TABLE %s (\n\t%s\n);",
		tableName, strings.Join(columns, ",\n\t")))

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")

	r.tables[tableName] = &sqliteTable{
		rowType: reflect.TypeOf(sampleEntry),
		insertSQL: fmt.Sprintf("INSERT INTO %s VALUES (%s)",
			tableName, placeholders),
	}
	r.order = append(r.order, tableName)
}

func (r *sqliteRecorder) InsertData(tableName string, entry any) {
	t, ok := r.tables[tableName]
	if !ok {
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	if reflect.TypeOf(entry) != t.rowType {
		panic(fmt.Sprintf("entry of type %T does not fit table %s",
			entry, tableName))
	}

	t.pending = append(t.pending, structs.Values(entry))

	r.pending++
	if r.pending >= sqliteBatchSize {
		r.Flush()
	}
}

func (r *sqliteRecorder) ListTables() []string {
	return append([]string(nil), r.order...)
}

// Flush writes the buffered rows of every table in a single transaction.
func (r *sqliteRecorder) Flush() {
	if r.pending == 0 || r.closed {
		return
	}

	tx, err := r.db.Begin()
	if err != nil {
		panic(err)
	}

	for _, name := range r.order {
		if err := r.tables[name].writeTo(tx); err != nil {
			_ = tx.Rollback()
			panic(fmt.Errorf("writing table %s: %w", name, err))
		}
	}

	if err := tx.Commit(); err != nil {
		panic(err)
	}

	r.pending = 0
}

func (r *sqliteRecorder) Close() error {
	r.Flush()
	r.closed = true

	return r.db.Close()
}

func (r *sqliteRecorder) mustExec(query string) {
	if _, err := r.db.Exec(query); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to execute: %s\n", query)
		panic(err)
	}
}

func (t *sqliteTable) writeTo(tx *sql.Tx) error {
	if len(t.pending) == 0 {
		return nil
	}

	stmt, err := tx.Prepare(t.insertSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range t.pending {
		if _, err := stmt.Exec(row...); err != nil {
			return err
		}
	}

	t.pending = nil

	return nil
}
