package datarecording

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
)

// History reads back the counters that a PhaseRecorder and an ExecRecorder
// wrote into a SQLite database.
type History struct {
	db *sql.DB
}

// OpenHistory opens a recording database read-only. The path may be given
// with or without the .sqlite3 extension, as it is to New.
func OpenHistory(path string) (*History, error) {
	filename := path
	if !strings.HasSuffix(filename, ".sqlite3") {
		filename += ".sqlite3"
	}

	if _, err := os.Stat(filename); err != nil {
		return nil, fmt.Errorf("opening recording: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+filename+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filename, err)
	}

	return &History{db: db}, nil
}

// Close closes the database.
func (h *History) Close() error {
	return h.db.Close()
}

// ExecInfo returns the properties of the recorded run, keyed by name.
func (h *History) ExecInfo(ctx context.Context) (map[string]string, error) {
	rows, err := h.db.QueryContext(ctx,
		"SELECT Property, Value FROM exec_info")
	if err != nil {
		return nil, fmt.Errorf("reading exec_info: %w", err)
	}
	defer rows.Close()

	info := make(map[string]string)

	for rows.Next() {
		var p ExecInfo
		if err := rows.Scan(&p.Property, &p.Value); err != nil {
			return nil, err
		}

		info[p.Property] = p.Value
	}

	return info, rows.Err()
}

// LastPhase returns the latest phase that has cache counters.
func (h *History) LastPhase(ctx context.Context) (uint64, error) {
	var last sql.NullInt64

	err := h.db.QueryRowContext(ctx,
		"SELECT MAX(Phase) FROM "+cacheCounterTable).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", cacheCounterTable, err)
	}

	if !last.Valid {
		return 0, fmt.Errorf("%s is empty", cacheCounterTable)
	}

	return uint64(last.Int64), nil
}

// CacheCounters returns the snapshots of one level in phase order. An
// empty level returns the snapshots of every level.
func (h *History) CacheCounters(
	ctx context.Context,
	level string,
) ([]CacheCounterRow, error) {
	query := "SELECT Phase, Level, Hits, Misses, Invalidations, Evictions" +
		" FROM " + cacheCounterTable
	args := []any{}

	if level != "" {
		query += " WHERE Level = ?"
		args = append(args, level)
	}

	return h.cacheRows(ctx, query+" ORDER BY Phase, rowid", args...)
}

// CacheCountersAt returns the snapshot of every level at one phase, in the
// order the levels were recorded.
func (h *History) CacheCountersAt(
	ctx context.Context,
	phase uint64,
) ([]CacheCounterRow, error) {
	return h.cacheRows(ctx,
		"SELECT Phase, Level, Hits, Misses, Invalidations, Evictions"+
			" FROM "+cacheCounterTable+" WHERE Phase = ? ORDER BY rowid",
		phase)
}

// CoreCountersAt returns the snapshot of every core at one phase.
func (h *History) CoreCountersAt(
	ctx context.Context,
	phase uint64,
) ([]CoreCounterRow, error) {
	rows, err := h.db.QueryContext(ctx,
		"SELECT Phase, Core, Cycles, Instrs FROM "+coreCounterTable+
			" WHERE Phase = ? ORDER BY Core", phase)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", coreCounterTable, err)
	}
	defer rows.Close()

	var out []CoreCounterRow

	for rows.Next() {
		var r CoreCounterRow
		if err := rows.Scan(&r.Phase, &r.Core, &r.Cycles, &r.Instrs); err != nil {
			return nil, err
		}

		out = append(out, r)
	}

	return out, rows.Err()
}

func (h *History) cacheRows(
	ctx context.Context,
	query string,
	args ...any,
) ([]CacheCounterRow, error) {
	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", cacheCounterTable, err)
	}
	defer rows.Close()

	var out []CacheCounterRow

	for rows.Next() {
		var r CacheCounterRow

		err := rows.Scan(&r.Phase, &r.Level,
			&r.Hits, &r.Misses, &r.Invalidations, &r.Evictions)
		if err != nil {
			return nil, err
		}

		out = append(out, r)
	}

	return out, rows.Err()
}
