package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/sarchlab/memhier/datarecording"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the counters recorded by a run.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, _ := cmd.Flags().GetString("db")
		level, _ := cmd.Flags().GetString("level")

		return printReport(cmd.Context(), db, level, cmd.OutOrStdout())
	},
}

func init() {
	reportCmd.Flags().String("db", "",
		"SQLite database written by run --db")
	reportCmd.Flags().String("level", "",
		"also print every recorded phase of this level")
	_ = reportCmd.MarkFlagRequired("db")

	rootCmd.AddCommand(reportCmd)
}

// printReport prints the run properties and the counters of the last
// recorded phase. With a level, it also prints that level phase by phase.
func printReport(ctx context.Context, db, level string, out io.Writer) error {
	h, err := datarecording.OpenHistory(db)
	if err != nil {
		return err
	}
	defer h.Close()

	info, err := h.ExecInfo(ctx)
	if err != nil {
		return err
	}

	for _, p := range []string{"Run ID", "Trace", "Queue", "Phases"} {
		if v, ok := info[p]; ok {
			fmt.Fprintf(out, "%s: %s\n", p, v)
		}
	}

	last, err := h.LastPhase(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "last recorded phase: %d\n", last)

	cores, err := h.CoreCountersAt(ctx, last)
	if err != nil {
		return err
	}

	for _, c := range cores {
		fmt.Fprintf(out, "core %d: cycles %d, instrs %d\n",
			c.Core, c.Cycles, c.Instrs)
	}

	levels, err := h.CacheCountersAt(ctx, last)
	if err != nil {
		return err
	}

	for _, l := range levels {
		fmt.Fprintf(out,
			"%s: hits %d, misses %d, invalidations %d, evictions %d, "+
				"miss rate %s\n",
			l.Level, l.Hits, l.Misses, l.Invalidations, l.Evictions,
			missRate(l))
	}

	if level == "" {
		return nil
	}

	rows, err := h.CacheCounters(ctx, level)
	if err != nil {
		return err
	}

	if len(rows) == 0 {
		return fmt.Errorf("no counters recorded for level %q", level)
	}

	for _, r := range rows {
		fmt.Fprintf(out, "%s phase %d: hits %d, misses %d, miss rate %s\n",
			r.Level, r.Phase, r.Hits, r.Misses, missRate(r))
	}

	return nil
}

func missRate(r datarecording.CacheCounterRow) string {
	accesses := r.Hits + r.Misses
	if accesses == 0 {
		return "-"
	}

	return fmt.Sprintf("%.2f%%", 100*float64(r.Misses)/float64(accesses))
}
