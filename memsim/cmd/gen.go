package cmd

import (
	"fmt"
	"os"

	"github.com/sarchlab/memhier/trace"
	"github.com/spf13/cobra"
)

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Synthesize a random reference trace.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		flags := cmd.Flags()
		opts := trace.SynthOptions{}
		opts.NumCores, _ = flags.GetInt("cores")
		opts.RecordsPerCore, _ = flags.GetInt("records")
		opts.FootprintLines, _ = flags.GetUint64("footprint")
		opts.StoreRatio, _ = flags.GetFloat64("store-ratio")
		opts.BlockRatio, _ = flags.GetFloat64("block-ratio")
		opts.Seed, _ = flags.GetInt64("seed")
		out, _ := flags.GetString("out")

		if out == "" {
			return trace.Synthesize(trace.NewWriter(cmd.OutOrStdout()), opts)
		}

		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating trace: %w", err)
		}
		defer f.Close()

		return trace.Synthesize(trace.NewWriter(f), opts)
	},
}

func init() {
	genCmd.Flags().Int("cores", 2, "number of cores")
	genCmd.Flags().Int("records", 10000, "records per core")
	genCmd.Flags().Uint64("footprint", 1<<14, "data footprint in lines")
	genCmd.Flags().Float64("store-ratio", 0.3, "fraction of data accesses that are stores")
	genCmd.Flags().Float64("block-ratio", 0.2, "fraction of records that are instruction blocks")
	genCmd.Flags().Int64("seed", 1, "random seed")
	genCmd.Flags().StringP("out", "o", "", "output file; stdout when empty")
	rootCmd.AddCommand(genCmd)
}
