// Package cmd provides the command-line interface of memsim.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "memsim",
	Short: "memsim replays memory reference traces through a cache hierarchy.",
	Long: `memsim replays per-core memory reference traces through a ` +
		`configurable hierarchy of private L1 and L2 caches, a banked shared ` +
		`last-level cache, and main memory, and reports the cycles each core ` +
		`spends.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Exiting goes through atexit so that recorders flush.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
