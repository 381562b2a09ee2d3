package cmd

import (
	"fmt"

	"github.com/sarchlab/memhier/mem"
	"github.com/sarchlab/memhier/mem/hierarchy"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a configuration and print the hierarchy it describes.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("config")

		cfg, err := loadConfig(path)
		if err != nil {
			return err
		}

		h, err := hierarchy.Build(cfg)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, l := range h.Levels() {
			parent := "-"
			if id, ok := h.Arena().Lookup(l.Name()); ok {
				if p := h.Arena().Parent(id); p != mem.NoNode {
					parent = h.Arena().Level(p).Name()
				}
			}

			fmt.Fprintf(out, "%s -> %s\n", l.Name(), parent)
		}

		dump, _ := cmd.Flags().GetBool("dump")
		if dump {
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "---\n%s", data)
		}

		return nil
	},
}

func init() {
	validateCmd.Flags().StringP("config", "c", "",
		"YAML configuration file; the defaults are used when empty")
	validateCmd.Flags().Bool("dump", false,
		"print the effective configuration")
	rootCmd.AddCommand(validateCmd)
}
