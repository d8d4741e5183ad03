package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CreativeUnicorns/extprefs"
)

func checkCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE...",
		Short: "Validate pref() declaration files",
		Long: `Parse each FILE as a defaults file: only pref() statements, no duplicate
keys, and only boolean, integer and string literals.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			failed := 0
			for _, path := range args {
				reg, err := extprefs.LoadFile(path)
				if err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %v\n", err)
					continue
				}
				fmt.Fprintf(out, "ok   %s: %d preferences\n", path, reg.Len())
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(args))
			}
			return nil
		},
	}
}
