package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func getCmd(a *app) *cobra.Command {
	var profile string

	cmd := &cobra.Command{
		Use:   "get KEY...",
		Short: "Print the value of one or more preferences",
		Long: `Print the declared default of each KEY as a declaration literal.

With --profile the profile's override from the configured storage is shown
instead, when one exists.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if profile == "" {
				reg, err := a.registry()
				if err != nil {
					return err
				}
				for _, key := range args {
					v, err := reg.Get(key)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%s = %s\n", key, v.Literal())
				}
				return nil
			}

			mgr, closeBackends, err := a.newManager()
			if err != nil {
				return err
			}
			defer closeBackends()

			for _, key := range args {
				pref, err := mgr.Get(cmd.Context(), profile, key)
				if err != nil {
					return err
				}
				marker := ""
				if pref.Overridden {
					marker = " (overridden)"
				}
				fmt.Fprintf(out, "%s = %s%s\n", key, pref.Value.Literal(), marker)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&profile, "profile", "p", "", "resolve overrides for this profile")
	return cmd
}
