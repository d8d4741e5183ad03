package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CreativeUnicorns/extprefs"
)

func expandCmd(a *app) *cobra.Command {
	var escape bool

	cmd := &cobra.Command{
		Use:   "expand KEY [NAME=VALUE...]",
		Short: "Fill in the %NAME% placeholders of a URL template preference",
		Long: `Print the string default of KEY with each %NAME% placeholder replaced.

Without NAME=VALUE arguments the placeholder names are listed instead.
With --url values are query-escaped.`,
		Example: `  extprefs expand extensions.autoproxy2.documentation_link LINK=faq LANG=en-US`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}

			tmpl, err := reg.GetString(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				for _, name := range extprefs.Placeholders(tmpl) {
					fmt.Fprintln(out, name)
				}
				return nil
			}

			vars, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			if escape {
				fmt.Fprintln(out, extprefs.ExpandURL(tmpl, vars))
			} else {
				fmt.Fprintln(out, extprefs.Expand(tmpl, vars))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&escape, "url", false, "query-escape substituted values")
	return cmd
}

func parseAssignments(args []string) (map[string]string, error) {
	vars := make(map[string]string, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: expected NAME=VALUE, got %q", extprefs.ErrInvalidInput, arg)
		}
		vars[name] = value
	}
	return vars, nil
}
