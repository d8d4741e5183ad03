package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/CreativeUnicorns/extprefs"
)

func listCmd(a *app) *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List declared preferences with their types and defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}

			entries := reg.Entries()
			if prefix != "" {
				entries = reg.WithPrefix(prefix)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no preferences declared")
				return nil
			}

			renderList(cmd, entries)
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "only list keys starting with this prefix")
	return cmd
}

// renderList prints one aligned row per entry. Styling is dropped when the
// output is not a terminal.
func renderList(cmd *cobra.Command, entries []extprefs.Entry) {
	out := cmd.OutOrStdout()
	renderer := lipgloss.NewRenderer(out)

	keyWidth := 0
	for _, e := range entries {
		keyWidth = max(keyWidth, lipgloss.Width(e.Key))
	}

	keyStyle := renderer.NewStyle().Bold(true).Width(keyWidth + 2)
	typeStyle := renderer.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}).Width(9)
	valueStyle := renderer.NewStyle().Faint(true)

	for _, e := range entries {
		fmt.Fprintln(out, lipgloss.JoinHorizontal(lipgloss.Top,
			keyStyle.Render(e.Key),
			typeStyle.Render(string(e.Type())),
			valueStyle.Render(e.Default.Literal()),
		))
	}
}
