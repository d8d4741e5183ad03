package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/CreativeUnicorns/extprefs"
)

var dumpFormats = []string{"js", "json", "yaml", "toml"}

func dumpCmd(a *app) *cobra.Command {
	var (
		format string
		prefix string
	)

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Write the declared defaults in another format",
		Long: `Write the declared defaults to stdout.

The js format is the pref() declaration format and loads back unchanged.
The json, yaml and toml formats map each key to its default value.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}

			entries := reg.Entries()
			if prefix != "" {
				entries = reg.WithPrefix(prefix)
			}
			return dumpEntries(cmd.OutOrStdout(), format, entries)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "js", "output format: js, json, yaml or toml")
	cmd.Flags().StringVar(&prefix, "prefix", "", "only dump keys starting with this prefix")
	return cmd
}

func dumpEntries(w io.Writer, format string, entries []extprefs.Entry) error {
	if format == "js" {
		decls := make([]extprefs.Declaration, 0, len(entries))
		for _, e := range entries {
			decls = append(decls, extprefs.Declaration{Func: extprefs.FuncPref, Key: e.Key, Value: e.Default})
		}
		_, err := extprefs.WriteDeclarations(w, decls)
		return err
	}

	values := make(map[string]interface{}, len(entries))
	for _, e := range entries {
		values[e.Key] = e.Default.Interface()
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(values)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(values); err != nil {
			return err
		}
		return enc.Close()
	case "toml":
		return toml.NewEncoder(w).Encode(values)
	}
	return fmt.Errorf("unknown format %q, expected one of %v", format, dumpFormats)
}
