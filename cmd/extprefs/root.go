package main

import (
	"github.com/spf13/cobra"

	"github.com/CreativeUnicorns/extprefs"
	"github.com/CreativeUnicorns/extprefs/config"
)

// app carries the state shared by all subcommands once flags are parsed.
type app struct {
	configPath string
	verbosity  int

	cfg    *config.Config
	logger extprefs.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "extprefs",
		Short: "Inspect and serve autoproxy2 preference defaults and overrides",
		Long: `extprefs reads the autoproxy2 preference declarations, serves them over HTTP
together with per-profile overrides, and converts them to other formats.

Configuration comes from built-in defaults, the --config TOML file and
EXTPREFS_* environment variables, in that order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a TOML config file")
	root.PersistentFlags().CountVarP(&a.verbosity, "verbose", "v", "increase log verbosity (-v for debug)")

	root.AddCommand(
		serveCmd(a),
		getCmd(a),
		listCmd(a),
		dumpCmd(a),
		checkCmd(a),
		expandCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = extprefs.NewLogger(cmd.ErrOrStderr())
	level := cfg.LogLevel()
	if a.verbosity > 0 {
		level = extprefs.LogLevelDebug
	}
	a.logger.SetLevel(level)
	return nil
}

// registry returns the configured declarations: defaults.file when set, otherwise
// the built-in autoproxy2 defaults.
func (a *app) registry() (*extprefs.Registry, error) {
	if a.cfg.Defaults.File == "" {
		return extprefs.Defaults(), nil
	}
	reg, err := extprefs.LoadFile(a.cfg.Defaults.File)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("Loaded declarations", "file", a.cfg.Defaults.File, "count", reg.Len())
	return reg, nil
}
