// Package cli provides the command-line interface for tripcast.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/smarttrip/tripcast/internal/config"
	"github.com/smarttrip/tripcast/internal/logging"
)

// Version is set at build time.
var Version = "dev"

// app carries state shared between the root command and its subcommands
type app struct {
	configPath string
	verbose    bool
	cfg        *config.Config
}

// NewRootCommand builds the tripcast command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "tripcast",
		Short: "Trip destination recommendation service",
		Long: `Tripcast ranks travel destinations for a set of preferences using
pre-trained classifiers, one per variant (india, not-india).

Configuration is read from a YAML file (--config, CONFIG_PATH, ./config.yaml
or /etc/tripcast/config.yaml) and environment variables.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip config loading for version and help commands
			if cmd.Name() == "version" || cmd.Name() == "help" {
				return nil
			}
			return a.load()
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file path")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newServeCommand(a))
	root.AddCommand(newCheckCommand(a))
	root.AddCommand(newVersionCommand())

	return root
}

// load reads configuration and initialises logging
func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	cfg.Version = Version

	level := cfg.Logging.Level
	if a.verbose {
		level = "debug"
	}
	logging.Init(logging.Config{
		Level:  level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	a.cfg = cfg
	return nil
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
