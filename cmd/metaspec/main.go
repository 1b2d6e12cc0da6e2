package main

import (
	"fmt"
	"os"

	"github.com/bitechdev/MetaSpec/pkg/config"
	"github.com/bitechdev/MetaSpec/pkg/logger"
	"github.com/spf13/cobra"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	var configDir string

	rootCmd := &cobra.Command{
		Use:   "metaspec",
		Short: "Persistence factory and metamodel introspection",
		Long: `MetaSpec locates persistence-context factories across a hierarchy of
component containers and serves the managed-type metadata of their metamodels.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "directory containing metaspec.yml")

	load := func() (*config.Config, error) {
		var cfg *config.Config
		var err error
		if configDir != "" {
			cfg, err = config.Load(configDir)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return nil, err
		}
		if err := logger.Configure(logger.Options{
			Dev:         cfg.Log.Dev,
			Level:       cfg.Log.Level,
			OutputPaths: cfg.Log.Outputs,
		}); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	rootCmd.AddCommand(NewServeCommand(load))
	rootCmd.AddCommand(NewFactoriesCommand(load))

	return rootCmd
}
