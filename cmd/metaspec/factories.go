package main

import (
	"fmt"
	"io"

	"github.com/bitechdev/MetaSpec/pkg/component"
	"github.com/bitechdev/MetaSpec/pkg/config"
	"github.com/bitechdev/MetaSpec/pkg/walker"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewFactoriesCommand creates the factories command
func NewFactoriesCommand(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "factories",
		Short: "List the persistence-context factories of the configured containers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			app, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			return printFactories(cmd.OutOrStdout(), app.child)
		},
	}
}

func printFactories(out io.Writer, reg component.Introspector) error {
	set, err := walker.FactoryDescriptors(reg)
	if err != nil {
		return err
	}

	titleColor := color.New(color.FgCyan, color.Bold)
	titleColor.Fprintf(out, "Factories visible from %s: %d\n", reg.ID(), set.Len())

	for _, d := range set.Slice() {
		def, err := d.Definition()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  %s %s %s\n", color.GreenString(d.Name), color.New(color.Faint).Sprint(d.Registry.ID()), def.TypeName)
	}
	return nil
}
