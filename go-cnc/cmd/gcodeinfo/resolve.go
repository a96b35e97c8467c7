package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nludban/go-cnc/go-cnc/model"
	"github.com/nludban/go-cnc/go-cnc/pathresolver"
)

var categoryNames = map[string]model.Category{
	"filaments": model.Filaments,
	"gcodes":    model.GCodes,
	"macros":    model.Macros,
	"system":    model.System,
	"www":       model.WWW,
}

func resolveCommand() *cobra.Command {
	var cfgPath string
	var categoryName string
	cmd := &cobra.Command{
		Use:   "resolve <virtual-path>",
		Short: "Resolve a virtual path (e.g. \"0:/gcodes/part.gcode\") to its physical path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfigOrDefault(cfgPath)
			if err != nil {
				return err
			}

			category, ok := categoryNames[categoryName]
			if !ok {
				return fmt.Errorf("unknown directory category %q", categoryName)
			}

			resolver := pathresolver.New(cfg.NewStore())
			physical, err := resolver.ToPhysical(args[0], category)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), physical)
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "configuration file (defaults built in if omitted)")
	cmd.Flags().StringVar(&categoryName, "category", "gcodes", "directory category for relative paths (filaments, gcodes, macros, system, www)")
	return cmd
}
