package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nludban/go-cnc/go-cnc/config"
	"github.com/nludban/go-cnc/go-cnc/fileinfo"
)

// fileSource adapts an *os.File to fileinfo.Source, which needs a
// ReadAt-capable, sized handle.
type fileSource struct {
	f    *os.File
	size int64
}

func openFileSource(path string) (*fileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &fileSource{f: f, size: info.Size()}, nil
}

func (s *fileSource) ReadAt(p []byte, off int64) (int, error) { return s.f.ReadAt(p, off) }
func (s *fileSource) Size() int64                             { return s.size }
func (s *fileSource) Close() error                            { return s.f.Close() }

func infoCommand() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "info <file.gcode>",
		Short: "Scan a G-code file's header and footer for slicer metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfigOrDefault(cfgPath)
			if err != nil {
				return err
			}

			src, err := openFileSource(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer src.Close()

			filters, err := cfg.Filters()
			if err != nil {
				return err
			}

			info, err := fileinfo.Parse(cmd.Context(), src, cfg.ScanLimits(), filters)
			if err != nil {
				return fmt.Errorf("scanning %s: %w", args[0], err)
			}
			info.FileName = args[0]

			printInfo(cmd, info)
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "configuration file (defaults built in if omitted)")
	return cmd
}

func loadConfigOrDefault(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func printInfo(cmd *cobra.Command, info *fileinfo.ParsedFileInfo) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "file:             %s\n", info.FileName)
	fmt.Fprintf(out, "size:             %d bytes\n", info.Size)
	fmt.Fprintf(out, "generated by:     %s\n", info.GeneratedBy)
	fmt.Fprintf(out, "first layer:      %g mm\n", info.FirstLayerHeight)
	fmt.Fprintf(out, "layer height:     %g mm\n", info.LayerHeight)
	fmt.Fprintf(out, "object height:    %g mm\n", info.Height)
	fmt.Fprintf(out, "layers:           %d\n", info.NumLayers)
	fmt.Fprintf(out, "filament used:    %v mm\n", info.Filament)
	fmt.Fprintf(out, "print time:       %ds\n", info.PrintTimeS)
	fmt.Fprintf(out, "simulated time:   %ds\n", info.SimulatedTimeS)
}
