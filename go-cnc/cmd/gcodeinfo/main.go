// Command gcodeinfo extracts slicer metadata from G-code files and
// resolves virtual storage paths against a go-cnc configuration.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"vawter.tech/stopper"
)

func main() {
	var verbose bool
	root := &cobra.Command{
		Use:   "gcodeinfo",
		Short: "Inspect G-code files and resolve go-cnc virtual paths",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	root.AddCommand(infoCommand())
	root.AddCommand(resolveCommand())
	root.AddCommand(serveCommand())

	var drainTime time.Duration
	root.PersistentFlags().DurationVar(&drainTime, "drain", 5*time.Second, "shutdown drain time")

	ctx := stopper.WithContext(context.Background())
	ctx.Go(func(ctx *stopper.Context) error {
		ch := make(chan os.Signal, 1)
		defer close(ch)

		signal.Notify(ch, os.Interrupt)
		defer signal.Stop(ch)

		select {
		case <-ch:
			ctx.Stop(drainTime)
		case <-ctx.Stopping():
		}
		return nil
	})

	if err := root.ExecuteContext(ctx); err != nil {
		slog.Error("fatal error", slog.Any("error", err))
		os.Exit(1)
	}
	os.Exit(0)
}
