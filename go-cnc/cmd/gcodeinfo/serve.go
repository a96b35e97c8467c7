package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"vawter.tech/notify"
	"vawter.tech/notify/notifyx"
	"vawter.tech/stopper"

	"github.com/nludban/go-cnc/go-cnc/config"
	"github.com/nludban/go-cnc/go-cnc/model"
	"github.com/nludban/go-cnc/go-cnc/pathresolver"
)

// serveCommand watches a configuration file and keeps the machine model's
// directory-category overrides in sync with it, so a running resolver
// picks up an edited config without restarting. It exits once the drain
// period set by --drain elapses after an interrupt.
func serveCommand() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "serve --config <config.yaml>",
		Short: "Watch a configuration file and keep directory-category overrides live",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfgPath == "" {
				return fmt.Errorf("no config file specified")
			}
			ctx := stopper.From(cmd.Context())

			var cfg notify.Var[*config.Config]
			store := model.NewStore("")

			ctx.Go(func(ctx *stopper.Context) error {
				return watchConfig(ctx, cfgPath, &cfg, store)
			})

			resolver := pathresolver.New(store)
			ctx.Go(func(ctx *stopper.Context) error {
				return reportResolutions(ctx, cmd, resolver, &cfg)
			})

			return ctx.Wait()
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "configuration file to watch")
	return cmd
}

// watchConfig polls cfgPath's modification time once a second and, when it
// changes, reloads the file and re-seeds store's category overrides.
func watchConfig(ctx *stopper.Context, cfgPath string, cfg *notify.Var[*config.Config], store *model.Store) error {
	var lastModTime time.Time
	after := time.After(0)
	for {
		select {
		case <-after:
			after = time.After(time.Second)

			info, err := os.Stat(cfgPath)
			if err != nil {
				return err
			}
			if mod := info.ModTime(); !mod.After(lastModTime) {
				continue
			}
			lastModTime = info.ModTime()

			next, err := config.Load(cfgPath)
			if err != nil {
				slog.ErrorContext(ctx, "could not load configuration file",
					slog.String("path", cfgPath), slog.Any("error", err))
				continue
			}

			store.WriteScope(func(v model.WriteView) {
				v.SetBaseDirectory(next.BaseDirectory)
				v.SetCategory(model.Filaments, next.Categories.Filaments)
				v.SetCategory(model.GCodes, next.Categories.GCodes)
				v.SetCategory(model.Macros, next.Categories.Macros)
				v.SetCategory(model.System, next.Categories.System)
				v.SetCategory(model.WWW, next.Categories.WWW)
			})

			slog.InfoContext(ctx, "loaded new configuration", slog.String("path", cfgPath))
			cfg.Set(next)

		case <-ctx.Stopping():
			return nil
		}
	}
}

// reportResolutions prints the current gcodes-category physical path once
// a configuration has loaded, then again after every subsequent reload, so
// an operator watching the process can see a config edit take effect
// without restarting anything.
func reportResolutions(ctx *stopper.Context, cmd *cobra.Command, resolver *pathresolver.Resolver, cfg *notify.Var[*config.Config]) error {
	_, err := notifyx.DoWhenChanged(ctx, nil, cfg, func(ctx *stopper.Context, _, _ *config.Config) error {
		physical, err := resolver.ToPhysical("part.gcode", model.GCodes)
		if err != nil {
			slog.ErrorContext(ctx, "could not resolve gcodes category", slog.Any("error", err))
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "gcodes category now resolves to: %s\n", physical)
		return nil
	})
	return err
}
