package releasekit

import (
	"context"
	"fmt"

	"github.com/arthur-debert/releasekit/pkg/config"
	"github.com/arthur-debert/releasekit/pkg/filesystem"
	"github.com/arthur-debert/releasekit/pkg/logging"
	"github.com/arthur-debert/releasekit/pkg/paths"
	"github.com/arthur-debert/releasekit/pkg/releases"
	"github.com/arthur-debert/releasekit/pkg/style"
	"github.com/arthur-debert/releasekit/pkg/types"
	"github.com/spf13/cobra"
)

// app bundles what a command needs once flags and configuration are read.
type app struct {
	cfg      *config.Config
	paths    paths.Paths
	manager  *releases.Manager
	renderer *style.Renderer
}

// loadApp reads the configuration, applying global flags as overrides.
func loadApp(cmd *cobra.Command) (*app, error) {
	flags := cmd.Flags()
	overrides := map[string]interface{}{}
	if flags.Changed("store") {
		root, _ := flags.GetString("store")
		overrides["store.root"] = root
	}
	if flags.Changed("output") {
		format, _ := flags.GetString("output")
		overrides["output.format"] = format
	}
	configFile, _ := flags.GetString("config")
	dryRun, _ := flags.GetBool("dry-run")

	cfg, err := config.Load(config.LoadOptions{
		ConfigFile: configFile,
		Overrides:  overrides,
	})
	if err != nil {
		return nil, fmt.Errorf(MsgErrLoadConfig, err)
	}

	p, err := paths.New(cfg.Store.Root, cfg.Layout())
	if err != nil {
		return nil, fmt.Errorf(MsgErrInitPaths, err)
	}

	format, err := style.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, fmt.Errorf(MsgErrOutput, err)
	}

	logger := logging.GetLogger("cli")
	logger.Debug().
		Str("store", p.StoreRoot()).
		Str("config", cfg.Source).
		Bool("dry_run", dryRun).
		Msg("Configuration loaded")

	return &app{
		cfg:   cfg,
		paths: p,
		manager: releases.New(filesystem.NewOS(), p, releases.Options{
			Exclude:    cfg.Publish.Exclude,
			DryRun:     dryRun,
			StagingTTL: cfg.Retention.StagingTTL,
		}),
		renderer: style.NewRenderer(cmd.OutOrStdout(), format),
	}, nil
}

// withApp adapts a command body to cobra's RunE. In machine output
// formats a failure is also written to stdout as a document.
func withApp(run func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		if err := run(cmd.Context(), a, args); err != nil {
			if a.renderer.Machine() {
				_ = a.renderer.RenderError(err)
			}
			return err
		}
		return nil
	}
}

// liveID returns the live release, or "" when there is none or the
// pointer cannot be read.
func (a *app) liveID(ctx context.Context) types.ReleaseID {
	rel, ok, err := a.manager.Current(ctx)
	if err != nil {
		logger := logging.GetLogger("cli")
		logger.Debug().Err(err).Msg("Live release unavailable")
		return ""
	}
	if !ok {
		return ""
	}
	return rel.ID
}

// activate makes id live and reports the change.
func (a *app) activate(ctx context.Context, id types.ReleaseID) (types.ActivationResult, error) {
	previous := a.liveID(ctx)
	if err := a.manager.Activate(ctx, id); err != nil {
		return types.ActivationResult{}, err
	}
	return types.ActivationResult{
		Release:  id,
		Previous: previous,
		Changed:  previous != id,
		DryRun:   a.manager.DryRun(),
	}, nil
}

// rollback activates target, or the release before the live one.
func (a *app) rollback(ctx context.Context, target types.ReleaseID) (types.ActivationResult, error) {
	previous := a.liveID(ctx)
	id, err := a.manager.Rollback(ctx, target)
	if err != nil {
		return types.ActivationResult{}, err
	}
	return types.ActivationResult{
		Release:  id,
		Previous: previous,
		Changed:  previous != id,
		DryRun:   a.manager.DryRun(),
	}, nil
}

// retain returns the --retain flag when given, else retention.keep.
func (a *app) retain(cmd *cobra.Command) int {
	if cmd.Flags().Changed("retain") {
		n, _ := cmd.Flags().GetInt("retain")
		return n
	}
	return a.cfg.Retention.Keep
}
