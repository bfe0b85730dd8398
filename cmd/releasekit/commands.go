package releasekit

import (
	"context"
	"fmt"

	"github.com/arthur-debert/releasekit/internal/version"
	"github.com/arthur-debert/releasekit/pkg/errors"
	"github.com/arthur-debert/releasekit/pkg/logging"
	"github.com/arthur-debert/releasekit/pkg/types"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	// Initialize custom template formatting functions
	initTemplateFormatting()

	var verbosity int

	rootCmd := &cobra.Command{
		Use:     "releasekit",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Setup logging based on verbosity
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// If we get here, no subcommand was provided
			_ = cmd.Help()
			return fmt.Errorf(MsgErrNoCommand)
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	// Global flags
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().Bool("dry-run", false, MsgFlagDryRun)
	rootCmd.PersistentFlags().String("config", "", MsgFlagConfig)
	rootCmd.PersistentFlags().String("store", "", MsgFlagStore)
	rootCmd.PersistentFlags().StringP("output", "o", "text", MsgFlagOutput)

	// Define command groups
	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "COMMANDS:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "inspect",
		Title: "INSPECT:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "misc",
		Title: "MISC:",
	})

	// Set custom help template
	rootCmd.SetUsageTemplate(MsgUsageTemplate)

	// Add all commands
	rootCmd.AddCommand(newPublishCmd())
	rootCmd.AddCommand(newActivateCmd())
	rootCmd.AddCommand(newRollbackCmd())
	rootCmd.AddCommand(newPruneCmd())
	rootCmd.AddCommand(newDeployCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newCurrentCmd())
	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	// Initialize topic-based help system
	if err := initTopics(rootCmd); err != nil {
		log.Warn().Err(err).Msg("Help topics unavailable")
	}
	rootCmd.SetHelpCommandGroupID("misc")

	return rootCmd
}

// releaseIDsCompletion provides shell completion for release ids
func releaseIDsCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	a, err := loadApp(cmd)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var ids []string
	for rel, err := range a.manager.List(cmd.Context()) {
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		ids = append(ids, rel.ID.String())
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}

func newPublishCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "publish <dir>",
		Short:   MsgPublishShort,
		Long:    MsgPublishLong,
		Example: MsgPublishExample,
		GroupID: "core",
		Args:    cobra.ExactArgs(1),
	}
	cmd.Flags().Bool("activate", false, MsgFlagActivate)
	cmd.Flags().Bool("prune", false, MsgFlagPrune)
	cmd.Flags().Int("retain", 0, MsgFlagRetain)

	cmd.RunE = withApp(func(ctx context.Context, a *app, args []string) error {
		opts := deployOptions{
			Activate: a.cfg.Publish.Activate,
			Prune:    a.cfg.Publish.Prune,
			Retain:   a.retain(cmd),
		}
		if cmd.Flags().Changed("activate") {
			opts.Activate, _ = cmd.Flags().GetBool("activate")
		}
		if cmd.Flags().Changed("prune") {
			opts.Prune, _ = cmd.Flags().GetBool("prune")
		}
		return runDeploy(ctx, a, args[0], opts)
	})
	return cmd
}

func newDeployCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "deploy <dir>",
		Short:   MsgDeployShort,
		Long:    MsgDeployLong,
		Example: MsgDeployExample,
		GroupID: "core",
		Args:    cobra.ExactArgs(1),
	}
	cmd.Flags().Int("retain", 0, MsgFlagRetain)

	cmd.RunE = withApp(func(ctx context.Context, a *app, args []string) error {
		return runDeploy(ctx, a, args[0], deployOptions{
			Activate: true,
			Prune:    true,
			Retain:   a.retain(cmd),
		})
	})
	return cmd
}

func runDeploy(ctx context.Context, a *app, dir string, opts deployOptions) error {
	res, err := a.deploy(ctx, dir, opts)
	if res.Release.ID != "" {
		if renderErr := a.renderer.RenderPublish(res); renderErr != nil && err == nil {
			err = renderErr
		}
	}
	return err
}

func newActivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "activate <id>",
		Short:             MsgActivateShort,
		Long:              MsgActivateLong,
		GroupID:           "core",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: releaseIDsCompletion,
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			res, err := a.activate(ctx, types.ReleaseID(args[0]))
			if err != nil {
				return err
			}
			return a.renderer.RenderActivation(res)
		}),
	}
}

func newRollbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "rollback [id]",
		Short:             MsgRollbackShort,
		Long:              MsgRollbackLong,
		Example:           MsgRollbackExample,
		GroupID:           "core",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: releaseIDsCompletion,
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			var target types.ReleaseID
			if len(args) == 1 {
				target = types.ReleaseID(args[0])
			}
			res, err := a.rollback(ctx, target)
			if err != nil {
				return err
			}
			return a.renderer.RenderActivation(res)
		}),
	}
}

func newPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "prune",
		Short:   MsgPruneShort,
		Long:    MsgPruneLong,
		GroupID: "core",
		Args:    cobra.NoArgs,
	}
	cmd.Flags().Int("retain", 0, MsgFlagRetain)

	cmd.RunE = withApp(func(ctx context.Context, a *app, args []string) error {
		res, err := a.manager.Prune(ctx, a.retain(cmd))
		if err != nil && !errors.IsErrorCode(err, errors.ErrPrune) {
			return err
		}
		if renderErr := a.renderer.RenderPrune(res); renderErr != nil && err == nil {
			return renderErr
		}
		return err
	})
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   MsgListShort,
		Example: MsgListExample,
		GroupID: "inspect",
		Args:    cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			rels := []types.Release{}
			for rel, err := range a.manager.List(ctx) {
				if err != nil {
					return err
				}
				rels = append(rels, rel)
			}
			return a.renderer.RenderReleases(rels)
		}),
	}
}

func newCurrentCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "current",
		Short:   MsgCurrentShort,
		GroupID: "inspect",
		Args:    cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			rel, ok, err := a.manager.Current(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return a.renderer.RenderMessage(MsgNoLiveRelease)
			}
			return a.renderer.RenderRelease(rel)
		}),
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "show <id>",
		Short:             MsgShowShort,
		GroupID:           "inspect",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: releaseIDsCompletion,
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			rel, err := a.manager.Get(ctx, types.ReleaseID(args[0]))
			if err != nil {
				return err
			}
			return a.renderer.RenderRelease(rel)
		}),
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), MsgVersionFormat, version.Version, version.Commit, version.Date)
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		Long:                  MsgCompletionLong,
		GroupID:               "misc",
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
			return nil
		},
	}
}
