package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spiffcs/ghissues/config"
	"github.com/spiffcs/ghissues/internal/output"
)

// NewCmdLimits creates the limits command.
func NewCmdLimits(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "limits",
		Aliases: []string{"ratelimit"},
		Short:   "Show GitHub API rate limit status",
		Long: `Display the remaining quota for the core, search and GraphQL APIs and
when each resets. Rate limit checks are never cached.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runLimits(cmd, opts, cfg)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "output", "o", "", "Output format (table, json, markdown)")
	return cmd
}

func runLimits(cmd *cobra.Command, opts *Options, cfg *config.Config) error {
	ctx := cmd.Context()

	format, err := resolveFormat(opts.Format, cfg)
	if err != nil {
		return err
	}

	cleanup, err := setupLogging(opts, cfg, false)
	if err != nil {
		return err
	}
	defer cleanup()

	view := newCLIView(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.NewFormatter(format), renders{limits: true})
	a, err := newApp(ctx, opts, cfg, view, appOptions{repoOptional: true})
	if err != nil {
		return err
	}

	if err := a.ctrl.CheckRateLimits(ctx); err != nil {
		return commandError("check rate limits", err)
	}
	if err := view.Err(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
