package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spiffcs/ghissues/config"
	"github.com/spiffcs/ghissues/internal/constants"
	"github.com/spiffcs/ghissues/internal/duration"
	"github.com/spiffcs/ghissues/internal/model"
	"github.com/spiffcs/ghissues/internal/output"
)

// NewCmdList creates the list command.
func NewCmdList(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List issues of the repository",
		Long: `List one page of issues, most recently updated first.

Examples:
  ghissues list
  ghissues list --closed --limit 20 --page 2
  ghissues list --search "panic in:title" -o json
  ghissues list --since 1w`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runList(cmd, opts, cfg)
		},
	}

	addListFlags(cmd, opts)
	return cmd
}

// addListFlags adds the list-specific flags to a command.
func addListFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().StringVarP(&opts.Format, "output", "o", "", "Output format (table, json, markdown)")
	cmd.Flags().BoolVar(&opts.Closed, "closed", false, "List closed issues instead of open ones")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "L", constants.DefaultListLimit, "Issues per page (1-100)")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "Page number")
	cmd.Flags().StringVarP(&opts.Since, "since", "s", "", "Only show issues updated within this window (e.g., 1d, 2w, 6mo)")
	cmd.Flags().StringVarP(&opts.Search, "search", "S", "", "Search issue titles and bodies instead of listing")
}

// resolveFormat picks the output format from the flag, then the config.
func resolveFormat(flag string, cfg *config.Config) (output.Format, error) {
	if flag != "" {
		return output.ParseFormat(flag)
	}
	return output.ParseFormat(cfg.GetFormat())
}

func runList(cmd *cobra.Command, opts *Options, cfg *config.Config) error {
	ctx := cmd.Context()

	if opts.Limit < 1 || opts.Limit > constants.MaxPerPage {
		return fmt.Errorf("invalid --limit %d (must be between 1 and %d)", opts.Limit, constants.MaxPerPage)
	}
	if opts.Page < 1 {
		return fmt.Errorf("invalid --page %d (must be 1 or more)", opts.Page)
	}
	format, err := resolveFormat(opts.Format, cfg)
	if err != nil {
		return err
	}
	var since time.Time
	if opts.Since != "" {
		if since, err = duration.Cutoff(opts.Since, time.Now()); err != nil {
			return fmt.Errorf("invalid --since: %w", err)
		}
	}

	cleanup, err := setupLogging(opts, cfg, false)
	if err != nil {
		return err
	}
	defer cleanup()

	view := newCLIView(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.NewFormatter(format), renders{lists: true})
	view.since = since

	ao := appOptions{perPage: opts.Limit, page: opts.Page}
	if opts.Closed {
		ao.filter = model.StateClosed
	}
	a, err := newApp(ctx, opts, cfg, view, ao)
	if err != nil {
		return err
	}

	if opts.Search != "" {
		err = a.ctrl.Search(ctx, opts.Search)
	} else {
		err = a.ctrl.Refresh(ctx)
	}
	if err != nil {
		return commandError("list issues", err)
	}
	if err := view.Err(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
