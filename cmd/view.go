package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spiffcs/ghissues/config"
	"github.com/spiffcs/ghissues/internal/ghclient"
	"github.com/spiffcs/ghissues/internal/output"
	"github.com/spiffcs/ghissues/internal/urlutil"
)

// NewCmdView creates the view command.
func NewCmdView(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view <issue>",
		Short: "Show an issue with its comments",
		Long: `Show an issue and all of its comments. The issue may be given as a
number, #number, owner/repo#number or an issue URL.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runView(cmd, opts, cfg, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "output", "o", "", "Output format (table, json, markdown)")
	return cmd
}

// issueTarget parses an issue argument; a repository in the reference
// overrides --repo.
func issueTarget(opts *Options, arg string) (int, error) {
	ref, err := urlutil.ParseIssueRef(arg)
	if err != nil {
		return 0, err
	}
	if ref.HasRepo() {
		opts.Repo = ref.Owner + "/" + ref.Repo
	}
	return ref.Number, nil
}

func runView(cmd *cobra.Command, opts *Options, cfg *config.Config, arg string) error {
	ctx := cmd.Context()

	number, err := issueTarget(opts, arg)
	if err != nil {
		return err
	}
	format, err := resolveFormat(opts.Format, cfg)
	if err != nil {
		return err
	}

	cleanup, err := setupLogging(opts, cfg, false)
	if err != nil {
		return err
	}
	defer cleanup()

	view := newCLIView(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.NewFormatter(format), renders{details: true})
	a, err := newApp(ctx, opts, cfg, view, appOptions{})
	if err != nil {
		return err
	}

	if err := a.ctrl.ViewDetails(ctx, number); err != nil {
		if ghclient.IsKind(err, ghclient.KindNotFound) {
			return fmt.Errorf("issue #%d not found in %s", number, a.repo.FullName())
		}
		return commandError(fmt.Sprintf("view issue #%d", number), err)
	}
	if err := view.Err(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
