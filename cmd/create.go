package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spiffcs/ghissues/config"
	"github.com/spiffcs/ghissues/internal/controller"
	"github.com/spiffcs/ghissues/internal/output"
)

// NewCmdCreate creates the create command.
func NewCmdCreate(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a new issue",
		Long: `Open a new issue in the repository. Without --title the title, body
and a confirmation are asked for interactively. Requires GITHUB_TOKEN
(or a token entered at the prompt).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runCreate(cmd, opts, cfg)
		},
	}

	cmd.Flags().StringVarP(&opts.Title, "title", "t", "", "Issue title (skips the prompts)")
	cmd.Flags().StringVarP(&opts.Body, "body", "b", "", "Issue body in markdown")
	return cmd
}

func runCreate(cmd *cobra.Command, opts *Options, cfg *config.Config) error {
	ctx := cmd.Context()

	cleanup, err := setupLogging(opts, cfg, false)
	if err != nil {
		return err
	}
	defer cleanup()

	view := newCLIView(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.NewFormatter(output.FormatTable), renders{})
	a, err := newApp(ctx, opts, cfg, view, appOptions{})
	if err != nil {
		return err
	}

	if strings.TrimSpace(opts.Title) == "" {
		if err := a.ctrl.PromptCreateIssue(ctx); err != nil {
			return commandError("create issue", err)
		}
		return nil
	}

	issue, err := a.ctrl.CreateIssue(ctx, opts.Title, opts.Body)
	if err != nil {
		if errors.Is(err, controller.ErrEmptyTitle) {
			return err
		}
		return commandError("create issue", err)
	}
	if issue.HTMLURL != "" {
		fmt.Fprintln(cmd.OutOrStdout(), issue.HTMLURL)
	}
	return nil
}
