package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spiffcs/ghissues/config"
	"github.com/spiffcs/ghissues/internal/ghclient"
	"github.com/spiffcs/ghissues/internal/output"
)

// NewCmdComment creates the comment command.
func NewCmdComment(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment <issue>",
		Short: "Add a comment to an issue",
		Long: `Add a comment to an existing issue. Without --body the comment is
written in an editor prompt and confirmed before posting. The issue is
looked up first so a typo never posts to the wrong place.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runComment(cmd, opts, cfg, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Body, "body", "b", "", "Comment text in markdown (skips the prompts)")
	return cmd
}

func runComment(cmd *cobra.Command, opts *Options, cfg *config.Config, arg string) error {
	ctx := cmd.Context()

	number, err := issueTarget(opts, arg)
	if err != nil {
		return err
	}

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

	// Loads the issue so the prompt flow knows its target
	if err := a.ctrl.ViewDetails(ctx, number); err != nil {
		if ghclient.IsKind(err, ghclient.KindNotFound) {
			return fmt.Errorf("issue #%d not found in %s", number, a.repo.FullName())
		}
		return commandError(fmt.Sprintf("load issue #%d", number), err)
	}

	if strings.TrimSpace(opts.Body) == "" {
		if err := a.ctrl.PromptComment(ctx); err != nil {
			return commandError("add comment", err)
		}
		return nil
	}

	comment, err := a.ctrl.CreateComment(ctx, number, opts.Body)
	if err != nil {
		return commandError("add comment", err)
	}
	if comment.HTMLURL != "" {
		fmt.Fprintln(cmd.OutOrStdout(), comment.HTMLURL)
	}
	return nil
}
