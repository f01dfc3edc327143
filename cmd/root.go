package cmd

import (
	"github.com/spf13/cobra"
)

// New creates the root command with all subcommands registered.
func New() *cobra.Command {
	opts := NewOptions()

	rootCmd := &cobra.Command{
		Use:   "ghissues",
		Short: "Browse and manage GitHub issues from the terminal",
		Long: `A terminal client for GitHub issues. Run without arguments in a
terminal to open the interactive browser; otherwise the open issues of
the current repository are listed.

The repository comes from --repo, the git remote of the current
directory, or default_owner/default_repo in the config file.
Set GITHUB_TOKEN to raise rate limits and to create issues or comments.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if shouldUseTUI(opts, cfg.LogFile) {
				return runTUI(cmd, opts, cfg)
			}
			return runList(cmd, opts, cfg)
		},
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.Repo, "repo", "R", "", "Repository as owner/repo (default: git remote or config)")
	rootCmd.PersistentFlags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")

	// Root falls back to list, so it takes the list flags too
	addListFlags(rootCmd, opts)
	addTUIFlag(rootCmd.Flags(), opts)

	rootCmd.AddCommand(NewCmdTUI(opts))
	rootCmd.AddCommand(NewCmdList(opts))
	rootCmd.AddCommand(NewCmdView(opts))
	rootCmd.AddCommand(NewCmdCreate(opts))
	rootCmd.AddCommand(NewCmdComment(opts))
	rootCmd.AddCommand(NewCmdLimits(opts))
	rootCmd.AddCommand(NewCmdConfig())
	rootCmd.AddCommand(NewCmdVersion(opts))

	return rootCmd
}
