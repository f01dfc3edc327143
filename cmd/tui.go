package cmd

import (
	"github.com/spf13/cobra"

	"github.com/spiffcs/ghissues/config"
	"github.com/spiffcs/ghissues/internal/cache"
	"github.com/spiffcs/ghissues/internal/constants"
	"github.com/spiffcs/ghissues/internal/tui"
)

// NewCmdTUI creates the tui command.
func NewCmdTUI(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive issue browser",
		Long: `Open the full-screen issue browser.

Keys:
  1/2     open / closed issues     3 or /  search
  4       new issue                5       API rate limits
  j/k     move                     enter   load details and comments
  n/p     next / previous page     r / R   refresh / refresh without cache
  c       comment on selection     o       open in browser
  tab     switch pane              esc     reset view
  q       quit

Logs are written to log_file from the config, if set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runTUI(cmd, opts, cfg)
		},
	}
}

func runTUI(cmd *cobra.Command, opts *Options, cfg *config.Config) error {
	ctx := cmd.Context()

	cleanup, err := setupLogging(opts, cfg, true)
	if err != nil {
		return err
	}
	defer cleanup()

	view := tui.NewView(constants.EventBuffer)
	a, err := newApp(ctx, opts, cfg, view, appOptions{})
	if err != nil {
		view.Close()
		return err
	}

	return tui.Run(ctx, a.ctrl, view,
		tui.WithCacheStats(func() (cache.Stats, bool) {
			return a.service.CacheStats()
		}),
	)
}
