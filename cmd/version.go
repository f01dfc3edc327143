package cmd

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/spiffcs/ghissues/config"
	"github.com/spiffcs/ghissues/internal/repo"
)

// Build metadata, stamped with -ldflags "-X".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// recentLogLines is how much of the log file `version -v` shows.
const recentLogLines = 20

// SetVersionInfo overrides the stamped build metadata. Empty values are
// ignored.
func SetVersionInfo(v, c, d string) {
	if v != "" {
		version = v
	}
	if c != "" {
		commit = c
	}
	if d != "" {
		date = d
	}
}

// buildVersion prefers the stamped version and falls back to the module
// version recorded by `go install`.
func buildVersion() string {
	if version != "dev" {
		return version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return version
}

// NewCmdVersion creates the version command. With -v it also reports the
// environment ghissues would run in, for bug reports.
func NewCmdVersion(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the ghissues build, or with -v a diagnostic report",
		Example: `  ghissues version
  ghissues version -v > ghissues-report.txt`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			writeVersion(w)
			if opts.Verbosity == 0 {
				return
			}
			cfg, err := config.Load()
			if err != nil {
				fmt.Fprintf(w, "\nconfig error: %v\n", err)
				cfg = config.DefaultConfig()
			}
			writeDiagnostics(w, opts, cfg)
		},
	}
}

func writeVersion(w io.Writer) {
	fmt.Fprintf(w, "ghissues %s\n", buildVersion())
	fmt.Fprintf(w, "  commit: %s\n", commit)
	fmt.Fprintf(w, "  built:  %s\n", date)
	fmt.Fprintf(w, "  go:     %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// writeDiagnostics reports token presence, repository detection, config
// files, cache settings and the tail of the log file. It never prints the
// token itself and makes no network calls.
func writeDiagnostics(w io.Writer, opts *Options, cfg *config.Config) {
	heading := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(w, "\n%s\n", heading("Environment"))
	fmt.Fprintf(w, "  token:         %s\n", tokenSource())

	dir := opts.Dir
	if dir == "" {
		dir, _ = os.Getwd()
	}
	res, err := repo.Resolve(repo.Options{
		Flag:         opts.Repo,
		Dir:          dir,
		DefaultOwner: cfg.DefaultOwner,
		DefaultRepo:  cfg.DefaultRepo,
	})
	if err != nil {
		fmt.Fprintf(w, "  repository:    none (%v)\n", err)
	} else {
		fmt.Fprintf(w, "  repository:    %s (from %s)\n", res.Repository.FullName(), res.Source)
	}

	paths := config.GetConfigPaths()
	fmt.Fprintf(w, "  global config: %s (%s)\n", paths.GlobalPath, found(paths.GlobalExists))
	fmt.Fprintf(w, "  local config:  %s (%s)\n", paths.LocalPath, found(paths.LocalExists))

	if cfg.IsCacheEnabled() {
		fmt.Fprintf(w, "  cache:         on, ttl %s\n", cfg.CacheTTL())
	} else {
		fmt.Fprintf(w, "  cache:         off\n")
	}
	fmt.Fprintf(w, "  retries:       %d, %s apart\n", cfg.GetRequestRetries(), cfg.GetRequestRetryDelay())

	if cfg.LogFile == "" {
		fmt.Fprintf(w, "  log file:      not set (log_file)\n")
		return
	}
	fmt.Fprintf(w, "  log file:      %s\n", cfg.LogFile)

	lines, err := tailLines(cfg.LogFile, recentLogLines)
	if err != nil {
		fmt.Fprintf(w, "\n%s\n  %v\n", heading("Recent log lines"), err)
		return
	}
	fmt.Fprintf(w, "\n%s\n", heading("Recent log lines"))
	for _, line := range lines {
		fmt.Fprintf(w, "  %s\n", line)
	}
}

func tokenSource() string {
	for _, name := range []string{"GITHUB_TOKEN", "GH_TOKEN"} {
		if strings.TrimSpace(os.Getenv(name)) != "" {
			return name + " is set"
		}
	}
	return "not set (anonymous, 60 requests/hour)"
}

func found(ok bool) string {
	if ok {
		return "found"
	}
	return "not found"
}

// tailLines returns the last n non-empty lines of path.
func tailLines(path string, n int) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
