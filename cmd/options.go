package cmd

// Options holds the shared command-line options for the ghissues CLI.
type Options struct {
	Repo      string // owner/repo, overrides git and config detection
	Dir       string // directory searched for a git checkout; empty means cwd
	Verbosity int
	TUI       *bool // nil = auto-detect, true = force TUI, false = disable TUI

	// list options
	Format string
	Closed bool
	Limit  int
	Page   int
	Since  string
	Search string

	// create / comment options
	Title string
	Body  string
}

// Option is a functional option for configuring Options.
type Option func(*Options)

// NewOptions creates a new Options with defaults and applies any provided options.
func NewOptions(opts ...Option) *Options {
	o := &Options{
		Page: 1,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithRepo sets the repository as owner/repo.
func WithRepo(repo string) Option {
	return func(o *Options) {
		o.Repo = repo
	}
}

// WithDir sets the directory used for git remote detection.
func WithDir(dir string) Option {
	return func(o *Options) {
		o.Dir = dir
	}
}

// WithFormat sets the output format (table, json, markdown).
func WithFormat(format string) Option {
	return func(o *Options) {
		o.Format = format
	}
}

// WithLimit sets the number of issues listed per page.
func WithLimit(limit int) Option {
	return func(o *Options) {
		o.Limit = limit
	}
}

// WithVerbosity sets the verbosity level.
func WithVerbosity(v int) Option {
	return func(o *Options) {
		o.Verbosity = v
	}
}

// WithTUI controls TUI mode (nil = auto-detect, true = force, false = disable).
func WithTUI(tui *bool) Option {
	return func(o *Options) {
		o.TUI = tui
	}
}
