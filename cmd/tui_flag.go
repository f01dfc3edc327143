package cmd

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/spiffcs/ghissues/internal/tui"
)

// tuiFlag implements pflag.Value for tri-state TUI flag.
type tuiFlag struct {
	opts *Options
}

var _ pflag.Value = (*tuiFlag)(nil)

// newTUIFlag creates a new tuiFlag with the given options.
func newTUIFlag(opts *Options) *tuiFlag {
	return &tuiFlag{opts: opts}
}

func (f *tuiFlag) String() string {
	if f.opts.TUI == nil {
		return "auto"
	}
	if *f.opts.TUI {
		return "true"
	}
	return "false"
}

func (f *tuiFlag) Set(s string) error {
	switch s {
	case "true", "1", "yes", "on":
		v := true
		f.opts.TUI = &v
	case "false", "0", "no", "off":
		v := false
		f.opts.TUI = &v
	case "auto":
		f.opts.TUI = nil
	default:
		return fmt.Errorf("invalid value %q: use true, false, or auto", s)
	}
	return nil
}

func (f *tuiFlag) Type() string {
	return "bool"
}

func (f *tuiFlag) IsBoolFlag() bool {
	return true
}

// addTUIFlag registers --tui; a bare --tui means true.
func addTUIFlag(fs *pflag.FlagSet, opts *Options) {
	f := fs.VarPF(newTUIFlag(opts), "tui", "", "Use the interactive UI (true, false, auto)")
	f.NoOptDefVal = "true"
}

// shouldUseTUI decides whether the bare command opens the interactive UI.
// Verbose runs without a log file stay on the line-oriented path so the
// logs remain readable.
func shouldUseTUI(opts *Options, logFile string) bool {
	if opts.TUI != nil {
		return *opts.TUI
	}
	if opts.Verbosity > 0 && logFile == "" {
		return false
	}
	return tui.ShouldUseTUI()
}
