// Package repo resolves which GitHub repository ghissues operates on.
package repo

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-git/go-git/v5"

	"github.com/spiffcs/ghissues/internal/log"
	"github.com/spiffcs/ghissues/internal/model"
	"github.com/spiffcs/ghissues/internal/urlutil"
)

// ErrNoRepository is returned when no source names a repository.
var ErrNoRepository = errors.New("no repository specified: use --repo owner/repo, run inside a GitHub clone, or set default_owner and default_repo")

// Source is where a repository was resolved from.
type Source string

const (
	SourceFlag   Source = "flag"
	SourceGit    Source = "git"
	SourceConfig Source = "config"
)

// Resolution is the outcome of Resolve.
type Resolution struct {
	Repository model.Repository
	Source     Source
}

// Options lists the candidate sources in priority order.
type Options struct {
	Flag         string // --repo value
	Dir          string // working directory searched for a git checkout
	DefaultOwner string
	DefaultRepo  string
}

// Resolve picks the repository from the --repo flag, then the git remote of
// Dir, then the configured defaults.
func Resolve(opts Options) (Resolution, error) {
	if opts.Flag != "" {
		r, err := model.ParseRepository(opts.Flag)
		if err != nil {
			return Resolution{}, err
		}
		return Resolution{Repository: r, Source: SourceFlag}, nil
	}

	if opts.Dir != "" {
		r, err := FromGit(opts.Dir)
		if err == nil {
			return Resolution{Repository: r, Source: SourceGit}, nil
		}
		log.Debug("git repository detection failed", "dir", opts.Dir, "error", err)
	}

	if opts.DefaultOwner != "" && opts.DefaultRepo != "" {
		return Resolution{
			Repository: model.Repository{Owner: opts.DefaultOwner, Name: opts.DefaultRepo},
			Source:     SourceConfig,
		}, nil
	}

	return Resolution{}, ErrNoRepository
}

// FromGit reads the GitHub remote of the checkout containing dir. The
// origin remote wins; otherwise the first GitHub remote by name is used.
func FromGit(dir string) (model.Repository, error) {
	r, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return model.Repository{}, fmt.Errorf("open git repository: %w", err)
	}

	remotes, err := r.Remotes()
	if err != nil {
		return model.Repository{}, fmt.Errorf("list remotes: %w", err)
	}
	sort.Slice(remotes, func(i, j int) bool {
		ni, nj := remotes[i].Config().Name, remotes[j].Config().Name
		if ni == "origin" || nj == "origin" {
			return ni == "origin" && nj != "origin"
		}
		return ni < nj
	})

	for _, remote := range remotes {
		for _, u := range remote.Config().URLs {
			owner, name, err := urlutil.ParseRemote(u)
			if err != nil {
				continue
			}
			log.Trace("repository detected from remote", "remote", remote.Config().Name, "url", u)
			return model.Repository{Owner: owner, Name: name}, nil
		}
	}
	return model.Repository{}, errors.New("no GitHub remote found")
}
