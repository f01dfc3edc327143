package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spiffcs/ghissues/config"
	"github.com/spiffcs/ghissues/internal/cache"
	"github.com/spiffcs/ghissues/internal/controller"
	"github.com/spiffcs/ghissues/internal/ghclient"
	"github.com/spiffcs/ghissues/internal/log"
	"github.com/spiffcs/ghissues/internal/model"
	"github.com/spiffcs/ghissues/internal/repo"
	"github.com/spiffcs/ghissues/internal/service"
	"github.com/spiffcs/ghissues/internal/session"
)

// app bundles everything a command needs to talk to one repository.
type app struct {
	cfg     *config.Config
	repo    model.Repository
	service *service.IssueService
	state   *session.State
	ctrl    *controller.Controller
}

// appOptions adjusts the session before the controller takes ownership.
type appOptions struct {
	perPage      int
	filter       model.IssueState
	page         int
	repoOptional bool // commands such as limits work without a repository
}

// loadConfig loads and validates configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// setupLogging points the logger at stderr, or for the interactive UI at
// the configured log file so log lines never reach the alternate screen.
// The returned function closes anything that was opened.
func setupLogging(opts *Options, cfg *config.Config, interactive bool) (func(), error) {
	if !interactive {
		log.Initialize(opts.Verbosity, os.Stderr)
		return func() {}, nil
	}
	if cfg.LogFile == "" {
		log.Initialize(opts.Verbosity, io.Discard)
		return func() {}, nil
	}

	f, err := log.OpenFile(cfg.LogFile)
	if err != nil {
		return nil, err
	}
	level := opts.Verbosity
	if level == 0 {
		level = log.LevelInfo
	}
	log.Initialize(level, f)
	return func() { _ = f.Close() }, nil
}

// newApp resolves the repository and builds the client, cache, query layer
// and controller around view.
func newApp(ctx context.Context, opts *Options, cfg *config.Config, view controller.View, ao appOptions) (*app, error) {
	dir := opts.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			log.Debug("could not determine working directory", "error", err)
		}
		dir = wd
	}

	res, err := repo.Resolve(repo.Options{
		Flag:         opts.Repo,
		Dir:          dir,
		DefaultOwner: cfg.DefaultOwner,
		DefaultRepo:  cfg.DefaultRepo,
	})
	switch {
	case errors.Is(err, repo.ErrNoRepository) && ao.repoOptional:
		log.Debug("no repository resolved")
	case err != nil:
		return nil, err
	default:
		log.Info("using repository", "repo", res.Repository.FullName(), "source", res.Source)
	}

	token := cfg.GetGitHubToken()
	if token == "" {
		log.Info("no GITHUB_TOKEN set, using unauthenticated requests")
	}
	client, err := newGitHubClient(ctx, cfg, token)
	if err != nil {
		return nil, err
	}

	var c cache.Cacher
	if cfg.IsCacheEnabled() {
		c = cache.New(cfg.CacheTTL())
	}
	svc := service.New(client, c)

	perPage := ao.perPage
	if perPage <= 0 {
		perPage = cfg.GetPerPage()
	}
	state := session.New(res.Repository.Owner, res.Repository.Name, perPage)
	if ao.filter != "" {
		state.SetFilter(ao.filter)
	}
	if ao.page > 1 {
		state.Page = ao.page
	}

	authenticate := func(ctx context.Context, token string) error {
		client, err := newGitHubClient(ctx, cfg, token)
		if err != nil {
			return err
		}
		svc.SetAPI(client)
		log.Info("token installed for this session")
		return nil
	}

	return &app{
		cfg:     cfg,
		repo:    res.Repository,
		service: svc,
		state:   state,
		ctrl:    controller.New(svc, view, state, controller.WithAuthenticator(authenticate)),
	}, nil
}

// newGitHubClient creates a facade with the configured retry policy.
func newGitHubClient(ctx context.Context, cfg *config.Config, token string) (*ghclient.Client, error) {
	return ghclient.NewClient(ctx, token,
		ghclient.WithRetries(cfg.GetRequestRetries()),
		ghclient.WithRetryDelay(cfg.GetRequestRetryDelay()),
	)
}

// commandError turns a failed controller action into the message printed
// at the process boundary.
func commandError(action string, err error) error {
	log.Debug(action+" failed", "kind", ghclient.KindOf(err), "error", err)
	return fmt.Errorf("%s: %s", action, ghclient.UserMessage(err))
}
