package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/emberops/burnoutctl/internal/api"
	"github.com/emberops/burnoutctl/internal/cache"
	"github.com/emberops/burnoutctl/internal/connect"
	"github.com/emberops/burnoutctl/internal/correlate"
	"github.com/emberops/burnoutctl/internal/notify"
	"github.com/emberops/burnoutctl/internal/params"
	"github.com/emberops/burnoutctl/internal/token"
	"github.com/emberops/burnoutctl/internal/workspace"
)

const defaultAPIURL = "https://api.emberops.io"

// services bundles everything a command needs, opened lazily per run.
type services struct {
	durable  cache.Durable
	session  *cache.Session
	client   *api.Client
	notifier *notify.Dispatcher
	logger   *slog.Logger
}

// servicesFactory builds the service set. Tests replace it to inject fakes.
var servicesFactory = newServices

func newServices() (*services, error) {
	logger := slog.Default()

	durable, err := cache.OpenDurable(params.AppdataDir)
	if err != nil {
		return nil, fmt.Errorf("open local cache: %w", err)
	}

	baseURL := flagAPIURL
	if baseURL == "" {
		baseURL = os.Getenv("BURNOUTCTL_API_URL")
	}

	if baseURL == "" {
		baseURL = defaultAPIURL
	}

	notifier := notify.NewDispatcher()
	notifier.Register(&notify.ConsoleSender{Out: os.Stderr})

	client, err := api.NewClient(baseURL, durable, api.Options{Logger: logger})
	if err != nil {
		_ = durable.Close()

		return nil, err
	}

	return &services{
		durable:  durable,
		session:  cache.NewSession(),
		client:   client,
		notifier: notifier,
		logger:   logger,
	}, nil
}

func (s *services) Close() {
	if err := s.durable.Close(); err != nil {
		s.logger.Warn("closing cache", "error", err)
	}
}

func (s *services) connectManager() *connect.Manager {
	return connect.NewManager(s.client, s.durable, s.session, s.notifier, s.logger)
}

func (s *services) tokenController() *token.Controller {
	return token.NewController(s.client, s.notifier, s.logger)
}

func (s *services) memberSyncer() *correlate.Syncer {
	return correlate.NewSyncer(s.client, s.durable, s.notifier, s.logger)
}

func (s *services) workspaceSelector() *workspace.Selector {
	return workspace.NewSelector(s.client, s.durable, s.notifier, s.logger)
}
