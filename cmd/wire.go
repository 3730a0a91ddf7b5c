package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/bnema/exati-cli/internal/adapters/backend"
	resultsadapter "github.com/bnema/exati-cli/internal/adapters/render/results"
	chainstore "github.com/bnema/exati-cli/internal/adapters/secrets/chain"
	"github.com/bnema/exati-cli/internal/application"
	"github.com/bnema/exati-cli/internal/config"
	"github.com/bnema/exati-cli/internal/logger"
	"github.com/bnema/exati-cli/internal/ports"
	"golang.org/x/time/rate"
)

type app struct {
	cfg            config.Config
	logger         *slog.Logger
	service        *application.Service
	secretStore    ports.SecretStore
	resultRenderer func(application.BatchResult, resultsadapter.RenderOptions) (string, error)
	httpClient     *http.Client
	clock          ports.Clock
}

func wireApp() (*app, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	workDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}

	source, err := config.New(homeDir, workDir)
	if err != nil {
		return nil, fmt.Errorf("wire config: %w", err)
	}
	cfg, err := config.Load(source)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}

	secretStore, err := chainstore.NewPassFirstWithFileFallback(cfg.Secrets.Dir)
	if err != nil {
		return nil, fmt.Errorf("wire secret store chain: %w", err)
	}

	return &app{
		cfg:            cfg,
		logger:         log,
		service:        application.NewService(secretStore, cfg.Backend.CredentialsRef, ports.SystemClock{}),
		secretStore:    secretStore,
		resultRenderer: resultsadapter.Render,
		httpClient:     http.DefaultClient,
		clock:          ports.SystemClock{},
	}, nil
}

// openSession logs in with the configured or stored credentials.
func (a *app) openSession(ctx context.Context) (*backend.Session, error) {
	raw, err := a.service.Credentials(ctx, a.cfg.Backend.Credentials)
	if err != nil {
		return nil, err
	}
	credentials, err := backend.ParseCredentials(raw)
	if err != nil {
		return nil, err
	}

	transport := backend.HTTPTransport{
		Endpoint:       a.cfg.Backend.URL,
		HTTPClient:     a.httpClient,
		RequestTimeout: a.cfg.Backend.RequestTimeout,
		Limiter:        newLimiter(a.cfg.Backend),
	}
	pipeline := backend.NewPipeline(transport, backend.PipelineConfig{
		MaxAttempts: a.cfg.Backend.MaxAttempts,
		BaseDelay:   a.cfg.Backend.BaseDelay,
	}, a.logger)

	session, err := backend.Open(ctx, pipeline, credentials)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("backend session opened", "component", "cmd", "user", credentials.Username)
	return session, nil
}

func newLimiter(cfg config.BackendConfig) *rate.Limiter {
	if cfg.RateLimit <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
}
