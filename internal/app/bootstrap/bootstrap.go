package bootstrap

import (
	"context"
	"io"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"seopro/app/internal/data/database"
	"seopro/app/internal/data/migrations"
	"seopro/app/internal/data/usage"
	"seopro/app/internal/domain/content"
	"seopro/app/internal/infrastructure/cache"
	"seopro/app/internal/infrastructure/llm"
	"seopro/app/internal/platform/config"
	applog "seopro/app/internal/platform/log"
	"seopro/app/internal/platform/metrics"
	presentationhttp "seopro/app/internal/presentation/http"
)

type Dependencies struct {
	Config    config.Config
	Logger    *logrus.Logger
	SentryHub *sentry.Hub
}

type Result struct {
	Service    content.Service
	HTTPServer *presentationhttp.Server
	Database   *gorm.DB
	Metrics    *metrics.Metrics
	Cleanup    func() error
}

// Build composes the service layers and the HTTP transport.
func Build(ctx context.Context, deps Dependencies) (Result, error) {
	core, err := BuildService(ctx, deps)
	if err != nil {
		return Result{}, err
	}

	httpServer, err := presentationhttp.NewServer(presentationhttp.Options{
		Service:   core.Service,
		Metrics:   core.Metrics,
		Logger:    deps.Logger,
		SentryHub: deps.SentryHub,
		RateLimiter: presentationhttp.RateLimiterSettings{
			RequestsPerSecond: deps.Config.RateLimit.RequestsPerSecond,
			Burst:             deps.Config.RateLimit.Burst,
			ClientTTL:         deps.Config.RateLimit.ClientTTL,
		},
	})
	if err != nil {
		if cleanupErr := core.Cleanup(); cleanupErr != nil && deps.Logger != nil {
			deps.Logger.WithError(cleanupErr).Error("releasing resources after bootstrap failure")
		}
		return Result{}, eris.Wrap(err, "initialising http server")
	}

	serviceCleanup := core.Cleanup
	core.HTTPServer = httpServer
	core.Cleanup = func() error {
		httpServer.Close()
		return serviceCleanup()
	}

	return core, nil
}

// BuildService composes the generation service without an HTTP transport.
func BuildService(ctx context.Context, deps Dependencies) (Result, error) {
	cfg := deps.Config

	db, err := database.Open(database.Options{Path: cfg.DBPath})
	if err != nil {
		return Result{}, eris.Wrap(err, "opening database")
	}

	var closers []io.Closer
	release := func() error {
		var firstErr error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		if err := database.Close(db); err != nil && firstErr == nil {
			firstErr = err
		}
		return firstErr
	}

	closeOnError := func(wrapper error) (Result, error) {
		if closeErr := release(); closeErr != nil && deps.Logger != nil {
			deps.Logger.WithError(closeErr).Error("releasing resources after bootstrap failure")
		}
		return Result{}, wrapper
	}

	if err := migrations.MigrateUsage(ctx, db, deps.Logger); err != nil {
		return closeOnError(eris.Wrap(err, "running usage migrations"))
	}

	ledger, err := usage.NewRepository(db, deps.Logger)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating usage repository"))
	}

	provider, err := llm.NewProvider(llm.Options{
		Provider:         cfg.Provider.Name,
		OpenAIAPIKey:     cfg.Provider.OpenAIAPIKey,
		OpenAIModel:      cfg.Provider.OpenAIModel,
		OpenAIBaseURL:    cfg.Provider.OpenAIBaseURL,
		AnthropicAPIKey:  cfg.Provider.AnthropicAPIKey,
		AnthropicModel:   cfg.Provider.AnthropicModel,
		AnthropicBaseURL: cfg.Provider.AnthropicBaseURL,
		Timeout:          cfg.Provider.Timeout,
		Logger:           deps.Logger,
	})
	if err != nil {
		return closeOnError(eris.Wrap(err, "initialising ai provider"))
	}

	results, err := newCache(ctx, cfg.Cache)
	if err != nil {
		return closeOnError(eris.Wrap(err, "initialising result cache"))
	}
	closers = append(closers, results)

	collectors, err := metrics.New()
	if err != nil {
		return closeOnError(eris.Wrap(err, "registering metrics"))
	}

	service, err := content.NewService(content.ServiceOptions{
		Provider:    provider,
		Cache:       results,
		Usage:       ledger,
		Metrics:     collectors,
		Logger:      deps.Logger,
		SentryHub:   deps.SentryHub,
		Deduplicate: cfg.Cache.Deduplicate,
	})
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating generation service"))
	}

	if deps.Logger != nil {
		applog.Component(deps.Logger, "bootstrap").WithFields(logrus.Fields{
			"provider":      provider.Name(),
			"model":         provider.Model(),
			"cache_backend": cfg.Cache.Backend,
			"deduplicate":   cfg.Cache.Deduplicate,
		}).Info("generation service ready")
	}

	return Result{
		Service:  service,
		Database: db,
		Metrics:  collectors,
		Cleanup:  release,
	}, nil
}

type resultCache interface {
	content.Cache
	io.Closer
}

func newCache(ctx context.Context, cfg config.CacheConfig) (resultCache, error) {
	if cfg.Backend == config.CacheBackendRedis {
		return cache.NewRedis(ctx, cfg.RedisURL, cfg.TTL)
	}
	return cache.NewMemory(cache.MemoryOptions{TTL: cfg.TTL}), nil
}
