package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"

	"seopro/app/internal/app/bootstrap"
	"seopro/app/internal/domain/content"
	"seopro/app/internal/platform/config"
	applog "seopro/app/internal/platform/log"
	"seopro/app/internal/presentation/seogen"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	app := seogen.NewApp(buildService, os.Stdout)
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func buildService(ctx context.Context) (content.Service, func() error, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, eris.Wrap(err, "failure loading configuration")
	}

	logger, err := applog.NewLoggerTo(os.Stderr, cfg.LogLevel)
	if err != nil {
		return nil, nil, eris.Wrap(err, "failure initialising logger")
	}

	result, err := bootstrap.BuildService(ctx, bootstrap.Dependencies{
		Config: *cfg,
		Logger: logger,
	})
	if err != nil {
		return nil, nil, err
	}

	return result.Service, result.Cleanup, nil
}
