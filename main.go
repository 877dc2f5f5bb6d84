package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/gnomegl/iceslurp/internal/auth"
	appcli "github.com/gnomegl/iceslurp/internal/cli"
	"github.com/gnomegl/iceslurp/internal/config"
	"github.com/gnomegl/iceslurp/internal/github"
	"github.com/gnomegl/iceslurp/internal/logger"
	"github.com/gnomegl/iceslurp/internal/metrics"
	"github.com/gnomegl/iceslurp/internal/service"
	"github.com/gnomegl/iceslurp/internal/store"
)

func runCrawl(c *cli.Context) error {
	cfg, err := config.ParseConfig(c)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Env, cfg.Verbose); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Get()

	// Interrupts stop the crawl; the orchestrator still saves what it has.
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, closeBackend, err := store.Open(cfg.Backend, cfg.DataDir)
	if err != nil {
		return err
	}
	defer closeBackend()

	// A corrupt state must not cost any API quota.
	if _, err := backend.Load(ctx); err != nil {
		return fmt.Errorf("load state from %s: %w", backend, err)
	}

	pool, err := auth.SetupClientPool(ctx, cfg, log)
	if err != nil {
		return err
	}

	ghCfg := github.DefaultConfig()
	ghCfg.RequestInterval = cfg.RequestInterval
	ghCfg.MinRateLimitWait = cfg.RetryInterval
	source := github.NewSocial(pool, ghCfg, log)

	log.Info("starting crawl",
		zap.String("state", backend.String()),
		zap.String("geo_tag", cfg.GeoTag),
		zap.Duration("budget", cfg.Budget),
		zap.Int("clients", pool.Size()))

	m := metrics.New()
	orch := service.NewOrchestrator(source, backend, service.Options{
		GeoTag:        cfg.GeoTag,
		SeedLimit:     cfg.SeedLimit,
		BatchSize:     cfg.BatchSize,
		Budget:        cfg.Budget,
		Checkpoint:    cfg.Checkpoint,
		RetryInterval: cfg.RetryInterval,
	}, log, m)

	_, runErr := orch.Run(ctx)

	if cfg.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Error("failed to write metrics", zap.Error(err))
		}
	}
	if cfg.Verbose {
		pool.DisplayPoolRateLimit(context.WithoutCancel(ctx))
	}
	if runErr != nil {
		color.Red("❌ Crawl stopped: %v", runErr)
	}
	return runErr
}

func main() {
	log.SetFlags(0)
	config.LoadDotEnv()

	app := appcli.NewApp(runCrawl)
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
