package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/crm-lead-fusion/cmd/mainconfig"
	"github.com/wolfman30/crm-lead-fusion/internal/api/router"
	"github.com/wolfman30/crm-lead-fusion/internal/app/bootstrap"
	appconfig "github.com/wolfman30/crm-lead-fusion/internal/config"
	"github.com/wolfman30/crm-lead-fusion/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/crm-lead-fusion/internal/http/middleware"
	"github.com/wolfman30/crm-lead-fusion/internal/inbound"
	"github.com/wolfman30/crm-lead-fusion/internal/observability/metrics"
	"github.com/wolfman30/crm-lead-fusion/pkg/logging"
)

func main() {
	cfg, logger := mainconfig.Load()
	logger.Info("starting crm-lead-fusion API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	pool, err := bootstrap.BuildPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
	}

	app, err := setupApp(ctx, cfg, awsCfg, pool, prometheus.DefaultRegisterer, logger)
	if err != nil {
		logger.Error("failed to wire application", "error", err)
		os.Exit(1)
	}
	if app.worker != nil {
		app.worker.Start(ctx)
		logger.Info("inline inbound worker started", "workers", cfg.WorkerCount)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      app.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.InferenceTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	cancel()
	if app.worker != nil {
		app.worker.Wait()
	}
	if err := app.inbound.Close(); err != nil {
		logger.Warn("failed to close inbound queue", "error", err)
	}
	if app.redisClose != nil {
		app.redisClose()
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

type app struct {
	handler    http.Handler
	worker     *inbound.Worker
	inbound    *bootstrap.Inbound
	redisClose func()
}

// setupApp wires stores, models, the pipeline and the router. A worker is
// returned only for the in-memory queue, whose consumer must share the process.
func setupApp(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, pool *pgxpool.Pool, reg prometheus.Registerer, logger *logging.Logger) (*app, error) {
	out := &app{}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		out.redisClose = func() { _ = redisClient.Close() }
	}

	models, err := bootstrap.BuildModels(cfg, awsCfg, redisClient, logger)
	if err != nil {
		return nil, err
	}

	stores := bootstrap.BuildStores(pool, logger)
	stores.Archive = bootstrap.BuildArchive(cfg, awsCfg, logger)
	if stores.Alerts, err = bootstrap.BuildAlerts(cfg, awsCfg, logger); err != nil {
		return nil, err
	}
	pm := metrics.NewPipelineMetrics(reg)
	p := bootstrap.BuildPipeline(cfg, stores, models, pm, logger)

	in, err := bootstrap.BuildInbound(cfg, awsCfg, logger)
	if err != nil {
		return nil, err
	}
	out.inbound = in
	var enqueuer handlers.InboundEnqueuer
	if in != nil {
		enqueuer = in.Publisher(logger)
		if in.InProcess {
			out.worker = in.Worker(p.Orchestrator, cfg.WorkerCount, logger)
		}
	}

	metricsHandler := promhttp.Handler()
	if gatherer, ok := reg.(prometheus.Gatherer); ok {
		metricsHandler = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	}

	out.handler = router.New(&router.Config{
		Logger:         logger,
		InboundHandler: handlers.NewInboundHandler(p.Orchestrator, enqueuer, logger),
		DraftsHandler:  handlers.NewDraftsHandler(p.Drafts, stores.Leads, logger),
		AdminHandler: handlers.NewAdminHandler(handlers.AdminConfig{
			Orgs:    stores.Orgs,
			Leads:   stores.Leads,
			Clients: stores.Clients,
			Drafts:  stores.Drafts,
			Logger:  logger,
		}),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	})
	return out, nil
}
