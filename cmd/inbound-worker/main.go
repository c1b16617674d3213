package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/crm-lead-fusion/cmd/mainconfig"
	"github.com/wolfman30/crm-lead-fusion/internal/app/bootstrap"
	appconfig "github.com/wolfman30/crm-lead-fusion/internal/config"
	"github.com/wolfman30/crm-lead-fusion/internal/inbound"
	"github.com/wolfman30/crm-lead-fusion/internal/observability/metrics"
	"github.com/wolfman30/crm-lead-fusion/pkg/logging"
)

var errMemoryQueue = errors.New("inbound-worker: the memory queue is consumed inside the API process")

func main() {
	cfg, logger := mainconfig.Load()

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

	worker, in, err := buildWorker(ctx, cfg, awsCfg, pool, prometheus.DefaultRegisterer, logger)
	if err != nil {
		logger.Error("failed to build inbound worker", "error", err)
		os.Exit(1)
	}
	defer func() { _ = in.Close() }()

	worker.Start(ctx)
	logger.Info("inbound worker started", "workers", cfg.WorkerCount, "queue_url", cfg.InboundQueueURL)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down inbound worker...")
	cancel()

	doneCtx, doneCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer doneCancel()

	waitCh := make(chan struct{})
	go func() {
		worker.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Info("inbound worker stopped")
	case <-doneCtx.Done():
		logger.Error("inbound worker shutdown timed out", "error", doneCtx.Err())
	}
}

func buildWorker(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, pool *pgxpool.Pool, reg prometheus.Registerer, logger *logging.Logger) (*inbound.Worker, *bootstrap.Inbound, error) {
	if cfg.UseMemoryQueue {
		return nil, nil, errMemoryQueue
	}
	models, err := bootstrap.BuildModels(cfg, awsCfg, bootstrap.BuildRedisClient(ctx, cfg, logger, true), logger)
	if err != nil {
		return nil, nil, err
	}

	alerts, err := bootstrap.BuildAlerts(cfg, awsCfg, logger)
	if err != nil {
		return nil, nil, err
	}

	in, err := bootstrap.BuildInbound(cfg, awsCfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if in == nil {
		return nil, nil, errors.New("inbound-worker: AMQP_URL or INBOUND_QUEUE_URL is required")
	}
	stores := bootstrap.BuildStores(pool, logger)
	stores.Archive = bootstrap.BuildArchive(cfg, awsCfg, logger)
	stores.Alerts = alerts
	p := bootstrap.BuildPipeline(cfg, stores, models, metrics.NewPipelineMetrics(reg), logger)
	return in.Worker(p.Orchestrator, cfg.WorkerCount, logger), in, nil
}
