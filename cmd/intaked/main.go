package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/legal-intake/internal/app"
	"github.com/joseph-ayodele/legal-intake/internal/audit"
	"github.com/joseph-ayodele/legal-intake/internal/common"
	"github.com/joseph-ayodele/legal-intake/internal/ingest"
	"github.com/joseph-ayodele/legal-intake/internal/jobs"
	repo "github.com/joseph-ayodele/legal-intake/internal/repository"
)

const (
	serviceJobs   = "legalintake.jobs"
	serviceInbox  = "legalintake.inbox"
	drainTimeout  = 30 * time.Second
	healthTimeout = 3 * time.Second
)

func main() {
	cfg := common.LoadConfig()
	logger := common.NewLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	comps := app.Build(cfg, logger)
	if comps.Transcriber == nil {
		logger.Warn("OPENAI_API_KEY not set; transcription jobs will be rejected")
	}

	var db *sql.DB
	trailOpts := []audit.Option{}
	jobOpts := []jobs.Option{}
	if cfg.Store.Path != "" {
		var err error
		db, err = repo.Open(ctx, repo.Config{Path: cfg.Store.Path}, logger)
		if err != nil {
			logger.Error("failed to open store", "error", err, "path", cfg.Store.Path)
			os.Exit(1)
		}
		defer repo.Close(db, logger)
		if err := repo.HealthCheck(ctx, db, healthTimeout, logger); err != nil {
			logger.Error("store health check failed", "error", err)
			os.Exit(1)
		}
		trailOpts = append(trailOpts, audit.WithStore(repo.NewAuditRepository(db, logger)))
		jobOpts = append(jobOpts, jobs.WithStore(repo.NewJobRepository(db, logger)))
	} else {
		logger.Info("STORE_PATH not set; jobs and audit events are kept in memory only")
	}

	trail := audit.NewTrail(logger, trailOpts...)
	if err := trail.Restore(ctx); err != nil {
		logger.Error("failed to restore audit trail", "error", err)
		os.Exit(1)
	}

	registry := comps.NewRegistry(append(jobOpts, jobs.WithAudit(trail))...)
	if err := registry.Restore(ctx); err != nil {
		logger.Error("failed to restore jobs", "error", err)
		os.Exit(1)
	}

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	jobsStatus := grpc_health_v1.HealthCheckResponse_SERVING
	if comps.Transcriber == nil {
		jobsStatus = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	healthServer.SetServingStatus(serviceJobs, jobsStatus)

	if len(cfg.Ingest.Roots) > 0 {
		events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:       cfg.Ingest.Roots,
			InitialScan: true,
			Debounce:    cfg.Ingest.Debounce,
		}, logger)
		if err != nil {
			logger.Error("failed to start inbox watcher", "error", err)
			os.Exit(1)
		}
		inbox := ingest.NewService(comps.Extractor, comps.Risk, logger,
			ingest.WithJobs(registry),
			ingest.WithMaxBytes(cfg.Transcription.MaxBytes),
		)
		go inbox.Run(ctx, events, errs)
		healthServer.SetServingStatus(serviceInbox, grpc_health_v1.HealthCheckResponse_SERVING)
	}

	if db != nil {
		go watchStore(ctx, db, healthServer, logger)
	}

	logger.Info("intaked listening", "addr", cfg.Server.GRPCAddr, "inbox_roots", cfg.Ingest.Roots)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	healthServer.Shutdown()

	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	registry.Shutdown(drainCtx)
	grpcServer.GracefulStop()
	logger.Info("stopped")
}

// watchStore flips overall health to NOT_SERVING while the store is unreachable.
func watchStore(ctx context.Context, db *sql.DB, hs *health.Server, logger *slog.Logger) {
	t := time.NewTicker(30 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			status := grpc_health_v1.HealthCheckResponse_SERVING
			if err := repo.HealthCheck(ctx, db, healthTimeout, logger); err != nil {
				status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
			}
			hs.SetServingStatus("", status)
		}
	}
}
