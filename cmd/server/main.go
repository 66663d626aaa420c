// Command server runs the credit evaluation API: scoring, explanation,
// fairness reports, and the audit query surface.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"miecredit/internal/audit"
	auditmetrics "miecredit/internal/audit/metrics"
	"miecredit/internal/decision"
	decisionmetrics "miecredit/internal/decision/metrics"
	httpapi "miecredit/internal/http"
	"miecredit/internal/platform/config"
	"miecredit/internal/platform/httpserver"
	"miecredit/internal/platform/logger"
	"miecredit/internal/platform/postgres"
	"miecredit/internal/registry"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.Load()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Primary audit store: Postgres when configured, in-memory otherwise.
	var store audit.Store
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Error("audit schema migration failed", "error", err)
			os.Exit(1)
		}
		store = audit.NewPostgresStore(db)
	} else {
		log.Warn("no database configured, audit events are held in memory only")
		store = audit.NewInMemoryStore()
	}

	var sinks []audit.Sink
	if cfg.AuditJSONLPath != "" {
		jsonl, err := audit.NewJSONLSink(cfg.AuditJSONLPath)
		if err != nil {
			log.Error("audit jsonl sink unavailable", "path", cfg.AuditJSONLPath, "error", err)
			os.Exit(1)
		}
		defer jsonl.Close()
		sinks = append(sinks, jsonl)
	}
	if len(cfg.AuditKafkaBrokers) > 0 {
		kafka, err := audit.NewKafkaSink(ctx, cfg.AuditKafkaBrokers, cfg.AuditKafkaTopic)
		if err != nil {
			log.Error("audit kafka sink unavailable", "brokers", cfg.AuditKafkaBrokers, "error", err)
			os.Exit(1)
		}
		defer kafka.Close()
		sinks = append(sinks, kafka)
	}

	recorder := audit.NewRecorder(store, audit.NewRedactorFromConfig(cfg), log, auditmetrics.New(), sinks...)

	// The server still starts when the model fails to load so /health and
	// /v1/models stay reachable; scoring fails until a model is available.
	var pkg *registry.ModelPackage
	loaded, err := registry.LoadApproved(cfg.ModelRegistryDir, cfg.ModelVersion, cfg.RequireApproval())
	if err != nil {
		log.Error("model load failed", "version", cfg.ModelVersion, "error", err)
	} else {
		pkg = loaded
	}

	decisionSvc := decision.NewService(pkg, recorder, decision.Config{
		ApprovalThreshold: cfg.ApprovalThreshold,
		LogRequestBodies:  cfg.AuditLogRequestBodies,
	}, log, decisionmetrics.New())

	router := httpapi.NewRouter(httpapi.Deps{
		Config:   cfg,
		Logger:   log,
		Decision: decisionSvc,
		Recorder: recorder,
	})
	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting server",
			"addr", cfg.Addr,
			"environment", cfg.Environment,
			"model_loaded", pkg != nil,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
