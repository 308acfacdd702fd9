package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lekhapadi/lekhapadi-backend/api/routes"
	"github.com/lekhapadi/lekhapadi-backend/internal/artifacts"
	"github.com/lekhapadi/lekhapadi-backend/internal/conversion"
	"github.com/lekhapadi/lekhapadi-backend/internal/documents"
	"github.com/lekhapadi/lekhapadi-backend/internal/enhance"
	"github.com/lekhapadi/lekhapadi-backend/internal/notify"
	"github.com/lekhapadi/lekhapadi-backend/internal/render"
	"github.com/lekhapadi/lekhapadi-backend/pkg/config"
	"github.com/lekhapadi/lekhapadi-backend/pkg/db"
	"github.com/lekhapadi/lekhapadi-backend/pkg/logger"
	"github.com/lekhapadi/lekhapadi-backend/pkg/metrics"
	"github.com/lekhapadi/lekhapadi-backend/pkg/migrate"
	"github.com/lekhapadi/lekhapadi-backend/pkg/outbox"
	"github.com/lekhapadi/lekhapadi-backend/pkg/redis"
	"github.com/lekhapadi/lekhapadi-backend/pkg/sendgrid"
	"github.com/lekhapadi/lekhapadi-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap gcs", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing gcs client", err)
		}
	}()

	store, err := artifacts.NewGCSStore(gcsClient, gcsClient.DefaultBucket(), cfg.Documents.MaxUploadBytes*4)
	if err != nil {
		logg.Error(context.Background(), "failed to create artifact store", err)
		os.Exit(1)
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	pipelineMetrics := metrics.NewPipelineMetrics(promRegistry)

	engine, err := conversion.NewEngine(cfg.Conversion)
	if err != nil {
		logg.Error(context.Background(), "failed to create conversion engine", err)
		os.Exit(1)
	}
	pipeline := conversion.NewPipeline(engine, cfg.Conversion.Timeout, conversion.LayoutFromConfig(cfg.Signature), pipelineMetrics, logg)

	renderOpts := []render.Option{}
	if cfg.Enhancer.Enabled {
		gemini, err := enhance.NewGemini(context.Background(), cfg.Enhancer)
		if err != nil {
			logg.Error(context.Background(), "failed to create text enhancer", err)
			os.Exit(1)
		}
		renderOpts = append(renderOpts, render.WithEnhancer(gemini, logg))
	}

	var notifier notify.Notifier = notify.NewLogNotifier(logg, cfg.App.PublicURL)
	if cfg.Sendgrid.Enabled() {
		mailer, err := sendgrid.NewClient(cfg.Sendgrid)
		if err != nil {
			logg.Error(context.Background(), "failed to create sendgrid client", err)
			os.Exit(1)
		}
		notifier = notify.NewEmailNotifier(mailer, cfg.App.PublicURL)
	} else {
		logg.Warn(context.Background(), "sendgrid disabled, signature requests are only logged")
	}

	documentsService, err := documents.NewService(documents.Deps{
		Repo:     documents.NewRepository(dbClient.DB()),
		Tx:       dbClient,
		Outbox:   outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		Store:    store,
		Renderer: render.New(renderOpts...),
		Signer:   pipeline,
		Notifier: notifier,
		Metrics:  pipelineMetrics,
		Logger:   logg,
	}, documents.Options{
		MaxUploadBytes:   cfg.Documents.MaxUploadBytes,
		DefaultListLimit: cfg.Documents.DefaultListLimit,
		MaxListLimit:     cfg.Documents.MaxListLimit,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create documents service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":               cfg.App.Env,
		"addr":              addr,
		"conversion_engine": engine.Name(),
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			gcsClient,
			promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}),
			documentsService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
	}()

	logg.Info(ctx, "starting api server")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shutting down gracefully")
}
