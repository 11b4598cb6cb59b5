package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"mediaapi/docs"
	"mediaapi/internal/config"
	"mediaapi/internal/database"
	"mediaapi/internal/database/migration"
	handlers "mediaapi/internal/http/handler"
	"mediaapi/internal/http/middleware"
	"mediaapi/internal/logger"
	"mediaapi/internal/otel"
	"mediaapi/internal/repository"
	"mediaapi/internal/repository/mongodb"
	"mediaapi/internal/repository/postgres"
	"mediaapi/internal/service"
	"mediaapi/internal/storage"
	"mediaapi/internal/stream"
)

// metadataBackend bundles the chosen metadata store with its probe and teardown.
type metadataBackend struct {
	repo  repository.MediaRepository
	ping  database.PingFunc
	close func(context.Context) error
}

// @title Media API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	log := logger.New(cfg.LogLevel, cfg.Development(), logger.LoadLocation(cfg.LogTimezone))
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.AppConfig, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	meta, err := openMetadata(ctx, cfg, log)
	if err != nil {
		return teardown(err, shutdownTracing)
	}

	store, err := openStore(cfg)
	if err != nil {
		return teardown(err, meta.close, shutdownTracing)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return fmt.Errorf("register http metrics: %w", err)
	}
	mediaMetrics, err := service.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("register media metrics: %w", err)
	}

	mediaSvc := service.NewMediaService(store, meta.repo, service.Options{
		FetchTimeout: time.Duration(cfg.Media.FetchTimeoutSec) * time.Second,
		Stream: stream.Options{
			ChunkSize: cfg.Media.StreamChunkSize,
			Depth:     cfg.Media.StreamDepth,
		},
		Logger:  log.Named("media"),
		Metrics: mediaMetrics,
	})

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(log),
		BodyLimit:             cfg.Media.MaxUploadBytes,
		DisableStartupMessage: !cfg.Development(),
	})

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	app.Use(middleware.Logger(log.Named("access")))
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	handlers.RegisterRoutes(app, meta.ping, mediaSvc, store, middleware.UploadOptions{})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr),
			zap.String("metadata_driver", cfg.MetadataDriver),
			zap.String("storage_driver", cfg.StorageDriver))
		errCh <- app.Listen(addr)
	}()

	select {
	case err = <-errCh:
	case <-ctx.Done():
		log.Info("shutting down")
		err = app.ShutdownWithTimeout(15 * time.Second)
	}

	return teardown(err, meta.close, shutdownTracing)
}

// teardown runs the closers under a fresh deadline and joins their errors with err.
func teardown(err error, closers ...func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, c := range closers {
		err = errors.Join(err, c(ctx))
	}
	return err
}

func openMetadata(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (*metadataBackend, error) {
	switch cfg.MetadataDriver {
	case "mongo":
		client, col, err := database.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		repo := mongodb.NewMediaMongo(col)
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("ensure mongo indexes: %w", err)
		}
		return &metadataBackend{
			repo:  repo,
			ping:  func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close: client.Disconnect,
		}, nil
	case "postgres", "":
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := migration.EnsureMigrated(ctx, db, log.Named("migration"), cfg.Database.Host); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return &metadataBackend{
			repo:  postgres.NewMediaPostgres(db),
			ping:  db.PingContext,
			close: func(context.Context) error { return db.Close() },
		}, nil
	default:
		return nil, fmt.Errorf("unknown METADATA_DRIVER %q", cfg.MetadataDriver)
	}
}

func openStore(cfg *config.AppConfig) (storage.Store, error) {
	switch cfg.StorageDriver {
	case "minio":
		store, err := storage.NewMinIO(cfg.MinIO)
		if err != nil {
			return nil, fmt.Errorf("init object storage: %w", err)
		}
		return store, nil
	case "local", "":
		store, err := storage.NewLocal(cfg.Media.UploadRoot)
		if err != nil {
			return nil, fmt.Errorf("init local storage: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
}
