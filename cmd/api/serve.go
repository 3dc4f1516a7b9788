package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/abduss/linkbucket/internal/auth"
	"github.com/abduss/linkbucket/internal/bucket"
	"github.com/abduss/linkbucket/internal/config"
	"github.com/abduss/linkbucket/internal/export"
	"github.com/abduss/linkbucket/internal/link"
	"github.com/abduss/linkbucket/internal/server"
	"github.com/abduss/linkbucket/internal/session"
	"github.com/abduss/linkbucket/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply pending migrations before serving")
}

func runServe(parent context.Context) error {
	log := zap.L()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer dbPool.Close()

	if migrateOnStart {
		if err := storage.Migrate(ctx, dbPool, log); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	redisClient, err := storage.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()

	minioClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		return fmt.Errorf("connect minio: %w", err)
	}
	if err := storage.EnsureExportBucket(ctx, minioClient, cfg.MinIO.Bucket, cfg.MinIO.Region, cfg.Export.RetentionDays); err != nil {
		return fmt.Errorf("ensure export bucket: %w", err)
	}

	sessions := session.NewStore(redisClient, cfg.Session.KeyPrefix, cfg.Session.TTL)
	authService := auth.NewService(auth.NewRepository(dbPool), cfg.Auth, sessions)

	linkService := link.NewService(link.NewRepository(dbPool), log.Named("link"))
	bucketService := bucket.NewService(bucket.NewRepository(dbPool), linkService, authService, cfg.Buckets, log.Named("bucket"))
	exportService := export.NewService(bucketService, export.NewMinIOStore(minioClient), cfg.MinIO.Bucket, cfg.Export.URLTTL, log.Named("export"))

	router := server.NewRouter(server.Dependencies{
		Config: cfg,
		HealthChecks: []server.HealthCheck{
			server.PostgresCheck(dbPool),
			server.RedisCheck(redisClient),
			server.MinIOCheck(minioClient, cfg.MinIO.Bucket),
		},
		AuthService:   authService,
		BucketService: bucketService,
		LinkService:   linkService,
		ExportService: exportService,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("LinkBucket API listening", zap.String("addr", cfg.Server.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
