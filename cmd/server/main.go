package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"threadly/internal/blob"
	"threadly/internal/config"
	"threadly/internal/counter"
	"threadly/internal/db"
	"threadly/internal/identity"
	"threadly/internal/observability"
	"threadly/internal/router"
	"threadly/internal/services"
	"threadly/internal/utils"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.TraceStdout)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	// 初始化数据库
	gdb, err := db.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := db.Migrate(gdb); err != nil {
		return err
	}
	store := db.NewStore(gdb)

	counts, err := counter.Open(counter.Config{Path: cfg.CounterDir, Shards: cfg.CounterShards, Logger: logger})
	if err != nil {
		return err
	}
	defer counts.Close()

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBlobStore(blobs, logger)

	verifier, err := identity.NewJWTVerifier([]byte(cfg.AuthJWTSecret), cfg.AuthJWTIssuer, cfg.AuthJWTAudience)
	if err != nil {
		return err
	}

	imageCache, err := utils.NewTTLCache[string, string](cfg.ImageURLCacheSize, cfg.ImageURLCacheTTL)
	if err != nil {
		return err
	}

	// 初始化异步排名服务
	ranking := services.NewRankingService(store, metrics, logger)
	ranking.Start(ctx)
	defer ranking.Stop()

	enricher := services.NewEnricher(services.EnricherDeps{
		Users:       store,
		Communities: store,
		Images:      blobs,
		ImageCache:  imageCache,
		Metrics:     metrics,
		Logger:      logger,
	})
	users := services.NewUserService(store, counts, metrics, logger)
	posts := services.NewPostService(services.PostServiceDeps{
		Store:    store,
		Enricher: enricher,
		Counter:  counts,
		Ranking:  ranking,
		FoldCase: cfg.CommunityNameCaseInsensitive,
		Metrics:  metrics,
		Logger:   logger,
	})

	r := router.New(router.Deps{
		Communities:            services.NewCommunityService(store, enricher, cfg.CommunityNameCaseInsensitive),
		Posts:                  posts,
		Comments:               services.NewCommentService(store, counts, ranking, metrics, logger),
		Votes:                  services.NewVoteService(store, ranking),
		Users:                  users,
		Blobs:                  blobs,
		Verifier:               verifier,
		Health:                 store,
		Metrics:                metrics,
		Gatherer:               registry,
		Logger:                 logger,
		SessionSecret:          []byte(cfg.SessionSecret),
		BlobAllowedOrigins:     cfg.BlobAllowedOrigins,
		CommunityPostsNotFound: cfg.CommunityPostsNotFound,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("threadly server starting", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newBlobStore(ctx context.Context, cfg config.Config) (blob.Store, error) {
	if cfg.BlobBackend == "gcs" {
		return blob.NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile, cfg.BlobUploadTTL, cfg.BlobDownloadTTL)
	}
	return blob.NewLocalStore(cfg.BlobDir, []byte(cfg.BlobSigningSecret), cfg.BlobPublicBaseURL, cfg.BlobUploadTTL)
}

// closeBlobStore 关闭持有客户端连接的存储（GCS）
func closeBlobStore(store blob.Store, logger *slog.Logger) {
	c, ok := store.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		logger.Warn("close blob store failed", slog.String("error", err.Error()))
	}
}
