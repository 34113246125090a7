package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/salessite/internal/auth"
	"github.com/salessite/internal/cache"
	"github.com/salessite/internal/config"
	"github.com/salessite/internal/db"
	"github.com/salessite/internal/handler"
	"github.com/salessite/internal/logging"
	"github.com/salessite/internal/router"
	"github.com/salessite/internal/service"
	"github.com/salessite/internal/storage"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	gin.SetMode(cfg.GinMode)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 初始化数据库
	gdb, err := db.Open(cfg.DatabaseDriver, cfg.DatabaseURL, db.WithLogger(logger))
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	if cfg.AdminEmail != "" {
		created, err := db.EnsureUser(gdb, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			logger.Fatal("failed to seed admin", zap.Error(err))
		}
		if created {
			logger.Info("admin account created", zap.String("email", cfg.AdminEmail))
		}
	}

	store := buildCache(ctx, cfg, logger)
	objects := buildObjectStore(ctx, cfg, logger)

	provider := auth.NewProvider(gdb, cfg.AuthSecret, cfg.SessionTTL)
	if !provider.Configured() {
		logger.Warn("AUTH_SECRET is empty, editor routes will answer 503")
	}

	api := handler.NewAPI(handler.Deps{
		DB:               gdb,
		Content:          service.NewContentService(gdb, store, logger),
		Collections:      service.NewCollections(gdb, store, logger),
		Uploads:          service.NewUploadService(objects, cfg.MaxUploadBytes),
		Suggest:          service.NewSuggestService(cfg.AI, logger),
		Auth:             provider,
		Cache:            store,
		Logger:           logger,
		RevalidateSecret: cfg.RevalidateSecret,
	})

	routerOpts := router.Options{
		SessionSecret: cfg.SessionSecret,
		SessionMaxAge: int(cfg.SessionTTL / time.Second),
		Logger:        logger,
	}
	if !cfg.Storage.UsesMinio() {
		routerOpts.UploadDir = cfg.Storage.UploadDir
		routerOpts.UploadURLPath = cfg.Storage.UploadURLPath
	}

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router.SetupRouter(api, routerOpts),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// buildCache 优先使用 Redis；未配置或连接失败时退回进程内缓存。
func buildCache(ctx context.Context, cfg config.AppConfig, logger *zap.Logger) cache.Store {
	if cfg.RedisURL == "" {
		logger.Info("using in-memory page cache")
		return cache.NewMemoryStore(cfg.CacheTTL)
	}

	redisStore, err := cache.NewRedisStore(cfg.RedisURL, cfg.CacheTTL)
	if err != nil {
		logger.Warn("redis unavailable, using in-memory page cache", zap.Error(err))
		return cache.NewMemoryStore(cfg.CacheTTL)
	}
	logger.Info("using redis page cache")

	go redisStore.WatchInvalidations(ctx, func(message string) {
		logger.Debug("site cache invalidated", zap.String("message", message))
	})
	return redisStore
}

// buildObjectStore 在存储不可用时返回 nil，上传接口回 503 而不是启动失败。
func buildObjectStore(ctx context.Context, cfg config.AppConfig, logger *zap.Logger) storage.ObjectStore {
	if !cfg.Storage.UsesMinio() {
		if err := os.MkdirAll(cfg.Storage.UploadDir, 0o755); err != nil {
			logger.Warn("upload directory unavailable", zap.String("dir", cfg.Storage.UploadDir), zap.Error(err))
			return nil
		}
		return storage.NewLocalStore(cfg.Storage.UploadDir, cfg.Storage.UploadURLPath)
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	minioStore, err := storage.NewMinioStore(connectCtx, storage.MinioOptions{
		Endpoint:  cfg.Storage.MinioEndpoint,
		AccessKey: cfg.Storage.MinioAccessKey,
		SecretKey: cfg.Storage.MinioSecretKey,
		Bucket:    cfg.Storage.MinioBucket,
		UseSSL:    cfg.Storage.MinioUseSSL,
		PublicURL: cfg.Storage.MinioPublicURL,
	})
	if err != nil {
		logger.Warn("image bucket unavailable, uploads disabled", zap.Error(err))
		return nil
	}
	return minioStore
}
