package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/atelier/internal/config"
	"github.com/atelier/internal/db"
	"github.com/atelier/internal/handler"
	"github.com/atelier/internal/lock"
	"github.com/atelier/internal/router"
	"github.com/atelier/internal/site"
	"github.com/atelier/internal/storage"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	gin.SetMode(cfg.GinMode)
	logger := newLogger(cfg.GinMode)
	slog.SetDefault(logger)

	ctx := context.Background()

	// 初始化数据库
	if err := db.Init(db.Options{Driver: cfg.DatabaseDriver, Path: cfg.DatabasePath, URL: cfg.DatabaseURL}); err != nil {
		fatal(logger, "failed to initialize database", err)
	}
	if err := db.SeedThemeDefaults(db.DB); err != nil {
		fatal(logger, "failed to seed theme defaults", err)
	}
	if err := db.EnsureUser(db.DB, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		fatal(logger, "failed to ensure admin user", err)
	}

	bucket, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		fatal(logger, "failed to initialize object storage", err)
	}

	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.RedisURL != "" {
		client, err := lock.NewRedisClient(ctx, cfg.RedisURL, logger)
		if err != nil {
			fatal(logger, "failed to connect to redis", err)
		}
		defer client.Close()
		locker = lock.NewRedisLocker(client, logger)
	}

	renderer, err := site.NewRenderer(site.Options{
		SiteName:     cfg.SiteName,
		BaseURL:      cfg.SiteBaseURL,
		ImageBaseURL: cfg.ImageBaseURL,
	})
	if err != nil {
		fatal(logger, "failed to parse site templates", err)
	}

	api := handler.NewAPI(handler.Deps{
		DB:                 db.DB,
		Bucket:             bucket,
		Locker:             locker,
		Renderer:           renderer,
		LockTTL:            cfg.PublishLockTTL,
		LoginRatePerMinute: cfg.LoginRatePerMinute,
		Logger:             logger,
	})

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(api, router.Options{
		SessionSecret: cfg.SessionSecret,
		CORSOrigins:   cfg.CORSOrigins,
		SecureCookie:  cfg.GinMode == gin.ReleaseMode,
	})
	logger.Info("server listening", "addr", cfg.ListenAddr, "storage", cfg.Storage.Driver, "database", cfg.DatabaseDriver)
	if err := r.Run(cfg.ListenAddr); err != nil {
		fatal(logger, "failed to run server", err)
	}
}

func newLogger(mode string) *slog.Logger {
	if mode == gin.ReleaseMode {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
