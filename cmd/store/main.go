package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/getsentry/sentry-go"
	_ "github.com/lib/pq"

	"github.com/coinwatch-bot/coinwatch/internal/database"
	apperrors "github.com/coinwatch-bot/coinwatch/internal/errors"
	"github.com/coinwatch-bot/coinwatch/internal/favorites"
	"github.com/coinwatch-bot/coinwatch/internal/health"
	"github.com/coinwatch-bot/coinwatch/internal/lifecycle"
	"github.com/coinwatch-bot/coinwatch/internal/notification"
	"github.com/coinwatch-bot/coinwatch/internal/reference"
	"github.com/coinwatch-bot/coinwatch/internal/repository"
	"github.com/coinwatch-bot/coinwatch/internal/server"
	"github.com/coinwatch-bot/coinwatch/internal/settings"
	"github.com/coinwatch-bot/coinwatch/internal/user"
	"github.com/coinwatch-bot/coinwatch/internal/usercache"
	"github.com/coinwatch-bot/coinwatch/pkg/config"
	"github.com/coinwatch-bot/coinwatch/pkg/graceful"
	"github.com/coinwatch-bot/coinwatch/pkg/logger"
	appredis "github.com/coinwatch-bot/coinwatch/pkg/redis"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		return 1
	}

	log := logger.New(cfg.Logger)
	log.Info("starting coinwatch store",
		slog.String("env", cfg.AppEnv),
		slog.String("http_port", cfg.HTTP.Port),
		slog.String("log_level", cfg.Logger.Level),
	)

	config.Watch(v, func(event fsnotify.Event, fresh *config.Config) {
		if fresh == nil {
			log.Warn("ignoring invalid config change", slog.String("file", event.Name))
			return
		}

		log.SetLevel(fresh.Logger.Level)
		log.Info("config reloaded", slog.String("file", event.Name), slog.String("log_level", fresh.Logger.Level))
	})

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.AppEnv,
		}); err != nil {
			log.Error("failed to init sentry", slog.Any("error", err))
			return 1
		}
		defer sentry.Flush(2 * time.Second)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Error("failed to open database", slog.Any("error", err))
		return 1
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Error("error closing database", slog.Any("error", cerr))
		}
	}()

	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to ping database", slog.Any("error", err))
		return 1
	}

	migrator := database.NewMigrator(db, log.Logger)
	if err := migrator.ApplyDir(ctx, cfg.Database.MigrationsDir); err != nil {
		log.Error("failed to apply migrations", slog.Any("error", err))
		return 1
	}
	log.Info("database migrations applied")

	shutdown := lifecycle.NewShutdown(log.Logger)
	checker := health.NewChecker(log.Logger)
	checker.AddCheck("database", health.NewDBChecker(db))

	var profileCache user.ProfileCache
	if cfg.Redis.Enabled {
		redisClient, err := appredis.New(ctx, cfg.Redis)
		if err != nil {
			log.Error("failed to connect to redis", slog.Any("error", err))
			return 1
		}

		profileCache = usercache.NewCache(redisClient.Client, cfg.Redis.UserCacheTTL)
		checker.AddCheck("redis", health.NewRedisChecker(redisClient.Client))
		shutdown.Register("redis", func(context.Context) error {
			return redisClient.Close()
		})
	}

	userRepo := repository.NewUserRepository(db, log.Logger)
	favoritesRepo := repository.NewFavoritesRepository(db, log.Logger)
	notificationRepo := repository.NewNotificationRepository(db, log.Logger)
	settingsRepo := repository.NewSettingsRepository(db, log.Logger)
	referenceRepo := repository.NewReferenceRepository(db, log.Logger)

	settingsSvc := settings.NewService(settingsRepo, log.Logger)
	userSvc := user.NewService(userRepo, settingsSvc, profileCache, log.Logger)
	favoritesSvc := favorites.NewService(favoritesRepo, log.Logger)
	notificationSvc := notification.NewService(notificationRepo, log.Logger)
	referenceSvc := reference.NewService(referenceRepo, log.Logger)

	errHandler := apperrors.NewHandler(log.Logger, cfg.Sentry.Enabled)
	httpHandler := server.NewHandler(checker, server.Services{
		Users:         userSvc,
		Favorites:     favoritesSvc,
		Notifications: notificationSvc,
		Reference:     referenceSvc,
		Settings:      settingsSvc,
	}, errHandler, log.Logger)

	srv := graceful.NewServer(log.Logger, &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           httpHandler.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}, cfg.HTTP.ShutdownTimeout)

	if err := srv.ListenAndServe(ctx); err != nil {
		log.Error("http server stopped with error", slog.Any("error", err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := shutdown.Execute(shutdownCtx); err != nil {
		log.Error("shutdown finished with errors", slog.Any("error", err))
		return 1
	}

	log.Info("coinwatch store stopped")
	return 0
}
