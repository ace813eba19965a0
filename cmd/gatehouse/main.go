package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	"github.com/gatehouse/gatehouse/internal/app"
	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/internal/items"
	"github.com/gatehouse/gatehouse/internal/observability"
	"github.com/gatehouse/gatehouse/internal/platform/cache"
	"github.com/gatehouse/gatehouse/internal/platform/db"
	"github.com/gatehouse/gatehouse/internal/rbac"
	"github.com/gatehouse/gatehouse/internal/session"
	"github.com/gatehouse/gatehouse/jobs"
	"github.com/gatehouse/gatehouse/migrations"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	migrateDB, err := sql.Open("pgx", cfg.PGDSN)
	if err != nil {
		logger.Error("open migration connection", slog.Any("error", err))
		os.Exit(1)
	}
	if err := migrations.Migrate(migrateDB); err != nil {
		logger.Error("run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	_ = migrateDB.Close()

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	sessions := session.NewStore(redisClient, cfg.SessionConfig(), logger)
	sessions.OnCorruptRecord(metrics.IncCorruptSession)

	jobsClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, auth.NewHasher())
	authHandler := auth.NewHandler(logger, authService, sessions, jobsClient, cfg.SessionHeader)

	itemsRepo := items.NewRepository(pool)
	itemsService := items.NewService(itemsRepo)

	rbacMiddleware := rbac.Middleware{Logger: logger}
	itemsHandler := items.NewHandler(logger, itemsService, rbacMiddleware)

	router := app.NewRouter(app.RouterParams{
		Logger:       logger,
		Config:       cfg,
		Sessions:     sessions,
		AuthHandler:  authHandler,
		ItemsHandler: itemsHandler,
		RBAC:         rbacMiddleware,
		Metrics:      metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
