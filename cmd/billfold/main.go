package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/billfold/billfold/internal/app"
	"github.com/billfold/billfold/internal/editor"
	"github.com/billfold/billfold/internal/history"
	"github.com/billfold/billfold/internal/pdf"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	// Optional .env for local development; missing file is fine.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	var blob history.BlobStore
	switch cfg.StorageBackend {
	case app.StorageRedis:
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis ping", slog.Any("error", err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		blob = history.NewRedisStore(redisClient, cfg.RedisKey)
	default:
		blob = history.NewFileStore(cfg.StoragePath)
	}

	repo := history.NewRepository(logger, blob, cfg.StorageMaxBytes)
	draft := editor.New(ctx, repo)
	renderer := pdf.NewRenderer(cfg.CurrencySymbol)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		EditorHandler:  editor.NewHandler(logger, draft, repo, renderer, cfg.CurrencySymbol),
		HistoryHandler: history.NewHandler(logger, repo),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("billfold listening", slog.String("addr", cfg.AppAddr), slog.String("storage", cfg.StorageBackend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
