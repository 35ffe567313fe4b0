// Command saucebot runs a Telegram bot that answers "where is this
// picture from" by querying SauceNAO.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temryazanov/gonao/internal/config"
	"github.com/temryazanov/gonao/internal/history"
	"github.com/temryazanov/gonao/internal/metrics"
	"github.com/temryazanov/gonao/internal/ratelimit"
	"github.com/temryazanov/gonao/internal/telegram"
	"github.com/temryazanov/gonao/saucenao"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("saucebot exited", zap.Error(err))
	}

	logger.Info("saucebot stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	m := metrics.New()

	client, err := saucenao.New(saucenao.Config{
		APIKey:        cfg.SauceNAO.APIKey,
		BaseURL:       cfg.SauceNAO.BaseURL,
		Timeout:       cfg.SauceNAO.Timeout,
		TestMode:      cfg.SauceNAO.TestMode,
		NumResults:    cfg.SauceNAO.NumResults,
		MinSimilarity: cfg.SauceNAO.MinSimilarity,
		EmptyFilter:   cfg.SauceNAO.EmptyFilter,
	}, logger.Named("saucenao"))
	if err != nil {
		return fmt.Errorf("saucenao client: %w", err)
	}

	var repo *history.Repo
	if cfg.Database.URL != "" {
		db, err := history.New(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer db.Close()

		repo = history.NewRepo(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		logger.Info("search history enabled")
	} else {
		logger.Info("no DATABASE_URL, search history disabled")
	}

	limiter := ratelimit.New(ctx, ratelimit.Config{
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
	})

	bot, err := telegram.New(telegram.BotConfig{
		Token: cfg.Telegram.Token,
		Debug: cfg.Telegram.Debug,
	}, client, repo, limiter, logger.Named("telegram"), m)
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	metricsSrv := &http.Server{
		Addr:    cfg.Metrics.Addr,
		Handler: metrics.Handler(),
	}

	g.Go(func() error {
		logger.Info("metrics server listening", zap.String("addr", cfg.Metrics.Addr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsSrv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return bot.Run(ctx)
	})

	return g.Wait()
}
