package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"devthon-registration/internal/config"
	"devthon-registration/internal/logger"
	"devthon-registration/internal/metrics"
	"devthon-registration/internal/namelock"
	"devthon-registration/internal/payments"
	"devthon-registration/internal/server"
	"devthon-registration/internal/store/backend"
	"devthon-registration/internal/submission"
	"devthon-registration/internal/tgbot"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	log := logger.New("registration", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw, closeStore, err := backend.New(ctx, cfg, log)
	if err != nil {
		log.Error("store", "backend", cfg.StoreBackend, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	m := metrics.New()
	opts := []submission.Option{submission.WithLogger(log), submission.WithMetrics(m)}

	if cfg.RedisURL != "" {
		rdb, err := namelock.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Error("redis", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		opts = append(opts, submission.WithNameLocker(namelock.NewRedis(rdb, cfg.NameLockTTL)))
	}

	payProvider, err := payments.NewProvider(cfg)
	if err != nil {
		log.Error("payments", "err", err)
		os.Exit(1)
	}

	svc := submission.New(gw, opts...)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.TelegramToken != "" {
		botApp, err := tgbot.New(cfg, svc, payProvider, log)
		if err != nil {
			log.Error("telegram", "err", err)
			os.Exit(1)
		}
		svc.SetNotifier(botApp)
		g.Go(func() error {
			if err := botApp.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("bot stopped: %w", err)
			}
			return nil
		})
	}

	h := server.NewHandler(svc, payProvider, m, log, cfg.StoreTimeout)
	httpSrv := server.New(cfg, h)

	g.Go(func() error {
		log.Info("HTTP listening", "addr", cfg.HTTPAddr, "store", cfg.StoreBackend)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("exit", "err", err)
		closeStore()
		os.Exit(1)
	}
	log.Info("bye")
}
