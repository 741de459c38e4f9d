package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"guardhouse/internal/platform/config"
	"guardhouse/internal/platform/httpserver"
	"guardhouse/internal/platform/logger"
)

const serviceName = "guardhouse"

func main() {
	cfg := config.FromEnv()
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := newApp(ctx, cfg, log, reg)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := httpserver.New(cfg.Server.Addr, a.router, cfg.Server.RequestTimeout, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting guardhouse", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return a.worker.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", zap.Error(err))
		}
		if err := a.dispatcher.Close(shutdownCtx); err != nil {
			log.Warn("pending deliveries abandoned", zap.Error(err))
		}
		return nil
	})
	return g.Wait()
}
