package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bluelinehq/chel-archive/internal/app"
	"github.com/bluelinehq/chel-archive/internal/config"
	"github.com/bluelinehq/chel-archive/internal/interfaces/httpapi"
	"github.com/bluelinehq/chel-archive/internal/observability"
	"github.com/bluelinehq/chel-archive/internal/platform/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	shutdownUptrace, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		os.Exit(1)
	}

	stopPyroscope, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		logger.Error("init pyroscope", "error", err)
		os.Exit(1)
	}

	pprofSrv, err := observability.StartPprofServer(cfg, logger)
	if err != nil {
		logger.Error("start pprof server", "error", err)
		os.Exit(1)
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		os.Exit(1)
	}

	restoreCtx, cancelRestore := context.WithTimeout(context.Background(), 30*time.Second)
	if err := application.Scheduler.Restore(restoreCtx); err != nil {
		cancelRestore()
		logger.Error("restore scheduler workers", "error", err)
		os.Exit(1)
	}
	cancelRestore()

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(application.Handler, logger, cfg.CORSAllowedOrigins, cfg.AdminToken),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Info("http server starting", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", "error", err)
	}

	schedulerCtx, cancelScheduler := context.WithTimeout(context.Background(), cfg.SchedulerShutdownGrace+5*time.Second)
	defer cancelScheduler()
	if err := application.Scheduler.Shutdown(schedulerCtx); err != nil {
		logger.Error("scheduler shutdown failed", "error", err)
	}

	if err := application.Close(); err != nil {
		logger.Error("close database", "error", err)
	}

	if err := observability.StopPprofServer(pprofSrv, logger, 5*time.Second); err != nil {
		logger.Error("stop pprof server", "error", err)
	}
	if err := stopPyroscope(); err != nil {
		logger.Error("stop pyroscope", "error", err)
	}

	uptraceCtx, cancelUptrace := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelUptrace()
	if err := shutdownUptrace(uptraceCtx); err != nil {
		logger.Error("shutdown uptrace", "error", err)
	}

	logger.Info("service stopped")
}
