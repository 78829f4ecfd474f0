// Command leadcapture serves the lead registration page and mirrors
// submissions and page views to the configured tracking destinations.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/randalmurphal/leadtrack/internal/server"
	"github.com/randalmurphal/leadtrack/internal/telemetry"
	"github.com/randalmurphal/leadtrack/pkg/leadtrack"
	"github.com/randalmurphal/leadtrack/pkg/leadtrack/config"
	"github.com/randalmurphal/leadtrack/pkg/leadtrack/loader"
	"github.com/randalmurphal/leadtrack/pkg/leadtrack/observability"
)

const serviceName = "leadcapture"

func main() {
	var srvCfg config.Server
	if err := config.ParseEnv(&srvCfg); err != nil {
		config.Exitf("leadcapture: %v", err)
	}

	cfg, err := config.Load(srvCfg.ConfigFile)
	if err != nil {
		config.Exitf("leadcapture: load config: %v", err)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	if cfg.UsesPlaceholders() {
		logger.Warn("tracking uses placeholder destination ids")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, tracing, err := telemetry.Setup(ctx, serviceName, cfg.SiteVersion, srvCfg)
	if err != nil {
		config.Exitf("leadcapture: telemetry: %v", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("flush traces", slog.String("error", err.Error()))
		}
	}()

	metrics := observability.NewMetricsRecorder()
	opts := []leadtrack.Option{
		leadtrack.WithLogger(logger),
		leadtrack.WithMetrics(metrics),
		leadtrack.WithLoader(newLoader(srvCfg, logger, metrics)),
	}
	if tracing {
		opts = append(opts, leadtrack.WithTracing(observability.NewSpanManager()))
	}

	factory := server.NewSessionFactory(cfg, opts...)
	if _, _, err := factory(); err != nil {
		config.Exitf("leadcapture: %v", err)
	}

	sessions := server.NewSessions(factory, server.SessionOptions{
		MaxSessions: srvCfg.MaxSessions,
		TTL:         srvCfg.SessionTTL,
		MaxEvents:   srvCfg.MaxSessionEvents,
		Logger:      logger,
	})

	srv := server.New(sessions, server.Options{
		Addr:         srvCfg.Addr,
		ReadTimeout:  srvCfg.ReadTimeout,
		WriteTimeout: srvCfg.WriteTimeout,
		Logger:       logger,
	})
	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("server exited")
}

func newLoader(cfg config.Server, logger *slog.Logger, metrics observability.MetricsRecorder) loader.Loader {
	switch cfg.LoaderMode {
	case "immediate":
		return loader.Immediate{}
	case "none":
		return loader.Never{}
	default:
		return loader.NewHTTP(
			loader.WithRetry(cfg.LoaderPolicy()),
			loader.WithTimeout(cfg.LoaderTimeout),
			loader.WithAttemptTimeout(cfg.LoaderAttemptTimeout),
			loader.WithLogger(logger),
			loader.WithMetrics(metrics),
		)
	}
}
