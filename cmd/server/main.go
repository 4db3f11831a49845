package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"rideprice/internal/app"
	"rideprice/internal/collect"
	"rideprice/internal/config"
	"rideprice/internal/logging"
	"rideprice/internal/metrics"
)

func main() {
	// Config
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Pretty)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clients, err := app.Clients(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("providers")
	}
	sink, closeSink, err := app.OpenSink(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("price store")
	}
	defer closeSink()

	reg := metrics.NewRegistry()
	collector := collect.New(
		collect.WithClients(clients...),
		collect.WithNormalizer(app.Normalizer(cfg)),
		collect.WithSink(sink),
		collect.WithMetrics(reg),
		collect.WithLogger(logger),
	)

	s := &server{
		collector: collector,
		log:       logger,
		timeout:   time.Duration(cfg.Server.RequestTimeoutSec) * time.Second,
	}
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           s.routes(reg),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      s.timeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Server.Port).Interface("providers", collector.Providers()).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server")
		}
	}()

	// graceful shutdown
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("shutdown")
	}
}
