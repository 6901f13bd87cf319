// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"bibliotek/internal/config"
	"bibliotek/internal/jsonstore"
	"bibliotek/internal/library"
	"bibliotek/internal/server"
	"bibliotek/internal/telemetry"
)

func main() {
	cfg := config.Load()

	zerolog.TimeFieldFormat = time.RFC3339
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.Env == "dev" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	ctx := context.Background()
	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTLPEndpoint, "bibliotek-api")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up tracing")
	}

	store, err := jsonstore.New(cfg.DataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open data directory")
	}

	if err := library.SeedDefaults(store, log); err != nil {
		log.Fatal().Err(err).Msg("failed to seed default data")
	}

	svc := library.NewService(store, cfg.LockTimeout, log)
	handler := library.NewHandler(svc)
	srv := server.New(cfg, handler, log)

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("library API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	log.Info().Msg("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown")
	}
}
