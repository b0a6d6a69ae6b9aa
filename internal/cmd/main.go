package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if getEnv("LOG_PRETTY", "") != "" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config, err := loadConfig(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	pool, err := setupDatabase(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("database unavailable, falling back to in-memory store")
		pool = nil
	}
	if pool != nil {
		defer pool.Close()
	}

	services, err := setupServices(config, pool)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to wire services")
	}
	defer services.Publisher.Close()

	go services.Gateway.Start(ctx)

	if services.IsOwner {
		if err := services.Owner.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to start session clock")
		}
		go func() {
			if err := services.Owner.Run(ctx); err != nil {
				log.Error().Err(err).Msg("session clock stopped")
			}
		}()
	}

	go func() {
		if err := services.Reconciler.Run(ctx); err != nil {
			log.Error().Err(err).Msg("reconcile loop stopped")
		}
	}()

	server := setupServer(services)
	go func() {
		log.Info().Str("addr", server.Addr).Bool("owner", services.IsOwner).Msg("gateway listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("gateway server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("gateway shutdown failed")
	}
}
