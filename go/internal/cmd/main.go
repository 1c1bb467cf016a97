package main

import (
	"context"
	"errors"
	"flag"
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
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	configPath := flag.String("config", "", "path to yaml config file")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	config, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, cleanup, err := setupServices(ctx, config)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up services")
	}
	defer cleanup()

	go services.ConnectionManager.Start(ctx)

	srv := setupServer(config, services)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("auction server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
