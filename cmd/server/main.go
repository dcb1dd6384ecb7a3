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

	"github.com/AlexTLDR/memories/internal/app"
	"github.com/AlexTLDR/memories/internal/auth"
	"github.com/AlexTLDR/memories/internal/config"
	"github.com/AlexTLDR/memories/internal/i18n"
	"github.com/AlexTLDR/memories/internal/rsvp"
	"github.com/AlexTLDR/memories/internal/server"
)

func main() {
	// Load .env file (ignore error if a file doesn't exist)
	// Use Overload to force to overwrite any existing environment variables
	envErr := godotenv.Overload()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLog.Fatal().Err(err).Msg("Failed to load config")
	}

	log := app.NewLogger(cfg, os.Stderr)
	if envErr != nil {
		log.Warn().Err(envErr).Msg("Error loading .env file")
	} else {
		log.Info().Msg(".env file loaded successfully (with overload)")
	}
	i18n.SetDefault(cfg.DefaultLang)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := app.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StorageBackend).Msg("Failed to open object store")
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Error().Err(err).Msg("Failed to close object store")
		}
	}()

	svc := app.NewServices(cfg, store, rsvp.DocumentPath, log)

	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.GuestTokenTTL, cfg.AdminTokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create token issuer")
	}
	accounts, err := auth.ParseAccounts(cfg.AdminUsers)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse admin users")
	}

	srv := server.New(server.Deps{
		Config:   cfg,
		Guests:   svc.Guests,
		Media:    svc.Media,
		Wishes:   svc.Wishes,
		RSVPs:    svc.RSVPs,
		Issuer:   issuer,
		Accounts: accounts,
		Logger:   log,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Str("storage", cfg.StorageBackend).
			Int("admins", accounts.Len()).
			Bool("google_oauth", cfg.GoogleOAuthEnabled()).
			Msg("Starting server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
