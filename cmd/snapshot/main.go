// Command snapshot copies guests, wishes, RSVPs and the media index into
// the SQL database named by DATABASE_URL.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/AlexTLDR/memories/internal/app"
	"github.com/AlexTLDR/memories/internal/config"
	"github.com/AlexTLDR/memories/internal/database"
	"github.com/AlexTLDR/memories/internal/rsvp"
)

func main() {
	_ = godotenv.Overload()

	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLog.Fatal().Err(err).Msg("Failed to load config")
	}
	log := app.NewLogger(cfg, os.Stderr).With().Str("component", "snapshot").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := app.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open object store")
	}
	defer func() { _ = closeStore() }()

	svc := app.NewServices(cfg, store, rsvp.DocumentPath, zerolog.Nop())

	snap, err := svc.CollectSnapshot(ctx, time.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to collect snapshot")
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func(db *database.DB) {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}(db)

	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	run, err := db.SaveSnapshot(ctx, snap)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to save snapshot")
	}

	log.Info().
		Str("run_id", run.ID).
		Str("dialect", db.Dialect()).
		Int("guests", run.Guests).
		Int("wishes", run.Wishes).
		Int("rsvps", run.RSVPs).
		Int("media", run.Media).
		Msg("Snapshot saved")
}
