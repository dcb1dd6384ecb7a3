// Package app assembles the services shared by the binaries.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/AlexTLDR/memories/internal/config"
	"github.com/AlexTLDR/memories/internal/guests"
	"github.com/AlexTLDR/memories/internal/ledger"
	"github.com/AlexTLDR/memories/internal/media"
	"github.com/AlexTLDR/memories/internal/objectstore"
	"github.com/AlexTLDR/memories/internal/rsvp"
	"github.com/AlexTLDR/memories/internal/wishes"
)

// NewLogger builds the root logger from LOG_LEVEL and LOG_FORMAT.
func NewLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}
	if strings.EqualFold(cfg.LogFormat, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// OpenStore returns the configured object store wrapped with retries, and
// a function releasing it.
func OpenStore(ctx context.Context, cfg *config.Config) (objectstore.Store, func() error, error) {
	var (
		store objectstore.Store
		done  = func() error { return nil }
	)

	switch cfg.StorageBackend {
	case config.StorageGCS:
		creds, err := cfg.GCSCredentialsJSON()
		if err != nil {
			return nil, nil, err
		}
		gcs, err := objectstore.NewGCS(ctx, objectstore.GCSConfig{
			Bucket:          cfg.Bucket,
			ProjectID:       cfg.GCSProjectID,
			CredentialsJSON: creds,
		})
		if err != nil {
			return nil, nil, err
		}
		store, done = gcs, gcs.Close
	case config.StorageDisk:
		disk, err := objectstore.NewDisk(cfg.StorageDir, cfg.BaseURL)
		if err != nil {
			return nil, nil, err
		}
		store = disk
	case config.StorageMemory:
		store = objectstore.NewMemory(cfg.BaseURL)
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	return objectstore.WithRetry(store, objectstore.RetryConfig{
		Retries: cfg.StorageRetries,
		Timeout: cfg.StorageTimeout,
	}), done, nil
}

// Services are the domain collaborators behind the HTTP layer.
type Services struct {
	Store  objectstore.Store
	Guests *guests.Registry
	Media  *media.Service
	Wishes *wishes.Ledger
	RSVPs  *rsvp.Ledger
}

// NewServices wires the ledgers and the media service over store. The RSVP
// ledger lives in a local file at rsvpPath.
func NewServices(cfg *config.Config, store objectstore.Store, rsvpPath string, log zerolog.Logger) *Services {
	guestDoc := ledger.New[guests.Guest](ledger.ObjectBackend(store, guests.DocumentPath), log)
	registry := guests.NewRegistry(guestDoc, log.With().Str("component", "guests").Logger())

	wishDoc := ledger.New[wishes.Wish](ledger.ObjectBackend(store, wishes.DocumentPath), log)
	rsvpDoc := ledger.New[rsvp.Record](ledger.FileBackend(rsvpPath), log)

	return &Services{
		Store:  store,
		Guests: registry,
		Media: media.NewService(store, registry, media.Config{
			MaxImageBytes: cfg.MaxImageBytes,
			MaxVideoBytes: cfg.MaxVideoBytes,
			SignedURLTTL:  cfg.SignedURLTTL,
		}, log),
		Wishes: wishes.NewLedger(wishDoc, registry, log),
		RSVPs: rsvp.NewLedger(rsvpDoc, rsvp.Options{
			PhoneRegion: cfg.PhoneRegion,
			Deadline:    cfg.RSVPDeadline,
		}, log),
	}
}
