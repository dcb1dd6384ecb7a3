package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AlexTLDR/memories/internal/database"
)

// CollectSnapshot reads every collection concurrently.
func (s *Services) CollectSnapshot(ctx context.Context, now time.Time) (database.Snapshot, error) {
	snap := database.Snapshot{TakenAt: now}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		snap.Guests, err = s.Guests.List(ctx)
		return wrap("guests", err)
	})
	g.Go(func() (err error) {
		snap.Wishes, err = s.Wishes.List(ctx)
		return wrap("wishes", err)
	})
	g.Go(func() (err error) {
		snap.RSVPs, err = s.RSVPs.List(ctx)
		return wrap("rsvps", err)
	})
	g.Go(func() (err error) {
		snap.Media, err = s.Media.ListMedia(ctx)
		return wrap("media", err)
	})

	if err := g.Wait(); err != nil {
		return database.Snapshot{}, err
	}
	return snap, nil
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", what, err)
	}
	return nil
}
