// Package wishes stores the guestbook messages left by guests and admins.
package wishes

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/AlexTLDR/memories/internal/apperrors"
	"github.com/AlexTLDR/memories/internal/auth"
	"github.com/AlexTLDR/memories/internal/guests"
	"github.com/AlexTLDR/memories/internal/ledger"
)

// DocumentPath is where the wish list lives in the object store.
const DocumentPath = "wedding-wishes/wishes.json"

// Wish is one guestbook entry.
type Wish struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Message         string    `json:"message"`
	SubmittedBy     string    `json:"submittedBy"`
	SubmittedByID   string    `json:"submittedById"`
	SubmittedByType string    `json:"submittedByType"`
	SubmittedAt     time.Time `json:"submittedAt"`
}

// Counters receives wish counts for guests.
type Counters interface {
	AddToCounter(ctx context.Context, id string, kind guests.Counter, n int)
}

// Ledger is the append-mostly list of wishes in insertion order.
type Ledger struct {
	doc      *ledger.Document[Wish]
	counters Counters
	log      zerolog.Logger
	now      func() time.Time
}

// NewLedger wires the ledger. counters may be nil.
func NewLedger(doc *ledger.Document[Wish], counters Counters, log zerolog.Logger) *Ledger {
	return &Ledger{
		doc:      doc,
		counters: counters,
		log:      log.With().Str("component", "wishes").Logger(),
		now:      time.Now,
	}
}

// SetClock overrides the submission clock.
func (l *Ledger) SetClock(now func() time.Time) {
	l.now = now
}

// List returns every wish in insertion order.
func (l *Ledger) List(ctx context.Context) ([]Wish, error) {
	return l.doc.Read(ctx)
}

// Append adds a wish signed by the caller. Guest wishes also bump the
// author's wish counter.
func (l *Ledger) Append(ctx context.Context, who auth.Identity, name, message string) (Wish, error) {
	name = strings.TrimSpace(name)
	message = strings.TrimSpace(message)
	if name == "" {
		return Wish{}, apperrors.Validation("name", "name is required")
	}
	if message == "" {
		return Wish{}, apperrors.Validation("message", "message is required")
	}

	wish := Wish{
		ID:              uuid.NewString(),
		Name:            name,
		Message:         message,
		SubmittedBy:     who.DisplayName(),
		SubmittedByID:   who.SubjectID(),
		SubmittedByType: who.KindLabel(),
		SubmittedAt:     l.now().UTC(),
	}
	if _, err := l.doc.Update(ctx, func(items []Wish) ([]Wish, error) {
		return append(items, wish), nil
	}); err != nil {
		return Wish{}, err
	}

	l.log.Info().Str("wish_id", wish.ID).Str("by", wish.SubmittedBy).Msg("wish added")
	if who.IsGuest() && l.counters != nil {
		l.counters.AddToCounter(ctx, who.GuestID, guests.CounterWish, 1)
	}
	return wish, nil
}

// Delete removes the wish with the given ID.
func (l *Ledger) Delete(ctx context.Context, id string) (Wish, error) {
	if id == "" {
		return Wish{}, apperrors.Validation("wishId", "wish id is required")
	}
	return l.remove(ctx, func(items []Wish) int {
		for i, w := range items {
			if w.ID == id {
				return i
			}
		}
		return -1
	}, map[string]string{"WishID": id})
}

// DeleteAt removes the wish at a position of the current list. The index
// refers to whatever the list holds when the delete runs, so a concurrent
// append or delete can shift it; prefer Delete.
func (l *Ledger) DeleteAt(ctx context.Context, index int) (Wish, error) {
	return l.remove(ctx, func(items []Wish) int {
		if index < 0 || index >= len(items) {
			return -1
		}
		return index
	}, map[string]string{"Index": strconv.Itoa(index)})
}

func (l *Ledger) remove(ctx context.Context, find func([]Wish) int, meta map[string]string) (Wish, error) {
	var removed Wish
	_, err := l.doc.Update(ctx, func(items []Wish) ([]Wish, error) {
		i := find(items)
		if i < 0 {
			return nil, apperrors.WithMetadata(apperrors.CodeNotFound, "wish not found", meta)
		}
		removed = items[i]
		return append(items[:i], items[i+1:]...), nil
	})
	if err != nil {
		return Wish{}, err
	}
	l.log.Info().Str("wish_id", removed.ID).Msg("wish deleted")
	return removed, nil
}
