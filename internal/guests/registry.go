package guests

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/AlexTLDR/memories/internal/apperrors"
	"github.com/AlexTLDR/memories/internal/ledger"
)

// Registry is the guest collection.
type Registry struct {
	doc *ledger.Document[Guest]
	log zerolog.Logger
	now func() time.Time
}

// NewRegistry wraps the given document.
func NewRegistry(doc *ledger.Document[Guest], log zerolog.Logger) *Registry {
	return &Registry{doc: doc, log: log, now: time.Now}
}

// SetClock overrides the time source.
func (r *Registry) SetClock(now func() time.Time) {
	r.now = now
}

// List returns every guest, or an empty slice for a fresh deployment.
func (r *Registry) List(ctx context.Context) ([]Guest, error) {
	return r.doc.Read(ctx)
}

// Get looks a guest up by exact ID.
func (r *Registry) Get(ctx context.Context, id string) (Guest, error) {
	guests, err := r.doc.Read(ctx)
	if err != nil {
		return Guest{}, err
	}
	for _, g := range guests {
		if g.ID == id {
			return g, nil
		}
	}
	return Guest{}, apperrors.WithMetadata(apperrors.CodeNotFound, "guest not found", map[string]string{"GuestID": id})
}

// UpsertOnLogin records a successful guest login. A guest whose name
// matches case-insensitively gets the new selfie and login time; anyone
// else is appended with zeroed counters. The boolean reports creation.
func (r *Registry) UpsertOnLogin(ctx context.Context, name, selfie string) (Guest, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Guest{}, false, apperrors.Validation("guestName", "guest name is required")
	}
	if selfie == "" {
		return Guest{}, false, apperrors.Validation("selfiePhoto", "selfie is required")
	}

	var (
		result  Guest
		created bool
	)
	_, err := r.doc.Update(ctx, func(guests []Guest) ([]Guest, error) {
		now := r.now().UTC()
		key := NameKey(name)
		for i := range guests {
			if NameKey(guests[i].Name) == key {
				guests[i].SelfiePhoto = selfie
				guests[i].LastLogin = now
				result, created = guests[i], false
				return guests, nil
			}
		}
		result = Guest{
			ID:          newID(guests, now),
			Name:        name,
			SelfiePhoto: selfie,
			JoinedAt:    now,
			LastLogin:   now,
		}
		created = true
		return append(guests, result), nil
	})
	if err != nil {
		return Guest{}, false, err
	}

	r.log.Info().Str("guest_id", result.ID).Bool("created", created).Msg("guest logged in")
	return result, created, nil
}

// IncrementCounter bumps one counter by one. See AddToCounter.
func (r *Registry) IncrementCounter(ctx context.Context, id string, kind Counter) {
	r.AddToCounter(ctx, id, kind, 1)
}

// AddToCounter bumps a counter and the guest's last activity. It is a
// side channel of uploads and wishes: unknown guests are ignored and
// failures are logged, never returned.
func (r *Registry) AddToCounter(ctx context.Context, id string, kind Counter, n int) {
	if id == "" || n <= 0 {
		return
	}
	_, err := r.doc.Update(ctx, func(guests []Guest) ([]Guest, error) {
		for i := range guests {
			if guests[i].ID != id {
				continue
			}
			switch kind {
			case CounterUpload:
				guests[i].UploadsCount += n
			case CounterWish:
				guests[i].WishesCount += n
			default:
				return nil, ledger.ErrSkip
			}
			now := r.now().UTC()
			guests[i].LastActivity = &now
			return guests, nil
		}
		return nil, ledger.ErrSkip
	})
	if err != nil {
		r.log.Warn().Err(err).Str("guest_id", id).Str("counter", string(kind)).Msg("failed to update guest stats")
	}
}

// Delete removes a guest and returns the removed record so the caller can
// cascade to the guest's media.
func (r *Registry) Delete(ctx context.Context, id string) (Guest, error) {
	var removed Guest
	_, err := r.doc.Update(ctx, func(guests []Guest) ([]Guest, error) {
		for i := range guests {
			if guests[i].ID == id {
				removed = guests[i]
				return append(guests[:i:i], guests[i+1:]...), nil
			}
		}
		return nil, apperrors.WithMetadata(apperrors.CodeNotFound, "guest not found", map[string]string{"GuestID": id})
	})
	if err != nil {
		return Guest{}, err
	}
	r.log.Info().Str("guest_id", removed.ID).Str("guest_name", removed.Name).Msg("guest deleted")
	return removed, nil
}

// ReconcileCounts overwrites every guest's upload counter with the count
// derived from the media listing, repairing drift in the denormalized
// value. Guests absent from counts are reset to zero. It returns how many
// guests changed.
func (r *Registry) ReconcileCounts(ctx context.Context, counts map[string]int) (int, error) {
	var changed int
	_, err := r.doc.Update(ctx, func(guests []Guest) ([]Guest, error) {
		changed = 0
		for i := range guests {
			if want := counts[guests[i].ID]; guests[i].UploadsCount != want {
				guests[i].UploadsCount = want
				changed++
			}
		}
		if changed == 0 {
			return nil, ledger.ErrSkip
		}
		return guests, nil
	})
	if err != nil {
		return 0, err
	}
	r.log.Info().Int("changed", changed).Msg("reconciled guest upload counts")
	return changed, nil
}

// newID derives an ID from the login time, stepping forward a millisecond
// at a time until it is unique within the collection.
func newID(guests []Guest, now time.Time) string {
	taken := make(map[string]bool, len(guests))
	for _, g := range guests {
		taken[g.ID] = true
	}
	ms := now.UnixMilli()
	for taken[strconv.FormatInt(ms, 10)] {
		ms++
	}
	return strconv.FormatInt(ms, 10)
}
