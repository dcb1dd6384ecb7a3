// Package guests maintains the guest registry: one profile per
// case-insensitive display name, with denormalized upload and wish
// counters.
package guests

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// DocumentPath is where the registry lives in the object store.
const DocumentPath = "wedding-guests/guests.json"

// Guest is a persisted guest profile.
type Guest struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	SelfiePhoto  string     `json:"selfiePhoto"`
	JoinedAt     time.Time  `json:"joinedAt"`
	LastLogin    time.Time  `json:"lastLogin"`
	LastActivity *time.Time `json:"lastActivity,omitempty"`
	UploadsCount int        `json:"uploadsCount"`
	WishesCount  int        `json:"wishesCount"`
}

// PublicGuest is the view other guests may see.
type PublicGuest struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	SelfiePhoto  string    `json:"selfiePhoto"`
	JoinedAt     time.Time `json:"joinedAt"`
	UploadsCount int       `json:"uploadsCount"`
	WishesCount  int       `json:"wishesCount"`
	LastActivity time.Time `json:"lastActivity"`
}

// Public strips the profile down to what the guest list shows.
func (g Guest) Public() PublicGuest {
	activity := g.LastLogin
	if g.LastActivity != nil {
		activity = *g.LastActivity
	}
	return PublicGuest{
		ID:           g.ID,
		Name:         g.Name,
		SelfiePhoto:  g.SelfiePhoto,
		JoinedAt:     g.JoinedAt,
		UploadsCount: g.UploadsCount,
		WishesCount:  g.WishesCount,
		LastActivity: activity,
	}
}

// Counter selects which denormalized counter to bump.
type Counter string

const (
	CounterUpload Counter = "upload"
	CounterWish   Counter = "wish"
)

// NameKey folds a display name for case-insensitive comparison.
func NameKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}
