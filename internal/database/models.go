package database

import (
	"time"

	"github.com/AlexTLDR/memories/internal/guests"
	"github.com/AlexTLDR/memories/internal/objectstore"
	"github.com/AlexTLDR/memories/internal/rsvp"
	"github.com/AlexTLDR/memories/internal/wishes"
)

// Snapshot is a point-in-time copy of every collection.
type Snapshot struct {
	TakenAt time.Time
	Guests  []guests.Guest
	Wishes  []wishes.Wish
	RSVPs   []rsvp.Record
	Media   []objectstore.Object
}

// Run records one stored snapshot.
type Run struct {
	ID      string
	TakenAt time.Time
	Guests  int
	Wishes  int
	RSVPs   int
	Media   int
}
