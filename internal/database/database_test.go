package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexTLDR/memories/internal/guests"
	"github.com/AlexTLDR/memories/internal/media"
	"github.com/AlexTLDR/memories/internal/objectstore"
	"github.com/AlexTLDR/memories/internal/rsvp"
	"github.com/AlexTLDR/memories/internal/wishes"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "snapshot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func TestDriverFor(t *testing.T) {
	tests := []struct {
		url        string
		wantDriver string
		wantDSN    string
	}{
		{"postgres://u:p@localhost/memories?sslmode=disable", "postgres", "postgres://u:p@localhost/memories?sslmode=disable"},
		{"postgresql://localhost/memories", "postgres", "postgresql://localhost/memories"},
		{"sqlite://data/memories.db", "sqlite3", "data/memories.db"},
		{"memories.db", "sqlite3", "memories.db"},
	}
	for _, tt := range tests {
		driver, dsn := driverFor(tt.url)
		assert.Equal(t, tt.wantDriver, driver, tt.url)
		assert.Equal(t, tt.wantDSN, dsn, tt.url)
	}
}

func TestRebind(t *testing.T) {
	pg := &DB{dialect: "postgres"}
	lite := &DB{dialect: "sqlite3"}
	query := "INSERT INTO t (a, b) VALUES (?, ?)"

	assert.Equal(t, "INSERT INTO t (a, b) VALUES ($1, $2)", pg.rebind(query))
	assert.Equal(t, query, lite.rebind(query))
}

func TestSaveSnapshotReplacesPreviousRun(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	now := time.Date(2026, 4, 20, 10, 0, 0, 0, time.UTC)

	first := Snapshot{
		TakenAt: now,
		Guests: []guests.Guest{
			{ID: "1", Name: "Amy", JoinedAt: now, LastLogin: now, UploadsCount: 2},
			{ID: "2", Name: "Bob", JoinedAt: now, LastLogin: now, LastActivity: &now},
		},
		Wishes: []wishes.Wish{{ID: "w1", Name: "Amy", Message: "Congrats", SubmittedAt: now}},
		RSVPs: []rsvp.Record{
			{ID: "r1", GuestName: "Amy", RSVPStatus: rsvp.StatusYes, AdditionalGuests: []string{"Rory"}, SubmittedAt: now},
		},
		Media: []objectstore.Object{
			{Name: "1-a-x.jpg", ContentType: "image/jpeg", Size: 10, Created: now,
				Metadata: map[string]string{media.MetaUploadedBy: "Amy", media.MetaUploadedByID: "1"}},
		},
	}
	run, err := db.SaveSnapshot(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 2, run.Guests)

	second := Snapshot{
		TakenAt: now.Add(time.Hour),
		Guests:  first.Guests[:1],
	}
	_, err = db.SaveSnapshot(ctx, second)
	require.NoError(t, err)

	for table, want := range map[string]int{"guests": 1, "wishes": 0, "rsvps": 0, "media": 0, "snapshot_runs": 2} {
		n, err := db.CountRows(ctx, table)
		require.NoError(t, err)
		assert.Equal(t, want, n, table)
	}

	latest, err := db.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, latest.Guests)
	assert.Equal(t, 0, latest.Media)
}

func TestSaveSnapshotStoresUploaderLabel(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	now := time.Now().UTC()

	_, err := db.SaveSnapshot(ctx, Snapshot{
		TakenAt: now,
		Media:   []objectstore.Object{{Name: "1700000000000-abc123-Amy_Pond.jpg", ContentType: "image/jpeg", Created: now}},
	})
	require.NoError(t, err)

	var label string
	require.NoError(t, db.QueryRowContext(ctx, "SELECT uploaded_by FROM media").Scan(&label))
	assert.Equal(t, "Amy Pond", label)
}

func TestCountRowsRejectsUnknownTable(t *testing.T) {
	db := newTestDB(t)

	_, err := db.CountRows(context.Background(), "users; DROP TABLE guests")

	assert.Error(t, err)
}
