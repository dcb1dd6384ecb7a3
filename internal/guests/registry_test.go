package guests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexTLDR/memories/internal/apperrors"
	"github.com/AlexTLDR/memories/internal/ledger"
	"github.com/AlexTLDR/memories/internal/objectstore"
)

func newTestRegistry(t *testing.T) (*Registry, *objectstore.Memory) {
	t.Helper()
	store := objectstore.NewMemory("")
	doc := ledger.New[Guest](ledger.ObjectBackend(store, DocumentPath), zerolog.Nop())
	reg := NewRegistry(doc, zerolog.Nop())
	clock := time.Date(2025, 6, 14, 18, 0, 0, 0, time.UTC)
	reg.SetClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})
	return reg, store
}

func TestUpsertOnLoginDeduplicatesCaseInsensitively(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(t)

	tests := []struct {
		first  string
		second string
	}{
		{"Amy", "amy"},
		{"JOHN SMITH", "john smith"},
		{"  Ana-Maria ", "ana-maria"},
	}
	for _, tt := range tests {
		t.Run(tt.first, func(t *testing.T) {
			first, created, err := reg.UpsertOnLogin(ctx, tt.first, "data:image/png;base64,AAA")
			require.NoError(t, err)
			assert.True(t, created)

			second, created, err := reg.UpsertOnLogin(ctx, tt.second, "data:image/png;base64,BBB")
			require.NoError(t, err)
			assert.False(t, created)
			assert.Equal(t, first.ID, second.ID)
			assert.Equal(t, "data:image/png;base64,BBB", second.SelfiePhoto)
			assert.True(t, second.LastLogin.After(first.LastLogin))
		})
	}

	guests, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Len(t, guests, len(tests))
}

func TestUpsertOnLoginStartsWithZeroCounters(t *testing.T) {
	reg, _ := newTestRegistry(t)

	g, created, err := reg.UpsertOnLogin(context.Background(), "Amy", "selfie")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, g.ID)
	assert.Zero(t, g.UploadsCount)
	assert.Zero(t, g.WishesCount)
	assert.Equal(t, g.JoinedAt, g.LastLogin)
}

func TestUpsertOnLoginValidates(t *testing.T) {
	reg, _ := newTestRegistry(t)

	_, _, err := reg.UpsertOnLogin(context.Background(), "  ", "selfie")
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	_, _, err = reg.UpsertOnLogin(context.Background(), "Amy", "")
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestNewIDIsUniqueWithinSameMillisecond(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	existing := []Guest{{ID: "1700000000000"}, {ID: "1700000000001"}}
	assert.Equal(t, "1700000000002", newID(existing, now))
}

func TestIncrementCounterScenario(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(t)
	_, err := reg.doc.Update(ctx, func([]Guest) ([]Guest, error) {
		return []Guest{{ID: "1", Name: "Amy", UploadsCount: 2}}, nil
	})
	require.NoError(t, err)

	reg.IncrementCounter(ctx, "1", CounterUpload)

	guests, err := reg.List(ctx)
	require.NoError(t, err)
	require.Len(t, guests, 1)
	assert.Equal(t, "1", guests[0].ID)
	assert.Equal(t, "Amy", guests[0].Name)
	assert.Equal(t, 3, guests[0].UploadsCount)
	assert.Zero(t, guests[0].WishesCount)
	require.NotNil(t, guests[0].LastActivity)
}

func TestIncrementCounterUnknownGuestIsNoop(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(t)
	amy, _, err := reg.UpsertOnLogin(ctx, "Amy", "selfie")
	require.NoError(t, err)
	reg.IncrementCounter(ctx, amy.ID, CounterWish)

	reg.IncrementCounter(ctx, "does-not-exist", CounterUpload)
	reg.IncrementCounter(ctx, "does-not-exist", CounterWish)

	got, err := reg.Get(ctx, amy.ID)
	require.NoError(t, err)
	assert.Zero(t, got.UploadsCount)
	assert.Equal(t, 1, got.WishesCount)
}

func TestIncrementCounterSwallowsStorageErrors(t *testing.T) {
	reg, store := newTestRegistry(t)
	store.DownloadHook = func(string) error { return errors.New("unavailable") }

	assert.NotPanics(t, func() {
		reg.IncrementCounter(context.Background(), "1", CounterUpload)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(t)
	amy, _, err := reg.UpsertOnLogin(ctx, "Amy", "selfie")
	require.NoError(t, err)
	bob, _, err := reg.UpsertOnLogin(ctx, "Bob", "selfie")
	require.NoError(t, err)

	removed, err := reg.Delete(ctx, amy.ID)
	require.NoError(t, err)
	assert.Equal(t, "Amy", removed.Name)

	guests, err := reg.List(ctx)
	require.NoError(t, err)
	require.Len(t, guests, 1)
	assert.Equal(t, bob.ID, guests[0].ID)

	_, err = reg.Delete(ctx, amy.ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestReconcileCounts(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(t)
	_, err := reg.doc.Update(ctx, func([]Guest) ([]Guest, error) {
		return []Guest{
			{ID: "1", Name: "Amy", UploadsCount: 7},
			{ID: "2", Name: "Bob", UploadsCount: 2},
			{ID: "3", Name: "Cat", UploadsCount: 1},
		}, nil
	})
	require.NoError(t, err)

	changed, err := reg.ReconcileCounts(ctx, map[string]int{"1": 4, "2": 2})
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	guests, err := reg.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, guests[0].UploadsCount)
	assert.Equal(t, 2, guests[1].UploadsCount)
	assert.Equal(t, 0, guests[2].UploadsCount)
}

func TestPublicFallsBackToLastLogin(t *testing.T) {
	login := time.Date(2025, 6, 14, 18, 0, 0, 0, time.UTC)
	g := Guest{ID: "1", Name: "Amy", LastLogin: login}
	assert.Equal(t, login, g.Public().LastActivity)

	activity := login.Add(time.Hour)
	g.LastActivity = &activity
	assert.Equal(t, activity, g.Public().LastActivity)
}
