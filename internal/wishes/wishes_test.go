package wishes

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexTLDR/memories/internal/apperrors"
	"github.com/AlexTLDR/memories/internal/auth"
	"github.com/AlexTLDR/memories/internal/guests"
	"github.com/AlexTLDR/memories/internal/ledger"
	"github.com/AlexTLDR/memories/internal/objectstore"
)

type counterCalls []string

func (c *counterCalls) AddToCounter(_ context.Context, id string, kind guests.Counter, n int) {
	*c = append(*c, id+"/"+string(kind))
}

var (
	amy   = auth.Identity{Type: auth.KindGuest, GuestID: "g1", GuestName: "Amy"}
	admin = auth.Identity{Type: auth.KindAdmin, UserID: "1", Username: "admin"}
)

func newTestLedger(t *testing.T) (*Ledger, *counterCalls, *objectstore.Memory) {
	t.Helper()
	store := objectstore.NewMemory("")
	calls := &counterCalls{}
	l := NewLedger(ledger.New[Wish](ledger.ObjectBackend(store, DocumentPath), zerolog.Nop()), calls, zerolog.Nop())
	l.SetClock(func() time.Time { return time.Date(2025, 6, 14, 20, 0, 0, 0, time.UTC) })
	return l, calls, store
}

func TestAppendPreservesOrderAndStampsAuthor(t *testing.T) {
	ctx := context.Background()
	l, calls, store := newTestLedger(t)

	first, err := l.Append(ctx, amy, "  Amy ", " Congrats! ")
	require.NoError(t, err)
	_, err = l.Append(ctx, admin, "Parents", "Welcome to the family")
	require.NoError(t, err)

	assert.Equal(t, "Amy", first.Name)
	assert.Equal(t, "Congrats!", first.Message)
	assert.Equal(t, "g1", first.SubmittedByID)
	assert.Equal(t, "guest", first.SubmittedByType)
	assert.NotEmpty(t, first.ID)

	list, err := l.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Amy", list[0].Name)
	assert.Equal(t, "admin", list[1].SubmittedByType)

	assert.Equal(t, counterCalls{"g1/wish"}, *calls)
	assert.True(t, store.Has(DocumentPath))
}

func TestAppendRequiresNameAndMessage(t *testing.T) {
	tests := []struct {
		name    string
		wName   string
		message string
	}{
		{"missing name", " ", "hi"},
		{"missing message", "Amy", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, calls, _ := newTestLedger(t)

			_, err := l.Append(context.Background(), amy, tt.wName, tt.message)

			assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))
			assert.Empty(t, *calls)
		})
	}
}

func TestDeleteAt(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newTestLedger(t)
	for _, n := range []string{"a", "b", "c"} {
		_, err := l.Append(ctx, admin, n, "msg")
		require.NoError(t, err)
	}

	removed, err := l.DeleteAt(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "b", removed.Name)

	for _, index := range []int{-1, 2, 10} {
		_, err := l.DeleteAt(ctx, index)
		assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err), "index %d", index)
	}

	list, err := l.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, []string{list[0].Name, list[1].Name})
}

func TestDeleteByID(t *testing.T) {
	ctx := context.Background()
	l, _, _ := newTestLedger(t)
	a, err := l.Append(ctx, admin, "a", "msg")
	require.NoError(t, err)
	_, err = l.Append(ctx, admin, "b", "msg")
	require.NoError(t, err)

	removed, err := l.Delete(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, removed.ID)

	_, err = l.Delete(ctx, a.ID)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))

	list, err := l.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].Name)
}
