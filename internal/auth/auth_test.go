package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/AlexTLDR/memories/internal/apperrors"
)

func TestIssueAndVerifyGuest(t *testing.T) {
	issuer, err := NewIssuer("secret", 30*24*time.Hour, 24*time.Hour)
	require.NoError(t, err)

	token, err := issuer.IssueGuest("1700000000000", "Amy")
	require.NoError(t, err)

	id, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.True(t, id.IsGuest())
	assert.False(t, id.IsAdmin())
	assert.Equal(t, "1700000000000", id.SubjectID())
	assert.Equal(t, "Amy", id.DisplayName())
	assert.Equal(t, "guest", id.KindLabel())
}

func TestIssueAndVerifyAdmin(t *testing.T) {
	issuer, err := NewIssuer("secret", time.Hour, time.Hour)
	require.NoError(t, err)

	token, err := issuer.IssueAdmin("1", "bride")
	require.NoError(t, err)

	id, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.True(t, id.IsAdmin())
	assert.Equal(t, "bride", id.DisplayName())
	assert.Equal(t, "1", id.SubjectID())
}

func TestVerifyRejects(t *testing.T) {
	issuer, err := NewIssuer("secret", time.Hour, time.Hour)
	require.NoError(t, err)
	other, err := NewIssuer("other-secret", time.Hour, time.Hour)
	require.NoError(t, err)

	foreign, err := other.IssueGuest("1", "Amy")
	require.NoError(t, err)

	expiredIssuer, err := NewIssuer("secret", time.Hour, time.Hour)
	require.NoError(t, err)
	expiredIssuer.SetClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	expired, err := expiredIssuer.IssueGuest("1", "Amy")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"wrong secret", foreign},
		{"expired", expired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Verify(tt.token)
			assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
		})
	}
}

func TestAccountsAuthenticate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("bride123"), bcrypt.MinCost)
	require.NoError(t, err)

	accounts, err := ParseAccounts([]string{"bride:" + string(hash), " "})
	require.NoError(t, err)
	assert.Equal(t, 1, accounts.Len())

	acct, err := accounts.Authenticate("bride", "bride123")
	require.NoError(t, err)
	assert.Equal(t, "1", acct.ID)

	_, err = accounts.Authenticate("bride", "wrong")
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	_, err = accounts.Authenticate("groom", "bride123")
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	_, err = accounts.Authenticate("", "")
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestParseAccountsRejectsMalformed(t *testing.T) {
	_, err := ParseAccounts([]string{"bride"})
	assert.Error(t, err)

	_, err = ParseAccounts([]string{"bride:not-a-hash"})
	assert.Error(t, err)
}

func TestCheckPasscode(t *testing.T) {
	assert.NoError(t, CheckPasscode("forever", "forever"))
	assert.True(t, errors.Is(CheckPasscode("forever", "never"), apperrors.ErrUnauthorized))
	assert.Equal(t, apperrors.CodeInternal, apperrors.CodeOf(CheckPasscode("", "forever")))
}

func TestIdentityContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), Identity{Type: KindGuest, GuestID: "1"})
	id, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "1", id.GuestID)
}
