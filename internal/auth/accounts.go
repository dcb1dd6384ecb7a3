package auth

import (
	"crypto/subtle"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/AlexTLDR/memories/internal/apperrors"
)

// Account is an admin login.
type Account struct {
	ID           string
	Username     string
	PasswordHash string
}

// Accounts is the fixed set of admin logins.
type Accounts struct {
	byName map[string]Account
}

// ParseAccounts reads `username:bcrypt-hash` entries. IDs are assigned in
// order starting at 1.
func ParseAccounts(entries []string) (*Accounts, error) {
	a := &Accounts{byName: make(map[string]Account, len(entries))}
	for i, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		username, hash, ok := strings.Cut(entry, ":")
		if !ok || username == "" || hash == "" {
			return nil, fmt.Errorf("invalid admin user entry %d: expected username:bcrypt-hash", i+1)
		}
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("invalid bcrypt hash for admin %q: %w", username, err)
		}
		a.byName[username] = Account{ID: strconv.Itoa(i + 1), Username: username, PasswordHash: hash}
	}
	return a, nil
}

// Len returns the number of configured admins.
func (a *Accounts) Len() int {
	return len(a.byName)
}

// Authenticate checks a username and password.
func (a *Accounts) Authenticate(username, password string) (Account, error) {
	if username == "" || password == "" {
		return Account{}, apperrors.Validation("username", "username and password are required")
	}
	acct, ok := a.byName[username]
	if !ok {
		return Account{}, apperrors.New(apperrors.CodeUnauthorized, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return Account{}, apperrors.Wrap(apperrors.CodeUnauthorized, "invalid credentials", err)
	}
	return acct, nil
}

// CheckPasscode compares the shared wedding passcode in constant time.
func CheckPasscode(configured, given string) error {
	if configured == "" {
		return apperrors.New(apperrors.CodeInternal, "wedding passcode not configured")
	}
	if subtle.ConstantTimeCompare([]byte(configured), []byte(given)) != 1 {
		return apperrors.New(apperrors.CodeUnauthorized, "invalid wedding passcode")
	}
	return nil
}
