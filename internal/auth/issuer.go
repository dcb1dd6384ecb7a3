package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AlexTLDR/memories/internal/apperrors"
)

// claims is the token payload. Field names match the tokens issued by the
// earlier deployment so existing cookies keep working.
type claims struct {
	jwt.RegisteredClaims
	Type      Kind   `json:"type,omitempty"`
	GuestID   string `json:"guestId,omitempty"`
	GuestName string `json:"guestName,omitempty"`
	UserID    string `json:"userId,omitempty"`
	Username  string `json:"username,omitempty"`
}

// Issuer signs and verifies HS256 tokens.
type Issuer struct {
	secret   []byte
	guestTTL time.Duration
	adminTTL time.Duration
	now      func() time.Time
}

// NewIssuer returns an issuer for the given secret.
func NewIssuer(secret string, guestTTL, adminTTL time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &Issuer{
		secret:   []byte(secret),
		guestTTL: guestTTL,
		adminTTL: adminTTL,
		now:      time.Now,
	}, nil
}

// SetClock overrides the time source used for issuing and validation.
func (i *Issuer) SetClock(now func() time.Time) {
	i.now = now
}

// IssueGuest signs a token for a guest.
func (i *Issuer) IssueGuest(guestID, guestName string) (string, error) {
	return i.sign(claims{Type: KindGuest, GuestID: guestID, GuestName: guestName}, i.guestTTL)
}

// IssueAdmin signs a token for an admin account.
func (i *Issuer) IssueAdmin(userID, username string) (string, error) {
	return i.sign(claims{Type: KindAdmin, UserID: userID, Username: username}, i.adminTTL)
}

func (i *Issuer) sign(c claims, ttl time.Duration) (string, error) {
	now := i.now()
	c.IssuedAt = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, "sign token", err)
	}
	return token, nil
}

// Verify decodes a token into the caller identity.
func (i *Issuer) Verify(token string) (Identity, error) {
	if token == "" {
		return Identity{}, apperrors.New(apperrors.CodeUnauthorized, "no token provided")
	}
	var parsed claims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, apperrors.Wrap(apperrors.CodeUnauthorized, "token expired", err)
		}
		return Identity{}, apperrors.Wrap(apperrors.CodeUnauthorized, "invalid token", err)
	}
	if parsed.Type == KindGuest && parsed.GuestID == "" {
		return Identity{}, apperrors.WithMetadata(apperrors.CodeUnauthorized, "invalid token", map[string]string{"Reason": "missing guest id"})
	}
	return Identity{
		Type:      parsed.Type,
		GuestID:   parsed.GuestID,
		GuestName: parsed.GuestName,
		UserID:    parsed.UserID,
		Username:  parsed.Username,
	}, nil
}
