// Package auth issues and verifies the bearer tokens that identify guests
// and admins, and checks their login credentials.
package auth

import "context"

// Kind distinguishes guests from admins.
type Kind string

const (
	KindGuest Kind = "guest"
	KindAdmin Kind = "admin"
)

// Identity is the decoded caller.
type Identity struct {
	Type      Kind
	GuestID   string
	GuestName string
	UserID    string
	Username  string
}

// IsGuest reports whether the caller signed in with the wedding passcode.
func (i Identity) IsGuest() bool {
	return i.Type == KindGuest
}

// IsAdmin reports whether the caller may use admin operations. Any token
// that is not a guest token is an admin token.
func (i Identity) IsAdmin() bool {
	return !i.IsGuest()
}

// DisplayName is the name recorded on uploads and wishes.
func (i Identity) DisplayName() string {
	if i.IsGuest() {
		return i.GuestName
	}
	return i.Username
}

// SubjectID is the ID recorded on uploads and wishes.
func (i Identity) SubjectID() string {
	if i.IsGuest() {
		return i.GuestID
	}
	return i.UserID
}

// KindLabel is the uploader type written to blob metadata.
func (i Identity) KindLabel() string {
	if i.Type == "" {
		return string(KindAdmin)
	}
	return string(i.Type)
}

type ctxKey struct{}

// WithIdentity attaches the caller to the request context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the caller attached by the auth middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
