// Package identity carries the resolved caller of a request. Users are
// authenticated by an external provider; this service only sees their IDs.
package identity

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrUnauthenticated is returned by write operations invoked without a user.
var ErrUnauthenticated = errors.New("authentication required")

// UserID identifies a shopper. The zero value means anonymous.
type UserID string

// Anonymous reports whether no user has been resolved.
func (u UserID) Anonymous() bool { return u == "" }

func (u UserID) String() string { return string(u) }

// Require returns ErrUnauthenticated for the anonymous user.
func (u UserID) Require() error {
	if u.Anonymous() {
		return ErrUnauthenticated
	}
	return nil
}

type userKey struct{}

// WithUser stores the user in ctx. Only the HTTP boundary should call it;
// domain operations take the UserID as an explicit argument.
func WithUser(ctx context.Context, u UserID) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// FromContext returns the user stored by WithUser, or the anonymous user.
func FromContext(ctx context.Context) UserID {
	if u, ok := ctx.Value(userKey{}).(UserID); ok {
		return u
	}
	return ""
}
