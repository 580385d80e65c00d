// Package auth resolves request identities, verifies credentials, and
// runs the guest-to-user claim transition on login.
package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/lakonic/taskdeck/models"
	"github.com/lakonic/taskdeck/session"
)

// ResolveOwner computes the effective owner of the current request from
// session state. An authenticated user wins; otherwise the session's
// guest token is used, minted on first need. Minting marks the session
// dirty exactly once; repeated calls within the same session return the
// same identity without re-minting.
func ResolveOwner(sess *session.Session) models.Owner {
	if userID, ok := sess.UserID(); ok {
		return models.UserOwner(userID)
	}
	if token, ok := sess.GuestID(); ok {
		return models.GuestOwner(token)
	}
	token := uuid.NewString()
	sess.SetGuestID(token)
	return models.GuestOwner(token)
}

type ownerContextKey struct{}

// WithOwner stores the resolved owner in the request context.
func WithOwner(ctx context.Context, owner models.Owner) context.Context {
	return context.WithValue(ctx, ownerContextKey{}, owner)
}

// OwnerFromContext returns the owner resolved for this request, if any.
func OwnerFromContext(ctx context.Context) (models.Owner, bool) {
	owner, ok := ctx.Value(ownerContextKey{}).(models.Owner)
	return owner, ok
}
