package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakonic/taskdeck/models"
	"github.com/lakonic/taskdeck/session"
)

func newTestSession(t *testing.T) *session.Session {
	t.Helper()
	m := session.NewManager([]byte("test-secret"))
	return m.Get(httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestResolveOwner_AuthenticatedUser(t *testing.T) {
	sess := newTestSession(t)
	sess.SetUserID(42)
	// A leftover guest token never outranks the user id.
	sess.SetGuestID("stale-token")

	owner := ResolveOwner(sess)
	assert.True(t, owner.IsUser())
	assert.EqualValues(t, 42, owner.UserID)
	assert.Empty(t, owner.GuestID)
}

func TestResolveOwner_ExistingGuest(t *testing.T) {
	sess := newTestSession(t)
	sess.SetGuestID("token-1")

	owner := ResolveOwner(sess)
	assert.False(t, owner.IsUser())
	assert.Equal(t, "token-1", owner.GuestID)
}

func TestResolveOwner_MintsGuestTokenOnce(t *testing.T) {
	sess := newTestSession(t)

	owner := ResolveOwner(sess)
	require.False(t, owner.IsUser())
	require.NotEmpty(t, owner.GuestID)
	_, err := uuid.Parse(owner.GuestID)
	require.NoError(t, err, "guest tokens are v4 UUIDs")
	assert.True(t, sess.Dirty(), "minting writes the token back to the session")

	// Resolving again returns the same token without re-minting.
	again := ResolveOwner(sess)
	assert.Equal(t, owner.GuestID, again.GuestID)

	stored, ok := sess.GuestID()
	require.True(t, ok)
	assert.Equal(t, owner.GuestID, stored)
}

func TestResolveOwner_DistinctSessionsGetDistinctTokens(t *testing.T) {
	first := ResolveOwner(newTestSession(t))
	second := ResolveOwner(newTestSession(t))
	assert.NotEqual(t, first.GuestID, second.GuestID)
}

func TestOwnerContext(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	_, ok := OwnerFromContext(r.Context())
	assert.False(t, ok)

	ctx := WithOwner(r.Context(), models.UserOwner(7))
	owner, ok := OwnerFromContext(ctx)
	require.True(t, ok)
	assert.EqualValues(t, 7, owner.UserID)
}
