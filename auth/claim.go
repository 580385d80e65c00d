package auth

import (
	"context"
	"fmt"

	"github.com/lakonic/taskdeck/datastore"
	"github.com/lakonic/taskdeck/session"
)

// GuestClaimer runs the one-time transition that moves a browser's
// guest tasks to a freshly authenticated user.
type GuestClaimer struct {
	tasks *datastore.TaskRepository
}

// NewGuestClaimer creates a new GuestClaimer.
func NewGuestClaimer(tasks *datastore.TaskRepository) *GuestClaimer {
	return &GuestClaimer{tasks: tasks}
}

// Claim re-owns every task held by the session's guest token to the
// user, then retires the token from the session. Without a token it is
// a no-op, which also makes a repeated call after a successful claim
// safe. Tasks of other guests and users are untouched; the reassignment
// is scoped to the exact token value.
func (c *GuestClaimer) Claim(ctx context.Context, sess *session.Session, userID int64) error {
	token, ok := sess.GuestID()
	if !ok || token == "" {
		return nil
	}
	if _, err := c.tasks.ClaimGuestTasks(ctx, token, userID); err != nil {
		return fmt.Errorf("failed to claim guest tasks for user %d: %w", userID, err)
	}
	// The token is cleared only after the rows moved. A crash before
	// this line leaves a token that matches zero rows, so retrying the
	// claim cannot reassign anything twice.
	sess.ClearGuestID()
	return nil
}
