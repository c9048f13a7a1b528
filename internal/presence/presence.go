package presence

import (
	"context"
	"time"
)

// TTL bounds how long a presence entry stays valid without a refresh;
// identify events refresh it.
const TTL = 5 * time.Minute

// Store tracks which socket a user is currently connected on. Presence is
// advisory only: implementations swallow backend errors and report
// "absent" instead, so callers never fail their primary operation on a
// presence lookup. A false negative merely causes a redundant push.
type Store interface {
	// Set upserts the user -> socket mapping with a refreshed TTL.
	Set(ctx context.Context, userID, socketID string)
	// RemoveBySocket deletes every entry held by the given socket. The
	// disconnect event only carries the socket id, not the user id.
	RemoveBySocket(ctx context.Context, socketID string)
	// Get returns the socket id the user is connected on, or ok=false
	// when the user is offline (or presence data is unavailable).
	Get(ctx context.Context, userID string) (socketID string, ok bool)
}
