package windowstore

import (
	"context"
	"fmt"
	"time"
)

// Window name for invite-link posts per account.
const NameInvitePost = "invite-post"

// WindowStore tracks per-key sliding windows of event timestamps.
//
// Observe is the single read-modify-write: it appends "now" to the key's
// window, drops entries older than the retention from the front, evicts the
// oldest entries past the capacity bound, and returns the resulting length.
// Timestamps within a window are monotonically non-decreasing (the caller
// feeds event-processing time). Purging is lazy: a quiet key's window is only
// cleaned when it is observed again, which is fine because a quiet key can
// never cross a rate threshold.
type WindowStore interface {
	Observe(ctx context.Context, name, val string, now time.Time) (int, error)
}

func windowKey(name, val string) string {
	return fmt.Sprintf("%s/%s", name, val)
}
