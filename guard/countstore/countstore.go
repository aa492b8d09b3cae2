package countstore

import (
	"context"
	"fmt"
)

// Counter name for disallowed webhook creations per account.
const NameWebhookViolation = "webhook-violation"

// CountStore tracks small per-key violation counters shared across
// concurrently running event tasks. Increment returns the post-increment
// count so callers can make the escalation decision from a single
// read-modify-write. Reset is a release, not a suppression: counting resumes
// from zero on the next increment.
type CountStore interface {
	GetCount(ctx context.Context, name, val string) (int, error)
	Increment(ctx context.Context, name, val string) (int, error)
	Reset(ctx context.Context, name, val string) error
}

func countKey(name, val string) string {
	return fmt.Sprintf("%s/%s", name, val)
}
