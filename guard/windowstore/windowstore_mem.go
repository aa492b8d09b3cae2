package windowstore

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// MemWindowStore keeps windows in-process. Each Observe runs as a single
// atomic compute on the owning key, so racing events for the same account
// serialize without a global lock. Empty map entries are not reclaimed;
// the window slices themselves decay to the capacity bound.
type MemWindowStore struct {
	Retention time.Duration
	Capacity  int

	windows *xsync.MapOf[string, []time.Time]
}

func NewMemWindowStore(retention time.Duration, capacity int) *MemWindowStore {
	return &MemWindowStore{
		Retention: retention,
		Capacity:  capacity,
		windows:   xsync.NewMapOf[string, []time.Time](),
	}
}

var _ WindowStore = (*MemWindowStore)(nil)

func (s *MemWindowStore) Observe(ctx context.Context, name, val string, now time.Time) (int, error) {
	var count int
	s.windows.Compute(windowKey(name, val), func(old []time.Time, loaded bool) ([]time.Time, bool) {
		w := append(old, now)
		// purge from the front: everything older than the retention
		cutoff := now.Add(-s.Retention)
		for len(w) > 0 && w[0].Before(cutoff) {
			w = w[1:]
		}
		// capacity bound, oldest evicted first
		if s.Capacity > 0 && len(w) > s.Capacity {
			w = w[len(w)-s.Capacity:]
		}
		count = len(w)
		return w, false
	})
	return count, nil
}
