package countstore

import (
	"context"

	"github.com/puzpuzpuz/xsync/v3"
)

// MemCountStore keeps counters in-process. Counters for accounts that go
// permanently inactive are never evicted; acceptable for a single-community
// process, and the redis variant gives TTL decay where that matters.
type MemCountStore struct {
	counts *xsync.MapOf[string, int]
}

func NewMemCountStore() *MemCountStore {
	return &MemCountStore{
		counts: xsync.NewMapOf[string, int](),
	}
}

var _ CountStore = (*MemCountStore)(nil)

func (s *MemCountStore) GetCount(ctx context.Context, name, val string) (int, error) {
	c, ok := s.counts.Load(countKey(name, val))
	if !ok {
		return 0, nil
	}
	return c, nil
}

func (s *MemCountStore) Increment(ctx context.Context, name, val string) (int, error) {
	// single atomic read-modify-write, so two racing increments can not
	// observe the same post-increment count
	c, _ := s.counts.Compute(countKey(name, val), func(old int, loaded bool) (int, bool) {
		return old + 1, false
	})
	return c, nil
}

func (s *MemCountStore) Reset(ctx context.Context, name, val string) error {
	s.counts.Delete(countKey(name, val))
	return nil
}
