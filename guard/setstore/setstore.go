package setstore

import (
	"context"
	"encoding/json"
	"io"
	"os"
)

// Name of the set holding account IDs exempt from all enforcement.
const TrustedAccounts = "trusted-accounts"

type SetStore interface {
	InSet(ctx context.Context, name, val string) (bool, error)
}

// MemSetStore holds string sets loaded once at startup. Read-only after load,
// so no locking.
type MemSetStore struct {
	Sets map[string]map[string]bool
}

func NewMemSetStore() MemSetStore {
	return MemSetStore{
		Sets: make(map[string]map[string]bool),
	}
}

func (s MemSetStore) InSet(ctx context.Context, name, val string) (bool, error) {
	set, ok := s.Sets[name]
	if !ok {
		// NOTE: currently returns false when entire set isn't found
		return false, nil
	}
	_, ok = set[val]
	return ok, nil
}

// LoadFromFileJSON reads sets from a JSON file mapping set names to lists of
// values, eg {"trusted-accounts": ["662596869221908480"]}.
func (s *MemSetStore) LoadFromFileJSON(p string) error {

	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	raw, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	var sets map[string][]string
	if err := json.Unmarshal(raw, &sets); err != nil {
		return err
	}

	for name, l := range sets {
		m := make(map[string]bool, len(l))
		for _, val := range l {
			m[val] = true
		}
		s.Sets[name] = m
	}
	return nil
}

// SetSize returns the number of values in a named set, for startup logging.
func (s MemSetStore) SetSize(name string) int {
	return len(s.Sets[name])
}
