package ledger

import "sync"

// KnownIDs is the in-memory set of every game ID the pipeline has ever
// fetched, accepted or rejected. It is seeded from the durable store at run
// start and only ever grows.
type KnownIDs struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// New builds a set seeded with the given IDs.
func New(seed []string) *KnownIDs {
	ids := make(map[string]struct{}, len(seed))
	for _, id := range seed {
		if id == "" {
			continue
		}
		ids[id] = struct{}{}
	}
	return &KnownIDs{ids: ids}
}

// Contains reports whether the ID was ever fetched.
func (k *KnownIDs) Contains(id string) bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	_, ok := k.ids[id]
	return ok
}

// Add records the IDs as known. Duplicates and empty IDs are ignored.
func (k *KnownIDs) Add(ids ...string) {
	if len(ids) == 0 {
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, id := range ids {
		if id == "" {
			continue
		}
		k.ids[id] = struct{}{}
	}
}

// Len returns the number of known IDs.
func (k *KnownIDs) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.ids)
}
