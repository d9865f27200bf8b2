package registry

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps recipients in a mutex-guarded map. Lifetime is the
// process; subscriptions are lost on restart.
type MemoryStore struct {
	mu         sync.RWMutex
	recipients map[string]Recipient
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		recipients: make(map[string]Recipient),
	}
}

func (s *MemoryStore) Subscribe(identity, address, name string) (Recipient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := Recipient{
		Identity:     identity,
		Address:      address,
		Name:         name,
		SubscribedAt: time.Now(),
	}
	s.recipients[identity] = r
	return r, nil
}

func (s *MemoryStore) Unsubscribe(identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.recipients, identity)
	return nil
}

func (s *MemoryStore) List() ([]Recipient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Recipient, 0, len(s.recipients))
	for _, r := range s.recipients {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity < out[j].Identity })
	return out, nil
}
