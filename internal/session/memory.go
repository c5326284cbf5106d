package session

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/MD-Suhxib/SalesCentri-Demo-Suhaib-sub006/internal/model"
)

// MemoryStore is an in-process Store for tests and the interactive chat
// command. Not durable across restarts.
type MemoryStore struct {
	mu    sync.RWMutex
	data  map[string]map[string]entry
	clock func() time.Time
}

type entry struct {
	value     []byte
	updatedAt time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		data:  make(map[string]map[string]entry),
		clock: time.Now,
	}
}

func (s *MemoryStore) Migrate(ctx context.Context) error { return nil }
func (s *MemoryStore) Close() error                      { return nil }

func (s *MemoryStore) Get(ctx context.Context, scope, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[scope][key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(e.value))
	copy(cp, e.value)
	return cp, true, nil
}

func (s *MemoryStore) Set(ctx context.Context, scope, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data[scope] == nil {
		s.data[scope] = make(map[string]entry)
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	s.data[scope][key] = entry{value: cp, updatedAt: s.clock()}
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data[scope], key)
	return nil
}

func (s *MemoryStore) ForceClearAll(ctx context.Context, scope string, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.data[scope], key)
	}
	return nil
}

func (s *MemoryStore) ListSessions(ctx context.Context, limit int) ([]model.SessionRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type stamped struct {
		rec model.SessionRecord
		at  time.Time
	}
	var all []stamped
	for _, keys := range s.data {
		e, ok := keys[KeySessionRecord]
		if !ok {
			continue
		}
		var rec model.SessionRecord
		if err := json.Unmarshal(e.value, &rec); err != nil {
			return nil, eris.Wrap(err, "memory: unmarshal session")
		}
		all = append(all, stamped{rec: rec, at: e.updatedAt})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].at.After(all[j].at) })

	if len(all) > limit {
		all = all[:limit]
	}
	sessions := make([]model.SessionRecord, len(all))
	for i, s := range all {
		sessions[i] = s.rec
	}
	return sessions, nil
}
