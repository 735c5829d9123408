package session

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore only works for a single API instance.
type MemoryStore struct {
	entries sync.Map
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{now: time.Now, stop: make(chan struct{})}
	go s.cleanup(time.Minute)
	return s
}

func (s *MemoryStore) Put(_ context.Context, kind, key, value string, ttl time.Duration) error {
	s.entries.Store(kind+":"+key, entry{value: value, expiresAt: s.now().Add(ttl)})
	return nil
}

func (s *MemoryStore) Take(_ context.Context, kind, key string) (string, bool, error) {
	v, ok := s.entries.LoadAndDelete(kind + ":" + key)
	if !ok {
		return "", false, nil
	}
	e, ok := v.(entry)
	if !ok || s.now().After(e.expiresAt) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *MemoryStore) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *MemoryStore) sweep() {
	now := s.now()
	s.entries.Range(func(key, value any) bool {
		if e, ok := value.(entry); ok && now.After(e.expiresAt) {
			s.entries.Delete(key)
		}
		return true
	})
}
