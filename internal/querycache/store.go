package querycache

import (
	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// store holds entries for a Cache. Implementations are not safe for concurrent
// use; the Cache serializes access with its own mutex.
type store interface {
	// get returns the entry and records an access.
	get(key string) (*Entry, bool)
	// peek returns the entry without recording an access.
	peek(key string) (*Entry, bool)
	put(key string, ent *Entry)
	// remove deletes key and reports how many entries were removed (0 or 1).
	remove(key string) int
	keys() []string
	len() int
	purge()
}

// mapStore is the default unbounded store.
type mapStore struct {
	m map[string]*Entry
}

func newMapStore() *mapStore {
	return &mapStore{m: make(map[string]*Entry)}
}

func (s *mapStore) get(key string) (*Entry, bool) {
	ent, ok := s.m[key]
	return ent, ok
}

func (s *mapStore) peek(key string) (*Entry, bool) { return s.get(key) }

func (s *mapStore) put(key string, ent *Entry) { s.m[key] = ent }

func (s *mapStore) remove(key string) int {
	if _, ok := s.m[key]; !ok {
		return 0
	}
	delete(s.m, key)
	return 1
}

func (s *mapStore) keys() []string {
	out := make([]string, 0, len(s.m))
	for k := range s.m {
		out = append(out, k)
	}
	return out
}

func (s *mapStore) len() int { return len(s.m) }

func (s *mapStore) purge() { s.m = make(map[string]*Entry) }

// lruStore caps the number of entries and drops the least recently used one on overflow.
type lruStore struct {
	lru     *simplelru.LRU[string, *Entry]
	size    int
	onEvict func(string, *Entry)
}

func newLRUStore(size int, onEvict func(string, *Entry)) *lruStore {
	l, err := simplelru.NewLRU[string, *Entry](size, nil)
	if err != nil {
		// only returned for size <= 0, which New never passes
		panic(err)
	}
	return &lruStore{lru: l, size: size, onEvict: onEvict}
}

func (s *lruStore) get(key string) (*Entry, bool) { return s.lru.Get(key) }

func (s *lruStore) peek(key string) (*Entry, bool) { return s.lru.Peek(key) }

func (s *lruStore) put(key string, ent *Entry) {
	var victim string
	var victimEnt *Entry
	if !s.lru.Contains(key) && s.lru.Len() >= s.size {
		victim, victimEnt, _ = s.lru.GetOldest()
	}
	if s.lru.Add(key, ent) && s.onEvict != nil {
		s.onEvict(victim, victimEnt)
	}
}

func (s *lruStore) remove(key string) int {
	if s.lru.Remove(key) {
		return 1
	}
	return 0
}

func (s *lruStore) keys() []string { return s.lru.Keys() }

func (s *lruStore) len() int { return s.lru.Len() }

func (s *lruStore) purge() { s.lru.Purge() }
