package tracker

import "sync"

// Tick is one timestamped price observation keyed by canonical ticker key.
type Tick struct {
	Key   string
	Price float64
	Ts    int64 // unix seconds
}

// entry holds the latest tick plus a fixed-size ring of recent ticks.
type entry struct {
	latest Tick
	hist   []Tick
	head   int // next write position
	size   int
}

// Store is the process-wide price state: connectors write, the scheduler and
// the query surface read. Last writer wins by arrival order regardless of the
// embedded timestamp, which tolerates clock skew across exchanges.
type Store struct {
	mu      sync.RWMutex
	limit   int
	entries map[string]*entry
}

// NewStore creates a store keeping up to limit history points per key.
func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = 300
	}
	return &Store{limit: limit, entries: make(map[string]*entry)}
}

// Upsert writes the latest tick for its key and appends it to history,
// evicting the oldest point once the ring is full. The entry is created on
// first tick.
func (s *Store) Upsert(t Tick) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entries[t.Key]
	if e == nil {
		e = &entry{hist: make([]Tick, s.limit)}
		s.entries[t.Key] = e
	}
	e.latest = t
	e.hist[e.head] = t
	e.head = (e.head + 1) % s.limit
	if e.size < s.limit {
		e.size++
	}
}

// Snapshot returns a point-in-time copy of every key's latest tick.
func (s *Store) Snapshot() map[string]Tick {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Tick, len(s.entries))
	for k, e := range s.entries {
		out[k] = e.latest
	}
	return out
}

// Latest returns the latest tick for key.
func (s *Store) Latest(key string) (Tick, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e := s.entries[key]
	if e == nil {
		return Tick{}, false
	}
	return e.latest, true
}

// History returns the retained ticks for key, oldest first.
func (s *Store) History(key string) []Tick {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e := s.entries[key]
	if e == nil || e.size == 0 {
		return nil
	}
	out := make([]Tick, e.size)
	start := 0
	if e.size == s.limit {
		start = e.head
	}
	for i := 0; i < e.size; i++ {
		out[i] = e.hist[(start+i)%s.limit]
	}
	return out
}

// Remove deletes a key and its history.
func (s *Store) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Has reports whether key currently has a price.
func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[key]
	return ok
}

// Keys returns all keys currently present.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.entries))
	for k := range s.entries {
		out = append(out, k)
	}
	return out
}
