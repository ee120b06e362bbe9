package session

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Store is an in-memory, session-scoped key/value store. Each session holds
// its own set of items and expires after a period of inactivity. When the
// number of sessions exceeds the configured maximum, the least recently used
// session is evicted.
type Store struct {
	clock       clockwork.Clock
	ttl         time.Duration
	maxSessions int

	mu   sync.Mutex
	byID map[string]*bucket
	head *bucket // most recently used
	tail *bucket // least recently used

	onChange func(active int)
}

type bucket struct {
	id       string
	items    map[string][]byte
	lastSeen time.Time
	prev     *bucket
	next     *bucket
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for expiry.
func WithClock(c clockwork.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithActiveGauge registers a callback invoked with the number of live
// sessions whenever it changes.
func WithActiveGauge(fn func(active int)) Option {
	return func(s *Store) { s.onChange = fn }
}

// NewStore creates a Store. A non-positive ttl disables expiry; a
// non-positive maxSessions disables eviction.
func NewStore(ttl time.Duration, maxSessions int, opts ...Option) *Store {
	s := &Store{
		clock:       clockwork.NewRealClock(),
		ttl:         ttl,
		maxSessions: maxSessions,
		byID:        make(map[string]*bucket),
		onChange:    func(int) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetItem returns the value stored under key for the session.
func (s *Store) GetItem(sessionID, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.lookup(sessionID)
	if b == nil {
		return nil, false
	}
	v, ok := b.items[key]
	return v, ok
}

// SetItem stores value under key for the session, creating the session if needed.
func (s *Store) SetItem(sessionID, key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.lookup(sessionID)
	if b == nil {
		b = &bucket{id: sessionID, items: make(map[string][]byte), lastSeen: s.clock.Now()}
		s.byID[sessionID] = b
		s.addToFront(b)
		if s.maxSessions > 0 && len(s.byID) > s.maxSessions {
			s.evict(s.tail)
		}
		s.onChange(len(s.byID))
	}
	b.items[key] = value
}

// RemoveItem deletes key from the session. Removing a missing key is a no-op.
func (s *Store) RemoveItem(sessionID, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b := s.lookup(sessionID); b != nil {
		delete(b.items, key)
	}
}

// Len returns the number of live sessions, including ones that have expired
// but not yet been swept.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// Sweep removes every expired session and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ttl <= 0 {
		return 0
	}
	now := s.clock.Now()
	removed := 0
	// The list is ordered by last use, so expired sessions sit at the tail.
	for s.tail != nil && now.Sub(s.tail.lastSeen) > s.ttl {
		s.evict(s.tail)
		removed++
	}
	if removed > 0 {
		s.onChange(len(s.byID))
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is cancelled.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.Sweep()
		}
	}
}

// lookup returns the live bucket for id, refreshing its position and
// last-seen time, or nil if it is missing or expired. Caller holds s.mu.
func (s *Store) lookup(id string) *bucket {
	b, ok := s.byID[id]
	if !ok {
		return nil
	}
	now := s.clock.Now()
	if s.ttl > 0 && now.Sub(b.lastSeen) > s.ttl {
		s.evict(b)
		s.onChange(len(s.byID))
		return nil
	}
	b.lastSeen = now
	s.moveToFront(b)
	return b
}

func (s *Store) evict(b *bucket) {
	if b == nil {
		return
	}
	delete(s.byID, b.id)
	s.remove(b)
}

func (s *Store) moveToFront(b *bucket) {
	if b == s.head {
		return
	}
	s.remove(b)
	s.addToFront(b)
}

func (s *Store) addToFront(b *bucket) {
	b.next = s.head
	b.prev = nil
	if s.head != nil {
		s.head.prev = b
	}
	s.head = b
	if s.tail == nil {
		s.tail = b
	}
}

func (s *Store) remove(b *bucket) {
	if b.prev != nil {
		b.prev.next = b.next
	} else {
		s.head = b.next
	}
	if b.next != nil {
		b.next.prev = b.prev
	} else {
		s.tail = b.prev
	}
	b.prev, b.next = nil, nil
}
