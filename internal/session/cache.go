package session

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/parking-violations-lookup/internal/domain"
)

// Keys under which the current result set and its query context are stored.
const (
	KeyResults = "currentResults"
	KeyPlate   = "licensePlate"
	KeyState   = "state"
)

// Storage is the session-scoped key/value backend a Cache reads and writes.
type Storage interface {
	GetItem(sessionID, key string) ([]byte, bool)
	SetItem(sessionID, key string, value []byte)
	RemoveItem(sessionID, key string)
}

// Lookup outcomes reported to the CacheObserver.
const (
	ResultHit     = "hit"
	ResultMiss    = "miss"
	ResultCorrupt = "corrupt"
)

// CacheObserver is notified of every Get with one of ResultHit, ResultMiss,
// or ResultCorrupt.
type CacheObserver func(result string)

// Cache is the single-slot result cache for one session: the most recently
// resolved result set and the query that produced it.
type Cache struct {
	storage   Storage
	sessionID string
	logger    *slog.Logger
	observe   CacheObserver
}

// NewCache binds a Cache to a session. observe may be nil.
func NewCache(storage Storage, sessionID string, logger *slog.Logger, observe CacheObserver) *Cache {
	if observe == nil {
		observe = func(string) {}
	}
	return &Cache{
		storage:   storage,
		sessionID: sessionID,
		logger:    logger,
		observe:   observe,
	}
}

// Put replaces the stored result set and query context.
func (c *Cache) Put(results []domain.Violation, qc domain.QueryContext) error {
	if results == nil {
		results = []domain.Violation{}
	}
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	c.storage.SetItem(c.sessionID, KeyResults, data)
	c.setOrRemove(KeyPlate, qc.Plate)
	c.setOrRemove(KeyState, qc.State)
	return nil
}

// Get returns the stored result set. Missing or undecodable entries yield an
// empty, non-nil slice.
func (c *Cache) Get() []domain.Violation {
	data, ok := c.storage.GetItem(c.sessionID, KeyResults)
	if !ok {
		c.observe(ResultMiss)
		return []domain.Violation{}
	}
	var results []domain.Violation
	if err := json.Unmarshal(data, &results); err != nil {
		c.logger.Warn("discarding corrupt cached results", "session_id", c.sessionID, "error", err)
		c.observe(ResultCorrupt)
		return []domain.Violation{}
	}
	if results == nil {
		results = []domain.Violation{}
	}
	c.observe(ResultHit)
	return results
}

// Context returns the stored query context, or the zero value if none.
func (c *Cache) Context() domain.QueryContext {
	var qc domain.QueryContext
	if v, ok := c.storage.GetItem(c.sessionID, KeyPlate); ok {
		qc.Plate = string(v)
	}
	if v, ok := c.storage.GetItem(c.sessionID, KeyState); ok {
		qc.State = string(v)
	}
	return qc
}

// Clear removes the result set and query context.
func (c *Cache) Clear() {
	c.storage.RemoveItem(c.sessionID, KeyResults)
	c.storage.RemoveItem(c.sessionID, KeyPlate)
	c.storage.RemoveItem(c.sessionID, KeyState)
}

func (c *Cache) setOrRemove(key, value string) {
	if value == "" {
		c.storage.RemoveItem(c.sessionID, key)
		return
	}
	c.storage.SetItem(c.sessionID, key, []byte(value))
}
