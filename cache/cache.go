// Package cache keeps labeled JSON snapshots of fetched source data and decides
// whether a snapshot may still be used.
package cache

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"jobcost/storage"
)

// Cache keys carry a version tag. Entries under older tags are orphaned, not
// migrated.
const (
	JobsKey    = "jobcost_jobs_v3"
	EntriesKey = "jobcost_entries_v3"
)

// Backend persists raw snapshots. *storage.SQLiteStore satisfies it.
type Backend interface {
	PutSnapshot(snapshot storage.Snapshot) error
	GetSnapshot(key string) (storage.Snapshot, bool, error)
	DeleteSnapshot(key string) (bool, error)
}

// Entry is a decoded snapshot.
type Entry[T any] struct {
	CapturedAt time.Time
	RangeKey   string
	Payload    T
}

// Store reads and writes one cache key.
type Store[T any] struct {
	backend Backend
	key     string
	logger  zerolog.Logger
	now     func() time.Time
}

func New[T any](backend Backend, key string, logger zerolog.Logger) *Store[T] {
	return &Store[T]{
		backend: backend,
		key:     key,
		logger:  logger.With().Str("cache_key", key).Logger(),
		now:     time.Now,
	}
}

// WithClock replaces the capture clock.
func (s *Store[T]) WithClock(now func() time.Time) *Store[T] {
	s.now = now
	return s
}

func (s *Store[T]) Key() string {
	return s.key
}

// Save stores payload under the store's key, overwriting the prior entry.
// Failures are logged and reported through the boolean only; the caller's
// in-memory data stays usable.
func (s *Store[T]) Save(payload T, rangeKey string) (Entry[T], bool) {
	entry := Entry[T]{
		CapturedAt: s.now(),
		RangeKey:   rangeKey,
		Payload:    payload,
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn().Err(err).Msg("cache save failed: encode payload")
		return entry, false
	}

	if err := s.backend.PutSnapshot(storage.Snapshot{
		Key:        s.key,
		CapturedAt: entry.CapturedAt,
		RangeKey:   rangeKey,
		Payload:    encoded,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("cache save failed")
		return entry, false
	}

	s.logger.Debug().Str("range", rangeKey).Int("bytes", len(encoded)).Msg("cache saved")
	return entry, true
}

// Load returns the stored entry. Missing, unreadable and corrupt entries are
// all reported as absent.
func (s *Store[T]) Load() (Entry[T], bool) {
	snapshot, ok, err := s.backend.GetSnapshot(s.key)
	if err != nil {
		s.logger.Debug().Err(err).Msg("cache entry unreadable, treating as absent")
		return Entry[T]{}, false
	}
	if !ok {
		return Entry[T]{}, false
	}

	var payload T
	if err := json.Unmarshal(snapshot.Payload, &payload); err != nil {
		s.logger.Debug().Err(err).Msg("cache entry corrupt, treating as absent")
		return Entry[T]{}, false
	}

	return Entry[T]{
		CapturedAt: snapshot.CapturedAt,
		RangeKey:   snapshot.RangeKey,
		Payload:    payload,
	}, true
}

// Clear removes the stored entry.
func (s *Store[T]) Clear() error {
	_, err := s.backend.DeleteSnapshot(s.key)
	return err
}

// IsStale reports whether entry is outdated relative to ref, an upstream
// "last synced" mark. An absent entry is always stale; without a reference
// a present entry is not.
func IsStale[T any](entry *Entry[T], ref *time.Time) bool {
	if entry == nil {
		return true
	}
	if ref == nil {
		return false
	}
	return ref.After(entry.CapturedAt)
}

// Usable reports whether entry is present, not stale and was captured for
// rangeKey. Unqualified data uses an empty range key.
func Usable[T any](entry *Entry[T], ref *time.Time, rangeKey string) bool {
	if IsStale(entry, ref) {
		return false
	}
	return entry.RangeKey == rangeKey
}
