// Package memory implements the per-user experience store: a bounded
// append-only collection with strict FIFO eviction and exponential
// time-decay aggregation.
package memory

import (
	"sync"
	"time"
)

// #region record

// ExperienceRecord captures one completed session outcome. Records are
// immutable once stored.
type ExperienceRecord struct {
	SessionID    string    `json:"session_id"`
	Timestamp    time.Time `json:"timestamp"`
	Intensity    float64   `json:"intensity"`     // [0, 1]
	OutcomeScore float64   `json:"outcome_score"` // [0, 1]
}

// #endregion record

// #region store

// DefaultCapacity bounds the store when no capacity is configured.
const DefaultCapacity = 10_000

// DefaultDecayLambda is the hourly decay constant for aggregation.
const DefaultDecayLambda = 0.07

// Store is a bounded FIFO ring of experience records. The lock is held only
// for O(1) slot operations and snapshot copies; aggregation math runs
// outside it so concurrent readers never observe a half-applied append.
type Store struct {
	mu       sync.Mutex
	records  []ExperienceRecord
	head     int // index of the oldest record when full
	capacity int
	lambda   float64
}

// NewStore creates a store. capacity <= 0 uses DefaultCapacity; lambda <= 0
// uses DefaultDecayLambda.
func NewStore(capacity int, lambda float64) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if lambda <= 0 {
		lambda = DefaultDecayLambda
	}
	return &Store{
		records:  make([]ExperienceRecord, 0, capacity),
		capacity: capacity,
		lambda:   lambda,
	}
}

// #endregion store

// #region write

// Record appends an experience record, evicting the oldest when full.
// Capacity exhaustion is defined behavior, never an error.
func (s *Store) Record(rec ExperienceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.records) < s.capacity {
		s.records = append(s.records, rec)
		return
	}
	// Full: overwrite the oldest slot and advance the head.
	s.records[s.head] = rec
	s.head = (s.head + 1) % s.capacity
}

// #endregion write

// #region read

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Snapshot returns the records oldest-first. The returned slice is a copy.
func (s *Store) Snapshot() []ExperienceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() []ExperienceRecord {
	out := make([]ExperienceRecord, 0, len(s.records))
	for i := 0; i < len(s.records); i++ {
		out = append(out, s.records[(s.head+i)%len(s.records)])
	}
	return out
}

// AggregateScore computes the decayed historical signal:
//
//	score = sum over records of log(1+intensity) * exp(-lambda * age_hours)
//
// The snapshot is taken under the lock; the O(N) scan runs outside it.
func (s *Store) AggregateScore(now time.Time) float64 {
	s.mu.Lock()
	snapshot := s.snapshotLocked()
	lambda := s.lambda
	s.mu.Unlock()

	return decayedSum(snapshot, now, lambda)
}

// #endregion read
