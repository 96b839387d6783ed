package weighting

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// DefaultHistoryLimit caps the rolling history per signal identifier.
const DefaultHistoryLimit = 100

// Entry is one recorded weight decision.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Weight    float64   `json:"weight"`
	Reason    string    `json:"reason"`
}

// History is the rolling weighting state of one signal identifier.
type History struct {
	SignalID   string    `json:"signal_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	LastWeight float64   `json:"last_weight"`
	Entries    []Entry   `json:"entries"`
}

type shard struct {
	mu      sync.Mutex
	entries map[string]*History
}

// Store keeps weight histories in independently locked shards, so writers
// for different signal identifiers rarely contend and writers for the same
// identifier are serialized.
type Store struct {
	shards []*shard
	limit  int
}

// NewStore creates a store with n shards and the given per-signal cap.
// Non-positive arguments select defaults.
func NewStore(n, limit int) *Store {
	if n <= 0 {
		n = 16
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	s := &Store{shards: make([]*shard, n), limit: limit}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[string]*History)}
	}
	return s
}

func (s *Store) shardFor(signalID string) *shard {
	return s.shards[xxhash.Sum64String(signalID)%uint64(len(s.shards))]
}

// Record appends a weight decision, creating the history on first use and
// dropping the oldest entry past the cap.
func (s *Store) Record(signalID string, at time.Time, weight float64, reason string) {
	sh := s.shardFor(signalID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	h, ok := sh.entries[signalID]
	if !ok {
		h = &History{SignalID: signalID, CreatedAt: at}
		sh.entries[signalID] = h
	}
	h.UpdatedAt = at
	h.LastWeight = weight
	h.Entries = append(h.Entries, Entry{Timestamp: at, Weight: weight, Reason: reason})
	if over := len(h.Entries) - s.limit; over > 0 {
		h.Entries = append(h.Entries[:0:0], h.Entries[over:]...)
	}
}

// Get returns a copy of the history for signalID.
func (s *Store) Get(signalID string) (History, bool) {
	sh := s.shardFor(signalID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	h, ok := sh.entries[signalID]
	if !ok {
		return History{}, false
	}
	out := *h
	out.Entries = append([]Entry(nil), h.Entries...)
	return out, true
}

// Len returns the number of tracked signal identifiers.
func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.entries)
		sh.mu.Unlock()
	}
	return n
}

// MeanLastWeight averages the latest weight across all signals, or returns
// 1 when nothing has been recorded.
func (s *Store) MeanLastWeight() float64 {
	var sum float64
	var n int
	for _, sh := range s.shards {
		sh.mu.Lock()
		for _, h := range sh.entries {
			sum += h.LastWeight
			n++
		}
		sh.mu.Unlock()
	}
	if n == 0 {
		return 1
	}
	return sum / float64(n)
}
