// Package session holds per-client pipeline state between requests. Each
// stage returns a new state value; the store only swaps whole snapshots,
// so readers never observe a half-updated pipeline.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"QuantForge/internal/domain/models"
	"QuantForge/internal/services/preprocess"
)

// ErrNotFound is returned for an unknown or expired session id.
var ErrNotFound = errors.New("session not found")

// State is one immutable snapshot of a client's pipeline.
type State struct {
	ID        string
	Symbol    string
	Dataset   *models.Table
	Prep      *preprocess.Preprocessor
	Split     *preprocess.Split
	ModelIDs  []string
	UpdatedAt time.Time
}

// WithDataset returns a copy of s carrying the new dataset and a reset
// preprocessing state.
func (s State) WithDataset(symbol string, t *models.Table) State {
	s.Symbol = symbol
	s.Dataset = t
	s.Prep = nil
	s.Split = nil
	return s
}

// WithSplit returns a copy of s carrying the fitted preprocessor and split.
func (s State) WithSplit(p *preprocess.Preprocessor, split *preprocess.Split) State {
	s.Prep = p
	s.Split = split
	return s
}

// WithModel returns a copy of s with id appended to the trained-model list.
func (s State) WithModel(id string) State {
	ids := make([]string, len(s.ModelIDs), len(s.ModelIDs)+1)
	copy(ids, s.ModelIDs)
	s.ModelIDs = append(ids, id)
	return s
}

type entry struct {
	state State
	exp   time.Time
}

// Store is an in-memory TTL session store.
type Store struct {
	mu  sync.RWMutex
	m   map[string]entry
	ttl time.Duration
}

// NewStore creates a session store; ttl <= 0 means sessions never expire.
func NewStore(ttl time.Duration) *Store {
	return &Store{m: make(map[string]entry), ttl: ttl}
}

// Create allocates a fresh session and returns its id.
func (s *Store) Create() string {
	id := newID()
	s.put(State{ID: id})
	return id
}

// Get returns the current snapshot for id.
func (s *Store) Get(id string) (State, error) {
	s.mu.RLock()
	e, ok := s.m[id]
	s.mu.RUnlock()
	if !ok {
		return State{}, ErrNotFound
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		s.mu.Lock()
		delete(s.m, id)
		s.mu.Unlock()
		return State{}, ErrNotFound
	}
	return e.state, nil
}

// Put stores the snapshot, refreshing the TTL.
func (s *Store) Put(st State) {
	s.put(st)
}

// Delete drops a session; unknown ids are a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.m, id)
	s.mu.Unlock()
}

func (s *Store) put(st State) {
	st.UpdatedAt = time.Now()
	var exp time.Time
	if s.ttl > 0 {
		exp = st.UpdatedAt.Add(s.ttl)
	}
	s.mu.Lock()
	s.m[st.ID] = entry{state: st, exp: exp}
	s.mu.Unlock()
}

func newID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// fall back to a time-derived id; collisions are unrealistic here
		return hex.EncodeToString([]byte(time.Now().Format("20060102150405.000000000")))
	}
	return hex.EncodeToString(b)
}
