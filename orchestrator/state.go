package orchestrator

import (
	"sync"
	"time"

	"github.com/conclave-dao/conclave/core"
)

// State owns the process-local coordination structures: the TTL'd set of
// processed event IDs, the per-(agent,forum) discussion locks, and the
// in-flight execution guard. These are best-effort optimizations; the
// durable conditional transitions remain the cross-process correctness
// boundary.
type State struct {
	mu        sync.Mutex
	processed map[string]time.Time
	ttl       time.Duration
	pairLocks map[string]*sync.Mutex
	inFlight  map[string]struct{}
	clock     core.Clock
}

func NewState(ttl time.Duration, clock core.Clock) *State {
	return &State{
		processed: make(map[string]time.Time),
		ttl:       ttl,
		pairLocks: make(map[string]*sync.Mutex),
		inFlight:  make(map[string]struct{}),
		clock:     clock,
	}
}

// MarkProcessed records an event ID and reports whether it was new.
// Duplicate deliveries inside the TTL window return false.
func (s *State) MarkProcessed(eventID string) bool {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, at := range s.processed {
		if now.Sub(at) > s.ttl {
			delete(s.processed, id)
		}
	}

	if at, ok := s.processed[eventID]; ok && now.Sub(at) <= s.ttl {
		return false
	}
	s.processed[eventID] = now
	return true
}

// PairLock returns the mutex serializing discussion handling for one
// (agent, forum) pair.
func (s *State) PairLock(agentID, forumID string) *sync.Mutex {
	key := agentID + "|" + forumID
	s.mu.Lock()
	defer s.mu.Unlock()
	if lock, ok := s.pairLocks[key]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	s.pairLocks[key] = lock
	return lock
}

// TryLockExecution reserves a proposal for execution within this process.
// Returns false if an execution attempt is already in flight.
func (s *State) TryLockExecution(proposalID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inFlight[proposalID]; ok {
		return false
	}
	s.inFlight[proposalID] = struct{}{}
	return true
}

func (s *State) UnlockExecution(proposalID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, proposalID)
}
