package refdata

import (
	"sync"
	"time"

	"tradebridge/internal/model"
)

// catalogState holds the thread-safe securities cache.
type catalogState struct {
	mu sync.RWMutex

	// All known securities indexed by BOARD:SECCODE.
	securities map[string]*model.Security

	// Last successful gateway sync timestamp.
	lastSyncAt time.Time
}

func newState() *catalogState {
	return &catalogState{
		securities: make(map[string]*model.Security),
	}
}

// get returns a security by instrument (read-locked).
func (s *catalogState) get(inst model.Instrument) (model.Security, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sec, ok := s.securities[inst.String()]
	if !ok {
		return model.Security{}, false
	}
	return *sec, true
}

// all returns a copy of every known security (read-locked).
func (s *catalogState) all() []model.Security {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.Security, 0, len(s.securities))
	for _, sec := range s.securities {
		result = append(result, *sec)
	}
	return result
}

// size returns the number of known securities (read-locked).
func (s *catalogState) size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.securities)
}

// syncedAt returns the last successful sync time (read-locked).
func (s *catalogState) syncedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSyncAt
}

// upsertLocked adds or updates a security (caller must hold write lock).
func (s *catalogState) upsertLocked(sec model.Security) {
	secCopy := sec
	s.securities[sec.Instrument().String()] = &secCopy
}
