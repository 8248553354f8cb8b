// Package session holds per-user result logs and the commands that act on them.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Alias1177/Baccarat/internal/analyze"
	"github.com/Alias1177/Baccarat/models"
)

// Pending is the latest analysis waiting for the next round to score it
type Pending struct {
	JournalID uuid.UUID
	Side      models.Side
}

// Session is one user's scoring session. All methods are safe for
// concurrent use; each call runs under the session lock.
type Session struct {
	ID        uuid.UUID
	Owner     string
	UserID    int64
	CreatedAt time.Time

	mu           sync.Mutex
	log          Log
	strategy     analyze.Strategy
	lastActivity time.Time
	pending      *Pending
}

func newSession(owner string, userID int64, strategy analyze.Strategy, now time.Time) *Session {
	return &Session{
		ID:           uuid.New(),
		Owner:        owner,
		UserID:       userID,
		CreatedAt:    now,
		strategy:     strategy,
		lastActivity: now,
	}
}

// Record appends an outcome and hands back the pending analysis it settles
func (s *Session) Record(o models.Outcome) (*Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.log.Record(o); err != nil {
		return nil, err
	}
	s.lastActivity = time.Now()

	settled := s.pending
	s.pending = nil
	return settled, nil
}

// Undo removes the latest round. Any pending analysis is dropped because
// it was computed on the longer log.
func (s *Session) Undo() (models.Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastActivity = time.Now()
	s.pending = nil
	return s.log.Undo()
}

// Clear empties the log
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastActivity = time.Now()
	s.pending = nil
	s.log.Clear()
}

// Results returns a copy of the log
func (s *Session) Results() []models.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Results()
}

// Recent returns a copy of the last n rounds
func (s *Session) Recent(n int) []models.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Recent(n)
}

// Len returns the number of recorded rounds
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Len()
}

// Overview computes the display stats without a prediction
func (s *Session) Overview() models.Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := analyze.Overview(s.log.results)
	report.Strategy = s.strategy.Name()
	return report
}

// Analyze recomputes the full report with the session's strategy
func (s *Session) Analyze() models.Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastActivity = time.Now()
	return analyze.Analyze(s.log.results, s.strategy)
}

// Strategy returns the strategy in use
func (s *Session) Strategy() analyze.Strategy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strategy
}

// SetStrategy swaps the strategy used by Analyze
func (s *Session) SetStrategy(strategy analyze.Strategy) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.strategy = strategy
	s.pending = nil
}

// SetPending remembers an analysis so the next Record can settle it
func (s *Session) SetPending(p Pending) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = &p
}

// LastActivity returns the time of the last command
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Touch marks the session as active
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()
}
