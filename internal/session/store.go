package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Baccarat/internal/analyze"
)

// ErrSessionNotFound is returned when an owner has no open session
var ErrSessionNotFound = errors.New("session not found")

// Store keeps one session per owner for as long as the owner is active
type Store struct {
	mu              sync.Mutex
	sessions        map[string]*Session
	defaultStrategy analyze.Strategy
	logger          zerolog.Logger
}

// NewStore creates an empty store. New sessions start with defaultStrategy.
func NewStore(defaultStrategy analyze.Strategy) *Store {
	return &Store{
		sessions:        make(map[string]*Session),
		defaultStrategy: defaultStrategy,
		logger:          log.With().Str("component", "session_store").Logger(),
	}
}

// Get returns the owner's session if one is open
func (s *Store) Get(owner string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[owner]
	return sess, ok
}

// Open returns the owner's session, creating an empty one on first use
func (s *Store) Open(owner string, userID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[owner]; ok {
		sess.Touch()
		return sess
	}

	sess := newSession(owner, userID, s.defaultStrategy, time.Now())
	s.sessions[owner] = sess
	s.logger.Debug().Str("owner", owner).Str("session_id", sess.ID.String()).Msg("Session opened")
	return sess
}

// Discard ends the owner's session
func (s *Store) Discard(owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[owner]
	if !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, owner)
	s.logger.Debug().Str("owner", owner).Str("session_id", sess.ID.String()).Msg("Session discarded")
	return nil
}

// Len returns the number of open sessions
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep discards sessions idle for longer than ttl and returns how many
func (s *Store) Sweep(now time.Time, ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for owner, sess := range s.sessions {
		if now.Sub(sess.LastActivity()) > ttl {
			delete(s.sessions, owner)
			removed++
		}
	}
	return removed
}

// Run sweeps idle sessions every interval until ctx is cancelled
func (s *Store) Run(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.Sweep(now, ttl); n > 0 {
				s.logger.Info().Int("expired", n).Int("open", s.Len()).Msg("Expired idle sessions")
			}
		}
	}
}
