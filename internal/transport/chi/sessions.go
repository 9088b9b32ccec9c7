package chi

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchdeck/internal/domain"
	searchuc "github.com/kailas-cloud/searchdeck/internal/usecase/search"
)

// sessionHeader carries the search session id. A session owns one search
// section, so a new search on a session supersedes the previous one.
const sessionHeader = "X-Session-ID"

type session struct {
	section  *searchuc.Section
	lastSeen time.Time
}

type sessions struct {
	mu         sync.Mutex
	items      map[string]*session
	newSection func() *searchuc.Section
	ttl        time.Duration
	now        func() time.Time
}

func newSessions(newSection func() *searchuc.Section, ttl time.Duration) *sessions {
	return &sessions{
		items:      make(map[string]*session),
		newSection: newSection,
		ttl:        ttl,
		now:        time.Now,
	}
}

// acquire returns the session for id, creating it when missing.
// An empty id gets a fresh one.
func (s *sessions) acquire(id string) (string, *searchuc.Section, error) {
	if id == "" {
		id = uuid.NewString()
	} else if _, err := uuid.Parse(id); err != nil {
		return "", nil, fmt.Errorf("%w: %s must be a UUID", domain.ErrInvalidRequest, sessionHeader)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.items[id]
	if !ok {
		sess = &session{section: s.newSection()}
		s.items[id] = sess
	}
	sess.lastSeen = s.now()
	return id, sess.section, nil
}

// lookup returns an existing session.
func (s *sessions) lookup(id string) (*searchuc.Section, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.items[id]
	if !ok {
		return nil, false
	}
	sess.lastSeen = s.now()
	return sess.section, true
}

func (s *sessions) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// sweep drops sessions idle longer than the ttl and cancels their searches.
func (s *sessions) sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var expired []*searchuc.Section
	for id, sess := range s.items {
		if sess.lastSeen.Before(cutoff) {
			expired = append(expired, sess.section)
			delete(s.items, id)
		}
	}
	s.mu.Unlock()

	for _, sec := range expired {
		sec.Cancel()
	}
	return len(expired)
}

// RunSessionSweeper drops idle search sessions until ctx is done.
func (s *Server) RunSessionSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.sweep(); n > 0 {
				s.logger.Debug("expired search sessions", zap.Int("count", n), zap.Int("active", s.sessions.count()))
			}
		}
	}
}
