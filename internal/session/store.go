// Package session keeps in-progress orders in memory, one per conversation.
// Nothing is persisted: sessions are lost on restart.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/leadgenbot/core/logger"
	"github.com/m3rciful/leadgenbot/internal/lead"
)

// Step is a position in the order form.
type Step string

const (
	StepGeo     Step = "geo"
	StepType    Step = "type"
	StepQty     Step = "qty"
	StepContact Step = "contact"
	StepNotes   Step = "notes"
	StepConfirm Step = "confirm"
)

// Session is the state of one conversation's order form.
type Session struct {
	Step      Step
	Order     lead.Order
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Options configures a Store.
type Options struct {
	// IdleTTL removes sessions untouched for longer than this on Sweep. Zero keeps them forever.
	IdleTTL time.Duration
	// Stripes is the number of per-conversation lock stripes.
	Stripes int
	Now     func() time.Time
}

const defaultStripes = 64

// Store owns all sessions. Callers get copies, never shared pointers.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]Session
	stripes  []sync.Mutex
	ttl      time.Duration
	now      func() time.Time
}

// NewStore constructs an empty store.
func NewStore(opts Options) *Store {
	if opts.Stripes <= 0 {
		opts.Stripes = defaultStripes
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		sessions: make(map[int64]Session),
		stripes:  make([]sync.Mutex, opts.Stripes),
		ttl:      opts.IdleTTL,
		now:      opts.Now,
	}
}

// Get returns a copy of the conversation's session.
func (s *Store) Get(id int64) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Create starts a session at step, replacing any existing one.
func (s *Store) Create(id int64, o lead.Order, step Step) Session {
	now := s.now()
	sess := Session{Step: step, Order: o, CreatedAt: now, UpdatedAt: now}
	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	return sess
}

// Save replaces an existing session and refreshes UpdatedAt.
// It reports false when the session was destroyed in the meantime.
func (s *Store) Save(id int64, sess Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	sess.UpdatedAt = s.now()
	s.sessions[id] = sess
	return true
}

// Destroy removes the session and reports whether one existed.
func (s *Store) Destroy(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Lock serializes transitions of one conversation. Unrelated conversations
// may share a stripe and wait on each other briefly.
func (s *Store) Lock(id int64) (unlock func()) {
	m := &s.stripes[uint64(id)%uint64(len(s.stripes))]
	m.Lock()
	return m.Unlock
}

// Sweep drops sessions idle for longer than the configured TTL and returns how
// many went. Each session is removed under its conversation lock, so a
// transition in progress finishes first and its Save keeps the session alive.
func (s *Store) Sweep(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-s.ttl)
	n := 0
	for _, id := range s.idleSince(cutoff) {
		unlock := s.Lock(id)
		s.mu.Lock()
		if sess, ok := s.sessions[id]; ok && sess.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
		s.mu.Unlock()
		unlock()
	}
	return n
}

func (s *Store) idleSince(cutoff time.Time) []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []int64
	for id, sess := range s.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids
}

// RunJanitor sweeps every interval until ctx is done. It returns at once when
// expiry is disabled.
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 {
				logger.Info(ctx, "session", "session.swept",
					slog.Int("count", n),
					slog.Int("sessions", s.Len()),
				)
			}
		}
	}
}
