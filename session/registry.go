package session

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pybox/pybox/config"
)

// ErrSessionExists reports a second registration for an identifier that
// already has an active handle.
var ErrSessionExists = errors.New("session already registered")

// ErrUnknownSession reports a request carrying an unrecognized session id
var ErrUnknownSession = errors.New("unknown session")

// Session holds the per-session mutable state. Executions within one
// session are serialized by holding the session lock across the whole
// execute-persist-encode step, so the counter increment can never race.
type Session struct {
	id string

	mu         sync.Mutex
	counter    int
	lastActive time.Time
}

// ID returns the opaque session identifier
func (s *Session) ID() string {
	return s.id
}

// Lock acquires the session's exclusive section
func (s *Session) Lock() {
	s.mu.Lock()
}

// Unlock releases the session's exclusive section
func (s *Session) Unlock() {
	s.mu.Unlock()
}

// NextExecution increments and returns the execution counter. Callers must
// hold the session lock.
func (s *Session) NextExecution() int {
	s.counter++
	return s.counter
}

// ExecutionCount returns the number of executions issued so far
func (s *Session) ExecutionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counter
}

// Registry maps session identifiers to live sessions. Bounded by capacity
// with idle-timeout plus least-recently-active eviction.
type Registry struct {
	logger      *zap.Logger
	maxSessions int
	idleTimeout time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates a bounded registry from configuration
func NewRegistry(logger *zap.Logger, cfg *config.Config) *Registry {
	return &Registry{
		logger:      logger,
		maxSessions: cfg.Sessions.MaxSessions,
		idleTimeout: cfg.GetIdleTimeout(),
		sessions:    make(map[string]*Session),
	}
}

// Register transitions a session from absent to active. Registering an id
// that already has an active handle fails with ErrSessionExists.
func (r *Registry) Register(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[id]; exists {
		return nil, ErrSessionExists
	}

	r.evictLocked()

	s := &Session{id: id, lastActive: time.Now()}
	r.sessions[id] = s
	r.logger.Debug("session registered", zap.String("session_id", id), zap.Int("active", len(r.sessions)))
	return s, nil
}

// Get routes a request to the existing handle for its session id and
// refreshes the session's activity timestamp.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, exists := r.sessions[id]
	if !exists {
		return nil, ErrUnknownSession
	}
	s.lastActive = time.Now()
	return s, nil
}

// Close transitions a session from active to closed, dropping its handle.
// Closing an absent session is a no-op.
func (r *Registry) Close(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[id]; exists {
		delete(r.sessions, id)
		r.logger.Debug("session closed", zap.String("session_id", id), zap.Int("active", len(r.sessions)))
	}
}

// Len returns the number of active sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// evictLocked drops idle-expired sessions, then the least-recently-active
// session while the registry is at capacity. Callers must hold r.mu.
func (r *Registry) evictLocked() {
	now := time.Now()
	for id, s := range r.sessions {
		if now.Sub(s.lastActive) > r.idleTimeout {
			delete(r.sessions, id)
			r.logger.Info("evicted idle session", zap.String("session_id", id))
		}
	}

	for len(r.sessions) >= r.maxSessions {
		var oldest *Session
		for _, s := range r.sessions {
			if oldest == nil || s.lastActive.Before(oldest.lastActive) {
				oldest = s
			}
		}
		if oldest == nil {
			return
		}
		delete(r.sessions, oldest.id)
		r.logger.Warn("evicted least-recently-active session at capacity",
			zap.String("session_id", oldest.id), zap.Int("max_sessions", r.maxSessions))
	}
}
